// Package testfixtures builds deterministic users, rooms and reservations and
// opens throwaway stores for integration tests.
package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/room-booking/internal/persistence"
)

var (
	userCounter        uint64
	roomCounter        uint64
	reservationCounter uint64
)

// referenceTime is noon on the reference booking day.
var referenceTime = time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline instant used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceDay returns the reference day shifted by offset days, encoded with
// persistence.DayLayout.
func ReferenceDay(offset int) string {
	return referenceTime.AddDate(0, 0, offset).Format(persistence.DayLayout)
}

// ----------------------------- User fixtures -----------------------------

// UserOption configures a generated user.
type UserOption func(*persistence.User)

// NewUser returns a regular user with a unique id, email and tel.
func NewUser(opts ...UserOption) persistence.User {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	user := persistence.User{
		ID:           id,
		Name:         fmt.Sprintf("User %03d", idx),
		Tel:          fmt.Sprintf("090-%04d", idx),
		Email:        id + "@example.com",
		Role:         "user",
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&user)
	}
	return user
}

func WithUserID(id string) UserOption {
	return func(u *persistence.User) { u.ID = id }
}

func WithUserEmail(email string) UserOption {
	return func(u *persistence.User) { u.Email = email }
}

func WithUserTel(tel string) UserOption {
	return func(u *persistence.User) { u.Tel = tel }
}

// WithAdminRole marks the user as an administrator.
func WithAdminRole() UserOption {
	return func(u *persistence.User) { u.Role = "admin" }
}

// WithResetToken stores digest with an expiry of expires.
func WithResetToken(digest string, expires time.Time) UserOption {
	return func(u *persistence.User) {
		u.ResetPasswordToken = &digest
		u.ResetPasswordExpire = &expires
	}
}

// ----------------------------- Room fixtures -----------------------------

// RoomOption configures a generated room.
type RoomOption func(*persistence.Room)

// NewRoom returns a room open 08:00 to 20:00.
func NewRoom(opts ...RoomOption) persistence.Room {
	idx := atomic.AddUint64(&roomCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	room := persistence.Room{
		ID:         fmt.Sprintf("room-%03d", idx),
		Name:       fmt.Sprintf("Room %03d", idx),
		Address:    fmt.Sprintf("%d Main Street", idx),
		Tel:        fmt.Sprintf("03-%04d", idx),
		OpenHours:  "08:00",
		CloseHours: "20:00",
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	for _, opt := range opts {
		opt(&room)
	}
	return room
}

func WithRoomID(id string) RoomOption {
	return func(r *persistence.Room) { r.ID = id }
}

func WithRoomName(name string) RoomOption {
	return func(r *persistence.Room) { r.Name = name }
}

func WithRoomAddress(address string) RoomOption {
	return func(r *persistence.Room) { r.Address = address }
}

func WithRoomHours(open, close string) RoomOption {
	return func(r *persistence.Room) {
		r.OpenHours = open
		r.CloseHours = close
	}
}

// -------------------------- Reservation fixtures --------------------------

// ReservationOption configures a generated reservation.
type ReservationOption func(*persistence.Reservation)

// NewReservation returns an active reservation of room by user on day.
func NewReservation(userID, roomID, day string, opts ...ReservationOption) persistence.Reservation {
	idx := atomic.AddUint64(&reservationCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Second)
	res := persistence.Reservation{
		ID:        fmt.Sprintf("reservation-%03d", idx),
		UserID:    userID,
		RoomID:    roomID,
		Day:       day,
		Status:    persistence.StatusActive,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&res)
	}
	return res
}

func WithReservationID(id string) ReservationOption {
	return func(r *persistence.Reservation) { r.ID = id }
}

func WithInactiveStatus() ReservationOption {
	return func(r *persistence.Reservation) { r.Status = persistence.StatusInactive }
}
