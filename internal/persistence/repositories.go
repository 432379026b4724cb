package persistence

import (
	"context"
	"time"
)

// UserRepository exposes CRUD operations for users.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByResetToken(ctx context.Context, tokenHash string, reference time.Time) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	// DeleteUser removes the user together with every reservation it owns.
	DeleteUser(ctx context.Context, id string) error
}

// RoomRepository exposes CRUD and query operations for rooms.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	UpdateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context, query RoomQuery) ([]Room, error)
	CountRooms(ctx context.Context, filters []RoomFilter) (int, error)
	// DeleteRoom removes the room together with every reservation referencing it.
	DeleteRoom(ctx context.Context, id string) error
}

// ReservationFilter narrows reservation queries. Empty fields match everything.
type ReservationFilter struct {
	UserID string
	RoomID string
	Status string
}

// ReservationRepository stores reservations. Implementations enforce a unique
// (room, day) constraint and report violations as ErrDuplicate.
type ReservationRepository interface {
	CreateReservation(ctx context.Context, reservation Reservation) error
	UpdateReservation(ctx context.Context, reservation Reservation) error
	GetReservation(ctx context.Context, id string) (Reservation, error)
	FindReservationBySlot(ctx context.Context, roomID, day string) (Reservation, error)
	ListReservations(ctx context.Context, filter ReservationFilter) ([]Reservation, error)
	CountReservations(ctx context.Context, filter ReservationFilter) (int, error)
	DeleteReservation(ctx context.Context, id string) error
	// ExpireReservations marks active reservations dated before day as
	// inactive and returns the number changed.
	ExpireReservations(ctx context.Context, day string, at time.Time) (int, error)
	// PurgeOrphanReservations deletes reservations whose room or user no
	// longer exists and returns the number removed.
	PurgeOrphanReservations(ctx context.Context) (int, error)
}

// Store groups the repositories exposed by a backend.
type Store interface {
	UserRepository
	RoomRepository
	ReservationRepository
	Ping(ctx context.Context) error
	Close() error
}
