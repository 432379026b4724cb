package persistence

import "time"

// Reservation status values stored by every backend.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// DayLayout is the text encoding of a reservation day. Lexicographic order of
// encoded days matches chronological order.
const DayLayout = "2006-01-02"

// User represents an account that can hold reservations.
type User struct {
	ID                  string
	Name                string
	Tel                 string
	Email               string
	Role                string
	PasswordHash        string
	ResetPasswordToken  *string
	ResetPasswordExpire *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Room represents a bookable room.
type Room struct {
	ID         string
	Name       string
	Address    string
	Tel        string
	OpenHours  string
	CloseHours string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Reservation binds a user to a room for one calendar day.
type Reservation struct {
	ID        string
	UserID    string
	RoomID    string
	Day       string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}
