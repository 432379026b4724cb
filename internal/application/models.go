package application

import (
	"time"

	"github.com/example/room-booking/internal/persistence"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// Role is a user's authorization level.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	StatusActive   ReservationStatus = persistence.StatusActive
	StatusInactive ReservationStatus = persistence.StatusInactive
)

// User represents an account exposed by the application services.
type User struct {
	ID        string
	Name      string
	Tel       string
	Email     string
	Role      Role
	CreatedAt time.Time
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Principal returns the principal acting as u.
func (u User) Principal() Principal {
	return Principal{UserID: u.ID, IsAdmin: u.IsAdmin()}
}

// UserCredentials models the authentication attributes persisted for a user.
type UserCredentials struct {
	User                User
	PasswordHash        string
	ResetPasswordToken  *string
	ResetPasswordExpire *time.Time
}

// RegisterInput captures the fields supplied when signing up.
type RegisterInput struct {
	Name     string
	Tel      string
	Email    string
	Password string
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

// RoomInput captures caller provided room fields.
type RoomInput struct {
	Name       string
	Address    string
	Tel        string
	OpenHours  string
	CloseHours string
}

// CreateRoomParams wraps the data required to create a room.
type CreateRoomParams struct {
	Principal Principal
	Input     RoomInput
}

// UpdateRoomParams wraps the data required to update a room.
type UpdateRoomParams struct {
	Principal Principal
	RoomID    string
	Input     RoomInput
}

// ListRoomsParams describes a filtered, sorted and paginated room listing.
// Page and Limit are one-based and default to 1 and 25.
type ListRoomsParams struct {
	Select  []string
	Filters []persistence.RoomFilter
	Sort    []persistence.SortField
	Page    int
	Limit   int
}

// PageRef points at a neighbouring page of a listing.
type PageRef struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Pagination links to the pages around the current one.
type Pagination struct {
	Next *PageRef `json:"next,omitempty"`
	Prev *PageRef `json:"prev,omitempty"`
}

// RoomPage is one page of a room listing.
type RoomPage struct {
	Rooms      []Room
	Select     []string
	Total      int
	Pagination Pagination
}

// Reservation binds a user to a room for one calendar day.
type Reservation struct {
	ID        string
	UserID    string
	RoomID    string
	Date      time.Time
	Status    ReservationStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReservationInput captures the fields of a new reservation. An empty UserID
// books for the acting principal.
type ReservationInput struct {
	UserID string
	RoomID string
	Date   time.Time
}

// ReservationPatch captures the fields a caller asked to change. Nil fields
// are left untouched.
type ReservationPatch struct {
	UserID *string
	RoomID *string
	Date   *time.Time
}

// CreateReservationParams wraps the data required to create a reservation.
type CreateReservationParams struct {
	Principal Principal
	Input     ReservationInput
}

// UpdateReservationParams wraps the data required to update a reservation.
type UpdateReservationParams struct {
	Principal     Principal
	ReservationID string
	Patch         ReservationPatch
}

// ReservationFilter narrows reservation listings. Empty fields match everything.
type ReservationFilter struct {
	UserID string
	RoomID string
	Status ReservationStatus
}
