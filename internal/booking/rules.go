// Package booking holds the pure reservation rules: past-date detection,
// slot conflict classification and the per-user active quota.
package booking

import (
	"fmt"
	"time"
)

// User-facing rule messages.
const (
	MsgCreateForOtherUser = "Not authorized to create reservation for this user"
	MsgPastDateCreate     = "Cannot create reservation for a past date"
	MsgPastDateUpdate     = "Cannot set reservation to a past date"
	MsgRoomNotFound       = "Room not found"
	MsgReservationMissing = "Reservation not found"
	MsgAlreadyBookedByYou = "You have already booked this room for the selected date"
	MsgRoomAlreadyBooked  = "Room is already booked for the selected date"
	MsgUpdateForbidden    = "Not authorized to update this reservation"
	MsgAccessForbidden    = "Not authorized to access this reservation"
	MsgDeleteForbidden    = "Not authorized to delete this reservation"
	MsgListUserForbidden  = "Not authorized to access reservations for this user"
	MsgUserImmutable      = "Cannot change the user of the reservation"
	MsgRoomImmutable      = "Cannot change the room of the reservation"
)

// DefaultMaxActive is the default number of active reservations a user may hold.
const DefaultMaxActive = 3

// QuotaMessage returns the rejection message for a user at the quota.
func QuotaMessage(max int) string {
	return fmt.Sprintf("User cannot have more than %d active reservations", max)
}

// ConflictType describes how a proposed booking collides with an occupied slot.
type ConflictType string

const (
	// ConflictNone means the slot is free or held by the reservation being edited.
	ConflictNone ConflictType = ""
	// ConflictSameUser means the proposer already holds the slot.
	ConflictSameUser ConflictType = "same_user"
	// ConflictOtherUser means someone else holds the slot.
	ConflictOtherUser ConflictType = "other_user"
)

// Slot identifies the holder of an occupied (room, day).
type Slot struct {
	ReservationID string
	UserID        string
}

// ClassifyConflict compares the occupant of a slot with the proposing user.
// occupant is nil when the slot is free. selfID is the reservation being
// updated, which never conflicts with itself; it is empty on create.
func ClassifyConflict(occupant *Slot, proposerID, selfID string) ConflictType {
	if occupant == nil {
		return ConflictNone
	}
	if selfID != "" && occupant.ReservationID == selfID {
		return ConflictNone
	}
	if occupant.UserID == proposerID {
		return ConflictSameUser
	}
	return ConflictOtherUser
}

// Message returns the user-facing text for a conflict.
func (c ConflictType) Message() string {
	switch c {
	case ConflictSameUser:
		return MsgAlreadyBookedByYou
	case ConflictOtherUser:
		return MsgRoomAlreadyBooked
	}
	return ""
}

// QuotaExceeded reports whether a user holding active reservations may not
// take another one.
func QuotaExceeded(active, max int) bool {
	if max <= 0 {
		max = DefaultMaxActive
	}
	return active >= max
}

// IsPast reports whether day lies strictly before today. Both values must be
// normalized days.
func IsPast(day, today time.Time) bool {
	return day.Before(today)
}
