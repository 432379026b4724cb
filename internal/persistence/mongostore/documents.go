package mongostore

import (
	"time"

	"github.com/example/room-booking/internal/persistence"
)

type userDoc struct {
	ID                  string     `bson:"_id"`
	Name                string     `bson:"name"`
	Tel                 string     `bson:"tel"`
	Email               string     `bson:"email"`
	Role                string     `bson:"role"`
	PasswordHash        string     `bson:"password_hash"`
	ResetPasswordToken  *string    `bson:"reset_password_token,omitempty"`
	ResetPasswordExpire *time.Time `bson:"reset_password_expire,omitempty"`
	CreatedAt           time.Time  `bson:"created_at"`
	UpdatedAt           time.Time  `bson:"updated_at"`
}

func userToDoc(u persistence.User) userDoc {
	return userDoc{
		ID:                  u.ID,
		Name:                u.Name,
		Tel:                 u.Tel,
		Email:               u.Email,
		Role:                u.Role,
		PasswordHash:        u.PasswordHash,
		ResetPasswordToken:  u.ResetPasswordToken,
		ResetPasswordExpire: u.ResetPasswordExpire,
		CreatedAt:           u.CreatedAt.UTC(),
		UpdatedAt:           u.UpdatedAt.UTC(),
	}
}

func (d userDoc) toUser() persistence.User {
	return persistence.User{
		ID:                  d.ID,
		Name:                d.Name,
		Tel:                 d.Tel,
		Email:               d.Email,
		Role:                d.Role,
		PasswordHash:        d.PasswordHash,
		ResetPasswordToken:  d.ResetPasswordToken,
		ResetPasswordExpire: d.ResetPasswordExpire,
		CreatedAt:           d.CreatedAt,
		UpdatedAt:           d.UpdatedAt,
	}
}

type roomDoc struct {
	ID         string    `bson:"_id"`
	Name       string    `bson:"name"`
	Address    string    `bson:"address"`
	Tel        string    `bson:"tel"`
	OpenHours  string    `bson:"open_hours"`
	CloseHours string    `bson:"close_hours"`
	CreatedAt  time.Time `bson:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

func roomToDoc(r persistence.Room) roomDoc {
	return roomDoc{
		ID:         r.ID,
		Name:       r.Name,
		Address:    r.Address,
		Tel:        r.Tel,
		OpenHours:  r.OpenHours,
		CloseHours: r.CloseHours,
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
	}
}

func (d roomDoc) toRoom() persistence.Room {
	return persistence.Room{
		ID:         d.ID,
		Name:       d.Name,
		Address:    d.Address,
		Tel:        d.Tel,
		OpenHours:  d.OpenHours,
		CloseHours: d.CloseHours,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

type reservationDoc struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user"`
	RoomID    string    `bson:"room"`
	Day       string    `bson:"day"`
	Status    string    `bson:"status"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func reservationToDoc(r persistence.Reservation) reservationDoc {
	return reservationDoc{
		ID:        r.ID,
		UserID:    r.UserID,
		RoomID:    r.RoomID,
		Day:       r.Day,
		Status:    r.Status,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func (d reservationDoc) toReservation() persistence.Reservation {
	return persistence.Reservation{
		ID:        d.ID,
		UserID:    d.UserID,
		RoomID:    d.RoomID,
		Day:       d.Day,
		Status:    d.Status,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}
