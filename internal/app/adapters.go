package app

import (
	"context"
	"fmt"
	"time"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/persistence"
)

// Repositories adapts a persistence.Store to the repository interfaces of
// the application services. Days cross the boundary as DayLayout text and
// are parsed back into midnight in loc.
type Repositories struct {
	store persistence.Store
	loc   *time.Location
	now   func() time.Time
}

var (
	_ application.ReservationRepository = (*Repositories)(nil)
	_ application.RoomRepository        = (*Repositories)(nil)
	_ application.RoomReader            = (*Repositories)(nil)
	_ application.UserDirectory         = (*Repositories)(nil)
	_ application.CredentialStore       = (*Repositories)(nil)
)

func NewRepositories(store persistence.Store, loc *time.Location, now func() time.Time) *Repositories {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Repositories{store: store, loc: loc, now: now}
}

func (r *Repositories) dayKey(day time.Time) string {
	return day.In(r.loc).Format(persistence.DayLayout)
}

// Users

func (r *Repositories) GetUser(ctx context.Context, id string) (application.User, error) {
	u, err := r.store.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toAppUser(u), nil
}

func (r *Repositories) ListUsers(ctx context.Context) ([]application.User, error) {
	users, err := r.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]application.User, 0, len(users))
	for _, u := range users {
		out = append(out, toAppUser(u))
	}
	return out, nil
}

func (r *Repositories) DeleteUser(ctx context.Context, id string) error {
	return r.store.DeleteUser(ctx, id)
}

func (r *Repositories) CreateUser(ctx context.Context, creds application.UserCredentials) error {
	return r.store.CreateUser(ctx, fromCredentials(creds, creds.User.CreatedAt))
}

func (r *Repositories) UpdateCredentials(ctx context.Context, creds application.UserCredentials) error {
	return r.store.UpdateUser(ctx, fromCredentials(creds, r.now()))
}

func (r *Repositories) GetCredentials(ctx context.Context, id string) (application.UserCredentials, error) {
	u, err := r.store.GetUser(ctx, id)
	if err != nil {
		return application.UserCredentials{}, err
	}
	return toCredentials(u), nil
}

func (r *Repositories) GetCredentialsByEmail(ctx context.Context, email string) (application.UserCredentials, error) {
	u, err := r.store.GetUserByEmail(ctx, email)
	if err != nil {
		return application.UserCredentials{}, err
	}
	return toCredentials(u), nil
}

func (r *Repositories) GetCredentialsByResetToken(ctx context.Context, digest string, reference time.Time) (application.UserCredentials, error) {
	u, err := r.store.GetUserByResetToken(ctx, digest, reference)
	if err != nil {
		return application.UserCredentials{}, err
	}
	return toCredentials(u), nil
}

// Rooms

func (r *Repositories) CreateRoom(ctx context.Context, room application.Room) error {
	return r.store.CreateRoom(ctx, fromAppRoom(room))
}

func (r *Repositories) UpdateRoom(ctx context.Context, room application.Room) error {
	return r.store.UpdateRoom(ctx, fromAppRoom(room))
}

func (r *Repositories) GetRoom(ctx context.Context, id string) (application.Room, error) {
	room, err := r.store.GetRoom(ctx, id)
	if err != nil {
		return application.Room{}, err
	}
	return toAppRoom(room), nil
}

func (r *Repositories) ListRooms(ctx context.Context, query persistence.RoomQuery) ([]application.Room, error) {
	rooms, err := r.store.ListRooms(ctx, query)
	if err != nil {
		return nil, err
	}
	out := make([]application.Room, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, toAppRoom(room))
	}
	return out, nil
}

func (r *Repositories) CountRooms(ctx context.Context, filters []persistence.RoomFilter) (int, error) {
	return r.store.CountRooms(ctx, filters)
}

func (r *Repositories) DeleteRoom(ctx context.Context, id string) error {
	return r.store.DeleteRoom(ctx, id)
}

// Reservations

func (r *Repositories) CreateReservation(ctx context.Context, res application.Reservation) error {
	return r.store.CreateReservation(ctx, r.fromAppReservation(res))
}

func (r *Repositories) UpdateReservation(ctx context.Context, res application.Reservation) error {
	return r.store.UpdateReservation(ctx, r.fromAppReservation(res))
}

func (r *Repositories) GetReservation(ctx context.Context, id string) (application.Reservation, error) {
	res, err := r.store.GetReservation(ctx, id)
	if err != nil {
		return application.Reservation{}, err
	}
	return r.toAppReservation(res)
}

func (r *Repositories) FindReservationBySlot(ctx context.Context, roomID string, day time.Time) (application.Reservation, error) {
	res, err := r.store.FindReservationBySlot(ctx, roomID, r.dayKey(day))
	if err != nil {
		return application.Reservation{}, err
	}
	return r.toAppReservation(res)
}

func (r *Repositories) ListReservations(ctx context.Context, filter application.ReservationFilter) ([]application.Reservation, error) {
	items, err := r.store.ListReservations(ctx, toStoreFilter(filter))
	if err != nil {
		return nil, err
	}
	out := make([]application.Reservation, 0, len(items))
	for _, item := range items {
		res, err := r.toAppReservation(item)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

func (r *Repositories) CountReservations(ctx context.Context, filter application.ReservationFilter) (int, error) {
	return r.store.CountReservations(ctx, toStoreFilter(filter))
}

func (r *Repositories) DeleteReservation(ctx context.Context, id string) error {
	return r.store.DeleteReservation(ctx, id)
}

func (r *Repositories) ExpireReservations(ctx context.Context, today time.Time, at time.Time) (int, error) {
	return r.store.ExpireReservations(ctx, r.dayKey(today), at)
}

// PurgeOrphanReservations passes through to the store for the reconciler.
func (r *Repositories) PurgeOrphanReservations(ctx context.Context) (int, error) {
	return r.store.PurgeOrphanReservations(ctx)
}

func toAppUser(u persistence.User) application.User {
	return application.User{
		ID:        u.ID,
		Name:      u.Name,
		Tel:       u.Tel,
		Email:     u.Email,
		Role:      application.Role(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

func toCredentials(u persistence.User) application.UserCredentials {
	return application.UserCredentials{
		User:                toAppUser(u),
		PasswordHash:        u.PasswordHash,
		ResetPasswordToken:  u.ResetPasswordToken,
		ResetPasswordExpire: u.ResetPasswordExpire,
	}
}

func fromCredentials(c application.UserCredentials, updatedAt time.Time) persistence.User {
	return persistence.User{
		ID:                  c.User.ID,
		Name:                c.User.Name,
		Tel:                 c.User.Tel,
		Email:               c.User.Email,
		Role:                string(c.User.Role),
		PasswordHash:        c.PasswordHash,
		ResetPasswordToken:  c.ResetPasswordToken,
		ResetPasswordExpire: c.ResetPasswordExpire,
		CreatedAt:           c.User.CreatedAt,
		UpdatedAt:           updatedAt,
	}
}

func toAppRoom(r persistence.Room) application.Room {
	return application.Room{
		ID:         r.ID,
		Name:       r.Name,
		Address:    r.Address,
		Tel:        r.Tel,
		OpenHours:  r.OpenHours,
		CloseHours: r.CloseHours,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func fromAppRoom(r application.Room) persistence.Room {
	return persistence.Room{
		ID:         r.ID,
		Name:       r.Name,
		Address:    r.Address,
		Tel:        r.Tel,
		OpenHours:  r.OpenHours,
		CloseHours: r.CloseHours,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func (r *Repositories) toAppReservation(res persistence.Reservation) (application.Reservation, error) {
	day, err := time.ParseInLocation(persistence.DayLayout, res.Day, r.loc)
	if err != nil {
		return application.Reservation{}, fmt.Errorf("app: reservation %s has malformed day %q: %w", res.ID, res.Day, err)
	}
	return application.Reservation{
		ID:        res.ID,
		UserID:    res.UserID,
		RoomID:    res.RoomID,
		Date:      day,
		Status:    application.ReservationStatus(res.Status),
		CreatedAt: res.CreatedAt,
		UpdatedAt: res.UpdatedAt,
	}, nil
}

func (r *Repositories) fromAppReservation(res application.Reservation) persistence.Reservation {
	return persistence.Reservation{
		ID:        res.ID,
		UserID:    res.UserID,
		RoomID:    res.RoomID,
		Day:       r.dayKey(res.Date),
		Status:    string(res.Status),
		CreatedAt: res.CreatedAt,
		UpdatedAt: res.UpdatedAt,
	}
}

func toStoreFilter(f application.ReservationFilter) persistence.ReservationFilter {
	return persistence.ReservationFilter{
		UserID: f.UserID,
		RoomID: f.RoomID,
		Status: string(f.Status),
	}
}
