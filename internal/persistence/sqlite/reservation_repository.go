package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/room-booking/internal/persistence"
)

// ReservationRepository implements persistence.ReservationRepository using
// SQLite. The (room_id, day) unique index rejects double bookings.
type ReservationRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewReservationRepository creates a new SQLite reservation repository.
func NewReservationRepository(pool *ConnectionPool) *ReservationRepository {
	return &ReservationRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const reservationColumns = `id, user_id, room_id, day, status, created_at, updated_at`

// CreateReservation inserts a reservation. A taken (room, day) slot yields
// persistence.ErrDuplicate.
func (r *ReservationRepository) CreateReservation(ctx context.Context, reservation persistence.Reservation) error {
	if reservation.ID == "" || reservation.Day == "" {
		return persistence.ErrConstraintViolation
	}
	status := reservation.Status
	if status == "" {
		status = persistence.StatusActive
	}

	query := `INSERT INTO reservations (` + reservationColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.helper.Exec(ctx, query,
		reservation.ID,
		reservation.UserID,
		reservation.RoomID,
		reservation.Day,
		status,
		formatTime(reservation.CreatedAt),
		formatTime(reservation.UpdatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// UpdateReservation overwrites the day and status of an existing reservation.
// The user and room columns are never rewritten.
func (r *ReservationRepository) UpdateReservation(ctx context.Context, reservation persistence.Reservation) error {
	if reservation.ID == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx,
		`UPDATE reservations SET day = ?, status = ?, updated_at = ? WHERE id = ?`,
		reservation.Day,
		reservation.Status,
		formatTime(reservation.UpdatedAt),
		reservation.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireAffected(result)
}

// GetReservation retrieves a reservation by ID.
func (r *ReservationRepository) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	if id == "" {
		return persistence.Reservation{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	return r.scanReservation(row)
}

// FindReservationBySlot returns the reservation occupying (roomID, day).
func (r *ReservationRepository) FindReservationBySlot(ctx context.Context, roomID, day string) (persistence.Reservation, error) {
	row := r.helper.QueryRow(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE room_id = ? AND day = ?`,
		roomID, day,
	)
	return r.scanReservation(row)
}

// ListReservations returns reservations matching filter ordered by day.
func (r *ReservationRepository) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error) {
	where, args := buildReservationWhere(filter)
	rows, err := r.helper.Query(ctx,
		`SELECT `+reservationColumns+` FROM reservations`+where+` ORDER BY day ASC, created_at ASC, id ASC`,
		args...,
	)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	reservations := []persistence.Reservation{}
	for rows.Next() {
		reservation, err := r.scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reservations: %w", err)
	}
	return reservations, nil
}

// CountReservations returns the number of reservations matching filter.
func (r *ReservationRepository) CountReservations(ctx context.Context, filter persistence.ReservationFilter) (int, error) {
	where, args := buildReservationWhere(filter)
	var count int
	if err := r.helper.QueryRow(ctx, `SELECT COUNT(*) FROM reservations`+where, args...).Scan(&count); err != nil {
		return 0, r.mapper.MapError(err)
	}
	return count, nil
}

// DeleteReservation removes a reservation by ID.
func (r *ReservationRepository) DeleteReservation(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	result, err := r.helper.Exec(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireAffected(result)
}

// ExpireReservations marks every active reservation dated before day as
// inactive.
func (r *ReservationRepository) ExpireReservations(ctx context.Context, day string, at time.Time) (int, error) {
	result, err := r.helper.Exec(ctx,
		`UPDATE reservations SET status = ?, updated_at = ? WHERE status = ? AND day < ?`,
		persistence.StatusInactive, formatTime(at), persistence.StatusActive, day,
	)
	if err != nil {
		return 0, r.mapper.MapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(affected), nil
}

// PurgeOrphanReservations deletes reservations whose room or user is gone.
// Foreign keys normally prevent these, but databases opened without the
// foreign_keys pragma can still accumulate them.
func (r *ReservationRepository) PurgeOrphanReservations(ctx context.Context) (int, error) {
	result, err := r.helper.Exec(ctx, `
		DELETE FROM reservations
		WHERE room_id NOT IN (SELECT id FROM rooms)
		   OR user_id NOT IN (SELECT id FROM users)
	`)
	if err != nil {
		return 0, r.mapper.MapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(affected), nil
}

func buildReservationWhere(filter persistence.ReservationFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if filter.UserID != "" {
		clauses = append(clauses, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.RoomID != "" {
		clauses = append(clauses, "room_id = ?")
		args = append(args, filter.RoomID)
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, filter.Status)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (r *ReservationRepository) scanReservation(row rowScanner) (persistence.Reservation, error) {
	var (
		reservation          persistence.Reservation
		createdAt, updatedAt string
	)
	err := row.Scan(
		&reservation.ID,
		&reservation.UserID,
		&reservation.RoomID,
		&reservation.Day,
		&reservation.Status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Reservation{}, persistence.ErrNotFound
		}
		return persistence.Reservation{}, r.mapper.MapError(err)
	}
	if reservation.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Reservation{}, err
	}
	if reservation.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Reservation{}, err
	}
	return reservation, nil
}
