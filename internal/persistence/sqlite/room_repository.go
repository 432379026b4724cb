package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/example/room-booking/internal/persistence"
)

// RoomRepository implements persistence.RoomRepository using SQLite.
type RoomRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewRoomRepository creates a new SQLite room repository.
func NewRoomRepository(pool *ConnectionPool) *RoomRepository {
	return &RoomRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const roomColumns = `id, name, address, tel, open_hours, close_hours, created_at, updated_at`

var roomColumnByField = map[string]string{
	persistence.RoomFieldName:       "name",
	persistence.RoomFieldAddress:    "address",
	persistence.RoomFieldTel:        "tel",
	persistence.RoomFieldOpenHours:  "open_hours",
	persistence.RoomFieldCloseHours: "close_hours",
	persistence.RoomFieldCreatedAt:  "created_at",
}

var sqlOperators = map[persistence.FilterOp]string{
	persistence.OpEq:  "=",
	persistence.OpGt:  ">",
	persistence.OpGte: ">=",
	persistence.OpLt:  "<",
	persistence.OpLte: "<=",
}

// CreateRoom inserts a new room into the database.
func (r *RoomRepository) CreateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `INSERT INTO rooms (` + roomColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.helper.Exec(ctx, query,
		room.ID,
		room.Name,
		room.Address,
		room.Tel,
		room.OpenHours,
		room.CloseHours,
		formatTime(room.CreatedAt),
		formatTime(room.UpdatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// UpdateRoom updates an existing room in the database.
func (r *RoomRepository) UpdateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" {
		return persistence.ErrNotFound
	}

	query := `
		UPDATE rooms
		SET name = ?, address = ?, tel = ?, open_hours = ?, close_hours = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.helper.Exec(ctx, query,
		room.Name,
		room.Address,
		room.Tel,
		room.OpenHours,
		room.CloseHours,
		formatTime(room.UpdatedAt),
		room.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireAffected(result)
}

// GetRoom retrieves a room by ID from the database.
func (r *RoomRepository) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	if id == "" {
		return persistence.Room{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id)
	return r.scanRoom(row)
}

// ListRooms returns rooms matching the query's filters in the requested
// order and page.
func (r *RoomRepository) ListRooms(ctx context.Context, query persistence.RoomQuery) ([]persistence.Room, error) {
	where, args, err := buildRoomWhere(query.Filters)
	if err != nil {
		return nil, err
	}
	orderBy, err := buildRoomOrder(query.Sort)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + roomColumns + ` FROM rooms`)
	sb.WriteString(where)
	sb.WriteString(orderBy)
	if query.Limit > 0 {
		sb.WriteString(` LIMIT ? OFFSET ?`)
		args = append(args, query.Limit, query.Offset)
	}

	rows, err := r.helper.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	rooms := []persistence.Room{}
	for rows.Next() {
		room, err := r.scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rooms: %w", err)
	}
	return rooms, nil
}

// CountRooms returns the number of rooms matching filters.
func (r *RoomRepository) CountRooms(ctx context.Context, filters []persistence.RoomFilter) (int, error) {
	where, args, err := buildRoomWhere(filters)
	if err != nil {
		return 0, err
	}
	var count int
	if err := r.helper.QueryRow(ctx, `SELECT COUNT(*) FROM rooms`+where, args...).Scan(&count); err != nil {
		return 0, r.mapper.MapError(err)
	}
	return count, nil
}

// DeleteRoom removes the room and its reservations in one transaction.
func (r *RoomRepository) DeleteRoom(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE room_id = ?`, id); err != nil {
			return r.mapper.MapError(err)
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
		if err != nil {
			return r.mapper.MapError(err)
		}
		return requireAffected(result)
	})
}

func buildRoomWhere(filters []persistence.RoomFilter) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}

	clauses := make([]string, 0, len(filters))
	args := make([]any, 0, len(filters))
	for _, f := range filters {
		column, ok := roomColumnByField[f.Field]
		if !ok {
			return "", nil, fmt.Errorf("%w: unknown room field %q", persistence.ErrConstraintViolation, f.Field)
		}
		if len(f.Values) == 0 {
			continue
		}
		if f.Op == persistence.OpIn {
			placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(f.Values)), ", ")
			clauses = append(clauses, fmt.Sprintf("%s IN (%s)", column, placeholders))
			for _, v := range f.Values {
				args = append(args, v)
			}
			continue
		}
		op, ok := sqlOperators[f.Op]
		if !ok {
			return "", nil, fmt.Errorf("%w: unknown operator %q", persistence.ErrConstraintViolation, f.Op)
		}
		clauses = append(clauses, fmt.Sprintf("%s %s ?", column, op))
		args = append(args, f.Values[0])
	}
	if len(clauses) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

func buildRoomOrder(sortFields []persistence.SortField) (string, error) {
	if len(sortFields) == 0 {
		return " ORDER BY created_at DESC, id ASC", nil
	}
	parts := make([]string, 0, len(sortFields)+1)
	for _, s := range sortFields {
		column, ok := roomColumnByField[s.Field]
		if !ok {
			return "", fmt.Errorf("%w: unknown room field %q", persistence.ErrConstraintViolation, s.Field)
		}
		direction := "ASC"
		if s.Desc {
			direction = "DESC"
		}
		parts = append(parts, column+" "+direction)
	}
	parts = append(parts, "id ASC")
	return " ORDER BY " + strings.Join(parts, ", "), nil
}

func (r *RoomRepository) scanRoom(row rowScanner) (persistence.Room, error) {
	var (
		room                 persistence.Room
		createdAt, updatedAt string
	)
	err := row.Scan(
		&room.ID,
		&room.Name,
		&room.Address,
		&room.Tel,
		&room.OpenHours,
		&room.CloseHours,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Room{}, persistence.ErrNotFound
		}
		return persistence.Room{}, r.mapper.MapError(err)
	}
	if room.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Room{}, err
	}
	if room.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Room{}, err
	}
	return room, nil
}
