package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/example/room-booking/internal/persistence"
)

var roomKeyByField = map[string]string{
	persistence.RoomFieldName:       "name",
	persistence.RoomFieldAddress:    "address",
	persistence.RoomFieldTel:        "tel",
	persistence.RoomFieldOpenHours:  "open_hours",
	persistence.RoomFieldCloseHours: "close_hours",
	persistence.RoomFieldCreatedAt:  "created_at",
}

var mongoOperators = map[persistence.FilterOp]string{
	persistence.OpEq:  "$eq",
	persistence.OpGt:  "$gt",
	persistence.OpGte: "$gte",
	persistence.OpLt:  "$lt",
	persistence.OpLte: "$lte",
	persistence.OpIn:  "$in",
}

func (s *Store) CreateRoom(ctx context.Context, room persistence.Room) error {
	if err := insertOne(ctx, s.col(ColRooms), roomToDoc(room)); err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	return nil
}

func (s *Store) UpdateRoom(ctx context.Context, room persistence.Room) error {
	if err := replaceByID(ctx, s.col(ColRooms), room.ID, roomToDoc(room)); err != nil {
		return fmt.Errorf("update room: %w", err)
	}
	return nil
}

func (s *Store) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	doc, err := findOne[roomDoc](ctx, s.col(ColRooms), bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return persistence.Room{}, err
	}
	return doc.toRoom(), nil
}

func (s *Store) ListRooms(ctx context.Context, query persistence.RoomQuery) ([]persistence.Room, error) {
	filter, err := buildRoomFilter(query.Filters)
	if err != nil {
		return nil, err
	}
	sort, err := buildRoomSort(query.Sort)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(sort)
	if query.Offset > 0 {
		opts.SetSkip(int64(query.Offset))
	}
	if query.Limit > 0 {
		opts.SetLimit(int64(query.Limit))
	}

	docs, err := findMany[roomDoc](ctx, s.col(ColRooms), filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	rooms := make([]persistence.Room, len(docs))
	for i, d := range docs {
		rooms[i] = d.toRoom()
	}
	return rooms, nil
}

func (s *Store) CountRooms(ctx context.Context, filters []persistence.RoomFilter) (int, error) {
	filter, err := buildRoomFilter(filters)
	if err != nil {
		return 0, err
	}
	n, err := s.col(ColRooms).CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count rooms: %w", err)
	}
	return int(n), nil
}

// DeleteRoom removes the room and then its reservations.
func (s *Store) DeleteRoom(ctx context.Context, id string) error {
	if err := deleteByID(ctx, s.col(ColRooms), id); err != nil {
		return err
	}
	if _, err := s.col(ColReservations).DeleteMany(ctx, bson.D{{Key: "room", Value: id}}); err != nil {
		return fmt.Errorf("delete reservations for room %s: %w", id, err)
	}
	return nil
}

func buildRoomFilter(filters []persistence.RoomFilter) (bson.D, error) {
	filter := bson.D{}
	for _, f := range filters {
		key, ok := roomKeyByField[f.Field]
		if !ok {
			return nil, fmt.Errorf("%w: unknown room field %q", persistence.ErrConstraintViolation, f.Field)
		}
		op, ok := mongoOperators[f.Op]
		if !ok {
			return nil, fmt.Errorf("%w: unknown operator %q", persistence.ErrConstraintViolation, f.Op)
		}
		if len(f.Values) == 0 {
			return nil, fmt.Errorf("%w: filter on %q has no value", persistence.ErrConstraintViolation, f.Field)
		}

		values := make([]any, len(f.Values))
		for i, raw := range f.Values {
			v, err := roomFilterValue(f.Field, raw)
			if err != nil {
				return nil, err
			}
			values[i] = v
		}

		var operand any = values[0]
		if f.Op == persistence.OpIn {
			operand = values
		}
		filter = append(filter, bson.E{Key: key, Value: bson.D{{Key: op, Value: operand}}})
	}
	return filter, nil
}

// roomFilterValue converts createdAt bounds to dates so they compare against
// stored timestamps. Every other field is stored as text.
func roomFilterValue(field, raw string) (any, error) {
	if field != persistence.RoomFieldCreatedAt {
		return raw, nil
	}
	for _, layout := range []string{time.RFC3339Nano, persistence.DayLayout} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return nil, fmt.Errorf("%w: invalid createdAt value %q", persistence.ErrConstraintViolation, raw)
}

func buildRoomSort(fields []persistence.SortField) (bson.D, error) {
	if len(fields) == 0 {
		return bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}, nil
	}
	sort := bson.D{}
	for _, f := range fields {
		key, ok := roomKeyByField[f.Field]
		if !ok {
			return nil, fmt.Errorf("%w: unknown sort field %q", persistence.ErrConstraintViolation, f.Field)
		}
		dir := 1
		if f.Desc {
			dir = -1
		}
		sort = append(sort, bson.E{Key: key, Value: dir})
	}
	return append(sort, bson.E{Key: "_id", Value: 1}), nil
}
