package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/example/room-booking/internal/persistence"
)

// CreateReservation inserts reservation after checking that its user and room
// exist. The unique (room, day) index rejects a second booking of a slot.
func (s *Store) CreateReservation(ctx context.Context, reservation persistence.Reservation) error {
	if reservation.Status == "" {
		reservation.Status = persistence.StatusActive
	}
	if err := s.requireExists(ctx, ColUsers, reservation.UserID); err != nil {
		return err
	}
	if err := s.requireExists(ctx, ColRooms, reservation.RoomID); err != nil {
		return err
	}
	if err := insertOne(ctx, s.col(ColReservations), reservationToDoc(reservation)); err != nil {
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

// UpdateReservation rewrites the day and status. Owner and room are immutable.
func (s *Store) UpdateReservation(ctx context.Context, reservation persistence.Reservation) error {
	update := bson.D{
		{Key: "day", Value: reservation.Day},
		{Key: "status", Value: reservation.Status},
		{Key: "updated_at", Value: reservation.UpdatedAt.UTC()},
	}
	if err := updateFields(ctx, s.col(ColReservations), reservation.ID, update); err != nil {
		return fmt.Errorf("update reservation: %w", err)
	}
	return nil
}

func (s *Store) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	doc, err := findOne[reservationDoc](ctx, s.col(ColReservations), bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return persistence.Reservation{}, err
	}
	return doc.toReservation(), nil
}

func (s *Store) FindReservationBySlot(ctx context.Context, roomID, day string) (persistence.Reservation, error) {
	doc, err := findOne[reservationDoc](ctx, s.col(ColReservations), bson.D{
		{Key: "room", Value: roomID},
		{Key: "day", Value: day},
	})
	if err != nil {
		return persistence.Reservation{}, err
	}
	return doc.toReservation(), nil
}

func (s *Store) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "day", Value: 1},
		{Key: "created_at", Value: 1},
		{Key: "_id", Value: 1},
	})
	docs, err := findMany[reservationDoc](ctx, s.col(ColReservations), reservationFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	out := make([]persistence.Reservation, len(docs))
	for i, d := range docs {
		out[i] = d.toReservation()
	}
	return out, nil
}

func (s *Store) CountReservations(ctx context.Context, filter persistence.ReservationFilter) (int, error) {
	n, err := s.col(ColReservations).CountDocuments(ctx, reservationFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("count reservations: %w", err)
	}
	return int(n), nil
}

func (s *Store) DeleteReservation(ctx context.Context, id string) error {
	return deleteByID(ctx, s.col(ColReservations), id)
}

func (s *Store) ExpireReservations(ctx context.Context, day string, at time.Time) (int, error) {
	res, err := s.col(ColReservations).UpdateMany(ctx,
		bson.D{
			{Key: "status", Value: persistence.StatusActive},
			{Key: "day", Value: bson.D{{Key: "$lt", Value: day}}},
		},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "status", Value: persistence.StatusInactive},
			{Key: "updated_at", Value: at.UTC()},
		}}},
	)
	if err != nil {
		return 0, fmt.Errorf("expire reservations: %w", err)
	}
	return int(res.ModifiedCount), nil
}

// PurgeOrphanReservations removes reservations left behind by an interrupted
// room or user deletion.
func (s *Store) PurgeOrphanReservations(ctx context.Context) (int, error) {
	userIDs, err := allIDs(ctx, s.col(ColUsers))
	if err != nil {
		return 0, fmt.Errorf("purge orphans: list users: %w", err)
	}
	roomIDs, err := allIDs(ctx, s.col(ColRooms))
	if err != nil {
		return 0, fmt.Errorf("purge orphans: list rooms: %w", err)
	}

	res, err := s.col(ColReservations).DeleteMany(ctx, bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "user", Value: bson.D{{Key: "$nin", Value: userIDs}}}},
		bson.D{{Key: "room", Value: bson.D{{Key: "$nin", Value: roomIDs}}}},
	}}})
	if err != nil {
		return 0, fmt.Errorf("purge orphans: %w", err)
	}
	return int(res.DeletedCount), nil
}

func (s *Store) requireExists(ctx context.Context, collection, id string) error {
	n, err := s.col(collection).CountDocuments(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("lookup %s %s: %w", collection, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %s", persistence.ErrForeignKeyViolation, collection, id)
	}
	return nil
}

func reservationFilter(f persistence.ReservationFilter) bson.D {
	filter := bson.D{}
	if f.UserID != "" {
		filter = append(filter, bson.E{Key: "user", Value: f.UserID})
	}
	if f.RoomID != "" {
		filter = append(filter, bson.E{Key: "room", Value: f.RoomID})
	}
	if f.Status != "" {
		filter = append(filter, bson.E{Key: "status", Value: f.Status})
	}
	return filter
}
