// Package mongostore implements persistence.Store on MongoDB.
//
// Collections and indexes are declared in ensureIndexes. The unique
// (room, day) index on reservations rejects double bookings. MongoDB offers
// no multi-document atomicity without a replica set, so cascading deletes run
// as two steps and PurgeOrphanReservations reconciles any leftovers.
package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/example/room-booking/internal/persistence"
)

// Collection names.
const (
	ColUsers        = "users"
	ColRooms        = "rooms"
	ColReservations = "reservations"
)

// Store is a MongoDB-backed persistence.Store.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ persistence.Store = (*Store)(nil)

// NewStore connects to uri, verifies the connection and ensures indexes.
func NewStore(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongostore: connect failed: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongostore: ping failed: %w", err)
	}

	s := &Store{client: client, db: client.Database(dbName)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongostore: %w", err)
	}
	return s, nil
}

// Ping verifies the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Drop removes the database. Used by integration tests.
func (s *Store) Drop(ctx context.Context) error {
	return s.db.Drop(ctx)
}

func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	type idx struct {
		col    string
		keys   bson.D
		unique bool
	}

	indexes := []idx{
		{ColUsers, bson.D{{Key: "email", Value: 1}}, true},
		{ColUsers, bson.D{{Key: "tel", Value: 1}}, true},
		{ColUsers, bson.D{{Key: "reset_password_token", Value: 1}}, false},

		{ColRooms, bson.D{{Key: "name", Value: 1}}, true},
		{ColRooms, bson.D{{Key: "created_at", Value: -1}}, false},

		{ColReservations, bson.D{{Key: "room", Value: 1}, {Key: "day", Value: 1}}, true},
		{ColReservations, bson.D{{Key: "user", Value: 1}, {Key: "status", Value: 1}}, false},
		{ColReservations, bson.D{{Key: "status", Value: 1}, {Key: "day", Value: 1}}, false},
	}

	for _, i := range indexes {
		model := mongo.IndexModel{Keys: i.keys}
		if i.unique {
			model.Options = options.Index().SetUnique(true)
		}
		if _, err := s.col(i.col).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("create index on %s: %w", i.col, err)
		}
	}
	return nil
}
