package mongostore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/example/room-booking/internal/persistence"
)

func (s *Store) CreateUser(ctx context.Context, user persistence.User) error {
	user.Email = strings.ToLower(user.Email)
	if err := insertOne(ctx, s.col(ColUsers), userToDoc(user)); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, user persistence.User) error {
	user.Email = strings.ToLower(user.Email)
	if err := replaceByID(ctx, s.col(ColUsers), user.ID, userToDoc(user)); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (persistence.User, error) {
	doc, err := findOne[userDoc](ctx, s.col(ColUsers), bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return persistence.User{}, err
	}
	return doc.toUser(), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	doc, err := findOne[userDoc](ctx, s.col(ColUsers), bson.D{{Key: "email", Value: strings.ToLower(email)}})
	if err != nil {
		return persistence.User{}, err
	}
	return doc.toUser(), nil
}

// GetUserByResetToken finds the user holding tokenHash whose reset window is
// still open at reference.
func (s *Store) GetUserByResetToken(ctx context.Context, tokenHash string, reference time.Time) (persistence.User, error) {
	filter := bson.D{
		{Key: "reset_password_token", Value: tokenHash},
		{Key: "reset_password_expire", Value: bson.D{{Key: "$gt", Value: reference.UTC()}}},
	}
	doc, err := findOne[userDoc](ctx, s.col(ColUsers), filter)
	if err != nil {
		return persistence.User{}, err
	}
	return doc.toUser(), nil
}

func (s *Store) ListUsers(ctx context.Context) ([]persistence.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	docs, err := findMany[userDoc](ctx, s.col(ColUsers), bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]persistence.User, len(docs))
	for i, d := range docs {
		users[i] = d.toUser()
	}
	return users, nil
}

// DeleteUser removes the user and then its reservations. A failure between the
// two steps leaves orphans for PurgeOrphanReservations.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	if err := deleteByID(ctx, s.col(ColUsers), id); err != nil {
		return err
	}
	if _, err := s.col(ColReservations).DeleteMany(ctx, bson.D{{Key: "user", Value: id}}); err != nil {
		return fmt.Errorf("delete reservations for user %s: %w", id, err)
	}
	return nil
}
