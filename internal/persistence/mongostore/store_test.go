package mongostore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/room-booking/internal/persistence"
)

var testURI string

func TestMain(m *testing.M) {
	for _, p := range []string{".env.test", "../../../.env.test"} {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}
	testURI = os.Getenv("BOOKING_TEST_MONGO_URI")
	os.Exit(m.Run())
}

var baseTime = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	if testURI == "" {
		t.Skip("BOOKING_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	dbName := fmt.Sprintf("booking_test_%d", time.Now().UnixNano())
	store, err := NewStore(ctx, testURI, dbName)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Drop(context.Background())
		_ = store.Close()
	})
	return store
}

func seed(t *testing.T, store *Store) {
	t.Helper()
	ctx := context.Background()
	for i, email := range []string{"alice@example.com", "bob@example.com"} {
		err := store.CreateUser(ctx, persistence.User{
			ID: fmt.Sprintf("user-%d", i+1), Name: "User", Tel: fmt.Sprintf("080000000%d", i+1),
			Email: email, Role: "user", PasswordHash: "hash", CreatedAt: baseTime, UpdatedAt: baseTime,
		})
		if err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
	}
	for i, name := range []string{"Alpha", "Bravo"} {
		err := store.CreateRoom(ctx, persistence.Room{
			ID: fmt.Sprintf("room-%d", i+1), Name: name, Address: "1 Main St", Tel: "0200000000",
			OpenHours: "08:00", CloseHours: "20:00",
			CreatedAt: baseTime.Add(time.Duration(i) * time.Minute), UpdatedAt: baseTime,
		})
		if err != nil {
			t.Fatalf("CreateRoom failed: %v", err)
		}
	}
}

func book(t *testing.T, store *Store, id, userID, roomID, day string) {
	t.Helper()
	err := store.CreateReservation(context.Background(), persistence.Reservation{
		ID: id, UserID: userID, RoomID: roomID, Day: day,
		CreatedAt: baseTime, UpdatedAt: baseTime,
	})
	if err != nil {
		t.Fatalf("CreateReservation(%s) failed: %v", id, err)
	}
}

func TestStore_UniqueConstraints(t *testing.T) {
	store := openTestStore(t)
	seed(t, store)
	ctx := context.Background()

	t.Run("email", func(t *testing.T) {
		err := store.CreateUser(ctx, persistence.User{
			ID: "user-9", Name: "Dup", Tel: "0809999999", Email: "ALICE@example.com", Role: "user",
			PasswordHash: "hash", CreatedAt: baseTime, UpdatedAt: baseTime,
		})
		if !errors.Is(err, persistence.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("room name", func(t *testing.T) {
		err := store.CreateRoom(ctx, persistence.Room{ID: "room-9", Name: "Alpha", CreatedAt: baseTime, UpdatedAt: baseTime})
		if !errors.Is(err, persistence.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("room slot", func(t *testing.T) {
		book(t, store, "res-1", "user-1", "room-1", "2024-06-15")
		err := store.CreateReservation(ctx, persistence.Reservation{
			ID: "res-2", UserID: "user-2", RoomID: "room-1", Day: "2024-06-15",
			CreatedAt: baseTime, UpdatedAt: baseTime,
		})
		if !errors.Is(err, persistence.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("missing room", func(t *testing.T) {
		err := store.CreateReservation(ctx, persistence.Reservation{
			ID: "res-3", UserID: "user-1", RoomID: "missing", Day: "2024-06-15",
			CreatedAt: baseTime, UpdatedAt: baseTime,
		})
		if !errors.Is(err, persistence.ErrForeignKeyViolation) {
			t.Fatalf("expected ErrForeignKeyViolation, got %v", err)
		}
	})
}

func TestStore_ListRooms(t *testing.T) {
	store := openTestStore(t)
	seed(t, store)
	ctx := context.Background()

	rooms, err := store.ListRooms(ctx, persistence.RoomQuery{})
	if err != nil {
		t.Fatalf("ListRooms failed: %v", err)
	}
	if len(rooms) != 2 || rooms[0].Name != "Bravo" {
		t.Fatalf("expected newest room first, got %#v", rooms)
	}

	rooms, err = store.ListRooms(ctx, persistence.RoomQuery{
		Filters: []persistence.RoomFilter{{Field: persistence.RoomFieldName, Op: persistence.OpIn, Values: []string{"Alpha"}}},
	})
	if err != nil {
		t.Fatalf("ListRooms failed: %v", err)
	}
	if len(rooms) != 1 || rooms[0].ID != "room-1" {
		t.Fatalf("unexpected filtered rooms: %#v", rooms)
	}

	count, err := store.CountRooms(ctx, []persistence.RoomFilter{
		{Field: persistence.RoomFieldCreatedAt, Op: persistence.OpGt, Values: []string{baseTime.Format(time.RFC3339)}},
	})
	if err != nil {
		t.Fatalf("CountRooms failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 room created after base time, got %d", count)
	}
}

func TestStore_ExpireAndCascade(t *testing.T) {
	store := openTestStore(t)
	seed(t, store)
	ctx := context.Background()

	book(t, store, "past", "user-1", "room-1", "2024-06-09")
	book(t, store, "future", "user-1", "room-2", "2024-06-11")
	book(t, store, "other", "user-2", "room-1", "2024-06-12")

	changed, err := store.ExpireReservations(ctx, "2024-06-10", baseTime)
	if err != nil {
		t.Fatalf("ExpireReservations failed: %v", err)
	}
	if changed != 1 {
		t.Fatalf("expected 1 expired, got %d", changed)
	}
	active, err := store.CountReservations(ctx, persistence.ReservationFilter{UserID: "user-1", Status: persistence.StatusActive})
	if err != nil {
		t.Fatalf("CountReservations failed: %v", err)
	}
	if active != 1 {
		t.Fatalf("expected 1 active reservation, got %d", active)
	}

	if err := store.DeleteRoom(ctx, "room-1"); err != nil {
		t.Fatalf("DeleteRoom failed: %v", err)
	}
	remaining, err := store.ListReservations(ctx, persistence.ReservationFilter{})
	if err != nil {
		t.Fatalf("ListReservations failed: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != "future" {
		t.Fatalf("expected only the room-2 reservation, got %#v", remaining)
	}
}

func TestStore_PurgeOrphanReservations(t *testing.T) {
	store := openTestStore(t)
	seed(t, store)
	ctx := context.Background()
	book(t, store, "res-1", "user-1", "room-1", "2024-06-15")
	book(t, store, "res-2", "user-2", "room-2", "2024-06-15")

	// Simulate an interrupted cascade.
	if _, err := store.col(ColUsers).DeleteOne(ctx, map[string]string{"_id": "user-1"}); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	removed, err := store.PurgeOrphanReservations(ctx)
	if err != nil {
		t.Fatalf("PurgeOrphanReservations failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 orphan removed, got %d", removed)
	}
	if _, err := store.GetReservation(ctx, "res-2"); err != nil {
		t.Fatalf("expected res-2 to survive, got %v", err)
	}
}
