package persistence_test

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/testfixtures"
)

// The tests below run against every backend so SQLite and MongoDB stay
// interchangeable behind persistence.Store.

func TestUserRepository(t *testing.T) {
	testfixtures.Backends(t, func(t *testing.T, store persistence.Store) {
		ctx := context.Background()

		t.Run("creates, reads, updates, and deletes users", func(t *testing.T) {
			user := testfixtures.NewUser(testfixtures.WithUserEmail("Alice@Example.com"))
			if err := store.CreateUser(ctx, user); err != nil {
				t.Fatalf("CreateUser failed: %v", err)
			}

			fetched, err := store.GetUserByEmail(ctx, "ALICE@example.com")
			if err != nil {
				t.Fatalf("GetUserByEmail failed: %v", err)
			}
			if fetched.ID != user.ID || fetched.Email != "alice@example.com" {
				t.Fatalf("unexpected user: %+v", fetched)
			}
			if !fetched.CreatedAt.Equal(user.CreatedAt) {
				t.Fatalf("expected created_at %v, got %v", user.CreatedAt, fetched.CreatedAt)
			}

			fetched.Name = "Alice Updated"
			fetched.UpdatedAt = fetched.UpdatedAt.Add(time.Hour)
			if err := store.UpdateUser(ctx, fetched); err != nil {
				t.Fatalf("UpdateUser failed: %v", err)
			}
			reloaded, err := store.GetUser(ctx, user.ID)
			if err != nil {
				t.Fatalf("GetUser failed: %v", err)
			}
			if reloaded.Name != "Alice Updated" {
				t.Fatalf("expected updated name, got %q", reloaded.Name)
			}

			if err := store.DeleteUser(ctx, user.ID); err != nil {
				t.Fatalf("DeleteUser failed: %v", err)
			}
			if _, err := store.GetUser(ctx, user.ID); !errors.Is(err, persistence.ErrNotFound) {
				t.Fatalf("expected ErrNotFound after delete, got %v", err)
			}
		})

		t.Run("enforces unique email addresses", func(t *testing.T) {
			first := testfixtures.NewUser(testfixtures.WithUserEmail("dup@example.com"))
			if err := store.CreateUser(ctx, first); err != nil {
				t.Fatalf("CreateUser failed: %v", err)
			}
			second := testfixtures.NewUser(testfixtures.WithUserEmail("DUP@example.com"))
			if err := store.CreateUser(ctx, second); !errors.Is(err, persistence.ErrDuplicate) {
				t.Fatalf("expected ErrDuplicate, got %v", err)
			}
		})

		t.Run("finds reset tokens only inside their window", func(t *testing.T) {
			expires := testfixtures.ReferenceTime().Add(10 * time.Minute)
			user := testfixtures.NewUser(testfixtures.WithResetToken("digest-1", expires))
			if err := store.CreateUser(ctx, user); err != nil {
				t.Fatalf("CreateUser failed: %v", err)
			}

			found, err := store.GetUserByResetToken(ctx, "digest-1", testfixtures.ReferenceTime())
			if err != nil {
				t.Fatalf("GetUserByResetToken failed: %v", err)
			}
			if found.ID != user.ID {
				t.Fatalf("expected %s, got %s", user.ID, found.ID)
			}
			if _, err := store.GetUserByResetToken(ctx, "digest-1", expires.Add(time.Second)); !errors.Is(err, persistence.ErrNotFound) {
				t.Fatalf("expected ErrNotFound after expiry, got %v", err)
			}
		})

		t.Run("returns users in creation order", func(t *testing.T) {
			users, err := store.ListUsers(ctx)
			if err != nil {
				t.Fatalf("ListUsers failed: %v", err)
			}
			if !slices.IsSortedFunc(users, func(a, b persistence.User) int { return a.CreatedAt.Compare(b.CreatedAt) }) {
				t.Fatalf("users not ordered by creation time")
			}
		})
	})
}

func TestRoomRepository(t *testing.T) {
	testfixtures.Backends(t, func(t *testing.T, store persistence.Store) {
		ctx := context.Background()

		names := []string{"Alpha", "Bravo", "Charlie", "Delta"}
		for _, name := range names {
			room := testfixtures.NewRoom(testfixtures.WithRoomName(name))
			if name == "Delta" {
				room.OpenHours = "10:00"
			}
			if err := store.CreateRoom(ctx, room); err != nil {
				t.Fatalf("CreateRoom failed: %v", err)
			}
		}

		t.Run("filters, sorts and pages", func(t *testing.T) {
			query := persistence.RoomQuery{
				Filters: []persistence.RoomFilter{{
					Field:  persistence.RoomFieldOpenHours,
					Op:     persistence.OpEq,
					Values: []string{"08:00"},
				}},
				Sort:   []persistence.SortField{{Field: persistence.RoomFieldName, Desc: true}},
				Offset: 1,
				Limit:  2,
			}
			rooms, err := store.ListRooms(ctx, query)
			if err != nil {
				t.Fatalf("ListRooms failed: %v", err)
			}
			got := make([]string, 0, len(rooms))
			for _, r := range rooms {
				got = append(got, r.Name)
			}
			if !slices.Equal(got, []string{"Bravo", "Alpha"}) {
				t.Fatalf("unexpected page: %v", got)
			}

			total, err := store.CountRooms(ctx, query.Filters)
			if err != nil {
				t.Fatalf("CountRooms failed: %v", err)
			}
			if total != 3 {
				t.Fatalf("expected 3 matching rooms, got %d", total)
			}
		})

		t.Run("matches any of several values", func(t *testing.T) {
			n, err := store.CountRooms(ctx, []persistence.RoomFilter{{
				Field: persistence.RoomFieldName, Op: persistence.OpIn, Values: []string{"Alpha", "Delta", "Zulu"},
			}})
			if err != nil {
				t.Fatalf("CountRooms failed: %v", err)
			}
			if n != 2 {
				t.Fatalf("expected 2, got %d", n)
			}
		})

		t.Run("rejects unknown fields", func(t *testing.T) {
			_, err := store.ListRooms(ctx, persistence.RoomQuery{
				Sort: []persistence.SortField{{Field: "password"}},
			})
			if !errors.Is(err, persistence.ErrConstraintViolation) {
				t.Fatalf("expected ErrConstraintViolation, got %v", err)
			}
		})

		t.Run("rejects duplicate names", func(t *testing.T) {
			err := store.CreateRoom(ctx, testfixtures.NewRoom(testfixtures.WithRoomName("Alpha")))
			if !errors.Is(err, persistence.ErrDuplicate) {
				t.Fatalf("expected ErrDuplicate, got %v", err)
			}
		})

		t.Run("reports missing rooms", func(t *testing.T) {
			if _, err := store.GetRoom(ctx, "room-missing"); !errors.Is(err, persistence.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
			if err := store.DeleteRoom(ctx, "room-missing"); !errors.Is(err, persistence.ErrNotFound) {
				t.Fatalf("expected ErrNotFound on delete, got %v", err)
			}
		})
	})
}

func TestReservationRepository(t *testing.T) {
	testfixtures.Backends(t, func(t *testing.T, store persistence.Store) {
		ctx := context.Background()

		user := testfixtures.NewUser()
		other := testfixtures.NewUser()
		room := testfixtures.NewRoom()
		spare := testfixtures.NewRoom()
		for _, u := range []persistence.User{user, other} {
			if err := store.CreateUser(ctx, u); err != nil {
				t.Fatalf("CreateUser failed: %v", err)
			}
		}
		for _, r := range []persistence.Room{room, spare} {
			if err := store.CreateRoom(ctx, r); err != nil {
				t.Fatalf("CreateRoom failed: %v", err)
			}
		}

		past := testfixtures.NewReservation(user.ID, room.ID, testfixtures.ReferenceDay(-1))
		future := testfixtures.NewReservation(user.ID, room.ID, testfixtures.ReferenceDay(3))
		for _, res := range []persistence.Reservation{future, past} {
			if err := store.CreateReservation(ctx, res); err != nil {
				t.Fatalf("CreateReservation failed: %v", err)
			}
		}

		t.Run("holds one reservation per room and day", func(t *testing.T) {
			clash := testfixtures.NewReservation(other.ID, room.ID, testfixtures.ReferenceDay(3))
			if err := store.CreateReservation(ctx, clash); !errors.Is(err, persistence.ErrDuplicate) {
				t.Fatalf("expected ErrDuplicate, got %v", err)
			}

			found, err := store.FindReservationBySlot(ctx, room.ID, testfixtures.ReferenceDay(3))
			if err != nil {
				t.Fatalf("FindReservationBySlot failed: %v", err)
			}
			if found.ID != future.ID {
				t.Fatalf("expected %s, got %s", future.ID, found.ID)
			}
		})

		t.Run("rejects unknown rooms and users", func(t *testing.T) {
			orphan := testfixtures.NewReservation(user.ID, "room-missing", testfixtures.ReferenceDay(4))
			if err := store.CreateReservation(ctx, orphan); !errors.Is(err, persistence.ErrForeignKeyViolation) {
				t.Fatalf("expected ErrForeignKeyViolation, got %v", err)
			}
		})

		t.Run("lists by day and expires past days", func(t *testing.T) {
			items, err := store.ListReservations(ctx, persistence.ReservationFilter{UserID: user.ID})
			if err != nil {
				t.Fatalf("ListReservations failed: %v", err)
			}
			if len(items) != 2 || items[0].ID != past.ID {
				t.Fatalf("expected past reservation first, got %+v", items)
			}

			at := testfixtures.ReferenceTime()
			n, err := store.ExpireReservations(ctx, testfixtures.ReferenceDay(0), at)
			if err != nil {
				t.Fatalf("ExpireReservations failed: %v", err)
			}
			if n != 1 {
				t.Fatalf("expected 1 expired, got %d", n)
			}

			active, err := store.CountReservations(ctx, persistence.ReservationFilter{UserID: user.ID, Status: persistence.StatusActive})
			if err != nil {
				t.Fatalf("CountReservations failed: %v", err)
			}
			if active != 1 {
				t.Fatalf("expected 1 active, got %d", active)
			}

			expired, err := store.GetReservation(ctx, past.ID)
			if err != nil {
				t.Fatalf("GetReservation failed: %v", err)
			}
			if expired.Status != persistence.StatusInactive || !expired.UpdatedAt.Equal(at) {
				t.Fatalf("unexpected expired reservation: %+v", expired)
			}
		})

		t.Run("moves a reservation to another day", func(t *testing.T) {
			moved := future
			moved.Day = testfixtures.ReferenceDay(5)
			moved.UpdatedAt = testfixtures.ReferenceTime().Add(time.Hour)
			if err := store.UpdateReservation(ctx, moved); err != nil {
				t.Fatalf("UpdateReservation failed: %v", err)
			}
			if _, err := store.FindReservationBySlot(ctx, room.ID, testfixtures.ReferenceDay(3)); !errors.Is(err, persistence.ErrNotFound) {
				t.Fatalf("expected old slot to be free, got %v", err)
			}
		})

		t.Run("deleting a room removes its reservations", func(t *testing.T) {
			onSpare := testfixtures.NewReservation(other.ID, spare.ID, testfixtures.ReferenceDay(2))
			if err := store.CreateReservation(ctx, onSpare); err != nil {
				t.Fatalf("CreateReservation failed: %v", err)
			}
			if err := store.DeleteRoom(ctx, spare.ID); err != nil {
				t.Fatalf("DeleteRoom failed: %v", err)
			}
			if _, err := store.GetReservation(ctx, onSpare.ID); !errors.Is(err, persistence.ErrNotFound) {
				t.Fatalf("expected reservation to be removed, got %v", err)
			}

			purged, err := store.PurgeOrphanReservations(ctx)
			if err != nil {
				t.Fatalf("PurgeOrphanReservations failed: %v", err)
			}
			if purged != 0 {
				t.Fatalf("expected nothing left to purge, got %d", purged)
			}
		})
	})
}
