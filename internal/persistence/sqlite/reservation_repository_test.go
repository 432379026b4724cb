package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/example/room-booking/internal/persistence"
)

func seedBookingFixtures(t *testing.T) *Storage {
	t.Helper()
	storage := openTestStorage(t)
	seedUser(t, storage, "user-1", "alice@example.com", "0800000001")
	seedUser(t, storage, "user-2", "bob@example.com", "0800000002")
	seedRoom(t, storage, "room-1", "Alpha")
	seedRoom(t, storage, "room-2", "Bravo")
	return storage
}

func TestReservationRepository_UniqueSlot(t *testing.T) {
	storage := seedBookingFixtures(t)
	ctx := context.Background()

	seedReservation(t, storage, "res-1", "user-1", "room-1", "2024-06-15")

	err := storage.CreateReservation(ctx, persistence.Reservation{
		ID: "res-2", UserID: "user-2", RoomID: "room-1", Day: "2024-06-15",
		Status: persistence.StatusActive, CreatedAt: baseTime, UpdatedAt: baseTime,
	})
	if !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for taken slot, got %v", err)
	}

	// Same day in a different room is fine.
	seedReservation(t, storage, "res-3", "user-2", "room-2", "2024-06-15")

	occupant, err := storage.FindReservationBySlot(ctx, "room-1", "2024-06-15")
	if err != nil {
		t.Fatalf("FindReservationBySlot failed: %v", err)
	}
	if occupant.ID != "res-1" {
		t.Fatalf("expected res-1, got %s", occupant.ID)
	}

	if _, err := storage.FindReservationBySlot(ctx, "room-1", "2024-06-16"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for free slot, got %v", err)
	}
}

func TestReservationRepository_UpdateIntoTakenSlot(t *testing.T) {
	storage := seedBookingFixtures(t)
	ctx := context.Background()

	seedReservation(t, storage, "res-1", "user-1", "room-1", "2024-06-15")
	moving := seedReservation(t, storage, "res-2", "user-2", "room-1", "2024-06-16")

	moving.Day = "2024-06-15"
	if err := storage.UpdateReservation(ctx, moving); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	moving.Day = "2024-06-20"
	if err := storage.UpdateReservation(ctx, moving); err != nil {
		t.Fatalf("UpdateReservation failed: %v", err)
	}
	got, err := storage.GetReservation(ctx, "res-2")
	if err != nil {
		t.Fatalf("GetReservation failed: %v", err)
	}
	if got.Day != "2024-06-20" || got.UserID != "user-2" || got.RoomID != "room-1" {
		t.Fatalf("unexpected reservation: %#v", got)
	}
}

func TestReservationRepository_ForeignKeys(t *testing.T) {
	storage := seedBookingFixtures(t)

	err := storage.CreateReservation(context.Background(), persistence.Reservation{
		ID: "res-1", UserID: "user-1", RoomID: "missing", Day: "2024-06-15",
		Status: persistence.StatusActive, CreatedAt: baseTime, UpdatedAt: baseTime,
	})
	if !errors.Is(err, persistence.ErrForeignKeyViolation) {
		t.Fatalf("expected ErrForeignKeyViolation, got %v", err)
	}
}

func TestReservationRepository_FilterAndCount(t *testing.T) {
	storage := seedBookingFixtures(t)
	ctx := context.Background()

	seedReservation(t, storage, "res-1", "user-1", "room-1", "2024-06-15")
	seedReservation(t, storage, "res-2", "user-1", "room-2", "2024-06-14")
	seedReservation(t, storage, "res-3", "user-2", "room-1", "2024-06-16")

	mine, err := storage.ListReservations(ctx, persistence.ReservationFilter{UserID: "user-1"})
	if err != nil {
		t.Fatalf("ListReservations failed: %v", err)
	}
	if len(mine) != 2 || mine[0].ID != "res-2" {
		t.Fatalf("expected user-1 reservations ordered by day, got %#v", mine)
	}

	byRoom, err := storage.ListReservations(ctx, persistence.ReservationFilter{RoomID: "room-1"})
	if err != nil {
		t.Fatalf("ListReservations failed: %v", err)
	}
	if len(byRoom) != 2 {
		t.Fatalf("expected 2 room-1 reservations, got %d", len(byRoom))
	}

	count, err := storage.CountReservations(ctx, persistence.ReservationFilter{UserID: "user-1", Status: persistence.StatusActive})
	if err != nil {
		t.Fatalf("CountReservations failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 active reservations, got %d", count)
	}
}

func TestReservationRepository_ExpireReservations(t *testing.T) {
	storage := seedBookingFixtures(t)
	ctx := context.Background()

	seedReservation(t, storage, "past", "user-1", "room-1", "2024-06-09")
	seedReservation(t, storage, "today", "user-1", "room-1", "2024-06-10")
	seedReservation(t, storage, "future", "user-1", "room-1", "2024-06-11")

	changed, err := storage.ExpireReservations(ctx, "2024-06-10", baseTime)
	if err != nil {
		t.Fatalf("ExpireReservations failed: %v", err)
	}
	if changed != 1 {
		t.Fatalf("expected 1 reservation to expire, got %d", changed)
	}

	for id, want := range map[string]string{
		"past":   persistence.StatusInactive,
		"today":  persistence.StatusActive,
		"future": persistence.StatusActive,
	} {
		got, err := storage.GetReservation(ctx, id)
		if err != nil {
			t.Fatalf("GetReservation(%s) failed: %v", id, err)
		}
		if got.Status != want {
			t.Fatalf("reservation %s: expected %s, got %s", id, want, got.Status)
		}
	}

	again, err := storage.ExpireReservations(ctx, "2024-06-10", baseTime)
	if err != nil {
		t.Fatalf("second ExpireReservations failed: %v", err)
	}
	if again != 0 {
		t.Fatalf("expected second sweep to change nothing, got %d", again)
	}
}

func TestReservationRepository_Delete(t *testing.T) {
	storage := seedBookingFixtures(t)
	ctx := context.Background()
	seedReservation(t, storage, "res-1", "user-1", "room-1", "2024-06-15")

	if err := storage.DeleteReservation(ctx, "res-1"); err != nil {
		t.Fatalf("DeleteReservation failed: %v", err)
	}
	if err := storage.DeleteReservation(ctx, "res-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReservationRepository_PurgeOrphans(t *testing.T) {
	storage := seedBookingFixtures(t)
	ctx := context.Background()
	seedReservation(t, storage, "res-1", "user-1", "room-1", "2024-06-15")

	removed, err := storage.PurgeOrphanReservations(ctx)
	if err != nil {
		t.Fatalf("PurgeOrphanReservations failed: %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected no orphans with foreign keys enforced, got %d", removed)
	}
}
