package booking

import (
	"testing"
	"time"
)

func TestClassifyConflict(t *testing.T) {
	t.Run("free slot", func(t *testing.T) {
		if got := ClassifyConflict(nil, "alice", ""); got != ConflictNone {
			t.Fatalf("expected no conflict, got %q", got)
		}
	})

	t.Run("proposer already holds the slot", func(t *testing.T) {
		got := ClassifyConflict(&Slot{ReservationID: "r1", UserID: "alice"}, "alice", "")
		if got != ConflictSameUser {
			t.Fatalf("expected same-user conflict, got %q", got)
		}
		if got.Message() != MsgAlreadyBookedByYou {
			t.Fatalf("unexpected message %q", got.Message())
		}
	})

	t.Run("another user holds the slot", func(t *testing.T) {
		got := ClassifyConflict(&Slot{ReservationID: "r1", UserID: "bob"}, "alice", "")
		if got != ConflictOtherUser {
			t.Fatalf("expected other-user conflict, got %q", got)
		}
		if got.Message() != MsgRoomAlreadyBooked {
			t.Fatalf("unexpected message %q", got.Message())
		}
	})

	t.Run("reservation does not conflict with itself", func(t *testing.T) {
		if got := ClassifyConflict(&Slot{ReservationID: "r1", UserID: "bob"}, "alice", "r1"); got != ConflictNone {
			t.Fatalf("expected no conflict, got %q", got)
		}
	})
}

func TestQuotaExceeded(t *testing.T) {
	tests := []struct {
		active, max int
		want        bool
	}{
		{active: 0, max: 3, want: false},
		{active: 2, max: 3, want: false},
		{active: 3, max: 3, want: true},
		{active: 4, max: 3, want: true},
		{active: 1, max: 1, want: true},
		{active: 3, max: 0, want: true},
	}
	for _, tt := range tests {
		if got := QuotaExceeded(tt.active, tt.max); got != tt.want {
			t.Errorf("QuotaExceeded(%d, %d) = %v, want %v", tt.active, tt.max, got, tt.want)
		}
	}
}

func TestQuotaMessage(t *testing.T) {
	if got := QuotaMessage(3); got != "User cannot have more than 3 active reservations" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestIsPast(t *testing.T) {
	today := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	if !IsPast(today.AddDate(0, 0, -1), today) {
		t.Fatal("yesterday should be past")
	}
	if IsPast(today, today) {
		t.Fatal("today should not be past")
	}
	if IsPast(today.AddDate(0, 0, 1), today) {
		t.Fatal("tomorrow should not be past")
	}
}
