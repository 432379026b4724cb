package clock

import (
	"sync"
	"testing"
	"time"
)

func TestOverridable_Today(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// 2024-06-09 20:00 UTC is already 2024-06-10 in Tokyo.
	instant := time.Date(2024, 6, 9, 20, 0, 0, 0, time.UTC)
	c := New(tokyo, func() time.Time { return instant })

	got := c.Today()
	want := time.Date(2024, 6, 10, 0, 0, 0, 0, tokyo)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if c.Location() != tokyo {
		t.Fatalf("unexpected location %v", c.Location())
	}
}

func TestOverridable_SetOverride(t *testing.T) {
	c := New(time.UTC, func() time.Time { return time.Date(2024, 6, 10, 15, 30, 0, 0, time.UTC) })

	pinned := time.Date(2024, 7, 1, 18, 45, 0, 0, time.UTC)
	c.SetOverride(&pinned)
	if got := c.Today(); !got.Equal(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected pinned day, got %v", got)
	}
	if day, ok := c.Override(); !ok || day.Hour() != 0 {
		t.Fatalf("expected normalized override, got %v %v", day, ok)
	}

	c.SetOverride(nil)
	if got := c.Today(); !got.Equal(time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected wall clock day after clearing, got %v", got)
	}
	if _, ok := c.Override(); ok {
		t.Fatal("expected override to be cleared")
	}
}

func TestOverridable_ConcurrentAccess(t *testing.T) {
	c := New(nil, nil)
	day := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.SetOverride(&day)
		}()
		go func() {
			defer wg.Done()
			_ = c.Today()
		}()
	}
	wg.Wait()
}

func TestParseDay(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{name: "date only", input: "2024-06-10", want: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)},
		{name: "rfc3339", input: "2024-06-10T13:45:00Z", want: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)},
		{name: "offset shifts day", input: "2024-06-10T23:30:00-02:00", want: time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC)},
		{name: "garbage", input: "next tuesday", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDay(tt.input, time.UTC)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDay failed: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
