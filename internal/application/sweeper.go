package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/room-booking/internal/clock"
)

// ReservationExpirer marks active reservations dated before today inactive.
type ReservationExpirer interface {
	ExpireReservations(ctx context.Context, today time.Time, at time.Time) (int, error)
}

// Recorder receives reservation outcome counts for metrics.
type Recorder interface {
	ReservationCreated()
	ReservationRejected(reason string)
	ReservationsExpired(n int)
}

type nopRecorder struct{}

func (nopRecorder) ReservationCreated()        {}
func (nopRecorder) ReservationRejected(string) {}
func (nopRecorder) ReservationsExpired(int)    {}

func defaultRecorder(r Recorder) Recorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}

// ExpirySweeper retires reservations whose day has passed.
type ExpirySweeper struct {
	store    ReservationExpirer
	clock    clock.Clock
	now      func() time.Time
	recorder Recorder
	logger   *slog.Logger
}

// NewExpirySweeper wires a sweeper. now stamps updated_at on expired rows.
func NewExpirySweeper(store ReservationExpirer, c clock.Clock, now func() time.Time, recorder Recorder, logger *slog.Logger) *ExpirySweeper {
	if now == nil {
		now = time.Now
	}
	return &ExpirySweeper{
		store:    store,
		clock:    c,
		now:      now,
		recorder: defaultRecorder(recorder),
		logger:   defaultLogger(logger),
	}
}

// Sweep marks every active reservation dated before today inactive and
// returns the number changed. A second sweep on the same day changes nothing.
func (s *ExpirySweeper) Sweep(ctx context.Context) (int, error) {
	if s == nil || s.store == nil {
		return 0, nil
	}
	today := s.clock.Today()
	n, err := s.store.ExpireReservations(ctx, today, s.now())
	if err != nil {
		err = fmt.Errorf("%w: expire reservations: %v", ErrStoreUnavailable, err)
		serviceLogger(ctx, s.logger, "ExpirySweeper", "Sweep").
			ErrorContext(ctx, "sweep failed", "error", err, "error_kind", ErrorKind(err))
		return 0, err
	}
	if n > 0 {
		s.recorder.ReservationsExpired(n)
		serviceLogger(ctx, s.logger, "ExpirySweeper", "Sweep").
			InfoContext(ctx, "reservations expired", "count", n, "today", today.Format(time.DateOnly))
	}
	return n, nil
}
