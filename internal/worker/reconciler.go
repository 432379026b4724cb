// Package worker runs background maintenance for the booking store.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Sweeper expires past reservations.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// OrphanPurger removes reservations whose room or user is gone.
type OrphanPurger interface {
	PurgeOrphanReservations(ctx context.Context) (int, error)
}

// PurgeRecorder receives the number of purged reservations.
type PurgeRecorder interface {
	OrphansPurged(n int)
}

// Reconciler periodically expires reservations and removes orphans left by
// non-transactional cascades.
type Reconciler struct {
	sweeper  Sweeper
	purger   OrphanPurger
	recorder PurgeRecorder
	logger   *slog.Logger
}

func NewReconciler(sweeper Sweeper, purger OrphanPurger, recorder PurgeRecorder, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		sweeper:  sweeper,
		purger:   purger,
		recorder: recorder,
		logger:   logger.With("component", "reconciler"),
	}
}

// Start runs once immediately and then every interval until ctx is done.
func (r *Reconciler) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.InfoContext(ctx, "reconciler started", "interval", interval)
	r.runLogged(ctx)

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "reconciler stopped")
			return
		case <-ticker.C:
			r.runLogged(ctx)
		}
	}
}

func (r *Reconciler) runLogged(ctx context.Context) {
	if err := r.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
		r.logger.ErrorContext(ctx, "reconcile cycle failed", "error", err)
	}
}

// RunOnce performs one expiry sweep and one orphan purge. Both steps run
// even when the first fails.
func (r *Reconciler) RunOnce(ctx context.Context) error {
	start := time.Now()
	var errs []error

	expired := 0
	if r.sweeper != nil {
		n, err := r.sweeper.Sweep(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("expire reservations: %w", err))
		}
		expired = n
	}

	purged := 0
	if r.purger != nil {
		n, err := r.purger.PurgeOrphanReservations(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("purge orphan reservations: %w", err))
		}
		purged = n
		if r.recorder != nil {
			r.recorder.OrphansPurged(n)
		}
	}

	r.logger.InfoContext(ctx, "reconcile cycle completed",
		"expired_count", expired,
		"purged_count", purged,
		"duration", time.Since(start),
	)
	return errors.Join(errs...)
}
