package auth

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryDenylist keeps revoked token ids in an in-process expirable LRU. It
// is used when no Redis is configured, so revocations do not survive a
// restart and are not shared between replicas. The cache has no size limit:
// an id leaves only when its token could no longer verify anyway.
type MemoryDenylist struct {
	entries *expirable.LRU[string, time.Time]
	now     func() time.Time
}

// NewMemoryDenylist returns a denylist holding each id for at most maxTTL,
// which should be the token lifetime.
func NewMemoryDenylist(maxTTL time.Duration, now func() time.Time) *MemoryDenylist {
	if maxTTL <= 0 {
		maxTTL = 30 * 24 * time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryDenylist{
		entries: expirable.NewLRU[string, time.Time](0, nil, maxTTL),
		now:     now,
	}
}

func (d *MemoryDenylist) Add(ctx context.Context, tokenID string, ttl time.Duration) error {
	d.entries.Add(tokenID, d.now().Add(ttl))
	return nil
}

func (d *MemoryDenylist) Contains(ctx context.Context, tokenID string) (bool, error) {
	until, ok := d.entries.Get(tokenID)
	if !ok {
		return false, nil
	}
	if !d.now().Before(until) {
		d.entries.Remove(tokenID)
		return false, nil
	}
	return true, nil
}

// Len reports the number of tracked ids.
func (d *MemoryDenylist) Len() int {
	return d.entries.Len()
}
