package http

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig allows Requests per Window for each client address.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Now      func() time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type rateLimiter struct {
	cfg       RateLimitConfig
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	lastPrune time.Time
}

func newRateLimiter(cfg RateLimitConfig) *rateLimiter {
	if cfg.Requests <= 0 {
		cfg.Requests = 100
	}
	if cfg.Window <= 0 {
		cfg.Window = 10 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &rateLimiter{cfg: cfg, clients: make(map[string]*clientLimiter)}
}

// reserve returns how long key must wait before its next request.
func (l *rateLimiter) reserve(key string) time.Duration {
	now := l.cfg.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastPrune) > l.cfg.Window {
		for k, c := range l.clients {
			if now.Sub(c.lastSeen) > l.cfg.Window {
				delete(l.clients, k)
			}
		}
		l.lastPrune = now
	}

	c, ok := l.clients[key]
	if !ok {
		every := l.cfg.Window / time.Duration(l.cfg.Requests)
		c = &clientLimiter{limiter: rate.NewLimiter(rate.Every(every), l.cfg.Requests)}
		l.clients[key] = c
	}
	c.lastSeen = now

	res := c.limiter.ReserveN(now, 1)
	if !res.OK() {
		return l.cfg.Window
	}
	delay := res.DelayFrom(now)
	if delay > 0 {
		res.CancelAt(now)
	}
	return delay
}

// RateLimit answers 429 with Retry-After once a client exceeds its budget.
func RateLimit(cfg RateLimitConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	limiter := newRateLimiter(cfg)
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)
			if wait := limiter.reserve(key); wait > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				responder.loggerFor(r.Context()).WarnContext(r.Context(), "rate limit exceeded", "client", key)
				responder.writeError(r.Context(), w, http.StatusTooManyRequests, "rate_limited", "Too many requests, please try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
