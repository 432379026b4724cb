// Package app assembles the booking service from configuration: store,
// token manager, services, HTTP router and background reconciler.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/auth"
	"github.com/example/room-booking/internal/clock"
	"github.com/example/room-booking/internal/config"
	httptransport "github.com/example/room-booking/internal/http"
	"github.com/example/room-booking/internal/metrics"
	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/persistence/mongostore"
	"github.com/example/room-booking/internal/persistence/sqlite"
	"github.com/example/room-booking/internal/worker"
)

// Options overrides process collaborators, mostly for tests.
type Options struct {
	Now      func() time.Time
	Registry *prometheus.Registry
	// Store replaces the configured backend. The caller keeps ownership.
	Store persistence.Store
}

// App is a fully wired booking service.
type App struct {
	Handler    http.Handler
	Clock      *clock.Overridable
	Store      persistence.Store
	Reconciler *worker.Reconciler
	Auth       *application.AuthService
	Metrics    *metrics.Collector

	logger  *slog.Logger
	closers []io.Closer
}

// New wires every component described by cfg.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, opts Options) (_ *App, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	a := &App{logger: logger}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	store := opts.Store
	if store == nil {
		store, err = openStore(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store)
	}
	a.Store = store

	registry := opts.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	a.Metrics = metrics.NewCollector(registry)

	denylist, err := openDenylist(ctx, cfg, now)
	if err != nil {
		return nil, err
	}
	if c, ok := denylist.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	tokens, err := auth.NewManager(auth.Config{Secret: cfg.JWTSecret, TTL: cfg.JWTTTL}, denylist, now)
	if err != nil {
		return nil, fmt.Errorf("app: token manager: %w", err)
	}

	a.Clock = clock.New(cfg.Location, now)
	repos := NewRepositories(store, cfg.Location, now)
	idGenerator := uuid.NewString

	sweeper := application.NewExpirySweeper(repos, a.Clock, now, a.Metrics, logger)
	reservationService := application.NewReservationService(application.ReservationServiceDeps{
		Reservations: repos,
		Rooms:        repos,
		Clock:        a.Clock,
		Sweeper:      sweeper,
		IDGenerator:  idGenerator,
		Now:          now,
		MaxActive:    cfg.MaxActiveReservations,
		Recorder:     a.Metrics,
		Logger:       logger,
	})
	roomService := application.NewRoomServiceWithLogger(repos, idGenerator, now, logger)
	userService := application.NewUserService(repos, logger)
	a.Auth = application.NewAuthService(application.AuthServiceDeps{
		Credentials: repos,
		Tokens:      tokens,
		IDGenerator: idGenerator,
		Now:         now,
		Logger:      logger,
	})

	if cfg.Admin.Enabled() {
		user, created, err := a.Auth.EnsureAdmin(ctx, application.RegisterInput{
			Name:     cfg.Admin.Name,
			Tel:      cfg.Admin.Tel,
			Email:    cfg.Admin.Email,
			Password: cfg.Admin.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("app: ensure admin: %w", err)
		}
		logger.InfoContext(ctx, "admin account ready", "user_id", user.ID, "created", created)
	}

	cookies := httptransport.CookieOptions{Secure: cfg.CookieSecure}
	var clockHandler *httptransport.ClockHandler
	if cfg.ClockOverrideEnabled {
		clockHandler = httptransport.NewClockHandler(a.Clock, logger)
	}

	a.Handler = httptransport.NewRouter(httptransport.RouterConfig{
		Auth:          httptransport.NewAuthHandler(a.Auth, cookies, logger),
		Users:         httptransport.NewUserHandler(userService, a.Auth, cookies, logger),
		Rooms:         httptransport.NewRoomHandler(roomService, logger),
		Reservations:  httptransport.NewReservationHandler(reservationService, cfg.Location, logger),
		Clock:         clockHandler,
		Authenticator: a.Auth,
		Health:        store,
		Metrics:       metrics.Handler(registry),
		Logger:        logger,
		Middleware: []func(http.Handler) http.Handler{
			httptransport.Recoverer(logger),
			httptransport.RequestLogger(logger),
			httptransport.Metrics(a.Metrics),
			httptransport.SecurityHeaders,
			httptransport.CORS(cfg.CORSOrigin),
			httptransport.RateLimit(httptransport.RateLimitConfig{
				Requests: cfg.RateLimitRequests,
				Window:   cfg.RateLimitWindow,
				Now:      now,
			}, logger),
			httptransport.Sanitize,
		},
	})

	a.Reconciler = worker.NewReconciler(sweeper, repos, a.Metrics, logger)
	return a, nil
}

// Close releases the store and denylist connections opened by New.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (persistence.Store, error) {
	switch cfg.Store {
	case config.StoreMongo:
		store, err := mongostore.NewStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("app: open mongo store: %w", err)
		}
		logger.InfoContext(ctx, "store opened", "backend", config.StoreMongo, "database", cfg.MongoDatabase)
		return store, nil
	default:
		store, err := sqlite.Open(ctx, sqlite.DefaultConfig(cfg.SQLiteDSN))
		if err != nil {
			return nil, fmt.Errorf("app: open sqlite store: %w", err)
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("app: migrate sqlite store: %w", err)
		}
		logger.InfoContext(ctx, "store opened", "backend", config.StoreSQLite, "dsn", cfg.SQLiteDSN)
		return store, nil
	}
}

func openDenylist(ctx context.Context, cfg config.Config, now func() time.Time) (auth.Denylist, error) {
	if cfg.RedisURL == "" {
		return auth.NewMemoryDenylist(cfg.JWTTTL, now), nil
	}
	denylist, err := auth.NewRedisDenylist(ctx, cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("app: open redis denylist: %w", err)
	}
	return denylist, nil
}
