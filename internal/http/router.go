package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	Auth          *AuthHandler
	Users         *UserHandler
	Rooms         *RoomHandler
	Reservations  *ReservationHandler
	Clock         *ClockHandler // nil unless the clock override is enabled
	Authenticator Authenticator
	Health        HealthChecker
	Metrics       http.Handler
	Middleware    []func(http.Handler) http.Handler
	Logger        *slog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := defaultLogger(cfg.Logger)
	responder := newResponder(logger)
	requireAuth := RequireAuth(cfg.Authenticator, logger)
	requireAdmin := RequireAdmin(logger)

	r := chi.NewRouter()
	for _, mw := range cfg.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		responder.writeError(req.Context(), w, http.StatusNotFound, "not_found", msgRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		responder.writeError(req.Context(), w, http.StatusMethodNotAllowed, "method_not_allowed", "")
	})

	r.Get("/healthz", healthHandler(cfg.Health, responder))
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}

	r.Route("/api/v1", func(api chi.Router) {
		if cfg.Auth != nil {
			api.Route("/auth", func(ar chi.Router) {
				ar.Post("/register", cfg.Auth.Register)
				ar.Post("/login", cfg.Auth.Login)
				ar.Post("/forgotpassword", cfg.Auth.ForgotPassword)
				ar.Put("/resetpassword/{resettoken}", cfg.Auth.ResetPassword)
				ar.With(requireAuth).Get("/logout", cfg.Auth.Logout)
				ar.With(requireAuth).Get("/me", cfg.Auth.Me)
			})
		}

		if cfg.Rooms != nil {
			api.Route("/rooms", func(rr chi.Router) {
				rr.Get("/", cfg.Rooms.List)
				rr.Get("/{id}", cfg.Rooms.Get)
				rr.Group(func(admin chi.Router) {
					admin.Use(requireAuth, requireAdmin)
					admin.Post("/", cfg.Rooms.Create)
					admin.Put("/{id}", cfg.Rooms.Update)
					admin.Delete("/{id}", cfg.Rooms.Delete)
				})
			})
		}

		if cfg.Users != nil {
			api.Route("/users", func(ur chi.Router) {
				ur.Use(requireAuth)
				ur.With(requireAdmin).Get("/", cfg.Users.List)
				ur.Get("/{id}", cfg.Users.Get)
				ur.Delete("/{id}", cfg.Users.Delete)
			})
		}

		if cfg.Reservations != nil {
			api.Route("/reservations", func(rr chi.Router) {
				rr.Use(requireAuth)
				rr.Get("/", cfg.Reservations.List)
				rr.Post("/", cfg.Reservations.Create)
				rr.Get("/active", cfg.Reservations.ListActive)
				if cfg.Clock != nil {
					rr.With(requireAdmin).Post("/set-current-date", cfg.Clock.SetCurrentDate)
				} else {
					rr.Post("/set-current-date", func(w http.ResponseWriter, req *http.Request) {
						responder.writeError(req.Context(), w, http.StatusNotFound, "not_found", msgRouteNotFound)
					})
				}
				rr.Get("/user/{userId}", cfg.Reservations.ListForUser)
				rr.Get("/room/{roomId}", cfg.Reservations.ListForRoom)
				rr.Get("/{id}", cfg.Reservations.Get)
				rr.Put("/{id}", cfg.Reservations.Update)
				rr.Delete("/{id}", cfg.Reservations.Delete)
			})
		}
	})

	return r
}

func healthHandler(checker HealthChecker, responder responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := checker.Ping(ctx); err != nil {
				responder.loggerFor(r.Context()).ErrorContext(r.Context(), "health check failed", "error", err)
				responder.writeError(r.Context(), w, http.StatusServiceUnavailable, "store_unavailable", "Store unavailable")
				return
			}
		}
		responder.ok(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
