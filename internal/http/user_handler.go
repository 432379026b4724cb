package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/room-booking/internal/application"
)

type userService interface {
	ListUsers(ctx context.Context, principal application.Principal) ([]application.User, error)
	GetUser(ctx context.Context, principal application.Principal, userID string) (application.User, error)
	DeleteUser(ctx context.Context, principal application.Principal, userID string) (application.DeleteResult, error)
}

type sessionRevoker interface {
	Logout(ctx context.Context, token string) error
}

type UserHandler struct {
	service   userService
	sessions  sessionRevoker
	cookies   CookieOptions
	responder responder
	logger    *slog.Logger
}

func NewUserHandler(service userService, sessions sessionRevoker, cookies CookieOptions, logger *slog.Logger) *UserHandler {
	base := defaultLogger(logger)
	return &UserHandler{service: service, sessions: sessions, cookies: cookies, responder: newResponder(base), logger: base}
}

func (h *UserHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "UserHandler", operation, attrs...)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	users, err := h.service.ListUsers(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.list(r.Context(), w, toUserDTOs(users), len(users))
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	user, err := h.service.GetUser(r.Context(), principal, chi.URLParam(r, "id"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.ok(r.Context(), w, http.StatusOK, toUserDTO(user))
}

// Delete removes a user and their reservations. A user deleting their own
// account is signed out as well.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	userID := chi.URLParam(r, "id")
	logger := h.log(r.Context(), "Delete", "user_id", userID)

	result, err := h.service.DeleteUser(r.Context(), principal, userID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	if result.SelfDeleted {
		if h.sessions != nil {
			if err := h.sessions.Logout(r.Context(), TokenFromContext(r.Context())); err != nil {
				logger.WarnContext(r.Context(), "failed to revoke token of deleted user", "error", err)
			}
		}
		clearTokenCookie(w, h.cookies)
	}

	logger.InfoContext(r.Context(), "user deleted", "self_deleted", result.SelfDeleted)
	h.responder.ok(r.Context(), w, http.StatusOK, struct{}{})
}

type userDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Tel       string `json:"tel"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"`
}

func toUserDTO(user application.User) userDTO {
	return userDTO{
		ID:        user.ID,
		Name:      user.Name,
		Tel:       user.Tel,
		Email:     user.Email,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toUserDTOs(users []application.User) []userDTO {
	out := make([]userDTO, 0, len(users))
	for _, user := range users {
		out = append(out, toUserDTO(user))
	}
	return out
}
