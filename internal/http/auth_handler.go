package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/room-booking/internal/application"
)

const tokenCookieName = "token"

type authService interface {
	Register(ctx context.Context, input application.RegisterInput) (application.AuthResult, error)
	Login(ctx context.Context, email, password string) (application.AuthResult, error)
	Logout(ctx context.Context, token string) error
	Me(ctx context.Context, principal application.Principal) (application.User, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, password string) (application.AuthResult, error)
}

// CookieOptions controls the `token` cookie set on sign-in.
type CookieOptions struct {
	Secure bool
}

type AuthHandler struct {
	service   authService
	cookies   CookieOptions
	responder responder
	logger    *slog.Logger
}

func NewAuthHandler(service authService, cookies CookieOptions, logger *slog.Logger) *AuthHandler {
	base := defaultLogger(logger)
	return &AuthHandler{service: service, cookies: cookies, responder: newResponder(base), logger: base}
}

func (h *AuthHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "AuthHandler", operation, attrs...)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.badRequest(r.Context(), w, err)
		return
	}

	result, err := h.service.Register(r.Context(), application.RegisterInput{
		Name:     req.Name,
		Tel:      req.Tel,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Register", "user_id", result.User.ID).InfoContext(r.Context(), "user registered")
	h.sendToken(r.Context(), w, http.StatusOK, result)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.badRequest(r.Context(), w, err)
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Login", "user_id", result.User.ID).InfoContext(r.Context(), "user authenticated")
	h.sendToken(r.Context(), w, http.StatusOK, result)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), TokenFromContext(r.Context())); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	clearTokenCookie(w, h.cookies)
	h.log(r.Context(), "Logout").InfoContext(r.Context(), "session revoked")
	h.responder.ok(r.Context(), w, http.StatusOK, struct{}{})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	user, err := h.service.Me(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.ok(r.Context(), w, http.StatusOK, toUserDTO(user))
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.badRequest(r.Context(), w, err)
		return
	}

	token, err := h.service.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "ForgotPassword").InfoContext(r.Context(), "reset token issued")
	h.responder.ok(r.Context(), w, http.StatusOK, forgotPasswordResponse{ResetToken: token})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.badRequest(r.Context(), w, err)
		return
	}

	result, err := h.service.ResetPassword(r.Context(), chi.URLParam(r, "resettoken"), req.Password)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "ResetPassword", "user_id", result.User.ID).InfoContext(r.Context(), "password reset")
	h.sendToken(r.Context(), w, http.StatusOK, result)
}

func (h *AuthHandler) sendToken(ctx context.Context, w http.ResponseWriter, status int, result application.AuthResult) {
	setTokenCookie(w, h.cookies, result.Session.Token, result.Session.ExpiresAt)
	h.responder.writeJSON(ctx, w, status, envelope{Success: true, Token: result.Session.Token})
}

type registerRequest struct {
	Name     string `json:"name"`
	Tel      string `json:"tel"`
	Email    string `json:"email"`
	Password string `json:"password"`
	// Role is accepted for compatibility and ignored: self-registration
	// always yields a regular user.
	Role string `json:"role,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type forgotPasswordResponse struct {
	ResetToken string `json:"resetToken"`
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

func setTokenCookie(w http.ResponseWriter, opts CookieOptions, token string, expires time.Time) {
	cookie := &http.Cookie{
		Name:     tokenCookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   opts.Secure,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	}
	if !expires.IsZero() {
		cookie.Expires = expires.UTC()
	}
	http.SetCookie(w, cookie)
}

func clearTokenCookie(w http.ResponseWriter, opts CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookieName,
		Value:    "none",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func extractTokenFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		const prefix = "Bearer "
		if strings.HasPrefix(header, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(header, prefix))
		}
	}
	if cookie, err := r.Cookie(tokenCookieName); err == nil && cookie.Value != "none" {
		return cookie.Value
	}
	return ""
}
