package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/example/room-booking/internal/application"
)

const (
	msgBadRequestBody = "Invalid request body"
	msgServerError    = "Server Error"
	msgNotAuthorized  = "Not authorized to access this route"
	msgRouteNotFound  = "Route not found"
)

// envelope is the body shape shared by every API response.
type envelope struct {
	Success    bool                    `json:"success"`
	Token      string                  `json:"token,omitempty"`
	Count      *int                    `json:"count,omitempty"`
	Total      *int                    `json:"total,omitempty"`
	Pagination *application.Pagination `json:"pagination,omitempty"`
	Data       any                     `json:"data,omitempty"`
	Error      string                  `json:"error,omitempty"`
	Message    string                  `json:"message,omitempty"`
	Errors     map[string]string       `json:"errors,omitempty"`
}

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	return responder{logger: defaultLogger(logger)}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) ok(ctx context.Context, w http.ResponseWriter, status int, data any) {
	r.writeJSON(ctx, w, status, envelope{Success: true, Data: data})
}

func (r responder) list(ctx context.Context, w http.ResponseWriter, data any, count int) {
	r.writeJSON(ctx, w, http.StatusOK, envelope{Success: true, Count: &count, Data: data})
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, code, message string) {
	if message == "" {
		message = http.StatusText(status)
	}
	r.writeJSON(ctx, w, status, envelope{Error: code, Message: message})
}

func (r responder) badRequest(ctx context.Context, w http.ResponseWriter, err error) {
	r.loggerFor(ctx).WarnContext(ctx, "malformed request", "error", err, "error_kind", "bad_request")
	r.writeError(ctx, w, http.StatusBadRequest, "bad_request", msgBadRequestBody)
}

// handleServiceError maps application errors onto status codes.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, "unexpected", msgServerError)
		return
	}

	kind := application.ErrorKind(err)
	message := application.MessageOf(err)

	var vErr *application.ValidationError
	switch {
	case errors.As(err, &vErr):
		r.writeJSON(ctx, w, http.StatusBadRequest, envelope{
			Error:   kind,
			Message: message,
			Errors:  vErr.FieldErrors,
		})
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeError(ctx, w, http.StatusBadRequest, kind, message)
	case errors.Is(err, application.ErrUnauthorized),
		errors.Is(err, application.ErrInvalidCredentials),
		errors.Is(err, application.ErrInvalidToken):
		r.writeError(ctx, w, http.StatusUnauthorized, kind, message)
	case errors.Is(err, application.ErrNotFound):
		r.writeError(ctx, w, http.StatusNotFound, kind, message)
	default:
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "error", err, "error_kind", kind)
		r.writeError(ctx, w, http.StatusInternalServerError, kind, msgServerError)
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(dst)
}
