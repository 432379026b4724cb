package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/clock"
	"github.com/example/room-booking/internal/persistence"
)

type reservationService interface {
	Create(ctx context.Context, params application.CreateReservationParams) (application.Reservation, error)
	Update(ctx context.Context, params application.UpdateReservationParams) (application.Reservation, error)
	List(ctx context.Context, principal application.Principal) ([]application.Reservation, error)
	ListActive(ctx context.Context, principal application.Principal) ([]application.Reservation, error)
	ListForUser(ctx context.Context, principal application.Principal, userID string) ([]application.Reservation, error)
	ListForRoom(ctx context.Context, principal application.Principal, roomID string) ([]application.Reservation, error)
	Get(ctx context.Context, principal application.Principal, id string) (application.Reservation, error)
	Delete(ctx context.Context, principal application.Principal, id string) error
}

type ReservationHandler struct {
	service   reservationService
	location  *time.Location
	responder responder
	logger    *slog.Logger
}

// NewReservationHandler parses request dates in the booking location.
func NewReservationHandler(service reservationService, loc *time.Location, logger *slog.Logger) *ReservationHandler {
	if loc == nil {
		loc = time.UTC
	}
	base := defaultLogger(logger)
	return &ReservationHandler{service: service, location: loc, responder: newResponder(base), logger: base}
}

func (h *ReservationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "ReservationHandler", operation, attrs...)
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	var req reservationRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.badRequest(r.Context(), w, err)
		return
	}

	input := application.ReservationInput{}
	if req.User != nil {
		input.UserID = *req.User
	}
	if req.Room != nil {
		input.RoomID = *req.Room
	}
	if req.Date != nil {
		day, err := clock.ParseDay(*req.Date, h.location)
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, invalidDate())
			return
		}
		input.Date = day
	}

	reservation, err := h.service.Create(r.Context(), application.CreateReservationParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Create", "reservation_id", reservation.ID).InfoContext(r.Context(), "reservation created")
	h.responder.ok(r.Context(), w, http.StatusCreated, toReservationDTO(reservation))
}

func (h *ReservationHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req reservationRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.badRequest(r.Context(), w, err)
		return
	}

	patch := application.ReservationPatch{UserID: req.User, RoomID: req.Room}
	if req.Date != nil {
		day, err := clock.ParseDay(*req.Date, h.location)
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, invalidDate())
			return
		}
		patch.Date = &day
	}

	reservation, err := h.service.Update(r.Context(), application.UpdateReservationParams{
		Principal:     principal,
		ReservationID: id,
		Patch:         patch,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Update", "reservation_id", id).InfoContext(r.Context(), "reservation updated")
	h.responder.ok(r.Context(), w, http.StatusOK, toReservationDTO(reservation))
}

func (h *ReservationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), principal, id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Delete", "reservation_id", id).InfoContext(r.Context(), "reservation deleted")
	h.responder.ok(r.Context(), w, http.StatusOK, struct{}{})
}

func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	reservation, err := h.service.Get(r.Context(), principal, chi.URLParam(r, "id"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.ok(r.Context(), w, http.StatusOK, toReservationDTO(reservation))
}

func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	h.writeList(w, r)(h.service.List(r.Context(), principal))
}

func (h *ReservationHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	h.writeList(w, r)(h.service.ListActive(r.Context(), principal))
}

func (h *ReservationHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	h.writeList(w, r)(h.service.ListForUser(r.Context(), principal, chi.URLParam(r, "userId")))
}

func (h *ReservationHandler) ListForRoom(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	h.writeList(w, r)(h.service.ListForRoom(r.Context(), principal, chi.URLParam(r, "roomId")))
}

func (h *ReservationHandler) writeList(w http.ResponseWriter, r *http.Request) func([]application.Reservation, error) {
	return func(reservations []application.Reservation, err error) {
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}
		h.responder.list(r.Context(), w, toReservationDTOs(reservations), len(reservations))
	}
}

func invalidDate() error {
	return &application.ValidationError{
		Reason:      application.ReasonInvalidInput,
		Message:     "Please add a valid date",
		FieldErrors: map[string]string{"date": "Please add a valid date"},
	}
}

// reservationRequest uses pointers so updates can tell omitted fields apart
// from empty ones.
type reservationRequest struct {
	User *string `json:"user"`
	Room *string `json:"room"`
	Date *string `json:"date"`
}

type reservationDTO struct {
	ID        string `json:"id"`
	User      string `json:"user,omitempty"`
	Room      string `json:"room"`
	Date      string `json:"date"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func toReservationDTO(res application.Reservation) reservationDTO {
	return reservationDTO{
		ID:        res.ID,
		User:      res.UserID,
		Room:      res.RoomID,
		Date:      res.Date.Format(persistence.DayLayout),
		Status:    string(res.Status),
		CreatedAt: res.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: res.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toReservationDTOs(reservations []application.Reservation) []reservationDTO {
	out := make([]reservationDTO, 0, len(reservations))
	for _, res := range reservations {
		out = append(out, toReservationDTO(res))
	}
	return out
}

type clockOverride interface {
	SetOverride(day *time.Time)
	Override() (time.Time, bool)
	Today() time.Time
	Location() *time.Location
}

// ClockHandler serves the admin-only clock override used to exercise
// expiry and past-date rules.
type ClockHandler struct {
	clock     clockOverride
	responder responder
	logger    *slog.Logger
}

func NewClockHandler(c clockOverride, logger *slog.Logger) *ClockHandler {
	base := defaultLogger(logger)
	return &ClockHandler{clock: c, responder: newResponder(base), logger: base}
}

// SetCurrentDate pins the booking day to {"date":"YYYY-MM-DD"}; an empty
// body or a null or empty date restores the wall clock.
func (h *ClockHandler) SetCurrentDate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date *string `json:"date"`
	}
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		h.responder.badRequest(r.Context(), w, err)
		return
	}

	logger := handlerLogger(r.Context(), h.logger, "ClockHandler", "SetCurrentDate")
	if req.Date == nil || *req.Date == "" {
		h.clock.SetOverride(nil)
		logger.InfoContext(r.Context(), "clock override cleared")
	} else {
		day, err := clock.ParseDay(*req.Date, h.clock.Location())
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, invalidDate())
			return
		}
		h.clock.SetOverride(&day)
		logger.InfoContext(r.Context(), "clock override set", "day", day.Format(persistence.DayLayout))
	}

	_, overridden := h.clock.Override()
	h.responder.ok(r.Context(), w, http.StatusOK, currentDateResponse{
		CurrentDate: h.clock.Today().Format(persistence.DayLayout),
		Overridden:  overridden,
	})
}

type currentDateResponse struct {
	CurrentDate string `json:"currentDate"`
	Overridden  bool   `json:"overridden"`
}
