package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/room-booking/internal/application"
)

type roomService interface {
	CreateRoom(ctx context.Context, params application.CreateRoomParams) (application.Room, error)
	UpdateRoom(ctx context.Context, params application.UpdateRoomParams) (application.Room, error)
	DeleteRoom(ctx context.Context, principal application.Principal, roomID string) error
	GetRoom(ctx context.Context, roomID string) (application.Room, error)
	ListRooms(ctx context.Context, params application.ListRoomsParams) (application.RoomPage, error)
}

type RoomHandler struct {
	service   roomService
	responder responder
	logger    *slog.Logger
}

func NewRoomHandler(service roomService, logger *slog.Logger) *RoomHandler {
	base := defaultLogger(logger)
	return &RoomHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *RoomHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "RoomHandler", operation, attrs...)
}

func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	var req roomRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.badRequest(r.Context(), w, err)
		return
	}

	room, err := h.service.CreateRoom(r.Context(), application.CreateRoomParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Create", "room_id", room.ID).InfoContext(r.Context(), "room created")
	h.responder.ok(r.Context(), w, http.StatusCreated, toRoomDTO(room))
}

func (h *RoomHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	roomID := chi.URLParam(r, "id")

	var req roomRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.badRequest(r.Context(), w, err)
		return
	}

	room, err := h.service.UpdateRoom(r.Context(), application.UpdateRoomParams{
		Principal: principal,
		RoomID:    roomID,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Update", "room_id", roomID).InfoContext(r.Context(), "room updated")
	h.responder.ok(r.Context(), w, http.StatusOK, toRoomDTO(room))
}

func (h *RoomHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	roomID := chi.URLParam(r, "id")

	if err := h.service.DeleteRoom(r.Context(), principal, roomID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Delete", "room_id", roomID).InfoContext(r.Context(), "room deleted")
	h.responder.ok(r.Context(), w, http.StatusOK, struct{}{})
}

func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	room, err := h.service.GetRoom(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.ok(r.Context(), w, http.StatusOK, toRoomDTO(room))
}

func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	params, err := parseRoomQuery(r.URL.Query())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	page, err := h.service.ListRooms(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	data := make([]any, 0, len(page.Rooms))
	for _, room := range page.Rooms {
		dto := toRoomDTO(room)
		if len(page.Select) > 0 {
			data = append(data, dto.project(page.Select))
			continue
		}
		data = append(data, dto)
	}

	count := len(page.Rooms)
	total := page.Total
	pagination := page.Pagination
	h.responder.writeJSON(r.Context(), w, http.StatusOK, envelope{
		Success:    true,
		Count:      &count,
		Total:      &total,
		Pagination: &pagination,
		Data:       data,
	})
}

type roomRequest struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	Tel        string `json:"tel"`
	OpenHours  string `json:"openHours"`
	CloseHours string `json:"closeHours"`
}

func (r roomRequest) toInput() application.RoomInput {
	return application.RoomInput{
		Name:       r.Name,
		Address:    r.Address,
		Tel:        r.Tel,
		OpenHours:  r.OpenHours,
		CloseHours: r.CloseHours,
	}
}

type roomDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Address    string `json:"address"`
	Tel        string `json:"tel"`
	OpenHours  string `json:"openHours"`
	CloseHours string `json:"closeHours"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
}

func toRoomDTO(room application.Room) roomDTO {
	return roomDTO{
		ID:         room.ID,
		Name:       room.Name,
		Address:    room.Address,
		Tel:        room.Tel,
		OpenHours:  room.OpenHours,
		CloseHours: room.CloseHours,
		CreatedAt:  room.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:  room.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// project keeps the id plus the selected fields.
func (d roomDTO) project(fields []string) map[string]string {
	all := map[string]string{
		"id":         d.ID,
		"name":       d.Name,
		"address":    d.Address,
		"tel":        d.Tel,
		"openHours":  d.OpenHours,
		"closeHours": d.CloseHours,
		"createdAt":  d.CreatedAt,
		"updatedAt":  d.UpdatedAt,
	}
	out := map[string]string{"id": d.ID}
	for _, f := range fields {
		if v, ok := all[f]; ok {
			out[f] = v
		}
	}
	return out
}
