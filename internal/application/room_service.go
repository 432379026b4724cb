package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/example/room-booking/internal/booking"
	"github.com/example/room-booking/internal/persistence"
)

// Room listing defaults.
const (
	DefaultPage     = 1
	DefaultPageSize = 25
	MaxPageSize     = 100
	// MaxPage keeps (page-1)*limit well inside int range.
	MaxPage         = 1_000_000
	MaxRoomNameLen  = 50
)

// MsgDuplicateField is reported when a unique field collides.
const MsgDuplicateField = "Duplicate field value entered"

// RoomRepository captures the persistence operations needed by the service.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	UpdateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context, query persistence.RoomQuery) ([]Room, error)
	CountRooms(ctx context.Context, filters []persistence.RoomFilter) (int, error)
	// DeleteRoom removes the room and every reservation referencing it.
	DeleteRoom(ctx context.Context, id string) error
}

// RoomService orchestrates validation, authorization, and persistence for rooms.
type RoomService struct {
	rooms       RoomRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewRoomService constructs a room service with the provided dependencies.
func NewRoomService(rooms RoomRepository, idGenerator func() string, now func() time.Time) *RoomService {
	return NewRoomServiceWithLogger(rooms, idGenerator, now, nil)
}

// NewRoomServiceWithLogger constructs a room service with a specified logger.
func NewRoomServiceWithLogger(rooms RoomRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *RoomService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &RoomService{rooms: rooms, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *RoomService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RoomService", operation, attrs...)
}

func (s *RoomService) ready() error {
	if s == nil {
		return fmt.Errorf("RoomService is nil")
	}
	if s.rooms == nil {
		return fmt.Errorf("room repository not configured")
	}
	return nil
}

// CreateRoom validates input and persists a new room for administrators.
func (s *RoomService) CreateRoom(ctx context.Context, params CreateRoomParams) (room Room, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "CreateRoom",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, "failed to create room", "", err)
			return
		}
		logger.With("room_id", room.ID).InfoContext(ctx, "room created")
	}()

	if !params.Principal.IsAdmin {
		err = forbidden("Not authorized to manage rooms")
		return
	}

	input := trimRoomInput(params.Input)
	if vErr := validateRoomInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	candidate := Room{
		ID:         s.idGenerator(),
		Name:       input.Name,
		Address:    input.Address,
		Tel:        input.Tel,
		OpenHours:  input.OpenHours,
		CloseHours: input.CloseHours,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err = s.rooms.CreateRoom(ctx, candidate); err != nil {
		err = mapRoomRepoError(err)
		return
	}

	room = candidate
	return
}

// UpdateRoom applies the non-empty fields of the input to an existing room.
func (s *RoomService) UpdateRoom(ctx context.Context, params UpdateRoomParams) (room Room, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "UpdateRoom",
		"principal_id", params.Principal.UserID,
		"room_id", params.RoomID,
	)
	defer func() {
		logOutcome(ctx, logger, "failed to update room", "room updated", err)
	}()

	if !params.Principal.IsAdmin {
		err = forbidden("Not authorized to manage rooms")
		return
	}

	var existing Room
	existing, err = s.rooms.GetRoom(ctx, params.RoomID)
	if err != nil {
		err = mapRoomRepoError(err)
		return
	}

	input := trimRoomInput(params.Input)
	updated := existing
	for _, f := range []struct {
		value  string
		target *string
	}{
		{input.Name, &updated.Name},
		{input.Address, &updated.Address},
		{input.Tel, &updated.Tel},
		{input.OpenHours, &updated.OpenHours},
		{input.CloseHours, &updated.CloseHours},
	} {
		if f.value != "" {
			*f.target = f.value
		}
	}

	merged := RoomInput{
		Name:       updated.Name,
		Address:    updated.Address,
		Tel:        updated.Tel,
		OpenHours:  updated.OpenHours,
		CloseHours: updated.CloseHours,
	}
	if vErr := validateRoomInput(merged); vErr.HasErrors() {
		err = vErr
		return
	}
	updated.UpdatedAt = s.now()

	if err = s.rooms.UpdateRoom(ctx, updated); err != nil {
		err = mapRoomRepoError(err)
		return
	}

	room = updated
	return
}

// DeleteRoom removes an existing room and its reservations when requested by an administrator.
func (s *RoomService) DeleteRoom(ctx context.Context, principal Principal, roomID string) (err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "DeleteRoom",
		"principal_id", principal.UserID,
		"room_id", roomID,
	)
	defer func() {
		logOutcome(ctx, logger, "failed to delete room", "room deleted", err)
	}()

	if !principal.IsAdmin {
		err = forbidden("Not authorized to manage rooms")
		return
	}

	if err = s.rooms.DeleteRoom(ctx, roomID); err != nil {
		err = mapRoomRepoError(err)
		return
	}
	return
}

// GetRoom returns a single room to any caller.
func (s *RoomService) GetRoom(ctx context.Context, roomID string) (Room, error) {
	if err := s.ready(); err != nil {
		return Room{}, err
	}
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		err = mapRoomRepoError(err)
		s.loggerWith(ctx, "GetRoom", "room_id", roomID).
			WarnContext(ctx, "failed to get room", "error", err, "error_kind", ErrorKind(err))
		return Room{}, err
	}
	return room, nil
}

// ListRooms returns one page of the room catalog.
func (s *RoomService) ListRooms(ctx context.Context, params ListRoomsParams) (page RoomPage, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "ListRooms")
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, "failed to list rooms", "", err)
			return
		}
		logger.With("result_count", len(page.Rooms), "total", page.Total).DebugContext(ctx, "rooms listed")
	}()

	if vErr := validateRoomQuery(params); vErr.HasErrors() {
		err = vErr
		return
	}

	pageNum := params.Page
	if pageNum < 1 {
		pageNum = DefaultPage
	}
	limit := params.Limit
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	offset := (pageNum - 1) * limit

	query := persistence.RoomQuery{
		Filters: params.Filters,
		Sort:    params.Sort,
		Offset:  offset,
		Limit:   limit,
	}
	if len(query.Sort) == 0 {
		query.Sort = []persistence.SortField{{Field: persistence.RoomFieldCreatedAt, Desc: true}}
	}

	page.Rooms, err = s.rooms.ListRooms(ctx, query)
	if err != nil {
		err = mapRoomRepoError(err)
		return
	}
	page.Total, err = s.rooms.CountRooms(ctx, params.Filters)
	if err != nil {
		err = mapRoomRepoError(err)
		return
	}

	page.Select = params.Select
	if offset+limit < page.Total {
		page.Pagination.Next = &PageRef{Page: pageNum + 1, Limit: limit}
	}
	if offset > 0 {
		page.Pagination.Prev = &PageRef{Page: pageNum - 1, Limit: limit}
	}
	return
}

func trimRoomInput(input RoomInput) RoomInput {
	return RoomInput{
		Name:       strings.TrimSpace(input.Name),
		Address:    strings.TrimSpace(input.Address),
		Tel:        strings.TrimSpace(input.Tel),
		OpenHours:  strings.TrimSpace(input.OpenHours),
		CloseHours: strings.TrimSpace(input.CloseHours),
	}
}

func validateRoomInput(input RoomInput) *ValidationError {
	vErr := &ValidationError{}

	if input.Name == "" {
		vErr.add("name", "Please add a name")
	} else if utf8.RuneCountInString(input.Name) > MaxRoomNameLen {
		vErr.add("name", fmt.Sprintf("Name can not be more than %d characters", MaxRoomNameLen))
	}
	if input.Address == "" {
		vErr.add("address", "Please add an address")
	}
	if input.Tel == "" {
		vErr.add("tel", "Please add a telephone number")
	}
	if input.OpenHours == "" {
		vErr.add("openHours", "Please add open hours")
	}
	if input.CloseHours == "" {
		vErr.add("closeHours", "Please add close hours")
	}

	return vErr
}

func validateRoomQuery(params ListRoomsParams) *ValidationError {
	vErr := &ValidationError{}
	if params.Page > MaxPage {
		vErr.add("page", fmt.Sprintf("page must be at most %d", MaxPage))
	}
	for _, field := range params.Select {
		if field != "id" && !persistence.IsRoomField(field) {
			vErr.add("select", fmt.Sprintf("unknown field %q", field))
		}
	}
	for _, f := range params.Filters {
		if !persistence.IsRoomField(f.Field) {
			vErr.add(f.Field, fmt.Sprintf("unknown field %q", f.Field))
		}
	}
	for _, f := range params.Sort {
		if !persistence.IsRoomField(f.Field) {
			vErr.add("sort", fmt.Sprintf("unknown field %q", f.Field))
		}
	}
	return vErr
}

func mapRoomRepoError(err error) error {
	if err == nil {
		return nil
	}
	var rErr *RuleError
	if errors.As(err, &rErr) {
		return err
	}
	if isNotFound(err) {
		return notFound(booking.MsgRoomNotFound)
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return &RuleError{Kind: ErrAlreadyExists, Message: MsgDuplicateField}
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{Message: "Invalid room field"}
		vErr.add("room", err.Error())
		return vErr
	}
	return storeUnavailable(err)
}
