package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/room-booking/internal/booking"
	"github.com/example/room-booking/internal/clock"
	"github.com/example/room-booking/internal/persistence"
)

// ReservationRepository captures the persistence operations needed by the
// reservation service. Days are midnight in the booking location.
type ReservationRepository interface {
	ReservationExpirer
	CreateReservation(ctx context.Context, reservation Reservation) error
	UpdateReservation(ctx context.Context, reservation Reservation) error
	GetReservation(ctx context.Context, id string) (Reservation, error)
	FindReservationBySlot(ctx context.Context, roomID string, day time.Time) (Reservation, error)
	ListReservations(ctx context.Context, filter ReservationFilter) ([]Reservation, error)
	CountReservations(ctx context.Context, filter ReservationFilter) (int, error)
	DeleteReservation(ctx context.Context, id string) error
}

// RoomReader resolves rooms referenced by reservations.
type RoomReader interface {
	GetRoom(ctx context.Context, id string) (Room, error)
}

// ReservationServiceDeps lists the collaborators of a ReservationService.
// Sweeper defaults to one built from Reservations and Clock.
type ReservationServiceDeps struct {
	Reservations ReservationRepository
	Rooms        RoomReader
	Clock        clock.Clock
	Sweeper      *ExpirySweeper
	IDGenerator  func() string
	Now          func() time.Time
	MaxActive    int
	Recorder     Recorder
	Logger       *slog.Logger
}

// ReservationService applies the booking rules to reservation requests.
type ReservationService struct {
	reservations ReservationRepository
	rooms        RoomReader
	clock        clock.Clock
	sweeper      *ExpirySweeper
	idGenerator  func() string
	now          func() time.Time
	maxActive    int
	recorder     Recorder
	logger       *slog.Logger
}

// NewReservationService wires dependencies for reservation operations.
func NewReservationService(deps ReservationServiceDeps) *ReservationService {
	if deps.IDGenerator == nil {
		deps.IDGenerator = func() string { return "" }
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Clock == nil {
		deps.Clock = clock.New(time.UTC, deps.Now)
	}
	if deps.MaxActive <= 0 {
		deps.MaxActive = booking.DefaultMaxActive
	}
	deps.Recorder = defaultRecorder(deps.Recorder)
	deps.Logger = defaultLogger(deps.Logger)
	if deps.Sweeper == nil {
		deps.Sweeper = NewExpirySweeper(deps.Reservations, deps.Clock, deps.Now, deps.Recorder, deps.Logger)
	}
	return &ReservationService{
		reservations: deps.Reservations,
		rooms:        deps.Rooms,
		clock:        deps.Clock,
		sweeper:      deps.Sweeper,
		idGenerator:  deps.IDGenerator,
		now:          deps.Now,
		maxActive:    deps.MaxActive,
		recorder:     deps.Recorder,
		logger:       deps.Logger,
	}
}

func (s *ReservationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ReservationService", operation, attrs...)
}

func (s *ReservationService) ready() error {
	if s == nil {
		return fmt.Errorf("ReservationService is nil")
	}
	if s.reservations == nil {
		return fmt.Errorf("reservation repository not configured")
	}
	return nil
}

// Create books a room for one day.
func (s *ReservationService) Create(ctx context.Context, params CreateReservationParams) (reservation Reservation, err error) {
	if err = s.ready(); err != nil {
		return
	}

	actor := params.Principal
	input := params.Input
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		userID = actor.UserID
	}

	logger := s.loggerWith(ctx, "Create",
		"principal_id", actor.UserID,
		"user_id", userID,
		"room_id", input.RoomID,
	)
	defer func() {
		if err != nil {
			s.recordRejection(err)
			logOutcome(ctx, logger, "failed to create reservation", "", err)
			return
		}
		s.recorder.ReservationCreated()
		logger.With("reservation_id", reservation.ID).InfoContext(ctx, "reservation created")
	}()

	if _, err = s.sweeper.Sweep(ctx); err != nil {
		return
	}

	if !actor.IsAdmin && userID != actor.UserID {
		err = forbidden(booking.MsgCreateForOtherUser)
		return
	}

	vErr := &ValidationError{}
	if strings.TrimSpace(input.RoomID) == "" {
		vErr.add("room", "room is required")
	}
	if input.Date.IsZero() {
		vErr.add("date", "date is required")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	day := clock.Normalize(input.Date, s.clock.Location())
	if booking.IsPast(day, s.clock.Today()) {
		err = rejected(ReasonPastDate, booking.MsgPastDateCreate)
		return
	}

	if s.rooms != nil {
		if _, err = s.rooms.GetRoom(ctx, input.RoomID); err != nil {
			err = mapStoreError(err, booking.MsgRoomNotFound)
			return
		}
	}

	if err = s.checkSlot(ctx, input.RoomID, day, userID, ""); err != nil {
		return
	}

	var active int
	active, err = s.reservations.CountReservations(ctx, ReservationFilter{UserID: userID, Status: StatusActive})
	if err != nil {
		err = storeUnavailable(err)
		return
	}
	if booking.QuotaExceeded(active, s.maxActive) {
		err = rejected(ReasonQuotaExceeded, booking.QuotaMessage(s.maxActive))
		return
	}

	now := s.now()
	candidate := Reservation{
		ID:        s.idGenerator(),
		UserID:    userID,
		RoomID:    input.RoomID,
		Date:      day,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err = s.reservations.CreateReservation(ctx, candidate); err != nil {
		err = s.mapWriteError(ctx, err, candidate.RoomID, day, userID, "")
		return
	}

	reservation = candidate
	return
}

// Update changes the day of an existing reservation. User and room are immutable.
func (s *ReservationService) Update(ctx context.Context, params UpdateReservationParams) (reservation Reservation, err error) {
	if err = s.ready(); err != nil {
		return
	}

	actor := params.Principal
	patch := params.Patch
	logger := s.loggerWith(ctx, "Update",
		"principal_id", actor.UserID,
		"reservation_id", params.ReservationID,
	)
	defer func() {
		if err != nil {
			s.recordRejection(err)
		}
		logOutcome(ctx, logger, "failed to update reservation", "reservation updated", err)
	}()

	if _, err = s.sweeper.Sweep(ctx); err != nil {
		return
	}

	var existing Reservation
	existing, err = s.reservations.GetReservation(ctx, params.ReservationID)
	if err != nil {
		err = mapStoreError(err, booking.MsgReservationMissing)
		return
	}

	if err = authorize(actor, existing.UserID, booking.MsgUpdateForbidden); err != nil {
		return
	}
	if patch.UserID != nil && *patch.UserID != existing.UserID {
		err = rejected(ReasonImmutableUser, booking.MsgUserImmutable)
		return
	}
	if patch.RoomID != nil && *patch.RoomID != existing.RoomID {
		err = rejected(ReasonImmutableRoom, booking.MsgRoomImmutable)
		return
	}

	updated := existing
	if patch.Date != nil {
		day := clock.Normalize(*patch.Date, s.clock.Location())
		if booking.IsPast(day, s.clock.Today()) {
			err = rejected(ReasonPastDate, booking.MsgPastDateUpdate)
			return
		}
		if err = s.checkSlot(ctx, existing.RoomID, day, actor.UserID, existing.ID); err != nil {
			return
		}
		updated.Date = day
	}
	updated.UpdatedAt = s.now()

	if err = s.reservations.UpdateReservation(ctx, updated); err != nil {
		err = s.mapWriteError(ctx, err, updated.RoomID, updated.Date, actor.UserID, updated.ID)
		return
	}

	reservation = updated
	return
}

// List returns every reservation visible to principal.
func (s *ReservationService) List(ctx context.Context, principal Principal) ([]Reservation, error) {
	return s.list(ctx, "List", principal, scopeFilter(principal, ReservationFilter{}))
}

// ListActive returns the active reservations visible to principal.
func (s *ReservationService) ListActive(ctx context.Context, principal Principal) ([]Reservation, error) {
	return s.list(ctx, "ListActive", principal, scopeFilter(principal, ReservationFilter{Status: StatusActive}))
}

// ListForUser returns userID's reservations to that user or an admin.
func (s *ReservationService) ListForUser(ctx context.Context, principal Principal, userID string) ([]Reservation, error) {
	if err := authorize(principal, userID, booking.MsgListUserForbidden); err != nil {
		s.loggerWith(ctx, "ListForUser", "principal_id", principal.UserID, "user_id", userID).
			WarnContext(ctx, "reservation listing denied", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	return s.list(ctx, "ListForUser", principal, ReservationFilter{UserID: userID})
}

// ListForRoom returns the bookings of roomID to any authenticated caller.
// Non-admins see who holds a day only for their own reservations.
func (s *ReservationService) ListForRoom(ctx context.Context, principal Principal, roomID string) ([]Reservation, error) {
	reservations, err := s.list(ctx, "ListForRoom", principal, ReservationFilter{RoomID: roomID})
	if err != nil {
		return nil, err
	}
	if principal.IsAdmin {
		return reservations, nil
	}
	for i := range reservations {
		if reservations[i].UserID != principal.UserID {
			reservations[i].UserID = ""
		}
	}
	return reservations, nil
}

func (s *ReservationService) list(ctx context.Context, operation string, principal Principal, filter ReservationFilter) (reservations []Reservation, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, operation,
		"principal_id", principal.UserID,
	)
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, "failed to list reservations", "", err)
			return
		}
		logger.With("result_count", len(reservations)).DebugContext(ctx, "reservations listed")
	}()

	if _, err = s.sweeper.Sweep(ctx); err != nil {
		return
	}

	reservations, err = s.reservations.ListReservations(ctx, filter)
	if err != nil {
		err = storeUnavailable(err)
		return
	}
	return
}

// Get returns one reservation to its owner or an admin.
func (s *ReservationService) Get(ctx context.Context, principal Principal, id string) (reservation Reservation, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "Get",
		"principal_id", principal.UserID,
		"reservation_id", id,
	)
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, "failed to get reservation", "", err)
		}
	}()

	if _, err = s.sweeper.Sweep(ctx); err != nil {
		return
	}

	reservation, err = s.reservations.GetReservation(ctx, id)
	if err != nil {
		err = mapStoreError(err, booking.MsgReservationMissing)
		return
	}
	if err = authorize(principal, reservation.UserID, booking.MsgAccessForbidden); err != nil {
		reservation = Reservation{}
		return
	}
	return
}

// Delete removes a reservation for its owner or an admin.
func (s *ReservationService) Delete(ctx context.Context, principal Principal, id string) (err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "Delete",
		"principal_id", principal.UserID,
		"reservation_id", id,
	)
	defer func() {
		logOutcome(ctx, logger, "failed to delete reservation", "reservation deleted", err)
	}()

	if _, err = s.sweeper.Sweep(ctx); err != nil {
		return
	}

	var existing Reservation
	existing, err = s.reservations.GetReservation(ctx, id)
	if err != nil {
		err = mapStoreError(err, booking.MsgReservationMissing)
		return
	}
	if err = authorize(principal, existing.UserID, booking.MsgDeleteForbidden); err != nil {
		return
	}
	if err = s.reservations.DeleteReservation(ctx, id); err != nil {
		err = mapStoreError(err, booking.MsgReservationMissing)
		return
	}
	return
}

// checkSlot rejects day in roomID when another reservation holds it.
func (s *ReservationService) checkSlot(ctx context.Context, roomID string, day time.Time, proposerID, selfID string) error {
	occupant, err := s.reservations.FindReservationBySlot(ctx, roomID, day)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return storeUnavailable(err)
	}
	conflict := booking.ClassifyConflict(&booking.Slot{ReservationID: occupant.ID, UserID: occupant.UserID}, proposerID, selfID)
	return conflictError(conflict)
}

// mapWriteError turns a unique-index rejection into the conflict message the
// slot check would have produced had it seen the competing write.
func (s *ReservationService) mapWriteError(ctx context.Context, err error, roomID string, day time.Time, proposerID, selfID string) error {
	switch {
	case errors.Is(err, persistence.ErrDuplicate):
		if slotErr := s.checkSlot(ctx, roomID, day, proposerID, selfID); slotErr != nil {
			return slotErr
		}
		return conflictError(booking.ConflictOtherUser)
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		return notFound("Room or user not found")
	case isNotFound(err):
		return notFound(booking.MsgReservationMissing)
	}
	return storeUnavailable(err)
}

func conflictError(conflict booking.ConflictType) error {
	switch conflict {
	case booking.ConflictSameUser:
		return rejected(ReasonAlreadyBooked, conflict.Message())
	case booking.ConflictOtherUser:
		return rejected(ReasonRoomBooked, conflict.Message())
	}
	return nil
}

func (s *ReservationService) recordRejection(err error) {
	var vErr *ValidationError
	if errors.As(err, &vErr) && vErr.Reason != "" {
		s.recorder.ReservationRejected(vErr.Reason)
		return
	}
	s.recorder.ReservationRejected(ErrorKind(err))
}

func isNotFound(err error) bool {
	return errors.Is(err, persistence.ErrNotFound) || errors.Is(err, ErrNotFound)
}

// mapStoreError reports a missing record with message and any other failure
// as ErrStoreUnavailable.
func mapStoreError(err error, message string) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return notFound(message)
	}
	return storeUnavailable(err)
}

func storeUnavailable(err error) error {
	if err == nil || errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
