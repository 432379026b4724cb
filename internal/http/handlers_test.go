package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/clock"
	"github.com/example/room-booking/internal/persistence"
)

type roomServiceStub struct {
	lastList application.ListRoomsParams
	page     application.RoomPage
	err      error
}

func (s *roomServiceStub) CreateRoom(ctx context.Context, params application.CreateRoomParams) (application.Room, error) {
	return application.Room{ID: "r-new", Name: params.Input.Name}, s.err
}

func (s *roomServiceStub) UpdateRoom(ctx context.Context, params application.UpdateRoomParams) (application.Room, error) {
	return application.Room{ID: params.RoomID, Name: params.Input.Name}, s.err
}

func (s *roomServiceStub) DeleteRoom(ctx context.Context, principal application.Principal, roomID string) error {
	return s.err
}

func (s *roomServiceStub) GetRoom(ctx context.Context, roomID string) (application.Room, error) {
	return application.Room{ID: roomID, Name: "Room"}, s.err
}

func (s *roomServiceStub) ListRooms(ctx context.Context, params application.ListRoomsParams) (application.RoomPage, error) {
	s.lastList = params
	return s.page, s.err
}

type reservationServiceStub struct {
	created application.CreateReservationParams
	updated application.UpdateReservationParams
	err     error
}

func (s *reservationServiceStub) Create(ctx context.Context, params application.CreateReservationParams) (application.Reservation, error) {
	s.created = params
	if s.err != nil {
		return application.Reservation{}, s.err
	}
	return application.Reservation{
		ID: "res-1", UserID: params.Principal.UserID, RoomID: params.Input.RoomID,
		Date: params.Input.Date, Status: application.StatusActive,
	}, nil
}

func (s *reservationServiceStub) Update(ctx context.Context, params application.UpdateReservationParams) (application.Reservation, error) {
	s.updated = params
	return application.Reservation{ID: params.ReservationID}, s.err
}

func (s *reservationServiceStub) List(ctx context.Context, principal application.Principal) ([]application.Reservation, error) {
	return []application.Reservation{{ID: "a"}, {ID: "b"}}, s.err
}

func (s *reservationServiceStub) ListActive(ctx context.Context, principal application.Principal) ([]application.Reservation, error) {
	return nil, s.err
}

func (s *reservationServiceStub) ListForUser(ctx context.Context, principal application.Principal, userID string) ([]application.Reservation, error) {
	return nil, s.err
}

func (s *reservationServiceStub) ListForRoom(ctx context.Context, principal application.Principal, roomID string) ([]application.Reservation, error) {
	return nil, s.err
}

func (s *reservationServiceStub) Get(ctx context.Context, principal application.Principal, id string) (application.Reservation, error) {
	return application.Reservation{ID: id}, s.err
}

func (s *reservationServiceStub) Delete(ctx context.Context, principal application.Principal, id string) error {
	return s.err
}

var testUsers = authenticatorStub{users: map[string]application.User{
	"user-token":  {ID: "u1", Role: application.RoleUser},
	"admin-token": {ID: "a1", Role: application.RoleAdmin},
}}

func do(t *testing.T, h http.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestParseRoomQuery(t *testing.T) {
	values, err := url.ParseQuery("select=name,tel&sort=-name,createdAt&page=2&limit=10&name[in]=A,B&createdAt[gte]=2024-01-01&tel=123")
	require.NoError(t, err)

	params, err := parseRoomQuery(values)
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "tel"}, params.Select)
	assert.Equal(t, []persistence.SortField{{Field: "name", Desc: true}, {Field: "createdAt"}}, params.Sort)
	assert.Equal(t, 2, params.Page)
	assert.Equal(t, 10, params.Limit)
	assert.ElementsMatch(t, []persistence.RoomFilter{
		{Field: "name", Op: persistence.OpIn, Values: []string{"A", "B"}},
		{Field: "createdAt", Op: persistence.OpGte, Values: []string{"2024-01-01"}},
		{Field: "tel", Op: persistence.OpEq, Values: []string{"123"}},
	}, params.Filters)

	for _, bad := range []string{"page=0", "limit=abc", "name[regex]=x", "name[gt=x"} {
		values, err := url.ParseQuery(bad)
		require.NoError(t, err)
		_, err = parseRoomQuery(values)
		var vErr *application.ValidationError
		assert.ErrorAs(t, err, &vErr, bad)
	}
}

func TestRoomRoutes(t *testing.T) {
	rooms := &roomServiceStub{page: application.RoomPage{
		Rooms:      []application.Room{{ID: "r1", Name: "Alpha", Tel: "1"}},
		Select:     []string{"name"},
		Total:      30,
		Pagination: application.Pagination{Next: &application.PageRef{Page: 2, Limit: 25}},
	}}
	router := NewRouter(RouterConfig{Rooms: NewRoomHandler(rooms, nil), Authenticator: testUsers})

	t.Run("listing is public and honours select", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/v1/rooms?select=name", "", "")
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeEnvelope(t, rec.Body)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, float64(1), body["count"])
		assert.Equal(t, float64(30), body["total"])
		assert.Equal(t, map[string]any{"next": map[string]any{"page": float64(2), "limit": float64(25)}}, body["pagination"])
		assert.Equal(t, []any{map[string]any{"id": "r1", "name": "Alpha"}}, body["data"])
	})

	t.Run("mutations need an admin", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do(t, router, http.MethodPost, "/api/v1/rooms", "", `{"name":"X"}`).Code)
		assert.Equal(t, http.StatusUnauthorized, do(t, router, http.MethodPost, "/api/v1/rooms", "user-token", `{"name":"X"}`).Code)
		assert.Equal(t, http.StatusCreated, do(t, router, http.MethodPost, "/api/v1/rooms", "admin-token", `{"name":"X"}`).Code)
		assert.Equal(t, http.StatusOK, do(t, router, http.MethodDelete, "/api/v1/rooms/r1", "admin-token", "").Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := do(t, router, http.MethodPut, "/api/v1/rooms/r1", "admin-token", `{"name":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", &application.ValidationError{Message: "Cannot create reservation for a past date"}, http.StatusBadRequest, "Cannot create reservation for a past date"},
		{"duplicate", &application.RuleError{Kind: application.ErrAlreadyExists, Message: "Duplicate field value entered"}, http.StatusBadRequest, "Duplicate field value entered"},
		{"forbidden", &application.RuleError{Kind: application.ErrUnauthorized, Message: "Not authorized to access this reservation"}, http.StatusUnauthorized, "Not authorized to access this reservation"},
		{"not found", &application.RuleError{Kind: application.ErrNotFound, Message: "Reservation not found"}, http.StatusNotFound, "Reservation not found"},
		{"store", application.ErrStoreUnavailable, http.StatusInternalServerError, msgServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			router := NewRouter(RouterConfig{
				Reservations:  NewReservationHandler(&reservationServiceStub{err: tc.err}, time.UTC, nil),
				Authenticator: testUsers,
			})
			rec := do(t, router, http.MethodGet, "/api/v1/reservations/x", "user-token", "")
			assert.Equal(t, tc.status, rec.Code)
			body := decodeEnvelope(t, rec.Body)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tc.message, body["message"])
		})
	}
}

func TestReservationRoutes(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	svc := &reservationServiceStub{}
	router := NewRouter(RouterConfig{
		Reservations:  NewReservationHandler(svc, tokyo, nil),
		Authenticator: testUsers,
	})

	t.Run("authentication required", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do(t, router, http.MethodGet, "/api/v1/reservations", "", "").Code)
	})

	t.Run("create parses the day in the booking location", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/api/v1/reservations", "user-token", `{"room":"r1","date":"2024-06-10"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.True(t, time.Date(2024, 6, 10, 0, 0, 0, 0, tokyo).Equal(svc.created.Input.Date))
		assert.Equal(t, "u1", svc.created.Principal.UserID)
		body := decodeEnvelope(t, rec.Body)
		data := body["data"].(map[string]any)
		assert.Equal(t, "2024-06-10", data["date"])
		assert.Equal(t, "active", data["status"])
	})

	t.Run("invalid date", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/api/v1/reservations", "user-token", `{"room":"r1","date":"tomorrow"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("update keeps omitted fields unset", func(t *testing.T) {
		rec := do(t, router, http.MethodPut, "/api/v1/reservations/res-9", "user-token", `{"date":"2024-06-12"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "res-9", svc.updated.ReservationID)
		assert.Nil(t, svc.updated.Patch.UserID)
		assert.Nil(t, svc.updated.Patch.RoomID)
		require.NotNil(t, svc.updated.Patch.Date)
	})

	t.Run("list envelope", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/v1/reservations", "user-token", "")
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeEnvelope(t, rec.Body)
		assert.Equal(t, float64(2), body["count"])
	})

	t.Run("clock override is hidden when disabled", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/api/v1/reservations/set-current-date", "admin-token", `{"date":"2024-06-12"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestClockOverrideRoute(t *testing.T) {
	c := clock.New(time.UTC, func() time.Time { return time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC) })
	router := NewRouter(RouterConfig{
		Reservations:  NewReservationHandler(&reservationServiceStub{}, time.UTC, nil),
		Clock:         NewClockHandler(c, nil),
		Authenticator: testUsers,
	})

	rec := do(t, router, http.MethodPost, "/api/v1/reservations/set-current-date", "user-token", `{"date":"2024-06-12"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/v1/reservations/set-current-date", "admin-token", `{"date":"2024-06-12"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC).Equal(c.Today()))
	data := decodeEnvelope(t, rec.Body)["data"].(map[string]any)
	assert.Equal(t, "2024-06-12", data["currentDate"])
	assert.Equal(t, true, data["overridden"])

	rec = do(t, router, http.MethodPost, "/api/v1/reservations/set-current-date", "admin-token", `{"date":null}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC).Equal(c.Today()))

	rec = do(t, router, http.MethodPost, "/api/v1/reservations/set-current-date", "admin-token", `{"date":"2024-06-12"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, router, http.MethodPost, "/api/v1/reservations/set-current-date", "admin-token", "")
	require.Equal(t, http.StatusOK, rec.Code, "an empty body clears the override")
	_, overridden := c.Override()
	assert.False(t, overridden)
	assert.True(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC).Equal(c.Today()))

	rec = do(t, router, http.MethodPost, "/api/v1/reservations/set-current-date", "admin-token", `{"date":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type healthStub struct{ err error }

func (h healthStub) Ping(ctx context.Context) error { return h.err }

func TestHealthAndNotFound(t *testing.T) {
	router := NewRouter(RouterConfig{Health: healthStub{}})
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/healthz", "", "").Code)

	rec := do(t, router, http.MethodGet, "/api/v1/nowhere", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, msgRouteNotFound, decodeEnvelope(t, rec.Body)["message"])

	down := NewRouter(RouterConfig{Health: healthStub{err: context.DeadlineExceeded}})
	assert.Equal(t, http.StatusServiceUnavailable, do(t, down, http.MethodGet, "/healthz", "", "").Code)
}
