package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_ReservationOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ReservationCreated()
	c.ReservationCreated()
	c.ReservationRejected("quota_exceeded")
	c.ReservationRejected("")
	c.ReservationsExpired(3)
	c.ReservationsExpired(0)
	c.OrphansPurged(2)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.reservationsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.reservationsRejected.WithLabelValues("quota_exceeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.reservationsRejected.WithLabelValues("unknown")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.reservationsExpired))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.orphansPurged))
}

func TestCollector_HTTPRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RequestStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpInFlight))
	c.RequestFinished(http.MethodGet, "/api/v1/rooms/{id}", http.StatusOK, 15*time.Millisecond)
	assert.Equal(t, 0.0, testutil.ToFloat64(c.httpInFlight))

	c.RequestStarted()
	c.RequestFinished(http.MethodGet, "", http.StatusNotFound, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpRequests.WithLabelValues("GET", "/api/v1/rooms/{id}", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpRequests.WithLabelValues("GET", "unmatched", "404")))
}

func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.ReservationCreated()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "booking_reservations_created_total 1")
}
