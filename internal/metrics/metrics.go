// Package metrics exposes Prometheus counters for reservation outcomes,
// background maintenance and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/room-booking/internal/application"
)

const namespace = "booking"

// Collector implements application.Recorder on top of Prometheus metrics.
type Collector struct {
	reservationsCreated  prometheus.Counter
	reservationsRejected *prometheus.CounterVec
	reservationsExpired  prometheus.Counter
	orphansPurged        prometheus.Counter
	httpRequests         *prometheus.CounterVec
	httpDuration         *prometheus.HistogramVec
	httpInFlight         prometheus.Gauge
}

var _ application.Recorder = (*Collector)(nil)

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		reservationsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_created_total",
			Help:      "Reservations created",
		}),
		reservationsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_rejected_total",
			Help:      "Reservation writes rejected, by reason",
		}, []string{"reason"}),
		reservationsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_expired_total",
			Help:      "Reservations moved from active to inactive by the expiry sweep",
		}),
		orphansPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orphan_reservations_purged_total",
			Help:      "Reservations removed because their room or user no longer exists",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "route"}),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "HTTP requests currently being served",
		}),
	}

	reg.MustRegister(
		c.reservationsCreated,
		c.reservationsRejected,
		c.reservationsExpired,
		c.orphansPurged,
		c.httpRequests,
		c.httpDuration,
		c.httpInFlight,
	)
	return c
}

func (c *Collector) ReservationCreated() {
	c.reservationsCreated.Inc()
}

func (c *Collector) ReservationRejected(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	c.reservationsRejected.WithLabelValues(reason).Inc()
}

func (c *Collector) ReservationsExpired(n int) {
	if n > 0 {
		c.reservationsExpired.Add(float64(n))
	}
}

// OrphansPurged records reservations removed by reconciliation.
func (c *Collector) OrphansPurged(n int) {
	if n > 0 {
		c.orphansPurged.Add(float64(n))
	}
}

// RequestStarted and RequestFinished bracket one HTTP request. route should
// be the matched route pattern so ids do not explode label cardinality.
func (c *Collector) RequestStarted() {
	c.httpInFlight.Inc()
}

func (c *Collector) RequestFinished(method, route string, status int, elapsed time.Duration) {
	c.httpInFlight.Dec()
	if route == "" {
		route = "unmatched"
	}
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
