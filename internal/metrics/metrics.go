package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "traveler",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		},
		[]string{"route", "code"},
	)

	authAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "traveler",
			Name:      "auth_attempts_total",
			Help:      "Registration and login attempts by outcome.",
		},
		[]string{"action", "outcome"},
	)

	bookingOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "traveler",
			Name:      "booking_operations_total",
			Help:      "Booking store operations by kind.",
		},
		[]string{"op"},
	)

	sheetsSync = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "traveler",
			Name:      "sheets_sync_tasks_total",
			Help:      "Sheets sync tasks by final status.",
		},
		[]string{"status"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, authAttempts, bookingOps, sheetsSync)
	})
}

// IncHTTP counts a served request.
func IncHTTP(route string, code int) {
	httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// IncAuth counts a register or login attempt.
func IncAuth(action, outcome string) {
	authAttempts.WithLabelValues(action, outcome).Inc()
}

// IncBookingOp counts a booking mutation or query.
func IncBookingOp(op string) {
	bookingOps.WithLabelValues(op).Inc()
}

// IncSheetsSync counts a processed sync task.
func IncSheetsSync(status string) {
	sheetsSync.WithLabelValues(status).Inc()
}
