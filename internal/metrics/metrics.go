package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookline",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bookline",
			Name:      "bookings_created_total",
			Help:      "Bookings accepted by the creation path.",
		},
	)

	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookline",
			Name:      "booking_transitions_total",
			Help:      "Status transition attempts by action and outcome.",
		},
		[]string{"action", "outcome"},
	)

	notifications = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bookline",
			Name:      "change_notifications_total",
			Help:      "Change notifications published to party channels.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingsCreated, transitions, notifications)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncBookingCreated counts a successful booking creation.
func IncBookingCreated() {
	bookingsCreated.Inc()
}

// IncTransition counts a transition attempt. Outcome is one of
// ok, invalid, unauthorized, conflict.
func IncTransition(action, outcome string) {
	transitions.WithLabelValues(action, outcome).Inc()
}

// IncNotification counts a published change notification.
func IncNotification() {
	notifications.Inc()
}
