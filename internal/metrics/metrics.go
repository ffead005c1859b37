package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "beautybook"

var (
	once sync.Once

	bookingCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_created_total",
			Help:      "Count of booking attempts by outcome.",
		},
		[]string{"status"},
	)

	bookingCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_cancelled_total",
			Help:      "Count of appointments cancelled.",
		},
	)

	bookingConflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_conflicts_total",
			Help:      "Count of schedule conflicts by detection stage (precheck or store).",
		},
		[]string{"stage"},
	)

	slotsGenerated = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "slots_generated",
			Help:      "Number of candidate slots generated per availability query.",
			Buckets:   []float64{0, 4, 8, 16, 24, 32, 48, 64, 96},
		},
	)

	storeRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_retries_total",
			Help:      "Count of retried store reads by operation.",
		},
		[]string{"op"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Count of HTTP API requests by route and status code.",
		},
		[]string{"route", "code"},
	)

	scheduleUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedule_updates_total",
			Help:      "Count of schedule and exception edits by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			bookingCreated,
			bookingCancelled,
			bookingConflicts,
			slotsGenerated,
			storeRetries,
			httpRequests,
			scheduleUpdates,
		)
	})
}

func IncBookingCreated(status string) {
	bookingCreated.WithLabelValues(status).Inc()
}

func IncBookingCancelled() {
	bookingCancelled.Inc()
}

func IncConflict(stage string) {
	bookingConflicts.WithLabelValues(stage).Inc()
}

func ObserveSlots(n int) {
	slotsGenerated.Observe(float64(n))
}

func IncStoreRetry(op string) {
	storeRetries.WithLabelValues(op).Inc()
}

func IncHTTP(route, code string) {
	httpRequests.WithLabelValues(route, code).Inc()
}

func IncScheduleUpdate(kind, outcome string) {
	scheduleUpdates.WithLabelValues(kind, outcome).Inc()
}
