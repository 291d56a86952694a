package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "spacehub"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	grpcRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grpc_requests_total",
			Help:      "gRPC requests by method and status code.",
		},
		[]string{"method", "code"},
	)

	availabilityChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "availability_checks_total",
			Help:      "Availability checks by outcome.",
		},
		[]string{"result"},
	)

	bookingOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_operations_total",
			Help:      "Booking operations by kind and outcome.",
		},
		[]string{"operation", "result"},
	)

	promoValidations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promo_validations_total",
			Help:      "Promo code validations by outcome.",
		},
		[]string{"result"},
	)

	outboxTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_tasks_total",
			Help:      "Processed outbox tasks by type and outcome.",
		},
		[]string{"task_type", "result"},
	)

	outboxLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "outbox_task_duration_seconds",
			Help:      "Outbox task processing time.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"task_type"},
	)

	slotsCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slots_cache_total",
			Help:      "Slot cache lookups by result (hit/miss).",
		},
		[]string{"result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			grpcRequests,
			availabilityChecks,
			bookingOutcomes,
			promoValidations,
			outboxTasks,
			outboxLatency,
			slotsCache,
		)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func IncGRPC(method, code string) {
	grpcRequests.WithLabelValues(method, code).Inc()
}

func ObserveAvailability(available bool) {
	availabilityChecks.WithLabelValues(boolLabel(available, "available", "unavailable")).Inc()
}

// ObserveBooking records create/cancel/status outcomes, e.g. ("create", "conflict").
func ObserveBooking(operation, result string) {
	bookingOutcomes.WithLabelValues(operation, result).Inc()
}

func ObservePromo(valid bool) {
	promoValidations.WithLabelValues(boolLabel(valid, "valid", "invalid")).Inc()
}

func ObserveOutboxTask(taskType string, ok bool, took time.Duration) {
	outboxTasks.WithLabelValues(taskType, boolLabel(ok, "ok", "error")).Inc()
	outboxLatency.WithLabelValues(taskType).Observe(took.Seconds())
}

func ObserveSlotsCache(hit bool) {
	slotsCache.WithLabelValues(boolLabel(hit, "hit", "miss")).Inc()
}

func boolLabel(v bool, yes, no string) string {
	if v {
		return yes
	}
	return no
}
