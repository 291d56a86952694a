package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	// Register should be safe to call multiple times
	Register()
	Register()

	assert.NotPanics(t, func() {
		IncHTTP("test_endpoint")
		IncGRPC("/spacehub.booking.v1.BookingService/CheckAvailability", "OK")
		ObserveOutboxTask("kafka_publish", true, 15*time.Millisecond)
	})
}

func TestRegisteredFamilies(t *testing.T) {
	Register()
	ObserveAvailability(false)
	ObserveBooking("create", "conflict")
	ObservePromo(true)
	ObserveSlotsCache(true)

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names["spacehub_availability_checks_total"])
	assert.True(t, names["spacehub_booking_operations_total"])
	assert.True(t, names["spacehub_promo_validations_total"])
	assert.True(t, names["spacehub_slots_cache_total"])
}
