package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus()

	var received *Event
	var callCount int

	bus.Subscribe(EventBookingCreated, func(event *Event) error {
		received = event
		callCount++
		return nil
	})

	payload := BookingEventPayload{Event: EventBookingCreated, BookingID: 42, Status: "pending"}
	require.NoError(t, bus.PublishJSON(EventBookingCreated, payload))

	assert.Equal(t, 1, callCount)
	require.NotNil(t, received)
	assert.Equal(t, EventBookingCreated, received.Type)
	assert.False(t, received.CreatedAt.IsZero())

	var decoded BookingEventPayload
	require.NoError(t, json.Unmarshal(received.Payload, &decoded))
	assert.Equal(t, int64(42), decoded.BookingID)
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	bus := NewEventBus()
	var count1, count2 int

	bus.Subscribe("event", func(_ *Event) error { count1++; return nil })
	bus.Subscribe("event", func(_ *Event) error { count2++; return nil })
	bus.Subscribe("other", func(_ *Event) error { t.Fatal("unexpected event"); return nil })

	bus.Publish(&Event{Type: "event"})
	assert.Equal(t, 1, count1)
	assert.Equal(t, 1, count2)
}

func TestEventBusSubscribeAllAndErrors(t *testing.T) {
	bus := NewEventBus()
	var seen []string
	var failed []string

	bus.OnError(func(event *Event, _ error) { failed = append(failed, event.Type) })
	bus.SubscribeAll(BookingEvents, func(event *Event) error {
		seen = append(seen, event.Type)
		if event.Type == EventBookingCancelled {
			return errors.New("boom")
		}
		return nil
	})

	bus.Publish(&Event{Type: EventBookingConfirmed})
	bus.Publish(&Event{Type: EventBookingCancelled})

	assert.Equal(t, []string{EventBookingConfirmed, EventBookingCancelled}, seen)
	assert.Equal(t, []string{EventBookingCancelled}, failed)
}

func TestPublishJSONNilBus(t *testing.T) {
	var bus *EventBus
	assert.NoError(t, bus.PublishJSON("x", map[string]string{"a": "b"}))
}

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaPublisher(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, topic: "bookings"}

	require.NoError(t, p.Publish(context.Background(), "42", []byte(`{"booking_id":42}`)))
	require.Len(t, w.messages, 1)
	assert.Equal(t, "42", string(w.messages[0].Key))
	assert.JSONEq(t, `{"booking_id":42}`, string(w.messages[0].Value))

	w.err = errors.New("leader not available")
	err := p.Publish(context.Background(), "43", []byte(`{}`))
	assert.ErrorContains(t, err, "bookings")

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestNewKafkaPublisher(t *testing.T) {
	p := NewKafkaPublisher([]string{"localhost:9092"}, "bookings")
	require.NotNil(t, p)
	assert.NoError(t, p.Close())
}
