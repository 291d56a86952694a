package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"spacehub/internal/domain"
	"spacehub/internal/events"
	"spacehub/internal/logging"
	"spacehub/internal/models"

	"github.com/rs/zerolog"
)

// ChatNotifier delivers a text message to a chat.
type ChatNotifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

// PushMarker records that a notification reached the user.
type PushMarker interface {
	MarkNotificationPushed(ctx context.Context, id int64) error
}

// RegisterSheets wires the Google Sheets mirror handlers.
func (w *OutboxWorker) RegisterSheets(sheets domain.SheetsWriter) {
	w.Handle(models.TaskSheetsUpsert, func(ctx context.Context, task *models.OutboxTask) error {
		var booking models.Booking
		if err := json.Unmarshal([]byte(task.Payload), &booking); err != nil {
			return fmt.Errorf("decode booking: %w", err)
		}
		if booking.ID == 0 {
			return errors.New("booking payload missing id")
		}
		return sheets.UpsertBooking(ctx, &booking)
	})

	w.Handle(models.TaskSheetsStatus, func(ctx context.Context, task *models.OutboxTask) error {
		var p models.SheetsStatusPayload
		if err := json.Unmarshal([]byte(task.Payload), &p); err != nil {
			return fmt.Errorf("decode status payload: %w", err)
		}
		if p.BookingID == 0 || p.Status == "" {
			return errors.New("booking id or status missing")
		}
		return sheets.UpdateBookingStatus(ctx, p.BookingID, p.Status)
	})
}

// RegisterKafka wires the event stream handler.
func (w *OutboxWorker) RegisterKafka(pub domain.StreamPublisher) {
	w.Handle(models.TaskKafkaPublish, func(ctx context.Context, task *models.OutboxTask) error {
		var p models.KafkaPayload
		if err := json.Unmarshal([]byte(task.Payload), &p); err != nil {
			return fmt.Errorf("decode kafka payload: %w", err)
		}
		if len(p.Value) == 0 {
			return errors.New("kafka payload is empty")
		}
		return pub.Publish(ctx, p.Key, p.Value)
	})
}

// RegisterTelegram wires push delivery of notifications.
func (w *OutboxWorker) RegisterTelegram(notifier ChatNotifier, marker PushMarker) {
	w.Handle(models.TaskTelegramPush, func(ctx context.Context, task *models.OutboxTask) error {
		var p models.TelegramPayload
		if err := json.Unmarshal([]byte(task.Payload), &p); err != nil {
			return fmt.Errorf("decode telegram payload: %w", err)
		}
		if err := notifier.Notify(ctx, p.ChatID, p.Text); err != nil {
			return err
		}
		if p.NotificationID != 0 {
			return marker.MarkNotificationPushed(ctx, p.NotificationID)
		}
		return nil
	})
}

// ForwardEvents subscribes to booking events and queues them for Kafka.
func ForwardEvents(bus *events.EventBus, outbox domain.OutboxEnqueuer, logger *zerolog.Logger) {
	l := logging.Component(logger, "event_forwarder")

	bus.SubscribeAll(events.BookingEvents, func(event *events.Event) error {
		var payload events.BookingEventPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return fmt.Errorf("decode event %s: %w", event.Type, err)
		}

		task := models.KafkaPayload{
			Event: event.Type,
			Key:   strconv.FormatInt(payload.BookingID, 10),
			Value: json.RawMessage(event.Payload),
		}
		if err := outbox.EnqueueTask(context.Background(), models.TaskKafkaPublish, payload.BookingID, task); err != nil {
			l.Error().Err(err).Str("event", event.Type).Int64("booking_id", payload.BookingID).Msg("enqueue kafka task")
			return err
		}
		return nil
	})
}
