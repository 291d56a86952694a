package models

import (
	"encoding/json"
	"time"
)

// OutboxTask represents a queued delivery job (sheets mirror, kafka, push).
type OutboxTask struct {
	ID          int64      `json:"id"`
	TaskType    string     `json:"task_type"`
	BookingID   int64      `json:"booking_id"`
	Payload     string     `json:"payload"`
	Status      string     `json:"status"`
	RetryCount  int        `json:"retry_count"`
	LastError   *string    `json:"last_error"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at"`
	NextRetryAt *time.Time `json:"next_retry_at"`
}

// Outbox task types.
const (
	TaskSheetsUpsert = "sheets_upsert"
	TaskSheetsStatus = "sheets_status"
	TaskKafkaPublish = "kafka_publish"
	TaskTelegramPush = "telegram_push"
)

// SheetsStatusPayload is the payload of a sheets_status task.
type SheetsStatusPayload struct {
	BookingID int64  `json:"booking_id"`
	Status    string `json:"status"`
}

// KafkaPayload is the payload of a kafka_publish task.
type KafkaPayload struct {
	Event string          `json:"event"`
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// TelegramPayload is the payload of a telegram_push task.
type TelegramPayload struct {
	NotificationID int64  `json:"notification_id"`
	ChatID         int64  `json:"chat_id"`
	Text           string `json:"text"`
}
