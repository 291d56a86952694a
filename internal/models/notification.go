package models

import "time"

const (
	NotificationBookingConfirmation = "booking_confirmation"
	NotificationBookingReminder     = "booking_reminder"
	NotificationBookingCancellation = "booking_cancellation"
	NotificationPaymentReceipt      = "payment_receipt"
	NotificationWaitlistAvailable   = "waitlist_available"
	NotificationSystemMessage       = "system_message"
)

type Notification struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	BookingID   *int64    `json:"bookingId,omitempty"`
	IsRead      bool      `json:"isRead"`
	IsEmailSent bool      `json:"isEmailSent"`
	IsSMSSent   bool      `json:"isSMSSent"`
	IsPushSent  bool      `json:"isPushSent"`
	CreatedAt   time.Time `json:"createdAt"`
}

// IsValidNotificationType reports whether t is a known notification type.
func IsValidNotificationType(t string) bool {
	switch t {
	case NotificationBookingConfirmation, NotificationBookingReminder, NotificationBookingCancellation,
		NotificationPaymentReceipt, NotificationWaitlistAvailable, NotificationSystemMessage:
		return true
	}
	return false
}
