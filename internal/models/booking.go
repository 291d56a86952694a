package models

import (
	"fmt"
	"time"
)

type Booking struct {
	ID               int64     `json:"id"`
	UserID           int64     `json:"userId"`
	SpaceID          int64     `json:"spaceId"`
	FacilityID       int64     `json:"facilityId"`
	StartTime        time.Time `json:"startTime"`
	EndTime          time.Time `json:"endTime"`
	Duration         float64   `json:"duration"`
	Participants     int       `json:"participants"`
	TotalPrice       float64   `json:"totalPrice"`
	DepositAmount    float64   `json:"depositAmount"`
	DiscountAmount   float64   `json:"discountAmount"`
	PromoCodeID      *int64    `json:"promoCodeId,omitempty"`
	Status           string    `json:"status"`
	PaymentStatus    string    `json:"paymentStatus"`
	SpecialRequests  string    `json:"specialRequests,omitempty"`
	IsRecurring      bool      `json:"isRecurring"`
	RecurringPattern string    `json:"recurringPattern,omitempty"`
	ParentBookingID  *int64    `json:"parentBookingId,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
	Version          int64     `json:"version"`
}

// BookingFilter selects bookings for listing. Zero fields are ignored.
type BookingFilter struct {
	UserID     int64
	SpaceID    int64
	FacilityID int64
}

// PromoRedemption attaches a promo code use to a booking insert.
type PromoRedemption struct {
	PromoCodeID    int64
	UserID         int64
	DiscountAmount float64
}

// Date returns the calendar date of the booking start.
func (b *Booking) Date() string {
	return b.StartTime.Format(DateLayout)
}

// Overlaps reports whether [start, end) intersects the booking interval.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartTime.Before(end) && b.EndTime.After(start)
}

var bookingTransitions = map[string][]string{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled, StatusCompleted, StatusNoShow},
	StatusCancelled: nil,
	StatusCompleted: nil,
	StatusNoShow:    nil,
}

var paymentTransitions = map[string][]string{
	PaymentPending:       {PaymentPaid, PaymentPartiallyPaid, PaymentRefunded},
	PaymentPartiallyPaid: {PaymentPaid, PaymentRefunded},
	PaymentPaid:          {PaymentRefunded},
	PaymentRefunded:      nil,
}

// IsValidStatus reports whether s is a known booking status.
func IsValidStatus(s string) bool {
	_, ok := bookingTransitions[s]
	return ok
}

// IsValidPaymentStatus reports whether s is a known payment status.
func IsValidPaymentStatus(s string) bool {
	_, ok := paymentTransitions[s]
	return ok
}

// CanTransition reports whether a booking may move from one status to another.
func CanTransition(from, to string) bool {
	return contains(bookingTransitions[from], to)
}

// CanTransitionPayment reports whether a payment status change is allowed.
func CanTransitionPayment(from, to string) bool {
	return contains(paymentTransitions[from], to)
}

// IsTerminal reports whether no further status changes are possible.
func IsTerminal(status string) bool {
	next, ok := bookingTransitions[status]
	return ok && len(next) == 0
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// ParseDateTime parses a venue-local timestamp. Offsets are accepted and the
// wall clock of the given offset is kept.
func ParseDateTime(raw string) (time.Time, error) {
	layouts := []string{
		time.RFC3339Nano,
		DateTimeLayout,
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid datetime %q", raw)
}

// CombineDateClock builds a timestamp from YYYY-MM-DD and HH:MM parts.
func CombineDateClock(date, clock string) (time.Time, error) {
	t, err := time.Parse(DateLayout+"T"+ClockLayout, date+"T"+clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date/time %s %s: %w", date, clock, err)
	}
	return t, nil
}
