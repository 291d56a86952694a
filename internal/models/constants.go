package models

import (
	"strings"
	"time"
)

// Booking status values.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
	StatusNoShow    = "no_show"
)

// Payment status values.
const (
	PaymentPending       = "pending"
	PaymentPaid          = "paid"
	PaymentPartiallyPaid = "partially_paid"
	PaymentRefunded      = "refunded"
)

// Space types.
const (
	SpaceSportsPitch = "sports_pitch"
	SpaceMeetingRoom = "meeting_room"
	SpaceHotDesk     = "hot_desk"
	SpaceEventHall   = "event_hall"
	SpaceEquipment   = "equipment"
	SpaceOther       = "other"
)

// User roles and membership tiers.
const (
	RoleUser    = "user"
	RoleAdmin   = "admin"
	RoleStaff   = "staff"
	RoleManager = "manager"

	MembershipBasic      = "basic"
	MembershipPremium    = "premium"
	MembershipEnterprise = "enterprise"
)

// Promo discount types.
const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed_amount"
)

// Waitlist statuses.
const (
	WaitlistWaiting  = "waiting"
	WaitlistNotified = "notified"
	WaitlistExpired  = "expired"
)

// Recurring patterns.
const (
	RecurringWeekly  = "weekly"
	RecurringMonthly = "monthly"
)

const (
	// DateLayout формат календарной даты
	DateLayout = "2006-01-02"

	// ClockLayout формат времени суток в расписании
	ClockLayout = "15:04"

	// DateTimeLayout формат хранения начала/окончания брони (локальное время площадки)
	DateTimeLayout = "2006-01-02T15:04:05"

	// PromoClockLayout формат текущего времени при сравнении с окном промокода
	PromoClockLayout = "2006-01-02T15:04:05.000Z"
)

const (
	// DefaultDraftTTL время жизни черновика бронирования
	DefaultDraftTTL = 15 * time.Minute

	// DefaultSlotsCacheTTL время жизни кэша свободных слотов
	DefaultSlotsCacheTTL = 2 * time.Minute

	// ReminderHour час, в который отправляются напоминания
	ReminderHour = 9

	// DefaultMaxAdvanceDays горизонт бронирования по умолчанию
	DefaultMaxAdvanceDays = 365

	// PromoAttemptLimit количество проверок промокода в окне
	PromoAttemptLimit = 10

	// PromoAttemptWindow окно ограничения проверок промокода
	PromoAttemptWindow = time.Minute

	// MaxRecurringOccurrences максимальное число повторов регулярной брони
	MaxRecurringOccurrences = 12

	// WorkerQueueSize размер очереди воркера
	WorkerQueueSize = 128
)

// NormalizeDiscountType maps the short "fixed" alias onto DiscountFixed and
// lowercases the value. Unknown types are returned as is.
func NormalizeDiscountType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	if t == "fixed" {
		return DiscountFixed
	}
	return t
}
