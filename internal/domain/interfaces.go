package domain

import (
	"context"
	"time"

	"spacehub/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type AvailabilityRepository interface {
	GetSchedulesBySpace(ctx context.Context, spaceID int64) ([]*models.AvailabilitySchedule, error)
	GetSchedule(ctx context.Context, id int64) (*models.AvailabilitySchedule, error)
	CreateSchedule(ctx context.Context, s *models.AvailabilitySchedule) error
	UpdateSchedule(ctx context.Context, s *models.AvailabilitySchedule) error
	GetActiveBlackoutDates(ctx context.Context, spaceID int64) ([]*models.BlackoutDate, error)
	CreateBlackoutDate(ctx context.Context, b *models.BlackoutDate) error
	DeactivateBlackoutDate(ctx context.Context, id int64) error
	GetOverlappingBookings(ctx context.Context, spaceID int64, start, end time.Time) ([]*models.Booking, error)
	GetSpaceBookingsOnDate(ctx context.Context, spaceID int64, date string) ([]*models.Booking, error)
}

type BookingRepository interface {
	CreateBookingWithLock(ctx context.Context, booking *models.Booking, redemption *models.PromoRedemption) (*models.AvailabilityResult, error)
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error)
	GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error)
	GetBookingsEndedBefore(ctx context.Context, status string, t time.Time) ([]*models.Booking, error)
	UpdateBookingStatusWithVersion(ctx context.Context, id, version int64, status string) error
	UpdatePaymentStatusWithVersion(ctx context.Context, id, version int64, paymentStatus string) error
	UpdateBookingDetailsWithVersion(ctx context.Context, id, version int64, participants int, specialRequests string) error
}

type PricingRepository interface {
	GetActivePricingRules(ctx context.Context, spaceID int64) ([]*models.PricingRule, error)
	GetPricingRule(ctx context.Context, id int64) (*models.PricingRule, error)
	GetPricingRulesBySpace(ctx context.Context, spaceID int64) ([]*models.PricingRule, error)
	ListPricingRules(ctx context.Context) ([]*models.PricingRule, error)
	CreatePricingRule(ctx context.Context, r *models.PricingRule) error
	UpdatePricingRule(ctx context.Context, r *models.PricingRule) error
}

type PromoRepository interface {
	GetActivePromoByCode(ctx context.Context, code string) (*models.PromoCode, error)
	GetPromoCode(ctx context.Context, id int64) (*models.PromoCode, error)
	ListPromoCodes(ctx context.Context) ([]*models.PromoCode, error)
	CreatePromoCode(ctx context.Context, p *models.PromoCode) error
	UpdatePromoCode(ctx context.Context, p *models.PromoCode) error
	DeletePromoCode(ctx context.Context, id int64) error
	HasUserUsedPromo(ctx context.Context, promoID, userID int64) (bool, error)
	RedeemPromoCode(ctx context.Context, promoID, userID, bookingID int64, discount float64) error
}

type WaitlistRepository interface {
	CreateWaitlistEntry(ctx context.Context, e *models.WaitlistEntry) error
	GetWaitlistEntry(ctx context.Context, id int64) (*models.WaitlistEntry, error)
	GetWaitlistByUser(ctx context.Context, userID int64) ([]*models.WaitlistEntry, error)
	GetWaitingBySpace(ctx context.Context, spaceID int64) ([]*models.WaitlistEntry, error)
	GetWaitingForSlot(ctx context.Context, spaceID int64, date, start, end string) ([]*models.WaitlistEntry, error)
	UpdateWaitlistStatus(ctx context.Context, id int64, status string) error
	DeleteWaitlistEntry(ctx context.Context, id int64) error
}

type NotificationRepository interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	GetNotification(ctx context.Context, id int64) (*models.Notification, error)
	GetUserNotifications(ctx context.Context, userID int64) ([]*models.Notification, error)
	GetUnreadNotifications(ctx context.Context, userID int64) ([]*models.Notification, error)
	MarkNotificationRead(ctx context.Context, id int64) error
	MarkAllNotificationsRead(ctx context.Context, userID int64) (int64, error)
	MarkNotificationPushed(ctx context.Context, id int64) error
	DeleteNotification(ctx context.Context, id int64) error
}

// SpaceLookup resolves the catalog records other services need.
type SpaceLookup interface {
	GetSpace(ctx context.Context, id int64) (*models.Space, error)
	GetFacility(ctx context.Context, id int64) (*models.Facility, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

type CatalogRepository interface {
	SpaceLookup
	CreateFacility(ctx context.Context, f *models.Facility) error
	ListActiveFacilities(ctx context.Context) ([]*models.Facility, error)
	ListFacilitiesByOwner(ctx context.Context, ownerID int64) ([]*models.Facility, error)
	UpdateFacility(ctx context.Context, f *models.Facility) error
	DeactivateFacility(ctx context.Context, id int64) error
	CountFacilities(ctx context.Context) (int, error)

	CreateSpace(ctx context.Context, s *models.Space) error
	ListActiveSpaces(ctx context.Context) ([]*models.Space, error)
	ListSpacesByFacility(ctx context.Context, facilityID int64) ([]*models.Space, error)
	ListSpacesByType(ctx context.Context, spaceType string) ([]*models.Space, error)
	UpdateSpace(ctx context.Context, s *models.Space) error
	DeactivateSpace(ctx context.Context, id int64) error

	CreateUser(ctx context.Context, u *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error

	CreateReview(ctx context.Context, r *models.Review) error
	GetPublicReviewsBySpace(ctx context.Context, spaceID int64) ([]*models.Review, error)
	GetSpaceRating(ctx context.Context, spaceID int64) (*models.RatingSummary, error)

	AddFavorite(ctx context.Context, userID, spaceID int64) (*models.Favorite, error)
	RemoveFavorite(ctx context.Context, userID, spaceID int64) error
	GetFavoritesByUser(ctx context.Context, userID int64) ([]*models.Favorite, error)
	IsFavorite(ctx context.Context, userID, spaceID int64) (bool, error)
}

// DraftRepository keeps short-lived checkout drafts and attempt counters.
type DraftRepository interface {
	GetDraft(ctx context.Context, id string) (*models.CheckoutDraft, error)
	SaveDraft(ctx context.Context, draft *models.CheckoutDraft, ttl time.Duration) error
	DeleteDraft(ctx context.Context, id string) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type RateLimiter interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// SlotCache caches slot listings per space and date.
type SlotCache interface {
	GetSlots(ctx context.Context, spaceID int64, date string, duration int) ([]models.Slot, bool, error)
	SetSlots(ctx context.Context, spaceID int64, date string, duration int, slots []models.Slot, ttl time.Duration) error
	Invalidate(ctx context.Context, spaceID int64, date string) error
	InvalidateSpace(ctx context.Context, spaceID int64) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// OutboxEnqueuer accepts deferred delivery work.
type OutboxEnqueuer interface {
	EnqueueTask(ctx context.Context, taskType string, bookingID int64, payload interface{}) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type SheetsWriter interface {
	UpsertBooking(ctx context.Context, booking *models.Booking) error
	UpdateBookingStatus(ctx context.Context, bookingID int64, status string) error
}

// StreamPublisher writes keyed messages to an external stream.
type StreamPublisher interface {
	Publish(ctx context.Context, key string, value []byte) error
	Close() error
}
