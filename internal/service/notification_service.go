package service

import (
	"context"
	"fmt"
	"time"

	"spacehub/internal/domain"
	"spacehub/internal/logging"
	"spacehub/internal/models"
	"spacehub/internal/notify"

	"github.com/rs/zerolog"
)

// ReminderSource yields the bookings a reminder run looks at.
type ReminderSource interface {
	GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error)
}

// NotificationService stores in-app notifications, renders booking templates
// and hands push delivery to the outbox.
type NotificationService struct {
	repo     domain.NotificationRepository
	lookup   domain.SpaceLookup
	bookings ReminderSource
	outbox   domain.OutboxEnqueuer
	logger   zerolog.Logger
}

func NewNotificationService(repo domain.NotificationRepository, lookup domain.SpaceLookup, bookings ReminderSource, logger *zerolog.Logger) *NotificationService {
	return &NotificationService{
		repo:     repo,
		lookup:   lookup,
		bookings: bookings,
		logger:   logging.Component(logger, "notifications"),
	}
}

// EnablePush routes new notifications of users with a Telegram chat through
// the outbox.
func (s *NotificationService) EnablePush(outbox domain.OutboxEnqueuer) {
	s.outbox = outbox
}

func (s *NotificationService) Create(ctx context.Context, n *models.Notification) error {
	switch {
	case n.UserID <= 0:
		return invalidf("user id is required")
	case !models.IsValidNotificationType(n.Type):
		return invalidf("unknown notification type %q", n.Type)
	case n.Title == "" || n.Message == "":
		return invalidf("title and message are required")
	}
	if err := s.repo.CreateNotification(ctx, n); err != nil {
		return err
	}
	s.push(ctx, n)
	return nil
}

func (s *NotificationService) Get(ctx context.Context, id int64) (*models.Notification, error) {
	return s.repo.GetNotification(ctx, id)
}

func (s *NotificationService) GetUserNotifications(ctx context.Context, userID int64) ([]*models.Notification, error) {
	return s.repo.GetUserNotifications(ctx, userID)
}

func (s *NotificationService) GetUnread(ctx context.Context, userID int64) ([]*models.Notification, error) {
	return s.repo.GetUnreadNotifications(ctx, userID)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, id int64) error {
	return s.repo.MarkNotificationRead(ctx, id)
}

// MarkAllAsRead returns how many notifications changed.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID int64) (int64, error) {
	return s.repo.MarkAllNotificationsRead(ctx, userID)
}

func (s *NotificationService) Delete(ctx context.Context, id int64) error {
	return s.repo.DeleteNotification(ctx, id)
}

func (s *NotificationService) NotifyBookingConfirmed(ctx context.Context, b *models.Booking) error {
	d, err := s.details(ctx, b.SpaceID)
	if err != nil {
		return err
	}
	return s.createForBooking(ctx, b, models.NotificationBookingConfirmation, "Booking Confirmed!",
		fmt.Sprintf("Your booking for %s at %s on %s from %s to %s has been confirmed.",
			d.space, d.facility, b.Date(), clock(b.StartTime), clock(b.EndTime)))
}

func (s *NotificationService) NotifyBookingCancelled(ctx context.Context, b *models.Booking) error {
	d, err := s.details(ctx, b.SpaceID)
	if err != nil {
		return err
	}
	return s.createForBooking(ctx, b, models.NotificationBookingCancellation, "Booking Cancelled",
		fmt.Sprintf("Your booking for %s at %s on %s from %s to %s has been cancelled.",
			d.space, d.facility, b.Date(), clock(b.StartTime), clock(b.EndTime)))
}

func (s *NotificationService) NotifyPaymentReceived(ctx context.Context, b *models.Booking) error {
	d, err := s.details(ctx, b.SpaceID)
	if err != nil {
		return err
	}
	return s.createForBooking(ctx, b, models.NotificationPaymentReceipt, "Payment Received",
		fmt.Sprintf("We received your payment for the booking of %s on %s. Payment status: %s.",
			d.space, b.Date(), b.PaymentStatus))
}

func (s *NotificationService) NotifyBookingReminder(ctx context.Context, b *models.Booking) error {
	d, err := s.details(ctx, b.SpaceID)
	if err != nil {
		return err
	}
	return s.createForBooking(ctx, b, models.NotificationBookingReminder, "Booking Reminder",
		fmt.Sprintf("Reminder: You have a booking for %s at %s tomorrow (%s) at %s.",
			d.space, d.facility, b.Date(), clock(b.StartTime)))
}

func (s *NotificationService) NotifyWaitlistAvailable(ctx context.Context, e *models.WaitlistEntry) error {
	d, err := s.details(ctx, e.SpaceID)
	if err != nil {
		return err
	}
	return s.Create(ctx, &models.Notification{
		UserID: e.UserID,
		Type:   models.NotificationWaitlistAvailable,
		Title:  "Space Available!",
		Message: fmt.Sprintf("Good news! %s at %s is now available for %s from %s to %s. Book quickly before it's gone!",
			d.space, d.facility, e.RequestedDate, e.RequestedStartTime, e.RequestedEndTime),
	})
}

// SendBookingReminders creates reminders for confirmed bookings on day and
// returns how many were created.
func (s *NotificationService) SendBookingReminders(ctx context.Context, day time.Time) (int, error) {
	if s.bookings == nil {
		return 0, nil
	}
	list, err := s.bookings.GetBookingsByDateRange(ctx, day, day)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, b := range list {
		if b.Status != models.StatusConfirmed {
			continue
		}
		if err := s.NotifyBookingReminder(ctx, b); err != nil {
			s.logger.Error().Err(err).Int64("booking_id", b.ID).Msg("reminder failed")
			continue
		}
		sent++
	}
	return sent, nil
}

func (s *NotificationService) createForBooking(ctx context.Context, b *models.Booking, typ, title, message string) error {
	id := b.ID
	return s.Create(ctx, &models.Notification{
		UserID:    b.UserID,
		Type:      typ,
		Title:     title,
		Message:   message,
		BookingID: &id,
	})
}

type placeDetails struct {
	space    string
	facility string
}

func (s *NotificationService) details(ctx context.Context, spaceID int64) (placeDetails, error) {
	space, err := s.lookup.GetSpace(ctx, spaceID)
	if err != nil {
		return placeDetails{}, fmt.Errorf("failed to load space %d: %w", spaceID, err)
	}
	d := placeDetails{space: space.Name}
	facility, err := s.lookup.GetFacility(ctx, space.FacilityID)
	if err != nil {
		return placeDetails{}, fmt.Errorf("failed to load facility %d: %w", space.FacilityID, err)
	}
	d.facility = facility.Name
	return d, nil
}

// push enqueues a Telegram delivery when the user linked a chat.
func (s *NotificationService) push(ctx context.Context, n *models.Notification) {
	if s.outbox == nil {
		return
	}
	user, err := s.lookup.GetUserByID(ctx, n.UserID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("user_id", n.UserID).Msg("push skipped, user lookup failed")
		return
	}
	if user.TelegramChatID == 0 {
		return
	}

	var bookingID int64
	if n.BookingID != nil {
		bookingID = *n.BookingID
	}
	payload := models.TelegramPayload{
		NotificationID: n.ID,
		ChatID:         user.TelegramChatID,
		Text:           notify.FormatNotification(n),
	}
	if err := s.outbox.EnqueueTask(ctx, models.TaskTelegramPush, bookingID, payload); err != nil {
		s.logger.Error().Err(err).Int64("notification_id", n.ID).Msg("push enqueue failed")
	}
}

func clock(t time.Time) string {
	return t.Format(models.ClockLayout)
}
