package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"spacehub/internal/database"
	"spacehub/internal/domain"
	"spacehub/internal/events"
	"spacehub/internal/logging"
	"spacehub/internal/metrics"
	"spacehub/internal/models"
	"spacehub/internal/rules"

	"github.com/rs/zerolog"
)

// CreateBookingRequest is the input of BookingService.Create. Times are
// venue-local ISO timestamps. Price fields override the quote when set.
type CreateBookingRequest struct {
	UserID           int64    `json:"userId"`
	SpaceID          int64    `json:"spaceId"`
	StartTime        string   `json:"startTime"`
	EndTime          string   `json:"endTime"`
	Participants     int      `json:"participants"`
	TotalPrice       *float64 `json:"totalPrice,omitempty"`
	DepositAmount    *float64 `json:"depositAmount,omitempty"`
	PromoCode        string   `json:"promoCode,omitempty"`
	SpecialRequests  string   `json:"specialRequests,omitempty"`
	IsRecurring      bool     `json:"isRecurring,omitempty"`
	RecurringPattern string   `json:"recurringPattern,omitempty"`
	Occurrences      int      `json:"occurrences,omitempty"`
}

// SkippedOccurrence is a recurring occurrence that could not be booked.
type SkippedOccurrence struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Reason    string `json:"reason"`
}

// CreateBookingResult carries either the stored booking or the availability
// rejection. Recurring creates also list child bookings and skipped dates.
type CreateBookingResult struct {
	Booking      *models.Booking            `json:"booking,omitempty"`
	Availability *models.AvailabilityResult `json:"availability,omitempty"`
	Promo        *models.PromoValidation    `json:"promo,omitempty"`
	Occurrences  []*models.Booking          `json:"occurrences,omitempty"`
	Skipped      []SkippedOccurrence        `json:"skipped,omitempty"`
}

// Created reports whether the booking was stored.
func (r *CreateBookingResult) Created() bool {
	return r != nil && r.Booking != nil
}

type BookingService struct {
	repo           domain.BookingRepository
	catalog        domain.SpaceLookup
	pricing        *PricingService
	promos         *PromoService
	maxAdvanceDays int
	now            func() time.Time
	logger         zerolog.Logger

	eventBus      domain.EventPublisher
	outbox        domain.OutboxEnqueuer
	sheetsSync    bool
	notifications *NotificationService
	waitlist      *WaitlistService
	availability  *AvailabilityService
}

func NewBookingService(
	repo domain.BookingRepository,
	catalog domain.SpaceLookup,
	pricing *PricingService,
	promos *PromoService,
	maxAdvanceDays int,
	logger *zerolog.Logger,
) *BookingService {
	if maxAdvanceDays <= 0 {
		maxAdvanceDays = models.DefaultMaxAdvanceDays
	}
	return &BookingService{
		repo:           repo,
		catalog:        catalog,
		pricing:        pricing,
		promos:         promos,
		maxAdvanceDays: maxAdvanceDays,
		now:            venueNow,
		logger:         logging.Component(logger, "bookings"),
	}
}

// WithEvents publishes lifecycle events on the bus.
func (s *BookingService) WithEvents(bus domain.EventPublisher) *BookingService {
	s.eventBus = bus
	return s
}

// WithOutbox enables the Google Sheets mirror through the outbox.
func (s *BookingService) WithOutbox(outbox domain.OutboxEnqueuer) *BookingService {
	s.outbox = outbox
	s.sheetsSync = outbox != nil
	return s
}

// WithNotifications creates user notifications on status changes.
func (s *BookingService) WithNotifications(n *NotificationService) *BookingService {
	s.notifications = n
	return s
}

// WithWaitlist notifies waiting users when a booking is cancelled.
func (s *BookingService) WithWaitlist(w *WaitlistService) *BookingService {
	s.waitlist = w
	return s
}

// WithSlotCache drops cached slots when bookings change.
func (s *BookingService) WithSlotCache(a *AvailabilityService) *BookingService {
	s.availability = a
	return s
}

// venueNow returns the current wall clock as a venue-local naive timestamp.
func venueNow() time.Time {
	t := time.Now()
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

// ValidateBookingDate rejects starts in the past or beyond the booking horizon.
func (s *BookingService) ValidateBookingDate(start time.Time) error {
	now := s.now()
	if start.Before(now) {
		return database.ErrPastDate
	}
	if start.After(now.AddDate(0, 0, s.maxAdvanceDays)) {
		return database.ErrDateTooFar
	}
	return nil
}

// Create validates, prices and stores a booking. An unavailable slot is not an
// error: the result carries the availability rejection instead.
func (s *BookingService) Create(ctx context.Context, req CreateBookingRequest) (*CreateBookingResult, error) {
	start, end, err := parseInterval(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	if !rules.SameDay(start, end) {
		return nil, invalidf("booking must start and end on the same day")
	}
	if req.UserID <= 0 || req.SpaceID <= 0 {
		return nil, invalidf("user and space are required")
	}
	if req.Participants <= 0 {
		return nil, invalidf("participants must be positive")
	}
	if req.IsRecurring {
		if err := validateRecurrence(req.RecurringPattern, req.Occurrences); err != nil {
			return nil, err
		}
	}

	space, err := s.catalog.GetSpace(ctx, req.SpaceID)
	if err != nil {
		return nil, err
	}
	if !space.IsActive {
		return nil, invalidf("space %d is not active", space.ID)
	}
	if space.Capacity > 0 && req.Participants > space.Capacity {
		return nil, database.ErrCapacityExceeded
	}
	if err := s.ValidateBookingDate(start); err != nil {
		return nil, err
	}

	booking, err := s.prepare(ctx, req, space, start, end)
	if err != nil {
		return nil, err
	}

	result := &CreateBookingResult{}
	var redemption *models.PromoRedemption
	if req.PromoCode != "" {
		v, err := s.promos.ValidatePromoCode(ctx, req.PromoCode, req.UserID, booking.TotalPrice)
		if err != nil {
			return nil, err
		}
		if !v.Valid {
			return nil, invalidf("promo code rejected: %s", v.Error)
		}
		result.Promo = v
		booking.DiscountAmount = v.DiscountAmount
		booking.PromoCodeID = &v.PromoCode.ID
		redemption = &models.PromoRedemption{
			PromoCodeID:    v.PromoCode.ID,
			UserID:         req.UserID,
			DiscountAmount: v.DiscountAmount,
		}
	}

	availability, err := s.repo.CreateBookingWithLock(ctx, booking, redemption)
	if err != nil {
		metrics.ObserveBooking("create", "error")
		return nil, err
	}
	if !availability.IsAvailable {
		metrics.ObserveBooking("create", "unavailable")
		result.Availability = availability
		return result, nil
	}
	metrics.ObserveBooking("create", "created")
	result.Booking = booking

	s.logger.Info().Int64("booking_id", booking.ID).Int64("space_id", booking.SpaceID).
		Time("start", booking.StartTime).Msg("booking created")
	s.afterCreate(ctx, booking)

	if req.IsRecurring {
		s.createOccurrences(ctx, req, space, booking, result)
	}
	return result, nil
}

// prepare builds the pending booking with its price.
func (s *BookingService) prepare(ctx context.Context, req CreateBookingRequest, space *models.Space, start, end time.Time) (*models.Booking, error) {
	rule, err := s.pricing.ActiveRule(ctx, space.ID)
	if err != nil {
		return nil, err
	}
	hours := end.Sub(start).Hours()
	if !rules.DurationWithinBounds(rule, hours) {
		return nil, invalidf("booking duration %.2fh is outside the allowed range", hours)
	}

	b := &models.Booking{
		UserID:          req.UserID,
		SpaceID:         space.ID,
		FacilityID:      space.FacilityID,
		StartTime:       start,
		EndTime:         end,
		Duration:        hours,
		Participants:    req.Participants,
		Status:          models.StatusPending,
		PaymentStatus:   models.PaymentPending,
		SpecialRequests: req.SpecialRequests,
	}
	if req.IsRecurring {
		b.IsRecurring = true
		b.RecurringPattern = req.RecurringPattern
	}

	if req.TotalPrice != nil {
		if *req.TotalPrice < 0 {
			return nil, invalidf("total price must not be negative")
		}
		b.TotalPrice = *req.TotalPrice
		switch {
		case req.DepositAmount != nil:
			b.DepositAmount = *req.DepositAmount
		case rule != nil:
			b.DepositAmount = b.TotalPrice * rule.DepositPercentage / 100
		}
		return b, nil
	}

	quote := rules.CalculatePrice(rule, start, end)
	if quote.Error != "" {
		return nil, invalidf("%s", quote.Error)
	}
	b.TotalPrice = quote.TotalPrice
	b.DepositAmount = quote.DepositAmount
	if req.DepositAmount != nil {
		b.DepositAmount = *req.DepositAmount
	}
	return b, nil
}

func validateRecurrence(pattern string, occurrences int) error {
	if pattern != models.RecurringWeekly && pattern != models.RecurringMonthly {
		return invalidf("recurring pattern must be weekly or monthly")
	}
	if occurrences < 2 || occurrences > models.MaxRecurringOccurrences {
		return invalidf("occurrences must be between 2 and %d", models.MaxRecurringOccurrences)
	}
	return nil
}

// occurrenceShift returns the start of occurrence i (0 is the parent).
func occurrenceShift(t time.Time, pattern string, i int) time.Time {
	if pattern == models.RecurringMonthly {
		return t.AddDate(0, i, 0)
	}
	return t.AddDate(0, 0, 7*i)
}

func (s *BookingService) createOccurrences(ctx context.Context, req CreateBookingRequest, space *models.Space, parent *models.Booking, result *CreateBookingResult) {
	length := parent.EndTime.Sub(parent.StartTime)
	for i := 1; i < req.Occurrences; i++ {
		start := occurrenceShift(parent.StartTime, req.RecurringPattern, i)
		end := start.Add(length)
		skip := func(reason string) {
			result.Skipped = append(result.Skipped, SkippedOccurrence{
				StartTime: start.Format(models.DateTimeLayout),
				EndTime:   end.Format(models.DateTimeLayout),
				Reason:    reason,
			})
		}

		if err := s.ValidateBookingDate(start); err != nil {
			skip(err.Error())
			continue
		}
		child, err := s.prepare(ctx, req, space, start, end)
		if err != nil {
			skip(err.Error())
			continue
		}
		child.ParentBookingID = &parent.ID

		availability, err := s.repo.CreateBookingWithLock(ctx, child, nil)
		if err != nil {
			metrics.ObserveBooking("create", "error")
			s.logger.Error().Err(err).Int64("parent_id", parent.ID).Time("start", start).Msg("occurrence insert failed")
			skip(err.Error())
			continue
		}
		if !availability.IsAvailable {
			metrics.ObserveBooking("create", "unavailable")
			skip(unavailableReason(availability))
			continue
		}
		metrics.ObserveBooking("create", "created")
		result.Occurrences = append(result.Occurrences, child)
		s.afterCreate(ctx, child)
	}
}

func unavailableReason(a *models.AvailabilityResult) string {
	if a.Reason != "" {
		return a.Reason
	}
	return "conflicts with an existing booking"
}

func (s *BookingService) afterCreate(ctx context.Context, b *models.Booking) {
	s.invalidateSlots(ctx, b)
	s.publishEvent(ctx, events.EventBookingCreated, b, "user")
	s.enqueueUpsert(ctx, b)
}

func (s *BookingService) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	return s.repo.GetBooking(ctx, id)
}

// List returns bookings newest first. Zero filter fields are ignored.
func (s *BookingService) List(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error) {
	return s.repo.ListBookings(ctx, filter)
}

func (s *BookingService) ListByUser(ctx context.Context, userID int64) ([]*models.Booking, error) {
	return s.repo.ListBookings(ctx, models.BookingFilter{UserID: userID})
}

func (s *BookingService) ListBySpace(ctx context.Context, spaceID int64) ([]*models.Booking, error) {
	return s.repo.ListBookings(ctx, models.BookingFilter{SpaceID: spaceID})
}

func (s *BookingService) ListByFacility(ctx context.Context, facilityID int64) ([]*models.Booking, error) {
	return s.repo.ListBookings(ctx, models.BookingFilter{FacilityID: facilityID})
}

func (s *BookingService) GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error) {
	return s.repo.GetBookingsByDateRange(ctx, start, end)
}

// UpdateStatus moves a booking along the status table.
func (s *BookingService) UpdateStatus(ctx context.Context, id int64, status, changedBy string) (*models.Booking, error) {
	if !models.IsValidStatus(status) {
		return nil, invalidf("unknown booking status %q", status)
	}
	current, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(current.Status, status) {
		metrics.ObserveBooking("status", "rejected")
		return nil, fmt.Errorf("%w: %s -> %s", database.ErrInvalidTransition, current.Status, status)
	}
	if err := s.repo.UpdateBookingStatusWithVersion(ctx, id, current.Version, status); err != nil {
		metrics.ObserveBooking("status", "error")
		return nil, err
	}
	metrics.ObserveBooking("status", status)

	updated, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("booking_id", id).Str("from", current.Status).Str("to", status).Msg("booking status changed")
	s.afterStatusChange(ctx, updated, changedBy)
	return updated, nil
}

// Cancel is UpdateStatus to cancelled.
func (s *BookingService) Cancel(ctx context.Context, id int64, changedBy string) (*models.Booking, error) {
	return s.UpdateStatus(ctx, id, models.StatusCancelled, changedBy)
}

// UpdatePaymentStatus moves the payment along the payment table.
func (s *BookingService) UpdatePaymentStatus(ctx context.Context, id int64, paymentStatus, changedBy string) (*models.Booking, error) {
	if !models.IsValidPaymentStatus(paymentStatus) {
		return nil, invalidf("unknown payment status %q", paymentStatus)
	}
	current, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if !models.CanTransitionPayment(current.PaymentStatus, paymentStatus) {
		metrics.ObserveBooking("payment", "rejected")
		return nil, fmt.Errorf("%w: payment %s -> %s", database.ErrInvalidTransition, current.PaymentStatus, paymentStatus)
	}
	if err := s.repo.UpdatePaymentStatusWithVersion(ctx, id, current.Version, paymentStatus); err != nil {
		metrics.ObserveBooking("payment", "error")
		return nil, err
	}
	metrics.ObserveBooking("payment", paymentStatus)

	updated, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.EventBookingPaymentUpdated, updated, changedBy)
	s.enqueueUpsert(ctx, updated)
	if paymentStatus == models.PaymentPaid || paymentStatus == models.PaymentPartiallyPaid {
		s.notify(ctx, updated, s.notificationsPayment)
	}
	return updated, nil
}

// BookingUpdate carries the editable booking details.
type BookingUpdate struct {
	Participants    *int    `json:"participants,omitempty"`
	SpecialRequests *string `json:"specialRequests,omitempty"`
}

// Update changes participants or special requests of a non-terminal booking.
func (s *BookingService) Update(ctx context.Context, id int64, upd BookingUpdate) (*models.Booking, error) {
	current, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if models.IsTerminal(current.Status) {
		return nil, fmt.Errorf("%w: booking is %s", database.ErrInvalidTransition, current.Status)
	}

	participants := current.Participants
	if upd.Participants != nil {
		participants = *upd.Participants
	}
	requests := current.SpecialRequests
	if upd.SpecialRequests != nil {
		requests = *upd.SpecialRequests
	}
	if participants <= 0 {
		return nil, invalidf("participants must be positive")
	}
	if participants != current.Participants {
		space, err := s.catalog.GetSpace(ctx, current.SpaceID)
		if err != nil {
			return nil, err
		}
		if space.Capacity > 0 && participants > space.Capacity {
			return nil, database.ErrCapacityExceeded
		}
	}

	if err := s.repo.UpdateBookingDetailsWithVersion(ctx, id, current.Version, participants, requests); err != nil {
		return nil, err
	}
	updated, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.EventBookingUpdated, updated, "user")
	s.enqueueUpsert(ctx, updated)
	return updated, nil
}

// CompleteFinishedBookings marks confirmed bookings that ended before now as
// completed and returns how many changed.
func (s *BookingService) CompleteFinishedBookings(ctx context.Context, now time.Time) (int, error) {
	list, err := s.repo.GetBookingsEndedBefore(ctx, models.StatusConfirmed, now)
	if err != nil {
		return 0, err
	}
	done := 0
	for _, b := range list {
		_, err := s.UpdateStatus(ctx, b.ID, models.StatusCompleted, "system")
		if err != nil {
			// бронь могли изменить параллельно
			if errors.Is(err, database.ErrConcurrentModification) || errors.Is(err, database.ErrInvalidTransition) {
				continue
			}
			return done, err
		}
		done++
	}
	return done, nil
}

func (s *BookingService) afterStatusChange(ctx context.Context, b *models.Booking, changedBy string) {
	switch b.Status {
	case models.StatusConfirmed:
		s.publishEvent(ctx, events.EventBookingConfirmed, b, changedBy)
		s.notify(ctx, b, s.notificationsConfirmed)
	case models.StatusCancelled:
		s.publishEvent(ctx, events.EventBookingCancelled, b, changedBy)
		s.invalidateSlots(ctx, b)
		s.notify(ctx, b, s.notificationsCancelled)
		s.notifyWaitlist(ctx, b)
	case models.StatusCompleted:
		s.publishEvent(ctx, events.EventBookingCompleted, b, changedBy)
	case models.StatusNoShow:
		s.publishEvent(ctx, events.EventBookingNoShow, b, changedBy)
	}
	s.enqueueStatus(ctx, b)
}

func (s *BookingService) notificationsConfirmed(ctx context.Context, b *models.Booking) error {
	return s.notifications.NotifyBookingConfirmed(ctx, b)
}

func (s *BookingService) notificationsCancelled(ctx context.Context, b *models.Booking) error {
	return s.notifications.NotifyBookingCancelled(ctx, b)
}

func (s *BookingService) notificationsPayment(ctx context.Context, b *models.Booking) error {
	return s.notifications.NotifyPaymentReceived(ctx, b)
}

func (s *BookingService) notify(ctx context.Context, b *models.Booking, send func(context.Context, *models.Booking) error) {
	if s.notifications == nil {
		return
	}
	if err := send(ctx, b); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", b.ID).Msg("notification failed")
	}
}

func (s *BookingService) notifyWaitlist(ctx context.Context, b *models.Booking) {
	if s.waitlist == nil {
		return
	}
	if _, err := s.waitlist.NotifyWaitlist(ctx, b.SpaceID, b.Date(), clock(b.StartTime), clock(b.EndTime)); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", b.ID).Msg("waitlist notify failed")
	}
}

func (s *BookingService) invalidateSlots(ctx context.Context, b *models.Booking) {
	if s.availability == nil {
		return
	}
	s.availability.InvalidateSlots(ctx, b.SpaceID, b.Date())
}

func (s *BookingService) publishEvent(ctx context.Context, eventType string, b *models.Booking, changedBy string) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		Event:         eventType,
		BookingID:     b.ID,
		UserID:        b.UserID,
		SpaceID:       b.SpaceID,
		FacilityID:    b.FacilityID,
		StartTime:     b.StartTime.Format(models.DateTimeLayout),
		EndTime:       b.EndTime.Format(models.DateTimeLayout),
		Status:        b.Status,
		PaymentStatus: b.PaymentStatus,
		TotalPrice:    b.TotalPrice,
		ChangedBy:     changedBy,
		OccurredAt:    time.Now().UTC(),
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", b.ID).Msg("publish event error")
	}
}

func (s *BookingService) enqueueUpsert(ctx context.Context, b *models.Booking) {
	if !s.sheetsSync {
		return
	}
	if err := s.outbox.EnqueueTask(ctx, models.TaskSheetsUpsert, b.ID, b); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", b.ID).Str("task", models.TaskSheetsUpsert).Msg("sheets enqueue error")
	}
}

func (s *BookingService) enqueueStatus(ctx context.Context, b *models.Booking) {
	if !s.sheetsSync {
		return
	}
	payload := models.SheetsStatusPayload{BookingID: b.ID, Status: b.Status}
	if err := s.outbox.EnqueueTask(ctx, models.TaskSheetsStatus, b.ID, payload); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", b.ID).Str("task", models.TaskSheetsStatus).Msg("sheets enqueue error")
	}
}

func parseInterval(startISO, endISO string) (time.Time, time.Time, error) {
	start, err := models.ParseDateTime(startISO)
	if err != nil {
		return time.Time{}, time.Time{}, invalidf("invalid start time %q", startISO)
	}
	end, err := models.ParseDateTime(endISO)
	if err != nil {
		return time.Time{}, time.Time{}, invalidf("invalid end time %q", endISO)
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, invalidf("end time must be after start time")
	}
	return start, end, nil
}
