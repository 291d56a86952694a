package service

import (
	"context"
	"time"

	"spacehub/internal/domain"
	"spacehub/internal/logging"
	"spacehub/internal/metrics"
	"spacehub/internal/models"
	"spacehub/internal/rules"

	"github.com/rs/zerolog"
)

// AvailabilityService answers availability and slot questions for spaces and
// manages their weekly schedules and blackout dates.
type AvailabilityService struct {
	repo     domain.AvailabilityRepository
	cache    domain.SlotCache
	cacheTTL time.Duration
	logger   zerolog.Logger
}

func NewAvailabilityService(repo domain.AvailabilityRepository, cache domain.SlotCache, cacheTTL time.Duration, logger *zerolog.Logger) *AvailabilityService {
	if cacheTTL <= 0 {
		cacheTTL = models.DefaultSlotsCacheTTL
	}
	return &AvailabilityService{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logging.Component(logger, "availability"),
	}
}

// CheckAvailability reports whether [start, end) on date is bookable.
// Rejections come back in the result; errors mean bad input or storage faults.
func (s *AvailabilityService) CheckAvailability(ctx context.Context, spaceID int64, date, start, end string) (*models.AvailabilityResult, error) {
	req := rules.AvailabilityRequest{Date: date, StartTime: start, EndTime: end}
	from, to, err := validateRequest(req)
	if err != nil {
		return nil, err
	}

	schedules, err := s.repo.GetSchedulesBySpace(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	blackouts, err := s.repo.GetActiveBlackoutDates(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	bookings, err := s.repo.GetOverlappingBookings(ctx, spaceID, from, to)
	if err != nil {
		return nil, err
	}

	result, err := rules.CheckAvailability(req, schedules, blackouts, bookings)
	if err != nil {
		return nil, invalidf("%v", err)
	}
	metrics.ObserveAvailability(result.IsAvailable)
	return result, nil
}

// GetAvailableSlots lists whole-hour slots of the given length on date.
func (s *AvailabilityService) GetAvailableSlots(ctx context.Context, spaceID int64, date string, durationHours int) (*models.SlotsResult, error) {
	if durationHours <= 0 {
		return nil, invalidf("duration must be a positive number of hours")
	}
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return nil, invalidf("invalid date %q", date)
	}

	if slots, ok := s.cachedSlots(ctx, spaceID, date, durationHours); ok {
		return &models.SlotsResult{Slots: slots}, nil
	}

	schedules, err := s.repo.GetSchedulesBySpace(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	bookings, err := s.repo.GetSpaceBookingsOnDate(ctx, spaceID, date)
	if err != nil {
		return nil, err
	}

	slots, err := rules.AvailableSlots(date, durationHours, schedules, bookings)
	if err != nil {
		return nil, invalidf("%v", err)
	}

	if s.cache != nil {
		if err := s.cache.SetSlots(ctx, spaceID, date, durationHours, slots, s.cacheTTL); err != nil {
			s.logger.Warn().Err(err).Int64("space_id", spaceID).Str("date", date).Msg("slots cache write failed")
		}
	}
	return &models.SlotsResult{Slots: slots}, nil
}

func (s *AvailabilityService) cachedSlots(ctx context.Context, spaceID int64, date string, duration int) ([]models.Slot, bool) {
	if s.cache == nil {
		return nil, false
	}
	slots, hit, err := s.cache.GetSlots(ctx, spaceID, date, duration)
	if err != nil {
		// кэш недоступен, идём в БД
		s.logger.Warn().Err(err).Int64("space_id", spaceID).Str("date", date).Msg("slots cache read failed")
		return nil, false
	}
	metrics.ObserveSlotsCache(hit)
	return slots, hit
}

// InvalidateSlots drops cached slot listings for one date of a space.
func (s *AvailabilityService) InvalidateSlots(ctx context.Context, spaceID int64, date string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, spaceID, date); err != nil {
		s.logger.Warn().Err(err).Int64("space_id", spaceID).Str("date", date).Msg("slots cache invalidate failed")
	}
}

func (s *AvailabilityService) invalidateSpace(ctx context.Context, spaceID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateSpace(ctx, spaceID); err != nil {
		s.logger.Warn().Err(err).Int64("space_id", spaceID).Msg("slots cache invalidate failed")
	}
}

// ScheduleUpdate carries the optional fields of a schedule update.
type ScheduleUpdate struct {
	OpenTime    *string `json:"openTime,omitempty"`
	CloseTime   *string `json:"closeTime,omitempty"`
	IsAvailable *bool   `json:"isAvailable,omitempty"`
}

func (s *AvailabilityService) CreateSchedule(ctx context.Context, schedule *models.AvailabilitySchedule) error {
	if schedule.SpaceID == 0 {
		return invalidf("space id is required")
	}
	if schedule.DayOfWeek < 0 || schedule.DayOfWeek > 6 {
		return invalidf("day of week must be between 0 and 6")
	}
	if err := validateHours(schedule.OpenTime, schedule.CloseTime); err != nil {
		return err
	}
	if err := s.repo.CreateSchedule(ctx, schedule); err != nil {
		return err
	}
	s.invalidateSpace(ctx, schedule.SpaceID)
	return nil
}

func (s *AvailabilityService) GetSchedulesBySpace(ctx context.Context, spaceID int64) ([]*models.AvailabilitySchedule, error) {
	return s.repo.GetSchedulesBySpace(ctx, spaceID)
}

// UpdateSchedule applies the set fields of upd to the schedule.
func (s *AvailabilityService) UpdateSchedule(ctx context.Context, id int64, upd ScheduleUpdate) (*models.AvailabilitySchedule, error) {
	schedule, err := s.repo.GetSchedule(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.OpenTime != nil {
		schedule.OpenTime = *upd.OpenTime
	}
	if upd.CloseTime != nil {
		schedule.CloseTime = *upd.CloseTime
	}
	if upd.IsAvailable != nil {
		schedule.IsAvailable = *upd.IsAvailable
	}
	if err := validateHours(schedule.OpenTime, schedule.CloseTime); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateSchedule(ctx, schedule); err != nil {
		return nil, err
	}
	s.invalidateSpace(ctx, schedule.SpaceID)
	return schedule, nil
}

func (s *AvailabilityService) CreateBlackoutDate(ctx context.Context, b *models.BlackoutDate) error {
	if b.SpaceID == 0 {
		return invalidf("space id is required")
	}
	if _, err := time.Parse(models.DateLayout, b.StartDate); err != nil {
		return invalidf("invalid start date %q", b.StartDate)
	}
	if _, err := time.Parse(models.DateLayout, b.EndDate); err != nil {
		return invalidf("invalid end date %q", b.EndDate)
	}
	if b.EndDate < b.StartDate {
		return invalidf("end date must not be before start date")
	}
	if err := s.repo.CreateBlackoutDate(ctx, b); err != nil {
		return err
	}
	s.invalidateSpace(ctx, b.SpaceID)
	return nil
}

// GetBlackoutDates returns the active blackouts of a space.
func (s *AvailabilityService) GetBlackoutDates(ctx context.Context, spaceID int64) ([]*models.BlackoutDate, error) {
	return s.repo.GetActiveBlackoutDates(ctx, spaceID)
}

func (s *AvailabilityService) DeactivateBlackoutDate(ctx context.Context, spaceID, id int64) error {
	if err := s.repo.DeactivateBlackoutDate(ctx, id); err != nil {
		return err
	}
	s.invalidateSpace(ctx, spaceID)
	return nil
}

func validateRequest(req rules.AvailabilityRequest) (time.Time, time.Time, error) {
	if _, err := time.Parse(models.DateLayout, req.Date); err != nil {
		return time.Time{}, time.Time{}, invalidf("invalid date %q", req.Date)
	}
	from, to, err := req.Interval()
	if err != nil {
		return time.Time{}, time.Time{}, invalidf("invalid time range %s-%s", req.StartTime, req.EndTime)
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, invalidf("end time must be after start time")
	}
	return from, to, nil
}

func validateHours(open, closeAt string) error {
	o, err := time.Parse(models.ClockLayout, open)
	if err != nil {
		return invalidf("invalid open time %q", open)
	}
	c, err := time.Parse(models.ClockLayout, closeAt)
	if err != nil {
		return invalidf("invalid close time %q", closeAt)
	}
	if !c.After(o) {
		return invalidf("close time must be after open time")
	}
	return nil
}
