package service

import (
	"context"

	"spacehub/internal/domain"
	"spacehub/internal/logging"
	"spacehub/internal/models"

	"github.com/rs/zerolog"
)

type WaitlistService struct {
	repo          domain.WaitlistRepository
	lookup        domain.SpaceLookup
	notifications *NotificationService
	logger        zerolog.Logger
}

func NewWaitlistService(repo domain.WaitlistRepository, lookup domain.SpaceLookup, notifications *NotificationService, logger *zerolog.Logger) *WaitlistService {
	return &WaitlistService{
		repo:          repo,
		lookup:        lookup,
		notifications: notifications,
		logger:        logging.Component(logger, "waitlist"),
	}
}

// AddToWaitlist queues the user for a slot. The facility is taken from the space.
func (s *WaitlistService) AddToWaitlist(ctx context.Context, e *models.WaitlistEntry) error {
	if e.UserID <= 0 || e.SpaceID <= 0 {
		return invalidf("user and space are required")
	}
	if e.Participants <= 0 {
		e.Participants = 1
	}
	start, err := models.CombineDateClock(e.RequestedDate, e.RequestedStartTime)
	if err != nil {
		return invalidf("%v", err)
	}
	end, err := models.CombineDateClock(e.RequestedDate, e.RequestedEndTime)
	if err != nil {
		return invalidf("%v", err)
	}
	if !end.After(start) {
		return invalidf("end time must be after start time")
	}

	space, err := s.lookup.GetSpace(ctx, e.SpaceID)
	if err != nil {
		return err
	}
	e.FacilityID = space.FacilityID
	e.Status = models.WaitlistWaiting
	return s.repo.CreateWaitlistEntry(ctx, e)
}

func (s *WaitlistService) Get(ctx context.Context, id int64) (*models.WaitlistEntry, error) {
	return s.repo.GetWaitlistEntry(ctx, id)
}

func (s *WaitlistService) GetByUser(ctx context.Context, userID int64) ([]*models.WaitlistEntry, error) {
	return s.repo.GetWaitlistByUser(ctx, userID)
}

// GetBySpace lists waiting entries first come first served.
func (s *WaitlistService) GetBySpace(ctx context.Context, spaceID int64) ([]*models.WaitlistEntry, error) {
	return s.repo.GetWaitingBySpace(ctx, spaceID)
}

func (s *WaitlistService) UpdateStatus(ctx context.Context, id int64, status string) error {
	if !models.IsValidWaitlistStatus(status) {
		return invalidf("unknown waitlist status %q", status)
	}
	return s.repo.UpdateWaitlistStatus(ctx, id, status)
}

func (s *WaitlistService) Remove(ctx context.Context, id int64) error {
	return s.repo.DeleteWaitlistEntry(ctx, id)
}

// NotifyWaitlist marks every entry waiting for exactly this slot as notified
// and tells its user. Returns the number of entries notified.
func (s *WaitlistService) NotifyWaitlist(ctx context.Context, spaceID int64, date, start, end string) (int, error) {
	entries, err := s.repo.GetWaitingForSlot(ctx, spaceID, date, start, end)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, e := range entries {
		if err := s.repo.UpdateWaitlistStatus(ctx, e.ID, models.WaitlistNotified); err != nil {
			s.logger.Error().Err(err).Int64("entry_id", e.ID).Msg("waitlist status update failed")
			continue
		}
		count++
		if s.notifications == nil {
			continue
		}
		if err := s.notifications.NotifyWaitlistAvailable(ctx, e); err != nil {
			s.logger.Error().Err(err).Int64("entry_id", e.ID).Msg("waitlist notification failed")
		}
	}
	if count > 0 {
		s.logger.Info().Int64("space_id", spaceID).Str("date", date).Int("notified", count).Msg("waitlist notified")
	}
	return count, nil
}
