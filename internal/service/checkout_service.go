package service

import (
	"context"
	"time"

	"spacehub/internal/database"
	"spacehub/internal/domain"
	"spacehub/internal/logging"
	"spacehub/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DraftRequest describes the slot a user is about to book.
type DraftRequest struct {
	UserID       int64  `json:"userId"`
	SpaceID      int64  `json:"spaceId"`
	Date         string `json:"date"`
	StartTime    string `json:"startTime"`
	EndTime      string `json:"endTime"`
	Participants int    `json:"participants"`
	PromoCode    string `json:"promoCode,omitempty"`
}

// DraftResult holds the stored draft, or the rejection that prevented it.
type DraftResult struct {
	Draft        *models.CheckoutDraft      `json:"draft,omitempty"`
	Availability *models.AvailabilityResult `json:"availability,omitempty"`
	Promo        *models.PromoValidation    `json:"promo,omitempty"`
}

// CheckoutService keeps quoted bookings as short-lived drafts until the user
// confirms them.
type CheckoutService struct {
	drafts       domain.DraftRepository
	availability *AvailabilityService
	pricing      *PricingService
	promos       *PromoService
	bookings     *BookingService
	ttl          time.Duration
	now          func() time.Time
	logger       zerolog.Logger
}

func NewCheckoutService(
	drafts domain.DraftRepository,
	availability *AvailabilityService,
	pricing *PricingService,
	promos *PromoService,
	bookings *BookingService,
	ttl time.Duration,
	logger *zerolog.Logger,
) *CheckoutService {
	if ttl <= 0 {
		ttl = models.DefaultDraftTTL
	}
	return &CheckoutService{
		drafts:       drafts,
		availability: availability,
		pricing:      pricing,
		promos:       promos,
		bookings:     bookings,
		ttl:          ttl,
		now:          time.Now,
		logger:       logging.Component(logger, "checkout"),
	}
}

// CreateDraft checks the slot, quotes it and applies the promo code. Nothing
// is stored when the slot is taken or the promo is rejected.
func (s *CheckoutService) CreateDraft(ctx context.Context, req DraftRequest) (*DraftResult, error) {
	if req.UserID <= 0 || req.SpaceID <= 0 {
		return nil, invalidf("user and space are required")
	}
	if req.Participants <= 0 {
		return nil, invalidf("participants must be positive")
	}

	avail, err := s.availability.CheckAvailability(ctx, req.SpaceID, req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	if !avail.IsAvailable {
		return &DraftResult{Availability: avail}, nil
	}

	start, _ := models.CombineDateClock(req.Date, req.StartTime)
	end, _ := models.CombineDateClock(req.Date, req.EndTime)
	quote, err := s.pricing.Quote(ctx, req.SpaceID, start, end)
	if err != nil {
		return nil, err
	}
	if quote.Error != "" {
		return nil, invalidf("%s", quote.Error)
	}

	now := s.now()
	draft := &models.CheckoutDraft{
		ID:           uuid.NewString(),
		UserID:       req.UserID,
		SpaceID:      req.SpaceID,
		Date:         req.Date,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Participants: req.Participants,
		Quote:        *quote,
		AmountDue:    quote.TotalPrice,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.ttl),
	}

	result := &DraftResult{Availability: avail}
	if req.PromoCode != "" {
		v, err := s.promos.ValidatePromoCode(ctx, req.PromoCode, req.UserID, quote.TotalPrice)
		if err != nil {
			return nil, err
		}
		result.Promo = v
		if !v.Valid {
			return result, nil
		}
		draft.PromoCode = v.PromoCode.Code
		draft.DiscountAmount = v.DiscountAmount
		draft.AmountDue = quote.TotalPrice - v.DiscountAmount
	}

	if err := s.drafts.SaveDraft(ctx, draft, s.ttl); err != nil {
		return nil, err
	}
	s.logger.Debug().Str("draft_id", draft.ID).Int64("space_id", draft.SpaceID).Msg("draft saved")
	result.Draft = draft
	return result, nil
}

// GetDraft returns database.ErrNotFound for unknown or expired drafts.
func (s *CheckoutService) GetDraft(ctx context.Context, id string) (*models.CheckoutDraft, error) {
	draft, err := s.drafts.GetDraft(ctx, id)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, database.ErrNotFound
	}
	return draft, nil
}

func (s *CheckoutService) DiscardDraft(ctx context.Context, id string) error {
	return s.drafts.DeleteDraft(ctx, id)
}

// ConfirmDraft books the drafted slot at the quoted price and clears the draft
// once the booking exists.
func (s *CheckoutService) ConfirmDraft(ctx context.Context, id string) (*CreateBookingResult, error) {
	draft, err := s.GetDraft(ctx, id)
	if err != nil {
		return nil, err
	}

	total := draft.Quote.TotalPrice
	deposit := draft.Quote.DepositAmount
	res, err := s.bookings.Create(ctx, CreateBookingRequest{
		UserID:        draft.UserID,
		SpaceID:       draft.SpaceID,
		StartTime:     draft.Date + "T" + draft.StartTime,
		EndTime:       draft.Date + "T" + draft.EndTime,
		Participants:  draft.Participants,
		TotalPrice:    &total,
		DepositAmount: &deposit,
		PromoCode:     draft.PromoCode,
	})
	if err != nil {
		return nil, err
	}
	if res.Created() {
		if err := s.drafts.DeleteDraft(ctx, id); err != nil {
			s.logger.Warn().Err(err).Str("draft_id", id).Msg("draft cleanup failed")
		}
	}
	return res, nil
}
