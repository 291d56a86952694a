package service

import (
	"context"
	"time"

	"spacehub/internal/domain"
	"spacehub/internal/models"
	"spacehub/internal/rules"
)

// PricingService quotes bookings and manages pricing rules.
type PricingService struct {
	repo domain.PricingRepository
}

func NewPricingService(repo domain.PricingRepository) *PricingService {
	return &PricingService{repo: repo}
}

// CalculatePrice quotes an interval given as ISO timestamps. A space without an
// active rule yields a quote with Error set, not an error.
func (s *PricingService) CalculatePrice(ctx context.Context, spaceID int64, startISO, endISO string, participants int) (*models.PriceQuote, error) {
	start, end, err := parseInterval(startISO, endISO)
	if err != nil {
		return nil, err
	}
	if participants < 0 {
		return nil, invalidf("participants must not be negative")
	}
	return s.Quote(ctx, spaceID, start, end)
}

// Quote prices [start, end) with the first active rule of the space.
func (s *PricingService) Quote(ctx context.Context, spaceID int64, start, end time.Time) (*models.PriceQuote, error) {
	rule, err := s.ActiveRule(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	return rules.CalculatePrice(rule, start, end), nil
}

// ActiveRule returns the lowest-id active rule, or nil when there is none.
func (s *PricingService) ActiveRule(ctx context.Context, spaceID int64) (*models.PricingRule, error) {
	active, err := s.repo.GetActivePricingRules(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	return rules.FirstActiveRule(active), nil
}

func (s *PricingService) CreateRule(ctx context.Context, r *models.PricingRule) error {
	if err := validateRule(r); err != nil {
		return err
	}
	return s.repo.CreatePricingRule(ctx, r)
}

func (s *PricingService) GetRule(ctx context.Context, id int64) (*models.PricingRule, error) {
	return s.repo.GetPricingRule(ctx, id)
}

func (s *PricingService) GetRulesBySpace(ctx context.Context, spaceID int64) ([]*models.PricingRule, error) {
	return s.repo.GetPricingRulesBySpace(ctx, spaceID)
}

func (s *PricingService) ListRules(ctx context.Context) ([]*models.PricingRule, error) {
	return s.repo.ListPricingRules(ctx)
}

// PricingRuleUpdate carries the optional fields of a rule update.
type PricingRuleUpdate struct {
	Name               *string  `json:"name,omitempty"`
	BasePrice          *float64 `json:"basePrice,omitempty"`
	PeakPrice          *float64 `json:"peakPrice,omitempty"`
	OffPeakPrice       *float64 `json:"offPeakPrice,omitempty"`
	WeekendPrice       *float64 `json:"weekendPrice,omitempty"`
	HolidayPrice       *float64 `json:"holidayPrice,omitempty"`
	DepositPercentage  *float64 `json:"depositPercentage,omitempty"`
	MinBookingDuration *float64 `json:"minBookingDuration,omitempty"`
	MaxBookingDuration *float64 `json:"maxBookingDuration,omitempty"`
	IsActive           *bool    `json:"isActive,omitempty"`
}

func (s *PricingService) UpdateRule(ctx context.Context, id int64, upd PricingRuleUpdate) (*models.PricingRule, error) {
	r, err := s.repo.GetPricingRule(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		r.Name = *upd.Name
	}
	if upd.BasePrice != nil {
		r.BasePrice = *upd.BasePrice
	}
	if upd.PeakPrice != nil {
		r.PeakPrice = upd.PeakPrice
	}
	if upd.OffPeakPrice != nil {
		r.OffPeakPrice = upd.OffPeakPrice
	}
	if upd.WeekendPrice != nil {
		r.WeekendPrice = upd.WeekendPrice
	}
	if upd.HolidayPrice != nil {
		r.HolidayPrice = upd.HolidayPrice
	}
	if upd.DepositPercentage != nil {
		r.DepositPercentage = *upd.DepositPercentage
	}
	if upd.MinBookingDuration != nil {
		r.MinBookingDuration = *upd.MinBookingDuration
	}
	if upd.MaxBookingDuration != nil {
		r.MaxBookingDuration = upd.MaxBookingDuration
	}
	if upd.IsActive != nil {
		r.IsActive = *upd.IsActive
	}

	if err := validateRule(r); err != nil {
		return nil, err
	}
	if err := s.repo.UpdatePricingRule(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func validateRule(r *models.PricingRule) error {
	switch {
	case r.SpaceID == 0:
		return invalidf("space id is required")
	case r.Name == "":
		return invalidf("rule name is required")
	case r.BasePrice < 0:
		return invalidf("base price must not be negative")
	case r.DepositPercentage < 0 || r.DepositPercentage > 100:
		return invalidf("deposit percentage must be between 0 and 100")
	case r.MinBookingDuration < 0:
		return invalidf("min booking duration must not be negative")
	case r.MaxBookingDuration != nil && *r.MaxBookingDuration > 0 && *r.MaxBookingDuration < r.MinBookingDuration:
		return invalidf("max booking duration is below the minimum")
	}
	for _, p := range []*float64{r.PeakPrice, r.OffPeakPrice, r.WeekendPrice, r.HolidayPrice} {
		if p != nil && *p < 0 {
			return invalidf("prices must not be negative")
		}
	}
	return nil
}
