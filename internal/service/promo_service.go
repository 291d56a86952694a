package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"spacehub/internal/database"
	"spacehub/internal/domain"
	"spacehub/internal/logging"
	"spacehub/internal/metrics"
	"spacehub/internal/models"
	"spacehub/internal/rules"

	"github.com/rs/zerolog"
)

// ReasonPromoThrottled is returned when a user checks too many codes in the
// attempt window.
const ReasonPromoThrottled = "Too many promo code attempts"

type PromoService struct {
	repo          domain.PromoRepository
	limiter       domain.RateLimiter
	attemptLimit  int
	attemptWindow time.Duration
	now           func() time.Time
	logger        zerolog.Logger
}

func NewPromoService(repo domain.PromoRepository, limiter domain.RateLimiter, logger *zerolog.Logger) *PromoService {
	return &PromoService{
		repo:          repo,
		limiter:       limiter,
		attemptLimit:  models.PromoAttemptLimit,
		attemptWindow: models.PromoAttemptWindow,
		now:           time.Now,
		logger:        logging.Component(logger, "promo"),
	}
}

// WithAttemptLimit overrides how many validations a user may run per window.
func (s *PromoService) WithAttemptLimit(limit int, window time.Duration) *PromoService {
	if limit > 0 {
		s.attemptLimit = limit
	}
	if window > 0 {
		s.attemptWindow = window
	}
	return s
}

// ValidatePromoCode checks a code for a user and booking amount. Rejections
// are reported in the result.
func (s *PromoService) ValidatePromoCode(ctx context.Context, code string, userID int64, bookingAmount float64) (*models.PromoValidation, error) {
	switch {
	case userID <= 0:
		return nil, invalidf("user is required")
	case bookingAmount < 0:
		return nil, invalidf("booking amount must not be negative")
	}

	if !s.allowAttempt(ctx, userID) {
		metrics.ObservePromo(false)
		return &models.PromoValidation{Valid: false, Error: ReasonPromoThrottled}, nil
	}

	var promo *models.PromoCode
	if strings.TrimSpace(code) != "" {
		p, err := s.repo.GetActivePromoByCode(ctx, code)
		switch {
		case err == nil:
			promo = p
		case !errors.Is(err, database.ErrNotFound):
			return nil, err
		}
	}

	used := false
	if promo != nil {
		var err error
		used, err = s.repo.HasUserUsedPromo(ctx, promo.ID, userID)
		if err != nil {
			return nil, err
		}
	}

	result := rules.ValidatePromo(promo, used, bookingAmount, s.now())
	metrics.ObservePromo(result.Valid)
	return result, nil
}

// allowAttempt consumes one validation attempt. A broken limiter lets the
// request through.
func (s *PromoService) allowAttempt(ctx context.Context, userID int64) bool {
	if s.limiter == nil {
		return true
	}
	ok, err := s.limiter.CheckRateLimit(ctx, "promo:"+strconv.FormatInt(userID, 10), s.attemptLimit, s.attemptWindow)
	if err != nil {
		s.logger.Warn().Err(err).Int64("user_id", userID).Msg("promo rate limit check failed")
		return true
	}
	return ok
}

// UsePromoCode records one redemption of the code.
func (s *PromoService) UsePromoCode(ctx context.Context, promoID, userID, bookingID int64, discountAmount float64) error {
	switch {
	case promoID <= 0 || userID <= 0 || bookingID <= 0:
		return invalidf("promo code, user and booking ids are required")
	case discountAmount < 0:
		return invalidf("discount amount must not be negative")
	}
	if err := s.repo.RedeemPromoCode(ctx, promoID, userID, bookingID, discountAmount); err != nil {
		return err
	}
	s.logger.Info().Int64("promo_id", promoID).Int64("booking_id", bookingID).Msg("promo code redeemed")
	return nil
}

func (s *PromoService) CreatePromoCode(ctx context.Context, p *models.PromoCode) error {
	p.Code = strings.ToUpper(strings.TrimSpace(p.Code))
	if err := validatePromo(p); err != nil {
		return err
	}
	return s.repo.CreatePromoCode(ctx, p)
}

func (s *PromoService) GetPromoCode(ctx context.Context, id int64) (*models.PromoCode, error) {
	return s.repo.GetPromoCode(ctx, id)
}

func (s *PromoService) ListPromoCodes(ctx context.Context) ([]*models.PromoCode, error) {
	return s.repo.ListPromoCodes(ctx)
}

func (s *PromoService) DeletePromoCode(ctx context.Context, id int64) error {
	return s.repo.DeletePromoCode(ctx, id)
}

// PromoCodeUpdate carries the optional fields of a promo code update.
type PromoCodeUpdate struct {
	Code          *string  `json:"code,omitempty"`
	Description   *string  `json:"description,omitempty"`
	DiscountType  *string  `json:"discountType,omitempty"`
	DiscountValue *float64 `json:"discountValue,omitempty"`
	MaxUses       *int     `json:"maxUses,omitempty"`
	ValidFrom     *string  `json:"validFrom,omitempty"`
	ValidUntil    *string  `json:"validUntil,omitempty"`
	IsActive      *bool    `json:"isActive,omitempty"`
}

func (s *PromoService) UpdatePromoCode(ctx context.Context, id int64, upd PromoCodeUpdate) (*models.PromoCode, error) {
	p, err := s.repo.GetPromoCode(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Code != nil {
		p.Code = strings.ToUpper(strings.TrimSpace(*upd.Code))
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.DiscountType != nil {
		p.DiscountType = *upd.DiscountType
	}
	if upd.DiscountValue != nil {
		p.DiscountValue = *upd.DiscountValue
	}
	if upd.MaxUses != nil {
		p.MaxUses = upd.MaxUses
	}
	if upd.ValidFrom != nil {
		p.ValidFrom = *upd.ValidFrom
	}
	if upd.ValidUntil != nil {
		p.ValidUntil = *upd.ValidUntil
	}
	if upd.IsActive != nil {
		p.IsActive = *upd.IsActive
	}

	if err := validatePromo(p); err != nil {
		return nil, err
	}
	if err := s.repo.UpdatePromoCode(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func validatePromo(p *models.PromoCode) error {
	p.DiscountType = models.NormalizeDiscountType(p.DiscountType)
	switch {
	case p.Code == "":
		return invalidf("promo code is required")
	case p.DiscountType != models.DiscountPercentage && p.DiscountType != models.DiscountFixed:
		return invalidf("unknown discount type %q", p.DiscountType)
	case p.DiscountValue <= 0:
		return invalidf("discount value must be positive")
	case p.DiscountType == models.DiscountPercentage && p.DiscountValue > 100:
		return invalidf("percentage discount must not exceed 100")
	case p.MaxUses != nil && *p.MaxUses < 0:
		return invalidf("max uses must not be negative")
	case p.ValidFrom == "" || p.ValidUntil == "":
		return invalidf("validity window is required")
	case p.ValidFrom > p.ValidUntil:
		return invalidf("valid from is after valid until")
	}
	return nil
}
