package rules

import (
	"math"
	"time"

	"spacehub/internal/models"
)

const (
	ReasonPromoNotFound     = "Promo code not found"
	ReasonPromoWindow       = "Promo code expired or not yet valid"
	ReasonPromoLimitReached = "Promo code usage limit reached"
	ReasonPromoAlreadyUsed  = "You have already used this promo code"
)

// ValidatePromo runs the promo checks in order. usedByUser reports whether the
// user already has a usage row for this code.
func ValidatePromo(promo *models.PromoCode, usedByUser bool, bookingAmount float64, now time.Time) *models.PromoValidation {
	if promo == nil || !promo.IsActive {
		return &models.PromoValidation{Valid: false, Error: ReasonPromoNotFound}
	}

	// ISO-строки сравниваются лексически
	stamp := now.UTC().Format(models.PromoClockLayout)
	if stamp < promo.ValidFrom || stamp > promo.ValidUntil {
		return &models.PromoValidation{Valid: false, Error: ReasonPromoWindow}
	}

	if promo.UsageLimitReached() {
		return &models.PromoValidation{Valid: false, Error: ReasonPromoLimitReached}
	}

	if usedByUser {
		return &models.PromoValidation{Valid: false, Error: ReasonPromoAlreadyUsed}
	}

	return &models.PromoValidation{
		Valid:          true,
		PromoCode:      promo,
		DiscountAmount: Discount(promo, bookingAmount),
	}
}

// Discount computes the discount for an amount. Fixed discounts never exceed
// the amount.
func Discount(promo *models.PromoCode, amount float64) float64 {
	switch models.NormalizeDiscountType(promo.DiscountType) {
	case models.DiscountPercentage:
		return amount * promo.DiscountValue / 100
	case models.DiscountFixed:
		return math.Min(promo.DiscountValue, amount)
	default:
		return 0
	}
}
