package rules

import (
	"time"

	"spacehub/internal/models"
)

const ReasonNoPricingRule = "No pricing rules found for this space"

// IsWeekend reports whether t falls on Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsPeakHour classifies the start hour. Hours 0-9 and 17-23 are peak.
func IsPeakHour(hour int) bool {
	return hour >= 17 || hour <= 9
}

// HourlyRate picks the rate by precedence: weekend, peak, off-peak, base.
func HourlyRate(rule *models.PricingRule, start time.Time) float64 {
	weekend := IsWeekend(start)
	peak := IsPeakHour(start.Hour())

	switch {
	case weekend && rule.WeekendPrice != nil:
		return *rule.WeekendPrice
	case peak && rule.PeakPrice != nil:
		return *rule.PeakPrice
	case !peak && rule.OffPeakPrice != nil:
		return *rule.OffPeakPrice
	default:
		return rule.BasePrice
	}
}

// FirstActiveRule returns the first active rule, or nil.
func FirstActiveRule(rules []*models.PricingRule) *models.PricingRule {
	for _, r := range rules {
		if r.IsActive {
			return r
		}
	}
	return nil
}

// CalculatePrice quotes [start, end) with the given rule. A nil rule yields a
// quote carrying ReasonNoPricingRule.
func CalculatePrice(rule *models.PricingRule, start, end time.Time) *models.PriceQuote {
	if rule == nil {
		return &models.PriceQuote{Error: ReasonNoPricingRule}
	}

	duration := float64(end.Sub(start).Milliseconds()) / 3_600_000
	rate := HourlyRate(rule, start)
	total := rate * duration

	return &models.PriceQuote{
		HourlyRate:    rate,
		Duration:      duration,
		TotalPrice:    total,
		DepositAmount: total * rule.DepositPercentage / 100,
		Pricing:       rule,
	}
}

// DurationWithinBounds checks hours against the rule's min/max booking length.
func DurationWithinBounds(rule *models.PricingRule, hours float64) bool {
	if rule == nil {
		return true
	}
	if rule.MinBookingDuration > 0 && hours < rule.MinBookingDuration {
		return false
	}
	if rule.MaxBookingDuration != nil && *rule.MaxBookingDuration > 0 && hours > *rule.MaxBookingDuration {
		return false
	}
	return true
}
