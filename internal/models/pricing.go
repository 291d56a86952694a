package models

import "time"

type PricingRule struct {
	ID                 int64     `json:"id"`
	SpaceID            int64     `json:"spaceId"`
	Name               string    `json:"name" yaml:"name"`
	BasePrice          float64   `json:"basePrice" yaml:"base_price"`
	PeakPrice          *float64  `json:"peakPrice,omitempty" yaml:"peak_price"`
	OffPeakPrice       *float64  `json:"offPeakPrice,omitempty" yaml:"off_peak_price"`
	WeekendPrice       *float64  `json:"weekendPrice,omitempty" yaml:"weekend_price"`
	HolidayPrice       *float64  `json:"holidayPrice,omitempty" yaml:"holiday_price"`
	DepositPercentage  float64   `json:"depositPercentage" yaml:"deposit_percentage"`
	MinBookingDuration float64   `json:"minBookingDuration" yaml:"min_booking_duration"`
	MaxBookingDuration *float64  `json:"maxBookingDuration,omitempty" yaml:"max_booking_duration"`
	IsActive           bool      `json:"isActive" yaml:"is_active"`
	CreatedAt          time.Time `json:"createdAt" yaml:"-"`
	UpdatedAt          time.Time `json:"updatedAt" yaml:"-"`
}

// PriceQuote is the result of a price calculation. Error is set instead of the
// numbers when no active pricing rule exists.
type PriceQuote struct {
	HourlyRate    float64      `json:"hourlyRate"`
	Duration      float64      `json:"duration"`
	TotalPrice    float64      `json:"totalPrice"`
	DepositAmount float64      `json:"depositAmount"`
	Pricing       *PricingRule `json:"pricing,omitempty"`
	Error         string       `json:"error,omitempty"`
}
