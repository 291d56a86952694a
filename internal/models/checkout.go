package models

import "time"

// CheckoutDraft holds a quoted booking between the quote and the confirm step.
type CheckoutDraft struct {
	ID             string     `json:"id"`
	UserID         int64      `json:"userId"`
	SpaceID        int64      `json:"spaceId"`
	Date           string     `json:"date"`
	StartTime      string     `json:"startTime"`
	EndTime        string     `json:"endTime"`
	Participants   int        `json:"participants"`
	PromoCode      string     `json:"promoCode,omitempty"`
	Quote          PriceQuote `json:"quote"`
	DiscountAmount float64    `json:"discountAmount"`
	AmountDue      float64    `json:"amountDue"`
	CreatedAt      time.Time  `json:"createdAt"`
	ExpiresAt      time.Time  `json:"expiresAt"`
}
