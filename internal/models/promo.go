package models

import "time"

type PromoCode struct {
	ID            int64     `json:"id"`
	Code          string    `json:"code"`
	Description   string    `json:"description"`
	DiscountType  string    `json:"discountType"`
	DiscountValue float64   `json:"discountValue"`
	MaxUses       *int      `json:"maxUses,omitempty"`
	CurrentUses   int       `json:"currentUses"`
	ValidFrom     string    `json:"validFrom"`
	ValidUntil    string    `json:"validUntil"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// UsageLimitReached reports whether a max-use limit is set and exhausted.
func (p *PromoCode) UsageLimitReached() bool {
	return p.MaxUses != nil && *p.MaxUses > 0 && p.CurrentUses >= *p.MaxUses
}

type PromoCodeUsage struct {
	ID             int64     `json:"id"`
	PromoCodeID    int64     `json:"promoCodeId"`
	UserID         int64     `json:"userId"`
	BookingID      int64     `json:"bookingId"`
	DiscountAmount float64   `json:"discountAmount"`
	UsedAt         time.Time `json:"usedAt"`
}

type PromoValidation struct {
	Valid          bool       `json:"valid"`
	Error          string     `json:"error,omitempty"`
	PromoCode      *PromoCode `json:"promoCode,omitempty"`
	DiscountAmount float64    `json:"discountAmount,omitempty"`
}
