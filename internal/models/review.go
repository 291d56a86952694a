package models

import "time"

type Review struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"userId"`
	SpaceID    int64     `json:"spaceId"`
	FacilityID int64     `json:"facilityId"`
	BookingID  *int64    `json:"bookingId,omitempty"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	IsPublic   bool      `json:"isPublic"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

type Favorite struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	SpaceID   int64     `json:"spaceId"`
	CreatedAt time.Time `json:"createdAt"`
}
