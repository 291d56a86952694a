package models

import "time"

type AvailabilitySchedule struct {
	ID          int64     `json:"id"`
	SpaceID     int64     `json:"spaceId"`
	DayOfWeek   int       `json:"dayOfWeek" yaml:"day_of_week"`
	OpenTime    string    `json:"openTime" yaml:"open_time"`
	CloseTime   string    `json:"closeTime" yaml:"close_time"`
	IsAvailable bool      `json:"isAvailable" yaml:"is_available"`
	CreatedAt   time.Time `json:"createdAt" yaml:"-"`
	UpdatedAt   time.Time `json:"updatedAt" yaml:"-"`
}

type BlackoutDate struct {
	ID        int64     `json:"id"`
	SpaceID   int64     `json:"spaceId"`
	StartDate string    `json:"startDate"`
	EndDate   string    `json:"endDate"`
	Reason    string    `json:"reason"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// Covers reports whether the YYYY-MM-DD date falls inside the blackout range.
func (b *BlackoutDate) Covers(date string) bool {
	return b.IsActive && b.StartDate <= date && b.EndDate >= date
}

// AvailabilityResult is the outcome of an availability check. A rejection is
// a normal result carrying a reason, not an error.
type AvailabilityResult struct {
	IsAvailable         bool                  `json:"isAvailable"`
	Reason              string                `json:"reason,omitempty"`
	ConflictingBookings []*Booking            `json:"conflictingBookings,omitempty"`
	Schedule            *AvailabilitySchedule `json:"schedule,omitempty"`
}

type Slot struct {
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	IsAvailable bool   `json:"isAvailable"`
}

type SlotsResult struct {
	Slots []Slot `json:"slots"`
}
