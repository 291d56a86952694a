package models

import "time"

type WaitlistEntry struct {
	ID                 int64     `json:"id"`
	UserID             int64     `json:"userId"`
	SpaceID            int64     `json:"spaceId"`
	FacilityID         int64     `json:"facilityId"`
	RequestedDate      string    `json:"requestedDate"`
	RequestedStartTime string    `json:"requestedStartTime"`
	RequestedEndTime   string    `json:"requestedEndTime"`
	Participants       int       `json:"participants"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// IsValidWaitlistStatus reports whether s is a known waitlist status.
func IsValidWaitlistStatus(s string) bool {
	return s == WaitlistWaiting || s == WaitlistNotified || s == WaitlistExpired
}
