package models

import "time"

type Facility struct {
	ID           int64     `json:"id" yaml:"id"`
	Name         string    `json:"name" yaml:"name"`
	Description  string    `json:"description" yaml:"description"`
	Address      string    `json:"address" yaml:"address"`
	City         string    `json:"city" yaml:"city"`
	State        string    `json:"state" yaml:"state"`
	ZipCode      string    `json:"zipCode" yaml:"zip_code"`
	Country      string    `json:"country" yaml:"country"`
	Latitude     *float64  `json:"latitude,omitempty" yaml:"latitude"`
	Longitude    *float64  `json:"longitude,omitempty" yaml:"longitude"`
	ContactPhone string    `json:"contactPhone" yaml:"contact_phone"`
	ContactEmail string    `json:"contactEmail" yaml:"contact_email"`
	Website      string    `json:"website,omitempty" yaml:"website"`
	Images       []string  `json:"images" yaml:"images"`
	IsActive     bool      `json:"isActive" yaml:"is_active"`
	OwnerID      int64     `json:"ownerId" yaml:"owner_id"`
	CreatedAt    time.Time `json:"createdAt" yaml:"-"`
	UpdatedAt    time.Time `json:"updatedAt" yaml:"-"`
}

type Space struct {
	ID          int64     `json:"id" yaml:"id"`
	FacilityID  int64     `json:"facilityId" yaml:"facility_id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	Type        string    `json:"type" yaml:"type"`
	SportType   string    `json:"sportType,omitempty" yaml:"sport_type"`
	Capacity    int       `json:"capacity" yaml:"capacity"`
	Images      []string  `json:"images" yaml:"images"`
	Amenities   []string  `json:"amenities" yaml:"amenities"`
	IsActive    bool      `json:"isActive" yaml:"is_active"`
	CreatedAt   time.Time `json:"createdAt" yaml:"-"`
	UpdatedAt   time.Time `json:"updatedAt" yaml:"-"`
}

var spaceTypes = map[string]bool{
	SpaceSportsPitch: true,
	SpaceMeetingRoom: true,
	SpaceHotDesk:     true,
	SpaceEventHall:   true,
	SpaceEquipment:   true,
	SpaceOther:       true,
}

// IsValidSpaceType reports whether t is one of the supported space types.
func IsValidSpaceType(t string) bool {
	return spaceTypes[t]
}
