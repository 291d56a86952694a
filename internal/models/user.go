package models

import "time"

type User struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone,omitempty"`
	Role             string    `json:"role"`
	MembershipStatus string    `json:"membershipStatus"`
	IsVerified       bool      `json:"isVerified"`
	TelegramChatID   int64     `json:"telegramChatId,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// IsValidRole reports whether r is a known user role.
func IsValidRole(r string) bool {
	switch r {
	case RoleUser, RoleAdmin, RoleStaff, RoleManager:
		return true
	}
	return false
}

// IsValidMembership reports whether m is a known membership tier.
func IsValidMembership(m string) bool {
	switch m {
	case MembershipBasic, MembershipPremium, MembershipEnterprise:
		return true
	}
	return false
}
