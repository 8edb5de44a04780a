package model

import "time"

// ChildProfile is a household member without their own login. Events and
// tasks can be assigned to a child the same way as to a full member.
type ChildProfile struct {
	ID          int64     `json:"id"`
	HouseholdID int64     `json:"household_id"`
	Name        string    `json:"name"`
	AvatarURL   string    `json:"avatar_url"`
	Age         int       `json:"age"`
	Color       string    `json:"color"`
	HasPIN      bool      `json:"has_pin"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
