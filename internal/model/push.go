package model

import "time"

const (
	NotifTypeEventReminder = "event_reminder"
)

// PushSubscription is a browser push endpoint registered by a user's device.
type PushSubscription struct {
	ID          int64     `json:"id"`
	HouseholdID int64     `json:"household_id"`
	UserID      int64     `json:"user_id"`
	Endpoint    string    `json:"endpoint"`
	P256dh      string    `json:"-"`
	Auth        string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}
