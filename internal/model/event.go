package model

import "time"

// DefaultEventColor is used when an event row has no color set.
const DefaultEventColor = "#7c9a72"

// HouseholdEvent is a calendar entry owned by a household, visible to all
// its members. Start and end dates are stored as ISO 8601 wall-clock text
// exactly as written; parsing happens at classification time so one bad row
// never breaks a whole view.
type HouseholdEvent struct {
	ID               int64     `json:"id"`
	HouseholdID      int64     `json:"household_id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	StartDate        string    `json:"start_date"`
	EndDate          string    `json:"end_date"`
	Color            string    `json:"color"`
	CreatedBy        int64     `json:"created_by"`
	AssignedMemberID *int64    `json:"assigned_member_id"`
	AssignedChildID  *int64    `json:"assigned_child_id"`
	ReminderMinutes  *int      `json:"reminder_minutes"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// PersonalEvent is a calendar entry owned by one user. Public marks it
// visible to the rest of the owner's household; ownership never moves
// between the two event tables.
type PersonalEvent struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	StartDate       string    `json:"start_date"`
	EndDate         string    `json:"end_date"`
	Color           string    `json:"color"`
	Public          bool      `json:"is_public"`
	ReminderMinutes *int      `json:"reminder_minutes"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
