// Package calendar merges household, personal, and shared-member events into
// a unified list, classifies them, and projects them onto month, week, and
// day grids.
package calendar

import "github.com/rowanfield/bramble/internal/model"

// Source identifies the table an event is owned by. Ownership is fixed for
// the lifetime of an event; mutations route by Source, never by a stored
// boolean that could drift.
type Source string

const (
	SourceHousehold Source = "household"
	SourcePersonal  Source = "personal"

	// SourceShared labels the shared-member fetch lane in aggregation
	// results. Events from that lane are still owned by the personal table
	// and carry SourcePersonal themselves.
	SourceShared Source = "shared"
)

// Key is the cross-source identity of an event. Ids are only unique within
// their owning table, so identity always carries the source.
type Key struct {
	Source Source `json:"source"`
	ID     int64  `json:"id"`
}

// Profile is the denormalized display info attached to an event at fetch
// time. Derived, never stored.
type Profile struct {
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// Event is the unified record produced by the fetchers. Dates are carried as
// the stored ISO 8601 wall-clock strings; parsing is a classification
// concern so one malformed row cannot take down a whole view.
type Event struct {
	Source           Source   `json:"source"`
	ID               int64    `json:"id"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	StartDate        string   `json:"start_date"`
	EndDate          string   `json:"end_date"`
	Color            string   `json:"color"`
	CreatedBy        int64    `json:"created_by"`
	Public           bool     `json:"is_public"`
	AssignedMemberID *int64   `json:"assigned_member_id,omitempty"`
	AssignedChildID  *int64   `json:"assigned_child_id,omitempty"`
	Creator          Profile  `json:"creator"`
	AssignedMember   *Profile `json:"assigned_member,omitempty"`
	AssignedChild    *Profile `json:"assigned_child,omitempty"`
}

// Key returns the event's cross-source identity.
func (e Event) Key() Key {
	return Key{Source: e.Source, ID: e.ID}
}

// IsHousehold reports whether the event is owned by the household table.
func (e Event) IsHousehold() bool {
	return e.Source == SourceHousehold
}

// DisplayColor returns the event color, falling back to the default when the
// row has none.
func (e Event) DisplayColor() string {
	if e.Color == "" {
		return model.DefaultEventColor
	}
	return e.Color
}

func fromHouseholdEvent(he model.HouseholdEvent) Event {
	return Event{
		Source:           SourceHousehold,
		ID:               he.ID,
		Title:            he.Title,
		Description:      he.Description,
		StartDate:        he.StartDate,
		EndDate:          he.EndDate,
		Color:            he.Color,
		CreatedBy:        he.CreatedBy,
		AssignedMemberID: he.AssignedMemberID,
		AssignedChildID:  he.AssignedChildID,
	}
}

func fromPersonalEvent(pe model.PersonalEvent) Event {
	return Event{
		Source:      SourcePersonal,
		ID:          pe.ID,
		Title:       pe.Title,
		Description: pe.Description,
		StartDate:   pe.StartDate,
		EndDate:     pe.EndDate,
		Color:       pe.Color,
		CreatedBy:   pe.UserID,
		Public:      pe.Public,
	}
}
