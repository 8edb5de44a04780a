package calendar

import (
	"fmt"
	"log/slog"

	"github.com/rowanfield/bramble/internal/store"
)

// Fetcher retrieves events from the three sources and normalizes them into
// the unified Event shape. Identity (user, household) is an explicit input
// to every method; the fetcher holds no ambient session state.
type Fetcher struct {
	householdEvents *store.HouseholdEventStore
	personalEvents  *store.PersonalEventStore
	households      *store.HouseholdStore
	users           *store.UserStore
	children        *store.ChildStore
	logger          *slog.Logger
}

func NewFetcher(he *store.HouseholdEventStore, pe *store.PersonalEventStore, hs *store.HouseholdStore, us *store.UserStore, cs *store.ChildStore, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		householdEvents: he,
		personalEvents:  pe,
		households:      hs,
		users:           us,
		children:        cs,
		logger:          logger,
	}
}

// HouseholdEvents returns the household's events with creator and assignee
// profiles resolved. Profile resolution collects every referenced id first
// and issues one batched lookup per table, never one query per event; child
// profiles are only fetched when at least one event references a child.
func (f *Fetcher) HouseholdEvents(householdID int64) ([]Event, error) {
	if householdID == 0 {
		return nil, nil
	}

	rows, err := f.householdEvents.ListByHousehold(householdID)
	if err != nil {
		return nil, fmt.Errorf("household events: %w", err)
	}

	userIDs := make(map[int64]struct{})
	childIDs := make(map[int64]struct{})
	for _, e := range rows {
		userIDs[e.CreatedBy] = struct{}{}
		if e.AssignedMemberID != nil {
			userIDs[*e.AssignedMemberID] = struct{}{}
		}
		if e.AssignedChildID != nil {
			childIDs[*e.AssignedChildID] = struct{}{}
		}
	}

	userProfiles, err := f.userProfiles(userIDs)
	if err != nil {
		return nil, fmt.Errorf("household events: %w", err)
	}

	childProfiles := map[int64]Profile{}
	if len(childIDs) > 0 {
		childProfiles, err = f.childProfiles(childIDs)
		if err != nil {
			return nil, fmt.Errorf("household events: %w", err)
		}
	}

	events := make([]Event, 0, len(rows))
	for _, row := range rows {
		ev := fromHouseholdEvent(row)
		ev.Creator = userProfiles[row.CreatedBy]
		if row.AssignedMemberID != nil {
			if p, ok := userProfiles[*row.AssignedMemberID]; ok {
				ev.AssignedMember = &p
			}
		}
		if row.AssignedChildID != nil {
			if p, ok := childProfiles[*row.AssignedChildID]; ok {
				ev.AssignedChild = &p
			}
		}
		events = append(events, ev)
	}
	return events, nil
}

// PersonalEvents returns the user's own events. The user's profile is
// re-read rather than taken from any cached session context, so a renamed
// user never shows a stale name on their own events.
func (f *Fetcher) PersonalEvents(userID int64) ([]Event, error) {
	rows, err := f.personalEvents.ListByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("personal events: %w", err)
	}

	user, err := f.users.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("personal events: own profile: %w", err)
	}
	var self Profile
	if user != nil {
		self = Profile{Name: user.Name, AvatarURL: user.AvatarURL}
	}

	events := make([]Event, 0, len(rows))
	for _, row := range rows {
		ev := fromPersonalEvent(row)
		ev.Creator = self
		events = append(events, ev)
	}
	return events, nil
}

// SharedMemberEvents returns public personal events owned by the other
// members of the user's household.
func (f *Fetcher) SharedMemberEvents(householdID, selfID int64) ([]Event, error) {
	if householdID == 0 {
		return nil, nil
	}

	memberIDs, err := f.households.ListMemberUserIDs(householdID)
	if err != nil {
		return nil, fmt.Errorf("shared events: member ids: %w", err)
	}

	others := make([]int64, 0, len(memberIDs))
	for _, id := range memberIDs {
		if id != selfID {
			others = append(others, id)
		}
	}
	if len(others) == 0 {
		return nil, nil
	}

	rows, err := f.personalEvents.ListPublicByUsers(others)
	if err != nil {
		return nil, fmt.Errorf("shared events: %w", err)
	}

	ownerIDs := make(map[int64]struct{})
	for _, e := range rows {
		ownerIDs[e.UserID] = struct{}{}
	}
	profiles, err := f.userProfiles(ownerIDs)
	if err != nil {
		return nil, fmt.Errorf("shared events: %w", err)
	}

	events := make([]Event, 0, len(rows))
	for _, row := range rows {
		ev := fromPersonalEvent(row)
		ev.Creator = profiles[row.UserID]
		events = append(events, ev)
	}
	return events, nil
}

func (f *Fetcher) userProfiles(ids map[int64]struct{}) (map[int64]Profile, error) {
	if len(ids) == 0 {
		return map[int64]Profile{}, nil
	}

	list := make([]int64, 0, len(ids))
	for id := range ids {
		list = append(list, id)
	}

	users, err := f.users.ListByIDs(list)
	if err != nil {
		return nil, fmt.Errorf("user profiles: %w", err)
	}

	profiles := make(map[int64]Profile, len(users))
	for _, u := range users {
		profiles[u.ID] = Profile{Name: u.Name, AvatarURL: u.AvatarURL}
	}
	return profiles, nil
}

func (f *Fetcher) childProfiles(ids map[int64]struct{}) (map[int64]Profile, error) {
	list := make([]int64, 0, len(ids))
	for id := range ids {
		list = append(list, id)
	}

	children, err := f.children.ListByIDs(list)
	if err != nil {
		return nil, fmt.Errorf("child profiles: %w", err)
	}

	profiles := make(map[int64]Profile, len(children))
	for _, c := range children {
		profiles[c.ID] = Profile{Name: c.Name, AvatarURL: c.AvatarURL}
	}
	return profiles, nil
}
