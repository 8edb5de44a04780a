package calendar

import (
	"log/slog"
	"testing"

	"github.com/rowanfield/bramble/internal/database"
	"github.com/rowanfield/bramble/internal/model"
	"github.com/rowanfield/bramble/internal/store"
)

type fetchFixture struct {
	fetcher    *Fetcher
	users      *store.UserStore
	households *store.HouseholdStore
	children   *store.ChildStore
	hevents    *store.HouseholdEventStore
	pevents    *store.PersonalEventStore
}

func setupFetcher(t *testing.T) *fetchFixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	fx := &fetchFixture{
		users:      store.NewUserStore(db),
		households: store.NewHouseholdStore(db),
		children:   store.NewChildStore(db),
		hevents:    store.NewHouseholdEventStore(db),
		pevents:    store.NewPersonalEventStore(db),
	}
	fx.fetcher = NewFetcher(fx.hevents, fx.pevents, fx.households, fx.users, fx.children, slog.Default())
	return fx
}

func (fx *fetchFixture) mustUser(t *testing.T, email, name string) *model.User {
	t.Helper()
	u, err := fx.users.Create(email, name, "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func (fx *fetchFixture) mustHousehold(t *testing.T, name string, members ...int64) *model.Household {
	t.Helper()
	h, err := fx.households.Create(name)
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	for _, uid := range members {
		if _, err := fx.households.AddMember(h.ID, uid, model.RoleMember); err != nil {
			t.Fatalf("add member: %v", err)
		}
	}
	return h
}

func TestHouseholdEventsResolvesProfiles(t *testing.T) {
	fx := setupFetcher(t)
	alice := fx.mustUser(t, "alice@example.com", "Alice")
	bob := fx.mustUser(t, "bob@example.com", "Bob")
	hh := fx.mustHousehold(t, "Shire", alice.ID, bob.ID)

	child, err := fx.children.Create(hh.ID, "Pip", "", 7, "#ffaa00")
	if err != nil {
		t.Fatalf("create child: %v", err)
	}

	if _, err := fx.hevents.Create(hh.ID, "Dentist", "", "2024-03-04T09:00", "2024-03-04T09:30", "", alice.ID, &bob.ID, &child.ID, nil); err != nil {
		t.Fatalf("create event: %v", err)
	}

	events, err := fx.fetcher.HouseholdEvents(hh.ID)
	if err != nil {
		t.Fatalf("fetch household events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	e := events[0]
	if e.Source != SourceHousehold {
		t.Errorf("source = %q, want household", e.Source)
	}
	if e.Creator.Name != "Alice" {
		t.Errorf("creator = %q, want Alice", e.Creator.Name)
	}
	if e.AssignedMember == nil || e.AssignedMember.Name != "Bob" {
		t.Errorf("assigned member profile not resolved")
	}
	if e.AssignedChild == nil || e.AssignedChild.Name != "Pip" {
		t.Errorf("assigned child profile not resolved")
	}
}

func TestHouseholdEventsNoHousehold(t *testing.T) {
	fx := setupFetcher(t)
	events, err := fx.fetcher.HouseholdEvents(0)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("got %d events for no household, want 0", len(events))
	}
}

func TestPersonalEventsFreshProfile(t *testing.T) {
	fx := setupFetcher(t)
	alice := fx.mustUser(t, "alice@example.com", "Alice")

	if _, err := fx.pevents.Create(alice.ID, "Yoga", "", "2024-03-04T07:00", "2024-03-04T08:00", "", false, nil); err != nil {
		t.Fatalf("create event: %v", err)
	}

	// Rename after the event exists; the fetcher must show the new name.
	if _, err := fx.users.Update(alice.ID, "Alexandra", ""); err != nil {
		t.Fatalf("rename user: %v", err)
	}

	events, err := fx.fetcher.PersonalEvents(alice.ID)
	if err != nil {
		t.Fatalf("fetch personal events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Creator.Name != "Alexandra" {
		t.Errorf("creator = %q, want the freshly-read profile", events[0].Creator.Name)
	}
}

func TestSharedMemberEventsExcludesSelfAndPrivate(t *testing.T) {
	fx := setupFetcher(t)
	alice := fx.mustUser(t, "alice@example.com", "Alice")
	bob := fx.mustUser(t, "bob@example.com", "Bob")
	carol := fx.mustUser(t, "carol@example.com", "Carol")
	hh := fx.mustHousehold(t, "Shire", alice.ID, bob.ID)

	// Alice's own public event: excluded (self).
	fx.pevents.Create(alice.ID, "Mine", "", "2024-03-04T10:00", "2024-03-04T11:00", "", true, nil)
	// Bob's public event: included.
	fx.pevents.Create(bob.ID, "Bob public", "", "2024-03-04T12:00", "2024-03-04T13:00", "", true, nil)
	// Bob's private event: excluded.
	fx.pevents.Create(bob.ID, "Bob private", "", "2024-03-04T14:00", "2024-03-04T15:00", "", false, nil)
	// Carol is not a member: excluded even though public.
	fx.pevents.Create(carol.ID, "Carol public", "", "2024-03-04T16:00", "2024-03-04T17:00", "", true, nil)

	events, err := fx.fetcher.SharedMemberEvents(hh.ID, alice.ID)
	if err != nil {
		t.Fatalf("fetch shared events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Title != "Bob public" {
		t.Errorf("event = %q, want Bob's public event", events[0].Title)
	}
	if events[0].Creator.Name != "Bob" {
		t.Errorf("owner profile = %q, want Bob", events[0].Creator.Name)
	}
}
