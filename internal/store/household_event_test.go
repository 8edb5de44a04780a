package store

import (
	"testing"
)

func TestHouseholdEventCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	hid, uid := seedHousehold(t, db)
	es := NewHouseholdEventStore(db)

	lead := 30
	e, err := es.Create(hid, "Dentist", "checkup", "2024-03-04T09:00", "2024-03-04T09:30", "#aabbcc", uid, nil, nil, &lead)
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	if e.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if e.StartDate != "2024-03-04T09:00" {
		t.Errorf("start_date = %q, stored dates must round-trip verbatim", e.StartDate)
	}
	if e.ReminderMinutes == nil || *e.ReminderMinutes != 30 {
		t.Errorf("reminder_minutes = %v, want 30", e.ReminderMinutes)
	}

	got, err := es.GetByID(e.ID)
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	if got == nil || got.Title != "Dentist" {
		t.Fatalf("got = %+v", got)
	}
}

func TestHouseholdEventGetMissing(t *testing.T) {
	db := newTestDB(t)
	es := NewHouseholdEventStore(db)

	got, err := es.GetByID(999)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing event, got %+v", got)
	}
}

func TestHouseholdEventMalformedDateRoundTrips(t *testing.T) {
	db := newTestDB(t)
	hid, uid := seedHousehold(t, db)
	es := NewHouseholdEventStore(db)

	// The store never validates dates; bad text is preserved for the
	// classifier to handle.
	e, err := es.Create(hid, "Broken", "", "not-a-date", "also-bad", "", uid, nil, nil, nil)
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	got, _ := es.GetByID(e.ID)
	if got.StartDate != "not-a-date" {
		t.Errorf("start_date = %q, want the raw text back", got.StartDate)
	}
}

func TestHouseholdEventListOrder(t *testing.T) {
	db := newTestDB(t)
	hid, uid := seedHousehold(t, db)
	es := NewHouseholdEventStore(db)

	es.Create(hid, "First", "", "2024-03-02", "2024-03-02", "", uid, nil, nil, nil)
	es.Create(hid, "Second", "", "2024-03-01", "2024-03-01", "", uid, nil, nil, nil)

	events, err := es.ListByHousehold(hid)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	// Insertion order, not date order: sorting is a projection concern.
	if events[0].Title != "First" || events[1].Title != "Second" {
		t.Errorf("order = %q, %q", events[0].Title, events[1].Title)
	}
}

func TestHouseholdEventListWithReminders(t *testing.T) {
	db := newTestDB(t)
	hid, uid := seedHousehold(t, db)
	es := NewHouseholdEventStore(db)

	lead := 15
	es.Create(hid, "With", "", "2024-03-04T09:00", "2024-03-04T09:30", "", uid, nil, nil, &lead)
	es.Create(hid, "Without", "", "2024-03-04T10:00", "2024-03-04T10:30", "", uid, nil, nil, nil)

	events, err := es.ListWithReminders()
	if err != nil {
		t.Fatalf("list with reminders: %v", err)
	}
	if len(events) != 1 || events[0].Title != "With" {
		t.Fatalf("got %+v, want only the reminder event", events)
	}
}

func TestHouseholdEventUpdateAndDelete(t *testing.T) {
	db := newTestDB(t)
	hid, uid := seedHousehold(t, db)
	es := NewHouseholdEventStore(db)

	e, _ := es.Create(hid, "Old", "", "2024-03-04", "2024-03-04", "", uid, nil, nil, nil)

	updated, err := es.Update(e.ID, "New", "desc", "2024-03-05", "2024-03-06", "#112233", &uid, nil, nil)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "New" || updated.EndDate != "2024-03-06" {
		t.Errorf("updated = %+v", updated)
	}
	if updated.AssignedMemberID == nil || *updated.AssignedMemberID != uid {
		t.Errorf("assigned_member_id = %v, want %d", updated.AssignedMemberID, uid)
	}

	if err := es.Delete(e.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, _ := es.GetByID(e.ID)
	if got != nil {
		t.Error("expected event gone after delete")
	}
}
