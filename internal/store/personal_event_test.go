package store

import (
	"testing"
)

func TestPersonalEventCreateAndList(t *testing.T) {
	db := newTestDB(t)
	_, uid := seedHousehold(t, db)
	es := NewPersonalEventStore(db)

	e, err := es.Create(uid, "Yoga", "", "2024-03-04T07:00", "2024-03-04T08:00", "", false, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if e.Public {
		t.Error("expected private by default")
	}

	events, err := es.ListByUser(uid)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 1 || events[0].Title != "Yoga" {
		t.Fatalf("got %+v", events)
	}
}

func TestPersonalEventListPublicByUsers(t *testing.T) {
	db := newTestDB(t)
	_, alice := seedHousehold(t, db)
	us := NewUserStore(db)
	bob, err := us.Create("bob@example.com", "Bob", "")
	if err != nil {
		t.Fatalf("create bob: %v", err)
	}
	es := NewPersonalEventStore(db)

	es.Create(alice, "Alice public", "", "2024-03-04", "2024-03-04", "", true, nil)
	es.Create(alice, "Alice private", "", "2024-03-04", "2024-03-04", "", false, nil)
	es.Create(bob.ID, "Bob public", "", "2024-03-04", "2024-03-04", "", true, nil)

	events, err := es.ListPublicByUsers([]int64{alice})
	if err != nil {
		t.Fatalf("list public: %v", err)
	}
	if len(events) != 1 || events[0].Title != "Alice public" {
		t.Fatalf("got %+v, want only Alice's public event", events)
	}

	events, err = es.ListPublicByUsers([]int64{alice, bob.ID})
	if err != nil {
		t.Fatalf("list public: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}

	events, err = es.ListPublicByUsers(nil)
	if err != nil {
		t.Fatalf("list public empty: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("got %d events for empty id list, want 0", len(events))
	}
}

func TestPersonalEventUpdateVisibility(t *testing.T) {
	db := newTestDB(t)
	_, uid := seedHousehold(t, db)
	es := NewPersonalEventStore(db)

	e, _ := es.Create(uid, "Run", "", "2024-03-04T06:00", "2024-03-04T07:00", "", false, nil)

	updated, err := es.Update(e.ID, "Run", "", e.StartDate, e.EndDate, "", true, nil)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.Public {
		t.Error("expected event public after update")
	}
}
