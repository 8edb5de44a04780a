package store

import (
	"testing"
	"time"
)

func TestSessionLifecycle(t *testing.T) {
	db := newTestDB(t)
	hid, uid := seedHousehold(t, db)
	ss := NewSessionStore(db)

	sess, err := ss.Create(uid, hid, "tok-live", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := ss.GetByToken("tok-live")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.ID != sess.ID || got.UserID != uid || got.HouseholdID != hid {
		t.Fatalf("got %+v", got)
	}

	if err := ss.Delete(sess.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, _ = ss.GetByToken("tok-live")
	if got != nil {
		t.Error("expected nil after delete")
	}
}

func TestSessionGetByTokenMissing(t *testing.T) {
	db := newTestDB(t)
	ss := NewSessionStore(db)

	got, err := ss.GetByToken("nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil", got)
	}
}

func TestSessionExpiredTreatedAsMissing(t *testing.T) {
	db := newTestDB(t)
	hid, uid := seedHousehold(t, db)
	ss := NewSessionStore(db)

	if _, err := ss.Create(uid, hid, "tok-old", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := ss.GetByToken("tok-old")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("expired session should resolve to nil")
	}
}

func TestSessionSwitchHousehold(t *testing.T) {
	db := newTestDB(t)
	hid, uid := seedHousehold(t, db)
	hs := NewHouseholdStore(db)
	ss := NewSessionStore(db)

	other, err := hs.Create("Second home")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}

	sess, _ := ss.Create(uid, hid, "tok-switch", time.Now().Add(time.Hour))
	if err := ss.SwitchHousehold(sess.ID, other.ID); err != nil {
		t.Fatalf("switch: %v", err)
	}

	got, _ := ss.GetByToken("tok-switch")
	if got.HouseholdID != other.ID {
		t.Errorf("household = %d, want %d", got.HouseholdID, other.ID)
	}
}

func TestSessionDeleteExpired(t *testing.T) {
	db := newTestDB(t)
	hid, uid := seedHousehold(t, db)
	ss := NewSessionStore(db)

	ss.Create(uid, hid, "tok-a", time.Now().Add(-2*time.Hour))
	ss.Create(uid, hid, "tok-b", time.Now().Add(-time.Hour))
	ss.Create(uid, hid, "tok-c", time.Now().Add(time.Hour))

	n, err := ss.DeleteExpired()
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d sessions, want 2", n)
	}

	got, _ := ss.GetByToken("tok-c")
	if got == nil {
		t.Error("live session should survive cleanup")
	}
}
