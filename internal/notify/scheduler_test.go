package notify

import (
	"encoding/base64"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/rowanfield/bramble/internal/database"
	"github.com/rowanfield/bramble/internal/model"
	"github.com/rowanfield/bramble/internal/store"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []Payload
	to   []string
	err  error
}

func (r *recordingSender) Send(sub *model.PushSubscription, payload Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, payload)
	r.to = append(r.to, sub.Endpoint)
	return nil
}

type schedFixture struct {
	sched  *Scheduler
	sender *recordingSender
	push   *store.PushStore
	he     *store.HouseholdEventStore
	pe     *store.PersonalEventStore
	users  *store.UserStore
	hhs    *store.HouseholdStore
}

func setupScheduler(t *testing.T, now time.Time) *schedFixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	fx := &schedFixture{
		sender: &recordingSender{},
		push:   store.NewPushStore(db),
		he:     store.NewHouseholdEventStore(db),
		pe:     store.NewPersonalEventStore(db),
		users:  store.NewUserStore(db),
		hhs:    store.NewHouseholdStore(db),
	}
	fx.sched = NewScheduler(fx.sender, fx.push, fx.he, fx.pe, slog.Default())
	fx.sched.now = func() time.Time { return now }
	return fx
}

func (fx *schedFixture) seedHousehold(t *testing.T) (hhID, userID int64) {
	t.Helper()
	u, err := fx.users.Create("alice@example.com", "Alice", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	hh, err := fx.hhs.Create("Shire")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	if _, err := fx.hhs.AddMember(hh.ID, u.ID, model.RoleAdmin); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if _, err := fx.push.Subscribe(hh.ID, u.ID, "https://push.example/alice", "p256", "auth"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	return hh.ID, u.ID
}

func TestTickSendsDueHouseholdReminder(t *testing.T) {
	now := time.Date(2024, 3, 4, 8, 50, 0, 0, time.UTC)
	fx := setupScheduler(t, now)
	hhID, userID := fx.seedHousehold(t)

	lead := 15
	// Starts at 09:00; with a 15 minute lead the reminder is due from 08:45.
	if _, err := fx.he.Create(hhID, "Dentist", "", "2024-03-04T09:00", "2024-03-04T09:30", "", userID, nil, nil, &lead); err != nil {
		t.Fatalf("create event: %v", err)
	}

	fx.sched.Tick()

	if len(fx.sender.sent) != 1 {
		t.Fatalf("sent %d notifications, want 1", len(fx.sender.sent))
	}
	if fx.sender.sent[0].Body != "Dentist starts in 15 minutes" {
		t.Errorf("body = %q", fx.sender.sent[0].Body)
	}
}

func TestTickSkipsNotYetDue(t *testing.T) {
	now := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	fx := setupScheduler(t, now)
	hhID, userID := fx.seedHousehold(t)

	lead := 15
	if _, err := fx.he.Create(hhID, "Dentist", "", "2024-03-04T09:00", "2024-03-04T09:30", "", userID, nil, nil, &lead); err != nil {
		t.Fatalf("create event: %v", err)
	}

	fx.sched.Tick()

	if len(fx.sender.sent) != 0 {
		t.Fatalf("sent %d notifications before the lead window, want 0", len(fx.sender.sent))
	}
}

func TestTickSkipsAlreadyStarted(t *testing.T) {
	now := time.Date(2024, 3, 4, 9, 5, 0, 0, time.UTC)
	fx := setupScheduler(t, now)
	hhID, userID := fx.seedHousehold(t)

	lead := 15
	if _, err := fx.he.Create(hhID, "Dentist", "", "2024-03-04T09:00", "2024-03-04T09:30", "", userID, nil, nil, &lead); err != nil {
		t.Fatalf("create event: %v", err)
	}

	fx.sched.Tick()

	if len(fx.sender.sent) != 0 {
		t.Fatalf("sent %d notifications after the event started, want 0", len(fx.sender.sent))
	}
}

func TestTickDeduplicatesAcrossTicks(t *testing.T) {
	now := time.Date(2024, 3, 4, 8, 50, 0, 0, time.UTC)
	fx := setupScheduler(t, now)
	hhID, userID := fx.seedHousehold(t)

	lead := 15
	if _, err := fx.he.Create(hhID, "Dentist", "", "2024-03-04T09:00", "2024-03-04T09:30", "", userID, nil, nil, &lead); err != nil {
		t.Fatalf("create event: %v", err)
	}

	fx.sched.Tick()
	fx.sched.Tick()

	if len(fx.sender.sent) != 1 {
		t.Fatalf("sent %d notifications across two ticks, want 1", len(fx.sender.sent))
	}
}

func TestTickAssignedEventNotifiesAssigneeOnly(t *testing.T) {
	now := time.Date(2024, 3, 4, 8, 50, 0, 0, time.UTC)
	fx := setupScheduler(t, now)
	hhID, aliceID := fx.seedHousehold(t)

	bob, err := fx.users.Create("bob@example.com", "Bob", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	fx.hhs.AddMember(hhID, bob.ID, model.RoleMember)
	if _, err := fx.push.Subscribe(hhID, bob.ID, "https://push.example/bob", "p256", "auth"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	lead := 15
	if _, err := fx.he.Create(hhID, "Soccer pickup", "", "2024-03-04T09:00", "2024-03-04T09:30", "", aliceID, &bob.ID, nil, &lead); err != nil {
		t.Fatalf("create event: %v", err)
	}

	fx.sched.Tick()

	if len(fx.sender.to) != 1 {
		t.Fatalf("delivered to %d endpoints, want 1", len(fx.sender.to))
	}
	if fx.sender.to[0] != "https://push.example/bob" {
		t.Errorf("delivered to %q, want the assignee's endpoint", fx.sender.to[0])
	}
}

func TestTickPersonalReminderGoesToOwner(t *testing.T) {
	now := time.Date(2024, 3, 4, 6, 55, 0, 0, time.UTC)
	fx := setupScheduler(t, now)
	hhID, aliceID := fx.seedHousehold(t)
	_ = hhID

	lead := 10
	if _, err := fx.pe.Create(aliceID, "Yoga", "", "2024-03-04T07:00", "2024-03-04T08:00", "", false, &lead); err != nil {
		t.Fatalf("create personal event: %v", err)
	}

	fx.sched.Tick()

	if len(fx.sender.to) != 1 {
		t.Fatalf("delivered to %d endpoints, want 1", len(fx.sender.to))
	}
	if fx.sender.to[0] != "https://push.example/alice" {
		t.Errorf("delivered to %q, want the owner's endpoint", fx.sender.to[0])
	}
}

func TestTickPersonalReminderDedupeAcrossHouseholds(t *testing.T) {
	now := time.Date(2024, 3, 4, 6, 55, 0, 0, time.UTC)
	fx := setupScheduler(t, now)
	_, aliceID := fx.seedHousehold(t)

	// Alice is also subscribed from a second household; the reminder ledger
	// is keyed on her, so subscription order cannot reopen the dedup window.
	other, err := fx.hhs.Create("Lake house")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	fx.hhs.AddMember(other.ID, aliceID, model.RoleAdmin)
	if _, err := fx.push.Subscribe(other.ID, aliceID, "https://push.example/alice-lake", "p256", "auth"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	lead := 10
	if _, err := fx.pe.Create(aliceID, "Yoga", "", "2024-03-04T07:00", "2024-03-04T08:00", "", false, &lead); err != nil {
		t.Fatalf("create personal event: %v", err)
	}

	fx.sched.Tick()
	fx.sched.Tick()

	if len(fx.sender.to) != 2 {
		t.Fatalf("delivered to %d endpoints across two ticks, want 2 (one per device)", len(fx.sender.to))
	}
	seen := map[string]bool{}
	for _, endpoint := range fx.sender.to {
		if seen[endpoint] {
			t.Errorf("endpoint %q notified twice", endpoint)
		}
		seen[endpoint] = true
	}
}

func TestGenerateVAPIDKeys(t *testing.T) {
	pub, priv, err := GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("generate VAPID keys: %v", err)
	}

	pubBytes, err := base64.RawURLEncoding.DecodeString(pub)
	if err != nil {
		t.Fatalf("decode public key: %v", err)
	}
	if len(pubBytes) != 65 {
		t.Errorf("public key length = %d, want 65", len(pubBytes))
	}

	privBytes, err := base64.RawURLEncoding.DecodeString(priv)
	if err != nil {
		t.Fatalf("decode private key: %v", err)
	}
	if len(privBytes) != 32 {
		t.Errorf("private key length = %d, want 32", len(privBytes))
	}

	pub2, _, _ := GenerateVAPIDKeys()
	if pub == pub2 {
		t.Error("expected different keys on second generation")
	}
}
