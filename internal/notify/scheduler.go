package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rowanfield/bramble/internal/calendar"
	"github.com/rowanfield/bramble/internal/model"
	"github.com/rowanfield/bramble/internal/store"
)

// Scheduler wakes every minute and delivers event reminders whose lead time
// has come due. Deduplication is handled by the push store's sent ledger.
type Scheduler struct {
	mu       sync.RWMutex
	sender   Sender
	push     *store.PushStore
	hevents  *store.HouseholdEventStore
	pevents  *store.PersonalEventStore
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewScheduler(sender Sender, push *store.PushStore, hevents *store.HouseholdEventStore, pevents *store.PersonalEventStore, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		sender:   sender,
		push:     push,
		hevents:  hevents,
		pevents:  pevents,
		logger:   logger,
		interval: 60 * time.Second,
		now:      time.Now,
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Tick()
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Tick runs one reminder sweep. Exported so a sweep can be forced on demand.
func (s *Scheduler) Tick() {
	s.checkHouseholdReminders()
	s.checkPersonalReminders()
}

// due reports whether a reminder for an event starting at start with the
// given lead time falls inside the current tick window.
func (s *Scheduler) due(start time.Time, leadMinutes int) bool {
	now := s.now()
	notifyAt := start.Add(-time.Duration(leadMinutes) * time.Minute)
	return !now.Before(notifyAt) && now.Before(start)
}

func (s *Scheduler) checkHouseholdReminders() {
	events, err := s.hevents.ListWithReminders()
	if err != nil {
		s.logger.Error("list household reminders", "error", err)
		return
	}

	for _, e := range events {
		if e.ReminderMinutes == nil {
			continue
		}
		start, err := calendar.ParseEventTime(e.StartDate)
		if err != nil {
			continue
		}
		lead := *e.ReminderMinutes
		if !s.due(start, lead) {
			continue
		}

		refID := fmt.Sprintf("household-event-%d", e.ID)
		sent, err := s.push.WasSent(e.HouseholdID, model.NotifTypeEventReminder, refID, lead)
		if err != nil {
			s.logger.Error("check sent", "error", err)
			continue
		}
		if sent {
			continue
		}

		subs, err := s.push.ListByHousehold(e.HouseholdID)
		if err != nil {
			s.logger.Error("list subscriptions", "error", err)
			continue
		}

		payload := Payload{
			Title: "Event Reminder",
			Body:  fmt.Sprintf("%s starts in %d minutes", e.Title, lead),
			URL:   "/calendar",
			Tag:   fmt.Sprintf("event-%d", e.ID),
		}

		for i := range subs {
			// Assigned events only notify the assignee's devices.
			if e.AssignedMemberID != nil && subs[i].UserID != *e.AssignedMemberID {
				continue
			}
			s.deliver(&subs[i], payload)
		}
	}
}

func (s *Scheduler) checkPersonalReminders() {
	events, err := s.pevents.ListWithReminders()
	if err != nil {
		s.logger.Error("list personal reminders", "error", err)
		return
	}

	for _, e := range events {
		if e.ReminderMinutes == nil {
			continue
		}
		start, err := calendar.ParseEventTime(e.StartDate)
		if err != nil {
			continue
		}
		lead := *e.ReminderMinutes
		if !s.due(start, lead) {
			continue
		}

		subs, err := s.push.ListByUser(e.UserID)
		if err != nil {
			s.logger.Error("list subscriptions", "error", err)
			continue
		}
		if len(subs) == 0 {
			continue
		}

		// Dedup keys on the owner, not on any one subscription's household;
		// a user subscribed from two households gets exactly one reminder.
		refID := fmt.Sprintf("personal-event-%d", e.ID)
		sent, err := s.push.WasSent(e.UserID, model.NotifTypeEventReminder, refID, lead)
		if err != nil {
			s.logger.Error("check sent", "error", err)
			continue
		}
		if sent {
			continue
		}

		payload := Payload{
			Title: "Event Reminder",
			Body:  fmt.Sprintf("%s starts in %d minutes", e.Title, lead),
			URL:   "/calendar",
			Tag:   fmt.Sprintf("personal-event-%d", e.ID),
		}

		for i := range subs {
			s.deliver(&subs[i], payload)
		}
	}
}

func (s *Scheduler) deliver(sub *model.PushSubscription, payload Payload) {
	if err := s.sender.Send(sub, payload); err != nil {
		if errors.Is(err, ErrExpired) {
			s.push.DeleteByEndpoint(sub.Endpoint)
			return
		}
		s.logger.Error("send reminder", "endpoint", sub.Endpoint, "error", err)
	}
}
