package calendar

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// fakeClock steps time manually for throttle tests.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func countingSource(clock *fakeClock, calls *atomic.Int32) *cachedSource {
	return newCachedSource(SourceHousehold, func() ([]Event, error) {
		calls.Add(1)
		return []Event{{Source: SourceHousehold, ID: 1}}, nil
	}, FeedOptions{Now: clock.Now}.withDefaults())
}

func TestRefreshThrottle(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	var calls atomic.Int32
	src := countingSource(clock, &calls)

	if !src.refresh() {
		t.Fatal("first refresh should fetch")
	}
	clock.Advance(3 * time.Second)
	if src.refresh() {
		t.Error("second refresh within the minimum interval should be skipped")
	}
	if calls.Load() != 1 {
		t.Fatalf("fetch count = %d, want 1", calls.Load())
	}

	clock.Advance(DefaultMinRefresh)
	if !src.refresh() {
		t.Error("refresh after the interval should fetch")
	}
	if calls.Load() != 2 {
		t.Errorf("fetch count = %d, want 2", calls.Load())
	}
}

func TestGetServesCachedWithinTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	var calls atomic.Int32
	src := countingSource(clock, &calls)

	src.get()
	clock.Advance(time.Minute)
	src.get()
	if calls.Load() != 1 {
		t.Fatalf("fetch count = %d, want 1 (second get within TTL)", calls.Load())
	}

	clock.Advance(DefaultTTL)
	src.get()
	if calls.Load() != 2 {
		t.Errorf("fetch count = %d, want 2 (TTL expired)", calls.Load())
	}
}

func TestInvalidateForcesRefetch(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	var calls atomic.Int32
	src := countingSource(clock, &calls)

	src.get()
	src.invalidate()
	src.get()
	if calls.Load() != 2 {
		t.Errorf("fetch count = %d, want 2 (invalidate bypasses TTL)", calls.Load())
	}
}

func TestGetCachesFailureAsError(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	fetchErr := errors.New("db locked")
	src := newCachedSource(SourceHousehold, func() ([]Event, error) {
		return nil, fetchErr
	}, FeedOptions{Now: clock.Now}.withDefaults())

	res := src.get()
	if !errors.Is(res.Err, fetchErr) {
		t.Fatalf("expected cached error, got %v", res.Err)
	}
	// The failed source must still look failed, not empty, until refetch.
	res = src.get()
	if res.Err == nil {
		t.Error("cached failure must not decay into an empty success")
	}
}

func TestGetWaitsForInflightFetch(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	started := make(chan struct{})
	release := make(chan struct{})
	src := newCachedSource(SourceHousehold, func() ([]Event, error) {
		close(started) // a second fetch would panic here
		<-release
		return []Event{{Source: SourceHousehold, ID: 7}}, nil
	}, FeedOptions{Now: clock.Now}.withDefaults())

	first := make(chan SourceResult, 1)
	go func() { first <- src.get() }()
	<-started

	// This get races the fetch above; it must wait for the result rather
	// than report the source as empty.
	second := make(chan SourceResult, 1)
	go func() { second <- src.get() }()

	close(release)

	for _, ch := range []chan SourceResult{first, second} {
		res := <-ch
		if res.Err != nil {
			t.Fatalf("get: %v", res.Err)
		}
		if len(res.Events) != 1 {
			t.Fatalf("got %d events, want 1 (never an empty result mid-fetch)", len(res.Events))
		}
	}
}

func TestFeedEventsMergesAndFlagsPartial(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	opts := FeedOptions{Now: clock.Now}.withDefaults()

	feed := &Feed{
		household: newCachedSource(SourceHousehold, func() ([]Event, error) {
			return nil, errors.New("household fetch down")
		}, opts),
		personal: newCachedSource(SourcePersonal, func() ([]Event, error) {
			return []Event{{Source: SourcePersonal, ID: 1}}, nil
		}, opts),
		shared: newCachedSource(SourceShared, func() ([]Event, error) {
			return nil, nil
		}, opts),
	}

	m := feed.Events()
	if !m.Partial {
		t.Fatal("failed household source must flag the merge partial")
	}
	if len(m.Events) != 1 {
		t.Errorf("got %d events, want 1 from the healthy source", len(m.Events))
	}
}

func TestFeedsInvalidateAll(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	var calls atomic.Int32

	feeds := NewFeeds(nil, FeedOptions{Now: clock.Now})
	feed := &Feed{
		household: newCachedSource(SourceHousehold, func() ([]Event, error) {
			calls.Add(1)
			return nil, nil
		}, feeds.opts),
		personal: newCachedSource(SourcePersonal, func() ([]Event, error) {
			calls.Add(1)
			return nil, nil
		}, feeds.opts),
		shared: newCachedSource(SourceShared, func() ([]Event, error) {
			calls.Add(1)
			return nil, nil
		}, feeds.opts),
	}
	feeds.byKey[feedKey{householdID: 1, userID: 2}] = feed

	feed.Events()
	if calls.Load() != 3 {
		t.Fatalf("fetch count = %d, want 3", calls.Load())
	}

	feeds.InvalidateAll()
	feed.Events()
	if calls.Load() != 6 {
		t.Errorf("fetch count = %d, want 6 (all sources refetched)", calls.Load())
	}
}
