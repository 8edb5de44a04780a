package calendar

import (
	"sync"
	"time"
)

const (
	// DefaultTTL is how long a source's events are considered fresh.
	DefaultTTL = 2 * time.Minute
	// DefaultMinRefresh is the minimum interval between manually-triggered
	// refetches of a source. Guards against refresh storms from rapid view
	// navigation.
	DefaultMinRefresh = 10 * time.Second
)

// FetchFunc retrieves one source's events.
type FetchFunc func() ([]Event, error)

// FeedOptions tunes feed caching. Zero values take the defaults; Now is
// injectable for tests.
type FeedOptions struct {
	TTL        time.Duration
	MinRefresh time.Duration
	Now        func() time.Time
}

func (o FeedOptions) withDefaults() FeedOptions {
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	if o.MinRefresh <= 0 {
		o.MinRefresh = DefaultMinRefresh
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// cachedSource caches one source's fetch output. A failed fetch caches the
// error, not an empty list, so a broken source stays distinguishable from
// an empty one until the next refetch.
type cachedSource struct {
	mu    sync.Mutex
	src   Source
	fetch FetchFunc
	opts  FeedOptions

	events    []Event
	err       error
	valid     bool
	fetchedAt time.Time
	attemptAt time.Time
	inflight  chan struct{} // non-nil while a fetch runs; closed on completion
}

func newCachedSource(src Source, fetch FetchFunc, opts FeedOptions) *cachedSource {
	return &cachedSource{src: src, fetch: fetch, opts: opts}
}

// get returns the cached result, refetching when the cache is invalid or
// older than the TTL.
func (c *cachedSource) get() SourceResult {
	c.mu.Lock()
	now := c.opts.Now()
	if c.valid && now.Sub(c.fetchedAt) < c.opts.TTL {
		res := SourceResult{Source: c.src, Events: c.events, Err: c.err}
		c.mu.Unlock()
		return res
	}
	c.mu.Unlock()

	c.doFetch()

	c.mu.Lock()
	defer c.mu.Unlock()
	return SourceResult{Source: c.src, Events: c.events, Err: c.err}
}

// refresh is the manually-triggered refetch path. It skips entirely when
// called again within the minimum interval or while a fetch is already in
// flight; it reports whether a fetch actually ran.
func (c *cachedSource) refresh() bool {
	c.mu.Lock()
	now := c.opts.Now()
	if c.inflight != nil || (!c.attemptAt.IsZero() && now.Sub(c.attemptAt) < c.opts.MinRefresh) {
		c.mu.Unlock()
		return false
	}
	c.mu.Unlock()

	c.doFetch()
	return true
}

// doFetch runs the fetch, or waits for the one already in flight so a
// concurrent get never observes the unfetched zero state.
func (c *cachedSource) doFetch() {
	c.mu.Lock()
	if c.inflight != nil {
		done := c.inflight
		c.mu.Unlock()
		<-done
		return
	}
	done := make(chan struct{})
	c.inflight = done
	c.attemptAt = c.opts.Now()
	fetch := c.fetch
	c.mu.Unlock()

	events, err := fetch()

	c.mu.Lock()
	c.events = events
	c.err = err
	c.valid = true
	c.fetchedAt = c.opts.Now()
	c.inflight = nil
	c.mu.Unlock()
	close(done)
}

func (c *cachedSource) invalidate() {
	c.mu.Lock()
	c.valid = false
	c.mu.Unlock()
}

// Feed is the read-through cache over one user's three event sources.
type Feed struct {
	household *cachedSource
	personal  *cachedSource
	shared    *cachedSource
}

// NewFeed builds a feed bound to an explicit identity. A user without a
// household gets empty household and shared sources, not errors.
func NewFeed(f *Fetcher, householdID, userID int64, opts FeedOptions) *Feed {
	opts = opts.withDefaults()
	return &Feed{
		household: newCachedSource(SourceHousehold, func() ([]Event, error) {
			return f.HouseholdEvents(householdID)
		}, opts),
		personal: newCachedSource(SourcePersonal, func() ([]Event, error) {
			return f.PersonalEvents(userID)
		}, opts),
		shared: newCachedSource(SourceShared, func() ([]Event, error) {
			return f.SharedMemberEvents(householdID, userID)
		}, opts),
	}
}

// Events returns the merged event list, fetching any stale source. Source
// failures surface in the Merged result rather than dropping silently.
func (fd *Feed) Events() Merged {
	return Merge(fd.household.get(), fd.personal.get(), fd.shared.get())
}

// Refresh refetches all three sources, subject to per-source throttling. It
// reports whether any fetch actually ran.
func (fd *Feed) Refresh() bool {
	a := fd.household.refresh()
	b := fd.personal.refresh()
	c := fd.shared.refresh()
	return a || b || c
}

// Invalidate marks every source stale. The next Events call refetches.
func (fd *Feed) Invalidate() {
	fd.household.invalidate()
	fd.personal.invalidate()
	fd.shared.invalidate()
}

type feedKey struct {
	householdID int64
	userID      int64
}

// Feeds hands out per-identity feeds and supports the wholesale
// invalidate-on-write contract: every mutation invalidates every feed
// rather than patching a specific list.
type Feeds struct {
	mu      sync.Mutex
	fetcher *Fetcher
	opts    FeedOptions
	byKey   map[feedKey]*Feed
}

func NewFeeds(fetcher *Fetcher, opts FeedOptions) *Feeds {
	return &Feeds{
		fetcher: fetcher,
		opts:    opts.withDefaults(),
		byKey:   make(map[feedKey]*Feed),
	}
}

// For returns the feed for an identity, creating it on first use.
func (f *Feeds) For(householdID, userID int64) *Feed {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := feedKey{householdID: householdID, userID: userID}
	feed, ok := f.byKey[key]
	if !ok {
		feed = NewFeed(f.fetcher, householdID, userID, f.opts)
		f.byKey[key] = feed
	}
	return feed
}

// InvalidateAll marks every feed stale.
func (f *Feeds) InvalidateAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, feed := range f.byKey {
		feed.Invalidate()
	}
}
