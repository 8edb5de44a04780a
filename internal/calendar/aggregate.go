package calendar

import (
	"fmt"

	"go.uber.org/multierr"
)

// SourceResult is one source's fetch outcome. A nil Events with a nil Err is
// a legitimately empty source; a non-nil Err means the source is unknown,
// which the aggregator must never flatten into "empty".
type SourceResult struct {
	Source Source
	Events []Event
	Err    error
}

// Merged is the aggregator output: the combined event list, whether any
// source failed, and the combined failure (nil when Partial is false).
type Merged struct {
	Events  []Event
	Partial bool
	Err     error
}

// Merge combines source lists preserving source order then fetch order. It
// does not sort by date; ordering for display is a projector concern. Failed
// sources contribute no events but are surfaced through Partial and Err so a
// failed household fetch never looks identical to a household with no
// events.
func Merge(results ...SourceResult) Merged {
	var m Merged
	for _, r := range results {
		if r.Err != nil {
			m.Partial = true
			m.Err = multierr.Append(m.Err, fmt.Errorf("%s source: %w", r.Source, r.Err))
			continue
		}
		m.Events = append(m.Events, r.Events...)
	}
	return m
}

// PersonFilter selects events by assignee or owner. Member and child ids
// live in different tables, so the sets are kept separate.
type PersonFilter struct {
	MemberIDs map[int64]struct{}
	ChildIDs  map[int64]struct{}
}

// Empty reports whether no person is selected, in which case filtering is a
// no-op.
func (f PersonFilter) Empty() bool {
	return len(f.MemberIDs) == 0 && len(f.ChildIDs) == 0
}

// FilterByPersons keeps events whose creator or assignee matches the filter,
// plus every household event regardless of assignment. Household events
// bypassing the person filter is a deliberate over-inclusive policy: a
// shared commitment stays visible no matter whose calendar lens is active.
func FilterByPersons(events []Event, filter PersonFilter) []Event {
	if filter.Empty() {
		return events
	}

	kept := make([]Event, 0, len(events))
	for _, e := range events {
		if e.IsHousehold() || matchesPerson(e, filter) {
			kept = append(kept, e)
		}
	}
	return kept
}

func matchesPerson(e Event, filter PersonFilter) bool {
	if _, ok := filter.MemberIDs[e.CreatedBy]; ok {
		return true
	}
	if e.AssignedMemberID != nil {
		if _, ok := filter.MemberIDs[*e.AssignedMemberID]; ok {
			return true
		}
	}
	if e.AssignedChildID != nil {
		if _, ok := filter.ChildIDs[*e.AssignedChildID]; ok {
			return true
		}
	}
	return false
}
