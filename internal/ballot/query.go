package ballot

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// ActiveAt reports whether voting is still open at t.
func (b Ballot) ActiveAt(t time.Time) bool {
	return b.VotingEndsAt.After(t)
}

// InactiveAt reports whether voting has closed at t.
func (b Ballot) InactiveAt(t time.Time) bool {
	return !b.VotingEndsAt.After(t)
}

// CreatedAtOrBefore reports whether b existed at t.
func (b Ballot) CreatedAtOrBefore(t time.Time) bool {
	return !b.CreatedAt.After(t)
}

// InNominations reports whether b is an election still accepting
// nominations at t.
func (b Ballot) InNominations(t time.Time) bool {
	return b.IsElection() && b.NominationsEndAt != nil && b.NominationsEndAt.After(t)
}

// InTermAcceptancePeriod reports whether b is an election whose voting has
// closed and whose term has not started at t.
func (b Ballot) InTermAcceptancePeriod(t time.Time) bool {
	return b.IsElection() && b.InactiveAt(t) && b.TermStartsAt != nil && b.TermStartsAt.After(t)
}

// EffectiveDeadline is the next cutoff a member cares about at t: the end of
// nominations while they are open, otherwise the end of voting.
func (b Ballot) EffectiveDeadline(t time.Time) time.Time {
	if b.InNominations(t) {
		return *b.NominationsEndAt
	}
	return b.VotingEndsAt
}

// OrderByActive returns a copy of bs sorted by effective deadline at t,
// soonest first, ties broken by ascending id.
func OrderByActive(bs []Ballot, t time.Time) []Ballot {
	out := slices.Clone(bs)
	slices.SortStableFunc(out, func(a, b Ballot) int {
		if c := a.EffectiveDeadline(t).Compare(b.EffectiveDeadline(t)); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// OrderByInactive returns a copy of bs sorted by voting end, latest first,
// ties broken by descending id.
func OrderByInactive(bs []Ballot) []Ballot {
	out := slices.Clone(bs)
	slices.SortStableFunc(out, func(a, b Ballot) int {
		if c := b.VotingEndsAt.Compare(a.VotingEndsAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})
	return out
}

// Filter selects ballots by the time predicates. Nil fields are ignored.
type Filter struct {
	CreatedAtOrBefore *time.Time
	ActiveAt          *time.Time
	InactiveAt        *time.Time
}

// Match reports whether b passes every set predicate.
func (f Filter) Match(b Ballot) bool {
	if f.CreatedAtOrBefore != nil && !b.CreatedAtOrBefore(*f.CreatedAtOrBefore) {
		return false
	}
	if f.ActiveAt != nil && !b.ActiveAt(*f.ActiveAt) {
		return false
	}
	if f.InactiveAt != nil && !b.InactiveAt(*f.InactiveAt) {
		return false
	}
	return true
}

// Apply returns the ballots of bs that match f, in their original order.
func (f Filter) Apply(bs []Ballot) []Ballot {
	out := make([]Ballot, 0, len(bs))
	for _, b := range bs {
		if f.Match(b) {
			out = append(out, b)
		}
	}
	return out
}

// Sort names a listing order. The zero value orders like SortActive but
// filters nothing.
type Sort string

const (
	SortDefault  Sort = ""
	SortActive   Sort = "active"
	SortInactive Sort = "inactive"
)

// ParseSort accepts "", "active" or "inactive".
func ParseSort(s string) (Sort, error) {
	switch Sort(s) {
	case SortDefault, SortActive, SortInactive:
		return Sort(s), nil
	default:
		return "", fmt.Errorf("unknown sort %q", s)
	}
}

// ListQuery is a listing request: filters plus an order.
type ListQuery struct {
	Filter
	Sort Sort
}

// Normalize fills in the defaults for now: an explicit active sort implies
// an active_at filter and the inactive sort an inactive_at filter, both at
// now unless given. Without a sort only the given filters apply.
func (q ListQuery) Normalize(now time.Time) ListQuery {
	switch q.Sort {
	case SortActive:
		if q.ActiveAt == nil {
			q.ActiveAt = &now
		}
	case SortInactive:
		if q.InactiveAt == nil {
			q.InactiveAt = &now
		}
	}
	return q
}

// Run normalizes q, filters bs and orders the result.
func (q ListQuery) Run(bs []Ballot, now time.Time) []Ballot {
	q = q.Normalize(now)
	return q.Order(q.Apply(bs), now)
}

// Order sorts bs according to q.Sort. Active ordering is evaluated at the
// query's active_at instant, or now.
func (q ListQuery) Order(bs []Ballot, now time.Time) []Ballot {
	if q.Sort == SortInactive {
		return OrderByInactive(bs)
	}
	at := now
	if q.ActiveAt != nil {
		at = *q.ActiveAt
	}
	return OrderByActive(bs, at)
}

// IDs returns the ids of bs in order.
func IDs(bs []Ballot) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.ID
	}
	return out
}
