// Package termledger records who holds, or held, which office and answers
// occupancy questions over a snapshot of those terms.
package termledger

import (
	"time"

	"github.com/dmitrijs2005/orgvote/internal/office"
)

// Term is one user's tenure in one office.
type Term struct {
	ID        string
	OrgID     string
	UserID    string
	BallotID  string
	Office    office.Office
	StartsAt  time.Time
	EndsAt    time.Time
	CreatedAt time.Time
}

// Ledger is a snapshot of an org's terms.
type Ledger []Term

// ForOffice returns the terms held in o.
func (l Ledger) ForOffice(o office.Office) Ledger {
	var out Ledger
	for _, t := range l {
		if t.Office == o {
			out = append(out, t)
		}
	}
	return out
}

// ActiveAt returns the terms being served at t.
func (l Ledger) ActiveAt(t time.Time) Ledger {
	var out Ledger
	for _, term := range l {
		if !term.StartsAt.After(t) && term.EndsAt.After(t) {
			out = append(out, term)
		}
	}
	return out
}

// CurrentTermEnd returns the latest end among terms of o that have not ended
// at now.
func (l Ledger) CurrentTermEnd(o office.Office, now time.Time) (time.Time, bool) {
	var end time.Time
	found := false
	for _, t := range l {
		if t.Office != o || !t.EndsAt.After(now) {
			continue
		}
		if !found || t.EndsAt.After(end) {
			end = t.EndsAt
			found = true
		}
	}
	return end, found
}

// Occupied reports whether o is still held, or lying fallow, at `at`: some
// term of o has ends_at+cooldown after at. Multi-seat offices are never
// occupied.
func (l Ledger) Occupied(o office.Office, at time.Time, cooldown time.Duration) bool {
	if o.MultiSeat() {
		return false
	}
	for _, t := range l {
		if t.Office == o && t.EndsAt.Add(cooldown).After(at) {
			return true
		}
	}
	return false
}
