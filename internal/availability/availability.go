// Package availability decides which offices an org may hold an election
// for at a given instant. It works on an explicit snapshot of the org's
// ballots and terms and never touches storage.
package availability

import (
	"time"

	"github.com/dmitrijs2005/orgvote/internal/ballot"
	"github.com/dmitrijs2005/orgvote/internal/office"
	"github.com/dmitrijs2005/orgvote/internal/termledger"
)

// DefaultCooldownPeriod is how long an office lies fallow after a term ends.
const DefaultCooldownPeriod = 60 * 24 * time.Hour

// Snapshot is the org state availability is computed from.
type Snapshot struct {
	Ballots []ballot.Ballot
	Terms   termledger.Ledger
}

// Entry is the availability of one office.
type Entry struct {
	Office office.Office `json:"office"`
	Open   bool          `json:"open"`
}

// ActiveElectionFor reports whether an election targeting o is still open
// for voting at `at`.
func (s Snapshot) ActiveElectionFor(o office.Office, at time.Time) bool {
	for _, b := range s.Ballots {
		if b.IsElection() && b.Office != nil && *b.Office == o && b.ActiveAt(at) {
			return true
		}
	}
	return false
}

// IsOpen reports whether o is free for a new election at `at`: no election
// targeting it is still voting, and it is neither held nor cooling down.
func (s Snapshot) IsOpen(o office.Office, at time.Time, cooldown time.Duration) bool {
	if s.ActiveElectionFor(o, at) {
		return false
	}
	return !s.Terms.Occupied(o, at, cooldown)
}

// Compute returns one entry per catalog office, in catalog order.
func Compute(s Snapshot, at time.Time, cooldown time.Duration) []Entry {
	kinds := office.Kinds()
	out := make([]Entry, 0, len(kinds))
	for _, o := range kinds {
		out = append(out, Entry{Office: o, Open: s.IsOpen(o, at, cooldown)})
	}
	return out
}

// For returns the entry of the office named kind. It fails with
// common.ErrUnknownOffice when kind is not a catalog kind.
func For(s Snapshot, at time.Time, cooldown time.Duration, kind string) (Entry, error) {
	o, err := office.Parse(kind)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Office: o, Open: s.IsOpen(o, at, cooldown)}, nil
}
