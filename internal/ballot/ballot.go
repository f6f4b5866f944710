// Package ballot holds the Ballot entity, the validator that guards every
// mutation of it, and the time-windowed predicates and orderings used to
// decide which ballots are active.
//
// Nothing here reads the wall clock: every rule takes the reference instant
// as an argument, so callers can re-run the same checks at commit time.
package ballot

import (
	"math"
	"time"

	"github.com/dmitrijs2005/orgvote/internal/common"
	"github.com/dmitrijs2005/orgvote/internal/cryptox"
	"github.com/dmitrijs2005/orgvote/internal/office"
)

// Category is the kind of question a ballot asks.
type Category string

const (
	YesNo          Category = "yes_no"
	MultipleChoice Category = "multiple_choice"
	Election       Category = "election"
)

// Categories lists every valid category.
func Categories() []Category {
	return []Category{YesNo, MultipleChoice, Election}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case YesNo, MultipleChoice, Election:
		return true
	default:
		return false
	}
}

// Ballot is a measure or an election. Election-only fields are nil on
// other categories.
type Ballot struct {
	ID       string
	OrgID    string
	UserID   string
	Category Category
	Question cryptox.EncryptedText

	MaxCandidateIDsPerVote int

	CreatedAt    time.Time
	VotingEndsAt time.Time

	Office           *office.Office
	NominationsEndAt *time.Time
	TermStartsAt     *time.Time
	TermEndsAt       *time.Time
}

// IsElection reports whether b is an election.
func (b Ballot) IsElection() bool {
	return b.Category == Election
}

// SingleChoice reports whether the choice cap of b is pinned to 1: yes/no
// ballots and elections for single-seat offices.
func (b Ballot) SingleChoice() bool {
	switch b.Category {
	case YesNo:
		return true
	case Election:
		return b.Office == nil || !b.Office.MultiSeat()
	default:
		return false
	}
}

// Schedule is the mutable temporal part of a ballot.
type Schedule struct {
	VotingEndsAt     time.Time
	NominationsEndAt *time.Time
	TermStartsAt     *time.Time
	TermEndsAt       *time.Time
}

// Schedule returns the temporal fields of b.
func (b Ballot) Schedule() Schedule {
	return Schedule{
		VotingEndsAt:     b.VotingEndsAt,
		NominationsEndAt: b.NominationsEndAt,
		TermStartsAt:     b.TermStartsAt,
		TermEndsAt:       b.TermEndsAt,
	}
}

// WithSchedule returns a copy of b carrying s.
func (b Ballot) WithSchedule(s Schedule) Ballot {
	b.VotingEndsAt = s.VotingEndsAt
	b.NominationsEndAt = s.NominationsEndAt
	b.TermStartsAt = s.TermStartsAt
	b.TermEndsAt = s.TermEndsAt
	return b
}

// ParseMaxChoices converts a decoded JSON number into a choice cap. A nil
// value means the default of 1.
func ParseMaxChoices(v *float64) (int, error) {
	if v == nil {
		return 1, nil
	}
	if *v < 1 || *v != math.Trunc(*v) || *v > math.MaxInt32 {
		return 0, common.ErrInvalidMaxChoices
	}
	return int(*v), nil
}
