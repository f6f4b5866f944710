package ballot

import "time"

// Stage is where a ballot is in its lifecycle at some instant.
type Stage string

const (
	StageNominating             Stage = "nominating"
	StageVoting                 Stage = "voting"
	StageAwaitingTermAcceptance Stage = "awaiting_term_acceptance"
	StageTermActive             Stage = "term_active"
	StageClosed                 Stage = "closed"
)

// Stage derives the lifecycle stage of b at t. Elections move through
// nominating, voting, awaiting_term_acceptance and term_active before
// closing; other ballots only vote and close.
func (b Ballot) Stage(t time.Time) Stage {
	if !b.IsElection() {
		if b.ActiveAt(t) {
			return StageVoting
		}
		return StageClosed
	}
	switch {
	case b.InNominations(t):
		return StageNominating
	case b.ActiveAt(t):
		return StageVoting
	case b.TermStartsAt != nil && b.TermStartsAt.After(t):
		return StageAwaitingTermAcceptance
	case b.TermEndsAt != nil && b.TermEndsAt.After(t):
		return StageTermActive
	default:
		return StageClosed
	}
}
