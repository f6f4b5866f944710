package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/orgvote/internal/ballot"
	"github.com/dmitrijs2005/orgvote/internal/common"
	"github.com/dmitrijs2005/orgvote/internal/dbx"
	"github.com/dmitrijs2005/orgvote/internal/tally"
	"github.com/dmitrijs2005/orgvote/internal/termledger"
)

// TermService turns election wins into terms of office.
type TermService struct {
	deps Deps
}

func NewTermService(deps Deps) *TermService {
	return &TermService{deps: deps.withDefaults()}
}

// Accept records userID's term for the office of an election they won. It
// is allowed only between the end of voting and the start of the term. For
// single-seat offices a concurrently accepted overlapping term rolls the
// transaction back.
func (s *TermService) Accept(ctx context.Context, ballotID, userID string, now time.Time) (string, error) {
	var (
		b *ballot.Ballot
		t termledger.Term
	)

	write := func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		b, err = s.deps.Repos.Ballots(tx).GetForUpdate(ctx, ballotID)
		if err != nil {
			return err
		}
		if !b.IsElection() || b.Office == nil || !b.InTermAcceptancePeriod(now) {
			return common.ErrNotInTermAcceptancePeriod
		}

		cs, err := s.deps.Repos.Candidates(tx).ListByBallot(ctx, ballotID)
		if err != nil {
			return err
		}
		ids := make([]string, 0, len(cs))
		candidateID := ""
		for _, c := range cs {
			ids = append(ids, c.ID)
			if c.UserID != "" && c.UserID == userID {
				candidateID = c.ID
			}
		}
		votes, err := s.deps.Repos.Votes(tx).ListByBallot(ctx, ballotID)
		if err != nil {
			return err
		}
		results := tally.Results(ids, votes)
		if !tally.IsWinner(results, candidateID, b.MaxCandidateIDsPerVote) {
			return common.ErrNotAWinner
		}

		t = termledger.Term{
			ID:        s.deps.IDs.NewID(),
			OrgID:     b.OrgID,
			UserID:    userID,
			BallotID:  ballotID,
			Office:    *b.Office,
			StartsAt:  *b.TermStartsAt,
			EndsAt:    *b.TermEndsAt,
			CreatedAt: now,
		}
		return s.deps.Repos.Terms(tx).Create(ctx, &t)
	}
	guard := func(ctx context.Context, tx dbx.DBTX) error {
		if !b.InTermAcceptancePeriod(s.deps.Clock.Now()) {
			return common.ErrNotInTermAcceptancePeriod
		}
		if t.Office.MultiSeat() {
			return nil
		}
		ledger, err := s.deps.Repos.Terms(tx).ListByOrgOffice(ctx, t.OrgID, t.Office)
		if err != nil {
			return err
		}
		for _, other := range ledger {
			if other.ID != t.ID && other.StartsAt.Before(t.EndsAt) && t.StartsAt.Before(other.EndsAt) {
				return common.ErrOverlappingTermForSingleSeatOffice
			}
		}
		return nil
	}

	if err := dbx.WithGuardedTx(ctx, s.deps.DB, serializable, write, guard); err != nil {
		return "", err
	}
	s.deps.Logger.Info(ctx, "term accepted",
		"event", "term_accepted", "ballot_id", ballotID, "user_id", userID, "term_id", t.ID, "office", t.Office.String())
	return t.ID, nil
}

// Delete removes a term, freeing its office once the cooldown allows.
func (s *TermService) Delete(ctx context.Context, id string) error {
	if err := s.deps.Repos.Terms(s.deps.DB).Delete(ctx, id); err != nil {
		return err
	}
	s.deps.Logger.Info(ctx, "term deleted", "event", "term_deleted", "term_id", id)
	return nil
}
