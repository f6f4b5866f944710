package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/orgvote/internal/common"
	"github.com/dmitrijs2005/orgvote/internal/server/archive"
	"github.com/dmitrijs2005/orgvote/internal/tally"
)

var errNoPublisher = errors.New("no result publisher configured")

// ResultService archives final tallies.
type ResultService struct {
	deps Deps
}

func NewResultService(deps Deps) *ResultService {
	return &ResultService{deps: deps.withDefaults()}
}

// Archive publishes the tally of a ballot whose voting has ended by now and
// returns the snapshot's location.
func (s *ResultService) Archive(ctx context.Context, ballotID string, now time.Time) (string, error) {
	if s.deps.Publisher == nil {
		return "", errNoPublisher
	}

	b, spec, err := ballotSpec(ctx, s.deps, s.deps.DB, ballotID)
	if err != nil {
		return "", err
	}
	if b.ActiveAt(now) {
		return "", common.ErrVotingStillOpen
	}
	votes, err := s.deps.Repos.Votes(s.deps.DB).ListByBallot(ctx, ballotID)
	if err != nil {
		return "", err
	}

	results := tally.Results(spec.CandidateIDs, votes)
	snap := archive.Snapshot{
		BallotID:     b.ID,
		OrgID:        b.OrgID,
		Category:     string(b.Category),
		VotingEndsAt: b.VotingEndsAt,
		ArchivedAt:   now,
		VoteCount:    len(votes),
		InputsHash:   tally.InputsHash(votes),
		Results:      results,
		Winners:      tally.Winners(results, spec.MaxCandidateIDsPerVote),
	}
	if b.Office != nil {
		snap.Office = b.Office.String()
	}

	key, err := s.deps.Publisher.Publish(ctx, snap)
	if err != nil {
		return "", err
	}
	s.deps.Logger.Info(ctx, "results archived",
		"event", "results_archived", "ballot_id", ballotID, "key", key, "inputs_hash", snap.InputsHash)
	return key, nil
}
