package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/orgvote/internal/ballot"
	"github.com/dmitrijs2005/orgvote/internal/common"
	"github.com/dmitrijs2005/orgvote/internal/dbx"
	"github.com/dmitrijs2005/orgvote/internal/logging"
	"github.com/dmitrijs2005/orgvote/internal/tally"
)

// VoteService records votes and tallies them.
type VoteService struct {
	deps Deps
}

func NewVoteService(deps Deps) *VoteService {
	return &VoteService{deps: deps.withDefaults()}
}

// Cast records userID's choices on a ballot, replacing any earlier vote by
// the same user. The voting deadline is checked at now and again at the
// commit instant against the locked ballot row; a late commit rolls back and
// the earlier vote stays.
func (s *VoteService) Cast(ctx context.Context, ballotID, userID string, candidateIDs []string, now time.Time) (string, error) {
	ctx = logging.WithFields(ctx, "ballot_id", ballotID, "user_id", userID)
	b, spec, err := ballotSpec(ctx, s.deps, s.deps.DB, ballotID)
	if err != nil {
		return "", err
	}

	var errs common.ValidationErrors
	org, ok, err := s.deps.Membership.OrgOf(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("error checking membership: %w", err)
	}
	if !ok || org != b.OrgID {
		errs.Add("user_id", common.ErrUserNotInOrg, userID)
	}
	errs.Merge(tally.ValidateVote(spec, candidateIDs, now))
	if err := errs.Err(); err != nil {
		s.deps.Logger.Info(ctx, "vote rejected", "event", "vote_rejected", "error", err)
		return "", err
	}

	v := tally.Vote{
		ID:           s.deps.IDs.NewID(),
		BallotID:     ballotID,
		UserID:       userID,
		CandidateIDs: candidateIDs,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// Locking the ballot row makes a concurrent reschedule either visible
	// here or wait for this commit.
	write := func(ctx context.Context, tx dbx.DBTX) error {
		locked, err := s.deps.Repos.Ballots(tx).GetForUpdate(ctx, ballotID)
		if err != nil {
			return err
		}
		spec.VotingEndsAt = locked.VotingEndsAt
		if err := tally.CheckOpen(spec, now); err != nil {
			return err
		}
		return s.deps.Repos.Votes(tx).Upsert(ctx, &v)
	}
	guard := func(ctx context.Context, tx dbx.DBTX) error {
		return tally.CheckOpen(spec, s.deps.Clock.Now())
	}
	if err := dbx.WithGuardedTx(ctx, s.deps.DB, serializable, write, guard); err != nil {
		return "", err
	}

	s.deps.Logger.Info(ctx, "vote cast", "event", "vote_cast", "vote_id", v.ID)
	return v.ID, nil
}

// Get returns userID's current vote on a ballot, or common.ErrorNotFound.
func (s *VoteService) Get(ctx context.Context, ballotID, userID string) (*tally.Vote, error) {
	return s.deps.Repos.Votes(s.deps.DB).Get(ctx, ballotID, userID)
}

// Results tallies the committed votes of a ballot.
func (s *VoteService) Results(ctx context.Context, ballotID string) ([]tally.Result, error) {
	_, spec, err := ballotSpec(ctx, s.deps, s.deps.DB, ballotID)
	if err != nil {
		return nil, err
	}
	votes, err := s.deps.Repos.Votes(s.deps.DB).ListByBallot(ctx, ballotID)
	if err != nil {
		return nil, err
	}
	return tally.Results(spec.CandidateIDs, votes), nil
}

// Winners returns the results that win a seat. An election fills as many
// seats as a voter may choose candidates.
func (s *VoteService) Winners(ctx context.Context, ballotID string) ([]tally.Result, error) {
	_, spec, err := ballotSpec(ctx, s.deps, s.deps.DB, ballotID)
	if err != nil {
		return nil, err
	}
	votes, err := s.deps.Repos.Votes(s.deps.DB).ListByBallot(ctx, ballotID)
	if err != nil {
		return nil, err
	}
	return tally.Winners(tally.Results(spec.CandidateIDs, votes), spec.MaxCandidateIDsPerVote), nil
}

// ballotSpec loads a ballot and the candidate set a vote is checked against.
func ballotSpec(ctx context.Context, deps Deps, db dbx.DBTX, ballotID string) (*ballot.Ballot, tally.BallotSpec, error) {
	b, err := deps.Repos.Ballots(db).Get(ctx, ballotID)
	if err != nil {
		return nil, tally.BallotSpec{}, err
	}
	cs, err := deps.Repos.Candidates(db).ListByBallot(ctx, ballotID)
	if err != nil {
		return nil, tally.BallotSpec{}, err
	}
	spec := tally.BallotSpec{
		CandidateIDs:           make([]string, 0, len(cs)),
		MaxCandidateIDsPerVote: b.MaxCandidateIDsPerVote,
		VotingEndsAt:           b.VotingEndsAt,
	}
	for _, c := range cs {
		spec.CandidateIDs = append(spec.CandidateIDs, c.ID)
	}
	return b, spec, nil
}
