package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/orgvote/internal/ballot"
	"github.com/dmitrijs2005/orgvote/internal/common"
	"github.com/dmitrijs2005/orgvote/internal/cryptox"
	"github.com/dmitrijs2005/orgvote/internal/dbx"
	"github.com/dmitrijs2005/orgvote/internal/office"
	"github.com/dmitrijs2005/orgvote/internal/server/models"
	"github.com/dmitrijs2005/orgvote/internal/termledger"
)

// CreateBallotParams is a ballot creation request as decoded from the
// outside. Office is a catalog kind string; MaxCandidateIDsPerVote is the
// raw JSON number.
type CreateBallotParams struct {
	OrgID                  string
	UserID                 string
	Category               ballot.Category
	Question               cryptox.EncryptedText
	Office                 string
	MaxCandidateIDsPerVote *float64
	NominationsEndAt       *time.Time
	VotingEndsAt           time.Time
	TermStartsAt           *time.Time
	TermEndsAt             *time.Time
	// Candidates are the option titles of a multiple_choice ballot.
	Candidates []string
}

// BallotService manages the ballot lifecycle.
type BallotService struct {
	deps      Deps
	validator ballot.Validator
}

func NewBallotService(deps Deps) *BallotService {
	deps = deps.withDefaults()
	return &BallotService{
		deps:      deps,
		validator: ballot.NewValidator(deps.Config.BallotRules()),
	}
}

// Create validates p at now and stores the ballot with its fixed
// candidates. Elections are re-checked at the commit instant: the office
// must still be open and the term must not overlap a serving single-seat
// term. It returns the new ballot id.
func (s *BallotService) Create(ctx context.Context, p CreateBallotParams, now time.Time) (string, error) {
	var errs common.ValidationErrors

	if p.UserID != "" {
		if err := s.checkMember(ctx, p.UserID, p.OrgID, common.ErrCreatorNotInOrg, "creator", &errs); err != nil {
			return "", err
		}
	}

	b := ballot.Ballot{
		ID:               s.deps.IDs.NewID(),
		OrgID:            p.OrgID,
		UserID:           p.UserID,
		Category:         p.Category,
		Question:         p.Question,
		CreatedAt:        now,
		NominationsEndAt: p.NominationsEndAt,
		VotingEndsAt:     p.VotingEndsAt,
		TermStartsAt:     p.TermStartsAt,
		TermEndsAt:       p.TermEndsAt,
	}

	maxChoices, err := ballot.ParseMaxChoices(p.MaxCandidateIDsPerVote)
	if err != nil {
		errs.Add("max_candidate_ids_per_vote", err, "must be a positive integer")
		// Already reported; keep the validator's cap rules quiet.
		maxChoices = 1
	}
	b.MaxCandidateIDsPerVote = maxChoices

	if p.Office != "" {
		o, err := office.Parse(p.Office)
		if err != nil {
			// Left invalid so the validator reports it against the category.
			o = office.Office(-1)
		}
		b.Office = &o
	}
	officeKnown := b.IsElection() && b.Office != nil && b.Office.Valid()

	var ledger termledger.Ledger
	if officeKnown {
		ledger, err = s.deps.Repos.Terms(s.deps.DB).ListByOrgOffice(ctx, b.OrgID, *b.Office)
		if err != nil {
			return "", fmt.Errorf("error loading terms: %w", err)
		}
	}
	errs.Merge(s.validator.Validate(b, ledger, now))

	candidates := s.fixedCandidates(b, p.Candidates, &errs)

	if officeKnown {
		snap, err := loadSnapshot(ctx, s.deps.Repos, s.deps.DB, b.OrgID, now)
		if err != nil {
			return "", fmt.Errorf("error loading availability: %w", err)
		}
		if !snap.IsOpen(*b.Office, now, s.deps.Config.CooldownPeriod) {
			errs.Add("office", common.ErrOfficeUnavailable, b.Office.String())
		}
	}

	if err := errs.Err(); err != nil {
		s.deps.Logger.Info(ctx, "ballot rejected", "event", "ballot_rejected", "org_id", p.OrgID, "user_id", p.UserID, "error", err)
		return "", err
	}

	write := func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.deps.Repos.Ballots(tx).Create(ctx, &b); err != nil {
			return err
		}
		repo := s.deps.Repos.Candidates(tx)
		for i := range candidates {
			if err := repo.Create(ctx, &candidates[i]); err != nil {
				return err
			}
		}
		return nil
	}
	guard := func(ctx context.Context, tx dbx.DBTX) error {
		if !b.IsElection() {
			return nil
		}
		return s.recheckElection(ctx, tx, b)
	}
	if err := dbx.WithGuardedTx(ctx, s.deps.DB, serializable, write, guard); err != nil {
		return "", err
	}

	s.deps.Logger.Info(ctx, "ballot created",
		"event", "ballot_created", "ballot_id", b.ID, "org_id", b.OrgID, "user_id", b.UserID, "category", string(b.Category))
	return b.ID, nil
}

// recheckElection re-runs the office rules for b at the commit instant,
// ignoring b's own row.
func (s *BallotService) recheckElection(ctx context.Context, tx dbx.DBTX, b ballot.Ballot) error {
	commit := s.deps.Clock.Now()
	snap, err := loadSnapshot(ctx, s.deps.Repos, tx, b.OrgID, commit, b.ID)
	if err != nil {
		return err
	}
	if !snap.IsOpen(*b.Office, commit, s.deps.Config.CooldownPeriod) {
		return common.ErrOfficeUnavailable
	}
	return ballot.CheckTermOverlap(b, snap.Terms, commit)
}

func (s *BallotService) fixedCandidates(b ballot.Ballot, titles []string, errs *common.ValidationErrors) []models.Candidate {
	mk := func(title string) models.Candidate {
		return models.Candidate{ID: s.deps.IDs.NewID(), BallotID: b.ID, Title: title, CreatedAt: b.CreatedAt}
	}

	switch b.Category {
	case ballot.YesNo:
		if len(titles) > 0 {
			errs.Add("candidates", common.ErrFieldNotAllowedForCategory, "yes/no candidates are fixed")
		}
		return []models.Candidate{mk(common.Yes), mk(common.No)}
	case ballot.MultipleChoice:
		if len(titles) < 2 {
			errs.Add("candidates", common.ErrMissingField, "at least two options are required")
		}
		seen := make(map[string]bool, len(titles))
		out := make([]models.Candidate, 0, len(titles))
		for _, t := range titles {
			s.checkTitle(t, errs)
			if seen[t] {
				errs.Add("candidates", common.ErrDuplicateCandidate, t)
			}
			seen[t] = true
			out = append(out, mk(t))
		}
		return out
	case ballot.Election:
		if len(titles) > 0 {
			errs.Add("candidates", common.ErrFieldNotAllowedForCategory, "election candidates come from nominations")
		}
	}
	return nil
}

func (s *BallotService) checkTitle(title string, errs *common.ValidationErrors) {
	switch max := s.deps.Config.MaxCandidateTitleLength; {
	case title == "":
		errs.Add("candidates", common.ErrMissingField, "empty title")
	case max > 0 && len(title) > max:
		errs.Add("candidates", common.ErrTextTooLong, fmt.Sprintf("length %d, max %d", len(title), max))
	}
}

// checkMember records kind against field when userID is not in orgID.
func (s *BallotService) checkMember(ctx context.Context, userID, orgID string, kind error, field string, errs *common.ValidationErrors) error {
	org, ok, err := s.deps.Membership.OrgOf(ctx, userID)
	if err != nil {
		return fmt.Errorf("error checking membership: %w", err)
	}
	if !ok || org != orgID {
		errs.Add(field, kind, userID)
	}
	return nil
}

// Get returns the ballot or common.ErrorNotFound.
func (s *BallotService) Get(ctx context.Context, id string) (*ballot.Ballot, error) {
	return s.deps.Repos.Ballots(s.deps.DB).Get(ctx, id)
}

// Reschedule replaces the temporal fields of a ballot after running the
// full validator at now. The single-seat overlap rule is re-checked at the
// commit instant.
func (s *BallotService) Reschedule(ctx context.Context, id string, sched ballot.Schedule, now time.Time) error {
	var updated ballot.Ballot

	write := func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.deps.Repos.Ballots(tx)
		b, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		updated = b.WithSchedule(sched)

		var ledger termledger.Ledger
		if updated.IsElection() && updated.Office != nil && updated.Office.Valid() {
			ledger, err = s.deps.Repos.Terms(tx).ListByOrgOffice(ctx, updated.OrgID, *updated.Office)
			if err != nil {
				return err
			}
		}
		if err := s.validator.Validate(updated, ledger, now); err != nil {
			return err
		}
		return repo.UpdateSchedule(ctx, id, sched)
	}
	guard := func(ctx context.Context, tx dbx.DBTX) error {
		if !updated.IsElection() || updated.Office == nil {
			return nil
		}
		ledger, err := s.deps.Repos.Terms(tx).ListByOrgOffice(ctx, updated.OrgID, *updated.Office)
		if err != nil {
			return err
		}
		return ballot.CheckTermOverlap(updated, ledger, s.deps.Clock.Now())
	}

	if err := dbx.WithGuardedTx(ctx, s.deps.DB, serializable, write, guard); err != nil {
		return err
	}
	s.deps.Logger.Info(ctx, "ballot rescheduled", "event", "ballot_rescheduled", "ballot_id", id)
	return nil
}

// Delete removes a ballot together with its candidates and votes.
func (s *BallotService) Delete(ctx context.Context, id string) error {
	if err := s.deps.Repos.Ballots(s.deps.DB).Delete(ctx, id); err != nil {
		return err
	}
	s.deps.Logger.Info(ctx, "ballot deleted", "event", "ballot_deleted", "ballot_id", id)
	return nil
}

// Nominate adds a candidate for nomineeID to an election that is still in
// nominations at now and at the commit instant. It returns the candidate id.
func (s *BallotService) Nominate(ctx context.Context, ballotID, nomineeID, title string, now time.Time) (string, error) {
	var errs common.ValidationErrors
	s.checkTitle(title, &errs)
	if err := errs.Err(); err != nil {
		return "", err
	}

	c := models.Candidate{ID: s.deps.IDs.NewID(), BallotID: ballotID, UserID: nomineeID, Title: title, CreatedAt: now}
	var b *ballot.Ballot

	write := func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		b, err = s.deps.Repos.Ballots(tx).GetForUpdate(ctx, ballotID)
		if err != nil {
			return err
		}
		if !b.InNominations(now) {
			return common.ErrNotInNominations
		}
		var member common.ValidationErrors
		if err := s.checkMember(ctx, nomineeID, b.OrgID, common.ErrUserNotInOrg, "nominee", &member); err != nil {
			return err
		}
		if err := member.Err(); err != nil {
			return err
		}
		return s.deps.Repos.Candidates(tx).Create(ctx, &c)
	}
	guard := func(ctx context.Context, tx dbx.DBTX) error {
		if !b.InNominations(s.deps.Clock.Now()) {
			return common.ErrNotInNominations
		}
		return nil
	}

	if err := dbx.WithGuardedTx(ctx, s.deps.DB, serializable, write, guard); err != nil {
		return "", err
	}
	s.deps.Logger.Info(ctx, "candidate nominated",
		"event", "candidate_nominated", "ballot_id", ballotID, "user_id", nomineeID, "candidate_id", c.ID)
	return c.ID, nil
}

// List returns the ids of the org's ballots matching q, in q's order.
func (s *BallotService) List(ctx context.Context, orgID string, q ballot.ListQuery, now time.Time) ([]string, error) {
	q = q.Normalize(now)
	bs, err := s.deps.Repos.Ballots(s.deps.DB).List(ctx, orgID, q.Filter)
	if err != nil {
		return nil, err
	}
	return ballot.IDs(q.Order(bs, now)), nil
}

// Candidates lists a ballot's options in id order.
func (s *BallotService) Candidates(ctx context.Context, ballotID string) ([]models.Candidate, error) {
	if _, err := s.deps.Repos.Ballots(s.deps.DB).Get(ctx, ballotID); err != nil {
		return nil, err
	}
	return s.deps.Repos.Candidates(s.deps.DB).ListByBallot(ctx, ballotID)
}
