package ballot

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/orgvote/internal/common"
	"github.com/dmitrijs2005/orgvote/internal/cryptox"
	"github.com/dmitrijs2005/orgvote/internal/office"
)

const (
	DefaultMaxQuestionLength       = 140
	DefaultMinTermAcceptancePeriod = 24 * time.Hour
)

// Rules are the tunable limits applied by the Validator.
type Rules struct {
	MaxQuestionLength       int
	MinTermAcceptancePeriod time.Duration
}

// DefaultRules returns the stock limits.
func DefaultRules() Rules {
	return Rules{
		MaxQuestionLength:       DefaultMaxQuestionLength,
		MinTermAcceptancePeriod: DefaultMinTermAcceptancePeriod,
	}
}

// TermLookup answers which term currently serves an office.
// termledger.Ledger implements it.
type TermLookup interface {
	CurrentTermEnd(o office.Office, now time.Time) (time.Time, bool)
}

// Validator checks a ballot against every category and temporal rule.
type Validator struct {
	Rules Rules
	Codec cryptox.TextCodec
}

// NewValidator returns a Validator using the AES-GCM codec.
func NewValidator(rules Rules) Validator {
	return Validator{Rules: rules, Codec: cryptox.Codec{}}
}

// Validate returns nil or common.ValidationErrors listing every violated
// rule. terms may be nil, in which case the single-seat overlap rule is
// skipped. The overlap rule is evaluated against the terms serving at now.
func (v Validator) Validate(b Ballot, terms TermLookup, now time.Time) error {
	var errs common.ValidationErrors

	if b.UserID == "" {
		errs.Add("user", common.ErrMissingField, "")
	}
	if b.CreatedAt.IsZero() {
		errs.Add("created_at", common.ErrMissingField, "")
	}

	switch {
	case b.Category == "":
		errs.Add("category", common.ErrMissingField, "")
	case !b.Category.Valid():
		errs.Add("category", common.ErrInvalidCategory, string(b.Category))
	}

	v.validateQuestion(b, &errs)

	if b.VotingEndsAt.IsZero() {
		errs.Add("voting_ends_at", common.ErrMissingField, "")
	}

	if b.IsElection() {
		v.validateElection(b, terms, now, &errs)
	} else {
		validateNonElection(b, &errs)
	}

	switch {
	case b.MaxCandidateIDsPerVote < 1:
		errs.Add("max_candidate_ids_per_vote", common.ErrInvalidMaxChoices, "must be at least 1")
	case b.MaxCandidateIDsPerVote > 1 && b.SingleChoice():
		errs.Add("max_candidate_ids_per_vote", common.ErrInvalidMaxChoices, "must be 1 for this ballot")
	}

	return errs.Err()
}

func (v Validator) validateQuestion(b Ballot, errs *common.ValidationErrors) {
	if b.Question.Blank() {
		errs.Add("question", common.ErrMissingField, "")
		return
	}
	codec := v.Codec
	if codec == nil {
		codec = cryptox.Codec{}
	}
	n, err := codec.DecodedLength(b.Question)
	if err != nil {
		errs.Add("question", err, "")
		return
	}
	if max := v.Rules.MaxQuestionLength; max > 0 && n > max {
		errs.Add("question", common.ErrTextTooLong, fmt.Sprintf("length %d, max %d", n, max))
	}
}

func validateNonElection(b Ballot, errs *common.ValidationErrors) {
	if b.Office != nil {
		errs.Add("office", common.ErrFieldNotAllowedForCategory, "")
	}
	if b.NominationsEndAt != nil {
		errs.Add("nominations_end_at", common.ErrFieldNotAllowedForCategory, "")
	}
	if b.TermStartsAt != nil {
		errs.Add("term_starts_at", common.ErrFieldNotAllowedForCategory, "")
	}
	if b.TermEndsAt != nil {
		errs.Add("term_ends_at", common.ErrFieldNotAllowedForCategory, "")
	}

	if !b.VotingEndsAt.IsZero() && !b.CreatedAt.IsZero() && !b.VotingEndsAt.After(b.CreatedAt) {
		errs.Add("voting_ends_at", common.ErrTemporalOrderingViolation, "must be after created_at")
	}
}

func (v Validator) validateElection(b Ballot, terms TermLookup, now time.Time, errs *common.ValidationErrors) {
	switch {
	case b.Office == nil:
		errs.Add("office", common.ErrMissingField, "")
	case !b.Office.Valid():
		errs.Add("office", common.ErrUnknownOffice, b.Office.String())
	}
	if b.NominationsEndAt == nil {
		errs.Add("nominations_end_at", common.ErrMissingField, "")
	}
	if b.TermStartsAt == nil {
		errs.Add("term_starts_at", common.ErrMissingField, "")
	}
	if b.TermEndsAt == nil {
		errs.Add("term_ends_at", common.ErrMissingField, "")
	}

	if n := b.NominationsEndAt; n != nil {
		if !b.CreatedAt.IsZero() && !n.After(b.CreatedAt) {
			errs.Add("nominations_end_at", common.ErrTemporalOrderingViolation, "must be after created_at")
		}
		if !b.VotingEndsAt.IsZero() && !b.VotingEndsAt.After(*n) {
			errs.Add("voting_ends_at", common.ErrTemporalOrderingViolation, "must be after nominations_end_at")
		}
	}

	if s := b.TermStartsAt; s != nil {
		earliest := b.VotingEndsAt.Add(v.Rules.MinTermAcceptancePeriod)
		if !b.VotingEndsAt.IsZero() && s.Before(earliest) {
			errs.Add("term_starts_at", common.ErrTemporalOrderingViolation,
				fmt.Sprintf("must be at least %s after voting_ends_at", v.Rules.MinTermAcceptancePeriod))
		}
		if e := b.TermEndsAt; e != nil && !e.After(*s) {
			errs.Add("term_ends_at", common.ErrTemporalOrderingViolation, "must be after term_starts_at")
		}
		if err := CheckTermOverlap(b, terms, now); err != nil {
			errs.Add("term_starts_at", err, "")
		}
	}
}

// CheckTermOverlap returns ErrOverlappingTermForSingleSeatOffice when b is
// an election for a single-seat office whose term would start before the
// serving term ends. It is the rule re-run at commit time.
func CheckTermOverlap(b Ballot, terms TermLookup, now time.Time) error {
	if terms == nil || !b.IsElection() || b.Office == nil || !b.Office.Valid() ||
		b.Office.MultiSeat() || b.TermStartsAt == nil {
		return nil
	}
	end, ok := terms.CurrentTermEnd(*b.Office, now)
	if ok && b.TermStartsAt.Before(end) {
		return common.ErrOverlappingTermForSingleSeatOffice
	}
	return nil
}
