package ballot

import (
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/orgvote/internal/common"
	"github.com/dmitrijs2005/orgvote/internal/cryptox"
	"github.com/dmitrijs2005/orgvote/internal/office"
	"github.com/dmitrijs2005/orgvote/internal/termledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func question(n int) cryptox.EncryptedText {
	return cryptox.EncryptedText{
		Ciphertext: make([]byte, n),
		Nonce:      make([]byte, 12),
		AuthTag:    make([]byte, 16),
	}
}

func ptr[T any](v T) *T { return &v }

func measure() Ballot {
	return Ballot{
		ID:                     "m1",
		OrgID:                  "org",
		UserID:                 "u1",
		Category:               YesNo,
		Question:               question(20),
		MaxCandidateIDsPerVote: 1,
		CreatedAt:              t0,
		VotingEndsAt:           t0.Add(time.Hour),
	}
}

func election(o office.Office) Ballot {
	return Ballot{
		ID:                     "e1",
		OrgID:                  "org",
		UserID:                 "u1",
		Category:               Election,
		Question:               question(20),
		MaxCandidateIDsPerVote: 1,
		CreatedAt:              t0,
		Office:                 ptr(o),
		NominationsEndAt:       ptr(t0.Add(24 * time.Hour)),
		VotingEndsAt:           t0.Add(48 * time.Hour),
		TermStartsAt:           ptr(t0.Add(72 * time.Hour)),
		TermEndsAt:             ptr(t0.Add(72*time.Hour + 365*24*time.Hour)),
	}
}

func kinds(t *testing.T, err error) []error {
	t.Helper()
	if err == nil {
		return nil
	}
	var ve common.ValidationErrors
	require.True(t, errors.As(err, &ve), "expected ValidationErrors, got %T", err)
	out := make([]error, 0, len(ve))
	for _, e := range ve {
		out = append(out, e.Kind)
	}
	return out
}

func TestValidate_ValidBallots(t *testing.T) {
	v := NewValidator(DefaultRules())

	assert.NoError(t, v.Validate(measure(), nil, t0))
	assert.NoError(t, v.Validate(election(office.President), termledger.Ledger{}, t0))

	mc := measure()
	mc.Category = MultipleChoice
	mc.MaxCandidateIDsPerVote = 3
	assert.NoError(t, v.Validate(mc, nil, t0))

	st := election(office.Steward)
	st.MaxCandidateIDsPerVote = 3
	assert.NoError(t, v.Validate(st, nil, t0))
}

func TestValidate_Rules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Ballot)
		base   func() Ballot
		want   error
	}{
		{
			name:   "missing question",
			base:   measure,
			mutate: func(b *Ballot) { b.Question = cryptox.EncryptedText{} },
			want:   common.ErrMissingField,
		},
		{
			name:   "missing creator",
			base:   measure,
			mutate: func(b *Ballot) { b.UserID = "" },
			want:   common.ErrMissingField,
		},
		{
			name:   "missing category",
			base:   measure,
			mutate: func(b *Ballot) { b.Category = "" },
			want:   common.ErrMissingField,
		},
		{
			name:   "missing voting end",
			base:   measure,
			mutate: func(b *Ballot) { b.VotingEndsAt = time.Time{} },
			want:   common.ErrMissingField,
		},
		{
			name:   "unknown category",
			base:   measure,
			mutate: func(b *Ballot) { b.Category = "referendum" },
			want:   common.ErrInvalidCategory,
		},
		{
			name:   "question too long",
			base:   measure,
			mutate: func(b *Ballot) { b.Question = question(DefaultMaxQuestionLength + 1) },
			want:   common.ErrTextTooLong,
		},
		{
			name:   "malformed question",
			base:   measure,
			mutate: func(b *Ballot) { b.Question.Nonce = []byte{1} },
			want:   cryptox.ErrMalformedText,
		},
		{
			name:   "office on measure",
			base:   measure,
			mutate: func(b *Ballot) { b.Office = ptr(office.Treasurer) },
			want:   common.ErrFieldNotAllowedForCategory,
		},
		{
			name:   "term dates on measure",
			base:   measure,
			mutate: func(b *Ballot) { b.TermEndsAt = ptr(t0.Add(1000 * time.Hour)) },
			want:   common.ErrFieldNotAllowedForCategory,
		},
		{
			name:   "measure voting ends at creation",
			base:   measure,
			mutate: func(b *Ballot) { b.VotingEndsAt = b.CreatedAt },
			want:   common.ErrTemporalOrderingViolation,
		},
		{
			name:   "election missing office",
			base:   func() Ballot { return election(office.President) },
			mutate: func(b *Ballot) { b.Office = nil },
			want:   common.ErrMissingField,
		},
		{
			name:   "election missing nominations end",
			base:   func() Ballot { return election(office.President) },
			mutate: func(b *Ballot) { b.NominationsEndAt = nil },
			want:   common.ErrMissingField,
		},
		{
			name:   "election unknown office",
			base:   func() Ballot { return election(office.President) },
			mutate: func(b *Ballot) { b.Office = ptr(office.Office(42)) },
			want:   common.ErrUnknownOffice,
		},
		{
			name:   "nominations end at creation",
			base:   func() Ballot { return election(office.President) },
			mutate: func(b *Ballot) { b.NominationsEndAt = ptr(b.CreatedAt) },
			want:   common.ErrTemporalOrderingViolation,
		},
		{
			name:   "voting ends with nominations",
			base:   func() Ballot { return election(office.President) },
			mutate: func(b *Ballot) { b.VotingEndsAt = *b.NominationsEndAt },
			want:   common.ErrTemporalOrderingViolation,
		},
		{
			name: "term starts inside acceptance period",
			base: func() Ballot { return election(office.President) },
			mutate: func(b *Ballot) {
				b.TermStartsAt = ptr(b.VotingEndsAt.Add(DefaultMinTermAcceptancePeriod - time.Nanosecond))
			},
			want: common.ErrTemporalOrderingViolation,
		},
		{
			name:   "term ends when it starts",
			base:   func() Ballot { return election(office.President) },
			mutate: func(b *Ballot) { b.TermEndsAt = ptr(*b.TermStartsAt) },
			want:   common.ErrTemporalOrderingViolation,
		},
		{
			name:   "zero choices",
			base:   measure,
			mutate: func(b *Ballot) { b.MaxCandidateIDsPerVote = 0 },
			want:   common.ErrInvalidMaxChoices,
		},
		{
			name:   "yes/no with two choices",
			base:   measure,
			mutate: func(b *Ballot) { b.MaxCandidateIDsPerVote = 2 },
			want:   common.ErrInvalidMaxChoices,
		},
		{
			name:   "single-seat election with two choices",
			base:   func() Ballot { return election(office.Secretary) },
			mutate: func(b *Ballot) { b.MaxCandidateIDsPerVote = 2 },
			want:   common.ErrInvalidMaxChoices,
		},
	}

	v := NewValidator(DefaultRules())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.base()
			tt.mutate(&b)

			err := v.Validate(b, nil, t0)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidate_AccumulatesEveryViolation(t *testing.T) {
	b := measure()
	b.UserID = ""
	b.Office = ptr(office.Founder)
	b.MaxCandidateIDsPerVote = 0

	err := NewValidator(DefaultRules()).Validate(b, nil, t0)

	assert.ElementsMatch(t, []error{
		common.ErrMissingField,
		common.ErrFieldNotAllowedForCategory,
		common.ErrInvalidMaxChoices,
	}, kinds(t, err))
}

func TestValidate_TermAcceptanceBoundary(t *testing.T) {
	v := NewValidator(DefaultRules())
	b := election(office.Treasurer)
	b.TermStartsAt = ptr(b.VotingEndsAt.Add(DefaultMinTermAcceptancePeriod))
	b.TermEndsAt = ptr(b.TermStartsAt.Add(time.Hour))

	assert.NoError(t, v.Validate(b, nil, t0), "exactly the minimum period is allowed")
}

func TestValidate_SingleSeatOverlap(t *testing.T) {
	v := NewValidator(DefaultRules())
	b := election(office.President)
	serving := termledger.Ledger{{
		ID:       "t1",
		Office:   office.President,
		StartsAt: t0.Add(-time.Hour),
		EndsAt:   b.TermStartsAt.Add(time.Second),
	}}

	err := v.Validate(b, serving, t0)
	assert.ErrorIs(t, err, common.ErrOverlappingTermForSingleSeatOffice)

	// Once the serving term is over at validation time the rule no longer applies.
	assert.NoError(t, v.Validate(b, serving, b.TermStartsAt.Add(2*time.Second)))

	adjacent := termledger.Ledger{{ID: "t1", Office: office.President, StartsAt: t0, EndsAt: *b.TermStartsAt}}
	assert.NoError(t, v.Validate(b, adjacent, t0))

	st := election(office.Steward)
	stServing := termledger.Ledger{{ID: "t2", Office: office.Steward, StartsAt: t0, EndsAt: t0.Add(10000 * time.Hour)}}
	assert.NoError(t, v.Validate(st, stServing, t0))
}

func TestValidate_CustomQuestionLength(t *testing.T) {
	v := NewValidator(Rules{MaxQuestionLength: 10, MinTermAcceptancePeriod: time.Hour})

	b := measure()
	b.Question = question(10)
	assert.NoError(t, v.Validate(b, nil, t0))

	b.Question = question(11)
	assert.ErrorIs(t, v.Validate(b, nil, t0), common.ErrTextTooLong)
}

func TestParseMaxChoices(t *testing.T) {
	n, err := ParseMaxChoices(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = ParseMaxChoices(ptr(3.0))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	for _, bad := range []float64{0, -1, 1.5} {
		_, err := ParseMaxChoices(ptr(bad))
		assert.ErrorIs(t, err, common.ErrInvalidMaxChoices, "value %v", bad)
	}
}

func TestScheduleRoundTrip(t *testing.T) {
	b := election(office.Trustee)
	s := b.Schedule()
	s.VotingEndsAt = s.VotingEndsAt.Add(time.Hour)

	got := b.WithSchedule(s)

	assert.Equal(t, b.VotingEndsAt.Add(time.Hour), got.VotingEndsAt)
	assert.Equal(t, b.Office, got.Office)
	assert.Equal(t, b.CreatedAt, got.CreatedAt)
}
