package ballot

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/orgvote/internal/office"
	"github.com/stretchr/testify/assert"
)

func TestStage_Election(t *testing.T) {
	b := election(office.President)

	tests := []struct {
		at   time.Time
		want Stage
	}{
		{t0, StageNominating},
		{*b.NominationsEndAt, StageVoting},
		{b.VotingEndsAt, StageAwaitingTermAcceptance},
		{*b.TermStartsAt, StageTermActive},
		{*b.TermEndsAt, StageClosed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, b.Stage(tt.at), "at %s", tt.at)
	}
}

func TestStage_Measure(t *testing.T) {
	b := measure()

	assert.Equal(t, StageVoting, b.Stage(t0))
	assert.Equal(t, StageClosed, b.Stage(b.VotingEndsAt))
}
