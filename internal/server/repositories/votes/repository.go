package votes

import (
	"context"

	"github.com/dmitrijs2005/orgvote/internal/tally"
)

type Repository interface {
	Upsert(ctx context.Context, v *tally.Vote) error
	Get(ctx context.Context, ballotID, userID string) (*tally.Vote, error)
	ListByBallot(ctx context.Context, ballotID string) ([]tally.Vote, error)
}
