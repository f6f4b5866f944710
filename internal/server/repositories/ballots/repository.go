package ballots

import (
	"context"
	"time"

	"github.com/dmitrijs2005/orgvote/internal/ballot"
)

type Repository interface {
	Create(ctx context.Context, b *ballot.Ballot) error
	Get(ctx context.Context, id string) (*ballot.Ballot, error)
	GetForUpdate(ctx context.Context, id string) (*ballot.Ballot, error)
	UpdateSchedule(ctx context.Context, id string, s ballot.Schedule) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, orgID string, f ballot.Filter) ([]ballot.Ballot, error)
	ActiveElections(ctx context.Context, orgID string, at time.Time) ([]ballot.Ballot, error)
}
