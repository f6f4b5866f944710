package candidates

import (
	"context"

	"github.com/dmitrijs2005/orgvote/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, c *models.Candidate) error
	ListByBallot(ctx context.Context, ballotID string) ([]models.Candidate, error)
}
