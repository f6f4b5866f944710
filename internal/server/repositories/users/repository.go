package users

import (
	"context"

	"github.com/dmitrijs2005/orgvote/internal/server/models"
)

type Repository interface {
	CreateOrg(ctx context.Context, org *models.Org) (*models.Org, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	OrgOf(ctx context.Context, userID string) (string, bool, error)
}
