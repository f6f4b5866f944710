package terms

import (
	"context"

	"github.com/dmitrijs2005/orgvote/internal/office"
	"github.com/dmitrijs2005/orgvote/internal/termledger"
)

type Repository interface {
	Create(ctx context.Context, t *termledger.Term) error
	ListByOrg(ctx context.Context, orgID string) (termledger.Ledger, error)
	ListByOrgOffice(ctx context.Context, orgID string, o office.Office) (termledger.Ledger, error)
	Delete(ctx context.Context, id string) error
}
