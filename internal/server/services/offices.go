package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/orgvote/internal/availability"
)

// OfficeService answers which offices an org may hold elections for.
type OfficeService struct {
	deps Deps
}

func NewOfficeService(deps Deps) *OfficeService {
	return &OfficeService{deps: deps.withDefaults()}
}

// Availability lists every office of the catalog with its open flag at now.
// A non-empty office narrows the answer to that kind; an unknown kind fails
// with common.ErrUnknownOffice.
func (s *OfficeService) Availability(ctx context.Context, orgID string, now time.Time, office string) ([]availability.Entry, error) {
	snap, err := loadSnapshot(ctx, s.deps.Repos, s.deps.DB, orgID, now)
	if err != nil {
		return nil, err
	}
	if office == "" {
		return availability.Compute(snap, now, s.deps.Config.CooldownPeriod), nil
	}
	e, err := availability.For(snap, now, s.deps.Config.CooldownPeriod, office)
	if err != nil {
		return nil, err
	}
	return []availability.Entry{e}, nil
}
