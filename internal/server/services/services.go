// Package services contains server-side business logic: creating and
// scheduling ballots, nominations, voting, tallying, term acceptance and
// result archiving. Every write runs in a serializable transaction and
// re-checks its time-sensitive rules at the commit instant.
package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/dmitrijs2005/orgvote/internal/availability"
	"github.com/dmitrijs2005/orgvote/internal/dbx"
	"github.com/dmitrijs2005/orgvote/internal/logging"
	"github.com/dmitrijs2005/orgvote/internal/server/archive"
	"github.com/dmitrijs2005/orgvote/internal/server/config"
	"github.com/dmitrijs2005/orgvote/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// Clock supplies the commit instant.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// IDGenerator supplies record ids.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator issues random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }

// Membership answers which org a user belongs to. ok is false for unknown
// users and users without an org.
type Membership interface {
	OrgOf(ctx context.Context, userID string) (orgID string, ok bool, err error)
}

// Publisher stores archived result snapshots and returns their location.
type Publisher interface {
	Publish(ctx context.Context, s archive.Snapshot) (string, error)
}

// Deps are the collaborators shared by every service.
type Deps struct {
	DB         *sql.DB
	Repos      repomanager.RepositoryManager
	Config     *config.Config
	Logger     logging.Logger
	Membership Membership
	Publisher  Publisher
	Clock      Clock
	IDs        IDGenerator
}

func (d Deps) withDefaults() Deps {
	if d.Clock == nil {
		d.Clock = SystemClock{}
	}
	if d.IDs == nil {
		d.IDs = UUIDGenerator{}
	}
	if d.Logger == nil {
		d.Logger = logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)})))
	}
	if d.Config == nil {
		d.Config = &config.Config{}
		d.Config.LoadDefaults()
	}
	if d.Membership == nil && d.Repos != nil {
		d.Membership = d.Repos.Users(d.DB)
	}
	return d
}

var serializable = &sql.TxOptions{Isolation: sql.LevelSerializable}

// loadSnapshot reads the availability inputs of an org through db. Ballots
// listed in skip are left out, so a transaction can ignore its own insert.
func loadSnapshot(ctx context.Context, repos repomanager.RepositoryManager, db dbx.DBTX, orgID string, at time.Time, skip ...string) (availability.Snapshot, error) {
	active, err := repos.Ballots(db).ActiveElections(ctx, orgID, at)
	if err != nil {
		return availability.Snapshot{}, err
	}
	ledger, err := repos.Terms(db).ListByOrg(ctx, orgID)
	if err != nil {
		return availability.Snapshot{}, err
	}

	s := availability.Snapshot{Terms: ledger}
	for _, b := range active {
		if !slices.Contains(skip, b.ID) {
			s.Ballots = append(s.Ballots, b)
		}
	}
	return s, nil
}
