// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/orgvote/internal/dbx"
	"github.com/dmitrijs2005/orgvote/internal/server/migrations"
	"github.com/dmitrijs2005/orgvote/internal/server/repositories/ballots"
	"github.com/dmitrijs2005/orgvote/internal/server/repositories/candidates"
	"github.com/dmitrijs2005/orgvote/internal/server/repositories/terms"
	"github.com/dmitrijs2005/orgvote/internal/server/repositories/users"
	"github.com/dmitrijs2005/orgvote/internal/server/repositories/votes"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

// Users returns a users.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

// Ballots returns a ballots.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Ballots(db dbx.DBTX) ballots.Repository {
	return ballots.NewPostgresRepository(db)
}

// Candidates returns a candidates.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Candidates(db dbx.DBTX) candidates.Repository {
	return candidates.NewPostgresRepository(db)
}

// Votes returns a votes.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Votes(db dbx.DBTX) votes.Repository {
	return votes.NewPostgresRepository(db)
}

// Terms returns a terms.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Terms(db dbx.DBTX) terms.Repository {
	return terms.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager(db *sql.DB) (RepositoryManager, error) {
	return &PostgresRepositoryManager{}, nil
}
