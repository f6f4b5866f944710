package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/orgvote/internal/dbx"
	"github.com/dmitrijs2005/orgvote/internal/server/repositories/ballots"
	"github.com/dmitrijs2005/orgvote/internal/server/repositories/candidates"
	"github.com/dmitrijs2005/orgvote/internal/server/repositories/terms"
	"github.com/dmitrijs2005/orgvote/internal/server/repositories/users"
	"github.com/dmitrijs2005/orgvote/internal/server/repositories/votes"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Ballots(db dbx.DBTX) ballots.Repository
	Candidates(db dbx.DBTX) candidates.Repository
	Votes(db dbx.DBTX) votes.Repository
	Terms(db dbx.DBTX) terms.Repository
}
