// Package server assembles the orgvote application: it opens the database,
// sets up logging and the result archive, and builds the services the
// operator CLI drives.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/orgvote/internal/logging"
	"github.com/dmitrijs2005/orgvote/internal/server/archive"
	"github.com/dmitrijs2005/orgvote/internal/server/config"
	"github.com/dmitrijs2005/orgvote/internal/server/models"
	"github.com/dmitrijs2005/orgvote/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/orgvote/internal/server/services"
	"github.com/google/uuid"
)

var (
	// sqlOpen is a seam for tests.
	sqlOpen = sql.Open

	newPublisher = func(ctx context.Context, cfg *config.Config) (services.Publisher, error) {
		return archive.NewS3Publisher(ctx, cfg)
	}
)

type App struct {
	Config *config.Config
	Logger logging.Logger

	Ballots *services.BallotService
	Offices *services.OfficeService
	Votes   *services.VoteService
	Terms   *services.TermService
	Results *services.ResultService

	db        *sql.DB
	repos     repomanager.RepositoryManager
	logCloser io.Closer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(logging.Options{Level: c.LogLevel, File: c.LogFile})
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, err := sqlOpen("pgx", c.DatabaseDSN)
	if err != nil {
		logger.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	repos, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		db.Close()
		logger.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	pub, err := newPublisher(ctx, c)
	if err != nil {
		db.Close()
		logger.Close()
		return nil, fmt.Errorf("archive init error: %w", err)
	}

	deps := services.Deps{
		DB:        db,
		Repos:     repos,
		Config:    c,
		Logger:    logger,
		Publisher: pub,
	}

	return &App{
		Config:    c,
		Logger:    logger,
		Ballots:   services.NewBallotService(deps),
		Offices:   services.NewOfficeService(deps),
		Votes:     services.NewVoteService(deps),
		Terms:     services.NewTermService(deps),
		Results:   services.NewResultService(deps),
		db:        db,
		repos:     repos,
		logCloser: logger,
	}, nil
}

// Migrate brings the schema up to date.
func (app *App) Migrate(ctx context.Context) error {
	app.Logger.Info(ctx, "running migrations", "event", "migrate")
	if err := app.repos.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	return nil
}

// CreateOrg registers an organization, assigning an id when it has none.
func (app *App) CreateOrg(ctx context.Context, org *models.Org) (*models.Org, error) {
	if org.ID == "" {
		org.ID = uuid.NewString()
	}
	o, err := app.repos.Users(app.db).CreateOrg(ctx, org)
	if err != nil {
		return nil, err
	}
	app.Logger.Info(ctx, "org created", "event", "org_created", "org_id", o.ID)
	return o, nil
}

// AddMember registers a user, optionally inside an org.
func (app *App) AddMember(ctx context.Context, u *models.User) (*models.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	created, err := app.repos.Users(app.db).Create(ctx, u)
	if err != nil {
		return nil, err
	}
	app.Logger.Info(ctx, "member added", "event", "member_added", "user_id", created.ID, "org_id", created.OrgID)
	return created, nil
}

// Member looks a user up by name.
func (app *App) Member(ctx context.Context, userName string) (*models.User, error) {
	return app.repos.Users(app.db).GetUserByLogin(ctx, userName)
}

// Close releases the database and the log file.
func (app *App) Close() error {
	return errors.Join(app.db.Close(), app.logCloser.Close())
}
