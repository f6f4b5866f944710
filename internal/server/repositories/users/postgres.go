// Package users stores orgs and their members and answers membership
// questions.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/orgvote/internal/common"
	"github.com/dmitrijs2005/orgvote/internal/dbx"
	"github.com/dmitrijs2005/orgvote/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CreateOrg(ctx context.Context, org *models.Org) (*models.Org, error) {
	query :=
		`INSERT INTO orgs (id, name)
         VALUES ($1, $2)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query, org.ID, org.Name).Scan(&org.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return org, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (id, org_id, username)
         VALUES ($1, $2, $3)
		 RETURNING created_at
		 `

	var orgID any
	if user.OrgID != "" {
		orgID = user.OrgID
	}
	err := r.db.QueryRowContext(ctx, query, user.ID, orgID, user.UserName).Scan(&user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	query :=
		`SELECT id, org_id, username, created_at FROM users
		 WHERE username = $1
		 `

	user := &models.User{}
	var orgID sql.NullString
	err := r.db.QueryRowContext(ctx, query, userName).Scan(&user.ID, &orgID, &user.UserName, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	user.OrgID = orgID.String

	return user, nil
}

// OrgOf returns the org the user belongs to. ok is false when the user does
// not exist or belongs to no org.
func (r *PostgresRepository) OrgOf(ctx context.Context, userID string) (string, bool, error) {
	query :=
		`SELECT org_id FROM users
		 WHERE id = $1
		 `

	var orgID sql.NullString
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&orgID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("db error: %w", err)
	}

	return orgID.String, orgID.Valid, nil
}
