// Package candidates provides the PostgreSQL-backed candidate repository.
package candidates

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/orgvote/internal/dbx"
	"github.com/dmitrijs2005/orgvote/internal/server/models"
)

// PostgresRepository implements candidate storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts c. The caller assigns c.ID.
func (r *PostgresRepository) Create(ctx context.Context, c *models.Candidate) error {
	query := `
		INSERT INTO candidates (id, ballot_id, user_id, title, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	var userID any
	if c.UserID != "" {
		userID = c.UserID
	}
	_, err := r.db.ExecContext(ctx, query, c.ID, c.BallotID, userID, c.Title, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListByBallot returns the ballot's candidates ordered by id.
func (r *PostgresRepository) ListByBallot(ctx context.Context, ballotID string) ([]models.Candidate, error) {
	query := `SELECT id, ballot_id, user_id, title, created_at FROM candidates
		WHERE ballot_id = $1
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, ballotID)
	if err != nil {
		return nil, fmt.Errorf("failed to select candidates: %w", err)
	}
	defer rows.Close()

	var result []models.Candidate
	for rows.Next() {
		var (
			c      models.Candidate
			userID sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.BallotID, &userID, &c.Title, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.UserID = userID.String
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
