// Package votes provides the PostgreSQL-backed vote repository. A member has
// at most one row per ballot; casting again replaces the choice.
package votes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/orgvote/internal/common"
	"github.com/dmitrijs2005/orgvote/internal/dbx"
	"github.com/dmitrijs2005/orgvote/internal/tally"
	"github.com/jackc/pgx/v5/pgtype"
)

// PostgresRepository implements vote storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db    dbx.DBTX
	types *pgtype.Map
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db, types: pgtype.NewMap()}
}

// Upsert stores v as the member's current vote on the ballot. On a re-vote
// the choice and UpdatedAt are replaced and v.ID and v.CreatedAt are set
// from the existing row.
func (r *PostgresRepository) Upsert(ctx context.Context, v *tally.Vote) error {
	query := `
		INSERT INTO votes (id, ballot_id, user_id, candidate_ids, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (ballot_id, user_id)
		DO UPDATE SET
			candidate_ids = EXCLUDED.candidate_ids,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`
	choices := v.CandidateIDs
	if choices == nil {
		choices = []string{}
	}
	err := r.db.QueryRowContext(ctx, query,
		v.ID, v.BallotID, v.UserID, choices, v.CreatedAt, v.UpdatedAt,
	).Scan(&v.ID, &v.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Get returns the member's current vote or common.ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, ballotID, userID string) (*tally.Vote, error) {
	query := `SELECT id, ballot_id, user_id, candidate_ids, created_at, updated_at FROM votes
		WHERE ballot_id = $1 AND user_id = $2`

	var v tally.Vote
	err := r.db.QueryRowContext(ctx, query, ballotID, userID).Scan(
		&v.ID, &v.BallotID, &v.UserID, r.types.SQLScanner(&v.CandidateIDs), &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &v, nil
}

// ListByBallot returns every current vote on the ballot ordered by id.
func (r *PostgresRepository) ListByBallot(ctx context.Context, ballotID string) ([]tally.Vote, error) {
	query := `SELECT id, ballot_id, user_id, candidate_ids, created_at, updated_at FROM votes
		WHERE ballot_id = $1
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, ballotID)
	if err != nil {
		return nil, fmt.Errorf("failed to select votes: %w", err)
	}
	defer rows.Close()

	var result []tally.Vote
	for rows.Next() {
		var v tally.Vote
		if err := rows.Scan(
			&v.ID, &v.BallotID, &v.UserID, r.types.SQLScanner(&v.CandidateIDs), &v.CreatedAt, &v.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
