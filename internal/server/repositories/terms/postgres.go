// Package terms provides the PostgreSQL-backed term ledger.
package terms

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/orgvote/internal/common"
	"github.com/dmitrijs2005/orgvote/internal/dbx"
	"github.com/dmitrijs2005/orgvote/internal/office"
	"github.com/dmitrijs2005/orgvote/internal/termledger"
)

const columns = `id, org_id, user_id, ballot_id, office, starts_at, ends_at, created_at`

// PostgresRepository implements term storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts t. The caller assigns t.ID.
func (r *PostgresRepository) Create(ctx context.Context, t *termledger.Term) error {
	query := `
		INSERT INTO terms (` + columns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	var ballotID any
	if t.BallotID != "" {
		ballotID = t.BallotID
	}
	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.OrgID, t.UserID, ballotID, t.Office.String(), t.StartsAt, t.EndsAt, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListByOrg returns the org's whole ledger ordered by start.
func (r *PostgresRepository) ListByOrg(ctx context.Context, orgID string) (termledger.Ledger, error) {
	query := `SELECT ` + columns + ` FROM terms WHERE org_id = $1 ORDER BY starts_at, id`
	return r.list(ctx, query, orgID)
}

// ListByOrgOffice returns the org's terms in one office ordered by start.
func (r *PostgresRepository) ListByOrgOffice(ctx context.Context, orgID string, o office.Office) (termledger.Ledger, error) {
	query := `SELECT ` + columns + ` FROM terms WHERE org_id = $1 AND office = $2 ORDER BY starts_at, id`
	return r.list(ctx, query, orgID, o.String())
}

// Delete removes a term. It is the only way a term goes away.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM terms WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) (termledger.Ledger, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select terms: %w", err)
	}
	defer rows.Close()

	var result termledger.Ledger
	for rows.Next() {
		var (
			t          termledger.Term
			ballotID   sql.NullString
			officeKind string
		)
		if err := rows.Scan(&t.ID, &t.OrgID, &t.UserID, &ballotID, &officeKind, &t.StartsAt, &t.EndsAt, &t.CreatedAt); err != nil {
			return nil, err
		}
		o, err := office.Parse(officeKind)
		if err != nil {
			return nil, fmt.Errorf("term %s: %w", t.ID, err)
		}
		t.Office = o
		t.BallotID = ballotID.String
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
