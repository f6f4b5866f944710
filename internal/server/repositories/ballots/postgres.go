// Package ballots provides the PostgreSQL-backed ballot repository.
package ballots

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/orgvote/internal/ballot"
	"github.com/dmitrijs2005/orgvote/internal/common"
	"github.com/dmitrijs2005/orgvote/internal/dbx"
	"github.com/dmitrijs2005/orgvote/internal/office"
)

const columns = `id, org_id, user_id, category, question, question_nonce, question_tag,
	max_candidate_ids_per_vote, office, created_at, nominations_end_at, voting_ends_at,
	term_starts_at, term_ends_at`

// PostgresRepository implements ballot storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts b. The caller assigns b.ID.
func (r *PostgresRepository) Create(ctx context.Context, b *ballot.Ballot) error {
	query := `
		INSERT INTO ballots (` + columns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.db.ExecContext(ctx, query,
		b.ID, b.OrgID, b.UserID, string(b.Category),
		b.Question.Ciphertext, b.Question.Nonce, b.Question.AuthTag,
		b.MaxCandidateIDsPerVote, officeArg(b.Office), b.CreatedAt,
		b.NominationsEndAt, b.VotingEndsAt, b.TermStartsAt, b.TermEndsAt,
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Get returns the ballot with the given id or common.ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*ballot.Ballot, error) {
	return r.get(ctx, `SELECT `+columns+` FROM ballots WHERE id = $1`, id)
}

// GetForUpdate is Get with a row lock held until the transaction ends.
func (r *PostgresRepository) GetForUpdate(ctx context.Context, id string) (*ballot.Ballot, error) {
	return r.get(ctx, `SELECT `+columns+` FROM ballots WHERE id = $1 FOR UPDATE`, id)
}

func (r *PostgresRepository) get(ctx context.Context, query, id string) (*ballot.Ballot, error) {
	b, err := scanBallot(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return b, nil
}

// UpdateSchedule replaces the temporal fields of the ballot.
func (r *PostgresRepository) UpdateSchedule(ctx context.Context, id string, s ballot.Schedule) error {
	query := `
		UPDATE ballots
		SET voting_ends_at = $2, nominations_end_at = $3, term_starts_at = $4, term_ends_at = $5
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, s.VotingEndsAt, s.NominationsEndAt, s.TermStartsAt, s.TermEndsAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

// Delete removes the ballot; candidates and votes go with it.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM ballots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

// List returns the org's ballots matching f, ordered by id. Ordering for
// presentation is left to the caller.
func (r *PostgresRepository) List(ctx context.Context, orgID string, f ballot.Filter) ([]ballot.Ballot, error) {
	where := []string{"org_id = $1"}
	args := []any{orgID}
	add := func(cond string, v time.Time) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.CreatedAtOrBefore != nil {
		add("created_at <= $%d", *f.CreatedAtOrBefore)
	}
	if f.ActiveAt != nil {
		add("voting_ends_at > $%d", *f.ActiveAt)
	}
	if f.InactiveAt != nil {
		add("voting_ends_at <= $%d", *f.InactiveAt)
	}

	query := `SELECT ` + columns + ` FROM ballots WHERE ` + strings.Join(where, " AND ") + ` ORDER BY id`
	return r.list(ctx, query, args...)
}

// ActiveElections returns the org's elections still voting at `at`.
func (r *PostgresRepository) ActiveElections(ctx context.Context, orgID string, at time.Time) ([]ballot.Ballot, error) {
	query := `SELECT ` + columns + ` FROM ballots
		WHERE org_id = $1 AND category = 'election' AND voting_ends_at > $2
		ORDER BY id`
	return r.list(ctx, query, orgID, at)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]ballot.Ballot, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select ballots: %w", err)
	}
	defer rows.Close()

	var result []ballot.Ballot
	for rows.Next() {
		b, err := scanBallot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBallot(s scanner) (*ballot.Ballot, error) {
	var (
		b           ballot.Ballot
		category    string
		officeKind  sql.NullString
		nominations sql.NullTime
		termStarts  sql.NullTime
		termEnds    sql.NullTime
	)
	err := s.Scan(
		&b.ID, &b.OrgID, &b.UserID, &category,
		&b.Question.Ciphertext, &b.Question.Nonce, &b.Question.AuthTag,
		&b.MaxCandidateIDsPerVote, &officeKind, &b.CreatedAt,
		&nominations, &b.VotingEndsAt, &termStarts, &termEnds,
	)
	if err != nil {
		return nil, err
	}

	b.Category = ballot.Category(category)
	if officeKind.Valid {
		o, err := office.Parse(officeKind.String)
		if err != nil {
			return nil, fmt.Errorf("ballot %s: %w", b.ID, err)
		}
		b.Office = &o
	}
	b.NominationsEndAt = timePtr(nominations)
	b.TermStartsAt = timePtr(termStarts)
	b.TermEndsAt = timePtr(termEnds)
	return &b, nil
}

func officeArg(o *office.Office) any {
	if o == nil {
		return nil
	}
	return o.String()
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
