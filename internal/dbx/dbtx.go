// Package dbx provides tiny DB abstractions shared by repositories:
// a minimal interface (DBTX) implemented by both *sql.DB and *sql.Tx,
// and helpers to run functions inside a transaction.
package dbx

import (
	"context"
	"database/sql"
	"fmt"
)

// DBTX is the subset of database/sql used by our repos.
// Both *sql.DB and *sql.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx begins a transaction, runs fn with a transactional handle, and then
// commits on success or rolls back on error/panic. Panics are rethrown.
//
// Typical use:
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    // use tx instead of db
//	    _, err := tx.ExecContext(ctx, "UPDATE ...")
//	    return err
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}

// RollbackError reports a write that was undone because its guard failed
// after the write had been applied. Reason is the guard's error.
type RollbackError struct {
	Reason error
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("rolled back: %v", e.Reason)
}

func (e *RollbackError) Unwrap() error {
	return e.Reason
}

// WithGuardedTx runs write and then guard inside one transaction. If guard
// fails the transaction is rolled back and a *RollbackError wrapping the
// guard's error is returned, so no state written by write survives. Errors
// from write are returned unchanged.
//
// guard is where rules that depend on the commit instant are re-checked:
//
//	err := dbx.WithGuardedTx(ctx, db, opts,
//	    func(ctx context.Context, tx dbx.DBTX) error { return votes.Upsert(ctx, v) },
//	    func(ctx context.Context, tx dbx.DBTX) error { return tally.CheckOpen(spec, clock.Now()) },
//	)
func WithGuardedTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, write, guard func(ctx context.Context, tx DBTX) error) error {
	return WithTx(ctx, db, opts, func(ctx context.Context, tx DBTX) error {
		if err := write(ctx, tx); err != nil {
			return err
		}
		if err := guard(ctx, tx); err != nil {
			return &RollbackError{Reason: err}
		}
		return nil
	})
}
