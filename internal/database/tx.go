package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stayline/hotel-admin-backend/internal/models"
)

// TxFunc is the body of a ledger transaction
type TxFunc func(tx *sqlx.Tx) error

// maxTxAttempts bounds WithTx: one attempt plus a single retry
const maxTxAttempts = 2

// WithTx runs fn in a transaction. Domain errors are returned as-is.
// Any other failure is retried once and then surfaced as an
// InfrastructureError.
func WithTx(ctx context.Context, db *sqlx.DB, op string, fn TxFunc) error {
	return retryOnce(ctx, op, func() error {
		return runTx(ctx, db, fn)
	})
}

func retryOnce(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		err = classifyError(err)
		if models.IsDomainError(err) {
			return err
		}
		if ctx.Err() != nil {
			break
		}
	}
	return &models.InfrastructureError{Op: op, Err: err}
}

func runTx(ctx context.Context, db *sqlx.DB, fn TxFunc) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Postgres SQLSTATE codes mapped onto the booking error taxonomy
const (
	pqForeignKeyViolation pq.ErrorCode = "23503"
	pqCheckViolation      pq.ErrorCode = "23514"
)

// classifyError maps constraint violations raised by the schema onto domain
// errors. Everything else is left untouched.
func classifyError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case pqCheckViolation:
		return &models.ValidationError{Field: pqErr.Constraint, Message: pqErr.Message}
	case pqForeignKeyViolation:
		return &models.NotFoundError{Entity: "package", ID: pqErr.Detail}
	}
	return err
}
