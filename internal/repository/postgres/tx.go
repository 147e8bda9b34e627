package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"water-scheduler-backend/internal/domain"
)

const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

// classifyError maps driver errors onto domain sentinels.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
			return fmt.Errorf("%w: %s", domain.ErrTransientContention, pqErr.Message)
		case codeUniqueViolation:
			switch pqErr.Constraint {
			case "bookings_household_slot_active_idx":
				return fmt.Errorf("%w: %s", domain.ErrDuplicateBooking, pqErr.Message)
			case "bookings_receipt_number_key":
				// the caller draws a fresh receipt number on retry
				return fmt.Errorf("%w: receipt number taken: %s", domain.ErrTransientContention, pqErr.Message)
			}
		}
	}
	return err
}

// withTx runs fn inside one transaction. The transaction is rolled back unless fn and the
// commit both succeed.
func withTx(ctx context.Context, db *sql.DB, lockTimeout time.Duration, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return classifyError(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if lockTimeout > 0 {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", lockTimeout.Milliseconds())); err != nil {
			return classifyError(err)
		}
	}
	if err := fn(tx); err != nil {
		return classifyError(err)
	}
	if err := tx.Commit(); err != nil {
		return classifyError(err)
	}
	committed = true
	return nil
}

// notFound converts sql.ErrNoRows into a descriptive not-found error.
func notFound(err error, format string, args ...any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, fmt.Sprintf(format, args...))
	}
	return err
}
