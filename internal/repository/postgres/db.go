package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"clubevents/internal/domain"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so repositories can run inside the
// admission transaction or directly against the pool.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const (
	codeUniqueViolation           = "23505"
	codeForeignKeyViolation       = "23503"
	codeInvalidTextRepresentation = "22P02"
	codeSerializationFailure      = "40001"
	codeDeadlockDetected          = "40P01"
)

func pqCode(err error) string {
	var perr *pq.Error
	if errors.As(err, &perr) {
		return string(perr.Code)
	}
	return ""
}

// isRetryable reports whether err is contention the whole transaction may be retried for.
func isRetryable(err error) bool {
	switch pqCode(err) {
	case codeSerializationFailure, codeDeadlockDetected:
		return true
	}
	return false
}

// mapDBError converts driver errors the caller can act on into domain errors, keeping
// the cause. Contention becomes domain.ErrConcurrencyConflict, a missing referenced row
// becomes domain.ErrNotFound and a malformed identifier becomes domain.ErrInvalidInput.
func mapDBError(err error) error {
	if err == nil {
		return nil
	}
	if isRetryable(err) {
		return errors.Join(domain.ErrConcurrencyConflict, err)
	}
	switch pqCode(err) {
	case codeForeignKeyViolation:
		return errors.Join(domain.ErrNotFound, err)
	case codeInvalidTextRepresentation:
		return errors.Join(domain.ErrInvalidInput, err)
	}
	return err
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intFromNull(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func nullBool(v *bool) sql.NullBool {
	if v == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *v, Valid: true}
}

func boolFromNull(n sql.NullBool) *bool {
	if !n.Valid {
		return nil
	}
	v := n.Bool
	return &v
}
