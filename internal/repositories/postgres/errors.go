package postgres

import (
	"context"
	"errors"

	"github.com/chrisdamba/kitchensync/internal/repositories"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres error codes the engine branches on.
const (
	codeUndefinedColumn  = "42703"
	codeNotNullViolation = "23502"
	codeForeignKey       = "23503"
	codeCheckViolation   = "23514"
	codeInvalidTextRep   = "22P02"
)

// classify maps a pgx failure onto the store error-kind contract. Schema
// drift (a column the write expected is absent) is the one case callers
// recover from, so it must be identified by code, never by message text.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUndefinedColumn:
			return &repositories.StoreError{
				Kind:  repositories.FieldNotFound,
				Field: pgErr.ColumnName,
				Err:   err,
			}
		case codeNotNullViolation, codeForeignKey, codeCheckViolation, codeInvalidTextRep:
			return &repositories.StoreError{Kind: repositories.ValidationFailed, Err: err}
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &repositories.StoreError{Kind: repositories.TransportFailed, Err: err}
	}

	// Anything else that reached the wire and failed is transport-shaped.
	return &repositories.StoreError{Kind: repositories.TransportFailed, Err: err}
}
