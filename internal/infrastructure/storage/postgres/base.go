package postgres

import (
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"

	"loomledger/internal/core/apperror"
)

// Builder returns a squirrel builder with PostgreSQL placeholder format.
func Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Postgres error codes the repos translate into business errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// translateExecError maps constraint violations to structured errors; anything
// else is wrapped with the operation name.
func translateExecError(err error, op, entity, key string) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return apperror.NewDuplicate(entity, "unique key", key).WithCause(err)
		case pgForeignKeyViolation:
			return apperror.NewReferenced(entity, key).WithCause(err)
		}
	}

	return fmt.Errorf("%s %s: %w", op, entity, err)
}
