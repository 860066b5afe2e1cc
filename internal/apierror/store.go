package apierror

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
)

// MapStoreError folds storage-backend failures into the shared taxonomy so
// session-store consumers see the same error shape as API callers.
//
//	missing key                NOT_FOUND
//	deadline exceeded          TIMEOUT
//	connection-level failures  NETWORK
//	other backend errors       SERVER
//
// Already-classified errors pass through unchanged.
func MapStoreError(err error) error {
	if err == nil {
		return nil
	}

	if _, ok := From(err); ok {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(err, KindTimeout)
	}
	if errors.Is(err, context.Canceled) {
		return Wrap(err, KindUnknown)
	}

	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, redis.Nil) {
		return Wrap(err, KindNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return mapPgError(pgErr)
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return Wrap(err, KindNetwork)
	}

	return Classify(err)
}

// mapPgError maps PostgreSQL-specific errors into the taxonomy.
func mapPgError(pgErr *pgconn.PgError) error {
	switch {
	case pgerrcode.IsConnectionException(pgErr.Code):
		return Wrap(pgErr, KindNetwork)
	case pgErr.Code == pgerrcode.InvalidPassword,
		pgErr.Code == pgerrcode.InvalidAuthorizationSpecification:
		return Wrap(pgErr, KindAuthentication)
	case pgErr.Code == pgerrcode.InsufficientPrivilege:
		return Wrap(pgErr, KindAuthorization)
	case pgerrcode.IsDataException(pgErr.Code),
		pgerrcode.IsIntegrityConstraintViolation(pgErr.Code):
		return Wrap(pgErr, KindValidation)
	default:
		return Wrap(pgErr, KindServer)
	}
}
