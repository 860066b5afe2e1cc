package apierror

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapStoreError_MissingKey(t *testing.T) {
	assert.Equal(t, KindNotFound, GetKind(MapStoreError(pgx.ErrNoRows)))
	assert.Equal(t, KindNotFound, GetKind(MapStoreError(redis.Nil)))
}

func TestMapStoreError_Context(t *testing.T) {
	assert.Equal(t, KindTimeout, GetKind(MapStoreError(context.DeadlineExceeded)))
	assert.Equal(t, KindUnknown, GetKind(MapStoreError(context.Canceled)))
}

func TestMapStoreError_PgCodes(t *testing.T) {
	tests := []struct {
		code string
		want Kind
	}{
		{pgerrcode.ConnectionFailure, KindNetwork},
		{pgerrcode.InvalidPassword, KindAuthentication},
		{pgerrcode.InsufficientPrivilege, KindAuthorization},
		{pgerrcode.UniqueViolation, KindValidation},
		{pgerrcode.InvalidTextRepresentation, KindValidation},
		{pgerrcode.InternalError, KindServer},
		{pgerrcode.UndefinedTable, KindServer},
	}

	for _, tt := range tests {
		err := MapStoreError(&pgconn.PgError{Code: tt.code})
		assert.Equal(t, tt.want, GetKind(err), "code %s", tt.code)
	}
}

func TestMapStoreError_PassThroughAndNil(t *testing.T) {
	require.NoError(t, MapStoreError(nil))

	orig := New(KindAuthentication)
	mapped := MapStoreError(orig)
	apiErr, ok := From(mapped)
	require.True(t, ok)
	assert.Equal(t, KindAuthentication, apiErr.Kind)
}

func TestMapStoreError_PreservesCause(t *testing.T) {
	cause := errors.New("boom")
	mapped := MapStoreError(cause)
	assert.ErrorIs(t, mapped, cause)
}
