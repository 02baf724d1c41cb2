package repositories

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/benj-n/regami/pkg/apperrors"
)

func TestTranslateLockError(t *testing.T) {
	t.Run("lock_not_available becomes retryable", func(t *testing.T) {
		err := translateLockError(&pgconn.PgError{Code: lockNotAvailable})
		assert.ErrorIs(t, err, apperrors.ErrLockUnavailable)
		assert.Equal(t, apperrors.CodeUnavailable, apperrors.CodeOf(err))
	})

	t.Run("wrapped lock_not_available is still recognized", func(t *testing.T) {
		wrapped := fmt.Errorf("create pending: %w", &pgconn.PgError{Code: lockNotAvailable})
		assert.ErrorIs(t, translateLockError(wrapped), apperrors.ErrLockUnavailable)
	})

	t.Run("other sqlstates pass through", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: "23505"}
		assert.Same(t, pgErr, translateLockError(pgErr))
	})

	t.Run("plain errors pass through", func(t *testing.T) {
		plain := errors.New("connection reset")
		assert.Equal(t, plain, translateLockError(plain))
	})
}
