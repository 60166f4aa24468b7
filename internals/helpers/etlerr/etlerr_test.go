package etlerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvalidWindow(t *testing.T) {
	err := InvalidWindow("2026-02-10", "2026-02-01")
	assert.ErrorIs(t, err, ErrInvalidWindow)
	assert.Contains(t, err.Error(), "2026-02-10..2026-02-01")
}

func TestPartialBatch(t *testing.T) {
	err := PartialBatch("attendance", 3, 7, 0.1)
	assert.ErrorIs(t, err, ErrPartialBatchFailure)
	assert.Contains(t, err.Error(), "endpoint=attendance")
	assert.Contains(t, err.Error(), "skipped=3")
}

func TestFromPg(t *testing.T) {
	t.Run("nil passes through", func(t *testing.T) {
		assert.NoError(t, FromPg(nil))
	})

	t.Run("exclusion violation maps to overlap", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: "23P01", Message: "conflicting key value", ConstraintName: "class_teacher_no_overlap"}
		err := FromPg(fmt.Errorf("insert: %w", pgErr))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrOverlapViolation)
		assert.Contains(t, err.Error(), "class_teacher_no_overlap")
	})

	t.Run("foreign key maps to missing reference", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: "23503", Message: "violates foreign key"}
		assert.ErrorIs(t, FromPg(pgErr), ErrMissingReference)
	})

	t.Run("other codes pass through", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: "42P01", Message: "relation missing"}
		err := FromPg(pgErr)
		assert.NotErrorIs(t, err, ErrOverlapViolation)
		assert.NotErrorIs(t, err, ErrMissingReference)
	})

	t.Run("non-pg errors pass through", func(t *testing.T) {
		plain := errors.New("timeout")
		assert.Equal(t, plain, FromPg(plain))
	})
}

func TestIsFatalForRun(t *testing.T) {
	assert.True(t, IsFatalForRun(InvalidWindow("a", "b")))
	assert.True(t, IsFatalForRun(fmt.Errorf("run: %w", ErrLockBusy)))
	assert.False(t, IsFatalForRun(ErrMissingReference))
	assert.False(t, IsFatalForRun(PartialBatch("x", 1, 1, 0)))
}
