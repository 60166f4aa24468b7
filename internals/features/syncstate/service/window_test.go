// file: internals/features/syncstate/service/window_test.go
package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolsync_backend/internals/helpers/etlerr"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestValidateWindow(t *testing.T) {
	now := day("2026-02-10")

	t.Run("normal window", func(t *testing.T) {
		w, err := ValidateWindow(day("2026-02-01"), day("2026-02-10"), now)
		require.NoError(t, err)
		assert.Equal(t, day("2026-02-01"), w.From)
		assert.Equal(t, day("2026-02-10"), w.To)
	})

	t.Run("single day window", func(t *testing.T) {
		w, err := ValidateWindow(now, now, now)
		require.NoError(t, err)
		assert.Equal(t, w.From, w.To)
	})

	t.Run("reversed bounds rejected", func(t *testing.T) {
		_, err := ValidateWindow(day("2026-02-10"), day("2026-02-01"), now)
		require.Error(t, err)
		assert.ErrorIs(t, err, etlerr.ErrInvalidWindow)
	})

	t.Run("future end rejected", func(t *testing.T) {
		_, err := ValidateWindow(day("2026-02-01"), day("2026-02-11"), now)
		require.Error(t, err)
		assert.ErrorIs(t, err, etlerr.ErrInvalidWindow)
	})

	t.Run("bounds truncated to days", func(t *testing.T) {
		from := time.Date(2026, 2, 1, 13, 45, 0, 0, time.UTC)
		to := time.Date(2026, 2, 10, 23, 59, 59, 0, time.UTC)
		w, err := ValidateWindow(from, to, now)
		require.NoError(t, err)
		assert.Equal(t, day("2026-02-01"), w.From)
		assert.Equal(t, day("2026-02-10"), w.To)
	})
}

func TestWindowString(t *testing.T) {
	w := Window{From: day("2026-02-01"), To: day("2026-02-10")}
	assert.Equal(t, "2026-02-01..2026-02-10", w.String())
}
