// file: internals/features/normalize/service/classes_test.go
package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func dayOf(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestHomeroomRewriteInPlace(t *testing.T) {
	season := dayOf("2025-09-01")
	today := dayOf("2026-02-10")

	t.Run("interval opened at season start replaces on the run day", func(t *testing.T) {
		assert.False(t, homeroomRewriteInPlace(season, today))
	})

	t.Run("interval opened today is rewritten in place", func(t *testing.T) {
		assert.True(t, homeroomRewriteInPlace(today, today))
	})

	t.Run("first run of the season rewrites in place", func(t *testing.T) {
		assert.True(t, homeroomRewriteInPlace(season, season))
	})

	t.Run("timestamps compare as days", func(t *testing.T) {
		opened := time.Date(2026, 2, 10, 13, 30, 0, 0, time.UTC)
		assert.True(t, homeroomRewriteInPlace(opened, today))
	})
}

func TestToInt64(t *testing.T) {
	assert.Equal(t, int64(7), toInt64(int64(7)))
	assert.Equal(t, int64(7), toInt64(int32(7)))
	assert.Equal(t, int64(7), toInt64(7))
	assert.Equal(t, int64(7), toInt64(float64(7)))
	assert.Equal(t, int64(0), toInt64("7"))
}

func TestToTime(t *testing.T) {
	d := dayOf("2026-02-10")
	assert.Equal(t, d, toTime(d))
	assert.True(t, toTime("2026-02-10").IsZero())
}
