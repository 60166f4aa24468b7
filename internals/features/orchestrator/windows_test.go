// file: internals/features/orchestrator/windows_test.go
package orchestrator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	syncsvc "schoolsync_backend/internals/features/syncstate/service"
)

func d(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestValidMode(t *testing.T) {
	for _, m := range []string{"auto", "init", "init-if-empty", "daily", "weekly-deep", "backfill"} {
		assert.True(t, ValidMode(m), m)
	}
	assert.False(t, ValidMode("full"))
	assert.False(t, ValidMode(""))
}

func TestDailyWindow(t *testing.T) {
	today := d("2026-02-10")

	w := DailyWindow(today, 2)
	assert.Equal(t, d("2026-02-09"), w.From)
	assert.Equal(t, d("2026-02-10"), w.To)

	w = DailyWindow(today, 1)
	assert.Equal(t, today, w.From)
	assert.Equal(t, today, w.To)

	// zero days back still yields a one-day window
	w = DailyWindow(today, 0)
	assert.Equal(t, today, w.From)
}

func TestDeepWindow(t *testing.T) {
	w := DeepWindow(d("2026-02-10"), 60)
	assert.Equal(t, d("2025-12-12"), w.From)
	assert.Equal(t, d("2026-02-10"), w.To)
}

func TestAutoWindow(t *testing.T) {
	today := d("2026-02-10")
	season := d("2025-09-01")

	t.Run("no checkpoint falls back to init", func(t *testing.T) {
		w := AutoWindow(time.Time{}, today, season)
		assert.Equal(t, season, w.From)
		assert.Equal(t, today, w.To)
	})

	t.Run("continues after the last window", func(t *testing.T) {
		w := AutoWindow(d("2026-02-05"), today, season)
		assert.Equal(t, d("2026-02-06"), w.From)
		assert.Equal(t, today, w.To)
	})

	t.Run("never starts after today", func(t *testing.T) {
		w := AutoWindow(today, today, season)
		assert.Equal(t, today, w.From)
		assert.Equal(t, today, w.To)

		w = AutoWindow(d("2026-02-15"), today, season)
		assert.Equal(t, today, w.From)
	})
}

func TestRecoveryWindow(t *testing.T) {
	today := d("2026-02-10")

	t.Run("no checkpoint no recovery", func(t *testing.T) {
		_, needed := RecoveryWindow(time.Time{}, today, 2)
		assert.False(t, needed)
	})

	t.Run("fresh checkpoint inside the gap", func(t *testing.T) {
		_, needed := RecoveryWindow(d("2026-02-09"), today, 2)
		assert.False(t, needed)
		_, needed = RecoveryWindow(d("2026-02-08"), today, 2)
		assert.False(t, needed)
	})

	t.Run("stale checkpoint recovers through today", func(t *testing.T) {
		w, needed := RecoveryWindow(d("2026-02-07"), today, 2)
		require.True(t, needed)
		assert.Equal(t, d("2026-02-08"), w.From)
		assert.Equal(t, today, w.To)
	})
}

func TestSafetyGapDays(t *testing.T) {
	assert.Equal(t, 2, SafetyGapDays(0))
	assert.Equal(t, 2, SafetyGapDays(2))
	assert.Equal(t, 5, SafetyGapDays(5))
}

func TestScheduleFetchWindow(t *testing.T) {
	// 2026-02-10 is a Tuesday
	w := ScheduleFetchWindow(syncsvc.Window{From: d("2026-02-10"), To: d("2026-02-12")}, 7)
	assert.Equal(t, d("2026-02-09"), w.From)
	assert.Equal(t, d("2026-02-19"), w.To)
}

func TestWeeklySlot(t *testing.T) {
	assert.True(t, WeeklySlot(d("2026-02-09")))
	assert.False(t, WeeklySlot(d("2026-02-10")))
}

func TestClampTo(t *testing.T) {
	w := ClampTo(syncsvc.Window{From: d("2026-02-01"), To: d("2026-02-20")}, d("2026-02-10"))
	assert.Equal(t, d("2026-02-10"), w.To)

	w = ClampTo(syncsvc.Window{From: d("2026-02-01"), To: d("2026-02-05")}, d("2026-02-10"))
	assert.Equal(t, d("2026-02-05"), w.To)
}
