// file: internals/features/ingest/service/api_fetcher_test.go
package service

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

func sp(s string) *string { return &s }

func win(from, to string) syncsvc.Window {
	return syncsvc.Window{From: d(from), To: d(to)}
}

func TestCursorDay(t *testing.T) {
	w := win("2026-02-01", "2026-02-10")

	t.Run("no cursor starts at window from", func(t *testing.T) {
		day, err := cursorDay(w, nil)
		require.NoError(t, err)
		assert.Equal(t, d("2026-02-01"), day)
	})

	t.Run("cursor inside window resumes there", func(t *testing.T) {
		day, err := cursorDay(w, sp("2026-02-05"))
		require.NoError(t, err)
		assert.Equal(t, d("2026-02-05"), day)
	})

	t.Run("stale cursor restarts the window", func(t *testing.T) {
		day, err := cursorDay(w, sp("2026-01-15"))
		require.NoError(t, err)
		assert.Equal(t, d("2026-02-01"), day)

		day, err = cursorDay(w, sp("2026-03-01"))
		require.NoError(t, err)
		assert.Equal(t, d("2026-02-01"), day)
	})

	t.Run("garbage cursor errors", func(t *testing.T) {
		_, err := cursorDay(w, sp("yesterday"))
		require.Error(t, err)
	})
}

func TestNextDayCursor(t *testing.T) {
	w := win("2026-02-01", "2026-02-10")

	next := nextDayCursor(d("2026-02-05"), w, 1)
	require.NotNil(t, next)
	assert.Equal(t, "2026-02-06", *next)

	// last day exhausted
	assert.Nil(t, nextDayCursor(d("2026-02-10"), w, 1))

	// weekly step past the window end
	assert.Nil(t, nextDayCursor(d("2026-02-09"), w, 7))
}

func TestItemID(t *testing.T) {
	assert.Equal(t, "42", itemID(map[string]any{"id": float64(42)}, "id"))
	assert.Equal(t, "abc", itemID(map[string]any{"id": "abc"}, "id"))
	assert.Equal(t, "", itemID(map[string]any{}, "id"))
}

func TestItemDate(t *testing.T) {
	got, ok := itemDate(map[string]any{"created_date": "2026-02-10 08:30:00"}, "created_date")
	require.True(t, ok)
	assert.Equal(t, d("2026-02-10"), got)

	_, ok = itemDate(map[string]any{"created_date": "n/a"}, "created_date")
	assert.False(t, ok)
}

func TestFinalRecordsFiltersByCreatedDate(t *testing.T) {
	w := win("2026-02-01", "2026-02-10")
	items := []map[string]any{
		{"id": float64(1), "created_date": "2026-02-05"},
		{"id": float64(2), "created_date": "2026-01-20"},
		{"id": float64(3)}, // undated rows pass through
	}
	recs := finalRecords(items, w)
	require.Len(t, recs, 2)
	assert.Equal(t, "1", recs[0].SourceID)
	assert.Equal(t, "3", recs[1].SourceID)
}

func TestParseItems(t *testing.T) {
	t.Run("items wrapper", func(t *testing.T) {
		items, err := parseItems([]byte(`{"data":{"items":[{"id":1},{"id":2}]}}`))
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})

	t.Run("plain array", func(t *testing.T) {
		items, err := parseItems([]byte(`{"data":[{"id":1}]}`))
		require.NoError(t, err)
		assert.Len(t, items, 1)
	})

	t.Run("unexpected shape", func(t *testing.T) {
		_, err := parseItems([]byte(`{"data":"nope"}`))
		require.Error(t, err)
	})
}

func TestCanonHeader(t *testing.T) {
	cases := map[string]string{
		"E-mail":        "email",
		"Staff Member":  "staffmember",
		"  Cohort ":     "cohort",
		"student_id":    "studentid",
		"Date of Birth": "dateofbirth",
	}
	for in, want := range cases {
		assert.Equal(t, want, canonHeader(in), in)
	}
}
