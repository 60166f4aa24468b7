package dateutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestDay(t *testing.T) {
	ts := time.Date(2026, 2, 10, 17, 45, 3, 0, time.UTC)
	assert.Equal(t, d("2026-02-10"), Day(ts))
}

func TestDayIn(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)
	// 20:00 UTC is already the next day in UTC+7
	ts := time.Date(2026, 2, 10, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, d("2026-02-11"), DayIn(ts, loc))
}

func TestMondayOf(t *testing.T) {
	cases := map[string]string{
		"2026-02-09": "2026-02-09", // Monday
		"2026-02-10": "2026-02-09", // Tuesday
		"2026-02-14": "2026-02-09", // Saturday
		"2026-02-15": "2026-02-09", // Sunday
		"2026-02-16": "2026-02-16", // next Monday
	}
	for in, want := range cases {
		assert.Equal(t, d(want), MondayOf(d(in)), in)
	}
}

func TestMondaysBetween(t *testing.T) {
	got := MondaysBetween(d("2026-02-10"), d("2026-02-24"))
	require.Len(t, got, 3)
	assert.Equal(t, d("2026-02-09"), got[0])
	assert.Equal(t, d("2026-02-16"), got[1])
	assert.Equal(t, d("2026-02-23"), got[2])
}

func TestRange(t *testing.T) {
	got := Range(d("2026-02-27"), d("2026-03-02"))
	require.Len(t, got, 4)
	assert.Equal(t, d("2026-02-28"), got[1])
	assert.Equal(t, d("2026-03-01"), got[2])
}

func TestMonthStarts(t *testing.T) {
	got := MonthStarts([]time.Time{
		d("2026-03-15"),
		d("2026-01-07"),
		d("2026-01-29"),
		d("2026-03-01"),
	})
	require.Len(t, got, 2)
	assert.Equal(t, d("2026-01-01"), got[0])
	assert.Equal(t, d("2026-03-01"), got[1])
}

func TestISO(t *testing.T) {
	assert.Equal(t, "2026-02-10", ISO(d("2026-02-10")))
	assert.Equal(t, "", ISO(time.Time{}))
}
