// file: internals/features/attribution/segments_test.go
package attribution

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSegments(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		assert.Nil(t, BuildSegments(nil, 14))
	})

	t.Run("single day", func(t *testing.T) {
		segs := BuildSegments([]time.Time{d("2026-02-10")}, 14)
		require.Len(t, segs, 1)
		assert.Equal(t, d("2026-02-10"), segs[0].From)
		assert.Equal(t, d("2026-02-10"), segs[0].To)
	})

	t.Run("gap within merge widens segment", func(t *testing.T) {
		days := []time.Time{d("2026-01-05"), d("2026-01-19")}
		segs := BuildSegments(days, 14)
		require.Len(t, segs, 1)
		assert.Equal(t, d("2026-01-05"), segs[0].From)
		assert.Equal(t, d("2026-01-19"), segs[0].To)
	})

	t.Run("gap past merge splits", func(t *testing.T) {
		days := []time.Time{d("2026-01-05"), d("2026-01-20")}
		segs := BuildSegments(days, 14)
		require.Len(t, segs, 2)
		assert.Equal(t, d("2026-01-05"), segs[0].To)
		assert.Equal(t, d("2026-01-20"), segs[1].From)
	})

	t.Run("order and duplicates ignored", func(t *testing.T) {
		days := []time.Time{
			d("2026-03-10"),
			d("2026-01-05"),
			d("2026-01-05"),
			d("2026-01-12"),
		}
		segs := BuildSegments(days, 14)
		require.Len(t, segs, 2)
		assert.Equal(t, d("2026-01-05"), segs[0].From)
		assert.Equal(t, d("2026-01-12"), segs[0].To)
		assert.Equal(t, d("2026-03-10"), segs[1].From)
	})

	t.Run("school year with a long winter break", func(t *testing.T) {
		var days []time.Time
		for cur := d("2025-09-01"); !cur.After(d("2025-12-19")); cur = cur.AddDate(0, 0, 7) {
			days = append(days, cur)
		}
		for cur := d("2026-01-12"); !cur.After(d("2026-05-25")); cur = cur.AddDate(0, 0, 7) {
			days = append(days, cur)
		}
		segs := BuildSegments(days, 14)
		require.Len(t, segs, 2)
		assert.Equal(t, d("2025-09-01"), segs[0].From)
		assert.Equal(t, d("2025-12-15"), segs[0].To)
		assert.Equal(t, d("2026-01-12"), segs[1].From)
		assert.Equal(t, d("2026-05-25"), segs[1].To)
	})
}
