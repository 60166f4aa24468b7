// file: internals/features/interval/interval_test.go
package interval

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

func dp(s string) *time.Time {
	t := d(s)
	return &t
}

func TestCovers(t *testing.T) {
	closed := Interval{ValidFrom: d("2025-09-01"), ValidTo: dp("2025-12-31")}
	assert.True(t, closed.Covers(d("2025-09-01")))
	assert.True(t, closed.Covers(d("2025-12-31")))
	assert.False(t, closed.Covers(d("2026-01-01")))
	assert.False(t, closed.Covers(d("2025-08-31")))

	open := Interval{ValidFrom: d("2026-01-01")}
	assert.True(t, open.Covers(d("2030-06-15")))
	assert.False(t, open.Covers(d("2025-12-31")))
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name string
		a, b Interval
		want bool
	}{
		{
			name: "disjoint closed",
			a:    Interval{ValidFrom: d("2025-09-01"), ValidTo: dp("2025-09-30")},
			b:    Interval{ValidFrom: d("2025-10-01"), ValidTo: dp("2025-10-31")},
			want: false,
		},
		{
			name: "touching on one day",
			a:    Interval{ValidFrom: d("2025-09-01"), ValidTo: dp("2025-09-30")},
			b:    Interval{ValidFrom: d("2025-09-30"), ValidTo: dp("2025-10-31")},
			want: true,
		},
		{
			name: "open swallows later closed",
			a:    Interval{ValidFrom: d("2025-09-01")},
			b:    Interval{ValidFrom: d("2026-02-01"), ValidTo: dp("2026-02-28")},
			want: true,
		},
		{
			name: "closed before open starts",
			a:    Interval{ValidFrom: d("2025-09-01"), ValidTo: dp("2025-09-30")},
			b:    Interval{ValidFrom: d("2025-10-01")},
			want: false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Overlaps(tc.a, tc.b))
			assert.Equal(t, tc.want, Overlaps(tc.b, tc.a))
		})
	}
}

func TestValidateSet(t *testing.T) {
	t.Run("valid history with one open", func(t *testing.T) {
		set := []Interval{
			{ValidFrom: d("2025-09-01"), ValidTo: dp("2025-12-31")},
			{ValidFrom: d("2026-01-01")},
		}
		require.NoError(t, ValidateSet(set))
	})

	t.Run("overlap rejected", func(t *testing.T) {
		set := []Interval{
			{ValidFrom: d("2025-09-01"), ValidTo: dp("2025-12-31")},
			{ValidFrom: d("2025-12-31")},
		}
		require.Error(t, ValidateSet(set))
	})

	t.Run("two open rejected", func(t *testing.T) {
		set := []Interval{
			{ValidFrom: d("2025-09-01"), ValidTo: dp("2025-09-30")},
			{ValidFrom: d("2025-10-01")},
			{ValidFrom: d("2026-10-01")},
		}
		require.Error(t, ValidateSet(set))
	})

	t.Run("reversed bounds rejected", func(t *testing.T) {
		set := []Interval{{ValidFrom: d("2025-09-10"), ValidTo: dp("2025-09-01")}}
		require.Error(t, ValidateSet(set))
	})

	t.Run("empty set valid", func(t *testing.T) {
		require.NoError(t, ValidateSet(nil))
	})
}

// replaceSet models the compound transition write: the open interval closed
// at effective-1 plus a new open interval at effective.
func replaceSet(openFrom, effective time.Time) []Interval {
	closed := effective.AddDate(0, 0, -1)
	return []Interval{
		{ValidFrom: openFrom, ValidTo: &closed},
		{ValidFrom: effective},
	}
}

func TestReplacePostState(t *testing.T) {
	t.Run("mid history transition", func(t *testing.T) {
		set := replaceSet(d("2024-01-01"), d("2025-09-01"))
		require.NoError(t, ValidateSet(set))

		// contiguous around the transition: exactly one cover on each side
		iv, ok := CoveringAt(set, d("2025-08-31"))
		require.True(t, ok)
		assert.False(t, iv.Open())
		iv, ok = CoveringAt(set, d("2025-09-01"))
		require.True(t, ok)
		assert.True(t, iv.Open())
	})

	t.Run("same day as the open start is not closable", func(t *testing.T) {
		// closing at effective-1 would reverse the first interval's bounds;
		// that state must never validate, the attribute is rewritten in
		// place instead
		set := replaceSet(d("2025-09-01"), d("2025-09-01"))
		require.Error(t, ValidateSet(set))
	})

	t.Run("transition the day after opening", func(t *testing.T) {
		set := replaceSet(d("2025-09-01"), d("2025-09-02"))
		require.NoError(t, ValidateSet(set))
	})
}

func TestCoveringAt(t *testing.T) {
	set := []Interval{
		{ValidFrom: d("2025-09-01"), ValidTo: dp("2025-12-31")},
		{ValidFrom: d("2026-01-01")},
	}
	iv, ok := CoveringAt(set, d("2025-10-15"))
	require.True(t, ok)
	assert.Equal(t, d("2025-09-01"), iv.ValidFrom)

	iv, ok = CoveringAt(set, d("2026-03-01"))
	require.True(t, ok)
	assert.True(t, iv.Open())

	_, ok = CoveringAt(set, d("2025-08-31"))
	assert.False(t, ok)
}
