// file: internals/features/normalize/service/matcher_test.go
package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func i64p(v int64) *int64 { return &v }

func TestMatcherRankOrder(t *testing.T) {
	byID := map[int64]int64{100: 1}
	byEmail := map[string]int64{"jane@school.example": 2}
	m := NewStaffMatcher(byID, byEmail)

	t.Run("natural id outranks email", func(t *testing.T) {
		id, ok := m.Resolve(PersonRef{NaturalID: i64p(100), Email: "jane@school.example"})
		require.True(t, ok)
		assert.Equal(t, int64(1), id)
	})

	t.Run("email catches unknown id", func(t *testing.T) {
		id, ok := m.Resolve(PersonRef{NaturalID: i64p(999), Email: "JANE@school.example "})
		require.True(t, ok)
		assert.Equal(t, int64(2), id)
	})

	t.Run("email only", func(t *testing.T) {
		id, ok := m.Resolve(PersonRef{Email: "jane@school.example"})
		require.True(t, ok)
		assert.Equal(t, int64(2), id)
	})

	t.Run("nothing matches", func(t *testing.T) {
		_, ok := m.Resolve(PersonRef{NaturalID: i64p(999), Email: "nobody@school.example"})
		assert.False(t, ok)
	})

	t.Run("blank ref", func(t *testing.T) {
		_, ok := m.Resolve(PersonRef{})
		assert.False(t, ok)
	})
}

func TestStudentMatcher(t *testing.T) {
	m := NewStudentMatcher(map[int64]int64{5001: 5001}, map[string]int64{})
	id, ok := m.Resolve(PersonRef{NaturalID: i64p(5001)})
	require.True(t, ok)
	assert.Equal(t, int64(5001), id)
}

func TestBatchStatsTolerance(t *testing.T) {
	t.Run("under tolerance passes", func(t *testing.T) {
		b := &BatchStats{Endpoint: "attendance"}
		for i := 0; i < 9; i++ {
			b.Ok()
		}
		b.Skip()
		require.NoError(t, b.CheckTolerance(0.5))
		assert.Equal(t, 10, b.Total())
		assert.InDelta(t, 0.1, b.SkipRatio(), 1e-9)
	})

	t.Run("exactly at tolerance passes", func(t *testing.T) {
		b := &BatchStats{Endpoint: "attendance"}
		b.Ok()
		b.Skip()
		assert.NoError(t, b.CheckTolerance(0.5))
	})

	t.Run("over tolerance fails", func(t *testing.T) {
		b := &BatchStats{Endpoint: "attendance"}
		b.Ok()
		b.Skip()
		b.Skip()
		err := b.CheckTolerance(0.5)
		require.Error(t, err)
	})

	t.Run("empty window passes", func(t *testing.T) {
		b := &BatchStats{Endpoint: "marks_current"}
		assert.NoError(t, b.CheckTolerance(0))
		assert.Zero(t, b.SkipRatio())
	})
}
