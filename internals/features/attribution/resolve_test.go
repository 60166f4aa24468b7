// file: internals/features/attribution/resolve_test.go
package attribution

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolsync_backend/internals/features/interval"
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

func open(from string) interval.Interval {
	return interval.Interval{ValidFrom: d(from)}
}

func member(id int64, code, from string) Member {
	return Member{StudentID: id, ProgrammeCode: code, Valid: open(from)}
}

func TestDominantProgramme(t *testing.T) {
	day := d("2026-02-10")

	t.Run("plain majority", func(t *testing.T) {
		members := []Member{
			member(1, "IB", "2025-09-01"),
			member(2, "IB", "2025-09-01"),
			member(3, "STATE", "2025-09-01"),
		}
		code, ok := DominantProgramme(members, day)
		require.True(t, ok)
		assert.Equal(t, "IB", code)
	})

	t.Run("tie breaks to smallest code", func(t *testing.T) {
		members := []Member{
			member(1, "STATE", "2025-09-01"),
			member(2, "STATE", "2025-09-01"),
			member(3, "STATE", "2025-09-01"),
			member(4, "IB", "2025-09-01"),
			member(5, "IB", "2025-09-01"),
			member(6, "IB", "2025-09-01"),
		}
		code, ok := DominantProgramme(members, day)
		require.True(t, ok)
		assert.Equal(t, "IB", code)
	})

	t.Run("only covering memberships count", func(t *testing.T) {
		members := []Member{
			{StudentID: 1, ProgrammeCode: "IB", Valid: interval.Interval{ValidFrom: d("2025-09-01"), ValidTo: dp("2025-12-31")}},
			member(2, "STATE", "2026-01-01"),
		}
		code, ok := DominantProgramme(members, day)
		require.True(t, ok)
		assert.Equal(t, "STATE", code)
	})

	t.Run("blank programmes ignored", func(t *testing.T) {
		members := []Member{
			member(1, "", "2025-09-01"),
			member(2, "", "2025-09-01"),
		}
		_, ok := DominantProgramme(members, day)
		assert.False(t, ok)
	})
}

func TestPrimaryTeacher(t *testing.T) {
	day := d("2026-02-10")

	t.Run("flagged primary wins", func(t *testing.T) {
		realized := []LessonTeacher{
			{StaffID: 12, IsPrimary: false},
			{StaffID: 30, IsPrimary: true},
		}
		id, ok := PrimaryTeacher(realized, nil, day)
		require.True(t, ok)
		assert.Equal(t, int64(30), id)
	})

	t.Run("several flagged take smallest id", func(t *testing.T) {
		realized := []LessonTeacher{
			{StaffID: 12, IsPrimary: true},
			{StaffID: 7, IsPrimary: true},
		}
		id, ok := PrimaryTeacher(realized, nil, day)
		require.True(t, ok)
		assert.Equal(t, int64(7), id)
	})

	t.Run("none flagged take smallest id", func(t *testing.T) {
		realized := []LessonTeacher{
			{StaffID: 12},
			{StaffID: 7},
		}
		id, ok := PrimaryTeacher(realized, nil, day)
		require.True(t, ok)
		assert.Equal(t, int64(7), id)
	})

	t.Run("fallback to covering assignment", func(t *testing.T) {
		assigned := []StaffAssignment{
			{StaffID: 9, Valid: interval.Interval{ValidFrom: d("2025-09-01"), ValidTo: dp("2025-12-31")}},
			{StaffID: 21, Valid: open("2026-01-01")},
		}
		id, ok := PrimaryTeacher(nil, assigned, day)
		require.True(t, ok)
		assert.Equal(t, int64(21), id)
	})

	t.Run("nothing resolves", func(t *testing.T) {
		_, ok := PrimaryTeacher(nil, nil, day)
		assert.False(t, ok)
	})
}
