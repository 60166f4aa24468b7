// Package attribution derives "as of" attributes from current-state tables.
// Everything here is a pure function of its inputs, so a resolution can be
// re-derived at any time for any date.
package attribution

import (
	"time"

	"schoolsync_backend/internals/features/interval"
)

// Member is one group member considered for programme attribution.
type Member struct {
	StudentID     int64
	ProgrammeCode string
	Valid         interval.Interval
}

// DominantProgramme picks the most common programme among the members whose
// membership covers day. Count ties break to the lexicographically smallest
// code. ok is false when no covering member carries a programme.
func DominantProgramme(members []Member, day time.Time) (code string, ok bool) {
	counts := map[string]int{}
	for _, m := range members {
		if m.ProgrammeCode == "" || !m.Valid.Covers(day) {
			continue
		}
		counts[m.ProgrammeCode]++
	}
	best, bestN := "", 0
	for c, n := range counts {
		if n > bestN || (n == bestN && (best == "" || c < best)) {
			best, bestN = c, n
		}
	}
	return best, best != ""
}

// LessonTeacher is a realized teacher record of one lesson.
type LessonTeacher struct {
	StaffID   int64
	IsPrimary bool
}

// StaffAssignment is one group-staff interval considered as fallback.
type StaffAssignment struct {
	StaffID int64
	Valid   interval.Interval
}

// PrimaryTeacher resolves the teacher attributed to a lesson on day. The
// realized record flagged primary wins; with several flagged, or none, the
// smallest staff id among the candidates wins. Without any realized record
// the covering group assignment is the fallback, same tie-break. ok is false
// when nothing resolves.
func PrimaryTeacher(realized []LessonTeacher, assigned []StaffAssignment, day time.Time) (staffID int64, ok bool) {
	if len(realized) > 0 {
		if id, found := smallestID(realized, true); found {
			return id, true
		}
		id, _ := smallestID(realized, false)
		return id, true
	}
	var best int64
	for _, a := range assigned {
		if !a.Valid.Covers(day) {
			continue
		}
		if best == 0 || a.StaffID < best {
			best = a.StaffID
		}
	}
	return best, best != 0
}

func smallestID(teachers []LessonTeacher, primaryOnly bool) (int64, bool) {
	var best int64
	for _, t := range teachers {
		if primaryOnly && !t.IsPrimary {
			continue
		}
		if best == 0 || t.StaffID < best {
			best = t.StaffID
		}
	}
	return best, best != 0
}
