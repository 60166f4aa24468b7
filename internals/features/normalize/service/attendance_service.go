// file: internals/features/normalize/service/attendance_service.go
package service

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"schoolsync_backend/internals/features/entities/model"
	"schoolsync_backend/internals/features/ingest"
	syncsvc "schoolsync_backend/internals/features/syncstate/service"
)

// Source attendance status codes that pass through unchanged; anything else
// is coerced to present (0).
var knownStatusCodes = map[int]bool{0: true, 1: true, 2: true, 3: true, 6: true, 7: true}

// RunAttendance projects attendance events within the window. Events whose
// student or lesson is unknown are MissingReference skips; the caller decides
// whether the accumulated skip ratio keeps the window committable.
func (n *Normalizer) RunAttendance(tx *gorm.DB, w syncsvc.Window) (*BatchStats, error) {
	stats := &BatchStats{Endpoint: "core_attendance"}

	rows, err := n.windowRows(tx, ingest.EndpointAttendance, w)
	if err != nil {
		return nil, err
	}
	periods, err := loadPeriods(tx)
	if err != nil {
		return nil, err
	}
	subjectID, err := subjectTitleIndex(tx)
	if err != nil {
		return nil, err
	}
	studentSet, err := studentIDSet(tx)
	if err != nil {
		return nil, err
	}
	lessonSet, err := lessonIDSet(tx)
	if err != nil {
		return nil, err
	}

	for _, p := range rows {
		aid, okA := p.I64("id")
		sid, okS := p.I64("student_id")
		lid, okL := p.I64("lesson_id")
		day, okD := p.Date("attendance_date")
		if !okA || !okD {
			stats.Skip()
			continue
		}
		if !okS || !okL || !studentSet[sid] || !lessonSet[lid] {
			stats.Skip()
			continue
		}

		status, _ := p.Int("status")
		if !knownStatusCodes[status] {
			status = 0
		}
		ev := model.AttendanceEvent{
			AttendanceID:   aid,
			StudentID:      sid,
			LessonID:       lid,
			AttendanceDate: day,
			StatusCode:     status,
			PeriodID:       periodFor(periods, day),
			GradeCohort:    p.IntPtr("grade"),
			StudentNameSrc: p.StrPtr("student"),
		}
		if subj, ok := subjectID[p.Str("subject_name")]; ok {
			ev.SubjectID = &subj
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "attendance_id"}},
			UpdateAll: true,
		}).Create(&ev).Error; err != nil {
			return nil, err
		}
		stats.Ok()
	}
	return stats, nil
}

func lessonIDSet(tx *gorm.DB) (map[int64]bool, error) {
	var ids []int64
	if err := tx.Model(&model.Lesson{}).Pluck("lesson_id", &ids).Error; err != nil {
		return nil, err
	}
	out := make(map[int64]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
