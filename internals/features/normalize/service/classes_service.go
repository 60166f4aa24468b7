// file: internals/features/normalize/service/classes_service.go
package service

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"schoolsync_backend/internals/features/entities/model"
	"schoolsync_backend/internals/features/ingest"
	intervalsvc "schoolsync_backend/internals/features/interval/service"
	"schoolsync_backend/internals/helpers/dateutil"
)

// RunClasses projects the class snapshot: classes, homeroom teacher intervals
// and student-class enrolments. seasonStart is the valid_from for intervals a
// class gets for the first time; runDay is the transition date when an
// existing homeroom changes mid-season.
func (n *Normalizer) RunClasses(tx *gorm.DB, seasonStart, runDay time.Time) (*BatchStats, error) {
	stats := &BatchStats{Endpoint: "core_classes"}

	rows, err := n.snapshotRows(tx, ingest.EndpointClasses)
	if err != nil {
		return nil, err
	}

	for _, p := range rows {
		code := p.Str("title")
		if code == "" {
			stats.Skip()
			continue
		}
		cls := model.Class{ClassCode: code, Cohort: CohortInt(p.Str("cohort"))}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "class_code"}},
			DoUpdates: clause.AssignmentColumns([]string{"cohort"}),
		}).Create(&cls).Error; err != nil {
			return nil, err
		}
		stats.Ok()
	}

	if err := n.upsertClassTeachers(tx, rows, seasonStart, runDay, stats); err != nil {
		return nil, err
	}
	if err := n.upsertEnrolments(tx, seasonStart, stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// upsertClassTeachers keeps the homeroom history through the interval manager:
// a class with no homeroom interval gets one opened at the season start; a
// class whose open interval names a different teacher transitions on the run
// day. When the open interval already starts on the run day the staff id is
// rewritten in place, since a close at runDay-1 would reverse its bounds.
// The homeroom is matched by email first, then by external staff id.
func (n *Normalizer) upsertClassTeachers(tx *gorm.DB, rows []P, seasonStart, runDay time.Time, stats *BatchStats) error {
	classID, err := classIndex(tx)
	if err != nil {
		return err
	}
	byEmail, err := staffEmailIndex(tx)
	if err != nil {
		return err
	}
	byExternal, err := staffExternalIndex(tx)
	if err != nil {
		return err
	}
	matcher := NewMatcher(
		emailStrategy{byEmail: byEmail},
		naturalIDStrategy{byID: byExternal},
	)
	mgr := intervalsvc.NewManager("class_teacher", "class_id")

	for _, p := range rows {
		cid, ok := classID[p.Str("title")]
		if !ok {
			continue
		}
		ref := PersonRef{NaturalID: p.I64Ptr("homeroom_staff_id"), Email: p.Str("homeroom_email")}
		staffID, ok := matcher.Resolve(ref)
		if !ok {
			if ref.Email != "" || ref.NaturalID != nil {
				stats.Skip()
			}
			continue
		}

		key := intervalsvc.Key{"class_id": cid}
		hasOpen, err := mgr.HasOpen(tx, key)
		if err != nil {
			return err
		}
		if !hasOpen {
			if err := mgr.OpenInterval(tx, key, map[string]any{"staff_id": staffID}, seasonStart); err != nil {
				return err
			}
			stats.Ok()
			continue
		}
		cur, err := mgr.OpenAttrs(tx, key, "staff_id", "valid_from")
		if err != nil {
			return err
		}
		if toInt64(cur["staff_id"]) == staffID {
			stats.Ok()
			continue
		}
		if homeroomRewriteInPlace(toTime(cur["valid_from"]), runDay) {
			if err := mgr.UpdateOpenAttrs(tx, key, map[string]any{"staff_id": staffID}); err != nil {
				return err
			}
		} else if err := mgr.ReplaceFrom(tx, key, runDay, map[string]any{"staff_id": staffID}); err != nil {
			return err
		}
		stats.Ok()
	}
	return nil
}

// upsertEnrolments records (student, class, valid_from) rows from the student
// snapshot's class_name field. DO NOTHING on conflict: history rows are never
// rewritten by a snapshot.
func (n *Normalizer) upsertEnrolments(tx *gorm.DB, effectiveDate time.Time, stats *BatchStats) error {
	students, err := n.snapshotRows(tx, ingest.EndpointStudents)
	if err != nil {
		return err
	}
	classID, err := classIndex(tx)
	if err != nil {
		return err
	}
	studentSet, err := studentIDSet(tx)
	if err != nil {
		return err
	}
	for _, p := range students {
		sid, ok := p.I64("student_id")
		cid, found := classID[p.Str("class_name")]
		if !ok || !found || !studentSet[sid] {
			if p.Str("class_name") != "" {
				stats.Skip()
			}
			continue
		}
		enr := model.StudentClassEnrolment{StudentID: sid, ClassID: cid, ValidFrom: effectiveDate}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&enr).Error; err != nil {
			return err
		}
		stats.Ok()
	}
	return nil
}

func classIndex(tx *gorm.DB) (map[string]int64, error) {
	var rows []model.Class
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, c := range rows {
		out[c.ClassCode] = c.ClassID
	}
	return out, nil
}

// homeroomRewriteInPlace decides how a changed homeroom lands on the open
// interval: one that starts on (or after) the transition day is rewritten in
// place, an older one is closed and replaced from the transition day.
func homeroomRewriteInPlace(openedFrom, transitionDay time.Time) bool {
	return !dateutil.Day(openedFrom).Before(dateutil.Day(transitionDay))
}

func toTime(v any) time.Time {
	if t, ok := v.(time.Time); ok {
		return t
	}
	return time.Time{}
}

func toInt64(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int32:
		return int64(t)
	case int:
		return int64(t)
	case float64:
		return int64(t)
	default:
		return 0
	}
}
