// file: internals/features/attribution/service/attribution_service.go
package service

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"schoolsync_backend/internals/features/attribution"
	"schoolsync_backend/internals/features/entities/model"
	"schoolsync_backend/internals/features/interval"
	"schoolsync_backend/internals/helpers/etlerr"
)

// AttributionService rebuilds the derived group relations and answers the
// per-lesson resolutions.
type AttributionService struct {
	DB  *gorm.DB
	Log *zap.SugaredLogger
}

func NewAttributionService(db *gorm.DB, log *zap.SugaredLogger) *AttributionService {
	return &AttributionService{DB: db, Log: log}
}

type factPoint struct {
	GroupID  int64     `gorm:"column:group_id"`
	PartyID  int64     `gorm:"column:party_id"`
	FactDate time.Time `gorm:"column:fact_date"`
}

// RebuildMemberships re-derives group_staff_assignment from realized lessons
// and group_student_membership from attendance and current marks. The tables
// are rebuilt wholesale inside one transaction: fact points are merged into
// segments with the merge-gap tolerance, so a row only splits where the
// participation really paused.
func (s *AttributionService) RebuildMemberships(tx *gorm.DB, mergeGapDays int) error {
	staffPoints, err := s.staffFactPoints(tx)
	if err != nil {
		return err
	}
	studentPoints, err := s.studentFactPoints(tx)
	if err != nil {
		return err
	}

	if err := tx.Exec(`DELETE FROM group_staff_assignment`).Error; err != nil {
		return err
	}
	staffRows := 0
	for key, days := range staffPoints {
		for _, seg := range attribution.BuildSegments(days, mergeGapDays) {
			to := seg.To
			row := model.GroupStaffAssignment{
				GroupID:   key.groupID,
				StaffID:   key.partyID,
				ValidFrom: seg.From,
				ValidTo:   &to,
			}
			if err := tx.Create(&row).Error; err != nil {
				return etlerr.FromPg(err)
			}
			staffRows++
		}
	}

	if err := tx.Exec(`DELETE FROM group_student_membership`).Error; err != nil {
		return err
	}
	studentRows := 0
	for key, days := range studentPoints {
		for _, seg := range attribution.BuildSegments(days, mergeGapDays) {
			to := seg.To
			row := model.GroupStudentMembership{
				GroupID:   key.groupID,
				StudentID: key.partyID,
				ValidFrom: seg.From,
				ValidTo:   &to,
			}
			if err := tx.Create(&row).Error; err != nil {
				return etlerr.FromPg(err)
			}
			studentRows++
		}
	}

	s.Log.Infow("memberships rebuilt",
		"stage", "core", "merge_gap_days", mergeGapDays,
		"staff_rows", staffRows, "student_rows", studentRows)
	return nil
}

type partyKey struct {
	groupID int64
	partyID int64
}

// staffFactPoints collects (group, staff, lesson date) from realized lessons,
// replacements excluded: a substitute does not earn a group assignment.
func (s *AttributionService) staffFactPoints(tx *gorm.DB) (map[partyKey][]time.Time, error) {
	var pts []factPoint
	err := tx.Raw(`
		SELECT DISTINCT ts.group_id, ls.staff_id AS party_id, l.lesson_date AS fact_date
		FROM lesson l
		JOIN lesson_staff ls        ON ls.lesson_id = l.lesson_id
		JOIN timetable_schedule ts  ON ts.schedule_id = l.schedule_id
		WHERE NOT l.is_replacement`).Scan(&pts).Error
	if err != nil {
		return nil, err
	}
	return groupPoints(pts), nil
}

// studentFactPoints collects participation dates from attendance events and
// current marks, unioned.
func (s *AttributionService) studentFactPoints(tx *gorm.DB) (map[partyKey][]time.Time, error) {
	var pts []factPoint
	err := tx.Raw(`
		SELECT DISTINCT ts.group_id, a.student_id AS party_id, l.lesson_date AS fact_date
		FROM attendance_event a
		JOIN lesson l              ON l.lesson_id = a.lesson_id
		JOIN timetable_schedule ts ON ts.schedule_id = l.schedule_id
		UNION
		SELECT DISTINCT mc.group_id, mc.student_id AS party_id, mc.lesson_date AS fact_date
		FROM mark_current mc
		WHERE mc.group_id IS NOT NULL`).Scan(&pts).Error
	if err != nil {
		return nil, err
	}
	return groupPoints(pts), nil
}

func groupPoints(pts []factPoint) map[partyKey][]time.Time {
	out := map[partyKey][]time.Time{}
	for _, p := range pts {
		k := partyKey{groupID: p.GroupID, partyID: p.PartyID}
		out[k] = append(out[k], p.FactDate)
	}
	return out
}

// LessonDominantProgramme resolves the programme attributed to a lesson from
// the group members covering the lesson date. ok is false for unattributed
// lessons.
func (s *AttributionService) LessonDominantProgramme(lessonID int64) (string, bool, error) {
	var lesson model.Lesson
	if err := s.DB.Take(&lesson, "lesson_id = ?", lessonID).Error; err != nil {
		return "", false, fmt.Errorf("load lesson %d: %w", lessonID, err)
	}
	var sched model.TimetableSchedule
	if err := s.DB.Take(&sched, "schedule_id = ?", lesson.ScheduleID).Error; err != nil {
		return "", false, fmt.Errorf("load schedule %d: %w", lesson.ScheduleID, err)
	}

	type memberRow struct {
		StudentID     int64      `gorm:"column:student_id"`
		ProgrammeCode *string    `gorm:"column:programme_code"`
		ValidFrom     time.Time  `gorm:"column:valid_from"`
		ValidTo       *time.Time `gorm:"column:valid_to"`
	}
	var rows []memberRow
	err := s.DB.Raw(`
		SELECT m.student_id, st.programme_code, m.valid_from, m.valid_to
		FROM group_student_membership m
		JOIN student st ON st.student_id = m.student_id
		WHERE m.group_id = ?`, sched.GroupID).Scan(&rows).Error
	if err != nil {
		return "", false, err
	}

	members := make([]attribution.Member, 0, len(rows))
	for _, r := range rows {
		code := ""
		if r.ProgrammeCode != nil {
			code = *r.ProgrammeCode
		}
		members = append(members, attribution.Member{
			StudentID:     r.StudentID,
			ProgrammeCode: code,
			Valid:         interval.Interval{ValidFrom: r.ValidFrom, ValidTo: r.ValidTo},
		})
	}
	code, ok := attribution.DominantProgramme(members, lesson.LessonDate)
	return code, ok, nil
}

// LessonPrimaryTeacher resolves the teacher attributed to a lesson.
func (s *AttributionService) LessonPrimaryTeacher(lessonID int64) (int64, bool, error) {
	var lesson model.Lesson
	if err := s.DB.Take(&lesson, "lesson_id = ?", lessonID).Error; err != nil {
		return 0, false, fmt.Errorf("load lesson %d: %w", lessonID, err)
	}
	var sched model.TimetableSchedule
	if err := s.DB.Take(&sched, "schedule_id = ?", lesson.ScheduleID).Error; err != nil {
		return 0, false, fmt.Errorf("load schedule %d: %w", lesson.ScheduleID, err)
	}

	var staff []model.LessonStaff
	if err := s.DB.Where("lesson_id = ?", lessonID).Find(&staff).Error; err != nil {
		return 0, false, err
	}
	realized := make([]attribution.LessonTeacher, 0, len(staff))
	for _, ls := range staff {
		realized = append(realized, attribution.LessonTeacher{StaffID: ls.StaffID, IsPrimary: ls.IsPrimary})
	}

	var assignments []model.GroupStaffAssignment
	if err := s.DB.Where("group_id = ?", sched.GroupID).Find(&assignments).Error; err != nil {
		return 0, false, err
	}
	assigned := make([]attribution.StaffAssignment, 0, len(assignments))
	for _, a := range assignments {
		assigned = append(assigned, attribution.StaffAssignment{
			StaffID: a.StaffID,
			Valid:   interval.Interval{ValidFrom: a.ValidFrom, ValidTo: a.ValidTo},
		})
	}

	id, ok := attribution.PrimaryTeacher(realized, assigned, lesson.LessonDate)
	return id, ok, nil
}
