// file: internals/features/normalize/service/schedule_service.go
package service

import (
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"schoolsync_backend/internals/features/entities/model"
	"schoolsync_backend/internals/features/ingest"
	syncsvc "schoolsync_backend/internals/features/syncstate/service"
)

// RunSchedule projects the schedule window: teaching groups, timetable rules,
// lesson occurrences and realized lesson staff. One raw schedule row carries
// all four, so the passes share the same decoded slice.
func (n *Normalizer) RunSchedule(tx *gorm.DB, w syncsvc.Window) (*BatchStats, error) {
	stats := &BatchStats{Endpoint: "core_schedule"}

	rows, err := n.windowRows(tx, ingest.EndpointSchedule, w)
	if err != nil {
		return nil, err
	}
	subjectID, err := subjectTitleIndex(tx)
	if err != nil {
		return nil, err
	}

	// Pass 1: teaching groups, deduplicated across lessons.
	seenGroup := map[int64]bool{}
	for _, p := range rows {
		gid, ok := p.I64("group_id")
		name := p.Str("group_name")
		if !ok || name == "" || seenGroup[gid] {
			continue
		}
		seenGroup[gid] = true
		tg := model.TeachingGroup{GroupID: gid, GroupName: name, Active: true}
		if sid, ok := subjectID[p.Str("subject_name")]; ok {
			tg.SubjectID = &sid
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "group_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"group_name", "subject_id", "active"}),
		}).Create(&tg).Error; err != nil {
			return nil, err
		}
	}

	// Pass 2: timetable rules.
	knownSchedule, err := scheduleIDSet(tx)
	if err != nil {
		return nil, err
	}
	seenSchedule := map[int64]bool{}
	for _, p := range rows {
		sid, okS := p.I64("schedule_id")
		gid, okG := p.I64("group_id")
		start, okD := p.Date("schedule_start")
		if !okS || !okG || !okD {
			stats.Skip()
			continue
		}
		if seenSchedule[sid] {
			continue
		}
		seenSchedule[sid] = true
		knownSchedule[sid] = true
		ts := model.TimetableSchedule{
			ScheduleID:         sid,
			GroupID:            gid,
			Room:               p.StrPtr("room"),
			ReplacedScheduleID: p.I64Ptr("replaced_schedule_id"),
			ScheduleStart:      start,
			ScheduleFinish:     p.DatePtr("schedule_finish"),
		}
		if subj, ok := subjectID[p.Str("subject_name")]; ok {
			ts.SubjectID = &subj
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "schedule_id"}},
			UpdateAll: true,
		}).Create(&ts).Error; err != nil {
			return nil, err
		}
	}

	// Pass 3: lesson occurrences. A lesson whose timetable rule never landed
	// (pass 2 skipped it) is skip-counted, not inserted dangling.
	for _, p := range rows {
		lid, okL := p.I64("lesson_id")
		sid, okS := p.I64("schedule_id")
		day, okD := p.Date("lesson_date")
		if !okL || !okS || !okD || !knownSchedule[sid] {
			stats.Skip()
			continue
		}
		l := model.Lesson{
			LessonID:           lid,
			ScheduleID:         sid,
			LessonDate:         day,
			DayNumber:          p.IntPtr("day_number"),
			LessonStart:        p.StrPtr("lesson_start"),
			LessonFinish:       p.StrPtr("lesson_finish"),
			IsReplacement:      p.Bool01("is_replacement"),
			ReplacedScheduleID: p.I64Ptr("replaced_schedule_id"),
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "lesson_id"}},
			UpdateAll: true,
		}).Create(&l).Error; err != nil {
			return nil, err
		}
		stats.Ok()
	}

	// Pass 4: realized staff. The staff_json keys are external staff ids as
	// strings; non-numeric keys, unknown staff and lessons that never landed
	// are dropped.
	byExternal, err := staffExternalIndex(tx)
	if err != nil {
		return nil, err
	}
	knownLesson, err := lessonIDSet(tx)
	if err != nil {
		return nil, err
	}
	for _, p := range rows {
		lid, ok := p.I64("lesson_id")
		if !ok || !knownLesson[lid] {
			continue
		}
		for key := range p.Map("staff_json") {
			if !isDigits(key) {
				continue
			}
			ext, err := strconv.ParseInt(key, 10, 64)
			if err != nil {
				continue
			}
			staffID, found := byExternal[ext]
			if !found {
				continue
			}
			ls := model.LessonStaff{LessonID: lid, StaffID: staffID, IsPrimary: true}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&ls).Error; err != nil {
				return nil, err
			}
		}
	}

	return stats, nil
}

func scheduleIDSet(tx *gorm.DB) (map[int64]bool, error) {
	var ids []int64
	if err := tx.Model(&model.TimetableSchedule{}).Pluck("schedule_id", &ids).Error; err != nil {
		return nil, err
	}
	out := make(map[int64]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func subjectTitleIndex(tx *gorm.DB) (map[string]int64, error) {
	var rows []model.Subject
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, s := range rows {
		out[s.SubjectTitle] = s.SubjectID
	}
	return out, nil
}
