// file: internals/features/entities/model/schedule_models.go
package model

import "time"

/* ============================================
   Schedule / lessons
============================================ */

type TimetableSchedule struct {
	ScheduleID         int64      `gorm:"primaryKey;column:schedule_id" json:"schedule_id"`
	GroupID            int64      `gorm:"not null;column:group_id" json:"group_id"`
	SubjectID          *int64     `gorm:"column:subject_id" json:"subject_id,omitempty"`
	Room               *string    `gorm:"type:text;column:room" json:"room,omitempty"`
	ReplacedScheduleID *int64     `gorm:"column:replaced_schedule_id" json:"replaced_schedule_id,omitempty"`
	ScheduleStart      time.Time  `gorm:"type:date;not null;column:schedule_start" json:"schedule_start"`
	ScheduleFinish     *time.Time `gorm:"type:date;column:schedule_finish" json:"schedule_finish,omitempty"`
}

func (TimetableSchedule) TableName() string { return "timetable_schedule" }

// Lesson is an immutable point-in-time occurrence of a schedule rule.
type Lesson struct {
	LessonID           int64     `gorm:"primaryKey;column:lesson_id" json:"lesson_id"`
	ScheduleID         int64     `gorm:"not null;column:schedule_id" json:"schedule_id"`
	LessonDate         time.Time `gorm:"type:date;not null;column:lesson_date" json:"lesson_date"`
	DayNumber          *int      `gorm:"column:day_number" json:"day_number,omitempty"`
	LessonStart        *string   `gorm:"type:time;column:lesson_start" json:"lesson_start,omitempty"`
	LessonFinish       *string   `gorm:"type:time;column:lesson_finish" json:"lesson_finish,omitempty"`
	IsReplacement      bool      `gorm:"not null;default:false;column:is_replacement" json:"is_replacement"`
	ReplacedScheduleID *int64    `gorm:"column:replaced_schedule_id" json:"replaced_schedule_id,omitempty"`
}

func (Lesson) TableName() string { return "lesson" }

// LessonStaff records a realized teacher of a lesson. At most one row per
// lesson should carry is_primary; resolved deterministically downstream, not
// enforced by constraint.
type LessonStaff struct {
	LessonID  int64 `gorm:"primaryKey;column:lesson_id" json:"lesson_id"`
	StaffID   int64 `gorm:"primaryKey;column:staff_id" json:"staff_id"`
	IsPrimary bool  `gorm:"not null;default:false;column:is_primary" json:"is_primary"`
}

func (LessonStaff) TableName() string { return "lesson_staff" }
