// file: internals/features/entities/model/fact_models.go
package model

import "time"

/* ============================================
   Facts: insert/upsert by natural id, never revised except by a later
   pass re-deriving the same row.
============================================ */

type AttendanceEvent struct {
	AttendanceID   int64     `gorm:"primaryKey;column:attendance_id" json:"attendance_id"`
	StudentID      int64     `gorm:"not null;uniqueIndex:uq_attendance_student_lesson;column:student_id" json:"student_id"`
	LessonID       int64     `gorm:"not null;uniqueIndex:uq_attendance_student_lesson;column:lesson_id" json:"lesson_id"`
	AttendanceDate time.Time `gorm:"type:date;not null;column:attendance_date" json:"attendance_date"`
	// Source status codes pass through unchanged: 0 present, the rest are the
	// source's absence/lateness codes.
	StatusCode     int     `gorm:"not null;default:0;column:status_code" json:"status_code"`
	PeriodID       *int64  `gorm:"column:period_id" json:"period_id,omitempty"`
	SubjectID      *int64  `gorm:"column:subject_id" json:"subject_id,omitempty"`
	GradeCohort    *int    `gorm:"column:grade_cohort" json:"grade_cohort,omitempty"`
	StudentNameSrc *string `gorm:"type:text;column:student_name_src" json:"student_name_src,omitempty"`
}

func (AttendanceEvent) TableName() string { return "attendance_event" }

type MarkCurrent struct {
	MarkID            int64      `gorm:"primaryKey;column:mark_id" json:"mark_id"`
	StudentID         int64      `gorm:"not null;column:student_id" json:"student_id"`
	GroupID           *int64     `gorm:"column:group_id" json:"group_id,omitempty"`
	PeriodID          *int64     `gorm:"column:period_id" json:"period_id,omitempty"`
	PeriodLabelRaw    *string    `gorm:"type:text;column:period_label_raw" json:"period_label_raw,omitempty"`
	GroupNameSnapshot *string    `gorm:"type:text;column:group_name_snapshot" json:"group_name_snapshot,omitempty"`
	LessonDate        time.Time  `gorm:"type:date;not null;column:lesson_date" json:"lesson_date"`
	CreatedAtSrc      *time.Time `gorm:"type:timestamptz;column:created_at_src" json:"created_at_src,omitempty"`
	Value             *float64   `gorm:"type:numeric(6,2);column:value" json:"value,omitempty"`
	Assessment        *string    `gorm:"type:text;column:assessment" json:"assessment,omitempty"`
	AssessmentScheme  *string    `gorm:"type:text;column:assessment_scheme" json:"assessment_scheme,omitempty"`
	IsControl         bool       `gorm:"not null;default:false;column:is_control" json:"is_control"`
	FormID            *int64     `gorm:"column:form_id" json:"form_id,omitempty"`
	FormNameRaw       *string    `gorm:"type:text;column:form_name_raw" json:"form_name_raw,omitempty"`
	WeightRaw         *float64   `gorm:"type:numeric(6,2);column:weight_raw" json:"weight_raw,omitempty"`
	WeightPct         *int       `gorm:"column:weight_pct" json:"weight_pct,omitempty"`
}

func (MarkCurrent) TableName() string { return "mark_current" }

type MarkFinal struct {
	FinalMarkID       int64      `gorm:"primaryKey;column:final_mark_id" json:"final_mark_id"`
	StudentID         int64      `gorm:"not null;uniqueIndex:uq_mark_final_scope;column:student_id" json:"student_id"`
	GroupID           *int64     `gorm:"uniqueIndex:uq_mark_final_scope;column:group_id" json:"group_id,omitempty"`
	SubjectID         *int64     `gorm:"column:subject_id" json:"subject_id,omitempty"`
	PeriodID          *int64     `gorm:"uniqueIndex:uq_mark_final_scope;column:period_id" json:"period_id,omitempty"`
	PeriodLabelRaw    *string    `gorm:"type:text;column:period_label_raw" json:"period_label_raw,omitempty"`
	GroupNameSnapshot *string    `gorm:"type:text;column:group_name_snapshot" json:"group_name_snapshot,omitempty"`
	LessonDate        time.Time  `gorm:"type:date;not null;column:lesson_date" json:"lesson_date"`
	Value             *float64   `gorm:"type:numeric(6,2);column:value" json:"value,omitempty"`
	FinalCriterionRaw *string    `gorm:"type:text;column:final_criterion_raw" json:"final_criterion_raw,omitempty"`
	AssessmentScheme  *string    `gorm:"type:text;column:assessment_scheme" json:"assessment_scheme,omitempty"`
	CreatedAtSrc      *time.Time `gorm:"type:timestamptz;column:created_at_src" json:"created_at_src,omitempty"`
}

func (MarkFinal) TableName() string { return "mark_final" }
