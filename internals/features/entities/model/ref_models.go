// file: internals/features/entities/model/ref_models.go
package model

import "time"

/* ============================================
   Slowly-changing reference data
============================================ */

type Department struct {
	DepartmentID   int64  `gorm:"primaryKey;autoIncrement;column:department_id" json:"department_id"`
	DepartmentName string `gorm:"type:text;not null;uniqueIndex;column:department_name" json:"department_name"`
}

func (Department) TableName() string { return "ref_department" }

type Subject struct {
	SubjectID    int64   `gorm:"primaryKey;column:subject_id" json:"subject_id"`
	SubjectTitle string  `gorm:"type:text;not null;column:subject_title" json:"subject_title"`
	InCurriculum bool    `gorm:"not null;default:false;column:in_curriculum" json:"in_curriculum"`
	InOlymp      bool    `gorm:"not null;default:false;column:in_olymp" json:"in_olymp"`
	DepartmentID *int64  `gorm:"column:department_id" json:"department_id,omitempty"`
	IsClosed     bool    `gorm:"not null;default:false;column:is_closed" json:"is_closed"`
}

func (Subject) TableName() string { return "ref_subject" }

type WorkForm struct {
	FormID          int64      `gorm:"primaryKey;column:form_id" json:"form_id"`
	FormName        string     `gorm:"type:text;not null;column:form_name" json:"form_name"`
	FormDescription *string    `gorm:"type:text;column:form_description" json:"form_description,omitempty"`
	IsControl       bool       `gorm:"not null;default:false;column:is_control" json:"is_control"`
	// Weight clamped into 0..100 at normalization time.
	WeightPct      int        `gorm:"not null;default:0;column:weight_pct" json:"weight_pct"`
	FormPercentRaw *int       `gorm:"column:form_percent_raw" json:"form_percent_raw,omitempty"`
	CreatedAtSrc   *time.Time `gorm:"type:timestamptz;column:created_at_src" json:"created_at_src,omitempty"`
	ArchivedAtSrc  *time.Time `gorm:"type:timestamptz;column:archived_at_src" json:"archived_at_src,omitempty"`
	DeletedAtSrc   *time.Time `gorm:"type:timestamptz;column:deleted_at_src" json:"deleted_at_src,omitempty"`
}

func (WorkForm) TableName() string { return "ref_work_form" }

type AcademicPeriod struct {
	PeriodID   int64     `gorm:"primaryKey;autoIncrement;column:period_id" json:"period_id"`
	PeriodName string    `gorm:"type:text;not null;column:period_name" json:"period_name"`
	StartDate  time.Time `gorm:"type:date;not null;column:start_date" json:"start_date"`
	EndDate    time.Time `gorm:"type:date;not null;column:end_date" json:"end_date"`
}

func (AcademicPeriod) TableName() string { return "ref_academic_period" }

type Programme struct {
	ProgrammeCode string `gorm:"primaryKey;type:varchar(16);column:programme_code" json:"programme_code"`
	ProgrammeName string `gorm:"type:text;not null;column:programme_name" json:"programme_name"`
}

func (Programme) TableName() string { return "ref_programme" }
