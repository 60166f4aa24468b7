// file: internals/features/entities/model/group_models.go
package model

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

/* ============================================
   Groups + interval-bearing relations
============================================ */

type Class struct {
	ClassID   int64  `gorm:"primaryKey;autoIncrement;column:class_id" json:"class_id"`
	ClassCode string `gorm:"type:text;not null;uniqueIndex;column:class_code" json:"class_code"`
	Cohort    *int   `gorm:"column:cohort" json:"cohort,omitempty"`
}

func (Class) TableName() string { return "class" }

type TeachingGroup struct {
	GroupID   int64  `gorm:"primaryKey;column:group_id" json:"group_id"`
	GroupName string `gorm:"type:text;not null;column:group_name" json:"group_name"`
	SubjectID *int64 `gorm:"column:subject_id" json:"subject_id,omitempty"`
	Active    bool   `gorm:"not null;default:true;column:active" json:"active"`
}

func (TeachingGroup) TableName() string { return "teaching_group" }

// ClassTeacher is the homeroom assignment for a class. Exclusion-constrained:
// one class has at most one covering interval at any date.
type ClassTeacher struct {
	ClassID   int64      `gorm:"primaryKey;column:class_id" json:"class_id"`
	ValidFrom time.Time  `gorm:"primaryKey;type:date;column:valid_from" json:"valid_from"`
	StaffID   int64      `gorm:"not null;column:staff_id" json:"staff_id"`
	ValidTo   *time.Time `gorm:"type:date;column:valid_to" json:"valid_to,omitempty"`
}

func (ClassTeacher) TableName() string { return "class_teacher" }

func (m *ClassTeacher) BeforeSave(tx *gorm.DB) error {
	return checkIntervalBounds(m.ValidFrom, m.ValidTo)
}

// GroupStaffAssignment is exclusion-constrained per (group_id, staff_id):
// several staff may teach a group concurrently (co-teaching), but one staff
// member cannot hold two overlapping intervals on the same group.
type GroupStaffAssignment struct {
	GroupID   int64      `gorm:"primaryKey;column:group_id" json:"group_id"`
	StaffID   int64      `gorm:"primaryKey;column:staff_id" json:"staff_id"`
	ValidFrom time.Time  `gorm:"primaryKey;type:date;column:valid_from" json:"valid_from"`
	ValidTo   *time.Time `gorm:"type:date;column:valid_to" json:"valid_to,omitempty"`
}

func (GroupStaffAssignment) TableName() string { return "group_staff_assignment" }

func (m *GroupStaffAssignment) BeforeSave(tx *gorm.DB) error {
	return checkIntervalBounds(m.ValidFrom, m.ValidTo)
}

// GroupStudentMembership has no exclusion constraint: a student may belong to
// several groups at once and history rows may touch. (key, valid_from) unique.
type GroupStudentMembership struct {
	GroupID   int64      `gorm:"primaryKey;column:group_id" json:"group_id"`
	StudentID int64      `gorm:"primaryKey;column:student_id" json:"student_id"`
	ValidFrom time.Time  `gorm:"primaryKey;type:date;column:valid_from" json:"valid_from"`
	ValidTo   *time.Time `gorm:"type:date;column:valid_to" json:"valid_to,omitempty"`
}

func (GroupStudentMembership) TableName() string { return "group_student_membership" }

func (m *GroupStudentMembership) BeforeSave(tx *gorm.DB) error {
	return checkIntervalBounds(m.ValidFrom, m.ValidTo)
}

type StudentClassEnrolment struct {
	StudentID int64      `gorm:"primaryKey;column:student_id" json:"student_id"`
	ClassID   int64      `gorm:"primaryKey;column:class_id" json:"class_id"`
	ValidFrom time.Time  `gorm:"primaryKey;type:date;column:valid_from" json:"valid_from"`
	ValidTo   *time.Time `gorm:"type:date;column:valid_to" json:"valid_to,omitempty"`
}

func (StudentClassEnrolment) TableName() string { return "student_class_enrolment" }

func (m *StudentClassEnrolment) BeforeSave(tx *gorm.DB) error {
	return checkIntervalBounds(m.ValidFrom, m.ValidTo)
}

// Mirrors the CHECK constraint: valid_to >= valid_from when both present.
func checkIntervalBounds(from time.Time, to *time.Time) error {
	if to != nil && to.Before(from) {
		return errors.New("valid_to must be >= valid_from")
	}
	return nil
}
