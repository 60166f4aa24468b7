// file: internals/features/entities/model/person_models.go
package model

import "time"

/* ============================================
   People
   Students carry the source's numeric id; staff and parents come from feeds
   where ids are unreliable, so their durable key is the normalized email and
   the raw id is kept for audit only.
============================================ */

type Student struct {
	StudentID     int64      `gorm:"primaryKey;column:student_id" json:"student_id"`
	FirstName     string     `gorm:"type:text;not null;column:first_name" json:"first_name"`
	LastName      string     `gorm:"type:text;not null;column:last_name" json:"last_name"`
	Gender        *string    `gorm:"type:text;column:gender" json:"gender,omitempty"`
	DOB           *time.Time `gorm:"type:date;column:dob" json:"dob,omitempty"`
	Email         *string    `gorm:"type:text;column:email" json:"email,omitempty"`
	ProgrammeCode *string    `gorm:"type:varchar(16);column:programme_code" json:"programme_code,omitempty"`
	Cohort        *int       `gorm:"column:cohort" json:"cohort,omitempty"`
	Active        bool       `gorm:"not null;default:true;column:active" json:"active"`
}

func (Student) TableName() string { return "student" }

type Staff struct {
	StaffID int64 `gorm:"primaryKey;autoIncrement;column:staff_id" json:"staff_id"`
	// Normalized (trimmed, lower-cased) email; the durable matching key.
	Email           string  `gorm:"type:text;not null;uniqueIndex;column:email" json:"email"`
	StaffName       string  `gorm:"type:text;not null;column:staff_name" json:"staff_name"`
	Gender          *string `gorm:"type:text;column:gender" json:"gender,omitempty"`
	ExternalStaffID *int64  `gorm:"uniqueIndex;column:external_staff_id" json:"external_staff_id,omitempty"`
	Active          bool    `gorm:"not null;default:true;column:active" json:"active"`
}

func (Staff) TableName() string { return "staff" }

type Parent struct {
	ParentID   int64  `gorm:"primaryKey;autoIncrement;column:parent_id" json:"parent_id"`
	Email      string `gorm:"type:text;not null;uniqueIndex;column:email" json:"email"`
	ParentName string `gorm:"type:text;not null;default:'';column:parent_name" json:"parent_name"`
	Active     bool   `gorm:"not null;default:true;column:active" json:"active"`
}

func (Parent) TableName() string { return "parent" }

type StudentParent struct {
	StudentID int64 `gorm:"primaryKey;column:student_id" json:"student_id"`
	ParentID  int64 `gorm:"primaryKey;column:parent_id" json:"parent_id"`
}

func (StudentParent) TableName() string { return "student_parent" }

type StaffDepartment struct {
	StaffID       int64   `gorm:"primaryKey;column:staff_id" json:"staff_id"`
	DepartmentID  int64   `gorm:"primaryKey;column:department_id" json:"department_id"`
	PositionTitle *string `gorm:"type:text;column:position_title" json:"position_title,omitempty"`
}

func (StaffDepartment) TableName() string { return "staff_department" }
