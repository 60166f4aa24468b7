// file: internals/features/normalize/service/people_service.go
package service

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"schoolsync_backend/internals/features/entities/model"
	"schoolsync_backend/internals/features/ingest"
)

// RunPeople projects the people snapshots: students, parents and their links,
// staff and their department positions.
func (n *Normalizer) RunPeople(tx *gorm.DB) (*BatchStats, error) {
	stats := &BatchStats{Endpoint: "core_people"}

	if err := n.upsertStudents(tx, stats); err != nil {
		return nil, err
	}
	if err := n.upsertParents(tx, stats); err != nil {
		return nil, err
	}
	if err := n.upsertStaff(tx, stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (n *Normalizer) upsertStudents(tx *gorm.DB, stats *BatchStats) error {
	rows, err := n.snapshotRows(tx, ingest.EndpointStudents)
	if err != nil {
		return err
	}
	for _, p := range rows {
		id, ok := p.I64("student_id")
		if !ok || p.Str("first_name") == "" || p.Str("last_name") == "" {
			stats.Skip()
			continue
		}
		st := model.Student{
			StudentID: id,
			FirstName: p.Str("first_name"),
			LastName:  p.Str("last_name"),
			Gender:    p.StrPtr("gender"),
			DOB:       p.DatePtr("dob"),
			Email:     p.StrPtr("email"),
			Cohort:    CohortInt(p.Str("cohort")),
			Active:    true,
		}
		if code := ProgrammeCode(p.Str("program")); code != "" {
			st.ProgrammeCode = &code
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}},
			UpdateAll: true,
		}).Create(&st).Error; err != nil {
			return err
		}
		stats.Ok()
	}
	return nil
}

func (n *Normalizer) upsertParents(tx *gorm.DB, stats *BatchStats) error {
	rows, err := n.snapshotRows(tx, ingest.EndpointParents)
	if err != nil {
		return err
	}
	for _, p := range rows {
		email := NormalizeEmail(p.Str("parent_email"))
		if email == "" {
			stats.Skip()
			continue
		}
		par := model.Parent{Email: email, ParentName: p.Str("parent_name"), Active: true}
		// Insert-if-absent: the parent feed has no reliable id, the email is
		// the durable key and later rows never rewrite an existing parent.
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoNothing: true,
		}).Create(&par).Error; err != nil {
			return err
		}
		stats.Ok()
	}

	links, err := n.snapshotRows(tx, ingest.EndpointParentLinks)
	if err != nil {
		return err
	}

	parentID, err := parentIndex(tx)
	if err != nil {
		return err
	}
	studentSet, err := studentIDSet(tx)
	if err != nil {
		return err
	}

	for _, l := range links {
		sid, ok := l.I64("student_id")
		pid, found := parentID[NormalizeEmail(l.Str("parent_email"))]
		if !ok || !found || !studentSet[sid] {
			stats.Skip()
			continue
		}
		link := model.StudentParent{StudentID: sid, ParentID: pid}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
			return err
		}
		stats.Ok()
	}
	return nil
}

func (n *Normalizer) upsertStaff(tx *gorm.DB, stats *BatchStats) error {
	rows, err := n.snapshotRows(tx, ingest.EndpointStaff)
	if err != nil {
		return err
	}
	for _, p := range rows {
		email := NormalizeEmail(p.Str("staff_email"))
		if email == "" || p.Str("staff_name") == "" {
			stats.Skip()
			continue
		}
		extID := p.I64Ptr("staff_id")
		// A feed row without the external id must not erase an id learned
		// earlier, hence COALESCE instead of a plain column overwrite.
		err := tx.Exec(`
			INSERT INTO staff (email, staff_name, gender, external_staff_id, active)
			VALUES (?, ?, ?, ?, TRUE)
			ON CONFLICT (email) DO UPDATE
			SET staff_name        = EXCLUDED.staff_name,
			    gender            = EXCLUDED.gender,
			    external_staff_id = COALESCE(EXCLUDED.external_staff_id, staff.external_staff_id),
			    active            = EXCLUDED.active`,
			email, p.Str("staff_name"), p.StrPtr("gender"), extID,
		).Error
		if err != nil {
			return err
		}
		stats.Ok()
	}

	positions, err := n.snapshotRows(tx, ingest.EndpointStaffPos)
	if err != nil {
		return err
	}
	staffByEmail, err := staffEmailIndex(tx)
	if err != nil {
		return err
	}
	depID, err := departmentIndex(tx)
	if err != nil {
		return err
	}
	for _, p := range positions {
		sid, okS := staffByEmail[NormalizeEmail(p.Str("staff_email"))]
		did, okD := depID[p.Str("department")]
		if !okS || !okD {
			stats.Skip()
			continue
		}
		sd := model.StaffDepartment{StaffID: sid, DepartmentID: did, PositionTitle: p.StrPtr("position")}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "staff_id"}, {Name: "department_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"position_title"}),
		}).Create(&sd).Error; err != nil {
			return err
		}
		stats.Ok()
	}
	return nil
}

func parentIndex(tx *gorm.DB) (map[string]int64, error) {
	var rows []model.Parent
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, p := range rows {
		out[p.Email] = p.ParentID
	}
	return out, nil
}

func studentIDSet(tx *gorm.DB) (map[int64]bool, error) {
	var ids []int64
	if err := tx.Model(&model.Student{}).Pluck("student_id", &ids).Error; err != nil {
		return nil, err
	}
	out := make(map[int64]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func staffEmailIndex(tx *gorm.DB) (map[string]int64, error) {
	var rows []model.Staff
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, s := range rows {
		out[s.Email] = s.StaffID
	}
	return out, nil
}

func staffExternalIndex(tx *gorm.DB) (map[int64]int64, error) {
	var rows []model.Staff
	if err := tx.Where("external_staff_id IS NOT NULL").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[int64]int64, len(rows))
	for _, s := range rows {
		if s.ExternalStaffID != nil {
			out[*s.ExternalStaffID] = s.StaffID
		}
	}
	return out, nil
}
