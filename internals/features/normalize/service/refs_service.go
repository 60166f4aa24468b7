// file: internals/features/normalize/service/refs_service.go
package service

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"schoolsync_backend/internals/features/entities/model"
	"schoolsync_backend/internals/features/ingest"
)

// RunRefs projects the reference snapshots: departments, subjects, work forms.
// No window; the snapshots are idempotent full extracts.
func (n *Normalizer) RunRefs(tx *gorm.DB) (*BatchStats, error) {
	stats := &BatchStats{Endpoint: "core_refs"}

	subjects, err := n.snapshotRows(tx, ingest.EndpointSubjects)
	if err != nil {
		return nil, err
	}
	positions, err := n.snapshotRows(tx, ingest.EndpointStaffPos)
	if err != nil {
		return nil, err
	}
	forms, err := n.snapshotRows(tx, ingest.EndpointWorkForms)
	if err != nil {
		return nil, err
	}

	// Departments come from both the subject and the staff-position feeds,
	// insert-if-absent by name so manually curated rows survive.
	seen := map[string]bool{}
	for _, p := range append(append([]P{}, subjects...), positions...) {
		name := p.Str("department")
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		dep := model.Department{DepartmentName: name}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "department_name"}},
			DoNothing: true,
		}).Create(&dep).Error; err != nil {
			return nil, err
		}
	}

	depID, err := departmentIndex(tx)
	if err != nil {
		return nil, err
	}

	for _, p := range subjects {
		id, ok := p.I64("id")
		if !ok || p.Str("title") == "" {
			stats.Skip()
			continue
		}
		sub := model.Subject{
			SubjectID:    id,
			SubjectTitle: p.Str("title"),
			InCurriculum: p.Bool01("in_curriculum"),
			InOlymp:      p.Bool01("in_olymp"),
			IsClosed:     p.Bool01("closed"),
		}
		if d, ok := depID[p.Str("department")]; ok {
			sub.DepartmentID = &d
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "subject_id"}},
			UpdateAll: true,
		}).Create(&sub).Error; err != nil {
			return nil, err
		}
		stats.Ok()
	}

	for _, p := range forms {
		id, ok := p.I64("id_form")
		if !ok || p.Str("form_name") == "" {
			stats.Skip()
			continue
		}
		wf := model.WorkForm{
			FormID:          id,
			FormName:        p.Str("form_name"),
			FormDescription: p.StrPtr("form_description"),
			IsControl:       p.Bool01("form_control"),
			FormPercentRaw:  p.IntPtr("form_percent"),
			CreatedAtSrc:    p.Time("form_created"),
			ArchivedAtSrc:   p.Time("form_archived"),
			DeletedAtSrc:    p.Time("form_deleted"),
		}
		if w, ok := p.F64("form_weight"); ok {
			wf.WeightPct = clampWeightPct(w)
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "form_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"form_name", "form_description", "is_control", "weight_pct",
				"form_percent_raw", "archived_at_src", "deleted_at_src",
			}),
		}).Create(&wf).Error; err != nil {
			return nil, err
		}
		stats.Ok()
	}

	return stats, nil
}

func departmentIndex(tx *gorm.DB) (map[string]int64, error) {
	var rows []model.Department
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, d := range rows {
		out[d.DepartmentName] = d.DepartmentID
	}
	return out, nil
}
