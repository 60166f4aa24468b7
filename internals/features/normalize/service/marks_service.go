// file: internals/features/normalize/service/marks_service.go
package service

import (
	"math"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"schoolsync_backend/internals/features/entities/model"
	"schoolsync_backend/internals/features/ingest"
	syncsvc "schoolsync_backend/internals/features/syncstate/service"
)

var nonGradeLabelsEn = map[int]string{
	1: "Could do better",
	2: "Tried",
	3: "Progress made",
	4: "Quite a progress",
	5: "Good job!",
	6: "Excellent job!",
}

var nonGradeLabelsRu = map[int]string{
	1: "Включайся",
	2: "Попытался",
	3: "Поработал!",
	4: "Постарался!",
	5: "Молодец!",
	6: "Умница!",
}

// assessmentText renders the display value of a mark. Under a non-grade
// scheme the numeric value selects a label; otherwise the number itself is
// the text.
func (n *Normalizer) assessmentText(scheme string, value *float64) *string {
	var v float64
	if value != nil {
		v = *value
	}
	rounded := int(math.Round(v))
	if scheme != "" {
		switch scheme {
		case n.Cfg.Marks.NonGradeTokens.En:
			if label, ok := nonGradeLabelsEn[rounded]; ok {
				return &label
			}
			return nil
		case n.Cfg.Marks.NonGradeTokens.Ru:
			if label, ok := nonGradeLabelsRu[rounded]; ok {
				return &label
			}
			return nil
		}
	}
	if value == nil {
		return nil
	}
	s := strconv.FormatFloat(*value, 'f', -1, 64)
	return &s
}

// RunMarksCurrent rebuilds the current-mark projection for the window: the
// window's rows are deleted and re-derived from the ledger in one pass. The
// source revises current marks in place, so an upsert alone would leave
// rows the source has since withdrawn.
func (n *Normalizer) RunMarksCurrent(tx *gorm.DB, w syncsvc.Window) (*BatchStats, error) {
	stats := &BatchStats{Endpoint: "core_marks_current"}

	if err := tx.Where("lesson_date BETWEEN ? AND ?", w.From, w.To).
		Delete(&model.MarkCurrent{}).Error; err != nil {
		return nil, err
	}

	rows, err := n.windowRows(tx, ingest.EndpointMarksCurrent, w)
	if err != nil {
		return nil, err
	}
	periods, err := loadPeriods(tx)
	if err != nil {
		return nil, err
	}
	studentSet, err := studentIDSet(tx)
	if err != nil {
		return nil, err
	}
	groupID, err := groupNameIndex(tx)
	if err != nil {
		return nil, err
	}
	formWeights, err := workFormWeights(tx)
	if err != nil {
		return nil, err
	}

	for _, p := range rows {
		mid, okM := p.I64("id")
		sid, okS := p.I64("id_student")
		day, okD := p.Date("mark_date")
		if !okM || !okD {
			stats.Skip()
			continue
		}
		if !okS || !studentSet[sid] {
			stats.Skip()
			continue
		}

		scheme := p.Str("assesment")
		value := p.F64Ptr("value")
		m := model.MarkCurrent{
			MarkID:            mid,
			StudentID:         sid,
			PeriodID:          periodFor(periods, day),
			PeriodLabelRaw:    p.StrPtr("period"),
			GroupNameSnapshot: p.StrPtr("group_name"),
			LessonDate:        day,
			CreatedAtSrc:      p.Time("created"),
			Value:             value,
			Assessment:        n.assessmentText(scheme, value),
			IsControl:         p.Bool01("control"),
			WeightRaw:         p.F64Ptr("weight"),
		}
		if scheme != "" {
			m.AssessmentScheme = &scheme
		}
		if gid, ok := groupID[p.Str("group_name")]; ok {
			m.GroupID = &gid
		}

		m.FormID, m.FormNameRaw = resolveForm(p.Str("form"), formWeights)

		// Weight precedence: the raw per-mark weight wins, the work form's
		// configured weight is the fallback.
		if m.WeightRaw != nil {
			pct := clampWeightPct(*m.WeightRaw)
			m.WeightPct = &pct
		} else if m.FormID != nil {
			if pct, ok := formWeights[*m.FormID]; ok {
				m.WeightPct = &pct
			}
		}

		if err := tx.Create(&m).Error; err != nil {
			return nil, err
		}
		stats.Ok()
	}
	return stats, nil
}

// RunMarksFinal upserts final marks created within the window. Finals are not
// lesson-bound; their created date stands in as lesson_date.
func (n *Normalizer) RunMarksFinal(tx *gorm.DB, w syncsvc.Window) (*BatchStats, error) {
	stats := &BatchStats{Endpoint: "core_marks_final"}

	rows, err := n.windowRows(tx, ingest.EndpointMarksFinal, w)
	if err != nil {
		return nil, err
	}
	periods, err := loadPeriods(tx)
	if err != nil {
		return nil, err
	}
	studentSet, err := studentIDSet(tx)
	if err != nil {
		return nil, err
	}
	groupID, err := groupNameIndex(tx)
	if err != nil {
		return nil, err
	}
	subjectID, err := subjectTitleIndex(tx)
	if err != nil {
		return nil, err
	}
	knownSubject := make(map[int64]bool, len(subjectID))
	for _, id := range subjectID {
		knownSubject[id] = true
	}

	for _, p := range rows {
		fid, okF := p.I64("id")
		sid, okS := p.I64("id_student")
		day, okD := p.Date("created_date")
		if !okF || !okD {
			stats.Skip()
			continue
		}
		if !okS || !studentSet[sid] {
			stats.Skip()
			continue
		}

		m := model.MarkFinal{
			FinalMarkID:       fid,
			StudentID:         sid,
			SubjectID:         p.I64Ptr("subject_id"),
			PeriodID:          periodFor(periods, day),
			PeriodLabelRaw:    p.StrPtr("period"),
			GroupNameSnapshot: p.StrPtr("group_name"),
			LessonDate:        day,
			FinalCriterionRaw: p.StrPtr("final_criterion"),
			AssessmentScheme:  p.StrPtr("assesment"),
			CreatedAtSrc:      p.Time("created"),
		}
		if v, ok := p.F64("value"); ok {
			rounded := math.Round(v*100) / 100
			m.Value = &rounded
		}
		if gid, ok := groupID[p.Str("group_name")]; ok {
			m.GroupID = &gid
		}
		m.SubjectID = resolveSubject(m.SubjectID, p.Str("subject"), knownSubject, subjectID)

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "final_mark_id"}},
			UpdateAll: true,
		}).Create(&m).Error; err != nil {
			return nil, err
		}
		stats.Ok()
	}
	return stats, nil
}

// resolveForm classifies the raw form field: a numeric id the work-form feed
// has delivered becomes the reference, anything else stays raw text. A number
// pointing at no known form must not land as a dangling reference.
func resolveForm(form string, known map[int64]int) (*int64, *string) {
	if isDigits(form) {
		fid, _ := strconv.ParseInt(form, 10, 64)
		if _, ok := known[fid]; ok {
			return &fid, nil
		}
		return nil, &form
	}
	if form != "" {
		return nil, &form
	}
	return nil, nil
}

// resolveSubject keeps a raw subject id only when the subject exists, falling
// back to the title match; unresolved stays NULL.
func resolveSubject(raw *int64, title string, known map[int64]bool, byTitle map[string]int64) *int64 {
	if raw != nil && known[*raw] {
		return raw
	}
	if id, ok := byTitle[title]; ok {
		return &id
	}
	return nil
}

func groupNameIndex(tx *gorm.DB) (map[string]int64, error) {
	var rows []model.TeachingGroup
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, g := range rows {
		out[g.GroupName] = g.GroupID
	}
	return out, nil
}

func workFormWeights(tx *gorm.DB) (map[int64]int, error) {
	var rows []model.WorkForm
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[int64]int, len(rows))
	for _, f := range rows {
		out[f.FormID] = f.WeightPct
	}
	return out, nil
}
