// file: internals/features/interval/service/interval_service.go
package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"schoolsync_backend/internals/features/interval"
	"schoolsync_backend/internals/helpers/etlerr"
)

// Manager is the only sanctioned write path for one interval-bearing relation.
// It is configured with the relation's table and partition-key columns;
// attribute columns ride along on open/replace.
type Manager struct {
	Table   string
	KeyCols []string
}

func NewManager(table string, keyCols ...string) *Manager {
	return &Manager{Table: table, KeyCols: keyCols}
}

// Key is the partition-key column values, e.g. {"class_id": 7} or
// {"group_id": 3, "staff_id": 12}.
type Key map[string]any

// OpenInterval inserts a new open interval starting at validFrom. Fails with
// ErrOverlapViolation when an existing interval for the key already covers
// validFrom.
func (m *Manager) OpenInterval(tx *gorm.DB, key Key, attrs map[string]any, validFrom time.Time) error {
	set, err := m.loadSet(tx, key)
	if err != nil {
		return err
	}
	if _, ok := interval.CoveringAt(set, validFrom); ok {
		return fmt.Errorf("%w: %s key %v already covered at %s",
			etlerr.ErrOverlapViolation, m.Table, key, validFrom.Format("2006-01-02"))
	}

	row := map[string]any{"valid_from": validFrom, "valid_to": nil}
	for k, v := range key {
		row[k] = v
	}
	for k, v := range attrs {
		row[k] = v
	}
	if err := tx.Table(m.Table).Create(row).Error; err != nil {
		return etlerr.FromPg(err)
	}
	return m.validate(tx, key)
}

// CloseOpenInterval sets valid_to on the single open interval of the key.
// Fails with ErrNoOpenInterval when none exists.
func (m *Manager) CloseOpenInterval(tx *gorm.DB, key Key, validTo time.Time) error {
	q := tx.Table(m.Table).Where("valid_to IS NULL")
	for k, v := range key {
		q = q.Where(fmt.Sprintf("%s = ?", k), v)
	}
	res := q.Update("valid_to", validTo)
	if res.Error != nil {
		return etlerr.FromPg(res.Error)
	}
	switch res.RowsAffected {
	case 0:
		return fmt.Errorf("%w: %s key %v", etlerr.ErrNoOpenInterval, m.Table, key)
	case 1:
		return m.validate(tx, key)
	default:
		// More than one open interval is exactly the corruption this manager
		// exists to prevent; refuse to paper over it.
		return fmt.Errorf("%w: %s key %v had %d open intervals",
			etlerr.ErrOverlapViolation, m.Table, key, res.RowsAffected)
	}
}

// ReplaceFrom closes the open interval at effectiveDate-1 and opens a new one
// at effectiveDate with the given attributes. Both steps run in one
// transaction; the full post-state of the key is re-validated before the
// transaction is allowed to commit.
func (m *Manager) ReplaceFrom(db *gorm.DB, key Key, effectiveDate time.Time, attrs map[string]any) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := m.CloseOpenInterval(tx, key, effectiveDate.AddDate(0, 0, -1)); err != nil {
			return err
		}
		return m.OpenInterval(tx, key, attrs, effectiveDate)
	})
}

// UpdateOpenAttrs rewrites the attribute columns of the key's open interval
// in place, leaving its bounds untouched. This is the transition path when
// the open interval already starts on the effective date: closing it at
// effectiveDate-1 would reverse its bounds.
func (m *Manager) UpdateOpenAttrs(tx *gorm.DB, key Key, attrs map[string]any) error {
	q := tx.Table(m.Table).Where("valid_to IS NULL")
	for k, v := range key {
		q = q.Where(fmt.Sprintf("%s = ?", k), v)
	}
	res := q.Updates(attrs)
	if res.Error != nil {
		return etlerr.FromPg(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s key %v", etlerr.ErrNoOpenInterval, m.Table, key)
	}
	return nil
}

// HasOpen reports whether the key currently has an open interval.
func (m *Manager) HasOpen(tx *gorm.DB, key Key) (bool, error) {
	var n int64
	q := tx.Table(m.Table).Where("valid_to IS NULL")
	for k, v := range key {
		q = q.Where(fmt.Sprintf("%s = ?", k), v)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// OpenAttrs returns the attribute columns of the key's open interval.
func (m *Manager) OpenAttrs(tx *gorm.DB, key Key, cols ...string) (map[string]any, error) {
	q := tx.Table(m.Table).Select(strings.Join(cols, ", ")).Where("valid_to IS NULL")
	for k, v := range key {
		q = q.Where(fmt.Sprintf("%s = ?", k), v)
	}
	out := map[string]any{}
	res := q.Take(&out)
	if res.Error == gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("%w: %s key %v", etlerr.ErrNoOpenInterval, m.Table, key)
	}
	return out, res.Error
}

type intervalRow struct {
	ValidFrom time.Time  `gorm:"column:valid_from"`
	ValidTo   *time.Time `gorm:"column:valid_to"`
}

func (m *Manager) loadSet(tx *gorm.DB, key Key) ([]interval.Interval, error) {
	q := tx.Table(m.Table).Select("valid_from, valid_to")
	for k, v := range key {
		q = q.Where(fmt.Sprintf("%s = ?", k), v)
	}
	var rows []intervalRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	set := make([]interval.Interval, len(rows))
	for i, r := range rows {
		set[i] = interval.Interval{ValidFrom: r.ValidFrom, ValidTo: r.ValidTo}
	}
	sort.Slice(set, func(i, j int) bool { return set[i].ValidFrom.Before(set[j].ValidFrom) })
	return set, nil
}

// validate re-reads the key's full interval set within the transaction and
// applies the non-overlap rules to the would-be commit state.
func (m *Manager) validate(tx *gorm.DB, key Key) error {
	set, err := m.loadSet(tx, key)
	if err != nil {
		return err
	}
	if err := interval.ValidateSet(set); err != nil {
		return fmt.Errorf("%w: %s key %v: %v", etlerr.ErrOverlapViolation, m.Table, key, err)
	}
	return nil
}
