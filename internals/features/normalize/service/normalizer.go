// file: internals/features/normalize/service/normalizer.go
package service

import (
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	ledgermodel "schoolsync_backend/internals/features/ledger/model"
	syncsvc "schoolsync_backend/internals/features/syncstate/service"
	"schoolsync_backend/internals/configs"
	"schoolsync_backend/internals/helpers/dateutil"
)

// Normalizer projects raw ledger rows into the typed entity tables. One Run*
// method per endpoint family; each runs inside the transaction handed to it
// so that the caller can commit entity writes and checkpoint together.
type Normalizer struct {
	DB  *gorm.DB
	Cfg *configs.Config
	Log *zap.SugaredLogger
}

func NewNormalizer(db *gorm.DB, cfg *configs.Config, log *zap.SugaredLogger) *Normalizer {
	return &Normalizer{DB: db, Cfg: cfg, Log: log}
}

// windowRows loads the decoded ledger rows of a windowed endpoint.
func (n *Normalizer) windowRows(tx *gorm.DB, endpoint string, w syncsvc.Window) ([]P, error) {
	var recs []ledgermodel.LedgerRecord
	err := tx.
		Where("endpoint = ? AND partition_date BETWEEN ? AND ?", endpoint, dateutil.Day(w.From), dateutil.Day(w.To)).
		Order("partition_date, source_id").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return decodeRows(recs), nil
}

// snapshotRows loads the latest observed version of every record of a
// snapshot endpoint, regardless of window.
func (n *Normalizer) snapshotRows(tx *gorm.DB, endpoint string) ([]P, error) {
	var recs []ledgermodel.LedgerRecord
	err := tx.Raw(`
		SELECT DISTINCT ON (source_id) *
		FROM ledger_records
		WHERE endpoint = ?
		ORDER BY source_id, partition_date DESC, last_seen_src_day DESC`,
		endpoint,
	).Scan(&recs).Error
	if err != nil {
		return nil, err
	}
	return decodeRows(recs), nil
}

// ProgrammeCode maps a human-readable programme name from the student feed to
// the stored programme code; "" when unrecognized.
func ProgrammeCode(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	switch {
	case n == "":
		return ""
	case strings.HasPrefix(n, "ib"), strings.Contains(n, "baccalaureate"):
		return "IB"
	case strings.HasPrefix(n, "ipc"), strings.Contains(n, "primary curriculum"):
		return "IPC"
	case strings.HasPrefix(n, "pearson"):
		return "PEARSON"
	case strings.HasPrefix(n, "state"), strings.Contains(n, "state"),
		strings.Contains(n, "national"):
		return "STATE"
	default:
		return ""
	}
}

// clampWeightPct rounds a raw weight into the 0..100 percent scale.
func clampWeightPct(w float64) int {
	pct := int(w + 0.5)
	if w < 0 {
		pct = int(w - 0.5)
	}
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// periodFor finds the academic period covering a date in a preloaded list.
func periodFor(periods []periodRow, d time.Time) *int64 {
	day := dateutil.Day(d)
	for _, p := range periods {
		if !day.Before(p.StartDate) && !day.After(p.EndDate) {
			id := p.PeriodID
			return &id
		}
	}
	return nil
}

type periodRow struct {
	PeriodID  int64
	StartDate time.Time
	EndDate   time.Time
}

func loadPeriods(tx *gorm.DB) ([]periodRow, error) {
	var out []periodRow
	err := tx.Raw(`SELECT period_id, start_date, end_date FROM ref_academic_period`).Scan(&out).Error
	return out, err
}
