// file: internals/features/ledger/service/ledger_service.go
package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"schoolsync_backend/internals/features/ledger/model"
	"schoolsync_backend/internals/helpers/dateutil"
	"schoolsync_backend/internals/helpers/srchash"
)

// LedgerService writes deduplicated raw rows into the monthly-partitioned
// ingestion ledger.
type LedgerService struct {
	DB *gorm.DB
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{DB: db}
}

// EnsurePartitions creates the monthly partitions covering [from..to].
// CREATE TABLE IF NOT EXISTS is idempotent, so overlapping runs are safe.
func (s *LedgerService) EnsurePartitions(tx *gorm.DB, from, to time.Time) error {
	last := dateutil.MonthStart(to)
	for start := dateutil.MonthStart(from); !start.After(last); start = start.AddDate(0, 1, 0) {
		next := start.AddDate(0, 1, 0)
		name := fmt.Sprintf("ledger_records_y%04dm%02d", start.Year(), int(start.Month()))
		stmt := fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s PARTITION OF ledger_records FOR VALUES FROM ('%s') TO ('%s')`,
			name, dateutil.ISO(start), dateutil.ISO(next),
		)
		if err := tx.Exec(stmt).Error; err != nil {
			return fmt.Errorf("ensure partition %s: %w", name, err)
		}
	}
	return nil
}

// Row is one raw source record destined for the ledger. PartitionDate is the
// business date of the record (lesson date, mark date, or the run day for
// snapshot endpoints).
type Row struct {
	SourceID      string
	PartitionDate time.Time
	Payload       map[string]any
}

// WriteResult reports what one batch did to the ledger.
type WriteResult struct {
	BatchID   string
	Inserted  int64
	Refreshed int64
	Total     int
}

// WriteBatch upserts rows under a fresh batch id. A row whose content hash is
// unchanged only has its last_seen_src_day refreshed; a changed row gets the
// new payload, hash and batch id. first_seen_src_day never moves forward.
func (s *LedgerService) WriteBatch(tx *gorm.DB, endpoint string, srcDay time.Time, rows []Row) (*WriteResult, error) {
	res := &WriteResult{BatchID: uuid.NewString(), Total: len(rows)}
	if len(rows) == 0 {
		return res, nil
	}

	minDay, maxDay := rows[0].PartitionDate, rows[0].PartitionDate
	for _, r := range rows[1:] {
		if r.PartitionDate.Before(minDay) {
			minDay = r.PartitionDate
		}
		if r.PartitionDate.After(maxDay) {
			maxDay = r.PartitionDate
		}
	}
	if err := s.EnsurePartitions(tx, minDay, maxDay); err != nil {
		return nil, err
	}

	day := dateutil.Day(srcDay)
	now := time.Now().UTC()
	for _, r := range rows {
		canon := srchash.Canonical(r.Payload)
		rec := model.LedgerRecord{
			Endpoint:        endpoint,
			SourceID:        r.SourceID,
			PartitionDate:   dateutil.Day(r.PartitionDate),
			RawPayload:      datatypes.JSON(canon),
			SourceHash:      srchash.Sum(r.Payload),
			BatchID:         res.BatchID,
			SrcDay:          day,
			FirstSeenSrcDay: day,
			LastSeenSrcDay:  day,
			IngestedAt:      now,
		}
		var freshInsert bool
		err := tx.Raw(`
			INSERT INTO ledger_records
				(endpoint, source_id, partition_date, raw_payload, source_hash,
				 batch_id, src_day, first_seen_src_day, last_seen_src_day, ingested_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (endpoint, source_id, partition_date) DO UPDATE
			SET raw_payload        = CASE WHEN ledger_records.source_hash <> EXCLUDED.source_hash THEN EXCLUDED.raw_payload ELSE ledger_records.raw_payload END,
			    source_hash        = EXCLUDED.source_hash,
			    batch_id           = CASE WHEN ledger_records.source_hash <> EXCLUDED.source_hash THEN EXCLUDED.batch_id ELSE ledger_records.batch_id END,
			    src_day            = EXCLUDED.src_day,
			    first_seen_src_day = LEAST(ledger_records.first_seen_src_day, EXCLUDED.first_seen_src_day),
			    last_seen_src_day  = GREATEST(ledger_records.last_seen_src_day, EXCLUDED.last_seen_src_day),
			    ingested_at        = CASE WHEN ledger_records.source_hash <> EXCLUDED.source_hash THEN EXCLUDED.ingested_at ELSE ledger_records.ingested_at END
			RETURNING (xmax = 0)`,
			rec.Endpoint, rec.SourceID, rec.PartitionDate, rec.RawPayload, rec.SourceHash,
			rec.BatchID, rec.SrcDay, rec.FirstSeenSrcDay, rec.LastSeenSrcDay, rec.IngestedAt,
		).Scan(&freshInsert).Error
		if err != nil {
			return nil, fmt.Errorf("upsert ledger %s/%s: %w", endpoint, r.SourceID, err)
		}
		if freshInsert {
			res.Inserted++
		}
	}
	res.Refreshed = int64(res.Total) - res.Inserted
	return res, nil
}

// Load returns the raw rows for one endpoint within [from..to], ordered by
// partition_date then source_id so downstream passes are deterministic.
func (s *LedgerService) Load(endpoint string, from, to time.Time) ([]model.LedgerRecord, error) {
	var out []model.LedgerRecord
	err := s.DB.
		Where("endpoint = ? AND partition_date BETWEEN ? AND ?", endpoint, dateutil.Day(from), dateutil.Day(to)).
		Order("partition_date, source_id").
		Find(&out).Error
	return out, err
}

// Summaries aggregates per-endpoint ledger stats for the status surface.
// With an empty filter every endpoint is reported.
func (s *LedgerService) Summaries(endpoints []string) ([]model.EndpointSummary, error) {
	var out []model.EndpointSummary
	q := `
		SELECT endpoint,
		       count(*)                                   AS row_count,
		       (array_agg(batch_id ORDER BY ingested_at DESC))[1] AS last_batch_id,
		       max(ingested_at)                           AS last_ingest,
		       min(partition_date)                        AS min_date,
		       max(partition_date)                        AS max_date
		FROM ledger_records`
	args := []any{}
	if len(endpoints) > 0 {
		q += ` WHERE endpoint = ANY(?)`
		args = append(args, pq.Array(endpoints))
	}
	q += ` GROUP BY endpoint ORDER BY endpoint`
	err := s.DB.Raw(q, args...).Scan(&out).Error
	return out, err
}
