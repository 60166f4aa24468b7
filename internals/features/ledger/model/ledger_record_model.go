// file: internals/features/ledger/model/ledger_record_model.go
package model

import (
	"time"

	"gorm.io/datatypes"
)

// LedgerRecord is one immutable raw fact as received from the source,
// deduplicated by content hash. Rows are keyed by (endpoint, source_id,
// partition_date) and stored in monthly partitions of partition_date so that
// retention and backfill work month by month.
type LedgerRecord struct {
	Endpoint      string         `gorm:"primaryKey;type:text;column:endpoint" json:"endpoint"`
	SourceID      string         `gorm:"primaryKey;type:text;column:source_id" json:"source_id"`
	PartitionDate time.Time      `gorm:"primaryKey;type:date;column:partition_date" json:"partition_date"`
	RawPayload    datatypes.JSON `gorm:"type:jsonb;not null;column:raw_payload" json:"raw_payload"`
	SourceHash    string         `gorm:"type:varchar(64);not null;column:source_hash" json:"source_hash"`
	BatchID       string         `gorm:"type:varchar(36);not null;column:batch_id" json:"batch_id"`
	// src_day is the run day the row was last written by; the first/last seen
	// markers track observation history for slowly-changing snapshot feeds.
	SrcDay          time.Time `gorm:"type:date;not null;column:src_day" json:"src_day"`
	FirstSeenSrcDay time.Time `gorm:"type:date;not null;column:first_seen_src_day" json:"first_seen_src_day"`
	LastSeenSrcDay  time.Time `gorm:"type:date;not null;column:last_seen_src_day" json:"last_seen_src_day"`
	IngestedAt      time.Time `gorm:"type:timestamptz;not null;column:ingested_at" json:"ingested_at"`
}

func (LedgerRecord) TableName() string { return "ledger_records" }

// EndpointSummary is the read-model served by the status surface.
type EndpointSummary struct {
	Endpoint    string     `json:"endpoint"`
	RowCount    int64      `json:"row_count"`
	LastBatchID *string    `json:"last_batch_id,omitempty"`
	LastIngest  *time.Time `json:"last_ingested_at,omitempty"`
	MinDate     *time.Time `json:"min_partition_date,omitempty"`
	MaxDate     *time.Time `json:"max_partition_date,omitempty"`
}
