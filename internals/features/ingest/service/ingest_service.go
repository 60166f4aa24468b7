// file: internals/features/ingest/service/ingest_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"schoolsync_backend/internals/configs"
	"schoolsync_backend/internals/features/ingest"
	ledgersvc "schoolsync_backend/internals/features/ledger/service"
	syncsvc "schoolsync_backend/internals/features/syncstate/service"
	"schoolsync_backend/internals/helpers/dateutil"
	"schoolsync_backend/internals/helpers/etlerr"
)

// IngestService drives one endpoint pull: fetch pages from the source, land
// them in the ledger, advance the endpoint checkpoint. Ledger writes and the
// checkpoint commit share a transaction per page batch.
type IngestService struct {
	DB          *gorm.DB
	Ledger      *ledgersvc.LedgerService
	Checkpoints *syncsvc.CheckpointStore
	Fetcher     ingest.Fetcher
	Cfg         *configs.Config
	Log         *zap.SugaredLogger
	Now         func() time.Time
}

func NewIngestService(db *gorm.DB, ledger *ledgersvc.LedgerService, cps *syncsvc.CheckpointStore,
	f ingest.Fetcher, cfg *configs.Config, log *zap.SugaredLogger) *IngestService {
	return &IngestService{
		DB: db, Ledger: ledger, Checkpoints: cps,
		Fetcher: f, Cfg: cfg, Log: log,
		Now: time.Now,
	}
}

func (s *IngestService) today() time.Time {
	return dateutil.DayIn(s.Now(), s.Cfg.Location())
}

// IngestEndpoint pulls one endpoint for the window. Pagination restarts from
// the persisted cursor, so a crashed pull resumes instead of refetching.
func (s *IngestService) IngestEndpoint(ctx context.Context, endpoint string, w syncsvc.Window, mode string) error {
	st, err := s.Checkpoints.Get(endpoint)
	if err != nil {
		return err
	}
	cursor := st.NextCursor
	runDay := s.today()
	total := 0

	for {
		records, next, err := s.Fetcher.Fetch(ctx, endpoint, w, cursor)
		if err != nil {
			return fmt.Errorf("%w: endpoint=%s window=%s: %v", etlerr.ErrSourceFetch, endpoint, w, err)
		}

		rows := make([]ledgersvc.Row, 0, len(records))
		for _, r := range records {
			if r.SourceID == "" {
				continue
			}
			rows = append(rows, ledgersvc.Row{
				SourceID:      r.SourceID,
				PartitionDate: s.partitionDate(endpoint, r, runDay),
				Payload:       r.Payload,
			})
		}

		err = s.DB.Transaction(func(tx *gorm.DB) error {
			res, err := s.Ledger.WriteBatch(tx, endpoint, runDay, rows)
			if err != nil {
				return err
			}
			total += res.Total
			s.Log.Infow("ledger batch written",
				"stage", "raw", "endpoint", endpoint, "mode", mode,
				"window_from", dateutil.ISO(w.From), "window_to", dateutil.ISO(w.To),
				"batch_id", res.BatchID, "inserted", res.Inserted, "refreshed", res.Refreshed)
			return s.Checkpoints.Commit(tx, endpoint, w, next,
				map[string]any{"mode": mode, "rows": total}, "raw ingest")
		})
		if err != nil {
			return err
		}

		if next == nil {
			return nil
		}
		cursor = next
	}
}

// partitionDate picks the ledger partition date: the record's business date
// when the feed has one, otherwise the season start of the run day so that a
// snapshot record keeps one identity for the whole school year and its
// first/last-seen markers accumulate.
func (s *IngestService) partitionDate(endpoint string, r ingest.Record, runDay time.Time) time.Time {
	if !r.Date.IsZero() {
		return dateutil.Day(r.Date)
	}
	for _, ep := range ingest.SnapshotEndpoints {
		if ep == endpoint {
			return s.Cfg.SeasonStartFor(runDay)
		}
	}
	return runDay
}
