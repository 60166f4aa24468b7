// file: internals/features/ingest/fetcher.go
package ingest

import (
	"context"
	"time"

	syncsvc "schoolsync_backend/internals/features/syncstate/service"
)

// Record is one raw record pulled from the source. Date is the record's
// business date (lesson date, mark date); the zero time for snapshot feeds
// that have no date axis.
type Record struct {
	SourceID string
	Date     time.Time
	Payload  map[string]any
}

// Fetcher pulls raw records from the source system. Implementations own
// their retry/backoff policy; an error returned here is treated as
// unrecoverable for the endpoint window. A non-nil next cursor means the
// window has more pages; the engine persists it with the checkpoint so an
// interrupted pull resumes where it stopped.
type Fetcher interface {
	Fetch(ctx context.Context, endpoint string, w syncsvc.Window, cursor *string) (records []Record, next *string, err error)
}
