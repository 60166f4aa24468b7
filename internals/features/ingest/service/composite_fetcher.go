// file: internals/features/ingest/service/composite_fetcher.go
package service

import (
	"context"

	"schoolsync_backend/internals/features/ingest"
	syncsvc "schoolsync_backend/internals/features/syncstate/service"
)

// CompositeFetcher routes each endpoint to the fetcher that serves it: the
// REST API for the windowed and reference feeds, the CSV exports for the
// people and class snapshots.
type CompositeFetcher struct {
	API      ingest.Fetcher
	Snapshot ingest.Fetcher
}

func NewCompositeFetcher(api, snapshot ingest.Fetcher) *CompositeFetcher {
	return &CompositeFetcher{API: api, Snapshot: snapshot}
}

var snapshotServed = map[string]bool{
	ingest.EndpointStudents:    true,
	ingest.EndpointStaff:       true,
	ingest.EndpointStaffPos:    true,
	ingest.EndpointParents:     true,
	ingest.EndpointParentLinks: true,
	ingest.EndpointClasses:     true,
}

func (f *CompositeFetcher) Fetch(ctx context.Context, endpoint string, w syncsvc.Window, cursor *string) ([]ingest.Record, *string, error) {
	if snapshotServed[endpoint] {
		return f.Snapshot.Fetch(ctx, endpoint, w, cursor)
	}
	return f.API.Fetch(ctx, endpoint, w, cursor)
}
