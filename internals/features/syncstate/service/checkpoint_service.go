// file: internals/features/syncstate/service/checkpoint_service.go
package service

import (
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"schoolsync_backend/internals/features/syncstate/model"
	"schoolsync_backend/internals/helpers/dateutil"
	"schoolsync_backend/internals/helpers/etlerr"
)

// OrchestratorEndpoint is the synthetic endpoint under which the core stage
// records its own high-water mark.
const OrchestratorEndpoint = "core:orchestrator"

// Window is an inclusive date range [From..To].
type Window struct {
	From time.Time
	To   time.Time
}

func (w Window) String() string {
	return dateutil.ISO(w.From) + ".." + dateutil.ISO(w.To)
}

// ValidateWindow rejects reversed windows and windows reaching past now.
func ValidateWindow(from, to, now time.Time) (Window, error) {
	if from.After(to) {
		return Window{}, etlerr.InvalidWindow(dateutil.ISO(from), dateutil.ISO(to))
	}
	if dateutil.Day(to).After(dateutil.Day(now)) {
		return Window{}, etlerr.InvalidWindow(dateutil.ISO(from), dateutil.ISO(to))
	}
	return Window{From: dateutil.Day(from), To: dateutil.Day(to)}, nil
}

// CheckpointStore reads and advances per-endpoint sync state.
type CheckpointStore struct {
	DB *gorm.DB
}

func NewCheckpointStore(db *gorm.DB) *CheckpointStore {
	return &CheckpointStore{DB: db}
}

// Get returns the persisted state for the endpoint, or a zero state when the
// endpoint has never run.
func (s *CheckpointStore) Get(endpoint string) (*model.SyncState, error) {
	var st model.SyncState
	err := s.DB.Where("endpoint = ?", endpoint).Take(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.SyncState{Endpoint: endpoint}, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// LastWindowTo returns the endpoint's last committed window_to, or the zero
// time when the endpoint has no checkpoint yet. Used by gap recovery.
func (s *CheckpointStore) LastWindowTo(endpoint string) (time.Time, error) {
	st, err := s.Get(endpoint)
	if err != nil || st.WindowTo == nil {
		return time.Time{}, err
	}
	return *st.WindowTo, nil
}

// Commit upserts the endpoint's checkpoint. It must be called on the same
// transaction as the entity writes for the window: a crash before that
// transaction commits leaves the checkpoint at its prior value and the next
// run reprocesses exactly the failed window.
func (s *CheckpointStore) Commit(tx *gorm.DB, endpoint string, w Window, cursor *string, params map[string]any, notes string) error {
	now := time.Now().UTC()
	raw, err := json.Marshal(params)
	if err != nil {
		return err
	}
	st := model.SyncState{
		Endpoint:             endpoint,
		LastSuccessfulSyncAt: &now,
		WindowFrom:           &w.From,
		WindowTo:             &w.To,
		NextCursor:           cursor,
		Params:               datatypes.JSON(raw),
		Notes:                &notes,
	}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"last_successful_sync_at", "window_from", "window_to",
			"next_cursor", "params", "notes", "updated_at",
		}),
	}).Create(&st).Error
}

// WidenOrchestrator records the core stage high-water mark, widening the
// stored window monotonically: window_from only ever moves earlier,
// window_to only ever moves later.
func (s *CheckpointStore) WidenOrchestrator(tx *gorm.DB, w Window) error {
	return tx.Exec(`
		INSERT INTO sync_state (endpoint, window_from, window_to, last_successful_sync_at, updated_at)
		VALUES (?, ?, ?, now(), now())
		ON CONFLICT (endpoint) DO UPDATE
		SET window_from = LEAST(COALESCE(sync_state.window_from, EXCLUDED.window_from), EXCLUDED.window_from),
		    window_to   = GREATEST(COALESCE(sync_state.window_to, EXCLUDED.window_to), EXCLUDED.window_to),
		    last_successful_sync_at = EXCLUDED.last_successful_sync_at,
		    updated_at  = now()`,
		OrchestratorEndpoint, w.From, w.To,
	).Error
}

// All lists every endpoint's state for the status surface.
func (s *CheckpointStore) All() ([]model.SyncState, error) {
	var out []model.SyncState
	err := s.DB.Order("endpoint").Find(&out).Error
	return out, err
}
