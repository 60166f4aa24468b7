// file: internals/features/syncstate/model/sync_state_model.go
package model

import (
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SyncState is the durable resumption state of one source endpoint: the last
// successfully processed window, an optional cursor, and free-form params.
type SyncState struct {
	Endpoint             string         `gorm:"primaryKey;type:text;column:endpoint" json:"endpoint"`
	LastSuccessfulSyncAt *time.Time     `gorm:"type:timestamptz;column:last_successful_sync_at" json:"last_successful_sync_at,omitempty"`
	LastSeenUpdatedAt    *time.Time     `gorm:"type:timestamptz;column:last_seen_updated_at" json:"last_seen_updated_at,omitempty"`
	WindowFrom           *time.Time     `gorm:"type:date;column:window_from" json:"window_from,omitempty"`
	WindowTo             *time.Time     `gorm:"type:date;column:window_to" json:"window_to,omitempty"`
	NextCursor           *string        `gorm:"type:text;column:next_cursor" json:"next_cursor,omitempty"`
	Params               datatypes.JSON `gorm:"type:jsonb;column:params" json:"params,omitempty"`
	Notes                *string        `gorm:"type:text;column:notes" json:"notes,omitempty"`
	CreatedAt            time.Time      `gorm:"type:timestamptz;not null;autoCreateTime;column:created_at" json:"created_at"`
	UpdatedAt            time.Time      `gorm:"type:timestamptz;not null;autoUpdateTime;column:updated_at" json:"updated_at"`
}

func (SyncState) TableName() string { return "sync_state" }

func (m *SyncState) BeforeSave(tx *gorm.DB) error {
	// Mirror CHECK: window_to >= window_from when both present.
	if m.WindowFrom != nil && m.WindowTo != nil && m.WindowTo.Before(*m.WindowFrom) {
		return errors.New("window_to must be >= window_from")
	}
	return nil
}
