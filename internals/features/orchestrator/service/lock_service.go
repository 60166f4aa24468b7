// file: internals/features/orchestrator/service/lock_service.go
package service

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/gorm"

	"schoolsync_backend/internals/helpers/etlerr"
)

// Advisory lock keys, one per processing stage.
const (
	LockRawStage  int64 = 1001
	LockCoreStage int64 = 1002
)

// StageLock is a session-level Postgres advisory lock pinned to a dedicated
// connection for the whole stage. Pinning matters: pg_advisory_lock is tied
// to the session, and a pooled connection may otherwise be swapped midway.
type StageLock struct {
	conn *sql.Conn
	key  int64
}

// AcquireStageLock takes the stage lock. With wait=false a held lock aborts
// immediately with ErrLockBusy instead of blocking.
func AcquireStageLock(ctx context.Context, db *gorm.DB, key int64, wait bool) (*StageLock, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return nil, err
	}

	if wait {
		if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, key); err != nil {
			conn.Close()
			return nil, fmt.Errorf("acquire lock %d: %w", key, err)
		}
		return &StageLock{conn: conn, key: key}, nil
	}

	var got bool
	if err := conn.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, key).Scan(&got); err != nil {
		conn.Close()
		return nil, fmt.Errorf("try lock %d: %w", key, err)
	}
	if !got {
		conn.Close()
		return nil, fmt.Errorf("%w: key=%d", etlerr.ErrLockBusy, key)
	}
	return &StageLock{conn: conn, key: key}, nil
}

// Release unlocks and returns the pinned connection to the pool.
func (l *StageLock) Release(ctx context.Context) error {
	if l == nil || l.conn == nil {
		return nil
	}
	_, err := l.conn.ExecContext(ctx, `SELECT pg_advisory_unlock($1)`, l.key)
	closeErr := l.conn.Close()
	l.conn = nil
	if err != nil {
		return err
	}
	return closeErr
}
