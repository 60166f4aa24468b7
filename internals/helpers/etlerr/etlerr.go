// Package etlerr defines the error taxonomy shared by the ingestion and
// normalization stages. Callers classify with errors.Is; the concrete types
// carry the context needed for the run log and the exit status.
package etlerr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrInvalidWindow is fatal for the run: the requested window reaches into
	// the future or is reversed. Raised before any write.
	ErrInvalidWindow = errors.New("invalid sync window")

	// ErrOverlapViolation means an interval write would leave two intervals for
	// the same partition key covering a common date.
	ErrOverlapViolation = errors.New("interval overlap violation")

	// ErrNoOpenInterval means a close/replace was requested for a key that has
	// no interval with valid_to IS NULL.
	ErrNoOpenInterval = errors.New("no open interval for key")

	// ErrMissingReference is recoverable per record: a required foreign
	// relationship could not be resolved. The record is skipped and counted.
	ErrMissingReference = errors.New("missing reference")

	// ErrPartialBatchFailure means the skipped-record ratio for a window
	// exceeded the configured tolerance; the whole window is rolled back.
	ErrPartialBatchFailure = errors.New("partial batch failure")

	// ErrSourceFetch wraps an unrecoverable error from the source fetcher
	// after its own retries are exhausted.
	ErrSourceFetch = errors.New("source fetch failed")

	// ErrLockBusy is returned by the non-blocking lock variant when another
	// run already holds the stage lock.
	ErrLockBusy = errors.New("stage lock busy")
)

// InvalidWindow builds an ErrInvalidWindow with the offending bounds.
func InvalidWindow(from, to string) error {
	return fmt.Errorf("%w: %s..%s", ErrInvalidWindow, from, to)
}

// PartialBatch reports a tolerance breach for an endpoint window.
func PartialBatch(endpoint string, skipped, processed int, tolerance float64) error {
	return fmt.Errorf("%w: endpoint=%s skipped=%d processed=%d tolerance=%.2f",
		ErrPartialBatchFailure, endpoint, skipped, processed, tolerance)
}

// Postgres error codes that map onto the taxonomy.
const (
	pgExclusionViolation  = "23P01"
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// FromPg translates a database error into the taxonomy where a mapping exists.
// Exclusion violations on the interval tables are the storage-layer backstop
// for the non-overlap invariant, so they surface as ErrOverlapViolation even
// when the application-level check was bypassed.
func FromPg(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgExclusionViolation:
		return fmt.Errorf("%w: %s (%s)", ErrOverlapViolation, pgErr.Message, pgErr.ConstraintName)
	case pgForeignKeyViolation:
		return fmt.Errorf("%w: %s (%s)", ErrMissingReference, pgErr.Message, pgErr.ConstraintName)
	default:
		return err
	}
}

// IsFatalForRun reports whether the error must abort the whole run rather than
// a single endpoint window.
func IsFatalForRun(err error) bool {
	return errors.Is(err, ErrInvalidWindow) || errors.Is(err, ErrLockBusy)
}
