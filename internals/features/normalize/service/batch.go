// file: internals/features/normalize/service/batch.go
package service

import "schoolsync_backend/internals/helpers/etlerr"

// BatchStats counts the outcome of one endpoint window. Skipped rows are the
// recoverable MissingReference cases; everything else aborts the window.
type BatchStats struct {
	Endpoint  string
	Processed int
	Skipped   int
}

func (b *BatchStats) Ok()   { b.Processed++ }
func (b *BatchStats) Skip() { b.Skipped++ }

// Total is the number of rows the window attempted.
func (b *BatchStats) Total() int { return b.Processed + b.Skipped }

// SkipRatio is skipped/total; an empty window has ratio 0.
func (b *BatchStats) SkipRatio() float64 {
	t := b.Total()
	if t == 0 {
		return 0
	}
	return float64(b.Skipped) / float64(t)
}

// CheckTolerance returns ErrPartialBatchFailure when the skip ratio exceeds
// the configured tolerance. At exactly the tolerance the window still passes.
func (b *BatchStats) CheckTolerance(tolerance float64) error {
	if b.SkipRatio() > tolerance {
		return etlerr.PartialBatch(b.Endpoint, b.Skipped, b.Processed, tolerance)
	}
	return nil
}
