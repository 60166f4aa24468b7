// Package interval holds the validity-interval arithmetic behind the
// interval-bearing relations. The rules are pure so they can be checked
// in-process right before commit, independent of the storage constraints.
package interval

import (
	"fmt"
	"time"
)

// Interval is one span of truth for a partition key. A nil ValidTo means the
// interval is currently open. Bounds are inclusive calendar dates.
type Interval struct {
	ValidFrom time.Time
	ValidTo   *time.Time
}

// Open reports whether the interval has no end date yet.
func (iv Interval) Open() bool { return iv.ValidTo == nil }

// Covers reports whether day d falls inside the interval.
func (iv Interval) Covers(d time.Time) bool {
	if d.Before(iv.ValidFrom) {
		return false
	}
	return iv.ValidTo == nil || !d.After(*iv.ValidTo)
}

// Overlaps reports whether two intervals share at least one day.
func Overlaps(a, b Interval) bool {
	// a starts after b ends
	if b.ValidTo != nil && a.ValidFrom.After(*b.ValidTo) {
		return false
	}
	// b starts after a ends
	if a.ValidTo != nil && b.ValidFrom.After(*a.ValidTo) {
		return false
	}
	return true
}

// ValidateSet checks the full interval set of one partition key: no pairwise
// overlap and at most one open interval. This is the application-level check
// run on the post-transaction state just before commit; the deferred EXCLUDE
// constraint is the storage backstop.
func ValidateSet(set []Interval) error {
	open := 0
	for i := range set {
		if set[i].ValidTo != nil && set[i].ValidTo.Before(set[i].ValidFrom) {
			return fmt.Errorf("interval %s..%s reversed",
				set[i].ValidFrom.Format("2006-01-02"), set[i].ValidTo.Format("2006-01-02"))
		}
		if set[i].Open() {
			open++
		}
		for j := i + 1; j < len(set); j++ {
			if Overlaps(set[i], set[j]) {
				return fmt.Errorf("intervals starting %s and %s overlap",
					set[i].ValidFrom.Format("2006-01-02"), set[j].ValidFrom.Format("2006-01-02"))
			}
		}
	}
	if open > 1 {
		return fmt.Errorf("%d open intervals, want at most 1", open)
	}
	return nil
}

// CoveringAt returns the interval covering day d, if any. With a valid set
// (see ValidateSet) there is at most one.
func CoveringAt(set []Interval, d time.Time) (Interval, bool) {
	for _, iv := range set {
		if iv.Covers(d) {
			return iv, true
		}
	}
	return Interval{}, false
}
