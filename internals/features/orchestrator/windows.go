// Package orchestrator computes run windows and sequences the sync stages.
// The window arithmetic is pure; the service subpackage owns the locking,
// transactions and stage wiring.
package orchestrator

import (
	"time"

	syncsvc "schoolsync_backend/internals/features/syncstate/service"
	"schoolsync_backend/internals/helpers/dateutil"
)

// Mode selects the windowing strategy for a run.
type Mode string

const (
	ModeAuto        Mode = "auto"
	ModeInit        Mode = "init"
	ModeInitIfEmpty Mode = "init-if-empty"
	ModeDaily       Mode = "daily"
	ModeWeeklyDeep  Mode = "weekly-deep"
	ModeBackfill    Mode = "backfill"
)

// ValidMode reports whether s names a run mode.
func ValidMode(s string) bool {
	switch Mode(s) {
	case ModeAuto, ModeInit, ModeInitIfEmpty, ModeDaily, ModeWeeklyDeep, ModeBackfill:
		return true
	}
	return false
}

// DailyWindow is the short trailing window ending today: daysBack days
// inclusive of today, catching late-arriving corrections.
func DailyWindow(today time.Time, daysBack int) syncsvc.Window {
	if daysBack < 1 {
		daysBack = 1
	}
	return syncsvc.Window{
		From: dateutil.AddDays(dateutil.Day(today), -(daysBack - 1)),
		To:   dateutil.Day(today),
	}
}

// DeepWindow is the wide reconciliation window: deepDays back from today.
func DeepWindow(today time.Time, deepDays int) syncsvc.Window {
	return syncsvc.Window{
		From: dateutil.AddDays(dateutil.Day(today), -deepDays),
		To:   dateutil.Day(today),
	}
}

// InitWindow is the full-backfill window from the season start to today.
func InitWindow(today, seasonStart time.Time) syncsvc.Window {
	return syncsvc.Window{From: dateutil.Day(seasonStart), To: dateutil.Day(today)}
}

// AutoWindow picks the smallest safe incremental window: from the day after
// the last committed window_to, through today. Without a checkpoint it falls
// back to the init window. The result never starts after today.
func AutoWindow(lastTo, today, seasonStart time.Time) syncsvc.Window {
	if lastTo.IsZero() {
		return InitWindow(today, seasonStart)
	}
	from := dateutil.AddDays(dateutil.Day(lastTo), 1)
	if from.After(dateutil.Day(today)) {
		from = dateutil.Day(today)
	}
	return syncsvc.Window{From: from, To: dateutil.Day(today)}
}

// RecoveryWindow reports the gap-backfill window for an endpoint whose last
// checkpoint is older than the trailing window covers. needed is false when
// the daily window already reaches the gap or no checkpoint exists.
func RecoveryWindow(lastTo, today time.Time, safetyGapDays int) (syncsvc.Window, bool) {
	if lastTo.IsZero() {
		return syncsvc.Window{}, false
	}
	if lastTo.After(dateutil.AddDays(dateutil.Day(today), -(safetyGapDays + 1))) {
		return syncsvc.Window{}, false
	}
	return syncsvc.Window{
		From: dateutil.AddDays(dateutil.Day(lastTo), 1),
		To:   dateutil.Day(today),
	}, true
}

// SafetyGapDays is the staleness threshold that triggers gap recovery.
func SafetyGapDays(attendanceDaysBack int) int {
	if attendanceDaysBack > 2 {
		return attendanceDaysBack
	}
	return 2
}

// ScheduleFetchWindow widens a window for the schedule pull: Monday-aligned
// at the start and extended forwardDays past the end, because timetable rules
// describe the upcoming days too.
func ScheduleFetchWindow(w syncsvc.Window, forwardDays int) syncsvc.Window {
	return syncsvc.Window{
		From: dateutil.MondayOf(w.From),
		To:   dateutil.AddDays(w.To, forwardDays),
	}
}

// WeeklySlot reports whether today is the weekly-deep slot (Monday).
func WeeklySlot(today time.Time) bool {
	return today.Weekday() == time.Monday
}

// ClampTo caps a window's end at the given day.
func ClampTo(w syncsvc.Window, day time.Time) syncsvc.Window {
	if w.To.After(dateutil.Day(day)) {
		w.To = dateutil.Day(day)
	}
	return w
}
