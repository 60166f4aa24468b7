// Package dateutil holds the date arithmetic shared by window computation and
// the membership segment builder. All dates are calendar days (midnight UTC).
package dateutil

import "time"

// Day truncates a timestamp to its calendar date in UTC.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayIn truncates a timestamp to its calendar date in the given location,
// returned as midnight UTC of that local date.
func DayIn(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, time.UTC)
}

// AddDays moves a date by n calendar days.
func AddDays(d time.Time, n int) time.Time {
	return d.AddDate(0, 0, n)
}

// MondayOf returns the Monday of the week containing d.
func MondayOf(d time.Time) time.Time {
	wd := int(d.Weekday())
	if wd == 0 { // Sunday
		wd = 7
	}
	return AddDays(Day(d), -(wd - 1))
}

// MondaysBetween lists the Mondays of every week touched by [from..to].
func MondaysBetween(from, to time.Time) []time.Time {
	cur := MondayOf(from)
	end := MondayOf(to)
	var out []time.Time
	for !cur.After(end) {
		out = append(out, cur)
		cur = AddDays(cur, 7)
	}
	return out
}

// Range lists every day of the inclusive interval [from..to].
func Range(from, to time.Time) []time.Time {
	var out []time.Time
	for d := Day(from); !d.After(Day(to)); d = AddDays(d, 1) {
		out = append(out, d)
	}
	return out
}

// MonthStart returns the first day of d's month.
func MonthStart(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthStarts returns the distinct month starts of the given dates, sorted.
func MonthStarts(dates []time.Time) []time.Time {
	seen := map[time.Time]bool{}
	var out []time.Time
	for _, d := range dates {
		m := MonthStart(d)
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	sortTimes(out)
	return out
}

func sortTimes(ts []time.Time) {
	for i := 1; i < len(ts); i++ {
		for j := i; j > 0 && ts[j].Before(ts[j-1]); j-- {
			ts[j], ts[j-1] = ts[j-1], ts[j]
		}
	}
}

// ISO formats a date as YYYY-MM-DD; the zero time renders as "".
func ISO(d time.Time) string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}
