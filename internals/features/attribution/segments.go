// file: internals/features/attribution/segments.go
package attribution

import (
	"sort"
	"time"

	"schoolsync_backend/internals/helpers/dateutil"
)

// Segment is one closed participation span derived from fact dates.
type Segment struct {
	From time.Time
	To   time.Time
}

// BuildSegments merges participation dates into segments: consecutive dates
// whose gap is at most mergeGapDays land in one segment, a larger gap starts
// a new one. Input order and duplicates do not matter.
func BuildSegments(days []time.Time, mergeGapDays int) []Segment {
	if len(days) == 0 {
		return nil
	}
	norm := make([]time.Time, 0, len(days))
	seen := map[time.Time]bool{}
	for _, d := range days {
		dd := dateutil.Day(d)
		if !seen[dd] {
			seen[dd] = true
			norm = append(norm, dd)
		}
	}
	sort.Slice(norm, func(i, j int) bool { return norm[i].Before(norm[j]) })

	out := []Segment{{From: norm[0], To: norm[0]}}
	for _, d := range norm[1:] {
		cur := &out[len(out)-1]
		if !d.After(dateutil.AddDays(cur.To, mergeGapDays)) {
			cur.To = d
			continue
		}
		out = append(out, Segment{From: d, To: d})
	}
	return out
}
