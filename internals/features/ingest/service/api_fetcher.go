// file: internals/features/ingest/service/api_fetcher.go
package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"schoolsync_backend/internals/features/ingest"
	syncsvc "schoolsync_backend/internals/features/syncstate/service"
	"schoolsync_backend/internals/helpers/dateutil"
)

// APIFetcher pulls the REST endpoints. The windowed feeds are sliced by day
// (the server caps each response, one school day always fits), and the slice
// day doubles as the resumption cursor: Fetch returns one day's records plus
// the next day to pull, so an interrupted window restarts mid-window.
type APIFetcher struct {
	Client *APIClient
}

func NewAPIFetcher(client *APIClient) *APIFetcher {
	return &APIFetcher{Client: client}
}

func (f *APIFetcher) Fetch(ctx context.Context, endpoint string, w syncsvc.Window, cursor *string) ([]ingest.Record, *string, error) {
	switch endpoint {
	case ingest.EndpointSubjects:
		items, err := f.Client.GetItems(ctx, "subjects", url.Values{})
		return apiRecords(items, "id", time.Time{}), nil, err

	case ingest.EndpointWorkForms:
		items, err := f.Client.GetItems(ctx, "work_forms", url.Values{"department": {"0"}})
		return apiRecords(items, "id_form", time.Time{}), nil, err

	case ingest.EndpointMarksFinal:
		items, err := f.Client.GetItems(ctx, "marks/final", url.Values{
			"limit": {strconv.Itoa(f.Client.Limit)},
		})
		if err != nil {
			return nil, nil, err
		}
		return finalRecords(items, w), nil, nil

	case ingest.EndpointAttendance:
		return f.daySlice(ctx, "attendance", endpoint, "attendance_date", w, cursor)

	case ingest.EndpointMarksCurrent:
		return f.daySlice(ctx, "marks/current", endpoint, "mark_date", w, cursor)

	case ingest.EndpointSchedule:
		return f.weekSlice(ctx, w, cursor)
	}
	return nil, nil, fmt.Errorf("api fetcher does not serve endpoint %q", endpoint)
}

// daySlice pulls the cursor day (or the window start) and hands back the next
// day as cursor until the window is exhausted.
func (f *APIFetcher) daySlice(ctx context.Context, path, endpoint, dateField string, w syncsvc.Window, cursor *string) ([]ingest.Record, *string, error) {
	day, err := cursorDay(w, cursor)
	if err != nil {
		return nil, nil, err
	}
	iso := dateutil.ISO(day)
	items, err := f.Client.GetItems(ctx, path, url.Values{
		"start_date":  {iso},
		"finish_date": {iso},
		"limit":       {strconv.Itoa(f.Client.Limit)},
	})
	if err != nil {
		return nil, nil, err
	}

	recs := make([]ingest.Record, 0, len(items))
	for _, it := range items {
		d := day
		if parsed, ok := itemDate(it, dateField); ok {
			d = parsed
		}
		recs = append(recs, ingest.Record{SourceID: itemID(it, "id"), Date: d, Payload: it})
	}
	return recs, nextDayCursor(day, w, 1), nil
}

// weekSlice pulls the schedule by Monday search dates.
func (f *APIFetcher) weekSlice(ctx context.Context, w syncsvc.Window, cursor *string) ([]ingest.Record, *string, error) {
	day, err := cursorDay(syncsvc.Window{From: dateutil.MondayOf(w.From), To: w.To}, cursor)
	if err != nil {
		return nil, nil, err
	}
	items, err := f.Client.GetItems(ctx, "schedule", url.Values{
		"search_date": {dateutil.ISO(day)},
		"limit":       {strconv.Itoa(f.Client.Limit)},
	})
	if err != nil {
		return nil, nil, err
	}

	recs := make([]ingest.Record, 0, len(items))
	for _, it := range items {
		d := day
		if parsed, ok := itemDate(it, "lesson_date"); ok {
			d = parsed
		}
		recs = append(recs, ingest.Record{SourceID: itemID(it, "lesson_id"), Date: d, Payload: it})
	}
	return recs, nextDayCursor(day, w, 7), nil
}

func cursorDay(w syncsvc.Window, cursor *string) (time.Time, error) {
	if cursor == nil || *cursor == "" {
		return dateutil.Day(w.From), nil
	}
	d, err := time.Parse("2006-01-02", *cursor)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad cursor %q: %w", *cursor, err)
	}
	// A cursor left over from an older window restarts this one.
	if d.Before(w.From) || d.After(w.To) {
		return dateutil.Day(w.From), nil
	}
	return dateutil.Day(d), nil
}

func nextDayCursor(day time.Time, w syncsvc.Window, stepDays int) *string {
	next := dateutil.AddDays(day, stepDays)
	if next.After(dateutil.Day(w.To)) {
		return nil
	}
	s := dateutil.ISO(next)
	return &s
}

func apiRecords(items []map[string]any, idField string, day time.Time) []ingest.Record {
	out := make([]ingest.Record, 0, len(items))
	for _, it := range items {
		out = append(out, ingest.Record{SourceID: itemID(it, idField), Date: day, Payload: it})
	}
	return out
}

// finalRecords keeps final marks created within the window; the endpoint has
// no server-side date filter.
func finalRecords(items []map[string]any, w syncsvc.Window) []ingest.Record {
	out := make([]ingest.Record, 0, len(items))
	for _, it := range items {
		d, ok := itemDate(it, "created_date")
		if ok && (d.Before(w.From) || d.After(w.To)) {
			continue
		}
		if !ok {
			d = w.To
		}
		out = append(out, ingest.Record{SourceID: itemID(it, "id"), Date: d, Payload: it})
	}
	return out
}

func itemID(it map[string]any, field string) string {
	switch v := it[field].(type) {
	case float64:
		return strconv.FormatInt(int64(v), 10)
	case string:
		return v
	default:
		return ""
	}
}

func itemDate(it map[string]any, field string) (time.Time, bool) {
	s, _ := it[field].(string)
	if len(s) >= 10 {
		if d, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}
