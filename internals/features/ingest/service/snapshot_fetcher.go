// file: internals/features/ingest/service/snapshot_fetcher.go
package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"schoolsync_backend/internals/configs"
	"schoolsync_backend/internals/features/ingest"
	syncsvc "schoolsync_backend/internals/features/syncstate/service"
)

// SnapshotFetcher reads the people and class reference feeds from CSV exports
// in a local directory. These feeds are spreadsheet extracts maintained by
// the school office, delivered outside the REST API. One export file can feed
// several endpoints: the staff sheet also carries positions, the parents
// sheet also carries the student links.
type SnapshotFetcher struct {
	Dir string
}

func NewSnapshotFetcherFromEnv() *SnapshotFetcher {
	return &SnapshotFetcher{Dir: configs.GetEnv("SNAPSHOT_DIR", "snapshots")}
}

func (f *SnapshotFetcher) Fetch(ctx context.Context, endpoint string, _ syncsvc.Window, _ *string) ([]ingest.Record, *string, error) {
	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	default:
	}

	switch endpoint {
	case ingest.EndpointStudents:
		return f.students()
	case ingest.EndpointStaff:
		return f.staff(false)
	case ingest.EndpointStaffPos:
		return f.staff(true)
	case ingest.EndpointParents:
		return f.parents(false)
	case ingest.EndpointParentLinks:
		return f.parents(true)
	case ingest.EndpointClasses:
		return f.classes()
	}
	return nil, nil, fmt.Errorf("snapshot fetcher does not serve endpoint %q", endpoint)
}

func (f *SnapshotFetcher) students() ([]ingest.Record, *string, error) {
	rows, err := f.readSheet("students.csv")
	if err != nil {
		return nil, nil, err
	}
	var out []ingest.Record
	for _, r := range rows {
		id := r.get("id")
		if id == "" {
			continue
		}
		out = append(out, ingest.Record{
			SourceID: id,
			Payload: map[string]any{
				"student_id": id,
				"first_name": r.get("firstname"),
				"last_name":  r.get("lastname"),
				"gender":     r.get("gender"),
				"dob":        r.get("dob"),
				"email":      r.get("email"),
				"cohort":     r.get("cohort"),
				"program":    r.get("program"),
				"class_name": r.get("class"),
			},
		})
	}
	return out, nil, nil
}

func (f *SnapshotFetcher) staff(positions bool) ([]ingest.Record, *string, error) {
	rows, err := f.readSheet("staff.csv")
	if err != nil {
		return nil, nil, err
	}
	var out []ingest.Record
	for _, r := range rows {
		email := strings.ToLower(r.get("email"))
		if email == "" {
			continue
		}
		if positions {
			dep := r.get("department")
			if dep == "" {
				continue
			}
			out = append(out, ingest.Record{
				SourceID: email + "|" + dep,
				Payload: map[string]any{
					"staff_email": email,
					"department":  dep,
					"position":    r.get("position"),
				},
			})
			continue
		}
		out = append(out, ingest.Record{
			SourceID: email,
			Payload: map[string]any{
				"staff_email": email,
				"staff_id":    r.get("id"),
				"staff_name":  r.get("staff"),
				"gender":      r.get("gender"),
			},
		})
	}
	return out, nil, nil
}

func (f *SnapshotFetcher) parents(links bool) ([]ingest.Record, *string, error) {
	rows, err := f.readSheet("parents.csv")
	if err != nil {
		return nil, nil, err
	}
	var out []ingest.Record
	for _, r := range rows {
		email := strings.ToLower(r.get("email"))
		if email == "" {
			continue
		}
		if links {
			studentID := r.get("id")
			if studentID == "" {
				continue
			}
			out = append(out, ingest.Record{
				SourceID: studentID + "|" + email,
				Payload: map[string]any{
					"student_id":   studentID,
					"parent_email": email,
				},
			})
			continue
		}
		out = append(out, ingest.Record{
			SourceID: email,
			Payload: map[string]any{
				"parent_email": email,
				"parent_name":  r.get("parent"),
			},
		})
	}
	return out, nil, nil
}

func (f *SnapshotFetcher) classes() ([]ingest.Record, *string, error) {
	rows, err := f.readSheet("classes.csv")
	if err != nil {
		return nil, nil, err
	}
	var out []ingest.Record
	for _, r := range rows {
		title := r.get("title")
		if title == "" {
			continue
		}
		out = append(out, ingest.Record{
			SourceID: title,
			Payload: map[string]any{
				"title":             title,
				"cohort":            r.get("cohort"),
				"homeroom_name":     r.get("staffmember"),
				"homeroom_email":    strings.ToLower(r.get("email")),
				"homeroom_staff_id": r.get("staffid"),
			},
		})
	}
	return out, nil, nil
}

/* ============================================
   CSV plumbing
============================================ */

type sheetRow struct {
	cols map[string]string
}

func (r sheetRow) get(canonKey string) string {
	return strings.TrimSpace(r.cols[canonKey])
}

var headerJunk = regexp.MustCompile(`[._/\-\x{2010}-\x{2015}\x{2212}]+`)
var headerSpaces = regexp.MustCompile(`\s+`)

// canonHeader folds an export header to a stable key: "E-mail", "e_mail" and
// "E mail " all become "email". Exports come from hand-edited sheets, so the
// headers drift.
func canonHeader(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.ToLower(strings.TrimSpace(s))
	s = headerJunk.ReplaceAllString(s, "")
	s = headerSpaces.ReplaceAllString(s, "")
	return s
}

func (f *SnapshotFetcher) readSheet(name string) ([]sheetRow, error) {
	path := filepath.Join(f.Dir, name)
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	if len(records) < 1 {
		return nil, nil
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = canonHeader(h)
	}

	out := make([]sheetRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := sheetRow{cols: map[string]string{}}
		for i, v := range rec {
			if i < len(header) && header[i] != "" {
				row.cols[header[i]] = v
			}
		}
		out = append(out, row)
	}
	return out, nil
}
