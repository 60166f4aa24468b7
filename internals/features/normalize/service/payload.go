// file: internals/features/normalize/service/payload.go
package service

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	ledgermodel "schoolsync_backend/internals/features/ledger/model"
)

// P is a decoded raw payload. Source feeds are loosely typed (numbers arrive
// as strings, flags as 0/1 smallints), so every accessor normalizes.
type P map[string]any

func decodeRows(recs []ledgermodel.LedgerRecord) []P {
	out := make([]P, 0, len(recs))
	for _, r := range recs {
		var doc P
		if err := json.Unmarshal(r.RawPayload, &doc); err != nil {
			continue
		}
		out = append(out, doc)
	}
	return out
}

// Str returns the trimmed string value of a field; "" when absent or blank.
func (p P) Str(key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return ""
	}
}

// StrPtr returns the trimmed string or nil when blank.
func (p P) StrPtr(key string) *string {
	s := p.Str(key)
	if s == "" {
		return nil
	}
	return &s
}

// I64 parses a numeric or digit-string field. ok is false for anything else.
func (p P) I64(key string) (int64, bool) {
	switch t := p[key].(type) {
	case float64:
		return int64(t), true
	case string:
		s := strings.TrimSpace(t)
		if !isDigits(s) {
			return 0, false
		}
		n, err := strconv.ParseInt(s, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// I64Ptr is I64 returning nil when unparseable.
func (p P) I64Ptr(key string) *int64 {
	if n, ok := p.I64(key); ok {
		return &n
	}
	return nil
}

// Int parses a small int the same way as I64.
func (p P) Int(key string) (int, bool) {
	n, ok := p.I64(key)
	return int(n), ok
}

func (p P) IntPtr(key string) *int {
	if n, ok := p.Int(key); ok {
		return &n
	}
	return nil
}

// F64 parses a numeric field, accepting both JSON numbers and numeric strings.
func (p P) F64(key string) (float64, bool) {
	switch t := p[key].(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func (p P) F64Ptr(key string) *float64 {
	if f, ok := p.F64(key); ok {
		return &f
	}
	return nil
}

// Bool01 maps the source's 0/1 smallint flags to bool; anything else is false.
func (p P) Bool01(key string) bool {
	n, ok := p.I64(key)
	return ok && n == 1
}

// Date parses a YYYY-MM-DD field.
func (p P) Date(key string) (time.Time, bool) {
	s := p.Str(key)
	if s == "" {
		return time.Time{}, false
	}
	if len(s) > 10 {
		s = s[:10]
	}
	d, err := time.Parse("2006-01-02", s)
	return d, err == nil
}

func (p P) DatePtr(key string) *time.Time {
	if d, ok := p.Date(key); ok {
		return &d
	}
	return nil
}

// Time parses an RFC3339-ish timestamp field.
func (p P) Time(key string) *time.Time {
	s := p.Str(key)
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// Map returns a nested JSON object field, nil when absent or not an object.
func (p P) Map(key string) map[string]any {
	m, _ := p[key].(map[string]any)
	return m
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// NormalizeEmail lower-cases and trims an email; "" for blank input.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// CohortInt parses the source cohort field: "12.0" and 12 both mean 12,
// non-numeric labels mean no cohort.
func CohortInt(raw string) *int {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, ".0")
	if !isDigits(s) {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}
