// file: internals/features/normalize/service/payload_test.go
package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadAccessors(t *testing.T) {
	p := P{
		"title":     "  Mathematics ",
		"id":        float64(42),
		"id_str":    "42",
		"weight":    "87.5",
		"flag_on":   float64(1),
		"flag_off":  float64(0),
		"dob":       "2010-05-14",
		"stamp":     "2026-02-10 08:30:00",
		"staff":     map[string]any{"77": "Jane Doe"},
		"empty":     "",
		"not_a_num": "abc",
	}

	assert.Equal(t, "Mathematics", p.Str("title"))
	assert.Equal(t, "42", p.Str("id"))
	assert.Equal(t, "", p.Str("missing"))
	assert.Nil(t, p.StrPtr("empty"))
	require.NotNil(t, p.StrPtr("title"))

	n, ok := p.I64("id")
	require.True(t, ok)
	assert.Equal(t, int64(42), n)

	n, ok = p.I64("id_str")
	require.True(t, ok)
	assert.Equal(t, int64(42), n)

	_, ok = p.I64("not_a_num")
	assert.False(t, ok)
	assert.Nil(t, p.I64Ptr("missing"))

	f, ok := p.F64("weight")
	require.True(t, ok)
	assert.InDelta(t, 87.5, f, 1e-9)

	assert.True(t, p.Bool01("flag_on"))
	assert.False(t, p.Bool01("flag_off"))
	assert.False(t, p.Bool01("missing"))

	d, ok := p.Date("dob")
	require.True(t, ok)
	assert.Equal(t, time.Date(2010, 5, 14, 0, 0, 0, 0, time.UTC), d)
	_, ok = p.Date("empty")
	assert.False(t, ok)

	ts := p.Time("stamp")
	require.NotNil(t, ts)
	assert.Equal(t, 8, ts.Hour())

	m := p.Map("staff")
	require.NotNil(t, m)
	assert.Contains(t, m, "77")
	assert.Nil(t, p.Map("title"))
}

func TestDateFromTimestamp(t *testing.T) {
	p := P{"mark_date": "2026-02-10T00:00:00"}
	d, ok := p.Date("mark_date")
	require.True(t, ok)
	assert.Equal(t, "2026-02-10", d.Format("2006-01-02"))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "jane@school.example", NormalizeEmail("  Jane@School.Example "))
	assert.Equal(t, "", NormalizeEmail("   "))
}

func TestCohortInt(t *testing.T) {
	cases := []struct {
		in   string
		want *int
	}{
		{"12", intp(12)},
		{"12.0", intp(12)},
		{" 7 ", intp(7)},
		{"12b", nil},
		{"", nil},
		{"senior", nil},
	}
	for _, tc := range cases {
		got := CohortInt(tc.in)
		if tc.want == nil {
			assert.Nil(t, got, tc.in)
		} else {
			require.NotNil(t, got, tc.in)
			assert.Equal(t, *tc.want, *got, tc.in)
		}
	}
}

func intp(v int) *int { return &v }
