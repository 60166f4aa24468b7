package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const validYAML = `
timezone: Europe/Moscow
windows:
  attendance_days_back: 2
  schedule_days_forward: 7
load:
  weekly_deep_days: 60
  skip_tolerance: 0.05
groups:
  merge_gap_days: 14
marks:
  non_grade_tokens:
    en: effort
    ru: "старание"
season_start: "09-01"
`

func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)
	assert.Equal(t, "Europe/Moscow", cfg.Timezone)
	assert.Equal(t, 2, cfg.Windows.AttendanceDaysBack)
	assert.Equal(t, 7, cfg.Windows.ScheduleDaysForward)
	assert.Equal(t, 60, cfg.Load.WeeklyDeepDays)
	require.NotNil(t, cfg.Load.SkipTolerance)
	assert.InDelta(t, 0.05, *cfg.Load.SkipTolerance, 1e-9)
	assert.Equal(t, 14, cfg.Groups.MergeGapDays)
	assert.Equal(t, "effort", cfg.Marks.NonGradeTokens.En)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
timezone: UTC
load:
  skip_tolerance: 0
season_start: "09-01"
`))
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Windows.AttendanceDaysBack)
	assert.Equal(t, 14, cfg.Groups.MergeGapDays)
}

func TestLoadMissingSkipTolerance(t *testing.T) {
	_, err := Load(writeConfig(t, `
timezone: UTC
season_start: "09-01"
`))
	require.Error(t, err)
}

func TestLoadSkipToleranceOutOfRange(t *testing.T) {
	_, err := Load(writeConfig(t, `
timezone: UTC
load:
  skip_tolerance: 1.5
season_start: "09-01"
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "skip_tolerance")
}

func TestLoadBadTimezone(t *testing.T) {
	_, err := Load(writeConfig(t, `
timezone: Mars/Olympus
load:
  skip_tolerance: 0.1
season_start: "09-01"
`))
	require.Error(t, err)
}

func TestLoadBadSeasonStart(t *testing.T) {
	_, err := Load(writeConfig(t, `
timezone: UTC
load:
  skip_tolerance: 0.1
season_start: "September 1st"
`))
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestSeasonStartFor(t *testing.T) {
	cfg := &Config{SeasonStart: "09-01"}

	autumn := time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), cfg.SeasonStartFor(autumn))

	spring := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), cfg.SeasonStartFor(spring))

	sept1 := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), cfg.SeasonStartFor(sept1))
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := &Config{Timezone: "Nowhere/Nothing"}
	assert.Equal(t, time.UTC, cfg.Location())
}
