package configs

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// =======================
// ENV LOADER
// =======================

// LoadEnv loads the .env file when present; container environments set their
// variables directly and skip the file without failing.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using process environment")
	}
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if !exists && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}

// =======================
// TUNABLES (config.yaml)
// =======================

// Config carries the sync tunables read from config.yaml. SkipTolerance has no
// default on purpose: the operator must state how many bad records a window may
// shed before the whole window is considered failed.
type Config struct {
	Timezone string `yaml:"timezone" validate:"required"`

	Windows struct {
		// Trailing window for daily fact pulls, in days (inclusive of today).
		AttendanceDaysBack int `yaml:"attendance_days_back" validate:"min=1"`
		// How far past "today" the schedule pull looks ahead.
		ScheduleDaysForward int `yaml:"schedule_days_forward" validate:"min=0"`
	} `yaml:"windows"`

	Load struct {
		// Width of the weekly reconciliation window, in days. 0 disables it.
		WeeklyDeepDays int `yaml:"weekly_deep_days" validate:"min=0"`
		// SkipTolerance is the maximum tolerated ratio of skipped records per
		// endpoint window, in [0..1]. Required, no default.
		SkipTolerance *float64 `yaml:"skip_tolerance" validate:"required"`
	} `yaml:"load"`

	Groups struct {
		// Participation gaps up to this many days are merged into one
		// membership interval when rebuilding group relations.
		MergeGapDays int `yaml:"merge_gap_days" validate:"min=0"`
	} `yaml:"groups"`

	Marks struct {
		NonGradeTokens struct {
			En string `yaml:"en"`
			Ru string `yaml:"ru"`
		} `yaml:"non_grade_tokens"`
	} `yaml:"marks"`

	// First day of the school year, "MM-DD". Used as the init window floor.
	SeasonStart string `yaml:"season_start" validate:"required"`
}

// Load reads and validates config.yaml from the given path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Windows.AttendanceDaysBack == 0 {
		cfg.Windows.AttendanceDaysBack = 2
	}
	if cfg.Groups.MergeGapDays == 0 {
		cfg.Groups.MergeGapDays = 14
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	if tol := *cfg.Load.SkipTolerance; tol < 0 || tol > 1 {
		return nil, fmt.Errorf("validate config: skip_tolerance %v outside [0..1]", tol)
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("validate config: timezone: %w", err)
	}
	if _, err := time.Parse("01-02", cfg.SeasonStart); err != nil {
		return nil, fmt.Errorf("validate config: season_start: %w", err)
	}
	return cfg, nil
}

// Location resolves the configured timezone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SeasonStartFor returns the school-year start date active at the given day:
// this year's season start when the day is past it, otherwise last year's.
func (c *Config) SeasonStartFor(day time.Time) time.Time {
	md, _ := time.Parse("01-02", c.SeasonStart)
	start := time.Date(day.Year(), md.Month(), md.Day(), 0, 0, 0, 0, time.UTC)
	if day.Before(start) {
		start = start.AddDate(-1, 0, 0)
	}
	return start
}
