// file: internals/features/orchestrator/service/orchestrator_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"schoolsync_backend/internals/configs"
	attrsvc "schoolsync_backend/internals/features/attribution/service"
	"schoolsync_backend/internals/features/ingest"
	ingestsvc "schoolsync_backend/internals/features/ingest/service"
	ledgersvc "schoolsync_backend/internals/features/ledger/service"
	normsvc "schoolsync_backend/internals/features/normalize/service"
	"schoolsync_backend/internals/features/orchestrator"
	syncsvc "schoolsync_backend/internals/features/syncstate/service"
	"schoolsync_backend/internals/helpers/dateutil"
	"schoolsync_backend/internals/helpers/etlerr"
)

// Options selects the mode and, for backfill, the explicit window.
type Options struct {
	Mode            orchestrator.Mode
	From            *time.Time
	To              *time.Time
	ForceWeeklyDeep bool
	NonBlocking     bool
}

// Orchestrator sequences the two stages. Raw: fetch into the ledger per
// endpoint. Core: project ledger rows into entities, refresh attribution,
// advance checkpoints. Each stage runs under its own advisory lock.
type Orchestrator struct {
	DB          *gorm.DB
	Cfg         *configs.Config
	Log         *zap.SugaredLogger
	Checkpoints *syncsvc.CheckpointStore
	Ledger      *ledgersvc.LedgerService
	Ingest      *ingestsvc.IngestService
	Normalizer  *normsvc.Normalizer
	Attribution *attrsvc.AttributionService
	Now         func() time.Time
}

func NewOrchestrator(db *gorm.DB, cfg *configs.Config, log *zap.SugaredLogger,
	cps *syncsvc.CheckpointStore, ledger *ledgersvc.LedgerService,
	ing *ingestsvc.IngestService, norm *normsvc.Normalizer, attr *attrsvc.AttributionService) *Orchestrator {
	return &Orchestrator{
		DB: db, Cfg: cfg, Log: log,
		Checkpoints: cps, Ledger: ledger,
		Ingest: ing, Normalizer: norm, Attribution: attr,
		Now: time.Now,
	}
}

func (o *Orchestrator) today() time.Time {
	return dateutil.DayIn(o.Now(), o.Cfg.Location())
}

// Run executes the raw stage then the core stage.
func (o *Orchestrator) Run(ctx context.Context, opts Options) error {
	if err := o.RunRaw(ctx, opts); err != nil {
		return err
	}
	return o.RunCore(ctx, opts)
}

/* ============================================
   RAW STAGE
============================================ */

// RunRaw ingests the source endpoints into the ledger under the raw stage
// lock. Snapshot feeds are pulled on every run; windowed feeds follow the
// mode's strategy.
func (o *Orchestrator) RunRaw(ctx context.Context, opts Options) error {
	lock, err := AcquireStageLock(ctx, o.DB, LockRawStage, !opts.NonBlocking)
	if err != nil {
		return err
	}
	defer lock.Release(ctx)

	today := o.today()
	o.Log.Infow("raw stage start", "stage", "raw", "mode", string(opts.Mode))

	var failed []string
	fail := func(endpoint string, err error) error {
		if etlerr.IsFatalForRun(err) {
			return err
		}
		o.Log.Errorw("endpoint ingest failed", "stage", "raw", "endpoint", endpoint, "err", err)
		failed = append(failed, endpoint)
		return nil
	}

	// Snapshots first: the windowed feeds reference people and classes that
	// only the snapshots can introduce.
	snapWindow := syncsvc.Window{From: today, To: today}
	for _, ep := range ingest.SnapshotEndpoints {
		if err := o.Ingest.IngestEndpoint(ctx, ep, snapWindow, string(opts.Mode)); err != nil {
			if err = fail(ep, err); err != nil {
				return err
			}
		}
	}

	switch opts.Mode {
	case orchestrator.ModeInit, orchestrator.ModeBackfill:
		w, err := o.explicitWindow(opts, today)
		if err != nil {
			return err
		}
		if err := o.ingestWindowed(ctx, w, opts, fail); err != nil {
			return err
		}

	case orchestrator.ModeInitIfEmpty:
		if err := o.initIfEmpty(ctx, today, opts, fail); err != nil {
			return err
		}

	case orchestrator.ModeDaily:
		if err := o.dailyAndRecovery(ctx, today, opts, fail); err != nil {
			return err
		}

	case orchestrator.ModeWeeklyDeep:
		if err := o.weeklyDeep(ctx, today, opts, fail, true); err != nil {
			return err
		}

	case orchestrator.ModeAuto:
		if err := o.initIfEmpty(ctx, today, opts, fail); err != nil {
			return err
		}
		if err := o.dailyAndRecovery(ctx, today, opts, fail); err != nil {
			return err
		}
		if err := o.weeklyDeep(ctx, today, opts, fail, opts.ForceWeeklyDeep); err != nil {
			return err
		}

	default:
		return fmt.Errorf("unknown mode %q", opts.Mode)
	}

	if len(failed) > 0 {
		return fmt.Errorf("raw stage finished with failed endpoints: %v", failed)
	}
	o.Log.Infow("raw stage done", "stage", "raw", "mode", string(opts.Mode))
	return nil
}

func (o *Orchestrator) explicitWindow(opts Options, today time.Time) (syncsvc.Window, error) {
	if opts.Mode == orchestrator.ModeBackfill {
		if opts.From == nil || opts.To == nil {
			return syncsvc.Window{}, fmt.Errorf("%w: backfill requires --from and --to", etlerr.ErrInvalidWindow)
		}
		return syncsvc.ValidateWindow(*opts.From, *opts.To, o.Now())
	}
	// init: caller window when given, otherwise season start through today.
	if opts.From != nil && opts.To != nil {
		return syncsvc.ValidateWindow(*opts.From, *opts.To, o.Now())
	}
	return orchestrator.InitWindow(today, o.Cfg.SeasonStartFor(today)), nil
}

// ingestWindowed pulls every windowed endpoint for w, schedule with its
// Monday-aligned forward-extended variant.
func (o *Orchestrator) ingestWindowed(ctx context.Context, w syncsvc.Window, opts Options, fail func(string, error) error) error {
	for _, ep := range ingest.WindowedEndpoints {
		epWindow := w
		if ep == ingest.EndpointSchedule {
			epWindow = orchestrator.ScheduleFetchWindow(w, o.Cfg.Windows.ScheduleDaysForward)
		}
		if err := o.Ingest.IngestEndpoint(ctx, ep, epWindow, string(opts.Mode)); err != nil {
			if err = fail(ep, err); err != nil {
				return err
			}
		}
	}
	return nil
}

// initIfEmpty backfills the deep window for every windowed endpoint whose
// ledger slice is still empty; populated endpoints are left alone.
func (o *Orchestrator) initIfEmpty(ctx context.Context, today time.Time, opts Options, fail func(string, error) error) error {
	deep := orchestrator.DeepWindow(today, o.Cfg.Load.WeeklyDeepDays)
	for _, ep := range ingest.WindowedEndpoints {
		var hasRows bool
		if err := o.DB.Raw(`SELECT EXISTS (SELECT 1 FROM ledger_records WHERE endpoint = ?)`, ep).Scan(&hasRows).Error; err != nil {
			return err
		}
		if hasRows {
			continue
		}
		epWindow := deep
		if ep == ingest.EndpointSchedule {
			epWindow = orchestrator.ScheduleFetchWindow(deep, o.Cfg.Windows.ScheduleDaysForward)
		}
		if err := o.Ingest.IngestEndpoint(ctx, ep, epWindow, string(opts.Mode)); err != nil {
			if err = fail(ep, err); err != nil {
				return err
			}
		}
	}
	return nil
}

// dailyAndRecovery pulls the trailing daily window, then backfills any gap
// between an endpoint's last checkpoint and today.
func (o *Orchestrator) dailyAndRecovery(ctx context.Context, today time.Time, opts Options, fail func(string, error) error) error {
	daily := orchestrator.DailyWindow(today, o.Cfg.Windows.AttendanceDaysBack)
	if err := o.ingestWindowed(ctx, daily, opts, fail); err != nil {
		return err
	}

	gap := orchestrator.SafetyGapDays(o.Cfg.Windows.AttendanceDaysBack)
	for _, ep := range ingest.WindowedEndpoints {
		lastTo, err := o.Checkpoints.LastWindowTo(ep)
		if err != nil {
			return err
		}
		w, needed := orchestrator.RecoveryWindow(lastTo, today, gap)
		if !needed {
			continue
		}
		o.Log.Warnw("checkpoint gap detected, recovering",
			"stage", "raw", "endpoint", ep,
			"window_from", dateutil.ISO(w.From), "window_to", dateutil.ISO(w.To))
		if ep == ingest.EndpointSchedule {
			w = orchestrator.ScheduleFetchWindow(w, o.Cfg.Windows.ScheduleDaysForward)
		}
		if err := o.Ingest.IngestEndpoint(ctx, ep, w, string(opts.Mode)); err != nil {
			if err = fail(ep, err); err != nil {
				return err
			}
		}
	}
	return nil
}

// weeklyDeep reprocesses the wide reconciliation window on the weekly slot
// (Monday) or when forced.
func (o *Orchestrator) weeklyDeep(ctx context.Context, today time.Time, opts Options, fail func(string, error) error, force bool) error {
	if o.Cfg.Load.WeeklyDeepDays <= 0 {
		return nil
	}
	if !force && !orchestrator.WeeklySlot(today) {
		return nil
	}
	return o.ingestWindowed(ctx, orchestrator.DeepWindow(today, o.Cfg.Load.WeeklyDeepDays), opts, fail)
}

/* ============================================
   CORE STAGE
============================================ */

// RunCore projects the ledger into the entity tables under the core stage
// lock. Endpoint families run in dependency order, each in its own
// all-or-nothing transaction that also advances the family checkpoint. A
// failed family does not stop the independent ones, but fails the run.
func (o *Orchestrator) RunCore(ctx context.Context, opts Options) error {
	lock, err := AcquireStageLock(ctx, o.DB, LockCoreStage, !opts.NonBlocking)
	if err != nil {
		return err
	}
	defer lock.Release(ctx)

	today := o.today()
	w, err := o.coreWindow(opts, today)
	if err != nil {
		return err
	}
	o.Log.Infow("core stage start",
		"stage", "core", "mode", string(opts.Mode),
		"window_from", dateutil.ISO(w.From), "window_to", dateutil.ISO(w.To))

	tolerance := *o.Cfg.Load.SkipTolerance
	effective := o.Cfg.SeasonStartFor(today)
	var failed []string

	type family struct {
		endpoint string
		run      func(tx *gorm.DB) (*normsvc.BatchStats, error)
	}
	families := []family{
		{"core_refs", func(tx *gorm.DB) (*normsvc.BatchStats, error) { return o.Normalizer.RunRefs(tx) }},
		{"core_people", func(tx *gorm.DB) (*normsvc.BatchStats, error) { return o.Normalizer.RunPeople(tx) }},
		{"core_classes", func(tx *gorm.DB) (*normsvc.BatchStats, error) { return o.Normalizer.RunClasses(tx, effective, today) }},
		{"core_schedule", func(tx *gorm.DB) (*normsvc.BatchStats, error) { return o.Normalizer.RunSchedule(tx, w) }},
		{"core_attendance", func(tx *gorm.DB) (*normsvc.BatchStats, error) { return o.Normalizer.RunAttendance(tx, w) }},
		{"core_marks", func(tx *gorm.DB) (*normsvc.BatchStats, error) { return o.runMarks(tx, w) }},
	}

	for _, f := range families {
		err := o.DB.Transaction(func(tx *gorm.DB) error {
			stats, err := f.run(tx)
			if err != nil {
				return err
			}
			if err := stats.CheckTolerance(tolerance); err != nil {
				return err
			}
			o.Log.Infow("family normalized",
				"stage", "core", "endpoint", f.endpoint, "mode", string(opts.Mode),
				"processed", stats.Processed, "skipped", stats.Skipped)
			return o.Checkpoints.Commit(tx, f.endpoint, w, nil,
				map[string]any{"mode": string(opts.Mode), "processed": stats.Processed, "skipped": stats.Skipped},
				"core normalize")
		})
		if err != nil {
			if etlerr.IsFatalForRun(err) {
				return err
			}
			o.Log.Errorw("family failed, window rolled back",
				"stage", "core", "endpoint", f.endpoint, "err", err)
			failed = append(failed, f.endpoint)
		}
	}

	// Attribution refresh only runs on a clean pass; rebuilding the derived
	// relations over half-loaded facts would shrink intervals.
	if len(failed) == 0 {
		err := o.DB.Transaction(func(tx *gorm.DB) error {
			if err := o.Attribution.RebuildMemberships(tx, o.Cfg.Groups.MergeGapDays); err != nil {
				return err
			}
			return o.Checkpoints.WidenOrchestrator(tx, w)
		})
		if err != nil {
			return err
		}
		o.Log.Infow("core stage done", "stage", "core", "mode", string(opts.Mode))
		return nil
	}
	return fmt.Errorf("core stage finished with failed families: %v", failed)
}

// runMarks runs both mark families under one checkpoint.
func (o *Orchestrator) runMarks(tx *gorm.DB, w syncsvc.Window) (*normsvc.BatchStats, error) {
	cur, err := o.Normalizer.RunMarksCurrent(tx, w)
	if err != nil {
		return nil, err
	}
	fin, err := o.Normalizer.RunMarksFinal(tx, w)
	if err != nil {
		return nil, err
	}
	return &normsvc.BatchStats{
		Endpoint:  "core_marks",
		Processed: cur.Processed + fin.Processed,
		Skipped:   cur.Skipped + fin.Skipped,
	}, nil
}

// coreWindow picks the core projection window for the mode. Auto keys off the
// orchestrator checkpoint so a skipped day is reprocessed, not lost.
func (o *Orchestrator) coreWindow(opts Options, today time.Time) (syncsvc.Window, error) {
	switch opts.Mode {
	case orchestrator.ModeBackfill:
		if opts.From == nil || opts.To == nil {
			return syncsvc.Window{}, fmt.Errorf("%w: backfill requires --from and --to", etlerr.ErrInvalidWindow)
		}
		return syncsvc.ValidateWindow(*opts.From, *opts.To, o.Now())

	case orchestrator.ModeInit, orchestrator.ModeInitIfEmpty:
		if opts.From != nil && opts.To != nil {
			return syncsvc.ValidateWindow(*opts.From, *opts.To, o.Now())
		}
		return orchestrator.InitWindow(today, o.Cfg.SeasonStartFor(today)), nil

	case orchestrator.ModeDaily:
		return orchestrator.DailyWindow(today, o.Cfg.Windows.AttendanceDaysBack), nil

	case orchestrator.ModeWeeklyDeep:
		return orchestrator.DeepWindow(today, o.Cfg.Load.WeeklyDeepDays), nil

	case orchestrator.ModeAuto:
		lastTo, err := o.Checkpoints.LastWindowTo(syncsvc.OrchestratorEndpoint)
		if err != nil {
			return syncsvc.Window{}, err
		}
		return orchestrator.AutoWindow(lastTo, today, o.Cfg.SeasonStartFor(today)), nil
	}
	return syncsvc.Window{}, fmt.Errorf("unknown mode %q", opts.Mode)
}

// IsLockBusy reports whether err is the non-blocking lock abort.
func IsLockBusy(err error) bool {
	return errors.Is(err, etlerr.ErrLockBusy)
}
