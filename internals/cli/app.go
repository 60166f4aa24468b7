// file: internals/cli/app.go
package cli

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"schoolsync_backend/internals/configs"
	database "schoolsync_backend/internals/databases"
	attrsvc "schoolsync_backend/internals/features/attribution/service"
	ingestsvc "schoolsync_backend/internals/features/ingest/service"
	ledgersvc "schoolsync_backend/internals/features/ledger/service"
	normsvc "schoolsync_backend/internals/features/normalize/service"
	orchsvc "schoolsync_backend/internals/features/orchestrator/service"
	syncsvc "schoolsync_backend/internals/features/syncstate/service"
)

// app holds the wired service graph for one CLI invocation.
type app struct {
	DB     *gorm.DB
	Cfg    *configs.Config
	Log    *zap.SugaredLogger
	Orch   *orchsvc.Orchestrator
	logger *zap.Logger
}

func buildApp() (*app, error) {
	configs.LoadEnv()

	var logger *zap.Logger
	var err error
	if configs.GetEnv("APP_DEBUG") == "1" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	log := logger.Sugar()

	cfg, err := configs.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	db, err := database.Connect()
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}

	checkpoints := syncsvc.NewCheckpointStore(db)
	ledger := ledgersvc.NewLedgerService(db)
	fetcher := ingestsvc.NewCompositeFetcher(
		ingestsvc.NewAPIFetcher(ingestsvc.NewAPIClientFromEnv()),
		ingestsvc.NewSnapshotFetcherFromEnv(),
	)
	ing := ingestsvc.NewIngestService(db, ledger, checkpoints, fetcher, cfg, log)
	norm := normsvc.NewNormalizer(db, cfg, log)
	attr := attrsvc.NewAttributionService(db, log)

	return &app{
		DB:     db,
		Cfg:    cfg,
		Log:    log,
		Orch:   orchsvc.NewOrchestrator(db, cfg, log, checkpoints, ledger, ing, norm, attr),
		logger: logger,
	}, nil
}

func (a *app) close() {
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}
	a.logger.Sync()
}

// parseDate parses a --from/--to flag value.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("bad date %q, want YYYY-MM-DD", s)
	}
	return &d, nil
}
