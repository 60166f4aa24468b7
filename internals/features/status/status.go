// Package status serves the read-only run status surface. It never writes:
// the endpoints project sync_state and the ledger summaries as they are.
package status

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	ledgersvc "schoolsync_backend/internals/features/ledger/service"
	syncsvc "schoolsync_backend/internals/features/syncstate/service"
	"schoolsync_backend/internals/middlewares"
)

type Server struct {
	Checkpoints *syncsvc.CheckpointStore
	Ledger      *ledgersvc.LedgerService
	Log         *zap.SugaredLogger
}

func NewServer(db *gorm.DB, log *zap.SugaredLogger) *Server {
	return &Server{
		Checkpoints: syncsvc.NewCheckpointStore(db),
		Ledger:      ledgersvc.NewLedgerService(db),
		Log:         log,
	}
}

// App builds the fiber app with the status routes mounted.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           5 * time.Second,
	})
	app.Use(middlewares.RecoveryMiddleware())
	app.Use(compress.New())
	app.Use(etag.New())
	app.Use(requestid.New())
	app.Use(middlewares.LoggerMiddleware(s.Log))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	api := app.Group("/api")
	api.Get("/sync-state", s.handleSyncState)
	api.Get("/ledger/summary", s.handleLedgerSummary)
	return app
}

func (s *Server) handleSyncState(c *fiber.Ctx) error {
	states, err := s.Checkpoints.All()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"data": states})
}

func (s *Server) handleLedgerSummary(c *fiber.Ctx) error {
	var endpoints []string
	if q := c.Query("endpoint"); q != "" {
		endpoints = append(endpoints, q)
	}
	sums, err := s.Ledger.Summaries(endpoints)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"data": sums})
}
