package app

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/aumreport/config"
	"github.com/guttosm/aumreport/internal/api"
	"github.com/guttosm/aumreport/internal/logger"
)

// InitializeApp sets up all application dependencies and returns
// a fully configured Gin router, a cleanup function for graceful shutdown,
// and any error encountered during initialization.
//
// Responsibilities:
//   - Builds the report service from the configured tolerances.
//   - Creates the HTTP handler layer to handle requests.
//   - Configures the Gin router with all API routes.
//   - Registers health and readiness checks. Readiness follows the snapshot
//     source: a Postgres ping, or the data directory being readable.
//   - Provides a cleanup function to close resources (e.g., DB connection).
//
// Returns:
//   - *gin.Engine: the configured Gin HTTP router.
//   - func(): cleanup function to be executed on shutdown.
//   - error: any initialization error that occurred.
func InitializeApp() (*gin.Engine, func(), error) {
	// Load global configuration
	cfg := config.AppConfig
	log := logger.Named("app")

	// Readiness defaults to the data directory of the file source
	ready := dirCheck(cfg.Report.DataDir)
	cleanup := func() {}

	if cfg.Report.Source == config.SourcePostgres {
		// indirection for unit testing
		db, err := postgresOpener(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize postgres: %w", err)
		}
		ready = db.Ping
		cleanup = func() { _ = db.Close() }
	}

	// Initialize service layer (business logic)
	svc := NewReportService(cfg)

	// Initialize HTTP handler layer (business logic to HTTP mapping)
	handler := api.NewHandler(svc, cfg.Report.Currency, cfg.Report.Offsets)

	// Setup Gin router with routes
	router := api.NewRouter(handler)

	// Register health and readiness checks
	healthHandler := api.NewHealthHandler(ready)
	healthHandler.Register(router)

	log.Info().Str("source", cfg.Report.Source).Str("currency", cfg.Report.Currency).Msg("app initialized")
	return router, cleanup, nil
}

// dirCheck reports an error while dir is not an existing directory.
func dirCheck(dir string) func() error {
	return func() error {
		info, err := os.Stat(dir)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", dir)
		}
		return nil
	}
}
