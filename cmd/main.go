package main

//
//  @title           aumreport API
//  @version         1.0
//  @description     Weekly fund position report: scale, product detail and channel reconciliation.
//  @termsOfService  https://github.com/guttosm/aumreport
//  @contact.name    API Support
//  @contact.url     https://github.com/guttosm/aumreport
//  @contact.email   support@example.com
//  @license.name    MIT
//  @license.url     https://opensource.org/licenses/MIT
//  @host            localhost:8080
//  @BasePath        /
//  @schemes         http
//
//  @tag.name        reports
//  @tag.description Report sections computed over posted snapshots
//
//  @tag.name        reconcile
//  @tag.description Channel figures checked against the book of record
//
//  @tag.name        health
//  @tag.description Liveness and readiness checks

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guttosm/aumreport/config"
	_ "github.com/guttosm/aumreport/docs" // swagger docs
	"github.com/guttosm/aumreport/internal/app"
	"github.com/guttosm/aumreport/internal/logger"
)

// startServer initializes and starts the HTTP server in a separate goroutine.
//
// Parameters:
//   - router (http.Handler): The HTTP router (Gin Engine) configured with all routes.
//   - port (string): The port where the server will listen for incoming requests.
//
// Returns:
//   - *http.Server: The initialized HTTP server instance.
func startServer(router http.Handler, port string) *http.Server {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.L().Info().Str("port", port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal().Err(err).Msg("server failed to start")
		}
	}()

	return server
}

// gracefulShutdown gracefully terminates the HTTP server and cleans up resources
// when an OS interrupt signal (SIGINT, SIGTERM) is received.
//
// Parameters:
//   - ctx (context.Context): A context with timeout for graceful shutdown.
//   - server (*http.Server): The HTTP server instance to shut down.
//   - cleanup (func()): Cleanup callback to release resources (e.g., DB connections).
func gracefulShutdown(ctx context.Context, server *http.Server, cleanup func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	logger.L().Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Fatal().Err(err).Msg("server forced to shutdown")
	}

	cleanup()
	logger.L().Info().Msg("server exited gracefully")
}

// runReport loads the snapshots, computes the report sections and writes
// the workbook. It returns the process exit code: 0 when at least one
// section succeeded.
func runReport(ctx context.Context, cfg config.Config) int {
	path, report, err := app.RunReport(ctx, cfg, time.Now())
	switch {
	case errors.Is(err, app.ErrNoSections):
		logger.L().Error().Str("path", path).Int("failures", len(report.Failures)).Msg("every report section failed")
		return 1
	case err != nil:
		logger.L().Error().Err(err).Msg("report failed")
		return 1
	}
	for _, f := range report.Failures {
		logger.L().Warn().Str("section", f.Section).Err(f.Cause).Msg("section left out of the report")
	}
	logger.L().Info().Str("path", path).Int("sections", len(report.Sections)).Msg("report completed successfully")
	return 0
}

// main is the entry point of the aumreport application.
//
// Modes (selected via --mode flag):
//   - report: Loads the current and historical snapshots, computes every
//     configured section and writes report_<date>.xlsx to OUTPUT_DIR.
//   - ingest: Archives the spreadsheets of DATA_DIR and HISTORY_DIR into Postgres.
//   - api:    Starts the REST API computing sections over posted snapshots.
//
// Flags:
//   - --mode:     Execution mode ("report", "ingest" or "api"). Default: "report".
//   - --date:     Report date (YYYY-MM-DD). Defaults to REPORT_DATE, else the last Friday.
//   - --sections: Comma separated sections to compute. Defaults to REPORT_SECTIONS, else all.
//   - --force:    Re-archive snapshots already ingested (ingest mode).
//   - --port:     Port for the API server. Defaults to value from config (SERVER_PORT).
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration from environment or .env file
	config.LoadConfig()

	// Initialize JSON logger
	logger.Init()

	// Parse CLI flags (override config defaults if provided)
	mode := flag.String("mode", "report", "Mode: report, ingest or api")
	date := flag.String("date", config.AppConfig.Report.Date, "Report date YYYY-MM-DD (default: last Friday)")
	sections := flag.String("sections", "", "Comma separated report sections (default: REPORT_SECTIONS or all)")
	force := flag.Bool("force", false, "Re-archive snapshots already ingested (replaces the archived rows)")
	port := flag.String("port", config.AppConfig.Server.Port, "Port for API mode")
	flag.Parse()

	cfg := config.AppConfig
	cfg.Report.Date = *date
	if *sections != "" {
		cfg.Report.Sections = config.ParseSections(*sections)
	}

	switch *mode {
	case "report":
		logger.L().Info().Str("date", cfg.Report.Date).Str("source", cfg.Report.Source).Msg("running report")
		code := runReport(ctx, cfg)
		stop()
		os.Exit(code)

	case "ingest":
		// Ingestion mode: archive spreadsheets into Postgres
		logger.L().Info().Bool("force", *force).Msg("running ingestion")
		if err := app.Ingest(ctx, cfg, time.Now(), *force); err != nil {
			logger.L().Fatal().Err(err).Msg("ingestion failed")
		}
		logger.L().Info().Msg("ingestion completed successfully")

	case "api":
		// API mode: start the HTTP server
		logger.L().Info().Msg("starting API server")

		router, cleanup, err := app.InitializeApp()
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}

		server := startServer(router, *port)
		gracefulShutdown(context.Background(), server, cleanup)

	default:
		logger.L().Fatal().Str("mode", *mode).Msg("unknown mode")
	}
}
