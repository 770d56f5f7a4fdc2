package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/guttosm/aumreport/config"
	"github.com/guttosm/aumreport/internal/dates"
	"github.com/guttosm/aumreport/internal/ingestion"
	"github.com/guttosm/aumreport/internal/logger"
	"github.com/guttosm/aumreport/internal/present"
	"github.com/guttosm/aumreport/internal/service"
	"github.com/guttosm/aumreport/internal/storage"
)

// ErrNoSections is returned by RunReport when every requested section
// failed. The workbook is still written so that the failures can be read.
var ErrNoSections = errors.New("no report section succeeded")

// migrator is an indirection for unit testing; defaults to storage.Migrate.
var migrator = storage.Migrate

// NewReportService builds the report service from the configured
// tolerance and volatility threshold.
func NewReportService(cfg config.Config) service.ReportService {
	return service.NewReportService(service.Options{
		Tolerance:           cfg.Report.Tolerance,
		VolatilityThreshold: cfg.Report.VolatilityThreshold,
	})
}

// NewFileSource returns the spreadsheet source described by cfg.
func NewFileSource(cfg config.Config) *ingestion.FileSource {
	r := cfg.Report
	return ingestion.NewFileSource(r.DataDir, r.HistoryDir, r.PortfolioFile, r.HoldingsFile, r.ChannelFile)
}

// OpenSource returns the configured snapshot source and a func releasing
// it. The Postgres source serves the snapshots archived by Ingest.
func OpenSource(cfg config.Config) (ingestion.Source, func(), error) {
	switch cfg.Report.Source {
	case config.SourcePostgres:
		db, err := postgresOpener(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize postgres: %w", err)
		}
		return storage.NewSnapshotRepository(db), func() { _ = db.Close() }, nil
	case config.SourceFile, "":
		return NewFileSource(cfg), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown snapshot source %q", cfg.Report.Source)
	}
}

// RunReport loads the snapshots of the report date (REPORT_DATE, or the
// last Friday before now), computes the configured sections and writes the
// report workbook. It returns the workbook path along with the report.
func RunReport(ctx context.Context, cfg config.Config, now time.Time) (string, *service.Report, error) {
	log := logger.Named("report")
	start := time.Now()

	reportDate, err := dates.Resolve(cfg.Report.Date, now)
	if err != nil {
		return "", nil, err
	}

	src, release, err := OpenSource(cfg)
	if err != nil {
		return "", nil, err
	}
	defer release()

	rc, warnings, err := ingestion.BuildContext(ctx, src, reportDate, cfg.Report.Offsets)
	if err != nil {
		return "", nil, fmt.Errorf("load snapshots: %w", err)
	}

	report := NewReportService(cfg).Run(ctx, rc, cfg.Report.Sections)
	report.Warnings = append(report.Warnings, warnings...)

	path, err := present.WriteWorkbook(cfg.Report.OutputDir, report, cfg.Report.Currency)
	if err != nil {
		return "", report, fmt.Errorf("write workbook: %w", err)
	}

	log.Info().
		Str("date", dates.Format(reportDate)).
		Str("path", path).
		Int("sections", len(report.Sections)).
		Int("failures", len(report.Failures)).
		Int("warnings", len(report.Warnings)).
		Dur("elapsed", time.Since(start)).
		Msg("report written")

	if len(report.Sections) == 0 {
		return path, report, ErrNoSections
	}
	return path, report, nil
}

// Ingest archives the spreadsheets of the configured directories into
// Postgres, applying pending migrations first. Snapshots already archived
// are kept unless force is set.
func Ingest(ctx context.Context, cfg config.Config, now time.Time, force bool) error {
	reportDate, err := dates.Resolve(cfg.Report.Date, now)
	if err != nil {
		return err
	}

	db, err := postgresOpener(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize postgres: %w", err)
	}
	defer func(db *sql.DB) { _ = db.Close() }(db)

	if err := migrator(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return ingestion.ProcessDirectory(ctx, NewFileSource(cfg), db, reportDate, force, cfg.Report.IngestParallel)
}
