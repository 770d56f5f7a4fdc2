package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/guttosm/aumreport/internal/dates"
	"github.com/guttosm/aumreport/internal/present"
	"github.com/guttosm/aumreport/internal/service"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Snapshot sources.
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

// Config holds the full application configuration loaded from environment variables or .env file.
//
// Example ENV equivalent:
//
//	SERVER_PORT=8080
//	DATA_DIR=./data
//	HISTORY_DIR=./data/history
//	OUTPUT_DIR=./output
//	PORTFOLIO_FILE=portfolio.xlsx
//	CHANNEL_FILE=channels.xlsx
//	REPORT_DATE=2025-03-14
//	RECONCILE_TOLERANCE=0.10
//	SNAPSHOT_SOURCE=file
//	POSTGRES_HOST=localhost
//	POSTGRES_DB=aumreport
type Config struct {
	Server   ServerConfig   // HTTP server configuration
	Postgres PostgresConfig // PostgreSQL connection settings
	Report   ReportConfig   // report inputs and tuning
}

// ServerConfig holds HTTP server settings such as the port to listen on.
type ServerConfig struct {
	Port string // The TCP port the HTTP server will listen on (e.g., "8080")
}

// PostgresConfig defines connection details for PostgreSQL.
//
// Fields:
//   - Host: hostname of the database server.
//   - Port: port number of the database server (default 5432).
//   - User: username for authentication.
//   - Password: password for authentication.
//   - DBName: target database name.
//   - SSLMode: SSL mode (e.g., "disable", "require").
//   - URL: computed DSN used by database/sql to connect.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	URL      string
}

// ReportConfig says where snapshots are read from, where the workbook is
// written and how the sections are tuned.
type ReportConfig struct {
	DataDir       string
	HistoryDir    string
	OutputDir     string
	PortfolioFile string
	HoldingsFile  string
	ChannelFile   string

	Date     string // empty selects the last Friday
	Currency string
	Source   string // SourceFile or SourcePostgres
	Sections []string

	Tolerance           decimal.Decimal
	VolatilityThreshold decimal.Decimal
	Offsets             dates.Offsets

	IngestParallel int // files archived at once by ingest; 0 picks min(7, NumCPU)
}

// AppConfig is the globally accessible configuration instance.
//
// It is populated once via LoadConfig() and used throughout the application.
var AppConfig Config

var timeNow = time.Now

// invalid collects values that are present but unusable; it is reset by
// every LoadConfig.
var invalid []string

// LoadConfig initializes the global AppConfig by reading from .env file
// or directly from environment variables.
//
// Precedence (from lowest to highest):
//  1. Defaults set in this function.
//  2. Values from .env file (if present).
//  3. Environment variables.
//
// Fatal exit:
//   - If required variables are missing or malformed, validateConfig() will
//     terminate the app with a descriptive log message.
func LoadConfig() {
	// Default values
	viper.SetDefault("SERVER_PORT", "8080")

	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "postgres")
	viper.SetDefault("POSTGRES_PASSWORD", "postgres")
	viper.SetDefault("POSTGRES_DB", "aumreport")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")

	viper.SetDefault("DATA_DIR", "./data")
	viper.SetDefault("HISTORY_DIR", "./data/history")
	viper.SetDefault("OUTPUT_DIR", "./output")
	viper.SetDefault("PORTFOLIO_FILE", "portfolio.xlsx")
	viper.SetDefault("HOLDINGS_FILE", "")
	viper.SetDefault("CHANNEL_FILE", "channels.xlsx")
	viper.SetDefault("REPORT_DATE", "")
	viper.SetDefault("REPORT_CURRENCY", present.DefaultCurrency)
	viper.SetDefault("REPORT_SECTIONS", "")
	viper.SetDefault("SNAPSHOT_SOURCE", SourceFile)
	viper.SetDefault("RECONCILE_TOLERANCE", service.DefaultTolerance.String())
	viper.SetDefault("VOLATILITY_THRESHOLD", service.DefaultVolatilityThreshold.String())
	viper.SetDefault("WEEK_OFFSET_DAYS", dates.DefaultOffsets.WeekDays)
	viper.SetDefault("MONTH_OFFSET_DAYS", dates.DefaultOffsets.MonthDays)
	viper.SetDefault("YEAR_OFFSET_DAYS", dates.DefaultOffsets.YearDays)
	viper.SetDefault("INGEST_PARALLEL", 0)

	// Optionally read from .env if present (common in local dev)
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig() // ignore error if no .env

	// Read environment variables automatically
	viper.AutomaticEnv()

	invalid = nil

	// Populate global config instance
	AppConfig = Config{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("POSTGRES_HOST"),
			Port:     viper.GetInt("POSTGRES_PORT"),
			User:     viper.GetString("POSTGRES_USER"),
			Password: viper.GetString("POSTGRES_PASSWORD"),
			DBName:   viper.GetString("POSTGRES_DB"),
			SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
		},
		Report: ReportConfig{
			DataDir:             viper.GetString("DATA_DIR"),
			HistoryDir:          viper.GetString("HISTORY_DIR"),
			OutputDir:           viper.GetString("OUTPUT_DIR"),
			PortfolioFile:       viper.GetString("PORTFOLIO_FILE"),
			HoldingsFile:        viper.GetString("HOLDINGS_FILE"),
			ChannelFile:         viper.GetString("CHANNEL_FILE"),
			Date:                strings.TrimSpace(viper.GetString("REPORT_DATE")),
			Currency:            strings.ToUpper(viper.GetString("REPORT_CURRENCY")),
			Source:              strings.ToLower(viper.GetString("SNAPSHOT_SOURCE")),
			Sections:            ParseSections(viper.GetString("REPORT_SECTIONS")),
			Tolerance:           decimalSetting("RECONCILE_TOLERANCE"),
			VolatilityThreshold: decimalSetting("VOLATILITY_THRESHOLD"),
			Offsets: dates.Offsets{
				WeekDays:  viper.GetInt("WEEK_OFFSET_DAYS"),
				MonthDays: viper.GetInt("MONTH_OFFSET_DAYS"),
				YearDays:  viper.GetInt("YEAR_OFFSET_DAYS"),
			},
			IngestParallel: viper.GetInt("INGEST_PARALLEL"),
		},
	}
	if AppConfig.Report.HoldingsFile == "" {
		AppConfig.Report.HoldingsFile = AppConfig.Report.PortfolioFile
	}

	// Construct Postgres DSN (used by database/sql)
	AppConfig.Postgres.URL = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		AppConfig.Postgres.User,
		AppConfig.Postgres.Password,
		AppConfig.Postgres.Host,
		AppConfig.Postgres.Port,
		AppConfig.Postgres.DBName,
		AppConfig.Postgres.SSLMode,
	)

	// Validate critical fields
	validateConfig()
}

// ParseSections splits a comma separated section list. An empty list
// selects every section.
func ParseSections(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func decimalSetting(key string) decimal.Decimal {
	raw := strings.TrimSpace(viper.GetString(key))
	d, err := decimal.NewFromString(raw)
	if err != nil {
		invalid = append(invalid, fmt.Sprintf("%s=%q", key, raw))
		return decimal.Zero
	}
	return d
}

// problems lists missing and malformed settings of AppConfig.
func problems() (missing, bad []string) {
	if AppConfig.Server.Port == "" {
		missing = append(missing, "SERVER_PORT")
	}
	if AppConfig.Postgres.Host == "" {
		missing = append(missing, "POSTGRES_HOST")
	}
	if AppConfig.Postgres.Port == 0 {
		missing = append(missing, "POSTGRES_PORT")
	}
	if AppConfig.Postgres.User == "" {
		missing = append(missing, "POSTGRES_USER")
	}
	if AppConfig.Postgres.Password == "" {
		missing = append(missing, "POSTGRES_PASSWORD")
	}
	if AppConfig.Postgres.DBName == "" {
		missing = append(missing, "POSTGRES_DB")
	}
	if AppConfig.Report.DataDir == "" {
		missing = append(missing, "DATA_DIR")
	}
	if AppConfig.Report.PortfolioFile == "" {
		missing = append(missing, "PORTFOLIO_FILE")
	}

	r := AppConfig.Report
	bad = append(bad, invalid...)
	if r.Tolerance.IsNegative() {
		bad = append(bad, "RECONCILE_TOLERANCE must not be negative")
	}
	if r.VolatilityThreshold.IsNegative() {
		bad = append(bad, "VOLATILITY_THRESHOLD must not be negative")
	}
	if r.Offsets.WeekDays <= 0 || r.Offsets.MonthDays <= 0 || r.Offsets.YearDays <= 0 {
		bad = append(bad, "*_OFFSET_DAYS must be positive")
	}
	if r.IngestParallel < 0 {
		bad = append(bad, "INGEST_PARALLEL must not be negative")
	}
	if r.Source != SourceFile && r.Source != SourcePostgres {
		bad = append(bad, fmt.Sprintf("SNAPSHOT_SOURCE=%q", r.Source))
	}
	if !present.ValidCurrency(r.Currency) {
		bad = append(bad, fmt.Sprintf("REPORT_CURRENCY=%q", r.Currency))
	}
	if r.Date != "" {
		if _, err := dates.Resolve(r.Date, timeNow()); err != nil {
			bad = append(bad, fmt.Sprintf("REPORT_DATE=%q", r.Date))
		}
	}
	for _, s := range r.Sections {
		if !knownSection(s) {
			bad = append(bad, fmt.Sprintf("REPORT_SECTIONS: unknown section %q", s))
		}
	}
	return missing, bad
}

func knownSection(name string) bool {
	for _, s := range service.SectionNames {
		if s == name {
			return true
		}
	}
	return false
}

// validateConfig ensures required variables are present and well formed,
// and terminates the application if they are not.
func validateConfig() {
	missing, bad := problems()
	if len(missing) > 0 {
		log.Fatalf("missing required environment variables: %v\n", missing)
	}
	if len(bad) > 0 {
		log.Fatalf("invalid environment variables: %v\n", bad)
	}
}
