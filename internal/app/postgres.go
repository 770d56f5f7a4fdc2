package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/guttosm/aumreport/config"
	"github.com/guttosm/aumreport/internal/logger"

	_ "github.com/lib/pq" // PostgreSQL driver for database/sql
)

// pingTimeout bounds the connectivity check of InitPostgres.
const pingTimeout = 5 * time.Second

// sqlOpener is an indirection for unit testing; defaults to sql.Open
var sqlOpener = sql.Open

// postgresDSN renders cfg.Postgres as a postgres:// URL. Credentials are
// escaped, so passwords may carry reserved characters.
func postgresDSN(cfg config.PostgresConfig) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Path:     "/" + cfg.DBName,
		RawQuery: url.Values{"sslmode": {cfg.SSLMode}}.Encode(),
	}
	return u.String()
}

// InitPostgres opens the snapshot archive described by cfg.Postgres and
// pings it. The handle is closed again when the ping fails.
//
// The archive is read by one report run or one API process at a time, so
// the pool is kept small.
func InitPostgres(cfg config.Config) (*sql.DB, error) {
	db, err := sqlOpener("postgres", postgresDSN(cfg.Postgres))
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	log := logger.Named("postgres")
	log.Debug().
		Str("host", cfg.Postgres.Host).
		Int("port", cfg.Postgres.Port).
		Str("db", cfg.Postgres.DBName).
		Msg("connected")
	return db, nil
}

// postgresOpener is an indirection used by InitializeApp, OpenSource and
// Ingest; overridden in tests to avoid real connections.
var postgresOpener = InitPostgres
