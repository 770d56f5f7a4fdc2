package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/guttosm/aumreport/internal/domain/models"
	"github.com/guttosm/aumreport/internal/frame"
	pq "github.com/lib/pq"
)

// SnapshotRepository archives dated snapshot tables and serves them back
// to report runs.
type SnapshotRepository interface {
	HasSnapshot(ctx context.Context, kind models.Kind, date time.Time) (bool, error)
	ArchiveSnapshot(ctx context.Context, kind models.Kind, date time.Time, source string, f *frame.Frame) error
	Load(ctx context.Context, kind models.Kind, period models.Period, date time.Time) (*frame.Frame, error)
}

type snapshotRepository struct {
	db *sql.DB
}

func NewSnapshotRepository(db *sql.DB) SnapshotRepository {
	return &snapshotRepository{db: db}
}

// HasSnapshot checks if a snapshot of kind was already archived for date.
func (r *snapshotRepository) HasSnapshot(ctx context.Context, kind models.Kind, date time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM ingestion_log WHERE snapshot_date = $1 AND kind = $2)`,
		date, string(kind)).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// ArchiveSnapshot stores f as the snapshot of kind for date, replacing any
// rows already stored under that key, and records it in ingestion_log.
// Everything happens in one transaction: the rows and their log entry are
// committed together or not at all.
func (r *snapshotRepository) ArchiveSnapshot(ctx context.Context, kind models.Kind, date time.Time, source string, f *frame.Frame) error {
	cols, err := json.Marshal(f.Columns())
	if err != nil {
		return fmt.Errorf("encode columns: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	// Small optimization for bulk load
	if _, err := tx.ExecContext(ctx, `SET LOCAL synchronous_commit = OFF`); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot_rows WHERE snapshot_date = $1 AND kind = $2`, date, string(kind)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear rows: %w", err)
	}
	if err := copyRows(ctx, tx, kind, date, f); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO ingestion_log (snapshot_date, kind, source, columns, row_count)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (snapshot_date, kind)
		DO UPDATE SET source = EXCLUDED.source,
					  columns = EXCLUDED.columns,
					  row_count = EXCLUDED.row_count,
					  ingested_at = NOW()
	`, date, string(kind), source, string(cols), f.Len()); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("upsert ingestion log: %w", err)
	}
	return tx.Commit()
}

// copyRows bulk-loads every row of f through COPY.
func copyRows(ctx context.Context, tx *sql.Tx, kind models.Kind, date time.Time, f *frame.Frame) error {
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(
		"snapshot_rows",
		"snapshot_date",
		"kind",
		"row_no",
		"cells",
	))
	if err != nil {
		return err
	}

	for i := 0; i < f.Len(); i++ {
		cells, err := encodeRow(f, i)
		if err != nil {
			_ = stmt.Close()
			return fmt.Errorf("encode row %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, date, string(kind), i, string(cells)); err != nil {
			_ = stmt.Close()
			return err
		}
	}

	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		return err
	}
	return stmt.Close()
}

// Load rebuilds an archived snapshot. The period is irrelevant to the
// archive; a snapshot never archived is models.ErrMissingSnapshot.
func (r *snapshotRepository) Load(ctx context.Context, kind models.Kind, _ models.Period, date time.Time) (*frame.Frame, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		`SELECT columns FROM ingestion_log WHERE snapshot_date = $1 AND kind = $2`,
		date, string(kind)).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%s %s: %w", kind, date.Format("2006-01-02"), models.ErrMissingSnapshot)
	}
	if err != nil {
		return nil, err
	}
	var cols []frame.Column
	if err := json.Unmarshal([]byte(raw), &cols); err != nil {
		return nil, fmt.Errorf("decode columns: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT cells FROM snapshot_rows WHERE snapshot_date = $1 AND kind = $2 ORDER BY row_no`,
		date, string(kind))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := frame.New(cols...)
	for rows.Next() {
		var cells string
		if err := rows.Scan(&cells); err != nil {
			return nil, err
		}
		row, err := decodeRow(cols, []byte(cells))
		if err != nil {
			return nil, err
		}
		if err := out.Append(row...); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
