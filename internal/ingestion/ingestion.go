package ingestion

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/guttosm/aumreport/internal/dates"
	"github.com/guttosm/aumreport/internal/domain/models"
	"github.com/guttosm/aumreport/internal/logger"
	"github.com/guttosm/aumreport/internal/storage"
	"golang.org/x/sync/errgroup"
)

// repoCtor is an indirection for creating the repository; tests can override this.
var repoCtor = func(db *sql.DB) storage.SnapshotRepository {
	return storage.NewSnapshotRepository(db)
}

var archiveKinds = []models.Kind{models.Positions, models.Holdings, models.Channels}

// archiveItem is one snapshot file waiting to be archived.
type archiveItem struct {
	kind models.Kind
	date time.Time
	path string
}

// maxParallel caps the number of files archived at once.
const maxParallel = 7

// ProcessDirectory archives the spreadsheets of src into Postgres:
//   - the current files of DataDir, dated reportDate
//   - every "<YYYY-MM-DD>_<file>" of HistoryDir, dated by its prefix
//
// Files are parsed and archived concurrently, up to parallel at a time
// (min(7, NumCPU) when parallel <= 0, clamped to 7). Each file is its own
// (kind, date) snapshot, so the workers never touch the same archive key.
// A snapshot that is already archived is skipped unless force is set, in
// which case it is replaced. The current positions file is required; any
// other missing file or worksheet is logged and skipped. The first failure
// cancels the remaining files.
func ProcessDirectory(ctx context.Context, src *FileSource, db *sql.DB, reportDate time.Time, force bool, parallel int) error {
	repo := repoCtor(db)
	log := logger.Named("ingestion")

	items, err := collectArchiveItems(src, reportDate)
	if err != nil {
		return err
	}

	workers := maxParallel
	if parallel > 0 {
		workers = min(parallel, maxParallel)
	} else if c := runtime.NumCPU(); c < workers {
		workers = c
	}
	log.Info().Int("files", len(items)).Int("max_parallel", workers).Str("dir", src.DataDir).Str("history_dir", src.HistoryDir).Msg("ingestion start")

	var archived atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for idx, it := range items {
		idx, it := idx, it
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ok, err := archiveOne(gctx, repo, it, force)
			if err != nil {
				log.Error().Str("file", filepath.Base(it.path)).Str("kind", string(it.kind)).Err(err).Msg("file failed")
				return fmt.Errorf("file %s: %w", it.path, err)
			}
			if ok {
				archived.Add(1)
			}
			log.Debug().Int("idx", idx+1).Int("total", len(items)).Str("file", filepath.Base(it.path)).Bool("archived", ok).Msg("file handled")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	// errgroup cancels gctx only on failure; a caller cancel still has to surface
	if err := ctx.Err(); err != nil {
		return err
	}

	n := int(archived.Load())
	log.Info().Int("archived", n).Int("skipped", len(items)-n).Bool("force", force).Msg("ingestion done")
	return nil
}

// archiveOne reports whether the snapshot was written.
func archiveOne(ctx context.Context, repo storage.SnapshotRepository, it archiveItem, force bool) (bool, error) {
	start := time.Now()
	base := filepath.Base(it.path)
	day := dates.Format(it.date)
	log := logger.Named("ingestion")

	// Idempotency: skip if already archived, unless force
	exists, err := repo.HasSnapshot(ctx, it.kind, it.date)
	if err != nil {
		return false, fmt.Errorf("check ingestion log: %w", err)
	}
	if exists && !force {
		log.Info().Str("file", base).Str("kind", string(it.kind)).Str("date", day).Bool("skipped", true).Msg("already ingested")
		return false, nil
	}

	f, err := readTable(it.path, it.kind)
	if err != nil {
		if errors.Is(err, models.ErrMissingSnapshot) {
			log.Warn().Str("file", base).Str("kind", string(it.kind)).Err(err).Msg("snapshot not in file")
			return false, nil
		}
		return false, err
	}

	if err := repo.ArchiveSnapshot(ctx, it.kind, it.date, base, f); err != nil {
		return false, fmt.Errorf("archive snapshot: %w", err)
	}

	log.Info().Str("file", base).Str("kind", string(it.kind)).Str("date", day).Int("rows", f.Len()).Dur("elapsed", time.Since(start)).Bool("replaced", exists).Msg("file done")
	return true, nil
}

// collectArchiveItems lists one item per (kind, date). A history file dated
// reportDate is dropped in favour of the current file of the same kind.
func collectArchiveItems(src *FileSource, reportDate time.Time) ([]archiveItem, error) {
	var items []archiveItem

	for _, kind := range archiveKinds {
		name := src.Files[kind]
		if name == "" {
			continue
		}
		path := src.Path(kind, models.Current, reportDate)
		if _, err := os.Stat(path); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("stat failed for %s: %w", path, err)
			}
			if kind == models.Positions {
				return nil, fmt.Errorf("missing required file: %s", path)
			}
			logger.L().Warn().Str("file", path).Str("kind", string(kind)).Msg("current file not found")
			continue
		}
		items = append(items, archiveItem{kind: kind, date: reportDate, path: path})
	}

	history, err := historyItems(src)
	if err != nil {
		return nil, err
	}
	current := items
	for _, h := range history {
		if h.date.Equal(reportDate) && containsKind(current, h.kind) {
			log := logger.Named("ingestion")
			log.Debug().Str("file", h.path).Msg("superseded by the current file")
			continue
		}
		items = append(items, h)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].date.Before(items[j].date)
	})
	return items, nil
}

func containsKind(items []archiveItem, kind models.Kind) bool {
	for _, it := range items {
		if it.kind == kind {
			return true
		}
	}
	return false
}

// historyItems lists the dated files of HistoryDir that match a configured
// file name. A missing HistoryDir holds no history.
func historyItems(src *FileSource) ([]archiveItem, error) {
	if src.HistoryDir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(src.HistoryDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read history dir: %w", err)
	}

	var items []archiveItem
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		prefix, rest, ok := strings.Cut(e.Name(), "_")
		if !ok {
			continue
		}
		d, err := time.Parse(dates.Layout, prefix)
		if err != nil {
			logger.L().Debug().Str("file", e.Name()).Msg("no date prefix, ignored")
			continue
		}
		for _, kind := range archiveKinds {
			if name := src.Files[kind]; name != "" && name == rest {
				items = append(items, archiveItem{kind: kind, date: d, path: filepath.Join(src.HistoryDir, e.Name())})
			}
		}
	}
	return items, nil
}
