package ingestion

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/guttosm/aumreport/internal/dates"
	"github.com/guttosm/aumreport/internal/domain/models"
	"github.com/guttosm/aumreport/internal/frame"
	"github.com/guttosm/aumreport/internal/logger"
)

// Source loads one snapshot table. Implementations return an error
// wrapping models.ErrMissingSnapshot when the snapshot does not exist.
type Source interface {
	Load(ctx context.Context, kind models.Kind, period models.Period, date time.Time) (*frame.Frame, error)
}

// FileSource reads snapshots from spreadsheets: current ones from DataDir,
// historical ones from HistoryDir named "<YYYY-MM-DD>_<file>".
type FileSource struct {
	DataDir    string
	HistoryDir string
	Files      map[models.Kind]string
}

// NewFileSource returns a FileSource; positions and holdings usually share
// the portfolio workbook. An empty holdingsFile falls back to it.
func NewFileSource(dataDir, historyDir, portfolioFile, holdingsFile, channelFile string) *FileSource {
	if holdingsFile == "" {
		holdingsFile = portfolioFile
	}
	return &FileSource{
		DataDir:    dataDir,
		HistoryDir: historyDir,
		Files: map[models.Kind]string{
			models.Positions: portfolioFile,
			models.Holdings:  holdingsFile,
			models.Channels:  channelFile,
		},
	}
}

// Path returns the file a snapshot is read from.
func (s *FileSource) Path(kind models.Kind, period models.Period, date time.Time) string {
	name := s.Files[kind]
	if period == models.Current {
		return filepath.Join(s.DataDir, name)
	}
	return filepath.Join(s.HistoryDir, dates.Format(date)+"_"+name)
}

func (s *FileSource) Load(ctx context.Context, kind models.Kind, period models.Period, date time.Time) (*frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Files[kind] == "" {
		return nil, fmt.Errorf("no file configured for %s: %w", kind, models.ErrMissingSnapshot)
	}
	path := s.Path(kind, period, date)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, models.ErrMissingSnapshot)
		}
		return nil, fmt.Errorf("stat failed for %s: %w", path, err)
	}
	return readTable(path, kind)
}

func readTable(path string, kind models.Kind) (*frame.Frame, error) {
	var (
		f   *frame.Frame
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		f, err = ReadCSVFile(path)
	case ".xlsx", ".xlsm":
		f, err = ReadWorkbookFile(path, kind)
	default:
		return nil, fmt.Errorf("%s: unsupported file type", path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// BuildContext loads the current dataset and the three historical datasets
// into a ReportContext. The current positions are required; every other
// snapshot that is missing or unreadable is left nil and reported in the
// returned warnings. Current snapshots are cleaned and restricted to the
// rows of the report date. Historical snapshots are taken whole, since an
// export is stamped with its own report day rather than the offset date;
// an empty one counts as missing.
func BuildContext(ctx context.Context, src Source, reportDate time.Time, offsets dates.Offsets) (models.ReportContext, []string, error) {
	rc := models.ReportContext{
		ReportDate: reportDate,
		History:    map[models.Period]models.Dataset{},
	}
	var warnings []string

	current, w, err := loadDataset(ctx, src, models.Current, reportDate)
	warnings = append(warnings, w...)
	if err != nil {
		return rc, warnings, err
	}
	if current.Positions == nil {
		return rc, warnings, fmt.Errorf("current positions for %s: %w", dates.Format(reportDate), models.ErrMissingSnapshot)
	}
	for _, k := range []models.Kind{models.Positions, models.Holdings, models.Channels} {
		if s := current.Get(k); s != nil {
			s.Data = Clean(k, s.Data)
		}
	}
	rc.Current = current

	periodDates := dates.PeriodDates(reportDate, offsets)
	for _, p := range models.HistoricalPeriods {
		ds, w, err := loadDataset(ctx, src, p, periodDates[p])
		warnings = append(warnings, w...)
		if err != nil {
			return rc, warnings, err
		}
		rc.History[p] = ds
	}
	return rc, warnings, nil
}

func loadDataset(ctx context.Context, src Source, period models.Period, date time.Time) (models.Dataset, []string, error) {
	ds := models.Dataset{Date: date}
	var warnings []string
	for _, kind := range []models.Kind{models.Positions, models.Holdings, models.Channels} {
		f, err := src.Load(ctx, kind, period, date)
		if err != nil {
			if ctx.Err() != nil {
				return ds, warnings, ctx.Err()
			}
			ev := logger.L().Warn().Str("period", string(period)).Str("kind", string(kind)).Str("date", dates.Format(date))
			if errors.Is(err, models.ErrMissingSnapshot) {
				ev.Msg("snapshot not found")
				warnings = append(warnings, fmt.Sprintf("%s %s snapshot (%s) not found", period, kind, dates.Format(date)))
			} else {
				ev.Err(err).Msg("snapshot unreadable")
				warnings = append(warnings, fmt.Sprintf("%s %s snapshot (%s) unreadable: %v", period, kind, dates.Format(date), err))
			}
			continue
		}
		if period == models.Current {
			filtered := FilterDate(f, date)
			if f.Len() > 0 && filtered.Len() == 0 {
				warnings = append(warnings, fmt.Sprintf("%s %s snapshot has no rows dated %s", period, kind, dates.Format(date)))
			}
			f = filtered
		} else if f.Len() == 0 {
			logger.L().Warn().Str("period", string(period)).Str("kind", string(kind)).Str("date", dates.Format(date)).Msg("snapshot empty")
			warnings = append(warnings, fmt.Sprintf("%s %s snapshot (%s) is empty", period, kind, dates.Format(date)))
			continue
		}
		snap := &models.Snapshot{Kind: kind, Period: period, Date: date, Data: f}
		switch kind {
		case models.Positions:
			ds.Positions = snap
		case models.Holdings:
			ds.Holdings = snap
		case models.Channels:
			ds.Channels = snap
		}
	}
	return ds, warnings, nil
}
