package storage

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/guttosm/aumreport/internal/domain/models"
	"github.com/guttosm/aumreport/internal/frame"
	"github.com/shopspring/decimal"
)

type dummyErr struct{}

func (dummyErr) Error() string { return "dummy" }

func newMockRepo(t *testing.T) (*snapshotRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	repo := &snapshotRepository{db: db}
	cleanup := func() { _ = db.Close() }
	return repo, mock, cleanup
}

var testCols = []frame.Column{
	{Name: "code", Kind: frame.Text},
	{Name: "scale", Kind: frame.Currency},
}

const testColsJSON = `[{"name":"code","kind":0},{"name":"scale","kind":2}]`

func oneRowFrame(t *testing.T) *frame.Frame {
	t.Helper()
	f := frame.New(testCols...)
	if err := f.Append(frame.Str("P1"), frame.Num(decimal.RequireFromString("1234.50"))); err != nil {
		t.Fatalf("append: %v", err)
	}
	return f
}

func TestNewSnapshotRepository_Construct(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer func() { _ = db.Close() }()
	if r := NewSnapshotRepository(db); r == nil {
		t.Fatalf("expected non-nil repository")
	}
}

func TestHasSnapshot_SQLMock(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()
	d := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM ingestion_log WHERE snapshot_date = $1 AND kind = $2)")).
		WithArgs(d, "positions").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	ok, err := repo.HasSnapshot(context.Background(), models.Positions, d)
	if err != nil || !ok {
		t.Fatalf("HasSnapshot: ok=%v err=%v", ok, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLoad_SQLMock(t *testing.T) {
	d := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)
	columnsQuery := regexp.QuoteMeta("SELECT columns FROM ingestion_log WHERE snapshot_date = $1 AND kind = $2")
	rowsQuery := regexp.QuoteMeta("SELECT cells FROM snapshot_rows WHERE snapshot_date = $1 AND kind = $2 ORDER BY row_no")

	cases := []struct {
		name        string
		setup       func(mock sqlmock.Sqlmock)
		wantMissing bool
		wantErr     bool
		wantRows    int
	}{
		{
			name: "archived snapshot",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(columnsQuery).WithArgs(d, "positions").
					WillReturnRows(sqlmock.NewRows([]string{"columns"}).AddRow(testColsJSON))
				mock.ExpectQuery(rowsQuery).WithArgs(d, "positions").
					WillReturnRows(sqlmock.NewRows([]string{"cells"}).
						AddRow(`["P1","100.5"]`).
						AddRow(`["P2",null]`))
			},
			wantRows: 2,
		},
		{
			name: "never archived",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(columnsQuery).WithArgs(d, "positions").
					WillReturnRows(sqlmock.NewRows([]string{"columns"}))
			},
			wantMissing: true,
		},
		{
			name: "corrupt row",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(columnsQuery).WithArgs(d, "positions").
					WillReturnRows(sqlmock.NewRows([]string{"columns"}).AddRow(testColsJSON))
				mock.ExpectQuery(rowsQuery).WithArgs(d, "positions").
					WillReturnRows(sqlmock.NewRows([]string{"cells"}).AddRow(`["P1","abc"]`))
			},
			wantErr: true,
		},
		{
			name: "query error",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(columnsQuery).WithArgs(d, "positions").WillReturnError(dummyErr{})
			},
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock, done := newMockRepo(t)
			defer done()
			tc.setup(mock)

			f, err := repo.Load(context.Background(), models.Positions, models.LastWeek, d)
			switch {
			case tc.wantMissing:
				if !errors.Is(err, models.ErrMissingSnapshot) {
					t.Fatalf("want ErrMissingSnapshot, got %v", err)
				}
			case tc.wantErr:
				if err == nil {
					t.Fatalf("expected error")
				}
			default:
				if err != nil {
					t.Fatalf("unexpected err: %v", err)
				}
				if f.Len() != tc.wantRows {
					t.Fatalf("rows: want %d got %d", tc.wantRows, f.Len())
				}
				if c, _ := f.Column("scale"); c.Kind != frame.Currency {
					t.Fatalf("column kind lost: %v", c.Kind)
				}
				if !f.Cell(0, "scale").Num.Equal(decimal.RequireFromString("100.5")) || f.Cell(1, "scale").Valid {
					t.Fatalf("unexpected cells")
				}
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("unmet expectations: %v", err)
			}
		})
	}
}

func TestArchiveSnapshot_SQLMock(t *testing.T) {
	d := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	setLocal := regexp.QuoteMeta("SET LOCAL synchronous_commit = OFF")
	clearRows := regexp.QuoteMeta("DELETE FROM snapshot_rows WHERE snapshot_date = $1 AND kind = $2")
	upsertLog := `INSERT INTO ingestion_log \(snapshot_date, kind, source, columns, row_count\)`

	// copyOK expects the COPY statement, one exec per row and the final flush.
	// pq.CopyIn cannot be intercepted precisely, so any prepared statement matches.
	copyOK := func(mock sqlmock.Sqlmock) {
		prep := mock.ExpectPrepare(".*")
		prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(".*").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	cases := []struct {
		name    string
		expect  func(mock sqlmock.Sqlmock)
		wantErr string
	}{
		{
			name: "rows and log committed together",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(setLocal).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec(clearRows).WithArgs(d, "positions").WillReturnResult(sqlmock.NewResult(0, 2))
				copyOK(mock)
				mock.ExpectExec(upsertLog).
					WithArgs(d, "positions", "portfolio.xlsx", testColsJSON, 1).
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectCommit()
			},
		},
		{
			name:    "begin fails",
			expect:  func(mock sqlmock.Sqlmock) { mock.ExpectBegin().WillReturnError(dummyErr{}) },
			wantErr: "dummy",
		},
		{
			name: "clearing old rows fails",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(setLocal).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec(clearRows).WillReturnError(dummyErr{})
				mock.ExpectRollback()
			},
			wantErr: "clear rows",
		},
		{
			name: "row copy fails",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(setLocal).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec(clearRows).WillReturnResult(sqlmock.NewResult(0, 0))
				prep := mock.ExpectPrepare(".*")
				prep.ExpectExec().WillReturnError(dummyErr{})
				mock.ExpectRollback()
			},
			wantErr: "dummy",
		},
		{
			name: "copy flush fails",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(setLocal).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec(clearRows).WillReturnResult(sqlmock.NewResult(0, 0))
				prep := mock.ExpectPrepare(".*")
				prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(".*").WillReturnError(dummyErr{})
				mock.ExpectRollback()
			},
			wantErr: "dummy",
		},
		{
			// the copied rows must not outlive a failed log write
			name: "log upsert fails after the copy",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(setLocal).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec(clearRows).WillReturnResult(sqlmock.NewResult(0, 0))
				copyOK(mock)
				mock.ExpectExec(upsertLog).WillReturnError(dummyErr{})
				mock.ExpectRollback()
			},
			wantErr: "upsert ingestion log",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock, done := newMockRepo(t)
			defer done()
			tc.expect(mock)

			err := repo.ArchiveSnapshot(context.Background(), models.Positions, d, "portfolio.xlsx", oneRowFrame(t))
			if tc.wantErr == "" && err != nil {
				t.Fatalf("ArchiveSnapshot: %v", err)
			}
			if tc.wantErr != "" && (err == nil || !strings.Contains(err.Error(), tc.wantErr)) {
				t.Fatalf("want error containing %q, got %v", tc.wantErr, err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("unmet expectations: %v", err)
			}
		})
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	f := oneRowFrame(t)
	_ = f.Append(frame.Null, frame.Null)
	for i := 0; i < f.Len(); i++ {
		raw, err := encodeRow(f, i)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		cells, err := decodeRow(testCols, raw)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		for j, c := range testCols {
			want := f.Cell(i, c.Name)
			if cells[j].Valid != want.Valid || cells[j].Str != want.Str || !cells[j].Num.Equal(want.Num) {
				t.Fatalf("row %d col %s: want %+v got %+v", i, c.Name, want, cells[j])
			}
		}
	}
	if _, err := decodeRow(testCols, []byte(`["only one"]`)); err == nil {
		t.Fatalf("want error on cell count mismatch")
	}
}
