package grid

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type recordingWriter struct {
	mu     sync.Mutex
	paths  []string
	sheets []Sheet
	err    error
}

func (w *recordingWriter) WriteSheet(_ context.Context, path string, sheet Sheet) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.paths = append(w.paths, path)
	w.sheets = append(w.sheets, sheet)
	return nil
}

type blockingWriter struct {
	started chan struct{}
	release chan struct{}
}

func (w *blockingWriter) WriteSheet(ctx context.Context, _ string, _ Sheet) error {
	close(w.started)
	select {
	case <-w.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var fixedNow = time.Date(2024, 5, 6, 7, 8, 9, 0, time.FixedZone("X", 3600))

func TestExportFileName(t *testing.T) {
	assert.Equal(t, "report_2024-05-06T06-08-09.xlsx", ExportFileName("report", fixedNow))
}

func TestExportColumns(t *testing.T) {
	cols := []Column{{Accessor: "a"}, {Accessor: "b"}, {Accessor: ActionsAccessor}}
	got := ExportColumns(cols, []string{"b"})
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Accessor)
}

func TestExportCell(t *testing.T) {
	day := time.Date(2023, 12, 31, 22, 0, 0, 0, time.UTC)
	rec := map[string]any{"n": 3, "s": "  ", "d": day, "x": nil}

	assert.Equal(t, 3, ExportCell(rec, Column{Accessor: "n"}))
	assert.Equal(t, "", ExportCell(rec, Column{Accessor: "s"}))
	assert.Equal(t, "", ExportCell(rec, Column{Accessor: "x"}))
	assert.Equal(t, "2023-12-31", ExportCell(rec, Column{Accessor: "d"}))

	upper := Column{Accessor: "n", ExportFormatter: func(v any, _ Record) any { return Stringify(v) + "!" }}
	assert.Equal(t, "3!", ExportCell(rec, upper))

	// formatters never see empty values
	called := false
	guarded := Column{Accessor: "x", ExportFormatter: func(any, Record) any { called = true; return "x" }}
	assert.Equal(t, "", ExportCell(rec, guarded))
	assert.False(t, called)
}

func TestBuildSheet(t *testing.T) {
	req := ExportRequest{
		Raw:       people(),
		Processed: people()[:2],
		Columns: append(peopleColumns(), Column{Accessor: ActionsAccessor, Header: "Actions"}),
		Exclude: []string{"dept"},
		Headers: map[string]string{"site.city": "Office location"},
		Title:   "Staff",
	}

	sheet, err := BuildSheet(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Staff", sheet.Name)
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, []any{"Name", "Age", "Office location"}, sheet.Rows[0])
	assert.Equal(t, []any{"Alice", 30, "Oslo"}, sheet.Rows[1])
	assert.Equal(t, []float64{10, 10, 15}, sheet.Widths)

	req.AllData = true
	sheet, err = BuildSheet(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, sheet.Rows, 5)
	assert.Equal(t, []any{"Carol", "", ""}, sheet.Rows[3])
}

func TestBuildSheetWidths(t *testing.T) {
	req := ExportRequest{
		Processed: []Record{map[string]any{"k": "a fairly long cell value"}},
		Columns:   []Column{{Accessor: "k", Header: "K"}},
	}
	sheet, err := BuildSheet(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Data", sheet.Name)
	assert.Equal(t, []float64{24}, sheet.Widths)
}

func TestBuildSheetCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := BuildSheet(ctx, ExportRequest{Processed: people(), Columns: peopleColumns()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDisplayExportParity(t *testing.T) {
	rows := people()
	empty := EmptyText{Default: "--"}
	for _, row := range rows {
		for _, col := range peopleColumns() {
			display := col.CellText(row, empty)
			exported := ExportCell(row, col)
			if IsEmpty(Resolve(row, col.Accessor)) {
				assert.Equal(t, "--", display)
				assert.Equal(t, "", exported)
				continue
			}
			assert.Equal(t, display, Stringify(exported), "column %s", col.Accessor)
		}
	}
}

func TestExporter(t *testing.T) {
	t.Run("writes and reports", func(t *testing.T) {
		w := &recordingWriter{}
		var started bool
		var completed string
		e := NewExporter(w,
			WithClock(func() time.Time { return fixedNow }),
			WithExportCallbacks(ExportCallbacks{
				OnStart:    func() { started = true },
				OnComplete: func(p string) { completed = p },
			}),
		)

		path, err := e.Export(context.Background(), ExportRequest{
			Processed: people(),
			Columns:   peopleColumns(),
			FileStem:  "staff",
			Dir:       "out",
		})
		require.NoError(t, err)
		assert.Equal(t, filepath.Join("out", "staff_2024-05-06T06-08-09.xlsx"), path)
		assert.True(t, started)
		assert.Equal(t, path, completed)
		require.Len(t, w.sheets, 1)
		assert.Len(t, w.sheets[0].Rows, 5)
		assert.False(t, e.InProgress())
	})

	t.Run("default stem", func(t *testing.T) {
		w := &recordingWriter{}
		e := NewExporter(w, WithClock(func() time.Time { return fixedNow }))
		path, err := e.Export(context.Background(), ExportRequest{Columns: peopleColumns()})
		require.NoError(t, err)
		assert.Equal(t, "export_2024-05-06T06-08-09.xlsx", path)
	})

	t.Run("failure goes to OnError", func(t *testing.T) {
		boom := errors.New("disk full")
		var got, alerted error
		e := NewExporter(&recordingWriter{err: boom},
			WithExportCallbacks(ExportCallbacks{OnError: func(err error) { got = err }}),
			WithAlert(func(err error) { alerted = err }),
		)
		_, err := e.Export(context.Background(), ExportRequest{Columns: peopleColumns()})
		require.ErrorIs(t, err, boom)
		assert.ErrorIs(t, got, boom)
		assert.NoError(t, alerted)
		assert.False(t, e.InProgress())
	})

	t.Run("failure falls back to alert", func(t *testing.T) {
		boom := errors.New("disk full")
		var alerted error
		e := NewExporter(&recordingWriter{err: boom}, WithAlert(func(err error) { alerted = err }))
		_, err := e.Export(context.Background(), ExportRequest{Columns: peopleColumns()})
		require.Error(t, err)
		assert.ErrorIs(t, alerted, boom)
	})

	t.Run("second call while running is rejected", func(t *testing.T) {
		w := &blockingWriter{started: make(chan struct{}), release: make(chan struct{})}
		starts := 0
		e := NewExporter(w, WithExportCallbacks(ExportCallbacks{OnStart: func() { starts++ }}))

		done := make(chan error, 1)
		go func() {
			_, err := e.Export(context.Background(), ExportRequest{Columns: peopleColumns()})
			done <- err
		}()
		<-w.started
		assert.True(t, e.InProgress())

		_, err := e.Export(context.Background(), ExportRequest{Columns: peopleColumns()})
		assert.ErrorIs(t, err, ErrExportInProgress)

		close(w.release)
		require.NoError(t, <-done)
		assert.Equal(t, 1, starts)
		assert.False(t, e.InProgress())
	})
}

func TestExcelWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "people.xlsx")
	sheet := Sheet{
		Name: "Staff: [2024]",
		Rows: [][]any{
			{"Name", "Age", "City"},
			{"Alice", 30, "Oslo"},
			{"Carol", "", "Lima"},
		},
		Widths: []float64{12, 10, 300},
	}
	require.NoError(t, ExcelWriter{}.WriteSheet(context.Background(), path, sheet))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Staff 2024"}, f.GetSheetList())
	rows, err := f.GetRows("Staff 2024")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Name", "Age", "City"},
		{"Alice", "30", "Oslo"},
		{"Carol", "", "Lima"},
	}, rows)

	w, err := f.GetColWidth("Staff 2024", "A")
	require.NoError(t, err)
	assert.InDelta(t, 12, w, 0.01)
	w, err = f.GetColWidth("Staff 2024", "C")
	require.NoError(t, err)
	assert.InDelta(t, 255, w, 0.01)
}

func TestCleanSheetName(t *testing.T) {
	assert.Equal(t, "Data", cleanSheetName("[]"))
	assert.Equal(t, "ab", cleanSheetName("a/b"))
	assert.Len(t, []rune(cleanSheetName("abcdefghijklmnopqrstuvwxyz0123456789")), 31)
}
