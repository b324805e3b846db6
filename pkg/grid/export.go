package grid

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
)

// ErrExportInProgress is returned when Export is called while another export
// on the same Exporter has not finished. The call does nothing else.
var ErrExportInProgress = errors.New("export already in progress")

const (
	defaultSheetName = "Data"
	defaultFileStem  = "export"
	minColumnWidth   = 10
)

// Sheet is a single worksheet: a header row followed by data rows, plus a
// width per column.
type Sheet struct {
	Name   string
	Rows   [][]any
	Widths []float64
}

// SheetWriter persists a sheet to path. It is the only I/O the engine does.
type SheetWriter interface {
	WriteSheet(ctx context.Context, path string, sheet Sheet) error
}

// ExportRequest selects what gets exported and how it is labelled.
type ExportRequest struct {
	// Raw is the unprocessed collection; Processed is the searched, filtered
	// and sorted one. AllData picks Raw.
	Raw       []Record
	Processed []Record
	AllData   bool

	Columns []Column
	// Exclude lists accessors left out of the export.
	Exclude []string
	// Headers overrides export headers by accessor.
	Headers map[string]string

	FileStem  string
	SheetName string
	Title     string
	// Dir is where the file is written; empty means the working directory.
	Dir string
}

// ExportCallbacks observe an export run. OnError receives failures; when it
// is nil the Exporter's alert hook does.
type ExportCallbacks struct {
	OnStart    func()
	OnComplete func(path string)
	OnError    func(err error)
}

// Exporter serializes datasets to spreadsheet files, one at a time.
type Exporter struct {
	writer    SheetWriter
	callbacks ExportCallbacks
	alert     func(error)
	now       func() time.Time
	log       logr.Logger

	inFlight atomic.Bool
}

// ExporterOption configures an Exporter.
type ExporterOption func(*Exporter)

// WithExportCallbacks sets the run callbacks.
func WithExportCallbacks(cb ExportCallbacks) ExporterOption {
	return func(e *Exporter) {
		e.callbacks = cb
	}
}

// WithAlert sets the hook that reports failures when no OnError callback
// is configured.
func WithAlert(fn func(error)) ExporterOption {
	return func(e *Exporter) {
		e.alert = fn
	}
}

// WithClock overrides the time source used for file names.
func WithClock(now func() time.Time) ExporterOption {
	return func(e *Exporter) {
		e.now = now
	}
}

// WithExportLogger sets the logger.
func WithExportLogger(lgr logr.Logger) ExporterOption {
	return func(e *Exporter) {
		e.log = lgr
	}
}

// NewExporter creates an Exporter writing through w. A nil writer means
// ExcelWriter.
func NewExporter(w SheetWriter, opts ...ExporterOption) *Exporter {
	if w == nil {
		w = ExcelWriter{}
	}
	e := &Exporter{
		writer: w,
		now:    time.Now,
		log:    logr.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// InProgress reports whether an export is running, so triggers can be
// disabled.
func (e *Exporter) InProgress() bool {
	return e.inFlight.Load()
}

// Export builds the sheet for req and writes it, returning the file path.
// Failures are reported through OnError (or the alert hook) and returned.
func (e *Exporter) Export(ctx context.Context, req ExportRequest) (string, error) {
	if !e.inFlight.CompareAndSwap(false, true) {
		return "", ErrExportInProgress
	}
	defer e.inFlight.Store(false)

	runID := uuid.NewString()
	lgr := e.log.WithValues("export_id", runID)
	if e.callbacks.OnStart != nil {
		e.callbacks.OnStart()
	}

	path, err := e.run(ctx, req)
	if err != nil {
		lgr.Error(err, "export failed")
		switch {
		case e.callbacks.OnError != nil:
			e.callbacks.OnError(err)
		case e.alert != nil:
			e.alert(err)
		}
		return "", err
	}

	lgr.V(1).Info("export written", "path", path)
	if e.callbacks.OnComplete != nil {
		e.callbacks.OnComplete(path)
	}
	return path, nil
}

func (e *Exporter) run(ctx context.Context, req ExportRequest) (string, error) {
	sheet, err := BuildSheet(ctx, req)
	if err != nil {
		return "", err
	}
	stem := req.FileStem
	if stem == "" {
		stem = defaultFileStem
	}
	path := filepath.Join(req.Dir, ExportFileName(stem, e.now()))
	if err := e.writer.WriteSheet(ctx, path, sheet); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// ExportFileName returns "{stem}_{YYYY-MM-DDTHH-mm-ss}.xlsx" for t in UTC.
func ExportFileName(stem string, t time.Time) string {
	return stem + "_" + t.UTC().Format("2006-01-02T15-04-05") + ".xlsx"
}

// ExportColumns drops the actions column and excluded accessors.
func ExportColumns(columns []Column, exclude []string) []Column {
	skip := make(map[string]bool, len(exclude))
	for _, acc := range exclude {
		skip[acc] = true
	}
	out := make([]Column, 0, len(columns))
	for _, col := range columns {
		if col.Accessor == ActionsAccessor || skip[col.Accessor] {
			continue
		}
		out = append(out, col)
	}
	return out
}

// ExportCell returns the exported value of one cell: "" for empty values,
// the column formatter's result if set, a date-only string for times, else
// the raw value.
func ExportCell(record Record, col Column) any {
	v := Resolve(record, col.Accessor)
	if IsEmpty(v) {
		return ""
	}
	if col.ExportFormatter != nil {
		return col.ExportFormatter(v, record)
	}
	if t, ok := v.(time.Time); ok {
		return t.UTC().Format("2006-01-02")
	}
	return v
}

// BuildSheet assembles the header row, data rows and column widths.
func BuildSheet(ctx context.Context, req ExportRequest) (Sheet, error) {
	cols := ExportColumns(req.Columns, req.Exclude)
	rows := req.Processed
	if req.AllData {
		rows = req.Raw
	}

	header := make([]any, len(cols))
	widths := make([]float64, len(cols))
	for i, col := range cols {
		h := col.Label()
		if o, ok := req.Headers[col.Accessor]; ok && o != "" {
			h = o
		}
		header[i] = h
		widths[i] = float64(max(utf8.RuneCountInString(h), minColumnWidth))
	}

	out := make([][]any, 0, len(rows)+1)
	out = append(out, header)
	for _, rec := range rows {
		if err := ctx.Err(); err != nil {
			return Sheet{}, err
		}
		line := make([]any, len(cols))
		for i, col := range cols {
			cell := ExportCell(rec, col)
			line[i] = cell
			if n := float64(utf8.RuneCountInString(Stringify(cell))); n > widths[i] {
				widths[i] = n
			}
		}
		out = append(out, line)
	}

	return Sheet{Name: sheetName(req), Rows: out, Widths: widths}, nil
}

func sheetName(req ExportRequest) string {
	switch {
	case req.SheetName != "":
		return req.SheetName
	case req.Title != "":
		return req.Title
	default:
		return defaultSheetName
	}
}
