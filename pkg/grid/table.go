package grid

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/go-logr/logr"
)

// Table holds the state of one data table: the raw rows, the search term,
// the filter and sort state and the current page. Derived collections are
// recomputed from that state on every View call. A Table is not safe for
// concurrent use apart from Export, which guards itself.
type Table struct {
	cfg     Config
	empty   EmptyText
	sorter  *Sorter
	columns []Column

	data    []Record
	search  string
	filters Filters
	sort    SortState
	page    int
	perPage int
	loading bool

	dispatcher *Dispatcher
	exporter   *Exporter

	log    logr.Logger
	writer SheetWriter
	alert  func(error)
	now    func() time.Time
}

// View is the derived output of the pipeline for the current state.
type View struct {
	Searched []Record
	Filtered []Record
	Sorted   []Record
	Rows     []Record

	Page       int
	PerPage    int
	TotalPages int
	Window     []PageLink
	// ShowPagination is false when every row fits on one page.
	ShowPagination bool

	// From and To are the 1-based positions of the first and last visible
	// row; both are 0 when nothing is visible.
	From, To, Total int

	// EmptyMessage is set when the visible page has no rows.
	EmptyMessage string
}

// New validates cfg and builds a Table.
func New(cfg Config, opts ...Option) (*Table, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	t := &Table{
		cfg:     cfg,
		empty:   cfg.emptyText(),
		sorter:  NewSorter(cfg.Locale),
		data:    cfg.Data,
		filters: Filters{},
		sort:    SortState{Field: cfg.DefaultSortField, Direction: cfg.DefaultSortDirection},
		page:    1,
		perPage: cfg.DefaultItemsPerPage,
		loading: cfg.Loading,
		log:     logr.Discard(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}

	t.columns = slices.Clone(cfg.Columns)
	if len(cfg.Actions) > 0 && !slices.ContainsFunc(t.columns, func(c Column) bool { return c.Accessor == ActionsAccessor }) {
		t.columns = append(t.columns, Column{
			Accessor: ActionsAccessor,
			Header:   "Actions",
			Sortable: Bool(false),
			Width:    cfg.ActionsColumnWidth,
		})
	}

	t.dispatcher = NewDispatcher(cfg.Actions, cfg.OnRowClick)
	t.exporter = NewExporter(t.writer,
		WithExportCallbacks(ExportCallbacks{
			OnStart:    cfg.OnExportStart,
			OnComplete: cfg.OnExportComplete,
			OnError:    cfg.OnExportError,
		}),
		WithAlert(t.alert),
		WithClock(t.now),
		WithExportLogger(t.log),
	)
	return t, nil
}

// Config returns the configuration the table was built with.
func (t *Table) Config() Config {
	return t.cfg
}

// Columns returns the display columns, including the synthetic actions
// column when actions are configured.
func (t *Table) Columns() []Column {
	return t.columns
}

// FilterColumns returns the columns eligible for a filter widget:
// FilterableColumns when configured, else every filterable column.
func (t *Table) FilterColumns() []Column {
	var allowed map[string]bool
	if len(t.cfg.FilterableColumns) > 0 {
		allowed = make(map[string]bool, len(t.cfg.FilterableColumns))
		for _, acc := range t.cfg.FilterableColumns {
			allowed[acc] = true
		}
	}
	out := make([]Column, 0, len(t.columns))
	for _, col := range t.columns {
		if !col.IsFilterable() {
			continue
		}
		if allowed != nil && !allowed[col.Accessor] {
			continue
		}
		out = append(out, col)
	}
	return out
}

// Column looks up a display column by accessor.
func (t *Table) Column(accessor string) (Column, bool) {
	for _, col := range t.columns {
		if col.Accessor == accessor {
			return col, true
		}
	}
	return Column{}, false
}

// EmptyText returns the placeholder configuration.
func (t *Table) EmptyText() EmptyText {
	return t.empty
}

// Data returns the raw rows.
func (t *Table) Data() []Record {
	return t.data
}

// SetData replaces the raw rows and returns to the first page.
func (t *Table) SetData(rows []Record) {
	t.data = rows
	t.page = 1
}

// Search returns the current search term.
func (t *Table) Search() string {
	return t.search
}

// SetSearch changes the search term; a change returns to the first page.
func (t *Table) SetSearch(term string) {
	if term == t.search {
		return
	}
	t.search = term
	t.page = 1
}

// Filters returns a copy of the filter state.
func (t *Table) Filters() Filters {
	return t.filters.Clone()
}

// SetFilter sets the entry for accessor; a nil value removes it. Any change
// returns to the first page.
func (t *Table) SetFilter(accessor string, v FilterValue) {
	if v == nil {
		t.ClearFilter(accessor)
		return
	}
	t.filters[accessor] = v
	t.page = 1
}

// ClearFilter removes the entry for accessor.
func (t *Table) ClearFilter(accessor string) {
	if _, ok := t.filters[accessor]; !ok {
		return
	}
	delete(t.filters, accessor)
	t.page = 1
}

// ClearFilters removes every entry.
func (t *Table) ClearFilters() {
	if len(t.filters) == 0 {
		return
	}
	t.filters = Filters{}
	t.page = 1
}

// Sort returns the sort state.
func (t *Table) Sort() SortState {
	return t.sort
}

// SetSort replaces the sort state. The page is kept.
func (t *Table) SetSort(s SortState) {
	if s.Direction == "" {
		s.Direction = Ascending
	}
	t.sort = s
}

// ToggleSort applies a header click on accessor. Unknown or unsortable
// columns are ignored.
func (t *Table) ToggleSort(accessor string) {
	col, ok := t.Column(accessor)
	if !ok || !col.IsSortable() {
		return
	}
	t.sort = t.sort.Toggle(accessor)
}

// PerPage returns the page size.
func (t *Table) PerPage() int {
	return t.perPage
}

// PageSizes returns the configured page-size options.
func (t *Table) PageSizes() []int {
	return t.cfg.ItemsPerPageOptions
}

// SetPerPage changes the page size to one of the configured options and
// returns to the first page.
func (t *Table) SetPerPage(n int) error {
	if !slices.Contains(t.cfg.ItemsPerPageOptions, n) {
		return fmt.Errorf("%w: %d not in %v", ErrInvalidPageSize, n, t.cfg.ItemsPerPageOptions)
	}
	t.perPage = n
	t.page = 1
	return nil
}

// Page returns the current page as last clamped.
func (t *Table) Page() int {
	return t.page
}

// SetPage moves to page, clamped to the available range.
func (t *Table) SetPage(page int) {
	t.page = ClampPage(page, TotalPages(len(t.processed()), t.perPage))
}

// NextPage and PrevPage step one page, staying within range.
func (t *Table) NextPage() { t.SetPage(t.page + 1) }
func (t *Table) PrevPage() { t.SetPage(t.page - 1) }

// Loading reports whether the caller marked the data as loading.
func (t *Table) Loading() bool {
	return t.loading
}

// SetLoading toggles the loading indicator. Internal state is untouched.
func (t *Table) SetLoading(v bool) {
	t.loading = v
}

// Dispatcher returns the row-action dispatcher.
func (t *Table) Dispatcher() *Dispatcher {
	return t.dispatcher
}

func (t *Table) searched() []Record {
	return Search(t.data, t.search, t.columns, t.empty)
}

func (t *Table) filtered(searched []Record) []Record {
	return ApplyFilters(searched, t.filters, t.empty, t.predicates()...)
}

func (t *Table) processed() []Record {
	return t.sorter.Sort(t.filtered(t.searched()), t.sort)
}

// predicates wraps the custom filters so failures are logged once per run.
func (t *Table) predicates() []Predicate {
	if len(t.cfg.CustomFilters) == 0 {
		return nil
	}
	out := make([]Predicate, len(t.cfg.CustomFilters))
	for i, p := range t.cfg.CustomFilters {
		logged := false
		out[i] = func(row Record) (bool, error) {
			ok, err := p(row)
			if err != nil && !logged {
				logged = true
				t.log.Error(err, "custom filter failed; excluding rows", "filter", i)
			}
			return ok, err
		}
	}
	return out
}

// View runs search, filter, sort and pagination for the current state.
func (t *Table) View() View {
	searched := t.searched()
	filtered := t.filtered(searched)
	sorted := t.sorter.Sort(filtered, t.sort)

	total := TotalPages(len(sorted), t.perPage)
	t.page = ClampPage(t.page, total)
	rows := Paginate(sorted, t.page, t.perPage)

	v := View{
		Searched:       searched,
		Filtered:       filtered,
		Sorted:         sorted,
		Rows:           rows,
		Page:           t.page,
		PerPage:        t.perPage,
		TotalPages:     total,
		Window:         PageWindow(t.page, total),
		ShowPagination: ShowPagination(len(sorted), t.perPage),
		Total:          len(sorted),
	}
	if len(rows) > 0 {
		v.From = (t.page-1)*t.perPage + 1
		v.To = v.From + len(rows) - 1
	} else {
		v.EmptyMessage = t.cfg.EmptyMessage
	}

	t.log.V(1).Info("pipeline",
		"raw", len(t.data), "searched", len(searched), "filtered", len(filtered),
		"page", t.page, "total_pages", total)
	return v
}

// Cell returns the display text of one cell.
func (t *Table) Cell(row Record, col Column) string {
	return col.CellText(row, t.empty)
}

// FilterOptions lists the values a select filter on accessor offers,
// computed over the raw rows.
func (t *Table) FilterOptions(accessor string) []string {
	return DistinctValues(t.data, accessor, t.empty)
}

// ExportInProgress reports whether an export is running.
func (t *Table) ExportInProgress() bool {
	return t.exporter.InProgress()
}

// ExportRequest snapshots the dataset an export would write: the raw rows
// when ExportAllData is set, else the searched, filtered and sorted rows.
// The snapshot may be handed to Exporter on another goroutine.
func (t *Table) ExportRequest() ExportRequest {
	req := ExportRequest{
		Raw:       t.data,
		AllData:   t.cfg.ExportAllData,
		Columns:   t.columns,
		Exclude:   t.cfg.ExcludeColumnsFromExport,
		Headers:   t.cfg.CustomExportHeaders,
		FileStem:  t.cfg.ExportFileName,
		Title:     t.cfg.Title,
		Dir:       t.cfg.ExportDir,
		SheetName: t.cfg.ExportSheetName,
	}
	if !req.AllData {
		req.Processed = t.processed()
	}
	return req
}

// Exporter returns the guarded exporter shared by every export trigger.
func (t *Table) Exporter() *Exporter {
	return t.exporter
}

// Export writes the configured dataset and returns the file path.
func (t *Table) Export(ctx context.Context) (string, error) {
	return t.exporter.Export(ctx, t.ExportRequest())
}

// Summary returns the footer counter, e.g. "Showing 11 to 20 of 23 entries".
func (v View) Summary() string {
	if v.Total == 0 {
		return "Showing 0 entries"
	}
	return fmt.Sprintf("Showing %d to %d of %d entries", v.From, v.To, v.Total)
}
