package grid

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTable(t *testing.T, cfg Config, opts ...Option) *Table {
	t.Helper()
	if cfg.Columns == nil {
		cfg.Columns = peopleColumns()
	}
	tbl, err := New(cfg, opts...)
	require.NoError(t, err)
	return tbl
}

func TestNewValidates(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrNoColumns)

	_, err = New(Config{Columns: peopleColumns(), ItemsPerPageOptions: []int{10, 0}})
	assert.ErrorIs(t, err, ErrInvalidPageSize)

	_, err = New(Config{Columns: peopleColumns(), DefaultItemsPerPage: 7})
	assert.ErrorIs(t, err, ErrInvalidPageSize)

	_, err = New(Config{Columns: peopleColumns(), ItemsPerPageOptions: []int{2, 4}, DefaultItemsPerPage: 10})
	assert.ErrorIs(t, err, ErrInvalidPageSize)
}

func TestTablePerPageFromOptions(t *testing.T) {
	tbl := newTable(t, Config{ItemsPerPageOptions: []int{2, 4}})
	assert.Equal(t, 2, tbl.PerPage(), "first option when the default size is not offered")
	assert.Contains(t, tbl.PageSizes(), tbl.PerPage())

	tbl = newTable(t, Config{ItemsPerPageOptions: []int{5, 10, 20}})
	assert.Equal(t, 10, tbl.PerPage())
}

func TestTableDefaults(t *testing.T) {
	tbl := newTable(t, Config{Data: people()})
	assert.Equal(t, 10, tbl.PerPage())
	assert.Equal(t, DefaultItemsPerPageOptions, tbl.PageSizes())
	assert.Equal(t, "N/A", tbl.EmptyText().For("x"))
	assert.Equal(t, "Export", tbl.Config().ExportButtonText)
	assert.Len(t, tbl.Columns(), 4)
}

func TestTableActionsColumn(t *testing.T) {
	tbl := newTable(t, Config{Actions: []Action{{Label: "View"}}})
	cols := tbl.Columns()
	require.Len(t, cols, 5)
	assert.Equal(t, ActionsAccessor, cols[4].Accessor)
	assert.False(t, cols[4].IsSortable())

	tbl.ToggleSort(ActionsAccessor)
	assert.Equal(t, SortState{Direction: Ascending}, tbl.Sort())

	for _, c := range tbl.FilterColumns() {
		assert.NotEqual(t, ActionsAccessor, c.Accessor)
	}
}

func TestTablePageResetOnSearch(t *testing.T) {
	tbl := newTable(t, Config{Data: seq(23), Columns: []Column{{Accessor: "id"}}})

	v := tbl.View()
	assert.Equal(t, 3, v.TotalPages)

	tbl.SetPage(3)
	v = tbl.View()
	assert.Equal(t, 3, v.Page)
	assert.Len(t, v.Rows, 3)
	assert.Equal(t, 21, v.From)
	assert.Equal(t, 23, v.To)
	assert.Equal(t, "Showing 21 to 23 of 23 entries", v.Summary())

	tbl.SetSearch("1")
	assert.Equal(t, 1, tbl.Page())
}

func TestTablePageResets(t *testing.T) {
	tbl := newTable(t, Config{Data: seq(23), Columns: []Column{{Accessor: "id"}}})

	tbl.SetPage(2)
	tbl.SetSearch("")
	assert.Equal(t, 2, tbl.Page(), "unchanged search keeps the page")

	tbl.SetFilter("id", RangeFilter{Min: Float(1)})
	assert.Equal(t, 1, tbl.Page())

	tbl.SetPage(2)
	tbl.ClearFilter("missing")
	assert.Equal(t, 2, tbl.Page())
	tbl.ClearFilters()
	assert.Equal(t, 1, tbl.Page())

	tbl.SetPage(2)
	require.NoError(t, tbl.SetPerPage(5))
	assert.Equal(t, 1, tbl.Page())
	assert.ErrorIs(t, tbl.SetPerPage(7), ErrInvalidPageSize)

	tbl.SetPage(4)
	tbl.ToggleSort("id")
	assert.Equal(t, 4, tbl.Page(), "sorting keeps the page")

	tbl.SetData(seq(3))
	assert.Equal(t, 1, tbl.Page())
}

func TestTablePageClamp(t *testing.T) {
	tbl := newTable(t, Config{Data: seq(23), Columns: []Column{{Accessor: "id"}}})

	tbl.SetPage(99)
	assert.Equal(t, 3, tbl.Page())
	tbl.NextPage()
	assert.Equal(t, 3, tbl.Page())
	tbl.PrevPage()
	assert.Equal(t, 2, tbl.Page())
	tbl.SetPage(-5)
	assert.Equal(t, 1, tbl.Page())
}

func TestTableView(t *testing.T) {
	tbl := newTable(t, Config{
		Data:                 people(),
		ItemsPerPageOptions:  []int{2, 4},
		DefaultItemsPerPage:  2,
		DefaultSortField:     "age",
		DefaultSortDirection: Descending,
		EmptyMessage:         "nobody",
	})

	v := tbl.View()
	assert.Equal(t, []string{"Carol", "dave"}, names(v.Rows))
	assert.Equal(t, 4, v.Total)
	assert.Equal(t, 2, v.TotalPages)
	assert.True(t, v.ShowPagination)
	assert.Equal(t, []string{"1", "2"}, WindowStrings(v.Window))

	tbl.SetFilter("dept", SelectFilter{"Eng"})
	v = tbl.View()
	assert.Len(t, v.Searched, 4)
	assert.Equal(t, []string{"Carol", "Alice"}, names(v.Rows))
	assert.False(t, v.ShowPagination)

	tbl.SetSearch("zzz")
	v = tbl.View()
	assert.Empty(t, v.Rows)
	assert.Equal(t, "nobody", v.EmptyMessage)
	assert.Zero(t, v.From)
	assert.Equal(t, 1, v.TotalPages)
	assert.Equal(t, "Showing 0 entries", v.Summary())
}

func TestTableShrinkingDataClampsPage(t *testing.T) {
	tbl := newTable(t, Config{Data: seq(30), Columns: []Column{{Accessor: "id"}}})
	tbl.SetPage(3)

	tbl.SetFilter("id", RangeFilter{Max: Float(12)})
	tbl.SetPage(2)
	tbl.SetFilter("id", RangeFilter{Max: Float(5)})
	v := tbl.View()
	assert.Equal(t, 1, v.Page)
	assert.Len(t, v.Rows, 5)
}

func TestTableCustomFilterErrorsAreLogged(t *testing.T) {
	var logged []string
	lgr := funcr.New(func(prefix, args string) { logged = append(logged, args) }, funcr.Options{})

	tbl := newTable(t, Config{
		Data: people(),
		CustomFilters: []Predicate{func(Record) (bool, error) {
			return false, errors.New("bad expression")
		}},
	}, WithLogger(lgr))

	v := tbl.View()
	assert.Empty(t, v.Rows)
	require.Len(t, logged, 1)
	assert.Contains(t, logged[0], "bad expression")
}

func TestTableFilterColumns(t *testing.T) {
	cols := peopleColumns()
	cols[0].Filterable = Bool(false)
	tbl := newTable(t, Config{Columns: cols})
	got := make([]string, 0)
	for _, c := range tbl.FilterColumns() {
		got = append(got, c.Accessor)
	}
	assert.Equal(t, []string{"age", "dept", "site.city"}, got)

	tbl = newTable(t, Config{FilterableColumns: []string{"dept"}})
	require.Len(t, tbl.FilterColumns(), 1)
	assert.Equal(t, FilterSelect, tbl.FilterColumns()[0].EffectiveFilterType())
}

func TestTableFilterOptions(t *testing.T) {
	tbl := newTable(t, Config{Data: people(), EmptyValueText: "-"})
	assert.Equal(t, []string{"-", "Eng", "Ops"}, tbl.FilterOptions("dept"))
}

func TestTableExport(t *testing.T) {
	w := &recordingWriter{}
	var done string
	tbl := newTable(t, Config{
		Data:                     people(),
		Title:                    "Staff",
		ExportFileName:           "staff",
		ExcludeColumnsFromExport: []string{"site.city"},
		OnExportComplete:         func(p string) { done = p },
		Actions:                  []Action{{Label: "View"}},
	}, WithSheetWriter(w), WithNow(func() time.Time { return fixedNow }))

	tbl.SetSearch("eng")
	tbl.ToggleSort("name")
	tbl.ToggleSort("name")

	path, err := tbl.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "staff_2024-05-06T06-08-09.xlsx", path)
	assert.Equal(t, path, done)
	assert.False(t, tbl.ExportInProgress())

	require.Len(t, w.sheets, 1)
	sheet := w.sheets[0]
	assert.Equal(t, "Staff", sheet.Name)
	assert.Equal(t, [][]any{
		{"Name", "Age", "Dept"},
		{"Carol", "", "Eng"},
		{"Alice", 30, "Eng"},
	}, sheet.Rows)
}

func TestTableExportAllData(t *testing.T) {
	w := &recordingWriter{}
	tbl := newTable(t, Config{Data: people(), ExportAllData: true, ExportSheetName: "All"}, WithSheetWriter(w))
	tbl.SetSearch("nothing matches this")

	_, err := tbl.Export(context.Background())
	require.NoError(t, err)
	require.Len(t, w.sheets, 1)
	assert.Equal(t, "All", w.sheets[0].Name)
	assert.Len(t, w.sheets[0].Rows, 5)
}

func TestTableExportFailureAlerts(t *testing.T) {
	boom := errors.New("read-only")
	var alerted error
	tbl := newTable(t, Config{Data: people()},
		WithSheetWriter(&recordingWriter{err: boom}),
		WithAlertFunc(func(err error) { alerted = err }))

	_, err := tbl.Export(context.Background())
	require.ErrorIs(t, err, boom)
	assert.ErrorIs(t, alerted, boom)
}

func TestTableLoading(t *testing.T) {
	tbl := newTable(t, Config{Data: seq(12), Columns: []Column{{Accessor: "id"}}, Loading: true})
	assert.True(t, tbl.Loading())
	tbl.SetPage(2)
	tbl.SetLoading(false)
	assert.False(t, tbl.Loading())
	assert.Equal(t, 2, tbl.Page())
}

func TestTableExportRequestSnapshot(t *testing.T) {
	w := &recordingWriter{}
	tbl := newTable(t, Config{Data: people()}, WithSheetWriter(w))
	tbl.SetSearch("eng")

	req := tbl.ExportRequest()
	require.Len(t, req.Processed, 2)
	tbl.SetSearch("")

	_, err := tbl.Exporter().Export(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, w.sheets, 1)
	assert.Len(t, w.sheets[0].Rows, 3, "header plus the two rows captured before the search changed")
}
