// Package ui is the interactive table browser: one page of records at a
// time with search, sorting, paging, row actions and export.
package ui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/go-logr/logr"

	"github.com/oakwood-commons/dtx/internal/config"
	"github.com/oakwood-commons/dtx/internal/formatter"
	"github.com/oakwood-commons/dtx/internal/navigator"
	"github.com/oakwood-commons/dtx/internal/ui/table"
	"github.com/oakwood-commons/dtx/pkg/grid"
)

type mode int

const (
	modeBrowse mode = iota
	modeSearch
	modeDetail
	modeHelp
)

const (
	defaultWidth  = 100
	defaultHeight = 24
	// chromeLines counts every line around the table body: title, search,
	// table header and rule, pager, status and footer.
	chromeLines = 7
)

// ActionEvent is a row action fired through the dispatcher.
type ActionEvent struct {
	Spec config.ActionSpec
	Row  grid.Record
}

// ActionQueue collects row actions. Pass Handle as the OnAction callback
// when building the table; the model runs queued events after each
// selection.
type ActionQueue struct {
	events []ActionEvent
}

// Handle queues an action.
func (q *ActionQueue) Handle(spec config.ActionSpec, row grid.Record) {
	q.events = append(q.events, ActionEvent{Spec: spec, Row: row})
}

func (q *ActionQueue) drain() []ActionEvent {
	out := q.events
	q.events = nil
	return out
}

// Options configures the browser.
type Options struct {
	NoColor bool
	// Width and Height fix the layout; 0 waits for the terminal size.
	Width, Height int
	KeyBindings   map[string]Action
	Actions       *ActionQueue
	Logger        logr.Logger
}

type exportDoneMsg struct {
	path string
	err  error
}

type pageRow struct {
	rec   grid.Record
	cells []string
}

// Model is the bubbletea model of the browser.
type Model struct {
	ctx  context.Context
	tbl  *grid.Table
	view grid.View

	page   *table.Model[pageRow]
	search textinput.Model
	status StatusModel

	mode   mode
	col    int
	detail grid.Record

	keys    map[string]Action
	actions *ActionQueue

	width, height int
	noColor       bool
	log           logr.Logger
}

// NewModel creates a browser over tbl.
func NewModel(ctx context.Context, tbl *grid.Table, opts Options) *Model {
	keys := opts.KeyBindings
	if keys == nil {
		keys = DefaultKeyBindings
	}
	actions := opts.Actions
	if actions == nil {
		actions = &ActionQueue{}
	}
	lgr := opts.Logger
	if lgr.GetSink() == nil {
		lgr = logr.Discard()
	}

	si := textinput.New()
	si.Placeholder = "type to search"
	si.Prompt = ""
	si.SetWidth(40)
	si.SetValue(tbl.Search())

	m := &Model{
		ctx:     ctx,
		tbl:     tbl,
		page:    table.NewModel(nil, func(r pageRow) table.Row { return r.cells }),
		search:  si,
		keys:    keys,
		actions: actions,
		width:   opts.Width,
		height:  opts.Height,
		noColor: opts.NoColor,
		log:     lgr,
	}
	if m.width <= 0 {
		m.width = defaultWidth
	}
	if m.height <= 0 {
		m.height = defaultHeight
	}
	m.status.NoColor = opts.NoColor
	m.page.SetNoColor(opts.NoColor)
	m.refresh()
	return m
}

func (m *Model) Init() tea.Cmd {
	return nil
}

// Table returns the table being browsed.
func (m *Model) Table() *grid.Table {
	return m.tbl
}

// refresh reruns the pipeline and rebuilds the page table.
func (m *Model) refresh() {
	m.view = m.tbl.View()
	headers, cells, hints := formatter.PageCells(m.tbl, m.view)
	m.col = min(max(m.col, 0), len(headers)-1)
	if m.col >= 0 {
		headers[m.col] = "›" + headers[m.col]
	}

	// Every bubbles cell carries one column of right padding.
	widths := formatter.ColumnWidths(headers, cells, m.width-len(headers), hints)
	cols := make([]table.Column, len(headers))
	for i, h := range headers {
		cols[i] = table.Column{Title: h, Width: widths[i]}
	}
	rows := make([]pageRow, len(m.view.Rows))
	for i, rec := range m.view.Rows {
		rows[i] = pageRow{rec: rec, cells: cells[i]}
	}

	m.page.SetColumns(cols)
	m.page.SetRows(rows)
	m.page.SetSize(m.width, max(m.height-chromeLines, 1))
	m.search.SetWidth(max(m.width-len("Search: ")-1, 10))
	m.status.Width = m.width

	m.status.Total = m.view.Total
	m.status.Row = 0
	if len(rows) > 0 {
		m.status.Row = m.view.From + m.page.Cursor()
	}
}

func (m *Model) selected() *pageRow {
	return m.page.SelectedRow()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.refresh()
		return m, nil
	case exportDoneMsg:
		m.exportDone(msg)
		return m, nil
	case tea.KeyPressMsg:
		return m.handleKey(msg)
	}

	if m.mode == modeSearch {
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}
	m.status.Clear()

	switch m.mode {
	case modeSearch:
		return m.handleSearchKey(msg, key)
	case modeDetail, modeHelp:
		switch m.keys[key] {
		case ActionBack, ActionOpen, ActionHelp, ActionQuit:
			m.mode = modeBrowse
		}
		return m, nil
	}

	if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= 9 {
		return m.selectAction(n - 1)
	}
	return m.execute(m.keys[key])
}

func (m *Model) handleSearchKey(msg tea.KeyPressMsg, key string) (tea.Model, tea.Cmd) {
	switch key {
	case "enter":
		m.search.Blur()
		m.mode = modeBrowse
		return m, nil
	case "esc":
		m.search.SetValue("")
		m.search.Blur()
		m.mode = modeBrowse
		m.tbl.SetSearch("")
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if v := m.search.Value(); v != m.tbl.Search() {
		m.tbl.SetSearch(v)
		m.refresh()
	}
	return m, cmd
}

func (m *Model) execute(action Action) (tea.Model, tea.Cmd) {
	d := m.tbl.Dispatcher()
	switch action {
	case ActionNone:
		return m, nil
	case ActionDown, ActionUp:
		d.ClickOutside()
		if action == ActionDown {
			m.page.MoveDown(1)
		} else {
			m.page.MoveUp(1)
		}
		m.refreshKeepCursor()
	case ActionColLeft:
		m.col--
		m.refreshKeepCursor()
	case ActionColRight:
		m.col++
		m.refreshKeepCursor()
	case ActionNextPage:
		m.goToPage(m.tbl.Page() + 1)
	case ActionPrevPage:
		m.goToPage(m.tbl.Page() - 1)
	case ActionFirstPage:
		m.goToPage(1)
	case ActionLastPage:
		m.goToPage(m.view.TotalPages)
	case ActionSort:
		m.toggleSort()
	case ActionSearch:
		if !m.tbl.Config().ShowSearch {
			m.status.Flash(StatusError, "Search is disabled")
			return m, nil
		}
		m.mode = modeSearch
		return m, m.search.Focus()
	case ActionClear:
		m.search.SetValue("")
		m.tbl.SetSearch("")
		m.tbl.ClearFilters()
		m.refresh()
		m.status.Flash(StatusInfo, "Search and filters cleared")
	case ActionPerPageUp:
		m.stepPerPage(1)
	case ActionPerPageDown:
		m.stepPerPage(-1)
	case ActionOpen:
		return m.open()
	case ActionExport:
		return m.export()
	case ActionHelp:
		m.mode = modeHelp
	case ActionBack:
		d.CloseMenu()
		m.refreshKeepCursor()
	case ActionQuit:
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) refreshKeepCursor() {
	cursor := m.page.Cursor()
	m.refresh()
	m.page.SetCursor(cursor)
	if len(m.view.Rows) > 0 {
		m.status.Row = m.view.From + m.page.Cursor()
	}
}

func (m *Model) goToPage(page int) {
	if page == m.tbl.Page() || page < 1 {
		return
	}
	m.tbl.Dispatcher().CloseMenu()
	m.tbl.SetPage(page)
	m.refresh()
	m.page.SetCursor(0)
}

func (m *Model) toggleSort() {
	cols := m.tbl.Columns()
	if m.col < 0 || m.col >= len(cols) {
		return
	}
	col := cols[m.col]
	if !col.IsSortable() {
		m.status.Flash(StatusError, fmt.Sprintf("%s is not sortable", col.Label()))
		return
	}
	m.tbl.ToggleSort(col.Accessor)
	m.refreshKeepCursor()
	dir := "ascending"
	if m.tbl.Sort().Direction == grid.Descending {
		dir = "descending"
	}
	m.status.Flash(StatusInfo, fmt.Sprintf("Sorted by %s %s", col.Label(), dir))
}

func (m *Model) stepPerPage(step int) {
	sizes := m.tbl.PageSizes()
	i := slices.Index(sizes, m.tbl.PerPage()) + step
	if i < 0 || i >= len(sizes) {
		return
	}
	if err := m.tbl.SetPerPage(sizes[i]); err != nil {
		m.status.Flash(StatusError, err.Error())
		return
	}
	m.refresh()
	m.page.SetCursor(0)
	m.status.Flash(StatusInfo, fmt.Sprintf("%d rows per page", sizes[i]))
}

// open acts on the selected row: the first action when they are inline,
// the overflow menu otherwise, the record itself when there are none.
func (m *Model) open() (tea.Model, tea.Cmd) {
	row := m.selected()
	if row == nil {
		return m, nil
	}
	d := m.tbl.Dispatcher()
	switch d.Layout() {
	case grid.LayoutInline:
		return m.selectAction(0)
	case grid.LayoutOverflow:
		d.ToggleMenu(m.page.Cursor())
		m.refreshKeepCursor()
	default:
		d.RowClick(row.rec)
		m.showDetail(row.rec)
	}
	return m, nil
}

func (m *Model) selectAction(index int) (tea.Model, tea.Cmd) {
	row := m.selected()
	if row == nil {
		return m, nil
	}
	d := m.tbl.Dispatcher()
	if d.Layout() == grid.LayoutNone {
		m.status.Flash(StatusError, "No row actions")
		return m, nil
	}
	if err := d.Select(index, row.rec); err != nil {
		m.status.Flash(StatusError, err.Error())
		return m, nil
	}
	m.refreshKeepCursor()
	for _, ev := range m.actions.drain() {
		m.runAction(ev)
	}
	return m, nil
}

func (m *Model) runAction(ev ActionEvent) {
	m.log.V(1).Info("row action", "label", ev.Spec.Label, "kind", ev.Spec.Kind)
	switch ev.Spec.Kind {
	case config.ActionView:
		m.showDetail(ev.Row)
	case config.ActionCopy:
		text, err := copyText(ev.Spec.Field, ev.Row)
		if err == nil {
			err = CopyToClipboard(text)
		}
		if err != nil {
			m.status.Flash(StatusError, fmt.Sprintf("Copy failed: %v", err))
			return
		}
		m.status.Flash(StatusSuccess, "Copied "+ev.Spec.Label)
	}
}

// copyText returns the value at field, or the whole record as JSON when
// field is empty.
func copyText(field string, row grid.Record) (string, error) {
	if field != "" {
		return grid.Stringify(grid.Resolve(row, field)), nil
	}
	b, err := json.Marshal(row)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (m *Model) showDetail(rec grid.Record) {
	m.detail = rec
	m.mode = modeDetail
}

func (m *Model) export() (tea.Model, tea.Cmd) {
	if !m.tbl.Config().ShowExportButton {
		m.status.Flash(StatusError, "Export is disabled")
		return m, nil
	}
	if m.tbl.ExportInProgress() {
		m.status.Flash(StatusError, "Export already in progress")
		return m, nil
	}
	req := m.tbl.ExportRequest()
	exp := m.tbl.Exporter()
	ctx := m.ctx
	m.status.Flash(StatusInfo, "Exporting...")
	return m, func() tea.Msg {
		path, err := exp.Export(ctx, req)
		return exportDoneMsg{path: path, err: err}
	}
}

func (m *Model) exportDone(msg exportDoneMsg) {
	switch {
	case errors.Is(msg.err, grid.ErrExportInProgress):
		m.status.Flash(StatusError, "Export already in progress")
	case msg.err != nil:
		m.status.Flash(StatusError, fmt.Sprintf("Export failed: %v", msg.err))
	default:
		m.status.Flash(StatusSuccess, "Exported to "+msg.path)
	}
}

func (m *Model) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	return v
}

func (m *Model) render() string {
	switch m.mode {
	case modeHelp:
		return m.renderHelp()
	case modeDetail:
		return m.renderDetail()
	}

	cfg := m.tbl.Config()
	var b strings.Builder
	if cfg.Title != "" {
		b.WriteString(m.bold(cfg.Title) + "\n")
	}
	if cfg.ShowSearch {
		b.WriteString("Search: " + m.search.View() + "\n")
	}
	if active := m.tbl.Filters().Active(); len(active) > 0 {
		parts := make([]string, len(active))
		for i, acc := range active {
			parts[i] = fmt.Sprintf("%s=%v", acc, m.tbl.Filters()[acc])
		}
		b.WriteString("Filters: " + strings.Join(parts, " ") + "\n")
	}

	switch {
	case m.tbl.Loading():
		b.WriteString("Loading...\n")
	case len(m.view.Rows) == 0:
		b.WriteString(m.page.View() + "\n")
		b.WriteString(m.view.EmptyMessage + "\n")
	default:
		b.WriteString(m.page.View() + "\n")
	}

	b.WriteString(formatter.RenderPager(m.view, m.noColor) + "\n")
	b.WriteString(m.status.View() + "\n")
	b.WriteString(m.footer())
	return b.String()
}

func (m *Model) footer() string {
	parts := []string{"? help", "/ search", "s sort", "n/p page", "enter open"}
	cfg := m.tbl.Config()
	if cfg.ShowExportButton {
		label := "x " + strings.ToLower(cfg.ExportButtonText)
		if m.tbl.ExportInProgress() {
			label += " (running)"
		}
		parts = append(parts, label)
	}
	parts = append(parts, "q quit")
	out := strings.Join(parts, "  ")
	if m.noColor {
		return out
	}
	return lipgloss.NewStyle().Foreground(footerColor).Render(out)
}

func (m *Model) renderDetail() string {
	keys := navigator.Keys(m.detail)
	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k, grid.Stringify(grid.Resolve(m.detail, k))})
	}
	var b strings.Builder
	b.WriteString(m.bold("Record") + "\n\n")
	b.WriteString(formatter.RenderRows(rows, m.noColor, 0, max(m.width-30, 20)))
	b.WriteString("\n" + m.status.View() + "\n")
	b.WriteString("esc back")
	return b.String()
}

func (m *Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(m.bold("Keys") + "\n\n")
	for _, h := range actionHelp {
		keys := KeysFor(m.keys, h.action)
		if len(keys) == 0 {
			continue
		}
		fmt.Fprintf(&b, "  %-18s %s\n", strings.Join(keys, ", "), h.text)
	}
	b.WriteString("  1-9                run the row action with that number\n")
	b.WriteString("\n? or esc to close")
	return b.String()
}

func (m *Model) bold(s string) string {
	if m.noColor {
		return s
	}
	return lipgloss.NewStyle().Bold(true).Render(s)
}
