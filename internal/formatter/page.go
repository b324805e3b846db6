package formatter

import (
	"strings"

	"github.com/oakwood-commons/dtx/pkg/grid"
)

// Sort indicators appended to the sorted column's header.
const (
	ascIndicator  = " ▲"
	descIndicator = " ▼"
)

// PageOptions configures RenderPage.
type PageOptions struct {
	NoColor        bool
	TotalWidth     int
	RowNumberStyle string
}

// PageCells converts the visible rows of v into header and single-line cell
// text, one hint per column.
func PageCells(tbl *grid.Table, v grid.View) ([]string, [][]string, []ColumnHint) {
	cols := tbl.Columns()
	sortState := tbl.Sort()

	headers := make([]string, len(cols))
	hints := make([]ColumnHint, len(cols))
	for i, c := range cols {
		headers[i] = c.Label()
		if c.Accessor == sortState.Field && c.IsSortable() {
			if sortState.Direction == grid.Descending {
				headers[i] += descIndicator
			} else {
				headers[i] += ascIndicator
			}
		}
		hints[i] = ColumnHint{
			MaxWidth: c.Width,
			MinWidth: c.MinWidth,
			Priority: int(c.FlexWeight * 10),
			Align:    c.Align,
		}
	}

	rows := make([][]string, len(v.Rows))
	for r, rec := range v.Rows {
		cells := make([]string, len(cols))
		for i, c := range cols {
			if c.Accessor == grid.ActionsAccessor {
				cells[i] = ActionCell(tbl.Dispatcher(), r, rec)
				continue
			}
			cells[i] = flattenCell(tbl.Cell(rec, c))
		}
		rows[r] = cells
	}
	return headers, rows, hints
}

// ActionCell renders the actions of one row: inline labels, disabled ones
// in parentheses, or an overflow marker that lists the actions while the
// row's menu is open.
func ActionCell(d *grid.Dispatcher, rowIndex int, rec grid.Record) string {
	controls := d.Controls(rec)
	labels := make([]string, len(controls))
	for i, c := range controls {
		label := c.Label
		if c.Icon != "" {
			label = c.Icon + " " + label
		}
		if c.Disabled {
			label = "(" + label + ")"
		}
		labels[i] = label
	}

	switch d.Layout() {
	case grid.LayoutInline:
		return strings.Join(labels, " | ")
	case grid.LayoutOverflow:
		if d.MenuOpen(rowIndex) {
			return "⋮ " + strings.Join(labels, " | ")
		}
		return "⋮"
	default:
		return ""
	}
}

// RenderPage renders the current page of tbl: the table, the empty message
// when nothing is visible, and the pager footer.
func RenderPage(tbl *grid.Table, v grid.View, opts PageOptions) string {
	if tbl.Loading() {
		return "Loading...\n"
	}

	var b strings.Builder
	if title := tbl.Config().Title; title != "" {
		if opts.NoColor {
			b.WriteString(title + "\n\n")
		} else {
			b.WriteString(headerStyle.Render(title) + "\n\n")
		}
	}

	headers, rows, hints := PageCells(tbl, v)
	b.WriteString(RenderColumnarTable(headers, rows, ColumnarOptions{
		NoColor:        opts.NoColor,
		TotalWidth:     opts.TotalWidth,
		RowNumberStyle: opts.RowNumberStyle,
		RowOffset:      max(v.From-1, 0),
		Hints:          hints,
	}))
	if v.EmptyMessage != "" {
		b.WriteString(v.EmptyMessage + "\n")
	}
	b.WriteString("\n" + RenderPager(v, opts.NoColor) + "\n")
	return b.String()
}

// RenderPager renders the footer: the entry counter and, when there is more
// than one page, the page window with the current page highlighted.
func RenderPager(v grid.View, noColor bool) string {
	summary := v.Summary()
	if !v.ShowPagination {
		return summary
	}

	links := make([]string, 0, len(v.Window)+2)
	links = append(links, "‹")
	for _, l := range v.Window {
		s := l.String()
		if !l.Gap && l.Number == v.Page {
			if noColor {
				s = "[" + s + "]"
			} else {
				s = currentStyle.Render(s)
			}
		}
		links = append(links, s)
	}
	links = append(links, "›")

	return summary + "   " + strings.Join(links, " ")
}
