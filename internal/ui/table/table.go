// Package table wraps the bubbles table for one page of records.
package table

import (
	"fmt"
	"image/color"

	bubtable "charm.land/bubbles/v2/table"
	"charm.land/lipgloss/v2"
)

// Re-export the bubbles types so callers can build columns and rows without
// importing bubbles directly.
type Column = bubtable.Column
type Row = bubtable.Row

// Model shows the rows of the current page and tracks the cursor. Rows are
// values of V, converted to cells with toRow on every SetRows call.
type Model[V any] struct {
	table   bubtable.Model
	styles  bubtable.Styles
	rows    []V
	columns []Column

	toRow func(V) Row

	width   int
	height  int
	noColor bool

	headerFG   color.Color
	headerBG   color.Color
	selectedFG color.Color
	selectedBG color.Color
}

// NewModel creates a page table.
func NewModel[V any](columns []Column, toRow func(V) Row) *Model[V] {
	t := bubtable.New(
		bubtable.WithColumns(columns),
		bubtable.WithFocused(true),
		bubtable.WithHeight(5),
	)

	s := bubtable.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		Bold(true).
		Align(lipgloss.Left).
		PaddingLeft(0).
		PaddingRight(1)
	s.Selected = s.Selected.
		PaddingLeft(0).
		PaddingRight(0)
	s.Cell = lipgloss.NewStyle().
		Align(lipgloss.Left).
		PaddingLeft(0).
		PaddingRight(1)
	t.SetStyles(s)

	return &Model[V]{
		table:   t,
		styles:  s,
		columns: columns,
		toRow:   toRow,
		width:   80,
		height:  10,
	}
}

// SetRows replaces the rows, keeping the cursor in range.
func (m *Model[V]) SetRows(rows []V) {
	m.rows = rows
	cells := make([]Row, len(rows))
	for i, r := range rows {
		cells[i] = m.toRow(r)
	}
	m.table.SetRows(cells)
	if c := m.Cursor(); c >= len(rows) && len(rows) > 0 {
		m.SetCursor(len(rows) - 1)
	} else if c < 0 && len(rows) > 0 {
		m.SetCursor(0)
	}
}

// SetColumns replaces the columns.
func (m *Model[V]) SetColumns(columns []Column) {
	m.columns = columns
	m.table.SetColumns(columns)
}

// Columns returns the current columns.
func (m *Model[V]) Columns() []Column {
	return m.columns
}

// Rows returns the current rows.
func (m *Model[V]) Rows() []V {
	return m.rows
}

// Cursor returns the cursor position.
func (m *Model[V]) Cursor() int {
	return m.table.Cursor()
}

// SetCursor moves the cursor to pos.
func (m *Model[V]) SetCursor(pos int) {
	m.table.SetCursor(pos)
}

func (m *Model[V]) MoveUp(n int)   { m.table.MoveUp(n) }
func (m *Model[V]) MoveDown(n int) { m.table.MoveDown(n) }

// SelectedRow returns the row under the cursor, or nil when there is none.
func (m *Model[V]) SelectedRow() *V {
	cursor := m.Cursor()
	if cursor < 0 || cursor >= len(m.rows) {
		return nil
	}
	return &m.rows[cursor]
}

// SetSize sets the table dimensions. height counts the body rows.
func (m *Model[V]) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetWidth(width)
	m.table.SetHeight(height)
}

// SetNoColor enables or disables color output.
func (m *Model[V]) SetNoColor(noColor bool) {
	m.noColor = noColor
	m.applyColorScheme()
}

// SetColors sets theme colors; nil leaves a color unchanged.
func (m *Model[V]) SetColors(headerFG, headerBG, selectedFG, selectedBG color.Color) {
	m.headerFG = headerFG
	m.headerBG = headerBG
	m.selectedFG = selectedFG
	m.selectedBG = selectedBG
	m.applyColorScheme()
}

func (m *Model[V]) applyColorScheme() {
	s := m.styles

	if m.noColor {
		s.Header = s.Header.UnsetForeground().UnsetBackground()
		s.Selected = s.Selected.UnsetForeground().UnsetBackground().Reverse(true)
		s.Cell = s.Cell.UnsetForeground().UnsetBackground()
	} else {
		if m.headerFG != nil {
			s.Header = s.Header.Foreground(m.headerFG)
		}
		if m.headerBG != nil {
			s.Header = s.Header.Background(m.headerBG)
		}
		if m.selectedFG != nil {
			s.Selected = s.Selected.Foreground(m.selectedFG)
		}
		if m.selectedBG != nil {
			s.Selected = s.Selected.Background(m.selectedBG)
		}
	}

	m.table.SetStyles(s)
	m.styles = s
}

// View renders the table.
func (m *Model[V]) View() string {
	return m.table.View()
}

// Height returns the rendered height, header included.
func (m *Model[V]) Height() int {
	return lipgloss.Height(m.View())
}

func (m *Model[V]) String() string {
	return fmt.Sprintf("Table[rows=%d, cursor=%d]", len(m.rows), m.Cursor())
}
