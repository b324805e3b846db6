package formatter

import (
	"sort"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
)

const (
	sepWidth    = 2
	minColWidth = 3
	// maxAutoWidth caps columns without hints when the table must shrink.
	maxAutoWidth = 40
)

// Row number styles.
const (
	RowNumbered = "numbered"
	RowIndex    = "index"
	RowBullet   = "bullet"
	RowNone     = "none"
)

// ColumnarOptions configures columnar table rendering.
type ColumnarOptions struct {
	NoColor bool

	// TotalWidth is the total available width. If 0, uses terminal width.
	TotalWidth int

	// RowNumberStyle controls the leading row number column:
	//   "numbered" - 1, 2, 3 (default)
	//   "index"    - [0], [1], [2]
	//   "bullet"   - •
	//   "none"     - no row number column
	RowNumberStyle string

	// RowOffset is added to row numbers so a later page continues the count.
	RowOffset int

	// Hints holds one entry per column, matched by position.
	Hints []ColumnHint
}

// RenderColumnarTable renders rows under a header line and a rule. Column
// widths fit the content, capped by hints and shrunk by priority when the
// table is wider than the available width.
func RenderColumnarTable(headers []string, rows [][]string, opts ColumnarOptions) string {
	if len(headers) == 0 {
		return ""
	}

	cells := make([][]string, len(rows))
	for i, row := range rows {
		cells[i] = make([]string, len(row))
		for j, v := range row {
			cells[i][j] = flattenCell(v)
		}
	}

	totalWidth := opts.TotalWidth
	if totalWidth <= 0 {
		totalWidth = getTerminalWidth()
	}

	showRowNum := opts.RowNumberStyle != RowNone
	rowNumWidth := 0
	if showRowNum {
		rowNumWidth = rowNumberWidth(opts.RowNumberStyle, opts.RowOffset+len(rows))
	}

	availableWidth := totalWidth - rowNumWidth
	if showRowNum {
		availableWidth -= sepWidth
	}
	colWidths := calculateColumnWidths(headers, cells, availableWidth, opts.Hints)

	var b strings.Builder
	b.WriteString(renderHeader(headers, colWidths, rowNumWidth, showRowNum, opts.NoColor) + "\n")

	ruleWidth := rowNumWidth
	if showRowNum {
		ruleWidth += sepWidth
	}
	for i, w := range colWidths {
		ruleWidth += w
		if i < len(colWidths)-1 {
			ruleWidth += sepWidth
		}
	}
	rule := strings.Repeat("─", ruleWidth)
	if !opts.NoColor {
		rule = separatorStyle.Render(rule)
	}
	b.WriteString(rule + "\n")

	for i, row := range cells {
		b.WriteString(renderDataRow(opts.RowOffset+i, row, colWidths, rowNumWidth, opts) + "\n")
	}
	return b.String()
}

func rowNumberWidth(style string, maxRow int) int {
	switch style {
	case RowBullet:
		return 3
	case RowIndex:
		return len(strconv.Itoa(max(maxRow-1, 0))) + 2
	default:
		return len(strconv.Itoa(max(maxRow, 1))) + 2
	}
}

// NaturalWidth is the width a table needs without truncation, hints' MaxWidth
// caps applied.
func NaturalWidth(headers []string, rows [][]string, opts ColumnarOptions) int {
	if len(headers) == 0 {
		return 0
	}
	widths := contentWidths(headers, rows, opts.Hints)
	total := 0
	if opts.RowNumberStyle != RowNone {
		total += rowNumberWidth(opts.RowNumberStyle, opts.RowOffset+len(rows)) + sepWidth
	}
	for i, w := range widths {
		total += w
		if i < len(widths)-1 {
			total += sepWidth
		}
	}
	return total
}

// ColumnWidths returns the widths RenderColumnarTable would give each column
// within totalWidth, separators excluded from the result.
func ColumnWidths(headers []string, rows [][]string, totalWidth int, hints []ColumnHint) []int {
	if totalWidth <= 0 {
		totalWidth = getTerminalWidth()
	}
	return calculateColumnWidths(headers, rows, totalWidth, hints)
}

func contentWidths(headers []string, rows [][]string, hints []ColumnHint) []int {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, val := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(flattenCell(val)))
			}
		}
	}
	for i := range widths {
		if i < len(hints) && hints[i].MaxWidth > 0 && widths[i] > hints[i].MaxWidth {
			widths[i] = hints[i].MaxWidth
		}
	}
	return widths
}

func calculateColumnWidths(headers []string, rows [][]string, availableWidth int, hints []ColumnHint) []int {
	numCols := len(headers)
	if numCols == 0 {
		return nil
	}
	widths := contentWidths(headers, rows, hints)

	usableWidth := availableWidth - (numCols-1)*sepWidth
	if sum(widths) <= usableWidth || usableWidth <= 0 {
		return widths
	}

	if len(hints) > 0 {
		return shrinkByPriority(widths, usableWidth, hints)
	}

	for i := range widths {
		widths[i] = min(widths[i], maxAutoWidth)
	}
	if total := sum(widths); total > usableWidth {
		for i := range widths {
			share := int(float64(widths[i]) / float64(total) * float64(usableWidth))
			widths[i] = max(share, minColWidth)
		}
		for sum(widths) > usableWidth {
			widest := 0
			for i := 1; i < numCols; i++ {
				if widths[i] > widths[widest] {
					widest = i
				}
			}
			if widths[widest] <= minColWidth {
				break
			}
			widths[widest]--
		}
	}
	return widths
}

// shrinkByPriority narrows columns until the total fits usableWidth,
// lowest priority first, never below a column's minimum.
func shrinkByPriority(widths []int, usableWidth int, hints []ColumnHint) []int {
	excess := sum(widths) - usableWidth
	if excess <= 0 {
		return widths
	}

	order := make([]int, len(widths))
	for i := range order {
		order[i] = i
	}
	priority := func(i int) int {
		if i < len(hints) {
			return hints[i].Priority
		}
		return 0
	}
	sort.SliceStable(order, func(a, b int) bool {
		return priority(order[a]) < priority(order[b])
	})

	for _, idx := range order {
		if excess <= 0 {
			break
		}
		floor := minColWidth
		if idx < len(hints) && hints[idx].MinWidth > floor {
			floor = hints[idx].MinWidth
		}
		shrink := min(widths[idx]-floor, excess)
		if shrink <= 0 {
			continue
		}
		widths[idx] -= shrink
		excess -= shrink
	}
	return widths
}

func sum(ns []int) int {
	total := 0
	for _, n := range ns {
		total += n
	}
	return total
}

func renderHeader(headers []string, widths []int, rowNumWidth int, showRowNum, noColor bool) string {
	parts := make([]string, 0, len(headers)+1)
	if showRowNum {
		parts = append(parts, padRight("#", rowNumWidth))
	}
	for i, h := range headers {
		parts = append(parts, padRight(truncate(h, widths[i]), widths[i]))
	}
	if !noColor {
		for i := range parts {
			parts[i] = headerStyle.Render(parts[i])
		}
	}
	return strings.Join(parts, strings.Repeat(" ", sepWidth))
}

func renderDataRow(rowIndex int, values []string, widths []int, rowNumWidth int, opts ColumnarOptions) string {
	parts := make([]string, 0, len(widths)+1)

	if opts.RowNumberStyle != RowNone {
		var num string
		switch opts.RowNumberStyle {
		case RowIndex:
			num = "[" + strconv.Itoa(rowIndex) + "]"
		case RowBullet:
			num = "•"
		default:
			num = strconv.Itoa(rowIndex + 1)
		}
		num = padRight(num, rowNumWidth)
		if !opts.NoColor {
			num = keyStyle.Render(num)
		}
		parts = append(parts, num)
	}

	for i, w := range widths {
		var val string
		if i < len(values) {
			val = truncate(values[i], w)
		}
		align := ""
		if i < len(opts.Hints) {
			align = opts.Hints[i].Align
		}
		switch align {
		case "right":
			val = padLeft(val, w)
		case "center":
			pad := w - lipgloss.Width(val)
			val = padRight(strings.Repeat(" ", pad/2)+val, w)
		default:
			val = padRight(val, w)
		}
		if !opts.NoColor {
			val = valueStyle.Render(val)
		}
		parts = append(parts, val)
	}

	return strings.Join(parts, strings.Repeat(" ", sepWidth))
}
