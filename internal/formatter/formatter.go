// Package formatter renders grid pages as text: a columnar table with a pager
// footer, KEY/VALUE record details and machine-readable record dumps.
package formatter

import (
	"image/color"
	"os"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

var (
	defaultHeaderFG   = lipgloss.Color("12")
	defaultHeaderBG   = lipgloss.Color("236")
	defaultKeyColor   = lipgloss.Color("14")
	defaultValueColor = lipgloss.Color("248")
	defaultSeparator  = lipgloss.Color("240")
	defaultCurrent    = lipgloss.Color("11")

	headerStyle    lipgloss.Style
	keyStyle       lipgloss.Style
	valueStyle     lipgloss.Style
	separatorStyle lipgloss.Style
	currentStyle   lipgloss.Style
)

// TableColors controls the rendered colors. Nil fields fall back to the
// default ANSI 256 palette.
type TableColors struct {
	HeaderFG       color.Color
	HeaderBG       color.Color
	KeyColor       color.Color
	ValueColor     color.Color
	SeparatorColor color.Color
	// CurrentPage colors the active page link in the pager.
	CurrentPage color.Color
}

func applyTableTheme(tc TableColors) {
	pick := func(c, def color.Color) color.Color {
		if c == nil {
			return def
		}
		return c
	}

	headerStyle = lipgloss.NewStyle().Bold(true).
		Foreground(pick(tc.HeaderFG, defaultHeaderFG)).
		Background(pick(tc.HeaderBG, defaultHeaderBG))
	keyStyle = lipgloss.NewStyle().Foreground(pick(tc.KeyColor, defaultKeyColor))
	valueStyle = lipgloss.NewStyle().Foreground(pick(tc.ValueColor, defaultValueColor))
	separatorStyle = lipgloss.NewStyle().Foreground(pick(tc.SeparatorColor, defaultSeparator))
	currentStyle = lipgloss.NewStyle().Bold(true).Foreground(pick(tc.CurrentPage, defaultCurrent))
}

// SetTableTheme overrides the global table styles.
func SetTableTheme(tc TableColors) {
	applyTableTheme(tc)
}

//nolint:gochecknoinits // initialize default table theme for package consumers
func init() {
	applyTableTheme(TableColors{})
}

// flattenCell keeps a cell on one line: CRLF and CR become LF, and every LF
// is rendered as a literal "\n".
func flattenCell(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.ReplaceAll(s, "\n", `\n`)
}

// truncate cuts s to maxLen display cells, ending in "..." when there is
// room for it.
func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	if lipgloss.Width(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return runewidth.Truncate(s, maxLen, "")
	}
	return runewidth.Truncate(s, maxLen, "...")
}

// getTerminalWidth returns the terminal width, or 120 when stdout is not a
// terminal.
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 120
	}
	return width
}

// padRight left-aligns s within width display cells.
func padRight(s string, width int) string {
	w := lipgloss.Width(s)
	if w >= width {
		return truncate(s, width)
	}
	return s + strings.Repeat(" ", width-w)
}

// padLeft right-aligns s within width display cells.
func padLeft(s string, width int) string {
	w := lipgloss.Width(s)
	if w >= width {
		return truncate(s, width)
	}
	return strings.Repeat(" ", width-w) + s
}

// RenderRows prints a two-column KEY/VALUE table for precomputed rows.
// keyColWidth defaults to the widest key; valueColWidth to the remaining
// terminal width, never below 20.
func RenderRows(rows [][]string, noColor bool, keyColWidth, valueColWidth int) string {
	const (
		sepWidth      = 2
		minValueWidth = 20
	)
	sep := strings.Repeat(" ", sepWidth)

	keyWidth := keyColWidth
	if keyWidth <= 0 {
		keyWidth = lipgloss.Width("KEY")
		for _, row := range rows {
			if len(row) > 0 {
				keyWidth = max(keyWidth, lipgloss.Width(row[0]))
			}
		}
	}
	valueWidth := valueColWidth
	if valueWidth <= 0 {
		valueWidth = getTerminalWidth() - keyWidth - sepWidth
	}
	valueWidth = max(valueWidth, minValueWidth)

	var b strings.Builder

	headerKey := padRight("KEY", keyWidth)
	headerValue := padRight("VALUE", valueWidth)
	if !noColor {
		headerKey = headerStyle.Render(headerKey)
		headerValue = headerStyle.Render(headerValue)
	}
	b.WriteString(headerKey + sep + headerValue + "\n")

	separator := strings.Repeat("─", keyWidth+sepWidth+valueWidth)
	if !noColor {
		separator = separatorStyle.Render(separator)
	}
	b.WriteString(separator + "\n")

	for _, row := range rows {
		var key, val string
		if len(row) > 0 {
			key = row[0]
		}
		if len(row) > 1 {
			val = flattenCell(row[1])
		}
		keyStr := padRight(truncate(key, keyWidth), keyWidth)
		valStr := padRight(truncate(val, valueWidth), valueWidth)
		if !noColor {
			keyStr = keyStyle.Render(keyStr)
			valStr = valueStyle.Render(valStr)
		}
		b.WriteString(strings.TrimRight(keyStr+sep+valStr, " ") + "\n")
	}

	return b.String()
}
