package grid

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	maxSheetNameLen = 31
	maxColWidth     = 255
)

// ExcelWriter writes a Sheet as a single-sheet .xlsx workbook.
type ExcelWriter struct{}

// WriteSheet implements SheetWriter.
func (ExcelWriter) WriteSheet(ctx context.Context, path string, sheet Sheet) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	name := cleanSheetName(sheet.Name)
	if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for i := range sheet.Rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &sheet.Rows[i]); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}

	for i, w := range sheet.Widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(name, col, col, min(w, maxColWidth)); err != nil {
			return fmt.Errorf("column %s width: %w", col, err)
		}
	}

	return f.SaveAs(path)
}

// cleanSheetName strips characters Excel rejects in sheet names and caps the
// length at 31 runes.
func cleanSheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return -1
		}
		return r
	}, name)
	name = strings.Trim(strings.TrimSpace(name), "'")
	if name == "" {
		return defaultSheetName
	}
	if r := []rune(name); len(r) > maxSheetNameLen {
		name = string(r[:maxSheetNameLen])
	}
	return name
}
