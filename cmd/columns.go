package cmd

import (
	"errors"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/dtx/internal/formatter"
	"github.com/oakwood-commons/dtx/pkg/grid"
)

var columnHeaders = []string{"accessor", "header", "sortable", "filterable", "filter", "searchable", "exported"}

func newColumnsCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "columns [file]",
		Short: "List the columns the table definition yields for the input",
		Long: `Columns loads the input and the table definition and prints one line per
column: its accessor, header, and whether it can be sorted, filtered,
searched and exported. Filter is the effective filter type.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.validate(); err != nil {
				return err
			}
			tbl, err := o.buildTable(cmd, args, tableSetup{})
			if errors.Is(err, errShowHelp) {
				return cmd.Help()
			}
			if err != nil {
				return err
			}
			return o.printColumns(cmd, tbl)
		},
	}
}

func (o *rootOptions) printColumns(cmd *cobra.Command, tbl *grid.Table) error {
	cfg := tbl.Config()
	rows := make([][]any, 0, len(tbl.Columns()))
	for _, c := range tbl.Columns() {
		if c.Accessor == grid.ActionsAccessor {
			continue
		}
		filter := ""
		if c.IsFilterable() {
			filter = string(c.EffectiveFilterType())
		}
		rows = append(rows, []any{
			c.Accessor,
			c.Label(),
			c.IsSortable(),
			c.IsFilterable(),
			filter,
			c.Searchable(),
			!slices.Contains(cfg.ExcludeColumnsFromExport, c.Accessor),
		})
	}

	out := cmd.OutOrStdout()
	if !strings.EqualFold(o.output, formatter.OutputTable) {
		return formatter.WriteRecords(out, o.output, columnHeaders, rows)
	}

	cells := make([][]string, len(rows))
	for i, r := range rows {
		cells[i] = make([]string, len(r))
		for j, v := range r {
			if b, ok := v.(bool); ok {
				cells[i][j] = strconv.FormatBool(b)
			} else {
				cells[i][j] = v.(string)
			}
		}
	}
	width := o.width
	if width <= 0 {
		width = terminalWidth()
	}
	_, err := io.WriteString(out, formatter.RenderColumnarTable(columnHeaders, cells, formatter.ColumnarOptions{
		NoColor:        runSettings(cmd).NoColor,
		TotalWidth:     width,
		RowNumberStyle: formatter.RowNone,
	}))
	return err
}
