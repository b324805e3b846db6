package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/dtx/pkg/grid"
)

var errExportDisabled = errors.New("export is disabled by the table definition")

type exportOptions struct {
	all     bool
	exclude []string
	outDir  string
	name    string
	sheet   string
}

func newExportCmd(o *rootOptions) *cobra.Command {
	e := &exportOptions{}
	c := &cobra.Command{
		Use:   "export [file]",
		Short: "Write the matching records to an .xlsx spreadsheet",
		Long: `Export writes the searched, filtered and sorted records (or every loaded
record with --all) to a single-sheet .xlsx workbook and prints its path.
The file is named <name>_<UTC timestamp>.xlsx.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.run(cmd, args, o)
		},
	}
	f := c.Flags()
	f.BoolVar(&e.all, "all", false, "export every loaded record, ignoring search and filters")
	f.StringSliceVar(&e.exclude, "exclude", nil, "column accessors to leave out (repeatable)")
	f.StringVar(&e.outDir, "out-dir", "", "directory to write into (default: current directory)")
	f.StringVar(&e.name, "name", "", "file name stem (default: export)")
	f.StringVar(&e.sheet, "sheet", "", "sheet name (default: the table title)")
	return c
}

func (e *exportOptions) configure(cmd *cobra.Command) func(*grid.Config) {
	return func(cfg *grid.Config) {
		if cmd.Flags().Changed("all") {
			cfg.ExportAllData = e.all
		}
		cfg.ExcludeColumnsFromExport = append(cfg.ExcludeColumnsFromExport, e.exclude...)
		if e.outDir != "" {
			cfg.ExportDir = e.outDir
		}
		if e.name != "" {
			cfg.ExportFileName = e.name
		}
		if e.sheet != "" {
			cfg.ExportSheetName = e.sheet
		}
	}
}

func (e *exportOptions) run(cmd *cobra.Command, args []string, o *rootOptions) error {
	if err := o.validate(); err != nil {
		return err
	}
	tbl, err := o.buildTable(cmd, args, tableSetup{configure: e.configure(cmd)})
	if errors.Is(err, errShowHelp) {
		return cmd.Help()
	}
	if err != nil {
		return err
	}
	cfg := tbl.Config()
	if !cfg.ShowExportButton {
		return errExportDisabled
	}
	if cfg.ExportDir != "" {
		if err := os.MkdirAll(cfg.ExportDir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	path, err := tbl.Export(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
