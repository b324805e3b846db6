package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/dtx/internal/config"
	"github.com/oakwood-commons/dtx/internal/formatter"
	"github.com/oakwood-commons/dtx/internal/limiter"
	"github.com/oakwood-commons/dtx/internal/ui"
	"github.com/oakwood-commons/dtx/pkg/grid"
	"github.com/oakwood-commons/dtx/pkg/loader"
	"github.com/oakwood-commons/dtx/pkg/logger"
	"github.com/oakwood-commons/dtx/pkg/settings"
)

// errShowHelp is returned when no input is provided and help should be shown.
var errShowHelp = errors.New("no input provided")

// usageError marks errors caused by bad flags or arguments.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...any) error {
	return usageError{fmt.Errorf(format, args...)}
}

// ExitCode maps an Execute error to a process exit code: 0 on success, 2 for
// usage errors, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ue usageError
	if errors.As(err, &ue) {
		return 2
	}
	return 1
}

var rowStyles = []string{formatter.RowNone, formatter.RowIndex, formatter.RowNumbered, formatter.RowBullet}

// rootOptions holds the flags shared by the root command and its
// subcommands.
type rootOptions struct {
	tablePath   string
	format      string
	recordsPath string
	rawCSV      bool
	window      limiter.Config

	search string
	text   *filterFlag
	in     *filterFlag
	rng    *filterFlag
	where  []string

	sortField string
	desc      bool
	page      int
	perPage   int

	output   string
	noColor  bool
	width    int
	rowStyle string

	debug   bool
	logFile string

	interactive bool
}

func newRootOptions() *rootOptions {
	return &rootOptions{
		text: newTextFilterFlag(),
		in:   newSelectFilterFlag(),
		rng:  newRangeFilterFlag(),
	}
}

// NewRootCmd builds the dtx command tree.
func NewRootCmd() *cobra.Command {
	o := newRootOptions()
	root := &cobra.Command{
		Use:   settings.CliBinaryName + " [file]",
		Short: "Search, filter, sort, page and export tabular records",
		Long: `dtx loads a list of records (JSON, NDJSON, YAML, TOML or CSV) from a file or
stdin and shows it as a table: one page at a time, narrowed by a search term
and per-column filters, sorted by any sortable column.

A table definition (YAML) names the columns, page sizes, export settings and
row actions. It is read from --table, else $XDG_CONFIG_HOME/dtx/table.yaml.
Without one, every top-level field becomes a column.`,
		Example: `  dtx people.json
  dtx people.json --search ada --sort name --desc
  dtx people.csv --in dept=Eng,Ops --range age=30:40 -o json
  kubectl get pods -o json | dtx --records-path items --where 'row.status.phase != "Running"'
  dtx people.yaml -i
  dtx export people.json --all --out-dir /tmp`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return o.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, args)
		},
	}
	o.bindFlags(root)
	root.Flags().BoolVarP(&o.interactive, "interactive", "i", false, "browse the table in an interactive TUI")

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})
	root.Version = cliVersionString()
	root.SetVersionTemplate("{{.Version}}\n")

	root.AddCommand(
		newExportCmd(o),
		newColumnsCmd(o),
		newFunctionsCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().ExecuteContext(context.Background())
}

func (o *rootOptions) bindFlags(c *cobra.Command) {
	f := c.PersistentFlags()
	f.StringVarP(&o.tablePath, "table", "t", "", "path to a table definition (YAML)")
	f.StringVar(&o.format, "format", "", "input format: json|ndjson|yaml|toml|csv (default: detect)")
	f.StringVar(&o.recordsPath, "records-path", "", "dotted path to the record list inside the document, e.g. data.items")
	f.BoolVar(&o.rawCSV, "raw-csv", false, "keep CSV cells as strings")
	f.IntVar(&o.window.Limit, "limit", 0, "load at most this many input records (0 = all)")
	f.IntVar(&o.window.Offset, "offset", 0, "skip the first N input records")
	f.IntVar(&o.window.Tail, "tail", 0, "load only the last N input records; ignores --offset")

	f.StringVar(&o.search, "search", "", "keep rows where any searchable column contains the term (case-insensitive)")
	f.Var(o.text, "filter", "text filter on a column, accessor=text (repeatable)")
	f.Var(o.in, "in", "select filter on a column, accessor=a,b (repeatable)")
	f.Var(o.rng, "range", "numeric range filter on a column, accessor=min:max; either bound may be empty (repeatable)")
	f.StringArrayVar(&o.where, "where", nil, "CEL predicate over row, e.g. 'row.age >= 30' (repeatable)")

	f.StringVar(&o.sortField, "sort", "", "sort by this column accessor")
	f.BoolVar(&o.desc, "desc", false, "sort descending")
	f.IntVar(&o.page, "page", 1, "page to show")
	f.IntVar(&o.perPage, "per-page", 0, "rows per page; must be one of the table's page sizes")

	f.StringVarP(&o.output, "output", "o", formatter.OutputTable, "output format: "+strings.Join(formatter.OutputFormats, "|"))
	f.BoolVar(&o.noColor, "no-color", false, "disable color output")
	f.IntVar(&o.width, "width", 0, "output width in columns (default: terminal width)")
	f.StringVar(&o.rowStyle, "row-style", formatter.RowNone, "row number style: "+strings.Join(rowStyles, "|"))

	f.BoolVar(&o.debug, "debug", false, "log debug details to stderr")
	f.StringVar(&o.logFile, "log-file", "", "also write the JSON log to this file (rotated)")
}

// setup initializes logging and run settings and stores both on the
// command context.
func (o *rootOptions) setup(cmd *cobra.Command) error {
	var level int8
	if o.debug {
		level = -1
	}
	var lopts []logger.Option
	if o.logFile != "" {
		lopts = append(lopts, logger.WithFile(o.logFile))
	}
	lgr := logger.WithValues(logger.Get(level, lopts...),
		logger.RootCommandKey, settings.CliBinaryName,
		logger.SubCommandKey, cmd.Name())

	run := settings.NewCliParams()
	run.MinLogLevel = level
	run.LogFile = o.logFile
	run.TablePath = config.ResolvePath(o.tablePath)
	run.NoColor = o.noColor || os.Getenv("NO_COLOR") != ""
	run.Input = settings.InputSettings{Format: o.format, RecordsPath: o.recordsPath}

	ctx := logger.WithLogger(cmd.Context(), lgr)
	ctx = settings.IntoContext(ctx, run)
	cmd.SetContext(ctx)
	return nil
}

func runSettings(cmd *cobra.Command) *settings.Run {
	if run, ok := settings.FromContext(cmd.Context()); ok {
		return run
	}
	return settings.NewCliParams()
}

func (o *rootOptions) validate() error {
	if !slices.Contains(formatter.OutputFormats, strings.ToLower(o.output)) {
		return usageErrorf("unknown output format %q (expected one of %s)", o.output, strings.Join(formatter.OutputFormats, ", "))
	}
	if !slices.Contains(rowStyles, o.rowStyle) {
		return usageErrorf("unknown row style %q (expected one of %s)", o.rowStyle, strings.Join(rowStyles, ", "))
	}
	if o.page < 1 {
		return usageErrorf("--page must be at least 1, got %d", o.page)
	}
	if o.perPage < 0 {
		return usageErrorf("--per-page must be positive, got %d", o.perPage)
	}
	if err := o.window.Validate(); err != nil {
		return usageError{err}
	}
	return nil
}

func (o *rootOptions) run(cmd *cobra.Command, args []string) error {
	if err := o.validate(); err != nil {
		return err
	}
	queue := &ui.ActionQueue{}
	tbl, err := o.buildTable(cmd, args, tableSetup{actions: o.interactive, onAction: queue.Handle})
	if errors.Is(err, errShowHelp) {
		return cmd.Help()
	}
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	run := runSettings(cmd)
	if o.interactive {
		progOpts, cleanup := getProgramOptions()
		defer cleanup()
		return ui.Run(ctx, tbl, ui.Options{
			NoColor: run.NoColor,
			Actions: queue,
			Logger:  *logger.FromContext(ctx),
		}, progOpts...)
	}
	return o.print(cmd, tbl, run.NoColor)
}

// tableSetup varies buildTable per command.
type tableSetup struct {
	actions  bool
	onAction func(config.ActionSpec, grid.Record)
	// configure adjusts the engine configuration before the table is built.
	configure func(*grid.Config)
}

// buildTable loads the input and the table definition and returns a table
// with the command-line search, filters, sort and page applied.
func (o *rootOptions) buildTable(cmd *cobra.Command, args []string, setup tableSetup) (*grid.Table, error) {
	ctx := cmd.Context()
	lgr := *logger.FromContext(ctx)
	run := runSettings(cmd)

	format, err := loader.ParseFormat(o.format)
	if err != nil {
		return nil, usageError{err}
	}
	ds, err := o.load(cmd, args, loader.Options{
		Format:      format,
		RecordsPath: o.recordsPath,
		RawCSV:      o.rawCSV,
		Logger:      lgr,
	})
	if err != nil {
		return nil, err
	}
	if o.window.IsActive() {
		loaded := len(ds.Records)
		ds.Records = limiter.Apply(o.window, ds.Records)
		lgr.V(1).Info("input window applied", "loaded", loaded, "kept", len(ds.Records))
	}
	lgr.V(1).Info("input loaded", logger.RecordsKey, len(ds.Records), "format", string(ds.Format))

	def, err := config.Load(run.TablePath)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Build(def, config.BuildOptions{
		Fields:   ds.Fields,
		Where:    o.where,
		Actions:  setup.actions,
		OnAction: setup.onAction,
		Logger:   lgr,
	})
	if err != nil {
		return nil, usageError{err}
	}
	cfg.Data = ds.Records
	if o.sortField != "" {
		cfg.DefaultSortField = o.sortField
	}
	if o.desc {
		cfg.DefaultSortDirection = grid.Descending
	}
	if setup.configure != nil {
		setup.configure(&cfg)
	}

	tbl, err := grid.New(cfg, grid.WithLogger(lgr))
	if err != nil {
		return nil, err
	}
	if o.sortField != "" {
		col, ok := tbl.Column(o.sortField)
		if !ok {
			return nil, usageErrorf("--sort: unknown column %q", o.sortField)
		}
		if !col.IsSortable() {
			return nil, usageErrorf("--sort: column %q is not sortable", o.sortField)
		}
	}

	tbl.SetSearch(o.search)
	for _, f := range []*filterFlag{o.text, o.in, o.rng} {
		if err := f.apply(tbl); err != nil {
			return nil, usageError{err}
		}
	}
	if o.perPage > 0 {
		if err := tbl.SetPerPage(o.perPage); err != nil {
			return nil, usageErrorf("--per-page %d: %w (options: %v)", o.perPage, err, tbl.PageSizes())
		}
	}
	tbl.SetPage(o.page)
	return tbl, nil
}

// load reads the file argument, else stdin. A terminal on stdin with no
// argument means there is nothing to read.
func (o *rootOptions) load(cmd *cobra.Command, args []string, opts loader.Options) (loader.Dataset, error) {
	if len(args) == 1 {
		return loader.LoadFile(args[0], opts)
	}
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && f == os.Stdin && !stdinIsPiped() {
		return loader.Dataset{}, errShowHelp
	}
	return loader.Load(in, opts)
}

// pageOnly reports whether machine-readable output is limited to the
// current page.
func (o *rootOptions) pageOnly(cmd *cobra.Command) bool {
	fl := cmd.Flags()
	return fl.Changed("page") || fl.Changed("per-page")
}

func (o *rootOptions) print(cmd *cobra.Command, tbl *grid.Table, noColor bool) error {
	out := cmd.OutOrStdout()
	v := tbl.View()
	if strings.EqualFold(o.output, formatter.OutputTable) {
		width := o.width
		if width <= 0 {
			width = terminalWidth()
		}
		_, err := io.WriteString(out, formatter.RenderPage(tbl, v, formatter.PageOptions{
			NoColor:        noColor,
			TotalWidth:     width,
			RowNumberStyle: o.rowStyle,
		}))
		return err
	}

	rows := v.Sorted
	if o.pageOnly(cmd) {
		rows = v.Rows
	}
	headers, values := recordValues(tbl, rows)
	return formatter.WriteRecords(out, o.output, headers, values)
}

// recordValues projects rows onto the data columns. Values are raw, nil when
// empty; render-only columns contribute their display text.
func recordValues(tbl *grid.Table, rows []grid.Record) ([]string, [][]any) {
	var cols []grid.Column
	for _, c := range tbl.Columns() {
		if c.Accessor != grid.ActionsAccessor {
			cols = append(cols, c)
		}
	}
	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = c.Accessor
		if headers[i] == "" {
			headers[i] = c.Label()
		}
	}

	values := make([][]any, len(rows))
	for r, rec := range rows {
		vals := make([]any, len(cols))
		for i, c := range cols {
			if c.Accessor == "" {
				vals[i] = tbl.Cell(rec, c)
				continue
			}
			if raw := grid.Resolve(rec, c.Accessor); !grid.IsEmpty(raw) {
				vals[i] = raw
			}
		}
		values[r] = vals
	}
	return headers, values
}
