package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-logr/logr"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/oakwood-commons/dtx/internal/cel"
	"github.com/oakwood-commons/dtx/pkg/grid"
)

var (
	filterTypes = []string{"", string(grid.FilterText), string(grid.FilterNumber), string(grid.FilterSelect)}
	alignments  = []string{"", "left", "right", "center"}
	directions  = []string{"", "asc", "ascending", "desc", "descending"}
	actionKinds = []string{ActionView, ActionCopy}
)

// Validate checks the definition for values the engine cannot use.
func (f File) Validate() error {
	var errs []error
	seen := make(map[string]bool, len(f.Columns))
	for i, c := range f.Columns {
		name := c.Accessor
		if name == "" {
			name = fmt.Sprintf("#%d", i+1)
		}
		switch {
		case c.Accessor == "" && c.Render == "":
			errs = append(errs, fmt.Errorf("column %s: accessor or render is required", name))
		case c.Accessor != "" && seen[c.Accessor]:
			errs = append(errs, fmt.Errorf("column %s: duplicate accessor", name))
		}
		seen[c.Accessor] = true
		if !slices.Contains(filterTypes, c.Filter) {
			errs = append(errs, fmt.Errorf("column %s: unknown filter %q", name, c.Filter))
		}
		if !slices.Contains(alignments, c.Align) {
			errs = append(errs, fmt.Errorf("column %s: unknown align %q", name, c.Align))
		}
		if c.Width < 0 || c.MinWidth < 0 {
			errs = append(errs, fmt.Errorf("column %s: widths must not be negative", name))
		}
	}

	for _, n := range f.Paging.Options {
		if n <= 0 {
			errs = append(errs, fmt.Errorf("paging: option %d must be positive", n))
		}
	}
	if f.Paging.PerPage < 0 {
		errs = append(errs, fmt.Errorf("paging: per_page %d must be positive", f.Paging.PerPage))
	} else if f.Paging.PerPage > 0 {
		options := f.Paging.Options
		if len(options) == 0 {
			options = grid.DefaultItemsPerPageOptions
		}
		if !slices.Contains(options, f.Paging.PerPage) {
			errs = append(errs, fmt.Errorf("paging: per_page %d is not one of %v", f.Paging.PerPage, options))
		}
	}
	if !slices.Contains(directions, strings.ToLower(f.Sort.Direction)) {
		errs = append(errs, fmt.Errorf("sort: unknown direction %q", f.Sort.Direction))
	}
	if f.Locale != "" {
		if _, err := language.Parse(f.Locale); err != nil {
			errs = append(errs, fmt.Errorf("locale %q: %w", f.Locale, err))
		}
	}
	for i, a := range f.Actions {
		if a.Label == "" {
			errs = append(errs, fmt.Errorf("action #%d: label is required", i+1))
		}
		if !slices.Contains(actionKinds, a.Kind) {
			errs = append(errs, fmt.Errorf("action %q: unknown kind %q", a.Label, a.Kind))
		}
	}
	return errors.Join(errs...)
}

// BuildOptions supplies what a definition cannot carry.
type BuildOptions struct {
	// Fields are the record keys used to infer columns when the definition
	// has none.
	Fields []string
	// Where holds CEL predicates AND-ed after the column filters.
	Where []string
	// Actions enables the per-row actions of the definition.
	Actions  bool
	OnAction func(spec ActionSpec, row grid.Record)

	Evaluator *cel.Evaluator
	Logger    logr.Logger
}

// Build turns a definition into an engine configuration.
func Build(f File, opts BuildOptions) (grid.Config, error) {
	if err := f.Validate(); err != nil {
		return grid.Config{}, err
	}
	b := builder{opts: opts, log: opts.Logger}
	if b.log.GetSink() == nil {
		b.log = logr.Discard()
	}

	specs := f.Columns
	if len(specs) == 0 {
		specs = InferColumns(opts.Fields)
	}

	cfg := grid.Config{
		Title:                f.Title,
		ItemsPerPageOptions:  f.Paging.Options,
		DefaultItemsPerPage:  f.Paging.PerPage,
		DefaultSortField:     f.Sort.Field,
		DefaultSortDirection: grid.ParseDirection(strings.ToLower(f.Sort.Direction)),
		ShowSearch:           deref(f.Search.Show, true),
		ShowFilters:          deref(f.Search.ShowFilters, true),
		FilterableColumns:    f.Search.Filterable,
		EmptyValueText:       f.Empty.Text,
		EmptyMessage:         f.Empty.Message,
		ShowExportButton:     deref(f.Export.Enabled, true),
		ExportButtonText:     f.Export.Button,
		ExportFileName:       f.Export.FileName,
		ExportSheetName:      f.Export.Sheet,
		ExportAllData:        f.Export.AllData,
		ExportDir:            f.Export.Dir,
		EmptyValuesByColumn:  map[string]string{},
		CustomExportHeaders:  map[string]string{},
	}
	if f.Locale != "" {
		cfg.Locale = language.Make(f.Locale)
	}
	empty := grid.EmptyText{Default: f.Empty.Text, ByColumn: cfg.EmptyValuesByColumn}

	for _, spec := range specs {
		col, err := b.column(spec, empty)
		if err != nil {
			return grid.Config{}, err
		}
		cfg.Columns = append(cfg.Columns, col)
		if spec.EmptyText != "" {
			cfg.EmptyValuesByColumn[spec.Accessor] = spec.EmptyText
		}
		if spec.ExportHeader != "" {
			cfg.CustomExportHeaders[spec.Accessor] = spec.ExportHeader
		}
		if !deref(spec.Export, true) {
			cfg.ExcludeColumnsFromExport = append(cfg.ExcludeColumnsFromExport, spec.Accessor)
		}
	}

	for _, expr := range opts.Where {
		x, err := b.compile(expr)
		if err != nil {
			return grid.Config{}, fmt.Errorf("where %q: %w", expr, err)
		}
		cfg.CustomFilters = append(cfg.CustomFilters, x.Match)
	}

	if opts.Actions {
		for _, spec := range f.Actions {
			a, err := b.action(spec)
			if err != nil {
				return grid.Config{}, err
			}
			cfg.Actions = append(cfg.Actions, a)
		}
	}
	return cfg, nil
}

type builder struct {
	opts BuildOptions
	log  logr.Logger
}

func (b *builder) compile(expr string) (*cel.Expression, error) {
	if b.opts.Evaluator == nil {
		ev, err := cel.NewEvaluator()
		if err != nil {
			return nil, err
		}
		b.opts.Evaluator = ev
	}
	return b.opts.Evaluator.Compile(expr)
}

func (b *builder) column(spec ColumnSpec, empty grid.EmptyText) (grid.Column, error) {
	col := grid.Column{
		Accessor:          spec.Accessor,
		Header:            spec.Header,
		Sortable:          spec.Sortable,
		Filterable:        spec.Filterable,
		FilterType:        grid.FilterType(spec.Filter),
		Align:             spec.Align,
		Width:             spec.Width,
		MinWidth:          spec.MinWidth,
		FlexWeight:        spec.Flex,
		ExcludeFromSearch: !deref(spec.Searchable, true),
	}
	if col.Header == "" {
		col.Header = HeaderFor(spec.Accessor)
	}

	if spec.Render != "" {
		x, err := b.compile(spec.Render)
		if err != nil {
			return col, fmt.Errorf("column %s: render: %w", col.Label(), err)
		}
		lgr := b.log.WithValues("column", col.Label())
		col.Render = func(record grid.Record, value any) string {
			out, err := x.EvalValue(record, value)
			if err != nil {
				lgr.V(1).Info("render expression failed", "error", err.Error())
				return empty.For(spec.Accessor)
			}
			if grid.IsEmpty(out) {
				return empty.For(spec.Accessor)
			}
			return grid.Stringify(out)
		}
	}

	if spec.ExportValue != "" {
		x, err := b.compile(spec.ExportValue)
		if err != nil {
			return col, fmt.Errorf("column %s: export_value: %w", col.Label(), err)
		}
		lgr := b.log.WithValues("column", col.Label())
		col.ExportFormatter = func(value any, record grid.Record) any {
			out, err := x.EvalValue(record, value)
			if err != nil {
				lgr.V(1).Info("export expression failed; keeping raw value", "error", err.Error())
				return value
			}
			return out
		}
	}
	return col, nil
}

func (b *builder) action(spec ActionSpec) (grid.Action, error) {
	a := grid.Action{Label: spec.Label, Icon: spec.Icon, ClassName: spec.Kind}
	if spec.DisabledWhen != "" {
		x, err := b.compile(spec.DisabledWhen)
		if err != nil {
			return a, fmt.Errorf("action %q: disabled_when: %w", spec.Label, err)
		}
		lgr := b.log.WithValues("action", spec.Label)
		a.IsDisabled = func(row grid.Record) bool {
			disabled, err := x.Match(row)
			if err != nil {
				lgr.V(1).Info("disabled_when failed; disabling", "error", err.Error())
				return true
			}
			return disabled
		}
	}
	onAction := b.opts.OnAction
	a.OnClick = func(row grid.Record) {
		if onAction != nil {
			onAction(spec, row)
		}
	}
	return a, nil
}

// InferColumns builds one plain column per field.
func InferColumns(fields []string) []ColumnSpec {
	out := make([]ColumnSpec, 0, len(fields))
	for _, f := range fields {
		out = append(out, ColumnSpec{Accessor: f})
	}
	return out
}

// HeaderFor derives a header from an accessor: "site.city_name" becomes
// "Site City Name".
func HeaderFor(accessor string) string {
	words := strings.FieldsFunc(accessor, func(r rune) bool {
		return r == '.' || r == '_' || r == '-'
	})
	return cases.Title(language.English).String(strings.Join(words, " "))
}

func deref(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
