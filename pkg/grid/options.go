package grid

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/text/language"
)

var (
	// ErrNoColumns is returned by New when no column is defined.
	ErrNoColumns = errors.New("at least one column is required")
	// ErrInvalidPageSize is returned for page sizes outside the option set.
	ErrInvalidPageSize = errors.New("invalid page size")
)

// DefaultItemsPerPageOptions is the page-size option set used when none is
// configured.
var DefaultItemsPerPageOptions = []int{5, 10, 25, 50, 100}

const (
	defaultItemsPerPage = 10
	defaultEmptyMessage = "No data available"
	defaultExportButton = "Export"
)

// Config is everything a Table accepts. Data and Columns are required.
type Config struct {
	Data    []Record
	Columns []Column
	Title   string

	ItemsPerPageOptions  []int
	DefaultItemsPerPage  int
	DefaultSortField     string
	DefaultSortDirection Direction

	ShowSearch        bool
	ShowFilters       bool
	FilterableColumns []string
	CustomFilters     []Predicate

	Actions            []Action
	ActionsColumnWidth int

	EmptyValueText      string
	EmptyValuesByColumn map[string]string
	EmptyMessage        string

	ShowAddButton bool
	OnAddClick    func()

	ShowExportButton         bool
	ExportButtonText         string
	ExportFileName           string
	ExportSheetName          string
	ExportAllData            bool
	ExcludeColumnsFromExport []string
	CustomExportHeaders      map[string]string
	ExportDir                string
	OnExportStart            func()
	OnExportComplete         func(path string)
	OnExportError            func(err error)

	OnRowClick func(row Record)
	Loading    bool

	// Locale drives string collation in the Sort stage.
	Locale language.Tag
}

// Option configures the collaborators of a Table.
type Option func(*Table)

// WithLogger sets the logger used for pipeline and export diagnostics.
func WithLogger(lgr logr.Logger) Option {
	return func(t *Table) {
		t.log = lgr
	}
}

// WithSheetWriter replaces the spreadsheet writer.
func WithSheetWriter(w SheetWriter) Option {
	return func(t *Table) {
		t.writer = w
	}
}

// WithAlertFunc sets how export failures are surfaced when the config has
// no OnExportError callback.
func WithAlertFunc(fn func(error)) Option {
	return func(t *Table) {
		t.alert = fn
	}
}

// WithNow overrides the clock used for export file names.
func WithNow(now func() time.Time) Option {
	return func(t *Table) {
		t.now = now
	}
}

func (c *Config) applyDefaults() {
	if len(c.ItemsPerPageOptions) == 0 {
		c.ItemsPerPageOptions = DefaultItemsPerPageOptions
	}
	if c.DefaultItemsPerPage <= 0 {
		c.DefaultItemsPerPage = defaultItemsPerPage
		if !slices.Contains(c.ItemsPerPageOptions, defaultItemsPerPage) {
			c.DefaultItemsPerPage = c.ItemsPerPageOptions[0]
		}
	}
	if c.DefaultSortDirection == "" {
		c.DefaultSortDirection = Ascending
	}
	if c.EmptyValueText == "" {
		c.EmptyValueText = DefaultEmptyText
	}
	if c.EmptyMessage == "" {
		c.EmptyMessage = defaultEmptyMessage
	}
	if c.ExportButtonText == "" {
		c.ExportButtonText = defaultExportButton
	}
}

func (c *Config) validate() error {
	if len(c.Columns) == 0 {
		return ErrNoColumns
	}
	for _, n := range c.ItemsPerPageOptions {
		if n <= 0 {
			return fmt.Errorf("%w: option %d", ErrInvalidPageSize, n)
		}
	}
	if !slices.Contains(c.ItemsPerPageOptions, c.DefaultItemsPerPage) {
		return fmt.Errorf("%w: default %d not in %v", ErrInvalidPageSize, c.DefaultItemsPerPage, c.ItemsPerPageOptions)
	}
	return nil
}

func (c *Config) emptyText() EmptyText {
	return EmptyText{Default: c.EmptyValueText, ByColumn: c.EmptyValuesByColumn}
}
