// Package config reads table definitions: the YAML file that tells dtx which
// columns to show and how to page, sort, export and act on records.
package config

// File is a table definition. Every section is optional; unset values keep
// the embedded defaults.
type File struct {
	Title   string       `yaml:"title"`
	Locale  string       `yaml:"locale"`
	Columns []ColumnSpec `yaml:"columns"`
	Search  SearchSpec   `yaml:"search"`
	Paging  PagingSpec   `yaml:"paging"`
	Sort    SortSpec     `yaml:"sort"`
	Empty   EmptySpec    `yaml:"empty"`
	Export  ExportSpec   `yaml:"export"`
	Actions []ActionSpec `yaml:"actions"`
}

// ColumnSpec describes one column.
type ColumnSpec struct {
	Accessor string `yaml:"accessor"`
	Header   string `yaml:"header"`
	// Filter is text, number or select.
	Filter     string `yaml:"filter"`
	Sortable   *bool  `yaml:"sortable"`
	Filterable *bool  `yaml:"filterable"`
	// Searchable set to false excludes the column from the search box.
	Searchable *bool `yaml:"searchable"`

	Align    string  `yaml:"align"`
	Width    int     `yaml:"width"`
	MinWidth int     `yaml:"min_width"`
	Flex     float64 `yaml:"flex"`

	EmptyText string `yaml:"empty_text"`

	// Render is a CEL expression producing the displayed text; row and value
	// are bound.
	Render string `yaml:"render"`
	// ExportValue is a CEL expression producing the exported value of a
	// non-empty cell.
	ExportValue  string `yaml:"export_value"`
	ExportHeader string `yaml:"export_header"`
	// Export set to false leaves the column out of spreadsheets.
	Export *bool `yaml:"export"`
}

// SearchSpec toggles the search box and per-column filters.
type SearchSpec struct {
	Show        *bool    `yaml:"show"`
	ShowFilters *bool    `yaml:"show_filters"`
	Filterable  []string `yaml:"filterable"`
}

// PagingSpec configures page sizes.
type PagingSpec struct {
	PerPage int   `yaml:"per_page"`
	Options []int `yaml:"options"`
}

// SortSpec is the initial sort.
type SortSpec struct {
	Field     string `yaml:"field"`
	Direction string `yaml:"direction"`
}

// EmptySpec configures placeholders.
type EmptySpec struct {
	Text    string `yaml:"text"`
	Message string `yaml:"message"`
}

// ExportSpec configures spreadsheet export.
type ExportSpec struct {
	Enabled  *bool  `yaml:"enabled"`
	Button   string `yaml:"button"`
	FileName string `yaml:"file_name"`
	Sheet    string `yaml:"sheet"`
	AllData  bool   `yaml:"all_data"`
	Dir      string `yaml:"dir"`
}

// Action kinds.
const (
	ActionView = "view"
	ActionCopy = "copy"
)

// ActionSpec describes a per-row action.
type ActionSpec struct {
	Label string `yaml:"label"`
	Icon  string `yaml:"icon"`
	// Kind is view (show the record) or copy (copy Field, or the whole
	// record as JSON, to the clipboard).
	Kind  string `yaml:"kind"`
	Field string `yaml:"field"`
	// DisabledWhen is a CEL predicate over row.
	DisabledWhen string `yaml:"disabled_when"`
}
