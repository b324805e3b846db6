package grid

// ActionsAccessor is the accessor of the synthetic column that hosts row
// actions. It is never searched, filtered, sorted or exported.
const ActionsAccessor = "actions"

// FilterType selects the filter widget and predicate mode for a column.
type FilterType string

const (
	FilterText   FilterType = "text"
	FilterNumber FilterType = "number"
	FilterSelect FilterType = "select"
)

// RenderFunc overrides the displayed text of a cell. It never affects
// search, filtering, sorting or export.
type RenderFunc func(record Record, value any) string

// ExportFunc overrides the exported value of a non-empty cell.
type ExportFunc func(value any, record Record) any

// Column describes one column of the table.
type Column struct {
	// Accessor is a dotted path into the record, e.g. "employee.site.name".
	Accessor string
	// Header is the display label and default export header.
	Header string

	// Sortable and Filterable default to true when nil.
	Sortable   *bool
	Filterable *bool
	FilterType FilterType

	Render          RenderFunc
	ExportFormatter ExportFunc

	// Presentation only.
	Align      string
	Width      int
	MinWidth   int
	FlexWeight float64
	ClassName  string
	CellStyle  map[string]string

	ExcludeFromSearch bool
}

// IsSortable reports whether the column accepts sort requests.
func (c Column) IsSortable() bool {
	if c.Accessor == "" || c.Accessor == ActionsAccessor {
		return false
	}
	return c.Sortable == nil || *c.Sortable
}

// IsFilterable reports whether the column may get a filter widget.
func (c Column) IsFilterable() bool {
	if c.Accessor == "" || c.Accessor == ActionsAccessor {
		return false
	}
	return c.Filterable == nil || *c.Filterable
}

// Searchable reports whether the Search stage looks at this column.
func (c Column) Searchable() bool {
	return c.Accessor != "" && c.Accessor != ActionsAccessor && !c.ExcludeFromSearch
}

// Label returns the header, falling back to the accessor.
func (c Column) Label() string {
	if c.Header != "" {
		return c.Header
	}
	return c.Accessor
}

// EffectiveFilterType returns the filter type, defaulting to text.
func (c Column) EffectiveFilterType() FilterType {
	switch c.FilterType {
	case FilterNumber, FilterSelect:
		return c.FilterType
	default:
		return FilterText
	}
}

// CellText returns what a cell shows: the placeholder for empty values,
// else the column's Render output, else the stringified value.
func (c Column) CellText(record Record, empty EmptyText) string {
	v := Resolve(record, c.Accessor)
	if c.Render != nil {
		return c.Render(record, v)
	}
	if IsEmpty(v) {
		return empty.For(c.Accessor)
	}
	return Stringify(v)
}

// Bool returns a pointer to b, for Column.Sortable and Column.Filterable.
func Bool(b bool) *bool {
	return &b
}
