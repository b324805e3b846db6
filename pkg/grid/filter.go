package grid

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// FilterValue is one entry of the filter state: a TextFilter, a
// SelectFilter or a RangeFilter.
type FilterValue interface {
	// Active reports whether the entry constrains anything.
	Active() bool
	matches(row Record, accessor string, empty EmptyText) bool
}

// TextFilter keeps records whose value contains the text, ignoring case.
type TextFilter string

// SelectFilter keeps records whose stringified value equals one of the
// options exactly.
type SelectFilter []string

// RangeFilter keeps records whose numeric value lies within [Min, Max].
// A nil bound is open.
type RangeFilter struct {
	Min *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max *float64 `json:"max,omitempty" yaml:"max,omitempty"`
}

// Float returns a pointer to f, for RangeFilter bounds.
func Float(f float64) *float64 {
	return &f
}

func (f TextFilter) Active() bool { return string(f) != "" }

func (f TextFilter) matches(row Record, accessor string, empty EmptyText) bool {
	return containsFold(cellSearchText(row, accessor, empty), strings.ToLower(string(f)))
}

func (f SelectFilter) Active() bool { return len(f) > 0 }

func (f SelectFilter) matches(row Record, accessor string, empty EmptyText) bool {
	want := cellSearchText(row, accessor, empty)
	for _, opt := range f {
		if opt == want {
			return true
		}
	}
	return false
}

func (f RangeFilter) Active() bool { return f.Min != nil || f.Max != nil }

func (f RangeFilter) matches(row Record, accessor string, _ EmptyText) bool {
	n := coerceNumber(Resolve(row, accessor))
	if f.Min != nil && !(n >= *f.Min) {
		return false
	}
	if f.Max != nil && !(n <= *f.Max) {
		return false
	}
	return true
}

// String renders the range as "min:max" with open bounds left blank.
func (f RangeFilter) String() string {
	var lo, hi string
	if f.Min != nil {
		lo = formatFloat(*f.Min)
	}
	if f.Max != nil {
		hi = formatFloat(*f.Max)
	}
	return lo + ":" + hi
}

// ParseRange parses "min:max", "min:" or ":max".
func ParseRange(s string) (RangeFilter, error) {
	lo, hi, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return RangeFilter{}, fmt.Errorf("range %q: expected min:max", s)
	}
	var r RangeFilter
	for _, b := range []struct {
		text string
		dst  **float64
	}{{lo, &r.Min}, {hi, &r.Max}} {
		text := strings.TrimSpace(b.text)
		if text == "" {
			continue
		}
		f, err := strconv.ParseFloat(text, 64)
		if err != nil || math.IsNaN(f) {
			return RangeFilter{}, fmt.Errorf("range %q: invalid bound %q", s, text)
		}
		*b.dst = Float(f)
	}
	return r, nil
}

// Filters maps accessors to filter entries.
type Filters map[string]FilterValue

// Active returns the accessors with an active entry, sorted.
func (f Filters) Active() []string {
	out := make([]string, 0, len(f))
	for acc, v := range f {
		if v != nil && v.Active() {
			out = append(out, acc)
		}
	}
	sort.Strings(out)
	return out
}

// Clone returns a shallow copy of the filter map.
func (f Filters) Clone() Filters {
	out := make(Filters, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Predicate is an externally supplied filter. An error excludes the record.
type Predicate func(row Record) (bool, error)

// ApplyFilters keeps the records that satisfy every active entry and every
// predicate. With nothing active it returns rows itself.
func ApplyFilters(rows []Record, filters Filters, empty EmptyText, preds ...Predicate) []Record {
	active := filters.Active()
	if len(active) == 0 && len(preds) == 0 {
		return rows
	}

	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		if keep(row, filters, active, empty, preds) {
			out = append(out, row)
		}
	}
	return out
}

func keep(row Record, filters Filters, active []string, empty EmptyText, preds []Predicate) bool {
	for _, acc := range active {
		if !filters[acc].matches(row, acc, empty) {
			return false
		}
	}
	for _, p := range preds {
		if p == nil {
			continue
		}
		ok, err := p(row)
		if err != nil || !ok {
			return false
		}
	}
	return true
}

// DistinctValues lists the distinct cell texts of accessor across rows,
// sorted, with empty values reported as their placeholder. These are the
// options a select filter offers.
func DistinctValues(rows []Record, accessor string, empty EmptyText) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, row := range rows {
		v := cellSearchText(row, accessor, empty)
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
