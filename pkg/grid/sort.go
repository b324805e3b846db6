package grid

import (
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Direction is a sort direction.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// ParseDirection accepts asc/ascending and desc/descending; anything else
// is ascending.
func ParseDirection(s string) Direction {
	switch s {
	case "desc", "descending", "DESC":
		return Descending
	default:
		return Ascending
	}
}

// SortState is the current ordering. An empty Field leaves rows unsorted.
type SortState struct {
	Field     string    `json:"field" yaml:"field"`
	Direction Direction `json:"direction" yaml:"direction"`
}

// Toggle returns the state after a header click on field: the same field
// flips direction, a new field starts ascending.
func (s SortState) Toggle(field string) SortState {
	if s.Field == field {
		if s.Direction == Descending {
			return SortState{Field: field, Direction: Ascending}
		}
		return SortState{Field: field, Direction: Descending}
	}
	return SortState{Field: field, Direction: Ascending}
}

// Sorter orders records with a locale-aware collator. A Sorter is not safe
// for concurrent use.
type Sorter struct {
	collator *collate.Collator
}

// NewSorter builds a Sorter for the given locale. The zero tag means English.
func NewSorter(tag language.Tag) *Sorter {
	if tag == language.Und {
		tag = language.English
	}
	return &Sorter{collator: collate.New(tag)}
}

// Sort orders rows with an English collator.
func Sort(rows []Record, state SortState) []Record {
	return NewSorter(language.English).Sort(rows, state)
}

type keyed struct {
	row Record
	val any
}

// Sort returns a newly ordered copy of rows. rows is returned unchanged when
// no field is set.
func (s *Sorter) Sort(rows []Record, state SortState) []Record {
	if state.Field == "" {
		return rows
	}

	items := make([]keyed, len(rows))
	for i, row := range rows {
		items[i] = keyed{row: row, val: Resolve(row, state.Field)}
	}
	slices.SortStableFunc(items, func(a, b keyed) int {
		return s.Compare(a.val, b.val, state.Direction)
	})

	out := make([]Record, len(items))
	for i, it := range items {
		out[i] = it.row
	}
	return out
}

// Compare orders two resolved values. Empty values rank equal to each other;
// a single empty value goes after the defined one when ascending and before
// it when descending. Two numbers compare numerically, anything else by
// locale collation of the stringified values.
func (s *Sorter) Compare(a, b any, dir Direction) int {
	aEmpty, bEmpty := IsEmpty(a), IsEmpty(b)
	switch {
	case aEmpty && bEmpty:
		return 0
	case aEmpty:
		if dir == Descending {
			return -1
		}
		return 1
	case bEmpty:
		if dir == Descending {
			return 1
		}
		return -1
	}

	var c int
	if isNumber(a) && isNumber(b) {
		c = sign(toFloat(a) - toFloat(b))
	} else {
		c = s.collator.CompareString(Stringify(a), Stringify(b))
	}
	if dir == Descending {
		return -c
	}
	return c
}

func sign(f float64) int {
	switch {
	case f < 0:
		return -1
	case f > 0:
		return 1
	default:
		return 0
	}
}
