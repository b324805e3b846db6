package grid

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func people() []Record {
	return []Record{
		map[string]any{"name": "Alice", "age": 30, "dept": "Eng", "site": map[string]any{"city": "Oslo"}},
		map[string]any{"name": "bob", "age": 25, "dept": "Ops", "site": map[string]any{"city": "Lima"}},
		map[string]any{"name": "Carol", "age": nil, "dept": "Eng", "site": nil},
		map[string]any{"name": "dave", "age": 41, "dept": "", "site": map[string]any{"city": "Oslo"}},
	}
}

func peopleColumns() []Column {
	return []Column{
		{Accessor: "name", Header: "Name"},
		{Accessor: "age", Header: "Age", FilterType: FilterNumber},
		{Accessor: "dept", Header: "Dept", FilterType: FilterSelect},
		{Accessor: "site.city", Header: "City"},
	}
}

func names(rows []Record) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = Stringify(Resolve(r, "name"))
	}
	return out
}

func TestSearch(t *testing.T) {
	rows := people()
	cols := peopleColumns()

	t.Run("blank term is identity", func(t *testing.T) {
		got := Search(rows, "   ", cols, EmptyText{})
		assert.Len(t, got, len(rows))
		assert.Equal(t, fmt.Sprintf("%p", rows), fmt.Sprintf("%p", got))
	})

	t.Run("case insensitive across columns", func(t *testing.T) {
		assert.Equal(t, []string{"Alice", "dave"}, names(Search(rows, "OSLO", cols, EmptyText{})))
		assert.Equal(t, []string{"bob"}, names(Search(rows, "B", cols, EmptyText{})))
	})

	t.Run("numbers match as text", func(t *testing.T) {
		assert.Equal(t, []string{"dave"}, names(Search(rows, "41", cols, EmptyText{})))
	})

	t.Run("placeholder text is searchable", func(t *testing.T) {
		got := Search(rows, "n/a", cols, EmptyText{})
		assert.Equal(t, []string{"Carol", "dave"}, names(got))
	})

	t.Run("excluded columns are skipped", func(t *testing.T) {
		cols := peopleColumns()
		cols[3].ExcludeFromSearch = true
		assert.Empty(t, Search(rows, "Lima", cols, EmptyText{}))
	})

	t.Run("result is a subsequence", func(t *testing.T) {
		got := Search(rows, "c", cols, EmptyText{})
		assert.Equal(t, []string{"Alice", "Carol"}, names(got))
	})
}

func TestApplyFilters(t *testing.T) {
	rows := people()

	t.Run("nothing active is identity", func(t *testing.T) {
		got := ApplyFilters(rows, Filters{"name": TextFilter(""), "dept": SelectFilter{}}, EmptyText{})
		assert.Len(t, got, len(rows))
	})

	t.Run("text", func(t *testing.T) {
		got := ApplyFilters(rows, Filters{"name": TextFilter("A")}, EmptyText{})
		assert.Equal(t, []string{"Alice", "Carol", "dave"}, names(got))
	})

	t.Run("select is exact", func(t *testing.T) {
		got := ApplyFilters(rows, Filters{"dept": SelectFilter{"Eng"}}, EmptyText{})
		assert.Equal(t, []string{"Alice", "Carol"}, names(got))

		got = ApplyFilters(rows, Filters{"dept": SelectFilter{"En"}}, EmptyText{})
		assert.Empty(t, got)
	})

	t.Run("select matches placeholder", func(t *testing.T) {
		got := ApplyFilters(rows, Filters{"dept": SelectFilter{"none"}}, EmptyText{Default: "none"})
		assert.Equal(t, []string{"dave"}, names(got))
	})

	t.Run("range", func(t *testing.T) {
		got := ApplyFilters(rows, Filters{"age": RangeFilter{Min: Float(26), Max: Float(41)}}, EmptyText{})
		assert.Equal(t, []string{"Alice", "dave"}, names(got))
	})

	t.Run("range drops non-numeric values", func(t *testing.T) {
		data := []Record{
			map[string]any{"v": 3}, map[string]any{"v": 5}, map[string]any{"v": 8}, map[string]any{"v": "n/a"},
		}
		got := ApplyFilters(data, Filters{"v": RangeFilter{Min: Float(5)}}, EmptyText{})
		vals := make([]any, len(got))
		for i, r := range got {
			vals[i] = Resolve(r, "v")
		}
		assert.Equal(t, []any{5, 8}, vals)
	})

	t.Run("entries combine with and", func(t *testing.T) {
		got := ApplyFilters(rows, Filters{
			"dept": SelectFilter{"Eng", "Ops"},
			"name": TextFilter("o"),
		}, EmptyText{})
		assert.Equal(t, []string{"bob", "Carol"}, names(got))
	})

	t.Run("adding an entry never grows the result", func(t *testing.T) {
		f := Filters{"dept": SelectFilter{"Eng", "Ops"}}
		before := ApplyFilters(rows, f, EmptyText{})
		f["age"] = RangeFilter{Max: Float(29)}
		after := ApplyFilters(rows, f, EmptyText{})
		assert.LessOrEqual(t, len(after), len(before))
		for _, r := range after {
			assert.Contains(t, before, r)
		}
	})

	t.Run("predicate errors exclude the record", func(t *testing.T) {
		boom := func(row Record) (bool, error) {
			if Resolve(row, "name") == "bob" {
				return false, errors.New("boom")
			}
			return true, nil
		}
		got := ApplyFilters(rows, nil, EmptyText{}, boom)
		assert.Equal(t, []string{"Alice", "Carol", "dave"}, names(got))
	})
}

func TestParseRange(t *testing.T) {
	r, err := ParseRange("5:")
	require.NoError(t, err)
	assert.Equal(t, 5.0, *r.Min)
	assert.Nil(t, r.Max)
	assert.Equal(t, "5:", r.String())

	r, err = ParseRange(" :10.5 ")
	require.NoError(t, err)
	assert.Nil(t, r.Min)
	assert.Equal(t, 10.5, *r.Max)

	r, err = ParseRange(":")
	require.NoError(t, err)
	assert.False(t, r.Active())

	_, err = ParseRange("5")
	assert.Error(t, err)
	_, err = ParseRange("a:b")
	assert.Error(t, err)
}

func TestDistinctValues(t *testing.T) {
	got := DistinctValues(people(), "dept", EmptyText{})
	assert.Equal(t, []string{"Eng", "N/A", "Ops"}, got)
}

func TestSort(t *testing.T) {
	rows := people()

	t.Run("no field is identity", func(t *testing.T) {
		assert.Equal(t, names(rows), names(Sort(rows, SortState{})))
	})

	t.Run("numbers ascending with empties last", func(t *testing.T) {
		got := Sort(rows, SortState{Field: "age", Direction: Ascending})
		assert.Equal(t, []string{"bob", "Alice", "dave", "Carol"}, names(got))
	})

	t.Run("numbers descending with empties first", func(t *testing.T) {
		got := Sort(rows, SortState{Field: "age", Direction: Descending})
		assert.Equal(t, []string{"Carol", "dave", "Alice", "bob"}, names(got))
	})

	t.Run("strings use collation", func(t *testing.T) {
		got := Sort(rows, SortState{Field: "name", Direction: Ascending})
		assert.Equal(t, []string{"Alice", "bob", "Carol", "dave"}, names(got))
	})

	t.Run("does not mutate input", func(t *testing.T) {
		before := names(rows)
		_ = Sort(rows, SortState{Field: "name", Direction: Descending})
		assert.Equal(t, before, names(rows))
	})

	t.Run("stable for ties", func(t *testing.T) {
		got := Sort(rows, SortState{Field: "dept", Direction: Ascending})
		assert.Equal(t, []string{"Alice", "Carol", "bob", "dave"}, names(got))
	})

	t.Run("descending reverses distinct non-empty keys", func(t *testing.T) {
		data := []Record{
			map[string]any{"name": "pear"}, map[string]any{"name": "apple"},
			map[string]any{"name": "Fig"}, map[string]any{"name": "kiwi"},
		}
		asc := names(Sort(data, SortState{Field: "name", Direction: Ascending}))
		desc := names(Sort(data, SortState{Field: "name", Direction: Descending}))
		reversed := make([]string, len(desc))
		for i := range desc {
			reversed[i] = desc[len(desc)-1-i]
		}
		if diff := cmp.Diff(asc, reversed); diff != "" {
			t.Errorf("reverse mismatch (-asc +reversed desc):\n%s", diff)
		}
	})
}

func TestCompareAntisymmetric(t *testing.T) {
	s := NewSorter(language.German)
	vals := []any{1, 2.5, "a", "B", "", nil, "ä", 10}
	for _, dir := range []Direction{Ascending, Descending} {
		for _, a := range vals {
			for _, b := range vals {
				assert.Equal(t, s.Compare(a, b, dir), -s.Compare(b, a, dir), "%v vs %v (%s)", a, b, dir)
			}
		}
	}
}

func TestSortStateToggle(t *testing.T) {
	s := SortState{}.Toggle("name")
	assert.Equal(t, SortState{Field: "name", Direction: Ascending}, s)
	s = s.Toggle("name")
	assert.Equal(t, Descending, s.Direction)
	s = s.Toggle("name")
	assert.Equal(t, Ascending, s.Direction)
	s = s.Toggle("age")
	assert.Equal(t, SortState{Field: "age", Direction: Ascending}, s)

	assert.Equal(t, Descending, ParseDirection("desc"))
	assert.Equal(t, Ascending, ParseDirection("sideways"))
}
