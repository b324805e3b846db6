package formatter

import (
	"strings"
	"testing"

	"charm.land/lipgloss/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lines(s string) []string {
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func TestRenderColumnarTable(t *testing.T) {
	t.Run("basic render", func(t *testing.T) {
		out := RenderColumnarTable([]string{"name", "age"}, [][]string{
			{"Alice", "30"},
			{"Bob", "25"},
		}, ColumnarOptions{NoColor: true, RowNumberStyle: RowNumbered})

		l := lines(out)
		require.Len(t, l, 4)
		assert.Equal(t, "#    name   age", l[0])
		assert.Equal(t, strings.Repeat("─", 15), l[1])
		assert.Equal(t, "1    Alice  30 ", l[2])
		assert.Equal(t, "2    Bob    25 ", l[3])
	})

	t.Run("row offset continues numbering", func(t *testing.T) {
		out := RenderColumnarTable([]string{"v"}, [][]string{{"a"}, {"b"}}, ColumnarOptions{
			NoColor:        true,
			RowNumberStyle: RowNumbered,
			RowOffset:      10,
		})
		l := lines(out)
		assert.True(t, strings.HasPrefix(l[2], "11"))
		assert.True(t, strings.HasPrefix(l[3], "12"))
	})

	t.Run("index style", func(t *testing.T) {
		out := RenderColumnarTable([]string{"value"}, [][]string{{"a"}, {"b"}}, ColumnarOptions{
			NoColor:        true,
			RowNumberStyle: RowIndex,
			RowOffset:      5,
		})
		assert.Contains(t, out, "[5]")
		assert.Contains(t, out, "[6]")
	})

	t.Run("bullet style", func(t *testing.T) {
		out := RenderColumnarTable([]string{"item"}, [][]string{{"first"}}, ColumnarOptions{
			NoColor:        true,
			RowNumberStyle: RowBullet,
		})
		assert.Contains(t, out, "•")
	})

	t.Run("no row numbers", func(t *testing.T) {
		out := RenderColumnarTable([]string{"name"}, [][]string{{"Alice"}}, ColumnarOptions{
			NoColor:        true,
			RowNumberStyle: RowNone,
		})
		assert.NotContains(t, out, "#")
		assert.Equal(t, []string{"name ", "─────", "Alice"}, lines(out))
	})

	t.Run("header only without rows", func(t *testing.T) {
		out := RenderColumnarTable([]string{"a"}, nil, ColumnarOptions{NoColor: true, RowNumberStyle: RowNone})
		assert.Len(t, lines(out), 2)
	})

	t.Run("no headers", func(t *testing.T) {
		assert.Empty(t, RenderColumnarTable(nil, nil, ColumnarOptions{}))
	})

	t.Run("alignment", func(t *testing.T) {
		out := RenderColumnarTable([]string{"n", "title"}, [][]string{{"7", "ab"}, {"123", "abcde"}}, ColumnarOptions{
			NoColor:        true,
			RowNumberStyle: RowNone,
			Hints:          []ColumnHint{{Align: "right"}, {Align: "center"}},
		})
		l := lines(out)
		assert.Equal(t, "  7   ab  ", l[2])
		assert.Equal(t, "123  abcde", l[3])
	})

	t.Run("newlines are flattened", func(t *testing.T) {
		out := RenderColumnarTable([]string{"note"}, [][]string{{"a\nb"}}, ColumnarOptions{NoColor: true, RowNumberStyle: RowNone})
		assert.Contains(t, out, `a\nb`)
		assert.Len(t, lines(out), 3)
	})

	t.Run("truncates to the total width", func(t *testing.T) {
		out := RenderColumnarTable([]string{"text"}, [][]string{{strings.Repeat("x", 30)}}, ColumnarOptions{
			NoColor:        true,
			RowNumberStyle: RowNone,
			TotalWidth:     20,
		})
		l := lines(out)
		assert.True(t, strings.HasSuffix(l[2], "..."))
		assert.Equal(t, 20, lipgloss.Width(l[2]))
	})

	t.Run("color", func(t *testing.T) {
		out := RenderColumnarTable([]string{"name"}, [][]string{{"Alice"}}, ColumnarOptions{RowNumberStyle: RowNumbered})
		assert.Contains(t, out, "Alice")
		assert.Contains(t, out, "name")
	})
}

func TestNaturalWidth(t *testing.T) {
	headers := []string{"name", "age"}
	rows := [][]string{{"Alice", "30"}}

	assert.Equal(t, 10, NaturalWidth(headers, rows, ColumnarOptions{RowNumberStyle: RowNone}))
	assert.Equal(t, 15, NaturalWidth(headers, rows, ColumnarOptions{RowNumberStyle: RowNumbered}))
	assert.Equal(t, 7, NaturalWidth(headers, rows, ColumnarOptions{
		RowNumberStyle: RowNone,
		Hints:          []ColumnHint{{MaxWidth: 2}},
	}))
	assert.Zero(t, NaturalWidth(nil, rows, ColumnarOptions{}))
}

func TestCalculateColumnWidths(t *testing.T) {
	t.Run("fits content", func(t *testing.T) {
		widths := calculateColumnWidths([]string{"name", "age"}, [][]string{{"Alice", "30"}}, 100, nil)
		assert.Equal(t, []int{5, 3}, widths)
	})

	t.Run("max width hint caps", func(t *testing.T) {
		widths := calculateColumnWidths([]string{"description"}, [][]string{{strings.Repeat("d", 50)}}, 100,
			[]ColumnHint{{MaxWidth: 10}})
		assert.Equal(t, []int{10}, widths)
	})

	t.Run("proportional shrink without hints", func(t *testing.T) {
		long := strings.Repeat("x", 60)
		widths := calculateColumnWidths([]string{"a", "b"}, [][]string{{long, long}}, 50, nil)
		assert.Equal(t, []int{24, 24}, widths)
	})

	t.Run("priority shrink with hints", func(t *testing.T) {
		row := []string{strings.Repeat("a", 20), strings.Repeat("b", 20), strings.Repeat("c", 20)}
		widths := calculateColumnWidths([]string{"a", "b", "c"}, [][]string{row}, 49,
			[]ColumnHint{{Priority: 1}, {Priority: 5}, {Priority: 3}})
		assert.Equal(t, []int{5, 20, 20}, widths)
	})
}

func TestShrinkByPriority(t *testing.T) {
	hints := []ColumnHint{{Priority: 1}, {Priority: 5}, {Priority: 3}}

	assert.Equal(t, []int{20, 20, 20}, shrinkByPriority([]int{20, 20, 20}, 60, hints))
	assert.Equal(t, []int{3, 14, 3}, shrinkByPriority([]int{20, 20, 20}, 20, hints))

	hints[0].MinWidth = 8
	assert.Equal(t, []int{8, 20, 17}, shrinkByPriority([]int{20, 20, 20}, 45, hints))
}
