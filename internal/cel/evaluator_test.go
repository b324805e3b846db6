package cel

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	e, err := NewEvaluator()
	require.NoError(t, err)
	return e
}

func TestPredicate(t *testing.T) {
	e := newEvaluator(t)
	rec := map[string]any{
		"name": "Ada",
		"age":  int64(36),
		"site": map[string]any{"city": "London"},
		"tags": []any{"math", "engines"},
	}

	tests := []struct {
		expr string
		want bool
	}{
		{`row.age > 30`, true},
		{`row.age > 30 && row.site.city == "Paris"`, false},
		{`row.name.startsWith("A")`, true},
		{`"engines" in row.tags`, true},
		{`_.name.lowerAscii() == "ada"`, true},
		{`has(row.email)`, false},
		{`row.tags.exists(t, t.size() > 5)`, true},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			p, err := e.Predicate(tt.expr)
			require.NoError(t, err)
			got, err := p(rec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchErrors(t *testing.T) {
	e := newEvaluator(t)

	_, err := e.Compile("row.age >")
	assert.ErrorContains(t, err, "compilation error")

	_, err = e.Compile("  ")
	assert.Error(t, err)

	x, err := e.Compile("row.name")
	require.NoError(t, err)
	_, err = x.Match(map[string]any{"name": "Ada"})
	assert.ErrorIs(t, err, ErrNotBool)

	x, err = e.Compile("row.missing == 1")
	require.NoError(t, err)
	_, err = x.Match(map[string]any{"name": "Ada"})
	assert.ErrorContains(t, err, "eval error")
}

func TestEvalComputedValues(t *testing.T) {
	e := newEvaluator(t)
	rec := map[string]any{"first": "Grace", "last": "Hopper", "n": int64(4), "xs": []any{int64(1), int64(2)}}

	v, err := e.Evaluate(`row.first + " " + row.last`, rec)
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", v)

	v, err = e.Evaluate(`row.n * 2.5`, map[string]any{"n": 4.0})
	require.NoError(t, err)
	assert.Equal(t, 10.0, v)

	v, err = e.Evaluate(`row.xs.map(x, x * 10)`, rec)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(10), int64(20)}, v)

	v, err = e.Evaluate(`{"k": row.n}`, rec)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"k": int64(4)}, v)
}

func TestEvalValue(t *testing.T) {
	e := newEvaluator(t)
	x, err := e.Compile(`value * 2`)
	require.NoError(t, err)

	v, err := x.EvalValue(map[string]any{}, int64(21))
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	x, err = e.Compile(`value == null`)
	require.NoError(t, err)
	ok, err := x.Match(map[string]any{})
	require.NoError(t, err)
	assert.True(t, ok, "value is null outside column expressions")
}

type person struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

func TestStructRecords(t *testing.T) {
	e := newEvaluator(t)
	p, err := e.Predicate(`row.name == "Lin" && row.age == 7`)
	require.NoError(t, err)

	ok, err := p(person{Name: "Lin", Age: 7})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p(&person{Name: "Lin", Age: 8})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCompileCachesPrograms(t *testing.T) {
	e := newEvaluator(t)
	a, err := e.Compile("row.x == 1")
	require.NoError(t, err)
	b, err := e.Compile(" row.x == 1 ")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, "row.x == 1", a.String())
}

func TestConcurrentMatch(t *testing.T) {
	e := newEvaluator(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := e.Predicate("row.i % 2 == 0")
			assert.NoError(t, err)
			got, err := p(map[string]any{"i": int64(i)})
			assert.NoError(t, err)
			assert.Equal(t, i%2 == 0, got)
		}(i)
	}
	wg.Wait()
}

func TestFunctions(t *testing.T) {
	funcs := newEvaluator(t).Functions()
	require.NotEmpty(t, funcs)
	for _, f := range funcs {
		assert.NotEqual(t, byte('@'), f[0], f)
		assert.NotEqual(t, byte('_'), f[0], f)
	}
	assert.Contains(t, funcs, "exists() - macro")
}
