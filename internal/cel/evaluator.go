// Package cel compiles CEL expressions that are evaluated once per record:
// row predicates for --where, disabled_when conditions on actions and
// computed columns.
package cel

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/decls"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
	celext "github.com/google/cel-go/ext"
)

// RowVar is the variable a record is bound to. "_" is an alias.
const RowVar = "row"

// ValueVar is bound to the resolved cell value in column expressions and is
// null elsewhere.
const ValueVar = "value"

// ErrNotBool is returned when a predicate does not evaluate to a bool.
var ErrNotBool = errors.New("expression did not evaluate to a bool")

// Evaluator compiles expressions against a shared environment and caches
// the resulting programs. It is safe for concurrent use.
type Evaluator struct {
	env *cel.Env

	mu    sync.Mutex
	cache map[string]*Expression
}

// Expression is a compiled program.
type Expression struct {
	src string
	prg cel.Program
}

// NewEvaluator creates an Evaluator with the string, list, math and
// encoder extensions.
func NewEvaluator() (*Evaluator, error) {
	env, err := newRecordEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Evaluator{env: env, cache: make(map[string]*Expression)}, nil
}

func newRecordEnv(opts ...cel.EnvOption) (*cel.Env, error) {
	all := make([]cel.EnvOption, 0, 7+len(opts))
	all = append(all,
		cel.Variable(RowVar, cel.DynType),
		cel.Variable("_", cel.DynType),
		cel.Variable(ValueVar, cel.DynType),
		celext.Strings(),
		celext.Encoders(),
		celext.Lists(),
		celext.Math(),
	)
	all = append(all, opts...)
	return cel.NewEnv(all...)
}

// Compile parses and checks expr.
func (e *Evaluator) Compile(expr string) (*Expression, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, errors.New("empty expression")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if x, ok := e.cache[expr]; ok {
		return x, nil
	}

	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compilation error: %w", issues.Err())
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	x := &Expression{src: expr, prg: prg}
	e.cache[expr] = x
	return x, nil
}

// String returns the source text.
func (x *Expression) String() string {
	return x.src
}

// Eval runs the expression with record bound to row and _.
func (x *Expression) Eval(record any) (any, error) {
	return x.EvalValue(record, nil)
}

// EvalValue runs the expression with record bound to row and _ and value
// bound to value.
func (x *Expression) EvalValue(record, value any) (any, error) {
	rec, err := normalize(record)
	if err != nil {
		return nil, err
	}
	val, err := normalize(value)
	if err != nil {
		return nil, err
	}
	out, _, err := x.prg.Eval(map[string]any{RowVar: rec, "_": rec, ValueVar: val})
	if err != nil {
		return nil, fmt.Errorf("%s: eval error: %w", x.src, err)
	}
	return ToGo(out), nil
}

// Match runs the expression as a predicate.
func (x *Expression) Match(record any) (bool, error) {
	v, err := x.Eval(record)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%s: %w (got %T)", x.src, ErrNotBool, v)
	}
	return b, nil
}

// Predicate compiles expr into a row predicate.
func (e *Evaluator) Predicate(expr string) (func(record any) (bool, error), error) {
	x, err := e.Compile(expr)
	if err != nil {
		return nil, err
	}
	return x.Match, nil
}

// Evaluate compiles and runs expr against record in one step.
func (e *Evaluator) Evaluate(expr string, record any) (any, error) {
	x, err := e.Compile(expr)
	if err != nil {
		return nil, err
	}
	return x.Eval(record)
}

// normalize converts structs to maps through JSON so CEL can select their
// fields. Maps, slices and scalars pass through.
func normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return v, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("cannot marshal %T: %w", v, err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ToGo converts CEL values to Go values recursively.
func ToGo(val ref.Val) any {
	if val == nil {
		return nil
	}
	switch v := val.(type) {
	case types.Bool:
		return bool(v)
	case types.Int:
		return int64(v)
	case types.Uint:
		return uint64(v)
	case types.Double:
		return float64(v)
	case types.String:
		return string(v)
	case types.Bytes:
		return []byte(v)
	case types.Null:
		return nil
	}

	switch v := val.(type) {
	case traits.Lister:
		n, _ := v.Size().(types.Int)
		out := make([]any, int(n))
		for i := range out {
			out[i] = ToGo(v.Get(types.Int(i)))
		}
		return out
	case traits.Mapper:
		out := make(map[string]any)
		for it := v.Iterator(); it.HasNext() == types.True; {
			k := it.Next()
			out[fmt.Sprint(ToGo(k))] = ToGo(v.Get(k))
		}
		return out
	}
	return val.Value()
}

// Functions lists the functions and macros available to expressions as
// "name() - usage" lines, sorted.
func (e *Evaluator) Functions() []string {
	seen := make(map[string]bool)
	out := make([]string, 0, 100)
	add := func(entry string) {
		if !seen[entry] {
			seen[entry] = true
			out = append(out, entry)
		}
	}

	for _, fn := range e.env.Functions() {
		if isOperator(fn.Name()) {
			continue
		}
		for _, o := range fn.OverloadDecls() {
			add(fn.Name() + "() - " + usageFromOverload(fn.Name(), o))
		}
	}
	for _, m := range e.env.Macros() {
		if isOperator(m.Function()) {
			continue
		}
		add(m.Function() + "() - macro")
	}
	sort.Strings(out)
	return out
}

func isOperator(name string) bool {
	return strings.HasPrefix(name, "@") || strings.HasPrefix(name, "_") || strings.HasSuffix(name, "_")
}

func typeLabel(t *types.Type) string {
	if t == nil {
		return "any"
	}
	if name := t.DeclaredTypeName(); name != "" {
		return name
	}
	return "any"
}

func usageFromOverload(name string, o *decls.OverloadDecl) string {
	params := o.ArgTypes()
	labels := make([]string, len(params))
	for i, p := range params {
		labels[i] = typeLabel(p)
	}
	call := name + "(" + strings.Join(labels, ", ") + ")"
	if o.IsMemberFunction() && len(labels) > 0 {
		call = labels[0] + "." + name + "(" + strings.Join(labels[1:], ", ") + ")"
	}
	if r := o.ResultType(); r != nil {
		call += " -> " + typeLabel(r)
	}
	return call
}
