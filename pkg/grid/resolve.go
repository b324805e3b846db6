// Package grid is the tabular data engine: it turns an in-memory collection
// of records plus a column schema into a searched, filtered, sorted and
// paginated view, and serializes a chosen dataset to a spreadsheet.
//
// Every stage is a pure function over its input slice. The stateful [Table]
// composes them and owns the page/search/filter/sort state.
package grid

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/oakwood-commons/dtx/internal/navigator"
)

// Record is one row of the input collection. Maps, slices and structs are
// addressable by accessor paths; anything else only resolves the empty path.
type Record = any

// DefaultEmptyText is the placeholder shown for empty values when nothing
// else is configured.
const DefaultEmptyText = "N/A"

// EmptyText configures the placeholder used for empty values in display,
// search and filtering. Export never uses it.
type EmptyText struct {
	Default  string
	ByColumn map[string]string
}

// For returns the placeholder for accessor: the per-column override if set,
// else the global text, else DefaultEmptyText.
func (e EmptyText) For(accessor string) string {
	if v, ok := e.ByColumn[accessor]; ok && v != "" {
		return v
	}
	if e.Default != "" {
		return e.Default
	}
	return DefaultEmptyText
}

// Resolve reads the value at a dotted accessor path. The accessor is split
// on "." only, so keys such as "Price [USD]" or " name" match verbatim. A
// path that cannot be followed (missing key, nil intermediate, bad index)
// resolves to "" and never fails.
func Resolve(record Record, accessor string) any {
	if accessor == "" {
		return nil
	}
	v, ok := navigator.Walk(record, strings.Split(accessor, "."))
	if !ok {
		return ""
	}
	return v
}

// IsEmpty reports whether v is nil, a blank string or NaN.
func IsEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case float64:
		return math.IsNaN(t)
	case float32:
		return math.IsNaN(float64(t))
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() { //nolint:exhaustive // only nil-able kinds and named strings/floats matter
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return true
		}
		if rv.Kind() == reflect.Ptr {
			return IsEmpty(rv.Elem().Interface())
		}
	case reflect.String:
		return strings.TrimSpace(rv.String()) == ""
	case reflect.Float32, reflect.Float64:
		return math.IsNaN(rv.Float())
	}
	return false
}

// DisplayValue returns the resolved value, or the placeholder text when the
// value is empty.
func DisplayValue(record Record, accessor string, empty EmptyText) any {
	v := Resolve(record, accessor)
	if IsEmpty(v) {
		return empty.For(accessor)
	}
	return v
}

// Stringify renders a resolved value as text for display, search and
// filtering. Integral floats print without a fraction, slices join their
// elements with ",", maps and structs marshal to compact JSON.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return formatFloat(t)
	case float32:
		return formatFloat(float64(t))
	case time.Time:
		return t.Format(time.RFC3339)
	case json.Number:
		return t.String()
	case fmt.Stringer:
		return t.String()
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = Stringify(e)
		}
		return strings.Join(parts, ",")
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() { //nolint:exhaustive // scalars fall through to fmt
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return formatFloat(rv.Float())
	case reflect.String:
		return rv.String()
	case reflect.Slice, reflect.Array:
		parts := make([]string, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			parts[i] = Stringify(rv.Index(i).Interface())
		}
		return strings.Join(parts, ",")
	case reflect.Map, reflect.Struct, reflect.Ptr:
		if rv.Kind() == reflect.Ptr && rv.IsNil() {
			return ""
		}
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
	}
	return fmt.Sprint(v)
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	if abs := math.Abs(f); abs >= 1e21 || (abs != 0 && abs < 1e-6) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// isNumber reports whether v holds a Go numeric kind.
func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}

// toFloat converts a numeric kind to float64. Callers check isNumber first.
func toFloat(v any) float64 {
	rv := reflect.ValueOf(v)
	switch rv.Kind() { //nolint:exhaustive // numeric kinds only
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	}
	return math.NaN()
}

// coerceNumber converts a value to a number for range filtering. Empty
// values and text that does not parse as a number yield NaN.
func coerceNumber(v any) float64 {
	if IsEmpty(v) {
		return math.NaN()
	}
	if isNumber(v) {
		return toFloat(v)
	}
	switch t := v.(type) {
	case bool:
		if t {
			return 1
		}
		return 0
	case time.Time:
		return float64(t.UnixMilli())
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	}

	s := strings.TrimSpace(Stringify(v))
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "0x") {
		n, err := strconv.ParseUint(lower[2:], 16, 64)
		if err != nil {
			return math.NaN()
		}
		return float64(n)
	}
	if strings.Contains(lower, "inf") || strings.Contains(lower, "nan") || strings.Contains(lower, "_") {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}
