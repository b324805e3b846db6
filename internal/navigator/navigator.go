package navigator

import (
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Lookup walks a dotted path into a record and reports whether every step
// could be followed. Keys are separated by '.'; numeric segments index
// slices; bracket segments ("items[0]", `meta["x.y"]`) are accepted too.
// A nil value reached before the last segment stops the walk.
func Lookup(root interface{}, path string) (interface{}, bool) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return root, true
	}

	steps := ParsePath(trimmed)
	for i, step := range steps {
		if len(step) > 1 && strings.HasPrefix(step, `"`) && strings.HasSuffix(step, `"`) {
			steps[i] = step[1 : len(step)-1]
		}
	}
	return Walk(root, steps)
}

// Walk follows steps literally: each one is a map key, struct field or
// slice index, with no trimming, quoting or bracket handling.
func Walk(root interface{}, steps []string) (interface{}, bool) {
	cur := root
	for _, step := range steps {
		if cur == nil {
			return nil, false
		}
		next, ok := navigateStep(cur, step)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// ParsePath splits a path into navigation steps, handling both dot and bracket notation
// Examples: "items.0" -> ["items", "0"]
//
//	"items[0]" -> ["items", "0"]
//	"items[0].tags" -> ["items", "0", "tags"]
//	"employee.site.name" -> ["employee", "site", "name"]
func ParsePath(path string) []string {
	var parts []string
	var current strings.Builder

	for i := 0; i < len(path); i++ {
		ch := path[i]
		switch ch {
		case '.':
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		case '[':
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
			j := i + 1
			for j < len(path) && path[j] != ']' {
				j++
			}
			if j < len(path) {
				parts = append(parts, path[i+1:j])
				i = j
			}
		default:
			current.WriteByte(ch)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

// navigateStep follows a single key or index.
func navigateStep(cur interface{}, key string) (interface{}, bool) {
	switch t := cur.(type) {
	case map[string]interface{}:
		v, ok := t[key]
		return v, ok
	case []interface{}:
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 || idx >= len(t) {
			return nil, false
		}
		return t[idx], true
	}

	rv := reflect.ValueOf(cur)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() { //nolint:exhaustive // only container kinds are addressable
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		value := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
		if !value.IsValid() {
			return nil, false
		}
		return value.Interface(), true
	case reflect.Slice, reflect.Array:
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 || idx >= rv.Len() {
			return nil, false
		}
		return rv.Index(idx).Interface(), true
	case reflect.Struct:
		return structFieldValue(rv, key)
	default:
		return nil, false
	}
}

// structFieldValue matches exported fields by json tag first, then by name.
func structFieldValue(rv reflect.Value, key string) (interface{}, bool) {
	typ := rv.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		tagName := strings.Split(field.Tag.Get("json"), ",")[0]
		if tagName == "-" {
			continue
		}
		if tagName == key || field.Name == key {
			return rv.Field(i).Interface(), true
		}
	}
	return nil, false
}

// Keys returns the top-level field names of a record in a stable order:
// map keys sorted, struct fields in declaration order. Used to infer columns
// when no table definition is supplied.
func Keys(record interface{}) []string {
	switch t := record.(type) {
	case map[string]interface{}:
		return sortedKeys(t)
	case nil:
		return nil
	}

	rv := reflect.ValueOf(record)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() { //nolint:exhaustive // only keyed kinds have field names
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil
		}
		m := make(map[string]interface{}, rv.Len())
		for _, k := range rv.MapKeys() {
			m[k.String()] = nil
		}
		return sortedKeys(m)
	case reflect.Struct:
		typ := rv.Type()
		out := make([]string, 0, typ.NumField())
		for i := 0; i < typ.NumField(); i++ {
			field := typ.Field(i)
			if !field.IsExported() {
				continue
			}
			name := strings.Split(field.Tag.Get("json"), ",")[0]
			if name == "-" {
				continue
			}
			if name == "" {
				name = field.Name
			}
			out = append(out, name)
		}
		return out
	default:
		return nil
	}
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
