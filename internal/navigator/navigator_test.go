package navigator

import (
	"testing"
)

type site struct {
	Name    string `json:"name"`
	Region  string
	secret  string //nolint:unused // unexported fields are never addressable
	Ignored string `json:"-"`
}

type employee struct {
	ID   int   `json:"id"`
	Site *site `json:"site"`
}

func TestLookupEmptyPathReturnsRoot(t *testing.T) {
	root := map[string]interface{}{"key": "value"}
	result, ok := Lookup(root, "  ")
	if !ok {
		t.Fatal("expected empty path to resolve")
	}
	if m, isMap := result.(map[string]interface{}); !isMap || m["key"] != "value" {
		t.Fatalf("expected root node, got %#v", result)
	}
}

func TestLookupDottedPath(t *testing.T) {
	root := map[string]interface{}{
		"user": map[string]interface{}{"name": "alice"},
	}
	result, ok := Lookup(root, "user.name")
	if !ok || result != "alice" {
		t.Fatalf("expected alice, got %v (ok=%v)", result, ok)
	}
}

func TestLookupArrayIndex(t *testing.T) {
	root := map[string]interface{}{
		"items": []interface{}{
			map[string]interface{}{"id": 1},
			map[string]interface{}{"id": 2},
		},
	}
	for _, path := range []string{"items.1.id", "items[1].id"} {
		result, ok := Lookup(root, path)
		if !ok || result != 2 {
			t.Fatalf("%s: expected 2, got %v (ok=%v)", path, result, ok)
		}
	}
}

func TestLookupQuotedBracketKey(t *testing.T) {
	root := map[string]interface{}{
		"meta": map[string]interface{}{"a.b": "dotted"},
	}
	result, ok := Lookup(root, `meta["a.b"]`)
	if !ok || result != "dotted" {
		t.Fatalf("expected dotted, got %v (ok=%v)", result, ok)
	}
}

func TestLookupMissingAndNilIntermediate(t *testing.T) {
	root := map[string]interface{}{
		"manager": nil,
		"items":   []interface{}{"a"},
	}
	cases := []string{"missing", "manager.name", "items.5", "items.x", "items.0.deeper"}
	for _, path := range cases {
		if v, ok := Lookup(root, path); ok {
			t.Errorf("%s: expected lookup failure, got %v", path, v)
		}
	}
}

func TestLookupLeafNilIsFound(t *testing.T) {
	root := map[string]interface{}{"manager": nil}
	v, ok := Lookup(root, "manager")
	if !ok || v != nil {
		t.Fatalf("expected nil leaf to resolve, got %v (ok=%v)", v, ok)
	}
}

func TestLookupStructsAndTypedMaps(t *testing.T) {
	rec := employee{ID: 7, Site: &site{Name: "North", Region: "EU", Ignored: "x"}}
	if v, ok := Lookup(rec, "site.name"); !ok || v != "North" {
		t.Fatalf("expected json tag lookup, got %v (ok=%v)", v, ok)
	}
	if v, ok := Lookup(&rec, "site.Region"); !ok || v != "EU" {
		t.Fatalf("expected field name lookup through pointer, got %v (ok=%v)", v, ok)
	}
	if _, ok := Lookup(rec, "site.Ignored"); ok {
		t.Fatal("json:\"-\" fields must not resolve")
	}
	if _, ok := Lookup(employee{ID: 1}, "site.name"); ok {
		t.Fatal("nil pointer intermediate must not resolve")
	}

	typed := map[string]string{"code": "WH-1"}
	if v, ok := Lookup(typed, "code"); !ok || v != "WH-1" {
		t.Fatalf("expected typed map lookup, got %v (ok=%v)", v, ok)
	}
}

func TestParsePath(t *testing.T) {
	got := ParsePath("regions.asia.countries[1]")
	want := []string{"regions", "asia", "countries", "1"}
	if len(got) != len(want) {
		t.Fatalf("ParsePath = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ParsePath = %v, want %v", got, want)
		}
	}
}

func TestKeys(t *testing.T) {
	m := map[string]interface{}{"b": 1, "a": 2}
	if got := Keys(m); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("Keys(map) = %v", got)
	}
	got := Keys(site{})
	if len(got) != 2 || got[0] != "name" || got[1] != "Region" {
		t.Fatalf("Keys(struct) = %v", got)
	}
	if Keys(nil) != nil {
		t.Fatal("Keys(nil) should be nil")
	}
	if got := Keys(map[string]int{"z": 1, "y": 2}); len(got) != 2 || got[0] != "y" {
		t.Fatalf("Keys(typed map) = %v", got)
	}
}

func TestWalkIsLiteral(t *testing.T) {
	root := map[string]interface{}{
		"Price [USD]": 5,
		" name":       "x",
		"items":       []interface{}{"a"},
	}
	cases := []struct {
		steps []string
		want  interface{}
		ok    bool
	}{
		{[]string{"Price [USD]"}, 5, true},
		{[]string{" name"}, "x", true},
		{[]string{"name"}, nil, false},
		{[]string{"items", "0"}, "a", true},
		{[]string{"items[0]"}, nil, false},
	}
	for _, c := range cases {
		got, ok := Walk(root, c.steps)
		if ok != c.ok || got != c.want {
			t.Errorf("Walk(%q) = %v, %v; want %v, %v", c.steps, got, ok, c.want, c.ok)
		}
	}
}
