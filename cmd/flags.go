package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/oakwood-commons/dtx/pkg/grid"
)

// filterFlag collects repeated accessor=value pairs into column filters.
type filterFlag struct {
	typ    string
	parse  func(value string) (grid.FilterValue, error)
	raw    []string
	values map[string]grid.FilterValue
}

var _ pflag.Value = (*filterFlag)(nil)

func newTextFilterFlag() *filterFlag {
	return &filterFlag{typ: "accessor=text", parse: func(v string) (grid.FilterValue, error) {
		return grid.TextFilter(v), nil
	}}
}

func newSelectFilterFlag() *filterFlag {
	return &filterFlag{typ: "accessor=a,b", parse: func(v string) (grid.FilterValue, error) {
		var opts grid.SelectFilter
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				opts = append(opts, o)
			}
		}
		if len(opts) == 0 {
			return nil, fmt.Errorf("no values in %q", v)
		}
		return opts, nil
	}}
}

func newRangeFilterFlag() *filterFlag {
	return &filterFlag{typ: "accessor=min:max", parse: func(v string) (grid.FilterValue, error) {
		return grid.ParseRange(v)
	}}
}

func (f *filterFlag) String() string {
	return strings.Join(f.raw, ",")
}

func (f *filterFlag) Set(s string) error {
	acc, val, ok := strings.Cut(s, "=")
	acc = strings.TrimSpace(acc)
	if !ok || acc == "" {
		return fmt.Errorf("expected %s, got %q", f.typ, s)
	}
	v, err := f.parse(val)
	if err != nil {
		return err
	}
	if f.values == nil {
		f.values = map[string]grid.FilterValue{}
	}
	f.values[acc] = v
	f.raw = append(f.raw, s)
	return nil
}

func (f *filterFlag) Type() string {
	return f.typ
}

// apply sets every collected filter on tbl.
func (f *filterFlag) apply(tbl *grid.Table) error {
	for acc, v := range f.values {
		if _, ok := tbl.Column(acc); !ok {
			return fmt.Errorf("filter on unknown column %q", acc)
		}
		tbl.SetFilter(acc, v)
	}
	return nil
}
