package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/dtx/pkg/grid"
)

// Output formats for WriteRecords.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
	OutputCSV   = "csv"
	OutputTOML  = "toml"
)

// OutputFormats lists every accepted --output value.
var OutputFormats = []string{OutputTable, OutputJSON, OutputYAML, OutputCSV, OutputTOML}

// tomlRootKey holds the record array; TOML documents must be tables.
const tomlRootKey = "records"

// orderedRow is one record projected onto the columns, keys kept in column
// order.
type orderedRow struct {
	keys   []string
	values []any
}

func (r orderedRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r orderedRow) node() (*yaml.Node, error) {
	n := &yaml.Node{Kind: yaml.MappingNode}
	for i, k := range r.keys {
		var v yaml.Node
		if err := v.Encode(r.values[i]); err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, &v)
	}
	return n, nil
}

// WriteRecords writes rows in a machine-readable format. headers name the
// fields; each row holds one value per header, nil for empty cells.
func WriteRecords(w io.Writer, format string, headers []string, rows [][]any) error {
	ordered := make([]orderedRow, len(rows))
	for i, row := range rows {
		ordered[i] = orderedRow{keys: headers, values: row}
	}

	switch strings.ToLower(format) {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(ordered)
	case OutputYAML:
		return writeYAML(w, ordered)
	case OutputCSV:
		return writeCSV(w, headers, rows)
	case OutputTOML:
		return writeTOML(w, headers, rows)
	default:
		return fmt.Errorf("unsupported output format %q (expected one of %s)", format, strings.Join(OutputFormats, ", "))
	}
}

func writeYAML(w io.Writer, rows []orderedRow) error {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, r := range rows {
		n, err := r.node()
		if err != nil {
			return err
		}
		seq.Content = append(seq.Content, n)
	}
	applyLiteralStyle(seq)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{seq}}); err != nil {
		return err
	}
	return enc.Close()
}

// applyLiteralStyle emits multi-line strings as literal blocks.
func applyLiteralStyle(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode && n.Tag == "!!str" && strings.Contains(n.Value, "\n") {
		n.Style = yaml.LiteralStyle
	}
	for _, c := range n.Content {
		applyLiteralStyle(c)
	}
}

func writeCSV(w io.Writer, headers []string, rows [][]any) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return err
	}
	for _, row := range rows {
		rec := make([]string, len(headers))
		for i := range headers {
			if i < len(row) && row[i] != nil {
				rec[i] = grid.Stringify(row[i])
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// writeTOML writes an array of tables. TOML has no null, so empty cells are
// left out of their table.
func writeTOML(w io.Writer, headers []string, rows [][]any) error {
	tables := make([]map[string]any, len(rows))
	for i, row := range rows {
		t := make(map[string]any, len(headers))
		for j, h := range headers {
			if j < len(row) && row[j] != nil {
				t[h] = row[j]
			}
		}
		tables[i] = t
	}
	enc := toml.NewEncoder(w)
	enc.SetIndentTables(true)
	return enc.Encode(map[string]any{tomlRootKey: tables})
}
