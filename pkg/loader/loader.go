// Package loader reads record collections from JSON, NDJSON, YAML, TOML and
// CSV input.
package loader

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-logr/logr"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/dtx/internal/navigator"
)

// ErrEmptyInput is returned when there is nothing to parse.
var ErrEmptyInput = errors.New("empty input")

// Format names an input encoding.
type Format string

const (
	FormatAuto   Format = ""
	FormatJSON   Format = "json"
	FormatNDJSON Format = "ndjson"
	FormatYAML   Format = "yaml"
	FormatTOML   Format = "toml"
	FormatCSV    Format = "csv"
)

// ParseFormat maps a flag value to a Format. "auto" and "" both mean
// auto-detection.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "auto", FormatAuto:
		return FormatAuto, nil
	case "yml":
		return FormatYAML, nil
	case "jsonl":
		return FormatNDJSON, nil
	case FormatJSON, FormatNDJSON, FormatYAML, FormatTOML, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("unknown input format %q", s)
	}
}

// FormatFromPath guesses the format from a file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".ndjson", ".jsonl":
		return FormatNDJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	case ".csv":
		return FormatCSV
	default:
		return FormatAuto
	}
}

// Dataset is a loaded record collection. Fields lists every top-level key
// seen, in header order for CSV and first-seen order otherwise.
type Dataset struct {
	Records []any
	Fields  []string
	Format  Format
}

// Options tune loading.
type Options struct {
	Format Format
	// RecordsPath points at the record array inside the parsed document,
	// e.g. "data.items". Empty means the root.
	RecordsPath string
	// RawCSV keeps CSV cells as strings instead of inferring numbers and
	// booleans.
	RawCSV bool
	Logger logr.Logger
}

// LoadFile reads path and loads it. An unset Format is taken from the
// file extension, then from content.
func LoadFile(path string, opts Options) (Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Dataset{}, err
	}
	if opts.Format == FormatAuto {
		opts.Format = FormatFromPath(path)
	}
	return LoadBytes(data, opts)
}

// Load reads r fully and loads it.
func Load(r io.Reader, opts Options) (Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Dataset{}, fmt.Errorf("read input: %w", err)
	}
	return LoadBytes(data, opts)
}

// LoadBytes parses data and extracts the record collection.
func LoadBytes(data []byte, opts Options) (Dataset, error) {
	lgr := opts.Logger
	if lgr.GetSink() == nil {
		lgr = logr.Discard()
	}
	input := strings.TrimSpace(string(data))
	if input == "" {
		return Dataset{}, ErrEmptyInput
	}

	format := opts.Format
	if format == FormatAuto {
		format = Detect(input)
		lgr.V(1).Info("detected input format", "format", format)
	}

	if format == FormatCSV {
		ds, err := loadCSV(input, !opts.RawCSV)
		if err != nil {
			return Dataset{}, err
		}
		ds.Format = FormatCSV
		return ds, nil
	}

	docs, err := parseDocuments(input, format)
	if err != nil {
		return Dataset{}, err
	}
	var root any = docs
	if len(docs) == 1 {
		root = docs[0]
	}

	records, err := extractRecords(root, opts.RecordsPath)
	if err != nil {
		return Dataset{}, err
	}
	lgr.V(1).Info("loaded records", "count", len(records), "format", format)
	return Dataset{Records: records, Fields: collectFields(records), Format: format}, nil
}

// Detect guesses the format of input from its content.
func Detect(input string) Format {
	input = strings.TrimSpace(input)
	if strings.Contains(input, "\n---") || strings.HasPrefix(input, "---") {
		return FormatYAML
	}
	lines := splitLines(input)
	if len(lines) > 1 && isLikelyNDJSON(lines) && !isJSONDocument(input) {
		return FormatNDJSON
	}
	if isLikelyTOML(input) {
		return FormatTOML
	}
	if strings.HasPrefix(input, "{") || strings.HasPrefix(input, "[") {
		return FormatJSON
	}
	if isLikelyCSV(input) {
		return FormatCSV
	}
	return FormatYAML
}

func parseDocuments(input string, format Format) ([]any, error) {
	switch format {
	case FormatJSON:
		var data any
		if err := json.Unmarshal([]byte(input), &data); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		return []any{data}, nil
	case FormatNDJSON:
		return loadNDJSON(input)
	case FormatTOML:
		var data any
		if err := toml.Unmarshal([]byte(input), &data); err != nil {
			return nil, fmt.Errorf("invalid TOML: %w", err)
		}
		return []any{data}, nil
	default:
		return loadYAML(input)
	}
}

// extractRecords finds the record slice: the value at path when set, else
// the root itself when it is a list, else the only list-valued key of a
// map root (as TOML [[rows]] tables produce), else the root as one record.
func extractRecords(root any, path string) ([]any, error) {
	if path != "" {
		v, ok := navigator.Lookup(root, path)
		if !ok {
			return nil, fmt.Errorf("records path %q not found", path)
		}
		list, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("records path %q: expected a list, got %T", path, v)
		}
		return list, nil
	}

	switch v := root.(type) {
	case []any:
		return v, nil
	case map[string]any:
		var only []any
		lists := 0
		for _, val := range v {
			if l, ok := val.([]any); ok {
				only = l
				lists++
			}
		}
		if lists == 1 && len(v) == 1 {
			return only, nil
		}
		return []any{v}, nil
	case nil:
		return []any{}, nil
	default:
		return []any{v}, nil
	}
}

func collectFields(records []any) []string {
	seen := make(map[string]bool)
	var fields []string
	for _, rec := range records {
		for _, k := range navigator.Keys(rec) {
			if !seen[k] {
				seen[k] = true
				fields = append(fields, k)
			}
		}
	}
	return fields
}

func loadYAML(input string) ([]any, error) {
	var results []any
	dec := yaml.NewDecoder(strings.NewReader(input))
	for {
		var doc any
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
		if doc != nil {
			results = append(results, doc)
		}
	}
	if len(results) == 0 {
		return nil, ErrEmptyInput
	}
	return results, nil
}

// splitLines splits on \n, \r\n and bare \r. Tools that redraw progress
// lines with \r end up interleaved with their JSON log output.
func splitLines(input string) []string {
	return strings.FieldsFunc(input, func(r rune) bool { return r == '\n' || r == '\r' })
}

// loadNDJSON parses one JSON value per line. Lines that do not parse are
// kept as plain strings.
func loadNDJSON(input string) ([]any, error) {
	lines := splitLines(input)
	results := make([]any, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var obj any
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			results = append(results, line)
			continue
		}
		results = append(results, obj)
	}
	if len(results) == 0 {
		return nil, ErrEmptyInput
	}
	return results, nil
}

// loadCSV maps each row onto the header row. Short rows leave trailing
// fields empty.
func loadCSV(input string, infer bool) (Dataset, error) {
	r := csv.NewReader(strings.NewReader(input))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return Dataset{}, fmt.Errorf("invalid CSV: %w", err)
	}
	if len(rows) == 0 {
		return Dataset{}, ErrEmptyInput
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if header[i] == "" {
			header[i] = "column" + strconv.Itoa(i+1)
		}
	}

	records := make([]any, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(map[string]any, len(header))
		for j, h := range header {
			cell := ""
			if j < len(row) {
				cell = row[j]
			}
			if infer {
				rec[h] = inferCell(cell)
			} else {
				rec[h] = cell
			}
		}
		records = append(records, rec)
	}
	return Dataset{Records: records, Fields: header}, nil
}

var numberPattern = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][-+]?[0-9]+)?$`)

// inferCell converts number-looking and boolean cells so that sorting and
// range filtering treat them as such. Leading zeros stay text ("007").
func inferCell(cell string) any {
	s := strings.TrimSpace(cell)
	switch s {
	case "":
		return nil
	case "true", "TRUE", "True":
		return true
	case "false", "FALSE", "False":
		return false
	}
	if numberPattern.MatchString(s) {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return cell
}

func isJSONDocument(input string) bool {
	return json.Valid([]byte(input))
}

// isLikelyNDJSON reports whether a majority of non-empty lines start like a
// JSON object or array.
func isLikelyNDJSON(lines []string) bool {
	jsonCount, nonEmpty := 0, 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		nonEmpty++
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
			jsonCount++
		}
	}
	return nonEmpty > 1 && jsonCount > nonEmpty/2
}

var (
	tomlSection  = regexp.MustCompile(`^\s*\[{1,2}(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')+(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\]{1,2}\s*$`)
	tomlKeyValue = regexp.MustCompile(`^\s*(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')+(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\s*=\s*.+$`)
)

// isLikelyTOML looks for [section] headers or a majority of key = value
// lines.
func isLikelyTOML(input string) bool {
	sections, pairs, nonEmpty := 0, 0, 0
	for _, line := range strings.Split(input, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		nonEmpty++
		if tomlSection.MatchString(line) {
			sections++
		}
		if tomlKeyValue.MatchString(line) {
			pairs++
		}
	}
	return sections > 0 || (nonEmpty > 0 && pairs > nonEmpty/2)
}

// isLikelyCSV accepts input whose first two rows have the same number of
// comma-separated fields (at least two) and which YAML would not read as a
// mapping or sequence.
func isLikelyCSV(input string) bool {
	r := csv.NewReader(bytes.NewReader([]byte(input)))
	r.FieldsPerRecord = -1
	first, err := r.Read()
	if err != nil || len(first) < 2 {
		return false
	}
	second, err := r.Read()
	if err != nil && !errors.Is(err, io.EOF) {
		return false
	}
	if second != nil && len(second) != len(first) {
		return false
	}
	var probe any
	if yaml.Unmarshal([]byte(input), &probe) != nil {
		return true
	}
	switch probe.(type) {
	case map[string]any, []any:
		return false
	}
	return true
}
