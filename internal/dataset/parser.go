// Package dataset converts uploaded files into ordered test case sequences.
//
// Supported formats: CSV (header row), JSON (array of objects), JSON Lines,
// and YAML (sequence of mappings). The format is taken from the request when
// given, otherwise inferred from the filename extension.
package dataset

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"evalapi/internal/apperrors"
	"evalapi/internal/eval"
)

// Format names accepted in requests. FormatAuto defers to the filename.
const (
	FormatAuto  = "auto"
	FormatCSV   = "csv"
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
	FormatYAML  = "yaml"
)

// Test case fields addressable through column mapping.
const (
	fieldInput            = "input"
	fieldActualOutput     = "actual_output"
	fieldExpectedOutput   = "expected_output"
	fieldContext          = "context"
	fieldRetrievalContext = "retrieval_context"
	fieldName             = "name"
)

// Parse converts file bytes into an ordered sequence of single-turn test
// cases. columnMapping maps test case fields to column names in the file;
// when empty, columns are matched to field names directly.
func Parse(content []byte, filename, format string, columnMapping map[string]string) ([]eval.TestCase, error) {
	format, err := resolveFormat(filename, format)
	if err != nil {
		return nil, err
	}

	var rows []map[string]any
	switch format {
	case FormatCSV:
		rows, err = parseCSV(content)
	case FormatJSON:
		rows, err = parseJSON(content)
	case FormatJSONL:
		rows, err = parseJSONL(content)
	case FormatYAML:
		rows, err = parseYAML(content)
	default:
		return nil, apperrors.Validation("file_format", "unsupported file format: "+format)
	}
	if err != nil {
		return nil, err
	}

	cases := make([]eval.TestCase, 0, len(rows))
	for i, row := range rows {
		tc, err := rowToTestCase(row, columnMapping)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		cases = append(cases, tc)
	}
	return cases, nil
}

// resolveFormat validates an explicit format or infers one from the filename.
func resolveFormat(filename, format string) (string, error) {
	switch format {
	case FormatCSV, FormatJSON, FormatJSONL, FormatYAML:
		return format, nil
	case "", FormatAuto:
	default:
		return "", apperrors.Validation("file_format", "unsupported file format: "+format)
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	case ".jsonl", ".ndjson":
		return FormatJSONL, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", apperrors.Validation("file_format", "could not determine file format from filename, specify file_format explicitly")
}

func parseCSV(content []byte) ([]map[string]any, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.Validation("file", "invalid CSV: "+err.Error())
	}
	if len(records) < 1 {
		return nil, apperrors.Validation("file", "CSV file has no header row")
	}

	header := records[0]
	rows := make([]map[string]any, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]any, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseJSON(content []byte) ([]map[string]any, error) {
	trimmed := bytes.TrimSpace(content)

	// A single object is treated as a one-row dataset.
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var row map[string]any
		if err := json.Unmarshal(trimmed, &row); err != nil {
			return nil, apperrors.Validation("file", "invalid JSON: "+err.Error())
		}
		return []map[string]any{row}, nil
	}

	var rows []map[string]any
	if err := json.Unmarshal(trimmed, &rows); err != nil {
		return nil, apperrors.Validation("file", "invalid JSON: "+err.Error())
	}
	return rows, nil
}

func parseJSONL(content []byte) ([]map[string]any, error) {
	var rows []map[string]any
	for i, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var row map[string]any
		if err := json.Unmarshal([]byte(line), &row); err != nil {
			return nil, apperrors.Validation("file", fmt.Sprintf("invalid JSON on line %d: %v", i+1, err))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseYAML(content []byte) ([]map[string]any, error) {
	var rows []map[string]any
	if err := yaml.Unmarshal(content, &rows); err != nil {
		return nil, apperrors.Validation("file", "invalid YAML: "+err.Error())
	}
	return rows, nil
}

// rowToTestCase maps one parsed row to a single-turn test case.
func rowToTestCase(row map[string]any, columnMapping map[string]string) (eval.TestCase, error) {
	lookup := func(field string) any {
		if len(columnMapping) > 0 {
			col, ok := columnMapping[field]
			if !ok {
				return nil
			}
			return row[col]
		}
		return row[field]
	}

	tc := &eval.LLMTestCase{
		Input:            asString(lookup(fieldInput)),
		ActualOutput:     asString(lookup(fieldActualOutput)),
		ExpectedOutput:   asString(lookup(fieldExpectedOutput)),
		Context:          asStringList(lookup(fieldContext)),
		RetrievalContext: asStringList(lookup(fieldRetrievalContext)),
		Name:             asString(lookup(fieldName)),
	}
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	return tc, nil
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// asStringList accepts both a plain string (CSV cells) and a list of strings
// (JSON/YAML columns).
func asStringList(v any) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		if val == "" {
			return nil
		}
		return []string{val}
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			out = append(out, asString(item))
		}
		return out
	case []string:
		return val
	default:
		return []string{asString(v)}
	}
}
