package objectstore

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// Format identifies how rows are serialized inside an object.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatParquet Format = "parquet"
	FormatRaw     Format = "raw"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatParquet:
		return FormatParquet, nil
	case FormatRaw:
		return FormatRaw, nil
	}
	return "", fmt.Errorf("unknown format %q (expected csv, json, parquet or raw)", s)
}

// InferFormat picks a format from a filename extension. Unknown
// extensions fall back to the given default.
func InferFormat(filename string, fallback Format) Format {
	switch strings.ToLower(path.Ext(filename)) {
	case ".csv":
		return FormatCSV
	case ".json", ".ndjson", ".jsonl":
		return FormatJSON
	case ".parquet":
		return FormatParquet
	}
	return fallback
}

// Decode turns object bytes into rows according to the format.
func Decode(format Format, data []byte) ([]map[string]any, error) {
	switch format {
	case FormatCSV:
		return decodeCSV(data)
	case FormatJSON:
		return decodeJSON(data)
	case FormatParquet:
		return parquet.Read[map[string]any](bytes.NewReader(data), int64(len(data)))
	}
	return nil, fmt.Errorf("format %q cannot be decoded into rows", format)
}

// Encode turns rows into object bytes according to the format.
func Encode(format Format, rows []map[string]any) ([]byte, error) {
	switch format {
	case FormatCSV:
		return encodeCSV(rows)
	case FormatJSON:
		return encodeJSON(rows)
	case FormatParquet:
		return encodeParquet(rows)
	}
	return nil, fmt.Errorf("format %q cannot encode rows", format)
}

func decodeCSV(data []byte) ([]map[string]any, error) {
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
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

func encodeCSV(rows []map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if len(rows) == 0 {
		w.Flush()
		return buf.Bytes(), w.Error()
	}

	header := columnsOf(rows[0])
	if err := w.Write(header); err != nil {
		return nil, err
	}
	record := make([]string, len(header))
	for _, row := range rows {
		for i, col := range header {
			record[i] = cellString(row[col])
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func decodeJSON(data []byte) ([]map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var rows []map[string]any
	for {
		var row map[string]any
		if err := dec.Decode(&row); err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("failed to parse JSON lines: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func encodeJSON(rows []map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func encodeParquet(rows []map[string]any) ([]byte, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("parquet encoding needs at least one row to derive a schema")
	}

	schema := parquet.NewSchema("rows", parquetGroupOf(rows[0]))
	var buf bytes.Buffer
	w := parquet.NewGenericWriter[map[string]any](&buf, schema)
	if _, err := w.Write(rows); err != nil {
		return nil, fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return buf.Bytes(), nil
}

// parquetGroupOf derives a flat schema from the first row's value types.
// Anything without a natural parquet leaf is stored as a string.
func parquetGroupOf(row map[string]any) parquet.Group {
	group := parquet.Group{}
	for col, v := range row {
		switch v.(type) {
		case int, int32, int64:
			group[col] = parquet.Int(64)
		case float32, float64:
			group[col] = parquet.Leaf(parquet.DoubleType)
		case bool:
			group[col] = parquet.Leaf(parquet.BooleanType)
		default:
			group[col] = parquet.String()
		}
	}
	return group
}

func columnsOf(row map[string]any) []string {
	cols := make([]string, 0, len(row))
	for col := range row {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
