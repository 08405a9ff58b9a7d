// Package export persists fetched rows as parquet objects. The task's
// return value is unaffected; this is an optional sink for downstream
// consumers that prefer files over task results.
package export

import (
	"bytes"
	"fmt"

	"github.com/parquet-go/parquet-go"
)

// EncodeRowsToParquet writes rows into a single parquet payload. Column
// names are optional; missing names are generated positionally from the
// widest row. All cell values are stringified, nil cells become nulls.
func EncodeRowsToParquet(columns []string, rows [][]any) ([]byte, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("rows are required")
	}

	width := len(columns)
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	if width == 0 {
		return nil, fmt.Errorf("rows have no columns")
	}

	names := make([]string, width)
	for i := range names {
		if i < len(columns) && columns[i] != "" {
			names[i] = columns[i]
		} else {
			names[i] = fmt.Sprintf("col_%d", i)
		}
	}

	group := parquet.Group{}
	for _, name := range names {
		group[name] = parquet.Optional(parquet.String())
	}
	schema := parquet.NewSchema("rows", group)

	records := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		record := make(map[string]string, len(row))
		for i, value := range row {
			if value == nil {
				continue
			}
			record[names[i]] = fmt.Sprint(value)
		}
		records = append(records, record)
	}

	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[map[string]string](buf, schema)
	if _, err := writer.Write(records); err != nil {
		return nil, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}
