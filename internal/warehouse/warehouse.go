// Package warehouse defines the table data shapes shared by every backend:
// the cell-wrapped wire representation used by tabledata-style APIs and the
// flattened row form handed back to callers.
package warehouse

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// Cell holds one scalar column value.
type Cell struct {
	Value any `json:"v"`
}

// Record is one table row in wire form. Cells follow the table's native
// column order regardless of the order fields were requested in.
type Record struct {
	Cells []Cell `json:"f"`
}

// RowCount tolerates both numeric and string encodings; tabledata-style
// APIs report totals as JSON strings.
type RowCount int64

func (c *RowCount) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch typed := raw.(type) {
	case float64:
		*c = RowCount(typed)
	case string:
		parsed, err := strconv.ParseInt(typed, 10, 64)
		if err != nil {
			return fmt.Errorf("parse row count %q: %w", typed, err)
		}
		*c = RowCount(parsed)
	case nil:
		*c = 0
	default:
		return fmt.Errorf("unexpected row count type %T", raw)
	}
	return nil
}

// TableData is the raw fetch response. TotalRows is the backend's reported
// table total and may exceed len(Rows) when the backend truncates.
type TableData struct {
	TotalRows RowCount `json:"totalRows"`
	Rows      []Record `json:"rows"`
}

// FetchRequest names one bounded table read. An empty SelectedFields slice
// requests all columns.
type FetchRequest struct {
	DatasetID      string
	TableID        string
	MaxResults     int64
	SelectedFields []string
}

// Connection is a live link to one warehouse backend. Implementations own
// auth, transport and any internal pagination; callers see a single call.
type Connection interface {
	FetchTableRows(ctx context.Context, req FetchRequest) (TableData, error)
}

// Flatten strips the cell wrappers from wire-form records, preserving row
// and column order. It never filters, sorts or dedupes.
func Flatten(records []Record) [][]any {
	rows := make([][]any, 0, len(records))
	for _, record := range records {
		row := make([]any, 0, len(record.Cells))
		for _, cell := range record.Cells {
			row = append(row, cell.Value)
		}
		rows = append(rows, row)
	}
	return rows
}
