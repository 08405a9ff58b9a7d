// Package sqlconn adapts any database/sql handle into a warehouse
// connection. The postgres and duckdb packages supply the drivers.
package sqlconn

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tablefetch/tablefetch/internal/warehouse"
)

type Conn struct {
	db *sql.DB
}

func New(db *sql.DB) (*Conn, error) {
	if db == nil {
		return nil, fmt.Errorf("db handle is required")
	}
	return &Conn{db: db}, nil
}

func (c *Conn) FetchTableRows(ctx context.Context, req warehouse.FetchRequest) (warehouse.TableData, error) {
	dataset := strings.TrimSpace(req.DatasetID)
	table := strings.TrimSpace(req.TableID)
	if dataset == "" {
		return warehouse.TableData{}, fmt.Errorf("dataset id is required")
	}
	if table == "" {
		return warehouse.TableData{}, fmt.Errorf("table id is required")
	}

	target := quoteIdent(dataset) + "." + quoteIdent(table)

	var total int64
	countSQL := "SELECT count(*) FROM " + target
	if err := c.db.QueryRowContext(ctx, countSQL).Scan(&total); err != nil {
		return warehouse.TableData{}, fmt.Errorf("count rows in %s.%s: %w", dataset, table, err)
	}

	selectSQL := "SELECT " + columnList(req.SelectedFields) + " FROM " + target
	if req.MaxResults > 0 {
		selectSQL += fmt.Sprintf(" LIMIT %d", req.MaxResults)
	}

	rows, err := c.db.QueryContext(ctx, selectSQL)
	if err != nil {
		return warehouse.TableData{}, fmt.Errorf("fetch rows from %s.%s: %w", dataset, table, err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return warehouse.TableData{}, fmt.Errorf("read columns: %w", err)
	}

	records := make([]warehouse.Record, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return warehouse.TableData{}, fmt.Errorf("scan row: %w", err)
		}
		cells := make([]warehouse.Cell, len(values))
		for i, value := range values {
			cells[i] = warehouse.Cell{Value: normalizeValue(value)}
		}
		records = append(records, warehouse.Record{Cells: cells})
	}
	if err := rows.Err(); err != nil {
		return warehouse.TableData{}, fmt.Errorf("iterate rows: %w", err)
	}

	return warehouse.TableData{TotalRows: warehouse.RowCount(total), Rows: records}, nil
}

func (c *Conn) Close() error {
	return c.db.Close()
}

func normalizeValue(value any) any {
	switch typed := value.(type) {
	case []byte:
		return string(typed)
	default:
		return typed
	}
}

func columnList(fields []string) string {
	quoted := make([]string, 0, len(fields))
	for _, field := range fields {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		quoted = append(quoted, quoteIdent(field))
	}
	if len(quoted) == 0 {
		return "*"
	}
	return strings.Join(quoted, ", ")
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}
