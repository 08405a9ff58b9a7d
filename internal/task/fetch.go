// Package task implements the table fetch task: one bounded read of a
// warehouse table, returned as plain rows.
package task

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tablefetch/tablefetch/internal/observability"
	"github.com/tablefetch/tablefetch/internal/warehouse"
)

const (
	DefaultConnectionID = "warehouse_default"
	DefaultMaxResults   = 100
)

// Hook acquires warehouse connections. The production implementation is
// conn.Registry; tests use in-memory stubs.
type Hook interface {
	GetConnection(ctx context.Context, connectionID, delegateTo, location string) (warehouse.Connection, error)
}

type FetchConfig struct {
	DatasetID      string
	TableID        string
	MaxResults     int64
	SelectedFields string // comma-joined column names; empty means all columns
	ConnectionID   string

	// LegacyConnectionID is the old name for ConnectionID. When set it
	// wins over ConnectionID and a deprecation warning is logged.
	//
	// Deprecated: set ConnectionID instead.
	LegacyConnectionID string

	DelegateTo string
	Location   string
}

// Fetch reads up to MaxResults rows from one table and returns them as a
// list of rows, each row a list of column values in the table's native
// column order. It holds no state across runs.
type Fetch struct {
	datasetID      string
	tableID        string
	maxResults     int64
	selectedFields []string
	connectionID   string
	delegateTo     string
	location       string

	hook   Hook
	logger *slog.Logger
}

func NewFetch(cfg FetchConfig, hook Hook, logger *slog.Logger) (*Fetch, error) {
	if hook == nil {
		return nil, fmt.Errorf("connection hook is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if strings.TrimSpace(cfg.DatasetID) == "" {
		return nil, fmt.Errorf("dataset id is required")
	}
	if strings.TrimSpace(cfg.TableID) == "" {
		return nil, fmt.Errorf("table id is required")
	}

	connectionID := cfg.ConnectionID
	if cfg.LegacyConnectionID != "" {
		logger.Warn("the legacy connection id parameter is deprecated; set connection_id instead",
			slog.String("legacy_connection_id", cfg.LegacyConnectionID),
		)
		connectionID = cfg.LegacyConnectionID
	}
	if connectionID == "" {
		connectionID = DefaultConnectionID
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	return &Fetch{
		datasetID:      strings.TrimSpace(cfg.DatasetID),
		tableID:        strings.TrimSpace(cfg.TableID),
		maxResults:     maxResults,
		selectedFields: splitFields(cfg.SelectedFields),
		connectionID:   connectionID,
		delegateTo:     cfg.DelegateTo,
		location:       cfg.Location,
		hook:           hook,
		logger:         logger,
	}, nil
}

// ConnectionID reports the resolved connection id after the legacy
// parameter shim has been applied.
func (f *Fetch) ConnectionID() string {
	return f.connectionID
}

// Run performs the fetch. Connection and fetch errors are returned to the
// caller untouched; there are no retries and no partial results.
func (f *Fetch) Run(ctx context.Context) ([][]any, error) {
	f.logger.InfoContext(ctx, "fetching table data",
		slog.String("dataset_id", f.datasetID),
		slog.String("table_id", f.tableID),
		slog.Int64("max_results", f.maxResults),
	)

	start := time.Now()
	connection, err := f.hook.GetConnection(ctx, f.connectionID, f.delegateTo, f.location)
	if err != nil {
		observability.ObserveTaskRun(f.connectionID, "connect_error", 0, time.Since(start))
		return nil, err
	}

	data, err := connection.FetchTableRows(ctx, warehouse.FetchRequest{
		DatasetID:      f.datasetID,
		TableID:        f.tableID,
		MaxResults:     f.maxResults,
		SelectedFields: f.selectedFields,
	})
	if err != nil {
		observability.ObserveTaskRun(f.connectionID, "fetch_error", 0, time.Since(start))
		return nil, err
	}

	// The backend's reported total is informational; it may exceed the
	// returned row count and is never reconciled against it.
	f.logger.InfoContext(ctx, "total extracted rows",
		slog.Int64("total_rows", int64(data.TotalRows)),
	)

	rows := warehouse.Flatten(data.Rows)
	observability.ObserveTaskRun(f.connectionID, "success", len(rows), time.Since(start))
	return rows, nil
}

func splitFields(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	fields := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields = append(fields, part)
	}
	return fields
}
