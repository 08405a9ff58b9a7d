// Package tablefetch implements the one-shot CLI: fetch rows from a named
// warehouse table and print them as JSON, optionally exporting them as a
// parquet object.
package tablefetch

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tablefetch/tablefetch/internal/config"
	"github.com/tablefetch/tablefetch/internal/conn"
	"github.com/tablefetch/tablefetch/internal/export"
	"github.com/tablefetch/tablefetch/internal/observability"
	"github.com/tablefetch/tablefetch/internal/storage/s3"
	"github.com/tablefetch/tablefetch/internal/task"
)

type Options struct {
	Lookup  config.LookupFunc
	Environ []string
	Stdout  io.Writer
	Stderr  io.Writer

	// Hook and Sink override the env-built collaborators in tests.
	Hook task.Hook
	Sink *export.Sink
}

func Run(ctx context.Context, args []string, defaults Options) int {
	stdout := defaults.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := defaults.Stderr
	if stderr == nil {
		stderr = io.Discard
	}
	lookup := defaults.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	environ := defaults.Environ
	if environ == nil {
		environ = os.Environ()
	}

	fs := flag.NewFlagSet("tablefetch", flag.ContinueOnError)
	fs.SetOutput(stderr)

	datasetID := fs.String("dataset", "", "dataset id of the requested table (required)")
	tableID := fs.String("table", "", "table id of the requested table (required)")
	maxResults := fs.Int64("max-results", 0, "maximum number of rows to fetch (default from config)")
	fields := fs.String("fields", "", "comma-separated columns to return; all columns when empty")
	connectionID := fs.String("connection-id", "", "connection id to fetch through (default from config)")
	legacyConnID := fs.String("conn-id", "", "deprecated alias for -connection-id")
	delegateTo := fs.String("delegate-to", "", "identity to impersonate, if the backend supports it")
	location := fs.String("location", "", "location hint forwarded to the backend")
	output := fs.String("output", "", "object key to export the rows to as parquet; no export when empty")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if strings.TrimSpace(*datasetID) == "" || strings.TrimSpace(*tableID) == "" {
		_, _ = fmt.Fprintln(stderr, "-dataset and -table are required")
		fs.Usage()
		return 2
	}

	cfg, err := config.Load("tablefetch", lookup)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "load config: %v\n", err)
		return 1
	}
	logger := observability.NewLogger(cfg, stderr)

	hook := defaults.Hook
	if hook == nil {
		registry := conn.NewRegistry(conn.URIsFromEnviron(environ), conn.Options{
			RequestTimeout: cfg.Warehouse.RequestTimeout,
			Logger:         logger,
		})
		defer func() { _ = registry.Close() }()
		hook = registry
	}

	resolvedConnID := strings.TrimSpace(*connectionID)
	if resolvedConnID == "" && strings.TrimSpace(*legacyConnID) == "" {
		resolvedConnID = cfg.Warehouse.DefaultConnectionID
	}
	resolvedMax := *maxResults
	if resolvedMax <= 0 {
		resolvedMax = cfg.Warehouse.DefaultMaxResults
	}

	fetch, err := task.NewFetch(task.FetchConfig{
		DatasetID:          *datasetID,
		TableID:            *tableID,
		MaxResults:         resolvedMax,
		SelectedFields:     *fields,
		ConnectionID:       resolvedConnID,
		LegacyConnectionID: strings.TrimSpace(*legacyConnID),
		DelegateTo:         *delegateTo,
		Location:           *location,
	}, hook, logger)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "configure fetch task: %v\n", err)
		return 2
	}

	rows, err := fetch.Run(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "fetch failed: %v\n", err)
		return 1
	}

	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(rows); err != nil {
		_, _ = fmt.Fprintf(stderr, "encode rows: %v\n", err)
		return 1
	}

	if strings.TrimSpace(*output) != "" {
		sink := defaults.Sink
		if sink == nil {
			store, err := s3.New(ctx, s3.Config{
				Endpoint:         cfg.ObjectStore.Endpoint,
				Region:           cfg.ObjectStore.Region,
				Bucket:           cfg.ObjectStore.Bucket,
				AccessKeyID:      cfg.ObjectStore.AccessKeyID,
				SecretAccessKey:  cfg.ObjectStore.SecretAccessKey,
				UseSSL:           cfg.ObjectStore.UseSSL,
				Prefix:           cfg.ObjectStore.Prefix,
				AutoCreateBucket: cfg.ObjectStore.AutoCreateBucket,
			})
			if err != nil {
				_, _ = fmt.Fprintf(stderr, "open object store: %v\n", err)
				return 1
			}
			sink, err = export.NewSink(store)
			if err != nil {
				_, _ = fmt.Fprintf(stderr, "create export sink: %v\n", err)
				return 1
			}
		}
		info, err := sink.WriteRows(ctx, strings.TrimSpace(*output), splitFields(*fields), rows)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "export rows: %v\n", err)
			return 1
		}
		logger.InfoContext(ctx, "exported rows",
			"key", info.Key,
			"bytes", info.Size,
		)
	}

	return 0
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
