// Package conn resolves named connection ids into live warehouse
// connections. Connections are declared as URIs, one env var per
// connection: TABLEFETCH_CONN_<ID>=<uri>.
//
// Supported schemes: http/https (tabledata-style REST API, userinfo
// password used as the API key), postgres/postgresql (pgx) and duckdb
// (local database file, empty path for in-memory).
package conn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tablefetch/tablefetch/internal/warehouse"
	"github.com/tablefetch/tablefetch/internal/warehouse/duckdb"
	"github.com/tablefetch/tablefetch/internal/warehouse/postgres"
	"github.com/tablefetch/tablefetch/internal/warehouse/rest"
)

const envPrefix = "TABLEFETCH_CONN_"

var ErrUnknownConnection = errors.New("unknown connection id")

// URIsFromEnviron collects connection URIs from TABLEFETCH_CONN_* entries.
// The id is the env var suffix, lowercased.
func URIsFromEnviron(environ []string) map[string]string {
	uris := map[string]string{}
	for _, entry := range environ {
		if !strings.HasPrefix(entry, envPrefix) {
			continue
		}
		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		id := strings.ToLower(strings.TrimPrefix(key, envPrefix))
		value = strings.TrimSpace(value)
		if id == "" || value == "" {
			continue
		}
		uris[id] = value
	}
	return uris
}

type Options struct {
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

type Registry struct {
	uris    map[string]string
	timeout time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	closers []io.Closer
}

func NewRegistry(uris map[string]string, opts Options) *Registry {
	normalized := make(map[string]string, len(uris))
	for id, uri := range uris {
		normalized[strings.ToLower(strings.TrimSpace(id))] = strings.TrimSpace(uri)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{uris: normalized, timeout: opts.RequestTimeout, logger: logger}
}

// GetConnection dials the backend behind connectionID. delegateTo and
// location are forwarded to backends that understand them and ignored by
// the rest.
func (r *Registry) GetConnection(ctx context.Context, connectionID, delegateTo, location string) (warehouse.Connection, error) {
	id := strings.ToLower(strings.TrimSpace(connectionID))
	uri, ok := r.uris[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownConnection, connectionID)
	}

	parsed, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("parse connection uri for %q: %w", id, err)
	}

	r.logger.DebugContext(ctx, "dialing warehouse connection",
		slog.String("connection_id", id),
		slog.String("scheme", parsed.Scheme),
	)

	switch parsed.Scheme {
	case "http", "https":
		return r.dialREST(parsed, delegateTo, location)
	case "postgres", "postgresql":
		return r.dialPostgres(ctx, uri)
	case "duckdb":
		return r.dialDuckDB(parsed)
	default:
		return nil, fmt.Errorf("unsupported connection scheme %q for %q", parsed.Scheme, id)
	}
}

// Close releases every connection dialed through the registry.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for _, closer := range r.closers {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

func (r *Registry) track(closer io.Closer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closers = append(r.closers, closer)
}

func (r *Registry) dialREST(parsed *url.URL, delegateTo, location string) (warehouse.Connection, error) {
	apiKey := ""
	if parsed.User != nil {
		apiKey, _ = parsed.User.Password()
	}
	stripped := *parsed
	stripped.User = nil
	stripped.RawQuery = ""

	return rest.Dial(rest.Config{
		BaseURL:    stripped.String(),
		APIKey:     apiKey,
		DelegateTo: delegateTo,
		Location:   location,
		Timeout:    r.timeout,
	})
}

func (r *Registry) dialPostgres(ctx context.Context, dsn string) (warehouse.Connection, error) {
	conn, err := postgres.Open(ctx, postgres.Config{DSN: dsn})
	if err != nil {
		return nil, err
	}
	r.track(conn)
	return conn, nil
}

func (r *Registry) dialDuckDB(parsed *url.URL) (warehouse.Connection, error) {
	path := parsed.Path
	if parsed.Host != "" {
		path = parsed.Host + path
	}
	if parsed.Opaque != "" {
		path = parsed.Opaque
	}

	readOnly := false
	if raw := parsed.Query().Get("read_only"); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid read_only value %q: %w", raw, err)
		}
		readOnly = value
	}

	conn, err := duckdb.Open(duckdb.Config{Path: path, ReadOnly: readOnly})
	if err != nil {
		return nil, err
	}
	r.track(conn)
	return conn, nil
}
