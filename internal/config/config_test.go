package config

import (
	"log/slog"
	"testing"
	"time"
)

func mapLookup(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}

func TestLoadDefaultsForDevProfile(t *testing.T) {
	lookup := mapLookup(map[string]string{})
	cfg, err := Load("tablefetch", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileDev {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileDev)
	}
	if cfg.Warehouse.DefaultConnectionID != "warehouse_default" {
		t.Fatalf("DefaultConnectionID = %q", cfg.Warehouse.DefaultConnectionID)
	}
	if cfg.Warehouse.DefaultMaxResults != 100 {
		t.Fatalf("DefaultMaxResults = %d", cfg.Warehouse.DefaultMaxResults)
	}
	if cfg.Warehouse.RequestTimeout != 30*time.Second {
		t.Fatalf("RequestTimeout = %v", cfg.Warehouse.RequestTimeout)
	}
	if cfg.Observability.LogLevel != slog.LevelDebug {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if cfg.ObjectStore.Endpoint != "localhost:9000" {
		t.Fatalf("ObjectStore.Endpoint = %q", cfg.ObjectStore.Endpoint)
	}
	if !cfg.ObjectStore.AutoCreateBucket {
		t.Fatal("AutoCreateBucket should default to true in dev")
	}
}

func TestLoadProdProfileDefaults(t *testing.T) {
	lookup := mapLookup(map[string]string{"TABLEFETCH_PROFILE": "prod"})
	cfg, err := Load("tablefetch", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Observability.LogLevel != slog.LevelInfo {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if !cfg.ObjectStore.UseSSL {
		t.Fatal("UseSSL should default to true in prod")
	}
	if cfg.ObjectStore.AutoCreateBucket {
		t.Fatal("AutoCreateBucket should default to false in prod")
	}
}

func TestLoadAppliesOverrides(t *testing.T) {
	lookup := mapLookup(map[string]string{
		"TABLEFETCH_SERVICE_NAME":          "fetcher-a",
		"TABLEFETCH_DEFAULT_CONNECTION_ID": "analytics",
		"TABLEFETCH_DEFAULT_MAX_RESULTS":   "500",
		"TABLEFETCH_REQUEST_TIMEOUT":       "5s",
		"TABLEFETCH_LOG_LEVEL":             "error",
		"TABLEFETCH_LOG_JSON":              "false",
		"TABLEFETCH_OBJECTSTORE_BUCKET":    "results",
	})
	cfg, err := Load("tablefetch", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Service.Name != "fetcher-a" {
		t.Fatalf("Service.Name = %q", cfg.Service.Name)
	}
	if cfg.Warehouse.DefaultConnectionID != "analytics" {
		t.Fatalf("DefaultConnectionID = %q", cfg.Warehouse.DefaultConnectionID)
	}
	if cfg.Warehouse.DefaultMaxResults != 500 {
		t.Fatalf("DefaultMaxResults = %d", cfg.Warehouse.DefaultMaxResults)
	}
	if cfg.Warehouse.RequestTimeout != 5*time.Second {
		t.Fatalf("RequestTimeout = %v", cfg.Warehouse.RequestTimeout)
	}
	if cfg.Observability.LogLevel != slog.LevelError {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if cfg.Observability.LogJSON {
		t.Fatal("LogJSON should be overridden to false")
	}
	if cfg.ObjectStore.Bucket != "results" {
		t.Fatalf("ObjectStore.Bucket = %q", cfg.ObjectStore.Bucket)
	}
}

func TestLoadRejectsInvalidProfile(t *testing.T) {
	lookup := mapLookup(map[string]string{"TABLEFETCH_PROFILE": "staging"})
	if _, err := Load("tablefetch", lookup); err == nil {
		t.Fatal("expected invalid profile error")
	}
}

func TestLoadRejectsMalformedMaxResults(t *testing.T) {
	lookup := mapLookup(map[string]string{"TABLEFETCH_DEFAULT_MAX_RESULTS": "lots"})
	if _, err := Load("tablefetch", lookup); err == nil {
		t.Fatal("expected parse error for max results")
	}
}

func TestLoadRejectsNonPositiveMaxResults(t *testing.T) {
	lookup := mapLookup(map[string]string{"TABLEFETCH_DEFAULT_MAX_RESULTS": "0"})
	if _, err := Load("tablefetch", lookup); err == nil {
		t.Fatal("expected validation error for zero max results")
	}
}
