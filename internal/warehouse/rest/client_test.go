package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/tablefetch/tablefetch/internal/warehouse"
)

func TestFetchTableRowsDecodesWirePayload(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	var gotAPIKey, gotDelegate string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		gotAPIKey = r.Header.Get("X-API-Key")
		gotDelegate = r.Header.Get("X-Delegate-To")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"totalRows":"3","rows":[{"f":[{"v":"Tony"},{"v":"10"}]},{"f":[{"v":"Mike"},{"v":"20"}]},{"f":[{"v":"Steve"},{"v":"15"}]}]}`))
	}))
	defer server.Close()

	conn, err := Dial(Config{
		BaseURL:    server.URL,
		APIKey:     "secret",
		DelegateTo: "svc@example.com",
		Location:   "EU",
	})
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}

	data, err := conn.FetchTableRows(context.Background(), warehouse.FetchRequest{
		DatasetID:      "test_dataset",
		TableID:        "Transaction_partitions",
		MaxResults:     100,
		SelectedFields: []string{"name", "amount"},
	})
	if err != nil {
		t.Fatalf("FetchTableRows() error = %v", err)
	}

	if gotPath != "/datasets/test_dataset/tables/Transaction_partitions/data" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotQuery["maxResults"][0] != "100" {
		t.Fatalf("maxResults = %v", gotQuery["maxResults"])
	}
	if gotQuery["selectedFields"][0] != "name,amount" {
		t.Fatalf("selectedFields = %v", gotQuery["selectedFields"])
	}
	if gotQuery["location"][0] != "EU" {
		t.Fatalf("location = %v", gotQuery["location"])
	}
	if gotAPIKey != "secret" || gotDelegate != "svc@example.com" {
		t.Fatalf("auth headers = %q, %q", gotAPIKey, gotDelegate)
	}

	if data.TotalRows != 3 {
		t.Fatalf("TotalRows = %d", data.TotalRows)
	}
	rows := warehouse.Flatten(data.Rows)
	want := [][]any{{"Tony", "10"}, {"Mike", "20"}, {"Steve", "15"}}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("rows = %#v, want %#v", rows, want)
	}
}

func TestFetchTableRowsOmitsEmptyParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("selectedFields") {
			t.Error("selectedFields should not be sent when unset")
		}
		if r.URL.Query().Has("location") {
			t.Error("location should not be sent when unset")
		}
		_, _ = w.Write([]byte(`{"totalRows":0,"rows":[]}`))
	}))
	defer server.Close()

	conn, err := Dial(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	if _, err := conn.FetchTableRows(context.Background(), warehouse.FetchRequest{
		DatasetID:  "ds",
		TableID:    "t",
		MaxResults: 10,
	}); err != nil {
		t.Fatalf("FetchTableRows() error = %v", err)
	}
}

func TestFetchTableRowsSurfacesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"table not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	conn, err := Dial(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	_, err = conn.FetchTableRows(context.Background(), warehouse.FetchRequest{DatasetID: "ds", TableID: "missing"})
	if err == nil {
		t.Fatal("expected error for http 404")
	}
}

func TestDialRequiresBaseURL(t *testing.T) {
	if _, err := Dial(Config{}); err == nil {
		t.Fatal("expected error for empty base url")
	}
}

func TestFetchTableRowsValidatesIdentifiers(t *testing.T) {
	conn, err := Dial(Config{BaseURL: "http://localhost:1"})
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	if _, err := conn.FetchTableRows(context.Background(), warehouse.FetchRequest{TableID: "t"}); err == nil {
		t.Fatal("expected error for empty dataset id")
	}
	if _, err := conn.FetchTableRows(context.Background(), warehouse.FetchRequest{DatasetID: "ds"}); err == nil {
		t.Fatal("expected error for empty table id")
	}
}
