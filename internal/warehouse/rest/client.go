// Package rest implements a warehouse connection over a tabledata-style
// HTTP API.
package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tablefetch/tablefetch/internal/warehouse"
)

type Config struct {
	BaseURL    string
	APIKey     string
	DelegateTo string
	Location   string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type Connection struct {
	baseURL    string
	apiKey     string
	delegateTo string
	location   string
	client     *http.Client
}

func Dial(cfg Config) (*Connection, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("base url is required")
	}
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Connection{
		baseURL:    base,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		delegateTo: strings.TrimSpace(cfg.DelegateTo),
		location:   strings.TrimSpace(cfg.Location),
		client:     client,
	}, nil
}

func (c *Connection) FetchTableRows(ctx context.Context, req warehouse.FetchRequest) (warehouse.TableData, error) {
	if strings.TrimSpace(req.DatasetID) == "" {
		return warehouse.TableData{}, fmt.Errorf("dataset id is required")
	}
	if strings.TrimSpace(req.TableID) == "" {
		return warehouse.TableData{}, fmt.Errorf("table id is required")
	}

	endpoint := fmt.Sprintf("%s/datasets/%s/tables/%s/data",
		c.baseURL, url.PathEscape(req.DatasetID), url.PathEscape(req.TableID))

	query := url.Values{}
	if req.MaxResults > 0 {
		query.Set("maxResults", strconv.FormatInt(req.MaxResults, 10))
	}
	if len(req.SelectedFields) > 0 {
		query.Set("selectedFields", strings.Join(req.SelectedFields, ","))
	}
	if c.location != "" {
		query.Set("location", c.location)
	}
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return warehouse.TableData{}, fmt.Errorf("build fetch request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("X-API-Key", c.apiKey)
	}
	if c.delegateTo != "" {
		httpReq.Header.Set("X-Delegate-To", c.delegateTo)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return warehouse.TableData{}, fmt.Errorf("fetch table data: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return warehouse.TableData{}, fmt.Errorf("read fetch response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return warehouse.TableData{}, fmt.Errorf("fetch table data: http %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var data warehouse.TableData
	if err := json.Unmarshal(body, &data); err != nil {
		return warehouse.TableData{}, fmt.Errorf("decode fetch response: %w", err)
	}
	return data, nil
}
