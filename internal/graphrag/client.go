// Package graphrag is the JSON client for the managed GraphRAG deployment
// API. Every call carries the APIM subscription key header.
package graphrag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const apiKeyHeader = "Ocp-Apim-Subscription-Key"

// Query types accepted by the search endpoint.
const (
	QueryTypeGlobalStreaming = "Global Streaming"
	QueryTypeGlobal          = "Global"
	QueryTypeLocal           = "Local"
)

// ValidQueryTypes lists the accepted query types in display order.
var ValidQueryTypes = []string{QueryTypeGlobalStreaming, QueryTypeGlobal, QueryTypeLocal}

// IsValidQueryType reports whether queryType is one of the accepted values.
func IsValidQueryType(queryType string) bool {
	for _, qt := range ValidQueryTypes {
		if qt == queryType {
			return true
		}
	}
	return false
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SearchResponse is the answer to a query, plus the context data the engine
// used to produce it.
type SearchResponse struct {
	Result      string          `json:"result"`
	ContextData json.RawMessage `json:"context_data,omitempty"`
}

// IndexStatus reports progress for a build pipeline.
type IndexStatus struct {
	StatusCode      int    `json:"status_code"`
	IndexName       string `json:"index_name"`
	Status          string `json:"status"`
	PercentComplete int    `json:"percent_complete"`
	Progress        string `json:"progress"`
}

// GetIndexNames returns the names of all indexes known to the deployment.
func (c *Client) GetIndexNames(ctx context.Context) ([]string, error) {
	var out struct {
		IndexName []string `json:"index_name"`
	}
	if err := c.do(ctx, http.MethodGet, "/index", nil, &out); err != nil {
		return nil, err
	}
	return out.IndexName, nil
}

// GetStorageContainerNames returns the names of all data containers.
func (c *Client) GetStorageContainerNames(ctx context.Context) ([]string, error) {
	var out struct {
		StorageName []string `json:"storage_name"`
	}
	if err := c.do(ctx, http.MethodGet, "/data", nil, &out); err != nil {
		return nil, err
	}
	return out.StorageName, nil
}

// Search runs a query against one or more indexes. Streaming query types are
// forwarded as their non-streaming counterpart.
func (c *Client) Search(ctx context.Context, queryType string, indexNames []string, query string) (*SearchResponse, error) {
	path := "/query/global"
	if queryType == QueryTypeLocal {
		path = "/query/local"
	}

	body := map[string]any{
		"index_name": indexNames,
		"query":      query,
	}

	var out SearchResponse
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GeneratePrompts asks the deployment to auto-generate prompt templates from
// a sample of documents in the given storage container.
func (c *Client) GeneratePrompts(ctx context.Context, storageName string, limit int) (map[string]string, error) {
	path := "/index/config/prompts?" + url.Values{
		"container_name": {storageName},
		"limit":          {strconv.Itoa(limit)},
	}.Encode()

	var out map[string]string
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// BuildIndex schedules an indexing pipeline over a storage container.
func (c *Client) BuildIndex(ctx context.Context, storageName, indexName string) error {
	body := map[string]any{
		"storage_name": storageName,
		"index_name":   indexName,
	}
	return c.do(ctx, http.MethodPost, "/index", body, nil)
}

// GetIndexStatus reports the state of an indexing pipeline.
func (c *Client) GetIndexStatus(ctx context.Context, indexName string) (*IndexStatus, error) {
	var out IndexStatus
	if err := c.do(ctx, http.MethodGet, "/index/status/"+url.PathEscape(indexName), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("graphrag api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode graphrag api response: %w", err)
	}
	return nil
}

// APIError is a non-2xx response from the GraphRAG API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("graphrag api returned status %d: %s", e.StatusCode, e.Body)
}
