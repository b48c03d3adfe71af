// Package catalog provides the read-only client for the catalog's metadata
// API: listing and describing tables within a catalog/schema namespace.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/lakescan-io/lakescan/pkg/core"
)

const (
	tablesPath = "/api/2.1/unity-catalog/tables"

	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 3
	defaultPageSize   = 50
)

// Config holds the connection settings for the catalog API. Credentials are
// supplied explicitly; the client never reads process environment.
type Config struct {
	// Host is the workspace base URL, e.g. "https://dbc-123.cloud.example.com".
	Host string
	// Token is the bearer token used for authentication.
	Token string
	// Timeout bounds each HTTP request. Zero means 30s.
	Timeout time.Duration
	// MaxRetries bounds retry attempts for transient failures. Zero means 3.
	MaxRetries int
	// PageSize is the max_results value per listing page. Zero means 50.
	PageSize int
}

// Client is the catalog directory client. It is stateless with respect to a
// collection run and safe for concurrent use.
type Client struct {
	http     *retryablehttp.Client
	host     string
	token    string
	pageSize int
	logger   *slog.Logger
}

// New creates a catalog client. If logger is nil, a discard logger is used.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.Host == "" {
		return nil, &core.InvalidArgumentError{Field: "host", Reason: "must not be empty"}
	}
	if cfg.Token == "" {
		return nil, &core.InvalidArgumentError{Field: "token", Reason: "must not be empty"}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	retries := cfg.MaxRetries
	if retries == 0 {
		retries = defaultMaxRetries
	}
	pageSize := cfg.PageSize
	if pageSize == 0 {
		pageSize = defaultPageSize
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = retries
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 8 * time.Second
	rc.HTTPClient.Timeout = timeout
	rc.Logger = nil

	return &Client{
		http:     rc,
		host:     strings.TrimRight(cfg.Host, "/"),
		token:    cfg.Token,
		pageSize: pageSize,
		logger:   logger,
	}, nil
}

// ListTables returns the descriptors of every table in the given schema, in
// the catalog's listing order. Pagination is followed internally; callers
// never see partial pages.
func (c *Client) ListTables(ctx context.Context, catalog, schema string) ([]core.TableDescriptor, error) {
	if err := core.ValidateIdentifier("catalog", catalog); err != nil {
		return nil, err
	}
	if err := core.ValidateIdentifier("schema", schema); err != nil {
		return nil, err
	}

	resource := fmt.Sprintf("schema %s.%s", catalog, schema)
	var descriptors []core.TableDescriptor
	pageToken := ""

	for {
		q := url.Values{}
		q.Set("catalog_name", catalog)
		q.Set("schema_name", schema)
		q.Set("max_results", fmt.Sprintf("%d", c.pageSize))
		if pageToken != "" {
			q.Set("page_token", pageToken)
		}

		var page listTablesResponse
		if err := c.get(ctx, tablesPath+"?"+q.Encode(), resource, &page); err != nil {
			return nil, err
		}

		for _, info := range page.Tables {
			descriptors = append(descriptors, info.toDescriptor())
		}

		c.logger.Debug("listed tables page",
			"catalog", catalog, "schema", schema,
			"page_size", len(page.Tables), "has_more", page.NextPageToken != "")

		if page.NextPageToken == "" {
			return descriptors, nil
		}
		pageToken = page.NextPageToken
	}
}

// GetTable returns the authoritative descriptor for one table.
func (c *Client) GetTable(ctx context.Context, ref core.TableRef) (*core.TableDescriptor, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	var info tableInfo
	path := tablesPath + "/" + url.PathEscape(ref.FullName())
	if err := c.get(ctx, path, "table "+ref.FullName(), &info); err != nil {
		return nil, err
	}

	desc := info.toDescriptor()
	return &desc, nil
}

// get performs one authenticated GET and decodes the response body into out.
// Transient failures are retried with exponential backoff by the underlying
// client; exhaustion surfaces as DirectoryUnavailableError.
func (c *Client) get(ctx context.Context, path, resource string, out any) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.host+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &core.DirectoryUnavailableError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode catalog response: %w", err)
		}
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return &core.NotFoundError{Resource: resource}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &core.AuthorizationError{Resource: resource, Reason: readAPIError(resp.Body)}
	case resp.StatusCode >= 500:
		// Retries are already exhausted when a 5xx reaches this point.
		return &core.DirectoryUnavailableError{
			Err: fmt.Errorf("catalog API returned status %d: %s", resp.StatusCode, readAPIError(resp.Body)),
		}
	default:
		return fmt.Errorf("catalog API returned status %d: %s", resp.StatusCode, readAPIError(resp.Body))
	}
}

// readAPIError extracts the message from an API error body, falling back to
// the raw text.
func readAPIError(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(body) == 0 {
		return ""
	}
	var apiErr struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		return apiErr.Message
	}
	return strings.TrimSpace(string(body))
}
