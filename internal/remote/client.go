// Package remote syncs whole family datasets against a PostgREST endpoint.
// The client only ever moves complete tables: pull replaces the local copy,
// push wipes and reuploads the remote one.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/medtra-labs/medquery/internal/schema"
)

const (
	// fetchPageSize is the page length for paginated pulls.
	fetchPageSize = 1000
	// pushBatchSize is the insert batch length for pushes.
	pushBatchSize = 500
)

// ErrMissingServiceKey reports a push attempted without the write-capable
// key. Reads work with the anonymous key alone.
var ErrMissingServiceKey = errors.New("service role key required for push")

// Client talks to a PostgREST endpoint serving the family tables.
type Client struct {
	baseURL    string
	anonKey    string
	serviceKey string
	httpc      *http.Client
	logger     *slog.Logger
}

// NewClient validates the endpoint settings and creates a client. The
// service key may be empty, which leaves the client read-only.
func NewClient(baseURL, anonKey, serviceKey string, logger *slog.Logger) (*Client, error) {
	if baseURL == "" || anonKey == "" {
		return nil, fmt.Errorf("remote URL and anon key must both be configured")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		anonKey:    anonKey,
		serviceKey: serviceKey,
		httpc:      &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
	}, nil
}

func (c *Client) setHeaders(req *http.Request, useServiceKey bool) {
	key := c.anonKey
	if useServiceKey {
		key = c.serviceKey
	}
	req.Header.Set("apikey", key)
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")
}

func (c *Client) tableURL(family schema.Family, query url.Values) string {
	u := c.baseURL + "/rest/v1/" + string(family)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// apiError drains the body far enough to include the server's message.
func apiError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return fmt.Errorf("%s failed with status %d: %s", op, resp.StatusCode, strings.TrimSpace(string(body)))
}

// cellString renders one JSON field the way rows are stored locally, with
// null becoming the empty string.
func cellString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

// FetchFamily pulls the family's full dataset, page by page in id order.
// Fields missing from a record come back empty. progress may be nil; it
// receives the running row total after each page.
func (c *Client) FetchFamily(ctx context.Context, family schema.Family, progress func(fetched int)) ([][]string, error) {
	cols, err := schema.ColumnNames(family)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	for offset := 0; ; offset += fetchPageSize {
		query := url.Values{}
		query.Set("select", strings.Join(cols, ","))
		query.Set("offset", strconv.Itoa(offset))
		query.Set("limit", strconv.Itoa(fetchPageSize))
		query.Set("order", "id.asc")

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.tableURL(family, query), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build fetch request: %w", err)
		}
		c.setHeaders(req, false)

		resp, err := c.httpc.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", family, err)
		}
		var page []map[string]any
		if resp.StatusCode != http.StatusOK {
			err = apiError("fetch "+string(family), resp)
			_ = resp.Body.Close()
			return nil, err
		}
		err = json.NewDecoder(resp.Body).Decode(&page)
		_ = resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s page at offset %d: %w", family, offset, err)
		}

		for _, record := range page {
			row := make([]string, len(cols))
			for i, col := range cols {
				row[i] = cellString(record[col])
			}
			rows = append(rows, row)
		}
		if progress != nil && len(page) > 0 {
			progress(len(rows))
		}
		if len(page) < fetchPageSize {
			break
		}
	}

	c.logger.Info("fetched remote rows", "family", string(family), "rows", len(rows))
	return rows, nil
}

// PushFamily replaces the remote dataset with rows: a full delete, then
// batched inserts. Requires the service key. progress may be nil; it
// receives (pushed, total) after each batch.
func (c *Client) PushFamily(ctx context.Context, family schema.Family, rows [][]string, progress func(pushed, total int)) (int, error) {
	if c.serviceKey == "" {
		return 0, ErrMissingServiceKey
	}
	cols, err := schema.ColumnNames(family)
	if err != nil {
		return 0, err
	}

	query := url.Values{}
	query.Set("id", "gt.0")
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.tableURL(family, query), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build delete request: %w", err)
	}
	c.setHeaders(req, true)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to delete remote %s: %w", family, err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		err = apiError("delete "+string(family), resp)
		_ = resp.Body.Close()
		return 0, err
	}
	_ = resp.Body.Close()

	pushed := 0
	for start := 0; start < len(rows); start += pushBatchSize {
		end := start + pushBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := make([]map[string]string, 0, end-start)
		for _, row := range rows[start:end] {
			record := make(map[string]string, len(cols))
			for i, col := range cols {
				if i < len(row) {
					record[col] = row[i]
				} else {
					record[col] = ""
				}
			}
			batch = append(batch, record)
		}
		payload, err := json.Marshal(batch)
		if err != nil {
			return pushed, fmt.Errorf("failed to encode batch at %d: %w", start, err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tableURL(family, nil), bytes.NewReader(payload))
		if err != nil {
			return pushed, fmt.Errorf("failed to build insert request: %w", err)
		}
		c.setHeaders(req, true)

		resp, err := c.httpc.Do(req)
		if err != nil {
			return pushed, fmt.Errorf("failed to insert batch at %d: %w", start, err)
		}
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			err = apiError(fmt.Sprintf("insert %s batch at %d", family, start), resp)
			_ = resp.Body.Close()
			return pushed, err
		}
		_ = resp.Body.Close()

		pushed = end
		if progress != nil {
			progress(pushed, len(rows))
		}
	}

	c.logger.Info("pushed remote rows", "family", string(family), "rows", pushed)
	return pushed, nil
}

// Count returns the remote row count via an exact-count range probe.
func (c *Client) Count(ctx context.Context, family schema.Family) (int, error) {
	if !schema.Valid(family) {
		return 0, fmt.Errorf("%w: %q", schema.ErrUnknownFamily, string(family))
	}

	query := url.Values{}
	query.Set("select", "id")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.tableURL(family, query), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build count request: %w", err)
	}
	c.setHeaders(req, false)
	req.Header.Set("Prefer", "count=exact")
	req.Header.Set("Range-Unit", "items")
	req.Header.Set("Range", "0-0")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to count remote %s: %w", family, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return 0, apiError("count "+string(family), resp)
	}

	contentRange := resp.Header.Get("Content-Range")
	_, total, found := strings.Cut(contentRange, "/")
	if !found {
		return 0, fmt.Errorf("count response missing Content-Range total, got %q", contentRange)
	}
	if total == "*" {
		return 0, nil
	}
	n, err := strconv.Atoi(total)
	if err != nil {
		return 0, fmt.Errorf("malformed Content-Range total %q: %w", contentRange, err)
	}
	return n, nil
}
