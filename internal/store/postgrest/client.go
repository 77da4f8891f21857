// Package postgrest implements store.Store against a hosted PostgREST-style
// row API (Supabase-compatible). Transient failures are retried a bounded
// number of times with exponential backoff before surfacing to the caller.
package postgrest

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/herdbook/herdbook/internal/store"
)

const (
	requestTimeout = 15 * time.Second
	retryAttempts  = 3
	retryBaseWait  = 250 * time.Millisecond
	retryMaxWait   = 2 * time.Second
)

// Client is a resty-backed store.Store over the hosted datastore's REST API.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

var _ store.Store = (*Client)(nil)

// New builds a datastore client for the given base URL and API key.
func New(baseURL, apiKey string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := resty.New()
	httpClient.
		SetBaseURL(strings.TrimSuffix(baseURL, "/") + "/rest/v1").
		SetHeader("apikey", apiKey).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", apiKey)).
		SetHeader("Content-Type", "application/json").
		SetTimeout(requestTimeout).
		SetRetryCount(retryAttempts).
		SetRetryWaitTime(retryBaseWait).
		SetRetryMaxWaitTime(retryMaxWait).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			retry := resp.StatusCode() >= http.StatusInternalServerError ||
				resp.StatusCode() == http.StatusTooManyRequests
			if retry {
				logger.Debug("retrying datastore call",
					zap.String("url", resp.Request.URL),
					zap.Int("status", resp.StatusCode()))
			}
			return retry
		})

	return &Client{http: httpClient, logger: logger}
}

// apiError mirrors the PostgREST error payload.
type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

// Select fetches rows matching the query.
func (c *Client) Select(ctx context.Context, table string, q store.Query) ([]map[string]any, error) {
	req := c.http.R().SetContext(ctx)
	req.SetQueryParam("select", "*")

	// Range filters can repeat a field (gte + lte), so append rather than set.
	for _, f := range q.Filters {
		req.QueryParam.Add(f.Field, fmt.Sprintf("%s.%v", f.Op, f.Value))
	}
	if q.OrderBy != "" {
		direction := "desc"
		if q.Ascending {
			direction = "asc"
		}
		req.SetQueryParam("order", fmt.Sprintf("%s.%s", q.OrderBy, direction))
	}
	if q.Limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		req.SetQueryParam("offset", strconv.Itoa(q.Offset))
	}

	var rows []map[string]any
	apiErr := new(apiError)
	resp, err := req.SetResult(&rows).SetError(apiErr).Get("/" + table)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("select %s: %s", table, errorText(resp, apiErr))
	}

	return rows, nil
}

// Insert persists one row and returns the stored representation, including
// any server-generated fields.
func (c *Client) Insert(ctx context.Context, table string, row map[string]any) (map[string]any, error) {
	var inserted []map[string]any
	apiErr := new(apiError)

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetBody([]map[string]any{row}).
		SetResult(&inserted).
		SetError(apiErr).
		Post("/" + table)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", table, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("insert %s: %s", table, errorText(resp, apiErr))
	}
	if len(inserted) == 0 {
		return nil, fmt.Errorf("insert %s: empty response", table)
	}

	return inserted[0], nil
}

// Update patches rows matching the field and returns the first updated row.
func (c *Client) Update(ctx context.Context, table, matchField string, matchValue any, patch map[string]any) (map[string]any, error) {
	var updated []map[string]any
	apiErr := new(apiError)

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParam(matchField, fmt.Sprintf("eq.%v", matchValue)).
		SetBody(patch).
		SetResult(&updated).
		SetError(apiErr).
		Patch("/" + table)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", table, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("update %s: %s", table, errorText(resp, apiErr))
	}
	if len(updated) == 0 {
		return nil, fmt.Errorf("update %s: %s=%v: %w", table, matchField, matchValue, store.ErrNotFound)
	}

	return updated[0], nil
}

// Delete removes rows matching the field.
func (c *Client) Delete(ctx context.Context, table, matchField string, matchValue any) error {
	apiErr := new(apiError)

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam(matchField, fmt.Sprintf("eq.%v", matchValue)).
		SetError(apiErr).
		Delete("/" + table)
	if err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	if resp.IsError() {
		return fmt.Errorf("delete %s: %s", table, errorText(resp, apiErr))
	}

	return nil
}

func errorText(resp *resty.Response, apiErr *apiError) string {
	if apiErr != nil && apiErr.Message != "" {
		return fmt.Sprintf("%s (status %d)", apiErr.Message, resp.StatusCode())
	}
	return fmt.Sprintf("status %d", resp.StatusCode())
}
