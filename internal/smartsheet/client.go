// Package smartsheet is a focused client for the Smartsheet 2.0 REST API.
// Failures are signalled by HTTP status, and every non-2xx response becomes a
// *models.UpstreamError.
package smartsheet

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

	"github.com/cenkalti/backoff/v4"

	"onboarding-bot/internal/config"
	"onboarding-bot/internal/models"
)

const (
	DefaultBaseURL = "https://api.smartsheet.com/2.0"
	serviceName    = "smartsheet"
)

// Client is safe for concurrent use once constructed.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	maxRetries int
	policy     config.MatchPolicy

	retryInterval time.Duration
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if u := strings.TrimSpace(baseURL); u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithMaxRetries bounds how many times an idempotent GET is retried after a
// 429 or 5xx response.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

func WithMatchPolicy(p config.MatchPolicy) Option {
	return func(c *Client) {
		if p != "" {
			c.policy = p
		}
	}
}

func NewClient(token string, opts ...Option) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("smartsheet: token must not be empty")
	}
	c := &Client{
		baseURL:       DefaultBaseURL,
		token:         token,
		httpClient:    &http.Client{Timeout: config.DefaultUpstreamTimeout},
		maxRetries:    config.DefaultMaxRetries,
		policy:        config.MatchFirst,
		retryInterval: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: config.DefaultUpstreamTimeout}
	}
	return c, nil
}

// Search looks up rows of sheetID matching query and returns the row id
// chosen by the client's match policy.
func (c *Client) Search(ctx context.Context, sheetID int64, query string) (int64, error) {
	endpoint := fmt.Sprintf("search/sheets/%d?query=%s", sheetID, url.QueryEscape(query))

	var out searchResponse
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return 0, err
	}

	rows := make([]SearchResult, 0, len(out.Results))
	for _, r := range out.Results {
		if r.ObjectType == "" || r.ObjectType == "row" {
			rows = append(rows, r)
		}
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("smartsheet: no rows in sheet %d match %q: %w", sheetID, query, models.ErrNotFound)
	}

	switch c.policy {
	case config.MatchExact:
		for _, r := range rows {
			if strings.EqualFold(strings.TrimSpace(r.Text), strings.TrimSpace(query)) {
				return r.ObjectID, nil
			}
		}
		return 0, fmt.Errorf("smartsheet: no row in sheet %d exactly matches %q: %w", sheetID, query, models.ErrNotFound)
	case config.MatchUnique:
		if len(rows) > 1 {
			return 0, fmt.Errorf("smartsheet: %d rows in sheet %d match %q: %w", len(rows), sheetID, query, models.ErrAmbiguous)
		}
	default:
		if len(rows) > 1 {
			slog.Debug("smartsheet search matched several rows, using the first",
				"sheet_id", sheetID, "matches", len(rows))
		}
	}
	return rows[0].ObjectID, nil
}

func (c *Client) FetchRow(ctx context.Context, sheetID, rowID int64) (*Row, error) {
	var row Row
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("sheets/%d/rows/%d", sheetID, rowID), nil, &row); err != nil {
		return nil, err
	}
	return &row, nil
}

// FetchSheet returns the sheet with its column metadata and rows in sheet
// order.
func (c *Client) FetchSheet(ctx context.Context, sheetID int64) (*Sheet, error) {
	var sheet Sheet
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("sheets/%d", sheetID), nil, &sheet); err != nil {
		return nil, err
	}
	return &sheet, nil
}

func (c *Client) FetchSheetRows(ctx context.Context, sheetID int64) ([]Row, error) {
	sheet, err := c.FetchSheet(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	return sheet.Rows, nil
}

// UpdateCell writes value into a single cell of an existing row.
func (c *Client) UpdateCell(ctx context.Context, sheetID, rowID, columnID int64, value any) error {
	body := []rowUpdate{{
		ID:    rowID,
		Cells: []cellUpdate{{ColumnID: columnID, Value: value}},
	}}

	var out updateResponse
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("sheets/%d/rows", sheetID), body, &out); err != nil {
		return err
	}
	if out.ResultCode != 0 {
		return &models.UpstreamError{Service: serviceName, Message: fmt.Sprintf("update rejected: %s (resultCode %d)", out.Message, out.ResultCode)}
	}
	return nil
}

// ResolveColumnID returns the id of the column titled name in sheetID.
func (c *Client) ResolveColumnID(ctx context.Context, sheetID int64, name string) (int64, error) {
	sheet, err := c.FetchSheet(ctx, sheetID)
	if err != nil {
		return 0, err
	}
	id, ok := sheet.ColumnID(name)
	if !ok {
		return 0, fmt.Errorf("smartsheet: column %q not found in sheet %d: %w", name, sheetID, models.ErrNotFound)
	}
	return id, nil
}

// do issues an authenticated JSON request against endpoint (relative to the
// base URL) and decodes a 2xx body into out. GETs are retried on 429 and 5xx.
func (c *Client) do(ctx context.Context, method, endpoint string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("smartsheet: marshal request: %w", err)
		}
	}
	target := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")

	attempt := func() error {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("smartsheet: create request: %w", err))
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		res, err := c.httpClient.Do(req)
		if err != nil {
			return backoff.Permanent(&models.UpstreamError{Service: serviceName, Message: err.Error(), Err: err})
		}
		defer func() { _ = res.Body.Close() }()

		if res.StatusCode < 200 || res.StatusCode >= 300 {
			upErr := statusError(res)
			if method == http.MethodGet && retryable(res.StatusCode) {
				return upErr
			}
			return backoff.Permanent(upErr)
		}

		if out == nil {
			return nil
		}
		if err := json.NewDecoder(io.LimitReader(res.Body, 16<<20)).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("smartsheet: decode %s response: %w", endpoint, err))
		}
		return nil
	}

	return backoff.Retry(attempt, backoff.WithContext(c.newBackoff(), ctx))
}

func (c *Client) newBackoff() backoff.BackOff {
	// BackOff implementations are stateful; build a fresh one per request.
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryInterval
	bo.MaxElapsedTime = 0
	return backoff.WithMaxRetries(bo, uint64(c.maxRetries))
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func statusError(res *http.Response) *models.UpstreamError {
	raw, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	msg := "Unknown Error"
	var body apiError
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
		msg = body.Message
		if body.ErrorCode != 0 {
			msg += " (errorCode " + strconv.Itoa(body.ErrorCode) + ")"
		}
	}
	return &models.UpstreamError{Service: serviceName, Status: res.StatusCode, Message: msg}
}
