// Package client talks to the portfolio performance backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"portfolioBench/internal/analytics"
	"portfolioBench/internal/portfolio"
)

const (
	performancePath = "/api/portfolio/performance"
	defaultPath     = "/api/portfolio/default"

	// Price retrieval on the backend can be slow for long windows.
	defaultTimeout = 2 * time.Minute
	maxBodyBytes   = 8 << 20
)

// Performance is the backend's answer to a performance query.
type Performance struct {
	Summary analytics.Summary `json:"summary"`
	Data    []analytics.Point `json:"data"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

func New(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		log:        log.With().Str("component", "client").Logger(),
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// FetchPerformance asks the backend to compare p against the benchmark over
// the last w days. Cancelling ctx aborts the request; the context error is
// returned unchanged in that case.
func (c *Client) FetchPerformance(ctx context.Context, p portfolio.Portfolio, w portfolio.Window) (*Performance, error) {
	q := url.Values{}
	q.Set("days", strconv.Itoa(w.Days()))

	status, body, err := c.do(ctx, http.MethodPost, performancePath, q, p)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &RemoteError{Err: err}
	}
	if status < 200 || status > 299 {
		return nil, &RemoteError{Status: status, Detail: detailOf(body)}
	}

	var perf Performance
	if err := json.Unmarshal(body, &perf); err != nil {
		return nil, &RemoteError{Status: status, Detail: "malformed performance payload", Err: err}
	}
	return &perf, nil
}

// LoadDefault reads the saved default portfolio.
func (c *Client) LoadDefault(ctx context.Context) (portfolio.Portfolio, error) {
	status, body, err := c.do(ctx, http.MethodGet, defaultPath, nil, nil)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return portfolio.Portfolio{}, ctxErr
		}
		return portfolio.Portfolio{}, &PersistenceError{Err: err}
	}
	if status == http.StatusNotFound {
		return portfolio.Portfolio{}, ErrNoDefault
	}
	if status < 200 || status > 299 {
		return portfolio.Portfolio{}, &PersistenceError{Status: status, Detail: detailOf(body)}
	}

	var p portfolio.Portfolio
	if err := json.Unmarshal(body, &p); err != nil {
		return portfolio.Portfolio{}, &PersistenceError{Status: status, Err: fmt.Errorf("malformed portfolio payload: %w", err)}
	}
	return p, nil
}

// SaveDefault stores p as the default portfolio.
func (c *Client) SaveDefault(ctx context.Context, p portfolio.Portfolio) error {
	status, body, err := c.do(ctx, http.MethodPost, defaultPath, nil, p)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &PersistenceError{Err: err}
	}
	if status < 200 || status > 299 {
		detail := detailOf(body)
		if detail == "" {
			detail = "Failed to save portfolio"
		}
		return &PersistenceError{Status: status, Detail: detail}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any) (int, []byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return 0, nil, err
	}
	reqID := uuid.New().String()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			c.log.Debug().Str("request_id", reqID).Str("path", path).Msg("request cancelled")
		} else {
			c.log.Warn().Err(err).Str("request_id", reqID).Str("path", path).Msg("request failed")
		}
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	c.log.Debug().
		Str("request_id", reqID).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("request done")
	return resp.StatusCode, body, nil
}

const maxDetailRunes = 120

// detailOf extracts the backend's "detail" message, falling back to a short
// preview of the raw body.
func detailOf(body []byte) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}
	preview := []rune(strings.TrimSpace(string(body)))
	if len(preview) > maxDetailRunes {
		preview = preview[:maxDetailRunes]
	}
	return string(preview)
}
