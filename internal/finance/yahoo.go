package finance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	defaultYahooRPS = 4
	userAgent       = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15"
)

// ErrNoData is returned when Yahoo answers without any usable close.
var ErrNoData = errors.New("no price data")

// Yahoo fetches daily closes from Yahoo Finance, retrying across hosts and
// falling back to the spark endpoint.
type Yahoo struct {
	hosts      []string
	backoffs   []time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	log        zerolog.Logger
}

type YahooOption func(*Yahoo)

// WithHosts replaces the Yahoo base URLs (scheme included).
func WithHosts(hosts ...string) YahooOption {
	return func(y *Yahoo) { y.hosts = hosts }
}

// WithBackoffs replaces the pause between retry rounds.
func WithBackoffs(b ...time.Duration) YahooOption {
	return func(y *Yahoo) { y.backoffs = b }
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(requestsPerSecond int) YahooOption {
	return func(y *Yahoo) {
		if requestsPerSecond > 0 {
			y.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

func NewYahoo(log zerolog.Logger, opts ...YahooOption) *Yahoo {
	y := &Yahoo{
		hosts:      []string{"https://query1.finance.yahoo.com", "https://query2.finance.yahoo.com"},
		backoffs:   []time.Duration{200 * time.Millisecond, 500 * time.Millisecond, 1 * time.Second},
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(defaultYahooRPS), defaultYahooRPS),
		log:        log.With().Str("component", "yahoo").Logger(),
	}
	for _, opt := range opts {
		opt(y)
	}
	return y
}

// DailyCloses returns the daily closes of symbol covering the last days
// calendar days.
func (y *Yahoo) DailyCloses(ctx context.Context, symbol string, days int) (Series, error) {
	rng := yahooRange(days)
	q := url.Values{}
	q.Set("range", rng)
	q.Set("interval", "1d")
	q.Set("events", "div,splits")

	var yc yahooChartResp
	body, err := y.getWithRetry(ctx, "/v8/finance/chart/"+url.PathEscape(symbol), q, symbol)
	if err == nil {
		if err = json.Unmarshal(body, &yc); err != nil {
			err = fmt.Errorf("failed to parse yahoo json: %w; body: %s", err, preview(body))
		}
	}
	if err != nil {
		if ctx.Err() != nil {
			return Series{}, ctx.Err()
		}
		y.log.Debug().Err(err).Str("symbol", symbol).Msg("chart endpoint failed, trying spark")
		s, sparkErr := y.spark(ctx, symbol, rng)
		if sparkErr != nil {
			return Series{}, fmt.Errorf("fetch %s: %w", symbol, err)
		}
		return trimToDays(s, days), nil
	}

	if len(yc.Chart.Result) == 0 || len(yc.Chart.Result[0].Indicators.Quote) == 0 {
		return Series{}, fmt.Errorf("fetch %s: %w", symbol, ErrNoData)
	}
	r := yc.Chart.Result[0]
	loc := exchangeLocation(r.Meta.Timezone, r.Meta.GmtOffset)
	s := toSeries(symbol, r.Timestamp, r.Indicators.Quote[0].Close, loc)
	if s.Len() == 0 {
		return Series{}, fmt.Errorf("fetch %s: %w", symbol, ErrNoData)
	}
	return trimToDays(s, days), nil
}

func (y *Yahoo) spark(ctx context.Context, symbol, rng string) (Series, error) {
	q := url.Values{}
	q.Set("symbols", strings.ToUpper(symbol))
	q.Set("range", rng)
	q.Set("interval", "1d")

	body, err := y.getWithRetry(ctx, "/v7/finance/spark", q, symbol)
	if err != nil {
		return Series{}, err
	}
	var sp yahooSparkResp
	if err := json.Unmarshal(body, &sp); err != nil {
		return Series{}, fmt.Errorf("failed to parse yahoo spark json: %w", err)
	}
	if len(sp.Spark.Result) == 0 || len(sp.Spark.Result[0].Response) == 0 {
		return Series{}, ErrNoData
	}
	r := sp.Spark.Result[0].Response[0]
	s := toSeries(symbol, r.Timestamp, r.Close, time.UTC)
	if s.Len() == 0 {
		return Series{}, ErrNoData
	}
	return s, nil
}

// getWithRetry tries every host, then pauses and tries again, until one
// returns a JSON body or the backoffs run out.
func (y *Yahoo) getWithRetry(ctx context.Context, path string, q url.Values, symbol string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= len(y.backoffs); attempt++ {
		for _, host := range y.hosts {
			body, err := y.get(ctx, host+path+"?"+q.Encode(), symbol)
			if err == nil {
				return body, nil
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
		}
		if attempt < len(y.backoffs) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(y.backoffs[attempt]):
			}
		}
	}
	return nil, lastErr
}

func (y *Yahoo) get(ctx context.Context, rawURL, symbol string) ([]byte, error) {
	if err := y.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", fmt.Sprintf("https://finance.yahoo.com/quote/%s/chart", strings.ToUpper(symbol)))

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read yahoo response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || strings.HasPrefix(string(body), "Edge: Too Many Requests"):
		return nil, fmt.Errorf("yahoo %s returned 429: Edge: Too Many Requests", req.URL.Host)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("yahoo %s returned %d: %s", req.URL.Host, resp.StatusCode, preview(body))
	case strings.HasPrefix(string(body), "<") || strings.HasPrefix(string(body), "Edge:"):
		return nil, fmt.Errorf("yahoo returned non-json body: %s", preview(body))
	}
	return body, nil
}

func preview(body []byte) string {
	r := []rune(string(body))
	if len(r) > 120 {
		r = r[:120]
	}
	return string(r)
}
