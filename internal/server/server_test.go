package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolioBench/internal/analytics"
	"portfolioBench/internal/finance"
	"portfolioBench/internal/portfolio"
	"portfolioBench/internal/storage"
)

type fakeEngine struct {
	gotDays int
	gotNAV  float64
	gotP    portfolio.Portfolio
	res     *finance.Result
	err     error
}

func (f *fakeEngine) Performance(_ context.Context, p portfolio.Portfolio, days int, nav float64) (*finance.Result, error) {
	f.gotP, f.gotDays, f.gotNAV = p, days, nav
	return f.res, f.err
}

func (f *fakeEngine) Quote(_ context.Context, symbol string) (finance.Quote, error) {
	if symbol != "VNM" {
		return finance.Quote{}, finance.ErrNoData
	}
	return finance.Quote{Symbol: "VNM", Price: 71000, Date: "2024-03-05"}, nil
}

type fakeRepo struct {
	saved   *portfolio.Portfolio
	loadErr error
	saveErr error
}

func (f *fakeRepo) LoadDefault(context.Context) (portfolio.Portfolio, error) {
	if f.loadErr != nil {
		return portfolio.Portfolio{}, f.loadErr
	}
	if f.saved == nil {
		return portfolio.Portfolio{}, storage.ErrNotFound
	}
	return *f.saved, nil
}

func (f *fakeRepo) SaveDefault(_ context.Context, p portfolio.Portfolio) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = &p
	return nil
}

func newTestServer(engine Engine, repo Repository) *httptest.Server {
	s := New(Config{Port: 0, Log: zerolog.Nop(), Engine: engine, Repo: repo})
	return httptest.NewServer(s.Handler())
}

func detail(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Detail
}

func TestRootAndHealth(t *testing.T) {
	srv := newTestServer(&fakeEngine{}, &fakeRepo{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "running", body["status"])

	resp2, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
}

func TestGetDefault(t *testing.T) {
	repo := &fakeRepo{}
	srv := newTestServer(&fakeEngine{}, repo)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/portfolio/default")
	require.NoError(t, err)
	var p portfolio.Portfolio
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&p))
	resp.Body.Close()
	assert.Equal(t, portfolio.DefaultPortfolio(), p)

	repo.loadErr = errors.New("disk I/O error")
	resp, err = http.Get(srv.URL + "/api/portfolio/default")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, detail(t, resp), "disk I/O error")
}

func TestSetDefault(t *testing.T) {
	repo := &fakeRepo{}
	srv := newTestServer(&fakeEngine{}, repo)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/portfolio/default", "application/json",
		strings.NewReader(`{"stocks":[{"symbol":"vnm","percentage":60},{"symbol":"VIC","percentage":60}]}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Total percentage (120%) exceeds 100%", detail(t, resp))
	resp.Body.Close()
	assert.Nil(t, repo.saved)

	resp, err = http.Post(srv.URL+"/api/portfolio/default", "application/json",
		strings.NewReader(`{"stocks":[{"symbol":"fpt","percentage":100}]}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	require.NotNil(t, repo.saved)
	assert.Equal(t, []portfolio.Holding{{Symbol: "FPT", Weight: 100}}, repo.saved.Holdings)

	repo.saveErr = errors.New("readonly database")
	resp, err = http.Post(srv.URL+"/api/portfolio/default", "application/json",
		strings.NewReader(`{"stocks":[{"symbol":"HPG","percentage":10}]}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Failed to save portfolio", detail(t, resp))
}

func TestPerformance(t *testing.T) {
	engine := &fakeEngine{res: &finance.Result{
		Summary: analytics.Summary{PortfolioReturn: 2, BenchmarkReturn: 1, Outperformance: 1, InitialValue: 100, FinalValue: 102},
		Data:    []analytics.Point{{PortfolioValue: 100}, {PortfolioValue: 102}},
	}}
	srv := newTestServer(engine, &fakeRepo{})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/portfolio/performance?days=90", "application/json",
		strings.NewReader(`{"stocks":[{"symbol":"VNM","percentage":30}],"total_nav":5000}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got finance.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, engine.res.Summary, got.Summary)
	assert.Len(t, got.Data, 2)
	assert.Equal(t, 90, engine.gotDays)
	assert.Equal(t, 5000.0, engine.gotNAV)
	assert.Equal(t, []portfolio.Holding{{Symbol: "VNM", Weight: 30}}, engine.gotP.Holdings)
}

func TestPerformance_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		body   string
		err    error
		status int
		detail string
	}{
		{"bad days", "?days=abc", `{"stocks":[{"symbol":"VNM","percentage":30}]}`, nil, http.StatusUnprocessableEntity, `invalid days "abc"`},
		{"bad body", "", `{"stocks":`, nil, http.StatusUnprocessableEntity, "invalid request body"},
		{"empty", "", `{"stocks":[]}`, nil, http.StatusUnprocessableEntity, "stocks must not be empty"},
		{"over allocated", "", `{"stocks":[{"symbol":"VNM","percentage":30}]}`, &portfolio.OverAllocatedError{Total: 120.5}, http.StatusBadRequest, "Total percentage (120.5%) exceeds 100%"},
		{"no benchmark", "", `{"stocks":[{"symbol":"VNM","percentage":30}]}`, finance.ErrNoBenchmarkData, http.StatusNotFound, "no VNIndex data found"},
		{"upstream", "", `{"stocks":[{"symbol":"VNM","percentage":30}]}`, errors.New("yahoo down"), http.StatusInternalServerError, "Error calculating portfolio performance: yahoo down"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&fakeEngine{err: tt.err}, &fakeRepo{})
			defer srv.Close()

			resp, err := http.Post(srv.URL+"/api/portfolio/performance"+tt.query, "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Contains(t, detail(t, resp), tt.detail)
		})
	}
}

func TestStockInfo(t *testing.T) {
	srv := newTestServer(&fakeEngine{}, &fakeRepo{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/stock/VNM/info")
	require.NoError(t, err)
	var q finance.Quote
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&q))
	resp.Body.Close()
	assert.Equal(t, 71000.0, q.Price)

	resp, err = http.Get(srv.URL + "/api/stock/xyz/info")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "No data found for XYZ", detail(t, resp))
}

func TestCORSAllowsAnyOrigin(t *testing.T) {
	srv := newTestServer(&fakeEngine{}, &fakeRepo{})
	defer srv.Close()

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/portfolio/performance", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestWebhookMountedOnlyWhenSet(t *testing.T) {
	called := false
	s := New(Config{Log: zerolog.Nop(), Webhook: func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/telegram/webhook", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.True(t, called)

	resp, err = http.Get(srv.URL + "/api/portfolio/default")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
