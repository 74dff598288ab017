package finance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"portfolioBench/internal/analytics"
	"portfolioBench/internal/portfolio"
)

// DefaultNAV is the starting portfolio value in VND.
const DefaultNAV = 100_000_000

var (
	ErrNoBenchmarkData = errors.New("no VNIndex data found")
	ErrNoPortfolioData = errors.New("no portfolio data found")
)

// PriceSource supplies daily closes.
type PriceSource interface {
	DailyCloses(ctx context.Context, symbol string, days int) (Series, error)
}

// Result is the performance payload served to clients.
type Result struct {
	Summary analytics.Summary `json:"summary"`
	Data    []analytics.Point `json:"data"`
}

// Engine computes portfolio performance against the benchmark.
type Engine struct {
	prices    PriceSource
	benchmark string
	suffix    string
	log       zerolog.Logger
}

func NewEngine(prices PriceSource, benchmark, suffix string, log zerolog.Logger) *Engine {
	return &Engine{
		prices:    prices,
		benchmark: benchmark,
		suffix:    suffix,
		log:       log.With().Str("component", "engine").Logger(),
	}
}

// Performance returns the sampled series and rounded summary for p over the
// last days calendar days. A non-positive nav means DefaultNAV.
func (e *Engine) Performance(ctx context.Context, p portfolio.Portfolio, days int, nav float64) (*Result, error) {
	if total := p.Total(); total > portfolio.MaxAllocation {
		return nil, &portfolio.OverAllocatedError{Total: total}
	}
	if nav <= 0 {
		nav = DefaultNAV
	}
	start := time.Now()

	bench, err := e.prices.DailyCloses(ctx, e.benchmark, days)
	if err != nil {
		return nil, fmt.Errorf("benchmark %s: %w", e.benchmark, err)
	}
	if bench.Len() == 0 {
		return nil, ErrNoBenchmarkData
	}

	var (
		assets  []Series
		weights []float64
	)
	for _, h := range p.Holdings {
		s, err := e.prices.DailyCloses(ctx, e.Ticker(h.Symbol), days)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, ErrNoData) {
				e.log.Warn().Str("symbol", h.Symbol).Msg("no prices, holding skipped")
				continue
			}
			return nil, fmt.Errorf("failed to fetch %s: %w", h.Symbol, err)
		}
		if s.Len() == 0 {
			continue
		}
		assets = append(assets, s)
		weights = append(weights, h.Weight/100)
	}
	if len(assets) == 0 {
		return nil, ErrNoPortfolioData
	}

	timeline, prices, err := alignForwardFill(assets)
	if err != nil {
		return nil, err
	}
	returns := weightedReturns(prices, weights)

	series := joinBenchmark(timeline, returns, bench, nav)
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: no trading day shared with the portfolio", ErrNoBenchmarkData)
	}

	last := series[len(series)-1]
	res := &Result{
		Data: sample(series, days),
		Summary: analytics.Summary{
			PortfolioReturn: round2(last.PortfolioReturn),
			BenchmarkReturn: round2(last.BenchmarkReturn),
			Outperformance:  round2(last.PortfolioReturn - last.BenchmarkReturn),
			InitialValue:    round2(nav),
			FinalValue:      round2(last.PortfolioValue),
		},
	}
	e.log.Info().
		Str("portfolio", p.String()).
		Int("days", days).
		Int("points", len(res.Data)).
		Dur("took", time.Since(start)).
		Msg("performance computed")
	return res, nil
}

// Quote returns the latest close of symbol.
func (e *Engine) Quote(ctx context.Context, symbol string) (Quote, error) {
	ticker := e.Ticker(symbol)
	s, err := e.prices.DailyCloses(ctx, ticker, 5)
	if err != nil {
		return Quote{}, err
	}
	d, c, ok := s.Last()
	if !ok {
		return Quote{}, fmt.Errorf("%s: %w", ticker, ErrNoData)
	}
	return Quote{Symbol: portfolio.NormalizeSymbol(symbol), Price: c, Date: d.Format("2006-01-02")}, nil
}

// Ticker maps a local symbol to its Yahoo ticker. Symbols that already carry
// an exchange suffix or are indices pass through.
func (e *Engine) Ticker(symbol string) string {
	symbol = portfolio.NormalizeSymbol(symbol)
	if strings.Contains(symbol, ".") || strings.HasPrefix(symbol, "^") {
		return symbol
	}
	return symbol + e.suffix
}

// weightedReturns sums each asset's return from its first price, scaled by
// its weight, in percent. Unallocated weight is cash and returns zero.
func weightedReturns(prices [][]float64, weights []float64) []float64 {
	if len(prices) == 0 {
		return nil
	}
	out := make([]float64, len(prices[0]))
	for i, ps := range prices {
		base := ps[0]
		for t, px := range ps {
			out[t] += (px/base - 1) * weights[i]
		}
	}
	for t := range out {
		out[t] *= 100
	}
	return out
}

// joinBenchmark keeps the days present in both the portfolio timeline and
// the benchmark, the benchmark return being measured from the first kept day.
func joinBenchmark(timeline []time.Time, returns []float64, bench Series, nav float64) []analytics.Point {
	closes := make(map[time.Time]float64, bench.Len())
	for i, d := range bench.Dates {
		closes[d] = bench.Closes[i]
	}

	var (
		out  []analytics.Point
		base float64
	)
	for t, d := range timeline {
		v, ok := closes[d]
		if !ok {
			continue
		}
		if base == 0 {
			base = v
		}
		out = append(out, analytics.Point{
			Time:            analytics.NewDate(d),
			PortfolioValue:  nav * (1 + returns[t]/100),
			BenchmarkValue:  v,
			PortfolioReturn: returns[t],
			BenchmarkReturn: (v - base) / base * 100,
		})
	}
	return out
}

// sample thins long series for charting. The last point is always kept.
func sample(series []analytics.Point, days int) []analytics.Point {
	if len(series) == 0 {
		return nil
	}
	step := 14
	switch {
	case days <= 7:
		step = 1
	case days <= 30:
		step = 2
	case days <= 90:
		step = 4
	case days <= 180:
		step = 7
	}

	out := make([]analytics.Point, 0, len(series)/step+2)
	for i := 0; i < len(series); i += step {
		out = append(out, series[i])
	}
	if (len(series)-1)%step != 0 {
		out = append(out, series[len(series)-1])
	}
	return out
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
