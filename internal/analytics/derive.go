package analytics

import (
	"errors"
	"time"
)

var (
	ErrEmptySeries = errors.New("performance series is empty")
	ErrZeroBase    = errors.New("performance series starts at zero")
)

// yearLabelThresholdDays is the span beyond which labels carry a year.
const yearLabelThresholdDays = 180

const (
	shortLabel = "Jan 2"
	longLabel  = "Jan 2, 06"
)

// DefaultRecent is the size of the recent-performance table.
const DefaultRecent = 5

// outperformance is the only place the portfolio/benchmark difference is
// computed; summaries and rows both go through it.
func outperformance(portfolioReturn, benchmarkReturn float64) float64 {
	return portfolioReturn - benchmarkReturn
}

func pctChange(initial, final float64) float64 {
	return (final/initial - 1) * 100
}

// Summarize computes the headline figures from the first and last points
// of the value columns.
func Summarize(series []Point) (Summary, error) {
	if len(series) == 0 {
		return Summary{}, ErrEmptySeries
	}
	first, last := series[0], series[len(series)-1]
	if first.PortfolioValue == 0 || first.BenchmarkValue == 0 {
		return Summary{}, ErrZeroBase
	}

	pr := pctChange(first.PortfolioValue, last.PortfolioValue)
	br := pctChange(first.BenchmarkValue, last.BenchmarkValue)
	return Summary{
		PortfolioReturn: pr,
		BenchmarkReturn: br,
		Outperformance:  outperformance(pr, br),
		InitialValue:    first.PortfolioValue,
		FinalValue:      last.PortfolioValue,
	}, nil
}

// Reconcile returns s with Outperformance recomputed from its returns.
func Reconcile(s Summary) Summary {
	s.Outperformance = outperformance(s.PortfolioReturn, s.BenchmarkReturn)
	return s
}

// SpanDays returns the number of whole days between the first and last point.
func SpanDays(series []Point) int {
	if len(series) < 2 {
		return 0
	}
	span := series[len(series)-1].Time.Sub(series[0].Time.Time)
	return int(span / (24 * time.Hour))
}

// LabelLayout picks the date layout for a series: a two-digit year is added
// once the series spans more than 180 days.
func LabelLayout(series []Point) string {
	if SpanDays(series) > yearLabelThresholdDays {
		return longLabel
	}
	return shortLabel
}

// FormatSeriesForDisplay returns one row per point, oldest first.
func FormatSeriesForDisplay(series []Point) []Row {
	layout := LabelLayout(series)
	rows := make([]Row, 0, len(series))
	for _, p := range series {
		rows = append(rows, newRow(p, layout))
	}
	return rows
}

// Recent returns the last k points newest first. Labels are month and day.
// series is left untouched.
func Recent(series []Point, k int) []Row {
	if k <= 0 || len(series) == 0 {
		return nil
	}
	if k > len(series) {
		k = len(series)
	}
	rows := make([]Row, 0, k)
	for i := len(series) - 1; i >= len(series)-k; i-- {
		rows = append(rows, newRow(series[i], shortLabel))
	}
	return rows
}

func newRow(p Point, layout string) Row {
	return Row{
		Time:       p.Time.Time,
		Label:      p.Time.Format(layout),
		Portfolio:  p.PortfolioReturn,
		Benchmark:  p.BenchmarkReturn,
		Difference: outperformance(p.PortfolioReturn, p.BenchmarkReturn),
	}
}
