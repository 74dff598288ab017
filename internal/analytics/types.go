// Package analytics derives every displayed figure from a raw performance
// series. Nothing here does I/O.
package analytics

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// BenchmarkName is the index the portfolio is compared against.
const BenchmarkName = "VNIndex"

// Date is a calendar date as sent by the performance service.
type Date struct {
	time.Time
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// NewDate truncates t to its calendar day in UTC.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts a plain date, a pandas-style timestamp or RFC3339.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewDate(t), nil
		}
	}
	return Date{}, fmt.Errorf("unrecognised date %q", s)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format("2006-01-02"))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Point is one observation of the portfolio and the benchmark.
type Point struct {
	Time            Date    `json:"time"`
	PortfolioValue  float64 `json:"portfolio_value"`
	BenchmarkValue  float64 `json:"vnindex_value"`
	PortfolioReturn float64 `json:"portfolio_return"`
	BenchmarkReturn float64 `json:"vnindex_return"`
}

// Summary holds the headline figures of one comparison.
type Summary struct {
	PortfolioReturn float64 `json:"portfolio_return"`
	BenchmarkReturn float64 `json:"vnindex_return"`
	Outperformance  float64 `json:"outperformance"`
	InitialValue    float64 `json:"initial_value"`
	FinalValue      float64 `json:"final_value"`
}

// Row is one line of a comparison table or one chart sample.
type Row struct {
	Time       time.Time
	Label      string
	Portfolio  float64
	Benchmark  float64
	Difference float64
}

// RiskStats are annualised figures for both legs, in percent.
type RiskStats struct {
	PortfolioVolatility  float64
	BenchmarkVolatility  float64
	PortfolioMaxDrawdown float64
	BenchmarkMaxDrawdown float64
}
