package analytics

import (
	"fmt"
	"math"

	"github.com/Rhymond/go-money"
)

// Tone classifies a figure for colouring.
type Tone string

const (
	Positive Tone = "positive"
	Negative Tone = "negative"
	Neutral  Tone = "neutral"
)

// ToneOf returns the tone of v.
func ToneOf(v float64) Tone {
	switch {
	case v > 0:
		return Positive
	case v < 0:
		return Negative
	default:
		return Neutral
	}
}

// FormatPercent renders v with two decimals and an explicit sign, e.g. "+1.23%".
func FormatPercent(v float64) string {
	sign := ""
	if v >= 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, v)
}

// FormatVND renders v as Vietnamese dong. VND has no minor unit.
func FormatVND(v float64) string {
	return money.New(int64(math.Round(v)), "VND").Display()
}

// Verdict is the one-line interpretation of a summary.
func Verdict(s Summary) string {
	switch ToneOf(s.Outperformance) {
	case Positive:
		return fmt.Sprintf("Your portfolio outperformed %s by %.2f%%", BenchmarkName, math.Abs(s.Outperformance))
	case Negative:
		return fmt.Sprintf("Your portfolio underperformed %s by %.2f%%", BenchmarkName, math.Abs(s.Outperformance))
	default:
		return fmt.Sprintf("Your portfolio performed in line with %s", BenchmarkName)
	}
}
