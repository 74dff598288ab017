package analytics

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

const tradingDaysPerYear = 252.0

// Risk computes annualised volatility and maximum drawdown for both legs.
// Series shorter than three points yield zero volatility.
func Risk(series []Point) RiskStats {
	pv := make([]float64, len(series))
	bv := make([]float64, len(series))
	for i, p := range series {
		pv[i] = p.PortfolioValue
		bv[i] = p.BenchmarkValue
	}
	return RiskStats{
		PortfolioVolatility:  volatility(pv),
		BenchmarkVolatility:  volatility(bv),
		PortfolioMaxDrawdown: maxDrawdown(pv) * 100,
		BenchmarkMaxDrawdown: maxDrawdown(bv) * 100,
	}
}

func volatility(values []float64) float64 {
	var returns []float64
	for i := 1; i < len(values); i++ {
		if values[i-1] > 0 {
			returns = append(returns, values[i]/values[i-1]-1)
		}
	}
	if len(returns) < 2 {
		return 0
	}
	return stat.StdDev(returns, nil) * math.Sqrt(tradingDaysPerYear) * 100
}

// maxDrawdown is the largest peak-to-trough decline as a fraction.
func maxDrawdown(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	peak := 0.0
	worst := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 && v >= 0 {
			if dd := (peak - v) / peak; dd > worst {
				worst = dd
			}
		}
	}
	return worst
}
