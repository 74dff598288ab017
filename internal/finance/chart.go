package finance

import (
	"errors"
	"fmt"

	"github.com/vicanso/go-charts/v2"

	"portfolioBench/internal/analytics"
)

// RenderComparison draws the portfolio and benchmark cumulative returns as a
// PNG line chart. rows are expected oldest first, as produced by
// analytics.FormatSeriesForDisplay.
func RenderComparison(rows []analytics.Row, title, subtitle string) ([]byte, error) {
	if len(rows) < 2 {
		return nil, errors.New("need at least 2 data points to draw a chart")
	}

	xLabels := make([]string, len(rows))
	port := make([]float64, len(rows))
	bench := make([]float64, len(rows))
	minVal, maxVal := rows[0].Portfolio, rows[0].Portfolio
	for i, r := range rows {
		xLabels[i] = r.Label
		port[i] = r.Portfolio
		bench[i] = r.Benchmark
		for _, v := range []float64{r.Portfolio, r.Benchmark} {
			if v < minVal {
				minVal = v
			}
			if v > maxVal {
				maxVal = v
			}
		}
	}

	padding := (maxVal - minVal) * 0.05
	if padding == 0 {
		padding = 1
	}
	yMin := minVal - padding
	yMax := maxVal + padding

	splitNum := 6
	if len(xLabels) <= 30 {
		splitNum = len(xLabels) / 3
		if splitNum < 3 {
			splitNum = 3
		}
	}

	p, err := charts.LineRender(
		[][]float64{port, bench},
		charts.TitleTextOptionFunc(title, subtitle),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        xLabels,
			SplitNumber: splitNum,
			BoundaryGap: charts.FalseFlag(),
		}),
		charts.YAxisOptionFunc(charts.YAxisOption{
			Min:         &yMin,
			Max:         &yMax,
			DivideCount: 5,
		}),
		charts.LegendOptionFunc(charts.LegendOption{Data: []string{"Portfolio", analytics.BenchmarkName}}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate chart bytes: %w", err)
	}
	return buf, nil
}
