package finance

import (
	"fmt"
	"sort"
	"time"
)

// alignForwardFill puts every series on the union of their trading days.
// A day a symbol did not trade carries its previous close forward; days
// before a symbol's first trade take that first close.
func alignForwardFill(series []Series) ([]time.Time, [][]float64, error) {
	if len(series) == 0 {
		return nil, nil, fmt.Errorf("no assets provided")
	}

	seen := make(map[time.Time]struct{})
	for _, s := range series {
		for _, d := range s.Dates {
			seen[d] = struct{}{}
		}
	}
	timeline := make([]time.Time, 0, len(seen))
	for d := range seen {
		timeline = append(timeline, d)
	}
	sort.Slice(timeline, func(i, j int) bool { return timeline[i].Before(timeline[j]) })

	aligned := make([][]float64, len(series))
	for i, s := range series {
		if s.Len() == 0 {
			return nil, nil, fmt.Errorf("no valid price data found for %s", s.Symbol)
		}
		prices := make([]float64, len(timeline))
		j := 0
		last := s.Closes[0]
		for k, d := range timeline {
			for j < s.Len() && !s.Dates[j].After(d) {
				last = s.Closes[j]
				j++
			}
			prices[k] = last
		}
		aligned[i] = prices
	}
	return timeline, aligned, nil
}
