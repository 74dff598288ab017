package finance

import (
	"math"
	"sort"
	"time"
)

// toSeries converts raw Yahoo bars into a Series. Bars with a missing or
// non-positive close are dropped and bars sharing a calendar day keep the
// last close.
func toSeries(symbol string, ts []int64, cl []float64, loc *time.Location) Series {
	if len(ts) != len(cl) {
		n := len(ts)
		if len(cl) < n {
			n = len(cl)
		}
		ts = ts[:n]
		cl = cl[:n]
	}
	byDay := make(map[time.Time]float64, len(ts))
	for i := range ts {
		if cl[i] <= 0 || math.IsNaN(cl[i]) || math.IsInf(cl[i], 0) {
			continue
		}
		byDay[calendarDay(time.Unix(ts[i], 0).In(loc))] = cl[i]
	}

	out := Series{Symbol: symbol, Dates: make([]time.Time, 0, len(byDay)), Closes: make([]float64, 0, len(byDay))}
	for d := range byDay {
		out.Dates = append(out.Dates, d)
	}
	sort.Slice(out.Dates, func(i, j int) bool { return out.Dates[i].Before(out.Dates[j]) })
	for _, d := range out.Dates {
		out.Closes = append(out.Closes, byDay[d])
	}
	return out
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// exchangeLocation returns the exchange zone reported by Yahoo, falling back
// to a fixed offset when tzdata is missing.
func exchangeLocation(name string, gmtOffset int) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.FixedZone("exchange", gmtOffset)
}

// trimToDays keeps the observations no older than days before the latest one.
func trimToDays(s Series, days int) Series {
	if s.Len() == 0 || days <= 0 {
		return s
	}
	cutoff := s.Dates[s.Len()-1].AddDate(0, 0, -days)
	start := sort.Search(s.Len(), func(i int) bool { return !s.Dates[i].Before(cutoff) })
	return Series{Symbol: s.Symbol, Dates: s.Dates[start:], Closes: s.Closes[start:]}
}

// yahooRange picks the smallest Yahoo range covering days.
func yahooRange(days int) string {
	switch {
	case days <= 5:
		return "5d"
	case days <= 30:
		return "1mo"
	case days <= 90:
		return "3mo"
	case days <= 180:
		return "6mo"
	case days <= 365:
		return "1y"
	case days <= 730:
		return "2y"
	case days <= 1825:
		return "5y"
	case days <= 3650:
		return "10y"
	default:
		return "max"
	}
}
