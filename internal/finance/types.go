// Package finance is the reference performance backend: it fetches daily
// closes, builds the portfolio and benchmark return series and renders the
// comparison chart.
package finance

import "time"

// yahooChartResp mirrors the Yahoo v8 chart response (trimmed to needed fields)
type yahooChartResp struct {
	Chart struct {
		Result []struct {
			Meta struct {
				GmtOffset int    `json:"gmtoffset"`
				Timezone  string `json:"timezone"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error any `json:"error"`
	} `json:"chart"`
}

// yahooSparkResp mirrors the Yahoo v7 spark fallback (trimmed)
type yahooSparkResp struct {
	Spark struct {
		Result []struct {
			Symbol   string `json:"symbol"`
			Response []struct {
				Timestamp []int64   `json:"timestamp"`
				Close     []float64 `json:"close"`
			} `json:"response"`
		} `json:"result"`
		Error any `json:"error"`
	} `json:"spark"`
}

// Series is the daily close history of one symbol, oldest first. Dates are
// exchange-local calendar days stored as UTC midnight.
type Series struct {
	Symbol string
	Dates  []time.Time
	Closes []float64
}

// Len returns the number of observations.
func (s Series) Len() int { return len(s.Dates) }

// Last returns the most recent date and close.
func (s Series) Last() (time.Time, float64, bool) {
	if s.Len() == 0 {
		return time.Time{}, 0, false
	}
	return s.Dates[s.Len()-1], s.Closes[s.Len()-1], true
}

// Quote is the latest known close of a symbol.
type Quote struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"current_price"`
	Date   string  `json:"date"`
}
