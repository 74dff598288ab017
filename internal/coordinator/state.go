package coordinator

import (
	"portfolioBench/internal/analytics"
	"portfolioBench/internal/portfolio"
)

// Status is the phase of the current query.
type Status int

const (
	Idle Status = iota
	Pending
	Succeeded
	Failed
	Cancelled
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// State is the single query state exposed to presentation. A new State
// replaces the previous one on every transition; States are never mutated.
type State struct {
	Status     Status
	Key        portfolio.QueryKey
	Summary    analytics.Summary
	Series     []analytics.Point
	Err        error
	Generation uint64
}

// Rows returns the display rows for a successful state.
func (s State) Rows() []analytics.Row {
	if s.Status != Succeeded {
		return nil
	}
	return analytics.FormatSeriesForDisplay(s.Series)
}

// Recent returns the newest k rows for a successful state.
func (s State) Recent(k int) []analytics.Row {
	if s.Status != Succeeded {
		return nil
	}
	return analytics.Recent(s.Series, k)
}
