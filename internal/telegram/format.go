package telegram

import (
	"fmt"
	"strings"

	"portfolioBench/internal/analytics"
	"portfolioBench/internal/coordinator"
	"portfolioBench/internal/portfolio"
)

const helpText = "Commands\n\n" +
	"- /portfolio - Show the active portfolio, window and latest result\n" +
	"- /set SYM:W SYM:W ... - Use a new portfolio, e.g. /set VNM:30 VIC:30 HPG:40\n" +
	"- /window N - Change the lookback: 7d, 1m, 3m, 6m, 1y ... 10y or days\n" +
	"- /save [SYM:W ...] - Save the given or active portfolio as default\n" +
	"- /reset - Restore and save the built-in default portfolio\n" +
	"- /recent [N] - Last N data points, newest first (default 5)\n" +
	"- /chart - Portfolio vs VNIndex chart\n" +
	"- /insight - Short AI commentary on the latest result\n" +
	"- /stop - Cancel the running calculation\n" +
	"\nWeights are percentages of NAV; anything under 100% is held as cash."

func describePortfolio(p portfolio.Portfolio, w portfolio.Window) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Portfolio: %s\n", p.String())
	if cash := p.Cash(); cash > 0 {
		fmt.Fprintf(&b, "Cash: %.1f%%\n", cash)
	}
	fmt.Fprintf(&b, "Window: %s", w.Label())
	return b.String()
}

func describeState(st coordinator.State) string {
	switch st.Status {
	case coordinator.Pending:
		return "Calculating…"
	case coordinator.Succeeded:
		return summaryText(st)
	case coordinator.Failed:
		return "Calculation failed: " + st.Err.Error()
	case coordinator.Cancelled:
		return "Calculation cancelled."
	default:
		return "No calculation yet."
	}
}

func summaryText(st coordinator.State) string {
	s := st.Summary
	var b strings.Builder
	fmt.Fprintf(&b, "Portfolio vs %s • %s\n", analytics.BenchmarkName, st.Key.Window.Label())
	fmt.Fprintf(&b, "%s\n\n", st.Key.Portfolio.String())
	fmt.Fprintf(&b, "Portfolio: %s\n", analytics.FormatPercent(s.PortfolioReturn))
	fmt.Fprintf(&b, "%s: %s\n", analytics.BenchmarkName, analytics.FormatPercent(s.BenchmarkReturn))
	fmt.Fprintf(&b, "Outperformance: %s %s\n", analytics.FormatPercent(s.Outperformance), toneMark(s.Outperformance))
	fmt.Fprintf(&b, "Value: %s → %s\n\n", analytics.FormatVND(s.InitialValue), analytics.FormatVND(s.FinalValue))
	b.WriteString(analytics.Verdict(s))
	return b.String()
}

func recentText(rows []analytics.Row) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-8s %9s %9s %9s\n", "Date", "Portf.", analytics.BenchmarkName, "Diff")
	for _, r := range rows {
		fmt.Fprintf(&b, "%-8s %9s %9s %9s\n", r.Label,
			analytics.FormatPercent(r.Portfolio),
			analytics.FormatPercent(r.Benchmark),
			analytics.FormatPercent(r.Difference))
	}
	return "```\n" + b.String() + "```"
}

func toneMark(v float64) string {
	switch analytics.ToneOf(v) {
	case analytics.Positive:
		return "▲"
	case analytics.Negative:
		return "▼"
	default:
		return "•"
	}
}
