package portfolio

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseHoldings parses holdings typed as "VNM:30 VIC:30" or "VNM 30 VIC 30"
// (both forms may be mixed). Weights are percentages and may end in "%".
// Constraints on weights and totals are left to Validate.
func ParseHoldings(fields []string) ([]Holding, error) {
	var out []Holding
	seen := make(map[string]bool)

	for i := 0; i < len(fields); i++ {
		tok := strings.TrimSpace(fields[i])
		if tok == "" {
			continue
		}

		var symbol, weightStr string
		if sym, w, ok := strings.Cut(tok, ":"); ok {
			symbol, weightStr = sym, w
		} else {
			if i+1 >= len(fields) {
				return nil, fmt.Errorf("missing weight for symbol %s", NormalizeSymbol(tok))
			}
			symbol, weightStr = tok, fields[i+1]
			i++
		}

		symbol = NormalizeSymbol(symbol)
		if symbol == "" {
			return nil, fmt.Errorf("empty symbol at position %d", len(out)+1)
		}
		weightStr = strings.TrimSuffix(strings.TrimSpace(weightStr), "%")
		weight, err := strconv.ParseFloat(weightStr, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight '%s' for symbol %s: %w", weightStr, symbol, err)
		}
		if !isFinite(weight) {
			return nil, fmt.Errorf("invalid weight '%s' for symbol %s", weightStr, symbol)
		}

		if seen[symbol] {
			return nil, fmt.Errorf("duplicate symbol: %s", symbol)
		}
		seen[symbol] = true
		out = append(out, Holding{Symbol: symbol, Weight: weight})
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no holdings given (use SYMBOL:WEIGHT, e.g. VNM:30)")
	}
	return out, nil
}
