package portfolio

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxAllocation is the largest total weight a portfolio may carry, in percent.
// Anything below it is held as cash.
const MaxAllocation = 100

// Holding is one symbol/weight pair. Weight is a percentage of NAV (0-100).
type Holding struct {
	Symbol string  `json:"symbol"`
	Weight float64 `json:"percentage"`
}

// Portfolio is an ordered list of holdings. Order is kept for display only.
type Portfolio struct {
	Holdings []Holding `json:"stocks"`
}

// Total returns the sum of all weights. The sum is taken in decimal so that
// weights like 33.3/33.3/33.4 add up to exactly 100. A non-finite weight
// makes the total +Inf.
func (p Portfolio) Total() float64 {
	total, ok := sumWeights(p.Holdings)
	if !ok {
		return math.Inf(1)
	}
	return total.InexactFloat64()
}

// Clone returns a deep copy.
func (p Portfolio) Clone() Portfolio {
	out := Portfolio{Holdings: make([]Holding, len(p.Holdings))}
	copy(out.Holdings, p.Holdings)
	return out
}

// Cash returns the unallocated share of NAV in percent.
func (p Portfolio) Cash() float64 {
	total, ok := sumWeights(p.Holdings)
	if !ok {
		return math.Inf(-1)
	}
	return decimal.NewFromInt(MaxAllocation).Sub(total).InexactFloat64()
}

func (p Portfolio) String() string {
	parts := make([]string, 0, len(p.Holdings))
	for _, h := range p.Holdings {
		parts = append(parts, fmt.Sprintf("%s %s%%", h.Symbol, formatWeight(h.Weight)))
	}
	return strings.Join(parts, ", ")
}

// DefaultPortfolio is the built-in portfolio used whenever no saved default
// can be loaded.
func DefaultPortfolio() Portfolio {
	return Portfolio{Holdings: []Holding{
		{Symbol: "VNM", Weight: 30},
		{Symbol: "VIC", Weight: 30},
		{Symbol: "HPG", Weight: 40},
	}}
}

// sumWeights reports false if any weight is NaN or infinite.
func sumWeights(hs []Holding) (decimal.Decimal, bool) {
	total := decimal.Zero
	for _, h := range hs {
		if !isFinite(h.Weight) {
			return decimal.Zero, false
		}
		total = total.Add(decimal.NewFromFloat(h.Weight))
	}
	return total, true
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
