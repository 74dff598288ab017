package portfolio

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrEmpty is returned when no holding with a symbol and a positive weight
// remains after filtering.
var ErrEmpty = errors.New("please add at least one stock with a percentage")

// OverAllocatedError is returned when the weights sum to more than 100%.
type OverAllocatedError struct {
	Total float64
}

func (e *OverAllocatedError) Error() string {
	return fmt.Sprintf("total percentage (%.1f%%) exceeds 100%%", e.Total)
}

// Validate turns a draft into a submittable Portfolio. Rows with an empty
// symbol or a non-positive weight are dropped first; a partially filled row
// is not an error. The draft is not modified.
func Validate(draft []Holding) (Portfolio, error) {
	kept := make([]Holding, 0, len(draft))
	for _, h := range draft {
		sym := NormalizeSymbol(h.Symbol)
		if sym == "" || !(h.Weight > 0) {
			continue
		}
		kept = append(kept, Holding{Symbol: sym, Weight: h.Weight})
	}
	if len(kept) == 0 {
		return Portfolio{}, ErrEmpty
	}

	total, ok := sumWeights(kept)
	if !ok {
		// Only +Inf survives the filter above.
		return Portfolio{}, &OverAllocatedError{Total: math.Inf(1)}
	}
	if total.GreaterThan(decimal.NewFromInt(MaxAllocation)) {
		return Portfolio{}, &OverAllocatedError{Total: total.InexactFloat64()}
	}
	return Portfolio{Holdings: kept}, nil
}

// NormalizeSymbol trims and upper-cases a ticker.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
