package portfolio

import (
	"sort"
	"strconv"
	"strings"
)

// QueryKey identifies one logical performance query. Two keys built from
// structurally equal portfolios and equal windows are Equal, regardless of
// holding order.
type QueryKey struct {
	Portfolio Portfolio
	Window    Window
	id        string
}

// NewQueryKey builds a key from a copy of p.
func NewQueryKey(p Portfolio, w Window) QueryKey {
	k := QueryKey{Portfolio: p.Clone(), Window: w}
	k.id = canonicalID(k.Portfolio, w)
	return k
}

// ID returns the canonical identity string.
func (k QueryKey) ID() string {
	if k.id == "" {
		return canonicalID(k.Portfolio, k.Window)
	}
	return k.id
}

// Equal reports whether both keys name the same logical query.
func (k QueryKey) Equal(o QueryKey) bool { return k.ID() == o.ID() }

// IsZero reports whether k was never set.
func (k QueryKey) IsZero() bool { return len(k.Portfolio.Holdings) == 0 && k.Window == 0 }

func (k QueryKey) String() string { return k.ID() }

func canonicalID(p Portfolio, w Window) string {
	hs := make([]Holding, len(p.Holdings))
	copy(hs, p.Holdings)
	sort.Slice(hs, func(i, j int) bool {
		if hs[i].Symbol != hs[j].Symbol {
			return hs[i].Symbol < hs[j].Symbol
		}
		return hs[i].Weight < hs[j].Weight
	})

	var b strings.Builder
	for i, h := range hs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(h.Symbol)
		b.WriteByte(':')
		b.WriteString(formatWeight(h.Weight))
	}
	b.WriteByte('@')
	b.WriteString(strconv.Itoa(int(w)))
	return b.String()
}

func formatWeight(w float64) string {
	return strconv.FormatFloat(w, 'f', -1, 64)
}
