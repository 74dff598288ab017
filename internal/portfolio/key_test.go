package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryKey_StructuralEquality(t *testing.T) {
	a := NewQueryKey(Portfolio{Holdings: []Holding{{"VNM", 30}, {"VIC", 30}, {"HPG", 40}}}, 30)
	b := NewQueryKey(Portfolio{Holdings: []Holding{{"HPG", 40}, {"VNM", 30}, {"VIC", 30}}}, 30)
	c := NewQueryKey(Portfolio{Holdings: []Holding{{"VNM", 30}, {"VIC", 30}, {"HPG", 40}}}, 90)
	d := NewQueryKey(Portfolio{Holdings: []Holding{{"VNM", 30}, {"VIC", 35}, {"HPG", 35}}}, 30)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(d))
	assert.Equal(t, "HPG:40,VIC:30,VNM:30@30", a.ID())
}

func TestQueryKey_CopiesPortfolio(t *testing.T) {
	p := Portfolio{Holdings: []Holding{{"VNM", 30}}}
	k := NewQueryKey(p, 7)
	p.Holdings[0].Weight = 50

	assert.Equal(t, 30.0, k.Portfolio.Holdings[0].Weight)
	assert.Equal(t, "VNM:30@7", k.ID())
}

func TestQueryKey_ZeroValue(t *testing.T) {
	var k QueryKey
	assert.True(t, k.IsZero())
	assert.Equal(t, "@0", k.ID())
	assert.False(t, k.Equal(NewQueryKey(DefaultPortfolio(), DefaultWindow)))
}
