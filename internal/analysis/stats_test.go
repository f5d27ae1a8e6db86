package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func calls() *Frame {
	header := []string{"amount", "timeDuration", "consultationType", "source", "astrologersEarnings"}
	rows := [][]string{
		{"10", "60", "chat", "app", "4"},
		{"20", "120", "call", "web", "9"},
		{"", "30", "chat", "web", "9"},
		{"40", "", "video", "app", ""},
		{"5", "90", "call", "web", "1"},
	}
	return NewFrame("calls", header, rows, DefaultParseOptions())
}

func TestDescribeCountsAndBounds(t *testing.T) {
	sums, err := Describe(calls(), "amount", "timeDuration")
	require.NoError(t, err)
	require.Len(t, sums, 2)

	amt := sums[0]
	assert.Equal(t, "amount", amt.Column)
	assert.Equal(t, 4, amt.Count)
	assert.Equal(t, Float(18.75), amt.Mean)
	assert.Equal(t, Float(5), amt.Min)
	assert.Equal(t, Float(40), amt.Max)
	assert.Equal(t, Float(15), amt.Q50)
	assert.Equal(t, Float(8.75), amt.Q25)
	assert.Equal(t, Float(25), amt.Q75)
	assert.InDelta(t, 15.4785, float64(amt.Std), 1e-3)

	for _, s := range sums {
		assert.LessOrEqual(t, float64(s.Min), float64(s.Mean))
		assert.LessOrEqual(t, float64(s.Mean), float64(s.Max))
	}
}

func TestDescribeMissingColumn(t *testing.T) {
	_, err := Describe(calls(), "amount", "refundAmount")
	assert.True(t, IsMissingColumn(err))
}

func TestDescribeSingleValue(t *testing.T) {
	f := NewFrame("one", []string{"amount"}, [][]string{{"7"}}, DefaultParseOptions())
	sums, err := Describe(f, "amount")
	require.NoError(t, err)
	assert.Equal(t, 1, sums[0].Count)
	assert.True(t, sums[0].Std.IsNaN())
	assert.Equal(t, Float(7), sums[0].Q75)
}

func TestGroupMeanOneRowPerKey(t *testing.T) {
	groups, err := GroupMean(calls(), "consultationType", "timeDuration")
	require.NoError(t, err)

	keys := map[string]bool{}
	for _, g := range groups {
		assert.False(t, keys[g.Key], "duplicate key %s", g.Key)
		keys[g.Key] = true
	}
	require.Equal(t, []string{"call", "chat", "video"}, []string{groups[0].Key, groups[1].Key, groups[2].Key})
	assert.Equal(t, Float(105), groups[0].Mean)
	assert.Equal(t, Float(45), groups[1].Mean)
	assert.True(t, groups[2].Mean.IsNaN())
}

func TestModeHighestFrequency(t *testing.T) {
	src, err := calls().Series("source")
	require.NoError(t, err)
	m, err := Mode(src)
	require.NoError(t, err)
	assert.Equal(t, "web", m)

	tie := &Series{Name: "s", Kind: KindText, Text: []string{"b", "a", "a", "b", ""}}
	m, err = Mode(tie)
	require.NoError(t, err)
	assert.Equal(t, "b", m, "ties resolve to first appearance")

	_, err = Mode(&Series{Kind: KindText, Text: []string{"", ""}})
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestValueCountsOrder(t *testing.T) {
	s := &Series{Name: "s", Kind: KindText, Text: []string{"x", "y", "z", "y", "z", "z"}}
	assert.Equal(t, []CategoryCount{{"z", 3}, {"y", 2}, {"x", 1}}, ValueCounts(s))
}

func TestSumKnownFixture(t *testing.T) {
	f := NewFrame("two", []string{"amount"}, [][]string{{"10"}, {"20"}}, DefaultParseOptions())
	amt, err := f.Float("amount")
	require.NoError(t, err)
	assert.Equal(t, 30.0, Sum(amt))
	assert.Equal(t, 15.0, Mean(amt))

	empty := &Series{Kind: KindNumber, Nums: []float64{math.NaN()}}
	assert.Equal(t, 0.0, Sum(empty))
	assert.True(t, math.IsNaN(Mean(empty)))
}

func TestIdxMaxFirstMaximum(t *testing.T) {
	s := &Series{Kind: KindNumber, Nums: []float64{math.NaN(), 3, 9, 9, 1}}
	i, err := IdxMax(s)
	require.NoError(t, err)
	assert.Equal(t, 2, i)

	_, err = IdxMax(&Series{Kind: KindNumber, Nums: []float64{math.NaN()}})
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestCorrLinear(t *testing.T) {
	d := &Series{Kind: KindNumber, Nums: []float64{1, 2, 3, 4, math.NaN()}}
	a := &Series{Kind: KindNumber, Nums: []float64{2, 4, 6, 8, 10}}
	assert.InDelta(t, 1.0, Corr(d, a), 1e-12)

	neg := &Series{Kind: KindNumber, Nums: []float64{-2, -4, -6, -8, 0}}
	assert.InDelta(t, -1.0, Corr(d, neg), 1e-12)

	flat := &Series{Kind: KindNumber, Nums: []float64{5, 5, 5, 5, 5}}
	assert.True(t, math.IsNaN(Corr(d, flat)))
	one := &Series{Kind: KindNumber, Nums: []float64{1, math.NaN(), math.NaN(), math.NaN(), math.NaN()}}
	assert.True(t, math.IsNaN(Corr(one, a)))
}

func TestHistogram(t *testing.T) {
	bins := Histogram([]float64{0, 1, 2, 3, 4, 10}, 5)
	require.Len(t, bins, 5)
	assert.Equal(t, []int{2, 2, 1, 0, 1}, []int{bins[0].Count, bins[1].Count, bins[2].Count, bins[3].Count, bins[4].Count})
	assert.Equal(t, 0.0, bins[0].Lo)
	assert.Equal(t, 10.0, bins[4].Hi)

	flat := Histogram([]float64{3, 3}, 2)
	assert.Equal(t, 2.5, flat[0].Lo)
	assert.Equal(t, 3.5, flat[1].Hi)
	assert.Equal(t, 2, flat[0].Count+flat[1].Count)

	assert.Nil(t, Histogram(nil, 10))
}
