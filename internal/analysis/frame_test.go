package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Frame {
	header := []string{"\ufeffamount", "timeDuration", "source", "source", "createdAt"}
	rows := [][]string{
		{"10", "5", "app", "x", "2023-12-01 10:00:00"},
		{"20", "NaN", "web", "y", "2023-12-01 18:30:00"},
		{"N/A", "15"},
	}
	return NewFrame("sample", header, rows, DefaultParseOptions())
}

func TestNewFrameHeaderAndPadding(t *testing.T) {
	f := sample()
	assert.Equal(t, []string{"amount", "timeDuration", "source", "source.1", "createdAt"}, f.Columns())
	assert.Equal(t, 3, f.Len())

	src, err := f.Series("source")
	require.NoError(t, err)
	assert.True(t, src.IsNull(2), "short row should be padded with a missing cell")

	amt, err := f.Float("amount")
	require.NoError(t, err)
	assert.Equal(t, 10.0, amt.Nums[0])
	assert.True(t, math.IsNaN(amt.Nums[2]))
}

func TestFrameMissingAndRequire(t *testing.T) {
	f := sample()
	assert.True(t, f.Has("amount", "source"))
	assert.Equal(t, []string{"dialTime", "connectTime"}, f.Missing("dialTime", "amount", "connectTime"))

	err := f.Require("amount", "dialTime")
	require.Error(t, err)
	assert.True(t, IsMissingColumn(err))
	assert.Contains(t, err.Error(), "dialTime")
}

func TestFloatFormatError(t *testing.T) {
	f := NewFrame("bad", []string{"amount"}, [][]string{{"1"}, {"abc"}}, DefaultParseOptions())
	_, err := f.Float("amount")
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 1, fe.Row)
	assert.Equal(t, "abc", fe.Value)
	assert.Contains(t, err.Error(), "row 2")
}

func TestTimeFormatError(t *testing.T) {
	f := NewFrame("bad", []string{"createdAt"}, [][]string{{"2023-12-01"}, {"not a date"}}, DefaultParseOptions())
	_, err := f.Time("createdAt")
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, KindTime, fe.Kind)
}

func TestWithLeavesReceiverUntouched(t *testing.T) {
	f := sample()
	derived := &Series{Name: "connectionTime", Kind: KindNumber, Nums: []float64{1, 2, 3}}
	g := f.With(derived)

	assert.False(t, f.Has("connectionTime"))
	assert.True(t, g.Has("connectionTime"))
	assert.Len(t, g.Columns(), len(f.Columns())+1)

	replaced := g.With(&Series{Name: "connectionTime", Kind: KindNumber, Nums: []float64{7, 8, 9}})
	s, err := replaced.Series("connectionTime")
	require.NoError(t, err)
	assert.Equal(t, 7.0, s.Nums[0])
	s, _ = g.Series("connectionTime")
	assert.Equal(t, 1.0, s.Nums[0])
}

func TestSetIndexCopies(t *testing.T) {
	f := sample()
	g, err := f.SetIndex("createdAt")
	require.NoError(t, err)

	assert.Nil(t, f.Index())
	assert.True(t, f.Has("createdAt"))
	require.NotNil(t, g.Index())
	assert.False(t, g.Has("createdAt"))
	assert.Equal(t, 3, g.Len())
	assert.True(t, g.Index().IsNull(2))
}

func TestRowProjection(t *testing.T) {
	f := sample()
	row, err := f.Row(1, "source", "amount")
	require.NoError(t, err)
	assert.Equal(t, []Field{{Name: "source", Value: "web"}, {Name: "amount", Value: "20"}}, row)

	_, err = f.Row(5, "amount")
	assert.Error(t, err)
	_, err = f.Row(0, "gid")
	assert.True(t, IsMissingColumn(err))
}

func TestConversionKindMismatch(t *testing.T) {
	f := NewFrame("empty", []string{"amount"}, nil, DefaultParseOptions())
	f = f.With(&Series{Name: "createdAt", Kind: KindTime})
	f = f.With(&Series{Name: "amount", Kind: KindNumber})

	_, err := f.Float("createdAt")
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "", fe.Value)

	_, err = f.Time("amount")
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, KindTime, fe.Kind)
}
