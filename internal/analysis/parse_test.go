package analysis

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumeric(t *testing.T) {
	auto := ParseOptions{}
	cases := []struct {
		in   string
		opt  ParseOptions
		want float64
		ok   bool
	}{
		{"12.5", DefaultParseOptions(), 12.5, true},
		{"-3", DefaultParseOptions(), -3, true},
		{"1,234", DefaultParseOptions(), 0, false},
		{"1,234.50", auto, 1234.5, true},
		{"1.234,50", auto, 1234.5, true},
		{"12,5", auto, 12.5, true},
		{"45%", auto, 45, true},
		{"1 234", ParseOptions{DecimalSeparator: '.', ThousandsSeparator: ' '}, 1234, true},
		{"abc", auto, 0, false},
	}
	for _, c := range cases {
		got, ok := parseNumeric(c.in, c.opt)
		assert.Equal(t, c.ok, ok, c.in)
		if c.ok {
			assert.InDelta(t, c.want, got, 1e-9, c.in)
		}
	}
}

func TestParseTime(t *testing.T) {
	want := time.Date(2023, 12, 1, 10, 15, 0, 0, time.UTC)
	for _, in := range []string{
		"2023-12-01 10:15:00",
		"2023-12-01T10:15:00Z",
		"2023/12/01 10:15:00",
	} {
		got, ok := ParseTime(in, nil)
		require.True(t, ok, in)
		assert.True(t, want.Equal(got), in)
	}

	got, ok := ParseTime("01.12.2023 10:15", []string{"02.01.2006 15:04"})
	require.True(t, ok)
	assert.True(t, want.Equal(got))

	_, ok = ParseTime("1701425700", nil)
	assert.False(t, ok, "bare numbers are not timestamps")
	_, ok = ParseTime("tomorrow-ish", nil)
	assert.False(t, ok)
}

func TestParseTimeMonthFirst(t *testing.T) {
	cases := map[string]time.Time{
		"12/01/2023 10:00:00": time.Date(2023, 12, 1, 10, 0, 0, 0, time.UTC),
		"12/25/2023":          time.Date(2023, 12, 25, 0, 0, 0, 0, time.UTC),
		"1/3/2024 08:30":      time.Date(2024, 1, 3, 8, 30, 0, 0, time.UTC),
		"12-02-2023 09:15":    time.Date(2023, 12, 2, 9, 15, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, ok := ParseTime(in, nil)
		require.True(t, ok, in)
		assert.True(t, want.Equal(got), "%s parsed as %s", in, got)
	}

	got, ok := ParseTime("25/12/2023", []string{"02/01/2006"})
	require.True(t, ok)
	assert.Equal(t, time.December, got.Month())
}

func TestResampleMonthFirstDates(t *testing.T) {
	f := NewFrame("r", []string{"createdAt", "amount"}, [][]string{
		{"12/01/2023 10:00:00", "10"},
		{"12/02/2023 11:00:00", "5"},
	}, DefaultParseOptions())
	g, err := f.SetIndex("createdAt")
	require.NoError(t, err)
	pts, err := ResampleDaily(g, "amount")
	require.NoError(t, err)
	require.Len(t, pts, 2)
	assert.Equal(t, time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC), pts[0].Day)
	assert.Equal(t, Float(10), pts[0].Value)
	assert.Equal(t, Float(5), pts[1].Value)
}

func TestFloatJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		A Float `json:"a"`
		B Float `json:"b"`
	}{A: 1.5, B: Float(math.NaN())})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1.5,"b":null}`, string(b))
	assert.Equal(t, "NaN", FormatNumber(math.NaN()))
	assert.Equal(t, "30", FormatNumber(30))
}
