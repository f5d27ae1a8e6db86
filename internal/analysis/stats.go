package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary holds descriptive statistics for one numeric column.
type Summary struct {
	Column string `json:"column"`
	Count  int    `json:"count"`
	Mean   Float  `json:"mean"`
	Std    Float  `json:"std"`
	Min    Float  `json:"min"`
	Q25    Float  `json:"q25"`
	Q50    Float  `json:"q50"`
	Q75    Float  `json:"q75"`
	Max    Float  `json:"max"`
}

// Describe computes count, mean, sample std, min, quartiles and max for each
// named column. Statistics of a column with no values are NaN.
func Describe(f *Frame, cols ...string) ([]Summary, error) {
	if err := f.Require(cols...); err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(cols))
	for _, c := range cols {
		s, err := f.Float(c)
		if err != nil {
			return nil, err
		}
		out = append(out, describe(c, Values(s)))
	}
	return out, nil
}

func describe(name string, xs []float64) Summary {
	s := Summary{Column: name, Count: len(xs)}
	if len(xs) == 0 {
		s.Mean, s.Std, s.Min, s.Q25, s.Q50, s.Q75, s.Max = Float(nan), Float(nan), Float(nan), Float(nan), Float(nan), Float(nan), Float(nan)
		return s
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	s.Mean = Float(stat.Mean(xs, nil))
	s.Std = Float(nan)
	if len(xs) > 1 {
		s.Std = Float(stat.StdDev(xs, nil))
	}
	s.Min = Float(sorted[0])
	s.Max = Float(sorted[len(sorted)-1])
	s.Q25 = Float(quantile(sorted, 0.25))
	s.Q50 = Float(quantile(sorted, 0.50))
	s.Q75 = Float(quantile(sorted, 0.75))
	return s
}

// quantile interpolates linearly between the closest ranks of a sorted slice.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return nan
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// Values returns the non-null numbers of s in row order.
func Values(s *Series) []float64 {
	out := make([]float64, 0, len(s.Nums))
	for _, v := range s.Nums {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Sum adds the non-null values of s; an all-null series sums to 0.
func Sum(s *Series) float64 {
	xs := Values(s)
	if len(xs) == 0 {
		return 0
	}
	return floats.Sum(xs)
}

// Mean averages the non-null values of s; NaN when there are none.
func Mean(s *Series) float64 {
	xs := Values(s)
	if len(xs) == 0 {
		return nan
	}
	return stat.Mean(xs, nil)
}

// IdxMax returns the row of the first maximum non-null value.
func IdxMax(s *Series) (int, error) {
	best := -1
	for i, v := range s.Nums {
		if math.IsNaN(v) {
			continue
		}
		if best < 0 || v > s.Nums[best] {
			best = i
		}
	}
	if best < 0 {
		return 0, ErrEmpty
	}
	return best, nil
}

// Corr is the Pearson correlation of a and b over rows where both are non-null.
// It is NaN with fewer than two such rows or when either side has no variance.
func Corr(a, b *Series) float64 {
	n := len(a.Nums)
	if len(b.Nums) < n {
		n = len(b.Nums)
	}
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(a.Nums[i]) || math.IsNaN(b.Nums[i]) {
			continue
		}
		xs = append(xs, a.Nums[i])
		ys = append(ys, b.Nums[i])
	}
	if len(xs) < 2 {
		return nan
	}
	if floats.Max(xs) == floats.Min(xs) || floats.Max(ys) == floats.Min(ys) {
		return nan
	}
	r := stat.Correlation(xs, ys, nil)
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r
}

// Bin is one histogram bucket covering [Lo, Hi); the last bucket includes Hi.
type Bin struct {
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Count int     `json:"count"`
}

// Histogram buckets values into n equal-width bins spanning [min, max]. When
// every value is equal the span is widened to [v-0.5, v+0.5].
func Histogram(values []float64, n int) []Bin {
	if n <= 0 || len(values) == 0 {
		return nil
	}
	lo, hi := floats.Min(values), floats.Max(values)
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	width := (hi - lo) / float64(n)
	bins := make([]Bin, n)
	for i := range bins {
		bins[i].Lo = lo + float64(i)*width
		bins[i].Hi = lo + float64(i+1)*width
	}
	bins[n-1].Hi = hi
	for _, v := range values {
		k := int((v - lo) / width)
		if k >= n {
			k = n - 1
		}
		if k < 0 {
			k = 0
		}
		bins[k].Count++
	}
	return bins
}

// CategoryCount is one entry of a frequency table.
type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// ValueCounts tallies the non-null values of s, most frequent first. Equal
// counts keep the order in which the values first appear.
func ValueCounts(s *Series) []CategoryCount {
	idx := map[string]int{}
	var out []CategoryCount
	for i := 0; i < s.Len(); i++ {
		if s.IsNull(i) {
			continue
		}
		v := s.Cell(i)
		k, ok := idx[v]
		if !ok {
			k = len(out)
			idx[v] = k
			out = append(out, CategoryCount{Value: v})
		}
		out[k].Count++
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// Mode returns the most frequent non-null value of s.
func Mode(s *Series) (string, error) {
	vc := ValueCounts(s)
	if len(vc) == 0 {
		return "", ErrEmpty
	}
	return vc[0].Value, nil
}

// GroupValue is the aggregate of one group.
type GroupValue struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
	Mean  Float  `json:"mean"`
}

// GroupMean averages column col within each distinct non-null value of by.
// Groups are ordered by key.
func GroupMean(f *Frame, by, col string) ([]GroupValue, error) {
	if err := f.Require(by, col); err != nil {
		return nil, err
	}
	keys, err := f.Series(by)
	if err != nil {
		return nil, err
	}
	vals, err := f.Float(col)
	if err != nil {
		return nil, err
	}
	type acc struct {
		xs []float64
	}
	groups := map[string]*acc{}
	for i := 0; i < keys.Len(); i++ {
		if keys.IsNull(i) {
			continue
		}
		k := keys.Cell(i)
		g := groups[k]
		if g == nil {
			g = &acc{}
			groups[k] = g
		}
		if v := vals.Nums[i]; !math.IsNaN(v) {
			g.xs = append(g.xs, v)
		}
	}
	out := make([]GroupValue, 0, len(groups))
	for k, g := range groups {
		gv := GroupValue{Key: k, Count: len(g.xs), Mean: Float(nan)}
		if len(g.xs) > 0 {
			gv.Mean = Float(stat.Mean(g.xs, nil))
		}
		out = append(out, gv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
