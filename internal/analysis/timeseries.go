package analysis

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Seconds derives a numeric series holding end-start in seconds. Rows where
// either side is missing are NaN.
func Seconds(name string, end, start *Series) (*Series, error) {
	if end.Kind != KindTime || start.Kind != KindTime {
		return nil, fmt.Errorf("seconds %s: both operands must be time series", name)
	}
	if len(end.Times) != len(start.Times) {
		return nil, fmt.Errorf("seconds %s: length mismatch %d != %d", name, len(end.Times), len(start.Times))
	}
	out := &Series{Name: name, Kind: KindNumber, Nums: make([]float64, len(end.Times))}
	for i := range end.Times {
		if end.Times[i].IsZero() || start.Times[i].IsZero() {
			out.Nums[i] = nan
			continue
		}
		out.Nums[i] = end.Times[i].Sub(start.Times[i]).Seconds()
	}
	return out, nil
}

// Point is one bucket of a resampled series.
type Point struct {
	Day   time.Time `json:"day"`
	Value Float     `json:"value"`
}

// ErrNoIndex is returned by ResampleDaily on a frame without a time index.
var ErrNoIndex = errors.New("frame has no time index")

// ResampleDaily sums col per calendar day of the frame's time index. Buckets
// cover every day from the first to the last indexed day; days without rows
// sum to 0. Rows with a missing index are dropped. Days are cut in the
// location of the earliest timestamp.
func ResampleDaily(f *Frame, col string) ([]Point, error) {
	idx := f.Index()
	if idx == nil {
		return nil, ErrNoIndex
	}
	vals, err := f.Float(col)
	if err != nil {
		return nil, err
	}
	var first, last time.Time
	for _, t := range idx.Times {
		if t.IsZero() {
			continue
		}
		if first.IsZero() || t.Before(first) {
			first = t
		}
		if last.IsZero() || t.After(last) {
			last = t
		}
	}
	if first.IsZero() {
		return nil, nil
	}
	loc := first.Location()
	// Buckets are keyed by calendar date; midnight may not exist on DST days.
	type date struct {
		y int
		m time.Month
		d int
	}
	dateOf := func(t time.Time) date {
		y, m, d := t.In(loc).Date()
		return date{y, m, d}
	}
	start, end := dateOf(first), dateOf(last)
	var points []Point
	pos := map[date]int{}
	for k := start; ; {
		pos[k] = len(points)
		points = append(points, Point{Day: startOfDay(k.y, k.m, k.d, loc)})
		if k == end {
			break
		}
		k = dateOf(time.Date(k.y, k.m, k.d+1, 12, 0, 0, 0, loc))
	}
	for i, t := range idx.Times {
		if t.IsZero() {
			continue
		}
		v := vals.Nums[i]
		if math.IsNaN(v) {
			continue
		}
		k, ok := pos[dateOf(t)]
		if !ok {
			continue
		}
		points[k].Value += Float(v)
	}
	return points, nil
}

// startOfDay returns the first instant of the given date in loc.
func startOfDay(y int, m time.Month, d int, loc *time.Location) time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, loc)
	for t.Day() != d {
		t = t.Add(30 * time.Minute)
	}
	return t
}
