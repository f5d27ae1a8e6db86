package analysis

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Kind is the storage type of a Series.
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindTime:
		return "time"
	default:
		return "text"
	}
}

// Series is one named column. Exactly one of Text, Nums or Times is populated,
// according to Kind. Missing cells are "" (text), NaN (number) or the zero
// time (time).
type Series struct {
	Name  string
	Kind  Kind
	Text  []string
	Nums  []float64
	Times []time.Time
}

// Len returns the number of cells.
func (s *Series) Len() int {
	switch s.Kind {
	case KindNumber:
		return len(s.Nums)
	case KindTime:
		return len(s.Times)
	default:
		return len(s.Text)
	}
}

// IsNull reports whether cell i is missing.
func (s *Series) IsNull(i int) bool {
	switch s.Kind {
	case KindNumber:
		return math.IsNaN(s.Nums[i])
	case KindTime:
		return s.Times[i].IsZero()
	default:
		return s.Text[i] == ""
	}
}

// Cell renders cell i as text; missing cells render as "".
func (s *Series) Cell(i int) string {
	if s.IsNull(i) {
		return ""
	}
	switch s.Kind {
	case KindNumber:
		return FormatNumber(s.Nums[i])
	case KindTime:
		return s.Times[i].Format(time.RFC3339)
	default:
		return s.Text[i]
	}
}

// ParseOptions controls how text cells convert to numbers and timestamps.
type ParseOptions struct {
	// DecimalSeparator; if 0, auto-detect per value.
	DecimalSeparator rune
	// ThousandsSeparator; if 0 and DecimalSeparator is 0, common separators are stripped.
	ThousandsSeparator rune
	// TimeLayouts are tried before the built-in layouts.
	TimeLayouts []string
}

// DefaultParseOptions matches plain machine-written CSV: '.' decimals, no grouping.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{DecimalSeparator: '.'}
}

// Frame is an immutable, column-oriented table. Operations that derive new
// columns or an index return a new Frame sharing the untouched columns.
type Frame struct {
	Name  string
	cols  []*Series
	pos   map[string]int
	index *Series
	opt   ParseOptions
}

// NewFrame builds a text-typed frame from a header and raw rows. Short rows are
// padded; NA tokens ("NaN", "NULL", "N/A", ...) become missing cells. Duplicate
// header names get ".1", ".2" suffixes.
func NewFrame(name string, header []string, rows [][]string, opt ParseOptions) *Frame {
	f := &Frame{Name: name, pos: make(map[string]int, len(header)), opt: opt}
	seen := map[string]int{}
	for _, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		colName := h
		if n, dup := seen[h]; dup {
			colName = fmt.Sprintf("%s.%d", h, n)
		}
		seen[h]++
		s := &Series{Name: colName, Kind: KindText, Text: make([]string, len(rows))}
		f.pos[colName] = len(f.cols)
		f.cols = append(f.cols, s)
	}
	for i, rec := range rows {
		for j, s := range f.cols {
			if j >= len(rec) {
				continue
			}
			v := strings.TrimSpace(rec[j])
			if isNA(v) {
				v = ""
			}
			s.Text[i] = v
		}
	}
	return f
}

var naTokens = map[string]struct{}{
	"": {}, "#N/A": {}, "N/A": {}, "NA": {}, "NULL": {}, "NaN": {}, "n/a": {},
	"nan": {}, "null": {}, "-NaN": {}, "None": {}, "<NA>": {}, "NaT": {},
}

func isNA(v string) bool {
	_, ok := naTokens[v]
	return ok
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	if len(f.cols) == 0 {
		if f.index != nil {
			return f.index.Len()
		}
		return 0
	}
	return f.cols[0].Len()
}

// Columns returns column names in file order.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.cols))
	for i, s := range f.cols {
		out[i] = s.Name
	}
	return out
}

// Has reports whether every named column exists.
func (f *Frame) Has(cols ...string) bool {
	return len(f.Missing(cols...)) == 0
}

// Missing returns the subset of cols that are not present, in argument order.
func (f *Frame) Missing(cols ...string) []string {
	var out []string
	for _, c := range cols {
		if _, ok := f.pos[c]; !ok {
			out = append(out, c)
		}
	}
	return out
}

// Require returns a *MissingColumnError naming every absent column.
func (f *Frame) Require(cols ...string) error {
	if miss := f.Missing(cols...); len(miss) > 0 {
		return &MissingColumnError{Columns: miss}
	}
	return nil
}

// Series returns the named column as stored.
func (f *Frame) Series(name string) (*Series, error) {
	i, ok := f.pos[name]
	if !ok {
		return nil, &MissingColumnError{Columns: []string{name}}
	}
	return f.cols[i], nil
}

// Float returns the named column converted to numbers. A non-empty cell that
// does not parse yields a *FormatError.
func (f *Frame) Float(name string) (*Series, error) {
	s, err := f.Series(name)
	if err != nil {
		return nil, err
	}
	switch s.Kind {
	case KindNumber:
		return s, nil
	case KindTime:
		return nil, &FormatError{Column: name, Row: 0, Kind: KindNumber, Value: firstCell(s)}
	}
	out := &Series{Name: name, Kind: KindNumber, Nums: make([]float64, len(s.Text))}
	for i, v := range s.Text {
		if v == "" {
			out.Nums[i] = nan
			continue
		}
		x, ok := parseNumeric(v, f.opt)
		if !ok {
			return nil, &FormatError{Column: name, Row: i, Kind: KindNumber, Value: v}
		}
		out.Nums[i] = x
	}
	return out, nil
}

// Time returns the named column converted to timestamps. A non-empty cell that
// does not parse yields a *FormatError.
func (f *Frame) Time(name string) (*Series, error) {
	s, err := f.Series(name)
	if err != nil {
		return nil, err
	}
	switch s.Kind {
	case KindTime:
		return s, nil
	case KindNumber:
		return nil, &FormatError{Column: name, Row: 0, Kind: KindTime, Value: firstCell(s)}
	}
	out := &Series{Name: name, Kind: KindTime, Times: make([]time.Time, len(s.Text))}
	for i, v := range s.Text {
		if v == "" {
			continue
		}
		t, ok := ParseTime(v, f.opt.TimeLayouts)
		if !ok {
			return nil, &FormatError{Column: name, Row: i, Kind: KindTime, Value: v}
		}
		out.Times[i] = t
	}
	return out, nil
}

func firstCell(s *Series) string {
	if s.Len() == 0 {
		return ""
	}
	return s.Cell(0)
}

// With returns a copy of f with s appended, or replacing the column of the same
// name. f itself is left untouched.
func (f *Frame) With(s *Series) *Frame {
	g := f.clone()
	if i, ok := g.pos[s.Name]; ok {
		g.cols[i] = s
		return g
	}
	g.pos[s.Name] = len(g.cols)
	g.cols = append(g.cols, s)
	return g
}

// SetIndex returns a copy of f indexed by the named column parsed as time. The
// column moves from the data columns into the index.
func (f *Frame) SetIndex(name string) (*Frame, error) {
	ts, err := f.Time(name)
	if err != nil {
		return nil, err
	}
	g := &Frame{Name: f.Name, pos: make(map[string]int, len(f.cols)), index: ts, opt: f.opt}
	for _, s := range f.cols {
		if s.Name == name {
			continue
		}
		g.pos[s.Name] = len(g.cols)
		g.cols = append(g.cols, s)
	}
	return g, nil
}

// Index returns the time index set by SetIndex, or nil.
func (f *Frame) Index() *Series { return f.index }

// Field is one projected cell.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Row projects row i onto the named columns.
func (f *Frame) Row(i int, cols ...string) ([]Field, error) {
	if err := f.Require(cols...); err != nil {
		return nil, err
	}
	if i < 0 || i >= f.Len() {
		return nil, fmt.Errorf("row %d out of range [0,%d)", i, f.Len())
	}
	out := make([]Field, len(cols))
	for k, c := range cols {
		s := f.cols[f.pos[c]]
		out[k] = Field{Name: c, Value: s.Cell(i)}
	}
	return out, nil
}

func (f *Frame) clone() *Frame {
	g := &Frame{Name: f.Name, pos: make(map[string]int, len(f.pos)+1), index: f.index, opt: f.opt}
	g.cols = append(make([]*Series, 0, len(f.cols)+1), f.cols...)
	for k, v := range f.pos {
		g.pos[k] = v
	}
	return g
}
