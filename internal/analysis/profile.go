package analysis

// ColumnProfile describes one column as loaded.
type ColumnProfile struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	NonNull int    `json:"non_null"`
	Missing int    `json:"missing"`
	Unique  int    `json:"unique"`
}

// maxCategories bounds the distinct values a column may have and still be
// reported as categorical.
const maxCategories = 50

// Profile infers a kind for every column: numeric when every non-null cell
// parses as a number, datetime when every non-null cell parses as a time,
// categorical when values repeat within a small vocabulary, text otherwise.
// Columns with no values at all are "empty".
func Profile(f *Frame) []ColumnProfile {
	out := make([]ColumnProfile, 0, len(f.cols))
	for _, s := range f.cols {
		p := ColumnProfile{Name: s.Name}
		uniq := map[string]struct{}{}
		allNum, allTime := true, true
		for i := 0; i < s.Len(); i++ {
			if s.IsNull(i) {
				p.Missing++
				continue
			}
			p.NonNull++
			v := s.Cell(i)
			uniq[v] = struct{}{}
			if s.Kind != KindText {
				continue
			}
			if allNum {
				if _, ok := parseNumeric(v, f.opt); !ok {
					allNum = false
				}
			}
			if allTime {
				if _, ok := ParseTime(v, f.opt.TimeLayouts); !ok {
					allTime = false
				}
			}
		}
		p.Unique = len(uniq)
		switch {
		case s.Kind == KindNumber:
			p.Kind = "numeric"
		case s.Kind == KindTime:
			p.Kind = "datetime"
		case p.NonNull == 0:
			p.Kind = "empty"
		case allNum:
			p.Kind = "numeric"
		case allTime:
			p.Kind = "datetime"
		case p.Unique <= maxCategories && p.Unique < p.NonNull:
			p.Kind = "categorical"
		default:
			p.Kind = "text"
		}
		out = append(out, p)
	}
	return out
}
