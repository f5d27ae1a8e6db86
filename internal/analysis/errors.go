package analysis

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmpty is returned by lookups that need at least one non-null value.
var ErrEmpty = errors.New("no non-null values")

// MissingColumnError indicates that one or more required columns are absent.
// Report steps treat it as a soft failure.
type MissingColumnError struct {
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing column(s): %s", strings.Join(e.Columns, ", "))
}

// FormatError indicates a cell that could not be converted to the requested kind.
type FormatError struct {
	Column string
	Row    int // 0-based data row
	Kind   Kind
	Value  string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("column %q row %d: cannot parse %q as %s", e.Column, e.Row+1, e.Value, e.Kind)
}

// IsMissingColumn reports whether err is (or wraps) a *MissingColumnError.
func IsMissingColumn(err error) bool {
	var mc *MissingColumnError
	return errors.As(err, &mc)
}
