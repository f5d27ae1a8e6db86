// Package loader reads tabular consultation logs into an analysis.Frame.
package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/callscope/internal/analysis"
)

// Options tune how a source file is read.
type Options struct {
	// Delimiter for CSV input; 0 picks ',' (or tab for .tsv).
	Delimiter rune
	// Sheet selects an XLSX worksheet by name; empty means the first sheet.
	Sheet string
	// Table is the SQLite table to read.
	Table string
	// Parse controls numeric and timestamp conversion on the loaded frame.
	Parse analysis.ParseOptions
}

// DefaultOptions returns options for a plain comma-separated file.
func DefaultOptions() Options {
	return Options{Table: "consultations", Parse: analysis.DefaultParseOptions()}
}

// Loader reads one family of tabular formats.
type Loader interface {
	CanLoad(filename string) bool
	Load(path string, opt Options) (*analysis.Frame, error)
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

func init() {
	Register(xlsxLoader{})
	Register(sqliteLoader{})
	Register(csvLoader{})
}

// ErrNoHeader indicates a source without a header row.
var ErrNoHeader = errors.New("no header row")

// Load selects a loader by file name and reads the whole table. Unknown
// extensions are read as CSV.
func Load(path string, opt Options) (*analysis.Frame, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}
	for _, l := range registry {
		if l.CanLoad(path) {
			return l.Load(path, opt)
		}
	}
	return csvLoader{}.Load(path, opt)
}

func hasExt(name string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// ParseDelimiter maps a flag value to a delimiter rune. Accepts a single
// character or the names "comma", "semicolon", "tab" and "pipe".
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return 0, nil
	case ",", "comma":
		return ',', nil
	case ";", "semicolon":
		return ';', nil
	case "\t", "\\t", "tab":
		return '\t', nil
	case "|", "pipe":
		return '|', nil
	}
	r := []rune(s)
	if len(r) != 1 {
		return 0, fmt.Errorf("invalid delimiter %q", s)
	}
	return r[0], nil
}
