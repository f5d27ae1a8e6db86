package cmd

import (
	"fmt"

	"github.com/KaramelBytes/callscope/internal/analysis"
	"github.com/KaramelBytes/callscope/internal/loader"
	"github.com/KaramelBytes/callscope/internal/report"
	"github.com/spf13/cobra"
)

// Source selection flags shared by report, serve and inspect.
var (
	srcDelimiter string
	srcSheet     string
	srcTable     string
	srcBins      int
)

func addSourceFlags(c *cobra.Command) {
	c.Flags().StringVar(&srcDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (overrides config)")
	c.Flags().StringVar(&srcSheet, "sheet", "", "XLSX: sheet name to read (default first sheet)")
	c.Flags().StringVar(&srcTable, "table", "", "SQLite: table to read (overrides config)")
}

// dataPath picks the positional file argument or the configured data_file.
func dataPath(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return settings().DataFile
}

func loaderOptions() (loader.Options, error) {
	c := settings()
	opt := loader.DefaultOptions()
	delim := c.Delimiter
	if srcDelimiter != "" {
		delim = srcDelimiter
	}
	d, err := loader.ParseDelimiter(delim)
	if err != nil {
		return opt, fmt.Errorf("unsupported --delimiter: %w", err)
	}
	opt.Delimiter = d
	opt.Sheet = c.Sheet
	if srcSheet != "" {
		opt.Sheet = srcSheet
	}
	if c.SQLiteTable != "" {
		opt.Table = c.SQLiteTable
	}
	if srcTable != "" {
		opt.Table = srcTable
	}
	opt.Parse.TimeLayouts = c.TimeLayouts
	return opt, nil
}

func loadFrame(path string) (*analysis.Frame, error) {
	opt, err := loaderOptions()
	if err != nil {
		return nil, err
	}
	f, err := loader.Load(path, opt)
	if err != nil {
		return nil, err
	}
	logs().Infow("source loaded", "path", path, "rows", f.Len(), "columns", len(f.Columns()))
	return f, nil
}

func reportOptions() report.Options {
	c := settings()
	opt := report.Options{Title: c.Title, Intro: c.Intro, Bins: c.HistogramBins, Logger: logs()}
	if srcBins > 0 {
		opt.Bins = srcBins
	}
	return opt
}
