package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/callscope/internal/chart"
	"github.com/KaramelBytes/callscope/internal/report"
	"github.com/KaramelBytes/callscope/internal/utils"
	"github.com/spf13/cobra"
)

var repOutputPath string

var reportCmd = &cobra.Command{
	Use:   "report [file]",
	Short: "Build the call center performance report",
	Long: `Build the report from a consultation log and print it as Markdown, or write it
to --output. The output format follows the extension: .md (charts saved beside it
as PNG), .html (standalone dashboard page with embedded charts) or .json.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := dataPath(args)
		f, err := loadFrame(path)
		if err != nil {
			return err
		}
		rep, buildErr := report.Build(f, reportOptions())
		if rep != nil {
			if err := writeReport(cmd, rep, repOutputPath); err != nil {
				return err
			}
		}
		if buildErr != nil {
			return fmt.Errorf("build report: %w", buildErr)
		}
		if len(rep.Skipped) > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: %d step(s) skipped for missing columns: %s\n", len(rep.Skipped), strings.Join(rep.Skipped, ", "))
		}
		return nil
	},
}

func writeReport(cmd *cobra.Command, rep *report.Report, out string) error {
	if out == "" {
		fmt.Fprintln(cmd.OutOrStdout(), rep.Markdown(nil))
		return nil
	}
	var data []byte
	switch strings.ToLower(filepath.Ext(out)) {
	case ".json":
		b, err := utils.PrettyJSON(rep)
		if err != nil {
			return err
		}
		data = b
	case ".html", ".htm":
		urls, err := report.StandaloneChartURL(rep)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: %v\n", err)
		}
		var sb strings.Builder
		if err := rep.HTML(&sb, report.HTMLOptions{ChartURL: urls}); err != nil {
			return err
		}
		data = []byte(sb.String())
	default:
		urls, err := writeChartFiles(cmd, rep, utils.SidecarDir(out, "charts"))
		if err != nil {
			return err
		}
		data = []byte(rep.Markdown(urls))
	}
	if err := utils.SafeWriteFile(out, data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote report to %s\n", out)
	return nil
}

// writeChartFiles renders every chart into dir and returns links relative to
// the Markdown file next to dir.
func writeChartFiles(cmd *cobra.Command, rep *report.Report, dir string) (report.ChartURL, error) {
	charts := rep.Charts()
	if len(charts) == 0 {
		return nil, nil
	}
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("create chart dir: %w", err)
	}
	links := map[string]string{}
	for _, blk := range charts {
		png, err := chart.RenderPNG(*blk.Chart)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: chart %s: %v\n", blk.ID, err)
			continue
		}
		name := blk.ID + ".png"
		if err := os.WriteFile(filepath.Join(dir, name), png, 0o644); err != nil {
			return nil, fmt.Errorf("write chart: %w", err)
		}
		links[blk.ID] = filepath.ToSlash(filepath.Join(filepath.Base(dir), name))
	}
	return func(id string) string { return links[id] }, nil
}

func init() {
	rootCmd.AddCommand(reportCmd)
	addSourceFlags(reportCmd)
	reportCmd.Flags().StringVarP(&repOutputPath, "output", "o", "", "write report to file (.md, .html or .json)")
	reportCmd.Flags().IntVar(&srcBins, "bins", 0, "histogram bins for call charges (overrides config)")
}
