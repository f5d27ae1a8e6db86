package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/KaramelBytes/callscope/internal/analysis"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [file]",
	Short: "Show the columns of a consultation log and their inferred kinds",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := dataPath(args)
		f, err := loadFrame(path)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: %s rows, %d columns\n\n", f.Name, humanize.Comma(int64(f.Len())), len(f.Columns()))
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "COLUMN\tKIND\tNON-NULL\tMISSING\tUNIQUE")
		for _, p := range analysis.Profile(f) {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\n", p.Name, p.Kind, p.NonNull, p.Missing, p.Unique)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	addSourceFlags(inspectCmd)
}
