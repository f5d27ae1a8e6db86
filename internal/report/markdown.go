package report

import (
	"fmt"
	"strings"
)

// ChartURL maps a chart block id to an image reference. A nil ChartURL renders
// charts as captions only.
type ChartURL func(id string) string

// Markdown renders the report as GitHub-flavored Markdown.
func (r *Report) Markdown(chartURL ChartURL) string {
	var sb strings.Builder
	for _, blk := range r.Blocks {
		switch blk.Kind {
		case BlockTitle:
			fmt.Fprintf(&sb, "# %s\n\n", blk.Text)
		case BlockHeader:
			fmt.Fprintf(&sb, "## %s\n\n", blk.Text)
		case BlockSubheader:
			fmt.Fprintf(&sb, "### %s\n\n", blk.Text)
		case BlockText:
			fmt.Fprintf(&sb, "%s\n\n", blk.Text)
		case BlockNotice:
			fmt.Fprintf(&sb, "> ⚠ %s\n\n", blk.Text)
		case BlockTable:
			writeMarkdownTable(&sb, blk.Table)
		case BlockChart:
			if chartURL == nil {
				fmt.Fprintf(&sb, "_[chart: %s]_\n\n", blk.Chart.Title)
				continue
			}
			fmt.Fprintf(&sb, "![%s](%s)\n\n", blk.Chart.Title, chartURL(blk.ID))
		}
	}
	fmt.Fprintf(&sb, "---\n_%s · %d rows · run %s · %s_\n", r.Source, r.Rows, r.RunID, r.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	return sb.String()
}

func writeMarkdownTable(sb *strings.Builder, t *Table) {
	if t == nil || len(t.Columns) == 0 {
		return
	}
	sb.WriteString("|")
	for _, c := range t.Columns {
		sb.WriteString(" " + escapeCell(c) + " |")
	}
	sb.WriteString("\n|")
	for range t.Columns {
		sb.WriteString("---|")
	}
	sb.WriteString("\n")
	for _, row := range t.Rows {
		sb.WriteString("|")
		for i := range t.Columns {
			v := ""
			if i < len(row) {
				v = row[i]
			}
			sb.WriteString(" " + escapeCell(v) + " |")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
