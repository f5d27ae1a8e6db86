package report

import (
	"encoding/base64"
	"fmt"
	"html/template"
	"io"

	"github.com/KaramelBytes/callscope/internal/chart"
)

// HTMLOptions control page rendering.
type HTMLOptions struct {
	// ChartURL resolves chart images; see DataURI for standalone pages.
	ChartURL ChartURL
	// Live enables the refresh control, which posts to /api/refresh.
	Live bool
}

type section struct {
	Title  string
	Blocks []Block
}

type page struct {
	*Report
	Lead     []Block
	Sections []section
	Live     bool
}

// HTML renders the interactive dashboard page. Task sections are collapsible.
func (r *Report) HTML(w io.Writer, opt HTMLOptions) error {
	p := page{Report: r, Live: opt.Live}
	for _, blk := range r.Blocks {
		if blk.Kind == BlockHeader {
			p.Sections = append(p.Sections, section{Title: blk.Text})
			continue
		}
		if len(p.Sections) == 0 {
			p.Lead = append(p.Lead, blk)
			continue
		}
		last := &p.Sections[len(p.Sections)-1]
		last.Blocks = append(last.Blocks, blk)
	}
	tmpl, err := template.New("page").Funcs(template.FuncMap{
		"chartSrc": func(id string) template.URL {
			if opt.ChartURL == nil {
				return ""
			}
			return template.URL(opt.ChartURL(id))
		},
	}).Parse(pageTemplate)
	if err != nil {
		return fmt.Errorf("parse template: %w", err)
	}
	if err := tmpl.Execute(w, p); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

// DataURI renders a chart to an inline PNG data URI.
func DataURI(s chart.Spec) (string, error) {
	png, err := chart.RenderPNG(s)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// StandaloneChartURL renders every chart of r up front and returns a ChartURL
// that inlines them. Charts that fail to render are left without a source.
func StandaloneChartURL(r *Report) (ChartURL, error) {
	uris := map[string]string{}
	var firstErr error
	for _, blk := range r.Charts() {
		uri, err := DataURI(*blk.Chart)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("chart %s: %w", blk.ID, err)
			}
			continue
		}
		uris[blk.ID] = uri
	}
	return func(id string) string { return uris[id] }, firstErr
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body{font-family:-apple-system,Segoe UI,Roboto,sans-serif;margin:0 auto;max-width:1040px;padding:24px;color:#222}
h1{margin-top:8px}
details{border:1px solid #ddd;border-radius:6px;margin:16px 0;padding:8px 16px}
summary{font-size:1.3em;font-weight:600;cursor:pointer}
table{border-collapse:collapse;margin:8px 0 16px}
th,td{border:1px solid #ccc;padding:4px 10px;text-align:left}
th{background:#f4f6f8}
.notice{background:#fff6e0;border-left:4px solid #f0a500;padding:8px 12px;margin:8px 0}
.meta{color:#777;font-size:.85em}
img{max-width:100%}
button{padding:6px 14px;cursor:pointer}
</style>
</head>
<body>
{{define "block"}}
{{- if eq .Kind "title"}}<h1>{{.Text}}</h1>
{{- else if eq .Kind "subheader"}}<h3>{{.Text}}</h3>
{{- else if eq .Kind "text"}}<p>{{.Text}}</p>
{{- else if eq .Kind "notice"}}<div class="notice">{{.Text}}</div>
{{- else if eq .Kind "table"}}<table><thead><tr>{{range .Table.Columns}}<th>{{.}}</th>{{end}}</tr></thead><tbody>{{range .Table.Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>{{end}}</tbody></table>
{{- else if eq .Kind "chart"}}<figure><img alt="{{.Chart.Title}}" src="{{chartSrc .ID}}"><figcaption>{{.Chart.Title}}</figcaption></figure>
{{- end}}
{{end}}
{{range .Lead}}{{template "block" .}}{{end}}
{{range .Sections}}<details open><summary>{{.Title}}</summary>
{{range .Blocks}}{{template "block" .}}{{end}}
</details>
{{end}}
<p class="meta">{{.Source}} · {{.Rows}} rows · run {{.RunID}} · {{.GeneratedAt.Format "2006-01-02 15:04:05 MST"}}</p>
{{if .Live}}<button id="refresh">Refresh</button>
<script>
document.getElementById("refresh").addEventListener("click", function () {
  this.disabled = true;
  fetch("/api/refresh", {method: "POST"}).then(function () { location.reload(); });
});
</script>{{end}}
</body>
</html>
`
