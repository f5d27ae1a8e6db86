package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `gid,guruName,amount,astrologersEarnings,timeDuration,consultationType,source,dialTime,connectTime,unconnectTime,disconnectedBy,astrologerCallStatus,orderStatus,refundStatus,createdAt
u1,Asha,10,4,5,chat,app,2023-12-01 10:00:00,2023-12-01 10:00:10,2023-12-01 10:05:10,user,completed,paid,none,2023-12-01 10:00:00
u2,Ravi,20,9,10,call,web,2023-12-01 11:00:00,2023-12-01 11:00:30,2023-12-01 11:10:30,guru,completed,paid,refunded,2023-12-01 18:00:00
u3,Mira,30,7,15,call,web,2023-12-02 09:00:00,2023-12-02 09:00:20,2023-12-02 09:15:20,user,missed,cancelled,none,2023-12-02 09:00:00
`

// runCmd executes the root command with args against a fresh flag state and
// returns what the command printed.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgFile, debug, logFile = "", false, ""
	cfg, log = nil, nil
	repOutputPath, serveAddr = "", ""
	srcDelimiter, srcSheet, srcTable, srcBins = "", "", "", 0
	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(func(fl *pflag.Flag) { fl.Changed = false })
	}

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	data := filepath.Join(home, "calls.csv")
	require.NoError(t, os.WriteFile(data, []byte(sampleCSV), 0o644))
	return data
}

func TestCLI_ReportMarkdownToStdout(t *testing.T) {
	data := setupHome(t)
	out, err := runCmd(t, "report", data)
	require.NoError(t, err)
	assert.Contains(t, out, "# Call Center Performance Analysis")
	assert.Contains(t, out, "The most common source of calls is: web")
	assert.Contains(t, out, "Total earnings for users: 60")
	assert.Contains(t, out, "_[chart:")
}

func TestCLI_ReportMarkdownWritesCharts(t *testing.T) {
	data := setupHome(t)
	outPath := filepath.Join(filepath.Dir(data), "out", "report.md")
	out, err := runCmd(t, "report", data, "-o", outPath, "--bins", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Wrote report to")

	md, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(md), "](report_charts/amount-histogram.png)")
	for _, id := range []string{"amount-histogram", "daily-charges", "talk-time-vs-spend"} {
		png, err := os.ReadFile(filepath.Join(filepath.Dir(outPath), "report_charts", id+".png"))
		require.NoError(t, err, id)
		assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")), id)
	}
}

func TestCLI_ReportJSON(t *testing.T) {
	data := setupHome(t)
	outPath := filepath.Join(filepath.Dir(data), "report.json")
	_, err := runCmd(t, "report", data, "-o", outPath, "--bins", "4")
	require.NoError(t, err)

	b, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var doc struct {
		Rows    int `json:"rows"`
		Metrics struct {
			AmountBins []json.RawMessage `json:"amount_bins"`
		} `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(b, &doc))
	assert.Equal(t, 3, doc.Rows)
	assert.Len(t, doc.Metrics.AmountBins, 4)
}

func TestCLI_ReportHTML(t *testing.T) {
	data := setupHome(t)
	outPath := filepath.Join(filepath.Dir(data), "report.html")
	_, err := runCmd(t, "report", data, "-o", outPath)
	require.NoError(t, err)
	b, err := os.ReadFile(outPath)
	require.NoError(t, err)
	page := string(b)
	assert.Contains(t, page, "<html")
	assert.Contains(t, page, "data:image/png;base64,")
}

func TestCLI_ReportFallsBackToConfiguredDataFile(t *testing.T) {
	data := setupHome(t)
	_, err := runCmd(t, "config", "set", "data_file", data)
	require.NoError(t, err)
	out, err := runCmd(t, "report")
	require.NoError(t, err)
	assert.Contains(t, out, "Total spending for masters: 20")
}

func TestCLI_ReportMissingFile(t *testing.T) {
	data := setupHome(t)
	_, err := runCmd(t, "report", filepath.Join(filepath.Dir(data), "nope.csv"))
	require.Error(t, err)
}

func TestCLI_ServeMissingFile(t *testing.T) {
	data := setupHome(t)
	out, err := runCmd(t, "serve", filepath.Join(filepath.Dir(data), "nope.csv"), "--addr", "127.0.0.1:0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load source")
	assert.NotContains(t, out, "Serving")
}

func TestCLI_ReportStopsOnMalformedTimestamp(t *testing.T) {
	data := setupHome(t)
	bad := strings.Replace(sampleCSV, "2023-12-01 10:00:10", "yesterday-ish", 1)
	require.NoError(t, os.WriteFile(data, []byte(bad), 0o644))
	outPath := filepath.Join(filepath.Dir(data), "partial.md")
	_, err := runCmd(t, "report", data, "-o", outPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build report")

	md, readErr := os.ReadFile(outPath)
	require.NoError(t, readErr)
	assert.Contains(t, string(md), "Report stopped at")
}

func TestCLI_Inspect(t *testing.T) {
	data := setupHome(t)
	out, err := runCmd(t, "inspect", data)
	require.NoError(t, err)
	assert.Contains(t, out, "3 rows, 15 columns")
	assert.Contains(t, out, "COLUMN")
	assert.Regexp(t, `amount\s+numeric`, out)
	assert.Regexp(t, `dialTime\s+datetime`, out)
}

func TestCLI_ConfigSetAndShow(t *testing.T) {
	setupHome(t)
	_, err := runCmd(t, "config", "set", "histogram_bins", "12")
	require.NoError(t, err)
	out, err := runCmd(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "histogram_bins: 12")

	_, err = runCmd(t, "config", "set", "nonsense", "1")
	require.Error(t, err)
}
