// Package report turns a consultation frame into an ordered call-center
// performance report.
package report

import (
	"time"

	"github.com/KaramelBytes/callscope/internal/analysis"
	"github.com/KaramelBytes/callscope/internal/chart"
	"go.uber.org/zap"
)

// BlockKind is the presentation role of a Block.
type BlockKind string

const (
	BlockTitle     BlockKind = "title"
	BlockHeader    BlockKind = "header"
	BlockSubheader BlockKind = "subheader"
	BlockText      BlockKind = "text"
	BlockTable     BlockKind = "table"
	BlockChart     BlockKind = "chart"
	BlockNotice    BlockKind = "notice"
)

// Table is a rectangular block of rendered cells.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Block is one rendered element of the report, in display order.
type Block struct {
	Kind  BlockKind   `json:"kind"`
	Step  string      `json:"step,omitempty"`
	Text  string      `json:"text,omitempty"`
	Table *Table      `json:"table,omitempty"`
	Chart *chart.Spec `json:"chart,omitempty"`
	// ID identifies chart blocks, e.g. "amount-histogram".
	ID string `json:"id,omitempty"`
}

// Metrics holds the typed result of every step. A nil field means the step was
// skipped or never reached.
type Metrics struct {
	Summary            []analysis.Summary       `json:"summary,omitempty"`
	AmountBins         []analysis.Bin           `json:"amount_bins,omitempty"`
	TalkTimeByActivity []analysis.GroupValue    `json:"talk_time_by_activity,omitempty"`
	TopSource          *string                  `json:"top_source,omitempty"`
	TotalEarnings      *analysis.Float          `json:"total_earnings,omitempty"`
	TotalSpending      *analysis.Float          `json:"total_spending,omitempty"`
	HighestEarner      []analysis.Field         `json:"highest_earner,omitempty"`
	TalkTimeChargeCorr *analysis.Float          `json:"talk_time_charge_corr,omitempty"`
	AvgConnectionSec   *analysis.Float          `json:"avg_connection_sec,omitempty"`
	TopDisconnectedBy  *string                  `json:"top_disconnected_by,omitempty"`
	AvgDisconnectSec   *analysis.Float          `json:"avg_disconnection_sec,omitempty"`
	HangUpPatterns     []analysis.CategoryCount `json:"hang_up_patterns,omitempty"`
	CallStatus         []analysis.CategoryCount `json:"call_status,omitempty"`
	OrderStatus        []analysis.CategoryCount `json:"order_status,omitempty"`
	RefundTotal        *analysis.Float          `json:"refund_total,omitempty"`
	RefundStatus       []analysis.CategoryCount `json:"refund_status,omitempty"`
	DailyCharges       []analysis.Point         `json:"daily_charges,omitempty"`
	ScatterPoints      *int                     `json:"scatter_points,omitempty"`
}

// Report is the outcome of one Build.
type Report struct {
	RunID       string    `json:"run_id"`
	Title       string    `json:"title"`
	Intro       string    `json:"intro"`
	Source      string    `json:"source"`
	Rows        int       `json:"rows"`
	Columns     []string  `json:"columns"`
	Blocks      []Block   `json:"blocks"`
	Metrics     Metrics   `json:"metrics"`
	Skipped     []string  `json:"skipped,omitempty"`
	Failure     string    `json:"failure,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Charts returns the chart blocks of r in display order.
func (r *Report) Charts() []Block {
	var out []Block
	for _, b := range r.Blocks {
		if b.Kind == BlockChart && b.Chart != nil {
			out = append(out, b)
		}
	}
	return out
}

// Chart looks up a chart spec by block id.
func (r *Report) Chart(id string) (chart.Spec, bool) {
	for _, b := range r.Blocks {
		if b.Kind == BlockChart && b.ID == id && b.Chart != nil {
			return *b.Chart, true
		}
	}
	return chart.Spec{}, false
}

// Options configure Build.
type Options struct {
	Title  string
	Intro  string
	Bins   int
	Logger *zap.SugaredLogger
}

// Default report wording.
const (
	DefaultTitle = "Call Center Performance Analysis"
	DefaultIntro = "Analysis of call center data from 1 Dec to 3 Jan."
	DefaultBins  = 50
)

// DefaultOptions returns the stock title, intro and histogram resolution.
func DefaultOptions() Options {
	return Options{Title: DefaultTitle, Intro: DefaultIntro, Bins: DefaultBins}
}
