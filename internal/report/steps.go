package report

import (
	"math"
	"strconv"

	"github.com/KaramelBytes/callscope/internal/analysis"
	"github.com/KaramelBytes/callscope/internal/chart"
	"github.com/dustin/go-humanize"
)

var highestEarnerFields = []string{"gid", "guruName", "amount", "consultationType", "timeDuration"}

// steps lists the report in display order.
var steps = []step{
	{name: "columns", title: "Column Names", run: columnNames},
	{name: "title", run: titleAndIntro},

	{name: "task1", title: "Task 1: Data Exploration", section: true},
	{name: "summary", title: "Summary Statistics", needs: []string{"amount", "timeDuration"}, run: summaryStatistics},
	{name: "histogram", title: "Histogram of Call Charges", needs: []string{"amount"}, run: chargeHistogram},

	{name: "task2", title: "Task 2: Call Center Performance Metrics", section: true},
	{name: "talk_time", title: "Average TalkTime for Different Call Activities", needs: []string{"consultationType", "timeDuration"}, run: talkTimeByActivity},
	{name: "source", title: "Most Common Source of Calls", needs: []string{"source"}, run: commonSource},
	{name: "totals", title: "Total Earnings and Spending", needs: []string{"amount", "astrologersEarnings"}, run: earningsAndSpending},
	{name: "highest_earner", title: "Highest Earning User", needs: append([]string{"astrologersEarnings"}, highestEarnerFields...), run: highestEarner},
	{name: "correlation", title: "Relationship Between TalkTime and Charge", needs: []string{"timeDuration", "amount"}, run: talkTimeChargeCorr},

	{name: "task3", title: "Task 3: Call Handling Analysis", section: true},
	{name: "connection_time", title: "Average Connection Time",
		guard: []string{"connectTime", "dialTime"}, notice: "connectTime or dialTime column is missing.", run: connectionTime},
	{name: "disconnection", title: "Most Common Reason for Call Disconnection",
		guard: []string{"unconnectTime", "connectTime"}, notice: "unconnectTime or connectTime column is missing.",
		needs: []string{"disconnectedBy"}, run: disconnection},
	{name: "hang_up", title: "HangUpTime Patterns",
		guard: []string{"disconnectedBy"}, notice: "hangUpTime column is missing.", run: counts("disconnectedBy", func(m *Metrics, vc []analysis.CategoryCount) { m.HangUpPatterns = vc })},
	{name: "call_status", title: "Total calls based on astrologerCallStatus",
		guard: []string{"astrologerCallStatus"}, notice: "astrologerCallStatus column is missing.", run: counts("astrologerCallStatus", func(m *Metrics, vc []analysis.CategoryCount) { m.CallStatus = vc })},

	{name: "task4", title: "Task 4: Order and Refund Analysis", section: true},
	{name: "order_status", title: "Order Status Distribution",
		guard: []string{"orderStatus"}, notice: "orderStatus column is missing.", run: counts("orderStatus", func(m *Metrics, vc []analysis.CategoryCount) { m.OrderStatus = vc })},
	{name: "refunds", title: "Total Refund Amount and Refund Status Distribution",
		guard: []string{"amount", "refundStatus"}, notice: "refundAmount or refundStatus column is missing.", run: refunds},

	{name: "task6", title: "Task 6: Additional Visualizations", section: true},
	{name: "trend", title: "Trend in Call Charges Over Time",
		guard: []string{"createdAt"}, notice: "createdAt column is missing.", needs: []string{"amount"}, run: chargeTrend},
	{name: "scatter", title: "Relationship Between TalkTime and UserSpend",
		guard: []string{"timeDuration", "amount"}, notice: "timeDuration or amount column is missing.", run: talkTimeScatter},
}

func num(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return humanize.FtoaWithDigits(v, 4)
}

func money(v float64) string {
	return humanize.CommafWithDigits(v, 2)
}

func ptr[T any](v T) *T { return &v }

func columnNames(b *builder) error {
	t := &Table{Columns: []string{"Column", "Kind", "Non-null", "Missing"}}
	for _, p := range analysis.Profile(b.f) {
		t.Rows = append(t.Rows, []string{p.Name, p.Kind, strconv.Itoa(p.NonNull), strconv.Itoa(p.Missing)})
	}
	b.table(t)
	return nil
}

func titleAndIntro(b *builder) error {
	b.emit(Block{Kind: BlockTitle, Text: b.r.Title})
	b.text("%s", b.r.Intro)
	return nil
}

func summaryStatistics(b *builder) error {
	sums, err := analysis.Describe(b.f, "amount", "timeDuration")
	if err != nil {
		return err
	}
	t := &Table{Columns: []string{""}}
	for _, s := range sums {
		t.Columns = append(t.Columns, s.Column)
	}
	rows := []struct {
		label string
		get   func(analysis.Summary) string
	}{
		{"count", func(s analysis.Summary) string { return strconv.Itoa(s.Count) }},
		{"mean", func(s analysis.Summary) string { return num(float64(s.Mean)) }},
		{"std", func(s analysis.Summary) string { return num(float64(s.Std)) }},
		{"min", func(s analysis.Summary) string { return num(float64(s.Min)) }},
		{"25%", func(s analysis.Summary) string { return num(float64(s.Q25)) }},
		{"50%", func(s analysis.Summary) string { return num(float64(s.Q50)) }},
		{"75%", func(s analysis.Summary) string { return num(float64(s.Q75)) }},
		{"max", func(s analysis.Summary) string { return num(float64(s.Max)) }},
	}
	for _, row := range rows {
		cells := []string{row.label}
		for _, s := range sums {
			cells = append(cells, row.get(s))
		}
		t.Rows = append(t.Rows, cells)
	}
	b.table(t)
	b.r.Metrics.Summary = sums
	return nil
}

func chargeHistogram(b *builder) error {
	amt, err := b.f.Float("amount")
	if err != nil {
		return err
	}
	bins := analysis.Histogram(analysis.Values(amt), b.opt.Bins)
	if len(bins) == 0 {
		b.notice("amount has no values to plot.")
		return nil
	}
	b.r.Metrics.AmountBins = bins
	b.emit(Block{Kind: BlockChart, ID: "amount-histogram", Chart: &chart.Spec{
		Kind:   chart.Histogram,
		Title:  "Distribution of Call Charges",
		XLabel: "Charge Amount",
		YLabel: "Frequency",
		Bins:   bins,
	}})
	return nil
}

func talkTimeByActivity(b *builder) error {
	groups, err := analysis.GroupMean(b.f, "consultationType", "timeDuration")
	if err != nil {
		return err
	}
	t := &Table{Columns: []string{"Activity", "AverageTalkTime"}}
	for _, g := range groups {
		t.Rows = append(t.Rows, []string{g.Key, num(float64(g.Mean))})
	}
	b.table(t)
	b.r.Metrics.TalkTimeByActivity = groups
	return nil
}

func commonSource(b *builder) error {
	src, err := b.f.Series("source")
	if err != nil {
		return err
	}
	mode, err := analysis.Mode(src)
	if err != nil {
		return err
	}
	b.text("The most common source of calls is: %s", mode)
	b.r.Metrics.TopSource = ptr(mode)
	return nil
}

func earningsAndSpending(b *builder) error {
	amt, err := b.f.Float("amount")
	if err != nil {
		return err
	}
	earn, err := b.f.Float("astrologersEarnings")
	if err != nil {
		return err
	}
	users, masters := analysis.Sum(amt), analysis.Sum(earn)
	b.text("Total earnings for users: %s", money(users))
	b.text("Total spending for masters: %s", money(masters))
	b.r.Metrics.TotalEarnings = ptr(analysis.Float(users))
	b.r.Metrics.TotalSpending = ptr(analysis.Float(masters))
	return nil
}

func highestEarner(b *builder) error {
	earn, err := b.f.Float("astrologersEarnings")
	if err != nil {
		return err
	}
	i, err := analysis.IdxMax(earn)
	if err != nil {
		return err
	}
	row, err := b.f.Row(i, highestEarnerFields...)
	if err != nil {
		return err
	}
	t := &Table{Columns: []string{"Field", "Value"}}
	for _, fld := range row {
		t.Rows = append(t.Rows, []string{fld.Name, fld.Value})
	}
	b.table(t)
	b.r.Metrics.HighestEarner = row
	return nil
}

func talkTimeChargeCorr(b *builder) error {
	d, err := b.f.Float("timeDuration")
	if err != nil {
		return err
	}
	a, err := b.f.Float("amount")
	if err != nil {
		return err
	}
	r := analysis.Corr(d, a)
	b.text("The correlation between TalkTime and Charge is: %s", num(r))
	b.r.Metrics.TalkTimeChargeCorr = ptr(analysis.Float(r))
	return nil
}

// durationMean averages end-start in seconds.
func durationMean(f *analysis.Frame, name, end, start string) (float64, error) {
	e, err := f.Time(end)
	if err != nil {
		return 0, err
	}
	s, err := f.Time(start)
	if err != nil {
		return 0, err
	}
	d, err := analysis.Seconds(name, e, s)
	if err != nil {
		return 0, err
	}
	return analysis.Mean(d), nil
}

func connectionTime(b *builder) error {
	avg, err := durationMean(b.f, "connectionTime", "connectTime", "dialTime")
	if err != nil {
		return err
	}
	b.text("The average connection time is: %s seconds", num(avg))
	b.r.Metrics.AvgConnectionSec = ptr(analysis.Float(avg))
	return nil
}

func disconnection(b *builder) error {
	avg, err := durationMean(b.f, "disconnectionTime", "unconnectTime", "connectTime")
	if err != nil {
		return err
	}
	by, err := b.f.Series("disconnectedBy")
	if err != nil {
		return err
	}
	mode, err := analysis.Mode(by)
	if err != nil {
		return err
	}
	b.text("The most common reason for call disconnection is: %s", mode)
	b.text("The average disconnection time is: %s seconds", num(avg))
	b.r.Metrics.TopDisconnectedBy = ptr(mode)
	b.r.Metrics.AvgDisconnectSec = ptr(analysis.Float(avg))
	return nil
}

func countsTable(col string, vc []analysis.CategoryCount) *Table {
	t := &Table{Columns: []string{col, "count"}}
	for _, c := range vc {
		t.Rows = append(t.Rows, []string{c.Value, strconv.Itoa(c.Count)})
	}
	return t
}

// counts builds a frequency-table step over col.
func counts(col string, store func(*Metrics, []analysis.CategoryCount)) func(*builder) error {
	return func(b *builder) error {
		s, err := b.f.Series(col)
		if err != nil {
			return err
		}
		vc := analysis.ValueCounts(s)
		b.table(countsTable(col, vc))
		store(&b.r.Metrics, vc)
		return nil
	}
}

func refunds(b *builder) error {
	amt, err := b.f.Float("amount")
	if err != nil {
		return err
	}
	st, err := b.f.Series("refundStatus")
	if err != nil {
		return err
	}
	total := analysis.Sum(amt)
	vc := analysis.ValueCounts(st)
	b.text("Total refund amount: %s", money(total))
	b.table(countsTable("refundStatus", vc))
	b.r.Metrics.RefundTotal = ptr(analysis.Float(total))
	b.r.Metrics.RefundStatus = vc
	return nil
}

func chargeTrend(b *builder) error {
	indexed, err := b.f.SetIndex("createdAt")
	if err != nil {
		return err
	}
	pts, err := analysis.ResampleDaily(indexed, "amount")
	if err != nil {
		return err
	}
	if len(pts) == 0 {
		b.notice("createdAt has no values to plot.")
		return nil
	}
	spec := &chart.Spec{Kind: chart.Line, Title: "Trend in Call Charges Over Time", XLabel: "Date", YLabel: "Total Charges"}
	for _, p := range pts {
		spec.Times = append(spec.Times, p.Day)
		spec.Y = append(spec.Y, float64(p.Value))
	}
	b.emit(Block{Kind: BlockChart, ID: "daily-charges", Chart: spec})
	b.r.Metrics.DailyCharges = pts
	return nil
}

func talkTimeScatter(b *builder) error {
	d, err := b.f.Float("timeDuration")
	if err != nil {
		return err
	}
	a, err := b.f.Float("amount")
	if err != nil {
		return err
	}
	spec := &chart.Spec{Kind: chart.Scatter, Title: "Relationship between TalkTime and UserSpend", XLabel: "TalkTime", YLabel: "UserSpend"}
	for i := range d.Nums {
		if math.IsNaN(d.Nums[i]) || math.IsNaN(a.Nums[i]) {
			continue
		}
		spec.X = append(spec.X, d.Nums[i])
		spec.Y = append(spec.Y, a.Nums[i])
	}
	b.r.Metrics.ScatterPoints = ptr(len(spec.X))
	if len(spec.X) == 0 {
		b.notice("timeDuration and amount have no paired values to plot.")
		return nil
	}
	b.emit(Block{Kind: BlockChart, ID: "talk-time-vs-spend", Chart: spec})
	return nil
}
