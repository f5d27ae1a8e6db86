package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/KaramelBytes/callscope/internal/analysis"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// step is one guarded unit of the report. Columns in guard produce the step's
// own notice wording when absent; columns in needs produce the generic
// "<a or b> column is missing." notice.
type step struct {
	name    string
	title   string
	guard   []string
	notice  string
	needs   []string
	section bool
	run     func(b *builder) error
}

type builder struct {
	f   *analysis.Frame
	r   *Report
	opt Options
	cur string
}

func (b *builder) emit(blk Block) {
	blk.Step = b.cur
	b.r.Blocks = append(b.r.Blocks, blk)
}

func (b *builder) text(format string, args ...any) {
	b.emit(Block{Kind: BlockText, Text: fmt.Sprintf(format, args...)})
}

func (b *builder) table(t *Table) {
	b.emit(Block{Kind: BlockTable, Table: t})
}

func (b *builder) notice(msg string) {
	b.emit(Block{Kind: BlockNotice, Text: msg})
}

// Build runs every step in order against f. Steps whose columns are absent emit
// a notice and are skipped. A conversion failure or an empty lookup stops the
// run: Build then returns the report built so far, carrying a failure notice,
// together with the error.
func Build(f *analysis.Frame, opt Options) (*Report, error) {
	def := DefaultOptions()
	if opt.Title == "" {
		opt.Title = def.Title
	}
	if opt.Intro == "" {
		opt.Intro = def.Intro
	}
	if opt.Bins <= 0 {
		opt.Bins = def.Bins
	}
	log := opt.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	r := &Report{
		RunID:       uuid.NewString(),
		Title:       opt.Title,
		Intro:       opt.Intro,
		Source:      f.Name,
		Rows:        f.Len(),
		Columns:     f.Columns(),
		GeneratedAt: time.Now().UTC(),
	}
	b := &builder{f: f, r: r, opt: opt}
	for _, s := range steps {
		start := time.Now()
		b.cur = s.name
		if s.title != "" {
			kind := BlockSubheader
			if s.section {
				kind = BlockHeader
			}
			b.emit(Block{Kind: kind, Text: s.title})
		}
		if msg, skip := missingNotice(f, s); skip {
			b.notice(msg)
			r.Skipped = append(r.Skipped, s.name)
			log.Debugw("step skipped", "step", s.name, "outcome", "skipped", "missing", f.Missing(append(append([]string{}, s.guard...), s.needs...)...))
			continue
		}
		if s.run == nil {
			continue
		}
		err := s.run(b)
		if err != nil && analysis.IsMissingColumn(err) {
			b.notice(err.Error())
			r.Skipped = append(r.Skipped, s.name)
			log.Debugw("step skipped", "step", s.name, "outcome", "skipped", "error", err)
			continue
		}
		if err != nil {
			r.Failure = fmt.Sprintf("Report stopped at %q: %v", s.name, err)
			b.notice(r.Failure)
			log.Errorw("step failed", "step", s.name, "outcome", "failed", "elapsed", time.Since(start), "error", err)
			return r, fmt.Errorf("step %s: %w", s.name, err)
		}
		log.Debugw("step done", "step", s.name, "outcome", "ok", "elapsed", time.Since(start))
	}
	log.Infow("report built", "run_id", r.RunID, "source", r.Source, "rows", r.Rows, "skipped", len(r.Skipped))
	return r, nil
}

func missingNotice(f *analysis.Frame, s step) (string, bool) {
	if len(s.guard) > 0 && !f.Has(s.guard...) {
		msg := s.notice
		if msg == "" {
			msg = strings.Join(s.guard, " or ") + " column is missing."
		}
		return msg, true
	}
	if len(s.needs) > 0 && !f.Has(s.needs...) {
		return strings.Join(s.needs, " or ") + " column is missing.", true
	}
	return "", false
}
