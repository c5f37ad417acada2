// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package curate turns a topic query into stored teaching resources. It
// searches, cleans each hit, keeps the fragments that read as teaching
// material, and saves them either one record per fragment (direct mode) or
// as a single synthesized report (report mode).
package curate

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/pdiddy/resource-curator/internal/clean"
	"github.com/pdiddy/resource-curator/internal/generate"
	"github.com/pdiddy/resource-curator/internal/logger"
	"github.com/pdiddy/resource-curator/internal/metrics"
	"github.com/pdiddy/resource-curator/pkg/types"
)

// Mode selects how surviving fragments are persisted.
type Mode string

const (
	ModeDirect Mode = "direct"
	ModeReport Mode = "report"
)

// DefaultMode is used when a request leaves Mode empty.
const DefaultMode = ModeReport

// ParseMode converts s into a Mode. Empty input yields DefaultMode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return DefaultMode, nil
	case ModeDirect, ModeReport:
		return m, nil
	default:
		return "", types.NewError(types.ReasonValidation, fmt.Sprintf("unknown curation mode %q", s), nil)
	}
}

// State names a step of one curation run.
type State string

const (
	StateSearching    State = "searching"
	StateFiltering    State = "filtering"
	StateSynthesizing State = "synthesizing"
	StateDirect       State = "direct"
	StatePersisting   State = "persisting"
	StateResponding   State = "responding"
	StateSucceeded    State = "succeeded"
	StateFailed       State = "failed"
)

// Searcher returns ranked hits for a topic. *search.Gateway satisfies it.
type Searcher interface {
	Search(ctx context.Context, query string) ([]types.SearchHit, error)
}

// Creator persists one record and returns it with its ID. *store.Store
// satisfies it.
type Creator interface {
	Create(ctx context.Context, rec types.ResourceRecord) (types.ResourceRecord, error)
}

// Request is one curation call.
type Request struct {
	Query    string
	Mode     Mode
	Page     int
	PageSize int
}

// Failure attributes one failed save to the fragment that caused it.
type Failure struct {
	// Position is the 1-based rank of the fragment by score.
	Position int          `json:"position"`
	Title    string       `json:"title"`
	URL      string       `json:"url"`
	Reason   types.Reason `json:"reason"`
	Message  string       `json:"message"`
}

// Result is the outcome of a successful curation run.
type Result struct {
	types.Page[types.ResourceRecord]

	Mode Mode `json:"mode"`

	// Attempted and Saved differ when some direct-mode saves failed.
	Attempted int       `json:"attempted"`
	Saved     int       `json:"saved"`
	Failures  []Failure `json:"failures,omitempty"`

	// Degraded is set when the search provider failed and the run
	// continued with zero hits.
	Degraded bool `json:"degraded,omitempty"`

	// Polished is set when a report was rewritten by the text generator.
	Polished bool `json:"polished,omitempty"`
}

// Partial reports whether fewer records were saved than attempted.
func (r Result) Partial() bool { return r.Saved < r.Attempted }

// Orchestrator runs the curation pipeline. Collaborators are injected at
// construction; an Orchestrator holds no per-request state and is safe for
// concurrent use.
type Orchestrator struct {
	searcher  Searcher
	creator   Creator
	cleaner   *clean.Cleaner
	generator generate.Generator
	report    reportTemplate
	cfg       types.CurationConfig
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithCleaner replaces the default cleaner.
func WithCleaner(c *clean.Cleaner) Option {
	return func(o *Orchestrator) { o.cleaner = c }
}

// WithGenerator enables report polishing through g.
func WithGenerator(g generate.Generator) Option {
	return func(o *Orchestrator) { o.generator = g }
}

// New returns an Orchestrator. Zero-valued fields in cfg take the defaults
// from types.DefaultConfig.
func New(s Searcher, c Creator, cfg types.CurationConfig, opts ...Option) *Orchestrator {
	def := types.DefaultConfig().Curation
	if cfg.DirectFragmentCap <= 0 {
		cfg.DirectFragmentCap = def.DirectFragmentCap
	}
	if cfg.ReportFragmentCap <= 0 {
		cfg.ReportFragmentCap = def.ReportFragmentCap
	}
	if cfg.DirectMinChars <= 0 {
		cfg.DirectMinChars = def.DirectMinChars
	}
	if cfg.ReportMinChars <= 0 {
		cfg.ReportMinChars = def.ReportMinChars
	}
	if cfg.ReportSources <= 0 {
		cfg.ReportSources = def.ReportSources
	}
	if cfg.ReportReferences <= 0 {
		cfg.ReportReferences = def.ReportReferences
	}

	o := &Orchestrator{
		searcher: s,
		creator:  c,
		cleaner:  clean.Default(),
		report:   defaultReport,
		cfg:      cfg,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Curate runs one request to completion. Search failures degrade to an
// empty result. In direct mode individual save failures are recorded in
// Result.Failures and do not fail the call. In report mode a failed save
// returns a persistence_hard_failure error.
func (o *Orchestrator) Curate(ctx context.Context, req Request) (Result, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return Result{}, types.NewError(types.ReasonValidation, "query is empty", nil)
	}
	mode, err := ParseMode(string(req.Mode))
	if err != nil {
		return Result{}, err
	}
	page, pageSize := types.NormalizePaging(req.Page, req.PageSize)

	run := &run{
		o:     o,
		query: query,
		mode:  mode,
		log:   logger.FromContext(ctx).With(zap.String("query", query), zap.String("mode", string(mode))),
		start: time.Now(),
		state: StateSearching,
	}
	res, err := run.execute(ctx, page, pageSize)
	run.finish(err)
	return res, err
}

// run carries the state of one Curate call.
type run struct {
	o     *Orchestrator
	query string
	mode  Mode
	log   *zap.Logger
	start time.Time
	state State
}

func (r *run) enter(s State) {
	r.log.Debug("curation state", zap.String("from", string(r.state)), zap.String("to", string(s)))
	r.state = s
}

func (r *run) finish(err error) {
	final := StateSucceeded
	if err != nil {
		final = StateFailed
	}
	metrics.CurationDuration.WithLabelValues(string(r.mode), string(final)).Observe(time.Since(r.start).Seconds())
	if err != nil {
		r.log.Error("curation failed", zap.String("state", string(r.state)), zap.Error(err))
		return
	}
	r.log.Info("curation complete", zap.Duration("elapsed", time.Since(r.start)))
}

func (r *run) execute(ctx context.Context, page, pageSize int) (Result, error) {
	empty := Result{Page: types.NewPage[types.ResourceRecord](nil, 0, page, pageSize), Mode: r.mode}

	hits, err := r.o.searcher.Search(ctx, r.query)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, fmt.Errorf("curation abandoned during search: %w", ctxErr)
		}
		r.log.Warn("search unavailable, continuing with no hits",
			zap.String("reason", string(types.ReasonOf(err))), zap.Error(err))
		empty.Degraded = true
		return empty, nil
	}
	if len(hits) == 0 {
		return empty, nil
	}

	r.enter(StateFiltering)
	fragments := r.filter(hits)
	r.log.Info("filtered hits", zap.Int("hits", len(hits)), zap.Int("fragments", len(fragments)))
	if len(fragments) == 0 {
		return empty, nil
	}

	if r.mode == ModeReport {
		return r.synthesize(ctx, fragments, page, pageSize)
	}
	return r.direct(ctx, fragments, page, pageSize)
}

// filter cleans every hit and returns the qualifying fragments ordered by
// descending score. Ties keep search order.
func (r *run) filter(hits []types.SearchHit) []types.CuratedFragment {
	c := r.o.cleaner
	limit := r.o.cfg.DirectFragmentCap
	if r.mode == ModeReport {
		limit = r.o.cfg.ReportFragmentCap
	}

	var out []types.CuratedFragment
	for _, h := range hits {
		text := c.Normalize(h.RawContent)
		if text == "" {
			r.reject(h, "unusable content")
			continue
		}
		edu := c.ExtractEducational(text)
		if !c.IsQuality(edu) {
			r.reject(h, "not educational")
			continue
		}
		if !r.longEnough(edu) {
			r.reject(h, "too short")
			continue
		}
		f, err := types.NewCuratedFragment(h, edu, limit)
		if err != nil {
			r.reject(h, err.Error())
			continue
		}
		out = append(out, f)
		metrics.FragmentsTotal.WithLabelValues(string(r.mode), "kept").Inc()
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// longEnough applies the per-mode length gate: direct mode needs at least
// DirectMinChars runes, report mode more than ReportMinChars.
func (r *run) longEnough(text string) bool {
	n := utf8.RuneCountInString(text)
	if r.mode == ModeReport {
		return n > r.o.cfg.ReportMinChars
	}
	return n >= r.o.cfg.DirectMinChars
}

func (r *run) reject(h types.SearchHit, why string) {
	metrics.FragmentsTotal.WithLabelValues(string(r.mode), "rejected").Inc()
	r.log.Debug("rejected hit", zap.String("url", h.URL), zap.String("why", why))
}

// direct saves each fragment as its own record, in score order. A failed
// save is recorded and the batch continues; nothing is rolled back.
func (r *run) direct(ctx context.Context, fragments []types.CuratedFragment, page, pageSize int) (Result, error) {
	r.enter(StateDirect)
	records := make([]types.ResourceRecord, len(fragments))
	for i, f := range fragments {
		title := f.Title
		if strings.TrimSpace(title) == "" {
			title = r.query
		}
		records[i] = types.ResourceRecord{
			Title:     title,
			Type:      types.ResourceGeneric,
			Content:   f.EducationalContent,
			SourceURL: f.URL,
			Tags:      r.query,
		}
	}

	r.enter(StatePersisting)
	res := Result{Mode: r.mode, Attempted: len(records)}
	var saved []types.ResourceRecord
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("curation abandoned after %d of %d saves: %w", len(saved), len(records), err)
		}
		out, err := r.o.creator.Create(ctx, rec)
		if err != nil {
			metrics.FragmentsTotal.WithLabelValues(string(r.mode), "save_failed").Inc()
			r.log.Warn("saving fragment failed", zap.Int("position", i+1), zap.String("url", rec.SourceURL), zap.Error(err))
			res.Failures = append(res.Failures, Failure{
				Position: i + 1,
				Title:    rec.Title,
				URL:      rec.SourceURL,
				Reason:   types.ReasonPartialFailure,
				Message:  err.Error(),
			})
			continue
		}
		metrics.FragmentsTotal.WithLabelValues(string(r.mode), "saved").Inc()
		saved = append(saved, out)
	}

	r.enter(StateResponding)
	res.Saved = len(saved)
	res.Page = pageOf(saved, page, pageSize)
	if res.Partial() {
		r.log.Warn("partial persistence", zap.Int("attempted", res.Attempted), zap.Int("saved", res.Saved))
	}
	return res, nil
}

// synthesize merges the top fragments into one report and saves it. The
// generator, when set, may rewrite the report; any generator failure keeps
// the template text.
func (r *run) synthesize(ctx context.Context, fragments []types.CuratedFragment, page, pageSize int) (Result, error) {
	r.enter(StateSynthesizing)
	rec, polished, err := r.buildReport(ctx, fragments)
	if err != nil {
		return Result{}, types.NewError(types.ReasonInternal, "rendering report", err)
	}

	r.enter(StatePersisting)
	out, err := r.o.creator.Create(ctx, rec)
	if err != nil {
		metrics.FragmentsTotal.WithLabelValues(string(r.mode), "save_failed").Inc()
		return Result{}, types.NewError(types.ReasonHardFailure, "saving report", err)
	}
	metrics.FragmentsTotal.WithLabelValues(string(r.mode), "saved").Inc()

	r.enter(StateResponding)
	return Result{
		Page:      pageOf([]types.ResourceRecord{out}, page, pageSize),
		Mode:      r.mode,
		Attempted: 1,
		Saved:     1,
		Polished:  polished,
	}, nil
}

// pageOf returns the requested page of the records saved by this run.
// Total counts every saved record.
func pageOf(saved []types.ResourceRecord, page, pageSize int) types.Page[types.ResourceRecord] {
	start := types.Offset(page, pageSize)
	var items []types.ResourceRecord
	if start < len(saved) {
		end := min(start+pageSize, len(saved))
		items = saved[start:end]
	}
	return types.NewPage(items, len(saved), page, pageSize)
}
