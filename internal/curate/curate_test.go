// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package curate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/resource-curator/pkg/types"
)

// --- fakes ---

type fakeSearcher struct {
	hits  []types.SearchHit
	err   error
	query string
}

func (f *fakeSearcher) Search(_ context.Context, query string) ([]types.SearchHit, error) {
	f.query = query
	return f.hits, f.err
}

type fakeCreator struct {
	failOn map[int]bool // 1-based call numbers that fail
	calls  int
	saved  []types.ResourceRecord
}

func (f *fakeCreator) Create(_ context.Context, rec types.ResourceRecord) (types.ResourceRecord, error) {
	f.calls++
	if f.failOn[f.calls] {
		return types.ResourceRecord{}, errors.New("database is locked")
	}
	rec.ID = int64(len(f.saved) + 1)
	f.saved = append(f.saved, rec)
	return rec, nil
}

type fakeGenerator struct {
	text   string
	err    error
	prompt string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.text, f.err
}

// --- fixtures ---

func goodHit(n string, score float64) types.SearchHit {
	return types.SearchHit{
		Title:          "Water cycle " + n,
		URL:            "https://example.edu/water-" + n,
		RawContent:     "<p>Students learn how evaporation moves water into the air.</p><p>The lesson ends with a short quiz on condensation.</p>",
		RelevanceScore: score,
	}
}

func offTopicHit(score float64) types.SearchHit {
	return types.SearchHit{
		Title:          "Shoe sale",
		URL:            "https://shop.example.com/sale",
		RawContent:     "Buy cheap shoes online today with free shipping and fast delivery options.",
		RelevanceScore: score,
	}
}

func testCfg() types.CurationConfig { return types.DefaultConfig().Curation }

// --- scenarios ---

func TestDirectModeKeepsQualifyingHitsByScore(t *testing.T) {
	searcher := &fakeSearcher{hits: []types.SearchHit{
		goodHit("a", 0.5),
		offTopicHit(0.95),
		goodHit("b", 0.9),
	}}
	creator := &fakeCreator{}
	o := New(searcher, creator, testCfg())

	res, err := o.Curate(context.Background(), Request{Query: "water cycle", Mode: ModeDirect, Page: 1, PageSize: 10})
	require.NoError(t, err)

	assert.Equal(t, "water cycle", searcher.query)
	assert.Equal(t, 2, res.Total)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "https://example.edu/water-b", res.Items[0].SourceURL)
	assert.Equal(t, "https://example.edu/water-a", res.Items[1].SourceURL)
	assert.Equal(t, 2, res.Attempted)
	assert.Equal(t, 2, res.Saved)
	assert.False(t, res.Partial())

	for _, rec := range res.Items {
		assert.Equal(t, types.ResourceGeneric, rec.Type)
		assert.Equal(t, "water cycle", rec.Tags)
		assert.NotContains(t, rec.Content, "<p>")
		assert.Contains(t, rec.Content, "Students learn")
		assert.LessOrEqual(t, len([]rune(rec.Content)), testCfg().DirectFragmentCap)
	}
}

func TestZeroHitsIsEmptySuccess(t *testing.T) {
	creator := &fakeCreator{}
	o := New(&fakeSearcher{}, creator, testCfg())

	res, err := o.Curate(context.Background(), Request{Query: "water cycle", Mode: ModeDirect, Page: 1, PageSize: 7})
	require.NoError(t, err)
	assert.NotNil(t, res.Items)
	assert.Empty(t, res.Items)
	assert.Zero(t, res.Total)
	assert.Equal(t, 1, res.Page.Page)
	assert.Equal(t, 7, res.PageSize)
	assert.Zero(t, res.TotalPages)
	assert.Zero(t, creator.calls)
}

func TestProviderFailureDegrades(t *testing.T) {
	searcher := &fakeSearcher{err: types.ProviderError("tavily", errors.New("api key not configured"))}
	creator := &fakeCreator{}
	o := New(searcher, creator, testCfg())

	for _, mode := range []Mode{ModeDirect, ModeReport} {
		res, err := o.Curate(context.Background(), Request{Query: "water cycle", Mode: mode})
		require.NoError(t, err)
		assert.True(t, res.Degraded)
		assert.Zero(t, res.Total)
		assert.Equal(t, types.DefaultPageSize, res.PageSize)
	}
	assert.Zero(t, creator.calls)
}

func TestNothingQualifiesIsEmptySuccess(t *testing.T) {
	searcher := &fakeSearcher{hits: []types.SearchHit{
		offTopicHit(0.9),
		{Title: "Script", URL: "https://x.example.com", RawContent: "<script>var x = 1;</script>", RelevanceScore: 0.8},
	}}
	creator := &fakeCreator{}
	o := New(searcher, creator, testCfg())

	res, err := o.Curate(context.Background(), Request{Query: "water cycle", Mode: ModeReport})
	require.NoError(t, err)
	assert.Zero(t, res.Total)
	assert.False(t, res.Degraded)
	assert.Zero(t, creator.calls)
}

func TestReportModeSavesOneLessonPlan(t *testing.T) {
	searcher := &fakeSearcher{hits: []types.SearchHit{
		goodHit("low", 0.2),
		goodHit("top", 0.9),
		goodHit("mid", 0.5),
		goodHit("second", 0.7),
	}}
	creator := &fakeCreator{}
	o := New(searcher, creator, testCfg())

	res, err := o.Curate(context.Background(), Request{Query: "water cycle", Mode: ModeReport, Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, 1, creator.calls)
	require.Len(t, res.Items, 1)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, 1, res.Attempted)
	assert.Equal(t, 1, res.Saved)
	assert.False(t, res.Polished)

	rec := res.Items[0]
	assert.Equal(t, types.ResourceLessonPlan, rec.Type)
	assert.Equal(t, "water cycle - 教学资源整理报告", rec.Title)
	assert.Equal(t, "water cycle", rec.Tags)

	urls := strings.Split(rec.SourceURL, ", ")
	assert.Equal(t, []string{
		"https://example.edu/water-top",
		"https://example.edu/water-second",
		"https://example.edu/water-mid",
	}, urls)

	assert.True(t, strings.HasPrefix(rec.Content, "# water cycle - 教学资源整理"))
	assert.Contains(t, rec.Content, "### 资源1: Water cycle top")
	assert.Contains(t, rec.Content, "### 资源3: Water cycle mid")
	assert.NotContains(t, rec.Content, "### 资源4")
	assert.Contains(t, rec.Content, "## 教学建议")
	assert.Contains(t, rec.Content, "4. **资源整合**")
	assert.Contains(t, rec.Content, "- Water cycle low: https://example.edu/water-low")
}

func TestReportReferencesCapped(t *testing.T) {
	var hits []types.SearchHit
	for _, n := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		hits = append(hits, goodHit(n, 0.5))
	}
	creator := &fakeCreator{}
	o := New(&fakeSearcher{hits: hits}, creator, testCfg())

	res, err := o.Curate(context.Background(), Request{Query: "water cycle", Mode: ModeReport})
	require.NoError(t, err)
	refs := strings.Split(res.Items[0].Content, "## 参考资源")
	require.Len(t, refs, 2)
	assert.Equal(t, 5, strings.Count(refs[1], "- Water cycle"))
	assert.NotContains(t, refs[1], "water-f")
}

func TestReportModeRequiresLongerFragments(t *testing.T) {
	short := types.SearchHit{
		Title:          "Rain",
		URL:            "https://example.edu/rain",
		RawContent:     "Students learn about rain clouds today.",
		RelevanceScore: 0.9,
	}

	direct := New(&fakeSearcher{hits: []types.SearchHit{short}}, &fakeCreator{}, testCfg())
	res, err := direct.Curate(context.Background(), Request{Query: "rain", Mode: ModeDirect})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)

	creator := &fakeCreator{}
	report := New(&fakeSearcher{hits: []types.SearchHit{short}}, creator, testCfg())
	res, err = report.Curate(context.Background(), Request{Query: "rain", Mode: ModeReport})
	require.NoError(t, err)
	assert.Zero(t, res.Total)
	assert.Zero(t, creator.calls)
}

func TestReportGeneratorRewrite(t *testing.T) {
	gen := &fakeGenerator{text: "  # Polished water cycle plan\n"}
	creator := &fakeCreator{}
	o := New(&fakeSearcher{hits: []types.SearchHit{goodHit("a", 0.9)}}, creator, testCfg(), WithGenerator(gen))

	res, err := o.Curate(context.Background(), Request{Query: "water cycle", Mode: ModeReport})
	require.NoError(t, err)
	assert.True(t, res.Polished)
	assert.Equal(t, "# Polished water cycle plan", res.Items[0].Content)
	assert.Contains(t, gen.prompt, "water cycle")
	assert.Contains(t, gen.prompt, "## 参考资源")
	assert.Equal(t, "https://example.edu/water-a", res.Items[0].SourceURL)
}

func TestReportGeneratorFailureFallsBack(t *testing.T) {
	for name, gen := range map[string]*fakeGenerator{
		"error": {err: types.ProviderError("openai", errors.New("timeout"))},
		"empty": {text: "   "},
	} {
		t.Run(name, func(t *testing.T) {
			o := New(&fakeSearcher{hits: []types.SearchHit{goodHit("a", 0.9)}}, &fakeCreator{}, testCfg(), WithGenerator(gen))

			res, err := o.Curate(context.Background(), Request{Query: "water cycle", Mode: ModeReport})
			require.NoError(t, err)
			assert.False(t, res.Polished)
			assert.Contains(t, res.Items[0].Content, "## 教学建议")
		})
	}
}

func TestReportSaveFailureIsHard(t *testing.T) {
	creator := &fakeCreator{failOn: map[int]bool{1: true}}
	o := New(&fakeSearcher{hits: []types.SearchHit{goodHit("a", 0.9)}}, creator, testCfg())

	_, err := o.Curate(context.Background(), Request{Query: "water cycle", Mode: ModeReport})
	require.Error(t, err)
	assert.Equal(t, types.ReasonHardFailure, types.ReasonOf(err))
}

func TestDirectModePartialFailure(t *testing.T) {
	searcher := &fakeSearcher{hits: []types.SearchHit{
		goodHit("1", 0.9),
		goodHit("2", 0.8),
		goodHit("3", 0.7),
		goodHit("4", 0.6),
	}}
	creator := &fakeCreator{failOn: map[int]bool{2: true}}
	o := New(searcher, creator, testCfg())

	res, err := o.Curate(context.Background(), Request{Query: "water cycle", Mode: ModeDirect, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Len(t, res.Items, 3)
	assert.Equal(t, 4, res.Attempted)
	assert.Equal(t, 3, res.Saved)
	assert.True(t, res.Partial())
	require.Len(t, res.Failures, 1)
	assert.Equal(t, 2, res.Failures[0].Position)
	assert.Equal(t, "https://example.edu/water-2", res.Failures[0].URL)
	assert.Equal(t, types.ReasonPartialFailure, res.Failures[0].Reason)

	var got []string
	for _, rec := range res.Items {
		got = append(got, rec.SourceURL)
	}
	assert.Equal(t, []string{
		"https://example.edu/water-1",
		"https://example.edu/water-3",
		"https://example.edu/water-4",
	}, got)
}

func TestDirectModePaging(t *testing.T) {
	var hits []types.SearchHit
	for _, n := range []string{"a", "b", "c", "d"} {
		hits = append(hits, goodHit(n, 0.5))
	}
	o := New(&fakeSearcher{hits: hits}, &fakeCreator{}, testCfg())

	res, err := o.Curate(context.Background(), Request{Query: "water cycle", Mode: ModeDirect, Page: 2, PageSize: 3})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Total)
	assert.Equal(t, 4, res.Saved)
	assert.Equal(t, 2, res.TotalPages)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "https://example.edu/water-d", res.Items[0].SourceURL)
}

func TestDirectModeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	creator := &fakeCreator{}
	o := New(&fakeSearcher{hits: []types.SearchHit{goodHit("a", 0.9)}}, creator, testCfg())

	_, err := o.Curate(ctx, Request{Query: "water cycle", Mode: ModeDirect})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, creator.calls)
}

func TestCurateNormalizesMode(t *testing.T) {
	for _, mode := range []Mode{"Report", " report ", "REPORT"} {
		t.Run(string(mode), func(t *testing.T) {
			searcher := &fakeSearcher{hits: []types.SearchHit{goodHit("a", 0.9), goodHit("b", 0.4)}}
			creator := &fakeCreator{}
			o := New(searcher, creator, testCfg())

			res, err := o.Curate(context.Background(), Request{Query: "water cycle", Mode: mode})
			require.NoError(t, err)
			assert.Equal(t, ModeReport, res.Mode)
			require.Equal(t, 1, creator.calls)
			assert.Equal(t, types.ResourceLessonPlan, creator.saved[0].Type)
		})
	}
}

func TestCurateEmptyModeUsesDefault(t *testing.T) {
	creator := &fakeCreator{}
	o := New(&fakeSearcher{hits: []types.SearchHit{goodHit("a", 0.9)}}, creator, testCfg())

	res, err := o.Curate(context.Background(), Request{Query: "water cycle"})
	require.NoError(t, err)
	assert.Equal(t, DefaultMode, res.Mode)
	require.Len(t, creator.saved, 1)
	assert.Equal(t, types.ResourceLessonPlan, creator.saved[0].Type)
}

func TestSearchCancelledIsNotDegraded(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	creator := &fakeCreator{}
	o := New(&fakeSearcher{err: context.Canceled}, creator, testCfg())

	for _, mode := range []Mode{ModeDirect, ModeReport} {
		res, err := o.Curate(ctx, Request{Query: "water cycle", Mode: mode})
		require.Error(t, err, mode)
		assert.True(t, errors.Is(err, context.Canceled), mode)
		assert.False(t, res.Degraded, mode)
	}
	assert.Zero(t, creator.calls)
}

func TestCurateValidation(t *testing.T) {
	o := New(&fakeSearcher{}, &fakeCreator{}, testCfg())

	_, err := o.Curate(context.Background(), Request{Query: "   "})
	assert.Equal(t, types.ReasonValidation, types.ReasonOf(err))

	_, err = o.Curate(context.Background(), Request{Query: "water", Mode: "summary"})
	assert.Equal(t, types.ReasonValidation, types.ReasonOf(err))
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", DefaultMode, false},
		{"direct", ModeDirect, false},
		{" Report ", ModeReport, false},
		{"summary", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}
