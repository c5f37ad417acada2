// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/resource-curator/pkg/types"
)

// --- mock provider ---

type mockProvider struct {
	name string
	hits []types.SearchHit
	err  error
	got  []Request
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) Search(_ context.Context, req Request) ([]types.SearchHit, error) {
	m.got = append(m.got, req)
	return m.hits, m.err
}

func testCfg() types.SearchConfig {
	cfg := types.DefaultConfig().Search
	cfg.Timeout = 5 * time.Second
	cfg.UserAgent = "test/0.1"
	cfg.Fallback = ""
	return cfg
}

// --- Gateway ---

func TestGatewayQualifiesQuery(t *testing.T) {
	p := &mockProvider{name: "mock"}
	g := NewGateway(p, nil, testCfg())

	_, err := g.Search(context.Background(), "  water cycle ")
	require.NoError(t, err)
	require.Len(t, p.got, 1)

	req := p.got[0]
	if req.Query != "water cycle 教学 教案 课程" {
		t.Errorf("Query = %q", req.Query)
	}
	if req.MaxResults != 8 {
		t.Errorf("MaxResults = %d, want 8", req.MaxResults)
	}
	assert.Contains(t, req.IncludeDomains, "edu.cn")
	assert.Contains(t, req.ExcludeDomains, "github.com")
}

func TestGatewayDropsTechnicalHits(t *testing.T) {
	p := &mockProvider{name: "mock", hits: []types.SearchHit{
		{Title: "Loops", URL: "https://a.example/1", RawContent: "function foo() { return 1; }", RelevanceScore: 0.99},
		{Title: "GitHub - lesson plans", URL: "https://a.example/2", RawContent: "Students learn evaporation.", RelevanceScore: 0.9},
		{Title: "Water cycle lesson", URL: "https://a.example/3", RawContent: "Students learn evaporation.", RelevanceScore: 0.5},
	}}
	g := NewGateway(p, nil, testCfg())

	hits, err := g.Search(context.Background(), "water cycle")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "https://a.example/3", hits[0].URL)
}

func TestGatewayRanksTruncatesAndCaps(t *testing.T) {
	long := strings.Repeat("学", 900)
	var raw []types.SearchHit
	for i, score := range []float64{0.2, 0.9, 0.5, 0.9, 0.1, 0.7, 0.3} {
		raw = append(raw, types.SearchHit{
			Title:          fmt.Sprintf("Lesson %d", i),
			URL:            fmt.Sprintf("https://a.example/%d", i),
			RawContent:     long,
			RelevanceScore: score,
		})
	}
	g := NewGateway(&mockProvider{name: "mock", hits: raw}, nil, testCfg())

	hits, err := g.Search(context.Background(), "古诗")
	require.NoError(t, err)
	require.Len(t, hits, 5)

	var titles []string
	for i, h := range hits {
		titles = append(titles, h.Title)
		assert.Equal(t, 800, utf8.RuneCountInString(h.RawContent))
		if i > 0 {
			assert.GreaterOrEqual(t, hits[i-1].RelevanceScore, h.RelevanceScore)
		}
	}
	// Equal scores keep provider order.
	assert.Equal(t, []string{"Lesson 1", "Lesson 3", "Lesson 5", "Lesson 2", "Lesson 6"}, titles)
}

func TestGatewayProviderFailure(t *testing.T) {
	g := NewGateway(&mockProvider{name: "mock", err: errors.New("connection refused")}, nil, testCfg())

	hits, err := g.Search(context.Background(), "water cycle")
	require.Error(t, err)
	assert.Nil(t, hits)
	assert.Equal(t, types.ReasonProviderUnavailable, types.ReasonOf(err))
	assert.ErrorIs(t, err, types.ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestGatewayRejectsEmptyQuery(t *testing.T) {
	p := &mockProvider{name: "mock"}
	_, err := NewGateway(p, nil, testCfg()).Search(context.Background(), "   ")
	assert.Equal(t, types.ReasonValidation, types.ReasonOf(err))
	assert.Empty(t, p.got)
}

func TestGatewayNilProvider(t *testing.T) {
	_, err := NewGateway(nil, nil, testCfg()).Search(context.Background(), "x")
	assert.Equal(t, types.ReasonProviderUnavailable, types.ReasonOf(err))
}

// --- Deduplication ---

func TestDeduplicateByURL(t *testing.T) {
	hits := []types.SearchHit{
		{URL: "https://a.example/x", RelevanceScore: 0.4},
		{URL: "https://A.example/x/", RelevanceScore: 0.8},
		{URL: "https://a.example/y", RelevanceScore: 0.5},
		{URL: "", RelevanceScore: 0.1},
		{URL: "", RelevanceScore: 0.2},
	}

	deduped, removed := deduplicate(hits)
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if len(deduped) != 4 {
		t.Fatalf("len(deduped) = %d, want 4", len(deduped))
	}
	if deduped[0].RelevanceScore != 0.8 {
		t.Errorf("merged score = %f, want 0.8", deduped[0].RelevanceScore)
	}
}

// --- Tavily ---

func TestTavilySearch(t *testing.T) {
	var got tavilyRequest
	var method, path string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"query":"q","results":[
			{"title":"Water cycle","url":"https://a.edu.cn/1","content":"Students learn evaporation.","score":0.8},
			{"title":"Rain","url":"https://a.edu.cn/2","content":"","raw_content":"Raw body text.","score":0.6}
		]}`)
	}))
	defer ts.Close()

	cfg := testCfg()
	cfg.BaseURL = ts.URL
	cfg.APIKey = "tvly-test"
	p := NewTavily(cfg)
	p.Client = ts.Client()

	hits, err := p.Search(context.Background(), Request{
		Query:          "water cycle 教学",
		MaxResults:     8,
		IncludeDomains: []string{"edu.cn"},
		ExcludeDomains: []string{"github.com"},
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "/search", path)
	assert.Equal(t, "tvly-test", got.APIKey)
	assert.Equal(t, "water cycle 教学", got.Query)
	assert.Equal(t, "basic", got.SearchDepth)
	assert.True(t, got.IncludeRawContent)
	assert.Equal(t, 8, got.MaxResults)
	assert.Equal(t, []string{"edu.cn"}, got.IncludeDomains)
	assert.Equal(t, []string{"github.com"}, got.ExcludeDomains)

	require.Len(t, hits, 2)
	assert.Equal(t, types.SearchHit{Title: "Water cycle", URL: "https://a.edu.cn/1", RawContent: "Students learn evaporation.", RelevanceScore: 0.8}, hits[0])
	assert.Equal(t, "Raw body text.", hits[1].RawContent)
}

func TestTavilyMissingKey(t *testing.T) {
	p := NewTavily(testCfg())
	_, err := p.Search(context.Background(), Request{Query: "x"})
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestTavilyHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	}))
	defer ts.Close()

	cfg := testCfg()
	cfg.BaseURL = ts.URL
	cfg.APIKey = "bad"
	p := NewTavily(cfg)
	p.Client = ts.Client()

	_, err := p.Search(context.Background(), Request{Query: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 401")
	assert.Contains(t, err.Error(), "invalid api key")
}

// --- DuckDuckGo ---

const duckDuckGoPage = `<html><body>
<div class="result"><h2><a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fa.edu.cn%2Fwater&rut=x">Water cycle lesson</a></h2>
<a class="result__snippet">Students learn evaporation and condensation.</a></div>
<div class="result"><h2><a class="result__a" href="https://b.example/rain">Rain unit</a></h2>
<a class="result__snippet">Pupils measure rainfall.</a></div>
<div class="result"><h2><a class="result__a" href="">No link</a></h2></div>
</body></html>`

func TestDuckDuckGoSearch(t *testing.T) {
	var query string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, duckDuckGoPage)
	}))
	defer ts.Close()

	old := duckDuckGoBase
	duckDuckGoBase = ts.URL + "/html/"
	defer func() { duckDuckGoBase = old }()

	p := NewDuckDuckGo(testCfg())
	p.Client = ts.Client()

	hits, err := p.Search(context.Background(), Request{Query: "water cycle"})
	require.NoError(t, err)

	assert.Equal(t, "water cycle", query)
	require.Len(t, hits, 2)
	assert.Equal(t, "https://a.edu.cn/water", hits[0].URL)
	assert.Equal(t, "Water cycle lesson", hits[0].Title)
	assert.Equal(t, "Students learn evaporation and condensation.", hits[0].RawContent)
	assert.InDelta(t, 1.0, hits[0].RelevanceScore, 1e-9)
	assert.InDelta(t, 0.9, hits[1].RelevanceScore, 1e-9)
}

func TestResolveDuckDuckGoLink(t *testing.T) {
	tests := []struct {
		href, want string
	}{
		{"//duckduckgo.com/l/?uddg=https%3A%2F%2Fx.org%2Fa", "https://x.org/a"},
		{"https://x.org/b", "https://x.org/b"},
		{"//x.org/c", "https://x.org/c"},
	}
	for _, tt := range tests {
		if got := resolveDuckDuckGoLink(tt.href); got != tt.want {
			t.Errorf("resolveDuckDuckGoLink(%q) = %q, want %q", tt.href, got, tt.want)
		}
	}
}

// --- Fallback ---

func TestFallback(t *testing.T) {
	bad := &mockProvider{name: "bad", err: errors.New("down")}
	good := &mockProvider{name: "good", hits: []types.SearchHit{{Title: "ok"}}}

	f := Fallback{bad, good}
	assert.Equal(t, "bad+good", f.Name())

	hits, err := f.Search(context.Background(), Request{Query: "q"})
	require.NoError(t, err)
	assert.Len(t, hits, 1)
	assert.Len(t, bad.got, 1)
	assert.Len(t, good.got, 1)

	_, err = Fallback{bad, bad}.Search(context.Background(), Request{Query: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all providers failed")
}

// --- Hit files ---

func TestHitFileProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hits", "water.yaml")
	hits := []types.SearchHit{
		{Title: "A", URL: "https://a.example", RawContent: "alpha", RelevanceScore: 0.9},
		{Title: "B", URL: "https://b.example", RawContent: "beta", RelevanceScore: 0.4},
	}
	require.NoError(t, WriteHitFile(path, "water cycle", "tavily", hits))

	hf, err := ReadHitFile(path)
	require.NoError(t, err)
	assert.Equal(t, "water cycle", hf.Query)
	assert.Equal(t, 2, hf.Summary.Total)
	assert.Equal(t, hits, hf.Hits)

	p := &FileProvider{Path: path}
	got, err := p.Search(context.Background(), Request{MaxResults: 1})
	require.NoError(t, err)
	assert.Equal(t, hits[:1], got)

	_, err = (&FileProvider{}).Search(context.Background(), Request{})
	assert.Error(t, err)
}

func TestNewProvider(t *testing.T) {
	cfg := testCfg()

	p, err := NewProvider(cfg)
	require.NoError(t, err)
	assert.Equal(t, "tavily", p.Name())

	cfg.Fallback = types.ProviderDuckDuckGo
	p, err = NewProvider(cfg)
	require.NoError(t, err)
	assert.Equal(t, "tavily+duckduckgo", p.Name())

	cfg.Provider = types.ProviderFile
	cfg.Fallback = ""
	p, err = NewProvider(cfg)
	require.NoError(t, err)
	assert.Equal(t, "file", p.Name())

	cfg.Provider = "bing"
	_, err = NewProvider(cfg)
	assert.Error(t, err)
}
