// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/resource-curator/internal/httputil"
	"github.com/pdiddy/resource-curator/pkg/types"
)

// duckDuckGoBase is the DuckDuckGo HTML endpoint. Declared as a var so
// tests can substitute an httptest server.
var duckDuckGoBase = "https://html.duckduckgo.com/html/"

const (
	duckDuckGoMaxResults = 5
	duckDuckGoSnippetCap = 500
)

// DuckDuckGoProvider scrapes the DuckDuckGo HTML results page. It needs no
// API key and serves as the fallback when Tavily is unavailable. Domain
// filters are not supported by the endpoint and are ignored.
type DuckDuckGoProvider struct {
	Client *http.Client
	Config types.SearchConfig
}

// NewDuckDuckGo returns a DuckDuckGoProvider with an HTTP client honoring cfg.Timeout.
func NewDuckDuckGo(cfg types.SearchConfig) *DuckDuckGoProvider {
	return &DuckDuckGoProvider{
		Client: &http.Client{Timeout: cfg.Timeout},
		Config: cfg,
	}
}

// Name returns the provider identifier.
func (p *DuckDuckGoProvider) Name() string { return string(types.ProviderDuckDuckGo) }

// Search fetches the results page for req.Query and parses up to five
// results. Scores are position-based: 1.0 for the first result, dropping
// by 0.1 per rank.
func (p *DuckDuckGoProvider) Search(ctx context.Context, req Request) ([]types.SearchHit, error) {
	reqURL := duckDuckGoBase + "?" + url.Values{"q": {req.Query}}.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if p.Config.UserAgent != "" {
		httpReq.Header.Set("User-Agent", p.Config.UserAgent)
	}

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, httpReq, p.Config.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("DuckDuckGo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("DuckDuckGo returned HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing DuckDuckGo page: %w", err)
	}

	limit := duckDuckGoMaxResults
	if req.MaxResults > 0 && req.MaxResults < limit {
		limit = req.MaxResults
	}

	var hits []types.SearchHit
	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		link := s.Find("a.result__a").First()
		href, _ := link.Attr("href")
		title := strings.TrimSpace(link.Text())
		if title == "" || href == "" {
			return true
		}
		hits = append(hits, types.SearchHit{
			Title:          title,
			URL:            resolveDuckDuckGoLink(href),
			RawContent:     types.TruncateRunes(strings.TrimSpace(s.Find(".result__snippet").Text()), duckDuckGoSnippetCap),
			RelevanceScore: 1.0 - float64(len(hits))*0.1,
		})
		return len(hits) < limit
	})
	return hits, nil
}

// resolveDuckDuckGoLink unwraps DuckDuckGo's redirect links
// (//duckduckgo.com/l/?uddg=<target>) to the target URL.
func resolveDuckDuckGoLink(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme == "" && strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	return href
}
