// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/resource-curator/internal/httputil"
	"github.com/pdiddy/resource-curator/pkg/types"
)

// ErrNoAPIKey is returned by providers that need a key and have none.
var ErrNoAPIKey = errors.New("api key not configured")

// TavilyProvider queries the Tavily search API.
type TavilyProvider struct {
	Client *http.Client
	Config types.SearchConfig
}

// NewTavily returns a TavilyProvider with an HTTP client honoring cfg.Timeout.
func NewTavily(cfg types.SearchConfig) *TavilyProvider {
	return &TavilyProvider{
		Client: &http.Client{Timeout: cfg.Timeout},
		Config: cfg,
	}
}

// Name returns the provider identifier.
func (p *TavilyProvider) Name() string { return string(types.ProviderTavily) }

// Search posts the query to the Tavily search endpoint.
func (p *TavilyProvider) Search(ctx context.Context, req Request) ([]types.SearchHit, error) {
	if p.Config.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = 8
	}

	payload, err := json.Marshal(tavilyRequest{
		APIKey:            p.Config.APIKey,
		Query:             req.Query,
		SearchDepth:       "basic",
		IncludeAnswer:     false,
		IncludeRawContent: true,
		MaxResults:        maxResults,
		IncludeDomains:    req.IncludeDomains,
		ExcludeDomains:    req.ExcludeDomains,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding Tavily request: %w", err)
	}

	endpoint := strings.TrimRight(p.Config.BaseURL, "/") + "/search"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.Config.UserAgent != "" {
		httpReq.Header.Set("User-Agent", p.Config.UserAgent)
	}

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, httpReq, p.Config.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("Tavily API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("Tavily API returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var tr tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("parsing Tavily response: %w", err)
	}

	hits := make([]types.SearchHit, 0, len(tr.Results))
	for _, r := range tr.Results {
		content := r.Content
		if content == "" {
			content = r.RawContent
		}
		hits = append(hits, types.SearchHit{
			Title:          r.Title,
			URL:            r.URL,
			RawContent:     content,
			RelevanceScore: r.Score,
		})
	}
	return hits, nil
}

// Tavily API JSON structures.
type tavilyRequest struct {
	APIKey            string   `json:"api_key"`
	Query             string   `json:"query"`
	SearchDepth       string   `json:"search_depth"`
	IncludeAnswer     bool     `json:"include_answer"`
	IncludeRawContent bool     `json:"include_raw_content"`
	MaxResults        int      `json:"max_results"`
	IncludeDomains    []string `json:"include_domains,omitempty"`
	ExcludeDomains    []string `json:"exclude_domains,omitempty"`
}

type tavilyResponse struct {
	Query   string         `json:"query"`
	Results []tavilyResult `json:"results"`
}

type tavilyResult struct {
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Content    string  `json:"content"`
	RawContent string  `json:"raw_content"`
	Score      float64 `json:"score"`
}
