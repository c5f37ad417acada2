// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries an external web-search provider and returns
// ranked, de-noised hits biased toward teaching content.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/resource-curator/internal/clean"
	"github.com/pdiddy/resource-curator/internal/logger"
	"github.com/pdiddy/resource-curator/internal/metrics"
	"github.com/pdiddy/resource-curator/pkg/types"
)

// Provider searches a single web-search service. Implementations return
// hits in the provider's own order; the Gateway filters and ranks them.
type Provider interface {
	Name() string
	Search(ctx context.Context, req Request) ([]types.SearchHit, error)
}

// Request is what the Gateway asks a Provider for.
type Request struct {
	Query          string
	MaxResults     int
	IncludeDomains []string
	ExcludeDomains []string
}

// Gateway wraps a Provider with the query qualifier, the technical-content
// filter, truncation, and ranking.
type Gateway struct {
	provider Provider
	cleaner  *clean.Cleaner
	cfg      types.SearchConfig
}

// NewGateway returns a Gateway over p. A nil cleaner uses clean.Default.
func NewGateway(p Provider, cleaner *clean.Cleaner, cfg types.SearchConfig) *Gateway {
	if cleaner == nil {
		cleaner = clean.Default()
	}
	return &Gateway{provider: p, cleaner: cleaner, cfg: cfg}
}

// Search sends query plus the configured qualifier to the provider, drops
// duplicate URLs and hits that look like programming material, truncates
// each hit's content, and returns at most KeepTop hits ordered by
// descending relevance score. Ties keep provider order.
//
// Provider failures come back as a *types.Error with reason
// provider_unavailable; callers decide whether to degrade.
func (g *Gateway) Search(ctx context.Context, query string) ([]types.SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, types.NewError(types.ReasonValidation, "query is empty", nil)
	}
	if g.provider == nil {
		return nil, types.ProviderError("search", fmt.Errorf("no search provider configured"))
	}

	log := logger.FromContext(ctx).With(zap.String("provider", g.provider.Name()))

	req := Request{
		Query:          qualify(query, g.cfg.Qualifier),
		MaxResults:     g.cfg.MaxResults,
		IncludeDomains: g.cfg.IncludeDomains,
		ExcludeDomains: g.cfg.ExcludeDomains,
	}
	raw, err := g.provider.Search(ctx, req)
	metrics.ObserveProvider(g.provider.Name(), err)
	if err != nil {
		log.Warn("search provider failed", zap.Error(err))
		return nil, types.ProviderError(g.provider.Name(), err)
	}

	hits, dups := deduplicate(raw)
	kept := make([]types.SearchHit, 0, len(hits))
	for _, h := range hits {
		if g.cleaner.IsTechnical(h.Title, h.RawContent) {
			log.Debug("dropping technical hit", zap.String("url", h.URL))
			continue
		}
		if g.cfg.ContentCap > 0 {
			h.RawContent = types.TruncateRunes(h.RawContent, g.cfg.ContentCap)
		}
		kept = append(kept, h)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].RelevanceScore > kept[j].RelevanceScore
	})
	if g.cfg.KeepTop > 0 && len(kept) > g.cfg.KeepTop {
		kept = kept[:g.cfg.KeepTop]
	}

	log.Info("search complete",
		zap.Int("raw", len(raw)),
		zap.Int("duplicates", dups),
		zap.Int("kept", len(kept)))
	return kept, nil
}

func qualify(query, qualifier string) string {
	qualifier = strings.TrimSpace(qualifier)
	if qualifier == "" {
		return query
	}
	return query + " " + qualifier
}

// deduplicate drops hits whose URL was already seen, keeping the first
// occurrence and raising its score to the highest duplicate's.
func deduplicate(hits []types.SearchHit) ([]types.SearchHit, int) {
	seen := make(map[string]int)
	out := make([]types.SearchHit, 0, len(hits))
	removed := 0
	for _, h := range hits {
		key := strings.TrimRight(strings.ToLower(strings.TrimSpace(h.URL)), "/")
		if key == "" {
			out = append(out, h)
			continue
		}
		if idx, ok := seen[key]; ok {
			if h.RelevanceScore > out[idx].RelevanceScore {
				out[idx].RelevanceScore = h.RelevanceScore
			}
			removed++
			continue
		}
		seen[key] = len(out)
		out = append(out, h)
	}
	return out, removed
}

// Fallback tries each provider in order and returns the first success.
// When every provider fails the errors are joined.
type Fallback []Provider

// Name joins the provider names.
func (f Fallback) Name() string {
	names := make([]string, len(f))
	for i, p := range f {
		names[i] = p.Name()
	}
	return strings.Join(names, "+")
}

// Search implements Provider.
func (f Fallback) Search(ctx context.Context, req Request) ([]types.SearchHit, error) {
	var errs []string
	for _, p := range f {
		hits, err := p.Search(ctx, req)
		if err == nil {
			return hits, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.FromContext(ctx).Warn("provider failed, trying next",
			zap.String("provider", p.Name()), zap.Error(err))
		errs = append(errs, fmt.Sprintf("%s: %v", p.Name(), err))
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("no providers")
	}
	return nil, fmt.Errorf("all providers failed: %s", strings.Join(errs, "; "))
}

// FormatTable writes hits as a human-readable table to w.
func FormatTable(hits []types.SearchHit, w io.Writer) {
	if len(hits) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-50s  %-6s  %s\n", "Rank", "Title", "Score", "URL")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for i, h := range hits {
		title := h.Title
		if len([]rune(title)) > 50 {
			title = types.TruncateRunes(title, 47) + "..."
		}
		fmt.Fprintf(w, "%-4d  %-50s  %-6.2f  %s\n", i+1, title, h.RelevanceScore, h.URL)
	}
	fmt.Fprintf(w, "\n%d results\n", len(hits))
}

// FormatJSON writes hits as indented JSON to w.
func FormatJSON(hits []types.SearchHit, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(hits)
}
