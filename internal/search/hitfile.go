// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/resource-curator/pkg/types"
)

// HitFile is the on-disk representation of a search and its hits. A saved
// search can be replayed through the curation pipeline without calling
// the provider again. JSON files parse too, since YAML is a superset.
type HitFile struct {
	Query    string            `yaml:"query"`
	Provider string            `yaml:"provider,omitempty"`
	Hits     []types.SearchHit `yaml:"hits"`
	Summary  HitSummary        `yaml:"summary"`
}

// HitSummary stores result statistics and a timestamp.
type HitSummary struct {
	Total     int       `yaml:"total"`
	Timestamp time.Time `yaml:"timestamp"`
}

// WriteHitFile saves query and hits to a YAML file, creating parent
// directories as needed.
func WriteHitFile(path, query, provider string, hits []types.SearchHit) error {
	hf := HitFile{
		Query:    query,
		Provider: provider,
		Hits:     hits,
		Summary: HitSummary{
			Total:     len(hits),
			Timestamp: time.Now().UTC(),
		},
	}

	data, err := yaml.Marshal(&hf)
	if err != nil {
		return fmt.Errorf("marshaling hit file: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating hit file directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadHitFile loads a previously saved hit file from disk.
func ReadHitFile(path string) (*HitFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading hit file: %w", err)
	}
	var hf HitFile
	if err := yaml.Unmarshal(data, &hf); err != nil {
		return nil, fmt.Errorf("parsing hit file: %w", err)
	}
	return &hf, nil
}

// FileProvider serves hits from a saved HitFile. It ignores the query and
// domain filters, which makes it useful for offline runs and tests.
type FileProvider struct {
	Path string
}

// Name returns the provider identifier.
func (p *FileProvider) Name() string { return string(types.ProviderFile) }

// Search returns the file's hits, capped at req.MaxResults when set.
func (p *FileProvider) Search(ctx context.Context, req Request) ([]types.SearchHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.Path == "" {
		return nil, fmt.Errorf("file provider: no path configured")
	}
	hf, err := ReadHitFile(p.Path)
	if err != nil {
		return nil, err
	}
	hits := hf.Hits
	if req.MaxResults > 0 && len(hits) > req.MaxResults {
		hits = hits[:req.MaxResults]
	}
	return hits, nil
}

// NewProvider builds the configured provider, wrapping it with the
// fallback provider when one is configured and differs from the primary.
func NewProvider(cfg types.SearchConfig) (Provider, error) {
	primary, err := newProvider(cfg.Provider, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Fallback == "" || cfg.Fallback == cfg.Provider {
		return primary, nil
	}
	secondary, err := newProvider(cfg.Fallback, cfg)
	if err != nil {
		return nil, err
	}
	return Fallback{primary, secondary}, nil
}

func newProvider(kind types.SearchProviderKind, cfg types.SearchConfig) (Provider, error) {
	switch kind {
	case types.ProviderTavily, "":
		return NewTavily(cfg), nil
	case types.ProviderDuckDuckGo:
		return NewDuckDuckGo(cfg), nil
	case types.ProviderFile:
		return &FileProvider{Path: cfg.File}, nil
	default:
		return nil, fmt.Errorf("unknown search provider %q", kind)
	}
}
