// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/resource-curator/pkg/types"
)

const exportPageSize = 500

// ExportFormat selects the export file encoding.
type ExportFormat string

const (
	ExportYAML ExportFormat = "yaml"
	ExportJSON ExportFormat = "json"
)

// Export writes every resource matching opts to dir/resources.yaml or
// dir/resources.json and returns the file path. Paging fields in opts are
// ignored.
func (s *Store) Export(ctx context.Context, dir string, format ExportFormat, opts SearchOptions) (string, error) {
	records, err := s.exportRecords(ctx, opts)
	if err != nil {
		return "", err
	}

	var (
		data []byte
		name string
	)
	switch format {
	case ExportYAML, "":
		data, err = yaml.Marshal(records)
		name = "resources.yaml"
	case ExportJSON:
		data, err = json.MarshalIndent(records, "", "  ")
		name = "resources.json"
	default:
		return "", fmt.Errorf("unknown export format %q", format)
	}
	if err != nil {
		return "", fmt.Errorf("marshaling %s: %w", format, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

func (s *Store) exportRecords(ctx context.Context, opts SearchOptions) ([]types.ResourceRecord, error) {
	records := []types.ResourceRecord{}
	// Pages are walked below the MaxPageSize cap that Search applies.
	for n := 1; ; n++ {
		page, err := s.search(ctx, opts, n, exportPageSize)
		if err != nil {
			return nil, fmt.Errorf("querying for export: %w", err)
		}
		records = append(records, page.Items...)
		if n >= page.TotalPages {
			return records, nil
		}
	}
}
