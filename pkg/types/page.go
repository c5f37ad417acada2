// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Page is a paginated result envelope.
type Page[T any] struct {
	// Items holds at most PageSize entries.
	Items []T `json:"items" yaml:"items"`

	// Total is the authoritative number of matching entries, not len(Items).
	Total int `json:"total" yaml:"total"`

	// Page is the 1-based page number.
	Page int `json:"page" yaml:"page"`

	// PageSize is the requested page size; always positive.
	PageSize int `json:"page_size" yaml:"page_size"`

	// TotalPages is ceil(Total/PageSize), zero when Total is zero.
	TotalPages int `json:"total_pages" yaml:"total_pages"`
}

// DefaultPageSize is used when a caller passes a non-positive page size.
const DefaultPageSize = 10

// NewPage builds an envelope, clamping page and pageSize to positive values
// and trimming items to pageSize. A nil items slice is replaced with an
// empty one so JSON output is always an array.
func NewPage[T any](items []T, total, page, pageSize int) Page[T] {
	page, pageSize = NormalizePaging(page, pageSize)
	if total < 0 {
		total = 0
	}
	if items == nil {
		items = []T{}
	}
	if len(items) > pageSize {
		items = items[:pageSize]
	}
	return Page[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: TotalPages(total, pageSize),
	}
}

// NormalizePaging clamps page to >= 1 and pageSize to > 0.
func NormalizePaging(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return page, pageSize
}

// TotalPages returns ceil(total/pageSize).
func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// Offset returns the zero-based row offset of the first item on page.
func Offset(page, pageSize int) int {
	page, pageSize = NormalizePaging(page, pageSize)
	return (page - 1) * pageSize
}
