package domain

import "math"

// PaginationParams holds offset-based pagination parameters for list queries.
type PaginationParams struct {
	Page     int
	PageSize int
}

// Offset returns the row offset for the current page (0-based).
// It saturates at math.MaxInt instead of wrapping for very large pages.
func (p PaginationParams) Offset() int {
	if p.Page < 1 || p.PageSize < 1 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.PageSize {
		return math.MaxInt
	}
	return (p.Page - 1) * p.PageSize
}

// Bounds returns the [start, end) indexes of the page within a list of n items.
// A PageSize < 1 selects everything; a page past the end selects nothing.
func (p PaginationParams) Bounds(n int) (start, end int) {
	if n < 0 {
		n = 0
	}
	if p.PageSize < 1 {
		return 0, n
	}
	if p.Page > 1 && p.Page-1 > n/p.PageSize {
		return n, n
	}
	start = min(p.Offset(), n)
	end = n
	if p.PageSize < n-start {
		end = start + p.PageSize
	}
	return start, end
}
