package util

import "math"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Calculate turns a 1-based page and a page size into a store offset and limit.
// Sizes outside (0, MaxPageSize] fall back to DefaultPageSize. A page too far
// out to address saturates the offset at math.MaxInt, which selects nothing.
func Calculate(page, size int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	if page-1 > math.MaxInt/size {
		return math.MaxInt, size
	}
	return (page - 1) * size, size
}
