package reconciliation

import "strconv"

// Page size bounds of the report.
const (
	DefaultPageSize = 50
	MaxPageSize     = 1000
)

// PageRequest is a clamped page selection.
type PageRequest struct {
	Page     int
	PageSize int
}

// ParsePageRequest reads the page and page_size query values. Missing or
// unparseable values take the defaults; out of range values are clamped.
func ParsePageRequest(page, pageSize string) PageRequest {
	req := PageRequest{Page: 1, PageSize: DefaultPageSize}
	if n, err := strconv.Atoi(page); err == nil && n > 1 {
		req.Page = n
	}
	if n, err := strconv.Atoi(pageSize); err == nil {
		req.PageSize = min(max(n, 1), MaxPageSize)
	}
	return req
}

// PageInfo describes the slice returned by Paginate.
type PageInfo struct {
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// Paginate cuts one page out of items. A page past the end is moved to the
// last page, or to page 1 when items is empty.
func Paginate[T any](items []T, req PageRequest) ([]T, PageInfo) {
	size := req.PageSize
	if size < 1 {
		size = DefaultPageSize
	}
	page := max(req.Page, 1)
	total := len(items)
	totalPages := (total + size - 1) / size
	if page > totalPages {
		page = max(totalPages, 1)
	}
	info := PageInfo{Total: total, Page: page, PageSize: size, TotalPages: totalPages}

	start := (page - 1) * size
	if start >= total {
		return []T{}, info
	}
	end := min(start+size, total)
	return items[start:end], info
}
