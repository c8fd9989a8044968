package service

const (
	DefaultPageSize = 6
	MaxPageSize     = 100
)

// Pagination selects one page of a list. Pages start at 1.
type Pagination struct {
	Page  int
	Limit int
}

// NewPagination clamps the requested page and page size into the accepted range
func NewPagination(page, limit int) Pagination {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return Pagination{Page: page, Limit: limit}
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}
