package shared

// Filter represents query filter options
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
}

// DefaultFilter returns the first page of 20 in the repository's natural order
func DefaultFilter() Filter {
	return Filter{
		Page:     1,
		PageSize: 20,
	}
}

// Offset returns the row offset for the filter's page
func (f Filter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// TotalPages returns how many pages of PageSize hold total rows
func (f Filter) TotalPages(total int64) int {
	if total <= 0 || f.PageSize <= 0 {
		return 0
	}
	return int((total + int64(f.PageSize) - 1) / int64(f.PageSize))
}
