package repository

const (
	DefaultPage    = 1
	DefaultPerPage = 20

	// MaxPerPage and MaxPage keep the OFFSET well inside int64. A page
	// past the last one is still a valid request and yields no items.
	MaxPerPage = 1000
	MaxPage    = 1_000_000
)

// PageRequest selects one page of a listing. Page numbers start from 1.
type PageRequest struct {
	Page    int
	PerPage int
}

// Normalize replaces values below 1 with the defaults and caps values
// above the maximums.
func (p PageRequest) Normalize() PageRequest {
	switch {
	case p.Page < 1:
		p.Page = DefaultPage
	case p.Page > MaxPage:
		p.Page = MaxPage
	}
	switch {
	case p.PerPage < 1:
		p.PerPage = DefaultPerPage
	case p.PerPage > MaxPerPage:
		p.PerPage = MaxPerPage
	}
	return p
}

// Offset returns the number of rows preceding the page.
func (p PageRequest) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.PerPage
}

// Page is one page of results plus what is needed to render a pager.
type Page[T any] struct {
	Items   []T
	Page    int
	PerPage int
	Total   int
}

// NewPage wraps items fetched for req.
func NewPage[T any](items []T, req PageRequest, total int) Page[T] {
	req = req.Normalize()
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Page: req.Page, PerPage: req.PerPage, Total: total}
}

// Pages returns the total number of pages.
func (p Page[T]) Pages() int {
	if p.PerPage <= 0 || p.Total <= 0 {
		return 0
	}
	return (p.Total + p.PerPage - 1) / p.PerPage
}

// PageNumbers returns the page numbers a pager should show. Gaps in the
// sequence are marked with nil. Two pages are kept at each edge, two before
// the current page and four after it.
func (p Page[T]) PageNumbers() []*int {
	const (
		leftEdge     = 2
		leftCurrent  = 2
		rightCurrent = 5
		rightEdge    = 2
	)

	pages := p.Pages()
	numbers := []*int{}
	last := 0
	for num := 1; num <= pages; num++ {
		if num <= leftEdge ||
			(num > p.Page-leftCurrent-1 && num < p.Page+rightCurrent) ||
			num > pages-rightEdge {
			if last+1 != num {
				numbers = append(numbers, nil)
			}
			n := num
			numbers = append(numbers, &n)
			last = num
		}
	}
	return numbers
}
