package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func derefPages(numbers []*int) []int {
	out := make([]int, 0, len(numbers))
	for _, n := range numbers {
		if n == nil {
			out = append(out, 0)
			continue
		}
		out = append(out, *n)
	}
	return out
}

func TestPageRequestNormalize(t *testing.T) {
	assert.Equal(t, PageRequest{Page: 1, PerPage: DefaultPerPage}, PageRequest{}.Normalize())
	assert.Equal(t, PageRequest{Page: 3, PerPage: 10}, PageRequest{Page: 3, PerPage: 10}.Normalize())
	assert.Equal(t, 20, PageRequest{Page: 3, PerPage: 10}.Offset())
	assert.Equal(t, 0, PageRequest{Page: -2, PerPage: 10}.Offset())
}

func TestPageRequestCapsHugeValues(t *testing.T) {
	req := PageRequest{Page: 500_000_000_000_000_000, PerPage: 20}
	assert.Equal(t, PageRequest{Page: MaxPage, PerPage: 20}, req.Normalize())
	assert.Equal(t, (MaxPage-1)*20, req.Offset())

	req = PageRequest{Page: 2, PerPage: 1 << 62}
	assert.Equal(t, MaxPerPage, req.Normalize().PerPage)
	assert.Equal(t, MaxPerPage, req.Offset())

	assert.Positive(t, PageRequest{Page: 1 << 62, PerPage: 1 << 62}.Offset())
}

func TestPageNumbers(t *testing.T) {
	tests := []struct {
		name  string
		page  Page[int]
		pages int
		want  []int
	}{
		{
			name:  "two pages",
			page:  Page[int]{Page: 1, PerPage: 10, Total: 20},
			pages: 2,
			want:  []int{1, 2},
		},
		{
			name:  "empty",
			page:  Page[int]{Page: 1, PerPage: 10, Total: 0},
			pages: 0,
			want:  []int{},
		},
		{
			name:  "gap on the right",
			page:  Page[int]{Page: 1, PerPage: 10, Total: 200},
			pages: 20,
			want:  []int{1, 2, 3, 4, 5, 0, 19, 20},
		},
		{
			name:  "gaps on both sides",
			page:  Page[int]{Page: 10, PerPage: 10, Total: 200},
			pages: 20,
			want:  []int{1, 2, 0, 8, 9, 10, 11, 12, 13, 14, 0, 19, 20},
		},
		{
			name:  "partial last page",
			page:  Page[int]{Page: 1, PerPage: 10, Total: 21},
			pages: 3,
			want:  []int{1, 2, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.pages, tt.page.Pages())
			assert.Equal(t, tt.want, derefPages(tt.page.PageNumbers()))
		})
	}
}

func TestNewPageNeverReturnsNilItems(t *testing.T) {
	page := NewPage[int](nil, PageRequest{}, 0)
	assert.NotNil(t, page.Items)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, DefaultPerPage, page.PerPage)
}
