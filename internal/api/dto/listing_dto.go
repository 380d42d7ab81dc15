package dto

import (
	"github.com/passari/web-ui/internal/domain"
	"github.com/passari/web-ui/internal/repository"
	"github.com/passari/web-ui/internal/service"
)

// ListResponse is the envelope of every paginated listing.
type ListResponse[T any] struct {
	Results     []T    `json:"results"`
	ResultCount int    `json:"result_count"`
	PageNumbers []*int `json:"page_numbers"`
	Page        int    `json:"page"`
	PageCount   int    `json:"page_count"`
}

// NewListResponse converts a page of items with convert.
func NewListResponse[S, T any](page repository.Page[S], convert func(*S) T) ListResponse[T] {
	results := make([]T, 0, len(page.Items))
	for i := range page.Items {
		results = append(results, convert(&page.Items[i]))
	}
	return ListResponse[T]{
		Results:     results,
		ResultCount: page.Total,
		PageNumbers: page.PageNumbers(),
		Page:        page.Page,
		PageCount:   page.Pages(),
	}
}

// FrozenObjectItem is one row of the frozen object listing.
type FrozenObjectItem struct {
	ID              int64   `json:"id"`
	LatestPackageID *int64  `json:"latest_package_id"`
	Title           string  `json:"title"`
	Source          string  `json:"source"`
	Reason          *string `json:"reason"`
}

// NewFrozenObjectItem converts a museum object.
func NewFrozenObjectItem(obj *domain.MuseumObject) FrozenObjectItem {
	return FrozenObjectItem{
		ID:              obj.ID,
		LatestPackageID: obj.LatestPackageID,
		Title:           obj.Title,
		Source:          obj.FreezeSourceLabel(),
		Reason:          obj.FreezeReason,
	}
}

// SIPItem is one row of the SIP listing.
type SIPItem struct {
	ID           int64    `json:"id"`
	Filename     string   `json:"filename"`
	ObjectID     int64    `json:"object_id"`
	Title        string   `json:"title"`
	Status       string   `json:"status"`
	CanReenqueue bool     `json:"can_reenqueue"`
	Queues       []string `json:"queues"`
	Uploaded     bool     `json:"uploaded"`
}

// NewSIPItem converts a listed SIP.
func NewSIPItem(item *service.SIPItem) SIPItem {
	queues := item.Queues
	if queues == nil {
		queues = []string{}
	}
	return SIPItem{
		ID:           item.Package.ID,
		Filename:     item.Package.SIPFilename,
		ObjectID:     item.Package.MuseumObjectID,
		Title:        item.Object.Title,
		Status:       string(item.Status),
		CanReenqueue: item.CanReenqueue,
		Queues:       queues,
		Uploaded:     item.Package.Uploaded,
	}
}
