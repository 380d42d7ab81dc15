package domain

import "time"

// FreezeSource records who froze an object.
type FreezeSource string

const (
	FreezeSourceUser      FreezeSource = "user"
	FreezeSourceAutomatic FreezeSource = "automatic"
)

// MuseumObject is a museum object tracked by the preservation workflow.
// The table is owned by the workflow; the web UI reads it and mutates it
// only through the workflow operations.
type MuseumObject struct {
	ID              int64
	Title           string
	Preserved       bool
	Frozen          bool
	FreezeReason    *string
	FreezeSource    *FreezeSource
	CreatedDate     time.Time
	ModifiedDate    time.Time
	LatestPackageID *int64
}

// FreezeSourceLabel returns the freeze source, or "unknown" when none is recorded.
func (o *MuseumObject) FreezeSourceLabel() string {
	if o.FreezeSource == nil || *o.FreezeSource == "" {
		return "unknown"
	}
	return string(*o.FreezeSource)
}

// FreezeReasonCount is the number of frozen objects sharing a freeze reason.
type FreezeReasonCount struct {
	Reason string
	Count  int64
}
