package domain

import "time"

// PackageStatus is the display status of a SIP, derived from its flags.
type PackageStatus string

const (
	PackageStatusCancelled  PackageStatus = "cancelled"
	PackageStatusPreserved  PackageStatus = "preserved"
	PackageStatusRejected   PackageStatus = "rejected"
	PackageStatusProcessing PackageStatus = "processing"
)

// PackageStatuses lists every status in precedence order.
var PackageStatuses = []PackageStatus{
	PackageStatusCancelled,
	PackageStatusPreserved,
	PackageStatusRejected,
	PackageStatusProcessing,
}

// StatusFromFlags maps the three stored flags to a single status.
// Cancelled wins over preserved, which wins over rejected. The stored
// data does not rule out combinations such as cancelled+preserved.
func StatusFromFlags(cancelled, preserved, rejected bool) PackageStatus {
	switch {
	case cancelled:
		return PackageStatusCancelled
	case preserved:
		return PackageStatusPreserved
	case rejected:
		return PackageStatusRejected
	default:
		return PackageStatusProcessing
	}
}

// MuseumPackage is a single SIP (Submission Information Package) attempt for an object.
type MuseumPackage struct {
	ID                 int64
	SIPFilename        string
	SIPID              string
	MuseumObjectID     int64
	ObjectModifiedDate *time.Time
	Downloaded         bool
	Packaged           bool
	Uploaded           bool
	Rejected           bool
	Preserved          bool
	Cancelled          bool
	CreatedDate        time.Time
}

// Status returns the derived display status.
func (p *MuseumPackage) Status() PackageStatus {
	return StatusFromFlags(p.Cancelled, p.Preserved, p.Rejected)
}

// IsLatestFor reports whether the package is the object's current package.
func (p *MuseumPackage) IsLatestFor(object *MuseumObject) bool {
	return object != nil && object.LatestPackageID != nil && *object.LatestPackageID == p.ID
}

// CanReenqueue reports whether the object can be sent through the workflow
// again: only a rejected package that is still the object's latest one qualifies.
func (p *MuseumPackage) CanReenqueue(object *MuseumObject) bool {
	return p.Rejected && p.IsLatestFor(object)
}

// PackageWithObject is a package joined with its owning object.
type PackageWithObject struct {
	Package MuseumPackage
	Object  MuseumObject
}
