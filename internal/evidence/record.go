// Package evidence holds the evidence-record domain model and its
// persistence ports: the record repository, the case directory and the
// per-case promotion guard.
package evidence

import (
	"strings"
	"time"
)

// StorageLocation says which bucket currently holds a record's object.
// It transitions from temporary to permanent exactly once, on moderation
// approval, and never back.
type StorageLocation string

const (
	// LocationTemporary marks evidence pending moderation, stored in the
	// temp bucket and subject to provider-side lifecycle expiry.
	LocationTemporary StorageLocation = "temporary"
	// LocationPermanent marks evidence backing an approved complaint.
	LocationPermanent StorageLocation = "permanent"
)

// PermanentMarker is the legacy token downstream description parsers look
// for. The location itself is modeled as a typed column; the marker is only
// rendered for them, never parsed back.
const PermanentMarker = "[storage:permanent]"

// Record is one uploaded evidence file attached to a complaint case.
type Record struct {
	ID          string
	CaseID      string
	FilePath    string // storage key within the bucket
	FileName    string // original client-supplied name, metadata only
	MimeType    string
	SizeBytes   int64
	Description string
	Location    StorageLocation
	UploadedBy  string
	CreatedAt   time.Time
}

// Clone returns a deep copy to prevent external mutations.
func (r *Record) Clone() *Record {
	clone := *r
	return &clone
}

// DescriptionWithMarker renders the description the way legacy consumers
// expect: with the permanent-storage token appended once the record has
// been promoted.
func (r *Record) DescriptionWithMarker() string {
	if r.Location != LocationPermanent {
		return r.Description
	}
	if strings.Contains(r.Description, PermanentMarker) {
		return r.Description
	}
	if r.Description == "" {
		return PermanentMarker
	}
	return r.Description + " " + PermanentMarker
}

// Case is the complaint a batch of evidence belongs to. Owned by the
// surrounding application; referenced here for access decisions.
type Case struct {
	ID          string
	SubmitterID string
	Published   bool
}
