package domain

import "time"

// ModerationStatus is the review axis of a listing's lifecycle. The
// soft-delete axis is carried separately by Listing.DeletedAt so that a
// restored listing comes back with its prior review decision intact.
type ModerationStatus string

const (
	StatusPending  ModerationStatus = "pending"
	StatusApproved ModerationStatus = "approved"
	StatusRejected ModerationStatus = "rejected"
)

type Role string

const (
	RoleAnonymous Role = "anonymous"
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
)

// Viewer is the actor a request is evaluated for. It is derived per
// request by the identity adapter and never persisted.
type Viewer struct {
	ID   string
	Role Role
}

func AnonymousViewer() Viewer {
	return Viewer{Role: RoleAnonymous}
}

func (v Viewer) IsAuthenticated() bool {
	return v.ID != "" && v.Role != RoleAnonymous
}

func (v Viewer) IsModerator() bool {
	return v.Role == RoleModerator
}

func (v Viewer) Owns(l *Listing) bool {
	return v.IsAuthenticated() && l.OwnerID != "" && v.ID == l.OwnerID
}

// Image references an uploaded object. StoragePath is an opaque handle;
// URL is materialized on demand by the object store adapter and is empty
// until resolved.
type Image struct {
	ID          string
	ListingID   string
	StoragePath string
	URL         string
	Primary     bool
	CreatedAt   time.Time
}

// Listing is a lending-service directory entry (a "gemach").
type Listing struct {
	ID           string
	Name         string
	Category     string
	Neighborhood string
	Description  string
	Address      string
	Phone        string
	ManagerPhone string
	Email        string
	Hours        string
	HasFee       bool
	FeeDetails   string
	Website      string

	// OwnerID is set at submission and never changes afterwards. It is
	// empty for orphaned listings whose owner account was removed.
	OwnerID string

	Status    ModerationStatus
	DeletedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	Images []Image
}

func (l *Listing) IsDeleted() bool {
	return l.DeletedAt != nil
}

// PrimaryImage returns the image flagged primary, falling back to the
// first image by insertion order. Nil when the listing has no images.
func (l *Listing) PrimaryImage() *Image {
	for i := range l.Images {
		if l.Images[i].Primary {
			return &l.Images[i]
		}
	}
	if len(l.Images) > 0 {
		return &l.Images[0]
	}
	return nil
}
