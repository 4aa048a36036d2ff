package domain

import "context"

// StatusGuard is the optimistic-concurrency precondition for lifecycle
// writes: the update applies only if the stored listing still has this
// status and delete marker. A mismatch yields ErrStaleListing, which
// keeps two moderators from silently overwriting each other's decision.
type StatusGuard struct {
	Status  ModerationStatus
	Deleted bool
}

type ListingRepository interface {
	Create(ctx context.Context, listing *Listing) error
	Update(ctx context.Context, listing *Listing) error
	UpdateGuarded(ctx context.Context, listing *Listing, guard StatusGuard) error
	// Delete removes the listing row. It applies only while the listing
	// is soft-deleted; ErrStaleListing reports a concurrent restore.
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Listing, error)
	FindByOwner(ctx context.Context, ownerID string) ([]*Listing, error)
	FindPublished(ctx context.Context) ([]*Listing, error)
	FindModerationQueue(ctx context.Context) ([]*Listing, error)
}

type ImageRepository interface {
	Add(ctx context.Context, image *Image) error
	Remove(ctx context.Context, id string) error
	RemoveByListing(ctx context.Context, listingID string) error
	FindByID(ctx context.Context, id string) (*Image, error)
	FindByListing(ctx context.Context, listingID string) ([]Image, error)
	// SetPrimary flags the given image and clears the flag on every
	// other image of the listing, preserving the 0-or-1 invariant.
	SetPrimary(ctx context.Context, listingID, imageID string) error
}
