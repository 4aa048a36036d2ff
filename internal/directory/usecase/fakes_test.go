package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/kehillahub/gemach-directory/internal/directory/domain"
)

// In-memory collaborators for usecase tests. They mimic the adapter
// contracts closely enough to exercise the orchestration, including the
// guarded-update semantics.

type fakeListingRepo struct {
	mu       sync.Mutex
	listings map[string]*domain.Listing
	nextID   int

	// failNextGuard makes the next UpdateGuarded lose the optimistic
	// race regardless of the stored state.
	failNextGuard bool

	// beforeDelete runs at the start of Delete, simulating a write that
	// commits between the caller's read and the delete.
	beforeDelete func()
}

func newFakeListingRepo() *fakeListingRepo {
	return &fakeListingRepo{listings: make(map[string]*domain.Listing)}
}

func copyListing(l *domain.Listing) *domain.Listing {
	cp := *l
	if l.DeletedAt != nil {
		t := *l.DeletedAt
		cp.DeletedAt = &t
	}
	cp.Images = append([]domain.Image(nil), l.Images...)
	return &cp
}

func (r *fakeListingRepo) Create(_ context.Context, listing *domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	listing.ID = fmt.Sprintf("listing-%d", r.nextID)
	r.listings[listing.ID] = copyListing(listing)
	return nil
}

func (r *fakeListingRepo) Update(_ context.Context, listing *domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.listings[listing.ID]; !ok {
		return domain.ErrListingNotFound
	}
	r.listings[listing.ID] = copyListing(listing)
	return nil
}

func (r *fakeListingRepo) UpdateGuarded(_ context.Context, listing *domain.Listing, guard domain.StatusGuard) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.listings[listing.ID]
	if !ok {
		return domain.ErrListingNotFound
	}
	if r.failNextGuard {
		r.failNextGuard = false
		return domain.ErrStaleListing
	}
	if stored.Status != guard.Status || stored.IsDeleted() != guard.Deleted {
		return domain.ErrStaleListing
	}
	r.listings[listing.ID] = copyListing(listing)
	return nil
}

func (r *fakeListingRepo) Delete(_ context.Context, id string) error {
	if r.beforeDelete != nil {
		r.beforeDelete()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.listings[id]
	if !ok {
		return domain.ErrListingNotFound
	}
	if !stored.IsDeleted() {
		return domain.ErrStaleListing
	}
	delete(r.listings, id)
	return nil
}

func (r *fakeListingRepo) FindByID(_ context.Context, id string) (*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	return copyListing(l), nil
}

func (r *fakeListingRepo) FindByOwner(_ context.Context, ownerID string) ([]*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Listing
	for _, l := range r.listings {
		if l.OwnerID == ownerID {
			out = append(out, copyListing(l))
		}
	}
	return out, nil
}

func (r *fakeListingRepo) FindPublished(_ context.Context) ([]*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Listing
	for _, l := range r.listings {
		if l.Status == domain.StatusApproved && !l.IsDeleted() {
			out = append(out, copyListing(l))
		}
	}
	return out, nil
}

func (r *fakeListingRepo) FindModerationQueue(_ context.Context) ([]*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Listing
	for _, l := range r.listings {
		if (l.Status == domain.StatusPending || l.Status == domain.StatusRejected) && !l.IsDeleted() {
			out = append(out, copyListing(l))
		}
	}
	return out, nil
}

type fakeImageRepo struct {
	mu     sync.Mutex
	images []domain.Image
	nextID int
}

func newFakeImageRepo() *fakeImageRepo {
	return &fakeImageRepo{}
}

func (r *fakeImageRepo) Add(_ context.Context, image *domain.Image) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	image.ID = fmt.Sprintf("image-%d", r.nextID)
	r.images = append(r.images, *image)
	return nil
}

func (r *fakeImageRepo) Remove(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, img := range r.images {
		if img.ID == id {
			r.images = append(r.images[:i], r.images[i+1:]...)
			return nil
		}
	}
	return domain.ErrImageNotFound
}

func (r *fakeImageRepo) RemoveByListing(_ context.Context, listingID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.images[:0]
	for _, img := range r.images {
		if img.ListingID != listingID {
			kept = append(kept, img)
		}
	}
	r.images = kept
	return nil
}

func (r *fakeImageRepo) FindByID(_ context.Context, id string) (*domain.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, img := range r.images {
		if img.ID == id {
			cp := img
			return &cp, nil
		}
	}
	return nil, domain.ErrImageNotFound
}

func (r *fakeImageRepo) FindByListing(_ context.Context, listingID string) ([]domain.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Image, 0)
	for _, img := range r.images {
		if img.ListingID == listingID {
			out = append(out, img)
		}
	}
	return out, nil
}

func (r *fakeImageRepo) SetPrimary(_ context.Context, listingID, imageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	found := false
	for i := range r.images {
		if r.images[i].ListingID == listingID {
			r.images[i].Primary = r.images[i].ID == imageID
			if r.images[i].ID == imageID {
				found = true
			}
		}
	}
	if !found {
		return domain.ErrImageNotFound
	}
	return nil
}

type fakeStorage struct {
	mu       sync.Mutex
	uploaded map[string][]byte
	removed  []string

	// failResolve holds storage paths whose URL resolution should fail.
	failResolve map[string]bool
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		uploaded:    make(map[string][]byte),
		failResolve: make(map[string]bool),
	}
}

func (s *fakeStorage) Upload(_ context.Context, fileName string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	path := "images/" + fileName
	s.uploaded[path] = data
	return path, nil
}

func (s *fakeStorage) Remove(_ context.Context, storagePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, storagePath)
	delete(s.uploaded, storagePath)
	return nil
}

func (s *fakeStorage) ResolvePublicURL(_ context.Context, storagePath string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failResolve[storagePath] {
		return "", fmt.Errorf("presign failed for %s", storagePath)
	}
	return "https://cdn.example.test/" + storagePath, nil
}

type publishedEvent struct {
	subject string
	event   domain.ListingEvent
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *fakePublisher) Publish(_ context.Context, subject string, event domain.ListingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{subject: subject, event: event})
	return nil
}

func (p *fakePublisher) published(subject string) bool {
	_, ok := p.last(subject)
	return ok
}

func (p *fakePublisher) last(subject string) (domain.ListingEvent, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.events) - 1; i >= 0; i-- {
		if p.events[i].subject == subject {
			return p.events[i].event, true
		}
	}
	return domain.ListingEvent{}, false
}

type fakeNotifier struct {
	mu       sync.Mutex
	approved []string
	rejected []string
}

func (n *fakeNotifier) SendListingApprovedEmail(toEmail, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.approved = append(n.approved, toEmail)
	return nil
}

func (n *fakeNotifier) SendListingRejectedEmail(toEmail, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rejected = append(n.rejected, toEmail)
	return nil
}

type fakeOwners struct {
	emails map[string]string
}

func (o *fakeOwners) GetEmailByID(_ context.Context, ownerID string) (string, error) {
	email, ok := o.emails[ownerID]
	if !ok {
		return "", fmt.Errorf("owner %s not found", ownerID)
	}
	return email, nil
}
