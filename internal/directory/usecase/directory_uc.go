package usecase

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kehillahub/gemach-directory/internal/directory/domain"
	"github.com/kehillahub/gemach-directory/internal/platform/logger"
)

var tracer = otel.Tracer("gemach-directory/usecase")

// EventPublisher emits lifecycle events after the storage collaborator
// has confirmed the mutation. The NATS adapter satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, event domain.ListingEvent) error
}

// Notifier delivers owner-facing moderation notifications.
type Notifier interface {
	SendListingApprovedEmail(toEmail, listingName string) error
	SendListingRejectedEmail(toEmail, listingName string) error
}

// OwnerDirectory resolves owner contact details from the identity
// store.
type OwnerDirectory interface {
	GetEmailByID(ctx context.Context, ownerID string) (string, error)
}

const (
	SubjectSubmitted       = "listing.submitted"
	SubjectApproved        = "listing.approved"
	SubjectRejected        = "listing.rejected"
	SubjectSoftDeleted     = "listing.soft_deleted"
	SubjectRestored        = "listing.restored"
	SubjectPermanentDelete = "listing.permanently_deleted"
	SubjectUpdated         = "listing.updated"
)

// DirectoryUsecase orchestrates the listing lifecycle. It is the only
// component that mutates listings and images, and every operation
// passes through the access predicates before the repository is
// touched.
type DirectoryUsecase struct {
	listings  domain.ListingRepository
	images    domain.ImageRepository
	storage   ObjectStorage
	publisher EventPublisher
	notifier  Notifier
	owners    OwnerDirectory
	logger    *logger.Logger
}

func NewDirectoryUsecase(
	listings domain.ListingRepository,
	images domain.ImageRepository,
	storage ObjectStorage,
	publisher EventPublisher,
	notifier Notifier,
	owners OwnerDirectory,
	log *logger.Logger,
) *DirectoryUsecase {
	return &DirectoryUsecase{
		listings:  listings,
		images:    images,
		storage:   storage,
		publisher: publisher,
		notifier:  notifier,
		owners:    owners,
		logger:    log,
	}
}

// Submit validates the owner's submission and persists a new listing in
// the pending, active state.
func (uc *DirectoryUsecase) Submit(ctx context.Context, ownerID string, sub domain.Submission) (*domain.Listing, error) {
	ctx, span := tracer.Start(ctx, "DirectoryUsecase.Submit")
	defer span.End()
	span.SetAttributes(attribute.String("owner_id", ownerID))

	uc.logger.Info("DirectoryUsecase.Submit: submitting listing", "owner_id", ownerID, "name", sub.Name)

	if err := sub.Validate(); err != nil {
		uc.logger.Warn("DirectoryUsecase.Submit: validation failed", "owner_id", ownerID, "error", err.Error())
		return nil, err
	}

	now := time.Now().UTC()
	listing := &domain.Listing{
		Name:         sub.Name,
		Category:     sub.Category,
		Neighborhood: sub.Neighborhood,
		Description:  sub.Description,
		Address:      sub.Address,
		Phone:        sub.Phone,
		ManagerPhone: sub.ManagerPhone,
		Email:        sub.Email,
		Hours:        sub.Hours,
		HasFee:       sub.HasFee,
		FeeDetails:   sub.FeeDetails,
		Website:      sub.Website,
		OwnerID:      ownerID,
		Status:       domain.StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
		Images:       []domain.Image{},
	}

	if err := uc.listings.Create(ctx, listing); err != nil {
		uc.logger.Error("DirectoryUsecase.Submit: failed to persist listing", "owner_id", ownerID, "error", err.Error())
		return nil, classify("listings.create", err)
	}

	uc.publish(ctx, SubjectSubmitted, listing)
	return listing, nil
}

// Get fetches a listing on behalf of the viewer. Listings the viewer
// may not see are reported as not found so their existence does not
// leak.
func (uc *DirectoryUsecase) Get(ctx context.Context, id string, viewer domain.Viewer) (*domain.Listing, error) {
	ctx, span := tracer.Start(ctx, "DirectoryUsecase.Get")
	defer span.End()
	span.SetAttributes(attribute.String("listing_id", id))

	listing, err := uc.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanView(listing, viewer) {
		uc.logger.Debug("DirectoryUsecase.Get: listing hidden from viewer", "listing_id", id, "viewer_id", viewer.ID)
		return nil, domain.ErrListingNotFound
	}
	if err := uc.loadImages(ctx, listing); err != nil {
		return nil, err
	}
	return listing, nil
}

// ListPublic returns the approved, active listings visible to everyone,
// narrowed by the filter.
func (uc *DirectoryUsecase) ListPublic(ctx context.Context, filter domain.Filter) ([]*domain.Listing, error) {
	ctx, span := tracer.Start(ctx, "DirectoryUsecase.ListPublic")
	defer span.End()

	published, err := uc.listings.FindPublished(ctx)
	if err != nil {
		uc.logger.Error("DirectoryUsecase.ListPublic: fetch failed", "error", err.Error())
		return nil, classify("listings.find_published", err)
	}

	anon := domain.AnonymousViewer()
	visible := make([]*domain.Listing, 0, len(published))
	for _, l := range published {
		if domain.CanList(l, anon) {
			visible = append(visible, l)
		}
	}
	return filter.Apply(visible), nil
}

// ListOwned returns every listing belonging to the owner, soft-deleted
// ones included, so owners can see their own trashed items.
func (uc *DirectoryUsecase) ListOwned(ctx context.Context, ownerID string) ([]*domain.Listing, error) {
	ctx, span := tracer.Start(ctx, "DirectoryUsecase.ListOwned")
	defer span.End()

	owned, err := uc.listings.FindByOwner(ctx, ownerID)
	if err != nil {
		uc.logger.Error("DirectoryUsecase.ListOwned: fetch failed", "owner_id", ownerID, "error", err.Error())
		return nil, classify("listings.find_by_owner", err)
	}
	return owned, nil
}

// ModerationQueue returns the pending and rejected active listings
// awaiting moderator attention.
func (uc *DirectoryUsecase) ModerationQueue(ctx context.Context, viewer domain.Viewer) ([]*domain.Listing, error) {
	ctx, span := tracer.Start(ctx, "DirectoryUsecase.ModerationQueue")
	defer span.End()

	if !viewer.IsModerator() {
		uc.logger.Warn("DirectoryUsecase.ModerationQueue: non-moderator access attempt", "viewer_id", viewer.ID)
		return nil, domain.ErrForbidden
	}

	queue, err := uc.listings.FindModerationQueue(ctx)
	if err != nil {
		uc.logger.Error("DirectoryUsecase.ModerationQueue: fetch failed", "error", err.Error())
		return nil, classify("listings.find_moderation_queue", err)
	}
	return queue, nil
}

// Update merges the patch into the listing's content and persists it.
// Moderation status is untouched: an edited approved listing stays
// approved without re-review.
func (uc *DirectoryUsecase) Update(ctx context.Context, id string, viewer domain.Viewer, patch domain.Patch) (*domain.Listing, error) {
	ctx, span := tracer.Start(ctx, "DirectoryUsecase.Update")
	defer span.End()
	span.SetAttributes(attribute.String("listing_id", id))

	listing, err := uc.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := uc.authorizeWrite(listing, viewer, domain.CanEdit(listing, viewer)); err != nil {
		uc.logger.Warn("DirectoryUsecase.Update: write denied", "listing_id", id, "viewer_id", viewer.ID)
		return nil, err
	}

	patch.ApplyTo(listing)
	if err := listing.AsSubmission().Validate(); err != nil {
		return nil, err
	}
	listing.UpdatedAt = time.Now().UTC()

	if err := uc.listings.Update(ctx, listing); err != nil {
		uc.logger.Error("DirectoryUsecase.Update: persist failed", "listing_id", id, "error", err.Error())
		return nil, classify("listings.update", err)
	}

	uc.publish(ctx, SubjectUpdated, listing)
	return listing, nil
}

// Transition dispatches a lifecycle action. The persistence is guarded
// on the status the listing had when it was read, so two concurrent
// moderators cannot overwrite each other blindly; a lost race surfaces
// as a conflict.
func (uc *DirectoryUsecase) Transition(ctx context.Context, id string, viewer domain.Viewer, action domain.Transition) (*domain.Listing, error) {
	ctx, span := tracer.Start(ctx, "DirectoryUsecase.Transition")
	defer span.End()
	span.SetAttributes(attribute.String("listing_id", id), attribute.String("action", string(action)))

	listing, err := uc.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := uc.authorizeWrite(listing, viewer, domain.CanModerate(listing, viewer, action)); err != nil {
		uc.logger.Warn("DirectoryUsecase.Transition: action denied",
			"listing_id", id, "viewer_id", viewer.ID, "action", string(action))
		return nil, err
	}

	next, err := domain.ApplyTransition(*listing, action, time.Now().UTC())
	if err != nil {
		uc.logger.Warn("DirectoryUsecase.Transition: illegal transition",
			"listing_id", id, "action", string(action), "status", string(listing.Status), "deleted", listing.IsDeleted())
		return nil, err
	}

	guard := domain.StatusGuard{Status: listing.Status, Deleted: listing.IsDeleted()}

	if action == domain.TransitionPermanentDelete {
		if err := uc.permanentDelete(ctx, listing); err != nil {
			return nil, err
		}
		uc.publish(ctx, SubjectPermanentDelete, listing)
		return listing, nil
	}

	if err := uc.listings.UpdateGuarded(ctx, &next, guard); err != nil {
		if errors.Is(err, domain.ErrStaleListing) {
			uc.logger.Warn("DirectoryUsecase.Transition: lost update race", "listing_id", id, "action", string(action))
			return nil, domain.ErrConflict
		}
		uc.logger.Error("DirectoryUsecase.Transition: persist failed", "listing_id", id, "error", err.Error())
		return nil, classify("listings.update_guarded", err)
	}

	uc.afterTransition(ctx, &next, action)
	return &next, nil
}

// permanentDelete removes the listing row first, conditional on the
// delete marker still being set, so a concurrently restored listing
// survives untouched. Only then are image rows and stored objects
// cascaded; a failed object removal leaves an orphan in the bucket,
// which is preferable to purging media for a listing that refused to
// die.
func (uc *DirectoryUsecase) permanentDelete(ctx context.Context, listing *domain.Listing) error {
	if err := uc.listings.Delete(ctx, listing.ID); err != nil {
		if errors.Is(err, domain.ErrStaleListing) {
			uc.logger.Warn("DirectoryUsecase.permanentDelete: listing restored concurrently", "listing_id", listing.ID)
			return domain.ErrConflict
		}
		uc.logger.Error("DirectoryUsecase.permanentDelete: delete failed", "listing_id", listing.ID, "error", err.Error())
		return classify("listings.delete", err)
	}

	if images, err := uc.images.FindByListing(ctx, listing.ID); err != nil {
		uc.logger.Warn("DirectoryUsecase.permanentDelete: image lookup failed", "listing_id", listing.ID, "error", err.Error())
	} else {
		for _, img := range images {
			if err := uc.storage.Remove(ctx, img.StoragePath); err != nil {
				uc.logger.Warn("DirectoryUsecase.permanentDelete: object removal failed",
					"listing_id", listing.ID, "image_id", img.ID, "error", err.Error())
			}
		}
	}
	if err := uc.images.RemoveByListing(ctx, listing.ID); err != nil {
		uc.logger.Error("DirectoryUsecase.permanentDelete: image cascade failed", "listing_id", listing.ID, "error", err.Error())
		return classify("images.remove_by_listing", err)
	}
	uc.logger.Info("DirectoryUsecase.permanentDelete: listing removed", "listing_id", listing.ID)
	return nil
}

func (uc *DirectoryUsecase) afterTransition(ctx context.Context, listing *domain.Listing, action domain.Transition) {
	switch action {
	case domain.TransitionApprove:
		uc.publish(ctx, SubjectApproved, listing)
		uc.notifyOwner(ctx, listing, uc.notifier.SendListingApprovedEmail)
	case domain.TransitionReject:
		uc.publish(ctx, SubjectRejected, listing)
		uc.notifyOwner(ctx, listing, uc.notifier.SendListingRejectedEmail)
	case domain.TransitionSoftDelete:
		uc.publish(ctx, SubjectSoftDeleted, listing)
	case domain.TransitionRestore:
		uc.publish(ctx, SubjectRestored, listing)
	}
}

// notifyOwner sends the moderation outcome email. Notification failures
// are logged, never propagated: the state change has already been
// confirmed by storage.
func (uc *DirectoryUsecase) notifyOwner(ctx context.Context, listing *domain.Listing, send func(to, name string) error) {
	if listing.OwnerID == "" {
		return
	}
	email, err := uc.owners.GetEmailByID(ctx, listing.OwnerID)
	if err != nil {
		uc.logger.Warn("DirectoryUsecase.notifyOwner: owner email lookup failed",
			"listing_id", listing.ID, "owner_id", listing.OwnerID, "error", err.Error())
		return
	}
	if err := send(email, listing.Name); err != nil {
		uc.logger.Warn("DirectoryUsecase.notifyOwner: email delivery failed",
			"listing_id", listing.ID, "owner_id", listing.OwnerID, "error", err.Error())
	}
}

func (uc *DirectoryUsecase) publish(ctx context.Context, subject string, listing *domain.Listing) {
	if uc.publisher == nil {
		return
	}
	if err := uc.publisher.Publish(ctx, subject, domain.NewListingEvent(listing)); err != nil {
		uc.logger.Warn("DirectoryUsecase.publish: event publish failed", "subject", subject, "listing_id", listing.ID, "error", err.Error())
	}
}

func (uc *DirectoryUsecase) fetch(ctx context.Context, id string) (*domain.Listing, error) {
	listing, err := uc.listings.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrListingNotFound) {
			return nil, domain.ErrListingNotFound
		}
		uc.logger.Error("DirectoryUsecase.fetch: lookup failed", "listing_id", id, "error", err.Error())
		return nil, classify("listings.find_by_id", err)
	}
	return listing, nil
}

func (uc *DirectoryUsecase) loadImages(ctx context.Context, listing *domain.Listing) error {
	images, err := uc.images.FindByListing(ctx, listing.ID)
	if err != nil {
		uc.logger.Error("DirectoryUsecase.loadImages: fetch failed", "listing_id", listing.ID, "error", err.Error())
		return classify("images.find_by_listing", err)
	}
	listing.Images = images
	return nil
}

// authorizeWrite converts a failed write-path access check into the
// right error: viewers who cannot even see the listing get not-found,
// everyone else gets an explicit permission refusal.
func (uc *DirectoryUsecase) authorizeWrite(listing *domain.Listing, viewer domain.Viewer, allowed bool) error {
	if allowed {
		return nil
	}
	if !domain.CanView(listing, viewer) {
		return domain.ErrListingNotFound
	}
	return domain.ErrForbidden
}

// classify wraps unexpected collaborator failures while letting domain
// sentinels pass through untouched.
func classify(op string, err error) error {
	switch {
	case errors.Is(err, domain.ErrListingNotFound),
		errors.Is(err, domain.ErrImageNotFound),
		errors.Is(err, domain.ErrStaleListing),
		errors.Is(err, domain.ErrConflict):
		return err
	}
	return &domain.CollaboratorError{Op: op, Err: err}
}
