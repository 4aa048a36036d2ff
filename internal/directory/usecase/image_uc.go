package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/kehillahub/gemach-directory/internal/directory/domain"
	"github.com/kehillahub/gemach-directory/internal/platform/logger"
)

// ObjectStorage is the object-store collaborator. Upload returns an
// opaque storage path; ResolvePublicURL materializes it into a
// displayable address.
type ObjectStorage interface {
	Upload(ctx context.Context, fileName string, data []byte) (string, error)
	Remove(ctx context.Context, storagePath string) error
	ResolvePublicURL(ctx context.Context, storagePath string) (string, error)
}

// ImageUsecase manages listing media. Attach and removal go through the
// same access predicates as content edits.
type ImageUsecase struct {
	storage  ObjectStorage
	images   domain.ImageRepository
	listings domain.ListingRepository
	logger   *logger.Logger
}

func NewImageUsecase(storage ObjectStorage, images domain.ImageRepository, listings domain.ListingRepository, log *logger.Logger) *ImageUsecase {
	return &ImageUsecase{
		storage:  storage,
		images:   images,
		listings: listings,
		logger:   log,
	}
}

// Attach uploads the file and records an image row for the listing.
// When primary is requested the flag is moved atomically off any
// previous primary.
func (uc *ImageUsecase) Attach(ctx context.Context, listingID string, viewer domain.Viewer, fileName string, data []byte, primary bool) (*domain.Image, error) {
	listing, err := uc.authorizedListing(ctx, listingID, viewer)
	if err != nil {
		return nil, err
	}

	storagePath, err := uc.storage.Upload(ctx, fileName, data)
	if err != nil {
		uc.logger.Error("ImageUsecase.Attach: upload failed", "listing_id", listingID, "error", err.Error())
		return nil, &domain.CollaboratorError{Op: "storage.upload", Err: err}
	}

	image := &domain.Image{
		ListingID:   listing.ID,
		StoragePath: storagePath,
		Primary:     false,
		CreatedAt:   time.Now().UTC(),
	}
	if err := uc.images.Add(ctx, image); err != nil {
		uc.logger.Error("ImageUsecase.Attach: persist failed", "listing_id", listingID, "error", err.Error())
		return nil, classify("images.add", err)
	}

	if primary {
		if err := uc.images.SetPrimary(ctx, listing.ID, image.ID); err != nil {
			uc.logger.Error("ImageUsecase.Attach: set primary failed", "listing_id", listingID, "image_id", image.ID, "error", err.Error())
			return nil, classify("images.set_primary", err)
		}
		image.Primary = true
	}

	uc.logger.Info("ImageUsecase.Attach: image attached", "listing_id", listingID, "image_id", image.ID, "primary", primary)
	return image, nil
}

// Remove deletes the image row, then the stored object. A failed object
// removal leaves an orphan in the bucket and is only logged; the
// directory no longer references it.
func (uc *ImageUsecase) Remove(ctx context.Context, listingID, imageID string, viewer domain.Viewer) error {
	if _, err := uc.authorizedListing(ctx, listingID, viewer); err != nil {
		return err
	}

	image, err := uc.images.FindByID(ctx, imageID)
	if err != nil {
		return classify("images.find_by_id", err)
	}
	if image.ListingID != listingID {
		return domain.ErrImageNotFound
	}

	if err := uc.images.Remove(ctx, imageID); err != nil {
		uc.logger.Error("ImageUsecase.Remove: persist failed", "image_id", imageID, "error", err.Error())
		return classify("images.remove", err)
	}
	if err := uc.storage.Remove(ctx, image.StoragePath); err != nil {
		uc.logger.Warn("ImageUsecase.Remove: object removal failed", "image_id", imageID, "storage_path", image.StoragePath, "error", err.Error())
	}

	uc.logger.Info("ImageUsecase.Remove: image removed", "listing_id", listingID, "image_id", imageID)
	return nil
}

// SetPrimary moves the primary flag to the given image.
func (uc *ImageUsecase) SetPrimary(ctx context.Context, listingID, imageID string, viewer domain.Viewer) error {
	if _, err := uc.authorizedListing(ctx, listingID, viewer); err != nil {
		return err
	}

	image, err := uc.images.FindByID(ctx, imageID)
	if err != nil {
		return classify("images.find_by_id", err)
	}
	if image.ListingID != listingID {
		return domain.ErrImageNotFound
	}

	if err := uc.images.SetPrimary(ctx, listingID, imageID); err != nil {
		uc.logger.Error("ImageUsecase.SetPrimary: persist failed", "listing_id", listingID, "image_id", imageID, "error", err.Error())
		return classify("images.set_primary", err)
	}
	return nil
}

// ResolveURLs fills in the displayable URL of each image on the
// listing. An image whose URL cannot be resolved is dropped from the
// result rather than failing the read.
func (uc *ImageUsecase) ResolveURLs(ctx context.Context, listing *domain.Listing) {
	resolved := make([]domain.Image, 0, len(listing.Images))
	for _, img := range listing.Images {
		url, err := uc.storage.ResolvePublicURL(ctx, img.StoragePath)
		if err != nil {
			uc.logger.Warn("ImageUsecase.ResolveURLs: resolve failed",
				"listing_id", listing.ID, "image_id", img.ID, "error", err.Error())
			continue
		}
		img.URL = url
		resolved = append(resolved, img)
	}
	listing.Images = resolved
}

func (uc *ImageUsecase) authorizedListing(ctx context.Context, listingID string, viewer domain.Viewer) (*domain.Listing, error) {
	listing, err := uc.listings.FindByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, domain.ErrListingNotFound) {
			return nil, domain.ErrListingNotFound
		}
		return nil, classify("listings.find_by_id", err)
	}
	if !domain.CanEdit(listing, viewer) {
		if !domain.CanView(listing, viewer) {
			return nil, domain.ErrListingNotFound
		}
		return nil, domain.ErrForbidden
	}
	return listing, nil
}
