package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kehillahub/gemach-directory/internal/directory/domain"
	"github.com/kehillahub/gemach-directory/internal/platform/logger"
)

type ListingRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewListingRepository(db *mongo.Database, log *logger.Logger) *ListingRepository {
	return &ListingRepository{
		collection: db.Collection("listings"),
		logger:     log,
	}
}

func (r *ListingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	doc, err := toListingDocument(listing)
	if err != nil {
		return fmt.Errorf("failed to prepare listing for database: %w", err)
	}

	res, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		r.logger.Error("ListingRepository.Create: InsertOne failed", "error", err)
		return err
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return errors.New("failed to retrieve generated listing ID")
	}
	listing.ID = oid.Hex()
	return nil
}

func (r *ListingRepository) Update(ctx context.Context, listing *domain.Listing) error {
	oid, doc, err := r.prepare(listing)
	if err != nil {
		return err
	}

	res, err := r.collection.UpdateByID(ctx, oid, updateFor(doc))
	if err != nil {
		r.logger.Error("ListingRepository.Update: UpdateByID failed", "listing_id", listing.ID, "error", err)
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrListingNotFound
	}
	return nil
}

// UpdateGuarded applies the update only if the stored document still
// carries the expected status and delete marker. The conditional filter
// is what serializes concurrent moderator transitions on one listing:
// the loser of a race matches nothing and gets ErrStaleListing.
func (r *ListingRepository) UpdateGuarded(ctx context.Context, listing *domain.Listing, guard domain.StatusGuard) error {
	oid, doc, err := r.prepare(listing)
	if err != nil {
		return err
	}

	filter := bson.M{
		"_id":        oid,
		"status":     guard.Status,
		"deleted_at": bson.M{"$exists": guard.Deleted},
	}

	res, err := r.collection.UpdateOne(ctx, filter, updateFor(doc))
	if err != nil {
		r.logger.Error("ListingRepository.UpdateGuarded: UpdateOne failed", "listing_id", listing.ID, "error", err)
		return err
	}
	if res.MatchedCount == 0 {
		if _, findErr := r.FindByID(ctx, listing.ID); errors.Is(findErr, domain.ErrListingNotFound) {
			return domain.ErrListingNotFound
		}
		r.logger.Warn("ListingRepository.UpdateGuarded: guard mismatch", "listing_id", listing.ID,
			"expected_status", string(guard.Status), "expected_deleted", guard.Deleted)
		return domain.ErrStaleListing
	}
	return nil
}

// Delete removes the listing row, conditional on it still being
// soft-deleted. A restore committed between the caller's read and this
// delete matches nothing and surfaces as ErrStaleListing.
func (r *ListingRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrListingNotFound
	}

	filter := bson.M{
		"_id":        oid,
		"deleted_at": bson.M{"$exists": true},
	}
	res, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		r.logger.Error("ListingRepository.Delete: DeleteOne failed", "listing_id", id, "error", err)
		return err
	}
	if res.DeletedCount == 0 {
		if _, findErr := r.FindByID(ctx, id); errors.Is(findErr, domain.ErrListingNotFound) {
			return domain.ErrListingNotFound
		}
		r.logger.Warn("ListingRepository.Delete: listing restored concurrently", "listing_id", id)
		return domain.ErrStaleListing
	}
	return nil
}

func (r *ListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrListingNotFound
	}

	var doc listingDocument
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrListingNotFound
		}
		r.logger.Error("ListingRepository.FindByID: FindOne failed", "listing_id", id, "error", err)
		return nil, err
	}
	return toDomainListing(&doc), nil
}

func (r *ListingRepository) FindByOwner(ctx context.Context, ownerID string) ([]*domain.Listing, error) {
	return r.findAll(ctx, bson.M{"owner_id": ownerID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

func (r *ListingRepository) FindPublished(ctx context.Context) ([]*domain.Listing, error) {
	filter := bson.M{
		"status":     domain.StatusApproved,
		"deleted_at": bson.M{"$exists": false},
	}
	return r.findAll(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

func (r *ListingRepository) FindModerationQueue(ctx context.Context) ([]*domain.Listing, error) {
	filter := bson.M{
		"status":     bson.M{"$in": bson.A{domain.StatusPending, domain.StatusRejected}},
		"deleted_at": bson.M{"$exists": false},
	}
	// Oldest first so the queue is worked in submission order.
	return r.findAll(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
}

func (r *ListingRepository) findAll(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.Listing, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("ListingRepository.findAll: Find failed", "error", err)
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []*listingDocument
	if err := cursor.All(ctx, &docs); err != nil {
		r.logger.Error("ListingRepository.findAll: cursor decode failed", "error", err)
		return nil, err
	}
	return toDomainListings(docs), nil
}

func (r *ListingRepository) prepare(listing *domain.Listing) (primitive.ObjectID, *listingDocument, error) {
	oid, err := primitive.ObjectIDFromHex(listing.ID)
	if err != nil {
		return primitive.NilObjectID, nil, domain.ErrListingNotFound
	}
	doc, err := toListingDocument(listing)
	if err != nil {
		return primitive.NilObjectID, nil, fmt.Errorf("failed to prepare listing for database: %w", err)
	}
	return oid, doc, nil
}

// updateFor builds the update document. deleted_at must be unset
// explicitly when the marker is nil; omitempty would otherwise leave a
// stale timestamp behind on restore.
func updateFor(doc *listingDocument) bson.M {
	update := bson.M{"$set": doc}
	if doc.DeletedAt == nil {
		update["$unset"] = bson.M{"deleted_at": ""}
	}
	return update
}
