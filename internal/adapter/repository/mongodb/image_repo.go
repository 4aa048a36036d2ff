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

type ImageRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewImageRepository(db *mongo.Database, log *logger.Logger) *ImageRepository {
	// A {listing_id: 1} index is expected on this collection; it is
	// created out of band alongside the listings indexes.
	return &ImageRepository{
		collection: db.Collection("images"),
		logger:     log,
	}
}

func (r *ImageRepository) Add(ctx context.Context, image *domain.Image) error {
	doc, err := toImageDocument(image)
	if err != nil {
		return fmt.Errorf("failed to prepare image for database: %w", err)
	}

	res, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		r.logger.Error("ImageRepository.Add: InsertOne failed", "listing_id", image.ListingID, "error", err)
		return err
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return errors.New("failed to retrieve generated image ID")
	}
	image.ID = oid.Hex()
	return nil
}

func (r *ImageRepository) Remove(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrImageNotFound
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		r.logger.Error("ImageRepository.Remove: DeleteOne failed", "image_id", id, "error", err)
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrImageNotFound
	}
	return nil
}

func (r *ImageRepository) RemoveByListing(ctx context.Context, listingID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"listing_id": listingID})
	if err != nil {
		r.logger.Error("ImageRepository.RemoveByListing: DeleteMany failed", "listing_id", listingID, "error", err)
	}
	return err
}

func (r *ImageRepository) FindByID(ctx context.Context, id string) (*domain.Image, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrImageNotFound
	}

	var doc imageDocument
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrImageNotFound
		}
		r.logger.Error("ImageRepository.FindByID: FindOne failed", "image_id", id, "error", err)
		return nil, err
	}
	img := toDomainImage(&doc)
	return &img, nil
}

func (r *ImageRepository) FindByListing(ctx context.Context, listingID string) ([]domain.Image, error) {
	// Insertion order; the first image is the display fallback when no
	// primary flag is set.
	cursor, err := r.collection.Find(ctx, bson.M{"listing_id": listingID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		r.logger.Error("ImageRepository.FindByListing: Find failed", "listing_id", listingID, "error", err)
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []*imageDocument
	if err := cursor.All(ctx, &docs); err != nil {
		r.logger.Error("ImageRepository.FindByListing: cursor decode failed", "listing_id", listingID, "error", err)
		return nil, err
	}
	return toDomainImages(docs), nil
}

// SetPrimary clears the flag across the listing's images before
// raising it on the target, keeping at most one primary.
func (r *ImageRepository) SetPrimary(ctx context.Context, listingID, imageID string) error {
	oid, err := primitive.ObjectIDFromHex(imageID)
	if err != nil {
		return domain.ErrImageNotFound
	}

	_, err = r.collection.UpdateMany(ctx,
		bson.M{"listing_id": listingID},
		bson.M{"$set": bson.M{"primary": false}})
	if err != nil {
		r.logger.Error("ImageRepository.SetPrimary: clear failed", "listing_id", listingID, "error", err)
		return err
	}

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": oid, "listing_id": listingID},
		bson.M{"$set": bson.M{"primary": true}})
	if err != nil {
		r.logger.Error("ImageRepository.SetPrimary: set failed", "image_id", imageID, "error", err)
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrImageNotFound
	}
	return nil
}
