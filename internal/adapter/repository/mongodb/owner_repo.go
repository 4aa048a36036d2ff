package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kehillahub/gemach-directory/internal/platform/logger"
)

// OwnerRepository reads owner contact details from the shared users
// collection maintained by the identity service. This service never
// writes to it.
type OwnerRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewOwnerRepository(db *mongo.Database, log *logger.Logger) *OwnerRepository {
	return &OwnerRepository{
		collection: db.Collection("users"),
		logger:     log,
	}
}

func (r *OwnerRepository) GetEmailByID(ctx context.Context, ownerID string) (string, error) {
	oid, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return "", fmt.Errorf("invalid owner ID format: %w", err)
	}

	var doc struct {
		Email string `bson:"email"`
	}
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			r.logger.Info("OwnerRepository.GetEmailByID: owner not found", "owner_id", ownerID)
			return "", errors.New("owner not found")
		}
		r.logger.Error("OwnerRepository.GetEmailByID: FindOne failed", "owner_id", ownerID, "error", err)
		return "", err
	}
	return doc.Email, nil
}
