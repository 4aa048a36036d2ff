package mongodb

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kehillahub/gemach-directory/internal/directory/domain"
)

type listingDocument struct {
	ID           primitive.ObjectID      `bson:"_id,omitempty"`
	Name         string                  `bson:"name"`
	Category     string                  `bson:"category"`
	Neighborhood string                  `bson:"neighborhood"`
	Description  string                  `bson:"description"`
	Address      string                  `bson:"address"`
	Phone        string                  `bson:"phone"`
	ManagerPhone string                  `bson:"manager_phone,omitempty"`
	Email        string                  `bson:"email,omitempty"`
	Hours        string                  `bson:"hours"`
	HasFee       bool                    `bson:"has_fee"`
	FeeDetails   string                  `bson:"fee_details,omitempty"`
	Website      string                  `bson:"website,omitempty"`
	OwnerID      string                  `bson:"owner_id,omitempty"`
	Status       domain.ModerationStatus `bson:"status"`
	DeletedAt    *time.Time              `bson:"deleted_at,omitempty"`
	CreatedAt    time.Time               `bson:"created_at"`
	UpdatedAt    time.Time               `bson:"updated_at"`
}

type imageDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	ListingID   string             `bson:"listing_id"`
	StoragePath string             `bson:"storage_path"`
	Primary     bool               `bson:"primary"`
	CreatedAt   time.Time          `bson:"created_at"`
}

// toListingDocument converts the domain model for storage. An empty
// domain ID leaves the document ID as NilObjectID so InsertOne
// generates one; the repository writes the generated hex back onto the
// domain object.
func toListingDocument(l *domain.Listing) (*listingDocument, error) {
	if l == nil {
		return nil, nil
	}

	docID, err := objectIDFromDomain(l.ID)
	if err != nil {
		return nil, fmt.Errorf("toListingDocument: %w", err)
	}

	return &listingDocument{
		ID:           docID,
		Name:         l.Name,
		Category:     l.Category,
		Neighborhood: l.Neighborhood,
		Description:  l.Description,
		Address:      l.Address,
		Phone:        l.Phone,
		ManagerPhone: l.ManagerPhone,
		Email:        l.Email,
		Hours:        l.Hours,
		HasFee:       l.HasFee,
		FeeDetails:   l.FeeDetails,
		Website:      l.Website,
		OwnerID:      l.OwnerID,
		Status:       l.Status,
		DeletedAt:    l.DeletedAt,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}, nil
}

func toDomainListing(d *listingDocument) *domain.Listing {
	if d == nil {
		return nil
	}
	return &domain.Listing{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Category:     d.Category,
		Neighborhood: d.Neighborhood,
		Description:  d.Description,
		Address:      d.Address,
		Phone:        d.Phone,
		ManagerPhone: d.ManagerPhone,
		Email:        d.Email,
		Hours:        d.Hours,
		HasFee:       d.HasFee,
		FeeDetails:   d.FeeDetails,
		Website:      d.Website,
		OwnerID:      d.OwnerID,
		Status:       d.Status,
		DeletedAt:    d.DeletedAt,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func toDomainListings(docs []*listingDocument) []*domain.Listing {
	out := make([]*domain.Listing, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toDomainListing(doc))
	}
	return out
}

func toImageDocument(img *domain.Image) (*imageDocument, error) {
	if img == nil {
		return nil, nil
	}

	docID, err := objectIDFromDomain(img.ID)
	if err != nil {
		return nil, fmt.Errorf("toImageDocument: %w", err)
	}

	return &imageDocument{
		ID:          docID,
		ListingID:   img.ListingID,
		StoragePath: img.StoragePath,
		Primary:     img.Primary,
		CreatedAt:   img.CreatedAt,
	}, nil
}

func toDomainImage(d *imageDocument) domain.Image {
	return domain.Image{
		ID:          d.ID.Hex(),
		ListingID:   d.ListingID,
		StoragePath: d.StoragePath,
		Primary:     d.Primary,
		CreatedAt:   d.CreatedAt,
	}
}

func toDomainImages(docs []*imageDocument) []domain.Image {
	out := make([]domain.Image, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toDomainImage(doc))
	}
	return out
}

func objectIDFromDomain(id string) (primitive.ObjectID, error) {
	if id == "" {
		return primitive.NilObjectID, nil
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid ID format %q: %w", id, err)
	}
	return oid, nil
}
