package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/priyanshu-0212/my-agri-portal/internal/db"
	"github.com/priyanshu-0212/my-agri-portal/internal/models"
	"github.com/priyanshu-0212/my-agri-portal/internal/policy"
)

// IInquiryService defines the interface for inquiry operations.
type IInquiryService interface {
	Create(ctx context.Context, actor models.Actor, productID primitive.ObjectID, message string) (*models.Inquiry, error)
	FindByID(ctx context.Context, inquiryID primitive.ObjectID) (*models.Inquiry, error)
	ListForActor(ctx context.Context, actor models.Actor) ([]models.Inquiry, error)
	SetStatus(ctx context.Context, actor models.Actor, inquiryID primitive.ObjectID, statusToken string) (*models.Inquiry, error)
}

const inquiriesCollection = "inquiries"

// inquiryService implements IInquiryService.
type inquiryService struct {
	db *mongo.Database
}

// NewInquiryService creates a new InquiryService.
func NewInquiryService(database *mongo.Database) IInquiryService {
	return &inquiryService{db: database}
}

// Create records a buyer's inquiry against a product, initial status
// pending. A non-buyer actor gets ErrForbidden and nothing is written.
func (s *inquiryService) Create(ctx context.Context, actor models.Actor, productID primitive.ObjectID, message string) (*models.Inquiry, error) {
	var product models.Product
	err := s.db.Collection(productsCollection).
		FindOne(ctx, bson.M{"_id": productID, "deleted": false}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding product %s for inquiry: %w", productID.Hex(), err)
	}

	if !policy.CanSendInquiry(actor, &product) {
		return nil, ErrForbidden
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, &ValidationError{Fields: map[string]string{"message": "message is required"}}
	}

	now := time.Now().UTC()
	var newInquiry *models.Inquiry
	operation := func() error {
		newInquiry = &models.Inquiry{
			ID:        primitive.NewObjectID(),
			BuyerID:   actor.ID,
			ProductID: productID,
			Message:   message,
			Status:    models.InquiryPending,
			Deleted:   false,
			CreatedAt: now,
			UpdatedAt: now,
		}
		_, insertErr := s.db.Collection(inquiriesCollection).InsertOne(ctx, newInquiry)
		return insertErr
	}

	if err := db.Try(operation); err != nil {
		return nil, fmt.Errorf("failed to insert inquiry for product %s after multiple retries: %w",
			productID.Hex(), err)
	}
	return newInquiry, nil
}

// FindByID finds a non-deleted inquiry by ID.
func (s *inquiryService) FindByID(ctx context.Context, inquiryID primitive.ObjectID) (*models.Inquiry, error) {
	var inquiry models.Inquiry
	filter := bson.M{"_id": inquiryID, "deleted": false}

	err := s.db.Collection(inquiriesCollection).FindOne(ctx, filter).Decode(&inquiry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding inquiry by ID %s: %w", inquiryID.Hex(), err)
	}
	return &inquiry, nil
}

// ListForActor returns the actor's slice of the inquiry pool, newest first:
// buyers see the inquiries they made, farmers the inquiries against their
// products. Viewing is always allowed; only the scope differs.
func (s *inquiryService) ListForActor(ctx context.Context, actor models.Actor) ([]models.Inquiry, error) {
	var filter bson.M
	switch policy.InquiryScopeFor(actor) {
	case policy.ScopeAsFarmer:
		productIDs, err := s.ownedProductIDs(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		if len(productIDs) == 0 {
			return []models.Inquiry{}, nil
		}
		filter = bson.M{"product_id": bson.M{"$in": productIDs}, "deleted": false}
	default:
		filter = bson.M{"buyer_id": actor.ID, "deleted": false}
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := s.db.Collection(inquiriesCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list inquiries for actor %s: %w", actor.ID.Hex(), err)
	}
	defer cursor.Close(ctx)

	inquiries := []models.Inquiry{}
	if err := cursor.All(ctx, &inquiries); err != nil {
		return nil, fmt.Errorf("failed to decode inquiries for actor %s: %w", actor.ID.Hex(), err)
	}
	return inquiries, nil
}

// SetStatus overwrites an inquiry's status after validating the token and
// the owning-farmer policy. Any valid status may replace any other; order
// is not enforced. Denied or invalid attempts leave the record untouched.
func (s *inquiryService) SetStatus(ctx context.Context, actor models.Actor, inquiryID primitive.ObjectID, statusToken string) (*models.Inquiry, error) {
	status, err := models.ParseInquiryStatus(statusToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, statusToken)
	}

	inquiry, err := s.FindByID(ctx, inquiryID)
	if err != nil {
		return nil, err
	}

	var product models.Product
	err = s.db.Collection(productsCollection).
		FindOne(ctx, bson.M{"_id": inquiry.ProductID}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding product %s of inquiry %s: %w",
			inquiry.ProductID.Hex(), inquiryID.Hex(), err)
	}

	if !policy.CanUpdateInquiryStatus(actor, &product) {
		return nil, ErrForbidden
	}

	filter := bson.M{"_id": inquiryID, "deleted": false}
	update := bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Inquiry
	if err := s.db.Collection(inquiriesCollection).
		FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("failed to update status of inquiry %s: %w", inquiryID.Hex(), err)
	}
	return &updated, nil
}

func (s *inquiryService) ownedProductIDs(ctx context.Context, farmerID primitive.ObjectID) ([]primitive.ObjectID, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := s.db.Collection(productsCollection).Find(ctx,
		bson.M{"farmer_id": farmerID, "deleted": false}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list products of farmer %s: %w", farmerID.Hex(), err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode product IDs of farmer %s: %w", farmerID.Hex(), err)
	}
	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}
