package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/priyanshu-0212/my-agri-portal/internal/db"
	"github.com/priyanshu-0212/my-agri-portal/internal/models"
	"github.com/priyanshu-0212/my-agri-portal/internal/policy"
)

// ProductInput carries the product form fields for create and edit.
type ProductInput struct {
	Name         string
	Quantity     decimal.Decimal
	Unit         string
	PricePerUnit decimal.Decimal
	Description  string
	IsAvailable  bool
}

func (in *ProductInput) validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(in.Name) == "" {
		fields["name"] = "name is required"
	}
	if strings.TrimSpace(in.Unit) == "" {
		fields["unit"] = "unit is required"
	}
	if in.Quantity.IsNegative() {
		fields["quantity"] = "quantity must not be negative"
	}
	if in.PricePerUnit.IsNegative() {
		fields["price_per_unit"] = "price per unit must not be negative"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// IProductService defines the interface for product-related operations.
type IProductService interface {
	Create(ctx context.Context, actor models.Actor, input ProductInput) (*models.Product, error)
	FindByID(ctx context.Context, productID primitive.ObjectID) (*models.Product, error)
	ListByFarmer(ctx context.Context, farmerID primitive.ObjectID) ([]models.Product, error)
	Update(ctx context.Context, actor models.Actor, productID primitive.ObjectID, input ProductInput) (*models.Product, error)
	Delete(ctx context.Context, actor models.Actor, productID primitive.ObjectID) error
	SetImage(ctx context.Context, productID primitive.ObjectID, imageKey string) error
}

const productsCollection = "products"

// productService implements IProductService.
type productService struct {
	db *mongo.Database
}

// NewProductService creates a new ProductService.
func NewProductService(database *mongo.Database) IProductService {
	return &productService{db: database}
}

// Create inserts a new product owned by the acting farmer.
func (s *productService) Create(ctx context.Context, actor models.Actor, input ProductInput) (*models.Product, error) {
	if !policy.CanCreateProduct(actor) {
		return nil, ErrForbidden
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	collection := s.db.Collection(productsCollection)
	now := time.Now().UTC()

	var newProduct *models.Product
	operation := func() error {
		newProduct = &models.Product{
			ID:           primitive.NewObjectID(),
			Name:         strings.TrimSpace(input.Name),
			Quantity:     input.Quantity,
			Unit:         strings.TrimSpace(input.Unit),
			PricePerUnit: input.PricePerUnit,
			Description:  strings.TrimSpace(input.Description),
			FarmerID:     actor.ID,
			IsAvailable:  input.IsAvailable,
			Deleted:      false,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		_, insertErr := collection.InsertOne(ctx, newProduct)
		return insertErr
	}

	if err := db.Try(operation); err != nil {
		return nil, fmt.Errorf("failed to insert product for farmer %s after multiple retries: %w",
			actor.ID.Hex(), err)
	}
	return newProduct, nil
}

// FindByID finds a non-deleted product by its ID. It does NOT check
// ownership; the detail page is public.
func (s *productService) FindByID(ctx context.Context, productID primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	collection := s.db.Collection(productsCollection)
	filter := bson.M{"_id": productID, "deleted": false}

	err := collection.FindOne(ctx, filter).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding product by ID %s: %w", productID.Hex(), err)
	}
	return &product, nil
}

// ListByFarmer returns all of a farmer's products, newest first, including
// ones marked unavailable. This feeds the farmer dashboard.
func (s *productService) ListByFarmer(ctx context.Context, farmerID primitive.ObjectID) ([]models.Product, error) {
	collection := s.db.Collection(productsCollection)
	filter := bson.M{"farmer_id": farmerID, "deleted": false}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list products for farmer %s: %w", farmerID.Hex(), err)
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products for farmer %s: %w", farmerID.Hex(), err)
	}
	return products, nil
}

// Update mutates a product after the ownership policy passes. The filter
// repeats the owner check so a concurrent ownership change cannot slip a
// write through.
func (s *productService) Update(ctx context.Context, actor models.Actor, productID primitive.ObjectID, input ProductInput) (*models.Product, error) {
	product, err := s.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !policy.CanModifyProduct(actor, product) {
		return nil, ErrForbidden
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	collection := s.db.Collection(productsCollection)
	filter := bson.M{"_id": productID, "farmer_id": actor.ID, "deleted": false}
	update := bson.M{"$set": bson.M{
		"name":           strings.TrimSpace(input.Name),
		"quantity":       input.Quantity,
		"unit":           strings.TrimSpace(input.Unit),
		"price_per_unit": input.PricePerUnit,
		"description":    strings.TrimSpace(input.Description),
		"is_available":   input.IsAvailable,
		"updated_at":     time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Product
	if err := collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("failed to update product %s: %w", productID.Hex(), err)
	}
	return &updated, nil
}

// Delete soft-deletes a product and cascades to every inquiry referencing
// it, matching the store's on-delete-cascade contract.
func (s *productService) Delete(ctx context.Context, actor models.Actor, productID primitive.ObjectID) error {
	product, err := s.FindByID(ctx, productID)
	if err != nil {
		return err
	}
	if !policy.CanModifyProduct(actor, product) {
		return ErrForbidden
	}

	now := time.Now().UTC()
	markDeleted := bson.M{"$set": bson.M{"deleted": true, "updated_at": now}}

	collection := s.db.Collection(productsCollection)
	result, err := collection.UpdateOne(ctx,
		bson.M{"_id": productID, "farmer_id": actor.ID, "deleted": false}, markDeleted)
	if err != nil {
		return fmt.Errorf("failed to delete product %s: %w", productID.Hex(), err)
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}

	if _, err := s.db.Collection(inquiriesCollection).UpdateMany(ctx,
		bson.M{"product_id": productID, "deleted": false}, markDeleted); err != nil {
		return fmt.Errorf("failed to cascade inquiry deletion for product %s: %w", productID.Hex(), err)
	}
	return nil
}

// SetImage attaches a processed image key to a product. Called by the
// image worker after resize, so it carries no actor.
func (s *productService) SetImage(ctx context.Context, productID primitive.ObjectID, imageKey string) error {
	collection := s.db.Collection(productsCollection)
	filter := bson.M{"_id": productID, "deleted": false}
	update := bson.M{"$set": bson.M{"image": imageKey, "updated_at": time.Now().UTC()}}

	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("db error setting image %s on product %s: %w", imageKey, productID.Hex(), err)
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
