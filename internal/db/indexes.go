package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the application relies on. Username,
// email and crop name uniqueness is enforced here rather than re-checked on
// every access; soft-deleted users are excluded via partial filters so a
// deleted account frees its username and email.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	notDeleted := bson.M{"deleted": bson.M{"$eq": false}}

	userIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(notDeleted),
		},
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(notDeleted),
		},
	}
	if _, err := db.Collection("users").Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	productIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "farmer_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "is_available", Value: 1}, {Key: "created_at", Value: -1}}},
	}
	if _, err := db.Collection("products").Indexes().CreateMany(ctx, productIndexes); err != nil {
		return fmt.Errorf("failed to create product indexes: %w", err)
	}

	rateIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "crop_name", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := db.Collection("market_rates").Indexes().CreateOne(ctx, rateIndex); err != nil {
		return fmt.Errorf("failed to create market rate index: %w", err)
	}

	inquiryIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "product_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "buyer_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}
	if _, err := db.Collection("inquiries").Indexes().CreateMany(ctx, inquiryIndexes); err != nil {
		return fmt.Errorf("failed to create inquiry indexes: %w", err)
	}

	return nil
}
