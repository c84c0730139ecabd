package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/priyanshu-0212/my-agri-portal/internal/models"
	"github.com/priyanshu-0212/my-agri-portal/internal/policy"
)

// MarketRateInput carries the fields of an admin rate upsert.
type MarketRateInput struct {
	CropName     string
	AveragePrice decimal.Decimal
	Unit         string
	Notes        string
}

// IMarketRateService manages the reference pricing table.
type IMarketRateService interface {
	List(ctx context.Context, limit int) ([]models.MarketRate, error)
	Upsert(ctx context.Context, actor models.Actor, input MarketRateInput) (*models.MarketRate, error)
}

const marketRatesCollection = "market_rates"

type marketRateService struct {
	db *mongo.Database
}

// NewMarketRateService creates a new MarketRateService.
func NewMarketRateService(database *mongo.Database) IMarketRateService {
	return &marketRateService{db: database}
}

// List returns market rates ordered by crop name. limit <= 0 means all.
func (s *marketRateService) List(ctx context.Context, limit int) ([]models.MarketRate, error) {
	opts := options.Find().SetSort(bson.D{{Key: "crop_name", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := s.db.Collection(marketRatesCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list market rates: %w", err)
	}
	defer cursor.Close(ctx)

	rates := []models.MarketRate{}
	if err := cursor.All(ctx, &rates); err != nil {
		return nil, fmt.Errorf("failed to decode market rates: %w", err)
	}
	return rates, nil
}

// Upsert creates or replaces the rate for a crop, keyed by the unique crop
// name. LastUpdated is refreshed on every write.
func (s *marketRateService) Upsert(ctx context.Context, actor models.Actor, input MarketRateInput) (*models.MarketRate, error) {
	if !policy.CanUpsertMarketRate(actor) {
		return nil, ErrForbidden
	}

	cropName := strings.TrimSpace(input.CropName)
	fields := map[string]string{}
	if cropName == "" {
		fields["crop_name"] = "crop name is required"
	}
	if strings.TrimSpace(input.Unit) == "" {
		fields["unit"] = "unit is required"
	}
	if input.AveragePrice.IsNegative() {
		fields["average_price"] = "average price must not be negative"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	filter := bson.M{"crop_name": cropName}
	update := bson.M{
		"$set": bson.M{
			"average_price": input.AveragePrice,
			"unit":          strings.TrimSpace(input.Unit),
			"notes":         strings.TrimSpace(input.Notes),
			"last_updated":  time.Now().UTC(),
		},
		"$setOnInsert": bson.M{"crop_name": cropName},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var rate models.MarketRate
	if err := s.db.Collection(marketRatesCollection).
		FindOneAndUpdate(ctx, filter, update, opts).Decode(&rate); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("failed to upsert market rate for %q: %w", cropName, err)
	}
	return &rate, nil
}
