package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/priyanshu-0212/my-agri-portal/internal/config"
	"github.com/priyanshu-0212/my-agri-portal/internal/models"
)

// SortMode orders the buyer-facing listing.
type SortMode string

const (
	SortNone           SortMode = ""
	SortPriceLowToHigh SortMode = "price_low_to_high"
	SortPriceHighToLow SortMode = "price_high_to_low"
)

// ParseSortMode maps the query parameter to a sort mode; anything
// unrecognized falls back to the default ordering rather than erroring.
func ParseSortMode(s string) SortMode {
	switch SortMode(s) {
	case SortPriceLowToHigh, SortPriceHighToLow:
		return SortMode(s)
	default:
		return SortNone
	}
}

// SearchOptions are the catalog query inputs. The buyer-facing listing is
// always availability-filtered; page/limit bound the result set.
type SearchOptions struct {
	Search string
	Sort   SortMode
	Page   int
	Limit  int
}

// HomePage is the featured slice shown on the landing page.
type HomePage struct {
	LatestProducts []models.Product   `json:"latest_products"`
	MarketRates    []models.MarketRate `json:"market_rates"`
}

const (
	homeCacheKey         = "home:featured"
	homeFeaturedProducts = 6
	homeFeaturedRates    = 5
)

// ICatalogService builds the buyer-facing product listings.
type ICatalogService interface {
	Search(ctx context.Context, opts SearchOptions) ([]models.Product, error)
	Home(ctx context.Context) (*HomePage, error)
}

// catalogService implements ICatalogService. Reads only; all writes go
// through the product and market-rate services.
type catalogService struct {
	db  *mongo.Database
	cfg *config.Config
	rdb *redis.Client
}

// NewCatalogService creates a new CatalogService. rdb may be nil, in which
// case the home page is served uncached.
func NewCatalogService(database *mongo.Database, cfg *config.Config, rdb *redis.Client) ICatalogService {
	return &catalogService{db: database, cfg: cfg, rdb: rdb}
}

// Search returns available products matching the options. Search text is a
// case-insensitive substring match on name or description — deliberately
// not tokenized and not ranked. Default order is newest first with _id as
// tiebreak, so identical store state and inputs always return the same page.
func (s *catalogService) Search(ctx context.Context, opts SearchOptions) ([]models.Product, error) {
	filter := bson.M{
		"is_available": true,
		"deleted":      false,
	}

	if opts.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(opts.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"description": pattern},
		}
	}

	var sort bson.D
	switch opts.Sort {
	case SortPriceLowToHigh:
		sort = bson.D{{Key: "price_per_unit", Value: 1}, {Key: "_id", Value: 1}}
	case SortPriceHighToLow:
		sort = bson.D{{Key: "price_per_unit", Value: -1}, {Key: "_id", Value: 1}}
	default:
		sort = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = s.cfg.CatalogDefaultLimit
	}
	if limit > s.cfg.CatalogMaxLimit {
		limit = s.cfg.CatalogMaxLimit
	}
	page := opts.Page
	if page < 1 {
		page = 1
	}

	findOpts := options.Find().
		SetSort(sort).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := s.db.Collection(productsCollection).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to execute catalog search: %w", err)
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode catalog search results: %w", err)
	}
	return products, nil
}

// Home returns the six newest available products and the first five market
// rates, served from Redis when a fresh copy exists.
func (s *catalogService) Home(ctx context.Context) (*HomePage, error) {
	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, homeCacheKey).Result()
		if err == nil {
			var page HomePage
			if err := json.Unmarshal([]byte(cached), &page); err == nil {
				return &page, nil
			}
			// Corrupt cache entry: fall through and rebuild.
		} else if !errors.Is(err, redis.Nil) {
			log.Printf("WARN: home cache read failed: %v", err)
		}
	}

	productOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(homeFeaturedProducts)
	cursor, err := s.db.Collection(productsCollection).Find(ctx,
		bson.M{"is_available": true, "deleted": false}, productOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch featured products: %w", err)
	}
	page := &HomePage{LatestProducts: []models.Product{}, MarketRates: []models.MarketRate{}}
	if err := cursor.All(ctx, &page.LatestProducts); err != nil {
		return nil, fmt.Errorf("failed to decode featured products: %w", err)
	}

	rateOpts := options.Find().
		SetSort(bson.D{{Key: "crop_name", Value: 1}}).
		SetLimit(homeFeaturedRates)
	rateCursor, err := s.db.Collection(marketRatesCollection).Find(ctx, bson.M{}, rateOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch featured market rates: %w", err)
	}
	if err := rateCursor.All(ctx, &page.MarketRates); err != nil {
		return nil, fmt.Errorf("failed to decode featured market rates: %w", err)
	}

	if s.rdb != nil {
		if data, err := json.Marshal(page); err == nil {
			if err := s.rdb.Set(ctx, homeCacheKey, data, s.cfg.HomeCacheTTL).Err(); err != nil {
				log.Printf("WARN: home cache write failed: %v", err)
			}
		}
	}
	return page, nil
}
