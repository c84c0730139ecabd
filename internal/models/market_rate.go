package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MarketRate is informational reference pricing for a crop, independent of
// any product listing. Crop names are unique; every write refreshes
// LastUpdated.
type MarketRate struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	CropName     string             `bson:"crop_name" json:"crop_name"`
	AveragePrice decimal.Decimal    `bson:"average_price" json:"average_price"`
	Unit         string             `bson:"unit" json:"unit"`
	Notes        string             `bson:"notes,omitempty" json:"notes,omitempty"`
	LastUpdated  time.Time          `bson:"last_updated" json:"last_updated"`
}
