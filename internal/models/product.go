package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is a crop listed for sale by a farmer.
type Product struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name         string             `bson:"name" json:"name"`
	Quantity     decimal.Decimal    `bson:"quantity" json:"quantity"`
	Unit         string             `bson:"unit" json:"unit"` // kg, ton, quintal, etc.
	PricePerUnit decimal.Decimal    `bson:"price_per_unit" json:"price_per_unit"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	Image        string             `bson:"image,omitempty" json:"image,omitempty"` // S3 key
	FarmerID     primitive.ObjectID `bson:"farmer_id" json:"farmer_id"`
	IsAvailable  bool               `bson:"is_available" json:"is_available"`
	Deleted      bool               `bson:"deleted" json:"-"` // Soft delete flag
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// TotalPrice is quantity × price per unit. Derived, never stored.
func (p *Product) TotalPrice() decimal.Decimal {
	return p.Quantity.Mul(p.PricePerUnit)
}
