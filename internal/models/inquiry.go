package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InquiryStatus is the workflow state of an inquiry. The set is closed;
// unknown tokens are rejected at the boundary. Any valid status may be
// written over any other by the owning farmer — "closed" is terminal by
// convention only, not enforced.
type InquiryStatus string

const (
	InquiryPending   InquiryStatus = "pending"
	InquiryResponded InquiryStatus = "responded"
	InquiryClosed    InquiryStatus = "closed"
)

// ParseInquiryStatus validates a status token from a route parameter.
func ParseInquiryStatus(s string) (InquiryStatus, error) {
	switch InquiryStatus(s) {
	case InquiryPending, InquiryResponded, InquiryClosed:
		return InquiryStatus(s), nil
	default:
		return "", fmt.Errorf("unknown inquiry status %q", s)
	}
}

// Inquiry is a buyer's message about a product, answered by the product's
// farmer through status updates.
type Inquiry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	BuyerID   primitive.ObjectID `bson:"buyer_id" json:"buyer_id"`
	ProductID primitive.ObjectID `bson:"product_id" json:"product_id"`
	Message   string             `bson:"message" json:"message"`
	Status    InquiryStatus      `bson:"status" json:"status"`
	Deleted   bool               `bson:"deleted" json:"-"` // Soft delete flag (set by cascade)
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
