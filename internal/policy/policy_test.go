package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/priyanshu-0212/my-agri-portal/internal/models"
)

func farmerActor() models.Actor {
	return models.Actor{ID: primitive.NewObjectID(), Role: models.RoleFarmer}
}

func buyerActor() models.Actor {
	return models.Actor{ID: primitive.NewObjectID(), Role: models.RoleBuyer}
}

func TestCanCreateProduct(t *testing.T) {
	assert.True(t, CanCreateProduct(farmerActor()))
	assert.False(t, CanCreateProduct(buyerActor()))

	admin := buyerActor()
	admin.IsAdmin = true
	assert.False(t, CanCreateProduct(admin), "admin flag does not grant farmer abilities")
}

func TestCanModifyProduct(t *testing.T) {
	owner := farmerActor()
	otherFarmer := farmerActor()
	product := &models.Product{ID: primitive.NewObjectID(), FarmerID: owner.ID}

	assert.True(t, CanModifyProduct(owner, product))
	assert.False(t, CanModifyProduct(otherFarmer, product), "ownership is per product, not per role")
	assert.False(t, CanModifyProduct(buyerActor(), product))
}

func TestCanSendInquiry(t *testing.T) {
	farmer := farmerActor()
	product := &models.Product{ID: primitive.NewObjectID(), FarmerID: farmer.ID}

	assert.True(t, CanSendInquiry(buyerActor(), product))
	assert.False(t, CanSendInquiry(farmer, product), "farmers cannot send inquiries, even on others' products")
}

func TestCanUpdateInquiryStatus(t *testing.T) {
	owner := farmerActor()
	product := &models.Product{ID: primitive.NewObjectID(), FarmerID: owner.ID}

	assert.True(t, CanUpdateInquiryStatus(owner, product))
	assert.False(t, CanUpdateInquiryStatus(farmerActor(), product))
	assert.False(t, CanUpdateInquiryStatus(buyerActor(), product))
}

func TestCanUpsertMarketRate(t *testing.T) {
	admin := buyerActor()
	admin.IsAdmin = true

	assert.True(t, CanUpsertMarketRate(admin))
	assert.False(t, CanUpsertMarketRate(buyerActor()))
	assert.False(t, CanUpsertMarketRate(farmerActor()))
}

func TestInquiryScopeFor(t *testing.T) {
	assert.Equal(t, ScopeAsFarmer, InquiryScopeFor(farmerActor()))
	assert.Equal(t, ScopeAsBuyer, InquiryScopeFor(buyerActor()))
}
