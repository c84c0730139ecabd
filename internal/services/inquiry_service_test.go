package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/priyanshu-0212/my-agri-portal/internal/models"
)

func TestInquiryService_Create(t *testing.T) {
	db := setupTestDBUser(t, "testdb_inquiry_create")
	userSvc := NewUserService(db)
	productSvc := NewProductService(db)
	svc := NewInquiryService(db)
	ctx := context.Background()

	farmer := registerTestUser(t, userSvc, "inq_farmer", models.RoleFarmer)
	buyer := registerTestUser(t, userSvc, "inq_buyer", models.RoleBuyer)
	product, err := productSvc.Create(ctx, farmer.ActorFor(), riceInput())
	require.NoError(t, err)

	inquiry, err := svc.Create(ctx, buyer.ActorFor(), product.ID, "Is this organic?")
	require.NoError(t, err)
	assert.Equal(t, models.InquiryPending, inquiry.Status, "new inquiries always start pending")
	assert.Equal(t, buyer.ID, inquiry.BuyerID)
	assert.Equal(t, product.ID, inquiry.ProductID)

	// Farmers cannot inquire, not even on someone else's product; nothing
	// is written on the denied attempt.
	otherFarmer := registerTestUser(t, userSvc, "inq_other_farmer", models.RoleFarmer)
	_, err = svc.Create(ctx, otherFarmer.ActorFor(), product.ID, "How much?")
	assert.ErrorIs(t, err, ErrForbidden)
	inquiries, err := svc.ListForActor(ctx, buyer.ActorFor())
	require.NoError(t, err)
	assert.Len(t, inquiries, 1)

	// Empty message is rejected.
	_, err = svc.Create(ctx, buyer.ActorFor(), product.ID, "   ")
	require.Error(t, err)
	_, ok := AsValidationError(err)
	assert.True(t, ok)
}

func TestInquiryService_SetStatus(t *testing.T) {
	db := setupTestDBUser(t, "testdb_inquiry_status")
	userSvc := NewUserService(db)
	productSvc := NewProductService(db)
	svc := NewInquiryService(db)
	ctx := context.Background()

	farmer := registerTestUser(t, userSvc, "status_farmer", models.RoleFarmer)
	buyer := registerTestUser(t, userSvc, "status_buyer", models.RoleBuyer)
	stranger := registerTestUser(t, userSvc, "status_stranger", models.RoleFarmer)
	product, err := productSvc.Create(ctx, farmer.ActorFor(), riceInput())
	require.NoError(t, err)
	inquiry, err := svc.Create(ctx, buyer.ActorFor(), product.ID, "Price negotiable?")
	require.NoError(t, err)

	// Unknown token is rejected up front; the record is untouched.
	_, err = svc.SetStatus(ctx, farmer.ActorFor(), inquiry.ID, "archived")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	// Neither the buyer nor an unrelated farmer may move the status.
	_, err = svc.SetStatus(ctx, buyer.ActorFor(), inquiry.ID, "responded")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.SetStatus(ctx, stranger.ActorFor(), inquiry.ID, "responded")
	assert.ErrorIs(t, err, ErrForbidden)

	unchanged, err := svc.FindByID(ctx, inquiry.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InquiryPending, unchanged.Status)

	// The owning farmer may set any valid status, in any order.
	updated, err := svc.SetStatus(ctx, farmer.ActorFor(), inquiry.ID, "responded")
	require.NoError(t, err)
	assert.Equal(t, models.InquiryResponded, updated.Status)

	updated, err = svc.SetStatus(ctx, farmer.ActorFor(), inquiry.ID, "closed")
	require.NoError(t, err)
	assert.Equal(t, models.InquiryClosed, updated.Status)

	updated, err = svc.SetStatus(ctx, farmer.ActorFor(), inquiry.ID, "pending")
	require.NoError(t, err)
	assert.Equal(t, models.InquiryPending, updated.Status)
}

func TestInquiryService_ListScoping(t *testing.T) {
	db := setupTestDBUser(t, "testdb_inquiry_scoping")
	userSvc := NewUserService(db)
	productSvc := NewProductService(db)
	svc := NewInquiryService(db)
	ctx := context.Background()

	farmerA := registerTestUser(t, userSvc, "scope_farmer_a", models.RoleFarmer)
	farmerB := registerTestUser(t, userSvc, "scope_farmer_b", models.RoleFarmer)
	buyer1 := registerTestUser(t, userSvc, "scope_buyer_1", models.RoleBuyer)
	buyer2 := registerTestUser(t, userSvc, "scope_buyer_2", models.RoleBuyer)

	productA, err := productSvc.Create(ctx, farmerA.ActorFor(), riceInput())
	require.NoError(t, err)
	productB, err := productSvc.Create(ctx, farmerB.ActorFor(), riceInput())
	require.NoError(t, err)

	_, err = svc.Create(ctx, buyer1.ActorFor(), productA.ID, "From buyer1 on A")
	require.NoError(t, err)
	_, err = svc.Create(ctx, buyer2.ActorFor(), productA.ID, "From buyer2 on A")
	require.NoError(t, err)
	_, err = svc.Create(ctx, buyer1.ActorFor(), productB.ID, "From buyer1 on B")
	require.NoError(t, err)

	// Farmer A sees only inquiries against their products.
	forA, err := svc.ListForActor(ctx, farmerA.ActorFor())
	require.NoError(t, err)
	assert.Len(t, forA, 2)
	for _, inq := range forA {
		assert.Equal(t, productA.ID, inq.ProductID)
	}

	// Buyer1 sees only what they sent, across farmers.
	forBuyer1, err := svc.ListForActor(ctx, buyer1.ActorFor())
	require.NoError(t, err)
	assert.Len(t, forBuyer1, 2)
	for _, inq := range forBuyer1 {
		assert.Equal(t, buyer1.ID, inq.BuyerID)
	}

	// A farmer with no products sees an empty list, not an error.
	farmerC := registerTestUser(t, userSvc, "scope_farmer_c", models.RoleFarmer)
	forC, err := svc.ListForActor(ctx, farmerC.ActorFor())
	require.NoError(t, err)
	assert.Empty(t, forC)
}

// The full marketplace round trip: farmer lists rice, buyer inquires,
// farmer responds, buyer sees the response.
func TestInquiryService_EndToEnd(t *testing.T) {
	db := setupTestDBUser(t, "testdb_inquiry_e2e")
	userSvc := NewUserService(db)
	productSvc := NewProductService(db)
	svc := NewInquiryService(db)
	ctx := context.Background()

	farmer := registerTestUser(t, userSvc, "e2e_farmer", models.RoleFarmer)
	buyer := registerTestUser(t, userSvc, "e2e_buyer", models.RoleBuyer)

	rice, err := productSvc.Create(ctx, farmer.ActorFor(), ProductInput{
		Name:         "Rice",
		Quantity:     decimal.NewFromInt(10),
		Unit:         "kg",
		PricePerUnit: decimal.NewFromInt(20),
		IsAvailable:  true,
	})
	require.NoError(t, err)
	require.True(t, decimal.NewFromInt(200).Equal(rice.TotalPrice()))

	inquiry, err := svc.Create(ctx, buyer.ActorFor(), rice.ID, "I'd like 10kg of rice")
	require.NoError(t, err)

	farmerView, err := svc.ListForActor(ctx, farmer.ActorFor())
	require.NoError(t, err)
	require.Len(t, farmerView, 1)
	assert.Equal(t, models.InquiryPending, farmerView[0].Status)

	_, err = svc.SetStatus(ctx, farmer.ActorFor(), inquiry.ID, "responded")
	require.NoError(t, err)

	buyerView, err := svc.ListForActor(ctx, buyer.ActorFor())
	require.NoError(t, err)
	require.Len(t, buyerView, 1)
	assert.Equal(t, models.InquiryResponded, buyerView[0].Status)
}
