package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/priyanshu-0212/my-agri-portal/internal/models"
)

func riceInput() ProductInput {
	return ProductInput{
		Name:         "Rice",
		Quantity:     decimal.NewFromInt(10),
		Unit:         "kg",
		PricePerUnit: decimal.NewFromInt(20),
		Description:  "Basmati, this season's harvest",
		IsAvailable:  true,
	}
}

func TestProductService_CreateAndFind(t *testing.T) {
	db := setupTestDBUser(t, "testdb_product_service_create")
	userSvc := NewUserService(db)
	svc := NewProductService(db)
	ctx := context.Background()

	farmer := registerTestUser(t, userSvc, "rice_farmer", models.RoleFarmer)
	buyer := registerTestUser(t, userSvc, "rice_buyer", models.RoleBuyer)

	product, err := svc.Create(ctx, farmer.ActorFor(), riceInput())
	require.NoError(t, err)
	assert.Equal(t, "Rice", product.Name)
	assert.Equal(t, farmer.ID, product.FarmerID)
	assert.True(t, decimal.NewFromInt(200).Equal(product.TotalPrice()))

	found, err := svc.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, product.ID, found.ID)
	assert.True(t, decimal.NewFromInt(10).Equal(found.Quantity), "quantity must round-trip through BSON exactly")
	assert.True(t, decimal.NewFromInt(20).Equal(found.PricePerUnit))

	// Buyers cannot create products, and nothing is written.
	_, err = svc.Create(ctx, buyer.ActorFor(), riceInput())
	assert.ErrorIs(t, err, ErrForbidden)
	products, err := svc.ListByFarmer(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestProductService_CreateValidation(t *testing.T) {
	db := setupTestDBUser(t, "testdb_product_service_validation")
	userSvc := NewUserService(db)
	svc := NewProductService(db)
	ctx := context.Background()

	farmer := registerTestUser(t, userSvc, "validation_farmer", models.RoleFarmer)

	input := riceInput()
	input.Name = ""
	input.Quantity = decimal.NewFromInt(-1)
	_, err := svc.Create(ctx, farmer.ActorFor(), input)
	require.Error(t, err)
	vErr, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, vErr.Fields, "name")
	assert.Contains(t, vErr.Fields, "quantity")
}

func TestProductService_UpdateOwnership(t *testing.T) {
	db := setupTestDBUser(t, "testdb_product_service_update")
	userSvc := NewUserService(db)
	svc := NewProductService(db)
	ctx := context.Background()

	owner := registerTestUser(t, userSvc, "owner_farmer", models.RoleFarmer)
	other := registerTestUser(t, userSvc, "other_farmer", models.RoleFarmer)

	product, err := svc.Create(ctx, owner.ActorFor(), riceInput())
	require.NoError(t, err)

	updated := riceInput()
	updated.PricePerUnit = decimal.NewFromInt(25)
	updated.IsAvailable = false

	// Another farmer cannot touch it.
	_, err = svc.Update(ctx, other.ActorFor(), product.ID, updated)
	assert.ErrorIs(t, err, ErrForbidden)

	// The denied attempt changed nothing.
	unchanged, err := svc.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(20).Equal(unchanged.PricePerUnit))
	assert.True(t, unchanged.IsAvailable)

	// The owner can.
	after, err := svc.Update(ctx, owner.ActorFor(), product.ID, updated)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(25).Equal(after.PricePerUnit))
	assert.False(t, after.IsAvailable)
}

func TestProductService_DeleteCascadesToInquiries(t *testing.T) {
	db := setupTestDBUser(t, "testdb_product_service_delete")
	userSvc := NewUserService(db)
	svc := NewProductService(db)
	inquirySvc := NewInquiryService(db)
	ctx := context.Background()

	farmer := registerTestUser(t, userSvc, "delete_farmer", models.RoleFarmer)
	buyer := registerTestUser(t, userSvc, "delete_buyer", models.RoleBuyer)

	product, err := svc.Create(ctx, farmer.ActorFor(), riceInput())
	require.NoError(t, err)
	inquiry, err := inquirySvc.Create(ctx, buyer.ActorFor(), product.ID, "How fresh is it?")
	require.NoError(t, err)

	// Non-owner delete is forbidden and leaves everything intact.
	err = svc.Delete(ctx, buyer.ActorFor(), product.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.FindByID(ctx, product.ID)
	assert.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, farmer.ActorFor(), product.ID))

	_, err = svc.FindByID(ctx, product.ID)
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)
	_, err = inquirySvc.FindByID(ctx, inquiry.ID)
	assert.ErrorIs(t, err, mongo.ErrNoDocuments, "inquiries must not dangle after product deletion")

	inquiries, err := inquirySvc.ListForActor(ctx, buyer.ActorFor())
	require.NoError(t, err)
	assert.Empty(t, inquiries)
}

func TestProductService_SetImage(t *testing.T) {
	db := setupTestDBUser(t, "testdb_product_service_image")
	userSvc := NewUserService(db)
	svc := NewProductService(db)
	ctx := context.Background()

	farmer := registerTestUser(t, userSvc, "image_farmer", models.RoleFarmer)
	product, err := svc.Create(ctx, farmer.ActorFor(), riceInput())
	require.NoError(t, err)

	key := "products/x/y/processed/rice.jpg"
	require.NoError(t, svc.SetImage(ctx, product.ID, key))

	found, err := svc.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, key, found.Image)
}
