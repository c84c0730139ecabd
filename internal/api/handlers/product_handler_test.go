package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/priyanshu-0212/my-agri-portal/internal/api/handlers"
	"github.com/priyanshu-0212/my-agri-portal/internal/models"
	"github.com/priyanshu-0212/my-agri-portal/internal/services"
)

func TestProductHandler_Detail_IncludesTotalPrice(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockProductSvc := new(MockProductService)
	handler := handlers.NewProductHandler(mockProductSvc, nil, nil)

	r := gin.New()
	r.GET("/product/:id", handler.Detail)

	productID := primitive.NewObjectID()
	product := &models.Product{
		ID:           productID,
		Name:         "Rice",
		Quantity:     decimal.NewFromInt(10),
		Unit:         "kg",
		PricePerUnit: decimal.NewFromInt(20),
		IsAvailable:  true,
	}
	mockProductSvc.On("FindByID", mock.Anything, productID).Return(product, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/product/"+productID.Hex(), nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Product struct {
			Name       string          `json:"name"`
			TotalPrice decimal.Decimal `json:"total_price"`
		} `json:"product"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Rice", body.Product.Name)
	assert.True(t, decimal.NewFromInt(200).Equal(body.Product.TotalPrice))
	mockProductSvc.AssertExpectations(t)
}

func TestProductHandler_Detail_NotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockProductSvc := new(MockProductService)
	handler := handlers.NewProductHandler(mockProductSvc, nil, nil)

	r := gin.New()
	r.GET("/product/:id", handler.Detail)

	productID := primitive.NewObjectID()
	mockProductSvc.On("FindByID", mock.Anything, productID).Return(nil, mongo.ErrNoDocuments)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/product/"+productID.Hex(), nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	// Malformed IDs are a 400, not a store lookup.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/product/not-an-id", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	mockProductSvc.AssertExpectations(t)
}

func TestProductHandler_Add(t *testing.T) {
	gin.SetMode(gin.TestMode)
	farmer := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleFarmer}
	mockProductSvc := new(MockProductService)
	handler := handlers.NewProductHandler(mockProductSvc, nil, nil)

	r := gin.New()
	r.POST("/farmer/product/add", actorInjector(farmer), handler.Add)

	created := &models.Product{
		ID:           primitive.NewObjectID(),
		Name:         "Rice",
		Quantity:     decimal.NewFromInt(10),
		Unit:         "kg",
		PricePerUnit: decimal.NewFromInt(20),
		FarmerID:     farmer.ID,
		IsAvailable:  true,
	}
	mockProductSvc.On("Create", mock.Anything, farmer, mock.MatchedBy(func(in services.ProductInput) bool {
		return in.Name == "Rice" && in.IsAvailable
	})).Return(created, nil)

	w := postJSON(r, "/farmer/product/add", gin.H{
		"name":           "Rice",
		"quantity":       "10",
		"unit":           "kg",
		"price_per_unit": "20",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	mockProductSvc.AssertExpectations(t)
}

func TestProductHandler_Edit_ValidationError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	farmer := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleFarmer}
	mockProductSvc := new(MockProductService)
	handler := handlers.NewProductHandler(mockProductSvc, nil, nil)

	r := gin.New()
	r.POST("/farmer/product/:id/edit", actorInjector(farmer), handler.Edit)

	productID := primitive.NewObjectID()
	mockProductSvc.On("Update", mock.Anything, farmer, productID, mock.Anything).
		Return(nil, &services.ValidationError{Fields: map[string]string{"quantity": "quantity must not be negative"}})

	w := postJSON(r, "/farmer/product/"+productID.Hex()+"/edit", gin.H{
		"name":           "Rice",
		"quantity":       "-1",
		"unit":           "kg",
		"price_per_unit": "20",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "quantity")
	mockProductSvc.AssertExpectations(t)
}

func TestProductHandler_Delete_Forbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	other := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleFarmer}
	mockProductSvc := new(MockProductService)
	handler := handlers.NewProductHandler(mockProductSvc, nil, nil)

	r := gin.New()
	r.POST("/farmer/product/:id/delete", actorInjector(other), handler.Delete)

	productID := primitive.NewObjectID()
	mockProductSvc.On("Delete", mock.Anything, other, productID).Return(services.ErrForbidden)

	w := postJSON(r, "/farmer/product/"+productID.Hex()+"/delete", nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
	mockProductSvc.AssertExpectations(t)
}
