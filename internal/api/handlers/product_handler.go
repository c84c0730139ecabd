package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/priyanshu-0212/my-agri-portal/internal/api/middleware"
	"github.com/priyanshu-0212/my-agri-portal/internal/models"
	"github.com/priyanshu-0212/my-agri-portal/internal/policy"
	"github.com/priyanshu-0212/my-agri-portal/internal/services"
	"github.com/priyanshu-0212/my-agri-portal/internal/storage"
	"github.com/priyanshu-0212/my-agri-portal/internal/tasks"
)

// ProductHandler handles the farmer-side product routes and the public
// product detail.
type ProductHandler struct {
	productService services.IProductService
	storageService storage.IS3Storage
	taskClient     *asynq.Client
}

// NewProductHandler creates a new ProductHandler. storageService and
// taskClient may be nil when image handling is disabled.
func NewProductHandler(productService services.IProductService, storageService storage.IS3Storage, taskClient *asynq.Client) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		storageService: storageService,
		taskClient:     taskClient,
	}
}

// ProductRequest defines the JSON body for product create and edit.
type ProductRequest struct {
	Name         string          `json:"name" binding:"required"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         string          `json:"unit" binding:"required"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	Description  string          `json:"description"`
	IsAvailable  *bool           `json:"is_available"`
}

func (r *ProductRequest) toInput() services.ProductInput {
	available := true
	if r.IsAvailable != nil {
		available = *r.IsAvailable
	}
	return services.ProductInput{
		Name:         r.Name,
		Quantity:     r.Quantity,
		Unit:         r.Unit,
		PricePerUnit: r.PricePerUnit,
		Description:  r.Description,
		IsAvailable:  available,
	}
}

// productView augments a product with its derived total price.
type productView struct {
	models.Product
	TotalPrice decimal.Decimal `json:"total_price"`
}

func viewOf(p *models.Product) productView {
	return productView{Product: *p, TotalPrice: p.TotalPrice()}
}

// Dashboard handles GET /farmer/dashboard: the farmer's own products,
// unavailable ones included.
func (h *ProductHandler) Dashboard(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	products, err := h.productService.ListByFarmer(c.Request.Context(), actor.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	views := make([]productView, 0, len(products))
	for i := range products {
		views = append(views, viewOf(&products[i]))
	}
	c.JSON(http.StatusOK, gin.H{"products": views})
}

// Add handles POST /farmer/product/add.
func (h *ProductHandler) Add(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	product, err := h.productService.Create(c.Request.Context(), actor, req.toInput())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"product": viewOf(product)})
}

// GetForEdit handles GET /farmer/product/:id/edit: returns the record the
// edit form would be prefilled with. Only the owner may fetch it this way.
func (h *ProductHandler) GetForEdit(c *gin.Context) {
	_, product, ok := h.loadOwned(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": viewOf(product)})
}

// Edit handles POST /farmer/product/:id/edit.
func (h *ProductHandler) Edit(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	productID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	product, err := h.productService.Update(c.Request.Context(), actor, productID, req.toInput())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": viewOf(product)})
}

// GetForDelete handles GET /farmer/product/:id/delete: the confirmation
// view, owner only.
func (h *ProductHandler) GetForDelete(c *gin.Context) {
	_, product, ok := h.loadOwned(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": viewOf(product)})
}

// Delete handles POST /farmer/product/:id/delete. Inquiries against the
// product go with it.
func (h *ProductHandler) Delete(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	productID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	if err := h.productService.Delete(c.Request.Context(), actor, productID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}

// Detail handles GET /product/:id: the public product detail.
func (h *ProductHandler) Detail(c *gin.Context) {
	productID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	product, err := h.productService.FindByID(c.Request.Context(), productID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": viewOf(product)})
}

// ImageUploadRequest defines the JSON body for requesting an image upload.
type ImageUploadRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
}

// RequestImageUpload handles POST /farmer/product/:id/image. Returns a
// presigned S3 PUT URL the client uploads the raw image to, plus the object
// key to hand back on completion.
func (h *ProductHandler) RequestImageUpload(c *gin.Context) {
	actor, product, ok := h.loadOwned(c)
	if !ok {
		return
	}
	if h.storageService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Image uploads are not enabled"})
		return
	}

	var req ImageUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	url, key, err := h.storageService.GeneratePresignedPutURL(
		c.Request.Context(), actor.ID.Hex(), product.ID.Hex(), req.Filename, req.ContentType)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate upload URL"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"upload_url": url, "s3_key": key})
}

// ImageCompleteRequest defines the JSON body for the upload-complete callback.
type ImageCompleteRequest struct {
	S3Key string `json:"s3_key" binding:"required"`
}

// CompleteImageUpload handles POST /farmer/product/:id/image/complete: the
// raw object is on S3, so the resize task is enqueued.
func (h *ProductHandler) CompleteImageUpload(c *gin.Context) {
	_, product, ok := h.loadOwned(c)
	if !ok {
		return
	}
	if h.taskClient == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Image processing is not enabled"})
		return
	}

	var req ImageCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	task, err := tasks.NewImageProcessTask(product.ID, req.S3Key)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create processing task"})
		return
	}
	if _, err := h.taskClient.EnqueueContext(c.Request.Context(), task); err != nil {
		log.Printf("Failed to enqueue image task for product %s: %v", product.ID.Hex(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue image processing"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "Image queued for processing"})
}

// loadOwned parses the :id param, loads the product and enforces ownership.
// On failure it writes the response and returns ok=false.
func (h *ProductHandler) loadOwned(c *gin.Context) (models.Actor, *models.Product, bool) {
	actor, okActor := middleware.ActorFrom(c)
	if !okActor {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return models.Actor{}, nil, false
	}

	productID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return actor, nil, false
	}

	product, err := h.productService.FindByID(c.Request.Context(), productID)
	if err != nil {
		respondServiceError(c, err)
		return actor, nil, false
	}

	if !policy.CanModifyProduct(actor, product) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to perform this action"})
		return actor, nil, false
	}
	return actor, product, true
}
