package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/priyanshu-0212/my-agri-portal/internal/api/middleware"
	"github.com/priyanshu-0212/my-agri-portal/internal/services"
	"github.com/priyanshu-0212/my-agri-portal/internal/tasks"
)

// InquiryHandler handles buyer inquiries and the farmer status workflow.
type InquiryHandler struct {
	inquiryService services.IInquiryService
	productService services.IProductService
	taskClient     *asynq.Client
}

// NewInquiryHandler creates a new InquiryHandler. taskClient may be nil, in
// which case no notification emails are queued.
func NewInquiryHandler(inquiryService services.IInquiryService, productService services.IProductService, taskClient *asynq.Client) *InquiryHandler {
	return &InquiryHandler{
		inquiryService: inquiryService,
		productService: productService,
		taskClient:     taskClient,
	}
}

// GetInquiryForm handles GET /product/:id/inquiry: returns the product the
// inquiry form is about.
func (h *InquiryHandler) GetInquiryForm(c *gin.Context) {
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

// InquiryRequest defines the JSON body for POST /product/:id/inquiry.
type InquiryRequest struct {
	Message string `json:"message" binding:"required"`
}

// SendInquiry handles POST /product/:id/inquiry. The new inquiry starts
// pending; a notification email to the farmer is queued best-effort.
func (h *InquiryHandler) SendInquiry(c *gin.Context) {
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

	var req InquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	inquiry, err := h.inquiryService.Create(c.Request.Context(), actor, productID, req.Message)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if h.taskClient != nil {
		if task, taskErr := tasks.NewInquiryNotifyTask(inquiry.ID); taskErr == nil {
			if _, enqErr := h.taskClient.EnqueueContext(c.Request.Context(), task); enqErr != nil {
				log.Printf("Failed to enqueue notification for inquiry %s: %v", inquiry.ID.Hex(), enqErr)
			}
		}
	}

	c.JSON(http.StatusCreated, gin.H{"inquiry": inquiry})
}

// ListInquiries handles GET /inquiries: buyers see inquiries they sent,
// farmers see inquiries against their products.
func (h *InquiryHandler) ListInquiries(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	inquiries, err := h.inquiryService.ListForActor(c.Request.Context(), actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"inquiries": inquiries})
}

// UpdateStatus handles GET /inquiry/:id/status/:status. An unknown status
// token is rejected with 400 before any permission or lookup work.
func (h *InquiryHandler) UpdateStatus(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	inquiryID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid inquiry ID"})
		return
	}

	inquiry, err := h.inquiryService.SetStatus(c.Request.Context(), actor, inquiryID, c.Param("status"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"inquiry": inquiry})
}
