package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/priyanshu-0212/my-agri-portal/internal/api/middleware"
	"github.com/priyanshu-0212/my-agri-portal/internal/services"
)

// MarketRateHandler handles the reference pricing routes.
type MarketRateHandler struct {
	marketRateService services.IMarketRateService
}

// NewMarketRateHandler creates a new MarketRateHandler.
func NewMarketRateHandler(marketRateService services.IMarketRateService) *MarketRateHandler {
	return &MarketRateHandler{marketRateService: marketRateService}
}

// List handles GET /market-rates: all rates in crop-name order.
func (h *MarketRateHandler) List(c *gin.Context) {
	rates, err := h.marketRateService.List(c.Request.Context(), 0)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"market_rates": rates})
}

// MarketRateRequest defines the JSON body for the admin upsert.
type MarketRateRequest struct {
	CropName     string          `json:"crop_name" binding:"required"`
	AveragePrice decimal.Decimal `json:"average_price"`
	Unit         string          `json:"unit" binding:"required"`
	Notes        string          `json:"notes"`
}

// Upsert handles POST /market-rates: admin-only create-or-replace keyed by
// crop name.
func (h *MarketRateHandler) Upsert(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req MarketRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	rate, err := h.marketRateService.Upsert(c.Request.Context(), actor, services.MarketRateInput{
		CropName:     req.CropName,
		AveragePrice: req.AveragePrice,
		Unit:         req.Unit,
		Notes:        req.Notes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"market_rate": rate})
}
