package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/priyanshu-0212/my-agri-portal/internal/config"
	"github.com/priyanshu-0212/my-agri-portal/internal/services"
)

// CatalogHandler handles the buyer-facing browsing routes.
type CatalogHandler struct {
	catalogService services.ICatalogService
	cfg            *config.Config
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalogService services.ICatalogService, cfg *config.Config) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService, cfg: cfg}
}

// Home handles GET /: the featured landing slice.
func (h *CatalogHandler) Home(c *gin.Context) {
	home, err := h.catalogService.Home(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, home)
}

// Dashboard handles GET /buyer/dashboard: available products with search,
// price sorting and pagination. Unknown sort and search values never error;
// they fall back to defaults so a shared URL always renders.
func (h *CatalogHandler) Dashboard(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(h.cfg.CatalogDefaultLimit)))
	if err != nil || limit <= 0 {
		limit = h.cfg.CatalogDefaultLimit
	}

	opts := services.SearchOptions{
		Search: c.Query("search"),
		Sort:   services.ParseSortMode(c.Query("sort")),
		Page:   page,
		Limit:  limit,
	}

	products, err := h.catalogService.Search(c.Request.Context(), opts)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"page":     page,
		"limit":    limit,
		"search":   opts.Search,
		"sort":     string(opts.Sort),
	})
}
