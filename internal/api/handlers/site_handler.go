package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/priyanshu-0212/my-agri-portal/internal/config"
)

// SiteHandler serves the static, config-driven pages.
type SiteHandler struct {
	cfg *config.Config
}

// NewSiteHandler creates a new SiteHandler.
func NewSiteHandler(cfg *config.Config) *SiteHandler {
	return &SiteHandler{cfg: cfg}
}

// Contact handles GET /contact.
func (h *SiteHandler) Contact(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"app_name": h.cfg.AppName,
		"email":    h.cfg.ContactEmail,
		"phone":    h.cfg.ContactPhone,
		"address":  h.cfg.ContactAddress,
	})
}
