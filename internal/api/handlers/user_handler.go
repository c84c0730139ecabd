package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/priyanshu-0212/my-agri-portal/internal/api/middleware"
	"github.com/priyanshu-0212/my-agri-portal/internal/auth"
	"github.com/priyanshu-0212/my-agri-portal/internal/config"
	"github.com/priyanshu-0212/my-agri-portal/internal/models"
	"github.com/priyanshu-0212/my-agri-portal/internal/services"
)

// UserHandler handles registration, login and logout.
type UserHandler struct {
	userService services.IUserService
	cfg         *config.Config
	rdb         *redis.Client
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService services.IUserService, cfg *config.Config, rdb *redis.Client) *UserHandler {
	return &UserHandler{userService: userService, cfg: cfg, rdb: rdb}
}

// RegisterRequest defines the expected JSON body for POST /register.
type RegisterRequest struct {
	Username        string `json:"username" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
	Role            string `json:"role" binding:"required"`
	Phone           string `json:"phone"`
	Address         string `json:"address"`
}

// Register handles POST /register.
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	if req.Password != req.ConfirmPassword {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": gin.H{
			"confirm_password": "passwords do not match",
		}})
		return
	}

	role, err := models.ParseRole(req.Role)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": gin.H{
			"role": "role must be farmer or buyer",
		}})
		return
	}

	user, err := h.userService.Register(c.Request.Context(), services.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     role,
		Phone:    req.Phone,
		Address:  req.Address,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// LoginRequest defines the expected JSON body for POST /login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /login. On success the session token is set as an
// HttpOnly cookie; the token is also returned for non-browser clients.
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	user, err := h.userService.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	token, err := auth.NewSessionToken(user, h.cfg.SessionSecret, h.cfg.SessionTTL)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.SessionCookie, token, int(h.cfg.SessionTTL.Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
}

// Logout handles POST /logout. The session's jti is revoked in Redis so the
// token is dead even if a copy survives the cookie clear.
func (h *UserHandler) Logout(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	if err := auth.Revoke(c.Request.Context(), h.rdb, claims); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log out"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.SessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// DeleteUser handles POST /admin/user/:id/delete. The user, their products
// and all related inquiries are soft-deleted together.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	if err := h.userService.DeleteUserCascade(c.Request.Context(), userID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}
