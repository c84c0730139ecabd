package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/priyanshu-0212/my-agri-portal/internal/api/handlers"
	"github.com/priyanshu-0212/my-agri-portal/internal/api/middleware"
	"github.com/priyanshu-0212/my-agri-portal/internal/config"
	"github.com/priyanshu-0212/my-agri-portal/internal/models"
	"github.com/priyanshu-0212/my-agri-portal/internal/services"
	"github.com/priyanshu-0212/my-agri-portal/internal/storage"
)

// SetupRouter configures and returns the main Gin engine.
// storageService and taskClient may be nil; the image and notification
// routes then respond as disabled instead of panicking.
func SetupRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, storageService storage.IS3Storage, taskClient *asynq.Client) *gin.Engine {
	userService := services.NewUserService(db)
	productService := services.NewProductService(db)
	inquiryService := services.NewInquiryService(db)
	marketRateService := services.NewMarketRateService(db)
	catalogService := services.NewCatalogService(db, cfg, rdb)

	r := gin.Default()

	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)
	r.Use(middleware.CORSMiddleware())
	r.Use(rateLimiter.Limit())

	userHandler := handlers.NewUserHandler(userService, cfg, rdb)
	productHandler := handlers.NewProductHandler(productService, storageService, taskClient)
	catalogHandler := handlers.NewCatalogHandler(catalogService, cfg)
	inquiryHandler := handlers.NewInquiryHandler(inquiryService, productService, taskClient)
	marketRateHandler := handlers.NewMarketRateHandler(marketRateService)
	siteHandler := handlers.NewSiteHandler(cfg)

	sessionRequired := middleware.AuthMiddleware(cfg, rdb)

	// Public routes
	r.GET("/", catalogHandler.Home)
	r.POST("/register", userHandler.Register)
	r.POST("/login", userHandler.Login)
	r.GET("/product/:id", productHandler.Detail)
	r.GET("/market-rates", marketRateHandler.List)
	r.GET("/contact", siteHandler.Contact)
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	// Any authenticated session
	authRequired := r.Group("/")
	authRequired.Use(sessionRequired)
	{
		authRequired.POST("/logout", userHandler.Logout)
		authRequired.GET("/inquiries", inquiryHandler.ListInquiries)
		authRequired.GET("/inquiry/:id/status/:status", inquiryHandler.UpdateStatus)
	}

	// Farmer routes
	farmer := r.Group("/farmer")
	farmer.Use(sessionRequired, middleware.RequireRole(models.RoleFarmer))
	{
		farmer.GET("/dashboard", productHandler.Dashboard)
		farmer.POST("/product/add", productHandler.Add)
		farmer.GET("/product/:id/edit", productHandler.GetForEdit)
		farmer.POST("/product/:id/edit", productHandler.Edit)
		farmer.GET("/product/:id/delete", productHandler.GetForDelete)
		farmer.POST("/product/:id/delete", productHandler.Delete)
		farmer.POST("/product/:id/image", productHandler.RequestImageUpload)
		farmer.POST("/product/:id/image/complete", productHandler.CompleteImageUpload)
	}

	// Buyer routes
	buyer := r.Group("/buyer")
	buyer.Use(sessionRequired, middleware.RequireRole(models.RoleBuyer))
	{
		buyer.GET("/dashboard", catalogHandler.Dashboard)
	}

	// Inquiry creation is buyer-gated by the service policy; the form fetch
	// needs a session of either role.
	inquiry := r.Group("/product/:id/inquiry")
	inquiry.Use(sessionRequired)
	{
		inquiry.GET("", inquiryHandler.GetInquiryForm)
		inquiry.POST("", inquiryHandler.SendInquiry)
	}

	// Admin routes
	admin := r.Group("/admin")
	admin.Use(sessionRequired, middleware.AdminMiddleware())
	{
		admin.POST("/user/:id/delete", userHandler.DeleteUser)
	}
	r.POST("/market-rates", sessionRequired, middleware.AdminMiddleware(), marketRateHandler.Upsert)

	return r
}
