package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/priyanshu-0212/my-agri-portal/internal/models"
)

func serveWithActor(t *testing.T, actor *models.Actor, mw gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if actor != nil {
		r.Use(func(c *gin.Context) {
			c.Set(ContextKeyActor, *actor)
			c.Next()
		})
	}
	r.GET("/probe", mw, func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/probe", nil)
	r.ServeHTTP(w, req)
	return w
}

func TestRequireRole(t *testing.T) {
	farmer := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleFarmer}
	buyer := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleBuyer}

	assert.Equal(t, http.StatusOK, serveWithActor(t, &farmer, RequireRole(models.RoleFarmer)).Code)
	assert.Equal(t, http.StatusForbidden, serveWithActor(t, &buyer, RequireRole(models.RoleFarmer)).Code)
	assert.Equal(t, http.StatusForbidden, serveWithActor(t, nil, RequireRole(models.RoleFarmer)).Code)
}

func TestAdminMiddleware(t *testing.T) {
	admin := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleBuyer, IsAdmin: true}
	plain := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleBuyer}

	assert.Equal(t, http.StatusOK, serveWithActor(t, &admin, AdminMiddleware()).Code)
	assert.Equal(t, http.StatusForbidden, serveWithActor(t, &plain, AdminMiddleware()).Code)
	assert.Equal(t, http.StatusForbidden, serveWithActor(t, nil, AdminMiddleware()).Code)
}

func TestSessionTokenExtraction(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// Cookie wins when present.
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request, _ = http.NewRequest("GET", "/", nil)
	c.Request.AddCookie(&http.Cookie{Name: "session", Value: "cookie-token"})
	c.Request.Header.Set("Authorization", "Bearer header-token")
	assert.Equal(t, "cookie-token", sessionToken(c, "session"))

	// Bearer header is the fallback for API clients.
	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Request, _ = http.NewRequest("GET", "/", nil)
	c.Request.Header.Set("Authorization", "Bearer header-token")
	assert.Equal(t, "header-token", sessionToken(c, "session"))

	// Nothing provided.
	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Request, _ = http.NewRequest("GET", "/", nil)
	assert.Equal(t, "", sessionToken(c, "session"))
}
