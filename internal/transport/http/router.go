package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iamasit07/cartline/backend/internal/logging"
	"github.com/iamasit07/cartline/backend/internal/transport/http/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type RouterConfig struct {
	ServiceName    string
	AllowedOrigins []string
	Log            logging.Logger
}

func newBaseRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.AllowedOrigins, cfg.Log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": cfg.ServiceName})
	})
	return router
}

// NewAuthRouter mounts the auth service routes. validate guards /users
// and must not refresh tokens.
func NewAuthRouter(cfg RouterConfig, h *AuthHandler, validate middleware.ValidateFunc) *gin.Engine {
	router := newBaseRouter(cfg)

	api := router.Group("/api/auth")
	{
		api.POST("/signup", h.Signup)
		api.POST("/login", h.Login)
		api.POST("/logout", h.Logout)
		api.GET("/validate", h.Validate)
		api.GET("/users", middleware.AuthMiddleware(validate, cfg.Log), h.ListUsers)
	}
	return router
}

// NewShoppingRouter mounts the shopping and admin routes. Every shopping
// route needs a bearer token resolved by validate.
func NewShoppingRouter(cfg RouterConfig, h *ShoppingHandler, admin *AdminHandler, validate middleware.ValidateFunc) *gin.Engine {
	router := newBaseRouter(cfg)

	shop := router.Group("/api/shopping")
	shop.Use(middleware.AuthMiddleware(validate, cfg.Log))
	{
		shop.GET("/cart", h.GetCart)
		shop.POST("/cart/add", h.AddToCart)
		shop.PUT("/cart/update/:itemId", h.UpdateCartItem)
		shop.DELETE("/cart/remove/:itemId", h.RemoveFromCart)

		shop.GET("/products", h.ListProducts)
		shop.GET("/products/:id", h.GetProduct)
		shop.GET("/products/:id/stock", h.GetProductStock)

		shop.POST("/cache/reset", h.ResetCache)
		shop.GET("/cache/reset", h.ResetCache)
	}

	router.POST("/api/admin/reset", admin.Reset)
	return router
}
