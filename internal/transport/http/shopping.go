package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/iamasit07/cartline/backend/internal/domain"
	"github.com/iamasit07/cartline/backend/internal/logging"
	"github.com/iamasit07/cartline/backend/internal/transport/http/middleware"
)

type CartService interface {
	GetCart(ctx context.Context, userID int64) (*domain.Cart, error)
	AddItem(ctx context.Context, userID, productID int64, quantity int) (*domain.Cart, error)
	UpdateItem(ctx context.Context, userID, itemID int64, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, userID, itemID int64) (*domain.Cart, error)
}

type CatalogService interface {
	Products(ctx context.Context) ([]domain.Product, error)
	Product(ctx context.Context, productID int64) (*domain.Product, error)
	StockInfo(ctx context.Context, productID int64) (*domain.StockInfo, error)
	ResetCache(ctx context.Context) error
}

type ShoppingHandler struct {
	Carts   CartService
	Catalog CatalogService
	Log     logging.Logger
}

func NewShoppingHandler(carts CartService, catalog CatalogService, log logging.Logger) *ShoppingHandler {
	return &ShoppingHandler{Carts: carts, Catalog: catalog, Log: log}
}

func (h *ShoppingHandler) GetCart(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	cart, err := h.Carts.GetCart(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *ShoppingHandler) AddToCart(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	var req struct {
		ProductID int64 `json:"productId"`
		Quantity  int   `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.ProductID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	cart, err := h.Carts.AddItem(c.Request.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		h.respondError(c, err, gin.H{"productId": req.ProductID})
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *ShoppingHandler) UpdateCartItem(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	itemID, ok := pathID(c, "itemId")
	if !ok {
		return
	}
	quantity, err := strconv.Atoi(c.Query("quantity"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity must be an integer"})
		return
	}

	cart, err := h.Carts.UpdateItem(c.Request.Context(), userID, itemID, quantity)
	if err != nil {
		h.respondError(c, err, gin.H{"itemId": itemID})
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *ShoppingHandler) RemoveFromCart(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	itemID, ok := pathID(c, "itemId")
	if !ok {
		return
	}

	cart, err := h.Carts.RemoveItem(c.Request.Context(), userID, itemID)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *ShoppingHandler) ListProducts(c *gin.Context) {
	products, err := h.Catalog.Products(c.Request.Context())
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *ShoppingHandler) GetProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	product, err := h.Catalog.Product(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *ShoppingHandler) GetProductStock(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	info, err := h.Catalog.StockInfo(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *ShoppingHandler) ResetCache(c *gin.Context) {
	if err := h.Catalog.ResetCache(c.Request.Context()); err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product cache reset successfully"})
}

// respondError maps service errors to status codes. extra is merged into
// the out-of-stock body.
func (h *ShoppingHandler) respondError(c *gin.Context, err error, extra gin.H) {
	var oos *domain.OutOfStockError
	switch {
	case errors.As(err, &oos):
		body := gin.H{"error": oos.Error(), "status": "OUT_OF_STOCK"}
		for k, v := range extra {
			body[k] = v
		}
		c.JSON(http.StatusConflict, body)
	case errors.Is(err, domain.ErrCartItemNotFound), errors.Is(err, domain.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrCartItemConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "status": "CONFLICT"})
	case errors.Is(err, domain.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.Log.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}
