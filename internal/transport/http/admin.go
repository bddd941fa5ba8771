package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iamasit07/cartline/backend/internal/logging"
)

const adminKeyHeader = "X-Admin-Key"

type AdminService interface {
	Authorize(key string) bool
	Reset(ctx context.Context) error
}

type AdminHandler struct {
	Service AdminService
	Log     logging.Logger
}

func NewAdminHandler(svc AdminService, log logging.Logger) *AdminHandler {
	return &AdminHandler{Service: svc, Log: log}
}

func (h *AdminHandler) Reset(c *gin.Context) {
	if !h.Service.Authorize(c.GetHeader(adminKeyHeader)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}
	if err := h.Service.Reset(c.Request.Context()); err != nil {
		h.Log.Error(c.Request.Context(), "admin reset failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Reset failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Database reset successfully"})
}
