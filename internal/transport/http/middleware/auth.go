package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iamasit07/cartline/backend/internal/domain"
	"github.com/iamasit07/cartline/backend/internal/logging"
	"github.com/iamasit07/cartline/backend/pkg/httputil"
)

const (
	UserIDKey      = "user_id"
	TokenSourceKey = "token_source"
)

// ValidateFunc resolves a bearer token to a user.
type ValidateFunc func(ctx context.Context, token string) (domain.Resolution, error)

// AuthMiddleware requires a valid bearer token and stores the user id in
// the gin context. Missing or invalid tokens get 403.
func AuthMiddleware(validate ValidateFunc, log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := httputil.BearerToken(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})
			return
		}

		res, err := validate(c.Request.Context(), token)
		if err != nil {
			log.Info(c.Request.Context(), "rejected bearer token", "path", c.FullPath(), "err", err)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})
			return
		}

		c.Set(UserIDKey, res.UserID)
		c.Set(TokenSourceKey, string(res.Source))
		c.Next()
	}
}

// UserID returns the id stored by AuthMiddleware.
func UserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
