package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"paysync-server/internal/services"
	"paysync-server/internal/utils"
)

const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextRole     = "role"
)

type TokenParser interface {
	ParseToken(raw string) (*services.Claims, error)
}

// JWTAuth rejects requests without a valid bearer token and exposes the
// token's user on the gin context.
func JWTAuth(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, raw, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
			utils.RespondError(c, utils.NewAppError(http.StatusUnauthorized, "UNAUTHORIZED", "missing token", nil))
			c.Abort()
			return
		}

		claims, err := tokens.ParseToken(strings.TrimSpace(raw))
		if err != nil || claims.UserID == "" {
			utils.RespondError(c, utils.NewAppError(http.StatusUnauthorized, "UNAUTHORIZED", "invalid token", nil))
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUsername, claims.Username)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}
