package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"wordstake_backend/internal/service"
)

const walletContextKey = "wallet"

// JWT authenticates the request from a Bearer token and stores the wallet
// address in the gin context.
func JWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}

		wallet, err := service.ParseJWT(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(walletContextKey, wallet)
		c.Next()
	}
}

// WalletFromContext returns the authenticated wallet address set by JWT.
func WalletFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(walletContextKey)
	if !ok {
		return "", false
	}
	wallet, ok := v.(string)
	return wallet, ok && wallet != ""
}
