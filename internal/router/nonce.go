package router

import (
	"github.com/gin-gonic/gin"

	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/utils"
)

const CspNonceContextKey = "csp_nonce"

// NonceMiddleware creates a new cryptographic nonce for each request
// and adds it to the Gin context for use in headers and templates.
func NonceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		nonce, err := utils.GenerateSecureToken(32)
		if err != nil {
			panic("failed to generate CSP nonce")
		}
		c.Set(CspNonceContextKey, nonce)
		c.Next()
	}
}
