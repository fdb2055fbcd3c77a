package server

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"
)

const headerAdminToken = "x-admin-token"

// AdminRequired guards operator endpoints with the shared admin token.
// The comparison is constant-time; an unset token disables the endpoints.
func (s *Server) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		expected := s.cfg.AdminToken
		if expected == "" {
			AbortWithError(c, ErrNotFound)
			return
		}

		presented := strings.TrimSpace(c.GetHeader(headerAdminToken))
		if presented == "" ||
			subtle.ConstantTimeCompare([]byte(presented), []byte(expected)) != 1 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Next()
	}
}
