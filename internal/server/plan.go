package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetPlan(c *gin.Context) {
	device, ok := deviceFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	result, err := s.planSvc.GetPlan(c.Request.Context(), device, c.GetHeader("If-None-Match"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if result.NotModified {
		c.Status(http.StatusNotModified)
		return
	}

	c.Header("ETag", result.Fingerprint)
	c.Data(http.StatusOK, "application/json", result.Content)
}
