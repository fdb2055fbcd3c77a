package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// GetDevice returns a device's registration details for operators. The token
// hash never leaves storage.
func (s *Server) GetDevice(c *gin.Context) {
	device, err := s.deviceSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	body := gin.H{
		"id":         device.ID,
		"status":     device.Status,
		"created_at": device.CreatedAt.Format(time.RFC3339),
	}
	if device.StoreID != nil {
		body["store_id"] = *device.StoreID
	}
	if device.GroupID != nil {
		body["group_id"] = *device.GroupID
	}
	c.JSON(http.StatusOK, body)
}
