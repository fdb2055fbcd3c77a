package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	devicedomain "github.com/vanillasomethin/ALIVE-Backend/internal/device/domain"
)

const contextDeviceKey = "device"

// DeviceAuthRequired exchanges the presented bearer secret for a device
// identity before any device-scoped handler runs.
func (s *Server) DeviceAuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		device, err := s.deviceSvc.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Set(contextDeviceKey, device)
		c.Next()
	}
}

func deviceFromContext(c *gin.Context) (*devicedomain.Device, bool) {
	value, ok := c.Get(contextDeviceKey)
	if !ok {
		return nil, false
	}
	device, ok := value.(*devicedomain.Device)
	return device, ok
}
