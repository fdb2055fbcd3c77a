package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	pairingdomain "github.com/vanillasomethin/ALIVE-Backend/internal/pairing/domain"
)

type registerPairingRequest struct {
	DeviceInfo map[string]any `json:"device_info"`
}

func (s *Server) RegisterPairing(c *gin.Context) {
	if !s.registerLimiter.Allow(c.ClientIP()) {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate_limited"})
		return
	}

	var req registerPairingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.pairingSvc.Register(c.Request.Context(), pairingdomain.RegisterRequest{
		DeviceInfo: req.DeviceInfo,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"code":               resp.Code,
		"expires_at":         resp.ExpiresAt.Format(time.RFC3339),
		"poll_after_seconds": int(resp.PollInterval.Seconds()),
	})
}

func (s *Server) PairingStatus(c *gin.Context) {
	code := strings.TrimSpace(c.Query("code"))
	if code == "" {
		AbortWithError(c, newValidationError("code", "required", "code is required"))
		return
	}

	resp, err := s.pairingSvc.Status(c.Request.Context(), code)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	body := gin.H{
		"status":     resp.Status,
		"expires_at": resp.ExpiresAt.Format(time.RFC3339),
	}
	if resp.DeviceID != nil {
		body["device_id"] = *resp.DeviceID
	}
	if resp.DeviceToken != nil {
		body["device_token"] = *resp.DeviceToken
	}
	c.JSON(http.StatusOK, body)
}

type claimPairingRequest struct {
	Code    string  `json:"code"`
	StoreID *string `json:"store_id"`
	GroupID *string `json:"group_id"`
}

func (s *Server) ClaimPairing(c *gin.Context) {
	var req claimPairingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req.Code = strings.TrimSpace(req.Code)
	if req.Code == "" {
		AbortWithError(c, newValidationError("code", "required", "code is required"))
		return
	}

	resp, err := s.pairingSvc.Claim(c.Request.Context(), pairingdomain.ClaimRequest{
		Code:    req.Code,
		StoreID: req.StoreID,
		GroupID: req.GroupID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"device_id": resp.DeviceID,
		"status":    resp.Status,
	})
}

type acknowledgePairingRequest struct {
	Code string `json:"code"`
}

func (s *Server) AcknowledgePairing(c *gin.Context) {
	var req acknowledgePairingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req.Code = strings.TrimSpace(req.Code)
	if req.Code == "" {
		AbortWithError(c, newValidationError("code", "required", "code is required"))
		return
	}

	if err := s.pairingSvc.Acknowledge(c.Request.Context(), req.Code); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": pairingdomain.StatusCompleted})
}
