package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	popdomain "github.com/vanillasomethin/ALIVE-Backend/internal/proofofplay/domain"
)

type eventSubmission struct {
	EventID        string         `json:"event_id"`
	CampaignID     string         `json:"campaign_id"`
	ContentID      string         `json:"content_id"`
	ContentVersion string         `json:"content_version"`
	StoreID        string         `json:"store_id"`
	EventType      string         `json:"event_type"`
	PlayedAt       *time.Time     `json:"played_at"`
	DurationMS     *int64         `json:"duration_ms"`
	Result         string         `json:"result"`
	Payload        map[string]any `json:"payload"`
}

type submitEventsRequest struct {
	Events []eventSubmission `json:"events"`
}

func (s *Server) SubmitEvents(c *gin.Context) {
	device, ok := deviceFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req submitEventsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	submissions := make([]popdomain.EventSubmission, 0, len(req.Events))
	for _, event := range req.Events {
		submissions = append(submissions, popdomain.EventSubmission{
			EventID:        event.EventID,
			CampaignID:     event.CampaignID,
			ContentID:      event.ContentID,
			ContentVersion: event.ContentVersion,
			StoreID:        event.StoreID,
			EventType:      event.EventType,
			PlayedAt:       event.PlayedAt,
			DurationMS:     event.DurationMS,
			Result:         event.Result,
			Payload:        event.Payload,
		})
	}

	result, err := s.eventSvc.IngestBatch(c.Request.Context(), device, submissions)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"accepted": result.Accepted,
		"rejected": result.Rejected,
	})
}
