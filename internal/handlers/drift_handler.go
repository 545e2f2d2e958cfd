package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"channel-bridge-service/internal/middleware"
	"channel-bridge-service/internal/repository"
	"channel-bridge-service/internal/services"
)

// DriftHandler handles drift detection endpoints
type DriftHandler struct {
	drift        *services.DriftService
	platformRepo *repository.PlatformRepository
}

// NewDriftHandler creates a new drift handler
func NewDriftHandler(drift *services.DriftService, platformRepo *repository.PlatformRepository) *DriftHandler {
	return &DriftHandler{drift: drift, platformRepo: platformRepo}
}

// Sweep runs a drift sweep for one channel
func (h *DriftHandler) Sweep(c *gin.Context) {
	session := middleware.GetSession(c)

	channelID, err := uuid.Parse(c.Param("channelId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel id"})
		return
	}

	channel, err := h.platformRepo.GetChannelByID(c.Request.Context(), session, channelID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
		return
	}

	result, err := h.drift.SweepChannel(c.Request.Context(), session, channel)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

// List returns the session's open drifts
func (h *DriftHandler) List(c *gin.Context) {
	session := middleware.GetSession(c)

	drifts, err := h.drift.ListOpenDrifts(c.Request.Context(), session)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": drifts, "total": len(drifts)})
}

// Acknowledge marks a drift as seen
func (h *DriftHandler) Acknowledge(c *gin.Context) {
	session := middleware.GetSession(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.drift.Acknowledge(c.Request.Context(), session, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "acknowledged"})
}

// ResolveDriftRequest is the drift resolution payload
type ResolveDriftRequest struct {
	Resolution     string `json:"resolution"`
	ResolvedBy     string `json:"resolvedBy"`
	AdoptLivePrice bool   `json:"adoptLivePrice"`
}

// Resolve closes a drift, optionally adopting the live price
func (h *DriftHandler) Resolve(c *gin.Context) {
	session := middleware.GetSession(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req ResolveDriftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.drift.Resolve(c.Request.Context(), session, id, req.Resolution, req.ResolvedBy, req.AdoptLivePrice); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "resolved"})
}

// Ignore closes a drift without action
func (h *DriftHandler) Ignore(c *gin.Context) {
	session := middleware.GetSession(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.drift.Ignore(c.Request.Context(), session, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ignored"})
}

// PushCorrectionRequest is the correction payload
type PushCorrectionRequest struct {
	ChannelID  uuid.UUID `json:"channelId" binding:"required"`
	ResolvedBy string    `json:"resolvedBy"`
}

// PushCorrection writes the recorded price back to the channel
func (h *DriftHandler) PushCorrection(c *gin.Context) {
	session := middleware.GetSession(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req PushCorrectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	channel, err := h.platformRepo.GetChannelByID(c.Request.Context(), session, req.ChannelID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
		return
	}

	if err := h.drift.PushCorrection(c.Request.Context(), session, channel, id, req.ResolvedBy); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "corrected"})
}
