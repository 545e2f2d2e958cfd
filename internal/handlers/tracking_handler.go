package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"channel-bridge-service/internal/middleware"
	"channel-bridge-service/internal/models"
	"channel-bridge-service/internal/services"
)

// TrackingHandler handles tracking detail endpoints
type TrackingHandler struct {
	tracking *services.TrackingService
}

// NewTrackingHandler creates a new tracking handler
func NewTrackingHandler(tracking *services.TrackingService) *TrackingHandler {
	return &TrackingHandler{tracking: tracking}
}

// CreateTrackingRequest is the tracking creation payload. CartItemIDs is
// optional; without it the reconciler falls back to associating cart items
// by purchase id.
type CreateTrackingRequest struct {
	TrackingCompany string      `json:"trackingCompany" binding:"required"`
	TrackingNumber  string      `json:"trackingNumber" binding:"required"`
	PurchaseID      string      `json:"purchaseId"`
	CartItemIDs     []uuid.UUID `json:"cartItemIds"`
}

// Create creates a tracking detail and reconciles it synchronously
func (h *TrackingHandler) Create(c *gin.Context) {
	session := middleware.GetSession(c)

	var req CreateTrackingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	detail := &models.TrackingDetail{
		UserID:          session.UserID,
		TrackingCompany: req.TrackingCompany,
		TrackingNumber:  req.TrackingNumber,
		PurchaseID:      req.PurchaseID,
	}
	for _, id := range req.CartItemIDs {
		detail.CartItems = append(detail.CartItems, models.CartItem{ID: id})
	}

	created, err := h.tracking.CreateTracking(c.Request.Context(), session, detail)
	if err != nil {
		if created != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"data": created, "error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": created})
}

// List lists the session's tracking details
func (h *TrackingHandler) List(c *gin.Context) {
	session := middleware.GetSession(c)

	details, err := h.tracking.ListTracking(c.Request.Context(), session)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": details, "total": len(details)})
}

// Get returns a single tracking detail
func (h *TrackingHandler) Get(c *gin.Context) {
	session := middleware.GetSession(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	detail, err := h.tracking.GetTracking(c.Request.Context(), session, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "tracking detail not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": detail})
}

// Delete removes a tracking detail
func (h *TrackingHandler) Delete(c *gin.Context) {
	session := middleware.GetSession(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.tracking.DeleteTracking(c.Request.Context(), session, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
