package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"channel-bridge-service/internal/middleware"
	"channel-bridge-service/internal/models"
	"channel-bridge-service/internal/repository"
	"channel-bridge-service/internal/services"
)

// MatchHandler handles match and item endpoints
type MatchHandler struct {
	matchRepo *repository.MatchRepository
	matcher   *services.MatcherService
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(matchRepo *repository.MatchRepository, matcher *services.MatcherService) *MatchHandler {
	return &MatchHandler{matchRepo: matchRepo, matcher: matcher}
}

// CreateShopItemRequest is the shop item creation payload
type CreateShopItemRequest struct {
	ShopID    uuid.UUID `json:"shopId" binding:"required"`
	ProductID string    `json:"productId" binding:"required"`
	VariantID string    `json:"variantId" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

// CreateShopItem creates a shop item
func (h *MatchHandler) CreateShopItem(c *gin.Context) {
	session := middleware.GetSession(c)

	var req CreateShopItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item := &models.ShopItem{
		UserID:    session.UserID,
		ShopID:    req.ShopID,
		ProductID: req.ProductID,
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
	}
	if err := h.matchRepo.CreateShopItem(c.Request.Context(), item); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": item})
}

// ListShopItems lists the shop items for a shop
func (h *MatchHandler) ListShopItems(c *gin.Context) {
	session := middleware.GetSession(c)

	shopID, err := uuid.Parse(c.Query("shopId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid shopId"})
		return
	}

	items, err := h.matchRepo.ListShopItems(c.Request.Context(), session, shopID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items, "total": len(items)})
}

// CreateChannelItemRequest is the channel item creation payload
type CreateChannelItemRequest struct {
	ChannelID uuid.UUID       `json:"channelId" binding:"required"`
	ProductID string          `json:"productId" binding:"required"`
	VariantID string          `json:"variantId" binding:"required"`
	Quantity  int             `json:"quantity" binding:"required,min=1"`
	Price     decimal.Decimal `json:"price"`
}

// CreateChannelItem creates a channel item
func (h *MatchHandler) CreateChannelItem(c *gin.Context) {
	session := middleware.GetSession(c)

	var req CreateChannelItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item := &models.ChannelItem{
		UserID:    session.UserID,
		ChannelID: req.ChannelID,
		ProductID: req.ProductID,
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
		Price:     req.Price,
	}
	if err := h.matchRepo.CreateChannelItem(c.Request.Context(), item); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": item})
}

// ListChannelItems lists the channel items for a channel
func (h *MatchHandler) ListChannelItems(c *gin.Context) {
	session := middleware.GetSession(c)

	channelID, err := uuid.Parse(c.Query("channelId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channelId"})
		return
	}

	items, err := h.matchRepo.ListChannelItems(c.Request.Context(), session, channelID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items, "total": len(items)})
}

// CreateMatchRequest is the match creation payload
type CreateMatchRequest struct {
	InputIDs  []uuid.UUID `json:"inputIds" binding:"required,min=1"`
	OutputIDs []uuid.UUID `json:"outputIds" binding:"required,min=1"`
}

// CreateMatch creates a match between existing shop and channel items
func (h *MatchHandler) CreateMatch(c *gin.Context) {
	session := middleware.GetSession(c)

	var req CreateMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	match := &models.Match{UserID: session.UserID}
	for _, id := range req.InputIDs {
		match.Input = append(match.Input, models.ShopItem{ID: id})
	}
	for _, id := range req.OutputIDs {
		match.Output = append(match.Output, models.ChannelItem{ID: id})
	}

	if err := h.matchRepo.CreateMatch(c.Request.Context(), match); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	created, err := h.matchRepo.GetMatchByID(c.Request.Context(), session, match.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": created})
}

// ListMatches lists the session's matches
func (h *MatchHandler) ListMatches(c *gin.Context) {
	session := middleware.GetSession(c)

	matches, err := h.matchRepo.ListMatches(c.Request.Context(), session)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": matches, "total": len(matches)})
}

// GetMatch returns a single match
func (h *MatchHandler) GetMatch(c *gin.Context) {
	session := middleware.GetSession(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	match, err := h.matchRepo.GetMatchByID(c.Request.Context(), session, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "match not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": match})
}

// DeleteMatch deletes a match. Orders that previously materialized from it
// are unaffected.
func (h *MatchHandler) DeleteMatch(c *gin.Context) {
	session := middleware.GetSession(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.matchRepo.DeleteMatch(c.Request.Context(), session, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// Resolve runs match resolution for an order on demand
func (h *MatchHandler) Resolve(c *gin.Context) {
	session := middleware.GetSession(c)

	orderID, err := uuid.Parse(c.Param("orderId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	outcome, err := h.matcher.ResolveMatches(c.Request.Context(), session, orderID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"cartItems":  outcome.CartItems,
		"orderError": outcome.OrderError,
	})
}
