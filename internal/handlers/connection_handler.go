package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"channel-bridge-service/internal/middleware"
	"channel-bridge-service/internal/models"
	"channel-bridge-service/internal/repository"
	"channel-bridge-service/internal/services"
)

// ConnectionHandler handles platform, shop, channel and link endpoints
type ConnectionHandler struct {
	service      *services.ConnectionService
	platformRepo *repository.PlatformRepository
	webhooks     *services.WebhookService
}

// NewConnectionHandler creates a new connection handler
func NewConnectionHandler(service *services.ConnectionService, platformRepo *repository.PlatformRepository, webhooks *services.WebhookService) *ConnectionHandler {
	return &ConnectionHandler{service: service, platformRepo: platformRepo, webhooks: webhooks}
}

// CreatePlatform creates a platform record
func (h *ConnectionHandler) CreatePlatform(c *gin.Context) {
	session := middleware.GetSession(c)

	var platform models.Platform
	if err := c.ShouldBindJSON(&platform); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.CreatePlatform(c.Request.Context(), session, &platform); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": platform})
}

// ListPlatforms lists the session's platforms
func (h *ConnectionHandler) ListPlatforms(c *gin.Context) {
	session := middleware.GetSession(c)

	platforms, err := h.platformRepo.ListPlatforms(c.Request.Context(), session)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": platforms, "total": len(platforms)})
}

// UpdatePlatform updates a platform record
func (h *ConnectionHandler) UpdatePlatform(c *gin.Context) {
	session := middleware.GetSession(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var platform models.Platform
	if err := c.ShouldBindJSON(&platform); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	platform.ID = id

	if err := h.service.UpdatePlatform(c.Request.Context(), session, &platform); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": platform})
}

// CreateShopRequest is the shop creation payload
type CreateShopRequest struct {
	Name         string              `json:"name" binding:"required"`
	Type         models.PlatformType `json:"type"`
	Domain       string              `json:"domain" binding:"required"`
	PlatformID   *uuid.UUID          `json:"platformId"`
	AccessToken  string              `json:"accessToken"`
	LinkOrder    bool                `json:"linkOrder"`
	MatchOrder   bool                `json:"matchOrder"`
	ProcessOrder bool                `json:"processOrder"`
}

// CreateShop creates a shop connection
func (h *ConnectionHandler) CreateShop(c *gin.Context) {
	session := middleware.GetSession(c)

	var req CreateShopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Type == "" {
		req.Type = models.PlatformCustom
	}

	shop := &models.Shop{
		Name:         req.Name,
		Type:         req.Type,
		Domain:       req.Domain,
		PlatformID:   req.PlatformID,
		LinkOrder:    req.LinkOrder,
		MatchOrder:   req.MatchOrder,
		ProcessOrder: req.ProcessOrder,
	}
	if err := h.service.CreateShop(c.Request.Context(), session, shop, req.AccessToken); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": shop})
}

// ListShops lists the session's shops
func (h *ConnectionHandler) ListShops(c *gin.Context) {
	session := middleware.GetSession(c)

	shops, err := h.platformRepo.ListShops(c.Request.Context(), session)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": shops, "total": len(shops)})
}

// GetShop returns a single shop
func (h *ConnectionHandler) GetShop(c *gin.Context) {
	session := middleware.GetSession(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	shop, err := h.platformRepo.GetShopByID(c.Request.Context(), session, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "shop not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": shop})
}

// DeleteShop removes a shop and its stored credentials
func (h *ConnectionHandler) DeleteShop(c *gin.Context) {
	session := middleware.GetSession(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.service.DeleteShop(c.Request.Context(), session, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// CreateChannelRequest is the channel creation payload
type CreateChannelRequest struct {
	Name        string              `json:"name" binding:"required"`
	Type        models.PlatformType `json:"type"`
	Domain      string              `json:"domain" binding:"required"`
	PlatformID  *uuid.UUID          `json:"platformId"`
	AccessToken string              `json:"accessToken"`
}

// CreateChannel creates a channel connection
func (h *ConnectionHandler) CreateChannel(c *gin.Context) {
	session := middleware.GetSession(c)

	var req CreateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Type == "" {
		req.Type = models.PlatformCustom
	}

	channel := &models.Channel{
		Name:       req.Name,
		Type:       req.Type,
		Domain:     req.Domain,
		PlatformID: req.PlatformID,
	}
	if err := h.service.CreateChannel(c.Request.Context(), session, channel, req.AccessToken); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": channel})
}

// ListChannels lists the session's channels
func (h *ConnectionHandler) ListChannels(c *gin.Context) {
	session := middleware.GetSession(c)

	channels, err := h.platformRepo.ListChannels(c.Request.Context(), session)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": channels, "total": len(channels)})
}

// CreateLinkRequest is the link creation payload
type CreateLinkRequest struct {
	ShopID    uuid.UUID `json:"shopId" binding:"required"`
	ChannelID uuid.UUID `json:"channelId" binding:"required"`
}

// CreateLink creates a shop-to-channel link
func (h *ConnectionHandler) CreateLink(c *gin.Context) {
	session := middleware.GetSession(c)

	var req CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	link := &models.Link{ShopID: req.ShopID, ChannelID: req.ChannelID}
	if err := h.service.CreateLink(c.Request.Context(), session, link); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": link})
}

// ListLinks lists the session's links
func (h *ConnectionHandler) ListLinks(c *gin.Context) {
	session := middleware.GetSession(c)

	links, err := h.platformRepo.ListLinks(c.Request.Context(), session)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": links, "total": len(links)})
}

// DeleteLink removes a link
func (h *ConnectionHandler) DeleteLink(c *gin.Context) {
	session := middleware.GetSession(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.platformRepo.DeleteLink(c.Request.Context(), session, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// StartOAuth builds the platform authorization URL for a shop
func (h *ConnectionHandler) StartOAuth(c *gin.Context) {
	session := middleware.GetSession(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var args map[string]interface{}
	if err := c.ShouldBindJSON(&args); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	url, err := h.service.StartShopOAuth(c.Request.Context(), session, id, args)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// CompleteOAuth exchanges the callback code and stores the access token
func (h *ConnectionHandler) CompleteOAuth(c *gin.Context) {
	session := middleware.GetSession(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var args map[string]interface{}
	if err := c.ShouldBindJSON(&args); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.CompleteShopOAuth(c.Request.Context(), session, id, args); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "connected"})
}

// RegisterWebhooks registers order webhooks for a shop on its platform
func (h *ConnectionHandler) RegisterWebhooks(c *gin.Context) {
	session := middleware.GetSession(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	shop, err := h.platformRepo.GetShopByID(c.Request.Context(), session, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "shop not found"})
		return
	}

	if err := h.webhooks.RegisterShopWebhooks(c.Request.Context(), shop); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "registered"})
}

// ListWebhooks lists a shop's webhook subscriptions on its platform
func (h *ConnectionHandler) ListWebhooks(c *gin.Context) {
	session := middleware.GetSession(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	shop, err := h.platformRepo.GetShopByID(c.Request.Context(), session, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "shop not found"})
		return
	}

	result, err := h.webhooks.ListShopWebhooks(c.Request.Context(), shop)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

// DeleteWebhook removes one webhook subscription from a shop's platform
func (h *ConnectionHandler) DeleteWebhook(c *gin.Context) {
	session := middleware.GetSession(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	shop, err := h.platformRepo.GetShopByID(c.Request.Context(), session, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "shop not found"})
		return
	}

	if err := h.webhooks.DeleteShopWebhook(c.Request.Context(), shop, c.Param("webhookId")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
