package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"channel-bridge-service/internal/services"
)

// WebhookHandler handles inbound platform webhooks. These routes are not
// user authenticated; the sending shop is identified by the shop query
// parameter or the platform's domain header.
type WebhookHandler struct {
	webhooks *services.WebhookService
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(webhooks *services.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks}
}

func shopDomain(c *gin.Context) string {
	if domain := c.Query("shop"); domain != "" {
		return domain
	}
	return c.GetHeader("X-Shopify-Shop-Domain")
}

// OrderCreated ingests an order-created webhook
func (h *WebhookHandler) OrderCreated(c *gin.Context) {
	domain := shopDomain(c)
	if domain == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing shop domain"})
		return
	}

	var payload map[string]interface{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.webhooks.HandleOrderCreated(c.Request.Context(), domain, payload)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": order})
}

// OrderCancelled ingests an order-cancelled webhook
func (h *WebhookHandler) OrderCancelled(c *gin.Context) {
	domain := shopDomain(c)
	if domain == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing shop domain"})
		return
	}

	var payload map[string]interface{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.webhooks.HandleOrderCancelled(c.Request.Context(), domain, payload); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "processed"})
}
