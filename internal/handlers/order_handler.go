package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"channel-bridge-service/internal/middleware"
	"channel-bridge-service/internal/models"
	"channel-bridge-service/internal/services"
)

// OrderHandler handles order endpoints
type OrderHandler struct {
	lifecycle *services.LifecycleService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(lifecycle *services.LifecycleService) *OrderHandler {
	return &OrderHandler{lifecycle: lifecycle}
}

// CreateOrderRequest is the order creation payload
type CreateOrderRequest struct {
	ShopID          uuid.UUID              `json:"shopId" binding:"required"`
	ExternalOrderID string                 `json:"externalOrderId"`
	LinkOrder       bool                   `json:"linkOrder"`
	MatchOrder      bool                   `json:"matchOrder"`
	ProcessOrder    bool                   `json:"processOrder"`
	LineItems       []CreateLineItemInput  `json:"lineItems" binding:"required,min=1"`
}

// CreateLineItemInput is one line item in the order creation payload
type CreateLineItemInput struct {
	ProductID string          `json:"productId" binding:"required"`
	VariantID string          `json:"variantId" binding:"required"`
	Quantity  int             `json:"quantity" binding:"required,min=1"`
	Price     decimal.Decimal `json:"price"`
	Title     string          `json:"title"`
	Image     string          `json:"image"`
	SKU       string          `json:"sku"`
}

// Create creates an order and runs its directives synchronously. The order
// is persisted even when a directive fails; the failure is reported alongside
// the created record.
func (h *OrderHandler) Create(c *gin.Context) {
	session := middleware.GetSession(c)

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order := &models.Order{
		UserID:          session.UserID,
		ShopID:          req.ShopID,
		ExternalOrderID: req.ExternalOrderID,
		LinkOrder:       req.LinkOrder,
		MatchOrder:      req.MatchOrder,
		ProcessOrder:    req.ProcessOrder,
	}
	for _, li := range req.LineItems {
		order.LineItems = append(order.LineItems, models.LineItem{
			UserID:    session.UserID,
			ProductID: li.ProductID,
			VariantID: li.VariantID,
			Quantity:  li.Quantity,
			Price:     li.Price,
			Title:     li.Title,
			Image:     li.Image,
			SKU:       li.SKU,
		})
	}

	created, err := h.lifecycle.CreateOrder(c.Request.Context(), session, order)
	if err != nil {
		if created != nil {
			// Directive failure after a successful create
			c.JSON(http.StatusInternalServerError, gin.H{"data": created, "error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	refreshed, err := h.lifecycle.GetOrder(c.Request.Context(), session, created.ID)
	if err == nil {
		created = refreshed
	}
	c.JSON(http.StatusCreated, gin.H{"data": created})
}

// List returns the session's orders, optionally filtered by status
func (h *OrderHandler) List(c *gin.Context) {
	session := middleware.GetSession(c)

	orders, err := h.lifecycle.ListOrders(c.Request.Context(), session, models.OrderStatus(c.Query("status")))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": orders, "total": len(orders)})
}

// Get returns a single order
func (h *OrderHandler) Get(c *gin.Context) {
	session := middleware.GetSession(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	order, err := h.lifecycle.GetOrder(c.Request.Context(), session, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": order})
}

// Cancel cancels an order
func (h *OrderHandler) Cancel(c *gin.Context) {
	session := middleware.GetSession(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	if err := h.lifecycle.CancelOrder(c.Request.Context(), session, id, req.Reason); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// Delete removes an order with full referential cleanup
func (h *OrderHandler) Delete(c *gin.Context) {
	session := middleware.GetSession(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.lifecycle.DeleteOrder(c.Request.Context(), session, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// Events returns the order's audit trail
func (h *OrderHandler) Events(c *gin.Context) {
	session := middleware.GetSession(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	events, err := h.lifecycle.OrderEvents(c.Request.Context(), session, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": events})
}
