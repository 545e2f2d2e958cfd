package services

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"channel-bridge-service/internal/auth"
	"channel-bridge-service/internal/models"
	"channel-bridge-service/internal/platform"
	"channel-bridge-service/internal/repository"
)

// WebhookService handles inbound order webhooks from shop platforms and
// manages webhook registrations on those platforms.
//
// Inbound payloads are platform specific; the service runs them through the
// shop's createOrderWebhookHandler / cancelOrderWebhookHandler operations to
// get the uniform order shape before touching the database.
type WebhookService struct {
	platformRepo repository.PlatformRepositoryInterface
	orderRepo    repository.OrderRepositoryInterface
	credentials  *CredentialService
	dispatcher   *platform.Dispatcher
	lifecycle    *LifecycleService
	baseURL      string
}

// NewWebhookService creates a webhook service. baseURL is this service's
// public address, used when registering webhooks with platforms.
func NewWebhookService(
	platformRepo repository.PlatformRepositoryInterface,
	orderRepo repository.OrderRepositoryInterface,
	credentials *CredentialService,
	dispatcher *platform.Dispatcher,
	lifecycle *LifecycleService,
	baseURL string,
) *WebhookService {
	return &WebhookService{
		platformRepo: platformRepo,
		orderRepo:    orderRepo,
		credentials:  credentials,
		dispatcher:   dispatcher,
		lifecycle:    lifecycle,
		baseURL:      baseURL,
	}
}

// HandleOrderCreated ingests an order-created webhook for the shop identified
// by domain. The created order inherits the shop's directive defaults, so a
// shop configured for match-and-process fulfills arriving orders without
// operator action. Replays of an already ingested order are acknowledged
// without creating a duplicate.
func (s *WebhookService) HandleOrderCreated(ctx context.Context, shopDomain string, payload map[string]interface{}) (*models.Order, error) {
	shop, err := s.platformRepo.GetShopByDomain(ctx, shopDomain)
	if err != nil {
		return nil, fmt.Errorf("unknown shop domain %q: %w", shopDomain, err)
	}

	cfg, err := s.credentials.ShopConfig(ctx, shop)
	if err != nil {
		return nil, err
	}

	normalized, err := s.dispatcher.Invoke(ctx, cfg, platform.OpCreateOrderWebhook, map[string]interface{}{
		"payload": payload,
	})
	if err != nil {
		return nil, err
	}

	externalOrderID, _ := normalized["externalOrderId"].(string)
	if externalOrderID == "" {
		return nil, fmt.Errorf("webhook payload has no order id")
	}

	existing, err := s.orderRepo.GetByExternalOrderID(ctx, shop.ID, externalOrderID)
	if err == nil {
		log.Printf("Order %s already ingested for shop %s, acknowledging replay", externalOrderID, shop.ID)
		return existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	order := &models.Order{
		UserID:          shop.UserID,
		ShopID:          shop.ID,
		ExternalOrderID: externalOrderID,
		Status:          models.OrderPending,
		LinkOrder:       shop.LinkOrder,
		MatchOrder:      shop.MatchOrder,
		ProcessOrder:    shop.ProcessOrder,
		LineItems:       lineItemsFromNormalized(shop, normalized),
	}

	return s.lifecycle.CreateOrder(ctx, auth.UserSession(shop.UserID), order)
}

// HandleOrderCancelled ingests an order-cancelled webhook for the shop
// identified by domain.
func (s *WebhookService) HandleOrderCancelled(ctx context.Context, shopDomain string, payload map[string]interface{}) error {
	shop, err := s.platformRepo.GetShopByDomain(ctx, shopDomain)
	if err != nil {
		return fmt.Errorf("unknown shop domain %q: %w", shopDomain, err)
	}

	cfg, err := s.credentials.ShopConfig(ctx, shop)
	if err != nil {
		return err
	}

	normalized, err := s.dispatcher.Invoke(ctx, cfg, platform.OpCancelOrderWebhook, map[string]interface{}{
		"payload": payload,
	})
	if err != nil {
		return err
	}

	externalOrderID, _ := normalized["externalOrderId"].(string)
	if externalOrderID == "" {
		return fmt.Errorf("webhook payload has no order id")
	}

	order, err := s.orderRepo.GetByExternalOrderID(ctx, shop.ID, externalOrderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			log.Printf("Cancellation for unknown order %s on shop %s, ignoring", externalOrderID, shop.ID)
			return nil
		}
		return err
	}

	return s.lifecycle.CancelOrder(ctx, auth.UserSession(shop.UserID), order.ID, "cancelled by platform")
}

// RegisterShopWebhooks registers the order-created and order-cancelled
// webhooks for a shop on its platform.
func (s *WebhookService) RegisterShopWebhooks(ctx context.Context, shop *models.Shop) error {
	if s.baseURL == "" {
		return fmt.Errorf("no webhook base URL configured")
	}

	cfg, err := s.credentials.ShopConfig(ctx, shop)
	if err != nil {
		return err
	}

	subscriptions := map[string]string{
		"orders/create":    fmt.Sprintf("%s/api/v1/webhooks/orders/created?shop=%s", s.baseURL, shop.Domain),
		"orders/cancelled": fmt.Sprintf("%s/api/v1/webhooks/orders/cancelled?shop=%s", s.baseURL, shop.Domain),
	}

	for topic, address := range subscriptions {
		_, err := s.dispatcher.Invoke(ctx, cfg, platform.OpCreateWebhook, map[string]interface{}{
			"topic":   topic,
			"address": address,
		})
		if err != nil {
			return fmt.Errorf("failed to register %s webhook: %w", topic, err)
		}
	}
	return nil
}

// ListShopWebhooks lists the shop's webhook subscriptions on its platform
func (s *WebhookService) ListShopWebhooks(ctx context.Context, shop *models.Shop) (map[string]interface{}, error) {
	cfg, err := s.credentials.ShopConfig(ctx, shop)
	if err != nil {
		return nil, err
	}
	return s.dispatcher.Invoke(ctx, cfg, platform.OpGetWebhooks, nil)
}

// DeleteShopWebhook removes one webhook subscription from the shop's platform
func (s *WebhookService) DeleteShopWebhook(ctx context.Context, shop *models.Shop, webhookID string) error {
	cfg, err := s.credentials.ShopConfig(ctx, shop)
	if err != nil {
		return err
	}
	_, err = s.dispatcher.Invoke(ctx, cfg, platform.OpDeleteWebhook, map[string]interface{}{
		"webhookId": webhookID,
	})
	return err
}

// lineItemsFromNormalized converts the normalized webhook line items into
// line item snapshots owned by the shop's user.
func lineItemsFromNormalized(shop *models.Shop, normalized map[string]interface{}) []models.LineItem {
	rawItems, ok := normalized["lineItems"].([]interface{})
	if !ok {
		if typed, ok := normalized["lineItems"].([]map[string]interface{}); ok {
			for _, item := range typed {
				rawItems = append(rawItems, item)
			}
		}
	}

	items := make([]models.LineItem, 0, len(rawItems))
	for _, raw := range rawItems {
		m, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		item := models.LineItem{
			UserID:    shop.UserID,
			ProductID: asString(m["productId"]),
			VariantID: asString(m["variantId"]),
			Quantity:  1,
		}
		if q, ok := m["quantity"].(float64); ok {
			item.Quantity = int(q)
		}
		switch p := m["price"].(type) {
		case string:
			if price, err := decimal.NewFromString(p); err == nil {
				item.Price = price
			}
		case float64:
			item.Price = decimal.NewFromFloat(p)
		}
		if title, ok := m["title"].(string); ok {
			item.Title = title
		}
		if sku, ok := m["sku"].(string); ok {
			item.SKU = sku
		}
		if image, ok := m["image"].(string); ok {
			item.Image = image
		}
		items = append(items, item)
	}
	return items
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}
