package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"channel-bridge-service/internal/auth"
	"channel-bridge-service/internal/models"
	"channel-bridge-service/internal/repository"
)

// PlacementResult is the per-order outcome returned by the order placement
// collaborator.
type PlacementResult struct {
	OrderID uuid.UUID          `json:"orderId"`
	Status  models.OrderStatus `json:"status"`
	Error   string             `json:"error,omitempty"`
}

// OrderPlacer is the external order placement collaborator
type OrderPlacer interface {
	PlaceOrders(ctx context.Context, orderIDs []uuid.UUID) ([]PlacementResult, error)
}

// HTTPOrderPlacer places orders through the placement service's HTTP API
type HTTPOrderPlacer struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPOrderPlacer creates an HTTP order placer
func NewHTTPOrderPlacer(baseURL string) *HTTPOrderPlacer {
	return &HTTPOrderPlacer{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// PlaceOrders posts the order ids to the placement service
func (p *HTTPOrderPlacer) PlaceOrders(ctx context.Context, orderIDs []uuid.UUID) ([]PlacementResult, error) {
	payload, err := json.Marshal(map[string]interface{}{"orderIds": orderIDs})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/orders/place", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("placement call failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("placement service returned %s: %s", resp.Status, string(body))
	}

	var results []PlacementResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("invalid placement response: %w", err)
	}
	return results, nil
}

// LifecycleService reacts to order creation with the three directive flags
// and owns every order status transition except the COMPLETE promotion, which
// belongs to the tracking reconciler.
type LifecycleService struct {
	orderRepo    repository.OrderRepositoryInterface
	platformRepo repository.PlatformRepositoryInterface
	matcher      *MatcherService
	placer       OrderPlacer
}

// NewLifecycleService creates a lifecycle service. placer may be nil when no
// placement collaborator is configured; processOrder directives then log and
// skip placement.
func NewLifecycleService(
	orderRepo repository.OrderRepositoryInterface,
	platformRepo repository.PlatformRepositoryInterface,
	matcher *MatcherService,
	placer OrderPlacer,
) *LifecycleService {
	return &LifecycleService{
		orderRepo:    orderRepo,
		platformRepo: platformRepo,
		matcher:      matcher,
		placer:       placer,
	}
}

// CreateOrder persists a new order and runs its directives synchronously.
// The order is always persisted; a directive failure is returned alongside
// the created order so the caller can surface it without losing the record.
func (s *LifecycleService) CreateOrder(ctx context.Context, session auth.Session, order *models.Order) (*models.Order, error) {
	if order.Status == "" {
		order.Status = models.OrderPending
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	s.recordEvent(ctx, order, "", order.Status, "order created", "client")

	if err := s.runDirectives(ctx, session, order); err != nil {
		return order, err
	}
	return order, nil
}

// runDirectives executes the link, match and process directives per their
// precedence. The link branch applies only when the shop actually has a link;
// without one the matchOrder directive still gets its turn.
func (s *LifecycleService) runDirectives(ctx context.Context, session auth.Session, order *models.Order) error {
	var link *models.Link
	if order.LinkOrder {
		found, err := s.platformRepo.GetLinkByShop(ctx, session, order.ShopID)
		if err != nil {
			// No link configured is not an error condition for the directive
			log.Printf("linkOrder set but no link found for shop %s: %v", order.ShopID, err)
		} else {
			link = found
		}
	}

	switch {
	case link != nil:
		if err := s.fanOutLink(ctx, order, link); err != nil {
			return err
		}
		if order.ProcessOrder {
			return s.placeOrder(ctx, order)
		}

	case order.MatchOrder:
		outcome, err := s.matcher.ResolveMatches(ctx, session, order.ID)
		if err != nil {
			return err
		}
		if outcome.OrderError != "" {
			// Any match error supersedes partial success
			if err := s.orderRepo.UpdateStatus(ctx, order.ID, models.OrderPending, outcome.OrderError); err != nil {
				return err
			}
			s.recordEvent(ctx, order, order.Status, models.OrderPending, outcome.OrderError, "lifecycle")
			return nil
		}
		if order.ProcessOrder {
			return s.placeOrder(ctx, order)
		}
	}
	return nil
}

// fanOutLink copies every line item into a cart item on the linked channel,
// carrying price, quantity and identifiers over unchanged. No live price
// check happens on this path.
func (s *LifecycleService) fanOutLink(ctx context.Context, order *models.Order, link *models.Link) error {
	items := make([]models.CartItem, 0, len(order.LineItems))
	for _, li := range order.LineItems {
		items = append(items, models.CartItem{
			OrderID:   order.ID,
			ChannelID: link.ChannelID,
			UserID:    order.UserID,
			ProductID: li.ProductID,
			VariantID: li.VariantID,
			Quantity:  li.Quantity,
			Price:     li.Price,
			Title:     li.Title,
			Image:     li.Image,
			Status:    models.CartItemPending,
		})
	}
	if err := s.orderRepo.CreateCartItems(ctx, items); err != nil {
		return fmt.Errorf("failed to fan out link cart items: %w", err)
	}
	return nil
}

// placeOrder invokes the placement collaborator for one order and applies
// the returned status.
func (s *LifecycleService) placeOrder(ctx context.Context, order *models.Order) error {
	if s.placer == nil {
		log.Printf("processOrder set but no placement service configured, order %s left as %s", order.ID, order.Status)
		return nil
	}

	results, err := s.placer.PlaceOrders(ctx, []uuid.UUID{order.ID})
	if err != nil {
		return fmt.Errorf("failed to place order %s: %w", order.ID, err)
	}

	for _, result := range results {
		if result.OrderID != order.ID {
			continue
		}
		status := result.Status
		if status == "" {
			status = models.OrderInProcess
		}
		if err := s.orderRepo.UpdateStatus(ctx, order.ID, status, result.Error); err != nil {
			return err
		}
		s.recordEvent(ctx, order, order.Status, status, "order placed", "lifecycle")
	}
	return nil
}

// GetOrder retrieves an order for the session
func (s *LifecycleService) GetOrder(ctx context.Context, session auth.Session, id uuid.UUID) (*models.Order, error) {
	return s.orderRepo.GetByID(ctx, session, id)
}

// ListOrders lists orders for the session, optionally filtered by status
func (s *LifecycleService) ListOrders(ctx context.Context, session auth.Session, status models.OrderStatus) ([]models.Order, error) {
	return s.orderRepo.List(ctx, session, status)
}

// CancelOrder marks an order cancelled. Used by the inbound order-cancelled
// webhook and by operators.
func (s *LifecycleService) CancelOrder(ctx context.Context, session auth.Session, id uuid.UUID, reason string) error {
	order, err := s.orderRepo.GetByID(ctx, session, id)
	if err != nil {
		return err
	}
	if order.Status == models.OrderComplete {
		return fmt.Errorf("order %s is already complete", id)
	}
	if err := s.orderRepo.UpdateStatus(ctx, id, models.OrderCancelled, reason); err != nil {
		return err
	}
	s.recordEvent(ctx, order, order.Status, models.OrderCancelled, reason, "lifecycle")
	return nil
}

// DeleteOrder removes an order with full referential cleanup. The order
// lookup is session scoped; the dependent cart items may belong to other
// users and are removed under elevated cleanup regardless of tracking state.
func (s *LifecycleService) DeleteOrder(ctx context.Context, session auth.Session, id uuid.UUID) error {
	return s.orderRepo.Delete(ctx, session, id)
}

// OrderEvents returns the audit trail for an order the session can see
func (s *LifecycleService) OrderEvents(ctx context.Context, session auth.Session, orderID uuid.UUID) ([]models.OrderEvent, error) {
	if _, err := s.orderRepo.GetByID(ctx, session, orderID); err != nil {
		return nil, err
	}
	return s.orderRepo.ListEvents(ctx, orderID)
}

func (s *LifecycleService) recordEvent(ctx context.Context, order *models.Order, from, to models.OrderStatus, note, actor string) {
	event := &models.OrderEvent{
		OrderID:    order.ID,
		UserID:     order.UserID,
		FromStatus: from,
		ToStatus:   to,
		Note:       note,
		Actor:      actor,
	}
	if err := s.orderRepo.CreateEvent(ctx, event); err != nil {
		log.Printf("Failed to record order event for %s: %v", order.ID, err)
	}
}
