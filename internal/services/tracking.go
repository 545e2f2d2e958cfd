package services

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"channel-bridge-service/internal/auth"
	"channel-bridge-service/internal/models"
	"channel-bridge-service/internal/platform"
	"channel-bridge-service/internal/repository"
)

// TrackingNotifier sends an add-tracking notification to the platform that
// owns an order. Notifiers are keyed directly by platform type, not by the
// per-operation strings the dispatcher uses.
type TrackingNotifier func(ctx context.Context, cfg *platform.Config, order *models.Order, trackingCompany, trackingNumber string) error

// NotifierRegistry maps platform types to their tracking notifier
type NotifierRegistry struct {
	mu        sync.RWMutex
	notifiers map[models.PlatformType]TrackingNotifier
}

// NewNotifierRegistry creates an empty notifier registry
func NewNotifierRegistry() *NotifierRegistry {
	return &NotifierRegistry{notifiers: make(map[models.PlatformType]TrackingNotifier)}
}

// Register adds a notifier for a platform type
func (r *NotifierRegistry) Register(platformType models.PlatformType, notifier TrackingNotifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifiers[platformType] = notifier
}

// Get returns the notifier for a platform type
func (r *NotifierRegistry) Get(platformType models.PlatformType) (TrackingNotifier, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.notifiers[platformType]
	return n, ok
}

// TrackingService reconciles tracking details with cart items, notifies the
// owning platform, and promotes orders to COMPLETE once every cart item is
// covered. It is the only writer of the COMPLETE status.
type TrackingService struct {
	trackingRepo repository.TrackingRepositoryInterface
	orderRepo    repository.OrderRepositoryInterface
	credentials  *CredentialService
	notifiers    *NotifierRegistry
}

// NewTrackingService creates a tracking service
func NewTrackingService(
	trackingRepo repository.TrackingRepositoryInterface,
	orderRepo repository.OrderRepositoryInterface,
	credentials *CredentialService,
	notifiers *NotifierRegistry,
) *TrackingService {
	return &TrackingService{
		trackingRepo: trackingRepo,
		orderRepo:    orderRepo,
		credentials:  credentials,
		notifiers:    notifiers,
	}
}

// CreateTracking persists a tracking detail and reconciles it synchronously
func (s *TrackingService) CreateTracking(ctx context.Context, session auth.Session, detail *models.TrackingDetail) (*models.TrackingDetail, error) {
	if err := s.trackingRepo.Create(ctx, detail); err != nil {
		return nil, fmt.Errorf("failed to create tracking detail: %w", err)
	}
	if err := s.Reconcile(ctx, detail.ID); err != nil {
		return detail, err
	}
	return s.trackingRepo.GetByID(ctx, session, detail.ID)
}

// Reconcile runs the tracking reconciliation for one tracking detail. It is
// idempotent: replays re-run the association and promotion steps but never
// re-send the platform notification, guarded by the dispatch ledger.
//
// Cart item cleanup crosses user boundaries, so the reconciler runs elevated
// throughout.
func (s *TrackingService) Reconcile(ctx context.Context, trackingID uuid.UUID) error {
	elevated := auth.ElevatedSession()

	detail, err := s.trackingRepo.GetByID(ctx, elevated, trackingID)
	if err != nil {
		return fmt.Errorf("failed to load tracking detail: %w", err)
	}

	// Fallback association: no explicit cart items means the purchase id is
	// the only key we have.
	if len(detail.CartItems) == 0 && detail.PurchaseID != "" {
		items, err := s.orderRepo.FindCartItemsByPurchaseID(ctx, detail.PurchaseID)
		if err != nil {
			return fmt.Errorf("failed to look up cart items by purchase id: %w", err)
		}
		if err := s.trackingRepo.AssociateCartItems(ctx, detail, items); err != nil {
			return fmt.Errorf("failed to associate cart items: %w", err)
		}
		detail, err = s.trackingRepo.GetByID(ctx, elevated, trackingID)
		if err != nil {
			return err
		}
	}

	orderIDs := distinctOrderIDs(detail.CartItems)

	for _, orderID := range orderIDs {
		order, err := s.orderRepo.GetByID(ctx, elevated, orderID)
		if err != nil {
			log.Printf("Tracking %s references missing order %s: %v", detail.ID, orderID, err)
			continue
		}
		if order.Shop == nil {
			log.Printf("Order %s has no shop loaded, skipping tracking notification", order.ID)
			continue
		}

		s.notify(ctx, detail, order)

		itemIDs := make([]uuid.UUID, 0, len(detail.CartItems))
		for _, item := range detail.CartItems {
			if item.OrderID == orderID {
				itemIDs = append(itemIDs, item.ID)
			}
		}
		if err := s.orderRepo.MarkCartItemsComplete(ctx, itemIDs); err != nil {
			log.Printf("Failed to mark cart items complete for order %s: %v", orderID, err)
		}

		if err := s.promoteIfCovered(ctx, order); err != nil {
			return err
		}
	}

	if len(orderIDs) == 0 {
		// A custom-platform tracking detail with nothing to associate should
		// not occur under normal operation.
		log.Printf("Inconsistency: tracking %s (purchaseId %q) resolved no cart items", detail.ID, detail.PurchaseID)
	}

	return nil
}

// notify dispatches the add-tracking notification for the order's platform,
// at most once per tracking detail. Failures are logged and release the
// ledger claim so a later replay can retry.
func (s *TrackingService) notify(ctx context.Context, detail *models.TrackingDetail, order *models.Order) {
	if order.Shop.Type == models.PlatformCustom {
		return
	}

	notifier, ok := s.notifiers.Get(order.Shop.Type)
	if !ok {
		log.Printf("No tracking notifier registered for platform type %s, skipping order %s", order.Shop.Type, order.ID)
		return
	}

	claimed, err := s.trackingRepo.ClaimDispatch(ctx, &models.TrackingDispatch{
		TrackingDetailID: detail.ID,
		PlatformType:     order.Shop.Type,
	})
	if err != nil {
		log.Printf("Failed to claim dispatch for tracking %s: %v", detail.ID, err)
		return
	}
	if !claimed {
		return
	}

	cfg, err := s.credentials.ShopConfig(ctx, order.Shop)
	if err != nil {
		log.Printf("Failed to resolve shop credentials for order %s: %v", order.ID, err)
		s.releaseClaim(ctx, detail.ID)
		return
	}

	if err := notifier(ctx, cfg, order, detail.TrackingCompany, detail.TrackingNumber); err != nil {
		log.Printf("Tracking notification failed for order %s: %v", order.ID, err)
		s.releaseClaim(ctx, detail.ID)
		return
	}

	if err := s.trackingRepo.UpdateDispatchResult(ctx, detail.ID, "sent"); err != nil {
		log.Printf("Failed to record dispatch result for tracking %s: %v", detail.ID, err)
	}
}

func (s *TrackingService) releaseClaim(ctx context.Context, trackingDetailID uuid.UUID) {
	if err := s.trackingRepo.ReleaseDispatch(ctx, trackingDetailID); err != nil {
		log.Printf("Failed to release dispatch claim for tracking %s: %v", trackingDetailID, err)
	}
}

// promoteIfCovered promotes the order to COMPLETE when no cart item remains
// that is both uncancelled and untracked. This is the sole transition into
// COMPLETE.
func (s *TrackingService) promoteIfCovered(ctx context.Context, order *models.Order) error {
	remaining, err := s.orderRepo.CountUntrackedCartItems(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("failed to count untracked cart items: %w", err)
	}
	if remaining > 0 || order.Status == models.OrderComplete {
		return nil
	}

	if err := s.orderRepo.UpdateStatus(ctx, order.ID, models.OrderComplete, ""); err != nil {
		return fmt.Errorf("failed to promote order %s: %w", order.ID, err)
	}
	event := &models.OrderEvent{
		OrderID:    order.ID,
		UserID:     order.UserID,
		FromStatus: order.Status,
		ToStatus:   models.OrderComplete,
		Note:       "all cart items tracked",
		Actor:      "reconciler",
	}
	if err := s.orderRepo.CreateEvent(ctx, event); err != nil {
		log.Printf("Failed to record completion event for order %s: %v", order.ID, err)
	}
	return nil
}

// GetTracking retrieves a tracking detail for the session
func (s *TrackingService) GetTracking(ctx context.Context, session auth.Session, id uuid.UUID) (*models.TrackingDetail, error) {
	return s.trackingRepo.GetByID(ctx, session, id)
}

// ListTracking lists tracking details for the session
func (s *TrackingService) ListTracking(ctx context.Context, session auth.Session) ([]models.TrackingDetail, error) {
	return s.trackingRepo.List(ctx, session)
}

// DeleteTracking removes a tracking detail
func (s *TrackingService) DeleteTracking(ctx context.Context, session auth.Session, id uuid.UUID) error {
	return s.trackingRepo.Delete(ctx, session, id)
}

func distinctOrderIDs(items []models.CartItem) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(items))
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if !seen[item.OrderID] {
			seen[item.OrderID] = true
			ids = append(ids, item.OrderID)
		}
	}
	return ids
}
