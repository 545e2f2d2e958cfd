package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"channel-bridge-service/internal/auth"
	"channel-bridge-service/internal/models"
	"channel-bridge-service/internal/platform"
	"channel-bridge-service/internal/repository"
)

const (
	errSomeItemsNotMatched = "Some lineItems not matched"
	errNoMatchesFound      = "No matches found"
)

// MatchOutcome is the result of resolving matches for one order: the cart
// items that were materialized plus the order-level error recorded, if any.
type MatchOutcome struct {
	CartItems  []models.CartItem
	OrderError string
}

// MatcherService resolves an order's line items against saved matches and
// materializes the channel-side cart items, annotating price drift against
// the live channel price.
type MatcherService struct {
	orderRepo   repository.OrderRepositoryInterface
	matchRepo   repository.MatchRepositoryInterface
	credentials *CredentialService
	dispatcher  *platform.Dispatcher
	locker      *redislock.Client
}

// NewMatcherService creates a matcher service. locker may be nil; when set,
// materialization is serialized per match across service instances.
func NewMatcherService(
	orderRepo repository.OrderRepositoryInterface,
	matchRepo repository.MatchRepositoryInterface,
	credentials *CredentialService,
	dispatcher *platform.Dispatcher,
	locker *redislock.Client,
) *MatcherService {
	return &MatcherService{
		orderRepo:   orderRepo,
		matchRepo:   matchRepo,
		credentials: credentials,
		dispatcher:  dispatcher,
		locker:      locker,
	}
}

// ResolveMatches finds the matches covering the order's line items and
// materializes cart items from their outputs.
//
// An exact aggregate match (input set covering the full line-item list) wins
// outright. Without one, orders with more than one line item fall back to
// per-line-item matching; items that still have no match leave the order
// flagged but do not stop the remaining items from materializing. Already
// created cart items are never rolled back.
func (s *MatcherService) ResolveMatches(ctx context.Context, session auth.Session, orderID uuid.UUID) (*MatchOutcome, error) {
	order, err := s.orderRepo.GetByID(ctx, session, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	outcome := &MatchOutcome{}

	aggregate, err := s.findCovering(ctx, session, order.LineItems)
	if err != nil {
		return nil, err
	}

	if aggregate != nil {
		items := s.materialize(ctx, aggregate, order)
		outcome.CartItems = append(outcome.CartItems, items...)
	} else if len(order.LineItems) > 1 {
		for _, li := range order.LineItems {
			single, err := s.findCovering(ctx, session, []models.LineItem{li})
			if err != nil {
				return nil, err
			}
			if single == nil {
				outcome.OrderError = errSomeItemsNotMatched
				continue
			}
			items := s.materialize(ctx, single, order)
			outcome.CartItems = append(outcome.CartItems, items...)
		}
	} else {
		outcome.OrderError = errNoMatchesFound
	}

	if len(outcome.CartItems) > 0 {
		if err := s.orderRepo.CreateCartItems(ctx, outcome.CartItems); err != nil {
			return nil, fmt.Errorf("failed to persist cart items: %w", err)
		}
	}

	if outcome.OrderError != "" {
		status := order.Status
		if outcome.OrderError == errSomeItemsNotMatched {
			status = models.OrderPending
		}
		if err := s.orderRepo.UpdateStatus(ctx, order.ID, status, outcome.OrderError); err != nil {
			return nil, fmt.Errorf("failed to record order error: %w", err)
		}
	}

	return outcome, nil
}

// findCovering returns the first match whose input set exactly covers the
// given line items, or nil when none exists.
func (s *MatcherService) findCovering(ctx context.Context, session auth.Session, lineItems []models.LineItem) (*models.Match, error) {
	candidates, err := s.matchRepo.FindCandidates(ctx, session, len(lineItems))
	if err != nil {
		return nil, fmt.Errorf("failed to query match candidates: %w", err)
	}
	for i := range candidates {
		if candidates[i].CoversLineItems(lineItems) {
			return &candidates[i], nil
		}
	}
	return nil, nil
}

// materialize builds cart items from a match's outputs. Each output's live
// price, image and title are fetched from its channel; a disagreement with
// the recorded price becomes the cart item's error string. Outputs whose
// channel fetch fails are logged and skipped.
func (s *MatcherService) materialize(ctx context.Context, match *models.Match, order *models.Order) []models.CartItem {
	if s.locker != nil {
		lock, err := s.locker.Obtain(ctx, "match:"+match.ID.String(), 30*time.Second, &redislock.Options{
			RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 10),
		})
		if err != nil {
			log.Printf("Warning: could not obtain lock for match %s: %v", match.ID, err)
		} else {
			defer lock.Release(context.WithoutCancel(ctx))
		}
	}

	items := make([]models.CartItem, 0, len(match.Output))
	for i := range match.Output {
		output := &match.Output[i]
		item, err := s.materializeOutput(ctx, output, order)
		if err != nil {
			log.Printf("Failed to materialize output %s for order %s: %v", output.ID, order.ID, err)
			continue
		}
		items = append(items, *item)
	}
	return items
}

func (s *MatcherService) materializeOutput(ctx context.Context, output *models.ChannelItem, order *models.Order) (*models.CartItem, error) {
	if output.Channel == nil {
		return nil, fmt.Errorf("output %s has no channel loaded", output.ID)
	}

	cfg, err := s.credentials.ChannelConfig(ctx, output.Channel)
	if err != nil {
		return nil, err
	}

	result, err := s.dispatcher.Invoke(ctx, cfg, platform.OpSearchProducts, map[string]interface{}{
		"productId": output.ProductID,
		"variantId": output.VariantID,
	})
	if err != nil {
		return nil, err
	}

	livePrice, err := priceFromResult(result)
	if err != nil {
		return nil, err
	}

	item := &models.CartItem{
		OrderID:   order.ID,
		ChannelID: output.ChannelID,
		UserID:    order.UserID,
		ProductID: output.ProductID,
		VariantID: output.VariantID,
		Quantity:  output.Quantity,
		Price:     livePrice,
		Status:    models.CartItemPending,
	}
	if title, ok := result["title"].(string); ok {
		item.Title = title
	}
	if image, ok := result["image"].(string); ok {
		item.Image = image
	}
	if !livePrice.Equal(output.Price) {
		item.Error = DriftMessage(output.Price, livePrice)
	}
	return item, nil
}

// DriftMessage formats the price drift annotation. The wording is fixed
// regardless of direction; a decrease carries a negative signed delta.
func DriftMessage(recorded, live decimal.Decimal) string {
	delta := live.Sub(recorded)
	return fmt.Sprintf("Price has increased $%s. Verify before placing order.", delta.StringFixed(2))
}

// priceFromResult reads the live price out of an adapter result, accepting
// both string and numeric encodings.
func priceFromResult(result map[string]interface{}) (decimal.Decimal, error) {
	switch v := result["price"].(type) {
	case string:
		price, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid price %q in adapter result", v)
		}
		return price, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	default:
		return decimal.Zero, fmt.Errorf("adapter result has no price")
	}
}
