package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"channel-bridge-service/internal/auth"
	"channel-bridge-service/internal/models"
	"channel-bridge-service/internal/platform"
	"channel-bridge-service/internal/repository"
)

// DriftThresholds controls when a disagreement is recorded and how severe it
// is considered.
type DriftThresholds struct {
	Price    decimal.Decimal // absolute price difference that counts as drift
	Quantity int             // absolute quantity difference that counts as drift
	Percent  float64         // percent price difference considered HIGH
}

// DriftService detects disagreement between match outputs' recorded prices
// and the live channel values, outside the order path. Sweeps are operator
// triggered; a sweep walks every match output on a channel and records open
// drifts for review.
type DriftService struct {
	matchRepo   repository.MatchRepositoryInterface
	credentials *CredentialService
	dispatcher  *platform.Dispatcher
	thresholds  DriftThresholds
	semaphore   *ChannelSemaphore
	retrier     *platform.Retrier

	breakerMu sync.Mutex
	breakers  map[uuid.UUID]*platform.CircuitBreaker
}

// NewDriftService creates a drift service
func NewDriftService(
	matchRepo repository.MatchRepositoryInterface,
	credentials *CredentialService,
	dispatcher *platform.Dispatcher,
	thresholds DriftThresholds,
	semaphore *ChannelSemaphore,
) *DriftService {
	return &DriftService{
		matchRepo:   matchRepo,
		credentials: credentials,
		dispatcher:  dispatcher,
		thresholds:  thresholds,
		semaphore:   semaphore,
		retrier:     platform.NewRetrier(nil),
		breakers:    make(map[uuid.UUID]*platform.CircuitBreaker),
	}
}

// SweepResult summarizes one channel sweep
type SweepResult struct {
	ChannelID uuid.UUID `json:"channelId"`
	Checked   int       `json:"checked"`
	Drifts    int       `json:"drifts"`
	Failures  int       `json:"failures"`
}

// SweepChannel checks every match output on the channel against its live
// price and quantity. One sweep per channel runs at a time; repeated live
// fetch failures open the channel's circuit breaker and end the sweep early.
func (s *DriftService) SweepChannel(ctx context.Context, session auth.Session, channel *models.Channel) (*SweepResult, error) {
	release, err := s.semaphore.Acquire(ctx, channel.ID.String())
	if err != nil {
		return nil, err
	}
	defer release()

	cfg, err := s.credentials.ChannelConfig(ctx, channel)
	if err != nil {
		return nil, err
	}

	matches, err := s.matchRepo.ListMatches(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}

	breaker := s.breakerFor(channel.ID)
	result := &SweepResult{ChannelID: channel.ID}

	for i := range matches {
		for j := range matches[i].Output {
			output := &matches[i].Output[j]
			if output.ChannelID != channel.ID {
				continue
			}
			if !breaker.Allow() {
				log.Printf("Circuit open for channel %s, ending sweep early", channel.ID)
				return result, nil
			}

			result.Checked++
			drifted, err := s.checkOutput(ctx, session, cfg, &matches[i], output)
			if err != nil {
				breaker.RecordFailure()
				result.Failures++
				log.Printf("Drift check failed for channel item %s: %v", output.ID, err)
				continue
			}
			breaker.RecordSuccess()
			if drifted {
				result.Drifts++
			}
		}
	}

	return result, nil
}

// breakerFor returns the channel's circuit breaker, creating it on first use.
// Sweeps for different channels run concurrently, so the map is guarded.
func (s *DriftService) breakerFor(channelID uuid.UUID) *platform.CircuitBreaker {
	s.breakerMu.Lock()
	defer s.breakerMu.Unlock()

	if b, ok := s.breakers[channelID]; ok {
		return b
	}
	b := platform.NewCircuitBreaker(5, 1*time.Minute)
	s.breakers[channelID] = b
	return b
}

// checkOutput fetches the live values for one match output and records a
// drift when it exceeds the thresholds. Returns whether a drift was recorded.
func (s *DriftService) checkOutput(ctx context.Context, session auth.Session, cfg *platform.Config, match *models.Match, output *models.ChannelItem) (bool, error) {
	var result map[string]interface{}
	err := s.retrier.Do(ctx, platform.OpSearchProducts, func(ctx context.Context) error {
		var invokeErr error
		result, invokeErr = s.dispatcher.Invoke(ctx, cfg, platform.OpSearchProducts, map[string]interface{}{
			"productId": output.ProductID,
			"variantId": output.VariantID,
		})
		return invokeErr
	})
	if err != nil {
		return false, err
	}

	livePrice, err := priceFromResult(result)
	if err != nil {
		return false, err
	}
	liveQuantity := output.Quantity
	if q, ok := result["quantity"].(float64); ok {
		liveQuantity = int(q)
	}

	priceDelta := livePrice.Sub(output.Price)
	quantityDelta := liveQuantity - output.Quantity

	priceDrifted := !priceDelta.IsZero() && priceDelta.Abs().GreaterThanOrEqual(s.thresholds.Price)
	quantityDrifted := abs(quantityDelta) >= s.thresholds.Quantity && quantityDelta != 0
	if !priceDrifted && !quantityDrifted {
		return false, nil
	}

	exists, err := s.matchRepo.HasOpenDrift(ctx, output.ID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	drift := &models.MatchDrift{
		UserID:           output.UserID,
		MatchID:          match.ID,
		ChannelItemID:    output.ID,
		ChannelID:        output.ChannelID,
		RecordedPrice:    output.Price,
		LivePrice:        livePrice,
		PriceDelta:       priceDelta,
		RecordedQuantity: output.Quantity,
		LiveQuantity:     liveQuantity,
		QuantityDelta:    quantityDelta,
		Severity:         s.severity(output.Price, priceDelta, quantityDelta),
		Status:           models.DriftStatusOpen,
		DetectedAt:       time.Now(),
	}
	if err := s.matchRepo.CreateDrift(ctx, drift); err != nil {
		return false, fmt.Errorf("failed to record drift: %w", err)
	}
	return true, nil
}

// severity grades a drift by how far the live price moved relative to the
// recorded price, with quantity disappearance as the critical case.
func (s *DriftService) severity(recorded, priceDelta decimal.Decimal, quantityDelta int) models.DriftSeverity {
	if quantityDelta < 0 && abs(quantityDelta) >= s.thresholds.Quantity*2 {
		return models.DriftSeverityCritical
	}
	if recorded.IsZero() {
		return models.DriftSeverityMedium
	}

	percent, _ := priceDelta.Abs().Div(recorded).Mul(decimal.NewFromInt(100)).Float64()
	switch {
	case percent >= s.thresholds.Percent*2:
		return models.DriftSeverityCritical
	case percent >= s.thresholds.Percent:
		return models.DriftSeverityHigh
	case percent >= s.thresholds.Percent/2:
		return models.DriftSeverityMedium
	default:
		return models.DriftSeverityLow
	}
}

// ListOpenDrifts returns the session's unresolved drifts
func (s *DriftService) ListOpenDrifts(ctx context.Context, session auth.Session) ([]models.MatchDrift, error) {
	return s.matchRepo.ListOpenDrifts(ctx, session)
}

// Acknowledge marks a drift as seen by an operator
func (s *DriftService) Acknowledge(ctx context.Context, session auth.Session, id uuid.UUID) error {
	drift, err := s.matchRepo.GetDriftByID(ctx, session, id)
	if err != nil {
		return err
	}
	drift.Status = models.DriftStatusAcked
	return s.matchRepo.UpdateDrift(ctx, drift)
}

// Resolve closes a drift with a resolution note, optionally updating the
// match output's recorded price to the live value so the drift does not
// immediately reopen.
func (s *DriftService) Resolve(ctx context.Context, session auth.Session, id uuid.UUID, resolution, resolvedBy string, adoptLivePrice bool) error {
	drift, err := s.matchRepo.GetDriftByID(ctx, session, id)
	if err != nil {
		return err
	}

	if adoptLivePrice {
		item, err := s.matchRepo.GetChannelItemByID(ctx, session, drift.ChannelItemID)
		if err != nil {
			return err
		}
		item.Price = drift.LivePrice
		if err := s.matchRepo.UpdateChannelItem(ctx, item); err != nil {
			return err
		}
	}

	now := time.Now()
	drift.Status = models.DriftStatusResolved
	drift.Resolution = &resolution
	drift.ResolvedBy = &resolvedBy
	drift.ResolvedAt = &now
	return s.matchRepo.UpdateDrift(ctx, drift)
}

// Ignore closes a drift without action
func (s *DriftService) Ignore(ctx context.Context, session auth.Session, id uuid.UUID) error {
	drift, err := s.matchRepo.GetDriftByID(ctx, session, id)
	if err != nil {
		return err
	}
	drift.Status = models.DriftStatusIgnored
	return s.matchRepo.UpdateDrift(ctx, drift)
}

// PushCorrection writes the recorded price back to the channel through the
// update-product operation and resolves the drift.
func (s *DriftService) PushCorrection(ctx context.Context, session auth.Session, channel *models.Channel, id uuid.UUID, resolvedBy string) error {
	drift, err := s.matchRepo.GetDriftByID(ctx, session, id)
	if err != nil {
		return err
	}

	cfg, err := s.credentials.ChannelConfig(ctx, channel)
	if err != nil {
		return err
	}

	item, err := s.matchRepo.GetChannelItemByID(ctx, session, drift.ChannelItemID)
	if err != nil {
		return err
	}

	_, err = s.dispatcher.Invoke(ctx, cfg, platform.OpUpdateProduct, map[string]interface{}{
		"productId": item.ProductID,
		"variantId": item.VariantID,
		"price":     drift.RecordedPrice.StringFixed(2),
	})
	if err != nil {
		return fmt.Errorf("failed to push correction: %w", err)
	}

	now := time.Now()
	resolution := "recorded price pushed to channel"
	drift.Status = models.DriftStatusResolved
	drift.Resolution = &resolution
	drift.ResolvedBy = &resolvedBy
	drift.ResolvedAt = &now
	return s.matchRepo.UpdateDrift(ctx, drift)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
