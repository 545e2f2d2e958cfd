package shopify

import (
	"context"

	"channel-bridge-service/internal/models"
	"channel-bridge-service/internal/platform"
)

// NotifyTracking adapts the add-tracking operation to the tracking
// reconciler's notifier contract.
func (a *Adapter) NotifyTracking(ctx context.Context, cfg *platform.Config, order *models.Order, trackingCompany, trackingNumber string) error {
	_, err := a.addTracking(ctx, cfg, map[string]interface{}{
		"order": map[string]interface{}{
			"externalOrderId": order.ExternalOrderID,
		},
		"trackingCompany": trackingCompany,
		"trackingNumber":  trackingNumber,
	})
	return err
}
