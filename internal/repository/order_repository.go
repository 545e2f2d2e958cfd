package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"channel-bridge-service/internal/auth"
	"channel-bridge-service/internal/models"
)

// OrderRepository handles database operations for orders, line items and cart
// items.
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create persists an order with its line items in one transaction
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(order).Error
	})
}

// GetByID retrieves an order with line items, cart items and shop preloaded
func (r *OrderRepository) GetByID(ctx context.Context, session auth.Session, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := scoped(r.db.WithContext(ctx), session).
		Preload("Shop").
		Preload("Shop.Platform").
		Preload("LineItems").
		Preload("CartItems").
		Preload("CartItems.Channel").
		Preload("CartItems.Channel.Platform").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByExternalOrderID retrieves an order by its shop-side order id
func (r *OrderRepository) GetByExternalOrderID(ctx context.Context, shopID uuid.UUID, externalOrderID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("LineItems").
		Preload("CartItems").
		First(&order, "shop_id = ? AND external_order_id = ?", shopID, externalOrderID).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// List retrieves orders visible to the session, optionally filtered by status
func (r *OrderRepository) List(ctx context.Context, session auth.Session, status models.OrderStatus) ([]models.Order, error) {
	query := scoped(r.db.WithContext(ctx), session).
		Preload("LineItems").
		Preload("CartItems")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var orders []models.Order
	err := query.Order("created_at DESC").Find(&orders).Error
	return orders, err
}

// Update updates an existing order
func (r *OrderRepository) Update(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}

// UpdateStatus updates the order status and error text
func (r *OrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus, orderError string) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      status,
			"order_error": orderError,
		}).Error
}

// Delete removes an order and its dependents in one transaction. Cart items
// may be owned by other users when elevated cleanup runs, so deletion goes
// through the unscoped dependents explicitly.
func (r *OrderRepository) Delete(ctx context.Context, session auth.Session, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := scoped(tx, session).First(&order, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.LineItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderEvent{}).Error; err != nil {
			return err
		}
		return tx.Delete(&order).Error
	})
}

// ReplaceCartItems deletes the order's existing cart items and inserts the
// new set in one transaction. Used when a directive re-runs materialization.
func (r *OrderRepository) ReplaceCartItems(ctx context.Context, orderID uuid.UUID, items []models.CartItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", orderID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Create(&items).Error
	})
}

// CreateCartItems inserts cart items for an order
func (r *OrderRepository) CreateCartItems(ctx context.Context, items []models.CartItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

// UpdateCartItem updates an existing cart item
func (r *OrderRepository) UpdateCartItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// FindCartItemsByPurchaseID retrieves the cart items carrying the given
// platform purchase id. This is the tracking reconciler's fallback
// association path, so it is intentionally not user scoped.
func (r *OrderRepository) FindCartItemsByPurchaseID(ctx context.Context, purchaseID string) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Channel").
		Where("purchase_id = ?", purchaseID).
		Find(&items).Error
	return items, err
}

// CountUntrackedCartItems counts the order's cart items that are not
// cancelled and have no tracking detail yet. Zero means the order is
// eligible for COMPLETE promotion.
func (r *OrderRepository) CountUntrackedCartItems(ctx context.Context, orderID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("order_id = ? AND status <> ?", orderID, models.CartItemCancelled).
		Where("id NOT IN (?)", r.db.Table("cart_item_tracking").Select("cart_item_id")).
		Count(&count).Error
	return count, err
}

// MarkCartItemsComplete sets the given cart items to COMPLETE
func (r *OrderRepository) MarkCartItemsComplete(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id IN ?", ids).
		Update("status", models.CartItemComplete).Error
}

// CreateEvent appends an order audit event
func (r *OrderRepository) CreateEvent(ctx context.Context, event *models.OrderEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// ListEvents retrieves the audit trail for an order, oldest first. Callers
// resolve the order through a scoped lookup first; events themselves carry
// mixed actors.
func (r *OrderRepository) ListEvents(ctx context.Context, orderID uuid.UUID) ([]models.OrderEvent, error) {
	var events []models.OrderEvent
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&events).Error
	return events, err
}
