package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the order lifecycle state. Status is mutated only by
// the lifecycle controller and the tracking reconciler, never by a client.
type OrderStatus string

const (
	OrderPending     OrderStatus = "PENDING"
	OrderInProcess   OrderStatus = "INPROCESS"
	OrderAwaiting    OrderStatus = "AWAITING"
	OrderBackordered OrderStatus = "BACKORDERED"
	OrderCancelled   OrderStatus = "CANCELLED"
	OrderComplete    OrderStatus = "COMPLETE"
)

// CartItemStatus represents the fulfillment state of a single cart item.
type CartItemStatus string

const (
	CartItemPending   CartItemStatus = "PENDING"
	CartItemInProcess CartItemStatus = "INPROCESS"
	CartItemCancelled CartItemStatus = "CANCELLED"
	CartItemComplete  CartItemStatus = "COMPLETE"
)

// Order aggregates the shop-side line items and the channel-side cart items.
// The three directive flags are consumed once, synchronously after creation.
type Order struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index:idx_orders_user" json:"userId"`
	ShopID uuid.UUID `gorm:"type:uuid;not null;index:idx_orders_shop" json:"shopId"`

	ExternalOrderID string      `gorm:"type:varchar(255);index:idx_orders_external" json:"externalOrderId,omitempty"`
	Status          OrderStatus `gorm:"type:varchar(50);not null;default:'PENDING'" json:"status"`
	OrderError      string      `gorm:"type:text" json:"orderError,omitempty"`

	// Directive flags set at creation
	LinkOrder    bool `gorm:"default:false" json:"linkOrder"`
	MatchOrder   bool `gorm:"default:false" json:"matchOrder"`
	ProcessOrder bool `gorm:"default:false" json:"processOrder"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`

	// Relationships
	Shop      *Shop      `gorm:"foreignKey:ShopID" json:"shop,omitempty"`
	LineItems []LineItem `gorm:"foreignKey:OrderID" json:"lineItems,omitempty"`
	CartItems []CartItem `gorm:"foreignKey:OrderID" json:"cartItems,omitempty"`
}

// TableName specifies the table name for Order
func (Order) TableName() string {
	return "orders"
}

// LineItem is a snapshot of what was ordered from the shop side, copied at
// order-creation time and never re-synced.
type LineItem struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OrderID uuid.UUID `gorm:"type:uuid;not null;index:idx_line_items_order" json:"orderId"`
	UserID  uuid.UUID `gorm:"type:uuid;not null" json:"userId"`

	ProductID string          `gorm:"type:varchar(255);not null" json:"productId"`
	VariantID string          `gorm:"type:varchar(255);not null" json:"variantId"`
	Quantity  int             `gorm:"not null;default:1" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2)" json:"price"`
	Title     string          `gorm:"type:varchar(500)" json:"title,omitempty"`
	Image     string          `gorm:"type:varchar(1000)" json:"image,omitempty"`
	SKU       string          `gorm:"type:varchar(255)" json:"sku,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
}

// TableName specifies the table name for LineItem
func (LineItem) TableName() string {
	return "line_items"
}

// CartItem is the channel-side counterpart materialized by the matcher or by
// a link. Error holds the price-drift message when the live channel price
// disagrees with the matched price. PurchaseID is populated once the order is
// actually placed on the channel.
type CartItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index:idx_cart_items_order" json:"orderId"`
	ChannelID uuid.UUID `gorm:"type:uuid;not null;index:idx_cart_items_channel" json:"channelId"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_cart_items_user" json:"userId"`

	ProductID string          `gorm:"type:varchar(255);not null" json:"productId"`
	VariantID string          `gorm:"type:varchar(255);not null" json:"variantId"`
	Quantity  int             `gorm:"not null;default:1" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2)" json:"price"`
	Title     string          `gorm:"type:varchar(500)" json:"title,omitempty"`
	Image     string          `gorm:"type:varchar(1000)" json:"image,omitempty"`

	Error      string         `gorm:"type:text" json:"error,omitempty"`
	PurchaseID *string        `gorm:"type:varchar(255);index:idx_cart_items_purchase" json:"purchaseId,omitempty"`
	Status     CartItemStatus `gorm:"type:varchar(50);not null;default:'PENDING'" json:"status"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`

	// Relationships
	Channel         *Channel         `gorm:"foreignKey:ChannelID" json:"channel,omitempty"`
	TrackingDetails []TrackingDetail `gorm:"many2many:cart_item_tracking" json:"trackingDetails,omitempty"`
}

// TableName specifies the table name for CartItem
func (CartItem) TableName() string {
	return "cart_items"
}
