package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderEvent is the audit trail for order status transitions. Events are
// written by the lifecycle controller and the tracking reconciler only.
type OrderEvent struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OrderID uuid.UUID `gorm:"type:uuid;not null;index:idx_order_events_order" json:"orderId"`
	UserID  uuid.UUID `gorm:"type:uuid" json:"userId"`

	FromStatus OrderStatus `gorm:"type:varchar(50)" json:"fromStatus,omitempty"`
	ToStatus   OrderStatus `gorm:"type:varchar(50);not null" json:"toStatus"`
	Note       string      `gorm:"type:text" json:"note,omitempty"`
	Actor      string      `gorm:"type:varchar(100)" json:"actor,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP;index:idx_order_events_created" json:"createdAt"`
}

// TableName specifies the table name for OrderEvent
func (OrderEvent) TableName() string {
	return "order_events"
}
