package models

import (
	"time"

	"github.com/google/uuid"
)

// TrackingDetail is a (trackingCompany, trackingNumber, purchaseId) record.
// Cart item associations are resolved either explicitly at creation or by a
// fallback lookup keyed on PurchaseID.
type TrackingDetail struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index:idx_tracking_user" json:"userId"`

	TrackingCompany string `gorm:"type:varchar(255);not null" json:"trackingCompany"`
	TrackingNumber  string `gorm:"type:varchar(255);not null" json:"trackingNumber"`
	PurchaseID      string `gorm:"type:varchar(255);index:idx_tracking_purchase" json:"purchaseId,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`

	// Relationships
	CartItems []CartItem `gorm:"many2many:cart_item_tracking" json:"cartItems,omitempty"`
}

// TableName specifies the table name for TrackingDetail
func (TrackingDetail) TableName() string {
	return "tracking_details"
}

// TrackingDispatch is the processed-event ledger for the tracking reconciler.
// One row per TrackingDetail guarantees the platform notification is sent at
// most once even when the reconciler is replayed.
type TrackingDispatch struct {
	ID               uuid.UUID    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	TrackingDetailID uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_tracking_dispatch_detail" json:"trackingDetailId"`
	PlatformType     PlatformType `gorm:"type:varchar(50)" json:"platformType"`
	DispatchedAt     time.Time    `gorm:"default:CURRENT_TIMESTAMP" json:"dispatchedAt"`
	Result           string       `gorm:"type:text" json:"result,omitempty"`
}

// TableName specifies the table name for TrackingDispatch
func (TrackingDispatch) TableName() string {
	return "tracking_dispatches"
}
