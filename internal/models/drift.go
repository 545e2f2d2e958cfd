package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DriftSeverity represents the severity of a detected drift
type DriftSeverity string

const (
	DriftSeverityLow      DriftSeverity = "LOW"
	DriftSeverityMedium   DriftSeverity = "MEDIUM"
	DriftSeverityHigh     DriftSeverity = "HIGH"
	DriftSeverityCritical DriftSeverity = "CRITICAL"
)

// DriftStatus represents the status of a detected drift
type DriftStatus string

const (
	DriftStatusOpen     DriftStatus = "OPEN"
	DriftStatusAcked    DriftStatus = "ACKNOWLEDGED"
	DriftStatusResolved DriftStatus = "RESOLVED"
	DriftStatusIgnored  DriftStatus = "IGNORED"
)

// MatchDrift records disagreement between a match output's recorded price or
// quantity and the live values fetched from its channel.
type MatchDrift struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index:idx_match_drifts_user" json:"userId"`
	MatchID       uuid.UUID `gorm:"type:uuid;not null;index:idx_match_drifts_match" json:"matchId"`
	ChannelItemID uuid.UUID `gorm:"type:uuid;not null" json:"channelItemId"`
	ChannelID     uuid.UUID `gorm:"type:uuid;not null;index:idx_match_drifts_channel" json:"channelId"`

	RecordedPrice decimal.Decimal `gorm:"type:decimal(12,2)" json:"recordedPrice"`
	LivePrice     decimal.Decimal `gorm:"type:decimal(12,2)" json:"livePrice"`
	PriceDelta    decimal.Decimal `gorm:"type:decimal(12,2)" json:"priceDelta"`

	RecordedQuantity int `json:"recordedQuantity"`
	LiveQuantity     int `json:"liveQuantity"`
	QuantityDelta    int `json:"quantityDelta"`

	Severity   DriftSeverity `gorm:"type:varchar(50)" json:"severity"`
	Status     DriftStatus   `gorm:"type:varchar(50);default:'OPEN'" json:"status"`
	Resolution *string       `gorm:"type:text" json:"resolution,omitempty"`
	ResolvedAt *time.Time    `json:"resolvedAt,omitempty"`
	ResolvedBy *string       `gorm:"type:varchar(255)" json:"resolvedBy,omitempty"`

	DetectedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"detectedAt"`
	CreatedAt  time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

// TableName specifies the table name for MatchDrift
func (MatchDrift) TableName() string {
	return "match_drifts"
}
