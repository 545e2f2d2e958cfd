package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShopItem is a (productId, variantId, quantity) triple scoped to one shop.
// Immutable once created.
type ShopItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_shop_items_user" json:"userId"`
	ShopID    uuid.UUID `gorm:"type:uuid;not null;index:idx_shop_items_shop" json:"shopId"`
	ProductID string    `gorm:"type:varchar(255);not null" json:"productId"`
	VariantID string    `gorm:"type:varchar(255);not null" json:"variantId"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
}

// TableName specifies the table name for ShopItem
func (ShopItem) TableName() string {
	return "shop_items"
}

// Matches returns whether the item carries the given triple.
func (i *ShopItem) Matches(productID, variantID string, quantity int) bool {
	return i.ProductID == productID && i.VariantID == variantID && i.Quantity == quantity
}

// ChannelItem is a (productId, variantId, quantity) triple scoped to one
// channel, carrying the price recorded when the item was declared. The
// recorded price is the baseline for drift detection at materialization time.
type ChannelItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID    uuid.UUID       `gorm:"type:uuid;not null;index:idx_channel_items_user" json:"userId"`
	ChannelID uuid.UUID       `gorm:"type:uuid;not null;index:idx_channel_items_channel" json:"channelId"`
	ProductID string          `gorm:"type:varchar(255);not null" json:"productId"`
	VariantID string          `gorm:"type:varchar(255);not null" json:"variantId"`
	Quantity  int             `gorm:"not null;default:1" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2)" json:"price"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`

	// Relationships
	Channel *Channel `gorm:"foreignKey:ChannelID" json:"channel,omitempty"`
}

// TableName specifies the table name for ChannelItem
func (ChannelItem) TableName() string {
	return "channel_items"
}

// Match is a saved equivalence between a set of shop items (input) and a set
// of channel items (output). InputCount caches the input cardinality so the
// matcher can query candidates without loading every join row.
type Match struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index:idx_matches_user" json:"userId"`
	InputCount int       `gorm:"not null;default:0;index:idx_matches_input_count" json:"inputCount"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`

	// Relationships
	Input  []ShopItem    `gorm:"many2many:match_inputs" json:"input,omitempty"`
	Output []ChannelItem `gorm:"many2many:match_outputs" json:"output,omitempty"`
}

// TableName specifies the table name for Match
func (Match) TableName() string {
	return "matches"
}

// CoversLineItems reports whether the match's input set exactly covers the
// given line items: equal cardinality and every input (productId, variantId,
// quantity) triple present among the line items.
func (m *Match) CoversLineItems(lineItems []LineItem) bool {
	if m.InputCount != len(lineItems) || len(m.Input) != len(lineItems) {
		return false
	}
	for _, in := range m.Input {
		found := false
		for _, li := range lineItems {
			if in.Matches(li.ProductID, li.VariantID, li.Quantity) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
