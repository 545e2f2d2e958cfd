package models

import (
	"time"

	"github.com/google/uuid"
)

// PlatformType identifies the integration family a shop or channel belongs to.
// "custom" is the generic bucket for stores without a first-class integration.
type PlatformType string

const (
	PlatformShopify PlatformType = "shopify"
	PlatformCustom  PlatformType = "custom"
)

// Platform names, per integration operation, the implementation that
// satisfies it: either an HTTP endpoint URL or a local adapter slug.
// An empty string means the operation is not configured for this platform.
type Platform struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index:idx_platforms_user" json:"userId"`
	Name   string    `gorm:"type:varchar(255);not null" json:"name"`

	SearchProductsFunction         string `gorm:"type:varchar(500)" json:"searchProductsFunction,omitempty"`
	GetProductFunction             string `gorm:"type:varchar(500)" json:"getProductFunction,omitempty"`
	SearchOrdersFunction           string `gorm:"type:varchar(500)" json:"searchOrdersFunction,omitempty"`
	UpdateProductFunction          string `gorm:"type:varchar(500)" json:"updateProductFunction,omitempty"`
	AddCartToPlatformOrderFunction string `gorm:"type:varchar(500)" json:"addCartToPlatformOrderFunction,omitempty"`
	CreateWebhookFunction          string `gorm:"type:varchar(500)" json:"createWebhookFunction,omitempty"`
	DeleteWebhookFunction          string `gorm:"type:varchar(500)" json:"deleteWebhookFunction,omitempty"`
	GetWebhooksFunction            string `gorm:"type:varchar(500)" json:"getWebhooksFunction,omitempty"`
	OAuthFunction                  string `gorm:"type:varchar(500)" json:"oAuthFunction,omitempty"`
	OAuthCallbackFunction          string `gorm:"type:varchar(500)" json:"oAuthCallbackFunction,omitempty"`
	CreateOrderWebhookHandler      string `gorm:"type:varchar(500)" json:"createOrderWebhookHandler,omitempty"`
	CancelOrderWebhookHandler      string `gorm:"type:varchar(500)" json:"cancelOrderWebhookHandler,omitempty"`
	AddTrackingFunction            string `gorm:"type:varchar(500)" json:"addTrackingFunction,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

// TableName specifies the table name for Platform
func (Platform) TableName() string {
	return "platforms"
}

// Operations returns the operation-name to implementation-string map,
// skipping unconfigured operations.
func (p *Platform) Operations() map[string]string {
	all := map[string]string{
		"searchProductsFunction":         p.SearchProductsFunction,
		"getProductFunction":             p.GetProductFunction,
		"searchOrdersFunction":           p.SearchOrdersFunction,
		"updateProductFunction":          p.UpdateProductFunction,
		"addCartToPlatformOrderFunction": p.AddCartToPlatformOrderFunction,
		"createWebhookFunction":          p.CreateWebhookFunction,
		"deleteWebhookFunction":          p.DeleteWebhookFunction,
		"getWebhooksFunction":            p.GetWebhooksFunction,
		"oAuthFunction":                  p.OAuthFunction,
		"oAuthCallbackFunction":          p.OAuthCallbackFunction,
		"createOrderWebhookHandler":      p.CreateOrderWebhookHandler,
		"cancelOrderWebhookHandler":      p.CancelOrderWebhookHandler,
		"addTrackingFunction":            p.AddTrackingFunction,
	}
	ops := make(map[string]string, len(all))
	for name, impl := range all {
		if impl != "" {
			ops[name] = impl
		}
	}
	return ops
}

// Shop is a source of orders and inventory connected to one platform.
type Shop struct {
	ID         uuid.UUID    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID     uuid.UUID    `gorm:"type:uuid;not null;index:idx_shops_user" json:"userId"`
	Name       string       `gorm:"type:varchar(255);not null" json:"name"`
	Type       PlatformType `gorm:"type:varchar(50);not null;default:'custom'" json:"type"`
	Domain     string       `gorm:"type:varchar(500);not null" json:"domain"`
	PlatformID *uuid.UUID   `gorm:"type:uuid" json:"platformId,omitempty"`

	// Access token is held by the credential store; this column keeps the
	// ciphertext fallback when no secret manager is configured.
	TokenCiphertext []byte `gorm:"type:bytea" json:"-"`
	SecretReference string `gorm:"type:varchar(500)" json:"-"`
	Metadata        JSONB  `gorm:"type:jsonb;default:'{}'" json:"metadata,omitempty"`

	// Directive defaults applied to orders arriving via this shop's webhooks.
	LinkOrder    bool `gorm:"default:false" json:"linkOrder"`
	MatchOrder   bool `gorm:"default:false" json:"matchOrder"`
	ProcessOrder bool `gorm:"default:false" json:"processOrder"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`

	// Relationships
	Platform *Platform `gorm:"foreignKey:PlatformID" json:"platform,omitempty"`
	Links    []Link    `gorm:"foreignKey:ShopID" json:"links,omitempty"`
}

// TableName specifies the table name for Shop
func (Shop) TableName() string {
	return "shops"
}

// Channel is a fulfillment destination connected to one platform.
type Channel struct {
	ID         uuid.UUID    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID     uuid.UUID    `gorm:"type:uuid;not null;index:idx_channels_user" json:"userId"`
	Name       string       `gorm:"type:varchar(255);not null" json:"name"`
	Type       PlatformType `gorm:"type:varchar(50);not null;default:'custom'" json:"type"`
	Domain     string       `gorm:"type:varchar(500);not null" json:"domain"`
	PlatformID *uuid.UUID   `gorm:"type:uuid" json:"platformId,omitempty"`

	TokenCiphertext []byte `gorm:"type:bytea" json:"-"`
	SecretReference string `gorm:"type:varchar(500)" json:"-"`
	Metadata        JSONB  `gorm:"type:jsonb;default:'{}'" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`

	// Relationships
	Platform *Platform `gorm:"foreignKey:PlatformID" json:"platform,omitempty"`
}

// TableName specifies the table name for Channel
func (Channel) TableName() string {
	return "channels"
}

// Link is a standing shop-level default mapping to one channel, used to
// bypass matching entirely.
type Link struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_links_user" json:"userId"`
	ShopID    uuid.UUID `gorm:"type:uuid;not null;index:idx_links_shop" json:"shopId"`
	ChannelID uuid.UUID `gorm:"type:uuid;not null" json:"channelId"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`

	// Relationships
	Shop    *Shop    `gorm:"foreignKey:ShopID" json:"shop,omitempty"`
	Channel *Channel `gorm:"foreignKey:ChannelID" json:"channel,omitempty"`
}

// TableName specifies the table name for Link
func (Link) TableName() string {
	return "links"
}
