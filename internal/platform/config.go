package platform

import (
	"encoding/json"

	"channel-bridge-service/internal/models"
)

// Operation names every platform record and adapter may implement.
const (
	OpSearchProducts         = "searchProductsFunction"
	OpGetProduct             = "getProductFunction"
	OpSearchOrders           = "searchOrdersFunction"
	OpUpdateProduct          = "updateProductFunction"
	OpAddCartToPlatformOrder = "addCartToPlatformOrderFunction"
	OpCreateWebhook          = "createWebhookFunction"
	OpDeleteWebhook          = "deleteWebhookFunction"
	OpGetWebhooks            = "getWebhooksFunction"
	OpOAuth                  = "oAuthFunction"
	OpOAuthCallback          = "oAuthCallbackFunction"
	OpCreateOrderWebhook     = "createOrderWebhookHandler"
	OpCancelOrderWebhook     = "cancelOrderWebhookHandler"
	OpAddTracking            = "addTrackingFunction"
)

// OperationNames lists every recognized adapter operation.
var OperationNames = []string{
	OpSearchProducts,
	OpGetProduct,
	OpSearchOrders,
	OpUpdateProduct,
	OpAddCartToPlatformOrder,
	OpCreateWebhook,
	OpDeleteWebhook,
	OpGetWebhooks,
	OpOAuth,
	OpOAuthCallback,
	OpCreateOrderWebhook,
	OpCancelOrderWebhook,
	OpAddTracking,
}

// Config is the merged platform configuration for one shop or channel: its
// connection details plus the operation map from its Platform record. It is
// what travels as the "platform" member of the HTTP adapter envelope.
type Config struct {
	Type        models.PlatformType
	Domain      string
	AccessToken string
	Operations  map[string]string
}

// NewConfig merges a platform record with the connection details of the shop
// or channel it serves.
func NewConfig(p *models.Platform, typ models.PlatformType, domain, accessToken string) *Config {
	ops := map[string]string{}
	if p != nil {
		ops = p.Operations()
	}
	return &Config{
		Type:        typ,
		Domain:      domain,
		AccessToken: accessToken,
		Operations:  ops,
	}
}

// Operation returns the implementation string for an operation, or "" when
// the operation is not configured.
func (c *Config) Operation(name string) string {
	return c.Operations[name]
}

// MarshalJSON flattens the operation map into the platform object so remote
// adapters receive {type, domain, accessToken, searchProductsFunction, ...}.
func (c *Config) MarshalJSON() ([]byte, error) {
	obj := make(map[string]interface{}, len(c.Operations)+3)
	for name, impl := range c.Operations {
		obj[name] = impl
	}
	obj["type"] = c.Type
	obj["domain"] = c.Domain
	obj["accessToken"] = c.AccessToken
	return json.Marshal(obj)
}
