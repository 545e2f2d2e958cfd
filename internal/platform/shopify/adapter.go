package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"channel-bridge-service/internal/platform"
	"golang.org/x/time/rate"
)

const (
	apiVersion = "2024-01"

	// Slug addresses this adapter in platform operation strings.
	Slug = "shopify"
)

// Adapter implements the local platform adapter contract for Shopify. One
// instance serves every Shopify shop and channel; connection details arrive
// per call in the platform config.
type Adapter struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	ops         map[string]platform.Func
}

// New creates the Shopify adapter
func New() *Adapter {
	a := &Adapter{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		rateLimiter: rate.NewLimiter(rate.Limit(2), 1), // 2 requests per second
	}
	a.ops = map[string]platform.Func{
		platform.OpSearchProducts:         a.searchProducts,
		platform.OpGetProduct:             a.getProduct,
		platform.OpSearchOrders:           a.searchOrders,
		platform.OpUpdateProduct:          a.updateProduct,
		platform.OpAddCartToPlatformOrder: a.addCartToPlatformOrder,
		platform.OpCreateWebhook:          a.createWebhook,
		platform.OpDeleteWebhook:          a.deleteWebhook,
		platform.OpGetWebhooks:            a.getWebhooks,
		platform.OpOAuth:                  a.oAuth,
		platform.OpOAuthCallback:          a.oAuthCallback,
		platform.OpCreateOrderWebhook:     a.normalizeOrderCreated,
		platform.OpCancelOrderWebhook:     a.normalizeOrderCancelled,
		platform.OpAddTracking:            a.addTracking,
	}
	return a
}

// Slug returns the registry slug for this adapter
func (a *Adapter) Slug() string {
	return Slug
}

// Lookup returns the function implementing the named operation
func (a *Adapter) Lookup(operation string) (platform.Func, bool) {
	fn, ok := a.ops[operation]
	return fn, ok
}

type shopifyProduct struct {
	Title    string           `json:"title"`
	Images   []shopifyImage   `json:"images"`
	Variants []shopifyVariant `json:"variants"`
}

type shopifyImage struct {
	Src string `json:"src"`
}

type shopifyVariant struct {
	ID                int64  `json:"id"`
	Title             string `json:"title"`
	Price             string `json:"price"`
	InventoryQuantity int    `json:"inventory_quantity"`
}

// searchProducts resolves the live price, image and title for a
// (productId, variantId) pair. This is the operation the matcher uses to
// annotate price drift at materialization time.
func (a *Adapter) searchProducts(ctx context.Context, cfg *platform.Config, args map[string]interface{}) (map[string]interface{}, error) {
	productID := stringArg(args, "productId")
	if productID == "" {
		return nil, fmt.Errorf("missing productId")
	}
	variantID := stringArg(args, "variantId")

	body, err := a.doRequest(ctx, cfg, "GET", fmt.Sprintf("/products/%s.json", productID), nil, nil)
	if err != nil {
		return nil, err
	}

	var response struct {
		Product shopifyProduct `json:"product"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse product response: %w", err)
	}

	result := map[string]interface{}{
		"productId": productID,
		"title":     response.Product.Title,
	}
	if len(response.Product.Images) > 0 {
		result["image"] = response.Product.Images[0].Src
	}

	for _, v := range response.Product.Variants {
		if variantID == "" || strconv.FormatInt(v.ID, 10) == variantID {
			result["variantId"] = strconv.FormatInt(v.ID, 10)
			result["price"] = v.Price
			result["quantity"] = v.InventoryQuantity
			if v.Title != "" && v.Title != "Default Title" {
				result["title"] = response.Product.Title + " - " + v.Title
			}
			break
		}
	}
	if _, ok := result["price"]; !ok {
		return nil, fmt.Errorf("variant %s not found on product %s", variantID, productID)
	}

	return result, nil
}

// getProduct returns the full product object for a product id
func (a *Adapter) getProduct(ctx context.Context, cfg *platform.Config, args map[string]interface{}) (map[string]interface{}, error) {
	productID := stringArg(args, "productId")
	if productID == "" {
		return nil, fmt.Errorf("missing productId")
	}

	body, err := a.doRequest(ctx, cfg, "GET", fmt.Sprintf("/products/%s.json", productID), nil, nil)
	if err != nil {
		return nil, err
	}

	result := map[string]interface{}{}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse product response: %w", err)
	}
	return result, nil
}

// searchOrders lists orders on the platform
func (a *Adapter) searchOrders(ctx context.Context, cfg *platform.Config, args map[string]interface{}) (map[string]interface{}, error) {
	params := url.Values{}
	params.Set("status", "any")
	if status := stringArg(args, "status"); status != "" {
		params.Set("status", status)
	}
	if after := stringArg(args, "createdAfter"); after != "" {
		params.Set("created_at_min", after)
	}
	if limit := stringArg(args, "limit"); limit != "" {
		params.Set("limit", limit)
	}

	body, err := a.doRequest(ctx, cfg, "GET", "/orders.json", params, nil)
	if err != nil {
		return nil, err
	}

	result := map[string]interface{}{}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse orders response: %w", err)
	}
	return result, nil
}

// updateProduct pushes a price update and/or an inventory delta to a variant
func (a *Adapter) updateProduct(ctx context.Context, cfg *platform.Config, args map[string]interface{}) (map[string]interface{}, error) {
	variantID := stringArg(args, "variantId")
	if variantID == "" {
		return nil, fmt.Errorf("missing variantId")
	}

	result := map[string]interface{}{"variantId": variantID}

	if price := stringArg(args, "price"); price != "" {
		payload := map[string]interface{}{
			"variant": map[string]interface{}{"id": variantID, "price": price},
		}
		if _, err := a.doRequest(ctx, cfg, "PUT", fmt.Sprintf("/variants/%s.json", variantID), nil, payload); err != nil {
			return nil, err
		}
		result["price"] = price
	}

	if delta, ok := intArg(args, "inventoryDelta"); ok && delta != 0 {
		body, err := a.doRequest(ctx, cfg, "GET", fmt.Sprintf("/variants/%s.json", variantID), nil, nil)
		if err != nil {
			return nil, err
		}
		var variantResp struct {
			Variant struct {
				InventoryItemID int64 `json:"inventory_item_id"`
			} `json:"variant"`
		}
		if err := json.Unmarshal(body, &variantResp); err != nil {
			return nil, fmt.Errorf("failed to parse variant response: %w", err)
		}

		locationID, err := a.firstLocationID(ctx, cfg)
		if err != nil {
			return nil, err
		}

		payload := map[string]interface{}{
			"inventory_item_id":     variantResp.Variant.InventoryItemID,
			"location_id":           locationID,
			"available_adjustment":  delta,
		}
		if _, err := a.doRequest(ctx, cfg, "POST", "/inventory_levels/adjust.json", nil, payload); err != nil {
			return nil, err
		}
		result["inventoryDelta"] = delta
	}

	return result, nil
}

// addCartToPlatformOrder places the given cart items as an order on the
// platform and returns the platform-side purchase id.
func (a *Adapter) addCartToPlatformOrder(ctx context.Context, cfg *platform.Config, args map[string]interface{}) (map[string]interface{}, error) {
	items, _ := args["cartItems"].([]interface{})
	if len(items) == 0 {
		return nil, fmt.Errorf("missing cartItems")
	}

	lineItems := make([]map[string]interface{}, 0, len(items))
	for _, raw := range items {
		item, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		lineItems = append(lineItems, map[string]interface{}{
			"variant_id": item["variantId"],
			"quantity":   item["quantity"],
		})
	}

	payload := map[string]interface{}{
		"order": map[string]interface{}{"line_items": lineItems},
	}
	body, err := a.doRequest(ctx, cfg, "POST", "/orders.json", nil, payload)
	if err != nil {
		return nil, err
	}

	var response struct {
		Order struct {
			ID int64 `json:"id"`
		} `json:"order"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse order response: %w", err)
	}

	return map[string]interface{}{"purchaseId": strconv.FormatInt(response.Order.ID, 10)}, nil
}

// createWebhook registers a webhook subscription
func (a *Adapter) createWebhook(ctx context.Context, cfg *platform.Config, args map[string]interface{}) (map[string]interface{}, error) {
	topic := stringArg(args, "topic")
	address := stringArg(args, "address")
	if topic == "" || address == "" {
		return nil, fmt.Errorf("missing topic or address")
	}

	payload := map[string]interface{}{
		"webhook": map[string]interface{}{
			"topic":   topic,
			"address": address,
			"format":  "json",
		},
	}
	body, err := a.doRequest(ctx, cfg, "POST", "/webhooks.json", nil, payload)
	if err != nil {
		return nil, err
	}

	result := map[string]interface{}{}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse webhook response: %w", err)
	}
	return result, nil
}

// deleteWebhook removes a webhook subscription
func (a *Adapter) deleteWebhook(ctx context.Context, cfg *platform.Config, args map[string]interface{}) (map[string]interface{}, error) {
	webhookID := stringArg(args, "webhookId")
	if webhookID == "" {
		return nil, fmt.Errorf("missing webhookId")
	}
	if _, err := a.doRequest(ctx, cfg, "DELETE", fmt.Sprintf("/webhooks/%s.json", webhookID), nil, nil); err != nil {
		return nil, err
	}
	return map[string]interface{}{"deleted": true}, nil
}

// getWebhooks lists webhook subscriptions
func (a *Adapter) getWebhooks(ctx context.Context, cfg *platform.Config, args map[string]interface{}) (map[string]interface{}, error) {
	body, err := a.doRequest(ctx, cfg, "GET", "/webhooks.json", nil, nil)
	if err != nil {
		return nil, err
	}
	result := map[string]interface{}{}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse webhooks response: %w", err)
	}
	return result, nil
}

// oAuth constructs the authorization URL for the OAuth install flow
func (a *Adapter) oAuth(ctx context.Context, cfg *platform.Config, args map[string]interface{}) (map[string]interface{}, error) {
	clientID := stringArg(args, "clientId")
	redirectURI := stringArg(args, "redirectUri")
	if clientID == "" || redirectURI == "" {
		return nil, fmt.Errorf("missing clientId or redirectUri")
	}

	params := url.Values{}
	params.Set("client_id", clientID)
	params.Set("redirect_uri", redirectURI)
	if scopes := stringArg(args, "scopes"); scopes != "" {
		params.Set("scope", scopes)
	}
	if state := stringArg(args, "state"); state != "" {
		params.Set("state", state)
	}

	return map[string]interface{}{
		"url": fmt.Sprintf("%s/admin/oauth/authorize?%s", baseURL(cfg.Domain), params.Encode()),
	}, nil
}

// oAuthCallback exchanges the authorization code for an access token
func (a *Adapter) oAuthCallback(ctx context.Context, cfg *platform.Config, args map[string]interface{}) (map[string]interface{}, error) {
	code := stringArg(args, "code")
	if code == "" {
		return nil, fmt.Errorf("missing code")
	}

	payload := map[string]interface{}{
		"client_id":     stringArg(args, "clientId"),
		"client_secret": stringArg(args, "clientSecret"),
		"code":          code,
	}
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST",
		fmt.Sprintf("%s/admin/oauth/access_token", baseURL(cfg.Domain)), bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("oauth exchange failed (status %d): %s", resp.StatusCode, string(body))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		Scope       string `json:"scope"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to parse oauth response: %w", err)
	}

	return map[string]interface{}{
		"accessToken": tokenResp.AccessToken,
		"scope":       tokenResp.Scope,
	}, nil
}

// normalizeOrderCreated converts an orders/create webhook payload into the
// uniform order shape consumed by the webhook intake service.
func (a *Adapter) normalizeOrderCreated(ctx context.Context, cfg *platform.Config, args map[string]interface{}) (map[string]interface{}, error) {
	payload, ok := args["payload"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("missing payload")
	}

	lineItems := []map[string]interface{}{}
	if rawItems, ok := payload["line_items"].([]interface{}); ok {
		for _, raw := range rawItems {
			item, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			lineItems = append(lineItems, map[string]interface{}{
				"productId": idString(item["product_id"]),
				"variantId": idString(item["variant_id"]),
				"quantity":  item["quantity"],
				"price":     item["price"],
				"title":     item["title"],
				"sku":       item["sku"],
			})
		}
	}

	return map[string]interface{}{
		"externalOrderId": idString(payload["id"]),
		"lineItems":       lineItems,
	}, nil
}

// normalizeOrderCancelled extracts the platform order id from an
// orders/cancelled webhook payload.
func (a *Adapter) normalizeOrderCancelled(ctx context.Context, cfg *platform.Config, args map[string]interface{}) (map[string]interface{}, error) {
	payload, ok := args["payload"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("missing payload")
	}
	return map[string]interface{}{
		"externalOrderId": idString(payload["id"]),
	}, nil
}

// addTracking creates a fulfillment carrying the tracking details. When the
// platform reports the order already fulfilled, it falls back to updating the
// existing fulfillment, prepending the new tracking number to the existing
// numbers. The fallback is best effort: no existing fulfillment means no
// result and no error.
func (a *Adapter) addTracking(ctx context.Context, cfg *platform.Config, args map[string]interface{}) (map[string]interface{}, error) {
	order, _ := args["order"].(map[string]interface{})
	orderID := idString(order["externalOrderId"])
	if orderID == "" {
		orderID = idString(order["id"])
	}
	if orderID == "" {
		return nil, fmt.Errorf("missing order id")
	}
	trackingNumber := stringArg(args, "trackingNumber")
	trackingCompany := stringArg(args, "trackingCompany")

	locationID, err := a.firstLocationID(ctx, cfg)
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"fulfillment": map[string]interface{}{
			"location_id":      locationID,
			"tracking_number":  trackingNumber,
			"tracking_company": trackingCompany,
			"notify_customer":  true,
		},
	}
	body, err := a.doRequest(ctx, cfg, "POST", fmt.Sprintf("/orders/%s/fulfillments.json", orderID), nil, payload)
	if err == nil {
		result := map[string]interface{}{}
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("failed to parse fulfillment response: %w", err)
		}
		return result, nil
	}
	if !isUserError(err) {
		return nil, err
	}

	// Already fulfilled: update tracking on the existing fulfillment instead.
	existing, lookupErr := a.firstFulfillment(ctx, cfg, orderID)
	if lookupErr != nil || existing == nil {
		return nil, lookupErr
	}

	numbers := append([]string{trackingNumber}, existing.TrackingNumbers...)
	updatePayload := map[string]interface{}{
		"fulfillment": map[string]interface{}{
			"tracking_info": map[string]interface{}{
				"numbers": numbers,
				"company": trackingCompany,
			},
			"notify_customer": true,
		},
	}
	body, err = a.doRequest(ctx, cfg, "POST",
		fmt.Sprintf("/fulfillments/%d/update_tracking.json", existing.ID), nil, updatePayload)
	if err != nil {
		return nil, err
	}

	result := map[string]interface{}{}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse tracking update response: %w", err)
	}
	return result, nil
}

// firstLocationID resolves the shop's first fulfillment location
func (a *Adapter) firstLocationID(ctx context.Context, cfg *platform.Config) (int64, error) {
	body, err := a.doRequest(ctx, cfg, "GET", "/locations.json", nil, nil)
	if err != nil {
		return 0, err
	}

	var response struct {
		Locations []struct {
			ID int64 `json:"id"`
		} `json:"locations"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return 0, fmt.Errorf("failed to parse locations response: %w", err)
	}
	if len(response.Locations) == 0 {
		return 0, fmt.Errorf("no fulfillment locations available")
	}
	return response.Locations[0].ID, nil
}

type shopifyFulfillment struct {
	ID              int64    `json:"id"`
	Status          string   `json:"status"`
	TrackingNumbers []string `json:"tracking_numbers"`
}

// firstFulfillment returns the order's first fulfillment, or nil when none exists
func (a *Adapter) firstFulfillment(ctx context.Context, cfg *platform.Config, orderID string) (*shopifyFulfillment, error) {
	body, err := a.doRequest(ctx, cfg, "GET", fmt.Sprintf("/orders/%s/fulfillments.json", orderID), nil, nil)
	if err != nil {
		return nil, err
	}

	var response struct {
		Fulfillments []shopifyFulfillment `json:"fulfillments"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse fulfillments response: %w", err)
	}
	if len(response.Fulfillments) == 0 {
		return nil, nil
	}
	return &response.Fulfillments[0], nil
}

// doRequest performs an authenticated Admin API request
func (a *Adapter) doRequest(ctx context.Context, cfg *platform.Config, method, path string, params url.Values, body interface{}) ([]byte, error) {
	if err := a.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	fullURL := fmt.Sprintf("%s/admin/api/%s%s", baseURL(cfg.Domain), apiVersion, path)
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Shopify-Access-Token", cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, &apiError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, nil
}

// apiError carries the platform response so callers can distinguish user
// errors (422) from transport failures.
type apiError struct {
	StatusCode int
	Body       string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("Shopify API error (status %d): %s", e.StatusCode, e.Body)
}

// isUserError reports whether the error is a platform-side user error such as
// "already fulfilled"
func isUserError(err error) bool {
	apiErr, ok := err.(*apiError)
	return ok && apiErr.StatusCode == http.StatusUnprocessableEntity
}

// baseURL normalizes a configured domain into an https base URL
func baseURL(domain string) string {
	if strings.Contains(domain, "://") {
		return strings.TrimSuffix(domain, "/")
	}
	return "https://" + strings.TrimSuffix(domain, "/")
}

// stringArg reads a string member of the argument envelope, converting
// numbers so remote and local callers can be sloppy about types
func stringArg(args map[string]interface{}, key string) string {
	switch v := args[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}

// intArg reads an integer member of the argument envelope
func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// idString renders a platform id (JSON number or string) as a string
func idString(v interface{}) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatInt(int64(id), 10)
	case int64:
		return strconv.FormatInt(id, 10)
	default:
		return ""
	}
}
