package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"channel-bridge-service/internal/platform"
)

func testCfg(serverURL string) *platform.Config {
	return &platform.Config{
		Domain:      serverURL,
		AccessToken: "test-token",
	}
}

func apiPath(path string) string {
	return "/admin/api/" + apiVersion + path
}

func TestAdapterRegistersAllOperations(t *testing.T) {
	a := New()
	assert.Equal(t, "shopify", a.Slug())
	for _, name := range platform.OperationNames {
		_, ok := a.Lookup(name)
		assert.True(t, ok, "operation %s not implemented", name)
	}
	_, ok := a.Lookup("bogusFunction")
	assert.False(t, ok)
}

func TestSearchProductsResolvesVariant(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-token", r.Header.Get("X-Shopify-Access-Token"))
		assert.Equal(t, apiPath("/products/p1.json"), r.URL.Path)
		fmt.Fprint(w, `{"product":{"id":1,"title":"Widget","images":[{"src":"https://img/1.png"}],"variants":[
			{"id":11,"title":"Default Title","price":"9.99","inventory_quantity":5},
			{"id":12,"title":"Large","price":"12.99","inventory_quantity":2}
		]}}`)
	}))
	defer server.Close()

	a := New()
	result, err := a.searchProducts(context.Background(), testCfg(server.URL), map[string]interface{}{
		"productId": "p1",
		"variantId": "12",
	})

	require.NoError(t, err)
	assert.Equal(t, "12.99", result["price"])
	assert.Equal(t, "12", result["variantId"])
	assert.Equal(t, "Widget - Large", result["title"])
	assert.Equal(t, "https://img/1.png", result["image"])
}

func TestSearchProductsUnknownVariant(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"product":{"id":1,"title":"Widget","variants":[{"id":11,"price":"9.99"}]}}`)
	}))
	defer server.Close()

	a := New()
	_, err := a.searchProducts(context.Background(), testCfg(server.URL), map[string]interface{}{
		"productId": "p1",
		"variantId": "404",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "variant 404 not found")
}

func TestAddCartToPlatformOrder(t *testing.T) {
	var posted map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, apiPath("/orders.json"), r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&posted))
		fmt.Fprint(w, `{"order":{"id":987654}}`)
	}))
	defer server.Close()

	a := New()
	result, err := a.addCartToPlatformOrder(context.Background(), testCfg(server.URL), map[string]interface{}{
		"cartItems": []interface{}{
			map[string]interface{}{"variantId": "11", "quantity": float64(2)},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "987654", result["purchaseId"])

	order := posted["order"].(map[string]interface{})
	lineItems := order["line_items"].([]interface{})
	require.Len(t, lineItems, 1)
	assert.Equal(t, "11", lineItems[0].(map[string]interface{})["variant_id"])
}

func TestAddTrackingCreatesFulfillment(t *testing.T) {
	var fulfillmentBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case apiPath("/locations.json"):
			fmt.Fprint(w, `{"locations":[{"id":101}]}`)
		case apiPath("/orders/42/fulfillments.json"):
			require.Equal(t, http.MethodPost, r.Method)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&fulfillmentBody))
			fmt.Fprint(w, `{"fulfillment":{"id":9}}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	a := New()
	result, err := a.addTracking(context.Background(), testCfg(server.URL), map[string]interface{}{
		"order":           map[string]interface{}{"externalOrderId": "42"},
		"trackingNumber":  "NEW-1",
		"trackingCompany": "UPS",
	})

	require.NoError(t, err)
	assert.NotNil(t, result["fulfillment"])

	fulfillment := fulfillmentBody["fulfillment"].(map[string]interface{})
	assert.Equal(t, float64(101), fulfillment["location_id"])
	assert.Equal(t, "NEW-1", fulfillment["tracking_number"])
	assert.Equal(t, "UPS", fulfillment["tracking_company"])
}

func TestAddTrackingFallsBackToExistingFulfillment(t *testing.T) {
	var updateBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == apiPath("/locations.json"):
			fmt.Fprint(w, `{"locations":[{"id":101}]}`)
		case r.URL.Path == apiPath("/orders/42/fulfillments.json") && r.Method == http.MethodPost:
			w.WriteHeader(http.StatusUnprocessableEntity)
			fmt.Fprint(w, `{"errors":{"base":["Line items are already fulfilled"]}}`)
		case r.URL.Path == apiPath("/orders/42/fulfillments.json") && r.Method == http.MethodGet:
			fmt.Fprint(w, `{"fulfillments":[{"id":7,"status":"success","tracking_numbers":["OLD-1","OLD-2"]}]}`)
		case r.URL.Path == apiPath("/fulfillments/7/update_tracking.json"):
			require.NoError(t, json.NewDecoder(r.Body).Decode(&updateBody))
			fmt.Fprint(w, `{"fulfillment":{"id":7}}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	a := New()
	result, err := a.addTracking(context.Background(), testCfg(server.URL), map[string]interface{}{
		"order":           map[string]interface{}{"externalOrderId": "42"},
		"trackingNumber":  "NEW-1",
		"trackingCompany": "UPS",
	})

	require.NoError(t, err)
	assert.NotNil(t, result["fulfillment"])

	// The new number is prepended to the fulfillment's existing numbers.
	fulfillment := updateBody["fulfillment"].(map[string]interface{})
	trackingInfo := fulfillment["tracking_info"].(map[string]interface{})
	numbers := trackingInfo["numbers"].([]interface{})
	assert.Equal(t, []interface{}{"NEW-1", "OLD-1", "OLD-2"}, numbers)
	assert.Equal(t, "UPS", trackingInfo["company"])
}

func TestAddTrackingNoExistingFulfillment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == apiPath("/locations.json"):
			fmt.Fprint(w, `{"locations":[{"id":101}]}`)
		case r.Method == http.MethodPost:
			w.WriteHeader(http.StatusUnprocessableEntity)
			fmt.Fprint(w, `{"errors":{"base":["Line items are already fulfilled"]}}`)
		default:
			fmt.Fprint(w, `{"fulfillments":[]}`)
		}
	}))
	defer server.Close()

	a := New()
	result, err := a.addTracking(context.Background(), testCfg(server.URL), map[string]interface{}{
		"order":           map[string]interface{}{"externalOrderId": "42"},
		"trackingNumber":  "NEW-1",
		"trackingCompany": "UPS",
	})

	// No fulfillment to update means nothing to do, silently.
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestAddTrackingTransportErrorNotSwallowed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case apiPath("/locations.json"):
			fmt.Fprint(w, `{"locations":[{"id":101}]}`)
		default:
			http.Error(w, "upstream down", http.StatusBadGateway)
		}
	}))
	defer server.Close()

	a := New()
	_, err := a.addTracking(context.Background(), testCfg(server.URL), map[string]interface{}{
		"order":          map[string]interface{}{"externalOrderId": "42"},
		"trackingNumber": "NEW-1",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestNormalizeOrderCreated(t *testing.T) {
	a := New()
	result, err := a.normalizeOrderCreated(context.Background(), testCfg("shop.myshopify.com"), map[string]interface{}{
		"payload": map[string]interface{}{
			"id": float64(450789469),
			"line_items": []interface{}{
				map[string]interface{}{
					"product_id": float64(7513594),
					"variant_id": float64(39072856),
					"quantity":   float64(1),
					"price":      "199.00",
					"title":      "IPod Nano - 8gb",
					"sku":        "IPOD2008GREEN",
				},
			},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "450789469", result["externalOrderId"])
	lineItems := result["lineItems"].([]map[string]interface{})
	require.Len(t, lineItems, 1)
	assert.Equal(t, "7513594", lineItems[0]["productId"])
	assert.Equal(t, "39072856", lineItems[0]["variantId"])
	assert.Equal(t, "199.00", lineItems[0]["price"])
}

func TestNormalizeOrderCancelled(t *testing.T) {
	a := New()
	result, err := a.normalizeOrderCancelled(context.Background(), testCfg("shop.myshopify.com"), map[string]interface{}{
		"payload": map[string]interface{}{"id": "450789469"},
	})

	require.NoError(t, err)
	assert.Equal(t, "450789469", result["externalOrderId"])

	_, err = a.normalizeOrderCancelled(context.Background(), testCfg("shop.myshopify.com"), map[string]interface{}{})
	assert.Error(t, err)
}

func TestOAuthAuthorizeURL(t *testing.T) {
	a := New()
	result, err := a.oAuth(context.Background(), testCfg("shop.myshopify.com"), map[string]interface{}{
		"clientId":    "key-1",
		"redirectUri": "https://bridge.example.com/oauth/callback",
		"scopes":      "read_products,write_orders",
	})

	require.NoError(t, err)
	url := result["url"].(string)
	assert.Contains(t, url, "https://shop.myshopify.com/admin/oauth/authorize?")
	assert.Contains(t, url, "client_id=key-1")
	assert.Contains(t, url, "scope=read_products%2Cwrite_orders")
}

func TestBaseURL(t *testing.T) {
	assert.Equal(t, "https://shop.myshopify.com", baseURL("shop.myshopify.com"))
	assert.Equal(t, "https://shop.myshopify.com", baseURL("shop.myshopify.com/"))
	assert.Equal(t, "http://localhost:8080", baseURL("http://localhost:8080/"))
}

func TestIDString(t *testing.T) {
	assert.Equal(t, "42", idString("42"))
	assert.Equal(t, "42", idString(float64(42)))
	assert.Equal(t, "42", idString(int64(42)))
	assert.Equal(t, "", idString(nil))
}

func TestIsUserError(t *testing.T) {
	assert.True(t, isUserError(&apiError{StatusCode: http.StatusUnprocessableEntity}))
	assert.False(t, isUserError(&apiError{StatusCode: http.StatusBadGateway}))
	assert.False(t, isUserError(fmt.Errorf("plain error")))
}
