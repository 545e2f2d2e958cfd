package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"channel-bridge-service/internal/auth"
	"channel-bridge-service/internal/encryption"
	"channel-bridge-service/internal/models"
	"channel-bridge-service/internal/platform"
)

// fakeAdapter is an in-test local adapter registered under the "fake" slug
type fakeAdapter struct {
	ops map[string]platform.Func
}

func (a *fakeAdapter) Slug() string { return "fake" }

func (a *fakeAdapter) Lookup(operation string) (platform.Func, bool) {
	fn, ok := a.ops[operation]
	return fn, ok
}

func newTestEncryptor(t *testing.T) *encryption.TokenEncryptor {
	encryptor, err := encryption.NewTokenEncryptor("test-key-material")
	require.NoError(t, err)
	return encryptor
}

func newTestDispatcher(ops map[string]platform.Func) *platform.Dispatcher {
	registry := platform.NewRegistry()
	registry.Register(&fakeAdapter{ops: ops})
	return platform.NewDispatcher(registry, time.Second)
}

// fakeChannel builds a channel whose platform routes every operation to the
// fake adapter, with an encrypted token stored in the row.
func fakeChannel(t *testing.T, encryptor *encryption.TokenEncryptor, userID uuid.UUID) *models.Channel {
	ciphertext, err := encryptor.Encrypt("channel-token")
	require.NoError(t, err)
	return &models.Channel{
		ID:              uuid.New(),
		UserID:          userID,
		Name:            "test channel",
		Type:            models.PlatformCustom,
		Domain:          "channel.example.com",
		TokenCiphertext: []byte(ciphertext),
		Platform: &models.Platform{
			SearchProductsFunction: "fake",
			UpdateProductFunction:  "fake",
		},
	}
}

func channelOutput(channel *models.Channel, productID, variantID string, quantity int, price string) models.ChannelItem {
	return models.ChannelItem{
		ID:        uuid.New(),
		UserID:    channel.UserID,
		ChannelID: channel.ID,
		ProductID: productID,
		VariantID: variantID,
		Quantity:  quantity,
		Price:     decimal.RequireFromString(price),
		Channel:   channel,
	}
}

func matchFor(userID uuid.UUID, lineItems []models.LineItem, outputs ...models.ChannelItem) models.Match {
	inputs := make([]models.ShopItem, 0, len(lineItems))
	for _, li := range lineItems {
		inputs = append(inputs, models.ShopItem{
			ID:        uuid.New(),
			UserID:    userID,
			ProductID: li.ProductID,
			VariantID: li.VariantID,
			Quantity:  li.Quantity,
		})
	}
	return models.Match{
		ID:         uuid.New(),
		UserID:     userID,
		InputCount: len(inputs),
		Input:      inputs,
		Output:     outputs,
	}
}

func staticSearchProducts(results map[string]map[string]interface{}) platform.Func {
	return func(ctx context.Context, cfg *platform.Config, args map[string]interface{}) (map[string]interface{}, error) {
		productID, _ := args["productId"].(string)
		result, ok := results[productID]
		if !ok {
			return nil, errors.New("product not found")
		}
		return result, nil
	}
}

func TestResolveMatchesAggregateWins(t *testing.T) {
	userID := uuid.New()
	session := auth.UserSession(userID)
	encryptor := newTestEncryptor(t)
	channel := fakeChannel(t, encryptor, userID)

	order := &models.Order{
		ID:     uuid.New(),
		UserID: userID,
		ShopID: uuid.New(),
		Status: models.OrderPending,
		LineItems: []models.LineItem{
			{ProductID: "p1", VariantID: "v1", Quantity: 1},
			{ProductID: "p2", VariantID: "v2", Quantity: 2},
		},
	}
	aggregate := matchFor(userID, order.LineItems, channelOutput(channel, "c1", "cv1", 1, "10.00"))

	orderRepo := new(MockOrderRepository)
	matchRepo := new(MockMatchRepository)
	orderRepo.On("GetByID", mock.Anything, session, order.ID).Return(order, nil)
	matchRepo.On("FindCandidates", mock.Anything, session, 2).Return([]models.Match{aggregate}, nil)

	var created []models.CartItem
	orderRepo.On("CreateCartItems", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		created = args.Get(1).([]models.CartItem)
	}).Return(nil)

	dispatcher := newTestDispatcher(map[string]platform.Func{
		platform.OpSearchProducts: staticSearchProducts(map[string]map[string]interface{}{
			"c1": {"price": "10.00", "title": "Widget", "image": "https://img/1.png"},
		}),
	})
	matcher := NewMatcherService(orderRepo, matchRepo, NewCredentialService(nil, encryptor), dispatcher, nil)

	outcome, err := matcher.ResolveMatches(context.Background(), session, order.ID)

	require.NoError(t, err)
	assert.Empty(t, outcome.OrderError)
	require.Len(t, created, 1)
	assert.Equal(t, order.ID, created[0].OrderID)
	assert.Equal(t, channel.ID, created[0].ChannelID)
	assert.Equal(t, "c1", created[0].ProductID)
	assert.True(t, created[0].Price.Equal(decimal.RequireFromString("10.00")))
	assert.Equal(t, "Widget", created[0].Title)
	assert.Empty(t, created[0].Error)
	assert.Equal(t, models.CartItemPending, created[0].Status)

	// The aggregate match short-circuits per-item matching entirely.
	matchRepo.AssertNumberOfCalls(t, "FindCandidates", 1)
	orderRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestResolveMatchesPerItemFallback(t *testing.T) {
	userID := uuid.New()
	session := auth.UserSession(userID)
	encryptor := newTestEncryptor(t)
	channel := fakeChannel(t, encryptor, userID)

	order := &models.Order{
		ID:     uuid.New(),
		UserID: userID,
		ShopID: uuid.New(),
		Status: models.OrderPending,
		LineItems: []models.LineItem{
			{ProductID: "p1", VariantID: "v1", Quantity: 1},
			{ProductID: "p2", VariantID: "v2", Quantity: 1},
		},
	}
	first := matchFor(userID, order.LineItems[:1], channelOutput(channel, "c1", "cv1", 1, "5.00"))
	second := matchFor(userID, order.LineItems[1:], channelOutput(channel, "c2", "cv2", 1, "7.00"))

	orderRepo := new(MockOrderRepository)
	matchRepo := new(MockMatchRepository)
	orderRepo.On("GetByID", mock.Anything, session, order.ID).Return(order, nil)
	matchRepo.On("FindCandidates", mock.Anything, session, 2).Return([]models.Match{}, nil)
	matchRepo.On("FindCandidates", mock.Anything, session, 1).Return([]models.Match{first, second}, nil)

	var created []models.CartItem
	orderRepo.On("CreateCartItems", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		created = args.Get(1).([]models.CartItem)
	}).Return(nil)

	dispatcher := newTestDispatcher(map[string]platform.Func{
		platform.OpSearchProducts: staticSearchProducts(map[string]map[string]interface{}{
			"c1": {"price": "5.00"},
			"c2": {"price": "7.00"},
		}),
	})
	matcher := NewMatcherService(orderRepo, matchRepo, NewCredentialService(nil, encryptor), dispatcher, nil)

	outcome, err := matcher.ResolveMatches(context.Background(), session, order.ID)

	require.NoError(t, err)
	assert.Empty(t, outcome.OrderError)
	assert.Len(t, created, 2)
	orderRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestResolveMatchesPartialCoverage(t *testing.T) {
	userID := uuid.New()
	session := auth.UserSession(userID)
	encryptor := newTestEncryptor(t)
	channel := fakeChannel(t, encryptor, userID)

	order := &models.Order{
		ID:     uuid.New(),
		UserID: userID,
		ShopID: uuid.New(),
		Status: models.OrderPending,
		LineItems: []models.LineItem{
			{ProductID: "p1", VariantID: "v1", Quantity: 1},
			{ProductID: "p2", VariantID: "v2", Quantity: 1},
		},
	}
	first := matchFor(userID, order.LineItems[:1], channelOutput(channel, "c1", "cv1", 1, "5.00"))

	orderRepo := new(MockOrderRepository)
	matchRepo := new(MockMatchRepository)
	orderRepo.On("GetByID", mock.Anything, session, order.ID).Return(order, nil)
	matchRepo.On("FindCandidates", mock.Anything, session, 2).Return([]models.Match{}, nil)
	matchRepo.On("FindCandidates", mock.Anything, session, 1).Return([]models.Match{first}, nil)

	var created []models.CartItem
	orderRepo.On("CreateCartItems", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		created = args.Get(1).([]models.CartItem)
	}).Return(nil)
	orderRepo.On("UpdateStatus", mock.Anything, order.ID, models.OrderPending, "Some lineItems not matched").Return(nil)

	dispatcher := newTestDispatcher(map[string]platform.Func{
		platform.OpSearchProducts: staticSearchProducts(map[string]map[string]interface{}{
			"c1": {"price": "5.00"},
		}),
	})
	matcher := NewMatcherService(orderRepo, matchRepo, NewCredentialService(nil, encryptor), dispatcher, nil)

	outcome, err := matcher.ResolveMatches(context.Background(), session, order.ID)

	require.NoError(t, err)
	assert.Equal(t, "Some lineItems not matched", outcome.OrderError)
	// The matched item still materializes; partial success is never rolled back.
	assert.Len(t, created, 1)
	orderRepo.AssertExpectations(t)
}

func TestResolveMatchesSingleItemNoMatch(t *testing.T) {
	userID := uuid.New()
	session := auth.UserSession(userID)
	encryptor := newTestEncryptor(t)

	order := &models.Order{
		ID:     uuid.New(),
		UserID: userID,
		ShopID: uuid.New(),
		Status: models.OrderAwaiting,
		LineItems: []models.LineItem{
			{ProductID: "p1", VariantID: "v1", Quantity: 1},
		},
	}

	orderRepo := new(MockOrderRepository)
	matchRepo := new(MockMatchRepository)
	orderRepo.On("GetByID", mock.Anything, session, order.ID).Return(order, nil)
	matchRepo.On("FindCandidates", mock.Anything, session, 1).Return([]models.Match{}, nil)
	// The error is recorded without changing the order's status.
	orderRepo.On("UpdateStatus", mock.Anything, order.ID, models.OrderAwaiting, "No matches found").Return(nil)

	dispatcher := newTestDispatcher(map[string]platform.Func{})
	matcher := NewMatcherService(orderRepo, matchRepo, NewCredentialService(nil, encryptor), dispatcher, nil)

	outcome, err := matcher.ResolveMatches(context.Background(), session, order.ID)

	require.NoError(t, err)
	assert.Equal(t, "No matches found", outcome.OrderError)
	assert.Empty(t, outcome.CartItems)
	orderRepo.AssertNotCalled(t, "CreateCartItems", mock.Anything, mock.Anything)
	orderRepo.AssertExpectations(t)
}

func TestResolveMatchesAnnotatesPriceDrift(t *testing.T) {
	userID := uuid.New()
	session := auth.UserSession(userID)
	encryptor := newTestEncryptor(t)
	channel := fakeChannel(t, encryptor, userID)

	order := &models.Order{
		ID:     uuid.New(),
		UserID: userID,
		ShopID: uuid.New(),
		Status: models.OrderPending,
		LineItems: []models.LineItem{
			{ProductID: "p1", VariantID: "v1", Quantity: 1},
		},
	}
	aggregate := matchFor(userID, order.LineItems, channelOutput(channel, "c1", "cv1", 1, "10.00"))

	orderRepo := new(MockOrderRepository)
	matchRepo := new(MockMatchRepository)
	orderRepo.On("GetByID", mock.Anything, session, order.ID).Return(order, nil)
	matchRepo.On("FindCandidates", mock.Anything, session, 1).Return([]models.Match{aggregate}, nil)

	var created []models.CartItem
	orderRepo.On("CreateCartItems", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		created = args.Get(1).([]models.CartItem)
	}).Return(nil)

	dispatcher := newTestDispatcher(map[string]platform.Func{
		platform.OpSearchProducts: staticSearchProducts(map[string]map[string]interface{}{
			"c1": {"price": "12.50"},
		}),
	})
	matcher := NewMatcherService(orderRepo, matchRepo, NewCredentialService(nil, encryptor), dispatcher, nil)

	outcome, err := matcher.ResolveMatches(context.Background(), session, order.ID)

	require.NoError(t, err)
	assert.Empty(t, outcome.OrderError)
	require.Len(t, created, 1)
	assert.True(t, created[0].Price.Equal(decimal.RequireFromString("12.50")))
	assert.Equal(t, "Price has increased $2.50. Verify before placing order.", created[0].Error)
}

func TestResolveMatchesSkipsFailedOutputs(t *testing.T) {
	userID := uuid.New()
	session := auth.UserSession(userID)
	encryptor := newTestEncryptor(t)
	channel := fakeChannel(t, encryptor, userID)

	order := &models.Order{
		ID:     uuid.New(),
		UserID: userID,
		ShopID: uuid.New(),
		Status: models.OrderPending,
		LineItems: []models.LineItem{
			{ProductID: "p1", VariantID: "v1", Quantity: 1},
		},
	}
	aggregate := matchFor(userID, order.LineItems,
		channelOutput(channel, "gone", "cv1", 1, "10.00"),
		channelOutput(channel, "c2", "cv2", 1, "4.00"),
	)

	orderRepo := new(MockOrderRepository)
	matchRepo := new(MockMatchRepository)
	orderRepo.On("GetByID", mock.Anything, session, order.ID).Return(order, nil)
	matchRepo.On("FindCandidates", mock.Anything, session, 1).Return([]models.Match{aggregate}, nil)

	var created []models.CartItem
	orderRepo.On("CreateCartItems", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		created = args.Get(1).([]models.CartItem)
	}).Return(nil)

	dispatcher := newTestDispatcher(map[string]platform.Func{
		platform.OpSearchProducts: staticSearchProducts(map[string]map[string]interface{}{
			"c2": {"price": "4.00"},
		}),
	})
	matcher := NewMatcherService(orderRepo, matchRepo, NewCredentialService(nil, encryptor), dispatcher, nil)

	outcome, err := matcher.ResolveMatches(context.Background(), session, order.ID)

	require.NoError(t, err)
	assert.Empty(t, outcome.OrderError)
	require.Len(t, created, 1)
	assert.Equal(t, "c2", created[0].ProductID)
}

func TestDriftMessage(t *testing.T) {
	increase := DriftMessage(decimal.RequireFromString("10.00"), decimal.RequireFromString("12.50"))
	assert.Equal(t, "Price has increased $2.50. Verify before placing order.", increase)

	// A decrease keeps the same wording with a negative signed delta.
	decrease := DriftMessage(decimal.RequireFromString("10.00"), decimal.RequireFromString("7.50"))
	assert.Equal(t, "Price has increased $-2.50. Verify before placing order.", decrease)
}

func TestPriceFromResult(t *testing.T) {
	price, err := priceFromResult(map[string]interface{}{"price": "19.99"})
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("19.99")))

	price, err = priceFromResult(map[string]interface{}{"price": float64(5)})
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromInt(5)))

	_, err = priceFromResult(map[string]interface{}{"price": "not-a-price"})
	assert.Error(t, err)

	_, err = priceFromResult(map[string]interface{}{})
	assert.Error(t, err)
}
