package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"channel-bridge-service/internal/auth"
	"channel-bridge-service/internal/models"
	"channel-bridge-service/internal/platform"
)

type lifecycleFixture struct {
	orderRepo    *MockOrderRepository
	platformRepo *MockPlatformRepository
	matchRepo    *MockMatchRepository
	placer       *MockOrderPlacer
	service      *LifecycleService
}

func newLifecycleFixture(t *testing.T, searchResults map[string]map[string]interface{}) *lifecycleFixture {
	orderRepo := new(MockOrderRepository)
	platformRepo := new(MockPlatformRepository)
	matchRepo := new(MockMatchRepository)
	placer := new(MockOrderPlacer)

	encryptor := newTestEncryptor(t)
	dispatcher := newTestDispatcher(map[string]platform.Func{
		platform.OpSearchProducts: staticSearchProducts(searchResults),
	})
	matcher := NewMatcherService(orderRepo, matchRepo, NewCredentialService(nil, encryptor), dispatcher, nil)

	return &lifecycleFixture{
		orderRepo:    orderRepo,
		platformRepo: platformRepo,
		matchRepo:    matchRepo,
		placer:       placer,
		service:      NewLifecycleService(orderRepo, platformRepo, matcher, placer),
	}
}

func TestCreateOrderLinkFanOut(t *testing.T) {
	userID := uuid.New()
	session := auth.UserSession(userID)
	channelID := uuid.New()

	order := &models.Order{
		ID:        uuid.New(),
		UserID:    userID,
		ShopID:    uuid.New(),
		LinkOrder: true,
		LineItems: []models.LineItem{
			{ProductID: "p1", VariantID: "v1", Quantity: 2, Price: decimal.RequireFromString("9.99"), Title: "Widget"},
			{ProductID: "p2", VariantID: "v2", Quantity: 1, Price: decimal.RequireFromString("4.50")},
		},
	}

	f := newLifecycleFixture(t, nil)
	f.orderRepo.On("Create", mock.Anything, order).Return(nil)
	f.orderRepo.On("CreateEvent", mock.Anything, mock.Anything).Return(nil)
	f.platformRepo.On("GetLinkByShop", mock.Anything, session, order.ShopID).Return(&models.Link{
		ID:        uuid.New(),
		ShopID:    order.ShopID,
		ChannelID: channelID,
	}, nil)

	var created []models.CartItem
	f.orderRepo.On("CreateCartItems", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		created = args.Get(1).([]models.CartItem)
	}).Return(nil)

	result, err := f.service.CreateOrder(context.Background(), session, order)

	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, result.Status)

	// Each line item fans out unchanged onto the linked channel.
	require.Len(t, created, 2)
	for i, item := range created {
		li := order.LineItems[i]
		assert.Equal(t, order.ID, item.OrderID)
		assert.Equal(t, channelID, item.ChannelID)
		assert.Equal(t, li.ProductID, item.ProductID)
		assert.Equal(t, li.VariantID, item.VariantID)
		assert.Equal(t, li.Quantity, item.Quantity)
		assert.True(t, item.Price.Equal(li.Price))
		assert.Equal(t, models.CartItemPending, item.Status)
	}

	f.placer.AssertNotCalled(t, "PlaceOrders", mock.Anything, mock.Anything)
}

func TestCreateOrderLinkMissingLinkNonFatal(t *testing.T) {
	userID := uuid.New()
	session := auth.UserSession(userID)

	order := &models.Order{
		ID:        uuid.New(),
		UserID:    userID,
		ShopID:    uuid.New(),
		LinkOrder: true,
	}

	f := newLifecycleFixture(t, nil)
	f.orderRepo.On("Create", mock.Anything, order).Return(nil)
	f.orderRepo.On("CreateEvent", mock.Anything, mock.Anything).Return(nil)
	f.platformRepo.On("GetLinkByShop", mock.Anything, session, order.ShopID).Return(nil, gorm.ErrRecordNotFound)

	result, err := f.service.CreateOrder(context.Background(), session, order)

	require.NoError(t, err)
	assert.NotNil(t, result)
	f.orderRepo.AssertNotCalled(t, "CreateCartItems", mock.Anything, mock.Anything)
	f.placer.AssertNotCalled(t, "PlaceOrders", mock.Anything, mock.Anything)
}

func TestCreateOrderMissingLinkFallsThroughToMatch(t *testing.T) {
	userID := uuid.New()
	session := auth.UserSession(userID)

	order := &models.Order{
		ID:         uuid.New(),
		UserID:     userID,
		ShopID:     uuid.New(),
		LinkOrder:  true,
		MatchOrder: true,
		LineItems: []models.LineItem{
			{ProductID: "p1", VariantID: "v1", Quantity: 1},
		},
	}

	f := newLifecycleFixture(t, nil)
	f.orderRepo.On("Create", mock.Anything, order).Return(nil)
	f.orderRepo.On("CreateEvent", mock.Anything, mock.Anything).Return(nil)
	f.platformRepo.On("GetLinkByShop", mock.Anything, session, order.ShopID).Return(nil, gorm.ErrRecordNotFound)
	f.orderRepo.On("GetByID", mock.Anything, session, order.ID).Return(order, nil)
	f.matchRepo.On("FindCandidates", mock.Anything, session, 1).Return([]models.Match{}, nil)
	f.orderRepo.On("UpdateStatus", mock.Anything, order.ID, models.OrderPending, "No matches found").Return(nil)

	_, err := f.service.CreateOrder(context.Background(), session, order)

	require.NoError(t, err)
	// Without a link the matchOrder directive still runs.
	f.matchRepo.AssertCalled(t, "FindCandidates", mock.Anything, session, 1)
	f.orderRepo.AssertExpectations(t)
}

func TestCreateOrderLinkThenPlacement(t *testing.T) {
	userID := uuid.New()
	session := auth.UserSession(userID)

	order := &models.Order{
		ID:           uuid.New(),
		UserID:       userID,
		ShopID:       uuid.New(),
		LinkOrder:    true,
		ProcessOrder: true,
		LineItems: []models.LineItem{
			{ProductID: "p1", VariantID: "v1", Quantity: 1},
		},
	}

	f := newLifecycleFixture(t, nil)
	f.orderRepo.On("Create", mock.Anything, order).Return(nil)
	f.orderRepo.On("CreateEvent", mock.Anything, mock.Anything).Return(nil)
	f.orderRepo.On("CreateCartItems", mock.Anything, mock.Anything).Return(nil)
	f.platformRepo.On("GetLinkByShop", mock.Anything, session, order.ShopID).Return(&models.Link{
		ShopID:    order.ShopID,
		ChannelID: uuid.New(),
	}, nil)
	f.placer.On("PlaceOrders", mock.Anything, []uuid.UUID{order.ID}).Return([]PlacementResult{
		{OrderID: order.ID, Status: models.OrderAwaiting},
	}, nil)
	f.orderRepo.On("UpdateStatus", mock.Anything, order.ID, models.OrderAwaiting, "").Return(nil)

	_, err := f.service.CreateOrder(context.Background(), session, order)

	require.NoError(t, err)
	f.placer.AssertExpectations(t)
	f.orderRepo.AssertExpectations(t)
}

func TestCreateOrderMatchErrorForcesPending(t *testing.T) {
	userID := uuid.New()
	session := auth.UserSession(userID)

	order := &models.Order{
		ID:           uuid.New(),
		UserID:       userID,
		ShopID:       uuid.New(),
		MatchOrder:   true,
		ProcessOrder: true,
		LineItems: []models.LineItem{
			{ProductID: "p1", VariantID: "v1", Quantity: 1},
		},
	}

	f := newLifecycleFixture(t, nil)
	f.orderRepo.On("Create", mock.Anything, order).Return(nil)
	f.orderRepo.On("CreateEvent", mock.Anything, mock.Anything).Return(nil)
	f.orderRepo.On("GetByID", mock.Anything, session, order.ID).Return(order, nil)
	f.matchRepo.On("FindCandidates", mock.Anything, session, 1).Return([]models.Match{}, nil)
	f.orderRepo.On("UpdateStatus", mock.Anything, order.ID, models.OrderPending, "No matches found").Return(nil)

	result, err := f.service.CreateOrder(context.Background(), session, order)

	require.NoError(t, err)
	assert.NotNil(t, result)
	// A match error stops the directive chain; the order is never placed.
	f.placer.AssertNotCalled(t, "PlaceOrders", mock.Anything, mock.Anything)
	f.orderRepo.AssertExpectations(t)
}

func TestCreateOrderMatchThenPlacementDefaultsInProcess(t *testing.T) {
	userID := uuid.New()
	session := auth.UserSession(userID)
	encryptor := newTestEncryptor(t)

	order := &models.Order{
		ID:           uuid.New(),
		UserID:       userID,
		ShopID:       uuid.New(),
		MatchOrder:   true,
		ProcessOrder: true,
		LineItems: []models.LineItem{
			{ProductID: "p1", VariantID: "v1", Quantity: 1},
		},
	}

	f := newLifecycleFixture(t, map[string]map[string]interface{}{
		"c1": {"price": "10.00"},
	})
	channel := fakeChannel(t, encryptor, userID)
	aggregate := matchFor(userID, order.LineItems, channelOutput(channel, "c1", "cv1", 1, "10.00"))

	f.orderRepo.On("Create", mock.Anything, order).Return(nil)
	f.orderRepo.On("CreateEvent", mock.Anything, mock.Anything).Return(nil)
	f.orderRepo.On("GetByID", mock.Anything, session, order.ID).Return(order, nil)
	f.matchRepo.On("FindCandidates", mock.Anything, session, 1).Return([]models.Match{aggregate}, nil)
	f.orderRepo.On("CreateCartItems", mock.Anything, mock.Anything).Return(nil)
	f.placer.On("PlaceOrders", mock.Anything, []uuid.UUID{order.ID}).Return([]PlacementResult{
		{OrderID: order.ID},
	}, nil)
	f.orderRepo.On("UpdateStatus", mock.Anything, order.ID, models.OrderInProcess, "").Return(nil)

	_, err := f.service.CreateOrder(context.Background(), session, order)

	require.NoError(t, err)
	f.orderRepo.AssertExpectations(t)
	f.placer.AssertExpectations(t)
}

func TestCancelOrderRejectsComplete(t *testing.T) {
	userID := uuid.New()
	session := auth.UserSession(userID)
	orderID := uuid.New()

	f := newLifecycleFixture(t, nil)
	f.orderRepo.On("GetByID", mock.Anything, session, orderID).Return(&models.Order{
		ID:     orderID,
		UserID: userID,
		Status: models.OrderComplete,
	}, nil)

	err := f.service.CancelOrder(context.Background(), session, orderID, "changed my mind")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "already complete")
	f.orderRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCancelOrder(t *testing.T) {
	userID := uuid.New()
	session := auth.UserSession(userID)
	orderID := uuid.New()

	f := newLifecycleFixture(t, nil)
	f.orderRepo.On("GetByID", mock.Anything, session, orderID).Return(&models.Order{
		ID:     orderID,
		UserID: userID,
		Status: models.OrderInProcess,
	}, nil)
	f.orderRepo.On("UpdateStatus", mock.Anything, orderID, models.OrderCancelled, "cancelled by platform").Return(nil)

	var event *models.OrderEvent
	f.orderRepo.On("CreateEvent", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		event = args.Get(1).(*models.OrderEvent)
	}).Return(nil)

	err := f.service.CancelOrder(context.Background(), session, orderID, "cancelled by platform")

	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, models.OrderInProcess, event.FromStatus)
	assert.Equal(t, models.OrderCancelled, event.ToStatus)
	f.orderRepo.AssertExpectations(t)
}
