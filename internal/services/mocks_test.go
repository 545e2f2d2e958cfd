package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"channel-bridge-service/internal/auth"
	"channel-bridge-service/internal/models"
	"channel-bridge-service/internal/repository"
)

// MockOrderRepository is a mock implementation of OrderRepositoryInterface
type MockOrderRepository struct {
	mock.Mock
}

var _ repository.OrderRepositoryInterface = (*MockOrderRepository)(nil)

func (m *MockOrderRepository) Create(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)
	if args.Error(0) == nil && order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, session auth.Session, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, session, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByExternalOrderID(ctx context.Context, shopID uuid.UUID, externalOrderID string) (*models.Order, error) {
	args := m.Called(ctx, shopID, externalOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, session auth.Session, status models.OrderStatus) ([]models.Order, error) {
	args := m.Called(ctx, session, status)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderRepository) Update(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus, orderError string) error {
	args := m.Called(ctx, id, status, orderError)
	return args.Error(0)
}

func (m *MockOrderRepository) Delete(ctx context.Context, session auth.Session, id uuid.UUID) error {
	args := m.Called(ctx, session, id)
	return args.Error(0)
}

func (m *MockOrderRepository) ReplaceCartItems(ctx context.Context, orderID uuid.UUID, items []models.CartItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *MockOrderRepository) CreateCartItems(ctx context.Context, items []models.CartItem) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}

func (m *MockOrderRepository) UpdateCartItem(ctx context.Context, item *models.CartItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockOrderRepository) FindCartItemsByPurchaseID(ctx context.Context, purchaseID string) ([]models.CartItem, error) {
	args := m.Called(ctx, purchaseID)
	return args.Get(0).([]models.CartItem), args.Error(1)
}

func (m *MockOrderRepository) CountUntrackedCartItems(ctx context.Context, orderID uuid.UUID) (int64, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) MarkCartItemsComplete(ctx context.Context, ids []uuid.UUID) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

func (m *MockOrderRepository) CreateEvent(ctx context.Context, event *models.OrderEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockOrderRepository) ListEvents(ctx context.Context, orderID uuid.UUID) ([]models.OrderEvent, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).([]models.OrderEvent), args.Error(1)
}

// MockMatchRepository is a mock implementation of MatchRepositoryInterface
type MockMatchRepository struct {
	mock.Mock
}

var _ repository.MatchRepositoryInterface = (*MockMatchRepository)(nil)

func (m *MockMatchRepository) CreateShopItem(ctx context.Context, item *models.ShopItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockMatchRepository) FindOrCreateShopItem(ctx context.Context, item *models.ShopItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockMatchRepository) ListShopItems(ctx context.Context, session auth.Session, shopID uuid.UUID) ([]models.ShopItem, error) {
	args := m.Called(ctx, session, shopID)
	return args.Get(0).([]models.ShopItem), args.Error(1)
}

func (m *MockMatchRepository) CreateChannelItem(ctx context.Context, item *models.ChannelItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockMatchRepository) GetChannelItemByID(ctx context.Context, session auth.Session, id uuid.UUID) (*models.ChannelItem, error) {
	args := m.Called(ctx, session, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChannelItem), args.Error(1)
}

func (m *MockMatchRepository) ListChannelItems(ctx context.Context, session auth.Session, channelID uuid.UUID) ([]models.ChannelItem, error) {
	args := m.Called(ctx, session, channelID)
	return args.Get(0).([]models.ChannelItem), args.Error(1)
}

func (m *MockMatchRepository) UpdateChannelItem(ctx context.Context, item *models.ChannelItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockMatchRepository) CreateMatch(ctx context.Context, match *models.Match) error {
	args := m.Called(ctx, match)
	return args.Error(0)
}

func (m *MockMatchRepository) GetMatchByID(ctx context.Context, session auth.Session, id uuid.UUID) (*models.Match, error) {
	args := m.Called(ctx, session, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Match), args.Error(1)
}

func (m *MockMatchRepository) ListMatches(ctx context.Context, session auth.Session) ([]models.Match, error) {
	args := m.Called(ctx, session)
	return args.Get(0).([]models.Match), args.Error(1)
}

func (m *MockMatchRepository) FindCandidates(ctx context.Context, session auth.Session, inputCount int) ([]models.Match, error) {
	args := m.Called(ctx, session, inputCount)
	return args.Get(0).([]models.Match), args.Error(1)
}

func (m *MockMatchRepository) DeleteMatch(ctx context.Context, session auth.Session, id uuid.UUID) error {
	args := m.Called(ctx, session, id)
	return args.Error(0)
}

func (m *MockMatchRepository) CreateDrift(ctx context.Context, drift *models.MatchDrift) error {
	args := m.Called(ctx, drift)
	return args.Error(0)
}

func (m *MockMatchRepository) ListOpenDrifts(ctx context.Context, session auth.Session) ([]models.MatchDrift, error) {
	args := m.Called(ctx, session)
	return args.Get(0).([]models.MatchDrift), args.Error(1)
}

func (m *MockMatchRepository) GetDriftByID(ctx context.Context, session auth.Session, id uuid.UUID) (*models.MatchDrift, error) {
	args := m.Called(ctx, session, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MatchDrift), args.Error(1)
}

func (m *MockMatchRepository) UpdateDrift(ctx context.Context, drift *models.MatchDrift) error {
	args := m.Called(ctx, drift)
	return args.Error(0)
}

func (m *MockMatchRepository) HasOpenDrift(ctx context.Context, channelItemID uuid.UUID) (bool, error) {
	args := m.Called(ctx, channelItemID)
	return args.Bool(0), args.Error(1)
}

// MockTrackingRepository is a mock implementation of TrackingRepositoryInterface
type MockTrackingRepository struct {
	mock.Mock
}

var _ repository.TrackingRepositoryInterface = (*MockTrackingRepository)(nil)

func (m *MockTrackingRepository) Create(ctx context.Context, detail *models.TrackingDetail) error {
	args := m.Called(ctx, detail)
	if args.Error(0) == nil && detail.ID == uuid.Nil {
		detail.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockTrackingRepository) GetByID(ctx context.Context, session auth.Session, id uuid.UUID) (*models.TrackingDetail, error) {
	args := m.Called(ctx, session, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TrackingDetail), args.Error(1)
}

func (m *MockTrackingRepository) List(ctx context.Context, session auth.Session) ([]models.TrackingDetail, error) {
	args := m.Called(ctx, session)
	return args.Get(0).([]models.TrackingDetail), args.Error(1)
}

func (m *MockTrackingRepository) AssociateCartItems(ctx context.Context, detail *models.TrackingDetail, items []models.CartItem) error {
	args := m.Called(ctx, detail, items)
	return args.Error(0)
}

func (m *MockTrackingRepository) Delete(ctx context.Context, session auth.Session, id uuid.UUID) error {
	args := m.Called(ctx, session, id)
	return args.Error(0)
}

func (m *MockTrackingRepository) ClaimDispatch(ctx context.Context, dispatch *models.TrackingDispatch) (bool, error) {
	args := m.Called(ctx, dispatch)
	return args.Bool(0), args.Error(1)
}

func (m *MockTrackingRepository) ReleaseDispatch(ctx context.Context, trackingDetailID uuid.UUID) error {
	args := m.Called(ctx, trackingDetailID)
	return args.Error(0)
}

func (m *MockTrackingRepository) UpdateDispatchResult(ctx context.Context, trackingDetailID uuid.UUID, result string) error {
	args := m.Called(ctx, trackingDetailID, result)
	return args.Error(0)
}

// MockPlatformRepository is a mock implementation of PlatformRepositoryInterface
type MockPlatformRepository struct {
	mock.Mock
}

var _ repository.PlatformRepositoryInterface = (*MockPlatformRepository)(nil)

func (m *MockPlatformRepository) CreatePlatform(ctx context.Context, platform *models.Platform) error {
	args := m.Called(ctx, platform)
	return args.Error(0)
}

func (m *MockPlatformRepository) GetPlatformByID(ctx context.Context, session auth.Session, id uuid.UUID) (*models.Platform, error) {
	args := m.Called(ctx, session, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Platform), args.Error(1)
}

func (m *MockPlatformRepository) ListPlatforms(ctx context.Context, session auth.Session) ([]models.Platform, error) {
	args := m.Called(ctx, session)
	return args.Get(0).([]models.Platform), args.Error(1)
}

func (m *MockPlatformRepository) UpdatePlatform(ctx context.Context, platform *models.Platform) error {
	args := m.Called(ctx, platform)
	return args.Error(0)
}

func (m *MockPlatformRepository) DeletePlatform(ctx context.Context, session auth.Session, id uuid.UUID) error {
	args := m.Called(ctx, session, id)
	return args.Error(0)
}

func (m *MockPlatformRepository) CreateShop(ctx context.Context, shop *models.Shop) error {
	args := m.Called(ctx, shop)
	return args.Error(0)
}

func (m *MockPlatformRepository) GetShopByID(ctx context.Context, session auth.Session, id uuid.UUID) (*models.Shop, error) {
	args := m.Called(ctx, session, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Shop), args.Error(1)
}

func (m *MockPlatformRepository) GetShopByDomain(ctx context.Context, domain string) (*models.Shop, error) {
	args := m.Called(ctx, domain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Shop), args.Error(1)
}

func (m *MockPlatformRepository) ListShops(ctx context.Context, session auth.Session) ([]models.Shop, error) {
	args := m.Called(ctx, session)
	return args.Get(0).([]models.Shop), args.Error(1)
}

func (m *MockPlatformRepository) UpdateShop(ctx context.Context, shop *models.Shop) error {
	args := m.Called(ctx, shop)
	return args.Error(0)
}

func (m *MockPlatformRepository) DeleteShop(ctx context.Context, session auth.Session, id uuid.UUID) error {
	args := m.Called(ctx, session, id)
	return args.Error(0)
}

func (m *MockPlatformRepository) CreateChannel(ctx context.Context, channel *models.Channel) error {
	args := m.Called(ctx, channel)
	return args.Error(0)
}

func (m *MockPlatformRepository) GetChannelByID(ctx context.Context, session auth.Session, id uuid.UUID) (*models.Channel, error) {
	args := m.Called(ctx, session, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Channel), args.Error(1)
}

func (m *MockPlatformRepository) ListChannels(ctx context.Context, session auth.Session) ([]models.Channel, error) {
	args := m.Called(ctx, session)
	return args.Get(0).([]models.Channel), args.Error(1)
}

func (m *MockPlatformRepository) UpdateChannel(ctx context.Context, channel *models.Channel) error {
	args := m.Called(ctx, channel)
	return args.Error(0)
}

func (m *MockPlatformRepository) DeleteChannel(ctx context.Context, session auth.Session, id uuid.UUID) error {
	args := m.Called(ctx, session, id)
	return args.Error(0)
}

func (m *MockPlatformRepository) CreateLink(ctx context.Context, link *models.Link) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

func (m *MockPlatformRepository) GetLinkByShop(ctx context.Context, session auth.Session, shopID uuid.UUID) (*models.Link, error) {
	args := m.Called(ctx, session, shopID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Link), args.Error(1)
}

func (m *MockPlatformRepository) ListLinks(ctx context.Context, session auth.Session) ([]models.Link, error) {
	args := m.Called(ctx, session)
	return args.Get(0).([]models.Link), args.Error(1)
}

func (m *MockPlatformRepository) DeleteLink(ctx context.Context, session auth.Session, id uuid.UUID) error {
	args := m.Called(ctx, session, id)
	return args.Error(0)
}

// MockOrderPlacer is a mock implementation of OrderPlacer
type MockOrderPlacer struct {
	mock.Mock
}

var _ OrderPlacer = (*MockOrderPlacer)(nil)

func (m *MockOrderPlacer) PlaceOrders(ctx context.Context, orderIDs []uuid.UUID) ([]PlacementResult, error) {
	args := m.Called(ctx, orderIDs)
	return args.Get(0).([]PlacementResult), args.Error(1)
}
