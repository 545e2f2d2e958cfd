package repository

import (
	"context"

	"github.com/google/uuid"

	"channel-bridge-service/internal/auth"
	"channel-bridge-service/internal/models"
)

// PlatformRepositoryInterface defines the platform repository contract
type PlatformRepositoryInterface interface {
	CreatePlatform(ctx context.Context, platform *models.Platform) error
	GetPlatformByID(ctx context.Context, session auth.Session, id uuid.UUID) (*models.Platform, error)
	ListPlatforms(ctx context.Context, session auth.Session) ([]models.Platform, error)
	UpdatePlatform(ctx context.Context, platform *models.Platform) error
	DeletePlatform(ctx context.Context, session auth.Session, id uuid.UUID) error
	CreateShop(ctx context.Context, shop *models.Shop) error
	GetShopByID(ctx context.Context, session auth.Session, id uuid.UUID) (*models.Shop, error)
	GetShopByDomain(ctx context.Context, domain string) (*models.Shop, error)
	ListShops(ctx context.Context, session auth.Session) ([]models.Shop, error)
	UpdateShop(ctx context.Context, shop *models.Shop) error
	DeleteShop(ctx context.Context, session auth.Session, id uuid.UUID) error
	CreateChannel(ctx context.Context, channel *models.Channel) error
	GetChannelByID(ctx context.Context, session auth.Session, id uuid.UUID) (*models.Channel, error)
	ListChannels(ctx context.Context, session auth.Session) ([]models.Channel, error)
	UpdateChannel(ctx context.Context, channel *models.Channel) error
	DeleteChannel(ctx context.Context, session auth.Session, id uuid.UUID) error
	CreateLink(ctx context.Context, link *models.Link) error
	GetLinkByShop(ctx context.Context, session auth.Session, shopID uuid.UUID) (*models.Link, error)
	ListLinks(ctx context.Context, session auth.Session) ([]models.Link, error)
	DeleteLink(ctx context.Context, session auth.Session, id uuid.UUID) error
}

// MatchRepositoryInterface defines the match repository contract
type MatchRepositoryInterface interface {
	CreateShopItem(ctx context.Context, item *models.ShopItem) error
	FindOrCreateShopItem(ctx context.Context, item *models.ShopItem) error
	ListShopItems(ctx context.Context, session auth.Session, shopID uuid.UUID) ([]models.ShopItem, error)
	CreateChannelItem(ctx context.Context, item *models.ChannelItem) error
	GetChannelItemByID(ctx context.Context, session auth.Session, id uuid.UUID) (*models.ChannelItem, error)
	ListChannelItems(ctx context.Context, session auth.Session, channelID uuid.UUID) ([]models.ChannelItem, error)
	UpdateChannelItem(ctx context.Context, item *models.ChannelItem) error
	CreateMatch(ctx context.Context, match *models.Match) error
	GetMatchByID(ctx context.Context, session auth.Session, id uuid.UUID) (*models.Match, error)
	ListMatches(ctx context.Context, session auth.Session) ([]models.Match, error)
	FindCandidates(ctx context.Context, session auth.Session, inputCount int) ([]models.Match, error)
	DeleteMatch(ctx context.Context, session auth.Session, id uuid.UUID) error
	CreateDrift(ctx context.Context, drift *models.MatchDrift) error
	ListOpenDrifts(ctx context.Context, session auth.Session) ([]models.MatchDrift, error)
	GetDriftByID(ctx context.Context, session auth.Session, id uuid.UUID) (*models.MatchDrift, error)
	UpdateDrift(ctx context.Context, drift *models.MatchDrift) error
	HasOpenDrift(ctx context.Context, channelItemID uuid.UUID) (bool, error)
}

// OrderRepositoryInterface defines the order repository contract
type OrderRepositoryInterface interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, session auth.Session, id uuid.UUID) (*models.Order, error)
	GetByExternalOrderID(ctx context.Context, shopID uuid.UUID, externalOrderID string) (*models.Order, error)
	List(ctx context.Context, session auth.Session, status models.OrderStatus) ([]models.Order, error)
	Update(ctx context.Context, order *models.Order) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus, orderError string) error
	Delete(ctx context.Context, session auth.Session, id uuid.UUID) error
	ReplaceCartItems(ctx context.Context, orderID uuid.UUID, items []models.CartItem) error
	CreateCartItems(ctx context.Context, items []models.CartItem) error
	UpdateCartItem(ctx context.Context, item *models.CartItem) error
	FindCartItemsByPurchaseID(ctx context.Context, purchaseID string) ([]models.CartItem, error)
	CountUntrackedCartItems(ctx context.Context, orderID uuid.UUID) (int64, error)
	MarkCartItemsComplete(ctx context.Context, ids []uuid.UUID) error
	CreateEvent(ctx context.Context, event *models.OrderEvent) error
	ListEvents(ctx context.Context, orderID uuid.UUID) ([]models.OrderEvent, error)
}

// TrackingRepositoryInterface defines the tracking repository contract
type TrackingRepositoryInterface interface {
	Create(ctx context.Context, detail *models.TrackingDetail) error
	GetByID(ctx context.Context, session auth.Session, id uuid.UUID) (*models.TrackingDetail, error)
	List(ctx context.Context, session auth.Session) ([]models.TrackingDetail, error)
	AssociateCartItems(ctx context.Context, detail *models.TrackingDetail, items []models.CartItem) error
	Delete(ctx context.Context, session auth.Session, id uuid.UUID) error
	ClaimDispatch(ctx context.Context, dispatch *models.TrackingDispatch) (bool, error)
	ReleaseDispatch(ctx context.Context, trackingDetailID uuid.UUID) error
	UpdateDispatchResult(ctx context.Context, trackingDetailID uuid.UUID, result string) error
}

var (
	_ PlatformRepositoryInterface = (*PlatformRepository)(nil)
	_ MatchRepositoryInterface    = (*MatchRepository)(nil)
	_ OrderRepositoryInterface    = (*OrderRepository)(nil)
	_ TrackingRepositoryInterface = (*TrackingRepository)(nil)
)
