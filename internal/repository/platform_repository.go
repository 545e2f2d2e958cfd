package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"channel-bridge-service/internal/auth"
	"channel-bridge-service/internal/models"
)

// scoped applies user scoping to a query unless the session is elevated
func scoped(db *gorm.DB, session auth.Session) *gorm.DB {
	if session.Elevated {
		return db
	}
	return db.Where("user_id = ?", session.UserID)
}

// PlatformRepository handles database operations for platforms, shops,
// channels and links.
type PlatformRepository struct {
	db *gorm.DB
}

// NewPlatformRepository creates a new platform repository
func NewPlatformRepository(db *gorm.DB) *PlatformRepository {
	return &PlatformRepository{db: db}
}

// CreatePlatform creates a new platform record
func (r *PlatformRepository) CreatePlatform(ctx context.Context, platform *models.Platform) error {
	return r.db.WithContext(ctx).Create(platform).Error
}

// GetPlatformByID retrieves a platform by ID
func (r *PlatformRepository) GetPlatformByID(ctx context.Context, session auth.Session, id uuid.UUID) (*models.Platform, error) {
	var platform models.Platform
	err := scoped(r.db.WithContext(ctx), session).
		First(&platform, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &platform, nil
}

// ListPlatforms retrieves all platforms visible to the session
func (r *PlatformRepository) ListPlatforms(ctx context.Context, session auth.Session) ([]models.Platform, error) {
	var platforms []models.Platform
	err := scoped(r.db.WithContext(ctx), session).
		Order("created_at DESC").
		Find(&platforms).Error
	return platforms, err
}

// UpdatePlatform updates an existing platform
func (r *PlatformRepository) UpdatePlatform(ctx context.Context, platform *models.Platform) error {
	return r.db.WithContext(ctx).Save(platform).Error
}

// DeletePlatform deletes a platform by ID
func (r *PlatformRepository) DeletePlatform(ctx context.Context, session auth.Session, id uuid.UUID) error {
	return scoped(r.db.WithContext(ctx), session).
		Delete(&models.Platform{}, "id = ?", id).Error
}

// CreateShop creates a new shop
func (r *PlatformRepository) CreateShop(ctx context.Context, shop *models.Shop) error {
	return r.db.WithContext(ctx).Create(shop).Error
}

// GetShopByID retrieves a shop with its platform preloaded
func (r *PlatformRepository) GetShopByID(ctx context.Context, session auth.Session, id uuid.UUID) (*models.Shop, error) {
	var shop models.Shop
	err := scoped(r.db.WithContext(ctx), session).
		Preload("Platform").
		First(&shop, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &shop, nil
}

// GetShopByDomain retrieves a shop by its domain. Used by webhook intake,
// which identifies the sender by domain header rather than by ID.
func (r *PlatformRepository) GetShopByDomain(ctx context.Context, domain string) (*models.Shop, error) {
	var shop models.Shop
	err := r.db.WithContext(ctx).
		Preload("Platform").
		First(&shop, "domain = ?", domain).Error
	if err != nil {
		return nil, err
	}
	return &shop, nil
}

// ListShops retrieves all shops visible to the session
func (r *PlatformRepository) ListShops(ctx context.Context, session auth.Session) ([]models.Shop, error) {
	var shops []models.Shop
	err := scoped(r.db.WithContext(ctx), session).
		Preload("Platform").
		Order("created_at DESC").
		Find(&shops).Error
	return shops, err
}

// UpdateShop updates an existing shop
func (r *PlatformRepository) UpdateShop(ctx context.Context, shop *models.Shop) error {
	return r.db.WithContext(ctx).Save(shop).Error
}

// DeleteShop deletes a shop by ID
func (r *PlatformRepository) DeleteShop(ctx context.Context, session auth.Session, id uuid.UUID) error {
	return scoped(r.db.WithContext(ctx), session).
		Delete(&models.Shop{}, "id = ?", id).Error
}

// CreateChannel creates a new channel
func (r *PlatformRepository) CreateChannel(ctx context.Context, channel *models.Channel) error {
	return r.db.WithContext(ctx).Create(channel).Error
}

// GetChannelByID retrieves a channel with its platform preloaded
func (r *PlatformRepository) GetChannelByID(ctx context.Context, session auth.Session, id uuid.UUID) (*models.Channel, error) {
	var channel models.Channel
	err := scoped(r.db.WithContext(ctx), session).
		Preload("Platform").
		First(&channel, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &channel, nil
}

// ListChannels retrieves all channels visible to the session
func (r *PlatformRepository) ListChannels(ctx context.Context, session auth.Session) ([]models.Channel, error) {
	var channels []models.Channel
	err := scoped(r.db.WithContext(ctx), session).
		Preload("Platform").
		Order("created_at DESC").
		Find(&channels).Error
	return channels, err
}

// UpdateChannel updates an existing channel
func (r *PlatformRepository) UpdateChannel(ctx context.Context, channel *models.Channel) error {
	return r.db.WithContext(ctx).Save(channel).Error
}

// DeleteChannel deletes a channel by ID
func (r *PlatformRepository) DeleteChannel(ctx context.Context, session auth.Session, id uuid.UUID) error {
	return scoped(r.db.WithContext(ctx), session).
		Delete(&models.Channel{}, "id = ?", id).Error
}

// CreateLink creates a shop-to-channel link
func (r *PlatformRepository) CreateLink(ctx context.Context, link *models.Link) error {
	return r.db.WithContext(ctx).Create(link).Error
}

// GetLinkByShop retrieves the link for a shop, if any
func (r *PlatformRepository) GetLinkByShop(ctx context.Context, session auth.Session, shopID uuid.UUID) (*models.Link, error) {
	var link models.Link
	err := scoped(r.db.WithContext(ctx), session).
		Preload("Channel").
		Preload("Channel.Platform").
		First(&link, "shop_id = ?", shopID).Error
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// ListLinks retrieves all links visible to the session
func (r *PlatformRepository) ListLinks(ctx context.Context, session auth.Session) ([]models.Link, error) {
	var links []models.Link
	err := scoped(r.db.WithContext(ctx), session).
		Preload("Shop").
		Preload("Channel").
		Order("created_at DESC").
		Find(&links).Error
	return links, err
}

// DeleteLink deletes a link by ID
func (r *PlatformRepository) DeleteLink(ctx context.Context, session auth.Session, id uuid.UUID) error {
	return scoped(r.db.WithContext(ctx), session).
		Delete(&models.Link{}, "id = ?", id).Error
}
