package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"channel-bridge-service/internal/auth"
	"channel-bridge-service/internal/models"
)

// MatchRepository handles database operations for matches and their shop and
// channel item endpoints.
type MatchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a new match repository
func NewMatchRepository(db *gorm.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// CreateShopItem creates a shop item
func (r *MatchRepository) CreateShopItem(ctx context.Context, item *models.ShopItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// FindShopItem retrieves a shop item by its identifying triple, creating it
// when absent. Shop items are immutable, so an existing row is always safe to
// reuse.
func (r *MatchRepository) FindOrCreateShopItem(ctx context.Context, item *models.ShopItem) error {
	err := r.db.WithContext(ctx).
		Where("shop_id = ? AND product_id = ? AND variant_id = ? AND quantity = ?",
			item.ShopID, item.ProductID, item.VariantID, item.Quantity).
		First(item).Error
	if err == gorm.ErrRecordNotFound {
		return r.db.WithContext(ctx).Create(item).Error
	}
	return err
}

// ListShopItems retrieves the shop items for a shop
func (r *MatchRepository) ListShopItems(ctx context.Context, session auth.Session, shopID uuid.UUID) ([]models.ShopItem, error) {
	var items []models.ShopItem
	err := scoped(r.db.WithContext(ctx), session).
		Where("shop_id = ?", shopID).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

// CreateChannelItem creates a channel item
func (r *MatchRepository) CreateChannelItem(ctx context.Context, item *models.ChannelItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// GetChannelItemByID retrieves a channel item by ID
func (r *MatchRepository) GetChannelItemByID(ctx context.Context, session auth.Session, id uuid.UUID) (*models.ChannelItem, error) {
	var item models.ChannelItem
	err := scoped(r.db.WithContext(ctx), session).
		First(&item, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListChannelItems retrieves the channel items for a channel
func (r *MatchRepository) ListChannelItems(ctx context.Context, session auth.Session, channelID uuid.UUID) ([]models.ChannelItem, error) {
	var items []models.ChannelItem
	err := scoped(r.db.WithContext(ctx), session).
		Where("channel_id = ?", channelID).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

// UpdateChannelItem updates an existing channel item
func (r *MatchRepository) UpdateChannelItem(ctx context.Context, item *models.ChannelItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// CreateMatch persists a match with its input and output associations inside
// one transaction. InputCount is derived from the input set, never trusted
// from the caller.
func (r *MatchRepository) CreateMatch(ctx context.Context, match *models.Match) error {
	match.InputCount = len(match.Input)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(match).Error
	})
}

// GetMatchByID retrieves a match with its endpoints preloaded
func (r *MatchRepository) GetMatchByID(ctx context.Context, session auth.Session, id uuid.UUID) (*models.Match, error) {
	var match models.Match
	err := scoped(r.db.WithContext(ctx), session).
		Preload("Input").
		Preload("Output").
		Preload("Output.Channel").
		First(&match, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// ListMatches retrieves all matches visible to the session
func (r *MatchRepository) ListMatches(ctx context.Context, session auth.Session) ([]models.Match, error) {
	var matches []models.Match
	err := scoped(r.db.WithContext(ctx), session).
		Preload("Input").
		Preload("Output").
		Order("created_at DESC").
		Find(&matches).Error
	return matches, err
}

// FindCandidates retrieves the matches whose input cardinality equals
// inputCount, endpoints preloaded. The matcher filters the candidates by
// exact triple coverage in memory.
func (r *MatchRepository) FindCandidates(ctx context.Context, session auth.Session, inputCount int) ([]models.Match, error) {
	var matches []models.Match
	err := scoped(r.db.WithContext(ctx), session).
		Where("input_count = ?", inputCount).
		Preload("Input").
		Preload("Output").
		Preload("Output.Channel").
		Order("created_at ASC").
		Find(&matches).Error
	return matches, err
}

// DeleteMatch deletes a match and its associations
func (r *MatchRepository) DeleteMatch(ctx context.Context, session auth.Session, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var match models.Match
		if err := scoped(tx, session).First(&match, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Model(&match).Association("Input").Clear(); err != nil {
			return err
		}
		if err := tx.Model(&match).Association("Output").Clear(); err != nil {
			return err
		}
		return tx.Delete(&match).Error
	})
}

// CreateDrift records a detected drift
func (r *MatchRepository) CreateDrift(ctx context.Context, drift *models.MatchDrift) error {
	return r.db.WithContext(ctx).Create(drift).Error
}

// ListOpenDrifts retrieves unresolved drifts visible to the session
func (r *MatchRepository) ListOpenDrifts(ctx context.Context, session auth.Session) ([]models.MatchDrift, error) {
	var drifts []models.MatchDrift
	err := scoped(r.db.WithContext(ctx), session).
		Where("status = ?", models.DriftStatusOpen).
		Order("detected_at DESC").
		Find(&drifts).Error
	return drifts, err
}

// GetDriftByID retrieves a drift by ID
func (r *MatchRepository) GetDriftByID(ctx context.Context, session auth.Session, id uuid.UUID) (*models.MatchDrift, error) {
	var drift models.MatchDrift
	err := scoped(r.db.WithContext(ctx), session).
		First(&drift, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &drift, nil
}

// UpdateDrift updates an existing drift record
func (r *MatchRepository) UpdateDrift(ctx context.Context, drift *models.MatchDrift) error {
	return r.db.WithContext(ctx).Save(drift).Error
}

// HasOpenDrift reports whether an open drift already exists for the channel
// item, so sweeps do not pile up duplicates.
func (r *MatchRepository) HasOpenDrift(ctx context.Context, channelItemID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.MatchDrift{}).
		Where("channel_item_id = ? AND status = ?", channelItemID, models.DriftStatusOpen).
		Count(&count).Error
	return count > 0, err
}
