package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"channel-bridge-service/internal/auth"
	"channel-bridge-service/internal/models"
)

// TrackingRepository handles database operations for tracking details and the
// dispatch ledger.
type TrackingRepository struct {
	db *gorm.DB
}

// NewTrackingRepository creates a new tracking repository
func NewTrackingRepository(db *gorm.DB) *TrackingRepository {
	return &TrackingRepository{db: db}
}

// Create persists a tracking detail with any explicit cart item associations
func (r *TrackingRepository) Create(ctx context.Context, detail *models.TrackingDetail) error {
	return r.db.WithContext(ctx).Create(detail).Error
}

// GetByID retrieves a tracking detail with its cart items preloaded
func (r *TrackingRepository) GetByID(ctx context.Context, session auth.Session, id uuid.UUID) (*models.TrackingDetail, error) {
	var detail models.TrackingDetail
	err := scoped(r.db.WithContext(ctx), session).
		Preload("CartItems").
		First(&detail, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// List retrieves tracking details visible to the session
func (r *TrackingRepository) List(ctx context.Context, session auth.Session) ([]models.TrackingDetail, error) {
	var details []models.TrackingDetail
	err := scoped(r.db.WithContext(ctx), session).
		Preload("CartItems").
		Order("created_at DESC").
		Find(&details).Error
	return details, err
}

// AssociateCartItems appends cart items to a tracking detail
func (r *TrackingRepository) AssociateCartItems(ctx context.Context, detail *models.TrackingDetail, items []models.CartItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(detail).Association("CartItems").Append(&items)
}

// Delete removes a tracking detail and its associations
func (r *TrackingRepository) Delete(ctx context.Context, session auth.Session, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var detail models.TrackingDetail
		if err := scoped(tx, session).First(&detail, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Model(&detail).Association("CartItems").Clear(); err != nil {
			return err
		}
		return tx.Delete(&detail).Error
	})
}

// ClaimDispatch inserts the ledger row for a tracking detail. The unique index
// on tracking_detail_id makes the claim race-safe: the insert is skipped when
// a row already exists and the method reports whether this caller won.
func (r *TrackingRepository) ClaimDispatch(ctx context.Context, dispatch *models.TrackingDispatch) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tracking_detail_id"}},
			DoNothing: true,
		}).
		Create(dispatch)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ReleaseDispatch removes a claim so a failed notification can be retried
func (r *TrackingRepository) ReleaseDispatch(ctx context.Context, trackingDetailID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("tracking_detail_id = ?", trackingDetailID).
		Delete(&models.TrackingDispatch{}).Error
}

// UpdateDispatchResult records the notification outcome on the ledger row
func (r *TrackingRepository) UpdateDispatchResult(ctx context.Context, trackingDetailID uuid.UUID, result string) error {
	return r.db.WithContext(ctx).
		Model(&models.TrackingDispatch{}).
		Where("tracking_detail_id = ?", trackingDetailID).
		Update("result", result).Error
}
