package storage

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"match-go/internal/models"
)

// LikeRepository defines the interface for like-edge data operations.
type LikeRepository interface {
	// CreateIfAbsent inserts the like edge unless the (from,to) pair already
	// exists. It returns true when a new row was inserted; on false the
	// existing row is loaded into like. The unique index is the final arbiter
	// under concurrent callers.
	CreateIfAbsent(ctx context.Context, like *models.Like) (bool, error)
	GetByID(ctx context.Context, id uint) (*models.Like, error)
	Exists(ctx context.Context, fromUserID, toUserID uint) (bool, error)
	DeleteByID(ctx context.Context, id uint) error
	// DeleteBetween removes the like edges between two users in both directions.
	DeleteBetween(ctx context.Context, userID1, userID2 uint) error
	ListSentBy(ctx context.Context, userID uint) ([]*models.Like, error)
	ListReceivedBy(ctx context.Context, userID uint) ([]*models.Like, error)
	// ListLikedUserIDs returns the IDs of all users the given user has liked.
	ListLikedUserIDs(ctx context.Context, userID uint) ([]uint, error)
}

// gormLikeRepository implements LikeRepository using GORM.
type gormLikeRepository struct {
	db *gorm.DB
}

// NewGormLikeRepository creates a new GORM-based LikeRepository.
func NewGormLikeRepository(db *gorm.DB) LikeRepository {
	return &gormLikeRepository{db: db}
}

// CreateIfAbsent performs an INSERT ... ON CONFLICT DO NOTHING on the like
// edge and loads the existing row when the insert was a no-op.
func (r *gormLikeRepository) CreateIfAbsent(ctx context.Context, like *models.Like) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "from_user_id"}, {Name: "to_user_id"}},
			DoNothing: true,
		}).
		Create(like)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}
	// Lost the race or the edge was already there; fetch what exists.
	err := r.db.WithContext(ctx).
		Where("from_user_id = ? AND to_user_id = ?", like.FromUserID, like.ToUserID).
		First(like).Error
	return false, err
}

// GetByID retrieves a like edge by its ID.
func (r *gormLikeRepository) GetByID(ctx context.Context, id uint) (*models.Like, error) {
	var like models.Like
	err := r.db.WithContext(ctx).First(&like, id).Error
	if err != nil {
		return nil, err
	}
	return &like, nil
}

// Exists checks whether the directed edge fromUserID -> toUserID is present.
func (r *gormLikeRepository) Exists(ctx context.Context, fromUserID, toUserID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("from_user_id = ? AND to_user_id = ?", fromUserID, toUserID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeleteByID removes a like edge by its ID.
func (r *gormLikeRepository) DeleteByID(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Like{}, id).Error
}

// DeleteBetween removes the like edges between two users in both directions.
func (r *gormLikeRepository) DeleteBetween(ctx context.Context, userID1, userID2 uint) error {
	return r.db.WithContext(ctx).
		Where("(from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?)",
			userID1, userID2, userID2, userID1).
		Delete(&models.Like{}).Error
}

// ListSentBy retrieves the likes sent by a user, most recent first.
func (r *gormLikeRepository) ListSentBy(ctx context.Context, userID uint) ([]*models.Like, error) {
	var likes []*models.Like
	err := r.db.WithContext(ctx).
		Where("from_user_id = ?", userID).
		Order("created_at DESC").
		Find(&likes).Error
	if err != nil {
		return nil, err
	}
	return likes, nil
}

// ListReceivedBy retrieves the likes received by a user, most recent first.
func (r *gormLikeRepository) ListReceivedBy(ctx context.Context, userID uint) ([]*models.Like, error) {
	var likes []*models.Like
	err := r.db.WithContext(ctx).
		Where("to_user_id = ?", userID).
		Order("created_at DESC").
		Find(&likes).Error
	if err != nil {
		return nil, err
	}
	return likes, nil
}

// ListLikedUserIDs returns the IDs of all users the given user has liked.
func (r *gormLikeRepository) ListLikedUserIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("from_user_id = ?", userID).
		Pluck("to_user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
