package storage

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"match-go/internal/models"
)

// BlockRepository defines the interface for block-edge data operations.
type BlockRepository interface {
	// CreateIfAbsent inserts the block edge unless the (blocker,blocked) pair
	// already exists. Returns true when a new row was inserted; on false the
	// existing row is loaded into block.
	CreateIfAbsent(ctx context.Context, block *models.Block) (bool, error)
	GetByID(ctx context.Context, id uint) (*models.Block, error)
	// ExistsBetween checks for a block in either direction between two users.
	ExistsBetween(ctx context.Context, userID1, userID2 uint) (bool, error)
	DeleteByID(ctx context.Context, id uint) error
	ListByBlocker(ctx context.Context, userID uint) ([]*models.Block, error)
	// ListRelatedUserIDs returns the IDs of users the given user has blocked
	// or has been blocked by.
	ListRelatedUserIDs(ctx context.Context, userID uint) ([]uint, error)
}

// gormBlockRepository implements BlockRepository using GORM.
type gormBlockRepository struct {
	db *gorm.DB
}

// NewGormBlockRepository creates a new GORM-based BlockRepository.
func NewGormBlockRepository(db *gorm.DB) BlockRepository {
	return &gormBlockRepository{db: db}
}

// CreateIfAbsent performs an INSERT ... ON CONFLICT DO NOTHING on the block
// edge and loads the existing row when the insert was a no-op.
func (r *gormBlockRepository) CreateIfAbsent(ctx context.Context, block *models.Block) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "blocker_id"}, {Name: "blocked_id"}},
			DoNothing: true,
		}).
		Create(block)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}
	err := r.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", block.BlockerID, block.BlockedID).
		First(block).Error
	return false, err
}

// GetByID retrieves a block edge by its ID.
func (r *gormBlockRepository) GetByID(ctx context.Context, id uint) (*models.Block, error) {
	var block models.Block
	err := r.db.WithContext(ctx).First(&block, id).Error
	if err != nil {
		return nil, err
	}
	return &block, nil
}

// ExistsBetween checks for a block in either direction between two users.
func (r *gormBlockRepository) ExistsBetween(ctx context.Context, userID1, userID2 uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Block{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)",
			userID1, userID2, userID2, userID1).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeleteByID removes a block edge by its ID.
func (r *gormBlockRepository) DeleteByID(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Block{}, id).Error
}

// ListByBlocker retrieves the blocks created by a user, most recent first.
func (r *gormBlockRepository) ListByBlocker(ctx context.Context, userID uint) ([]*models.Block, error) {
	var blocks []*models.Block
	err := r.db.WithContext(ctx).
		Where("blocker_id = ?", userID).
		Order("created_at DESC").
		Find(&blocks).Error
	if err != nil {
		return nil, err
	}
	return blocks, nil
}

// ListRelatedUserIDs returns the IDs of users in a block relation (either
// direction) with the given user. Used to filter the discover feed.
func (r *gormBlockRepository) ListRelatedUserIDs(ctx context.Context, userID uint) ([]uint, error) {
	var blockedIDs []uint
	err := r.db.WithContext(ctx).Model(&models.Block{}).
		Where("blocker_id = ?", userID).
		Pluck("blocked_id", &blockedIDs).Error
	if err != nil {
		return nil, err
	}

	var blockerIDs []uint
	err = r.db.WithContext(ctx).Model(&models.Block{}).
		Where("blocked_id = ?", userID).
		Pluck("blocker_id", &blockerIDs).Error
	if err != nil {
		return nil, err
	}

	return append(blockedIDs, blockerIDs...), nil
}
