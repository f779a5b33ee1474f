package storage

import (
	"context"

	"gorm.io/gorm"

	"match-go/internal/models"
)

// ProfileRepository defines the interface for dating-profile data operations.
type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByUserID(ctx context.Context, userID uint) (*models.Profile, error)
	Update(ctx context.Context, profile *models.Profile) error
	// ListExcluding retrieves up to limit profiles whose user is not in
	// excludeUserIDs, newest first. Backs the discover feed.
	ListExcluding(ctx context.Context, excludeUserIDs []uint, limit int) ([]*models.Profile, error)
}

// gormProfileRepository implements ProfileRepository using GORM.
type gormProfileRepository struct {
	db *gorm.DB
}

// NewGormProfileRepository creates a new GORM-based ProfileRepository.
func NewGormProfileRepository(db *gorm.DB) ProfileRepository {
	return &gormProfileRepository{db: db}
}

// Create creates a new profile record in the database.
func (r *gormProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

// GetByUserID retrieves the profile belonging to a user.
func (r *gormProfileRepository) GetByUserID(ctx context.Context, userID uint) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Update updates an existing profile record.
func (r *gormProfileRepository) Update(ctx context.Context, profile *models.Profile) error {
	if profile.ID == 0 {
		return gorm.ErrMissingWhereClause
	}
	return r.db.WithContext(ctx).Save(profile).Error
}

// ListExcluding retrieves profiles whose user is not in excludeUserIDs.
func (r *gormProfileRepository) ListExcluding(ctx context.Context, excludeUserIDs []uint, limit int) ([]*models.Profile, error) {
	var profiles []*models.Profile
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if len(excludeUserIDs) > 0 {
		query = query.Where("user_id NOT IN ?", excludeUserIDs)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&profiles).Error
	if err != nil {
		return nil, err
	}
	return profiles, nil
}
