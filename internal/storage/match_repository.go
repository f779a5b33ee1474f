package storage

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"match-go/internal/models"
)

// MatchRepository defines the interface for match data operations.
type MatchRepository interface {
	// CreateIfAbsent inserts the match unless its canonical pair already
	// exists. match.EnsureCanonicalOrder() must have been called before.
	// Returns true when a new row was inserted; on false the existing row is
	// loaded into match.
	CreateIfAbsent(ctx context.Context, match *models.Match) (bool, error)
	GetByID(ctx context.Context, id uint) (*models.Match, error)
	// GetByPair retrieves the match between two users regardless of argument
	// order. Returns gorm.ErrRecordNotFound when the pair is not matched.
	GetByPair(ctx context.Context, userID1, userID2 uint) (*models.Match, error)
	DeleteByID(ctx context.Context, id uint) error
	ListForUser(ctx context.Context, userID uint) ([]*models.Match, error)
}

// gormMatchRepository implements MatchRepository using GORM.
type gormMatchRepository struct {
	db *gorm.DB
}

// NewGormMatchRepository creates a new GORM-based MatchRepository.
func NewGormMatchRepository(db *gorm.DB) MatchRepository {
	return &gormMatchRepository{db: db}
}

// CreateIfAbsent performs an INSERT ... ON CONFLICT DO NOTHING on the
// canonical pair. Two concurrent callers completing the same mutual pair end
// up with exactly one row: the loser reads the winner's row back.
func (r *gormMatchRepository) CreateIfAbsent(ctx context.Context, match *models.Match) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_low_id"}, {Name: "user_high_id"}},
			DoNothing: true,
		}).
		Create(match)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}
	err := r.db.WithContext(ctx).
		Where("user_low_id = ? AND user_high_id = ?", match.UserLowID, match.UserHighID).
		First(match).Error
	return false, err
}

// GetByID retrieves a match by its ID.
func (r *gormMatchRepository) GetByID(ctx context.Context, id uint) (*models.Match, error) {
	var match models.Match
	err := r.db.WithContext(ctx).First(&match, id).Error
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// GetByPair retrieves the match between two users regardless of argument order.
func (r *gormMatchRepository) GetByPair(ctx context.Context, userID1, userID2 uint) (*models.Match, error) {
	low, high := userID1, userID2
	if low > high {
		low, high = high, low // canonical order for the lookup
	}
	var match models.Match
	err := r.db.WithContext(ctx).
		Where("user_low_id = ? AND user_high_id = ?", low, high).
		First(&match).Error
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// DeleteByID removes a match by its ID.
func (r *gormMatchRepository) DeleteByID(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Match{}, id).Error
}

// ListForUser retrieves the matches a user is a member of, most recent first.
func (r *gormMatchRepository) ListForUser(ctx context.Context, userID uint) ([]*models.Match, error) {
	var matches []*models.Match
	err := r.db.WithContext(ctx).
		Where("user_low_id = ? OR user_high_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&matches).Error
	if err != nil {
		return nil, err
	}
	return matches, nil
}
