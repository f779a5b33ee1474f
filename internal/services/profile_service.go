package services

import (
	"context"
	"errors"
	"fmt"

	"match-go/internal/models"
	"match-go/internal/storage"

	"gorm.io/gorm"
)

var ErrProfileNotFound = errors.New("交友资料不存在")

// discoverLimit bounds the discover feed; pagination is handled by the
// surrounding service, not here.
const discoverLimit = 50

// ProfileUpdate carries the updatable dating-profile fields. Nil pointers
// leave the field unchanged.
type ProfileUpdate struct {
	DisplayName *string
	Bio         *string
	Age         *int
	Gender      *models.Gender
	Location    *string
	Interests   *string
}

// ProfileService defines the interface for dating-profile operations.
type ProfileService interface {
	// GetOrCreateMyProfile returns the actor's profile, creating an empty one
	// on first access.
	GetOrCreateMyProfile(ctx context.Context, actorID uint) (*models.Profile, error)
	UpdateMyProfile(ctx context.Context, actorID uint, update ProfileUpdate) (*models.Profile, error)
	GetProfile(ctx context.Context, userID uint) (*models.Profile, error)
	// Discover lists profiles of users the actor has not liked yet, excluding
	// the actor and anyone in a block relation with them.
	Discover(ctx context.Context, actorID uint) ([]*models.Profile, error)
}

// profileService 是 ProfileService 的实现。
type profileService struct {
	userRepo    storage.UserRepository
	profileRepo storage.ProfileRepository
	likeRepo    storage.LikeRepository
	blockRepo   storage.BlockRepository
}

// NewProfileService creates a new ProfileService instance.
func NewProfileService(
	userRepo storage.UserRepository,
	profileRepo storage.ProfileRepository,
	likeRepo storage.LikeRepository,
	blockRepo storage.BlockRepository,
) ProfileService {
	return &profileService{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		likeRepo:    likeRepo,
		blockRepo:   blockRepo,
	}
}

// GetOrCreateMyProfile returns the actor's profile, creating an empty one on
// first access with the username as the initial display name.
func (s *profileService) GetOrCreateMyProfile(ctx context.Context, actorID uint) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, actorID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("获取交友资料失败: %w", err)
	}

	user, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("获取用户 %d 失败: %w", actorID, err)
	}

	profile = &models.Profile{UserID: actorID, DisplayName: user.Username}
	if err := s.profileRepo.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("创建交友资料失败: %w", err)
	}
	return profile, nil
}

// UpdateMyProfile applies the non-nil fields of update to the actor's profile.
func (s *profileService) UpdateMyProfile(ctx context.Context, actorID uint, update ProfileUpdate) (*models.Profile, error) {
	profile, err := s.GetOrCreateMyProfile(ctx, actorID)
	if err != nil {
		return nil, err
	}

	if update.DisplayName != nil {
		profile.DisplayName = *update.DisplayName
	}
	if update.Bio != nil {
		profile.Bio = *update.Bio
	}
	if update.Age != nil {
		profile.Age = update.Age
	}
	if update.Gender != nil {
		profile.Gender = *update.Gender
	}
	if update.Location != nil {
		profile.Location = *update.Location
	}
	if update.Interests != nil {
		profile.Interests = *update.Interests
	}

	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return nil, fmt.Errorf("更新交友资料失败: %w", err)
	}
	return profile, nil
}

// GetProfile retrieves another user's public profile.
func (s *profileService) GetProfile(ctx context.Context, userID uint) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("获取交友资料失败: %w", err)
	}
	return profile, nil
}

// Discover lists candidate profiles for the actor: everyone except the actor,
// users they already liked, and users in a block relation with them.
func (s *profileService) Discover(ctx context.Context, actorID uint) ([]*models.Profile, error) {
	likedIDs, err := s.likeRepo.ListLikedUserIDs(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("获取已点赞用户失败: %w", err)
	}
	blockRelatedIDs, err := s.blockRepo.ListRelatedUserIDs(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("获取屏蔽关系用户失败: %w", err)
	}

	exclude := make([]uint, 0, len(likedIDs)+len(blockRelatedIDs)+1)
	exclude = append(exclude, actorID)
	exclude = append(exclude, likedIDs...)
	exclude = append(exclude, blockRelatedIDs...)

	profiles, err := s.profileRepo.ListExcluding(ctx, exclude, discoverLimit)
	if err != nil {
		return nil, fmt.Errorf("获取推荐资料失败: %w", err)
	}
	return profiles, nil
}
