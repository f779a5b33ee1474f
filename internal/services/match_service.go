package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"match-go/internal/events"
	"match-go/internal/models"
	"match-go/internal/storage"

	"gorm.io/gorm"
)

var (
	ErrMatchNotFound  = errors.New("匹配不存在")
	ErrNotMatchMember = errors.New("您不是此匹配的成员")
)

// MatchService defines the interface for match operations.
type MatchService interface {
	GetMatch(ctx context.Context, actorID, matchID uint) (*models.Match, error)
	Unmatch(ctx context.Context, actorID, matchID uint) error
	ListForUser(ctx context.Context, userID uint) ([]*models.Match, error)
}

// matchService 是 MatchService 的实现。
type matchService struct {
	db        *gorm.DB
	matchRepo storage.MatchRepository
	producer  events.Producer
}

// NewMatchService creates a new MatchService instance.
func NewMatchService(db *gorm.DB, matchRepo storage.MatchRepository, producer events.Producer) MatchService {
	return &matchService{db: db, matchRepo: matchRepo, producer: producer}
}

// GetMatch retrieves a match, enforcing that the actor is one of its members.
func (s *matchService) GetMatch(ctx context.Context, actorID, matchID uint) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("检索匹配失败: %w", err)
	}
	if !match.HasMember(actorID) {
		return nil, ErrNotMatchMember
	}
	return match, nil
}

// Unmatch tears a match down: all like edges between the two members (both
// directions), all messages of the match, and the match row itself are
// deleted in one transaction. A failure partway rolls everything back.
func (s *matchService) Unmatch(ctx context.Context, actorID, matchID uint) error {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMatchNotFound
		}
		return fmt.Errorf("检索匹配失败: %w", err)
	}
	if !match.HasMember(actorID) {
		return ErrNotMatchMember
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txLikeRepo := storage.NewGormLikeRepository(tx)
		txMatchRepo := storage.NewGormMatchRepository(tx)
		txMessageRepo := storage.NewGormMessageRepository(tx)

		if err := storage.AcquirePairLock(ctx, tx, match.UserLowID, match.UserHighID); err != nil {
			return fmt.Errorf("获取配对锁失败: %w", err)
		}

		if err := txMessageRepo.DeleteByMatchID(ctx, match.ID); err != nil {
			return fmt.Errorf("删除匹配消息失败: %w", err)
		}
		if err := txLikeRepo.DeleteBetween(ctx, match.UserLowID, match.UserHighID); err != nil {
			return fmt.Errorf("删除点赞边失败: %w", err)
		}
		if err := txMatchRepo.DeleteByID(ctx, match.ID); err != nil {
			return fmt.Errorf("删除匹配失败: %w", err)
		}
		return nil
	})
	if txErr != nil {
		return txErr
	}

	if s.producer != nil {
		event := &events.RelationshipEvent{
			Type:        events.EventMatchDeleted,
			ActorID:     actorID,
			RecipientID: match.OtherMember(actorID),
			MatchID:     match.ID,
			OccurredAt:  time.Now(),
		}
		if err := s.producer.Publish(ctx, event); err != nil {
			log.Printf("Error publishing %s event for recipient %d: %v", event.Type, event.RecipientID, err)
		}
	}
	return nil
}

// ListForUser retrieves the matches a user is a member of, most recent first.
func (s *matchService) ListForUser(ctx context.Context, userID uint) ([]*models.Match, error) {
	matches, err := s.matchRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("获取匹配列表失败: %w", err)
	}
	return matches, nil
}
