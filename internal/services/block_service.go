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
	ErrSelfBlock     = errors.New("不能屏蔽自己")
	ErrBlockNotFound = errors.New("屏蔽记录不存在")
	ErrNotBlockOwner = errors.New("您不是此屏蔽记录的创建者")
)

// BlockResult reports the outcome of Block. Created is false when the edge
// already existed; the purge is not rerun in that case.
type BlockResult struct {
	Block   *models.Block `json:"block"`
	Created bool          `json:"created"`
}

// BlockService defines the interface for block-edge operations.
type BlockService interface {
	Block(ctx context.Context, actorID, targetID uint, reason string) (*BlockResult, error)
	Unblock(ctx context.Context, actorID, blockID uint) error
	ListBlocked(ctx context.Context, userID uint) ([]*models.Block, error)
}

// blockService 是 BlockService 的实现。
type blockService struct {
	db        *gorm.DB
	userRepo  storage.UserRepository
	blockRepo storage.BlockRepository
	producer  events.Producer
}

// NewBlockService creates a new BlockService instance.
func NewBlockService(db *gorm.DB, userRepo storage.UserRepository, blockRepo storage.BlockRepository, producer events.Producer) BlockService {
	return &blockService{db: db, userRepo: userRepo, blockRepo: blockRepo, producer: producer}
}

// Block creates the directional block edge actorID -> targetID. On actual
// creation it purges any match between the pair (messages cascade) and any
// like in either direction. Block insert, match purge and like purge run in
// one transaction serialized per pair by an advisory lock, so a failure
// partway never leaves a block without its purge, and a concurrent SendLike
// cannot slip a new edge in between the purge steps.
func (s *blockService) Block(ctx context.Context, actorID, targetID uint, reason string) (*BlockResult, error) {
	if actorID == targetID {
		return nil, ErrSelfBlock
	}

	exists, err := s.userRepo.Exists(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("检查目标用户时出错: %w", err)
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	result := &BlockResult{}
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txLikeRepo := storage.NewGormLikeRepository(tx)
		txMatchRepo := storage.NewGormMatchRepository(tx)
		txBlockRepo := storage.NewGormBlockRepository(tx)
		txMessageRepo := storage.NewGormMessageRepository(tx)

		if err := storage.AcquirePairLock(ctx, tx, actorID, targetID); err != nil {
			return fmt.Errorf("获取配对锁失败: %w", err)
		}

		block := &models.Block{BlockerID: actorID, BlockedID: targetID, Reason: reason}
		created, err := txBlockRepo.CreateIfAbsent(ctx, block)
		if err != nil {
			return fmt.Errorf("创建屏蔽边失败: %w", err)
		}
		result.Block = block
		result.Created = created

		if !created {
			// Already blocked: idempotent no-op, the purge ran the first time.
			return nil
		}

		match, err := txMatchRepo.GetByPair(ctx, actorID, targetID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("查询匹配失败: %w", err)
		}
		if match != nil {
			if err := txMessageRepo.DeleteByMatchID(ctx, match.ID); err != nil {
				return fmt.Errorf("删除匹配消息失败: %w", err)
			}
			if err := txMatchRepo.DeleteByID(ctx, match.ID); err != nil {
				return fmt.Errorf("删除匹配失败: %w", err)
			}
		}

		if err := txLikeRepo.DeleteBetween(ctx, actorID, targetID); err != nil {
			return fmt.Errorf("删除点赞边失败: %w", err)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	if result.Created && s.producer != nil {
		event := &events.RelationshipEvent{
			Type:        events.EventBlockCreated,
			ActorID:     actorID,
			RecipientID: targetID,
			OccurredAt:  time.Now(),
		}
		if err := s.producer.Publish(ctx, event); err != nil {
			log.Printf("Error publishing %s event for recipient %d: %v", event.Type, event.RecipientID, err)
		}
	}
	return result, nil
}

// Unblock deletes the block edge only. Likes and matches purged by the block
// are not restored.
func (s *blockService) Unblock(ctx context.Context, actorID, blockID uint) error {
	block, err := s.blockRepo.GetByID(ctx, blockID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBlockNotFound
		}
		return fmt.Errorf("检索屏蔽记录失败: %w", err)
	}
	if block.BlockerID != actorID {
		return ErrNotBlockOwner
	}

	if err := s.blockRepo.DeleteByID(ctx, block.ID); err != nil {
		return fmt.Errorf("删除屏蔽边失败: %w", err)
	}
	return nil
}

// ListBlocked retrieves the blocks created by a user, most recent first.
func (s *blockService) ListBlocked(ctx context.Context, userID uint) ([]*models.Block, error) {
	blocks, err := s.blockRepo.ListByBlocker(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("获取屏蔽列表失败: %w", err)
	}
	return blocks, nil
}
