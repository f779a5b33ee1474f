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
	ErrSelfLike        = errors.New("不能给自己点赞")
	ErrBlockedBetween  = errors.New("你们之间存在屏蔽关系")
	ErrLikeNotFound    = errors.New("点赞记录不存在")
	ErrNotLikeRecipient = errors.New("您不是此点赞的接收者")
)

// LikeResult reports the outcome of SendLike. Created is false when the edge
// already existed (a repeated like is a no-op, not an error). When Mutual is
// true, MatchID refers to the match for the pair.
type LikeResult struct {
	Like    *models.Like `json:"like"`
	Created bool         `json:"created"`
	Mutual  bool         `json:"mutual"`
	MatchID uint         `json:"matchId,omitempty"`
}

// MatchResult reports the outcome of AcceptLike or a mutual-like promotion.
// Created is false when the pair was already matched.
type MatchResult struct {
	Match   *models.Match `json:"match"`
	Created bool          `json:"created"`
}

// LikeService defines the interface for directional like-edge operations.
type LikeService interface {
	SendLike(ctx context.Context, actorID, targetID uint) (*LikeResult, error)
	AcceptLike(ctx context.Context, actorID, likeID uint) (*MatchResult, error)
	RejectLike(ctx context.Context, actorID, likeID uint) error
	ListSent(ctx context.Context, userID uint) ([]*models.Like, error)
	ListReceived(ctx context.Context, userID uint) ([]*models.LikeWithSender, error)
}

// likeService 是 LikeService 的实现。
type likeService struct {
	db       *gorm.DB // for transaction support
	userRepo storage.UserRepository
	likeRepo storage.LikeRepository
	producer events.Producer // may be nil; events are best-effort
}

// NewLikeService creates a new LikeService instance.
func NewLikeService(db *gorm.DB, userRepo storage.UserRepository, likeRepo storage.LikeRepository, producer events.Producer) LikeService {
	return &likeService{
		db:       db,
		userRepo: userRepo,
		likeRepo: likeRepo,
		producer: producer,
	}
}

// SendLike creates the directional like edge actorID -> targetID and promotes
// the pair to a match when the reverse edge already exists. The edge creation,
// reverse-edge check and match creation run in one transaction serialized per
// pair by an advisory lock, so two concurrent calls completing the same mutual
// pair yield exactly one match: the second transaction waits for the first and
// then sees its committed edge. The unique indexes remain the final arbiter,
// and a caller losing the edge insert reads the winner's row back instead of
// surfacing a conflict.
func (s *likeService) SendLike(ctx context.Context, actorID, targetID uint) (*LikeResult, error) {
	if actorID == targetID {
		return nil, ErrSelfLike
	}

	exists, err := s.userRepo.Exists(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("检查目标用户时出错: %w", err)
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	result := &LikeResult{}
	matchCreated := false
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txLikeRepo := storage.NewGormLikeRepository(tx)
		txMatchRepo := storage.NewGormMatchRepository(tx)
		txBlockRepo := storage.NewGormBlockRepository(tx)

		if err := storage.AcquirePairLock(ctx, tx, actorID, targetID); err != nil {
			return fmt.Errorf("获取配对锁失败: %w", err)
		}

		// A block in either direction forbids new likes. The original mutual
		// -like path skipped this check; it is enforced here so a block
		// cannot be sidestepped by immediately re-liking.
		blocked, err := txBlockRepo.ExistsBetween(ctx, actorID, targetID)
		if err != nil {
			return fmt.Errorf("检查屏蔽关系时出错: %w", err)
		}
		if blocked {
			return ErrBlockedBetween
		}

		like := &models.Like{FromUserID: actorID, ToUserID: targetID}
		created, err := txLikeRepo.CreateIfAbsent(ctx, like)
		if err != nil {
			return fmt.Errorf("创建点赞边失败: %w", err)
		}
		result.Like = like
		result.Created = created

		// Mutuality is derived from the reverse edge on every call, repeated
		// likes included. Create-or-getting the match here means a pair that
		// somehow holds both edges without a match row converges the next
		// time either member likes again.
		mutual, err := txLikeRepo.Exists(ctx, targetID, actorID)
		if err != nil {
			return fmt.Errorf("检查反向点赞失败: %w", err)
		}
		if !mutual {
			return nil
		}

		match := &models.Match{UserLowID: actorID, UserHighID: targetID}
		match.EnsureCanonicalOrder()
		matchCreated, err = txMatchRepo.CreateIfAbsent(ctx, match)
		if err != nil {
			return fmt.Errorf("创建匹配失败: %w", err)
		}
		result.Mutual = true
		result.MatchID = match.ID
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	// Post-commit notifications, best-effort.
	if result.Created {
		s.publish(ctx, &events.RelationshipEvent{
			Type:        events.EventLikeReceived,
			ActorID:     actorID,
			RecipientID: targetID,
			LikeID:      result.Like.ID,
			OccurredAt:  time.Now(),
		})
	}
	if matchCreated {
		s.publishMatchCreated(ctx, actorID, targetID, result.MatchID)
	}

	return result, nil
}

// AcceptLike promotes a received like to a match by synthesizing the reverse
// edge. Idempotent: accepting an already-matched pair returns the existing
// match with Created=false.
func (s *likeService) AcceptLike(ctx context.Context, actorID, likeID uint) (*MatchResult, error) {
	like, err := s.likeRepo.GetByID(ctx, likeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLikeNotFound
		}
		return nil, fmt.Errorf("检索点赞记录失败: %w", err)
	}
	if like.ToUserID != actorID {
		return nil, ErrNotLikeRecipient
	}

	result := &MatchResult{}
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txLikeRepo := storage.NewGormLikeRepository(tx)
		txMatchRepo := storage.NewGormMatchRepository(tx)
		txBlockRepo := storage.NewGormBlockRepository(tx)

		if err := storage.AcquirePairLock(ctx, tx, actorID, like.FromUserID); err != nil {
			return fmt.Errorf("获取配对锁失败: %w", err)
		}

		blocked, err := txBlockRepo.ExistsBetween(ctx, actorID, like.FromUserID)
		if err != nil {
			return fmt.Errorf("检查屏蔽关系时出错: %w", err)
		}
		if blocked {
			return ErrBlockedBetween
		}

		reverse := &models.Like{FromUserID: actorID, ToUserID: like.FromUserID}
		if _, err := txLikeRepo.CreateIfAbsent(ctx, reverse); err != nil {
			return fmt.Errorf("创建反向点赞边失败: %w", err)
		}

		match := &models.Match{UserLowID: actorID, UserHighID: like.FromUserID}
		match.EnsureCanonicalOrder()
		created, err := txMatchRepo.CreateIfAbsent(ctx, match)
		if err != nil {
			return fmt.Errorf("创建匹配失败: %w", err)
		}
		result.Match = match
		result.Created = created
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	if result.Created {
		s.publishMatchCreated(ctx, actorID, like.FromUserID, result.Match.ID)
	}
	return result, nil
}

// RejectLike deletes a received like edge. It has no effect on any existing
// match; rejecting is only meaningful for un-reciprocated likes.
func (s *likeService) RejectLike(ctx context.Context, actorID, likeID uint) error {
	like, err := s.likeRepo.GetByID(ctx, likeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLikeNotFound
		}
		return fmt.Errorf("检索点赞记录失败: %w", err)
	}
	if like.ToUserID != actorID {
		return ErrNotLikeRecipient
	}

	if err := s.likeRepo.DeleteByID(ctx, like.ID); err != nil {
		return fmt.Errorf("删除点赞边失败: %w", err)
	}
	return nil
}

// ListSent retrieves the likes sent by a user, most recent first.
func (s *likeService) ListSent(ctx context.Context, userID uint) ([]*models.Like, error) {
	likes, err := s.likeRepo.ListSentBy(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("获取已发送点赞列表失败: %w", err)
	}
	return likes, nil
}

// ListReceived retrieves the likes received by a user, most recent first,
// enriched with basic sender info.
func (s *likeService) ListReceived(ctx context.Context, userID uint) ([]*models.LikeWithSender, error) {
	likes, err := s.likeRepo.ListReceivedBy(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("获取已接收点赞列表失败: %w", err)
	}
	if len(likes) == 0 {
		return []*models.LikeWithSender{}, nil
	}

	senderIDs := make([]uint, 0, len(likes))
	for _, like := range likes {
		senderIDs = append(senderIDs, like.FromUserID)
	}
	senders, err := s.userRepo.GetMultipleBasicInfoByIDs(ctx, senderIDs)
	if err != nil {
		return nil, fmt.Errorf("批量获取发送者信息失败: %w", err)
	}
	sendersByID := make(map[uint]*models.UserBasicInfo, len(senders))
	for _, sender := range senders {
		sendersByID[sender.ID] = sender
	}

	result := make([]*models.LikeWithSender, 0, len(likes))
	for _, like := range likes {
		sender, ok := sendersByID[like.FromUserID]
		if !ok {
			// Sender account removed since the like was stored.
			log.Printf("Skipping like %d: sender %d no longer exists", like.ID, like.FromUserID)
			continue
		}
		result = append(result, &models.LikeWithSender{Like: *like, Sender: sender})
	}
	return result, nil
}

func (s *likeService) publishMatchCreated(ctx context.Context, userID1, userID2, matchID uint) {
	// Both members get notified.
	s.publish(ctx, &events.RelationshipEvent{
		Type:        events.EventMatchCreated,
		ActorID:     userID1,
		RecipientID: userID2,
		MatchID:     matchID,
		OccurredAt:  time.Now(),
	})
	s.publish(ctx, &events.RelationshipEvent{
		Type:        events.EventMatchCreated,
		ActorID:     userID2,
		RecipientID: userID1,
		MatchID:     matchID,
		OccurredAt:  time.Now(),
	})
}

func (s *likeService) publish(ctx context.Context, event *events.RelationshipEvent) {
	if s.producer == nil {
		return
	}
	if err := s.producer.Publish(ctx, event); err != nil {
		log.Printf("Error publishing %s event for recipient %d: %v", event.Type, event.RecipientID, err)
	}
}
