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
	ErrMessageNotFound = errors.New("消息不存在")
	ErrOwnMessageRead  = errors.New("不能将自己发送的消息标记为已读")
	ErrEmptyMessage    = errors.New("消息内容不能为空")
)

// MessageService defines the interface for the per-match message channel.
type MessageService interface {
	Send(ctx context.Context, actorID, matchID uint, content string) (*models.Message, error)
	MarkRead(ctx context.Context, actorID, messageID uint) (*models.Message, error)
	History(ctx context.Context, actorID, matchID uint) ([]*models.Message, error)
}

// messageService 是 MessageService 的实现。
type messageService struct {
	matchRepo   storage.MatchRepository
	messageRepo storage.MessageRepository
	producer    events.Producer
}

// NewMessageService creates a new MessageService instance.
func NewMessageService(matchRepo storage.MatchRepository, messageRepo storage.MessageRepository, producer events.Producer) MessageService {
	return &messageService{matchRepo: matchRepo, messageRepo: messageRepo, producer: producer}
}

// Send appends a message to the match's ordered log. Only the two members of
// the match may send into it.
func (s *messageService) Send(ctx context.Context, actorID, matchID uint, content string) (*models.Message, error) {
	if content == "" {
		return nil, ErrEmptyMessage
	}

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

	message := &models.Message{
		MatchID:  match.ID,
		SenderID: actorID,
		Content:  content,
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("创建消息失败: %w", err)
	}

	if s.producer != nil {
		event := &events.RelationshipEvent{
			Type:        events.EventMessageSent,
			ActorID:     actorID,
			RecipientID: match.OtherMember(actorID),
			MatchID:     match.ID,
			MessageID:   message.ID,
			OccurredAt:  time.Now(),
		}
		if err := s.producer.Publish(ctx, event); err != nil {
			log.Printf("Error publishing %s event for recipient %d: %v", event.Type, event.RecipientID, err)
		}
	}
	return message, nil
}

// MarkRead flips is_read on a message, once. Only the non-sending member of
// the match may do so; repeated calls are a no-op.
func (s *messageService) MarkRead(ctx context.Context, actorID, messageID uint) (*models.Message, error) {
	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("检索消息失败: %w", err)
	}
	if message.SenderID == actorID {
		return nil, ErrOwnMessageRead
	}

	match, err := s.matchRepo.GetByID(ctx, message.MatchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("检索匹配失败: %w", err)
	}
	if !match.HasMember(actorID) {
		return nil, ErrNotMatchMember
	}

	if !message.IsRead {
		if err := s.messageRepo.MarkRead(ctx, message.ID); err != nil {
			return nil, fmt.Errorf("标记消息已读失败: %w", err)
		}
		message.IsRead = true
	}
	return message, nil
}

// History retrieves the messages of a match in ascending send order. Only
// match members may read it; a torn-down match yields ErrMatchNotFound.
func (s *messageService) History(ctx context.Context, actorID, matchID uint) ([]*models.Message, error) {
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

	messages, err := s.messageRepo.ListByMatchID(ctx, match.ID)
	if err != nil {
		return nil, fmt.Errorf("获取消息历史失败: %w", err)
	}
	return messages, nil
}
