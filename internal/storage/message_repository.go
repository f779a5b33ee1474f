package storage

import (
	"context"

	"gorm.io/gorm"

	"match-go/internal/models"
)

// MessageRepository 定义了消息数据操作的接口。
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id uint) (*models.Message, error)
	// ListByMatchID retrieves the messages of a match in ascending send order.
	// The auto-increment ID breaks same-timestamp ties, so the order is a
	// stable total order.
	ListByMatchID(ctx context.Context, matchID uint) ([]*models.Message, error)
	MarkRead(ctx context.Context, id uint) error
	// DeleteByMatchID removes all messages of a match. Called inside the
	// unmatch/block teardown transaction before the match row is deleted.
	DeleteByMatchID(ctx context.Context, matchID uint) error
}

// gormMessageRepository 使用 GORM 实现 MessageRepository。
type gormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository 创建一个新的基于 GORM 的 MessageRepository。
func NewGormMessageRepository(db *gorm.DB) MessageRepository {
	return &gormMessageRepository{db: db}
}

// Create 在数据库中创建一条新的消息记录。
func (r *gormMessageRepository) Create(ctx context.Context, message *models.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// GetByID 通过ID检索消息。
func (r *gormMessageRepository) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	var message models.Message
	err := r.db.WithContext(ctx).First(&message, id).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// ListByMatchID 通过 Match ID 检索消息列表，按发送顺序升序排列。
func (r *gormMessageRepository) ListByMatchID(ctx context.Context, matchID uint) ([]*models.Message, error) {
	var messages []*models.Message
	err := r.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkRead sets is_read on a message. The flag never reverts.
func (r *gormMessageRepository) MarkRead(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.Message{}).
		Where("id = ?", id).
		Update("is_read", true).Error
}

// DeleteByMatchID 删除某个 Match 下的全部消息。
func (r *gormMessageRepository) DeleteByMatchID(ctx context.Context, matchID uint) error {
	return r.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Delete(&models.Message{}).Error
}
