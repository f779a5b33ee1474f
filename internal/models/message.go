package models

import "time"

// Message 代表一条在 Match 内发送的消息。
// Messages exist only under a Match and are removed together with it.
// The ordering key is (CreatedAt, ID): the auto-increment primary key breaks
// same-timestamp ties, giving a stable total order per match.
type Message struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	MatchID   uint      `gorm:"not null;index:idx_message_match_order,priority:1" json:"matchId"`
	SenderID  uint      `gorm:"not null;index" json:"senderId"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	IsRead    bool      `gorm:"not null;default:false" json:"isRead"`
	CreatedAt time.Time `gorm:"index:idx_message_match_order,priority:2" json:"createdAt"`
}

// TableName 指定 Message 模型的表名。
func (Message) TableName() string {
	return "messages"
}
