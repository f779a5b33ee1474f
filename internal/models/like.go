package models

import "time"

// Like represents a one-directional expression of interest from one user to
// another. The (FromUserID, ToUserID) pair is unique; the reverse edge is a
// separate row. Likes are hard-deleted (on reject, unmatch or block) so the
// unique index never blocks a legitimate re-like later on.
type Like struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	FromUserID uint      `gorm:"not null;uniqueIndex:idx_like_edge" json:"fromUserId"`
	ToUserID   uint      `gorm:"not null;uniqueIndex:idx_like_edge;index" json:"toUserId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// LikeWithSender is a DTO that includes like details along with basic
// information about the user who sent it. Used for listing received likes.
type LikeWithSender struct {
	Like
	Sender *UserBasicInfo `json:"sender"`
}

// TableName 指定 Like 模型的表名。
func (Like) TableName() string {
	return "likes"
}
