package models

import "time"

// Block represents a directional suppression edge: only the blocker is
// shielded from the blocked party's future actions, but creating one purges
// any Like or Match between the pair regardless of direction. Unique per
// (BlockerID, BlockedID); hard-deleted so re-blocking after an unblock works.
type Block struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	BlockerID uint      `gorm:"not null;uniqueIndex:idx_block_edge" json:"blockerId"`
	BlockedID uint      `gorm:"not null;uniqueIndex:idx_block_edge;index" json:"blockedId"`
	Reason    string    `gorm:"type:varchar(200)" json:"reason,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName 指定 Block 模型的表名。
func (Block) TableName() string {
	return "blocks"
}
