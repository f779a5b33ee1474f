package models

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel defines the common fields for account-side models (User, Profile).
// It includes an auto-incrementing ID, CreatedAt/UpdatedAt timestamps and a
// soft-delete marker.
//
// Relationship rows (Like, Match, Block, Message) intentionally do not embed
// it: a soft-deleted row would keep occupying its unique pair index and forbid
// re-creating the edge later, so those are hard-deleted instead.
type BaseModel struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deletedAt,omitempty"`
}
