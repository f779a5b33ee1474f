package models

import "time"

// User 代表系统中的用户。
type User struct {
	BaseModel
	Username     string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	PasswordHash string     `gorm:"type:varchar(255);not null" json:"-"` // 不暴露密码哈希
	Email        string     `gorm:"type:varchar(100);uniqueIndex" json:"email,omitempty"`
	Nickname     string     `gorm:"type:varchar(100)" json:"nickname,omitempty"`
	AvatarURL    string     `gorm:"type:varchar(255)" json:"avatarUrl,omitempty"`
	LastSeenAt   *time.Time `json:"lastSeenAt,omitempty"`

	// 关联关系
	Profile *Profile `gorm:"foreignKey:UserID" json:"profile,omitempty"`
}

// UserBasicInfo holds minimal public information about a user.
// Used for scenarios like showing who sent a received like.
type UserBasicInfo struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	Nickname  string `json:"nickname,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// TableName 指定 User 模型的表名。
func (User) TableName() string {
	return "users"
}
