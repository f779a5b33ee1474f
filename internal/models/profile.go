package models

import "strings"

// Gender 定义了资料中的性别选项。
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Profile 代表用户的交友资料，与 User 一对一关联。
type Profile struct {
	BaseModel
	UserID      uint   `gorm:"uniqueIndex;not null" json:"userId"`
	DisplayName string `gorm:"type:varchar(50)" json:"displayName"`
	Bio         string `gorm:"type:text" json:"bio,omitempty"`
	Age         *int   `json:"age,omitempty"`
	Gender      Gender `gorm:"type:varchar(10)" json:"gender,omitempty"`
	Location    string `gorm:"type:varchar(100)" json:"location,omitempty"`

	// Interests is stored as a comma separated string; use InterestsList for
	// the parsed form.
	Interests string `gorm:"type:text" json:"interests,omitempty"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// InterestsList returns the interests as a trimmed slice.
func (p *Profile) InterestsList() []string {
	if p.Interests == "" {
		return nil
	}
	parts := strings.Split(p.Interests, ",")
	list := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			list = append(list, trimmed)
		}
	}
	return list
}

// TableName 指定 Profile 模型的表名。
func (Profile) TableName() string {
	return "profiles"
}
