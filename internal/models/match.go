package models

import "time"

// Match represents the symmetric relationship created once two users have
// liked each other. To avoid duplicates the pair is stored in canonical order:
// UserLowID is always less than UserHighID, so (A,B) and (B,A) collide to the
// same row under the unique index.
type Match struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	UserLowID  uint      `gorm:"not null;uniqueIndex:idx_match_pair" json:"userLowId"`
	UserHighID uint      `gorm:"not null;uniqueIndex:idx_match_pair;index" json:"userHighId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// EnsureCanonicalOrder sets UserLowID to the smaller ID and UserHighID to the
// larger ID. This must be called before creating a Match record.
func (m *Match) EnsureCanonicalOrder() {
	if m.UserLowID > m.UserHighID {
		m.UserLowID, m.UserHighID = m.UserHighID, m.UserLowID
	}
}

// HasMember reports whether userID is one of the match's two members.
func (m *Match) HasMember(userID uint) bool {
	return m.UserLowID == userID || m.UserHighID == userID
}

// OtherMember returns the member of the match that is not userID.
// HasMember should be checked first.
func (m *Match) OtherMember(userID uint) uint {
	if m.UserLowID == userID {
		return m.UserHighID
	}
	return m.UserLowID
}

// TableName 指定 Match 模型的表名。
func (Match) TableName() string {
	return "matches"
}
