package model

import "time"

// Invite 一次性邀请：兑换者关注 CreatorID。Used 只会从 false 变为 true 一次
type Invite struct {
    ID        string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
    CreatorID string     `json:"creator_id" gorm:"type:varchar(36);index:idx_invite_creator;not null"`
    Used      bool       `json:"used" gorm:"not null;default:false"`
    UsedAt    *time.Time `json:"used_at,omitempty"`
    CreatedAt time.Time  `json:"created_at"`
}

func (Invite) TableName() string { return "invites" }
