package model

import (
    "time"
)

// Follow 关注关系（FollowerID 关注 FollowingID），仅由兑换邀请产生
type Follow struct {
    ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
    FollowerID  string    `json:"follower_id" gorm:"type:varchar(36);index:idx_follow_follower;index:idx_follow_pair,unique;not null"`
    FollowingID string    `json:"following_id" gorm:"type:varchar(36);not null;index:idx_follow_pair,unique;check:chk_follows_no_self,follower_id <> following_id"`
    // 复合唯一键，避免重复关注
    // idx_follow_pair = (follower_id, following_id)
    CreatedAt   time.Time `json:"created_at"`
}

func (Follow) TableName() string { return "follows" }
