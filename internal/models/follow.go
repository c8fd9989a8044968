package models

import (
	"time"
)

// Follow means UserID is subscribed to FollowingID.
type Follow struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_follow_pair;check:chk_follows_not_self,user_id <> following_id" json:"user_id"`
	FollowingID uint      `gorm:"not null;uniqueIndex:idx_follow_pair;index" json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`
}
