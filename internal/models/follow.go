package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Follow is pending (IsAccepted=false) when the followee has a private
// account; the followee answers through the notification respond flow.
type Follow struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	FollowerID uuid.UUID `json:"followerId" gorm:"type:uuid;not null;uniqueIndex:idx_follower_followee"`
	FolloweeID uuid.UUID `json:"followeeId" gorm:"type:uuid;not null;uniqueIndex:idx_follower_followee"`
	IsAccepted bool      `json:"isAccepted" gorm:"default:false"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (f *Follow) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
