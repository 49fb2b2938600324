package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Membership is the join row between a conversation and a user. Rows are
// hard-deleted on decline/kick/leave: a soft-deleted row would collide with
// the (conversation, user) unique index on a later re-join.
type Membership struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ConversationID uuid.UUID `json:"conversationId" gorm:"type:uuid;not null;uniqueIndex:idx_conversation_user"`
	UserID         uuid.UUID `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_conversation_user"`
	IsAccepted     bool      `json:"isAccepted" gorm:"default:false"`
	IsModerator    bool      `json:"isModerator" gorm:"default:false"`
	IsBlocked      bool      `json:"isBlocked" gorm:"default:false"`
	JoinedAt       time.Time `json:"joinedAt"`

	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (m *Membership) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now()
	}
	return nil
}
