package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MessageTombstone replaces the content of a soft-deleted message. The row
// itself is kept for ordering and audit.
const MessageTombstone = "[deleted]"

type Message struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	ConversationID uuid.UUID  `json:"conversationId" gorm:"type:uuid;index;not null"`
	SenderID       uuid.UUID  `json:"senderId" gorm:"type:uuid;not null"`
	Content        string     `json:"content" gorm:"type:text;not null"`
	IsEdited       bool       `json:"isEdited" gorm:"default:false"`
	IsDeleted      bool       `json:"isDeleted" gorm:"default:false"`
	CreatedAt      time.Time  `json:"createdAt"`
	EditedAt       *time.Time `json:"editedAt"`

	Sender User `json:"sender,omitempty" gorm:"foreignKey:SenderID"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

type SendMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

type EditMessageRequest struct {
	Content string `json:"content" validate:"required"`
}
