package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification kinds. join_request and follow_request are consumable: the
// recipient responds accept/decline and the row is deleted. Every other
// kind only ever flips to read.
const (
	NotifJoinRequest   = "join_request"
	NotifJoinAccepted  = "join_accepted"
	NotifAddedToGroup  = "added_to_group"
	NotifGroupMessage  = "group_message"
	NotifDirectMessage = "direct_message"
	NotifFollow        = "follow"
	NotifFollowRequest = "follow_request"
	NotifPinLiked      = "pin_liked"
	NotifCommentPosted = "comment_posted"
	NotifCommentLiked  = "comment_liked"
)

type Notification struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	SenderID       uuid.UUID  `json:"senderId" gorm:"type:uuid;not null"`
	RecipientID    uuid.UUID  `json:"recipientId" gorm:"type:uuid;index;not null"`
	Kind           string     `json:"kind" gorm:"not null"`
	Text           string     `json:"text"`
	IsRead         bool       `json:"isRead" gorm:"default:false"`
	ConversationID *uuid.UUID `json:"conversationId" gorm:"type:uuid;index"`
	PinID          *uuid.UUID `json:"pinId" gorm:"type:uuid"`
	CreatedAt      time.Time  `json:"createdAt"`

	Sender User `json:"sender,omitempty" gorm:"foreignKey:SenderID"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// IsConsumable reports whether the notification is answered via
// accept/decline rather than marked read.
func (n *Notification) IsConsumable() bool {
	return n.Kind == NotifJoinRequest || n.Kind == NotifFollowRequest
}

type RespondRequest struct {
	Accept bool `json:"accept"`
}
