package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Conversation kinds. A group is a named, owned, many-member conversation;
// a direct conversation is an unnamed, unowned two-member DM. The flag
// combination "direct and discoverable" is unrepresentable: discoverability
// is only ever read for the group kind.
const (
	ConversationGroup  = "group"
	ConversationDirect = "direct"
)

type Conversation struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Kind           string     `json:"kind" gorm:"not null;check:kind IN ('group','direct')"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	IsDiscoverable bool       `json:"isDiscoverable" gorm:"default:false"`
	OwnerID        *uuid.UUID `json:"ownerId" gorm:"type:uuid;index"`
	CreatedAt      time.Time  `json:"createdAt"`

	Memberships []Membership `json:"memberships,omitempty" gorm:"foreignKey:ConversationID"`
	Messages    []Message    `json:"messages,omitempty" gorm:"foreignKey:ConversationID"`
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (c *Conversation) IsDirect() bool {
	return c.Kind == ConversationDirect
}

// IsOwner reports whether id is the owning moderator. Direct conversations
// have no owner.
func (c *Conversation) IsOwner(id uuid.UUID) bool {
	return c.OwnerID != nil && *c.OwnerID == id
}

type CreateGroupRequest struct {
	Name           string `json:"name" validate:"required,max=100"`
	Description    string `json:"description" validate:"max=500"`
	IsDiscoverable bool   `json:"isDiscoverable"`
}

type CreateDirectRequest struct {
	TargetID uuid.UUID `json:"targetId" validate:"required"`
}

type AddMemberRequest struct {
	Username string `json:"username" validate:"required"`
}
