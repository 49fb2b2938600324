package chat

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pinly/pinly-api/internal/models"
	"gorm.io/gorm"
)

// Flat read models. Handlers render these directly; no entity graph
// escapes the service.

type MemberView struct {
	UserID      uuid.UUID `json:"userId"`
	Username    string    `json:"username"`
	AvatarURL   string    `json:"avatarUrl"`
	IsAccepted  bool      `json:"isAccepted"`
	IsModerator bool      `json:"isModerator"`
	IsOwner     bool      `json:"isOwner"`
	JoinedAt    time.Time `json:"joinedAt"`
}

type MessageView struct {
	ID         uuid.UUID  `json:"id"`
	SenderID   uuid.UUID  `json:"senderId"`
	SenderName string     `json:"senderName"`
	Content    string     `json:"content"`
	IsEdited   bool       `json:"isEdited"`
	IsDeleted  bool       `json:"isDeleted"`
	CreatedAt  time.Time  `json:"createdAt"`
	EditedAt   *time.Time `json:"editedAt,omitempty"`
}

type ConversationView struct {
	ID             uuid.UUID     `json:"id"`
	Kind           string        `json:"kind"`
	Name           string        `json:"name"`
	Description    string        `json:"description"`
	IsDiscoverable bool          `json:"isDiscoverable"`
	OwnerID        *uuid.UUID    `json:"ownerId"`
	IsPending      bool          `json:"isPending"`
	IsBlocked      bool          `json:"isBlocked"`
	Members        []MemberView  `json:"members"`
	Messages       []MessageView `json:"messages"`
}

type ConversationSummary struct {
	ID           uuid.UUID `json:"id"`
	Kind         string    `json:"kind"`
	Name         string    `json:"name"`
	IsPending    bool      `json:"isPending"`
	LastMessage  string    `json:"lastMessage"`
	LastActivity time.Time `json:"lastActivity"`
}

type DiscoverableGroup struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	MemberCount int64     `json:"memberCount"`
	ViewerState string    `json:"viewerState"` // none | pending | member
}

// GetConversation renders a conversation for a member. Non-members get
// NotFound, never Forbidden, so existence is not leaked. A pending member
// sees the member list but no messages. A direct conversation is named
// after the other member at read time.
func (s *Service) GetConversation(ctx context.Context, viewer, conversationID uuid.UUID) (*ConversationView, error) {
	db := s.db.WithContext(ctx)

	var conv models.Conversation
	if err := db.First(&conv, "id = ?", conversationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := db.Preload("User").Find(&conv.Memberships, "conversation_id = ?", conv.ID).Error; err != nil {
		return nil, err
	}

	mem := membershipOf(&conv, viewer)
	if mem == nil {
		return nil, ErrNotFound
	}

	view := ConversationView{
		ID:             conv.ID,
		Kind:           conv.Kind,
		Name:           conv.Name,
		Description:    conv.Description,
		IsDiscoverable: conv.IsDiscoverable,
		OwnerID:        conv.OwnerID,
		IsPending:      !mem.IsAccepted,
	}
	for _, m := range conv.Memberships {
		view.Members = append(view.Members, MemberView{
			UserID:      m.UserID,
			Username:    m.User.Username,
			AvatarURL:   m.User.AvatarURL,
			IsAccepted:  m.IsAccepted,
			IsModerator: m.IsModerator,
			IsOwner:     conv.IsOwner(m.UserID),
			JoinedAt:    m.JoinedAt,
		})
		if conv.IsDirect() {
			if m.UserID != viewer {
				view.Name = m.User.Username
			}
			if m.IsBlocked {
				view.IsBlocked = true
			}
		}
	}

	if mem.IsAccepted {
		var messages []models.Message
		if err := db.Preload("Sender").
			Where("conversation_id = ?", conv.ID).
			Order("created_at ASC").
			Find(&messages).Error; err != nil {
			return nil, err
		}
		for _, msg := range messages {
			view.Messages = append(view.Messages, MessageView{
				ID:         msg.ID,
				SenderID:   msg.SenderID,
				SenderName: msg.Sender.Username,
				Content:    msg.Content,
				IsEdited:   msg.IsEdited,
				IsDeleted:  msg.IsDeleted,
				CreatedAt:  msg.CreatedAt,
				EditedAt:   msg.EditedAt,
			})
		}
	}

	return &view, nil
}

// ListConversations returns the viewer's conversations, most recently
// active first.
func (s *Service) ListConversations(ctx context.Context, viewer uuid.UUID) ([]ConversationSummary, error) {
	db := s.db.WithContext(ctx)

	var memberships []models.Membership
	if err := db.Where("user_id = ?", viewer).Find(&memberships).Error; err != nil {
		return nil, err
	}

	summaries := make([]ConversationSummary, 0, len(memberships))
	for _, mem := range memberships {
		var conv models.Conversation
		if err := db.First(&conv, "id = ?", mem.ConversationID).Error; err != nil {
			return nil, err
		}

		summary := ConversationSummary{
			ID:           conv.ID,
			Kind:         conv.Kind,
			Name:         conv.Name,
			IsPending:    !mem.IsAccepted,
			LastActivity: conv.CreatedAt,
		}

		if conv.IsDirect() {
			var other models.Membership
			err := db.Preload("User").
				Where("conversation_id = ? AND user_id != ?", conv.ID, viewer).
				First(&other).Error
			if err == nil {
				summary.Name = other.User.Username
			}
		}

		var last models.Message
		err := db.Where("conversation_id = ?", conv.ID).
			Order("created_at DESC").
			First(&last).Error
		if err == nil {
			summary.LastMessage = last.Content
			summary.LastActivity = last.CreatedAt
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].LastActivity.After(summaries[j].LastActivity)
	})
	return summaries, nil
}

// ListDiscoverable lists the publicly joinable groups with the viewer's
// standing toward each.
func (s *Service) ListDiscoverable(ctx context.Context, viewer uuid.UUID) ([]DiscoverableGroup, error) {
	db := s.db.WithContext(ctx)

	var convs []models.Conversation
	if err := db.Where("kind = ? AND is_discoverable = ?", models.ConversationGroup, true).
		Order("created_at DESC").
		Find(&convs).Error; err != nil {
		return nil, err
	}

	groups := make([]DiscoverableGroup, 0, len(convs))
	for _, conv := range convs {
		group := DiscoverableGroup{
			ID:          conv.ID,
			Name:        conv.Name,
			Description: conv.Description,
			ViewerState: "none",
		}

		if err := db.Model(&models.Membership{}).
			Where("conversation_id = ? AND is_accepted = ?", conv.ID, true).
			Count(&group.MemberCount).Error; err != nil {
			return nil, err
		}

		var mem models.Membership
		err := db.Where("conversation_id = ? AND user_id = ?", conv.ID, viewer).First(&mem).Error
		if err == nil {
			if mem.IsAccepted {
				group.ViewerState = "member"
			} else {
				group.ViewerState = "pending"
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		groups = append(groups, group)
	}
	return groups, nil
}
