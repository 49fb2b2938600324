package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pinly/pinly-api/internal/models"
	"gorm.io/gorm"
)

// SendMessage stores a message from an accepted member and fans a
// notification out to every other accepted member. On a direct
// conversation a block flag on either side stops the send.
func (s *Service) SendMessage(ctx context.Context, actor, conversationID uuid.UUID, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrInvalidArgument
	}
	if !s.isSafe(ctx, content) {
		return nil, ErrContentRejected
	}

	var msg models.Message
	var jobs []pushJob

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		conv, err := conversationForUpdate(tx, conversationID)
		if err != nil {
			return err
		}

		mem := membershipOf(conv, actor)
		if mem == nil || !mem.IsAccepted {
			return ErrForbidden
		}
		if conv.IsDirect() {
			for _, m := range conv.Memberships {
				if m.IsBlocked {
					return ErrForbidden
				}
			}
		}

		msg = models.Message{
			ConversationID: conv.ID,
			SenderID:       actor,
			Content:        content,
		}
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}

		sender, err := s.findUser(tx, actor)
		if err != nil {
			return err
		}

		kind := models.NotifGroupMessage
		text := "sent a message in '" + conv.Name + "'"
		if conv.IsDirect() {
			kind = models.NotifDirectMessage
			text = "sent you a message"
		}
		for _, m := range conv.Memberships {
			if m.UserID == actor || !m.IsAccepted {
				continue
			}
			notif := models.Notification{
				SenderID:       actor,
				RecipientID:    m.UserID,
				Kind:           kind,
				Text:           text,
				ConversationID: &conv.ID,
			}
			if err := tx.Create(&notif).Error; err != nil {
				return err
			}
			jobs = append(jobs, pushJob{
				recipient: m.UserID,
				title:     sender.Name(),
				body:      content,
				data:      map[string]string{"conversationId": conv.ID.String(), "type": kind},
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatch(jobs)
	return &msg, nil
}

// EditMessage replaces the content of the actor's own message. The new
// content passes the safety gate; the creation timestamp stays put so the
// conversation does not reorder.
func (s *Service) EditMessage(ctx context.Context, actor, messageID uuid.UUID, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrInvalidArgument
	}
	if !s.isSafe(ctx, content) {
		return nil, ErrContentRejected
	}

	var msg models.Message
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&msg, "id = ?", messageID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if msg.SenderID != actor {
			return ErrForbidden
		}
		if msg.IsDeleted {
			return ErrConflict
		}

		now := time.Now()
		msg.Content = content
		msg.IsEdited = true
		msg.EditedAt = &now
		return tx.Model(&models.Message{}).Where("id = ?", msg.ID).Updates(map[string]interface{}{
			"content":   msg.Content,
			"is_edited": true,
			"edited_at": now,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// DeleteMessage tombstones the actor's own message. The row survives for
// ordering and audit; the content does not.
func (s *Service) DeleteMessage(ctx context.Context, actor, messageID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var msg models.Message
		if err := tx.First(&msg, "id = ?", messageID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if msg.SenderID != actor {
			return ErrForbidden
		}
		if msg.IsDeleted {
			return nil
		}

		return tx.Model(&models.Message{}).Where("id = ?", msg.ID).Updates(map[string]interface{}{
			"content":    models.MessageTombstone,
			"is_deleted": true,
		}).Error
	})
}
