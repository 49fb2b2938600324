package chat

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pinly/pinly-api/internal/models"
	"gorm.io/gorm"
)

type NotificationView struct {
	ID             uuid.UUID  `json:"id"`
	Kind           string     `json:"kind"`
	Text           string     `json:"text"`
	SenderID       uuid.UUID  `json:"senderId"`
	SenderName     string     `json:"senderName"`
	SenderAvatar   string     `json:"senderAvatar"`
	ConversationID *uuid.UUID `json:"conversationId,omitempty"`
	PinID          *uuid.UUID `json:"pinId,omitempty"`
	IsRead         bool       `json:"isRead"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// ListNotifications returns the recipient's latest notifications plus the
// unread count. limit defaults to 20, capped at 50.
func (s *Service) ListNotifications(ctx context.Context, recipient uuid.UUID, limit int) ([]NotificationView, int64, error) {
	if limit < 1 || limit > 50 {
		limit = 20
	}
	db := s.db.WithContext(ctx)

	var notifications []models.Notification
	if err := db.Preload("Sender").
		Where("recipient_id = ?", recipient).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error; err != nil {
		return nil, 0, err
	}

	var unread int64
	if err := db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipient, false).
		Count(&unread).Error; err != nil {
		return nil, 0, err
	}

	views := make([]NotificationView, 0, len(notifications))
	for _, n := range notifications {
		views = append(views, NotificationView{
			ID:             n.ID,
			Kind:           n.Kind,
			Text:           n.Text,
			SenderID:       n.SenderID,
			SenderName:     n.Sender.Username,
			SenderAvatar:   n.Sender.AvatarURL,
			ConversationID: n.ConversationID,
			PinID:          n.PinID,
			IsRead:         n.IsRead,
			CreatedAt:      n.CreatedAt,
		})
	}
	return views, unread, nil
}

// MarkRead flips one of the recipient's notifications to read.
func (s *Service) MarkRead(ctx context.Context, recipient, notificationID uuid.UUID) error {
	result := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", notificationID, recipient).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllRead flips every unread notification of the recipient.
func (s *Service) MarkAllRead(ctx context.Context, recipient uuid.UUID) error {
	return s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipient, false).
		Update("is_read", true).Error
}

// Notify appends a single notification row and mirrors it to push. The
// routine social handlers (follows, pins) go through this; conversation
// operations fan out inside their own transactions instead.
func (s *Service) Notify(ctx context.Context, notif *models.Notification, title, body string) error {
	if err := s.db.WithContext(ctx).Create(notif).Error; err != nil {
		return err
	}
	s.dispatch([]pushJob{{
		recipient: notif.RecipientID,
		title:     title,
		body:      body,
		data:      map[string]string{"type": notif.Kind},
	}})
	return nil
}

// RespondToRequest answers a consumable notification (join or follow
// request) and removes it. Join responses run through the same moderator
// authorization as a direct accept/decline would.
func (s *Service) RespondToRequest(ctx context.Context, recipient, notificationID uuid.UUID, accept bool) error {
	var jobs []pushJob

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var notif models.Notification
		if err := tx.First(&notif, "id = ? AND recipient_id = ?", notificationID, recipient).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !notif.IsConsumable() {
			return ErrInvalidArgument
		}

		switch notif.Kind {
		case models.NotifJoinRequest:
			if notif.ConversationID == nil {
				return ErrInvalidArgument
			}
			if accept {
				accepted, err := s.acceptJoinTx(tx, recipient, *notif.ConversationID, notif.SenderID)
				if err != nil {
					return err
				}
				jobs = accepted
			} else if err := s.declineJoinTx(tx, recipient, *notif.ConversationID, notif.SenderID); err != nil {
				return err
			}

		case models.NotifFollowRequest:
			var follow models.Follow
			err := tx.First(&follow, "follower_id = ? AND followee_id = ?", notif.SenderID, recipient).Error
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if err == nil {
				if accept {
					if err := tx.Model(&models.Follow{}).
						Where("id = ?", follow.ID).
						Update("is_accepted", true).Error; err != nil {
						return err
					}
				} else if err := tx.Delete(&models.Follow{}, "id = ?", follow.ID).Error; err != nil {
					return err
				}
			}
		}

		// Consumed either way. The join path already dropped every
		// moderator's copy; deleting by id is a no-op then.
		return tx.Delete(&models.Notification{}, "id = ?", notif.ID).Error
	})
	if err != nil {
		return err
	}

	s.dispatch(jobs)
	return nil
}
