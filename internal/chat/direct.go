package chat

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pinly/pinly-api/internal/models"
	"gorm.io/gorm"
)

// CreateDirect finds or creates the direct conversation between actor and
// target. Calling it twice for the same unordered pair returns the same
// conversation. If the actor's side of an existing pair is missing (they
// left and came back) the membership is recreated.
func (s *Service) CreateDirect(ctx context.Context, actor, target uuid.UUID) (*models.Conversation, error) {
	if actor == target {
		return nil, ErrInvalidArgument
	}

	var conv *models.Conversation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.findUser(tx, target); err != nil {
			return err
		}

		existing, err := findDirect(tx, actor, target)
		if err != nil {
			return err
		}
		if existing != nil {
			conv = existing
			if membershipOf(existing, actor) == nil {
				member := models.Membership{
					ConversationID: existing.ID,
					UserID:         actor,
					IsAccepted:     true,
				}
				return tx.Create(&member).Error
			}
			return nil
		}

		created := models.Conversation{Kind: models.ConversationDirect}
		if err := tx.Create(&created).Error; err != nil {
			return err
		}
		for _, id := range []uuid.UUID{actor, target} {
			member := models.Membership{
				ConversationID: created.ID,
				UserID:         id,
				IsAccepted:     true,
			}
			if err := tx.Create(&member).Error; err != nil {
				return err
			}
		}
		conv = &created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// findDirect looks up the direct conversation containing both users, nil
// when there is none.
func findDirect(tx *gorm.DB, a, b uuid.UUID) (*models.Conversation, error) {
	var conv models.Conversation
	err := tx.
		Joins("JOIN memberships m1 ON m1.conversation_id = conversations.id AND m1.user_id = ?", a).
		Joins("JOIN memberships m2 ON m2.conversation_id = conversations.id AND m2.user_id = ?", b).
		Where("conversations.kind = ?", models.ConversationDirect).
		First(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if err := tx.Find(&conv.Memberships, "conversation_id = ?", conv.ID).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}
