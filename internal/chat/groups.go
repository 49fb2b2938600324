package chat

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pinly/pinly-api/internal/models"
	"gorm.io/gorm"
)

// CreateGroup creates a group conversation owned by the actor. The actor
// gets an accepted, moderator-flagged membership.
func (s *Service) CreateGroup(ctx context.Context, actor uuid.UUID, req models.CreateGroupRequest) (*models.Conversation, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrInvalidArgument
	}
	if !s.isSafe(ctx, req.Name) || !s.isSafe(ctx, req.Description) {
		return nil, ErrContentRejected
	}

	owner := actor
	conv := models.Conversation{
		Kind:           models.ConversationGroup,
		Name:           req.Name,
		Description:    req.Description,
		IsDiscoverable: req.IsDiscoverable,
		OwnerID:        &owner,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&conv).Error; err != nil {
			return err
		}
		member := models.Membership{
			ConversationID: conv.ID,
			UserID:         actor,
			IsAccepted:     true,
			IsModerator:    true,
		}
		return tx.Create(&member).Error
	})
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// Join files a join request against a discoverable group and notifies the
// owning moderator and every delegated moderator.
func (s *Service) Join(ctx context.Context, actor, conversationID uuid.UUID) error {
	var jobs []pushJob

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		conv, err := conversationForUpdate(tx, conversationID)
		if err != nil {
			return err
		}
		if conv.IsDirect() || !conv.IsDiscoverable {
			return ErrForbidden
		}
		if membershipOf(conv, actor) != nil {
			return ErrConflict
		}

		member := models.Membership{
			ConversationID: conv.ID,
			UserID:         actor,
			IsAccepted:     false,
		}
		if err := tx.Create(&member).Error; err != nil {
			return err
		}

		requester, err := s.findUser(tx, actor)
		if err != nil {
			return err
		}

		for _, m := range conv.Memberships {
			if !m.IsModerator && !conv.IsOwner(m.UserID) {
				continue
			}
			notif := models.Notification{
				SenderID:       actor,
				RecipientID:    m.UserID,
				Kind:           models.NotifJoinRequest,
				Text:           "wants to join '" + conv.Name + "'",
				ConversationID: &conv.ID,
			}
			if err := tx.Create(&notif).Error; err != nil {
				return err
			}
			jobs = append(jobs, pushJob{
				recipient: m.UserID,
				title:     "Join request",
				body:      requester.Name() + " wants to join '" + conv.Name + "'",
				data:      map[string]string{"conversationId": conv.ID.String(), "type": models.NotifJoinRequest},
			})
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.dispatch(jobs)
	return nil
}

// requireModerator checks that the actor is the owning moderator or carries
// the delegated moderator flag.
func requireModerator(conv *models.Conversation, actor uuid.UUID) error {
	if conv.IsOwner(actor) {
		return nil
	}
	if m := membershipOf(conv, actor); m != nil && m.IsModerator {
		return nil
	}
	return ErrForbidden
}

// AcceptJoin turns a pending membership into an accepted one. The pending
// join-request notifications held by the moderators are consumed.
func (s *Service) AcceptJoin(ctx context.Context, actor, conversationID, target uuid.UUID) error {
	var jobs []pushJob

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		jobs, err = s.acceptJoinTx(tx, actor, conversationID, target)
		return err
	})
	if err != nil {
		return err
	}

	s.dispatch(jobs)
	return nil
}

func (s *Service) acceptJoinTx(tx *gorm.DB, actor, conversationID, target uuid.UUID) ([]pushJob, error) {
	conv, err := conversationForUpdate(tx, conversationID)
	if err != nil {
		return nil, err
	}
	if err := requireModerator(conv, actor); err != nil {
		return nil, err
	}

	targetMem := membershipOf(conv, target)
	if targetMem == nil {
		return nil, ErrNotFound
	}
	if targetMem.IsAccepted {
		return nil, ErrConflict
	}

	if err := tx.Model(&models.Membership{}).
		Where("id = ?", targetMem.ID).
		Update("is_accepted", true).Error; err != nil {
		return nil, err
	}

	if err := consumeJoinRequests(tx, conv.ID, target); err != nil {
		return nil, err
	}

	notif := models.Notification{
		SenderID:       actor,
		RecipientID:    target,
		Kind:           models.NotifJoinAccepted,
		Text:           "accepted your request to join '" + conv.Name + "'",
		ConversationID: &conv.ID,
	}
	if err := tx.Create(&notif).Error; err != nil {
		return nil, err
	}

	return []pushJob{{
		recipient: target,
		title:     "Request accepted",
		body:      "You are now a member of '" + conv.Name + "'",
		data:      map[string]string{"conversationId": conv.ID.String(), "type": models.NotifJoinAccepted},
	}}, nil
}

// DeclineJoin removes a pending membership. The join-request notifications
// are consumed; the requester is not told.
func (s *Service) DeclineJoin(ctx context.Context, actor, conversationID, target uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.declineJoinTx(tx, actor, conversationID, target)
	})
}

func (s *Service) declineJoinTx(tx *gorm.DB, actor, conversationID, target uuid.UUID) error {
	conv, err := conversationForUpdate(tx, conversationID)
	if err != nil {
		return err
	}
	if err := requireModerator(conv, actor); err != nil {
		return err
	}

	targetMem := membershipOf(conv, target)
	if targetMem == nil {
		return ErrNotFound
	}
	if targetMem.IsAccepted {
		return ErrConflict
	}

	if err := tx.Delete(&models.Membership{}, "id = ?", targetMem.ID).Error; err != nil {
		return err
	}
	return consumeJoinRequests(tx, conv.ID, target)
}

// consumeJoinRequests drops every moderator's copy of the join-request
// notification for one requester, so an answered request disappears from
// all inboxes at once.
func consumeJoinRequests(tx *gorm.DB, conversationID, requester uuid.UUID) error {
	return tx.Delete(&models.Notification{},
		"conversation_id = ? AND sender_id = ? AND kind = ?",
		conversationID, requester, models.NotifJoinRequest).Error
}

// AddMember adds a user (by handle) to a private group with an already
// accepted membership. Discoverable groups only gain members through the
// join/accept flow; direct conversations never gain members at all.
func (s *Service) AddMember(ctx context.Context, actor uuid.UUID, conversationID uuid.UUID, username string) error {
	var jobs []pushJob

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		conv, err := conversationForUpdate(tx, conversationID)
		if err != nil {
			return err
		}
		if conv.IsDirect() {
			return ErrInvalidArgument
		}
		if conv.IsDiscoverable {
			return ErrForbidden
		}
		if err := requireModerator(conv, actor); err != nil {
			return err
		}

		user, err := s.findUserByHandle(tx, username)
		if err != nil {
			return err
		}
		if membershipOf(conv, user.ID) != nil {
			return ErrConflict
		}

		member := models.Membership{
			ConversationID: conv.ID,
			UserID:         user.ID,
			IsAccepted:     true,
		}
		if err := tx.Create(&member).Error; err != nil {
			return err
		}

		notif := models.Notification{
			SenderID:       actor,
			RecipientID:    user.ID,
			Kind:           models.NotifAddedToGroup,
			Text:           "added you to '" + conv.Name + "'",
			ConversationID: &conv.ID,
		}
		if err := tx.Create(&notif).Error; err != nil {
			return err
		}
		jobs = append(jobs, pushJob{
			recipient: user.ID,
			title:     "Added to group",
			body:      "You were added to '" + conv.Name + "'",
			data:      map[string]string{"conversationId": conv.ID.String(), "type": models.NotifAddedToGroup},
		})
		return nil
	})
	if err != nil {
		return err
	}

	s.dispatch(jobs)
	return nil
}

// RemoveMember kicks a member. Precedence, in order: the owning moderator
// is never removable; the owner may remove anyone else; a delegated
// moderator may remove plain members only; everyone else may remove only
// themself, which is an alias for Leave.
func (s *Service) RemoveMember(ctx context.Context, actor, conversationID, target uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		conv, err := conversationForUpdate(tx, conversationID)
		if err != nil {
			return err
		}

		if actor == target {
			return leaveTx(tx, conv, actor)
		}

		targetMem := membershipOf(conv, target)
		if targetMem == nil {
			return ErrNotFound
		}
		if conv.IsOwner(target) {
			return ErrForbidden
		}

		switch {
		case conv.IsOwner(actor):
			// always allowed against non-owners
		default:
			actorMem := membershipOf(conv, actor)
			if actorMem == nil || !actorMem.IsModerator {
				return ErrForbidden
			}
			if targetMem.IsModerator {
				return ErrForbidden
			}
		}

		return tx.Delete(&models.Membership{}, "id = ?", targetMem.ID).Error
	})
}

// Leave removes the actor's own membership. The owning moderator may only
// leave a conversation they are the last member of; a conversation left
// with at most one remaining member is deleted outright.
func (s *Service) Leave(ctx context.Context, actor, conversationID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		conv, err := conversationForUpdate(tx, conversationID)
		if err != nil {
			return err
		}
		return leaveTx(tx, conv, actor)
	})
}

func leaveTx(tx *gorm.DB, conv *models.Conversation, actor uuid.UUID) error {
	mem := membershipOf(conv, actor)
	if mem == nil {
		return ErrNotFound
	}
	if conv.IsOwner(actor) && len(conv.Memberships) > 1 {
		return ErrForbidden
	}

	if err := tx.Delete(&models.Membership{}, "id = ?", mem.ID).Error; err != nil {
		return err
	}
	if len(conv.Memberships)-1 <= 1 {
		return deleteConversation(tx, conv.ID)
	}
	return nil
}

// ToggleModerator flips the delegated moderator flag on a membership. Only
// the owning moderator may delegate, and the owner's own standing cannot
// be changed.
func (s *Service) ToggleModerator(ctx context.Context, actor, conversationID, target uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		conv, err := conversationForUpdate(tx, conversationID)
		if err != nil {
			return err
		}
		if !conv.IsOwner(actor) {
			return ErrForbidden
		}
		if conv.IsOwner(target) {
			return ErrForbidden
		}

		targetMem := membershipOf(conv, target)
		if targetMem == nil {
			return ErrNotFound
		}
		return tx.Model(&models.Membership{}).
			Where("id = ?", targetMem.ID).
			Update("is_moderator", !targetMem.IsModerator).Error
	})
}

// ToggleBlock flips the actor's own block flag on a direct conversation.
// Block is stored per member but symmetric in effect: either side's flag
// stops the conversation.
func (s *Service) ToggleBlock(ctx context.Context, actor, conversationID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		conv, err := conversationForUpdate(tx, conversationID)
		if err != nil {
			return err
		}
		if !conv.IsDirect() {
			return ErrInvalidArgument
		}

		mem := membershipOf(conv, actor)
		if mem == nil {
			return ErrNotFound
		}
		return tx.Model(&models.Membership{}).
			Where("id = ?", mem.ID).
			Update("is_blocked", !mem.IsBlocked).Error
	})
}
