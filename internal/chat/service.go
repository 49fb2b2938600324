// Package chat implements the conversation subsystem: the membership state
// machine for groups and direct conversations, message lifecycle, and the
// notification fan-out those actions produce. Every operation takes the
// acting user explicitly and runs as a single database transaction; the
// safety gate is consulted before any transaction opens.
package chat

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pinly/pinly-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SafetyGate vets user-authored text before it is stored.
type SafetyGate interface {
	IsSafe(ctx context.Context, text string) bool
}

// Pusher mirrors stored notifications to a best-effort push channel.
type Pusher interface {
	SendToUser(userID uuid.UUID, title, body string, data map[string]string)
}

type Service struct {
	db   *gorm.DB
	gate SafetyGate
	push Pusher
}

// New builds a Service. gate and push may be nil: a nil gate allows all
// content (moderation availability is never a prerequisite for posting),
// a nil push disables the push mirror.
func New(db *gorm.DB, gate SafetyGate, push Pusher) *Service {
	return &Service{db: db, gate: gate, push: push}
}

func (s *Service) isSafe(ctx context.Context, text string) bool {
	if s.gate == nil {
		return true
	}
	return s.gate.IsSafe(ctx, text)
}

// conversationForUpdate loads a conversation with its memberships, holding
// a row lock for the rest of the transaction so concurrent membership and
// message mutations on the same conversation serialize. SQLite has a single
// writer, so the clause is only emitted on postgres.
func conversationForUpdate(tx *gorm.DB, id uuid.UUID) (*models.Conversation, error) {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var conv models.Conversation
	if err := q.First(&conv, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := tx.Find(&conv.Memberships, "conversation_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

// membershipOf returns the loaded membership row for userID, or nil.
func membershipOf(conv *models.Conversation, userID uuid.UUID) *models.Membership {
	for i := range conv.Memberships {
		if conv.Memberships[i].UserID == userID {
			return &conv.Memberships[i]
		}
	}
	return nil
}

// deleteConversation removes the conversation and everything hanging off
// it in the current transaction.
func deleteConversation(tx *gorm.DB, id uuid.UUID) error {
	if err := tx.Delete(&models.Membership{}, "conversation_id = ?", id).Error; err != nil {
		return err
	}
	if err := tx.Delete(&models.Message{}, "conversation_id = ?", id).Error; err != nil {
		return err
	}
	if err := tx.Delete(&models.Notification{}, "conversation_id = ?", id).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Conversation{}, "id = ?", id).Error
}

// pushJob is a pending push mirror of a notification row. Jobs are
// collected while the transaction is open and dispatched only after it
// commits, so a rolled-back action never pushes.
type pushJob struct {
	recipient uuid.UUID
	title     string
	body      string
	data      map[string]string
}

func (s *Service) dispatch(jobs []pushJob) {
	if s.push == nil {
		return
	}
	for _, j := range jobs {
		go s.push.SendToUser(j.recipient, j.title, j.body, j.data)
	}
}

func (s *Service) findUser(tx *gorm.DB, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := tx.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// findUserByHandle resolves a username to a user, as the add-member flow
// addresses targets by handle.
func (s *Service) findUserByHandle(tx *gorm.DB, username string) (*models.User, error) {
	var user models.User
	if err := tx.First(&user, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}
