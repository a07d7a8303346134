// Package history persists mail conversations and replays them as chat turns.
package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/deepgram/courier/internal/models"
	"github.com/deepgram/courier/internal/services/chat"
	"gorm.io/gorm"
)

// Store reads and writes conversations keyed by correspondent address.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

func NewStore(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("history: db is required")
	}
	return &Store{db: db, now: time.Now}, nil
}

func normalizeAddress(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GetOrCreateConversation returns the conversation id for email, creating
// the conversation on first contact.
func (s *Store) GetOrCreateConversation(ctx context.Context, email string) (uint, error) {
	email = normalizeAddress(email)
	if email == "" {
		return 0, fmt.Errorf("history: email address is required")
	}

	var conv models.Conversation
	err := s.db.WithContext(ctx).
		Where(models.Conversation{EmailAddress: email}).
		FirstOrCreate(&conv).Error
	if err != nil {
		return 0, fmt.Errorf("history: get or create conversation for %s: %w", email, err)
	}
	return conv.ID, nil
}

// AddMessage stores one turn and touches the conversation's UpdatedAt.
func (s *Store) AddMessage(ctx context.Context, conversationID uint, isUser bool, content string) (uint, error) {
	msg := models.Message{
		ConversationID: conversationID,
		IsUser:         isUser,
		Content:        content,
		Timestamp:      s.now(),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}
		return tx.Model(&models.Conversation{}).
			Where("id = ?", conversationID).
			Update("updated_at", msg.Timestamp).Error
	})
	if err != nil {
		return 0, fmt.Errorf("history: add message to conversation %d: %w", conversationID, err)
	}
	return msg.ID, nil
}

// History returns the last limit turns exchanged with email, oldest first.
// An unknown address has an empty history.
func (s *Store) History(ctx context.Context, email string, limit int) ([]chat.Turn, error) {
	if limit <= 0 {
		return []chat.Turn{}, nil
	}

	var msgs []models.Message
	err := s.db.WithContext(ctx).
		Joins("JOIN conversations ON conversations.id = messages.conversation_id").
		Where("conversations.email_address = ?", normalizeAddress(email)).
		Order("messages.timestamp DESC").
		Order("messages.id DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("history: load history for %s: %w", email, err)
	}

	turns := make([]chat.Turn, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		role := "assistant"
		if msgs[i].IsUser {
			role = "user"
		}
		turns = append(turns, chat.Turn{Role: role, Content: msgs[i].Content})
	}
	return turns, nil
}

// UserName returns the stored display name for email, or "" when none is known.
func (s *Store) UserName(ctx context.Context, email string) (string, error) {
	var conv models.Conversation
	err := s.db.WithContext(ctx).Where("email_address = ?", normalizeAddress(email)).First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("history: load user name for %s: %w", email, err)
	}
	return conv.UserName, nil
}

// SetUserName records the display name for an existing conversation.
func (s *Store) SetUserName(ctx context.Context, email, name string) error {
	res := s.db.WithContext(ctx).
		Model(&models.Conversation{}).
		Where("email_address = ?", normalizeAddress(email)).
		Update("user_name", name)
	if res.Error != nil {
		return fmt.Errorf("history: set user name for %s: %w", email, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("history: no conversation for %s", email)
	}
	return nil
}
