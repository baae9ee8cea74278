package chat

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository handles all DB operations for support conversations
type Repository interface {
	CreateConversation(ctx context.Context, conv *Conversation, first *Message) error
	GetConversation(ctx context.Context, id uuid.UUID) (*Conversation, error)
	ListConversations(ctx context.Context, f ListFilter) ([]Conversation, int64, error)
	CloseConversation(ctx context.Context, id uuid.UUID, at time.Time) error

	CreateMessage(ctx context.Context, msg *Message) error
	ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]Message, error)
}

// ListFilter narrows a conversation listing. A nil UserID lists everyone's.
type ListFilter struct {
	UserID *int64
	Status ConversationStatus
	Limit  int
	Offset int
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateConversation(ctx context.Context, conv *Conversation, first *Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Messages").Create(conv).Error; err != nil {
			return err
		}
		if first == nil {
			return nil
		}
		first.ConversationID = conv.ID
		if err := tx.Create(first).Error; err != nil {
			return err
		}
		conv.LastMessageAt = &first.CreatedAt
		return tx.Model(conv).Update("last_message_at", first.CreatedAt).Error
	})
}

func (r *repository) GetConversation(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	var conv Conversation
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *repository) ListConversations(ctx context.Context, f ListFilter) ([]Conversation, int64, error) {
	q := r.db.WithContext(ctx).Model(&Conversation{})
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	out := make([]Conversation, 0)
	err := q.Order("COALESCE(last_message_at, created_at) DESC").
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&out).Error
	return out, total, err
}

func (r *repository) CloseConversation(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&Conversation{}).
		Where("id = ? AND status = ?", id, StatusOpen).
		Updates(map[string]any{"status": StatusClosed, "closed_at": at, "updated_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConversationClosed
	}
	return nil
}

// CreateMessage stores the message and bumps the conversation activity time.
// Closed conversations reject new messages inside the same transaction.
func (r *repository) CreateMessage(ctx context.Context, msg *Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Conversation{}).
			Where("id = ? AND status = ?", msg.ConversationID, StatusOpen).
			Updates(map[string]any{"last_message_at": msg.CreatedAt, "updated_at": msg.CreatedAt})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConversationClosed
		}
		return tx.Create(msg).Error
	})
}

func (r *repository) ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]Message, error) {
	out := make([]Message, 0)
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	return out, err
}
