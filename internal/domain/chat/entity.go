package chat

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConversationStatus string

const (
	StatusOpen   ConversationStatus = "open"
	StatusClosed ConversationStatus = "closed"
)

const (
	MaxContentLength = 2000
	MaxSubjectLength = 200
)

// Conversation is a support thread opened by a user and answered by admins.
type Conversation struct {
	ID            uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        int64              `gorm:"not null;index" json:"user_id"`
	Subject       string             `gorm:"type:varchar(200);not null" json:"subject"`
	Status        ConversationStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	LastMessageAt *time.Time         `json:"last_message_at,omitempty"`
	ClosedAt      *time.Time         `json:"closed_at,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`

	Messages []Message `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Conversation) TableName() string { return "support_conversation" }

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type Message struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index:idx_support_message_conv_created,priority:1" json:"conversation_id"`
	SenderID       int64     `gorm:"not null;index" json:"sender_id"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	CreatedAt      time.Time `gorm:"index:idx_support_message_conv_created,priority:2" json:"created_at"`
}

func (Message) TableName() string { return "support_message" }

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func Models() []any {
	return []any{&Conversation{}, &Message{}}
}
