package chat

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hotelbooking/internal/domain"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// Service handles support chat business logic
type Service struct {
	repo Repository
	log  *zap.Logger
	now  func() time.Time
}

func NewService(repo Repository, log *zap.Logger) *Service {
	return &Service{repo: repo, log: log, now: time.Now}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Open starts a conversation owned by the caller, optionally with a first message.
func (s *Service) Open(ctx context.Context, p domain.Principal, subject, content string) (*Conversation, error) {
	subject = strings.TrimSpace(subject)
	if n := utf8.RuneCountInString(subject); n == 0 || n > MaxSubjectLength {
		return nil, ErrInvalidSubject
	}

	now := s.now().UTC()
	conv := &Conversation{
		UserID:    p.UserID,
		Subject:   subject,
		Status:    StatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var first *Message
	if strings.TrimSpace(content) != "" {
		msg, err := s.newMessage(p.UserID, content, now)
		if err != nil {
			return nil, err
		}
		first = msg
	}

	if err := s.repo.CreateConversation(ctx, conv, first); err != nil {
		return nil, err
	}
	s.log.Info("support conversation opened",
		zap.String("conversation_id", conv.ID.String()),
		zap.Int64("user_id", p.UserID))
	return conv, nil
}

// List returns the caller's conversations. Admins see all of them, or a single
// user's when userID is set.
func (s *Service) List(ctx context.Context, p domain.Principal, userID *int64, status ConversationStatus, limit, offset int) ([]Conversation, int64, error) {
	f := ListFilter{Status: status, Limit: clampLimit(limit), Offset: max(offset, 0)}
	switch {
	case !p.IsAdmin():
		uid := p.UserID
		f.UserID = &uid
	case userID != nil:
		f.UserID = userID
	}
	return s.repo.ListConversations(ctx, f)
}

func (s *Service) Get(ctx context.Context, p domain.Principal, id uuid.UUID) (*Conversation, error) {
	conv, err := s.repo.GetConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && conv.UserID != p.UserID {
		return nil, ErrForbidden
	}
	return conv, nil
}

func (s *Service) PostMessage(ctx context.Context, p domain.Principal, id uuid.UUID, content string) (*Message, error) {
	conv, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if conv.Status == StatusClosed {
		return nil, ErrConversationClosed
	}

	msg, err := s.newMessage(p.UserID, content, s.now().UTC())
	if err != nil {
		return nil, err
	}
	msg.ConversationID = conv.ID
	if err := s.repo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// Messages returns a page of messages, oldest first.
func (s *Service) Messages(ctx context.Context, p domain.Principal, id uuid.UUID, limit, offset int) ([]Message, error) {
	if _, err := s.Get(ctx, p, id); err != nil {
		return nil, err
	}
	return s.repo.ListMessages(ctx, id, clampLimit(limit), max(offset, 0))
}

// Close is reserved to admins.
func (s *Service) Close(ctx context.Context, p domain.Principal, id uuid.UUID) (*Conversation, error) {
	if !p.IsAdmin() {
		return nil, ErrForbidden
	}
	if _, err := s.repo.GetConversation(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.CloseConversation(ctx, id, s.now().UTC()); err != nil {
		return nil, err
	}
	s.log.Info("support conversation closed",
		zap.String("conversation_id", id.String()),
		zap.Int64("admin_id", p.UserID))
	return s.repo.GetConversation(ctx, id)
}

func (s *Service) newMessage(senderID int64, content string, at time.Time) (*Message, error) {
	content = strings.TrimSpace(content)
	if n := utf8.RuneCountInString(content); n == 0 || n > MaxContentLength {
		return nil, ErrInvalidContent
	}
	return &Message{SenderID: senderID, Content: content, CreatedAt: at}, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultPageSize
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}
