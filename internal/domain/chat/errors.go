package chat

import "errors"

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrConversationClosed   = errors.New("conversation is closed")
	ErrForbidden            = errors.New("not a participant of this conversation")
	ErrInvalidContent       = errors.New("message content must be 1 to 2000 characters")
	ErrInvalidSubject       = errors.New("subject must be 1 to 200 characters")
)
