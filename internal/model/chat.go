// Package model defines the domain types shared across the service.
package model

import (
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// MessageMetadata carries optional client-supplied metadata on a message.
type MessageMetadata struct {
	WalletAddress string `json:"walletAddress,omitempty"`
}

// ChatMessage is one message of a conversation. A conversation is an
// ordered slice of these; it is never mutated after it has been sent to
// the inference backend.
type ChatMessage struct {
	Role     Role             `json:"role"`
	Content  string           `json:"content"`
	Metadata *MessageMetadata `json:"metadata,omitempty"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
}

// QuoteDraft is a finalized assistant message produced by the quote
// stream generator.
type QuoteDraft struct {
	ID                   string    `json:"id"`
	Text                 string    `json:"text"`
	SourceConversationID string    `json:"source_conversation_id,omitempty"`
	Model                string    `json:"model,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
}

// TokenEvent is a streaming token SSE payload.
type TokenEvent struct {
	Token string `json:"token"`
	Index int    `json:"index"`
}

// QuoteCompleteEvent closes a chat stream with the finalized quote.
type QuoteCompleteEvent struct {
	Quote QuoteDraft `json:"quote"`
}

// ErrorEvent is an error SSE payload.
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
