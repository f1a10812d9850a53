package model

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

type ConversationRepository interface {
	// AddMessages appends the messages of one turn and stores the retry counter.
	// Either everything is stored or nothing is.
	AddMessages(ctx context.Context, conversationID string, messages []*schema.Message, retries int) error

	// LoadHistory retrieves the conversation history and retry counter for a conversation
	LoadHistory(ctx context.Context, conversationID string) (*ConversationHistory, error)

	// ClearHistory removes all conversation history for a conversation
	ClearHistory(ctx context.Context, conversationID string) error

	// GetMessageCount returns the number of messages in the conversation
	GetMessageCount(ctx context.Context, conversationID string) (int, error)
}

// ConversationHistory represents loaded conversation data with metadata.
type ConversationHistory struct {
	ConversationID string
	Messages       []*schema.Message
	Retries        int
}

// State rebuilds the graph input for the next turn of this conversation.
func (h *ConversationHistory) State() ConversationState {
	messages := make([]*schema.Message, len(h.Messages))
	copy(messages, h.Messages)
	return ConversationState{Messages: messages, Retries: h.Retries}
}
