package model

import (
	"strings"

	"github.com/cloudwego/eino/schema"
)

// Decision is the intent label that selects the handler for a turn.
type Decision string

const (
	DecisionTool     Decision = "tool"
	DecisionAnswer   Decision = "answer"
	DecisionAsk      Decision = "ask"
	DecisionFallback Decision = "fallback"
)

// Decisions lists every label the classifier can produce.
var Decisions = []Decision{DecisionTool, DecisionAnswer, DecisionAsk, DecisionFallback}

func (d Decision) String() string {
	return string(d)
}

// Valid reports whether d is one of the four known labels.
func (d Decision) Valid() bool {
	switch d {
	case DecisionTool, DecisionAnswer, DecisionAsk, DecisionFallback:
		return true
	}
	return false
}

// ConversationState is the unit of work for one graph invocation.
//
// It is passed between nodes by value. Handlers never append to Messages in
// place; WithMessage copies the slice so a returned state never aliases the
// caller's history. The lifecycle is caller-managed: build it fresh or from a
// previous result, invoke the graph, feed the result into the next turn.
type ConversationState struct {
	Messages   []*schema.Message `json:"messages"`
	Decision   Decision          `json:"decision"`
	Retries    int               `json:"retries"`
	ToolResult *LeaveRecord      `json:"tool_result,omitempty"`
}

// NewConversationState starts a session from a single user question.
func NewConversationState(question string) ConversationState {
	return ConversationState{
		Messages: []*schema.Message{schema.UserMessage(question)},
	}
}

// WithMessage returns a copy of s with msg appended.
func (s ConversationState) WithMessage(msg *schema.Message) ConversationState {
	messages := make([]*schema.Message, len(s.Messages), len(s.Messages)+1)
	copy(messages, s.Messages)
	s.Messages = append(messages, msg)
	return s
}

// WithUserTurn returns a copy of s with a user message appended.
func (s ConversationState) WithUserTurn(text string) ConversationState {
	return s.WithMessage(schema.UserMessage(text))
}

// LastMessage returns the most recent message, or nil for an empty history.
func (s ConversationState) LastMessage() *schema.Message {
	if len(s.Messages) == 0 {
		return nil
	}
	return s.Messages[len(s.Messages)-1]
}

// LastContent returns the text of the most recent message.
func (s ConversationState) LastContent() string {
	if last := s.LastMessage(); last != nil {
		return last.Content
	}
	return ""
}

// UserConversation joins every user-authored turn, lowercased, with single spaces.
func (s ConversationState) UserConversation() string {
	parts := make([]string, 0, len(s.Messages))
	for _, msg := range s.Messages {
		if msg == nil || msg.Role != schema.User {
			continue
		}
		parts = append(parts, strings.ToLower(msg.Content))
	}
	return strings.Join(parts, " ")
}

// RunTrace is per-invocation graph local state.
// Concurrency model:
//   - Registered as Graph Local State via compose.WithGenLocalState, so every
//     Invoke gets its own instance.
//   - Only touched inside Eino state handlers (WithStatePreHandler /
//     compose.ProcessState), which Eino serializes.
type RunTrace struct {
	Visited []string // node keys in execution order
	Handler string   // terminal handler that ran, empty until one does
}

// HasVisited reports whether node already ran in this invocation.
func (t *RunTrace) HasVisited(node string) bool {
	for _, v := range t.Visited {
		if v == node {
			return true
		}
	}
	return false
}
