// Package conversations runs agent turns against persisted conversation history.
package conversations

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/agentic-hr-assistant/server/internal/agent/graph"
	"github.com/agentic-hr-assistant/server/internal/agent/model"
	errx "github.com/agentic-hr-assistant/server/internal/core/error"
	logx "github.com/agentic-hr-assistant/server/pkg/logger"
)

// Turn is the outcome of one question in a conversation.
type Turn struct {
	ConversationID string
	Reply          string
	Decision       model.Decision
	Retries        int
	// Terminal is set when the assistant handed the employee over to HR.
	// The stored conversation is cleared so the next question starts fresh.
	Terminal bool
}

// SessionManager carries the conversation state between turns.
type SessionManager struct {
	conversationRepo model.ConversationRepository
	runner           graph.Runner
}

func NewSessionManager(conversationRepo model.ConversationRepository, runner graph.Runner) *SessionManager {
	return &SessionManager{conversationRepo: conversationRepo, runner: runner}
}

// Ask appends question to the conversation, runs one agent turn and stores
// the new messages and retry counter. An empty conversationID starts a new
// conversation with a generated identifier.
func (sm *SessionManager) Ask(ctx context.Context, conversationID, question string) (*Turn, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, errx.InvalidState("question is empty")
	}
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	history, err := sm.conversationRepo.LoadHistory(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("load conversation %s: %w", conversationID, err)
	}

	in := history.State().WithUserTurn(question)
	out, err := sm.runner.Invoke(ctx, in)
	if err != nil {
		return nil, err
	}

	turn := &Turn{
		ConversationID: conversationID,
		Reply:          out.LastContent(),
		Decision:       out.Decision,
		Retries:        out.Retries,
		Terminal:       out.Decision == model.DecisionFallback,
	}

	if turn.Terminal {
		if err := sm.conversationRepo.ClearHistory(ctx, conversationID); err != nil {
			return nil, fmt.Errorf("clear conversation %s: %w", conversationID, err)
		}
		logx.Info().Str("conversation_id", conversationID).Msg("Conversation handed over to HR")
		return turn, nil
	}

	added := out.Messages[len(history.Messages):]
	if err := sm.conversationRepo.AddMessages(ctx, conversationID, added, out.Retries); err != nil {
		return nil, fmt.Errorf("save turn for %s: %w", conversationID, err)
	}

	logx.Debug().
		Str("conversation_id", conversationID).
		Str("decision", out.Decision.String()).
		Int("retries", out.Retries).
		Int("messages", len(out.Messages)).
		Msg("Conversation turn stored")
	return turn, nil
}

// Reset forgets a conversation and returns how many messages it held.
// Unknown or expired conversations yield errx.ErrNotFound.
func (sm *SessionManager) Reset(ctx context.Context, conversationID string) (int, error) {
	n, err := sm.conversationRepo.GetMessageCount(ctx, conversationID)
	if err != nil {
		return 0, fmt.Errorf("count messages for %s: %w", conversationID, err)
	}
	if n == 0 {
		return 0, errx.NotFound("conversation " + conversationID)
	}
	if err := sm.conversationRepo.ClearHistory(ctx, conversationID); err != nil {
		return 0, fmt.Errorf("clear conversation %s: %w", conversationID, err)
	}
	logx.Info().Str("conversation_id", conversationID).Int("messages", n).Msg("Conversation reset")
	return n, nil
}
