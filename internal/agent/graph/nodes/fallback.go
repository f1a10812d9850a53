package nodes

import (
	"context"

	"github.com/cloudwego/eino/compose"

	"github.com/agentic-hr-assistant/server/internal/agent/model"
	logx "github.com/agentic-hr-assistant/server/pkg/logger"
)

// FallbackMessage ends the session and hands the employee over to HR.
const FallbackMessage = "I’m unable to proceed without the required details. Please contact HR for further assistance."

// Fallback appends the terminal hand-off message. Retries are left as is.
func Fallback(in model.ConversationState) model.ConversationState {
	return reply(in, FallbackMessage)
}

func NewFallbackNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.ConversationState) (model.ConversationState, error) {
		logx.Info().Str("node", NodeFallback).Int("retries", in.Retries).Msg("Retries exhausted, handing off to HR")
		return Fallback(in), nil
	})
}
