package nodes

import (
	"context"

	"github.com/cloudwego/eino/compose"

	"github.com/agentic-hr-assistant/server/internal/agent/model"
	logx "github.com/agentic-hr-assistant/server/pkg/logger"
)

// ClarificationMessage asks the employee for the missing country and leave type.
const ClarificationMessage = "I still need the country (India / Netherlands) and leave type (annual / sick) to help you."

// AskFollowup appends the clarification request and spends one retry.
func AskFollowup(in model.ConversationState) model.ConversationState {
	out := reply(in, ClarificationMessage)
	out.Retries++
	return out
}

func NewAskNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.ConversationState) (model.ConversationState, error) {
		out := AskFollowup(in)
		logx.Debug().Str("node", NodeAsk).Int("retries", out.Retries).Msg("Clarification requested")
		return out, nil
	})
}
