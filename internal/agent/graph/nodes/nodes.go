package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	"github.com/agentic-hr-assistant/server/internal/agent/intent"
	"github.com/agentic-hr-assistant/server/internal/agent/model"
	errx "github.com/agentic-hr-assistant/server/internal/core/error"
	logx "github.com/agentic-hr-assistant/server/pkg/logger"
)

// Graph node keys.
const (
	NodeDecision = "decision"
	NodeAsk      = "ask"
	NodeAnswer   = "answer"
	NodeTool     = "tool"
	NodeFallback = "fallback"
)

// HandlerNodes lists the terminal handler nodes the decision branch can select.
var HandlerNodes = []string{NodeTool, NodeAnswer, NodeAsk, NodeFallback}

// HandlerFor maps a decision label to its handler node.
func HandlerFor(d model.Decision) (string, error) {
	switch d {
	case model.DecisionTool:
		return NodeTool, nil
	case model.DecisionAnswer:
		return NodeAnswer, nil
	case model.DecisionAsk:
		return NodeAsk, nil
	case model.DecisionFallback:
		return NodeFallback, nil
	default:
		return "", fmt.Errorf("%w: %q", errx.ErrUnknownDecision, d)
	}
}

func isHandler(node string) bool {
	for _, h := range HandlerNodes {
		if h == node {
			return true
		}
	}
	return false
}

// NewDecisionNode labels the incoming state. The history is not modified.
func NewDecisionNode(maxRetries int) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.ConversationState) (model.ConversationState, error) {
		in.Decision = intent.ClassifyState(in, maxRetries)
		logx.Debug().
			Str("node", NodeDecision).
			Str("decision", in.Decision.String()).
			Int("retries", in.Retries).
			Int("max_retries", maxRetries).
			Msg("Turn classified")
		return in, nil
	})
}

// NewDecisionCondition routes to the handler selected by the decision node.
func NewDecisionCondition() func(context.Context, model.ConversationState) (string, error) {
	return func(ctx context.Context, in model.ConversationState) (string, error) {
		node, err := HandlerFor(in.Decision)
		if err != nil {
			logx.Error().Err(err).Str("decision", in.Decision.String()).Msg("No handler for decision")
			return "", err
		}
		return node, nil
	}
}

// NewTracePreHandler records node in the run trace. It fails the invocation
// when a node would run twice or when a second handler would run.
func NewTracePreHandler(node string) func(context.Context, model.ConversationState, *model.RunTrace) (model.ConversationState, error) {
	return func(ctx context.Context, in model.ConversationState, trace *model.RunTrace) (model.ConversationState, error) {
		if trace.HasVisited(node) {
			return in, fmt.Errorf("node %s already ran in this invocation", node)
		}
		if isHandler(node) {
			if trace.Handler != "" {
				return in, fmt.Errorf("handler %s selected after %s already ran", node, trace.Handler)
			}
			trace.Handler = node
		}
		trace.Visited = append(trace.Visited, node)
		return in, nil
	}
}
