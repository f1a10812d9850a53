package nodes

import (
	"github.com/cloudwego/eino/schema"

	"github.com/agentic-hr-assistant/server/internal/agent/model"
	logx "github.com/agentic-hr-assistant/server/pkg/logger"
)

// reply appends an assistant message with the given text.
func reply(s model.ConversationState, text string) model.ConversationState {
	return s.WithMessage(schema.AssistantMessage(text, nil))
}

// logUsage logs token usage and cost when the provider reported it.
func logUsage(node, modelName string, msg *schema.Message) {
	cost, ok := model.UsageCostOf(msg, modelName)
	if !ok {
		return
	}
	logx.Debug().
		Str("node", node).
		Str("model", cost.Model).
		Int("prompt_tokens", cost.PromptTokens).
		Int("completion_tokens", cost.CompletionTokens).
		Int("total_tokens", cost.TotalTokens).
		Float64("input_cost_usd", cost.InputCostUSD).
		Float64("output_cost_usd", cost.OutputCostUSD).
		Float64("total_cost_usd", cost.TotalCostUSD).
		Msg("LLM usage")
}
