// Package intent decides how a conversation turn is handled.
package intent

import (
	"github.com/agentic-hr-assistant/server/internal/agent/keywords"
	"github.com/agentic-hr-assistant/server/internal/agent/model"
)

// Classify labels a conversation. conversation is every user turn, lowercased
// and joined (see model.ConversationState.UserConversation).
//
// Rules are evaluated in a fixed order and the first match wins:
//  1. a balance phrase selects the tool, even when country and leave type are present
//  2. a known country together with a known leave type selects a policy answer
//  3. otherwise ask for clarification while retries < maxRetries
//  4. otherwise fall back to HR contact
func Classify(conversation string, retries, maxRetries int) model.Decision {
	if keywords.HasBalancePhrase(conversation) {
		return model.DecisionTool
	}

	if keywords.DetectCountry(conversation) != "" && keywords.HasLeaveType(conversation) {
		return model.DecisionAnswer
	}

	if retries < maxRetries {
		return model.DecisionAsk
	}
	return model.DecisionFallback
}

// ClassifyState applies Classify to the user turns held in s.
func ClassifyState(s model.ConversationState, maxRetries int) model.Decision {
	return Classify(s.UserConversation(), s.Retries, maxRetries)
}
