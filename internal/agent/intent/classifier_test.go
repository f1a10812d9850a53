package intent

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"

	"github.com/agentic-hr-assistant/server/internal/agent/model"
)

const maxRetries = 2

func TestClassify_BalancePhraseWins(t *testing.T) {
	inputs := []string{
		"check my leave balance",
		"what is my remaining leave",
		"leave balance for annual leave in india",
		"netherlands sick remaining leave",
	}
	for _, in := range inputs {
		for retries := 0; retries <= maxRetries+1; retries++ {
			assert.Equal(t, model.DecisionTool, Classify(in, retries, maxRetries), in)
		}
	}
}

func TestClassify_CountryAndLeaveTypeAnswers(t *testing.T) {
	inputs := []string{
		"what is the annual leave policy in india?",
		"sick leave netherlands",
		"dutch annual holidays",
		"indian sick days",
	}
	for _, in := range inputs {
		for retries := 0; retries <= maxRetries+1; retries++ {
			assert.Equal(t, model.DecisionAnswer, Classify(in, retries, maxRetries), in)
		}
	}
}

func TestClassify_AskThenFallback(t *testing.T) {
	inputs := []string{
		"tell me about leave",
		"annual leave",           // leave type without country
		"india",                  // country without leave type
		"annual leave in france", // unknown country
	}
	for _, in := range inputs {
		assert.Equal(t, model.DecisionAsk, Classify(in, 0, maxRetries), in)
		assert.Equal(t, model.DecisionAsk, Classify(in, 1, maxRetries), in)
		assert.Equal(t, model.DecisionFallback, Classify(in, 2, maxRetries), in)
		assert.Equal(t, model.DecisionFallback, Classify(in, 5, maxRetries), in)
	}
}

func TestClassify_ZeroMaxRetriesFallsBackImmediately(t *testing.T) {
	assert.Equal(t, model.DecisionFallback, Classify("hello", 0, 0))
}

func TestClassifyState_UsesWholeUserHistory(t *testing.T) {
	s := model.ConversationState{
		Messages: []*schema.Message{
			schema.UserMessage("I work in India"),
			schema.AssistantMessage("I still need the leave type", nil),
			schema.UserMessage("Annual"),
		},
		Retries: 1,
	}
	assert.Equal(t, model.DecisionAnswer, ClassifyState(s, maxRetries))
}

func TestClassifyState_IgnoresAssistantTurns(t *testing.T) {
	s := model.ConversationState{
		Messages: []*schema.Message{
			schema.AssistantMessage("What is your leave balance question about India annual leave?", nil),
			schema.UserMessage("hmm"),
		},
	}
	assert.Equal(t, model.DecisionAsk, ClassifyState(s, maxRetries))
}
