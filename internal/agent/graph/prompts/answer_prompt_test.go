package prompts

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyContext(t *testing.T) {
	docs := []*schema.Document{
		{ID: "a", Content: "Annual leave in India is 18 days."},
		nil,
		{ID: "b", Content: "Sick leave in India is 12 days."},
	}
	assert.Equal(t, "Annual leave in India is 18 days.\n\nSick leave in India is 12 days.", PolicyContext(docs))
	assert.Empty(t, PolicyContext(nil))
}

func TestRenderAnswer(t *testing.T) {
	docs := []*schema.Document{{ID: "a", Content: "Annual leave in India is 18 days."}}

	msgs, err := RenderAnswer(context.Background(), "annual leave in india?", docs)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	msg := msgs[0]
	assert.Equal(t, schema.User, msg.Role)
	assert.Contains(t, msg.Content, "Answer ONLY using the HR policy below.")
	assert.Contains(t, msg.Content, `"I don't know based on the available HR policy."`)
	assert.Contains(t, msg.Content, "HR Policy:\nAnnual leave in India is 18 days.\n\nQuestion:\nannual leave in india?")
}

func TestRenderAnswer_QuestionIsNotTemplated(t *testing.T) {
	msgs, err := RenderAnswer(context.Background(), "what about {{.Refusal}}?", nil)
	require.NoError(t, err)
	assert.Contains(t, msgs[0].Content, "Question:\nwhat about {{.Refusal}}?")
}
