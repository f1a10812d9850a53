package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

// RefusalMessage is returned verbatim when the policy does not cover a question.
const RefusalMessage = "I don't know based on the available HR policy."

const passageSeparator = "\n\n"

//go:embed template/answer_prompt.txt
var answerPrompt string

// PolicyContext joins the retrieved passages in retrieval order.
func PolicyContext(docs []*schema.Document) string {
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		if d == nil {
			continue
		}
		parts = append(parts, d.Content)
	}
	return strings.Join(parts, passageSeparator)
}

// RenderAnswer renders the grounded answer prompt as a single user message.
// Rendering goes through the Eino prompt component so prompt callbacks fire.
func RenderAnswer(ctx context.Context, question string, docs []*schema.Document) ([]*schema.Message, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.UserMessage(answerPrompt),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"Refusal":  RefusalMessage,
		"Context":  PolicyContext(docs),
		"Question": question,
	})
	if err != nil {
		return nil, fmt.Errorf("answer prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return nil, fmt.Errorf("answer prompt render: empty result")
	}
	return msgs, nil
}
