package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/agentic-hr-assistant/server/internal/agent/graph/prompts"
	"github.com/agentic-hr-assistant/server/internal/agent/model"
	errx "github.com/agentic-hr-assistant/server/internal/core/error"
	logx "github.com/agentic-hr-assistant/server/pkg/logger"
)

// RefusalMessage is the guardrail reply when no policy passage supports an answer.
const RefusalMessage = prompts.RefusalMessage

// AnswerConfig wires the answer handler to its retrieval and generation components.
type AnswerConfig struct {
	Retriever retriever.Retriever
	ChatModel einomodel.BaseChatModel
	ModelName string
}

func (c AnswerConfig) validate() error {
	if c.Retriever == nil {
		return fmt.Errorf("answer node: retriever is nil")
	}
	if c.ChatModel == nil {
		return fmt.Errorf("answer node: chat model is nil")
	}
	return nil
}

// NewAnswerNode answers policy questions from retrieved passages only.
func NewAnswerNode(cfg AnswerConfig) (*compose.Lambda, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return compose.InvokableLambda(func(ctx context.Context, in model.ConversationState) (model.ConversationState, error) {
		return Answer(ctx, cfg, in)
	}), nil
}

// Answer retrieves passages for the latest message and asks the model to
// answer from them. With nothing retrieved it refuses without calling the model.
func Answer(ctx context.Context, cfg AnswerConfig, in model.ConversationState) (model.ConversationState, error) {
	question := in.LastContent()

	rctx := callbacks.ReuseHandlers(ctx, &callbacks.RunInfo{
		Name:      "policy_retriever",
		Type:      "PolicyRetriever",
		Component: components.ComponentOfRetriever,
	})
	docs, err := cfg.Retriever.Retrieve(rctx, question)
	if err != nil {
		logx.Error().Err(err).Str("node", NodeAnswer).Msg("Policy retrieval failed")
		return in, errx.WrapUpstream(fmt.Errorf("retrieve policy passages: %w", err))
	}

	if len(docs) == 0 {
		logx.Info().Str("node", NodeAnswer).Msg("No policy passages retrieved, refusing")
		return reply(in, RefusalMessage), nil
	}

	pctx := callbacks.ReuseHandlers(ctx, &callbacks.RunInfo{
		Name:      "answer_prompt",
		Type:      "DefaultChatTemplate",
		Component: components.ComponentOfPrompt,
	})
	messages, err := prompts.RenderAnswer(pctx, question, docs)
	if err != nil {
		return in, fmt.Errorf("render answer prompt: %w", err)
	}

	resp, err := generate(ctx, cfg, messages)
	if err != nil {
		logx.Error().Err(err).Str("node", NodeAnswer).Str("model", cfg.ModelName).Msg("Answer generation failed")
		return in, errx.WrapUpstream(fmt.Errorf("generate policy answer: %w", err))
	}
	logUsage(NodeAnswer, cfg.ModelName, resp)

	answer := *resp
	answer.Role = schema.Assistant
	logx.Debug().
		Str("node", NodeAnswer).
		Int("passages", len(docs)).
		Msg("Policy answer generated")
	return in.WithMessage(&answer), nil
}

// generate calls the chat model. Models that do not report their own
// callbacks get start and end events from here.
func generate(ctx context.Context, cfg AnswerConfig, messages []*schema.Message) (resp *schema.Message, err error) {
	ctx = callbacks.ReuseHandlers(ctx, &callbacks.RunInfo{
		Name:      cfg.ModelName,
		Type:      "AnswerModel",
		Component: components.ComponentOfChatModel,
	})
	if !components.IsCallbacksEnabled(cfg.ChatModel) {
		ctx = callbacks.OnStart(ctx, &einomodel.CallbackInput{Messages: messages})
		defer func() {
			if err != nil {
				callbacks.OnError(ctx, err)
				return
			}
			callbacks.OnEnd(ctx, &einomodel.CallbackOutput{Message: resp})
		}()
	}

	resp, err = cfg.ChatModel.Generate(ctx, messages)
	if err == nil && resp == nil {
		err = fmt.Errorf("empty response")
	}
	return resp, err
}
