package graph

import (
	"context"
	"fmt"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"

	"github.com/agentic-hr-assistant/server/internal/agent/graph/nodes"
	"github.com/agentic-hr-assistant/server/internal/agent/graph/observers"
	"github.com/agentic-hr-assistant/server/internal/agent/graph/tools"
	"github.com/agentic-hr-assistant/server/internal/agent/metrics"
	"github.com/agentic-hr-assistant/server/internal/agent/model"
	"github.com/agentic-hr-assistant/server/internal/agent/rag"
	errx "github.com/agentic-hr-assistant/server/internal/core/error"
	logx "github.com/agentic-hr-assistant/server/pkg/logger"
)

const graphName = "hr_assistant"

// maxRunSteps bounds one invocation: decision, one handler, end.
const maxRunSteps = 10

// Runner executes one agent turn. The returned state carries the input
// history plus exactly one new assistant message.
type Runner interface {
	Invoke(ctx context.Context, in model.ConversationState) (model.ConversationState, error)
}

// Config holds everything needed to compose the assistant end-to-end.
// This is a convenience layer over GraphConfig that also constructs the
// chat model, embedder, policy index and retriever.
type Config struct {
	APIKey      string
	BaseURL     string
	AnswerModel model.AnswerModelConfig
	Agent       model.AgentConfig
	Retriever   model.RetrieverConfig
	Metrics     *metrics.Recorder
}

// GraphConfig holds all components needed to build the graph.
type GraphConfig struct {
	Retriever       retriever.Retriever
	ChatModel       einomodel.BaseChatModel
	AnswerModelName string
	LeaveTool       tool.InvokableTool
	MaxRetries      int
}

// GraphBuilder handles the construction of the assistant graph.
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[model.ConversationState, model.ConversationState]
}

type graphRunner struct {
	runnable compose.Runnable[model.ConversationState, model.ConversationState]
	metrics  *metrics.Recorder
}

// NewRunner wraps a compiled graph with state validation, observers and metrics.
func NewRunner(runnable compose.Runnable[model.ConversationState, model.ConversationState], recorder *metrics.Recorder) Runner {
	return &graphRunner{runnable: runnable, metrics: recorder}
}

func (r *graphRunner) Invoke(ctx context.Context, in model.ConversationState) (model.ConversationState, error) {
	if err := validateState(in); err != nil {
		return in, err
	}

	start := time.Now()
	out, err := r.runnable.Invoke(ctx, in, compose.WithCallbacks(observers.NewAllCallbacks()))
	r.metrics.ObserveInvocation(out.Decision, time.Since(start), err)
	if err != nil {
		logx.Error().Err(err).Int("messages", len(in.Messages)).Msg("Agent invocation failed")
		return in, err
	}

	r.metrics.ObserveDecision(out.Decision)
	if out.Decision == model.DecisionAnswer && out.LastContent() == nodes.RefusalMessage {
		r.metrics.ObserveRefusal()
	}
	logx.Info().
		Str("decision", out.Decision.String()).
		Int("retries", out.Retries).
		Dur("elapsed", time.Since(start)).
		Msg("Agent turn completed")
	return out, nil
}

func validateState(s model.ConversationState) error {
	if len(s.Messages) == 0 {
		return errx.InvalidState("conversation has no messages")
	}
	if s.LastMessage() == nil {
		return errx.InvalidState("latest message is nil")
	}
	if s.Retries < 0 {
		return errx.InvalidState("retries must not be negative")
	}
	if s.Decision != "" && !s.Decision.Valid() {
		return errx.InvalidState("unknown decision " + s.Decision.String())
	}
	return nil
}

// Agent is a Runner bound to the policy index it opened.
type Agent struct {
	Runner
	index *rag.BoltIndex
}

// IndexedPassages reports how many policy passages are searchable.
func (a *Agent) IndexedPassages() int {
	return a.index.Len()
}

// Close releases the policy index.
func (a *Agent) Close() error {
	return a.index.Close()
}

// BuildHRGraph composes the answer model, policy retriever and leave tool,
// builds the graph, and returns an Agent.
func BuildHRGraph(ctx context.Context, cfg Config) (*Agent, error) {
	if cfg.Agent.MaxRetries < 0 {
		return nil, fmt.Errorf("max retries must not be negative")
	}

	client, err := nodes.NewGeminiClient(ctx, cfg.APIKey, cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	chatModel, err := nodes.NewAnswerChatModel(ctx, client, &cfg.AnswerModel)
	if err != nil {
		return nil, err
	}

	embedder, err := rag.NewEmbedder(cfg.Retriever.Embedder, client, cfg.Retriever.EmbeddingModel, rag.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("error creating query embedder: %w", err)
	}

	index, err := rag.OpenBoltIndex(cfg.Retriever.IndexPath, embedder)
	if err != nil {
		return nil, err
	}
	if index.Len() == 0 {
		logx.Warn().Str("path", cfg.Retriever.IndexPath).Msg("Policy index is empty; every policy question will be refused until it is built")
	}

	policyRetriever, err := rag.NewPolicyRetriever(rag.PolicyRetrieverConfig{
		Index:    index,
		Embedder: embedder,
		TopK:     cfg.Retriever.TopK,
	})
	if err != nil {
		_ = index.Close()
		return nil, err
	}

	runnable, err := BuildGraph(ctx, &GraphConfig{
		Retriever:       policyRetriever,
		ChatModel:       chatModel,
		AnswerModelName: cfg.AnswerModel.Model,
		LeaveTool:       tools.NewLeaveBalanceTool(),
		MaxRetries:      cfg.Agent.MaxRetries,
	})
	if err != nil {
		_ = index.Close()
		return nil, err
	}

	logx.Debug().Int("passages", index.Len()).Msg("HR graph built successfully")
	return &Agent{Runner: NewRunner(runnable, cfg.Metrics), index: index}, nil
}

// BuildGraph constructs and returns the compiled assistant graph.
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.ConversationState, model.ConversationState], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.MaxRetries < 0 {
		return nil, fmt.Errorf("max retries must not be negative")
	}
	if config.LeaveTool == nil {
		return nil, fmt.Errorf("leave balance tool is nil")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.ConversationState, model.ConversationState](
			compose.WithGenLocalState(func(ctx context.Context) *model.RunTrace {
				return &model.RunTrace{}
			}),
		),
	}

	if err := builder.addNodes(); err != nil {
		return nil, err
	}
	if err := builder.addEdges(); err != nil {
		return nil, err
	}
	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// addNodes adds the decision node and the four handlers.
func (b *GraphBuilder) addNodes() error {
	answerNode, err := nodes.NewAnswerNode(nodes.AnswerConfig{
		Retriever: b.config.Retriever,
		ChatModel: b.config.ChatModel,
		ModelName: b.config.AnswerModelName,
	})
	if err != nil {
		return err
	}
	toolNode, err := nodes.NewLeaveToolNode(b.config.LeaveTool)
	if err != nil {
		return err
	}

	lambdas := []struct {
		key    string
		lambda *compose.Lambda
	}{
		{nodes.NodeDecision, nodes.NewDecisionNode(b.config.MaxRetries)},
		{nodes.NodeTool, toolNode},
		{nodes.NodeAnswer, answerNode},
		{nodes.NodeAsk, nodes.NewAskNode()},
		{nodes.NodeFallback, nodes.NewFallbackNode()},
	}
	for _, n := range lambdas {
		err := b.graph.AddLambdaNode(n.key, n.lambda,
			compose.WithNodeName(n.key),
			compose.WithStatePreHandler(nodes.NewTracePreHandler(n.key)),
		)
		if err != nil {
			logx.Error().Err(err).Str("node", n.key).Msg("Error adding node")
			return fmt.Errorf("error adding node %s: %w", n.key, err)
		}
	}
	return nil
}

// addEdges connects the entry point and sends every handler to the end.
func (b *GraphBuilder) addEdges() error {
	edges := [][2]string{
		{compose.START, nodes.NodeDecision},
	}
	for _, h := range nodes.HandlerNodes {
		edges = append(edges, [2]string{h, compose.END})
	}

	for _, edge := range edges {
		if err := b.graph.AddEdge(edge[0], edge[1]); err != nil {
			return fmt.Errorf("error adding edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}
	return nil
}

// addBranches routes the decision node to exactly one handler.
func (b *GraphBuilder) addBranches() error {
	endNodes := make(map[string]bool, len(nodes.HandlerNodes))
	for _, h := range nodes.HandlerNodes {
		endNodes[h] = true
	}

	decisionBranch := compose.NewGraphBranch(nodes.NewDecisionCondition(), endNodes)
	if err := b.graph.AddBranch(nodes.NodeDecision, decisionBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding decision branch")
		return fmt.Errorf("error adding decision branch: %w", err)
	}
	return nil
}

// compile finalizes and compiles the graph.
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.ConversationState, model.ConversationState], error) {
	runnable, err := b.graph.Compile(ctx,
		compose.WithGraphName(graphName),
		compose.WithMaxRunSteps(maxRunSteps),
	)
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
