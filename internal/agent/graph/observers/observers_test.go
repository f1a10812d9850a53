package observers_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-hr-assistant/server/internal/agent/graph"
	"github.com/agentic-hr-assistant/server/internal/agent/graph/observers"
	"github.com/agentic-hr-assistant/server/internal/agent/graph/tools"
	"github.com/agentic-hr-assistant/server/internal/agent/model"
	"github.com/agentic-hr-assistant/server/internal/agent/rag"
)

type logLine struct {
	Level     string `json:"level"`
	Message   string `json:"message"`
	Component string `json:"component"`
	Name      string `json:"name"`
}

// captureLogs sends debug output to a buffer for the duration of the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf).Level(zerolog.DebugLevel)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

func parseLines(t *testing.T, buf *bytes.Buffer) []logLine {
	t.Helper()
	var lines []logLine
	sc := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		var l logLine
		require.NoError(t, json.Unmarshal(sc.Bytes(), &l), sc.Text())
		lines = append(lines, l)
	}
	return lines
}

func messages(lines []logLine, component string) []string {
	var out []string
	for _, l := range lines {
		if l.Component == component {
			out = append(out, l.Message)
		}
	}
	return out
}

type cannedModel struct {
	err error
}

func (m *cannedModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage("Employees in India receive 18 days of annual leave.", nil), nil
}

func (m *cannedModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not supported")
}

func newRunner(t *testing.T, chatModel einomodel.BaseChatModel) graph.Runner {
	t.Helper()
	ctx := context.Background()
	embedder := rag.NewHashEmbedder(rag.DefaultHashDimensions)

	index, err := rag.OpenBoltIndex(filepath.Join(t.TempDir(), "policy.db"), embedder)
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	_, err = index.Store(ctx, []*schema.Document{
		{ID: "india#0", Content: "Employees in India receive 18 days of annual leave.", MetaData: map[string]any{rag.MetaCountry: "India"}},
	})
	require.NoError(t, err)

	policyRetriever, err := rag.NewPolicyRetriever(rag.PolicyRetrieverConfig{Index: index, Embedder: embedder})
	require.NoError(t, err)

	runnable, err := graph.BuildGraph(ctx, &graph.GraphConfig{
		Retriever:       policyRetriever,
		ChatModel:       chatModel,
		AnswerModelName: "gemini-2.5-flash",
		LeaveTool:       tools.NewLeaveBalanceTool(),
		MaxRetries:      2,
	})
	require.NoError(t, err)
	return graph.NewRunner(runnable, nil)
}

func TestCallbacks_AnswerTurn(t *testing.T) {
	buf := captureLogs(t)
	runner := newRunner(t, &cannedModel{})

	_, err := runner.Invoke(context.Background(), model.NewConversationState("annual leave in India"))
	require.NoError(t, err)

	lines := parseLines(t, buf)
	assert.Equal(t, []string{"Retriever start", "Retriever end"}, messages(lines, "retriever"))
	assert.Equal(t, []string{"Prompt start", "Prompt end"}, messages(lines, "prompt"))
	assert.Equal(t, []string{"Model start", "Model end"}, messages(lines, "model"))
	assert.Empty(t, messages(lines, "tool"))
}

func TestCallbacks_ToolTurn(t *testing.T) {
	buf := captureLogs(t)
	runner := newRunner(t, &cannedModel{})

	_, err := runner.Invoke(context.Background(), model.NewConversationState("leave balance for E002"))
	require.NoError(t, err)

	lines := parseLines(t, buf)
	assert.Equal(t, []string{"Tool start", "Tool end"}, messages(lines, "tool"))
	for _, l := range lines {
		if l.Component == "tool" {
			assert.Equal(t, tools.ToolGetLeaveBalance, l.Name)
		}
	}
	assert.Empty(t, messages(lines, "model"))
}

func TestCallbacks_ModelError(t *testing.T) {
	buf := captureLogs(t)
	runner := newRunner(t, &cannedModel{err: errors.New("quota exceeded")})

	_, err := runner.Invoke(context.Background(), model.NewConversationState("annual leave in India"))
	require.Error(t, err)

	lines := parseLines(t, buf)
	assert.Equal(t, []string{"Model start", "Model error"}, messages(lines, "model"))
}

func TestNewAllCallbacks_ToolHandler(t *testing.T) {
	buf := captureLogs(t)
	ctx := einocb.InitCallbacks(context.Background(), &einocb.RunInfo{
		Name:      "get_leave_balance",
		Type:      "LeaveBalance",
		Component: components.ComponentOfTool,
	}, observers.NewAllCallbacks())

	ctx = einocb.OnStart(ctx, &tool.CallbackInput{ArgumentsInJSON: `{"employee_id":"E001"}`})
	einocb.OnEnd(ctx, &tool.CallbackOutput{Response: `{"employee_id":"E001"}`})
	einocb.OnError(ctx, errors.New("boom"))

	lines := parseLines(t, buf)
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"Tool start", "Tool end", "Tool error"}, messages(lines, "tool"))
	assert.Equal(t, "warn", lines[2].Level)
}
