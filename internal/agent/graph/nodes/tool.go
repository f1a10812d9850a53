package nodes

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"

	"github.com/agentic-hr-assistant/server/internal/agent/graph/tools"
	"github.com/agentic-hr-assistant/server/internal/agent/keywords"
	"github.com/agentic-hr-assistant/server/internal/agent/model"
	logx "github.com/agentic-hr-assistant/server/pkg/logger"
)

// ToolReplyPrefix precedes the rendered leave record in the tool reply.
const ToolReplyPrefix = "Your leave balance is: "

// NewLeaveToolNode looks up the leave balance of the employee named in the
// latest message. Messages without a known identifier query E001.
func NewLeaveToolNode(leaveTool tool.InvokableTool) (*compose.Lambda, error) {
	if leaveTool == nil {
		return nil, fmt.Errorf("tool node: leave balance tool is nil")
	}
	return compose.InvokableLambda(func(ctx context.Context, in model.ConversationState) (model.ConversationState, error) {
		return LookupBalance(ctx, leaveTool, in)
	}), nil
}

// LookupBalance runs the leave tool and records both the reply and the structured result.
func LookupBalance(ctx context.Context, leaveTool tool.InvokableTool, in model.ConversationState) (model.ConversationState, error) {
	employeeID := keywords.DetectEmployeeID(in.LastContent())
	args, err := json.Marshal(tools.GetLeaveBalanceInput{EmployeeID: employeeID})
	if err != nil {
		return in, fmt.Errorf("encode tool arguments: %w", err)
	}

	ctx = callbacks.ReuseHandlers(ctx, &callbacks.RunInfo{
		Name:      tools.ToolGetLeaveBalance,
		Type:      "LeaveBalance",
		Component: components.ComponentOfTool,
	})
	ctx = callbacks.OnStart(ctx, &tool.CallbackInput{ArgumentsInJSON: string(args)})
	out, err := leaveTool.InvokableRun(ctx, string(args))
	if err != nil {
		callbacks.OnError(ctx, err)
		return in, fmt.Errorf("invoke %s: %w", tools.ToolGetLeaveBalance, err)
	}
	callbacks.OnEnd(ctx, &tool.CallbackOutput{Response: out})

	var record model.LeaveRecord
	if err := json.Unmarshal([]byte(out), &record); err != nil {
		return in, fmt.Errorf("decode %s result: %w", tools.ToolGetLeaveBalance, err)
	}

	next := reply(in, ToolReplyPrefix+record.String())
	next.ToolResult = &record
	logx.Debug().
		Str("node", NodeTool).
		Str("employee_id", employeeID).
		Bool("found", record.Found()).
		Msg("Leave balance looked up")
	return next, nil
}
