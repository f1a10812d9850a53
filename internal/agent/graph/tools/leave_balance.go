package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/agentic-hr-assistant/server/internal/agent/model"
)

const (
	ToolGetLeaveBalance = "get_leave_balance"

	// EmployeeNotFound is the error marker returned for unknown identifiers.
	EmployeeNotFound = "Employee not found"
)

// ===================================
// Get Leave Balance Tool
// ===================================

type GetLeaveBalanceInput struct {
	EmployeeID string `json:"employee_id"`
}

// MockLeaveBalances stands in for the HR system of record.
var MockLeaveBalances = map[string]map[string]int{
	"E001": {"annual": 12, "sick": 5},
	"E002": {"annual": 8, "sick": 2},
}

// LookupLeaveBalance returns the remaining leave for employeeID. Unknown
// identifiers yield a record with Error set rather than a Go error.
func LookupLeaveBalance(employeeID string) model.LeaveRecord {
	balances, ok := MockLeaveBalances[employeeID]
	if !ok {
		return model.LeaveRecord{EmployeeID: employeeID, Error: EmployeeNotFound}
	}
	copied := make(map[string]int, len(balances))
	for k, v := range balances {
		copied[k] = v
	}
	return model.LeaveRecord{EmployeeID: employeeID, Balances: copied}
}

// NewLeaveBalanceTool exposes LookupLeaveBalance as an Eino invokable tool.
func NewLeaveBalanceTool() tool.InvokableTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolGetLeaveBalance,
			Desc: "Get the remaining annual and sick leave days for an employee. Returns an error marker when the employee is unknown.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"employee_id": {
					Type:     "string",
					Desc:     "Employee identifier, e.g. E001 or E002.",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *GetLeaveBalanceInput) (*model.LeaveRecord, error) {
			id := strings.ToUpper(strings.TrimSpace(in.EmployeeID))
			if id == "" {
				return nil, fmt.Errorf("employee_id is required")
			}
			record := LookupLeaveBalance(id)
			return &record, nil
		},
	)
}
