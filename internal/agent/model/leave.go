package model

import (
	"fmt"
	"sort"
	"strings"
)

// LeaveRecord is the result of a leave-balance lookup. Exactly one of
// Balances or Error is populated.
type LeaveRecord struct {
	EmployeeID string         `json:"employee_id"`
	Balances   map[string]int `json:"balances,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// Found reports whether the lookup matched a known employee.
func (r LeaveRecord) Found() bool {
	return r.Error == ""
}

// String renders the record inline, e.g. {"annual": 8, "sick": 2}.
func (r LeaveRecord) String() string {
	if !r.Found() {
		return fmt.Sprintf("{%q: %q}", "error", r.Error)
	}
	keys := make([]string, 0, len(r.Balances))
	for k := range r.Balances {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%q: %d", k, r.Balances[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
