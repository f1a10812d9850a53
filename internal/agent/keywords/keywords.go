// Package keywords holds the substring policy shared by intent detection,
// retrieval filtering and employee lookup. Every matcher lowercases its input.
package keywords

import "strings"

const (
	CountryIndia       = "India"
	CountryNetherlands = "Netherlands"
	// CountryGeneral tags policy documents that apply everywhere.
	CountryGeneral = "General"
)

// CountryGroup maps a canonical country label to the terms that detect it.
type CountryGroup struct {
	Country string
	Terms   []string
}

// BalancePhrases signal a leave-balance request.
var BalancePhrases = []string{"leave balance", "remaining leave"}

// Countries is checked in order; the first group with a matching term wins.
var Countries = []CountryGroup{
	{Country: CountryIndia, Terms: []string{"india", "indian"}},
	{Country: CountryNetherlands, Terms: []string{"netherlands", "dutch"}},
}

// LeaveTypes are the leave categories covered by the policy index.
var LeaveTypes = []string{"annual", "sick"}

// EmployeeIDs are the identifiers known to the leave backend, in match order.
// The first one doubles as the default when a message names none.
var EmployeeIDs = []string{"E001", "E002"}

// ContainsAny reports whether the lowercased text contains any of terms.
func ContainsAny(text string, terms []string) bool {
	lower := strings.ToLower(text)
	for _, term := range terms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// HasBalancePhrase reports whether text asks for a leave balance.
func HasBalancePhrase(text string) bool {
	return ContainsAny(text, BalancePhrases)
}

// DetectCountry returns the canonical country mentioned in text, or "".
func DetectCountry(text string) string {
	for _, group := range Countries {
		if ContainsAny(text, group.Terms) {
			return group.Country
		}
	}
	return ""
}

// HasLeaveType reports whether text names a known leave type.
func HasLeaveType(text string) bool {
	return ContainsAny(text, LeaveTypes)
}

// DetectEmployeeID returns the first known identifier found in text.
// When none is present it falls back to EmployeeIDs[0].
func DetectEmployeeID(text string) string {
	lower := strings.ToLower(text)
	for _, id := range EmployeeIDs {
		if strings.Contains(lower, strings.ToLower(id)) {
			return id
		}
	}
	return EmployeeIDs[0]
}
