package enums

import "fmt"

type ExpenseStatus string

const (
	ExpenseStatusPending ExpenseStatus = "pending"
	ExpenseStatusPaid    ExpenseStatus = "paid"
)

var validExpenseStatuses = []ExpenseStatus{
	ExpenseStatusPending,
	ExpenseStatusPaid,
}

// String implements fmt.Stringer.
func (e ExpenseStatus) String() string {
	return string(e)
}

// IsValid reports whether the value is a known ExpenseStatus.
func (e ExpenseStatus) IsValid() bool {
	for _, candidate := range validExpenseStatuses {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseExpenseStatus converts raw input into a ExpenseStatus.
func ParseExpenseStatus(value string) (ExpenseStatus, error) {
	for _, candidate := range validExpenseStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid expense status %q", value)
}
