package enums

import "fmt"

// ActivityKind labels entries in the production activity history.
type ActivityKind string

const (
	ActivityKindRoast     ActivityKind = "roast"
	ActivityKindSelection ActivityKind = "selection"
	ActivityKindRetail    ActivityKind = "retail"
	ActivityKindAssembly  ActivityKind = "assembly"
	ActivityKindDispatch  ActivityKind = "dispatch"
	ActivityKindInvoice   ActivityKind = "invoice"
)

var validActivityKinds = []ActivityKind{
	ActivityKindRoast,
	ActivityKindSelection,
	ActivityKindRetail,
	ActivityKindAssembly,
	ActivityKindDispatch,
	ActivityKindInvoice,
}

// String implements fmt.Stringer.
func (a ActivityKind) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ActivityKind.
func (a ActivityKind) IsValid() bool {
	for _, candidate := range validActivityKinds {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActivityKind converts raw input into a ActivityKind.
func ParseActivityKind(value string) (ActivityKind, error) {
	for _, candidate := range validActivityKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid activity kind %q", value)
}
