package enums

import "fmt"

// CuppingKind selects between a single-lot internal evaluation and a multi-sample free session.
type CuppingKind string

const (
	CuppingKindInternal CuppingKind = "internal"
	CuppingKindFree     CuppingKind = "free"
)

var validCuppingKinds = []CuppingKind{
	CuppingKindInternal,
	CuppingKindFree,
}

// String implements fmt.Stringer.
func (c CuppingKind) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CuppingKind.
func (c CuppingKind) IsValid() bool {
	for _, candidate := range validCuppingKinds {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCuppingKind converts raw input into a CuppingKind.
func ParseCuppingKind(value string) (CuppingKind, error) {
	for _, candidate := range validCuppingKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cupping kind %q", value)
}
