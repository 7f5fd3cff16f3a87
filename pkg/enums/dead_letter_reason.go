package enums

import "fmt"

// DeadLetterReason classifies why a sync row was moved to the dead-letter table.
type DeadLetterReason string

const (
	DeadLetterReasonMaxAttempts       DeadLetterReason = "max_attempts"
	DeadLetterReasonUnknownCollection DeadLetterReason = "unknown_collection"
	DeadLetterReasonRecordMissing     DeadLetterReason = "record_missing"
)

var validDeadLetterReasons = []DeadLetterReason{
	DeadLetterReasonMaxAttempts,
	DeadLetterReasonUnknownCollection,
	DeadLetterReasonRecordMissing,
}

// String implements fmt.Stringer.
func (d DeadLetterReason) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DeadLetterReason.
func (d DeadLetterReason) IsValid() bool {
	for _, candidate := range validDeadLetterReasons {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDeadLetterReason converts raw input into a DeadLetterReason.
func ParseDeadLetterReason(value string) (DeadLetterReason, error) {
	for _, candidate := range validDeadLetterReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid dead letter reason %q", value)
}
