package enums

import "fmt"

// InventoryKind describes how a production inventory item is counted.
type InventoryKind string

const (
	InventoryKindUnit       InventoryKind = "unit"
	InventoryKindPercentage InventoryKind = "percentage"
)

var validInventoryKinds = []InventoryKind{
	InventoryKindUnit,
	InventoryKindPercentage,
}

// String implements fmt.Stringer.
func (i InventoryKind) String() string {
	return string(i)
}

// IsValid reports whether the value is a known InventoryKind.
func (i InventoryKind) IsValid() bool {
	for _, candidate := range validInventoryKinds {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseInventoryKind converts raw input into a InventoryKind.
func ParseInventoryKind(value string) (InventoryKind, error) {
	for _, candidate := range validInventoryKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid inventory kind %q", value)
}
