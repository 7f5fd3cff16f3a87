package enums

import (
	"fmt"
	"strings"
)

// BagFormat is one of the fixed retail bag sizes.
type BagFormat string

const (
	BagFormat250g BagFormat = "250g"
	BagFormat500g BagFormat = "500g"
	BagFormat1kg  BagFormat = "1kg"
)

var validBagFormats = []BagFormat{
	BagFormat250g,
	BagFormat500g,
	BagFormat1kg,
}

var bagFormatKg = map[BagFormat]float64{
	BagFormat250g: 0.25,
	BagFormat500g: 0.5,
	BagFormat1kg:  1.0,
}

// String implements fmt.Stringer.
func (b BagFormat) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BagFormat.
func (b BagFormat) IsValid() bool {
	_, ok := bagFormatKg[b]
	return ok
}

// Kg returns the net coffee weight of one bag, or 0 for unknown formats.
func (b BagFormat) Kg() float64 {
	return bagFormatKg[b]
}

// ParseBagFormat converts raw input into a BagFormat. Matching ignores case and spaces.
func ParseBagFormat(value string) (BagFormat, error) {
	normalized := strings.ToLower(strings.ReplaceAll(value, " ", ""))
	for _, candidate := range validBagFormats {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid bag format %q", value)
}

// BagFormats returns every supported format, smallest first.
func BagFormats() []BagFormat {
	out := make([]BagFormat, len(validBagFormats))
	copy(out, validBagFormats)
	return out
}
