package enums

import "fmt"

// OrderType distinguishes retail sales from roasting-service (toll roasting) orders.
type OrderType string

const (
	OrderTypeSale    OrderType = "venta"
	OrderTypeService OrderType = "servicio"
)

var validOrderTypes = []OrderType{
	OrderTypeSale,
	OrderTypeService,
}

// String implements fmt.Stringer.
func (o OrderType) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderType.
func (o OrderType) IsValid() bool {
	for _, candidate := range validOrderTypes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderType converts raw input into a OrderType.
func ParseOrderType(value string) (OrderType, error) {
	for _, candidate := range validOrderTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order type %q", value)
}

// IsService reports whether the client supplied the green coffee and pays for roasting.
func (o OrderType) IsService() bool {
	return o == OrderTypeService
}
