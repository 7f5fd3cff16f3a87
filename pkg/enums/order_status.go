package enums

import "fmt"

// OrderStatus tracks where an order sits in its production lifecycle.
type OrderStatus string

const (
	OrderStatusPending      OrderStatus = "Pendiente"
	OrderStatusInProduction OrderStatus = "En Producción"
	OrderStatusReady        OrderStatus = "Listo para Despacho"
	OrderStatusShipped      OrderStatus = "Enviado"
	OrderStatusInvoiced     OrderStatus = "Facturado"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusInProduction,
	OrderStatusReady,
	OrderStatusShipped,
	OrderStatusInvoiced,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into a OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

// IsTerminal reports whether no further transition can leave the status.
func (o OrderStatus) IsTerminal() bool {
	return o == OrderStatusInvoiced
}

// Dispatched reports whether goods already left the roastery.
func (o OrderStatus) Dispatched() bool {
	return o == OrderStatusShipped || o == OrderStatusInvoiced
}
