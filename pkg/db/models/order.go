package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/angelmondragon/roastery-backend/pkg/enums"
)

// OrderLine is one variety in a multi-line order.
type OrderLine struct {
	Variety    string  `json:"variety"`
	QuantityKg float64 `json:"quantity_kg"`
	Grind      *string `json:"grind,omitempty"`
	Packaging  *string `json:"packaging,omitempty"`
}

// Order tracks a client request from entry to invoice. QuantityKg is the
// target: green weight for service orders, roasted weight for sales.
type Order struct {
	ID                   string                         `gorm:"column:id;primaryKey" json:"id"`
	ClientName           string                         `gorm:"column:client_name;not null;index" json:"client_name"`
	Variety              string                         `gorm:"column:variety" json:"variety"`
	Lines                datatypes.JSONSlice[OrderLine] `gorm:"column:lines" json:"lines"`
	Type                 enums.OrderType                `gorm:"column:type;not null" json:"type"`
	QuantityKg           float64                        `gorm:"column:quantity_kg;not null" json:"quantity_kg"`
	AccumulatedGreenKg   float64                        `gorm:"column:accumulated_green_kg;not null" json:"accumulated_green_kg"`
	AccumulatedRoastedKg float64                        `gorm:"column:accumulated_roasted_kg;not null" json:"accumulated_roasted_kg"`
	FulfilledKg          float64                        `gorm:"column:fulfilled_kg;not null" json:"fulfilled_kg"`
	ShippedKg            float64                        `gorm:"column:shipped_kg;not null" json:"shipped_kg"`
	BagsUsed             int                            `gorm:"column:bags_used;not null" json:"bags_used"`
	Status               enums.OrderStatus              `gorm:"column:status;not null;index" json:"status"`
	IsPaused             bool                           `gorm:"column:is_paused;not null" json:"is_paused"`
	Progress             int                            `gorm:"column:progress;not null" json:"progress"`
	DeliveryMethod       string                         `gorm:"column:delivery_method" json:"delivery_method"`
	DeliveryAddress      string                         `gorm:"column:delivery_address" json:"delivery_address"`
	RoastIDs             datatypes.JSONSlice[string]    `gorm:"column:roast_ids" json:"roast_ids"`
	CompletedActivities  datatypes.JSONSlice[string]    `gorm:"column:completed_activities" json:"completed_activities"`
	ShippingCost         decimal.Decimal                `gorm:"column:shipping_cost;type:numeric(12,2);not null" json:"shipping_cost"`
	OrderDate            time.Time                      `gorm:"column:order_date;not null;index" json:"order_date"`
	DispatchDate         *time.Time                     `gorm:"column:dispatch_date" json:"dispatch_date,omitempty"`
	InvoiceDate          *time.Time                     `gorm:"column:invoice_date" json:"invoice_date,omitempty"`
	Timestamps
}

func (Order) TableName() string { return "orders" }

func (o Order) RecordID() string { return o.ID }

// HasActivity reports whether the marker was already recorded on the order.
func (o Order) HasActivity(marker string) bool {
	for _, existing := range o.CompletedActivities {
		if existing == marker {
			return true
		}
	}
	return false
}
