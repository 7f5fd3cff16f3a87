package models

import "time"

// RoastBatch is an append-only roast log entry.
type RoastBatch struct {
	ID            string    `gorm:"column:id;primaryKey" json:"id"`
	GreenLotID    string    `gorm:"column:green_lot_id;not null;index" json:"green_lot_id"`
	OrderID       *string   `gorm:"column:order_id;index" json:"order_id,omitempty"`
	ClientName    string    `gorm:"column:client_name;not null;index" json:"client_name"`
	Variety       string    `gorm:"column:variety" json:"variety"`
	GreenQtyKg    float64   `gorm:"column:green_qty_kg;not null" json:"green_qty_kg"`
	RoastedQtyKg  float64   `gorm:"column:roasted_qty_kg;not null" json:"roasted_qty_kg"`
	WeightLossPct float64   `gorm:"column:weight_loss_pct;not null" json:"weight_loss_pct"`
	Profile       string    `gorm:"column:profile" json:"profile"`
	RoastDate     time.Time `gorm:"column:roast_date;not null;index" json:"roast_date"`
	Timestamps
}

func (RoastBatch) TableName() string { return "roasts" }

func (r RoastBatch) RecordID() string { return r.ID }
