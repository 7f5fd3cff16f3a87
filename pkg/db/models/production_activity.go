package models

import (
	"time"

	"github.com/angelmondragon/roastery-backend/pkg/enums"
)

// ProductionActivity is one entry of the production history feed.
type ProductionActivity struct {
	ID         string             `gorm:"column:id;primaryKey" json:"id"`
	Kind       enums.ActivityKind `gorm:"column:kind;not null;index" json:"kind"`
	OrderID    *string            `gorm:"column:order_id;index" json:"order_id,omitempty"`
	StockID    *string            `gorm:"column:stock_id" json:"stock_id,omitempty"`
	ClientName string             `gorm:"column:client_name;index" json:"client_name"`
	QuantityKg float64            `gorm:"column:quantity_kg;not null" json:"quantity_kg"`
	Notes      string             `gorm:"column:notes" json:"notes"`
	Date       time.Time          `gorm:"column:date;not null;index" json:"date"`
	Timestamps
}

func (ProductionActivity) TableName() string { return "production_activities" }

func (p ProductionActivity) RecordID() string { return p.ID }
