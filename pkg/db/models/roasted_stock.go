package models

// RoastedStock is bulk roasted coffee waiting to be selected, packaged or assembled.
type RoastedStock struct {
	ID                 string  `gorm:"column:id;primaryKey" json:"id"`
	RoastID            string  `gorm:"column:roast_id;not null;index" json:"roast_id"`
	OrderID            *string `gorm:"column:order_id;index" json:"order_id,omitempty"`
	Variety            string  `gorm:"column:variety" json:"variety"`
	ClientName         string  `gorm:"column:client_name;not null;index" json:"client_name"`
	IsExcess           bool    `gorm:"column:is_excess;not null" json:"is_excess"`
	TotalQtyKg         float64 `gorm:"column:total_qty_kg;not null" json:"total_qty_kg"`
	RemainingQtyKg     float64 `gorm:"column:remaining_qty_kg;not null" json:"remaining_qty_kg"`
	IsSelected         bool    `gorm:"column:is_selected;not null" json:"is_selected"`
	TechnicalLossGrams float64 `gorm:"column:technical_loss_grams;not null" json:"technical_loss_grams"`
	Timestamps
}

func (RoastedStock) TableName() string { return "roasted_stock" }

func (r RoastedStock) RecordID() string { return r.ID }
