package models

import "github.com/angelmondragon/roastery-backend/pkg/enums"

// ProductionInventoryItem is a packaging or utility consumable (bags, GrainPro,
// gas). Percentage items track a rechargeable level in [0,100].
type ProductionInventoryItem struct {
	ID           string              `gorm:"column:id;primaryKey" json:"id"`
	Name         string              `gorm:"column:name;not null;index" json:"name"`
	Kind         enums.InventoryKind `gorm:"column:kind;not null" json:"kind"`
	Quantity     float64             `gorm:"column:quantity;not null" json:"quantity"`
	MinThreshold float64             `gorm:"column:min_threshold;not null" json:"min_threshold"`
	LinkedFormat *enums.BagFormat    `gorm:"column:linked_format;index" json:"linked_format,omitempty"`
	Timestamps
}

func (ProductionInventoryItem) TableName() string { return "production_inventory" }

func (p ProductionInventoryItem) RecordID() string { return p.ID }

// IsLow reports whether the item dropped below its alert threshold.
func (p ProductionInventoryItem) IsLow() bool {
	return p.Quantity < p.MinThreshold
}
