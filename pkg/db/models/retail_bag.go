package models

import "github.com/angelmondragon/roastery-backend/pkg/enums"

type RetailBagStock struct {
	ID         string          `gorm:"column:id;primaryKey" json:"id"`
	CoffeeName string          `gorm:"column:coffee_name;not null;index:idx_retail_bags_lookup" json:"coffee_name"`
	Format     enums.BagFormat `gorm:"column:format;not null;index:idx_retail_bags_lookup" json:"format"`
	Units      int             `gorm:"column:units;not null" json:"units"`
	ClientName *string         `gorm:"column:client_name;index" json:"client_name,omitempty"`
	RoastID    *string         `gorm:"column:roast_id" json:"roast_id,omitempty"`
	Timestamps
}

func (RetailBagStock) TableName() string { return "retail_bags" }

func (r RetailBagStock) RecordID() string { return r.ID }
