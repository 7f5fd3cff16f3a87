package models

import "time"

// GreenCoffeeLot is unroasted coffee received from (or owned on behalf of) a client.
// QuantityKg is the remaining weight; roasting draws it down.
type GreenCoffeeLot struct {
	ID         string    `gorm:"column:id;primaryKey" json:"id"`
	ClientName string    `gorm:"column:client_name;not null;index" json:"client_name"`
	Variety    string    `gorm:"column:variety;not null" json:"variety"`
	Origin     string    `gorm:"column:origin" json:"origin"`
	EntryDate  time.Time `gorm:"column:entry_date;not null;index" json:"entry_date"`
	QuantityKg float64   `gorm:"column:quantity_kg;not null" json:"quantity_kg"`
	Timestamps
}

func (GreenCoffeeLot) TableName() string { return "green_coffee" }

func (g GreenCoffeeLot) RecordID() string { return g.ID }
