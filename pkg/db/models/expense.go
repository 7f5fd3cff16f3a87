package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/roastery-backend/pkg/enums"
)

type Expense struct {
	ID             string              `gorm:"column:id;primaryKey" json:"id"`
	Reason         string              `gorm:"column:reason;not null" json:"reason"`
	Amount         decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null" json:"amount"`
	DocumentType   *string             `gorm:"column:document_type" json:"document_type,omitempty"`
	DocumentNumber *string             `gorm:"column:document_number" json:"document_number,omitempty"`
	Date           time.Time           `gorm:"column:date;not null;index" json:"date"`
	Status         enums.ExpenseStatus `gorm:"column:status;not null;index" json:"status"`
	OrderID        *string             `gorm:"column:order_id;index" json:"order_id,omitempty"`
	Responsible    string              `gorm:"column:responsible" json:"responsible"`
	Timestamps
}

func (Expense) TableName() string { return "expenses" }

func (e Expense) RecordID() string { return e.ID }
