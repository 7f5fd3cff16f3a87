package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/angelmondragon/roastery-backend/pkg/enums"
)

// AttributeScore is the evaluation of one sensory attribute.
type AttributeScore struct {
	Score float64  `json:"score"`
	Notes string   `json:"notes,omitempty"`
	Tags  []string `json:"tags,omitempty"`
}

// SensoryForm holds one score per attribute. Values are stored as entered.
type SensoryForm struct {
	Fragrance  AttributeScore `json:"fragrance"`
	Aroma      AttributeScore `json:"aroma"`
	Flavor     AttributeScore `json:"flavor"`
	Aftertaste AttributeScore `json:"aftertaste"`
	Acidity    AttributeScore `json:"acidity"`
	Sweetness  AttributeScore `json:"sweetness"`
	Mouthfeel  AttributeScore `json:"mouthfeel"`
}

// CuppingSample is one coffee evaluated during a free session.
type CuppingSample struct {
	Brand   string      `json:"brand"`
	Variety string      `json:"variety"`
	Origin  string      `json:"origin,omitempty"`
	Process string      `json:"process,omitempty"`
	Notes   string      `json:"notes,omitempty"`
	Form    SensoryForm `json:"form"`
}

type CuppingSession struct {
	ID             string                             `gorm:"column:id;primaryKey" json:"id"`
	TasterName     string                             `gorm:"column:taster_name;not null" json:"taster_name"`
	Date           time.Time                          `gorm:"column:date;not null;index" json:"date"`
	Kind           enums.CuppingKind                  `gorm:"column:kind;not null" json:"kind"`
	RoastedStockID *string                            `gorm:"column:roasted_stock_id" json:"roasted_stock_id,omitempty"`
	Form           *datatypes.JSONType[SensoryForm]   `gorm:"column:form" json:"form,omitempty"`
	Samples        datatypes.JSONSlice[CuppingSample] `gorm:"column:samples" json:"samples"`
	Timestamps
}

func (CuppingSession) TableName() string { return "cupping_sessions" }

func (c CuppingSession) RecordID() string { return c.ID }
