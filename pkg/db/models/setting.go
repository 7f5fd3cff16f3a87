package models

import "time"

// Setting is a local key/value pair, e.g. the remote endpoint.
type Setting struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Value     string    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;autoUpdateTime:false"`
}

func (Setting) TableName() string { return "settings" }
