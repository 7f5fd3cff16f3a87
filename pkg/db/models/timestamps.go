package models

import "time"

// Timestamps is embedded by every synchronized record. Both columns are
// written explicitly so upserts carry the writer's clock (last write wins).
type Timestamps struct {
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime:false" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;autoUpdateTime:false;index" json:"updated_at"`
}

// Touch stamps UpdatedAt and fills CreatedAt on first write.
func (t *Timestamps) Touch(now time.Time) {
	now = now.UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
}
