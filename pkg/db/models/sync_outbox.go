package models

import (
	"time"

	"github.com/angelmondragon/roastery-backend/pkg/enums"
)

// SyncOutbox is a pending push of one local record to the remote mirror.
// Rows are written in the same local transaction as the record itself.
type SyncOutbox struct {
	ID           string       `gorm:"column:id;primaryKey" json:"id"`
	Collection   string       `gorm:"column:collection;not null" json:"collection"`
	RecordID     string       `gorm:"column:record_id;not null" json:"record_id"`
	Op           enums.SyncOp `gorm:"column:op;not null" json:"op"`
	Actor        *string      `gorm:"column:actor" json:"actor,omitempty"`
	CreatedAt    time.Time    `gorm:"column:created_at;not null;index:idx_sync_outbox_pending,priority:2" json:"created_at"`
	PublishedAt  *time.Time   `gorm:"column:published_at;index:idx_sync_outbox_pending,priority:1" json:"published_at,omitempty"`
	AttemptCount int          `gorm:"column:attempt_count;not null" json:"attempt_count"`
	LastError    *string      `gorm:"column:last_error" json:"last_error,omitempty"`
	// DeadLetteredAt is set once the row moves to sync_dead_letters. Such a
	// row no longer counts as a pending change for its record.
	DeadLetteredAt *time.Time `gorm:"column:dead_lettered_at" json:"dead_lettered_at,omitempty"`
}

func (SyncOutbox) TableName() string { return "sync_outbox" }

// SyncDeadLetter captures sync rows that exhausted their attempts.
type SyncDeadLetter struct {
	ID           string                 `gorm:"column:id;primaryKey" json:"id"`
	OutboxID     string                 `gorm:"column:outbox_id;not null;index" json:"outbox_id"`
	Collection   string                 `gorm:"column:collection;not null" json:"collection"`
	RecordID     string                 `gorm:"column:record_id;not null" json:"record_id"`
	Op           enums.SyncOp           `gorm:"column:op;not null" json:"op"`
	Reason       enums.DeadLetterReason `gorm:"column:reason;not null" json:"reason"`
	ErrorMessage *string                `gorm:"column:error_message" json:"error_message,omitempty"`
	AttemptCount int                    `gorm:"column:attempt_count;not null" json:"attempt_count"`
	FailedAt     time.Time              `gorm:"column:failed_at;not null" json:"failed_at"`
}

func (SyncDeadLetter) TableName() string { return "sync_dead_letters" }
