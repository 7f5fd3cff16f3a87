package outbox

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/roastery-backend/pkg/db/models"
)

const maxErrorLen = 1024

// liveRow matches rows still waiting to be pushed.
const liveRow = "published_at IS NULL AND dead_lettered_at IS NULL"

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) InsertTx(tx *gorm.DB, row models.SyncOutbox) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Create(&row).Error
}

// PendingExistsTx reports whether a live row already covers the record and op.
// Dead-lettered rows do not count.
func (r *Repository) PendingExistsTx(tx *gorm.DB, collection, recordID string, op string) (bool, error) {
	if tx == nil {
		return false, errors.New("transaction required")
	}
	var count int64
	err := tx.Model(&models.SyncOutbox{}).
		Where("collection = ? AND record_id = ? AND op = ?", collection, recordID, op).
		Where(liveRow).
		Count(&count).Error
	return count > 0, err
}

// FetchPending returns the oldest unpublished rows that still have attempts left.
func (r *Repository) FetchPending(ctx context.Context, limit, maxAttempts int) ([]models.SyncOutbox, error) {
	var rows []models.SyncOutbox
	q := r.db.WithContext(ctx).Where(liveRow)
	if maxAttempts > 0 {
		q = q.Where("attempt_count < ?", maxAttempts)
	}
	err := q.Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *Repository) MarkPublishedTx(tx *gorm.DB, id string) error {
	return tx.Model(&models.SyncOutbox{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"published_at": time.Now().UTC(),
			"last_error":   nil,
		}).Error
}

func (r *Repository) MarkFailedTx(tx *gorm.DB, id string, cause error) error {
	return tx.Model(&models.SyncOutbox{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_error":    truncateError(cause),
			"attempt_count": gorm.Expr("attempt_count + 1"),
		}).Error
}

// MarkTerminalTx retires the row after it was copied to the dead letter table.
// Later edits to the same record queue a fresh row.
func (r *Repository) MarkTerminalTx(tx *gorm.DB, id string, cause error, terminalAttempts int) error {
	return tx.Model(&models.SyncOutbox{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_error":       truncateError(cause),
			"attempt_count":    terminalAttempts,
			"dead_lettered_at": time.Now().UTC(),
		}).Error
}

// DeletePublishedBefore purges delivered and dead-lettered rows older than
// cutoff. The dead letter table keeps its own copy.
func (r *Repository) DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("(published_at IS NOT NULL AND published_at < ?) OR (dead_lettered_at IS NOT NULL AND dead_lettered_at < ?)", cutoff, cutoff).
		Delete(&models.SyncOutbox{})
	return res.RowsAffected, res.Error
}

// Stats summarises the queue for the sync status endpoint.
type Stats struct {
	Pending     int64      `json:"pending"`
	Failing     int64      `json:"failing"`
	DeadLetters int64      `json:"dead_letters"`
	OldestAt    *time.Time `json:"oldest_pending_at,omitempty"`
}

func (r *Repository) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.SyncOutbox{}).Where(liveRow).Count(&stats.Pending).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&models.SyncOutbox{}).Where(liveRow).Where("attempt_count > 0").Count(&stats.Failing).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&models.SyncDeadLetter{}).Count(&stats.DeadLetters).Error; err != nil {
		return stats, err
	}
	var oldest models.SyncOutbox
	err := db.Where(liveRow).Order("created_at ASC").Limit(1).Find(&oldest).Error
	if err != nil {
		return stats, err
	}
	if oldest.ID != "" {
		at := oldest.CreatedAt
		stats.OldestAt = &at
	}
	return stats, nil
}

func truncateError(err error) *string {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if len(msg) > maxErrorLen {
		msg = msg[:maxErrorLen]
	}
	return &msg
}
