package outbox

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/angelmondragon/roastery-backend/pkg/db/models"
)

type DLQRepository struct {
	db *gorm.DB
}

func NewDLQRepository(db *gorm.DB) *DLQRepository {
	return &DLQRepository{db: db}
}

func (r *DLQRepository) InsertTx(tx *gorm.DB, entry models.SyncDeadLetter) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if entry.ErrorMessage != nil {
		msg := *entry.ErrorMessage
		if len(msg) > maxErrorLen {
			msg = msg[:maxErrorLen]
		}
		entry.ErrorMessage = &msg
	}
	return tx.Create(&entry).Error
}

func (r *DLQRepository) List(ctx context.Context, limit int) ([]models.SyncDeadLetter, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if limit <= 0 {
		limit = 50
	}
	var rows []models.SyncDeadLetter
	err := r.db.WithContext(ctx).
		Order("failed_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
