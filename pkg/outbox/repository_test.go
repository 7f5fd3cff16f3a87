package outbox

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/roastery-backend/pkg/db/dbtest"
	"github.com/angelmondragon/roastery-backend/pkg/db/models"
	"github.com/angelmondragon/roastery-backend/pkg/enums"
	"github.com/angelmondragon/roastery-backend/pkg/logger"
)

func TestEnqueueCoalescesPendingUpserts(t *testing.T) {
	client := dbtest.NewLocal(t)
	repo := NewRepository(client.DB())
	svc := NewService(repo, logger.Nop())
	ctx := context.Background()

	lot := models.GreenCoffeeLot{ID: "lot-1"}
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := svc.EnqueueUpsert(ctx, tx, lot, "local"); err != nil {
			return err
		}
		return svc.EnqueueUpsert(ctx, tx, lot, "local")
	}))

	rows, err := repo.FetchPending(ctx, 10, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "green_coffee", rows[0].Collection)
	require.Equal(t, enums.SyncOpUpsert, rows[0].Op)
	require.NotNil(t, rows[0].Actor)

	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		return svc.EnqueueDelete(ctx, tx, "green_coffee", "lot-1", "")
	}))
	rows, err = repo.FetchPending(ctx, 10, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, enums.SyncOpDelete, rows[1].Op)
}

func TestEnqueueRequiresTransaction(t *testing.T) {
	svc := NewService(NewRepository(nil), nil)
	err := svc.Enqueue(context.Background(), nil, Change{Collection: "orders", RecordID: "o-1", Op: enums.SyncOpUpsert})
	require.Error(t, err)
}

func TestFailedRowsStopAfterMaxAttempts(t *testing.T) {
	client := dbtest.NewLocal(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()

	row := models.SyncOutbox{ID: "ob-1", Collection: "orders", RecordID: "o-1", Op: enums.SyncOpUpsert, CreatedAt: time.Now()}
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error { return repo.InsertTx(tx, row) }))

	longErr := errors.New(strings.Repeat("x", 2000))
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error { return repo.MarkFailedTx(tx, "ob-1", longErr) }))

	rows, err := repo.FetchPending(ctx, 10, 2)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, 1, rows[0].AttemptCount)
	require.Len(t, *rows[0].LastError, maxErrorLen)

	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error { return repo.MarkTerminalTx(tx, "ob-1", longErr, 2) }))
	rows, err = repo.FetchPending(ctx, 10, 2)
	require.NoError(t, err)
	require.Empty(t, rows)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	require.Zero(t, stats.Pending)
	require.Zero(t, stats.Failing)
	require.Nil(t, stats.OldestAt)
}

func TestEnqueueAfterDeadLetterQueuesFreshRow(t *testing.T) {
	client := dbtest.NewLocal(t)
	repo := NewRepository(client.DB())
	svc := NewService(repo, logger.Nop())
	ctx := context.Background()
	lot := models.GreenCoffeeLot{ID: "lot-1"}

	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error { return svc.EnqueueUpsert(ctx, tx, lot, "") }))
	rows, err := repo.FetchPending(ctx, 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	dead := rows[0].ID
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		return repo.MarkTerminalTx(tx, dead, errors.New("remote table missing"), 3)
	}))

	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		exists, err := repo.PendingExistsTx(tx, "green_coffee", "lot-1", string(enums.SyncOpUpsert))
		require.NoError(t, err)
		require.False(t, exists)
		return svc.EnqueueUpsert(ctx, tx, lot, "")
	}))

	rows, err = repo.FetchPending(ctx, 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotEqual(t, dead, rows[0].ID)
	require.Zero(t, rows[0].AttemptCount)
}

func TestDeletePublishedBefore(t *testing.T) {
	client := dbtest.NewLocal(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()
	now := time.Now().UTC()

	for _, id := range []string{"old", "fresh", "pending", "dead"} {
		row := models.SyncOutbox{ID: id, Collection: "orders", RecordID: id, Op: enums.SyncOpUpsert, CreatedAt: now}
		require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error { return repo.InsertTx(tx, row) }))
	}
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error { return repo.MarkPublishedTx(tx, "old") }))
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error { return repo.MarkPublishedTx(tx, "fresh") }))
	require.NoError(t, client.DB().Model(&models.SyncOutbox{}).Where("id = ?", "old").
		Update("published_at", now.Add(-48*time.Hour)).Error)
	require.NoError(t, client.DB().Model(&models.SyncOutbox{}).Where("id = ?", "dead").
		Update("dead_lettered_at", now.Add(-48*time.Hour)).Error)

	deleted, err := repo.DeletePublishedBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 2, deleted)

	var remaining int64
	require.NoError(t, client.DB().Model(&models.SyncOutbox{}).Count(&remaining).Error)
	require.EqualValues(t, 2, remaining)
}

func TestDLQInsertTruncates(t *testing.T) {
	client := dbtest.NewLocal(t)
	dlq := NewDLQRepository(client.DB())
	ctx := context.Background()

	msg := strings.Repeat("e", 1500)
	entry := models.SyncDeadLetter{ID: "d-1", OutboxID: "ob-1", Collection: "orders", RecordID: "o-1", Op: enums.SyncOpUpsert,
		Reason: enums.DeadLetterReasonMaxAttempts, ErrorMessage: &msg, AttemptCount: 10, FailedAt: time.Now()}
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error { return dlq.InsertTx(tx, entry) }))

	rows, err := dlq.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Len(t, *rows[0].ErrorMessage, maxErrorLen)
}
