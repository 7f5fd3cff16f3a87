package outbox

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/roastery-backend/pkg/db/models"
	"github.com/angelmondragon/roastery-backend/pkg/enums"
	"github.com/angelmondragon/roastery-backend/pkg/logger"
)

// Change describes one local mutation that must reach the remote mirror.
type Change struct {
	Collection string
	RecordID   string
	Op         enums.SyncOp
	Actor      string
}

type Service struct {
	repo *Repository
	logg *logger.Logger
	now  func() time.Time
}

func NewService(repo *Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg, now: time.Now}
}

// Enqueue records the change inside the caller's transaction. Upserts are
// coalesced: the publisher pushes the row as it is at publish time, so one
// pending upsert per record is enough.
func (s *Service) Enqueue(ctx context.Context, tx *gorm.DB, change Change) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if change.Collection == "" || change.RecordID == "" {
		return errors.New("collection and record id are required")
	}
	if !change.Op.IsValid() {
		return errors.New("invalid sync op")
	}
	if change.Op == enums.SyncOpUpsert {
		exists, err := s.repo.PendingExistsTx(tx, change.Collection, change.RecordID, string(change.Op))
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
	}

	row := models.SyncOutbox{
		ID:         uuid.NewString(),
		Collection: change.Collection,
		RecordID:   change.RecordID,
		Op:         change.Op,
		CreatedAt:  s.now().UTC(),
	}
	if change.Actor != "" {
		actor := change.Actor
		row.Actor = &actor
	}
	if err := s.repo.InsertTx(tx, row); err != nil {
		return err
	}
	if s.logg != nil {
		s.logg.Debug(s.logg.WithFields(ctx, map[string]any{
			"outbox_id":  row.ID,
			"collection": row.Collection,
			"record_id":  row.RecordID,
			"op":         row.Op,
		}), "sync change queued")
	}
	return nil
}

// EnqueueUpsert is shorthand for the common write path.
func (s *Service) EnqueueUpsert(ctx context.Context, tx *gorm.DB, record models.Record, actor string) error {
	return s.Enqueue(ctx, tx, Change{Collection: record.TableName(), RecordID: record.RecordID(), Op: enums.SyncOpUpsert, Actor: actor})
}

// EnqueueDelete queues a remote row delete.
func (s *Service) EnqueueDelete(ctx context.Context, tx *gorm.DB, collection, id, actor string) error {
	return s.Enqueue(ctx, tx, Change{Collection: collection, RecordID: id, Op: enums.SyncOpDelete, Actor: actor})
}
