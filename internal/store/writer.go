package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/roastery-backend/pkg/db"
	"github.com/angelmondragon/roastery-backend/pkg/db/models"
	"github.com/angelmondragon/roastery-backend/pkg/outbox"
)

// Notifier is told which collections changed once a write commits.
type Notifier interface {
	Notify(collections ...string)
}

// Stamped is a synchronized record that carries its own timestamps.
type Stamped interface {
	models.Record
	Touch(now time.Time)
}

// Writer runs domain mutations as one local transaction, queues every touched
// record for the remote mirror and notifies live subscribers after commit.
type Writer struct {
	client *db.Client
	outbox *outbox.Service
	notify Notifier
	now    func() time.Time
}

func NewWriter(client *db.Client, outboxSvc *outbox.Service, notify Notifier) *Writer {
	return &Writer{client: client, outbox: outboxSvc, notify: notify, now: time.Now}
}

// DB exposes the local connection for read paths.
func (w *Writer) DB(ctx context.Context) *gorm.DB {
	return w.client.DB().WithContext(ctx)
}

// Run executes fn in a local transaction. Nothing fn wrote survives an error.
func (w *Writer) Run(ctx context.Context, actor string, fn func(tx *Tx) error) error {
	tx := &Tx{
		ctx:     ctx,
		actor:   actor,
		now:     w.now().UTC(),
		outbox:  w.outbox,
		touched: map[string]struct{}{},
	}
	err := w.client.WithTx(ctx, func(gtx *gorm.DB) error {
		tx.DB = gtx
		return fn(tx)
	})
	if err != nil {
		return err
	}
	if w.notify != nil && len(tx.touched) > 0 {
		names := make([]string, 0, len(tx.touched))
		for name := range tx.touched {
			names = append(names, name)
		}
		w.notify.Notify(names...)
	}
	return nil
}

// Tx is the write surface handed to domain code inside Writer.Run. Reads
// must go through DB too: the local store serializes on one connection.
type Tx struct {
	DB      *gorm.DB
	ctx     context.Context
	actor   string
	now     time.Time
	outbox  *outbox.Service
	touched map[string]struct{}
}

// Now is the transaction clock, shared by every record it stamps.
func (t *Tx) Now() time.Time { return t.now }

func (t *Tx) Actor() string { return t.actor }

// Put stamps and upserts rec, then queues it for the remote.
func (t *Tx) Put(rec Stamped) error {
	rec.Touch(t.now)
	if err := t.DB.Clauses(clause.OnConflict{UpdateAll: true}).Create(rec).Error; err != nil {
		return fmt.Errorf("save %s %s: %w", rec.TableName(), rec.RecordID(), err)
	}
	t.touched[rec.TableName()] = struct{}{}
	if t.outbox == nil {
		return nil
	}
	return t.outbox.EnqueueUpsert(t.ctx, t.DB, rec, t.actor)
}

// Remove deletes rec locally and queues the remote delete.
func (t *Tx) Remove(rec models.Record) error {
	if err := t.DB.Where("id = ?", rec.RecordID()).Delete(rec).Error; err != nil {
		return fmt.Errorf("delete %s %s: %w", rec.TableName(), rec.RecordID(), err)
	}
	t.touched[rec.TableName()] = struct{}{}
	if t.outbox == nil {
		return nil
	}
	return t.outbox.EnqueueDelete(t.ctx, t.DB, rec.TableName(), rec.RecordID(), t.actor)
}

// Touched marks a collection changed without going through Put/Remove
// (bulk rewrites such as a backup import).
func (t *Tx) Touched(collection string) {
	t.touched[collection] = struct{}{}
}
