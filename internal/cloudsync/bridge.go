// Package cloudsync moves records between the local store and the remote
// mirror. Remote failures never undo local writes: they are logged and
// reported through Result.
package cloudsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/roastery-backend/internal/remote"
	"github.com/angelmondragon/roastery-backend/internal/store"
	"github.com/angelmondragon/roastery-backend/pkg/db"
	"github.com/angelmondragon/roastery-backend/pkg/db/models"
	"github.com/angelmondragon/roastery-backend/pkg/enums"
	"github.com/angelmondragon/roastery-backend/pkg/logger"
	"github.com/angelmondragon/roastery-backend/pkg/metrics"
)

const (
	defaultBatchSize   = 50
	msgNotConfigured   = "remote not configured"
	resubscribeBackoff = 5 * time.Second
)

// Result reports the outcome of a sync operation without raising.
type Result struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
	Count   int    `json:"count"`
}

// Remote is the slice of the connection manager the bridge depends on.
type Remote interface {
	Current() (*db.Client, bool)
	Listen(ctx context.Context, handle remote.ChangeHandler) error
}

type BridgeParams struct {
	Local     *db.Client
	Remote    Remote
	Registry  *store.Registry
	Notifier  store.Notifier
	Logger    *logger.Logger
	Metrics   *metrics.SyncMetrics
	BatchSize int
}

type Bridge struct {
	local     *db.Client
	remote    Remote
	registry  *store.Registry
	notify    store.Notifier
	logg      *logger.Logger
	metrics   *metrics.SyncMetrics
	batchSize int
}

func NewBridge(params BridgeParams) (*Bridge, error) {
	if params.Local == nil {
		return nil, errors.New("local store is required")
	}
	if params.Remote == nil {
		return nil, errors.New("remote manager is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	registry := params.Registry
	if registry == nil {
		registry = store.Default()
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	return &Bridge{
		local:     params.Local,
		remote:    params.Remote,
		registry:  registry,
		notify:    params.Notifier,
		logg:      params.Logger,
		metrics:   params.Metrics,
		batchSize: batch,
	}, nil
}

// SyncToCloud upserts the given local rows of collection into the remote.
func (b *Bridge) SyncToCloud(ctx context.Context, collection string, ids ...string) Result {
	client, ok := b.remote.Current()
	if !ok {
		return Result{OK: true, Message: msgNotConfigured}
	}
	c, found := b.registry.Lookup(collection)
	if !found {
		return b.failure(ctx, collection, fmt.Errorf("unknown collection %q", collection))
	}

	var combined error
	pushed := 0
	for _, id := range ids {
		rows, err := c.Fetch(ctx, b.local.DB(), id)
		if err != nil {
			combined = multierr.Append(combined, err)
			continue
		}
		if rows.Len() == 0 {
			continue
		}
		err = c.Upsert(ctx, client.DB(), rows)
		b.metrics.IncPushed(c.Name(), string(enums.SyncOpUpsert), err == nil)
		if err != nil {
			combined = multierr.Append(combined, err)
			continue
		}
		pushed++
	}
	if combined != nil {
		return b.failure(ctx, c.Name(), combined)
	}
	return Result{OK: true, Count: pushed}
}

// DeleteFromCloud removes one row from the remote.
func (b *Bridge) DeleteFromCloud(ctx context.Context, collection, id string) Result {
	client, ok := b.remote.Current()
	if !ok {
		return Result{OK: true, Message: msgNotConfigured}
	}
	c, found := b.registry.Lookup(collection)
	if !found {
		return b.failure(ctx, collection, fmt.Errorf("unknown collection %q", collection))
	}
	err := c.Delete(ctx, client.DB(), id)
	b.metrics.IncPushed(c.Name(), string(enums.SyncOpDelete), err == nil)
	if err != nil {
		return b.failure(ctx, c.Name(), err)
	}
	return Result{OK: true, Count: 1}
}

// PushToCloud upserts every local row of every collection in batches. It
// keeps going after a failure; Message carries the first error.
func (b *Bridge) PushToCloud(ctx context.Context) Result {
	client, ok := b.remote.Current()
	if !ok {
		return Result{OK: true, Message: msgNotConfigured}
	}

	var combined error
	pushed := 0
	for _, c := range b.registry.All() {
		rows, err := c.Load(ctx, b.local.DB())
		if err != nil {
			combined = multierr.Append(combined, err)
			continue
		}
		for start := 0; start < rows.Len(); start += b.batchSize {
			end := min(start+b.batchSize, rows.Len())
			batch := rows.Slice(start, end)
			err := c.Upsert(ctx, client.DB(), batch)
			b.metrics.IncPushed(c.Name(), string(enums.SyncOpUpsert), err == nil)
			if err != nil {
				combined = multierr.Append(combined, fmt.Errorf("%s rows %d-%d: %w", c.Name(), start, end, err))
				continue
			}
			pushed += batch.Len()
		}
	}
	if combined != nil {
		res := b.failure(ctx, "", combined)
		res.Count = pushed
		return res
	}
	b.logg.Info(b.logg.WithField(ctx, "records", pushed), "push to remote completed")
	return Result{OK: true, Count: pushed}
}

// PullFromCloud merges every remote row into the local store. Local rows are
// never cleared; records with unpublished local changes are left alone until
// the publisher pushes them.
func (b *Bridge) PullFromCloud(ctx context.Context) Result {
	client, ok := b.remote.Current()
	if !ok {
		return Result{OK: true, Message: msgNotConfigured}
	}

	var combined error
	pulled := 0
	changed := make([]string, 0)
	for _, c := range b.registry.All() {
		rows, err := c.Load(ctx, client.DB())
		if err != nil {
			combined = multierr.Append(combined, err)
			continue
		}
		n, err := b.mergeLocal(ctx, c, rows)
		if err != nil {
			combined = multierr.Append(combined, err)
			continue
		}
		b.metrics.AddPulled(c.Name(), n)
		pulled += n
		if n > 0 {
			changed = append(changed, c.Name())
		}
	}
	if b.notify != nil && len(changed) > 0 {
		b.notify.Notify(changed...)
	}
	if combined != nil {
		res := b.failure(ctx, "", combined)
		res.Count = pulled
		return res
	}
	b.logg.Info(b.logg.WithField(ctx, "records", pulled), "pull from remote completed")
	return Result{OK: true, Count: pulled}
}

func (b *Bridge) mergeLocal(ctx context.Context, c store.Collection, rows store.Rows) (int, error) {
	if rows.Len() == 0 {
		return 0, nil
	}
	merged := 0
	err := b.local.WithTx(ctx, func(tx *gorm.DB) error {
		pending, err := pendingIDs(tx, c.Name())
		if err != nil {
			return err
		}
		keep := make([]int, 0, rows.Len())
		for i, id := range rows.IDs() {
			if _, dirty := pending[id]; !dirty {
				keep = append(keep, i)
			}
		}
		for _, span := range spans(keep) {
			if err := c.Upsert(ctx, tx, rows.Slice(span[0], span[1])); err != nil {
				return err
			}
			merged += span[1] - span[0]
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return merged, nil
}

func pendingIDs(tx *gorm.DB, collection string) (map[string]struct{}, error) {
	var ids []string
	err := tx.Model(&models.SyncOutbox{}).
		Where("collection = ? AND published_at IS NULL AND dead_lettered_at IS NULL", collection).
		Distinct().
		Pluck("record_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("pending sync rows for %s: %w", collection, err)
	}
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}

// spans groups sorted indexes into contiguous [from,to) ranges.
func spans(indexes []int) [][2]int {
	var out [][2]int
	for _, i := range indexes {
		if n := len(out); n > 0 && out[n-1][1] == i {
			out[n-1][1] = i + 1
			continue
		}
		out = append(out, [2]int{i, i + 1})
	}
	return out
}

// ApplyChange mirrors one remote notification into the local store.
func (b *Bridge) ApplyChange(ctx context.Context, change remote.Change) error {
	c, ok := b.registry.Lookup(change.Table)
	if !ok {
		return nil
	}
	switch change.Kind {
	case enums.SyncOpDelete:
		if err := c.Delete(ctx, b.local.DB(), change.ID); err != nil {
			return err
		}
	default:
		client, ready := b.remote.Current()
		if !ready {
			return errors.New(msgNotConfigured)
		}
		rows, err := c.Fetch(ctx, client.DB(), change.ID)
		if err != nil {
			return err
		}
		if rows.Len() == 0 {
			return nil
		}
		if _, err := b.mergeLocal(ctx, c, rows); err != nil {
			return err
		}
	}
	b.metrics.IncApplied(c.Name(), string(change.Kind))
	if b.notify != nil {
		b.notify.Notify(c.Name())
	}
	return nil
}

// SubscribeToChanges follows the remote change feed in the background,
// reopening it after failures, until the returned function is called.
func (b *Bridge) SubscribeToChanges(ctx context.Context) (func(), error) {
	if _, ok := b.remote.Current(); !ok {
		return nil, errors.New(msgNotConfigured)
	}
	feedCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			err := b.remote.Listen(feedCtx, func(ctx context.Context, change remote.Change) {
				if err := b.ApplyChange(ctx, change); err != nil {
					b.logg.Error(b.logg.WithFields(ctx, map[string]any{
						"collection": change.Table,
						"record_id":  change.ID,
						"op":         change.Kind,
					}), "applying remote change failed", err)
				}
			})
			if feedCtx.Err() != nil {
				return
			}
			switch {
			case errors.Is(err, remote.ErrFeedReset):
				b.logg.Info(feedCtx, "remote connection replaced; reopening change feed")
			case err != nil:
				b.logg.Warn(b.logg.WithField(feedCtx, "error", err.Error()), "remote change feed interrupted")
			}
			timer := time.NewTimer(resubscribeBackoff)
			select {
			case <-feedCtx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}, nil
}

func (b *Bridge) failure(ctx context.Context, collection string, err error) Result {
	errs := multierr.Errors(err)
	first := err
	if len(errs) > 0 {
		first = errs[0]
	}
	fields := map[string]any{"errors": len(errs)}
	if collection != "" {
		fields["collection"] = collection
	}
	b.logg.Error(b.logg.WithFields(ctx, fields), "remote sync failed", err)
	return Result{OK: false, Message: first.Error()}
}

// Push is SyncToCloud reporting failure as an error.
func (b *Bridge) Push(ctx context.Context, collection string, ids ...string) error {
	res := b.SyncToCloud(ctx, collection, ids...)
	if !res.OK {
		return errors.New(res.Message)
	}
	return nil
}
