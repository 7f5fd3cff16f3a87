package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/roastery-backend/internal/cloudsync"
	"github.com/angelmondragon/roastery-backend/internal/cron"
	"github.com/angelmondragon/roastery-backend/internal/live"
)

const (
	cronLockName        = "cron"
	subscribeRetryEvery = 5 * time.Second
)

// RunWorkers drives the outbox publisher, the remote change subscription and
// the scheduled jobs until ctx ends.
func (a *App) RunWorkers(ctx context.Context) error {
	publisher, err := cloudsync.NewPublisher(cloudsync.PublisherParams{
		Config:        a.Config.Sync,
		Logger:        a.Logger,
		Local:         a.Local,
		Remote:        a.Remote,
		Repository:    a.Outbox,
		DLQRepository: a.DeadLetters,
		Registry:      a.Registry,
		Metrics:       a.SyncMetrics,
	})
	if err != nil {
		return fmt.Errorf("build outbox publisher: %w", err)
	}
	scheduler, err := a.scheduler()
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ignoreCanceled(publisher.Run(gctx)) })
	g.Go(func() error { return ignoreCanceled(scheduler.Run(gctx)) })
	g.Go(func() error {
		a.followChanges(gctx)
		return nil
	})
	return g.Wait()
}

func (a *App) scheduler() (*cron.Service, error) {
	var lock cron.Lock = &cron.LocalLock{}
	if a.Cache != nil {
		redisLock, err := cron.NewRedisLock(a.Cache, a.Cache.LockKey(cronLockName), 0)
		if err != nil {
			return nil, fmt.Errorf("create cron lock: %w", err)
		}
		lock = redisLock
	}

	pull, err := cron.NewPullJob(a.Logger, a.Bridge)
	if err != nil {
		return nil, err
	}
	stats, err := cron.NewOutboxStatsJob(a.Logger, a.Outbox, a.SyncMetrics)
	if err != nil {
		return nil, err
	}
	retention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     a.Logger,
		Repository: a.Outbox,
		Retention:  a.Config.Sync.OutboxRetentionDays,
	})
	if err != nil {
		return nil, err
	}

	svc, err := cron.NewService(cron.ServiceParams{
		Logger:   a.Logger,
		Registry: cron.NewRegistry(pull, stats, retention),
		Lock:     lock,
		Metrics:  a.CronMetrics,
		Interval: a.Config.Sync.PullInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("create cron service: %w", err)
	}
	return svc, nil
}

// followChanges subscribes to the remote change feed once the mirror is
// ready. The bridge keeps the subscription alive across feed drops.
func (a *App) followChanges(ctx context.Context) {
	ticker := time.NewTicker(subscribeRetryEvery)
	defer ticker.Stop()
	for {
		stop, err := a.Bridge.SubscribeToChanges(ctx)
		if err == nil {
			a.Logger.Info(ctx, "following remote change feed")
			<-ctx.Done()
			stop()
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// WatchStore refreshes live subscribers on writes made by a separate sync
// worker process sharing the local store file.
func (a *App) WatchStore(ctx context.Context) error {
	watcher, err := live.NewStoreWatcher(a.Config.LocalDB.Path, a.Registry.Names(), a.Hub, a.Logger)
	if err != nil {
		return fmt.Errorf("build store watcher: %w", err)
	}
	return ignoreCanceled(watcher.Run(ctx))
}
