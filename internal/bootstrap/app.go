package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/roastery-backend/api/routes"
	"github.com/angelmondragon/roastery-backend/internal/auth"
	"github.com/angelmondragon/roastery-backend/internal/backup"
	"github.com/angelmondragon/roastery-backend/internal/cloudsync"
	"github.com/angelmondragon/roastery-backend/internal/cupping"
	"github.com/angelmondragon/roastery-backend/internal/dashboard"
	"github.com/angelmondragon/roastery-backend/internal/expenses"
	"github.com/angelmondragon/roastery-backend/internal/inventory"
	"github.com/angelmondragon/roastery-backend/internal/live"
	"github.com/angelmondragon/roastery-backend/internal/orders"
	"github.com/angelmondragon/roastery-backend/internal/remote"
	"github.com/angelmondragon/roastery-backend/internal/roasting"
	"github.com/angelmondragon/roastery-backend/internal/store"
	"github.com/angelmondragon/roastery-backend/pkg/config"
	"github.com/angelmondragon/roastery-backend/pkg/db"
	"github.com/angelmondragon/roastery-backend/pkg/logger"
	"github.com/angelmondragon/roastery-backend/pkg/metrics"
	"github.com/angelmondragon/roastery-backend/pkg/migrate"
	"github.com/angelmondragon/roastery-backend/pkg/outbox"
	"github.com/angelmondragon/roastery-backend/pkg/redis"
)

// App holds the process-wide components shared by the binaries.
type App struct {
	Config *config.Config
	Logger *logger.Logger

	Local    *db.Client
	Cache    *redis.Client
	Registry *store.Registry
	Writer   *store.Writer
	Hub      *live.Hub

	Outbox      *outbox.Repository
	DeadLetters *outbox.DLQRepository
	Remote      *remote.Manager
	Bridge      *cloudsync.Bridge

	Metrics     *prometheus.Registry
	SyncMetrics *metrics.SyncMetrics
	CronMetrics *metrics.CronJobMetrics
}

// New opens the local store, the optional cache and the remote mirror, in
// that order. Only a local store failure is fatal.
func New(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*App, error) {
	app := &App{
		Config:   cfg,
		Logger:   logg,
		Registry: store.Default(),
		Metrics:  prometheus.NewRegistry(),
	}
	app.Metrics.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	app.SyncMetrics = metrics.NewSyncMetrics(app.Metrics)
	app.CronMetrics = metrics.NewCronJobMetrics(app.Metrics)

	local, err := db.NewLocal(ctx, cfg.LocalDB, logg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap local store: %w", err)
	}
	app.Local = local
	if err := local.AutoMigrateLocal(ctx); err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("migrate local store: %w", err)
	}

	if cfg.Redis.Enabled() {
		cache, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("bootstrap redis: %w", err)
		}
		app.Cache = cache
	}

	app.Outbox = outbox.NewRepository(local.DB())
	app.DeadLetters = outbox.NewDLQRepository(local.DB())
	app.Hub = live.NewHub(local.DB(), app.Registry, logg)
	app.Writer = store.NewWriter(local, outbox.NewService(app.Outbox, logg), app.Hub)

	manager, err := remote.NewManager(remote.ManagerParams{
		Config:   cfg.Remote,
		Settings: remote.NewSettingsStore(local.DB()),
		Logger:   logg,
		Metrics:  app.SyncMetrics,
	})
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("build remote manager: %w", err)
	}
	manager.OnReady(func(ctx context.Context, client *db.Client) {
		if err := migrate.MaybeRunDev(ctx, cfg, logg, client); err != nil {
			logg.Error(ctx, "failed to run dev migrations", err)
		}
	})
	app.Remote = manager

	bridge, err := cloudsync.NewBridge(cloudsync.BridgeParams{
		Local:     local,
		Remote:    manager,
		Registry:  app.Registry,
		Notifier:  app.Hub,
		Logger:    logg,
		Metrics:   app.SyncMetrics,
		BatchSize: cfg.Sync.BatchSize,
	})
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("build sync bridge: %w", err)
	}
	app.Bridge = bridge
	manager.OnReady(func(ctx context.Context, _ *db.Client) {
		go app.pullAfterConnect(context.WithoutCancel(ctx))
	})

	if err := manager.Init(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) pullAfterConnect(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, pullAfterConnectTimeout)
	defer cancel()
	res := a.Bridge.PullFromCloud(ctx)
	if !res.OK {
		a.Logger.Warn(a.Logger.WithField(ctx, "reason", res.Message), "pull after connect failed")
		return
	}
	a.Logger.Info(a.Logger.WithField(ctx, "count", res.Count), "pulled remote mirror after connect")
}

// Router wires every domain service behind the HTTP routes.
func (a *App) Router() (http.Handler, error) {
	authSvc, err := auth.NewService(auth.ServiceParams{
		Remote:         a.Remote,
		Writer:         a.Writer,
		Pusher:         a.Bridge,
		Logger:         a.Logger,
		JWTConfig:      a.Config.JWT,
		PasswordConfig: a.Config.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("auth service: %w", err)
	}
	inventorySvc, err := inventory.NewService(a.Writer)
	if err != nil {
		return nil, fmt.Errorf("inventory service: %w", err)
	}
	roastingSvc, err := roasting.NewService(a.Writer)
	if err != nil {
		return nil, fmt.Errorf("roasting service: %w", err)
	}
	ordersSvc, err := orders.NewService(a.Writer)
	if err != nil {
		return nil, fmt.Errorf("orders service: %w", err)
	}
	expensesSvc, err := expenses.NewService(a.Writer)
	if err != nil {
		return nil, fmt.Errorf("expenses service: %w", err)
	}
	cuppingSvc, err := cupping.NewService(a.Writer)
	if err != nil {
		return nil, fmt.Errorf("cupping service: %w", err)
	}
	dashboardSvc, err := dashboard.NewService(a.Writer, nil)
	if err != nil {
		return nil, fmt.Errorf("dashboard service: %w", err)
	}
	backupSvc, err := backup.NewService(a.Writer, a.Registry, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("backup service: %w", err)
	}

	deps := routes.Deps{
		Config:      a.Config,
		Logger:      a.Logger,
		LocalDB:     a.Local,
		Metrics:     a.Metrics,
		Connection:  a.Remote,
		Sync:        a.Bridge,
		Outbox:      a.Outbox,
		DeadLetters: a.DeadLetters,
		Live:        a.Hub,
		Auth:        authSvc,
		Inventory:   inventorySvc,
		Roasting:    roastingSvc,
		Orders:      ordersSvc,
		Expenses:    expensesSvc,
		Cupping:     cuppingSvc,
		Dashboard:   dashboardSvc,
		Backup:      backupSvc,
	}
	// a typed nil would defeat the nil checks downstream
	if a.Cache != nil {
		deps.Cache = a.Cache
		deps.Idempotency = a.Cache
	}
	return routes.NewRouter(deps), nil
}

// Close releases the remote, cache and local connections.
func (a *App) Close() error {
	var err error
	if a.Remote != nil {
		err = multierr.Append(err, a.Remote.Close())
	}
	if a.Cache != nil {
		err = multierr.Append(err, a.Cache.Close())
	}
	if a.Local != nil {
		err = multierr.Append(err, a.Local.Close())
	}
	return err
}

const (
	shutdownTimeout         = 15 * time.Second
	pullAfterConnectTimeout = 5 * time.Minute
)

// Serve runs srv until ctx ends, then shuts it down gracefully.
func Serve(ctx context.Context, srv *http.Server, logg *logger.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	logg.Info(ctx, "shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
