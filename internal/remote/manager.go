package remote

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/roastery-backend/pkg/config"
	"github.com/angelmondragon/roastery-backend/pkg/db"
	"github.com/angelmondragon/roastery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/roastery-backend/pkg/errors"
	"github.com/angelmondragon/roastery-backend/pkg/logger"
	"github.com/angelmondragon/roastery-backend/pkg/metrics"
)

// Dialer opens a remote client for dsn.
type Dialer func(ctx context.Context, dsn string) (*db.Client, error)

// ReadyHook runs after every successful (re)connection.
type ReadyHook func(ctx context.Context, client *db.Client)

// FeedListener follows channel on dsn until ctx ends.
type FeedListener func(ctx context.Context, dsn, channel string, handle ChangeHandler, onBadPayload func(string, error)) error

// ErrFeedReset is returned by Listen when the connection it followed was
// replaced. Callers should listen again once the manager is ready.
var ErrFeedReset = errors.New("remote change feed reset")

var allStates = []string{
	string(enums.ConnectionStateUnconfigured),
	string(enums.ConnectionStateConnecting),
	string(enums.ConnectionStateReady),
	string(enums.ConnectionStateError),
}

// Status is the externally visible connection state.
type Status struct {
	State       enums.ConnectionState `json:"state"`
	Endpoint    string                `json:"endpoint,omitempty"`
	Error       string                `json:"error,omitempty"`
	ConnectedAt *time.Time            `json:"connected_at,omitempty"`
}

type ManagerParams struct {
	Config   config.RemoteConfig
	Settings *SettingsStore
	Logger   *logger.Logger
	Metrics  *metrics.SyncMetrics
	Dial     Dialer
	Feed     FeedListener
}

// Manager owns the optional remote mirror connection. Callers never hold a
// client across a reconfiguration: they ask Current each time.
type Manager struct {
	cfg      config.RemoteConfig
	settings *SettingsStore
	logg     *logger.Logger
	metrics  *metrics.SyncMetrics
	dial     Dialer
	feed     FeedListener

	mu          sync.RWMutex
	state       enums.ConnectionState
	lastErr     error
	endpoint    string
	dsn         string
	client      *db.Client
	connectedAt *time.Time
	hooks       []ReadyHook
	feeds       map[uint64]context.CancelCauseFunc
	feedSeq     uint64
}

func NewManager(params ManagerParams) (*Manager, error) {
	if params.Settings == nil {
		return nil, errors.New("settings store is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	dial := params.Dial
	if dial == nil {
		cfg := params.Config
		logg := params.Logger
		dial = func(ctx context.Context, dsn string) (*db.Client, error) {
			return db.NewRemote(ctx, dsn, cfg, logg)
		}
	}
	feed := params.Feed
	if feed == nil {
		feed = listen
	}
	m := &Manager{
		cfg:      params.Config,
		settings: params.Settings,
		logg:     params.Logger,
		metrics:  params.Metrics,
		dial:     dial,
		feed:     feed,
		state:    enums.ConnectionStateUnconfigured,
		feeds:    make(map[uint64]context.CancelCauseFunc),
	}
	m.metrics.SetConnectionState(string(m.state), allStates...)
	return m, nil
}

// Init loads the persisted endpoint, seeding it from the environment on first
// boot, and connects when one is configured. A failed connection leaves the
// manager in the error state; the app keeps running local-only.
func (m *Manager) Init(ctx context.Context) error {
	stored, err := m.settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("load remote settings: %w", err)
	}
	if !stored.Configured() && m.cfg.Configured() {
		stored = Settings{URL: m.cfg.URL, AccessKey: m.cfg.AccessKey}
		if err := m.settings.Save(ctx, stored); err != nil {
			return fmt.Errorf("seed remote settings: %w", err)
		}
	}
	if !stored.Configured() {
		m.logg.Info(ctx, "remote mirror not configured; running local-only")
		return nil
	}
	if err := m.apply(stored); err != nil {
		m.fail(ctx, err)
		return nil
	}
	_ = m.Connect(ctx)
	return nil
}

// Configure validates and persists a new endpoint, then reconnects.
func (m *Manager) Configure(ctx context.Context, settings Settings) (Status, error) {
	if err := m.apply(settings); err != nil {
		return m.Status(), pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	if err := m.settings.Save(ctx, settings); err != nil {
		return m.Status(), pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save remote settings")
	}
	err := m.Connect(ctx)
	return m.Status(), err
}

func (m *Manager) apply(settings Settings) error {
	dsn, err := BuildDSN(settings.URL, settings.AccessKey)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.dsn = dsn
	m.endpoint = Redact(dsn)
	m.mu.Unlock()
	return nil
}

// Connect (re)opens the remote client and runs the ready hooks.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	dsn := m.dsn
	if dsn == "" {
		m.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeValidation, "remote mirror not configured")
	}
	previous := m.client
	m.client = nil
	m.setState(enums.ConnectionStateConnecting, nil)
	m.resetFeeds()
	m.mu.Unlock()

	if previous != nil {
		_ = previous.Close()
	}

	timeout := m.cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := m.dial(dialCtx, dsn)
	if err == nil {
		if pingErr := client.Ping(dialCtx); pingErr != nil {
			_ = client.Close()
			client, err = nil, pingErr
		}
	}
	if err != nil {
		m.fail(ctx, err)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "connect remote mirror")
	}

	now := time.Now().UTC()
	m.mu.Lock()
	if m.dsn != dsn {
		// reconfigured while dialing; the newer Connect wins
		m.mu.Unlock()
		_ = client.Close()
		return nil
	}
	m.client = client
	m.connectedAt = &now
	m.setState(enums.ConnectionStateReady, nil)
	hooks := append([]ReadyHook(nil), m.hooks...)
	endpoint := m.endpoint
	m.mu.Unlock()

	m.logg.Info(m.logg.WithField(ctx, "endpoint", endpoint), "remote mirror ready")
	for _, hook := range hooks {
		hook(ctx, client)
	}
	return nil
}

func (m *Manager) fail(ctx context.Context, err error) {
	m.mu.Lock()
	m.setState(enums.ConnectionStateError, err)
	endpoint := m.endpoint
	m.mu.Unlock()
	m.logg.Error(m.logg.WithField(ctx, "endpoint", endpoint), "remote mirror connection failed", err)
}

// setState requires m.mu held.
func (m *Manager) setState(state enums.ConnectionState, err error) {
	m.state = state
	m.lastErr = err
	if state != enums.ConnectionStateReady {
		m.connectedAt = nil
	}
	m.metrics.SetConnectionState(string(state), allStates...)
}

// OnReady registers a hook run after each successful connection.
func (m *Manager) OnReady(hook ReadyHook) {
	m.mu.Lock()
	m.hooks = append(m.hooks, hook)
	m.mu.Unlock()
}

// Current returns the live client when the manager is ready.
func (m *Manager) Current() (*db.Client, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state != enums.ConnectionStateReady || m.client == nil {
		return nil, false
	}
	return m.client, true
}

func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	status := Status{State: m.state, Endpoint: m.endpoint, ConnectedAt: m.connectedAt}
	if m.lastErr != nil {
		status.Error = m.lastErr.Error()
	}
	return status
}

// Listen follows the remote change feed until ctx ends. It returns an error
// when the manager is not ready or the feed connection drops, and
// ErrFeedReset when the manager reconnects or closes underneath it.
func (m *Manager) Listen(ctx context.Context, handle ChangeHandler) error {
	feedCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	m.mu.Lock()
	dsn, ready := m.dsn, m.state == enums.ConnectionStateReady
	if !ready {
		m.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeDependency, "remote mirror not ready")
	}
	m.feedSeq++
	id := m.feedSeq
	m.feeds[id] = cancel
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		delete(m.feeds, id)
		m.mu.Unlock()
	}()

	channel := m.cfg.NotifyChannel
	if channel == "" {
		channel = "roastery_changes"
	}
	err := m.feed(feedCtx, dsn, channel, handle, func(payload string, err error) {
		m.logg.Warn(m.logg.WithFields(ctx, map[string]any{"payload": payload, "error": err.Error()}), "ignoring malformed change notification")
	})
	if ctx.Err() == nil && errors.Is(context.Cause(feedCtx), ErrFeedReset) {
		return ErrFeedReset
	}
	return err
}

// resetFeeds requires m.mu held.
func (m *Manager) resetFeeds() {
	for id, cancel := range m.feeds {
		cancel(ErrFeedReset)
		delete(m.feeds, id)
	}
}

// Close drops the remote client, if any.
func (m *Manager) Close() error {
	m.mu.Lock()
	client := m.client
	m.client = nil
	m.resetFeeds()
	m.mu.Unlock()
	if client == nil {
		return nil
	}
	return client.Close()
}
