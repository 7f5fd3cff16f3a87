package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/roastery-backend/pkg/config"
	"github.com/angelmondragon/roastery-backend/pkg/enums"
	"github.com/angelmondragon/roastery-backend/pkg/logger"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		App:     config.AppConfig{Env: "dev", LocalMode: true},
		LocalDB: config.LocalDBConfig{Path: filepath.Join(t.TempDir(), "roastery.db")},
		Remote:  config.RemoteConfig{NotifyChannel: "roastery_changes"},
		JWT:     config.JWTConfig{Secret: "test-secret", Issuer: "roastery", ExpirationMinutes: 60},
		Sync:    config.SyncConfig{BatchSize: 10, PollIntervalMS: 50, MaxAttempts: 3, OutboxRetentionDays: 30},
		HTTP:    config.HTTPConfig{AllowedOrigins: []string{"*"}},
	}
}

func TestNewRunsLocalOnlyWithoutRemote(t *testing.T) {
	app, err := New(context.Background(), testConfig(t), logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	assert.Nil(t, app.Cache)
	assert.Equal(t, enums.ConnectionStateUnconfigured, app.Remote.Status().State)
	_, ok := app.Remote.Current()
	assert.False(t, ok)

	handler, err := app.Router()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/green-coffee", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewRejectsMissingLocalPath(t *testing.T) {
	cfg := testConfig(t)
	cfg.LocalDB.Path = ""
	_, err := New(context.Background(), cfg, logger.Nop())
	require.Error(t, err)
}

func TestSchedulerFallsBackToLocalLock(t *testing.T) {
	app, err := New(context.Background(), testConfig(t), logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	svc, err := app.scheduler()
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestRunWorkersStopsOnCancel(t *testing.T) {
	app, err := New(context.Background(), testConfig(t), logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.RunWorkers(ctx) }()
	cancel()
	require.NoError(t, <-done)
}

func TestIgnoreCanceled(t *testing.T) {
	assert.NoError(t, ignoreCanceled(context.Canceled))
	boom := errors.New("boom")
	assert.ErrorIs(t, ignoreCanceled(boom), boom)
}
