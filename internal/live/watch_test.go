package live

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/roastery-backend/pkg/logger"
)

type recordingNotifier struct {
	mu    sync.Mutex
	calls [][]string
	ch    chan struct{}
}

func (r *recordingNotifier) Notify(collections ...string) {
	r.mu.Lock()
	r.calls = append(r.calls, collections)
	r.mu.Unlock()
	select {
	case r.ch <- struct{}{}:
	default:
	}
}

func TestStoreWatcherCoalescesWrites(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "roastery.db")
	require.NoError(t, os.WriteFile(dbPath, nil, 0o644))

	notifier := &recordingNotifier{ch: make(chan struct{}, 1)}
	w, err := NewStoreWatcher(dbPath, []string{"orders", "roasted_stock"}, notifier, logger.Nop())
	require.NoError(t, err)
	w.settle = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	// give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(dbPath+"-wal", []byte{byte(i)}, 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	select {
	case <-notifier.ch:
	case <-time.After(3 * time.Second):
		t.Fatal("expected a refresh after the writes settled")
	}

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	require.Len(t, notifier.calls, 1)
	require.Equal(t, []string{"orders", "roasted_stock"}, notifier.calls[0])
}

func TestNewStoreWatcherValidates(t *testing.T) {
	_, err := NewStoreWatcher(" ", nil, &recordingNotifier{}, nil)
	require.Error(t, err)
	_, err = NewStoreWatcher("roastery.db", nil, nil, nil)
	require.Error(t, err)
}
