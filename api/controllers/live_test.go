package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/roastery-backend/internal/live"
	"github.com/angelmondragon/roastery-backend/internal/remote"
	"github.com/angelmondragon/roastery-backend/pkg/db/models"
	"github.com/angelmondragon/roastery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/roastery-backend/pkg/errors"
	"github.com/angelmondragon/roastery-backend/pkg/logger"
)

type onceSubscriber struct {
	gotCollection string
	gotPredicate  bool
	snapshot      live.Snapshot
}

func (s *onceSubscriber) Subscribe(_ context.Context, collection string, predicate live.Predicate) (<-chan live.Snapshot, func(), error) {
	s.gotCollection = collection
	s.gotPredicate = predicate != nil
	ch := make(chan live.Snapshot, 1)
	ch <- s.snapshot
	close(ch)
	return ch, func() {}, nil
}

func TestLiveStreamWritesSnapshotEvents(t *testing.T) {
	sub := &onceSubscriber{snapshot: live.Snapshot{
		Collection: "orders",
		Records:    []models.Record{models.Order{ID: "o-1", ClientName: "Cafe Sol"}},
		At:         time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}}
	r := chi.NewRouter()
	r.Get("/live/{collection}", LiveStream(sub, logger.Nop()))

	req := httptest.NewRequest(http.MethodGet, "/live/orders?field=client_name&value=Cafe%20Sol", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "text/event-stream", resp.Header().Get("Content-Type"))
	require.Equal(t, "orders", sub.gotCollection)
	require.True(t, sub.gotPredicate)
	body := resp.Body.String()
	require.True(t, strings.HasPrefix(body, "event: snapshot\ndata: "), body)
	require.Contains(t, body, `"o-1"`)
}

type fakeConnection struct {
	status       remote.Status
	configureErr error
	saved        remote.Settings
}

func (f *fakeConnection) Status() remote.Status { return f.status }

func (f *fakeConnection) Configure(_ context.Context, settings remote.Settings) (remote.Status, error) {
	f.saved = settings
	return f.status, f.configureErr
}

func (f *fakeConnection) Connect(context.Context) error { return f.configureErr }

func TestConnectionConfigureReportsDialFailureInStatus(t *testing.T) {
	mgr := &fakeConnection{
		status:       remote.Status{State: enums.ConnectionStateError, Error: "connection refused"},
		configureErr: pkgerrors.New(pkgerrors.CodeDependency, "connect remote mirror"),
	}
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"url":" postgres://mirror:5432/roastery ","access_key":"k"}`))
	resp := httptest.NewRecorder()
	ConnectionConfigure(mgr, logger.Nop())(resp, req)

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	require.Equal(t, "postgres://mirror:5432/roastery", mgr.saved.URL)
	require.Contains(t, resp.Body.String(), "connection refused")
}

func TestConnectionConfigureRejectsInvalidEndpoint(t *testing.T) {
	mgr := &fakeConnection{configureErr: pkgerrors.New(pkgerrors.CodeValidation, "unsupported scheme")}
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"url":"mysql://nope"}`))
	resp := httptest.NewRecorder()
	ConnectionConfigure(mgr, logger.Nop())(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
}
