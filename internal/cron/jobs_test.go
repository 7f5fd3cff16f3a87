package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/roastery-backend/internal/cloudsync"
	"github.com/angelmondragon/roastery-backend/pkg/logger"
	"github.com/angelmondragon/roastery-backend/pkg/outbox"
)

type stubPuller struct {
	res   cloudsync.Result
	calls int
}

func (s *stubPuller) PullFromCloud(context.Context) cloudsync.Result {
	s.calls++
	return s.res
}

func TestPullJobReportsFailedPull(t *testing.T) {
	p := &stubPuller{res: cloudsync.Result{OK: false, Message: "connection refused"}}
	job, err := NewPullJob(logger.Nop(), p)
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if err := job.Run(context.Background()); err == nil || err.Error() != "connection refused" {
		t.Fatalf("expected pull error, got %v", err)
	}

	p.res = cloudsync.Result{OK: true, Count: 3}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if p.calls != 2 {
		t.Fatalf("expected 2 pulls, got %d", p.calls)
	}
}

type stubStats struct {
	stats outbox.Stats
	err   error
}

func (s stubStats) Stats(context.Context) (outbox.Stats, error) { return s.stats, s.err }

type recordingGauge struct{ value int64 }

func (g *recordingGauge) SetPending(n int64) { g.value = n }

func TestOutboxStatsJobSetsGauge(t *testing.T) {
	gauge := &recordingGauge{}
	job, err := NewOutboxStatsJob(logger.Nop(), stubStats{stats: outbox.Stats{Pending: 4, Failing: 1}}, gauge)
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if gauge.value != 4 {
		t.Fatalf("expected gauge 4, got %d", gauge.value)
	}

	failing, _ := NewOutboxStatsJob(logger.Nop(), stubStats{err: errors.New("locked")}, nil)
	if err := failing.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
