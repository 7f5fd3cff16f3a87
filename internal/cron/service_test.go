package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/roastery-backend/pkg/logger"
)

type fakeLock struct {
	acquired bool
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.acquired {
		return false, nil
	}
	f.acquired = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error { f.acquired = false; return nil }

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func TestServiceRunCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	registry := NewRegistry(&testJob{name: "success"}, &testJob{name: "fail", err: errors.New("boom")})
	service, err := NewService(ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     &fakeLock{},
		Interval: 0,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	ctx := context.Background()
	if err := service.runCycle(ctx); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	jobs := registry.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if success, ok := jobs[0].(*testJob); ok {
		if success.runs != 1 {
			t.Fatalf("expected success job to run once, ran %d", success.runs)
		}
	} else {
		t.Fatalf("first job type mismatch")
	}
	if failure, ok := jobs[1].(*testJob); ok {
		if failure.runs != 1 {
			t.Fatalf("expected failure job to run once, ran %d", failure.runs)
		}
	} else {
		t.Fatalf("second job type mismatch")
	}
}

type periodicJob struct {
	testJob
	every time.Duration
}

func (p *periodicJob) Every() time.Duration { return p.every }

func TestServiceSkipsPeriodicJobsUntilDue(t *testing.T) {
	job := &periodicJob{testJob: testJob{name: "daily"}, every: 24 * time.Hour}
	service, err := NewService(ServiceParams{Logger: logger.Nop(), Registry: NewRegistry(job), Lock: &LocalLock{}})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return now }
	ctx := context.Background()

	_ = service.runCycle(ctx)
	now = now.Add(time.Hour)
	_ = service.runCycle(ctx)
	if job.runs != 1 {
		t.Fatalf("expected one run within the period, got %d", job.runs)
	}
	now = now.Add(24 * time.Hour)
	_ = service.runCycle(ctx)
	if job.runs != 2 {
		t.Fatalf("expected a second run once due, got %d", job.runs)
	}
}

func TestLocalLockIsExclusive(t *testing.T) {
	lock := &LocalLock{}
	ctx := context.Background()
	if ok, _ := lock.Acquire(ctx); !ok {
		t.Fatal("first acquire must succeed")
	}
	if ok, _ := lock.Acquire(ctx); ok {
		t.Fatal("second acquire must fail while held")
	}
	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok, _ := lock.Acquire(ctx); !ok {
		t.Fatal("acquire after release must succeed")
	}
}
