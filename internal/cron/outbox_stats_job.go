package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/roastery-backend/pkg/logger"
	"github.com/angelmondragon/roastery-backend/pkg/outbox"
)

type statsSource interface {
	Stats(ctx context.Context) (outbox.Stats, error)
}

type pendingGauge interface {
	SetPending(n int64)
}

// NewOutboxStatsJob publishes the outbox backlog to the pending gauge and
// warns when rows started failing.
func NewOutboxStatsJob(logg *logger.Logger, source statsSource, gauge pendingGauge) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if source == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	return &outboxStatsJob{logg: logg, source: source, gauge: gauge}, nil
}

type outboxStatsJob struct {
	logg   *logger.Logger
	source statsSource
	gauge  pendingGauge
}

func (j *outboxStatsJob) Name() string { return "outbox-stats" }

func (j *outboxStatsJob) Run(ctx context.Context) error {
	stats, err := j.source.Stats(ctx)
	if err != nil {
		return fmt.Errorf("outbox stats: %w", err)
	}
	if j.gauge != nil {
		j.gauge.SetPending(stats.Pending)
	}
	if stats.Failing > 0 || stats.DeadLetters > 0 {
		j.logg.Warn(j.logg.WithFields(ctx, map[string]any{
			"pending":      stats.Pending,
			"failing":      stats.Failing,
			"dead_letters": stats.DeadLetters,
		}), "outbox has failing rows")
	}
	return nil
}
