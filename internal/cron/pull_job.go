package cron

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/roastery-backend/internal/cloudsync"
	"github.com/angelmondragon/roastery-backend/pkg/logger"
)

type puller interface {
	PullFromCloud(ctx context.Context) cloudsync.Result
}

// NewPullJob refreshes the local store from the mirror on every cycle. It
// backstops the change feed for events missed while disconnected.
func NewPullJob(logg *logger.Logger, bridge puller) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if bridge == nil {
		return nil, fmt.Errorf("sync bridge required")
	}
	return &pullJob{logg: logg, bridge: bridge}, nil
}

type pullJob struct {
	logg   *logger.Logger
	bridge puller
}

func (j *pullJob) Name() string { return "remote-pull" }

func (j *pullJob) Run(ctx context.Context) error {
	res := j.bridge.PullFromCloud(ctx)
	if !res.OK {
		return errors.New(res.Message)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{"rows": res.Count, "note": res.Message}), "remote pull complete")
	return nil
}
