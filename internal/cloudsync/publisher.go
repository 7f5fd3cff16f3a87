package cloudsync

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/roastery-backend/internal/store"
	"github.com/angelmondragon/roastery-backend/pkg/config"
	"github.com/angelmondragon/roastery-backend/pkg/db"
	"github.com/angelmondragon/roastery-backend/pkg/db/models"
	"github.com/angelmondragon/roastery-backend/pkg/enums"
	"github.com/angelmondragon/roastery-backend/pkg/logger"
	"github.com/angelmondragon/roastery-backend/pkg/metrics"
	"github.com/angelmondragon/roastery-backend/pkg/outbox"
)

const (
	defaultPollMs      = 500
	defaultPushTimeout = 15 * time.Second
	defaultMaxAttempts = 10
	maxBackoff         = 10 * time.Second
	jitterWindow       = 250 * time.Millisecond
)

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

var errRecordMissing = errors.New("local record no longer exists")

type localClient interface {
	DB() *gorm.DB
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type remoteSource interface {
	Current() (*db.Client, bool)
}

type outboxRepository interface {
	FetchPending(ctx context.Context, limit, maxAttempts int) ([]models.SyncOutbox, error)
	PendingExistsTx(tx *gorm.DB, collection, recordID string, op string) (bool, error)
	MarkPublishedTx(tx *gorm.DB, id string) error
	MarkFailedTx(tx *gorm.DB, id string, err error) error
	MarkTerminalTx(tx *gorm.DB, id string, err error, terminalAttempts int) error
	Stats(ctx context.Context) (outbox.Stats, error)
}

type dlqRepository interface {
	InsertTx(tx *gorm.DB, entry models.SyncDeadLetter) error
}

type PublisherParams struct {
	Config        config.SyncConfig
	Logger        *logger.Logger
	Local         localClient
	Remote        remoteSource
	Repository    outboxRepository
	DLQRepository dlqRepository
	Registry      *store.Registry
	Metrics       *metrics.SyncMetrics
}

// Publisher drains the sync outbox into the remote mirror. Rows are pushed
// outside any local transaction; each outcome is recorded in its own short one.
type Publisher struct {
	logg         *logger.Logger
	local        localClient
	remote       remoteSource
	repo         outboxRepository
	dlq          dlqRepository
	registry     *store.Registry
	metrics      *metrics.SyncMetrics
	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
}

func NewPublisher(params PublisherParams) (*Publisher, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Local == nil {
		return nil, errors.New("local store is required")
	}
	if params.Remote == nil {
		return nil, errors.New("remote manager is required")
	}
	if params.Repository == nil {
		return nil, errors.New("outbox repository is required")
	}
	if params.DLQRepository == nil {
		return nil, errors.New("dlq repository is required")
	}
	registry := params.Registry
	if registry == nil {
		registry = store.Default()
	}

	batch := params.Config.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	pollMs := params.Config.PollIntervalMS
	if pollMs <= 0 {
		pollMs = defaultPollMs
	}
	maxAttempts := params.Config.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	return &Publisher{
		logg:         params.Logger,
		local:        params.Local,
		remote:       params.Remote,
		repo:         params.Repository,
		dlq:          params.DLQRepository,
		registry:     registry,
		metrics:      params.Metrics,
		batchSize:    batch,
		maxAttempts:  maxAttempts,
		pollInterval: pollDuration(pollMs),
	}, nil
}

func (p *Publisher) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	interval := p.pollInterval
	backoff := interval

	for {
		select {
		case <-ctx.Done():
			p.logg.Info(ctx, "sync publisher context canceled")
			return ctx.Err()
		default:
		}

		processed, err := p.ProcessBatch(ctx)
		if err != nil {
			p.logg.Error(ctx, "sync publisher batch error", err)
			backoff = nextBackoff(backoff, interval, maxBackoff)
			if err := p.sleep(ctx, withJitter(backoff)); err != nil {
				return err
			}
			continue
		}

		backoff = interval

		if processed {
			continue
		}

		if err := p.sleep(ctx, withJitter(interval)); err != nil {
			return err
		}
	}
}

// ProcessBatch pushes one batch. It reports whether any row was handled; an
// unavailable remote handles nothing and is not an error.
func (p *Publisher) ProcessBatch(ctx context.Context) (bool, error) {
	client, ok := p.remote.Current()
	if !ok {
		return false, nil
	}

	rows, err := p.repo.FetchPending(ctx, p.batchSize, p.maxAttempts)
	if err != nil {
		return false, fmt.Errorf("fetch pending sync rows: %w", err)
	}
	if len(rows) == 0 {
		p.refreshPending(ctx)
		return false, nil
	}

	failures := 0
	for _, row := range rows {
		fields := p.rowFields(row)
		c, found := p.registry.Lookup(row.Collection)
		if !found {
			err := fmt.Errorf("unknown collection %q", row.Collection)
			if markErr := p.handleTerminal(ctx, row, enums.DeadLetterReasonUnknownCollection, err, fields); markErr != nil {
				return true, markErr
			}
			continue
		}

		pushErr := p.push(ctx, client, c, row)
		p.metrics.IncPushed(c.Name(), string(row.Op), pushErr == nil)
		if errors.Is(pushErr, errRecordMissing) {
			if markErr := p.handleTerminal(ctx, row, enums.DeadLetterReasonRecordMissing, pushErr, fields); markErr != nil {
				return true, markErr
			}
			continue
		}
		if pushErr != nil {
			failures++
			nextAttempt := row.AttemptCount + 1
			fields["attempt_count"] = nextAttempt

			if nextAttempt >= p.maxAttempts {
				fields["terminal_reason"] = "max_attempts"
				terminalErr := fmt.Errorf("max push attempts reached: %w", pushErr)
				if markErr := p.handleTerminal(ctx, row, enums.DeadLetterReasonMaxAttempts, terminalErr, fields); markErr != nil {
					return true, markErr
				}
				continue
			}

			ctxWithFields := p.logg.WithFields(ctx, fields)
			ctxWithFields = p.logg.WithField(ctxWithFields, "error", pushErr.Error())
			p.logg.Warn(ctxWithFields, "sync push failed")
			if markErr := p.local.WithTx(ctx, func(tx *gorm.DB) error {
				return p.repo.MarkFailedTx(tx, row.ID, pushErr)
			}); markErr != nil {
				return true, fmt.Errorf("mark failure %s: %w", row.ID, markErr)
			}
			continue
		}

		if markErr := p.local.WithTx(ctx, func(tx *gorm.DB) error {
			return p.repo.MarkPublishedTx(tx, row.ID)
		}); markErr != nil {
			return true, fmt.Errorf("mark published %s: %w", row.ID, markErr)
		}
		p.logg.Debug(p.logg.WithFields(ctx, fields), "sync row pushed")
	}

	p.refreshPending(ctx)
	if failures == len(rows) {
		return true, fmt.Errorf("every push in the batch failed (%d rows)", failures)
	}
	return true, nil
}

func (p *Publisher) push(ctx context.Context, client *db.Client, c store.Collection, row models.SyncOutbox) error {
	pushCtx, cancel := context.WithTimeout(ctx, defaultPushTimeout)
	defer cancel()

	if row.Op == enums.SyncOpDelete {
		return c.Delete(pushCtx, client.DB(), row.RecordID)
	}

	rows, err := c.Fetch(ctx, p.local.DB(), row.RecordID)
	if err != nil {
		return err
	}
	if rows.Len() == 0 {
		// deleted after the upsert was queued; the pending delete row covers it
		var deleting bool
		err := p.local.WithTx(ctx, func(tx *gorm.DB) error {
			var err error
			deleting, err = p.repo.PendingExistsTx(tx, row.Collection, row.RecordID, string(enums.SyncOpDelete))
			return err
		})
		if err != nil {
			return err
		}
		if deleting {
			return nil
		}
		return errRecordMissing
	}
	return c.Upsert(pushCtx, client.DB(), rows)
}

func (p *Publisher) handleTerminal(ctx context.Context, row models.SyncOutbox, reason enums.DeadLetterReason, err error, fields map[string]any) error {
	fields["error_reason"] = reason
	ctxWithFields := p.logg.WithFields(ctx, fields)
	ctxWithFields = p.logg.WithField(ctxWithFields, "error", err.Error())
	p.logg.Warn(ctxWithFields, "sync row will not be retried")

	msg := err.Error()
	entry := models.SyncDeadLetter{
		ID:           row.ID,
		OutboxID:     row.ID,
		Collection:   row.Collection,
		RecordID:     row.RecordID,
		Op:           row.Op,
		Reason:       reason,
		ErrorMessage: &msg,
		AttemptCount: row.AttemptCount,
		FailedAt:     time.Now().UTC(),
	}
	return p.local.WithTx(ctx, func(tx *gorm.DB) error {
		if dlqErr := p.dlq.InsertTx(tx, entry); dlqErr != nil {
			return fmt.Errorf("insert dead letter %s: %w", row.ID, dlqErr)
		}
		if markErr := p.repo.MarkTerminalTx(tx, row.ID, err, p.maxAttempts); markErr != nil {
			return fmt.Errorf("mark terminal %s: %w", row.ID, markErr)
		}
		return nil
	})
}

func (p *Publisher) refreshPending(ctx context.Context) {
	if p.metrics == nil {
		return
	}
	stats, err := p.repo.Stats(ctx)
	if err != nil {
		return
	}
	p.metrics.SetPending(stats.Pending)
}

func (p *Publisher) rowFields(row models.SyncOutbox) map[string]any {
	fields := map[string]any{
		"outbox_id":     row.ID,
		"collection":    row.Collection,
		"record_id":     row.RecordID,
		"op":            row.Op,
		"batch_size":    p.batchSize,
		"attempt_count": row.AttemptCount,
	}
	if row.LastError != nil {
		fields["last_error"] = *row.LastError
	}
	return fields
}

func (p *Publisher) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base, max time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	jitter := time.Duration(jitterSource.Int63n(int64(jitterWindow)))
	return d + jitter
}

func pollDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
