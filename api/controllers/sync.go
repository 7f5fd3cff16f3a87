package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/roastery-backend/api/responses"
	"github.com/angelmondragon/roastery-backend/api/validators"
	"github.com/angelmondragon/roastery-backend/internal/cloudsync"
	"github.com/angelmondragon/roastery-backend/pkg/db/models"
	"github.com/angelmondragon/roastery-backend/pkg/logger"
	"github.com/angelmondragon/roastery-backend/pkg/outbox"
)

// Syncer runs the manual reconciliation passes.
type Syncer interface {
	PushToCloud(ctx context.Context) cloudsync.Result
	PullFromCloud(ctx context.Context) cloudsync.Result
}

type OutboxInspector interface {
	Stats(ctx context.Context) (outbox.Stats, error)
}

type DeadLetterLister interface {
	List(ctx context.Context, limit int) ([]models.SyncDeadLetter, error)
}

// SyncPush uploads every local record. The result reports failures in-band
// so the UI can show them next to the partial count.
func SyncPush(svc Syncer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "sync")
			return
		}
		responses.WriteSuccess(w, svc.PushToCloud(r.Context()))
	}
}

func SyncPull(svc Syncer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "sync")
			return
		}
		responses.WriteSuccess(w, svc.PullFromCloud(r.Context()))
	}
}

type outboxResponse struct {
	outbox.Stats
	Recent []models.SyncDeadLetter `json:"recent_dead_letters"`
}

// SyncOutbox reports queue depth plus the most recent dead letters.
func SyncOutbox(stats OutboxInspector, dlq DeadLetterLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if stats == nil {
			unavailable(w, r, logg, "outbox")
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 20, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		s, err := stats.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resp := outboxResponse{Stats: s, Recent: []models.SyncDeadLetter{}}
		if dlq != nil {
			letters, err := dlq.List(r.Context(), limit)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			resp.Recent = letters
		}
		responses.WriteSuccess(w, resp)
	}
}
