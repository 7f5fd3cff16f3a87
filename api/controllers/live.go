package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/angelmondragon/roastery-backend/api/responses"
	"github.com/angelmondragon/roastery-backend/api/validators"
	"github.com/angelmondragon/roastery-backend/internal/live"
	pkgerrors "github.com/angelmondragon/roastery-backend/pkg/errors"
	"github.com/angelmondragon/roastery-backend/pkg/logger"
)

const liveHeartbeat = 25 * time.Second

// Subscriber opens a live snapshot stream for a collection.
type Subscriber interface {
	Subscribe(ctx context.Context, collection string, predicate live.Predicate) (<-chan live.Snapshot, func(), error)
}

// LiveStream sends the collection's current snapshot as a server-sent event,
// then a new one after every change. ?field=&value= narrows the records.
func LiveStream(hub Subscriber, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if hub == nil {
			unavailable(w, r, logg, "live")
			return
		}
		collection, ok := pathID(w, r, logg, "collection")
		if !ok {
			return
		}
		var predicate live.Predicate
		if field := validators.QueryString(r, "field"); field != "" {
			predicate = live.FieldEquals(field, validators.QueryString(r, "value"))
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
			return
		}

		updates, cancel, err := hub.Subscribe(r.Context(), collection, predicate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer cancel()

		// the server's write timeout would otherwise cut the stream
		_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		heartbeat := time.NewTicker(liveHeartbeat)
		defer heartbeat.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case snap, open := <-updates:
				if !open {
					return
				}
				payload, err := json.Marshal(snap)
				if err != nil {
					if logg != nil {
						logg.Error(r.Context(), "live.encode_snapshot", err)
					}
					continue
				}
				if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", payload); err != nil {
					return
				}
				flusher.Flush()
			case <-heartbeat.C:
				if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}
