package live

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/roastery-backend/internal/store"
	"github.com/angelmondragon/roastery-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/roastery-backend/pkg/errors"
	"github.com/angelmondragon/roastery-backend/pkg/logger"
)

// Predicate filters the records a subscriber sees. Nil keeps everything.
type Predicate func(models.Record) bool

// Snapshot is the full, filtered content of a collection at one point in time.
type Snapshot struct {
	Collection string          `json:"collection"`
	Records    []models.Record `json:"records"`
	At         time.Time       `json:"at"`
}

type subscription struct {
	id         string
	collection string
	predicate  Predicate
	updates    chan Snapshot
}

// Hub re-queries a collection whenever it changes and hands each subscriber
// the latest matching snapshot. Slow subscribers only ever see the newest one.
type Hub struct {
	mu       sync.RWMutex
	db       *gorm.DB
	registry *store.Registry
	logg     *logger.Logger
	subs     map[string]map[string]*subscription
}

func NewHub(db *gorm.DB, registry *store.Registry, logg *logger.Logger) *Hub {
	return &Hub{
		db:       db,
		registry: registry,
		logg:     logg,
		subs:     make(map[string]map[string]*subscription),
	}
}

// Subscribe returns a channel that immediately receives the current snapshot
// and then one per change. The channel closes when ctx ends or cancel is called.
func (h *Hub) Subscribe(ctx context.Context, collection string, predicate Predicate) (<-chan Snapshot, func(), error) {
	c, ok := h.registry.Lookup(collection)
	if !ok {
		return nil, nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "unknown collection %q", collection)
	}

	sub := &subscription{
		id:         uuid.NewString(),
		collection: c.Name(),
		predicate:  predicate,
		updates:    make(chan Snapshot, 1),
	}

	h.mu.Lock()
	if h.subs[sub.collection] == nil {
		h.subs[sub.collection] = make(map[string]*subscription)
	}
	h.subs[sub.collection][sub.id] = sub
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[sub.collection], sub.id)
			h.mu.Unlock()
			close(sub.updates)
		})
	}
	go func() {
		<-ctx.Done()
		cancel()
	}()

	if err := h.refresh(ctx, sub.collection, []*subscription{sub}); err != nil {
		cancel()
		return nil, nil, err
	}
	return sub.updates, cancel, nil
}

// Notify pushes fresh snapshots to every subscriber of the named collections.
func (h *Hub) Notify(collections ...string) {
	for _, name := range collections {
		c, ok := h.registry.Lookup(name)
		if !ok {
			continue
		}
		h.mu.RLock()
		targets := make([]*subscription, 0, len(h.subs[c.Name()]))
		for _, sub := range h.subs[c.Name()] {
			targets = append(targets, sub)
		}
		h.mu.RUnlock()
		if len(targets) == 0 {
			continue
		}
		if err := h.refresh(context.Background(), c.Name(), targets); err != nil && h.logg != nil {
			h.logg.Error(h.logg.WithCollection(context.Background(), c.Name()), "live snapshot refresh failed", err)
		}
	}
}

// Subscribers reports how many subscriptions watch collection.
func (h *Hub) Subscribers(collection string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[collection])
}

func (h *Hub) refresh(ctx context.Context, collection string, targets []*subscription) error {
	c, _ := h.registry.Lookup(collection)
	loaded, err := c.Load(ctx, h.db)
	if err != nil {
		return err
	}
	records := loaded.Records()
	at := time.Now().UTC()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range targets {
		if _, alive := h.subs[collection][sub.id]; !alive {
			continue
		}
		snap := Snapshot{Collection: collection, Records: filter(records, sub.predicate), At: at}
		deliver(sub.updates, snap)
	}
	return nil
}

// deliver replaces any undelivered snapshot with snap.
func deliver(ch chan Snapshot, snap Snapshot) {
	for {
		select {
		case ch <- snap:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func filter(records []models.Record, predicate Predicate) []models.Record {
	out := make([]models.Record, 0, len(records))
	for _, rec := range records {
		if predicate == nil || predicate(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// FieldEquals matches records whose JSON field equals value, compared as text.
func FieldEquals(field, value string) Predicate {
	return func(rec models.Record) bool {
		raw, err := json.Marshal(rec)
		if err != nil {
			return false
		}
		var fields map[string]any
		if err := json.Unmarshal(raw, &fields); err != nil {
			return false
		}
		got, ok := fields[field]
		if !ok || got == nil {
			return false
		}
		return fmt.Sprint(got) == value
	}
}
