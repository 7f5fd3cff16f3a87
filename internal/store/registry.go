// Package store exposes the synchronized collections of the local store by
// name, and the transactional write path every domain service goes through.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/roastery-backend/pkg/db/models"
)

// Rows is a batch of records belonging to one collection.
type Rows interface {
	Len() int
	Records() []models.Record
	Slice(from, to int) Rows
	IDs() []string
}

// Collection binds a table name to its model type. Every method works
// against whichever connection it is handed, local or remote.
type Collection interface {
	Name() string
	Load(ctx context.Context, db *gorm.DB) (Rows, error)
	Fetch(ctx context.Context, db *gorm.DB, id string) (Rows, error)
	Upsert(ctx context.Context, db *gorm.DB, rows Rows) error
	Delete(ctx context.Context, db *gorm.DB, id string) error
	Clear(ctx context.Context, db *gorm.DB) error
	Decode(raw json.RawMessage) (Rows, error)
	Empty() Rows
}

type rows[T models.Record] []T

func (r rows[T]) Len() int { return len(r) }

func (r rows[T]) Records() []models.Record {
	out := make([]models.Record, len(r))
	for i := range r {
		out[i] = r[i]
	}
	return out
}

func (r rows[T]) Slice(from, to int) Rows { return r[from:to] }

func (r rows[T]) IDs() []string {
	out := make([]string, len(r))
	for i := range r {
		out[i] = r[i].RecordID()
	}
	return out
}

type collection[T models.Record] struct {
	name string
}

// Of builds the collection for model type T.
func Of[T models.Record]() Collection {
	var zero T
	return collection[T]{name: zero.TableName()}
}

func (c collection[T]) Name() string { return c.name }

func (c collection[T]) Empty() Rows { return rows[T]{} }

func (c collection[T]) Load(ctx context.Context, db *gorm.DB) (Rows, error) {
	var out []T
	if err := db.WithContext(ctx).Order("id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("load %s: %w", c.name, err)
	}
	return rows[T](out), nil
}

func (c collection[T]) Fetch(ctx context.Context, db *gorm.DB, id string) (Rows, error) {
	var out []T
	if err := db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("fetch %s %s: %w", c.name, id, err)
	}
	return rows[T](out), nil
}

func (c collection[T]) Upsert(ctx context.Context, db *gorm.DB, batch Rows) error {
	if batch == nil || batch.Len() == 0 {
		return nil
	}
	typed, ok := batch.(rows[T])
	if !ok {
		return fmt.Errorf("upsert %s: rows belong to another collection", c.name)
	}
	values := []T(typed)
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&values).Error
	if err != nil {
		return fmt.Errorf("upsert %s: %w", c.name, err)
	}
	return nil
}

func (c collection[T]) Delete(ctx context.Context, db *gorm.DB, id string) error {
	if err := db.WithContext(ctx).Where("id = ?", id).Delete(new(T)).Error; err != nil {
		return fmt.Errorf("delete %s %s: %w", c.name, id, err)
	}
	return nil
}

func (c collection[T]) Clear(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).Where("1 = 1").Delete(new(T)).Error; err != nil {
		return fmt.Errorf("clear %s: %w", c.name, err)
	}
	return nil
}

func (c collection[T]) Decode(raw json.RawMessage) (Rows, error) {
	var out []T
	if len(raw) == 0 || string(raw) == "null" {
		return rows[T]{}, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.name, err)
	}
	return rows[T](out), nil
}

// Registry resolves collections by table name.
type Registry struct {
	ordered []Collection
	byName  map[string]Collection
}

// NewRegistry indexes the given collections; later duplicates are rejected.
func NewRegistry(collections ...Collection) (*Registry, error) {
	r := &Registry{byName: make(map[string]Collection, len(collections))}
	for _, c := range collections {
		key := normalize(c.Name())
		if _, exists := r.byName[key]; exists {
			return nil, fmt.Errorf("collection %q registered twice", c.Name())
		}
		r.byName[key] = c
		r.ordered = append(r.ordered, c)
	}
	return r, nil
}

// Default registers every synchronized collection.
func Default() *Registry {
	r, err := NewRegistry(
		Of[models.GreenCoffeeLot](),
		Of[models.RoastBatch](),
		Of[models.RoastedStock](),
		Of[models.RetailBagStock](),
		Of[models.Order](),
		Of[models.ProductionActivity](),
		Of[models.ProductionInventoryItem](),
		Of[models.Expense](),
		Of[models.CuppingSession](),
		Of[models.UserProfile](),
	)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup matches names case-insensitively.
func (r *Registry) Lookup(name string) (Collection, bool) {
	c, ok := r.byName[normalize(name)]
	return c, ok
}

func (r *Registry) All() []Collection {
	out := make([]Collection, len(r.ordered))
	copy(out, r.ordered)
	return out
}

func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.ordered))
	for _, c := range r.ordered {
		out = append(out, c.Name())
	}
	sort.Strings(out)
	return out
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
