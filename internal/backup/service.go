// Package backup exports every synchronized collection as one JSON document
// and restores such a document in a single local transaction.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/angelmondragon/roastery-backend/internal/store"
	pkgerrors "github.com/angelmondragon/roastery-backend/pkg/errors"
	"github.com/angelmondragon/roastery-backend/pkg/logger"
)

const (
	exportedAtKey   = "exported_at"
	insertBatchSize = 200
)

// Document is the decoded form of an export: one raw array per collection.
type Document struct {
	ExportedAt  time.Time
	Collections map[string]json.RawMessage
}

// MarshalJSON flattens the collections next to exported_at.
func (d Document) MarshalJSON() ([]byte, error) {
	flat := make(map[string]json.RawMessage, len(d.Collections)+1)
	for name, raw := range d.Collections {
		flat[name] = raw
	}
	stamp, err := json.Marshal(d.ExportedAt)
	if err != nil {
		return nil, err
	}
	flat[exportedAtKey] = stamp
	return json.Marshal(flat)
}

func (d *Document) UnmarshalJSON(data []byte) error {
	var flat map[string]json.RawMessage
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	d.Collections = make(map[string]json.RawMessage, len(flat))
	for key, raw := range flat {
		if key == exportedAtKey {
			if err := json.Unmarshal(raw, &d.ExportedAt); err != nil {
				return err
			}
			continue
		}
		d.Collections[key] = raw
	}
	return nil
}

// ImportResult counts the rows restored per collection.
type ImportResult struct {
	Restored map[string]int `json:"restored"`
	Ignored  []string       `json:"ignored,omitempty"`
}

type Service interface {
	Export(ctx context.Context) (*Document, error)
	Import(ctx context.Context, actor string, doc *Document) (*ImportResult, error)
}

type service struct {
	writer   *store.Writer
	registry *store.Registry
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(writer *store.Writer, registry *store.Registry, logg *logger.Logger) (Service, error) {
	if writer == nil {
		return nil, errors.New("store writer required")
	}
	if registry == nil {
		return nil, errors.New("collection registry required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &service{
		writer:   writer,
		registry: registry,
		logg:     logg,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Export(ctx context.Context) (*Document, error) {
	db := s.writer.DB(ctx)
	doc := &Document{ExportedAt: s.now(), Collections: map[string]json.RawMessage{}}
	for _, c := range s.registry.All() {
		rows, err := c.Load(ctx, db)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "export "+c.Name())
		}
		if rows.Len() == 0 {
			rows = c.Empty()
		}
		raw, err := json.Marshal(rows)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode "+c.Name())
		}
		doc.Collections[c.Name()] = raw
	}
	return doc, nil
}

// Import replaces every collection with the document's contents. A
// collection absent from the document ends up empty.
func (s *service) Import(ctx context.Context, actor string, doc *Document) (*ImportResult, error) {
	if doc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "backup document is required")
	}

	decoded := make(map[string]store.Rows, len(doc.Collections))
	result := &ImportResult{Restored: map[string]int{}}
	for name, raw := range doc.Collections {
		c, ok := s.registry.Lookup(name)
		if !ok {
			result.Ignored = append(result.Ignored, name)
			continue
		}
		rows, err := c.Decode(raw)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name+" data").
				WithDetails(map[string]any{"collection": name})
		}
		decoded[c.Name()] = rows
	}
	sort.Strings(result.Ignored)

	err := s.writer.Run(ctx, actor, func(tx *store.Tx) error {
		for _, c := range s.registry.All() {
			if err := c.Clear(ctx, tx.DB); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear "+c.Name())
			}
			rows, ok := decoded[c.Name()]
			if !ok {
				rows = c.Empty()
			}
			for from := 0; from < rows.Len(); from += insertBatchSize {
				to := min(from+insertBatchSize, rows.Len())
				if err := c.Upsert(ctx, tx.DB, rows.Slice(from, to)); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "restore "+c.Name())
				}
			}
			result.Restored[c.Name()] = rows.Len()
			tx.Touched(c.Name())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"collections": len(result.Restored),
		"ignored":     len(result.Ignored),
	}), "backup imported")
	return result, nil
}
