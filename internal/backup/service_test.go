package backup

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/roastery-backend/internal/store"
	"github.com/angelmondragon/roastery-backend/internal/store/storetest"
	"github.com/angelmondragon/roastery-backend/pkg/db/models"
	"github.com/angelmondragon/roastery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/roastery-backend/pkg/errors"
	"github.com/angelmondragon/roastery-backend/pkg/logger"
)

func newService(t *testing.T) (Service, *store.Writer) {
	t.Helper()
	w, _ := storetest.NewWriter(t)
	svc, err := NewService(w, store.Default(), logger.Nop())
	require.NoError(t, err)
	return svc, w
}

func seed(t *testing.T, w *store.Writer) {
	t.Helper()
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, w.Run(context.Background(), "", func(tx *store.Tx) error {
		for _, rec := range []store.Stamped{
			&models.GreenCoffeeLot{ID: "g1", ClientName: "Finca", Variety: "Geisha", QuantityKg: 30, EntryDate: now},
			&models.Order{ID: "o1", ClientName: "Cafe", Type: enums.OrderTypeSale, QuantityKg: 5, Status: enums.OrderStatusPending,
				Lines: []models.OrderLine{{Variety: "Geisha", QuantityKg: 5}}, RoastIDs: []string{"r1"}, OrderDate: now},
			&models.Expense{ID: "e1", Reason: "Gas", Amount: decimal.RequireFromString("1234.50"), Date: now, Status: enums.ExpenseStatusPaid},
		} {
			if err := tx.Put(rec); err != nil {
				return err
			}
		}
		return nil
	}))
}

func TestExportIncludesEveryCollection(t *testing.T) {
	svc, w := newService(t)
	seed(t, w)

	doc, err := svc.Export(context.Background())
	require.NoError(t, err)
	assert.Len(t, doc.Collections, len(store.Default().Names()))
	assert.JSONEq(t, "[]", string(doc.Collections["roasts"]))

	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	var flat map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &flat))
	assert.Contains(t, flat, "exported_at")
	assert.Contains(t, flat, "orders")
}

func TestExportImportRoundTrip(t *testing.T) {
	svc, w := newService(t)
	ctx := context.Background()
	seed(t, w)

	doc, err := svc.Export(ctx)
	require.NoError(t, err)
	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	t.Run("into another store", func(t *testing.T) {
		other, otherWriter := newService(t)
		require.NoError(t, otherWriter.Run(ctx, "", func(tx *store.Tx) error {
			return tx.Put(&models.GreenCoffeeLot{ID: "stale", ClientName: "X", Variety: "Y", QuantityKg: 1, EntryDate: time.Now().UTC()})
		}))

		var decoded Document
		require.NoError(t, json.Unmarshal(raw, &decoded))
		res, err := other.Import(ctx, "", &decoded)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Restored["green_coffee"])
		assert.Equal(t, 0, res.Restored["roasts"])

		again, err := other.Export(ctx)
		require.NoError(t, err)
		for name, want := range doc.Collections {
			assert.JSONEq(t, string(want), string(again.Collections[name]), name)
		}
	})
}

func TestImportIgnoresUnknownAndRejectsBadData(t *testing.T) {
	svc, w := newService(t)
	ctx := context.Background()
	seed(t, w)

	res, err := svc.Import(ctx, "", &Document{Collections: map[string]json.RawMessage{
		"orders":   json.RawMessage(`[]`),
		"invoices": json.RawMessage(`[{"id":"x"}]`),
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"invoices"}, res.Ignored)
	var lots int64
	w.DB(ctx).Model(&models.GreenCoffeeLot{}).Count(&lots)
	assert.Zero(t, lots, "collections missing from the document are cleared")

	seed(t, w)
	_, err = svc.Import(ctx, "", &Document{Collections: map[string]json.RawMessage{"orders": json.RawMessage(`{"id":1}`)}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	w.DB(ctx).Model(&models.GreenCoffeeLot{}).Count(&lots)
	assert.Equal(t, int64(1), lots, "a rejected import leaves the store untouched")
}
