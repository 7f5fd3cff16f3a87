package store

import (
	"context"
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/roastery-backend/pkg/db/dbtest"
	"github.com/angelmondragon/roastery-backend/pkg/db/models"
	"github.com/angelmondragon/roastery-backend/pkg/enums"
)

func TestDefaultRegistryMatchesSyncedModels(t *testing.T) {
	reg := Default()
	synced := models.SyncedModels()
	require.Len(t, reg.All(), len(synced))
	for _, m := range synced {
		name := m.(models.Record).TableName()
		c, ok := reg.Lookup(name)
		require.True(t, ok, name)
		require.Equal(t, name, c.Name())
	}
}

func TestLookupIsCaseInsensitive(t *testing.T) {
	reg := Default()
	c, ok := reg.Lookup("  Roasted_Stock ")
	require.True(t, ok)
	require.Equal(t, "roasted_stock", c.Name())

	_, ok = reg.Lookup("invoices")
	require.False(t, ok)
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(Of[models.Order](), Of[models.Order]())
	require.Error(t, err)
}

func TestCollectionUpsertFetchDelete(t *testing.T) {
	ctx := context.Background()
	conn := dbtest.NewLocal(t).DB()
	c := Of[models.GreenCoffeeLot]()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	lot := models.GreenCoffeeLot{ID: "lot-1", ClientName: "Finca Alta", Variety: "Caturra", EntryDate: now, QuantityKg: 70}
	lot.Touch(now)
	require.NoError(t, c.Upsert(ctx, conn, rows[models.GreenCoffeeLot]{lot}))

	lot.QuantityKg = 40
	lot.Touch(now.Add(time.Hour))
	require.NoError(t, c.Upsert(ctx, conn, rows[models.GreenCoffeeLot]{lot}))

	got, err := c.Fetch(ctx, conn, "lot-1")
	require.NoError(t, err)
	require.Equal(t, 1, got.Len())
	require.Equal(t, 40.0, got.Records()[0].(models.GreenCoffeeLot).QuantityKg)

	require.NoError(t, c.Delete(ctx, conn, "lot-1"))
	got, err = c.Fetch(ctx, conn, "lot-1")
	require.NoError(t, err)
	require.Zero(t, got.Len())
}

func TestCollectionUpsertRejectsForeignRows(t *testing.T) {
	conn := dbtest.NewLocal(t).DB()
	err := Of[models.Order]().Upsert(context.Background(), conn, rows[models.Expense]{{ID: "e"}})
	require.Error(t, err)
}

func TestCollectionDecodeRoundTripsJSONColumns(t *testing.T) {
	c := Of[models.Order]()
	order := models.Order{
		ID:                  "o-1",
		ClientName:          "Cafe Sur",
		Type:                enums.OrderTypeSale,
		Status:              enums.OrderStatusPending,
		QuantityKg:          12,
		Lines:               []models.OrderLine{{Variety: "Geisha", QuantityKg: 12}},
		CompletedActivities: []string{"roast"},
	}
	raw, err := json.Marshal([]models.Order{order})
	require.NoError(t, err)

	decoded, err := c.Decode(raw)
	require.NoError(t, err)
	require.Equal(t, []string{"o-1"}, decoded.IDs())
	got := decoded.Records()[0].(models.Order)
	require.True(t, reflect.DeepEqual(order.Lines, got.Lines))
	require.True(t, got.HasActivity("roast"))

	empty, err := c.Decode(json.RawMessage("null"))
	require.NoError(t, err)
	require.Zero(t, empty.Len())
}

func TestRowsSlice(t *testing.T) {
	r := rows[models.Expense]{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	require.Equal(t, []string{"b", "c"}, r.Slice(1, 3).IDs())
}
