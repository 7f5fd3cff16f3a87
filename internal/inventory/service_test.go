package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/roastery-backend/internal/store"
	"github.com/angelmondragon/roastery-backend/internal/store/storetest"
	"github.com/angelmondragon/roastery-backend/pkg/db"
	"github.com/angelmondragon/roastery-backend/pkg/db/models"
	"github.com/angelmondragon/roastery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/roastery-backend/pkg/errors"
)

func newTestService(t *testing.T) (Service, *store.Writer, *db.Client) {
	t.Helper()
	w, client := storetest.NewWriter(t)
	svc, err := NewService(w)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, w, client
}

func seedRoasted(t *testing.T, w *store.Writer, id string, remaining float64, excess bool) {
	t.Helper()
	err := w.Run(context.Background(), "", func(tx *store.Tx) error {
		return tx.Put(&models.RoastedStock{
			ID:             id,
			RoastID:        "roast-" + id,
			Variety:        "Geisha",
			ClientName:     "Cafe Sur",
			IsExcess:       excess,
			TotalQtyKg:     remaining,
			RemainingQtyKg: remaining,
		})
	})
	if err != nil {
		t.Fatalf("seed roasted: %v", err)
	}
}

func seedUtility(t *testing.T, svc Service, name string, kind enums.InventoryKind, qty, threshold float64, format *enums.BagFormat) *models.ProductionInventoryItem {
	t.Helper()
	item, err := svc.CreateUtility(context.Background(), "", UtilityInput{Name: name, Kind: kind, Quantity: qty, MinThreshold: threshold, LinkedFormat: format})
	if err != nil {
		t.Fatalf("create utility: %v", err)
	}
	return item
}

func TestConvertToRetailShortfallReportsMaxBags(t *testing.T) {
	svc, w, _ := newTestService(t)
	seedRoasted(t, w, "s1", 1.0, false)

	_, err := svc.ConvertToRetail(context.Background(), "", "s1", RetailInput{Format: enums.BagFormat250g, Units: 5})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := pkgerrors.As(err).Details().(map[string]any)
	if !ok || details["max_bags"] != 4 {
		t.Fatalf("expected max_bags=4, got %v", pkgerrors.As(err).Details())
	}

	stock, err := loadRoasted(w, "s1")
	if err != nil || stock.RemainingQtyKg != 1.0 {
		t.Fatalf("stock must be untouched, got %+v %v", stock, err)
	}
}

func TestConvertToRetailMovesStockIntoBagsAndConsumesPackaging(t *testing.T) {
	svc, w, _ := newTestService(t)
	ctx := context.Background()
	seedRoasted(t, w, "s1", 2.0, false)
	format := enums.BagFormat250g
	bags := seedUtility(t, svc, "Bolsas 250g", enums.InventoryKindUnit, 3, 1, &format)

	res, err := svc.ConvertToRetail(ctx, "", "s1", RetailInput{Format: "250 G", Units: 4})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if res.Bag.Units != 4 || res.Bag.CoffeeName != "Geisha" || res.Bag.ClientName == nil || *res.Bag.ClientName != "Cafe Sur" {
		t.Fatalf("unexpected bag %+v", res.Bag)
	}
	if res.StockDepleted || res.Stock.RemainingQtyKg != 1.0 {
		t.Fatalf("expected 1kg left, got %+v", res.Stock)
	}

	res, err = svc.ConvertToRetail(ctx, "", "s1", RetailInput{Format: enums.BagFormat250g, Units: 4})
	if err != nil {
		t.Fatalf("second convert: %v", err)
	}
	if !res.StockDepleted || res.Bag.Units != 8 {
		t.Fatalf("expected depleted lot and merged bag, got %+v", res)
	}
	if _, err := loadRoasted(w, "s1"); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("depleted lot must be deleted, got %v", err)
	}

	items, err := svc.ListUtilities(ctx)
	if err != nil {
		t.Fatalf("list utilities: %v", err)
	}
	if len(items) != 1 || items[0].ID != bags.ID || items[0].Quantity != 0 {
		t.Fatalf("packaging must floor at zero, got %+v", items)
	}
}

func TestRecordSelectionAccumulatesLossAndDeletesEmptyLot(t *testing.T) {
	svc, w, _ := newTestService(t)
	ctx := context.Background()
	seedRoasted(t, w, "s1", 0.5, false)

	stock, err := svc.RecordSelection(ctx, "", "s1", SelectionInput{LossGrams: 200})
	if err != nil {
		t.Fatalf("selection: %v", err)
	}
	if !stock.IsSelected || stock.TechnicalLossGrams != 200 || stock.RemainingQtyKg != 0.3 {
		t.Fatalf("unexpected stock %+v", stock)
	}

	if _, err := svc.RecordSelection(ctx, "", "s1", SelectionInput{LossGrams: 300}); err != nil {
		t.Fatalf("selection: %v", err)
	}
	if _, err := loadRoasted(w, "s1"); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("lot at zero must be deleted, got %v", err)
	}

	acts, err := svc.ListActivities(ctx, ActivityFilter{Kind: enums.ActivityKindSelection})
	if err != nil || len(acts) != 2 {
		t.Fatalf("expected 2 selection activities, got %d %v", len(acts), err)
	}
}

func TestConsumeRetailBagsRejectsOverConsumption(t *testing.T) {
	svc, w, _ := newTestService(t)
	ctx := context.Background()
	seedRoasted(t, w, "s1", 1.0, true)
	res, err := svc.ConvertToRetail(ctx, "", "s1", RetailInput{Format: enums.BagFormat500g, Units: 2, CoffeeName: "Casa"})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if res.Bag.ClientName != nil {
		t.Fatalf("excess stock bags belong to the roastery")
	}

	if _, err := svc.ConsumeRetailBags(ctx, "", res.Bag.ID, 3); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	bag, err := svc.ConsumeRetailBags(ctx, "", res.Bag.ID, 2)
	if err != nil || bag.Units != 0 {
		t.Fatalf("consume: %+v %v", bag, err)
	}
	listed, _ := svc.ListRetailBags(ctx, RetailFilter{})
	if len(listed) != 0 {
		t.Fatalf("empty bags hidden by default, got %d", len(listed))
	}
}

func TestUtilityConsumeRechargeAndLowStock(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	gas := seedUtility(t, svc, "Gas", enums.InventoryKindPercentage, 30, 25, nil)
	liners := seedUtility(t, svc, "GrainPro", enums.InventoryKindUnit, 10, 5, nil)

	item, err := svc.ConsumeUtility(ctx, "", gas.ID, 50)
	if err != nil || item.Quantity != 0 {
		t.Fatalf("consume must floor at zero: %+v %v", item, err)
	}
	item, err = svc.RechargeUtility(ctx, "", gas.ID, 150)
	if err != nil || item.Quantity != 100 {
		t.Fatalf("percentage recharge must clamp at 100: %+v %v", item, err)
	}
	item, err = svc.RechargeUtility(ctx, "", liners.ID, 150)
	if err != nil || item.Quantity != 160 {
		t.Fatalf("unit recharge is unbounded: %+v %v", item, err)
	}
	if _, err := svc.ConsumeUtility(ctx, "", liners.ID, 158); err != nil {
		t.Fatalf("consume: %v", err)
	}

	low, err := svc.LowStock(ctx)
	if err != nil {
		t.Fatalf("low stock: %v", err)
	}
	if len(low) != 1 || low[0].ID != liners.ID {
		t.Fatalf("expected liners low, got %+v", low)
	}
}

func TestCreateUtilityValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	bad := enums.BagFormat("2kg")
	cases := []UtilityInput{
		{Kind: enums.InventoryKindUnit},
		{Name: "x", Kind: "liters"},
		{Name: "x", Kind: enums.InventoryKindPercentage, Quantity: 101},
		{Name: "x", Kind: enums.InventoryKindUnit, Quantity: -1},
		{Name: "x", Kind: enums.InventoryKindUnit, LinkedFormat: &bad},
	}
	for i, in := range cases {
		if _, err := svc.CreateUtility(context.Background(), "", in); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestGreenLotCRUD(t *testing.T) {
	svc, _, client := newTestService(t)
	ctx := context.Background()
	entry := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

	lot, err := svc.CreateGreenLot(ctx, "u1", GreenLotInput{ClientName: " Finca Alta ", Variety: "Caturra", EntryDate: &entry, QuantityKg: 69})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if lot.ClientName != "Finca Alta" {
		t.Fatalf("expected trimmed client name, got %q", lot.ClientName)
	}

	if _, err := svc.UpdateGreenLot(ctx, "u1", lot.ID, GreenLotInput{ClientName: "Finca Alta", Variety: "Caturra", QuantityKg: 60}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := svc.GetGreenLot(ctx, lot.ID)
	if err != nil || got.QuantityKg != 60 || !got.EntryDate.Equal(entry) {
		t.Fatalf("unexpected lot %+v %v", got, err)
	}

	lots, err := svc.ListGreenLots(ctx, GreenLotFilter{ClientName: "Finca Alta"})
	if err != nil || len(lots) != 1 {
		t.Fatalf("list: %d %v", len(lots), err)
	}

	if err := svc.DeleteGreenLot(ctx, "u1", lot.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetGreenLot(ctx, lot.ID); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	var ops []string
	if err := client.DB().Model(&models.SyncOutbox{}).Order("created_at").Pluck("op", &ops).Error; err != nil {
		t.Fatalf("outbox: %v", err)
	}
	if len(ops) < 2 || ops[len(ops)-1] != string(enums.SyncOpDelete) {
		t.Fatalf("expected delete queued last, got %v", ops)
	}

	if _, err := svc.CreateGreenLot(ctx, "", GreenLotInput{Variety: "x"}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func loadRoasted(w *store.Writer, id string) (*models.RoastedStock, error) {
	var out *models.RoastedStock
	err := w.Run(context.Background(), "", func(tx *store.Tx) error {
		var err error
		out, err = LoadRoasted(tx, id)
		return err
	})
	return out, err
}
