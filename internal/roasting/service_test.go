package roasting

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/roastery-backend/internal/store"
	"github.com/angelmondragon/roastery-backend/internal/store/storetest"
	"github.com/angelmondragon/roastery-backend/pkg/db/models"
	"github.com/angelmondragon/roastery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/roastery-backend/pkg/errors"
)

func setup(t *testing.T) (Service, *store.Writer) {
	t.Helper()
	w, _ := storetest.NewWriter(t)
	svc, err := NewService(w)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	seed(t, w, &models.GreenCoffeeLot{ID: "g1", ClientName: "Finca Alta", Variety: "Geisha", QuantityKg: 200, EntryDate: time.Now().UTC()})
	return svc, w
}

func seed(t *testing.T, w *store.Writer, rec store.Stamped) {
	t.Helper()
	if err := w.Run(context.Background(), "", func(tx *store.Tx) error { return tx.Put(rec) }); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func stocks(t *testing.T, w *store.Writer) []models.RoastedStock {
	t.Helper()
	var out []models.RoastedStock
	if err := w.DB(context.Background()).Order("is_excess").Find(&out).Error; err != nil {
		t.Fatalf("load stock: %v", err)
	}
	return out
}

func TestWeightLossPct(t *testing.T) {
	if got := WeightLossPct(10, 8.5); got != 15 {
		t.Fatalf("expected 15, got %v", got)
	}
	if got := WeightLossPct(0, 0); got != 0 {
		t.Fatalf("expected 0 for empty roast, got %v", got)
	}
}

func TestRecordRoastWithoutOrderStocksEverything(t *testing.T) {
	svc, w := setup(t)
	out, err := svc.RecordRoast(context.Background(), "", RecordInput{GreenLotID: "g1", GreenQtyKg: 20, RoastedQtyKg: 17, Profile: " medio "})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if out.GreenLot.QuantityKg != 180 || out.Batch.WeightLossPct != 15 || out.Batch.Profile != "medio" {
		t.Fatalf("unexpected outcome %+v %+v", out.GreenLot, out.Batch)
	}
	if out.Client == nil || out.Client.RemainingQtyKg != 17 || out.Client.ClientName != "Finca Alta" || out.Excess != nil {
		t.Fatalf("unexpected stock %+v %+v", out.Client, out.Excess)
	}
	if got := stocks(t, w); len(got) != 1 {
		t.Fatalf("expected one stock row, got %d", len(got))
	}
}

func TestRecordRoastServiceOrderProgress(t *testing.T) {
	svc, w := setup(t)
	ctx := context.Background()
	seed(t, w, &models.Order{ID: "o1", ClientName: "Finca Alta", Type: enums.OrderTypeService, QuantityKg: 100, Status: enums.OrderStatusPending, OrderDate: time.Now().UTC()})
	id := "o1"

	out, err := svc.RecordRoast(ctx, "", RecordInput{GreenLotID: "g1", OrderID: &id, GreenQtyKg: 60, RoastedQtyKg: 51})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if out.Order.Status != enums.OrderStatusInProduction || out.Order.Progress != 60 {
		t.Fatalf("expected 60%% in production, got %s %d", out.Order.Status, out.Order.Progress)
	}

	out, err = svc.RecordRoast(ctx, "", RecordInput{GreenLotID: "g1", OrderID: &id, GreenQtyKg: 45, RoastedQtyKg: 38})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if out.Order.Status != enums.OrderStatusInProduction || out.Order.Progress != 100 {
		t.Fatalf("expected 100%% in production, got %s %d", out.Order.Status, out.Order.Progress)
	}
	if out.Excess != nil || out.Client.RemainingQtyKg != 38 {
		t.Fatalf("service output belongs to the client, got %+v %+v", out.Client, out.Excess)
	}
	if len(out.Order.RoastIDs) != 2 || out.Order.RoastIDs[1] != out.Batch.ID {
		t.Fatalf("roast ids not recorded: %v", out.Order.RoastIDs)
	}
}

func TestRecordRoastSalesOrderSplitsExcess(t *testing.T) {
	svc, w := setup(t)
	seed(t, w, &models.Order{ID: "o1", ClientName: "Cafe Sur", Type: enums.OrderTypeSale, QuantityKg: 10, AccumulatedRoastedKg: 7, Status: enums.OrderStatusInProduction, OrderDate: time.Now().UTC()})
	id := "o1"

	out, err := svc.RecordRoast(context.Background(), "", RecordInput{GreenLotID: "g1", OrderID: &id, GreenQtyKg: 6, RoastedQtyKg: 5})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if out.Client.RemainingQtyKg != 3 || out.Excess == nil || out.Excess.RemainingQtyKg != 2 || !out.Excess.IsExcess {
		t.Fatalf("expected 3kg client and 2kg excess, got %+v %+v", out.Client, out.Excess)
	}
	if out.Client.ClientName != "Cafe Sur" || out.Excess.ClientName != "Cafe Sur" {
		t.Fatalf("stock carries the order client")
	}
	if out.Order.Status != enums.OrderStatusReady || out.Order.Progress != 100 {
		t.Fatalf("expected ready, got %s %d", out.Order.Status, out.Order.Progress)
	}
	if got := stocks(t, w); len(got) != 2 {
		t.Fatalf("expected two stock rows, got %d", len(got))
	}
}

func TestRecordRoastGreenTolerance(t *testing.T) {
	svc, w := setup(t)
	ctx := context.Background()
	seed(t, w, &models.GreenCoffeeLot{ID: "g2", ClientName: "Finca", Variety: "Bourbon", QuantityKg: 5, EntryDate: time.Now().UTC()})

	if _, err := svc.RecordRoast(ctx, "", RecordInput{GreenLotID: "g2", GreenQtyKg: 5.5, RoastedQtyKg: 4}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	out, err := svc.RecordRoast(ctx, "", RecordInput{GreenLotID: "g2", GreenQtyKg: 5.05, RoastedQtyKg: 4})
	if err != nil {
		t.Fatalf("within tolerance: %v", err)
	}
	if out.GreenLot.QuantityKg != 0 {
		t.Fatalf("green lot floors at zero, got %v", out.GreenLot.QuantityKg)
	}
}

func TestRecordRoastRejectsShippedOrderAtomically(t *testing.T) {
	svc, w := setup(t)
	ctx := context.Background()
	seed(t, w, &models.Order{ID: "o1", ClientName: "Cafe Sur", Type: enums.OrderTypeSale, QuantityKg: 10, Status: enums.OrderStatusShipped, OrderDate: time.Now().UTC()})
	id := "o1"

	_, err := svc.RecordRoast(ctx, "", RecordInput{GreenLotID: "g1", OrderID: &id, GreenQtyKg: 10, RoastedQtyKg: 8})
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	var lot models.GreenCoffeeLot
	if err := w.DB(ctx).First(&lot, "id = ?", "g1").Error; err != nil || lot.QuantityKg != 200 {
		t.Fatalf("green lot must be untouched, got %+v %v", lot, err)
	}
	roasts, _ := svc.List(ctx, ListFilter{})
	if len(roasts) != 0 || len(stocks(t, w)) != 0 {
		t.Fatalf("nothing may persist after a rejected roast")
	}
}

func TestRecordRoastValidation(t *testing.T) {
	svc, _ := setup(t)
	cases := []RecordInput{
		{GreenQtyKg: 1},
		{GreenLotID: "g1"},
		{GreenLotID: "g1", GreenQtyKg: 1, RoastedQtyKg: -1},
		{GreenLotID: "g1", GreenQtyKg: 1, RoastedQtyKg: 2},
	}
	for i, in := range cases {
		if _, err := svc.RecordRoast(context.Background(), "", in); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
	if _, err := svc.RecordRoast(context.Background(), "", RecordInput{GreenLotID: "missing", GreenQtyKg: 1}); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListAndGet(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	out, err := svc.RecordRoast(ctx, "", RecordInput{GreenLotID: "g1", GreenQtyKg: 2, RoastedQtyKg: 1.7})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	got, err := svc.Get(ctx, out.Batch.ID)
	if err != nil || got.GreenLotID != "g1" {
		t.Fatalf("get: %+v %v", got, err)
	}
	list, err := svc.List(ctx, ListFilter{ClientName: "Finca Alta"})
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %d %v", len(list), err)
	}
	list, _ = svc.List(ctx, ListFilter{ClientName: "Otro"})
	if len(list) != 0 {
		t.Fatalf("client filter failed")
	}
}
