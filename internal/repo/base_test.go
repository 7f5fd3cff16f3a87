package repo

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/roastery-backend/pkg/db/dbtest"
	"github.com/angelmondragon/roastery-backend/pkg/db/models"
	"github.com/angelmondragon/roastery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/roastery-backend/pkg/errors"
)

func TestBaseDB_BindsContext(t *testing.T) {
	db := dbtest.NewLocal(t).DB()
	base := NewBase(db)

	ctx := context.WithValue(context.Background(), struct{}{}, "value")
	withCtx := base.DB(ctx)

	if withCtx.Statement == nil || withCtx.Statement.Context != ctx {
		t.Fatalf("expected context to flow through")
	}
	if base.DB(nil) != db {
		t.Fatalf("expected nil context to return raw connection")
	}
	if base.WithTx(nil).db != db {
		t.Fatalf("expected nil tx to keep the base connection")
	}
}

func TestGetMapsMissingRowToNotFound(t *testing.T) {
	db := dbtest.NewLocal(t).DB()

	_, err := Get[models.Order](db, "missing", "order")
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	_, err = Get[models.Order](db, "", "order")
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListSkipsZeroFilters(t *testing.T) {
	db := dbtest.NewLocal(t).DB()
	now := time.Now().UTC()
	for i, status := range []enums.ExpenseStatus{enums.ExpenseStatusPending, enums.ExpenseStatusPaid, enums.ExpenseStatusPending} {
		row := models.Expense{ID: string(rune('a' + i)), Reason: "gas", Date: now, Status: status}
		row.Touch(now)
		if err := db.Create(&row).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	all, err := List[models.Expense](db, Filter{"status": enums.ExpenseStatus(""), "order_id": ""}, "id ASC")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(all))
	}

	pending, err := List[models.Expense](db, Filter{"status": enums.ExpenseStatusPending}, "id ASC")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != "a" || pending[1].ID != "c" {
		t.Fatalf("unexpected pending rows: %+v", pending)
	}
}
