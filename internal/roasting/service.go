// Package roasting records roast batches and turns their output into stock.
package roasting

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/roastery-backend/internal/inventory"
	"github.com/angelmondragon/roastery-backend/internal/orders"
	"github.com/angelmondragon/roastery-backend/internal/repo"
	"github.com/angelmondragon/roastery-backend/internal/store"
	"github.com/angelmondragon/roastery-backend/pkg/db/models"
	"github.com/angelmondragon/roastery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/roastery-backend/pkg/errors"
)

// GreenTolerance is how far a roast may overdraw a green lot before it is rejected.
const GreenTolerance = 0.1

type RecordInput struct {
	GreenLotID   string     `json:"green_lot_id" validate:"required"`
	OrderID      *string    `json:"order_id"`
	GreenQtyKg   float64    `json:"green_qty_kg" validate:"gt=0"`
	RoastedQtyKg float64    `json:"roasted_qty_kg" validate:"gte=0"`
	Profile      string     `json:"profile"`
	RoastDate    *time.Time `json:"roast_date"`
}

// Outcome is everything one roast produced.
type Outcome struct {
	Batch    *models.RoastBatch     `json:"batch"`
	Order    *models.Order          `json:"order,omitempty"`
	Client   *models.RoastedStock   `json:"client_stock,omitempty"`
	Excess   *models.RoastedStock   `json:"excess_stock,omitempty"`
	GreenLot *models.GreenCoffeeLot `json:"green_lot"`
}

type ListFilter struct {
	ClientName string
	OrderID    string
	GreenLotID string
}

type Service interface {
	RecordRoast(ctx context.Context, actor string, input RecordInput) (*Outcome, error)
	Get(ctx context.Context, id string) (*models.RoastBatch, error)
	List(ctx context.Context, filter ListFilter) ([]models.RoastBatch, error)
}

type service struct {
	writer *store.Writer
}

func NewService(writer *store.Writer) (Service, error) {
	if writer == nil {
		return nil, errors.New("store writer required")
	}
	return &service{writer: writer}, nil
}

func (s *service) RecordRoast(ctx context.Context, actor string, input RecordInput) (*Outcome, error) {
	if strings.TrimSpace(input.GreenLotID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "green lot is required")
	}
	if input.GreenQtyKg <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "green quantity must be greater than zero")
	}
	if input.RoastedQtyKg < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "roasted quantity cannot be negative")
	}
	if input.RoastedQtyKg > input.GreenQtyKg {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "roasted quantity cannot exceed green quantity")
	}

	out := &Outcome{}
	err := s.writer.Run(ctx, actor, func(tx *store.Tx) error {
		lot, err := repo.Get[models.GreenCoffeeLot](tx.DB, input.GreenLotID, "green coffee lot")
		if err != nil {
			return err
		}
		if input.GreenQtyKg > lot.QuantityKg+GreenTolerance {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "roast needs %.3f kg but lot has %.3f kg", input.GreenQtyKg, lot.QuantityKg).
				WithDetails(map[string]any{"remaining_kg": lot.QuantityKg, "requested_kg": input.GreenQtyKg})
		}
		lot.QuantityKg = math.Max(0, round3(lot.QuantityKg-input.GreenQtyKg))
		if err := tx.Put(lot); err != nil {
			return err
		}
		out.GreenLot = lot

		batch := &models.RoastBatch{
			ID:            uuid.NewString(),
			GreenLotID:    lot.ID,
			ClientName:    lot.ClientName,
			Variety:       lot.Variety,
			GreenQtyKg:    input.GreenQtyKg,
			RoastedQtyKg:  input.RoastedQtyKg,
			WeightLossPct: WeightLossPct(input.GreenQtyKg, input.RoastedQtyKg),
			Profile:       strings.TrimSpace(input.Profile),
			RoastDate:     tx.Now(),
		}
		if input.RoastDate != nil {
			batch.RoastDate = input.RoastDate.UTC()
		}

		alloc := orders.RoastAllocation{ClientKg: input.RoastedQtyKg}
		if input.OrderID != nil && *input.OrderID != "" {
			order, err := repo.Get[models.Order](tx.DB, *input.OrderID, "order")
			if err != nil {
				return err
			}
			if alloc, err = orders.ApplyRoast(order, batch.ID, input.GreenQtyKg, input.RoastedQtyKg); err != nil {
				return err
			}
			if err := tx.Put(order); err != nil {
				return err
			}
			batch.OrderID = &order.ID
			batch.ClientName = order.ClientName
			out.Order = order
		}
		if err := tx.Put(batch); err != nil {
			return err
		}
		out.Batch = batch

		if alloc.ClientKg > 0 {
			out.Client = newStock(batch, alloc.ClientKg, false)
			if err := tx.Put(out.Client); err != nil {
				return err
			}
		}
		if alloc.ExcessKg > 0 {
			out.Excess = newStock(batch, alloc.ExcessKg, true)
			if err := tx.Put(out.Excess); err != nil {
				return err
			}
		}

		return inventory.LogActivity(tx, models.ProductionActivity{
			Kind:       enums.ActivityKindRoast,
			OrderID:    batch.OrderID,
			ClientName: batch.ClientName,
			QuantityKg: input.RoastedQtyKg,
			Notes:      batch.Variety,
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func newStock(batch *models.RoastBatch, kg float64, excess bool) *models.RoastedStock {
	return &models.RoastedStock{
		ID:             uuid.NewString(),
		RoastID:        batch.ID,
		OrderID:        batch.OrderID,
		Variety:        batch.Variety,
		ClientName:     batch.ClientName,
		IsExcess:       excess,
		TotalQtyKg:     kg,
		RemainingQtyKg: kg,
	}
}

func (s *service) Get(ctx context.Context, id string) (*models.RoastBatch, error) {
	return repo.Get[models.RoastBatch](s.writer.DB(ctx), id, "roast")
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.RoastBatch, error) {
	return repo.List[models.RoastBatch](s.writer.DB(ctx), repo.Filter{
		"client_name":  filter.ClientName,
		"order_id":     filter.OrderID,
		"green_lot_id": filter.GreenLotID,
	}, "roast_date DESC")
}

// WeightLossPct is the share of green weight lost in the roaster, 0 when nothing went in.
func WeightLossPct(greenKg, roastedKg float64) float64 {
	if greenKg <= 0 {
		return 0
	}
	return math.Round((greenKg-roastedKg)/greenKg*10000) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
