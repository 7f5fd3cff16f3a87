package orders

import (
	"math"

	"github.com/angelmondragon/roastery-backend/pkg/db/models"
	"github.com/angelmondragon/roastery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/roastery-backend/pkg/errors"
)

const (
	// CompletionTolerance is how close an accumulated weight must get to the target.
	CompletionTolerance = 0.1
	// DispatchTolerance applies to shipped weight.
	DispatchTolerance = 0.01
)

var transitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:      {enums.OrderStatusInProduction, enums.OrderStatusReady},
	enums.OrderStatusInProduction: {enums.OrderStatusReady, enums.OrderStatusShipped},
	enums.OrderStatusReady:        {enums.OrderStatusShipped},
	enums.OrderStatusShipped:      {enums.OrderStatusInvoiced},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// transition moves order to status. Staying put is always allowed.
func transition(order *models.Order, to enums.OrderStatus) error {
	if order.Status == to {
		return nil
	}
	if !CanTransition(order.Status, to) {
		return pkgerrors.Newf(pkgerrors.CodeStateConflict, "order cannot move from %s to %s", order.Status, to).
			WithDetails(map[string]any{"from": order.Status, "to": to})
	}
	order.Status = to
	return nil
}

// raiseProgress only ever moves progress forward, capped at 100.
func raiseProgress(order *models.Order, pct int) {
	pct = min(max(pct, 0), 100)
	if pct > order.Progress {
		order.Progress = pct
	}
}

func percent(done, target float64) int {
	if target <= 0 {
		return 0
	}
	return int(math.Round(done / target * 100))
}

func markActivity(order *models.Order, kind enums.ActivityKind) {
	if !order.HasActivity(string(kind)) {
		order.CompletedActivities = append(order.CompletedActivities, string(kind))
	}
}

// producedKg is the weight counted toward the target so far.
func producedKg(order *models.Order) float64 {
	if order.Type.IsService() {
		return order.AccumulatedGreenKg
	}
	return math.Max(order.AccumulatedRoastedKg, order.FulfilledKg)
}

// retarget changes the target weight and re-evaluates progress and status
// against what was already produced. Progress never moves back, so once
// production started a target can only shrink toward the produced weight.
func retarget(order *models.Order, qty float64) error {
	if math.Abs(qty-order.QuantityKg) < 1e-9 {
		return nil
	}
	if order.Status.Dispatched() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "quantity is fixed once the order ships")
	}
	if order.ShippedKg > 0 && qty < order.ShippedKg-DispatchTolerance {
		return pkgerrors.Newf(pkgerrors.CodeStateConflict, "quantity cannot drop below the %.3f kg already shipped", order.ShippedKg).
			WithDetails(map[string]any{"shipped_kg": order.ShippedKg})
	}
	done := producedKg(order)
	if done <= 0 {
		order.QuantityKg = qty
		return nil
	}

	progress := 100
	complete := done >= qty-CompletionTolerance
	if !complete {
		progress = min(percent(done, qty), 99)
	}
	if progress < order.Progress {
		return pkgerrors.Newf(pkgerrors.CodeStateConflict, "%.3f kg already produced; raising the quantity would move progress back", done).
			WithDetails(map[string]any{"produced_kg": done, "progress": order.Progress})
	}

	order.QuantityKg = qty
	order.Progress = progress
	if complete && !order.Type.IsService() {
		return transition(order, enums.OrderStatusReady)
	}
	return nil
}

// RoastAllocation splits one roast's output for an order.
type RoastAllocation struct {
	ClientKg float64
	ExcessKg float64
	Complete bool
}

// ApplyRoast books a roast batch against order and advances its status.
// Service orders count green weight toward the target and keep all roasted
// output; sales orders count roasted weight and send the surplus to excess stock.
func ApplyRoast(order *models.Order, roastID string, greenKg, roastedKg float64) (RoastAllocation, error) {
	if order.Status.Dispatched() {
		return RoastAllocation{}, pkgerrors.Newf(pkgerrors.CodeStateConflict, "order already %s", order.Status)
	}
	var alloc RoastAllocation
	order.AccumulatedGreenKg = round3(order.AccumulatedGreenKg + greenKg)

	if order.Type.IsService() {
		alloc.ClientKg = roastedKg
		order.AccumulatedRoastedKg = round3(order.AccumulatedRoastedKg + roastedKg)
		alloc.Complete = order.AccumulatedGreenKg >= order.QuantityKg-CompletionTolerance
		raiseProgress(order, percent(order.AccumulatedGreenKg, order.QuantityKg))
		if alloc.Complete {
			raiseProgress(order, 100)
		}
		if order.Status == enums.OrderStatusPending {
			if err := transition(order, enums.OrderStatusInProduction); err != nil {
				return RoastAllocation{}, err
			}
		}
	} else {
		need := math.Max(order.QuantityKg-order.AccumulatedRoastedKg, 0)
		alloc.ClientKg = round3(math.Min(roastedKg, need))
		alloc.ExcessKg = round3(roastedKg - alloc.ClientKg)
		order.AccumulatedRoastedKg = round3(order.AccumulatedRoastedKg + alloc.ClientKg)
		alloc.Complete = order.AccumulatedRoastedKg >= order.QuantityKg-CompletionTolerance
		if alloc.Complete {
			if order.Status != enums.OrderStatusReady {
				if err := transition(order, enums.OrderStatusReady); err != nil {
					return RoastAllocation{}, err
				}
			}
			raiseProgress(order, 100)
		} else {
			if order.Status == enums.OrderStatusPending {
				if err := transition(order, enums.OrderStatusInProduction); err != nil {
					return RoastAllocation{}, err
				}
			}
			raiseProgress(order, min(percent(order.AccumulatedRoastedKg, order.QuantityKg), 99))
		}
	}

	if roastID != "" {
		order.RoastIDs = append(order.RoastIDs, roastID)
	}
	markActivity(order, enums.ActivityKindRoast)
	return alloc, nil
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
