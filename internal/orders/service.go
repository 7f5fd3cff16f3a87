// Package orders runs the order lifecycle from entry to invoice.
package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/roastery-backend/internal/inventory"
	"github.com/angelmondragon/roastery-backend/internal/repo"
	"github.com/angelmondragon/roastery-backend/internal/store"
	"github.com/angelmondragon/roastery-backend/pkg/db/models"
	"github.com/angelmondragon/roastery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/roastery-backend/pkg/errors"
)

type Service interface {
	Create(ctx context.Context, actor string, input CreateOrderInput) (*models.Order, error)
	Update(ctx context.Context, actor, id string, input UpdateOrderInput) (*models.Order, error)
	Get(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context, filter ListFilter) ([]models.Order, error)
	Assemble(ctx context.Context, actor, id string, input AssembleInput) (*models.Order, error)
	MarkReady(ctx context.Context, actor, id string) (*models.Order, error)
	Dispatch(ctx context.Context, actor, id string, input DispatchInput) (*DispatchResult, error)
	Invoice(ctx context.Context, actor, id string) (*models.Order, error)
	Pause(ctx context.Context, actor, id string) (*models.Order, error)
	Resume(ctx context.Context, actor, id string) (*models.Order, error)
	Delete(ctx context.Context, actor, id string, confirmed bool) error
}

// DispatchResult carries the shipping expense created alongside a dispatch.
type DispatchResult struct {
	Order   *models.Order   `json:"order"`
	Expense *models.Expense `json:"expense,omitempty"`
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

func (s *service) Create(ctx context.Context, actor string, input CreateOrderInput) (*models.Order, error) {
	if err := input.normalize(); err != nil {
		return nil, err
	}
	order := &models.Order{
		ID:              uuid.NewString(),
		ClientName:      input.ClientName,
		Variety:         strings.TrimSpace(input.Variety),
		Lines:           input.Lines,
		Type:            input.Type,
		QuantityKg:      input.QuantityKg,
		Status:          enums.OrderStatusPending,
		DeliveryMethod:  strings.TrimSpace(input.DeliveryMethod),
		DeliveryAddress: strings.TrimSpace(input.DeliveryAddress),
	}
	err := s.writer.Run(ctx, actor, func(tx *store.Tx) error {
		order.OrderDate = tx.Now()
		if input.OrderDate != nil {
			order.OrderDate = input.OrderDate.UTC()
		}
		return tx.Put(order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) Update(ctx context.Context, actor, id string, input UpdateOrderInput) (*models.Order, error) {
	return s.mutate(ctx, actor, id, func(tx *store.Tx, order *models.Order) error {
		if order.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "invoiced orders cannot be edited")
		}
		if input.ClientName != nil {
			name := strings.TrimSpace(*input.ClientName)
			if name == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "client name is required")
			}
			order.ClientName = name
		}
		target := order.QuantityKg
		if input.Lines != nil {
			variety, qty, err := summarizeLines(*input.Lines)
			if err != nil {
				return err
			}
			order.Lines = *input.Lines
			if input.Variety == nil && variety != "" {
				order.Variety = variety
			}
			if qty > 0 {
				target = qty
			}
		}
		if input.Variety != nil {
			order.Variety = strings.TrimSpace(*input.Variety)
		}
		if input.QuantityKg != nil {
			if *input.QuantityKg <= 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero")
			}
			target = *input.QuantityKg
		}
		if err := retarget(order, target); err != nil {
			return err
		}
		if input.DeliveryMethod != nil {
			order.DeliveryMethod = strings.TrimSpace(*input.DeliveryMethod)
		}
		if input.DeliveryAddress != nil {
			order.DeliveryAddress = strings.TrimSpace(*input.DeliveryAddress)
		}
		return tx.Put(order)
	})
}

func (s *service) Get(ctx context.Context, id string) (*models.Order, error) {
	return repo.Get[models.Order](s.writer.DB(ctx), id, "order")
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.Order, error) {
	q := s.writer.DB(ctx)
	if filter.ActiveOnly {
		q = q.Where("status NOT IN ? AND is_paused = ?", []enums.OrderStatus{enums.OrderStatusShipped, enums.OrderStatusInvoiced}, false)
	}
	return repo.List[models.Order](q, repo.Filter{
		"client_name": filter.ClientName,
		"status":      filter.Status,
		"type":        filter.Type,
	}, "order_date DESC")
}

// Assemble packs roasted coffee from one lot into the order.
func (s *service) Assemble(ctx context.Context, actor, id string, input AssembleInput) (*models.Order, error) {
	if input.QuantityKg <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero")
	}
	if input.Bags < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one bag is required")
	}
	if input.GrainProUnits < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "grainpro units cannot be negative")
	}
	if input.BagFormat != nil && !input.BagFormat.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid bag format %q", *input.BagFormat)
	}

	return s.mutate(ctx, actor, id, func(tx *store.Tx, order *models.Order) error {
		if order.Status.Dispatched() {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "order already %s", order.Status)
		}
		stock, err := inventory.LoadRoasted(tx, input.StockID)
		if err != nil {
			return err
		}
		if _, err := inventory.DeductRoasted(tx, stock, input.QuantityKg); err != nil {
			return err
		}

		order.FulfilledKg = round3(order.FulfilledKg + input.QuantityKg)
		order.BagsUsed += input.Bags
		markActivity(order, enums.ActivityKindAssembly)

		if !order.Type.IsService() {
			if order.FulfilledKg >= order.QuantityKg-CompletionTolerance {
				if err := transition(order, enums.OrderStatusReady); err != nil {
					return err
				}
				raiseProgress(order, 100)
			} else {
				if order.Status == enums.OrderStatusPending {
					order.Status = enums.OrderStatusInProduction
				}
				raiseProgress(order, min(percent(order.FulfilledKg, order.QuantityKg), 99))
			}
		}

		if input.BagFormat != nil {
			if err := inventory.ConsumeForFormat(tx, *input.BagFormat, float64(input.Bags)); err != nil {
				return err
			}
		}
		if err := inventory.ConsumeByName(tx, inventory.GrainProName, float64(input.GrainProUnits)); err != nil {
			return err
		}
		if err := tx.Put(order); err != nil {
			return err
		}
		return inventory.LogActivity(tx, models.ProductionActivity{
			Kind:       enums.ActivityKindAssembly,
			OrderID:    &order.ID,
			StockID:    &stock.ID,
			ClientName: order.ClientName,
			QuantityKg: input.QuantityKg,
			Notes:      fmt.Sprintf("%d bags", input.Bags),
		})
	})
}

// MarkReady is the operator's explicit completion step for service orders.
func (s *service) MarkReady(ctx context.Context, actor, id string) (*models.Order, error) {
	return s.mutate(ctx, actor, id, func(tx *store.Tx, order *models.Order) error {
		if !order.Type.IsService() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "sales orders become ready through assembly")
		}
		if order.Status != enums.OrderStatusInProduction {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "order cannot move from %s to %s", order.Status, enums.OrderStatusReady).
				WithDetails(map[string]any{"from": order.Status, "to": enums.OrderStatusReady})
		}
		if err := transition(order, enums.OrderStatusReady); err != nil {
			return err
		}
		raiseProgress(order, 100)
		return tx.Put(order)
	})
}

// Dispatch ships part or all of the order. Status flips to shipped only once
// the shipped weight reaches the dispatch target.
func (s *service) Dispatch(ctx context.Context, actor, id string, input DispatchInput) (*DispatchResult, error) {
	if input.QuantityKg <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero")
	}
	if input.ShippingCost.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping cost cannot be negative")
	}

	result := &DispatchResult{}
	order, err := s.mutate(ctx, actor, id, func(tx *store.Tx, order *models.Order) error {
		if order.Status != enums.OrderStatusInProduction && order.Status != enums.OrderStatusReady {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "orders in %s cannot be dispatched", order.Status).
				WithDetails(map[string]any{"from": order.Status, "to": enums.OrderStatusShipped})
		}
		if !order.Type.IsService() && order.BagsUsed <= 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "assemble the order before dispatching it")
		}

		order.ShippedKg = round3(order.ShippedKg + input.QuantityKg)
		if method := strings.TrimSpace(input.DeliveryMethod); method != "" {
			order.DeliveryMethod = method
		}
		if address := strings.TrimSpace(input.DeliveryAddress); address != "" {
			order.DeliveryAddress = address
		}
		if order.ShippedKg >= dispatchTarget(order)-DispatchTolerance {
			if err := transition(order, enums.OrderStatusShipped); err != nil {
				return err
			}
			now := tx.Now()
			order.DispatchDate = &now
			markActivity(order, enums.ActivityKindDispatch)
		}

		if input.ShippingCost.IsPositive() {
			order.ShippingCost = order.ShippingCost.Add(input.ShippingCost)
			orderID := order.ID
			expense := &models.Expense{
				ID:          uuid.NewString(),
				Reason:      fmt.Sprintf("Envío pedido %s", order.ClientName),
				Amount:      input.ShippingCost.Round(2),
				Date:        tx.Now(),
				Status:      enums.ExpenseStatusPending,
				OrderID:     &orderID,
				Responsible: strings.TrimSpace(input.Responsible),
			}
			if err := tx.Put(expense); err != nil {
				return err
			}
			result.Expense = expense
		}
		if err := tx.Put(order); err != nil {
			return err
		}
		return inventory.LogActivity(tx, models.ProductionActivity{
			Kind:       enums.ActivityKindDispatch,
			OrderID:    &order.ID,
			ClientName: order.ClientName,
			QuantityKg: input.QuantityKg,
			Notes:      order.DeliveryMethod,
		})
	})
	if err != nil {
		return nil, err
	}
	result.Order = order
	return result, nil
}

// dispatchTarget is the weight that completes shipping: roasted output for
// service orders (green weight shrinks in the roaster), the target otherwise.
func dispatchTarget(order *models.Order) float64 {
	if order.Type.IsService() && order.AccumulatedRoastedKg > 0 {
		return order.AccumulatedRoastedKg
	}
	return order.QuantityKg
}

func (s *service) Invoice(ctx context.Context, actor, id string) (*models.Order, error) {
	return s.mutate(ctx, actor, id, func(tx *store.Tx, order *models.Order) error {
		if order.Status != enums.OrderStatusShipped {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "only shipped orders can be invoiced (order is %s)", order.Status).
				WithDetails(map[string]any{"from": order.Status, "to": enums.OrderStatusInvoiced})
		}
		if err := transition(order, enums.OrderStatusInvoiced); err != nil {
			return err
		}
		now := tx.Now()
		order.InvoiceDate = &now
		markActivity(order, enums.ActivityKindInvoice)
		if err := tx.Put(order); err != nil {
			return err
		}
		return inventory.LogActivity(tx, models.ProductionActivity{
			Kind:       enums.ActivityKindInvoice,
			OrderID:    &order.ID,
			ClientName: order.ClientName,
			QuantityKg: order.ShippedKg,
		})
	})
}

func (s *service) Pause(ctx context.Context, actor, id string) (*models.Order, error) {
	return s.setPaused(ctx, actor, id, true)
}

func (s *service) Resume(ctx context.Context, actor, id string) (*models.Order, error) {
	return s.setPaused(ctx, actor, id, false)
}

func (s *service) setPaused(ctx context.Context, actor, id string, paused bool) (*models.Order, error) {
	return s.mutate(ctx, actor, id, func(tx *store.Tx, order *models.Order) error {
		if order.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "invoiced orders cannot be paused")
		}
		if order.IsPaused == paused {
			return nil
		}
		order.IsPaused = paused
		return tx.Put(order)
	})
}

func (s *service) Delete(ctx context.Context, actor, id string, confirmed bool) error {
	if !confirmed {
		return pkgerrors.New(pkgerrors.CodeValidation, "deleting an order requires confirmation")
	}
	return s.writer.Run(ctx, actor, func(tx *store.Tx) error {
		order, err := repo.Get[models.Order](tx.DB, id, "order")
		if err != nil {
			return err
		}
		if order.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "invoiced orders cannot be deleted")
		}
		return tx.Remove(order)
	})
}

func (s *service) mutate(ctx context.Context, actor, id string, fn func(tx *store.Tx, order *models.Order) error) (*models.Order, error) {
	var order *models.Order
	err := s.writer.Run(ctx, actor, func(tx *store.Tx) error {
		var err error
		order, err = repo.Get[models.Order](tx.DB, id, "order")
		if err != nil {
			return err
		}
		return fn(tx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

