// Package inventory manages green coffee lots, roasted stock, retail bags and
// packaging/utility consumables.
package inventory

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/roastery-backend/internal/repo"
	"github.com/angelmondragon/roastery-backend/internal/store"
	"github.com/angelmondragon/roastery-backend/pkg/db/models"
	"github.com/angelmondragon/roastery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/roastery-backend/pkg/errors"
)

type Service interface {
	CreateGreenLot(ctx context.Context, actor string, input GreenLotInput) (*models.GreenCoffeeLot, error)
	UpdateGreenLot(ctx context.Context, actor, id string, input GreenLotInput) (*models.GreenCoffeeLot, error)
	DeleteGreenLot(ctx context.Context, actor, id string) error
	GetGreenLot(ctx context.Context, id string) (*models.GreenCoffeeLot, error)
	ListGreenLots(ctx context.Context, filter GreenLotFilter) ([]models.GreenCoffeeLot, error)

	ListRoasted(ctx context.Context, filter RoastedFilter) ([]models.RoastedStock, error)
	RecordSelection(ctx context.Context, actor, stockID string, input SelectionInput) (*models.RoastedStock, error)
	ConvertToRetail(ctx context.Context, actor, stockID string, input RetailInput) (*RetailResult, error)

	ListRetailBags(ctx context.Context, filter RetailFilter) ([]models.RetailBagStock, error)
	ConsumeRetailBags(ctx context.Context, actor, bagID string, units int) (*models.RetailBagStock, error)

	CreateUtility(ctx context.Context, actor string, input UtilityInput) (*models.ProductionInventoryItem, error)
	UpdateUtility(ctx context.Context, actor, id string, input UtilityInput) (*models.ProductionInventoryItem, error)
	DeleteUtility(ctx context.Context, actor, id string) error
	ListUtilities(ctx context.Context) ([]models.ProductionInventoryItem, error)
	ConsumeUtility(ctx context.Context, actor, id string, amount float64) (*models.ProductionInventoryItem, error)
	RechargeUtility(ctx context.Context, actor, id string, amount float64) (*models.ProductionInventoryItem, error)
	LowStock(ctx context.Context) ([]models.ProductionInventoryItem, error)

	ListActivities(ctx context.Context, filter ActivityFilter) ([]models.ProductionActivity, error)
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

func (s *service) CreateGreenLot(ctx context.Context, actor string, input GreenLotInput) (*models.GreenCoffeeLot, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	lot := &models.GreenCoffeeLot{
		ID:         uuid.NewString(),
		ClientName: strings.TrimSpace(input.ClientName),
		Variety:    strings.TrimSpace(input.Variety),
		Origin:     strings.TrimSpace(input.Origin),
		EntryDate:  input.entryDate(),
		QuantityKg: input.QuantityKg,
	}
	if err := s.writer.Run(ctx, actor, func(tx *store.Tx) error {
		return tx.Put(lot)
	}); err != nil {
		return nil, err
	}
	return lot, nil
}

func (s *service) UpdateGreenLot(ctx context.Context, actor, id string, input GreenLotInput) (*models.GreenCoffeeLot, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	var lot *models.GreenCoffeeLot
	err := s.writer.Run(ctx, actor, func(tx *store.Tx) error {
		var err error
		lot, err = repo.Get[models.GreenCoffeeLot](tx.DB, id, "green coffee lot")
		if err != nil {
			return err
		}
		lot.ClientName = strings.TrimSpace(input.ClientName)
		lot.Variety = strings.TrimSpace(input.Variety)
		lot.Origin = strings.TrimSpace(input.Origin)
		lot.QuantityKg = input.QuantityKg
		if input.EntryDate != nil {
			lot.EntryDate = input.EntryDate.UTC()
		}
		return tx.Put(lot)
	})
	if err != nil {
		return nil, err
	}
	return lot, nil
}

func (s *service) DeleteGreenLot(ctx context.Context, actor, id string) error {
	return s.writer.Run(ctx, actor, func(tx *store.Tx) error {
		lot, err := repo.Get[models.GreenCoffeeLot](tx.DB, id, "green coffee lot")
		if err != nil {
			return err
		}
		return tx.Remove(lot)
	})
}

func (s *service) GetGreenLot(ctx context.Context, id string) (*models.GreenCoffeeLot, error) {
	return repo.Get[models.GreenCoffeeLot](s.writer.DB(ctx), id, "green coffee lot")
}

func (s *service) ListGreenLots(ctx context.Context, filter GreenLotFilter) ([]models.GreenCoffeeLot, error) {
	q := s.writer.DB(ctx)
	if filter.InStockOnly {
		q = q.Where("quantity_kg > ?", 0)
	}
	return repo.List[models.GreenCoffeeLot](q, repo.Filter{"client_name": filter.ClientName}, "entry_date DESC")
}

func (s *service) ListRoasted(ctx context.Context, filter RoastedFilter) ([]models.RoastedStock, error) {
	q := s.writer.DB(ctx)
	if filter.Excess != nil {
		q = q.Where("is_excess = ?", *filter.Excess)
	}
	return repo.List[models.RoastedStock](q, repo.Filter{
		"client_name": filter.ClientName,
		"order_id":    filter.OrderID,
	}, "created_at DESC")
}

func (s *service) RecordSelection(ctx context.Context, actor, stockID string, input SelectionInput) (*models.RoastedStock, error) {
	if input.LossGrams < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "loss grams cannot be negative")
	}
	var stock *models.RoastedStock
	err := s.writer.Run(ctx, actor, func(tx *store.Tx) error {
		var err error
		stock, err = LoadRoasted(tx, stockID)
		if err != nil {
			return err
		}
		stock.IsSelected = true
		stock.TechnicalLossGrams += input.LossGrams
		lossKg := input.LossGrams / 1000
		if lossKg > 0 {
			if _, err := DeductRoasted(tx, stock, lossKg); err != nil {
				return err
			}
		} else if err := tx.Put(stock); err != nil {
			return err
		}
		return LogActivity(tx, models.ProductionActivity{
			Kind:       enums.ActivityKindSelection,
			OrderID:    stock.OrderID,
			StockID:    &stock.ID,
			ClientName: stock.ClientName,
			QuantityKg: lossKg,
			Notes:      input.Notes,
		})
	})
	if err != nil {
		return nil, err
	}
	return stock, nil
}

func (s *service) ConvertToRetail(ctx context.Context, actor, stockID string, input RetailInput) (*RetailResult, error) {
	format, err := enums.ParseBagFormat(string(input.Format))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid bag format")
	}
	if input.Units <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "units must be greater than zero")
	}

	result := &RetailResult{}
	err = s.writer.Run(ctx, actor, func(tx *store.Tx) error {
		stock, err := LoadRoasted(tx, stockID)
		if err != nil {
			return err
		}
		kg := float64(input.Units) * format.Kg()
		if kg > stock.RemainingQtyKg+1e-9 {
			maxBags := int(math.Floor(stock.RemainingQtyKg/format.Kg() + 1e-9))
			return pkgerrors.Newf(pkgerrors.CodeValidation, "not enough roasted coffee for %d x %s", input.Units, format).
				WithDetails(map[string]any{
					"max_bags":     maxBags,
					"remaining_kg": round3(stock.RemainingQtyKg),
					"requested_kg": round3(kg),
				})
		}
		deleted, err := DeductRoasted(tx, stock, kg)
		if err != nil {
			return err
		}
		result.StockDepleted = deleted
		result.Stock = stock

		coffee := strings.TrimSpace(input.CoffeeName)
		if coffee == "" {
			coffee = stock.Variety
		}
		var client *string
		if !stock.IsExcess && stock.ClientName != "" {
			name := stock.ClientName
			client = &name
		}
		bag, err := findBag(tx, coffee, format, client)
		if err != nil {
			return err
		}
		if bag == nil {
			roastID := stock.RoastID
			bag = &models.RetailBagStock{
				ID:         uuid.NewString(),
				CoffeeName: coffee,
				Format:     format,
				ClientName: client,
				RoastID:    &roastID,
			}
		}
		bag.Units += input.Units
		if err := tx.Put(bag); err != nil {
			return err
		}
		result.Bag = bag

		if err := ConsumeForFormat(tx, format, float64(input.Units)); err != nil {
			return err
		}
		return LogActivity(tx, models.ProductionActivity{
			Kind:       enums.ActivityKindRetail,
			OrderID:    stock.OrderID,
			StockID:    &stock.ID,
			ClientName: stock.ClientName,
			QuantityKg: kg,
			Notes:      string(format),
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func findBag(tx *store.Tx, coffee string, format enums.BagFormat, client *string) (*models.RetailBagStock, error) {
	q := tx.DB.Where("LOWER(coffee_name) = ? AND format = ?", strings.ToLower(coffee), format)
	if client == nil {
		q = q.Where("client_name IS NULL")
	} else {
		q = q.Where("client_name = ?", *client)
	}
	var bags []models.RetailBagStock
	if err := q.Limit(1).Find(&bags).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load retail bags")
	}
	if len(bags) == 0 {
		return nil, nil
	}
	return &bags[0], nil
}

func (s *service) ListRetailBags(ctx context.Context, filter RetailFilter) ([]models.RetailBagStock, error) {
	q := s.writer.DB(ctx)
	if !filter.IncludeEmpty {
		q = q.Where("units > 0")
	}
	return repo.List[models.RetailBagStock](q, repo.Filter{
		"format":      filter.Format,
		"client_name": filter.ClientName,
	}, "coffee_name ASC, format ASC")
}

func (s *service) ConsumeRetailBags(ctx context.Context, actor, bagID string, units int) (*models.RetailBagStock, error) {
	if units <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "units must be greater than zero")
	}
	var bag *models.RetailBagStock
	err := s.writer.Run(ctx, actor, func(tx *store.Tx) error {
		var err error
		bag, err = repo.Get[models.RetailBagStock](tx.DB, bagID, "retail bag stock")
		if err != nil {
			return err
		}
		if units > bag.Units {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "only %d bags available", bag.Units).
				WithDetails(map[string]any{"available_units": bag.Units})
		}
		bag.Units -= units
		return tx.Put(bag)
	})
	if err != nil {
		return nil, err
	}
	return bag, nil
}

func (s *service) CreateUtility(ctx context.Context, actor string, input UtilityInput) (*models.ProductionInventoryItem, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	item := &models.ProductionInventoryItem{ID: uuid.NewString()}
	input.apply(item)
	if err := s.writer.Run(ctx, actor, func(tx *store.Tx) error {
		return tx.Put(item)
	}); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) UpdateUtility(ctx context.Context, actor, id string, input UtilityInput) (*models.ProductionInventoryItem, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	var item *models.ProductionInventoryItem
	err := s.writer.Run(ctx, actor, func(tx *store.Tx) error {
		var err error
		item, err = repo.Get[models.ProductionInventoryItem](tx.DB, id, "inventory item")
		if err != nil {
			return err
		}
		input.apply(item)
		return tx.Put(item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) DeleteUtility(ctx context.Context, actor, id string) error {
	return s.writer.Run(ctx, actor, func(tx *store.Tx) error {
		item, err := repo.Get[models.ProductionInventoryItem](tx.DB, id, "inventory item")
		if err != nil {
			return err
		}
		return tx.Remove(item)
	})
}

func (s *service) ListUtilities(ctx context.Context) ([]models.ProductionInventoryItem, error) {
	return repo.List[models.ProductionInventoryItem](s.writer.DB(ctx), nil, "name ASC")
}

func (s *service) ConsumeUtility(ctx context.Context, actor, id string, amount float64) (*models.ProductionInventoryItem, error) {
	if amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be greater than zero")
	}
	return s.adjustUtility(ctx, actor, id, func(item *models.ProductionInventoryItem) {
		item.Quantity = math.Max(0, item.Quantity-amount)
	})
}

func (s *service) RechargeUtility(ctx context.Context, actor, id string, amount float64) (*models.ProductionInventoryItem, error) {
	if amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be greater than zero")
	}
	return s.adjustUtility(ctx, actor, id, func(item *models.ProductionInventoryItem) {
		item.Quantity += amount
		if item.Kind == enums.InventoryKindPercentage {
			item.Quantity = math.Min(100, item.Quantity)
		}
	})
}

func (s *service) adjustUtility(ctx context.Context, actor, id string, adjust func(*models.ProductionInventoryItem)) (*models.ProductionInventoryItem, error) {
	var item *models.ProductionInventoryItem
	err := s.writer.Run(ctx, actor, func(tx *store.Tx) error {
		var err error
		item, err = repo.Get[models.ProductionInventoryItem](tx.DB, id, "inventory item")
		if err != nil {
			return err
		}
		adjust(item)
		return tx.Put(item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) LowStock(ctx context.Context) ([]models.ProductionInventoryItem, error) {
	return repo.List[models.ProductionInventoryItem](
		s.writer.DB(ctx).Where("quantity < min_threshold"), nil, "name ASC")
}

func (s *service) ListActivities(ctx context.Context, filter ActivityFilter) ([]models.ProductionActivity, error) {
	q := s.writer.DB(ctx)
	if filter.Since != nil {
		q = q.Where("date >= ?", filter.Since.UTC())
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return repo.List[models.ProductionActivity](q.Limit(limit), repo.Filter{
		"order_id": filter.OrderID,
		"kind":     filter.Kind,
	}, "date DESC")
}

func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
