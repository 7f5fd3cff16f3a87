// Package dashboard builds the read-only operations summary.
package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/roastery-backend/internal/expenses"
	"github.com/angelmondragon/roastery-backend/pkg/db/models"
	"github.com/angelmondragon/roastery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/roastery-backend/pkg/errors"
)

type Summary struct {
	OrdersByStatus  map[enums.OrderStatus]int64      `json:"orders_by_status"`
	ActiveOrders    []models.Order                   `json:"active_orders"`
	GreenKg         float64                          `json:"green_kg"`
	RoastedKg       float64                          `json:"roasted_kg"`
	RetailUnits     map[enums.BagFormat]int64        `json:"retail_units"`
	LowStock        []models.ProductionInventoryItem `json:"low_stock"`
	PendingExpenses decimal.Decimal                  `json:"pending_expenses"`
	RoastsThisMonth int64                            `json:"roasts_this_month"`
	GeneratedAt     time.Time                        `json:"generated_at"`
}

type Source interface {
	DB(ctx context.Context) *gorm.DB
}

type Service interface {
	Summary(ctx context.Context) (*Summary, error)
}

type service struct {
	src Source
	now func() time.Time
}

func NewService(src Source, now func() time.Time) (Service, error) {
	if src == nil {
		return nil, errors.New("dashboard source required")
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{src: src, now: now}, nil
}

func (s *service) Summary(ctx context.Context) (*Summary, error) {
	db := s.src.DB(ctx)
	now := s.now()
	out := &Summary{
		OrdersByStatus: map[enums.OrderStatus]int64{},
		RetailUnits:    map[enums.BagFormat]int64{},
		GeneratedAt:    now,
	}

	var statusRows []struct {
		Status enums.OrderStatus
		Total  int64
	}
	if err := db.Model(&models.Order{}).Select("status, COUNT(*) AS total").Group("status").Scan(&statusRows).Error; err != nil {
		return nil, internal(err, "count orders")
	}
	for _, row := range statusRows {
		out.OrdersByStatus[row.Status] = row.Total
	}

	if err := db.Where("status NOT IN ? AND is_paused = ?", []enums.OrderStatus{enums.OrderStatusShipped, enums.OrderStatusInvoiced}, false).
		Order("order_date").Find(&out.ActiveOrders).Error; err != nil {
		return nil, internal(err, "load active orders")
	}

	if err := db.Model(&models.GreenCoffeeLot{}).Select("COALESCE(SUM(quantity_kg), 0)").Scan(&out.GreenKg).Error; err != nil {
		return nil, internal(err, "sum green coffee")
	}
	if err := db.Model(&models.RoastedStock{}).Select("COALESCE(SUM(remaining_qty_kg), 0)").Scan(&out.RoastedKg).Error; err != nil {
		return nil, internal(err, "sum roasted stock")
	}

	var bagRows []struct {
		Format enums.BagFormat
		Total  int64
	}
	if err := db.Model(&models.RetailBagStock{}).Select("format, COALESCE(SUM(units), 0) AS total").Group("format").Scan(&bagRows).Error; err != nil {
		return nil, internal(err, "sum retail bags")
	}
	for _, row := range bagRows {
		out.RetailUnits[row.Format] = row.Total
	}

	if err := db.Where("quantity < min_threshold").Order("name").Find(&out.LowStock).Error; err != nil {
		return nil, internal(err, "load low stock")
	}

	var pending []models.Expense
	if err := db.Where("status = ?", enums.ExpenseStatusPending).Find(&pending).Error; err != nil {
		return nil, internal(err, "load pending expenses")
	}
	out.PendingExpenses = expenses.Summarize(pending).Pending

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	if err := db.Model(&models.RoastBatch{}).Where("roast_date >= ?", monthStart).Count(&out.RoastsThisMonth).Error; err != nil {
		return nil, internal(err, "count roasts")
	}
	return out, nil
}

func internal(err error, msg string) error {
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msg)
}
