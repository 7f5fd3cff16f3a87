package inventory

import (
	"strings"
	"time"

	"github.com/angelmondragon/roastery-backend/pkg/db/models"
	"github.com/angelmondragon/roastery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/roastery-backend/pkg/errors"
)

type GreenLotInput struct {
	ClientName string     `json:"client_name" validate:"required"`
	Variety    string     `json:"variety" validate:"required"`
	Origin     string     `json:"origin"`
	EntryDate  *time.Time `json:"entry_date"`
	QuantityKg float64    `json:"quantity_kg" validate:"gte=0"`
}

func (in GreenLotInput) validate() error {
	if strings.TrimSpace(in.ClientName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "client name is required")
	}
	if strings.TrimSpace(in.Variety) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "variety is required")
	}
	if in.QuantityKg < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	return nil
}

func (in GreenLotInput) entryDate() time.Time {
	if in.EntryDate != nil {
		return in.EntryDate.UTC()
	}
	return today()
}

type GreenLotFilter struct {
	ClientName  string
	InStockOnly bool
}

type RoastedFilter struct {
	ClientName string
	OrderID    string
	Excess     *bool
}

type SelectionInput struct {
	LossGrams float64 `json:"loss_grams" validate:"gte=0"`
	Notes     string  `json:"notes"`
}

type RetailInput struct {
	Format     enums.BagFormat `json:"format" validate:"required"`
	Units      int             `json:"units" validate:"required,gt=0"`
	CoffeeName string          `json:"coffee_name"`
}

// RetailResult is the outcome of a packaging run. Stock is nil-safe to read
// even when StockDepleted removed the row.
type RetailResult struct {
	Bag           *models.RetailBagStock `json:"bag"`
	Stock         *models.RoastedStock   `json:"stock"`
	StockDepleted bool                   `json:"stock_depleted"`
}

type RetailFilter struct {
	Format       enums.BagFormat
	ClientName   string
	IncludeEmpty bool
}

type UtilityInput struct {
	Name         string              `json:"name" validate:"required"`
	Kind         enums.InventoryKind `json:"kind" validate:"required,enum"`
	Quantity     float64             `json:"quantity" validate:"gte=0"`
	MinThreshold float64             `json:"min_threshold" validate:"gte=0"`
	LinkedFormat *enums.BagFormat    `json:"linked_format"`
}

func (in UtilityInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if !in.Kind.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid inventory kind %q", in.Kind)
	}
	if in.Quantity < 0 || in.MinThreshold < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity and threshold cannot be negative")
	}
	if in.Kind == enums.InventoryKindPercentage && in.Quantity > 100 {
		return pkgerrors.New(pkgerrors.CodeValidation, "percentage items range from 0 to 100")
	}
	if in.LinkedFormat != nil && !in.LinkedFormat.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid bag format %q", *in.LinkedFormat)
	}
	return nil
}

func (in UtilityInput) apply(item *models.ProductionInventoryItem) {
	item.Name = strings.TrimSpace(in.Name)
	item.Kind = in.Kind
	item.Quantity = in.Quantity
	item.MinThreshold = in.MinThreshold
	item.LinkedFormat = in.LinkedFormat
}

type ActivityFilter struct {
	OrderID string
	Kind    enums.ActivityKind
	Since   *time.Time
	Limit   int
}
