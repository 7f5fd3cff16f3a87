package orders

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/roastery-backend/pkg/db/models"
	"github.com/angelmondragon/roastery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/roastery-backend/pkg/errors"
)

type CreateOrderInput struct {
	ClientName      string             `json:"client_name" validate:"required"`
	Variety         string             `json:"variety"`
	Lines           []models.OrderLine `json:"lines" validate:"omitempty,dive"`
	Type            enums.OrderType    `json:"type" validate:"required,enum"`
	QuantityKg      float64            `json:"quantity_kg" validate:"gte=0"`
	DeliveryMethod  string             `json:"delivery_method"`
	DeliveryAddress string             `json:"delivery_address"`
	OrderDate       *time.Time         `json:"order_date"`
}

func (in *CreateOrderInput) normalize() error {
	in.ClientName = strings.TrimSpace(in.ClientName)
	if in.ClientName == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "client name is required")
	}
	if !in.Type.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid order type %q", in.Type)
	}
	variety, qty, err := summarizeLines(in.Lines)
	if err != nil {
		return err
	}
	if in.QuantityKg == 0 {
		in.QuantityKg = qty
	}
	if strings.TrimSpace(in.Variety) == "" {
		in.Variety = variety
	}
	if in.QuantityKg <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero")
	}
	return nil
}

// summarizeLines validates lines and returns their joined varieties and total weight.
func summarizeLines(lines []models.OrderLine) (string, float64, error) {
	varieties := make([]string, 0, len(lines))
	total := 0.0
	for i, line := range lines {
		name := strings.TrimSpace(line.Variety)
		if name == "" {
			return "", 0, pkgerrors.Newf(pkgerrors.CodeValidation, "line %d: variety is required", i+1)
		}
		if line.QuantityKg <= 0 {
			return "", 0, pkgerrors.Newf(pkgerrors.CodeValidation, "line %d: quantity must be greater than zero", i+1)
		}
		varieties = append(varieties, name)
		total += line.QuantityKg
	}
	return strings.Join(varieties, ", "), round3(total), nil
}

// UpdateOrderInput edits descriptive fields; nil leaves a field unchanged.
type UpdateOrderInput struct {
	ClientName      *string             `json:"client_name"`
	Variety         *string             `json:"variety"`
	Lines           *[]models.OrderLine `json:"lines"`
	QuantityKg      *float64            `json:"quantity_kg" validate:"omitempty,gt=0"`
	DeliveryMethod  *string             `json:"delivery_method"`
	DeliveryAddress *string             `json:"delivery_address"`
}

type AssembleInput struct {
	StockID       string           `json:"stock_id" validate:"required"`
	QuantityKg    float64          `json:"quantity_kg" validate:"gt=0"`
	Bags          int              `json:"bags" validate:"gte=1"`
	BagFormat     *enums.BagFormat `json:"bag_format"`
	GrainProUnits int              `json:"grainpro_units" validate:"gte=0"`
}

type DispatchInput struct {
	QuantityKg      float64         `json:"quantity_kg" validate:"gt=0"`
	ShippingCost    decimal.Decimal `json:"shipping_cost"`
	DeliveryMethod  string          `json:"delivery_method"`
	DeliveryAddress string          `json:"delivery_address"`
	Responsible     string          `json:"responsible"`
}

type ListFilter struct {
	ClientName string
	Status     enums.OrderStatus
	Type       enums.OrderType
	ActiveOnly bool
}
