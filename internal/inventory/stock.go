package inventory

import (
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/roastery-backend/internal/repo"
	"github.com/angelmondragon/roastery-backend/internal/store"
	"github.com/angelmondragon/roastery-backend/pkg/db/models"
	"github.com/angelmondragon/roastery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/roastery-backend/pkg/errors"
)

const (
	// StockEpsilon is the weight below which a roasted lot counts as used up.
	StockEpsilon = 0.001
	// GrainProName matches the GrainPro liner items of the utility inventory.
	GrainProName = "grainpro"
)

// DeductRoasted removes kg from stock inside tx. A lot left with no more than
// StockEpsilon is deleted. It reports whether the row was deleted.
func DeductRoasted(tx *store.Tx, stock *models.RoastedStock, kg float64) (bool, error) {
	if kg <= 0 {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero")
	}
	if kg > stock.RemainingQtyKg+StockEpsilon {
		return false, pkgerrors.Newf(pkgerrors.CodeValidation, "requested %.3f kg exceeds the %.3f kg remaining", kg, stock.RemainingQtyKg).
			WithDetails(map[string]any{"remaining_kg": round3(stock.RemainingQtyKg), "requested_kg": round3(kg)})
	}
	stock.RemainingQtyKg = round3(stock.RemainingQtyKg - kg)
	if stock.RemainingQtyKg <= StockEpsilon {
		return true, tx.Remove(stock)
	}
	return false, tx.Put(stock)
}

// LoadRoasted reads a roasted lot through the transaction.
func LoadRoasted(tx *store.Tx, id string) (*models.RoastedStock, error) {
	return repo.Get[models.RoastedStock](tx.DB, id, "roasted stock")
}

// ConsumeForFormat draws units from every utility item linked to format, floored at zero.
func ConsumeForFormat(tx *store.Tx, format enums.BagFormat, units float64) error {
	if units <= 0 {
		return nil
	}
	var items []models.ProductionInventoryItem
	if err := tx.DB.Where("linked_format = ?", format).Find(&items).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load packaging inventory")
	}
	for i := range items {
		if err := consume(tx, &items[i], units); err != nil {
			return err
		}
	}
	return nil
}

// ConsumeByName draws units from utility items whose name contains name,
// ignoring case and spaces (e.g. "grainpro" matches "Grain Pro bags").
func ConsumeByName(tx *store.Tx, name string, units float64) error {
	if units <= 0 {
		return nil
	}
	var items []models.ProductionInventoryItem
	if err := tx.DB.Find(&items).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load utility inventory")
	}
	needle := squash(name)
	for i := range items {
		if strings.Contains(squash(items[i].Name), needle) {
			if err := consume(tx, &items[i], units); err != nil {
				return err
			}
		}
	}
	return nil
}

func consume(tx *store.Tx, item *models.ProductionInventoryItem, amount float64) error {
	item.Quantity = math.Max(0, item.Quantity-amount)
	return tx.Put(item)
}

// LogActivity appends an entry to the production history.
func LogActivity(tx *store.Tx, entry models.ProductionActivity) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Date.IsZero() {
		entry.Date = tx.Now()
	}
	return tx.Put(&entry)
}

func squash(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
