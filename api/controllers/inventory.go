package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/roastery-backend/api/responses"
	"github.com/angelmondragon/roastery-backend/api/validators"
	"github.com/angelmondragon/roastery-backend/internal/inventory"
	"github.com/angelmondragon/roastery-backend/pkg/enums"
	"github.com/angelmondragon/roastery-backend/pkg/logger"
)

type consumeBagsRequest struct {
	Units int `json:"units" validate:"gt=0"`
}

type adjustRequest struct {
	Amount float64 `json:"amount" validate:"gt=0"`
}

func RoastedStockList(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "inventory")
			return
		}
		filter := inventory.RoastedFilter{
			ClientName: validators.QueryString(r, "client"),
			OrderID:    validators.QueryString(r, "order_id"),
		}
		if strings.TrimSpace(r.URL.Query().Get("excess")) != "" {
			excess, err := validators.ParseQueryBool(r, "excess", false)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			filter.Excess = &excess
		}
		stock, err := svc.ListRoasted(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stock)
	}
}

// RoastedStockSelection records hand-sorting losses against a roasted lot.
func RoastedStockSelection(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "inventory")
			return
		}
		who, ok := actor(w, r, logg)
		if !ok {
			return
		}
		id, ok := pathID(w, r, logg, "stockId")
		if !ok {
			return
		}
		var input inventory.SelectionInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stock, err := svc.RecordSelection(r.Context(), who, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stock)
	}
}

// RoastedStockRetail packs roasted coffee into retail bags.
func RoastedStockRetail(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "inventory")
			return
		}
		who, ok := actor(w, r, logg)
		if !ok {
			return
		}
		id, ok := pathID(w, r, logg, "stockId")
		if !ok {
			return
		}
		var input inventory.RetailInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ConvertToRetail(r.Context(), who, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func RetailBagList(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "inventory")
			return
		}
		includeEmpty, err := validators.ParseQueryBool(r, "include_empty", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		bags, err := svc.ListRetailBags(r.Context(), inventory.RetailFilter{
			Format:       enums.BagFormat(validators.QueryString(r, "format")),
			ClientName:   validators.QueryString(r, "client"),
			IncludeEmpty: includeEmpty,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, bags)
	}
}

func RetailBagConsume(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "inventory")
			return
		}
		who, ok := actor(w, r, logg)
		if !ok {
			return
		}
		id, ok := pathID(w, r, logg, "bagId")
		if !ok {
			return
		}
		var req consumeBagsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		bag, err := svc.ConsumeRetailBags(r.Context(), who, id, req.Units)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, bag)
	}
}

func UtilityList(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "inventory")
			return
		}
		items, err := svc.ListUtilities(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func UtilityLowStock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "inventory")
			return
		}
		items, err := svc.LowStock(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func UtilityCreate(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "inventory")
			return
		}
		who, ok := actor(w, r, logg)
		if !ok {
			return
		}
		var input inventory.UtilityInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.CreateUtility(r.Context(), who, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

func UtilityUpdate(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "inventory")
			return
		}
		who, ok := actor(w, r, logg)
		if !ok {
			return
		}
		id, ok := pathID(w, r, logg, "itemId")
		if !ok {
			return
		}
		var input inventory.UtilityInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.UpdateUtility(r.Context(), who, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func UtilityDelete(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "inventory")
			return
		}
		who, ok := actor(w, r, logg)
		if !ok {
			return
		}
		id, ok := pathID(w, r, logg, "itemId")
		if !ok {
			return
		}
		if err := svc.DeleteUtility(r.Context(), who, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// UtilityConsume draws an amount down; the service floors the quantity at zero.
func UtilityConsume(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return utilityAdjust(svc, logg, false)
}

func UtilityRecharge(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return utilityAdjust(svc, logg, true)
}

func utilityAdjust(svc inventory.Service, logg *logger.Logger, recharge bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "inventory")
			return
		}
		who, ok := actor(w, r, logg)
		if !ok {
			return
		}
		id, ok := pathID(w, r, logg, "itemId")
		if !ok {
			return
		}
		var req adjustRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		adjust := svc.ConsumeUtility
		if recharge {
			adjust = svc.RechargeUtility
		}
		item, err := adjust(r.Context(), who, id, req.Amount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// ActivityList returns the production log, newest first.
func ActivityList(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "inventory")
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 100, 1, 500)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entries, err := svc.ListActivities(r.Context(), inventory.ActivityFilter{
			OrderID: validators.QueryString(r, "order_id"),
			Kind:    enums.ActivityKind(validators.QueryString(r, "kind")),
			Limit:   limit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}
