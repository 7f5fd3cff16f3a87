package controllers

import (
	"net/http"

	"github.com/angelmondragon/roastery-backend/api/responses"
	"github.com/angelmondragon/roastery-backend/api/validators"
	"github.com/angelmondragon/roastery-backend/internal/inventory"
	"github.com/angelmondragon/roastery-backend/pkg/logger"
)

func GreenCoffeeList(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "inventory")
			return
		}
		inStock, err := validators.ParseQueryBool(r, "in_stock", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lots, err := svc.ListGreenLots(r.Context(), inventory.GreenLotFilter{
			ClientName:  validators.QueryString(r, "client"),
			InStockOnly: inStock,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lots)
	}
}

func GreenCoffeeGet(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "inventory")
			return
		}
		id, ok := pathID(w, r, logg, "lotId")
		if !ok {
			return
		}
		lot, err := svc.GetGreenLot(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lot)
	}
}

func GreenCoffeeCreate(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "inventory")
			return
		}
		who, ok := actor(w, r, logg)
		if !ok {
			return
		}
		var input inventory.GreenLotInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lot, err := svc.CreateGreenLot(r.Context(), who, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, lot)
	}
}

func GreenCoffeeUpdate(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "inventory")
			return
		}
		who, ok := actor(w, r, logg)
		if !ok {
			return
		}
		id, ok := pathID(w, r, logg, "lotId")
		if !ok {
			return
		}
		var input inventory.GreenLotInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lot, err := svc.UpdateGreenLot(r.Context(), who, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lot)
	}
}

func GreenCoffeeDelete(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "inventory")
			return
		}
		who, ok := actor(w, r, logg)
		if !ok {
			return
		}
		id, ok := pathID(w, r, logg, "lotId")
		if !ok {
			return
		}
		if err := svc.DeleteGreenLot(r.Context(), who, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
