package controllers

import (
	"net/http"

	"github.com/angelmondragon/roastery-backend/api/responses"
	"github.com/angelmondragon/roastery-backend/api/validators"
	"github.com/angelmondragon/roastery-backend/internal/roasting"
	"github.com/angelmondragon/roastery-backend/pkg/logger"
)

func RoastList(svc roasting.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "roasting")
			return
		}
		batches, err := svc.List(r.Context(), roasting.ListFilter{
			ClientName: validators.QueryString(r, "client"),
			OrderID:    validators.QueryString(r, "order_id"),
			GreenLotID: validators.QueryString(r, "green_lot_id"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, batches)
	}
}

func RoastGet(svc roasting.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "roasting")
			return
		}
		id, ok := pathID(w, r, logg, "roastId")
		if !ok {
			return
		}
		batch, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, batch)
	}
}

// RoastRecord logs a batch and returns everything it moved: the lot, the
// linked order and the stock it produced.
func RoastRecord(svc roasting.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "roasting")
			return
		}
		who, ok := actor(w, r, logg)
		if !ok {
			return
		}
		var input roasting.RecordInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		outcome, err := svc.RecordRoast(r.Context(), who, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, outcome)
	}
}
