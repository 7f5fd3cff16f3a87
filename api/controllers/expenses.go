package controllers

import (
	"net/http"

	"github.com/angelmondragon/roastery-backend/api/responses"
	"github.com/angelmondragon/roastery-backend/api/validators"
	"github.com/angelmondragon/roastery-backend/internal/expenses"
	"github.com/angelmondragon/roastery-backend/pkg/db/models"
	"github.com/angelmondragon/roastery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/roastery-backend/pkg/errors"
	"github.com/angelmondragon/roastery-backend/pkg/logger"
)

type expenseListResponse struct {
	Items   []models.Expense `json:"items"`
	Summary expenses.Summary `json:"summary"`
}

// ExpenseList returns the filtered expenses together with their pending/paid totals.
func ExpenseList(svc expenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "expenses")
			return
		}
		filter := expenses.ListFilter{
			Status:  enums.ExpenseStatus(validators.QueryString(r, "status")),
			OrderID: validators.QueryString(r, "order_id"),
		}
		if filter.Status != "" && !filter.Status.IsValid() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid status %q", filter.Status))
			return
		}
		items, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, expenseListResponse{Items: items, Summary: expenses.Summarize(items)})
	}
}

func ExpenseGet(svc expenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "expenses")
			return
		}
		id, ok := pathID(w, r, logg, "expenseId")
		if !ok {
			return
		}
		expense, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, expense)
	}
}

func ExpenseCreate(svc expenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "expenses")
			return
		}
		who, ok := actor(w, r, logg)
		if !ok {
			return
		}
		var input expenses.Input
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		expense, err := svc.Create(r.Context(), who, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, expense)
	}
}

func ExpenseUpdate(svc expenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "expenses")
			return
		}
		who, ok := actor(w, r, logg)
		if !ok {
			return
		}
		id, ok := pathID(w, r, logg, "expenseId")
		if !ok {
			return
		}
		var input expenses.Input
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		expense, err := svc.Update(r.Context(), who, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, expense)
	}
}

func ExpensePay(svc expenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "expenses")
			return
		}
		who, ok := actor(w, r, logg)
		if !ok {
			return
		}
		id, ok := pathID(w, r, logg, "expenseId")
		if !ok {
			return
		}
		expense, err := svc.MarkPaid(r.Context(), who, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, expense)
	}
}

func ExpenseDelete(svc expenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "expenses")
			return
		}
		who, ok := actor(w, r, logg)
		if !ok {
			return
		}
		id, ok := pathID(w, r, logg, "expenseId")
		if !ok {
			return
		}
		if err := svc.Delete(r.Context(), who, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
