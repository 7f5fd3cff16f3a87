// Package orders exposes the order lifecycle over HTTP.
package orders

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/roastery-backend/api/middleware"
	"github.com/angelmondragon/roastery-backend/api/responses"
	"github.com/angelmondragon/roastery-backend/api/validators"
	internalorders "github.com/angelmondragon/roastery-backend/internal/orders"
	"github.com/angelmondragon/roastery-backend/pkg/db/models"
	"github.com/angelmondragon/roastery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/roastery-backend/pkg/errors"
	"github.com/angelmondragon/roastery-backend/pkg/logger"
)

func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			writeUnavailable(w, r, logg)
			return
		}
		active, err := validators.ParseQueryBool(r, "active", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter := internalorders.ListFilter{
			ClientName: validators.QueryString(r, "client"),
			Status:     enums.OrderStatus(validators.QueryString(r, "status")),
			Type:       enums.OrderType(validators.QueryString(r, "type")),
			ActiveOnly: active,
		}
		if filter.Status != "" && !filter.Status.IsValid() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid status %q", filter.Status))
			return
		}
		list, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			writeUnavailable(w, r, logg)
			return
		}
		id, ok := orderID(w, r, logg)
		if !ok {
			return
		}
		order, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			writeUnavailable(w, r, logg)
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		var input internalorders.CreateOrderInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Create(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func Update(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			writeUnavailable(w, r, logg)
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		id, ok := orderID(w, r, logg)
		if !ok {
			return
		}
		var input internalorders.UpdateOrderInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Update(r.Context(), actor, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// Delete requires ?confirm=true; the UI asks before sending it.
func Delete(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			writeUnavailable(w, r, logg)
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		id, ok := orderID(w, r, logg)
		if !ok {
			return
		}
		confirmed, err := validators.ParseQueryBool(r, "confirm", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), actor, id, confirmed); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// Assemble deducts roasted stock and packaging into the order.
func Assemble(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			writeUnavailable(w, r, logg)
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		id, ok := orderID(w, r, logg)
		if !ok {
			return
		}
		var input internalorders.AssembleInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Assemble(r.Context(), actor, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func Dispatch(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			writeUnavailable(w, r, logg)
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		id, ok := orderID(w, r, logg)
		if !ok {
			return
		}
		var input internalorders.DispatchInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Dispatch(r.Context(), actor, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// Transition serves the body-less lifecycle actions (ready, invoice, pause, resume).
func Transition(svc internalorders.Service, logg *logger.Logger, action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			writeUnavailable(w, r, logg)
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		id, ok := orderID(w, r, logg)
		if !ok {
			return
		}
		var (
			order *models.Order
			err   error
		)
		switch action {
		case ActionReady:
			order, err = svc.MarkReady(r.Context(), actor, id)
		case ActionInvoice:
			order, err = svc.Invoice(r.Context(), actor, id)
		case ActionPause:
			order, err = svc.Pause(r.Context(), actor, id)
		case ActionResume:
			order, err = svc.Resume(r.Context(), actor, id)
		default:
			err = pkgerrors.Newf(pkgerrors.CodeValidation, "unknown order action %q", action)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

const (
	ActionReady   = "ready"
	ActionInvoice = "invoice"
	ActionPause   = "pause"
	ActionResume  = "resume"
)

func orderID(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (string, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "orderId"))
	if id == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order id is required"))
		return "", false
	}
	return id, true
}

func requireActor(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (string, bool) {
	actor := middleware.ActorFromContext(r.Context())
	if actor == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "subject missing"))
		return "", false
	}
	return actor, true
}

func writeUnavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
}
