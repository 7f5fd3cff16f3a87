package controllers

import (
	"net/http"

	"github.com/angelmondragon/roastery-backend/api/responses"
	"github.com/angelmondragon/roastery-backend/api/validators"
	"github.com/angelmondragon/roastery-backend/internal/cupping"
	"github.com/angelmondragon/roastery-backend/pkg/enums"
	"github.com/angelmondragon/roastery-backend/pkg/logger"
)

func CuppingList(svc cupping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "cupping")
			return
		}
		sessions, err := svc.List(r.Context(), cupping.ListFilter{
			Kind:           enums.CuppingKind(validators.QueryString(r, "kind")),
			RoastedStockID: validators.QueryString(r, "roasted_stock_id"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sessions)
	}
}

func CuppingGet(svc cupping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "cupping")
			return
		}
		id, ok := pathID(w, r, logg, "sessionId")
		if !ok {
			return
		}
		session, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

func CuppingCreate(svc cupping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "cupping")
			return
		}
		who, ok := actor(w, r, logg)
		if !ok {
			return
		}
		var input cupping.SessionInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		session, err := svc.Create(r.Context(), who, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, session)
	}
}

func CuppingDelete(svc cupping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "cupping")
			return
		}
		who, ok := actor(w, r, logg)
		if !ok {
			return
		}
		id, ok := pathID(w, r, logg, "sessionId")
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

// CuppingVocabulary lists the allowed descriptor tags per attribute.
func CuppingVocabulary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, cupping.Vocabularies())
	}
}
