package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/angelmondragon/roastery-backend/api/responses"
	"github.com/angelmondragon/roastery-backend/api/validators"
	"github.com/angelmondragon/roastery-backend/internal/backup"
	"github.com/angelmondragon/roastery-backend/pkg/logger"
)

const maxBackupBytes = 64 << 20

// BackupExport returns every collection as one downloadable document. The
// document is not wrapped in the data envelope so it can be imported as is.
func BackupExport(svc backup.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "backup")
			return
		}
		doc, err := svc.Export(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		name := fmt.Sprintf("roastery-backup-%s.json", doc.ExportedAt.UTC().Format("20060102-150405"))
		responses.WriteAttachment(w, name, doc)
	}
}

// BackupImport replaces local data with an exported document.
func BackupImport(svc backup.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "backup")
			return
		}
		who, ok := actor(w, r, logg)
		if !ok {
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBackupBytes)
		var doc backup.Document
		if err := validators.DecodeJSONBody(r, &doc); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if doc.ExportedAt.IsZero() {
			doc.ExportedAt = time.Now().UTC()
		}
		result, err := svc.Import(r.Context(), who, &doc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
