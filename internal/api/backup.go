package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/mesh-intelligence/keepsake/internal/backup"
	"github.com/mesh-intelligence/keepsake/pkg/types"
)

func handleBackup(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := optionsParam(r)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		snap, err := deps.Writer.Write(r.Context(), opts)
		if err != nil {
			deps.Logger.Error("writing backup", "error", err)
			httpError(w, http.StatusInternalServerError, "server_error", "writing backup: %v", err)
			return
		}
		if snap == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		data, err := backup.Encode(snap)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "server_error", "encoding backup: %v", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="`+backup.FileName(time.Now())+`"`)
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}
}

func handleRestore(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := optionsParam(r)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxRestoreBodySize)
		defer r.Body.Close()
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "reading body: %v", err)
			return
		}

		snap, err := backup.Read(raw)
		if err != nil {
			httpError(w, http.StatusBadRequest, "malformed_snapshot", "%v", err)
			return
		}
		receipt, err := deps.Restorer.Restore(r.Context(), snap, opts)
		if errors.Is(err, types.ErrMalformedSnapshot) {
			httpError(w, http.StatusBadRequest, "malformed_snapshot", "%v", err)
			return
		}
		if err != nil {
			deps.Logger.Error("restoring backup", "error", err)
			httpError(w, http.StatusInternalServerError, "server_error", "restoring backup: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, receipt)
	}
}
