package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mesh-intelligence/keepsake/pkg/types"
)

type savedSearchJSON struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Query   string `json:"query"`
	Filters string `json:"filters"`
}

func handleListSavedSearches(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		searches, err := deps.Searches.List(r.Context())
		if err != nil {
			httpError(w, http.StatusInternalServerError, "server_error", "listing saved searches: %v", err)
			return
		}
		out := make([]savedSearchJSON, 0, len(searches))
		for _, s := range searches {
			out = append(out, savedSearchJSON(s))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleUpsertSavedSearch(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req savedSearchJSON
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		saved, err := deps.Searches.UpsertOne(r.Context(), types.SavedSearch(req))
		if errors.Is(err, types.ErrInvalidName) {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "server_error", "saving search: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, savedSearchJSON(saved))
	}
}

func handleDeleteSavedSearch(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if err := deps.Searches.Delete(r.Context(), name); err != nil {
			httpError(w, http.StatusInternalServerError, "server_error", "deleting saved search: %v", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
