// Package api serves favorites, saved searches, backup and restore over
// HTTP.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mesh-intelligence/keepsake/internal/backup"
	"github.com/mesh-intelligence/keepsake/internal/favorites"
	"github.com/mesh-intelligence/keepsake/internal/savedsearch"
)

const maxRestoreBodySize = 64 << 20 // 64MB

// AppDeps are the components the handlers call.
type AppDeps struct {
	Pager     *favorites.Pager
	Favorites *favorites.Service
	Searches  *savedsearch.Reconciler
	Writer    *backup.Writer
	Restorer  *backup.Restorer
	Logger    *slog.Logger
}

// NewAppHandler returns the router for deps.
func NewAppHandler(deps AppDeps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/favorites", handleListFavorites(deps))
	r.Get("/favorites/random", handleRandomFavorite(deps))
	r.Post("/favorites/toggle", handleToggleFavorite(deps))
	r.Get("/saved-searches", handleListSavedSearches(deps))
	r.Put("/saved-searches", handleUpsertSavedSearch(deps))
	r.Delete("/saved-searches/{name}", handleDeleteSavedSearch(deps))
	r.Get("/backup", handleBackup(deps))
	r.Post("/restore", handleRestore(deps))

	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"message": fmt.Sprintf(format, args...),
			"type":    errType,
		},
	})
}

// intParam returns the query parameter name, or def when it is absent.
func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}

// optionsParam reads the settings, favorites and saved_searches flags.
// When none is given every part is selected.
func optionsParam(r *http.Request) (backup.Options, error) {
	q := r.URL.Query()
	if !q.Has("settings") && !q.Has("favorites") && !q.Has("saved_searches") {
		return backup.AllOptions, nil
	}
	var opts backup.Options
	for name, dst := range map[string]*bool{
		"settings":       &opts.Settings,
		"favorites":      &opts.Favorites,
		"saved_searches": &opts.SavedSearches,
	} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("%s must be a boolean", name)
		}
		*dst = b
	}
	return opts, nil
}
