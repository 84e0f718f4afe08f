// Package savedsearch merges named queries into the store by name,
// preserving the id of any search that already exists.
package savedsearch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mesh-intelligence/keepsake/pkg/types"
)

// Reconciler upserts saved searches keyed by name.
type Reconciler struct {
	store  types.SavedSearchStore
	logger *slog.Logger
}

// NewReconciler returns a reconciler over store. A nil logger uses
// slog.Default.
func NewReconciler(store types.SavedSearchStore, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{store: store, logger: logger}
}

// UpsertOne writes s. The existing row is found by s.ID when it is set and
// by s.Name otherwise; a found row keeps its id and takes the new name,
// query and filters. Otherwise s is inserted as a new row.
func (r *Reconciler) UpsertOne(ctx context.Context, s types.SavedSearch) (types.SavedSearch, error) {
	s.Name = strings.TrimSpace(s.Name)
	if s.Name == "" {
		return types.SavedSearch{}, types.ErrInvalidName
	}

	var existing types.SavedSearch
	var err error
	if s.ID != 0 {
		existing, err = r.store.SavedSearchByID(ctx, s.ID)
	} else {
		existing, err = r.store.SavedSearchByName(ctx, s.Name)
	}
	switch {
	case errors.Is(err, types.ErrNotFound):
		existing = types.SavedSearch{}
	case err != nil:
		return types.SavedSearch{}, err
	}

	merged := merge(existing, s)
	if err := r.store.UpsertSavedSearches(ctx, []types.SavedSearch{merged}); err != nil {
		return types.SavedSearch{}, err
	}
	r.logger.Debug("saved search upserted", "name", merged.Name, "id", merged.ID)
	return r.store.SavedSearchByName(ctx, merged.Name)
}

// UpsertMany writes searches keyed by name with a single lookup and a
// single bulk write. When two searches share a name the last one wins.
// Incoming ids are ignored.
func (r *Reconciler) UpsertMany(ctx context.Context, searches []types.SavedSearch) error {
	if len(searches) == 0 {
		return nil
	}

	var names []string
	latest := make(map[string]types.SavedSearch, len(searches))
	for _, s := range searches {
		s.Name = strings.TrimSpace(s.Name)
		if s.Name == "" {
			return types.ErrInvalidName
		}
		if _, dup := latest[s.Name]; !dup {
			names = append(names, s.Name)
		} else {
			r.logger.Warn("duplicate saved search name, keeping the last", "name", s.Name)
		}
		latest[s.Name] = s
	}

	existing, err := r.store.SavedSearchesByNames(ctx, names)
	if err != nil {
		return err
	}
	byName := make(map[string]types.SavedSearch, len(existing))
	for _, e := range existing {
		byName[e.Name] = e
	}

	merged := make([]types.SavedSearch, len(names))
	for i, name := range names {
		merged[i] = merge(byName[name], latest[name])
	}
	if err := r.store.UpsertSavedSearches(ctx, merged); err != nil {
		return err
	}
	r.logger.Debug("saved searches upserted", "count", len(merged), "existing", len(existing))
	return nil
}

// Delete removes the search named name. Deleting an absent name succeeds.
func (r *Reconciler) Delete(ctx context.Context, name string) error {
	return r.store.DeleteSavedSearchByName(ctx, strings.TrimSpace(name))
}

// List returns every saved search ordered by name.
func (r *Reconciler) List(ctx context.Context) ([]types.SavedSearch, error) {
	return r.store.AllSavedSearches(ctx)
}

// Get returns the saved search with id.
func (r *Reconciler) Get(ctx context.Context, id int64) (types.SavedSearch, error) {
	s, err := r.store.SavedSearchByID(ctx, id)
	if err != nil {
		return types.SavedSearch{}, fmt.Errorf("saved search %d: %w", id, err)
	}
	return s, nil
}

// merge overlays incoming on existing. A zero existing yields a new row.
func merge(existing, incoming types.SavedSearch) types.SavedSearch {
	return types.SavedSearch{
		ID:      existing.ID,
		Name:    incoming.Name,
		Query:   incoming.Query,
		Filters: incoming.Filters,
	}
}
