package backup

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/keepsake/internal/savedsearch"
	"github.com/mesh-intelligence/keepsake/pkg/types"
)

// AccessChecker reports whether a Local favorite's file can still be read.
type AccessChecker interface {
	Accessible(ctx context.Context, sourceID string) bool
}

// Receipt records what a restore did. Counts are of records written or
// matched, not of rows changed.
type Receipt struct {
	RunID               string     `json:"run_id"`
	Version             int        `json:"version"`
	PreferencesRestored bool       `json:"preferences_restored"`
	SavedSearches       int        `json:"saved_searches"`
	Tags                int        `json:"tags"`
	Uploaders           int        `json:"uploaders"`
	CachedItems         int        `json:"cached_items"`
	CachedItemsSkipped  int        `json:"cached_items_skipped"`
	FavoritesInserted   int        `json:"favorites_inserted"`
	FavoritesExisting   int        `json:"favorites_existing"`
	DroppedFavorites    []Favorite `json:"dropped_favorites,omitempty"`
}

// Restorer applies snapshots to a store.
type Restorer struct {
	store    Store
	searches *savedsearch.Reconciler
	local    AccessChecker
	logger   *slog.Logger
}

// NewRestorer returns a restorer writing to store. local checks Local
// favorites; with a nil checker every Local favorite is dropped.
func NewRestorer(store Store, local AccessChecker, logger *slog.Logger) *Restorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Restorer{
		store:    store,
		searches: savedsearch.NewReconciler(store, logger),
		local:    local,
		logger:   logger,
	}
}

// Restore applies the parts of snap that opts selects, in dependency
// order: preferences, saved searches, then tags, uploaders, cached items
// and favorites. Each step commits before the next starts and a storage
// failure aborts the remaining steps. Every step is idempotent, so a
// failed restore can be run again.
//
// Favorites whose referent is missing from the destination are dropped
// and listed in the receipt rather than failing the restore.
func (r *Restorer) Restore(ctx context.Context, snap *Snapshot, opts Options) (*Receipt, error) {
	if snap == nil {
		return nil, fmt.Errorf("%w: no snapshot", types.ErrMalformedSnapshot)
	}
	if _, ok := schemas[snap.Version]; !ok {
		return nil, fmt.Errorf("%w: unsupported version %d", types.ErrMalformedSnapshot, snap.Version)
	}
	rc := &Receipt{RunID: uuid.Must(uuid.NewV7()).String(), Version: snap.Version}
	if !opts.Any() {
		return rc, nil
	}
	log := r.logger.With("run_id", rc.RunID)
	bundle := snap.Cached
	if bundle == nil {
		bundle = &CachedBundle{}
	}

	if opts.Settings && snap.Preferences != nil {
		if err := r.store.SetPreferences(ctx, snap.Preferences); err != nil {
			return rc, fmt.Errorf("restoring preferences: %w", err)
		}
		rc.PreferencesRestored = true
	}

	if opts.SavedSearches && len(bundle.SavedSearches) > 0 {
		if err := r.restoreSavedSearches(ctx, log, bundle.SavedSearches, rc); err != nil {
			return rc, err
		}
	}

	if opts.Favorites && len(snap.Favorites) > 0 {
		tagRemap, err := r.restoreTags(ctx, log, bundle.Tags, rc)
		if err != nil {
			return rc, err
		}
		uploaderRemap, err := r.restoreUploaders(ctx, log, bundle.Uploaders, rc)
		if err != nil {
			return rc, err
		}
		if err := r.restoreCachedItems(ctx, log, bundle.Wallpapers, uploaderRemap, tagRemap, rc); err != nil {
			return rc, err
		}
		if err := r.restoreFavorites(ctx, log, snap.Favorites, rc); err != nil {
			return rc, err
		}
	}

	log.Info("restore complete",
		"preferences", rc.PreferencesRestored,
		"saved_searches", rc.SavedSearches,
		"tags", rc.Tags,
		"uploaders", rc.Uploaders,
		"cached_items", rc.CachedItems,
		"cached_items_skipped", rc.CachedItemsSkipped,
		"favorites_inserted", rc.FavoritesInserted,
		"favorites_existing", rc.FavoritesExisting,
		"favorites_dropped", len(rc.DroppedFavorites))
	return rc, nil
}

func (r *Restorer) restoreSavedSearches(ctx context.Context, log *slog.Logger, in []SavedSearch, rc *Receipt) error {
	searches := make([]types.SavedSearch, 0, len(in))
	names := make(map[string]bool, len(in))
	for _, s := range in {
		if s.Name == "" {
			log.Warn("skipping saved search without a name", "id", s.ID)
			continue
		}
		searches = append(searches, s.savedSearch())
		names[s.Name] = true
	}
	if err := r.searches.UpsertMany(ctx, searches); err != nil {
		return fmt.Errorf("restoring saved searches: %w", err)
	}
	rc.SavedSearches = len(names)
	return nil
}

// restoreTags upserts the bundle's tags and maps their snapshot ids to
// the ids this store assigned, through tag names.
func (r *Restorer) restoreTags(ctx context.Context, log *slog.Logger, in []Tag, rc *Receipt) (map[int64]int64, error) {
	oldByName := make(map[string][]int64, len(in))
	var tags []types.Tag
	var names []string
	for _, t := range in {
		if t.Name == "" {
			log.Warn("skipping tag without a name", "id", t.ID)
			continue
		}
		if _, seen := oldByName[t.Name]; !seen {
			names = append(names, t.Name)
			tags = append(tags, t.tag())
		}
		oldByName[t.Name] = append(oldByName[t.Name], t.ID)
	}
	if len(tags) == 0 {
		return nil, nil
	}
	if err := r.store.UpsertTags(ctx, tags); err != nil {
		return nil, fmt.Errorf("restoring tags: %w", err)
	}
	stored, err := r.store.TagsByNames(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("looking up restored tags: %w", err)
	}
	remap := make(map[int64]int64, len(in))
	for _, t := range stored {
		for _, old := range oldByName[t.Name] {
			remap[old] = t.ID
		}
	}
	rc.Tags = len(tags)
	return remap, nil
}

// restoreUploaders upserts the bundle's uploaders and maps their snapshot
// ids to this store's ids through usernames. The map is built only after
// the upsert, from what the store reports.
func (r *Restorer) restoreUploaders(ctx context.Context, log *slog.Logger, in []Uploader, rc *Receipt) (map[int64]int64, error) {
	oldByUsername := make(map[string]int64, len(in))
	var uploaders []types.Uploader
	var usernames []string
	for _, u := range in {
		if u.Username == "" {
			log.Warn("skipping uploader without a username", "id", u.ID)
			continue
		}
		if _, seen := oldByUsername[u.Username]; !seen {
			usernames = append(usernames, u.Username)
			uploaders = append(uploaders, u.uploader())
		}
		oldByUsername[u.Username] = u.ID
	}
	if len(uploaders) == 0 {
		return nil, nil
	}
	if err := r.store.UpsertUploaders(ctx, uploaders); err != nil {
		return nil, fmt.Errorf("restoring uploaders: %w", err)
	}
	stored, err := r.store.UploadersByUsernames(ctx, usernames)
	if err != nil {
		return nil, fmt.Errorf("looking up restored uploaders: %w", err)
	}
	remap := make(map[int64]int64, len(stored))
	for _, u := range stored {
		if old, ok := oldByUsername[u.Username]; ok {
			remap[old] = u.ID
		}
	}
	rc.Uploaders = len(uploaders)
	return remap, nil
}

// restoreCachedItems rewrites item links through the remaps and upserts
// the items. Nothing is written unless at least one uploader was mapped.
func (r *Restorer) restoreCachedItems(ctx context.Context, log *slog.Logger, in []Wallpaper,
	uploaderRemap, tagRemap map[int64]int64, rc *Receipt,
) error {
	if len(in) == 0 {
		return nil
	}
	if len(uploaderRemap) == 0 {
		log.Warn("no uploaders restored, skipping cached items", "count", len(in))
		rc.CachedItemsSkipped = len(in)
		return nil
	}

	items := make([]types.CachedItem, 0, len(in))
	for _, w := range in {
		var uploaderID *int64
		if w.UploaderID != nil {
			if id, ok := uploaderRemap[*w.UploaderID]; ok {
				uploaderID = &id
			}
		}
		var tagIDs []int64
		for _, old := range w.TagIDs {
			if id, ok := tagRemap[old]; ok {
				tagIDs = append(tagIDs, id)
			}
		}
		items = append(items, w.cachedItem(uploaderID, tagIDs))
	}
	if err := r.store.UpsertCachedItems(ctx, items); err != nil {
		return fmt.Errorf("restoring cached items: %w", err)
	}
	rc.CachedItems = len(items)
	return nil
}

// restoreFavorites inserts the favorites whose referent exists in this
// store. Favorites already present keep their original timestamp.
func (r *Restorer) restoreFavorites(ctx context.Context, log *slog.Logger, in []Favorite, rc *Receipt) error {
	seen := make(map[types.FavoriteKey]bool, len(in))
	var unique []Favorite
	var cachedIDs []string
	for _, f := range in {
		key := types.FavoriteKey{Source: f.SourceKind, SourceID: f.SourceID}
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, f)
		if f.SourceKind == types.SourceCached {
			cachedIDs = append(cachedIDs, f.SourceID)
		}
	}

	present, err := r.store.ExistingExternalIDs(ctx, cachedIDs)
	if err != nil {
		return fmt.Errorf("checking cached items: %w", err)
	}

	var keep []types.FavoriteReference
	for _, f := range unique {
		ok := false
		switch f.SourceKind {
		case types.SourceCached:
			ok = present[f.SourceID]
		case types.SourceLocal:
			ok = r.local != nil && r.local.Accessible(ctx, f.SourceID)
		}
		if !ok {
			log.Debug("dropping unsatisfiable favorite", "source", f.SourceKind, "source_id", f.SourceID)
			rc.DroppedFavorites = append(rc.DroppedFavorites, f)
			continue
		}
		keep = append(keep, f.reference())
	}

	inserted, err := r.store.InsertFavorites(ctx, keep)
	if err != nil {
		return fmt.Errorf("restoring favorites: %w", err)
	}
	rc.FavoritesInserted = inserted
	rc.FavoritesExisting = len(keep) - inserted
	return nil
}
