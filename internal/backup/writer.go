// Package backup writes versioned snapshots of favorites, saved searches
// and preferences, reads them back, and restores them into a store whose
// ids may differ from the one they were taken from.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/keepsake/pkg/types"
)

// Store is the entity store a backup is taken from or restored into.
type Store interface {
	types.FavoriteStore
	types.SavedSearchStore
	types.CatalogStore
	types.PreferenceStore
}

// Writer builds snapshots from a store.
type Writer struct {
	store  Store
	logger *slog.Logger
}

// NewWriter returns a writer over store. A nil logger uses slog.Default.
func NewWriter(store Store, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{store: store, logger: logger}
}

// Write builds a snapshot of the parts opts selects. It returns nil and no
// error when opts selects nothing. With favorites included, every cached
// item a Cached favorite points at is included together with its uploader
// and tags.
func (w *Writer) Write(ctx context.Context, opts Options) (*Snapshot, error) {
	if !opts.Any() {
		return nil, nil
	}
	runID := uuid.Must(uuid.NewV7()).String()
	log := w.logger.With("run_id", runID)

	snap := &Snapshot{Version: CurrentVersion}
	bundle := &CachedBundle{}

	if opts.Settings {
		prefs, err := w.store.Preferences(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading preferences: %w", err)
		}
		snap.Preferences = prefs
	}

	if opts.Favorites {
		if err := w.writeFavorites(ctx, snap, bundle); err != nil {
			return nil, err
		}
	}

	if opts.SavedSearches {
		searches, err := w.store.AllSavedSearches(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading saved searches: %w", err)
		}
		for _, s := range searches {
			bundle.SavedSearches = append(bundle.SavedSearches, fromSavedSearch(s))
		}
	}

	if !bundle.empty() {
		snap.Cached = bundle
	}
	log.Info("backup written",
		"preferences", snap.Preferences != nil,
		"favorites", len(snap.Favorites),
		"wallpapers", len(bundle.Wallpapers),
		"uploaders", len(bundle.Uploaders),
		"tags", len(bundle.Tags),
		"saved_searches", len(bundle.SavedSearches))
	return snap, nil
}

func (w *Writer) writeFavorites(ctx context.Context, snap *Snapshot, bundle *CachedBundle) error {
	favs, err := w.store.AllFavorites(ctx)
	if err != nil {
		return fmt.Errorf("reading favorites: %w", err)
	}
	var cachedIDs []string
	for _, f := range favs {
		snap.Favorites = append(snap.Favorites, fromFavorite(f))
		if f.Source == types.SourceCached {
			cachedIDs = append(cachedIDs, f.SourceID)
		}
	}
	if len(cachedIDs) == 0 {
		return nil
	}

	details, err := w.store.CachedItemsByExternalIDs(ctx, cachedIDs)
	if err != nil {
		return fmt.Errorf("reading cached items: %w", err)
	}
	seenUploaders := make(map[int64]bool)
	seenTags := make(map[int64]bool)
	for _, d := range details {
		bundle.Wallpapers = append(bundle.Wallpapers, fromCachedItem(d.Item))
		if u := d.Uploader; u != nil && !seenUploaders[u.ID] {
			seenUploaders[u.ID] = true
			bundle.Uploaders = append(bundle.Uploaders, fromUploader(*u))
		}
		for _, t := range d.Tags {
			if !seenTags[t.ID] {
				seenTags[t.ID] = true
				bundle.Tags = append(bundle.Tags, fromTag(t))
			}
		}
	}
	return nil
}

// Encode renders snap as indented JSON. The version field comes first.
func Encode(snap *Snapshot) ([]byte, error) {
	if snap == nil {
		return nil, fmt.Errorf("encoding snapshot: %w", types.ErrMalformedSnapshot)
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return append(data, '\n'), nil
}
