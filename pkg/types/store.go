package types

import (
	"context"
	"encoding/json"
)

// FavoriteStore persists favorite references.
type FavoriteStore interface {
	// FavoritesPage returns up to limit references starting at offset,
	// ordered by FavoritedAt descending.
	FavoritesPage(ctx context.Context, offset, limit int) ([]FavoriteReference, error)
	AllFavorites(ctx context.Context) ([]FavoriteReference, error)
	FavoriteExists(ctx context.Context, source SourceKind, sourceID string) (bool, error)
	AddFavorite(ctx context.Context, ref FavoriteReference) error
	DeleteFavorite(ctx context.Context, source SourceKind, sourceID string) error

	// InsertFavorites inserts the references whose (Source, SourceID) is not
	// already present and returns how many rows were inserted. Existing rows
	// keep their FavoritedAt.
	InsertFavorites(ctx context.Context, refs []FavoriteReference) (int, error)

	// RandomFavorite returns ErrNotFound when there are no favorites.
	RandomFavorite(ctx context.Context) (FavoriteReference, error)
}

// SavedSearchStore persists saved searches.
type SavedSearchStore interface {
	SavedSearchByID(ctx context.Context, id int64) (SavedSearch, error)
	SavedSearchByName(ctx context.Context, name string) (SavedSearch, error)
	SavedSearchesByNames(ctx context.Context, names []string) ([]SavedSearch, error)
	AllSavedSearches(ctx context.Context) ([]SavedSearch, error)

	// UpsertSavedSearches writes all searches in one transaction. A zero ID
	// inserts a new row; a non-zero ID overwrites that row.
	UpsertSavedSearches(ctx context.Context, searches []SavedSearch) error
	DeleteSavedSearchByName(ctx context.Context, name string) error
}

// CatalogStore persists cached catalog items with their tags and uploaders.
type CatalogStore interface {
	CachedItemByExternalID(ctx context.Context, externalID string) (CachedItemDetail, error)
	CachedItemsByExternalIDs(ctx context.Context, externalIDs []string) ([]CachedItemDetail, error)

	// ExistingExternalIDs returns the subset of externalIDs present in the store.
	ExistingExternalIDs(ctx context.Context, externalIDs []string) (map[string]bool, error)

	// UpsertTags and UpsertUploaders are keyed by Name and Username; the ID
	// fields of the arguments are ignored.
	UpsertTags(ctx context.Context, tags []Tag) error
	TagsByNames(ctx context.Context, names []string) ([]Tag, error)
	UpsertUploaders(ctx context.Context, uploaders []Uploader) error
	UploadersByUsernames(ctx context.Context, usernames []string) ([]Uploader, error)

	// UpsertCachedItems is keyed by ExternalID. UploaderID and TagIDs must
	// already be ids of this store.
	UpsertCachedItems(ctx context.Context, items []CachedItem) error
}

// PreferenceStore holds the application preferences as an opaque document.
type PreferenceStore interface {
	// Preferences returns nil when nothing has been stored.
	Preferences(ctx context.Context) (json.RawMessage, error)
	SetPreferences(ctx context.Context, prefs json.RawMessage) error
}

// Resolver hydrates favorites of one source kind. Resolve returns
// ErrNotFound (possibly wrapped) when the referent no longer exists or is
// not accessible; any other error is a failure of the resolution itself.
type Resolver interface {
	Resolve(ctx context.Context, sourceID string) (Item, error)
}
