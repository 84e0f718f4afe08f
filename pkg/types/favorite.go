package types

import "time"

// FavoriteReference is a user's marking of one item, identified by the
// store it came from plus that store's natural id. (Source, SourceID) is
// unique. References are never mutated in place: toggling deletes or
// re-creates them.
type FavoriteReference struct {
	ID          int64      // Store-assigned; not portable.
	Source      SourceKind // Backing store kind.
	SourceID    string     // External id for Cached, path or file URI for Local.
	FavoritedAt time.Time  // Recency key; pages are ordered by it, newest first.
}

// Key returns the portable identity of the reference.
func (f FavoriteReference) Key() FavoriteKey {
	return FavoriteKey{Source: f.Source, SourceID: f.SourceID}
}

// FavoriteKey is the natural key of a favorite.
type FavoriteKey struct {
	Source   SourceKind
	SourceID string
}
