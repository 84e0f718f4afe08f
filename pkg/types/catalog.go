package types

import "time"

// Uploader is the catalog user who published a cached item. Username is
// the natural key.
type Uploader struct {
	ID       int64
	Username string
	Group    string
	Avatar   map[string]string // Avatar URLs keyed by size, e.g. "32px".
}

// Tag is an immutable catalog fact attached to cached items. Name is the
// natural key.
type Tag struct {
	ID         int64
	ExternalID int64 // Catalog tag id; informational.
	Name       string
	Alias      string
	CategoryID int64
	Category   string
	Purity     string
	CreatedAt  time.Time
}

// Thumbs holds the thumbnail URLs of a cached item.
type Thumbs struct {
	Large    string
	Original string
	Small    string
}

// CachedItem is a catalog record cached locally. ExternalID is unique.
// UploaderID and TagIDs are store ids and must be remapped when moved to
// another store.
type CachedItem struct {
	ID         int64
	ExternalID string
	UploaderID *int64
	TagIDs     []int64
	URL        string
	ShortURL   string
	Path       string // Full-resolution image URL.
	Thumbs     Thumbs
	Purity     string
	Category   string
	Width      int
	Height     int
	FileSize   int64
	FileType   string
	Views      int
	Favorites  int
	Colors     []string
	SourceURL  string
	CreatedAt  time.Time
}

// CachedItemDetail is a cached item hydrated with its uploader and tags.
type CachedItemDetail struct {
	Item     CachedItem
	Uploader *Uploader
	Tags     []Tag
}
