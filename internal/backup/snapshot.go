package backup

import (
	"encoding/json"
	"time"

	"github.com/mesh-intelligence/keepsake/pkg/types"
)

// CurrentVersion is the snapshot version Writer produces.
const CurrentVersion = 1

// Snapshot is the versioned backup document. Store-assigned ids appear
// only inside the cached bundle, where they link items to uploaders and
// tags within the document; favorites carry natural keys only.
type Snapshot struct {
	Version     int             `json:"version"`
	Preferences json.RawMessage `json:"preferences,omitempty"`
	Favorites   []Favorite      `json:"favorites,omitempty"`
	Cached      *CachedBundle   `json:"wallhaven,omitempty"`
}

// Favorite is the portable form of a favorite reference.
type Favorite struct {
	SourceKind  types.SourceKind `json:"sourceKind"`
	SourceID    string           `json:"sourceId"`
	FavoritedAt time.Time        `json:"favoritedAt"`
}

// CachedBundle holds the Cached source's entities.
type CachedBundle struct {
	Wallpapers    []Wallpaper   `json:"wallpapers,omitempty"`
	Uploaders     []Uploader    `json:"uploaders,omitempty"`
	Tags          []Tag         `json:"tags,omitempty"`
	SavedSearches []SavedSearch `json:"savedSearches,omitempty"`
}

func (b *CachedBundle) empty() bool {
	return b == nil || len(b.Wallpapers)+len(b.Uploaders)+len(b.Tags)+len(b.SavedSearches) == 0
}

// Wallpaper is a cached catalog item. UploaderID and TagIDs refer to the
// ids of the Uploaders and Tags in the same bundle.
type Wallpaper struct {
	ID         int64      `json:"id"`
	ExternalID string     `json:"externalId"`
	UploaderID *int64     `json:"uploaderId,omitempty"`
	TagIDs     []int64    `json:"tagIds,omitempty"`
	URL        string     `json:"url"`
	ShortURL   string     `json:"shortUrl,omitempty"`
	Path       string     `json:"path"`
	Thumbs     Thumbs     `json:"thumbs"`
	Purity     string     `json:"purity,omitempty"`
	Category   string     `json:"category,omitempty"`
	Width      int        `json:"width"`
	Height     int        `json:"height"`
	FileSize   int64      `json:"fileSize"`
	FileType   string     `json:"fileType,omitempty"`
	Views      int        `json:"views"`
	Favorites  int        `json:"favorites"`
	Colors     []string   `json:"colors,omitempty"`
	Source     string     `json:"source,omitempty"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
}

// Thumbs are the thumbnail URLs of a wallpaper.
type Thumbs struct {
	Large    string `json:"large"`
	Original string `json:"original"`
	Small    string `json:"small"`
}

// Uploader is a catalog user.
type Uploader struct {
	ID       int64             `json:"id"`
	Username string            `json:"username"`
	Group    string            `json:"group,omitempty"`
	Avatar   map[string]string `json:"avatar,omitempty"`
}

// Tag is a catalog tag.
type Tag struct {
	ID         int64      `json:"id"`
	ExternalID int64      `json:"externalId,omitempty"`
	Name       string     `json:"name"`
	Alias      string     `json:"alias,omitempty"`
	CategoryID int64      `json:"categoryId,omitempty"`
	Category   string     `json:"category,omitempty"`
	Purity     string     `json:"purity,omitempty"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
}

// SavedSearch is a named query.
type SavedSearch struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Query   string `json:"query"`
	Filters string `json:"filters"`
}

func optTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func valTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func nilIfEmpty[T any](s []T) []T {
	if len(s) == 0 {
		return nil
	}
	return s
}

func fromFavorite(f types.FavoriteReference) Favorite {
	return Favorite{SourceKind: f.Source, SourceID: f.SourceID, FavoritedAt: f.FavoritedAt.UTC()}
}

func (f Favorite) reference() types.FavoriteReference {
	return types.FavoriteReference{Source: f.SourceKind, SourceID: f.SourceID, FavoritedAt: f.FavoritedAt}
}

func fromCachedItem(item types.CachedItem) Wallpaper {
	return Wallpaper{
		ID:         item.ID,
		ExternalID: item.ExternalID,
		UploaderID: item.UploaderID,
		TagIDs:     nilIfEmpty(item.TagIDs),
		URL:        item.URL,
		ShortURL:   item.ShortURL,
		Path:       item.Path,
		Thumbs:     Thumbs(item.Thumbs),
		Purity:     item.Purity,
		Category:   item.Category,
		Width:      item.Width,
		Height:     item.Height,
		FileSize:   item.FileSize,
		FileType:   item.FileType,
		Views:      item.Views,
		Favorites:  item.Favorites,
		Colors:     nilIfEmpty(item.Colors),
		Source:     item.SourceURL,
		CreatedAt:  optTime(item.CreatedAt),
	}
}

// cachedItem converts w with its links already remapped to this store.
func (w Wallpaper) cachedItem(uploaderID *int64, tagIDs []int64) types.CachedItem {
	return types.CachedItem{
		ExternalID: w.ExternalID,
		UploaderID: uploaderID,
		TagIDs:     tagIDs,
		URL:        w.URL,
		ShortURL:   w.ShortURL,
		Path:       w.Path,
		Thumbs:     types.Thumbs(w.Thumbs),
		Purity:     w.Purity,
		Category:   w.Category,
		Width:      w.Width,
		Height:     w.Height,
		FileSize:   w.FileSize,
		FileType:   w.FileType,
		Views:      w.Views,
		Favorites:  w.Favorites,
		Colors:     w.Colors,
		SourceURL:  w.Source,
		CreatedAt:  valTime(w.CreatedAt),
	}
}

func fromUploader(u types.Uploader) Uploader {
	up := Uploader{ID: u.ID, Username: u.Username, Group: u.Group}
	if len(u.Avatar) > 0 {
		up.Avatar = u.Avatar
	}
	return up
}

func (u Uploader) uploader() types.Uploader {
	return types.Uploader{Username: u.Username, Group: u.Group, Avatar: u.Avatar}
}

func fromTag(t types.Tag) Tag {
	return Tag{
		ID:         t.ID,
		ExternalID: t.ExternalID,
		Name:       t.Name,
		Alias:      t.Alias,
		CategoryID: t.CategoryID,
		Category:   t.Category,
		Purity:     t.Purity,
		CreatedAt:  optTime(t.CreatedAt),
	}
}

func (t Tag) tag() types.Tag {
	return types.Tag{
		ExternalID: t.ExternalID,
		Name:       t.Name,
		Alias:      t.Alias,
		CategoryID: t.CategoryID,
		Category:   t.Category,
		Purity:     t.Purity,
		CreatedAt:  valTime(t.CreatedAt),
	}
}

func fromSavedSearch(s types.SavedSearch) SavedSearch {
	return SavedSearch{ID: s.ID, Name: s.Name, Query: s.Query, Filters: s.Filters}
}

// savedSearch drops the id: restore merges by name.
func (s SavedSearch) savedSearch() types.SavedSearch {
	return types.SavedSearch{Name: s.Name, Query: s.Query, Filters: s.Filters}
}
