package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mesh-intelligence/keepsake/pkg/types"
)

// Record structures that mirror the table columns. JSON-valued columns
// (avatar, thumbs, colors) are stored as text.

type favoriteRow struct {
	ID          int64  `db:"id"`
	Source      string `db:"source"`
	SourceID    string `db:"source_id"`
	FavoritedAt string `db:"favorited_at"`
}

type savedSearchRow struct {
	ID      int64  `db:"id"`
	Name    string `db:"name"`
	Query   string `db:"query"`
	Filters string `db:"filters"`
}

type uploaderRow struct {
	ID        int64  `db:"id"`
	Username  string `db:"username"`
	GroupName string `db:"group_name"`
	Avatar    string `db:"avatar"`
}

type tagRow struct {
	ID         int64  `db:"id"`
	Name       string `db:"name"`
	ExternalID int64  `db:"external_id"`
	Alias      string `db:"alias"`
	CategoryID int64  `db:"category_id"`
	Category   string `db:"category"`
	Purity     string `db:"purity"`
	CreatedAt  string `db:"created_at"`
}

type cachedItemRow struct {
	ID         int64         `db:"id"`
	ExternalID string        `db:"external_id"`
	UploaderID sql.NullInt64 `db:"uploader_id"`
	URL        string        `db:"url"`
	ShortURL   string        `db:"short_url"`
	Path       string        `db:"path"`
	Thumbs     string        `db:"thumbs"`
	Purity     string        `db:"purity"`
	Category   string        `db:"category"`
	Width      int           `db:"width"`
	Height     int           `db:"height"`
	FileSize   int64         `db:"file_size"`
	FileType   string        `db:"file_type"`
	Views      int           `db:"views"`
	Favorites  int           `db:"favorites"`
	Colors     string        `db:"colors"`
	SourceURL  string        `db:"source_url"`
	CreatedAt  string        `db:"created_at"`
}

// thumbsJSON is the stored form of types.Thumbs.
type thumbsJSON struct {
	Large    string `json:"large"`
	Original string `json:"original"`
	Small    string `json:"small"`
}

// timeLayout is fixed-width so stored timestamps sort lexicographically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

func (r favoriteRow) toFavorite() (types.FavoriteReference, error) {
	at, err := parseTime(r.FavoritedAt)
	if err != nil {
		return types.FavoriteReference{}, fmt.Errorf("parsing favorited_at of favorite %d: %w", r.ID, err)
	}
	return types.FavoriteReference{
		ID:          r.ID,
		Source:      types.SourceKind(r.Source),
		SourceID:    r.SourceID,
		FavoritedAt: at,
	}, nil
}

func (r savedSearchRow) toSavedSearch() types.SavedSearch {
	return types.SavedSearch{ID: r.ID, Name: r.Name, Query: r.Query, Filters: r.Filters}
}

func (r uploaderRow) toUploader() (types.Uploader, error) {
	u := types.Uploader{ID: r.ID, Username: r.Username, Group: r.GroupName}
	if r.Avatar != "" {
		if err := json.Unmarshal([]byte(r.Avatar), &u.Avatar); err != nil {
			return types.Uploader{}, fmt.Errorf("parsing avatar of uploader %q: %w", r.Username, err)
		}
	}
	return u, nil
}

func (r tagRow) toTag() (types.Tag, error) {
	at, err := parseTime(r.CreatedAt)
	if err != nil {
		return types.Tag{}, fmt.Errorf("parsing created_at of tag %q: %w", r.Name, err)
	}
	return types.Tag{
		ID:         r.ID,
		ExternalID: r.ExternalID,
		Name:       r.Name,
		Alias:      r.Alias,
		CategoryID: r.CategoryID,
		Category:   r.Category,
		Purity:     r.Purity,
		CreatedAt:  at,
	}, nil
}

func (r cachedItemRow) toCachedItem() (types.CachedItem, error) {
	item := types.CachedItem{
		ID:         r.ID,
		ExternalID: r.ExternalID,
		URL:        r.URL,
		ShortURL:   r.ShortURL,
		Path:       r.Path,
		Purity:     r.Purity,
		Category:   r.Category,
		Width:      r.Width,
		Height:     r.Height,
		FileSize:   r.FileSize,
		FileType:   r.FileType,
		Views:      r.Views,
		Favorites:  r.Favorites,
		SourceURL:  r.SourceURL,
	}
	if r.UploaderID.Valid {
		id := r.UploaderID.Int64
		item.UploaderID = &id
	}
	var thumbs thumbsJSON
	if r.Thumbs != "" {
		if err := json.Unmarshal([]byte(r.Thumbs), &thumbs); err != nil {
			return types.CachedItem{}, fmt.Errorf("parsing thumbs of item %q: %w", r.ExternalID, err)
		}
	}
	item.Thumbs = types.Thumbs(thumbs)
	if r.Colors != "" {
		if err := json.Unmarshal([]byte(r.Colors), &item.Colors); err != nil {
			return types.CachedItem{}, fmt.Errorf("parsing colors of item %q: %w", r.ExternalID, err)
		}
	}
	at, err := parseTime(r.CreatedAt)
	if err != nil {
		return types.CachedItem{}, fmt.Errorf("parsing created_at of item %q: %w", r.ExternalID, err)
	}
	item.CreatedAt = at
	return item, nil
}

func newCachedItemRow(item types.CachedItem) (cachedItemRow, error) {
	thumbs, err := json.Marshal(thumbsJSON(item.Thumbs))
	if err != nil {
		return cachedItemRow{}, fmt.Errorf("encoding thumbs: %w", err)
	}
	colors := item.Colors
	if colors == nil {
		colors = []string{}
	}
	colorsJSON, err := json.Marshal(colors)
	if err != nil {
		return cachedItemRow{}, fmt.Errorf("encoding colors: %w", err)
	}
	row := cachedItemRow{
		ExternalID: item.ExternalID,
		URL:        item.URL,
		ShortURL:   item.ShortURL,
		Path:       item.Path,
		Thumbs:     string(thumbs),
		Purity:     item.Purity,
		Category:   item.Category,
		Width:      item.Width,
		Height:     item.Height,
		FileSize:   item.FileSize,
		FileType:   item.FileType,
		Views:      item.Views,
		Favorites:  item.Favorites,
		Colors:     string(colorsJSON),
		SourceURL:  item.SourceURL,
		CreatedAt:  formatTime(item.CreatedAt),
	}
	if item.UploaderID != nil {
		row.UploaderID = sql.NullInt64{Int64: *item.UploaderID, Valid: true}
	}
	return row, nil
}
