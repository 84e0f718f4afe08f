// Package catalog resolves favorites of the Cached source against the
// catalog items cached in the entity store.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/keepsake/pkg/types"
)

// ItemLookup is the part of the catalog store the resolver reads.
type ItemLookup interface {
	CachedItemByExternalID(ctx context.Context, externalID string) (types.CachedItemDetail, error)
}

// Resolver hydrates Cached favorites. An item purged from the cache
// resolves to types.ErrNotFound.
type Resolver struct {
	items ItemLookup
}

var _ types.Resolver = (*Resolver)(nil)

// NewResolver returns a resolver reading from items.
func NewResolver(items ItemLookup) *Resolver {
	return &Resolver{items: items}
}

// Resolve returns the cached item with external id sourceID.
func (r *Resolver) Resolve(ctx context.Context, sourceID string) (types.Item, error) {
	if strings.TrimSpace(sourceID) == "" {
		return types.Item{}, fmt.Errorf("cached item %q: %w", sourceID, types.ErrNotFound)
	}
	d, err := r.items.CachedItemByExternalID(ctx, sourceID)
	if err != nil {
		return types.Item{}, fmt.Errorf("cached item %q: %w", sourceID, err)
	}
	return ToItem(d), nil
}

// ToItem flattens a cached item detail into the uniform item shape.
func ToItem(d types.CachedItemDetail) types.Item {
	item := types.Item{
		Source:   types.SourceCached,
		SourceID: d.Item.ExternalID,
		URL:      d.Item.Path,
		ThumbURL: thumb(d.Item.Thumbs),
		Width:    d.Item.Width,
		Height:   d.Item.Height,
		FileSize: d.Item.FileSize,
		MimeType: d.Item.FileType,
		Purity:   d.Item.Purity,
	}
	if item.URL == "" {
		item.URL = d.Item.URL
	}
	if d.Uploader != nil {
		item.Uploader = d.Uploader.Username
	}
	for _, t := range d.Tags {
		item.Tags = append(item.Tags, t.Name)
	}
	return item
}

// thumb picks the largest available thumbnail.
func thumb(t types.Thumbs) string {
	for _, u := range []string{t.Large, t.Original, t.Small} {
		if u != "" {
			return u
		}
	}
	return ""
}
