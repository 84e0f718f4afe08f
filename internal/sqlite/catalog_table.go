package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mesh-intelligence/keepsake/pkg/types"
)

const (
	uploaderColumns   = "id, username, group_name, avatar"
	tagColumns        = "id, name, external_id, alias, category_id, category, purity, created_at"
	cachedItemColumns = "id, external_id, uploader_id, url, short_url, path, thumbs, purity, category, " +
		"width, height, file_size, file_type, views, favorites, colors, source_url, created_at"
)

// UpsertTags inserts or updates tags keyed by name. Argument ids are ignored.
func (s *Store) UpsertTags(ctx context.Context, tags []types.Tag) error {
	if len(tags) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, t := range tags {
			if t.Name == "" {
				return fmt.Errorf("tag: %w", types.ErrInvalidName)
			}
			row := tagRow{
				Name:       t.Name,
				ExternalID: t.ExternalID,
				Alias:      t.Alias,
				CategoryID: t.CategoryID,
				Category:   t.Category,
				Purity:     t.Purity,
				CreatedAt:  formatTime(t.CreatedAt),
			}
			_, err := tx.NamedExecContext(ctx, `
				INSERT INTO tags (name, external_id, alias, category_id, category, purity, created_at)
				VALUES (:name, :external_id, :alias, :category_id, :category, :purity, :created_at)
				ON CONFLICT (name) DO UPDATE SET
					external_id = excluded.external_id,
					alias = excluded.alias,
					category_id = excluded.category_id,
					category = excluded.category,
					purity = excluded.purity,
					created_at = excluded.created_at`, row)
			if err != nil {
				return fmt.Errorf("upserting tag %q: %w", t.Name, err)
			}
		}
		return nil
	})
}

// TagsByNames returns the stored tags whose name is in names.
func (s *Store) TagsByNames(ctx context.Context, names []string) ([]types.Tag, error) {
	var out []types.Tag
	for _, batch := range chunks(dedupe(names), maxInArgs) {
		query, args, err := inQuery(`SELECT `+tagColumns+` FROM tags WHERE name IN (?)`, batch)
		if err != nil {
			return nil, err
		}
		var rows []tagRow
		if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
			return nil, fmt.Errorf("querying tags by name: %w", err)
		}
		for _, r := range rows {
			t, err := r.toTag()
			if err != nil {
				return nil, err
			}
			out = append(out, t)
		}
	}
	return out, nil
}

// UpsertUploaders inserts or updates uploaders keyed by username. Argument
// ids are ignored.
func (s *Store) UpsertUploaders(ctx context.Context, uploaders []types.Uploader) error {
	if len(uploaders) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, u := range uploaders {
			if u.Username == "" {
				return fmt.Errorf("uploader: %w", types.ErrInvalidName)
			}
			avatar := u.Avatar
			if avatar == nil {
				avatar = map[string]string{}
			}
			raw, err := json.Marshal(avatar)
			if err != nil {
				return fmt.Errorf("encoding avatar of uploader %q: %w", u.Username, err)
			}
			row := uploaderRow{Username: u.Username, GroupName: u.Group, Avatar: string(raw)}
			_, err = tx.NamedExecContext(ctx, `
				INSERT INTO uploaders (username, group_name, avatar)
				VALUES (:username, :group_name, :avatar)
				ON CONFLICT (username) DO UPDATE SET
					group_name = excluded.group_name,
					avatar = excluded.avatar`, row)
			if err != nil {
				return fmt.Errorf("upserting uploader %q: %w", u.Username, err)
			}
		}
		return nil
	})
}

// UploadersByUsernames returns the stored uploaders whose username is in
// usernames.
func (s *Store) UploadersByUsernames(ctx context.Context, usernames []string) ([]types.Uploader, error) {
	var out []types.Uploader
	for _, batch := range chunks(dedupe(usernames), maxInArgs) {
		query, args, err := inQuery(`SELECT `+uploaderColumns+` FROM uploaders WHERE username IN (?)`, batch)
		if err != nil {
			return nil, err
		}
		var rows []uploaderRow
		if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
			return nil, fmt.Errorf("querying uploaders by username: %w", err)
		}
		for _, r := range rows {
			u, err := r.toUploader()
			if err != nil {
				return nil, err
			}
			out = append(out, u)
		}
	}
	return out, nil
}

// UpsertCachedItems inserts or updates items keyed by external id and
// replaces each item's tag links with TagIDs.
func (s *Store) UpsertCachedItems(ctx context.Context, items []types.CachedItem) error {
	if len(items) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, item := range items {
			if item.ExternalID == "" {
				return fmt.Errorf("cached item: %w", types.ErrInvalidSourceID)
			}
			row, err := newCachedItemRow(item)
			if err != nil {
				return fmt.Errorf("cached item %q: %w", item.ExternalID, err)
			}
			query, args, err := tx.BindNamed(`
				INSERT INTO cached_items (external_id, uploader_id, url, short_url, path, thumbs, purity,
					category, width, height, file_size, file_type, views, favorites, colors, source_url, created_at)
				VALUES (:external_id, :uploader_id, :url, :short_url, :path, :thumbs, :purity,
					:category, :width, :height, :file_size, :file_type, :views, :favorites, :colors, :source_url, :created_at)
				ON CONFLICT (external_id) DO UPDATE SET
					uploader_id = excluded.uploader_id,
					url = excluded.url,
					short_url = excluded.short_url,
					path = excluded.path,
					thumbs = excluded.thumbs,
					purity = excluded.purity,
					category = excluded.category,
					width = excluded.width,
					height = excluded.height,
					file_size = excluded.file_size,
					file_type = excluded.file_type,
					views = excluded.views,
					favorites = excluded.favorites,
					colors = excluded.colors,
					source_url = excluded.source_url,
					created_at = excluded.created_at
				RETURNING id`, row)
			if err != nil {
				return fmt.Errorf("binding cached item %q: %w", item.ExternalID, err)
			}
			var id int64
			if err := tx.GetContext(ctx, &id, query, args...); err != nil {
				return fmt.Errorf("upserting cached item %q: %w", item.ExternalID, err)
			}

			if _, err := tx.ExecContext(ctx, `DELETE FROM cached_item_tags WHERE item_id = ?`, id); err != nil {
				return fmt.Errorf("clearing tags of cached item %q: %w", item.ExternalID, err)
			}
			for _, tagID := range item.TagIDs {
				_, err := tx.ExecContext(ctx, `
					INSERT INTO cached_item_tags (item_id, tag_id) VALUES (?, ?)
					ON CONFLICT DO NOTHING`, id, tagID)
				if err != nil {
					return fmt.Errorf("linking tag %d to cached item %q: %w", tagID, item.ExternalID, err)
				}
			}
		}
		return nil
	})
}

// ExistingExternalIDs returns the subset of externalIDs that are cached.
func (s *Store) ExistingExternalIDs(ctx context.Context, externalIDs []string) (map[string]bool, error) {
	found := make(map[string]bool)
	for _, batch := range chunks(dedupe(externalIDs), maxInArgs) {
		query, args, err := inQuery(`SELECT external_id FROM cached_items WHERE external_id IN (?)`, batch)
		if err != nil {
			return nil, err
		}
		var ids []string
		if err := s.db.SelectContext(ctx, &ids, query, args...); err != nil {
			return nil, fmt.Errorf("querying cached item ids: %w", err)
		}
		for _, id := range ids {
			found[id] = true
		}
	}
	return found, nil
}

// CachedItemByExternalID returns the item with its uploader and tags, or
// ErrNotFound.
func (s *Store) CachedItemByExternalID(ctx context.Context, externalID string) (types.CachedItemDetail, error) {
	var row cachedItemRow
	err := s.db.GetContext(ctx, &row,
		`SELECT `+cachedItemColumns+` FROM cached_items WHERE external_id = ?`, externalID)
	if errors.Is(err, sql.ErrNoRows) {
		return types.CachedItemDetail{}, types.ErrNotFound
	}
	if err != nil {
		return types.CachedItemDetail{}, fmt.Errorf("querying cached item %q: %w", externalID, err)
	}
	details, err := s.hydrate(ctx, []cachedItemRow{row})
	if err != nil {
		return types.CachedItemDetail{}, err
	}
	return details[0], nil
}

// CachedItemsByExternalIDs returns the cached items among externalIDs, with
// uploaders and tags, in the order of externalIDs. Missing ids are skipped.
func (s *Store) CachedItemsByExternalIDs(ctx context.Context, externalIDs []string) ([]types.CachedItemDetail, error) {
	ids := dedupe(externalIDs)
	var rows []cachedItemRow
	for _, batch := range chunks(ids, maxInArgs) {
		query, args, err := inQuery(`SELECT `+cachedItemColumns+` FROM cached_items WHERE external_id IN (?)`, batch)
		if err != nil {
			return nil, err
		}
		var part []cachedItemRow
		if err := s.db.SelectContext(ctx, &part, query, args...); err != nil {
			return nil, fmt.Errorf("querying cached items: %w", err)
		}
		rows = append(rows, part...)
	}

	byExternal := make(map[string]cachedItemRow, len(rows))
	for _, r := range rows {
		byExternal[r.ExternalID] = r
	}
	ordered := make([]cachedItemRow, 0, len(rows))
	for _, id := range ids {
		if r, ok := byExternal[id]; ok {
			ordered = append(ordered, r)
		}
	}
	return s.hydrate(ctx, ordered)
}

// hydrate loads the uploaders and tags referenced by rows.
func (s *Store) hydrate(ctx context.Context, rows []cachedItemRow) ([]types.CachedItemDetail, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	itemIDs := make([]int64, len(rows))
	var uploaderIDs []int64
	for i, r := range rows {
		itemIDs[i] = r.ID
		if r.UploaderID.Valid {
			uploaderIDs = append(uploaderIDs, r.UploaderID.Int64)
		}
	}

	uploaders := make(map[int64]types.Uploader)
	for _, batch := range chunks(uploaderIDs, maxInArgs) {
		query, args, err := inQuery(`SELECT `+uploaderColumns+` FROM uploaders WHERE id IN (?)`, batch)
		if err != nil {
			return nil, err
		}
		var urows []uploaderRow
		if err := s.db.SelectContext(ctx, &urows, query, args...); err != nil {
			return nil, fmt.Errorf("querying uploaders: %w", err)
		}
		for _, r := range urows {
			u, err := r.toUploader()
			if err != nil {
				return nil, err
			}
			uploaders[u.ID] = u
		}
	}

	type linkRow struct {
		ItemID int64 `db:"item_id"`
		tagRow
	}
	tagsByItem := make(map[int64][]types.Tag)
	for _, batch := range chunks(itemIDs, maxInArgs) {
		query, args, err := inQuery(`
			SELECT l.item_id, t.id, t.name, t.external_id, t.alias, t.category_id, t.category, t.purity, t.created_at
			FROM cached_item_tags l JOIN tags t ON t.id = l.tag_id
			WHERE l.item_id IN (?)
			ORDER BY l.item_id, t.id`, batch)
		if err != nil {
			return nil, err
		}
		var links []linkRow
		if err := s.db.SelectContext(ctx, &links, query, args...); err != nil {
			return nil, fmt.Errorf("querying item tags: %w", err)
		}
		for _, l := range links {
			t, err := l.toTag()
			if err != nil {
				return nil, err
			}
			tagsByItem[l.ItemID] = append(tagsByItem[l.ItemID], t)
		}
	}

	out := make([]types.CachedItemDetail, len(rows))
	for i, r := range rows {
		item, err := r.toCachedItem()
		if err != nil {
			return nil, err
		}
		tags := tagsByItem[r.ID]
		item.TagIDs = make([]int64, len(tags))
		for j, t := range tags {
			item.TagIDs[j] = t.ID
		}
		d := types.CachedItemDetail{Item: item, Tags: tags}
		if item.UploaderID != nil {
			if u, ok := uploaders[*item.UploaderID]; ok {
				d.Uploader = &u
			}
		}
		out[i] = d
	}
	return out, nil
}
