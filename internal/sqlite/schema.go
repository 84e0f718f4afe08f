package sqlite

// Schema DDL for all tables. Statements are idempotent so Open can run
// them on every start.
const (
	createFavorites = `CREATE TABLE IF NOT EXISTS favorites (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    source TEXT NOT NULL,
    source_id TEXT NOT NULL,
    favorited_at TEXT NOT NULL,
    UNIQUE (source, source_id)
);`

	createSavedSearches = `CREATE TABLE IF NOT EXISTS saved_searches (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE,
    query TEXT NOT NULL DEFAULT '',
    filters TEXT NOT NULL DEFAULT ''
);`

	createUploaders = `CREATE TABLE IF NOT EXISTS uploaders (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL UNIQUE,
    group_name TEXT NOT NULL DEFAULT '',
    avatar TEXT NOT NULL DEFAULT '{}'
);`

	createTags = `CREATE TABLE IF NOT EXISTS tags (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE,
    external_id INTEGER NOT NULL DEFAULT 0,
    alias TEXT NOT NULL DEFAULT '',
    category_id INTEGER NOT NULL DEFAULT 0,
    category TEXT NOT NULL DEFAULT '',
    purity TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL DEFAULT ''
);`

	createCachedItems = `CREATE TABLE IF NOT EXISTS cached_items (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    external_id TEXT NOT NULL UNIQUE,
    uploader_id INTEGER REFERENCES uploaders(id) ON DELETE SET NULL,
    url TEXT NOT NULL DEFAULT '',
    short_url TEXT NOT NULL DEFAULT '',
    path TEXT NOT NULL DEFAULT '',
    thumbs TEXT NOT NULL DEFAULT '{}',
    purity TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL DEFAULT '',
    width INTEGER NOT NULL DEFAULT 0,
    height INTEGER NOT NULL DEFAULT 0,
    file_size INTEGER NOT NULL DEFAULT 0,
    file_type TEXT NOT NULL DEFAULT '',
    views INTEGER NOT NULL DEFAULT 0,
    favorites INTEGER NOT NULL DEFAULT 0,
    colors TEXT NOT NULL DEFAULT '[]',
    source_url TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL DEFAULT ''
);`

	createCachedItemTags = `CREATE TABLE IF NOT EXISTS cached_item_tags (
    item_id INTEGER NOT NULL REFERENCES cached_items(id) ON DELETE CASCADE,
    tag_id INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
    PRIMARY KEY (item_id, tag_id)
);`
)

// Index DDL for the pager cursor and join lookups.
const (
	idxFavoritesRecency    = `CREATE INDEX IF NOT EXISTS idx_favorites_recency ON favorites(favorited_at DESC, id DESC);`
	idxCachedItemsUploader = `CREATE INDEX IF NOT EXISTS idx_cached_items_uploader ON cached_items(uploader_id);`
	idxCachedItemTagsTag   = `CREATE INDEX IF NOT EXISTS idx_cached_item_tags_tag ON cached_item_tags(tag_id);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createFavorites,
	createSavedSearches,
	createUploaders,
	createTags,
	createCachedItems,
	createCachedItemTags,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxFavoritesRecency,
	idxCachedItemsUploader,
	idxCachedItemTagsTag,
}
