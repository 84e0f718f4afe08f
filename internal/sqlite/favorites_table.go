package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mesh-intelligence/keepsake/pkg/types"
)

const favoriteColumns = "id, source, source_id, favorited_at"

// FavoritesPage returns up to limit references starting at offset, newest
// first. Ties on favorited_at are broken by id so the order is total and
// a page can be re-read at the same position.
func (s *Store) FavoritesPage(ctx context.Context, offset, limit int) ([]types.FavoriteReference, error) {
	if limit <= 0 {
		return nil, types.ErrInvalidPageSize
	}
	if offset < 0 {
		offset = 0
	}
	var rows []favoriteRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+favoriteColumns+` FROM favorites
		ORDER BY favorited_at DESC, id DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying favorites page: %w", err)
	}
	return toFavorites(rows)
}

// AllFavorites returns every favorite, newest first.
func (s *Store) AllFavorites(ctx context.Context) ([]types.FavoriteReference, error) {
	var rows []favoriteRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT `+favoriteColumns+` FROM favorites ORDER BY favorited_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying favorites: %w", err)
	}
	return toFavorites(rows)
}

// FavoriteExists reports whether (source, sourceID) is favorited.
func (s *Store) FavoriteExists(ctx context.Context, source types.SourceKind, sourceID string) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM favorites WHERE source = ? AND source_id = ?`, string(source), sourceID)
	if err != nil {
		return false, fmt.Errorf("checking favorite: %w", err)
	}
	return n > 0, nil
}

// AddFavorite inserts ref unless it already exists. A zero FavoritedAt is
// stamped with the current time.
func (s *Store) AddFavorite(ctx context.Context, ref types.FavoriteReference) error {
	_, err := s.InsertFavorites(ctx, []types.FavoriteReference{ref})
	return err
}

// DeleteFavorite removes (source, sourceID). Deleting an absent favorite
// succeeds.
func (s *Store) DeleteFavorite(ctx context.Context, source types.SourceKind, sourceID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE source = ? AND source_id = ?`, string(source), sourceID)
	if err != nil {
		return fmt.Errorf("deleting favorite: %w", err)
	}
	return nil
}

// InsertFavorites inserts the references not already present, in a single
// transaction, and returns the number of rows inserted. Store ids on refs
// are ignored.
func (s *Store) InsertFavorites(ctx context.Context, refs []types.FavoriteReference) (int, error) {
	if len(refs) == 0 {
		return 0, nil
	}
	for _, ref := range refs {
		if !ref.Source.Valid() {
			return 0, fmt.Errorf("%w: %q", types.ErrInvalidSource, ref.Source)
		}
		if ref.SourceID == "" {
			return 0, types.ErrInvalidSourceID
		}
	}

	inserted := 0
	now := time.Now()
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		stmt, err := tx.PreparexContext(ctx, `
			INSERT INTO favorites (source, source_id, favorited_at) VALUES (?, ?, ?)
			ON CONFLICT (source, source_id) DO NOTHING`)
		if err != nil {
			return fmt.Errorf("preparing favorite insert: %w", err)
		}
		defer stmt.Close()

		for _, ref := range refs {
			at := ref.FavoritedAt
			if at.IsZero() {
				at = now
			}
			res, err := stmt.ExecContext(ctx, string(ref.Source), ref.SourceID, formatTime(at))
			if err != nil {
				return fmt.Errorf("inserting favorite %s/%s: %w", ref.Source, ref.SourceID, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("checking inserted favorite: %w", err)
			}
			inserted += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// RandomFavorite returns one favorite chosen at random.
func (s *Store) RandomFavorite(ctx context.Context) (types.FavoriteReference, error) {
	var row favoriteRow
	err := s.db.GetContext(ctx, &row,
		`SELECT `+favoriteColumns+` FROM favorites ORDER BY RANDOM() LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return types.FavoriteReference{}, types.ErrNotFound
	}
	if err != nil {
		return types.FavoriteReference{}, fmt.Errorf("querying random favorite: %w", err)
	}
	return row.toFavorite()
}

func toFavorites(rows []favoriteRow) ([]types.FavoriteReference, error) {
	out := make([]types.FavoriteReference, 0, len(rows))
	for _, r := range rows {
		f, err := r.toFavorite()
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}
