package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mesh-intelligence/keepsake/pkg/types"
)

const savedSearchColumns = "id, name, query, filters"

// SavedSearchByID returns ErrNotFound when no row has id.
func (s *Store) SavedSearchByID(ctx context.Context, id int64) (types.SavedSearch, error) {
	return s.getSavedSearch(ctx, `SELECT `+savedSearchColumns+` FROM saved_searches WHERE id = ?`, id)
}

// SavedSearchByName returns ErrNotFound when no row has name.
func (s *Store) SavedSearchByName(ctx context.Context, name string) (types.SavedSearch, error) {
	return s.getSavedSearch(ctx, `SELECT `+savedSearchColumns+` FROM saved_searches WHERE name = ?`, name)
}

func (s *Store) getSavedSearch(ctx context.Context, query string, arg any) (types.SavedSearch, error) {
	var row savedSearchRow
	err := s.db.GetContext(ctx, &row, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return types.SavedSearch{}, types.ErrNotFound
	}
	if err != nil {
		return types.SavedSearch{}, fmt.Errorf("querying saved search: %w", err)
	}
	return row.toSavedSearch(), nil
}

// SavedSearchesByNames returns the rows whose name is in names, in one query.
func (s *Store) SavedSearchesByNames(ctx context.Context, names []string) ([]types.SavedSearch, error) {
	names = dedupe(names)
	if len(names) == 0 {
		return nil, nil
	}
	query, args, err := inQuery(`SELECT `+savedSearchColumns+` FROM saved_searches WHERE name IN (?)`, names)
	if err != nil {
		return nil, err
	}
	var rows []savedSearchRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("querying saved searches by name: %w", err)
	}
	out := make([]types.SavedSearch, len(rows))
	for i, r := range rows {
		out[i] = r.toSavedSearch()
	}
	return out, nil
}

// AllSavedSearches returns every saved search ordered by name.
func (s *Store) AllSavedSearches(ctx context.Context) ([]types.SavedSearch, error) {
	var rows []savedSearchRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT `+savedSearchColumns+` FROM saved_searches ORDER BY name`); err != nil {
		return nil, fmt.Errorf("querying saved searches: %w", err)
	}
	out := make([]types.SavedSearch, len(rows))
	for i, r := range rows {
		out[i] = r.toSavedSearch()
	}
	return out, nil
}

// UpsertSavedSearches writes searches in one transaction. Rows with a zero
// ID are inserted (a name collision updates the existing row, so the last
// write for a name wins); rows with an ID overwrite that row.
func (s *Store) UpsertSavedSearches(ctx context.Context, searches []types.SavedSearch) error {
	if len(searches) == 0 {
		return nil
	}
	for _, ss := range searches {
		if ss.Name == "" {
			return types.ErrInvalidName
		}
	}
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, ss := range searches {
			row := savedSearchRow{ID: ss.ID, Name: ss.Name, Query: ss.Query, Filters: ss.Filters}
			var err error
			if ss.ID == 0 {
				_, err = tx.NamedExecContext(ctx, `
					INSERT INTO saved_searches (name, query, filters) VALUES (:name, :query, :filters)
					ON CONFLICT (name) DO UPDATE SET
						query = excluded.query,
						filters = excluded.filters`, row)
			} else {
				_, err = tx.NamedExecContext(ctx, `
					INSERT INTO saved_searches (id, name, query, filters) VALUES (:id, :name, :query, :filters)
					ON CONFLICT (id) DO UPDATE SET
						name = excluded.name,
						query = excluded.query,
						filters = excluded.filters`, row)
			}
			if err != nil {
				return fmt.Errorf("upserting saved search %q: %w", ss.Name, err)
			}
		}
		return nil
	})
}

// DeleteSavedSearchByName removes the search named name. Deleting an absent
// name succeeds.
func (s *Store) DeleteSavedSearchByName(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM saved_searches WHERE name = ?`, name); err != nil {
		return fmt.Errorf("deleting saved search %q: %w", name, err)
	}
	return nil
}
