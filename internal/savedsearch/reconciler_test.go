package savedsearch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/keepsake/internal/sqlite"
	"github.com/mesh-intelligence/keepsake/pkg/types"
)

func setupReconciler(t *testing.T) (*Reconciler, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.Open(sqlite.MemoryDir)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewReconciler(store, nil), store
}

func TestUpsertOne(t *testing.T) {
	ctx := context.Background()
	r, _ := setupReconciler(t)

	created, err := r.UpsertOne(ctx, types.SavedSearch{Name: "cats", Query: "cat", Filters: "purity=100"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	tests := []struct {
		name  string
		in    types.SavedSearch
		check func(t *testing.T, got types.SavedSearch)
	}{
		{
			name: "same name keeps id",
			in:   types.SavedSearch{Name: "cats", Query: "kitten"},
			check: func(t *testing.T, got types.SavedSearch) {
				assert.Equal(t, created.ID, got.ID)
				assert.Equal(t, "kitten", got.Query)
				assert.Empty(t, got.Filters)
			},
		},
		{
			name: "by id renames",
			in:   types.SavedSearch{ID: created.ID, Name: " felines ", Query: "cat"},
			check: func(t *testing.T, got types.SavedSearch) {
				assert.Equal(t, created.ID, got.ID)
				assert.Equal(t, "felines", got.Name)
			},
		},
		{
			name: "unknown id inserts new row",
			in:   types.SavedSearch{ID: 4242, Name: "dogs", Query: "dog"},
			check: func(t *testing.T, got types.SavedSearch) {
				assert.NotEqual(t, created.ID, got.ID)
				assert.NotEqual(t, int64(4242), got.ID, "ids are never taken from the caller")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.UpsertOne(ctx, tt.in)
			require.NoError(t, err)
			tt.check(t, got)
		})
	}

	_, err = r.UpsertOne(ctx, types.SavedSearch{Name: "  "})
	assert.ErrorIs(t, err, types.ErrInvalidName)
}

func TestUpsertOne_Idempotent(t *testing.T) {
	ctx := context.Background()
	r, _ := setupReconciler(t)
	s := types.SavedSearch{Name: "sunsets", Query: "sunset", Filters: "sorting=toplist"}

	first, err := r.UpsertOne(ctx, s)
	require.NoError(t, err)
	second, err := r.UpsertOne(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	all, err := r.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUpsertMany(t *testing.T) {
	ctx := context.Background()
	r, _ := setupReconciler(t)

	cats, err := r.UpsertOne(ctx, types.SavedSearch{Name: "cats", Query: "cat"})
	require.NoError(t, err)

	batch := []types.SavedSearch{
		{ID: 777, Name: "cats", Query: "tabby"},
		{Name: "dogs", Query: "dog"},
		{Name: "dogs", Query: "puppy"},
	}
	require.NoError(t, r.UpsertMany(ctx, batch))
	require.NoError(t, r.UpsertMany(ctx, batch))

	all, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, cats.ID, all[0].ID, "existing name keeps its id")
	assert.Equal(t, "tabby", all[0].Query)
	assert.Equal(t, "puppy", all[1].Query, "last duplicate wins")

	got, err := r.Get(ctx, all[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "dogs", got.Name)

	assert.ErrorIs(t, r.UpsertMany(ctx, []types.SavedSearch{{Name: ""}}), types.ErrInvalidName)
	assert.NoError(t, r.UpsertMany(ctx, nil))
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	r, _ := setupReconciler(t)

	_, err := r.UpsertOne(ctx, types.SavedSearch{Name: "cats"})
	require.NoError(t, err)
	require.NoError(t, r.Delete(ctx, "cats"))
	require.NoError(t, r.Delete(ctx, "cats"), "absent name is a no-op")

	all, err := r.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	_, err = r.Get(ctx, 1)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

type failingStore struct {
	types.SavedSearchStore
	err error
}

func (f failingStore) SavedSearchesByNames(context.Context, []string) ([]types.SavedSearch, error) {
	return nil, f.err
}

func TestUpsertMany_StorageFailurePropagates(t *testing.T) {
	boom := errors.New("disk full")
	r := NewReconciler(failingStore{err: boom}, nil)
	assert.ErrorIs(t, r.UpsertMany(context.Background(), []types.SavedSearch{{Name: "x"}}), boom)
}
