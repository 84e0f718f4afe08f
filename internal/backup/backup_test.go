package backup

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/keepsake/internal/sqlite"
	"github.com/mesh-intelligence/keepsake/pkg/types"
)

// readable is an AccessChecker over a fixed set of readable paths.
type readable map[string]bool

func (p readable) Accessible(_ context.Context, id string) bool { return p[id] }

func setupStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(sqlite.MemoryDir)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

var seedTime = time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)

// seedStore fills s with two uploaders, three tags, three cached items,
// four favorites (one pointing at an uncached item), two saved searches
// and preferences.
func seedStore(t *testing.T, s *sqlite.Store) {
	t.Helper()
	ctx := context.Background()

	// Pad the id sequences so ids differ from a fresh store's.
	require.NoError(t, s.UpsertUploaders(ctx, []types.Uploader{{Username: "placeholder"}}))
	require.NoError(t, s.UpsertTags(ctx, []types.Tag{{Name: "placeholder-1"}, {Name: "placeholder-2"}}))

	require.NoError(t, s.UpsertUploaders(ctx, []types.Uploader{
		{Username: "alice", Group: "User", Avatar: map[string]string{"32px": "https://a/32.png"}},
		{Username: "bob"},
	}))
	require.NoError(t, s.UpsertTags(ctx, []types.Tag{
		{Name: "nature", ExternalID: 37, Category: "Plants", CreatedAt: seedTime},
		{Name: "forest"},
		{Name: "city"},
	}))
	uploaders, err := s.UploadersByUsernames(ctx, []string{"alice", "bob"})
	require.NoError(t, err)
	uid := map[string]int64{}
	for _, u := range uploaders {
		uid[u.Username] = u.ID
	}
	tags, err := s.TagsByNames(ctx, []string{"nature", "forest", "city"})
	require.NoError(t, err)
	tid := map[string]int64{}
	for _, tg := range tags {
		tid[tg.Name] = tg.ID
	}
	alice, bob := uid["alice"], uid["bob"]
	require.NoError(t, s.UpsertCachedItems(ctx, []types.CachedItem{
		{
			ExternalID: "abc", UploaderID: &alice, TagIDs: []int64{tid["nature"], tid["forest"]},
			URL: "https://catalog/w/abc", Path: "https://img/abc.jpg", Width: 1920, Height: 1080,
			Colors: []string{"#112233"}, CreatedAt: seedTime,
		},
		{ExternalID: "def", UploaderID: &alice, TagIDs: []int64{tid["forest"]}},
		{ExternalID: "ghi", UploaderID: &bob, TagIDs: []int64{tid["city"]}},
		{ExternalID: "unfavorited", UploaderID: &bob},
	}))
	_, err = s.InsertFavorites(ctx, []types.FavoriteReference{
		{Source: types.SourceCached, SourceID: "abc", FavoritedAt: seedTime},
		{Source: types.SourceCached, SourceID: "def", FavoritedAt: seedTime.Add(time.Minute)},
		{Source: types.SourceCached, SourceID: "ghi", FavoritedAt: seedTime.Add(2 * time.Minute)},
		{Source: types.SourceLocal, SourceID: "/pics/a.png", FavoritedAt: seedTime.Add(3 * time.Minute)},
	})
	require.NoError(t, err)
	require.NoError(t, s.UpsertSavedSearches(ctx, []types.SavedSearch{
		{Name: "cats", Query: "cat", Filters: "purity=100"},
		{Name: "dogs", Query: "dog"},
	}))
	require.NoError(t, s.SetPreferences(ctx, json.RawMessage(`{"theme":"dark"}`)))
}
