package backup

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/keepsake/pkg/types"
)

func TestWrite_NothingSelected(t *testing.T) {
	s := setupStore(t)
	snap, err := NewWriter(s, nil).Write(context.Background(), Options{})
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestWrite_Parts(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)
	seedStore(t, s)
	w := NewWriter(s, nil)

	tests := []struct {
		name  string
		opts  Options
		check func(t *testing.T, snap *Snapshot)
	}{
		{
			name: "settings only",
			opts: Options{Settings: true},
			check: func(t *testing.T, snap *Snapshot) {
				assert.JSONEq(t, `{"theme":"dark"}`, string(snap.Preferences))
				assert.Empty(t, snap.Favorites)
				assert.Nil(t, snap.Cached)
			},
		},
		{
			name: "saved searches only",
			opts: Options{SavedSearches: true},
			check: func(t *testing.T, snap *Snapshot) {
				assert.Nil(t, snap.Preferences)
				require.NotNil(t, snap.Cached)
				assert.Len(t, snap.Cached.SavedSearches, 2)
				assert.Empty(t, snap.Cached.Wallpapers)
			},
		},
		{
			name: "favorites include referenced catalog entities",
			opts: Options{Favorites: true},
			check: func(t *testing.T, snap *Snapshot) {
				require.Len(t, snap.Favorites, 4)
				assert.Equal(t, "/pics/a.png", snap.Favorites[0].SourceID, "newest first")

				b := snap.Cached
				require.NotNil(t, b)
				var ids []string
				for _, wp := range b.Wallpapers {
					ids = append(ids, wp.ExternalID)
				}
				assert.ElementsMatch(t, []string{"abc", "def", "ghi"}, ids, "unfavorited items are left out")

				var users []string
				for _, u := range b.Uploaders {
					users = append(users, u.Username)
				}
				assert.ElementsMatch(t, []string{"alice", "bob"}, users, "uploaders are deduplicated")

				var tags []string
				for _, tg := range b.Tags {
					tags = append(tags, tg.Name)
				}
				assert.ElementsMatch(t, []string{"nature", "forest", "city"}, tags, "tags are deduplicated")
				assert.Empty(t, b.SavedSearches)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := w.Write(ctx, tt.opts)
			require.NoError(t, err)
			require.NotNil(t, snap)
			assert.Equal(t, CurrentVersion, snap.Version)
			tt.check(t, snap)
		})
	}
}

func TestWrite_LinksStayConsistent(t *testing.T) {
	s := setupStore(t)
	seedStore(t, s)

	snap, err := NewWriter(s, nil).Write(context.Background(), Options{Favorites: true})
	require.NoError(t, err)

	uploaderIDs := map[int64]bool{}
	for _, u := range snap.Cached.Uploaders {
		uploaderIDs[u.ID] = true
	}
	tagIDs := map[int64]bool{}
	for _, tg := range snap.Cached.Tags {
		tagIDs[tg.ID] = true
	}
	for _, wp := range snap.Cached.Wallpapers {
		require.NotNil(t, wp.UploaderID, wp.ExternalID)
		assert.True(t, uploaderIDs[*wp.UploaderID], "uploader of %s is in the bundle", wp.ExternalID)
		for _, id := range wp.TagIDs {
			assert.True(t, tagIDs[id], "tag %d of %s is in the bundle", id, wp.ExternalID)
		}
	}
}

func TestEncode(t *testing.T) {
	s := setupStore(t)
	seedStore(t, s)
	snap, err := NewWriter(s, nil).Write(context.Background(), AllOptions)
	require.NoError(t, err)

	data, err := Encode(snap)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "{\n  \"version\": 1,"), "version is the first field")

	var generic map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &generic))
	assert.Contains(t, generic, "wallhaven")
	assert.NotContains(t, string(generic["favorites"]), `"id"`, "favorites carry natural keys only")

	back, err := Read(data)
	require.NoError(t, err)
	assert.Equal(t, snap.Favorites, back.Favorites)
	assert.Equal(t, snap.Cached, back.Cached)

	_, err = Encode(nil)
	assert.ErrorIs(t, err, types.ErrMalformedSnapshot)
}
