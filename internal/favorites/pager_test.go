package favorites

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/keepsake/pkg/types"
)

// sliceSource serves refs in slice order and records every request.
type sliceSource struct {
	mu    sync.Mutex
	refs  []types.FavoriteReference
	calls [][2]int
	err   error
}

func (s *sliceSource) FavoritesPage(_ context.Context, offset, limit int) ([]types.FavoriteReference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, [2]int{offset, limit})
	if s.err != nil {
		return nil, s.err
	}
	if offset >= len(s.refs) {
		return nil, nil
	}
	end := min(offset+limit, len(s.refs))
	return append([]types.FavoriteReference(nil), s.refs[offset:end]...), nil
}

func (s *sliceSource) requests() [][2]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][2]int(nil), s.calls...)
}

// mapResolver resolves ids not in gone; ids in failing return an error.
type mapResolver struct {
	mu      sync.Mutex
	kind    types.SourceKind
	gone    map[string]bool
	failing map[string]bool
}

func (r *mapResolver) Resolve(_ context.Context, id string) (types.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing[id] {
		return types.Item{}, errors.New("transient I/O failure")
	}
	if r.gone[id] {
		return types.Item{}, fmt.Errorf("%s: %w", id, types.ErrNotFound)
	}
	return types.Item{Source: r.kind, SourceID: id}, nil
}

func refs(n int) []types.FavoriteReference {
	out := make([]types.FavoriteReference, n)
	for i := range out {
		kind := types.SourceCached
		if i%3 == 2 {
			kind = types.SourceLocal
		}
		out[i] = types.FavoriteReference{ID: int64(n - i), Source: kind, SourceID: fmt.Sprintf("id-%02d", i)}
	}
	return out
}

func resolvers(gone ...string) (map[types.SourceKind]types.Resolver, *mapResolver) {
	g := map[string]bool{}
	for _, id := range gone {
		g[id] = true
	}
	cached := &mapResolver{kind: types.SourceCached, gone: g, failing: map[string]bool{}}
	local := &mapResolver{kind: types.SourceLocal, gone: g, failing: map[string]bool{}}
	return map[types.SourceKind]types.Resolver{types.SourceCached: cached, types.SourceLocal: local}, cached
}

func ids(items []types.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.SourceID
	}
	return out
}

func TestPagerConfig_Normalize(t *testing.T) {
	tests := []struct {
		name    string
		in      PagerConfig
		want    PagerConfig
		wantErr bool
	}{
		{name: "defaults", in: PagerConfig{}, want: PagerConfig{24, 24, 72, 4}},
		{name: "derived from page size", in: PagerConfig{PageSize: 10}, want: PagerConfig{10, 10, 30, 4}},
		{name: "explicit", in: PagerConfig{5, 2, 7, 1}, want: PagerConfig{5, 2, 7, 1}},
		{name: "negative page size", in: PagerConfig{PageSize: -1}, wantErr: true},
		{name: "negative prefetch", in: PagerConfig{PageSize: 3, PrefetchDistance: -2}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.Normalize()
			if tt.wantErr {
				assert.ErrorIs(t, err, types.ErrInvalidPageSize)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPager_Load(t *testing.T) {
	ctx := context.Background()
	all := refs(6)

	tests := []struct {
		name        string
		gone        []string
		wantItems   []string
		wantDropped []string
	}{
		{
			name:      "all resolve keeps order and length",
			wantItems: []string{"id-00", "id-01", "id-02", "id-03", "id-04", "id-05"},
		},
		{
			name:        "unresolvable references are dropped",
			gone:        []string{"id-01", "id-02", "id-05"},
			wantItems:   []string{"id-00", "id-03", "id-04"},
			wantDropped: []string{"id-01", "id-02", "id-05"},
		},
		{
			name:        "every reference dropped",
			gone:        []string{"id-00", "id-01", "id-02", "id-03", "id-04", "id-05"},
			wantItems:   []string{},
			wantDropped: []string{"id-00", "id-01", "id-02", "id-03", "id-04", "id-05"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, _ := resolvers(tt.gone...)
			p, err := NewPager(&sliceSource{refs: all}, res, PagerConfig{PageSize: 6, Concurrency: 2})
			require.NoError(t, err)

			page, err := p.Load(ctx, 0, 6)
			require.NoError(t, err)
			assert.Equal(t, tt.wantItems, ids(page.Items))
			var dropped []string
			for _, d := range page.Dropped {
				dropped = append(dropped, d.SourceID)
			}
			assert.Equal(t, tt.wantDropped, dropped)
			assert.Equal(t, 6, page.Raw)
			assert.Equal(t, 6, page.NextOffset)
			assert.False(t, page.End)
			assert.Equal(t, int64(len(tt.gone)), p.Dropped())
		})
	}
}

func TestPager_LoadUnknownSourceDropped(t *testing.T) {
	res, _ := resolvers()
	delete(res, types.SourceLocal)
	p, err := NewPager(&sliceSource{refs: refs(3)}, res, PagerConfig{PageSize: 3})
	require.NoError(t, err)

	page, err := p.Load(context.Background(), 0, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"id-00", "id-01"}, ids(page.Items))
	require.Len(t, page.Dropped, 1)
	assert.Equal(t, "id-02", page.Dropped[0].SourceID)
}

func TestPager_LoadFailureIsRetryable(t *testing.T) {
	ctx := context.Background()
	res, cached := resolvers()
	cached.failing["id-01"] = true
	p, err := NewPager(&sliceSource{refs: refs(4)}, res, PagerConfig{PageSize: 4})
	require.NoError(t, err)

	_, err = p.Load(ctx, 0, 4)
	require.Error(t, err)
	assert.NotErrorIs(t, err, types.ErrNotFound)
	assert.Contains(t, err.Error(), "id-01")

	cached.mu.Lock()
	cached.failing = map[string]bool{}
	cached.mu.Unlock()

	page, err := p.Load(ctx, 0, 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"id-00", "id-01", "id-02", "id-03"}, ids(page.Items))
	assert.Zero(t, p.Dropped())
}

func TestPager_LoadSourceError(t *testing.T) {
	res, _ := resolvers()
	boom := errors.New("database is locked")
	p, err := NewPager(&sliceSource{err: boom}, res, PagerConfig{})
	require.NoError(t, err)

	_, err = p.Load(context.Background(), 0, 10)
	assert.ErrorIs(t, err, boom)

	_, err = p.Load(context.Background(), 0, 0)
	assert.ErrorIs(t, err, types.ErrInvalidPageSize)
}

func TestPager_Pages(t *testing.T) {
	ctx := context.Background()
	src := &sliceSource{refs: refs(10)}
	res, _ := resolvers("id-04")
	p, err := NewPager(src, res, PagerConfig{PageSize: 3, InitialLoadSize: 4})
	require.NoError(t, err)

	collect := func() ([][]string, []int) {
		var got [][]string
		var offsets []int
		for page, err := range p.Pages(ctx) {
			require.NoError(t, err)
			got = append(got, ids(page.Items))
			offsets = append(offsets, page.Offset)
		}
		return got, offsets
	}

	got, offsets := collect()
	assert.Equal(t, [][]string{
		{"id-00", "id-01", "id-02", "id-03"},
		{"id-05", "id-06"},
		{"id-07", "id-08", "id-09"},
		{},
	}, got)
	assert.Equal(t, []int{0, 4, 7, 10}, offsets)

	again, _ := collect()
	assert.Equal(t, got, again, "iteration restarts from the beginning")

	assert.Equal(t, [2]int{0, 4}, src.requests()[0])
	assert.Equal(t, [2]int{4, 3}, src.requests()[1])
}

func TestPager_PagesStopsAtShortPage(t *testing.T) {
	src := &sliceSource{refs: refs(5)}
	res, _ := resolvers()
	p, err := NewPager(src, res, PagerConfig{PageSize: 2, InitialLoadSize: 2})
	require.NoError(t, err)

	n := 0
	for page, err := range p.Pages(context.Background()) {
		require.NoError(t, err)
		n++
		if n == 3 {
			assert.True(t, page.End)
		}
	}
	assert.Equal(t, 3, n)
	assert.Len(t, src.requests(), 3)
}

func TestPager_PagesYieldsErrorOnce(t *testing.T) {
	res, _ := resolvers()
	p, err := NewPager(&sliceSource{err: errors.New("boom")}, res, PagerConfig{PageSize: 2})
	require.NoError(t, err)

	var errs int
	for _, err := range p.Pages(context.Background()) {
		require.Error(t, err)
		errs++
	}
	assert.Equal(t, 1, errs)
}

func TestPager_Items(t *testing.T) {
	ctx := context.Background()
	res, _ := resolvers("id-00", "id-07")
	p, err := NewPager(&sliceSource{refs: refs(9)}, res, PagerConfig{PageSize: 2, InitialLoadSize: 3, PrefetchDistance: 1})
	require.NoError(t, err)

	var got []string
	for item, err := range p.Items(ctx) {
		require.NoError(t, err)
		got = append(got, item.SourceID)
	}
	assert.Equal(t, []string{"id-01", "id-02", "id-03", "id-04", "id-05", "id-06", "id-08"}, got)
}

func TestPager_ItemsPrefetches(t *testing.T) {
	src := &sliceSource{refs: refs(6)}
	res, _ := resolvers()
	p, err := NewPager(src, res, PagerConfig{PageSize: 3, InitialLoadSize: 3, PrefetchDistance: 1})
	require.NoError(t, err)

	seen := 0
	for _, err := range p.Items(context.Background()) {
		require.NoError(t, err)
		seen++
		if seen == 2 {
			assert.Len(t, src.requests(), 1, "no prefetch while two items remain")
		}
		if seen == 3 {
			// The last item of the first page triggers the load of the second.
			require.Eventually(t, func() bool { return len(src.requests()) >= 2 }, time.Second, 5*time.Millisecond)
			assert.Equal(t, [2]int{3, 3}, src.requests()[1])
			break
		}
	}
}

func TestPager_ItemsBreakAndCancel(t *testing.T) {
	res, _ := resolvers()
	p, err := NewPager(&sliceSource{refs: refs(20)}, res, PagerConfig{PageSize: 4})
	require.NoError(t, err)

	var first []string
	for item, err := range p.Items(context.Background()) {
		require.NoError(t, err)
		first = append(first, item.SourceID)
		if len(first) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"id-00", "id-01"}, first)

	var restarted []string
	for item, err := range p.Items(context.Background()) {
		require.NoError(t, err)
		restarted = append(restarted, item.SourceID)
	}
	assert.Len(t, restarted, 20)
	assert.Equal(t, first, restarted[:2])

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var gotErr error
	for _, err := range p.Items(ctx) {
		gotErr = err
	}
	assert.ErrorIs(t, gotErr, context.Canceled)
}

// notifyResolver reports every id it is asked to resolve.
type notifyResolver struct {
	types.Resolver
	asked chan string
}

func (r notifyResolver) Resolve(ctx context.Context, id string) (types.Item, error) {
	item, err := r.Resolver.Resolve(ctx, id)
	r.asked <- id
	return item, err
}

func TestPager_ItemsAbandonedPrefetchNotCounted(t *testing.T) {
	res, _ := resolvers("id-04")
	asked := make(chan string, 16)
	res[types.SourceCached] = notifyResolver{Resolver: res[types.SourceCached], asked: asked}
	src := &sliceSource{refs: refs(6)}
	p, err := NewPager(src, res, PagerConfig{PageSize: 3, InitialLoadSize: 3, PrefetchDistance: 3})
	require.NoError(t, err)

	for _, err := range p.Items(context.Background()) {
		require.NoError(t, err)
		// The first item already triggers the prefetch of the second page;
		// wait until it has resolved the missing reference, then stop.
		require.Eventually(t, func() bool {
			for {
				select {
				case id := <-asked:
					if id == "id-04" {
						return true
					}
				default:
					return false
				}
			}
		}, time.Second, 5*time.Millisecond)
		break
	}
	assert.Equal(t, int64(0), p.Dropped(), "drops of a page never consumed")

	for _, err := range p.Items(context.Background()) {
		require.NoError(t, err)
	}
	assert.Equal(t, int64(1), p.Dropped())
}
