// Package favorites aggregates favorite references from every backing
// store into one recency-ordered, paged view of hydrated items.
package favorites

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/keepsake/pkg/types"
)

// Paging defaults.
const (
	DefaultPageSize    = 24
	DefaultConcurrency = 4
)

// PageSource delivers raw favorite references newest first.
type PageSource interface {
	FavoritesPage(ctx context.Context, offset, limit int) ([]types.FavoriteReference, error)
}

// PagerConfig sizes the pages a Pager loads. Zero fields take defaults:
// PrefetchDistance is PageSize, InitialLoadSize is three pages and
// Concurrency is DefaultConcurrency.
type PagerConfig struct {
	PageSize         int
	PrefetchDistance int
	InitialLoadSize  int
	Concurrency      int // Resolver calls in flight per page.
}

// Normalize fills defaults and validates c.
func (c PagerConfig) Normalize() (PagerConfig, error) {
	if c.PageSize == 0 {
		c.PageSize = DefaultPageSize
	}
	if c.PageSize < 0 || c.PrefetchDistance < 0 || c.InitialLoadSize < 0 || c.Concurrency < 0 {
		return c, types.ErrInvalidPageSize
	}
	if c.PrefetchDistance == 0 {
		c.PrefetchDistance = c.PageSize
	}
	if c.InitialLoadSize == 0 {
		c.InitialLoadSize = 3 * c.PageSize
	}
	if c.Concurrency == 0 {
		c.Concurrency = DefaultConcurrency
	}
	return c, nil
}

// Page is one loaded page. Items keep the order of the raw references
// they were resolved from; references that did not resolve are listed in
// Dropped instead.
type Page struct {
	Items      []types.Item
	Dropped    []types.FavoriteReference
	Offset     int  // Position of the first raw reference.
	NextOffset int  // Position to load the following page from.
	Raw        int  // Raw references read from the source.
	End        bool // The source had fewer references than requested.
}

// Pager resolves pages of favorite references through the resolver of
// each reference's source kind.
type Pager struct {
	source    PageSource
	resolvers map[types.SourceKind]types.Resolver
	cfg       PagerConfig
	logger    *slog.Logger
	dropped   atomic.Int64
}

// Option configures a Pager.
type Option func(*Pager)

// WithLogger sets the logger used for drop diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pager) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPager returns a pager over source. A reference whose kind has no
// entry in resolvers is treated as unresolvable.
func NewPager(source PageSource, resolvers map[types.SourceKind]types.Resolver, cfg PagerConfig, opts ...Option) (*Pager, error) {
	cfg, err := cfg.Normalize()
	if err != nil {
		return nil, err
	}
	p := &Pager{
		source:    source,
		resolvers: resolvers,
		cfg:       cfg,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Config returns the normalized configuration.
func (p *Pager) Config() PagerConfig {
	return p.cfg
}

// Dropped returns the number of references dropped as unresolvable since
// the pager was created. Only pages returned by Load or consumed through
// Pages and Items are counted; an abandoned prefetch is not.
func (p *Pager) Dropped() int64 {
	return p.dropped.Load()
}

// Load reads up to limit references at offset and resolves them
// concurrently. Resolution has no side effects, so a failed page can be
// retried at the same offset.
func (p *Pager) Load(ctx context.Context, offset, limit int) (Page, error) {
	page, err := p.load(ctx, offset, limit)
	if err != nil {
		return Page{}, err
	}
	p.count(page)
	return page, nil
}

func (p *Pager) load(ctx context.Context, offset, limit int) (Page, error) {
	if limit <= 0 {
		return Page{}, types.ErrInvalidPageSize
	}
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	refs, err := p.source.FavoritesPage(ctx, offset, limit)
	if err != nil {
		return Page{}, fmt.Errorf("reading favorites at offset %d: %w", offset, err)
	}

	items := make([]types.Item, len(refs))
	found := make([]bool, len(refs))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)
	for i, ref := range refs {
		g.Go(func() error {
			resolver, ok := p.resolvers[ref.Source]
			if !ok {
				return nil
			}
			item, err := resolver.Resolve(gCtx, ref.SourceID)
			if errors.Is(err, types.ErrNotFound) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("resolving %s favorite %q: %w", ref.Source, ref.SourceID, err)
			}
			items[i] = item
			found[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Page{}, err
	}

	page := Page{
		Items:      make([]types.Item, 0, len(refs)),
		Offset:     offset,
		NextOffset: offset + len(refs),
		Raw:        len(refs),
		End:        len(refs) < limit,
	}
	for i, ref := range refs {
		if found[i] {
			page.Items = append(page.Items, items[i])
			continue
		}
		page.Dropped = append(page.Dropped, ref)
	}
	return page, nil
}

// count adds the drops of a page handed to the caller to the counter.
func (p *Pager) count(page Page) {
	for _, ref := range page.Dropped {
		p.logger.Debug("dropping unresolvable favorite",
			"source", ref.Source, "source_id", ref.SourceID)
	}
	if n := len(page.Dropped); n > 0 {
		p.dropped.Add(int64(n))
	}
}

// Pages yields pages from the newest favorite onward. The first page holds
// InitialLoadSize references and later pages PageSize. Iteration ends after
// a short page or at the first error, which is yielded once. Each call
// starts again from the beginning.
func (p *Pager) Pages(ctx context.Context) iter.Seq2[Page, error] {
	return func(yield func(Page, error) bool) {
		offset, limit := 0, p.cfg.InitialLoadSize
		for {
			page, err := p.Load(ctx, offset, limit)
			if err != nil {
				yield(Page{Offset: offset}, err)
				return
			}
			if !yield(page, nil) || page.End {
				return
			}
			offset, limit = page.NextOffset, p.cfg.PageSize
		}
	}
}

type loadResult struct {
	page Page
	err  error
}

// Items yields resolved items in favorite order. Once no more than
// PrefetchDistance items of the current page remain unconsumed, the next
// page is loaded in the background. Breaking out of the loop or cancelling
// ctx abandons any pending prefetch.
func (p *Pager) Items(ctx context.Context) iter.Seq2[types.Item, error] {
	return func(yield func(types.Item, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		page, err := p.load(ctx, 0, p.cfg.InitialLoadSize)
		if err != nil {
			yield(types.Item{}, err)
			return
		}
		p.count(page)
		for {
			var next chan loadResult
			prefetch := func() {
				if next != nil || page.End {
					return
				}
				next = make(chan loadResult, 1)
				go func(ch chan<- loadResult, offset int) {
					pg, err := p.load(ctx, offset, p.cfg.PageSize)
					ch <- loadResult{page: pg, err: err}
				}(next, page.NextOffset)
			}

			for i, item := range page.Items {
				if len(page.Items)-i <= p.cfg.PrefetchDistance {
					prefetch()
				}
				if !yield(item, nil) {
					return
				}
			}
			if page.End {
				return
			}
			prefetch()

			var r loadResult
			select {
			case r = <-next:
			case <-ctx.Done():
				yield(types.Item{}, ctx.Err())
				return
			}
			if r.err != nil {
				yield(types.Item{}, r.err)
				return
			}
			page = r.page
			p.count(page)
		}
	}
}
