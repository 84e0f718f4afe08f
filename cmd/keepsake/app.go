package main

import (
	"fmt"

	"github.com/mesh-intelligence/keepsake/internal/backup"
	"github.com/mesh-intelligence/keepsake/internal/catalog"
	"github.com/mesh-intelligence/keepsake/internal/favorites"
	"github.com/mesh-intelligence/keepsake/internal/local"
	"github.com/mesh-intelligence/keepsake/internal/savedsearch"
	"github.com/mesh-intelligence/keepsake/internal/sqlite"
	"github.com/mesh-intelligence/keepsake/pkg/types"
)

// app wires the store to the components commands use. The caller must
// Close it.
type app struct {
	dataDir   string
	store     *sqlite.Store
	local     *local.Collection
	pager     *favorites.Pager
	favorites *favorites.Service
	searches  *savedsearch.Reconciler
	writer    *backup.Writer
	restorer  *backup.Restorer
}

func openApp() (*app, error) {
	dataDir, err := resolveDataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	store, err := sqlite.Open(dataDir)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	coll := local.NewCollection(local.WithRoots(cfg.GetStringSlice(cfgKeyLocalRoots)...))
	resolvers := map[types.SourceKind]types.Resolver{
		types.SourceCached: catalog.NewResolver(store),
		types.SourceLocal:  coll,
	}
	pager, err := favorites.NewPager(store, resolvers, pagerConfig(cfg), favorites.WithLogger(logger))
	if err != nil {
		store.Close()
		return nil, usageError(fmt.Errorf("pager config: %w", err))
	}

	return &app{
		dataDir:   dataDir,
		store:     store,
		local:     coll,
		pager:     pager,
		favorites: favorites.NewService(store, resolvers, logger),
		searches:  savedsearch.NewReconciler(store, logger),
		writer:    backup.NewWriter(store, logger),
		restorer:  backup.NewRestorer(store, coll, logger),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
