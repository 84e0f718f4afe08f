package favorites

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mesh-intelligence/keepsake/pkg/types"
)

// Service implements the user-facing favorite operations.
type Service struct {
	store     types.FavoriteStore
	resolvers map[types.SourceKind]types.Resolver
	logger    *slog.Logger
	now       func() time.Time
}

// NewService returns a service over store. A nil logger uses slog.Default.
func NewService(store types.FavoriteStore, resolvers map[types.SourceKind]types.Resolver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, resolvers: resolvers, logger: logger, now: time.Now}
}

// Toggle removes the favorite if it exists and creates it otherwise. It
// reports whether the item is a favorite afterwards.
func (s *Service) Toggle(ctx context.Context, source types.SourceKind, sourceID string) (bool, error) {
	if err := validate(source, sourceID); err != nil {
		return false, err
	}
	exists, err := s.store.FavoriteExists(ctx, source, sourceID)
	if err != nil {
		return false, err
	}
	if exists {
		if err := s.store.DeleteFavorite(ctx, source, sourceID); err != nil {
			return false, err
		}
		s.logger.Info("favorite removed", "source", source, "source_id", sourceID)
		return false, nil
	}
	if err := s.add(ctx, source, sourceID); err != nil {
		return false, err
	}
	return true, nil
}

// Add favorites the item unless it already is one. An existing favorite
// keeps its original timestamp.
func (s *Service) Add(ctx context.Context, source types.SourceKind, sourceID string) error {
	if err := validate(source, sourceID); err != nil {
		return err
	}
	exists, err := s.store.FavoriteExists(ctx, source, sourceID)
	if err != nil || exists {
		return err
	}
	return s.add(ctx, source, sourceID)
}

func (s *Service) add(ctx context.Context, source types.SourceKind, sourceID string) error {
	err := s.store.AddFavorite(ctx, types.FavoriteReference{
		Source:      source,
		SourceID:    sourceID,
		FavoritedAt: s.now(),
	})
	if err != nil {
		return err
	}
	s.logger.Info("favorite added", "source", source, "source_id", sourceID)
	return nil
}

// Random resolves one favorite chosen at random. It returns
// types.ErrNotFound when there are no favorites or the chosen one does
// not resolve.
func (s *Service) Random(ctx context.Context) (types.Item, error) {
	ref, err := s.store.RandomFavorite(ctx)
	if err != nil {
		return types.Item{}, err
	}
	resolver, ok := s.resolvers[ref.Source]
	if !ok {
		return types.Item{}, fmt.Errorf("no resolver for %s: %w", ref.Source, types.ErrNotFound)
	}
	return resolver.Resolve(ctx, ref.SourceID)
}

func validate(source types.SourceKind, sourceID string) error {
	if !source.Valid() {
		return fmt.Errorf("%w: %q", types.ErrInvalidSource, source)
	}
	if strings.TrimSpace(sourceID) == "" {
		return types.ErrInvalidSourceID
	}
	return nil
}
