package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/bookster/catalog-server/internal/domain"
)

// computeStats counts a book's reactions and statuses concurrently.
// Each count writes its own field, so no locking is needed.
func (s *CatalogService) computeStats(ctx context.Context, bookID string) (domain.BookStats, error) {
	var stats domain.BookStats

	reactions := []struct {
		reaction domain.Reaction
		dst      *int
	}{
		{domain.ReactionLike, &stats.LikeCount},
		{domain.ReactionDislike, &stats.DislikeCount},
	}
	statuses := []struct {
		status domain.ReadingStatus
		dst    *int
	}{
		{domain.StatusWant, &stats.WantCount},
		{domain.StatusReading, &stats.ReadingCount},
		{domain.StatusRead, &stats.ReadCount},
		{domain.StatusDNF, &stats.DNFCount},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range reactions {
		g.Go(func() error {
			n, err := s.store.CountReactions(gctx, bookID, c.reaction)
			if err != nil {
				return fmt.Errorf("count %s: %w", c.reaction, err)
			}
			*c.dst = n
			return nil
		})
	}
	for _, c := range statuses {
		g.Go(func() error {
			n, err := s.store.CountStatuses(gctx, bookID, c.status)
			if err != nil {
				return fmt.Errorf("count %s: %w", c.status, err)
			}
			*c.dst = n
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return domain.BookStats{}, err
	}
	return stats, nil
}
