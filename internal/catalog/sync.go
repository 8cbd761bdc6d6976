package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"shopdesk/internal/models"
	"shopdesk/internal/tree"
)

// Load populates the forest from the snapshot cache when possible and
// falls back to a full Refresh.
func (m *Manager) Load(ctx context.Context) error {
	if m.cache != nil {
		if cached, ok := m.cache.Load(ctx); ok {
			forest := tree.Build(cached)
			m.mu.Lock()
			m.forest = forest
			m.version++
			m.loaded = true
			m.mu.Unlock()
			categoriesTotal.Set(float64(tree.Count(forest)))
			slog.Info("categories loaded from cache", "count", tree.Count(forest))
			return nil
		}
	}
	_, err := m.Refresh(ctx)
	return err
}

// Refresh replaces the forest with the backend's current listing. This is
// the authoritative resync point. Concurrent calls share one request.
func (m *Manager) Refresh(ctx context.Context) ([]models.Category, error) {
	v, err, shared := m.flight.Do("refresh", func() (any, error) {
		// Detached so one caller giving up does not fail the others.
		fetched, err := m.remote.FetchCategories(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		forest := tree.Build(fetched)

		m.mu.Lock()
		m.forest = forest
		m.version++
		version := m.version
		m.loaded = true
		m.syncedAt = time.Now()
		m.mu.Unlock()

		count := tree.Count(forest)
		categoriesTotal.Set(float64(count))
		m.persist(ctx, forest, version)
		m.record(ctx, models.MutationRefresh, models.Category{})
		slog.Info("categories refreshed", "count", count, "roots", len(forest))
		return forest, nil
	})
	if err != nil {
		slog.Warn("category refresh failed", "error", err, "shared", shared)
		return nil, fmt.Errorf("refresh categories: %w", err)
	}
	return v.([]models.Category), nil
}
