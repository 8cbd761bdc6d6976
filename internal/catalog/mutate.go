package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"shopdesk/internal/backend"
	"shopdesk/internal/models"
	"shopdesk/internal/tree"
)

// Create sends a new category to the backend and, once confirmed, appends
// it to the root list or to its parent's children.
func (m *Manager) Create(ctx context.Context, in backend.CreateInput) (models.Category, error) {
	parentID := deref(in.ParentID)
	if parentID != "" {
		if parent, ok := m.Find(parentID); ok && !parent.CanHaveChildren() {
			return models.Category{}, ErrMaxDepth
		}
	}

	done, err := m.begin(CreateKey(in))
	if err != nil {
		return models.Category{}, err
	}
	defer done()

	created, err := m.remote.CreateCategory(ctx, in)
	if err != nil {
		slog.Warn("category create failed", "name", in.Name, "parent_id", parentID, "error", err)
		return models.Category{}, fmt.Errorf("create category: %w", err)
	}
	if created.ParentID == nil && parentID != "" {
		created.ParentID = &parentID
	}
	created.Children = []models.Category{}

	forest, version, changed := m.apply(func(f []models.Category) ([]models.Category, bool) {
		if tree.Contains(f, created.ID) {
			// A refresh already brought it in.
			return f, false
		}
		if created.ParentID == nil {
			return tree.AppendRoot(f, created), true
		}
		return tree.AppendChild(f, *created.ParentID, created)
	})

	placed, ok := tree.Find(forest, created.ID)
	if !ok {
		placed = created
	}
	if changed {
		patchesTotal.WithLabelValues("create", "applied").Inc()
		m.persist(ctx, forest, version)
	} else {
		patchesTotal.WithLabelValues("create", "noop").Inc()
		slog.Warn("created category not placed in tree", "id", created.ID, "parent_id", deref(created.ParentID))
	}

	m.record(ctx, models.MutationCreate, placed)
	slog.Info("category created", "id", placed.ID, "name", placed.Name, "level", placed.Level)
	return placed, nil
}

// CreateKey is the in-flight key of a creation: the same name below the
// same parent counts as a duplicate submission.
func CreateKey(in backend.CreateInput) string {
	return "create:" + deref(in.ParentID) + ":" + strings.ToLower(strings.TrimSpace(in.Name))
}

// Update sends changed fields to the backend and merges the confirmed
// values into the existing node. Children are kept as they are. When the
// category moved to another parent the forest is resynchronised instead.
func (m *Manager) Update(ctx context.Context, id string, in backend.UpdateInput) (models.Category, error) {
	done, err := m.begin("update:" + id)
	if err != nil {
		return models.Category{}, err
	}
	defer done()

	updated, err := m.remote.UpdateCategory(ctx, id, in)
	if err != nil {
		slog.Warn("category update failed", "id", id, "error", err)
		return models.Category{}, fmt.Errorf("update category %s: %w", id, err)
	}

	if existing, ok := m.Find(id); ok && existing.ParentIDValue() != deref(in.ParentID) {
		slog.Info("category moved, resyncing", "id", id, "from", existing.ParentIDValue(), "to", deref(in.ParentID))
		if _, err := m.Refresh(ctx); err != nil {
			// The backend accepted the move; place it locally until the
			// next successful refresh.
			slog.Warn("resync after move failed, moving locally", "id", id, "error", err)
			m.moveLocally(ctx, id, updated, deref(in.ParentID))
		}
		m.record(ctx, models.MutationUpdate, updated)
		if c, ok := m.Find(id); ok {
			return c, nil
		}
		return updated, nil
	}

	forest, version, changed := m.apply(func(f []models.Category) ([]models.Category, bool) {
		return tree.Replace(f, id, func(old models.Category) models.Category {
			return merge(old, updated)
		})
	})

	result := updated
	if changed {
		result, _ = tree.Find(forest, id)
		patchesTotal.WithLabelValues("update", "applied").Inc()
		m.persist(ctx, forest, version)
	} else {
		patchesTotal.WithLabelValues("update", "noop").Inc()
		slog.Debug("updated category not in tree", "id", id)
	}

	m.record(ctx, models.MutationUpdate, result)
	slog.Info("category updated", "id", id, "name", result.Name)
	return result, nil
}

// Delete removes a category on the backend and then from the forest.
// A category that is already gone locally is a no-op patch.
func (m *Manager) Delete(ctx context.Context, id string) error {
	done, err := m.begin("delete:" + id)
	if err != nil {
		return err
	}
	defer done()

	existing, found := m.Find(id)

	if err := m.remote.DeleteCategory(ctx, id); err != nil {
		slog.Warn("category delete failed", "id", id, "error", err)
		return fmt.Errorf("delete category %s: %w", id, err)
	}

	forest, version, changed := m.apply(func(f []models.Category) ([]models.Category, bool) {
		return tree.Remove(f, id)
	})
	if changed {
		patchesTotal.WithLabelValues("delete", "applied").Inc()
		m.persist(ctx, forest, version)
	} else {
		patchesTotal.WithLabelValues("delete", "noop").Inc()
		slog.Debug("deleted category already gone", "id", id)
	}

	if !found {
		existing = models.Category{ID: id}
	}
	m.record(ctx, models.MutationDelete, existing)
	slog.Info("category deleted", "id", id)
	return nil
}

// moveLocally detaches id with its subtree and reattaches it below
// parentID, or as a root when parentID is empty. Levels of the moved
// subtree are recomputed.
func (m *Manager) moveLocally(ctx context.Context, id string, updated models.Category, parentID string) {
	forest, version, changed := m.apply(func(f []models.Category) ([]models.Category, bool) {
		node, ok := tree.Find(f, id)
		if !ok {
			return f, false
		}
		rest, _ := tree.Remove(f, id)
		node = merge(node, updated)
		var moved []models.Category
		if parentID == "" {
			moved = tree.AppendRoot(rest, node)
		} else if moved, ok = tree.AppendChild(rest, parentID, node); !ok {
			return f, false
		}
		return tree.Build(moved), true
	})
	if changed {
		patchesTotal.WithLabelValues("update", "applied").Inc()
		m.persist(ctx, forest, version)
	}
}

// merge copies the backend-confirmed fields onto the existing node.
func merge(old, srv models.Category) models.Category {
	old.Name = srv.Name
	old.Image = srv.Image
	old.InternalLink = srv.InternalLink
	old.IsActive = srv.IsActive
	if srv.ProductCount > 0 {
		old.ProductCount = srv.ProductCount
	}
	return old
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
