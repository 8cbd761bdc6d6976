// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// mutation_log.go records confirmed category mutations in the database for
// audit and debugging purposes. Each entry captures what changed, where in
// the tree, and when the patch was applied.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"shopdesk/internal/models"
)

// MaxRecentEntries caps how many entries Recent returns.
const MaxRecentEntries = 200

// MutationLogStore handles category mutation log operations.
type MutationLogStore struct {
	db *sql.DB
}

// NewMutationLogStore creates a new MutationLogStore.
func NewMutationLogStore(db *sql.DB) *MutationLogStore {
	return &MutationLogStore{db: db}
}

// Record stores a mutation. Failures are logged, never returned: the
// mutation already succeeded on the backend.
func (s *MutationLogStore) Record(ctx context.Context, m models.Mutation) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.AppliedAt.IsZero() {
		m.AppliedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO category_mutations (id, tenant_id, action, category_id, parent_id, name, level, applied_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, m.ID, m.TenantID, string(m.Action), m.CategoryID, m.ParentID, m.Name, m.Level, m.AppliedAt)
	if err != nil {
		slog.Warn("failed to log category mutation",
			"action", m.Action,
			"category_id", m.CategoryID,
			"error", err,
		)
		return
	}
	slog.Debug("category mutation logged",
		"action", m.Action,
		"category_id", m.CategoryID,
	)
}

// Recent returns the newest mutations for a tenant, newest first.
func (s *MutationLogStore) Recent(ctx context.Context, tenantID string, limit int) ([]models.Mutation, error) {
	if limit <= 0 || limit > MaxRecentEntries {
		limit = MaxRecentEntries
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, action, category_id, parent_id, name, level, applied_at
		FROM category_mutations
		WHERE tenant_id = $1
		ORDER BY applied_at DESC
		LIMIT $2
	`, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("query mutation log: %w", err)
	}
	defer rows.Close()

	entries := []models.Mutation{}
	for rows.Next() {
		var (
			m        models.Mutation
			action   string
			parentID sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.TenantID, &action, &m.CategoryID, &parentID, &m.Name, &m.Level, &m.AppliedAt); err != nil {
			return nil, fmt.Errorf("scan mutation log: %w", err)
		}
		m.Action = models.MutationAction(action)
		if parentID.Valid {
			m.ParentID = &parentID.String
		}
		entries = append(entries, m)
	}
	return entries, rows.Err()
}

// ForCategory returns all logged mutations of one category, oldest first.
func (s *MutationLogStore) ForCategory(ctx context.Context, tenantID, categoryID string) ([]models.Mutation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, action, name, level, applied_at
		FROM category_mutations
		WHERE tenant_id = $1 AND category_id = $2
		ORDER BY applied_at
	`, tenantID, categoryID)
	if err != nil {
		return nil, fmt.Errorf("query category history: %w", err)
	}
	defer rows.Close()

	var entries []models.Mutation
	for rows.Next() {
		m := models.Mutation{TenantID: tenantID, CategoryID: categoryID}
		var action string
		if err := rows.Scan(&m.ID, &action, &m.Name, &m.Level, &m.AppliedAt); err != nil {
			return nil, fmt.Errorf("scan category history: %w", err)
		}
		m.Action = models.MutationAction(action)
		entries = append(entries, m)
	}
	return entries, rows.Err()
}

// Prune deletes entries older than the given age and returns how many
// were removed.
func (s *MutationLogStore) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM category_mutations WHERE applied_at < $1", time.Now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("prune mutation log: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		slog.Info("mutation log pruned", "deleted", n)
	}
	return n, nil
}
