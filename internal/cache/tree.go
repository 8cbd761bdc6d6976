// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// tree.go stores the last confirmed category forest in Valkey so a restart
// does not have to wait for the backend before serving the dashboard.
// The backend stays the source of truth; the snapshot is replaced on every
// refresh and every applied patch.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"shopdesk/internal/models"
)

const (
	// treeKeyPrefix is the Valkey key prefix for tree snapshots.
	treeKeyPrefix = "categories:tree:"

	// DefaultTreeTTL is how long a snapshot is trusted without a refresh.
	DefaultTreeTTL = 10 * time.Minute
)

// snapshot is the stored document.
type snapshot struct {
	SavedAt    time.Time         `json:"saved_at"`
	Categories []models.Category `json:"categories"`
}

// TreeCache keeps one category forest snapshot per tenant.
type TreeCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewTreeCache creates a snapshot cache for the given tenant.
func NewTreeCache(client *redis.Client, tenantID string, ttl time.Duration) *TreeCache {
	if ttl == 0 {
		ttl = DefaultTreeTTL
	}
	return &TreeCache{client: client, key: TreeKey(tenantID), ttl: ttl}
}

// Load returns the stored forest. A miss, an expired entry or an
// unreadable document all report false.
func (tc *TreeCache) Load(ctx context.Context) ([]models.Category, bool) {
	val, err := tc.client.Get(ctx, tc.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("tree cache get error", "key", tc.key, "error", err)
		return nil, false
	}

	var snap snapshot
	if err := json.Unmarshal(val, &snap); err != nil {
		slog.Warn("tree cache decode error", "key", tc.key, "error", err)
		return nil, false
	}
	if snap.Categories == nil {
		snap.Categories = []models.Category{}
	}
	slog.Debug("tree cache hit", "key", tc.key, "saved_at", snap.SavedAt)
	return snap.Categories, true
}

// Save replaces the stored forest. Errors are logged, never returned.
func (tc *TreeCache) Save(ctx context.Context, forest []models.Category) {
	data, err := json.Marshal(snapshot{SavedAt: time.Now().UTC(), Categories: forest})
	if err != nil {
		slog.Warn("tree cache encode error", "error", err)
		return
	}
	if err := tc.client.Set(ctx, tc.key, data, tc.ttl).Err(); err != nil {
		slog.Warn("tree cache set error", "key", tc.key, "error", err)
	}
}

// TreeKey returns the Valkey key for a tenant's snapshot.
func TreeKey(tenantID string) string {
	if tenantID == "" {
		tenantID = "default"
	}
	return treeKeyPrefix + tenantID
}
