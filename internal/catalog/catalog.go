// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package catalog keeps the in-memory category forest consistent with the
// storefront backend. Mutations are sent to the backend first; only a
// confirmed response is patched into the local forest, so there is never
// anything to roll back. Each patch is applied to the forest as it is when
// the response arrives, not to a snapshot taken when the request started.
package catalog

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"shopdesk/internal/backend"
	"shopdesk/internal/models"
	"shopdesk/internal/tree"
)

var (
	// ErrInFlight is returned when the same action is already waiting on
	// the backend (e.g. a double-submitted form).
	ErrInFlight = errors.New("catalog: request already in progress")

	// ErrMaxDepth is returned when creating below the deepest level.
	ErrMaxDepth = errors.New("catalog: categories cannot be nested deeper than three levels")

	// ErrNotLoaded is returned by reads before the first successful sync.
	ErrNotLoaded = errors.New("catalog: categories not loaded")
)

// Remote is the backend the forest is synchronised with.
type Remote interface {
	FetchCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, in backend.CreateInput) (models.Category, error)
	UpdateCategory(ctx context.Context, id string, in backend.UpdateInput) (models.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

// ImageUploader stores a category image and returns its public URL.
type ImageUploader interface {
	UploadImage(ctx context.Context, filename, contentType string, data []byte) (string, error)
}

// SnapshotCache persists the last known forest between restarts.
type SnapshotCache interface {
	Load(ctx context.Context) ([]models.Category, bool)
	Save(ctx context.Context, forest []models.Category)
}

// MutationLog records confirmed mutations for auditing.
type MutationLog interface {
	Record(ctx context.Context, m models.Mutation)
}

// Manager owns the category forest and applies confirmed mutations to it.
// All methods are safe for concurrent use.
type Manager struct {
	remote   Remote
	uploader ImageUploader
	cache    SnapshotCache // may be nil
	audit    MutationLog   // may be nil
	tenantID string
	maxWidth int

	mu       sync.RWMutex
	forest   []models.Category
	version  uint64
	syncedAt time.Time
	loaded   bool

	saveMu       sync.Mutex
	savedVersion uint64

	flight singleflight.Group

	busyMu sync.Mutex
	busy   map[string]time.Time
}

// Options configures optional collaborators of a Manager.
type Options struct {
	// Uploader stores images; defaults to the remote if it implements
	// ImageUploader.
	Uploader ImageUploader
	Cache    SnapshotCache
	Audit    MutationLog
	TenantID string

	// MaxImageWidth is the width above which uploads are downscaled.
	MaxImageWidth int
}

// New creates a Manager for the given backend.
func New(remote Remote, opts Options) *Manager {
	uploader := opts.Uploader
	if uploader == nil {
		uploader, _ = remote.(ImageUploader)
	}
	return &Manager{
		remote:   remote,
		uploader: uploader,
		cache:    opts.Cache,
		audit:    opts.Audit,
		tenantID: opts.TenantID,
		maxWidth: opts.MaxImageWidth,
		forest:   []models.Category{},
		busy:     make(map[string]time.Time),
	}
}

// Snapshot returns the current forest. The result is never modified by the
// Manager and may be shared freely; callers must not modify it either.
func (m *Manager) Snapshot() []models.Category {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.forest
}

// Loaded reports whether the forest has been populated at least once.
func (m *Manager) Loaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loaded
}

// SyncedAt returns the time of the last full sync (zero if none).
func (m *Manager) SyncedAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.syncedAt
}

// Find returns the category with the given ID from the current forest.
func (m *Manager) Find(id string) (models.Category, bool) {
	return tree.Find(m.Snapshot(), id)
}

// Children returns the immediate children of id, or the root list for "".
func (m *Manager) Children(id string) ([]models.Category, bool) {
	return tree.ChildrenOf(m.Snapshot(), id)
}

// Busy reports whether the given action key has a request outstanding.
func (m *Manager) Busy(key string) bool {
	m.busyMu.Lock()
	defer m.busyMu.Unlock()
	_, ok := m.busy[key]
	return ok
}

// InFlight returns the keys of all outstanding actions.
func (m *Manager) InFlight() []string {
	m.busyMu.Lock()
	defer m.busyMu.Unlock()
	keys := make([]string, 0, len(m.busy))
	for k := range m.busy {
		keys = append(keys, k)
	}
	return keys
}

// begin marks key as in flight. The returned func clears it.
func (m *Manager) begin(key string) (func(), error) {
	m.busyMu.Lock()
	defer m.busyMu.Unlock()
	if _, ok := m.busy[key]; ok {
		return nil, ErrInFlight
	}
	m.busy[key] = time.Now()
	return func() {
		m.busyMu.Lock()
		delete(m.busy, key)
		m.busyMu.Unlock()
	}, nil
}

// apply runs patch against the current forest under the write lock and
// returns the new forest and version when patch reports a change.
func (m *Manager) apply(patch func([]models.Category) ([]models.Category, bool)) ([]models.Category, uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	next, changed := patch(m.forest)
	if !changed {
		return m.forest, m.version, false
	}
	m.forest = next
	m.version++
	categoriesTotal.Set(float64(tree.Count(next)))
	return next, m.version, true
}

// persist writes the forest to the snapshot cache unless a newer version
// has already been written.
func (m *Manager) persist(ctx context.Context, forest []models.Category, version uint64) {
	if m.cache == nil {
		return
	}
	m.saveMu.Lock()
	defer m.saveMu.Unlock()
	if version <= m.savedVersion {
		return
	}
	m.cache.Save(ctx, forest)
	m.savedVersion = version
}

// record writes an audit entry when an audit log is configured.
func (m *Manager) record(ctx context.Context, action models.MutationAction, c models.Category) {
	if m.audit == nil {
		return
	}
	m.audit.Record(ctx, models.Mutation{
		TenantID:   m.tenantID,
		Action:     action,
		CategoryID: c.ID,
		ParentID:   c.ParentID,
		Name:       c.Name,
		Level:      c.Level,
		AppliedAt:  time.Now(),
	})
}
