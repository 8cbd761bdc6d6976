// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the JSON API the category dashboard talks to.
// Handlers receive their dependencies through the handler struct; the
// per-user UI state (wizard, pagination, search) comes from the session
// loaded by middleware.
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"shopdesk/internal/catalog"
	"shopdesk/internal/models"
	"shopdesk/internal/session"
)

// SessionSaver persists dashboard session state.
type SessionSaver interface {
	Save(ctx context.Context, sess *session.Session) error
}

// MutationReader lists logged category mutations.
type MutationReader interface {
	Recent(ctx context.Context, tenantID string, limit int) ([]models.Mutation, error)
	ForCategory(ctx context.Context, tenantID, categoryID string) ([]models.Mutation, error)
}

// Dashboard groups the category dashboard handlers and their dependencies.
type Dashboard struct {
	catalog   *catalog.Manager
	sessions  SessionSaver
	mutations MutationReader // may be nil
	tenantID  string
	perPage   int
}

// NewDashboard creates the dashboard handler group. mutations may be nil
// when the audit log is not configured.
func NewDashboard(cat *catalog.Manager, sessions SessionSaver, mutations MutationReader, tenantID string, perPage int) *Dashboard {
	return &Dashboard{
		catalog:   cat,
		sessions:  sessions,
		mutations: mutations,
		tenantID:  tenantID,
		perPage:   perPage,
	}
}

// currentSession returns the request's session. Without the session
// middleware a throwaway session is used and nothing is persisted.
func (d *Dashboard) currentSession(r *http.Request) *session.Session {
	if sess := session.FromContext(r.Context()); sess != nil {
		return sess
	}
	return &session.Session{Data: session.NewData(d.perPage)}
}

// saveSession persists UI state. Failures are logged; the request itself
// already succeeded.
func (d *Dashboard) saveSession(ctx context.Context, sess *session.Session) {
	if sess.ID == "" || d.sessions == nil {
		return
	}
	if err := d.sessions.Save(ctx, sess); err != nil {
		slog.Warn("session save failed", "error", err)
	}
}

// ensureLoaded performs the first sync lazily when startup could not.
func (d *Dashboard) ensureLoaded(ctx context.Context) error {
	if d.catalog.Loaded() {
		return nil
	}
	if _, err := d.catalog.Refresh(ctx); err != nil {
		return fmt.Errorf("%w: %w", catalog.ErrNotLoaded, err)
	}
	return nil
}
