// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"shopdesk/internal/session"
)

// SessionStore is the part of session.Store the middleware needs.
type SessionStore interface {
	Get(ctx context.Context, r *http.Request) (*session.Session, error)
	Create(ctx context.Context, w http.ResponseWriter) (*session.Session, error)
}

// LoadSession retrieves the dashboard session from Valkey, creating one
// when the request has none, and stores it in the request context.
// Downstream handlers access it via session.FromContext.
func LoadSession(store SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := store.Get(r.Context(), r)
			if err != nil {
				// Unreadable or unreachable: start over with a fresh one.
				slog.Warn("session load failed", "error", err)
			}
			if sess == nil {
				sess, err = store.Create(r.Context(), w)
				if err != nil {
					slog.Error("session create failed", "error", err)
					writeError(w, http.StatusServiceUnavailable, "Session storage is unavailable. Please try again.")
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(session.NewContext(r.Context(), sess)))
		})
	}
}
