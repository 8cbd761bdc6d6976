// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"shopdesk/internal/backend"
	"shopdesk/internal/catalog"
	"shopdesk/internal/imaging"
	"shopdesk/internal/wizard"
)

// User-facing messages for errors raised inside this service.
const (
	msgInFlight     = "This request is already being processed."
	msgMaxDepth     = "Categories can only be nested three levels deep."
	msgWrongParent  = "That category cannot be the parent at this step."
	msgNoUploader   = "Image uploads are not configured."
	msgTooLarge     = "The image is too large (max 10 MB)."
	msgUnsupported  = "Unsupported image type. Use JPEG, PNG, GIF, WebP or SVG."
	msgEmptyUpload  = "The uploaded file is empty."
	msgNotFound     = "Category not found."
	msgInvalidJSON  = "Invalid request body."
	msgNotLoaded    = "Categories are not loaded yet. Please try again."
	msgSessionError = "Your changes were applied but the dashboard state could not be saved."
)

// writeJSON sends v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response failed", "error", err)
	}
}

// writeError sends a JSON error body the dashboard shows as a notification.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps an error from the catalog, wizard, imaging or
// backend layers to a status code and a displayable message.
func writeServiceError(w http.ResponseWriter, err error) {
	status, msg := classify(err)
	var verr *wizard.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, status, map[string]string{"error": msg, "field": verr.Field})
		return
	}
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "status", status, "error", err)
	}
	writeError(w, status, msg)
}

// classify returns the HTTP status and user message for err.
func classify(err error) (int, string) {
	var verr *wizard.ValidationError
	var apiErr *backend.APIError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, verr.Message
	case errors.Is(err, catalog.ErrInFlight):
		return http.StatusConflict, msgInFlight
	case errors.Is(err, catalog.ErrMaxDepth), errors.Is(err, wizard.ErrMaxDepth):
		return http.StatusBadRequest, msgMaxDepth
	case errors.Is(err, wizard.ErrWrongParentLevel):
		return http.StatusBadRequest, msgWrongParent
	case errors.Is(err, catalog.ErrNoUploader):
		return http.StatusServiceUnavailable, msgNoUploader
	case errors.Is(err, catalog.ErrNotLoaded):
		return http.StatusServiceUnavailable, msgNotLoaded
	case errors.Is(err, imaging.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, msgTooLarge
	case errors.Is(err, imaging.ErrUnsupportedType):
		return http.StatusBadRequest, msgUnsupported
	case errors.Is(err, imaging.ErrEmpty):
		return http.StatusBadRequest, msgEmptyUpload
	case errors.As(err, &apiErr):
		// Backend rejections pass through; backend failures are a bad gateway.
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			return apiErr.Status, backend.UserMessage(err)
		}
		return http.StatusBadGateway, backend.UserMessage(err)
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, backend.UserMessage(err)
	default:
		return http.StatusBadGateway, backend.UserMessage(err)
	}
}
