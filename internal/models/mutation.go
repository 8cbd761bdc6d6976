// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// MutationAction identifies a confirmed change applied to the category tree.
type MutationAction string

const (
	MutationCreate  MutationAction = "create"
	MutationUpdate  MutationAction = "update"
	MutationDelete  MutationAction = "delete"
	MutationRefresh MutationAction = "refresh"
)

// Mutation is an audit record of a backend-confirmed category change.
type Mutation struct {
	ID         uuid.UUID      `json:"id"`
	TenantID   string         `json:"tenant_id"`
	Action     MutationAction `json:"action"`
	CategoryID string         `json:"category_id"`
	ParentID   *string        `json:"parent_id,omitempty"`
	Name       string         `json:"name"`
	Level      int            `json:"level"`
	AppliedAt  time.Time      `json:"applied_at"`
}

// Label returns a short human-readable description of the mutation.
func (m *Mutation) Label() string {
	switch m.Action {
	case MutationCreate:
		return "Created " + m.Name
	case MutationUpdate:
		return "Updated " + m.Name
	case MutationDelete:
		return "Deleted " + m.Name
	case MutationRefresh:
		return "Resynced categories"
	default:
		return string(m.Action)
	}
}
