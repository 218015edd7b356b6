// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package store declares the operation families a session backend may
// implement, and the closed error taxonomy every operation surfaces.
// Three capability sets exist, mirroring the two historical write
// protocols (CAS vs. last-write-wins) plus the legacy by-key lookup
// that some routing backends also support:
//
//   - LegacyStore: by-key-and-user CRUD, last-write-wins.
//   - RoutingStore: scope-based wait registration and lookup.
//   - CasStore: strong-consistency compare-and-set, primary-key only.
//
// A backend may implement one, two, or all three; callers depend on
// the narrowest interface their use case needs.
package store

import (
	"context"
	"time"

	"github.com/greentic-ai/session-store/ids"
	"github.com/greentic-ai/session-store/sessionmodel"
)

// LegacyStore is the by-key-and-user operation family.
type LegacyStore interface {
	// CreateSession validates ctx against data.TenantCtx and stores a
	// fresh record, returning its key. InvalidInput if alignment
	// fails.
	CreateSession(ctx context.Context, tenantCtx ids.TenantCtx, data *sessionmodel.Session) (ids.SessionKey, error)

	// GetSession returns the session, or (nil, nil) if absent.
	GetSession(ctx context.Context, key ids.SessionKey) (*sessionmodel.Session, error)

	// UpdateSession overwrites the record at key. NotFound if absent;
	// InvalidInput if the write would change immutable context.
	UpdateSession(ctx context.Context, key ids.SessionKey, data *sessionmodel.Session) error

	// RemoveSession deletes the record at key. NotFound if absent.
	RemoveSession(ctx context.Context, key ids.SessionKey) error

	// FindByUser returns the single live session for the user, or
	// ("", nil, nil) if none. InvalidInput if more than one wait
	// exists for the user (routing-family backends only).
	FindByUser(ctx context.Context, tenantCtx ids.TenantCtx, user ids.UserId) (ids.SessionKey, *sessionmodel.Session, error)
}

// RoutingStore is the scope-based wait registration family.
type RoutingStore interface {
	// RegisterWait stores data under key and indexes it by (user,
	// scope), replacing any prior wait at the same scope. ttl is
	// zero-value for "no TTL". InvalidInput on alignment or user
	// mismatch.
	RegisterWait(ctx context.Context, tenantCtx ids.TenantCtx, user ids.UserId, scope ids.ReplyScope, key ids.SessionKey, data *sessionmodel.Session, ttl time.Duration) error

	// FindWaitByScope returns the session key registered at scope, or
	// ("", false, nil) if none (including after pruning a stale
	// entry). Never errors on a mismatch.
	FindWaitByScope(ctx context.Context, tenantCtx ids.TenantCtx, user ids.UserId, scope ids.ReplyScope) (ids.SessionKey, bool, error)

	// ListWaitsForUser returns the live, matching session keys
	// registered for the user, pruning any stale entries observed.
	ListWaitsForUser(ctx context.Context, tenantCtx ids.TenantCtx, user ids.UserId) ([]ids.SessionKey, error)

	// ClearWait removes the wait at scope, silently succeeding if
	// absent.
	ClearWait(ctx context.Context, tenantCtx ids.TenantCtx, user ids.UserId, scope ids.ReplyScope) error
}

// CasStore is the strong-consistency, primary-key-only family.
type CasStore interface {
	// Get returns the session and its current CAS, or (nil, CasNone,
	// nil) if absent.
	Get(ctx context.Context, key ids.SessionKey) (*sessionmodel.Session, sessionmodel.Cas, error)

	// Put writes the full session, bumping CAS if a live entry
	// existed, else assigning CasInitial. Returns the new CAS.
	Put(ctx context.Context, session *sessionmodel.Session) (sessionmodel.Cas, error)

	// UpdateCas writes session only if the stored CAS equals expected.
	// On success returns (next, true, nil). On conflict or absence
	// returns (current, false, nil) — current is CasNone if absent.
	UpdateCas(ctx context.Context, session *sessionmodel.Session, expected sessionmodel.Cas) (sessionmodel.Cas, bool, error)

	// Delete removes the record at key, reporting whether it was
	// present.
	Delete(ctx context.Context, key ids.SessionKey) (bool, error)

	// Touch refreshes updated_at, reporting whether the record was
	// present and live. ttl is optional: nil leaves the existing TTL
	// unchanged, a non-nil zero duration clears it to "never expire",
	// and any other non-nil value replaces it.
	Touch(ctx context.Context, key ids.SessionKey, ttl *time.Duration) (bool, error)
}
