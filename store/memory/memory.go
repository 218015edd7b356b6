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

// Package memory implements the routing-family session store
// (store.LegacyStore + store.RoutingStore) as a concurrent in-process
// map. Expiry is lazy: it happens only as a side effect of a read that
// observes a stale entry, never on a background timer.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/greentic-ai/session-store/ids"
	"github.com/greentic-ai/session-store/internal/obslog"
	"github.com/greentic-ai/session-store/sessionmodel"
	"github.com/greentic-ai/session-store/store"
)

type entry struct {
	data      *sessionmodel.Session
	expiresAt time.Time // zero value means "never expires"
	waitUser  ids.UserId
	scopeKey  string
}

func (e *entry) isExpired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

type scopeEntry struct {
	sessionKey ids.SessionKey
	expiresAt  time.Time
}

// Store is the in-memory routing-family backend: three maps protected
// by a single reader-writer lock, per spec.md §4.3.
type Store struct {
	mu sync.RWMutex

	sessions   map[ids.SessionKey]*entry
	userWaits  map[string]map[ids.SessionKey]struct{}
	scopeIndex map[string]scopeEntry

	now func() time.Time
}

var _ store.LegacyStore = (*Store)(nil)
var _ store.RoutingStore = (*Store)(nil)

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{
		sessions:   make(map[ids.SessionKey]*entry),
		userWaits:  make(map[string]map[ids.SessionKey]struct{}),
		scopeIndex: make(map[string]scopeEntry),
		now:        time.Now,
	}
}

func userLookupKey(ctx ids.TenantCtx, user ids.UserId) string {
	return fmt.Sprintf("%s|%s|%s|%s", ctx.Env, ctx.Tenant, ctx.NormalizedTeam(), user)
}

func scopeLookupKey(ctx ids.TenantCtx, user ids.UserId, scope ids.ReplyScope) string {
	return userLookupKey(ctx, user) + "|" + scope.ScopeHash()
}

func expiresAt(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}

// CreateSession implements store.LegacyStore.
func (s *Store) CreateSession(_ context.Context, tenantCtx ids.TenantCtx, data *sessionmodel.Session) (ids.SessionKey, error) {
	if err := store.CheckCreateAlignment(tenantCtx, data.TenantCtx); err != nil {
		return "", err
	}

	data.Normalize()
	key := data.Key
	if key == "" {
		key = sessionmodel.NewSessionKey()
		data.Key = key
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	data.UpdatedAt = now
	s.sessions[key] = &entry{
		data:      data.Clone(),
		expiresAt: expiresAt(now, time.Duration(data.TTLSecs)*time.Second),
	}
	return key, nil
}

// GetSession implements store.LegacyStore.
func (s *Store) GetSession(_ context.Context, key ids.SessionKey) (*sessionmodel.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[key]
	if !ok {
		return nil, nil
	}
	now := s.now()
	if e.isExpired(now) {
		s.purgeLocked(key, e)
		return nil, nil
	}
	return e.data.Clone(), nil
}

// UpdateSession implements store.LegacyStore.
func (s *Store) UpdateSession(_ context.Context, key ids.SessionKey, data *sessionmodel.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[key]
	if !ok || e.isExpired(s.now()) {
		if ok {
			s.purgeLocked(key, e)
		}
		return store.NotFound("session not found")
	}
	if err := store.CheckContextImmutable(e.data.TenantCtx, data.TenantCtx); err != nil {
		return err
	}

	data.Normalize()
	now := s.now()
	data.UpdatedAt = now
	data.Key = key
	e.data = data.Clone()
	e.expiresAt = expiresAt(now, time.Duration(data.TTLSecs)*time.Second)
	return nil
}

// RemoveSession implements store.LegacyStore.
func (s *Store) RemoveSession(_ context.Context, key ids.SessionKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[key]
	if !ok {
		return store.NotFound("session not found")
	}
	s.purgeLocked(key, e)
	return nil
}

// FindByUser implements store.LegacyStore. Because this backend also
// maintains the wait index, more than one live wait for the user is
// ambiguous and surfaces InvalidInput.
func (s *Store) FindByUser(_ context.Context, tenantCtx ids.TenantCtx, user ids.UserId) (ids.SessionKey, *sessionmodel.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.userWaits[userLookupKey(tenantCtx, user)]
	now := s.now()

	var live []ids.SessionKey
	for key := range set {
		e, ok := s.sessions[key]
		if !ok || e.isExpired(now) {
			continue
		}
		live = append(live, key)
	}
	if len(live) == 0 {
		return "", nil, nil
	}
	if len(live) > 1 {
		return "", nil, store.InvalidInput("multiple waits registered for user")
	}
	key := live[0]
	return key, s.sessions[key].data.Clone(), nil
}

// RegisterWait implements store.RoutingStore.
func (s *Store) RegisterWait(_ context.Context, tenantCtx ids.TenantCtx, user ids.UserId, scope ids.ReplyScope, key ids.SessionKey, data *sessionmodel.Session, ttl time.Duration) error {
	if err := store.CheckWaitAlignment(tenantCtx, data.TenantCtx, user); err != nil {
		return err
	}

	data.Normalize()
	now := s.now()
	data.UpdatedAt = now
	data.Key = key

	s.mu.Lock()
	defer s.mu.Unlock()

	sk := scopeLookupKey(tenantCtx, user, scope)
	uk := userLookupKey(tenantCtx, user)

	if prior, ok := s.scopeIndex[sk]; ok && prior.sessionKey != key {
		if set := s.userWaits[uk]; set != nil {
			delete(set, prior.sessionKey)
		}
	}

	exp := expiresAt(now, ttl)
	s.sessions[key] = &entry{
		data:      data.Clone(),
		expiresAt: exp,
		waitUser:  user,
		scopeKey:  sk,
	}
	s.scopeIndex[sk] = scopeEntry{sessionKey: key, expiresAt: exp}
	if s.userWaits[uk] == nil {
		s.userWaits[uk] = make(map[ids.SessionKey]struct{})
	}
	s.userWaits[uk][key] = struct{}{}
	return nil
}

// FindWaitByScope implements store.RoutingStore.
func (s *Store) FindWaitByScope(_ context.Context, tenantCtx ids.TenantCtx, user ids.UserId, scope ids.ReplyScope) (ids.SessionKey, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sk := scopeLookupKey(tenantCtx, user, scope)
	se, ok := s.scopeIndex[sk]
	if !ok {
		return "", false, nil
	}

	e, ok := s.sessions[se.sessionKey]
	if !ok || e.isExpired(s.now()) || !e.data.TenantCtx.EqualNormalized(tenantCtx) || e.waitUser != user {
		s.pruneScopeLocked(tenantCtx, user, sk, se.sessionKey)
		if ok {
			s.purgeLocked(se.sessionKey, e)
		}
		return "", false, nil
	}
	return se.sessionKey, true, nil
}

// ListWaitsForUser implements store.RoutingStore.
func (s *Store) ListWaitsForUser(_ context.Context, tenantCtx ids.TenantCtx, user ids.UserId) ([]ids.SessionKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	uk := userLookupKey(tenantCtx, user)
	set := s.userWaits[uk]
	now := s.now()

	var live []ids.SessionKey
	var stale []ids.SessionKey
	for key := range set {
		e, ok := s.sessions[key]
		if !ok || e.isExpired(now) || !e.data.TenantCtx.EqualNormalized(tenantCtx) || e.waitUser != user {
			stale = append(stale, key)
			continue
		}
		live = append(live, key)
	}
	for _, key := range stale {
		delete(set, key)
		if e, ok := s.sessions[key]; ok {
			delete(s.scopeIndex, e.scopeKey)
			delete(s.sessions, key)
		}
	}
	return live, nil
}

// ClearWait implements store.RoutingStore.
func (s *Store) ClearWait(_ context.Context, tenantCtx ids.TenantCtx, user ids.UserId, scope ids.ReplyScope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sk := scopeLookupKey(tenantCtx, user, scope)
	se, ok := s.scopeIndex[sk]
	if !ok {
		return nil
	}
	s.pruneScopeLocked(tenantCtx, user, sk, se.sessionKey)
	if e, ok := s.sessions[se.sessionKey]; ok {
		delete(s.sessions, se.sessionKey)
		_ = e
	}
	return nil
}

// purgeLocked removes a session and its dangling index back-references.
// Caller must hold s.mu.
func (s *Store) purgeLocked(key ids.SessionKey, e *entry) {
	delete(s.sessions, key)
	if e.scopeKey != "" {
		delete(s.scopeIndex, e.scopeKey)
	}
	for uk, set := range s.userWaits {
		if _, ok := set[key]; ok {
			delete(set, key)
			if len(set) == 0 {
				delete(s.userWaits, uk)
			}
		}
	}
	obslog.Debug("memory store: purged stale entry", obslog.String("session_key", key.String()))
}

func (s *Store) pruneScopeLocked(tenantCtx ids.TenantCtx, user ids.UserId, scopeKey string, sessionKey ids.SessionKey) {
	delete(s.scopeIndex, scopeKey)
	uk := userLookupKey(tenantCtx, user)
	if set := s.userWaits[uk]; set != nil {
		delete(set, sessionKey)
		if len(set) == 0 {
			delete(s.userWaits, uk)
		}
	}
}
