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

// Package redisroute implements the routing-layout Redis backend
// (store.LegacyStore + store.RoutingStore) described in spec.md §4.4.
// Cross-key index updates are not transactional; readers prune stale
// entries they observe, the same self-healing rule the in-memory
// backend applies.
package redisroute

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/greentic-ai/session-store/ids"
	"github.com/greentic-ai/session-store/internal/obslog"
	"github.com/greentic-ai/session-store/sessionmodel"
	"github.com/greentic-ai/session-store/store"
)

// DefaultNamespace is the namespace prefix used when none is given.
const DefaultNamespace = "greentic:session"

// Store is the routing-layout Redis backend.
type Store struct {
	client    redis.UniversalClient
	namespace string
}

var _ store.LegacyStore = (*Store)(nil)
var _ store.RoutingStore = (*Store)(nil)

// New constructs a Store against an already-configured client.
func New(client redis.UniversalClient, namespace string) *Store {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Store{client: client, namespace: namespace}
}

func (s *Store) sessionKey(key ids.SessionKey) string {
	return s.namespace + ":session:" + key.String()
}

func teamSegment(ctx ids.TenantCtx) string {
	team := ctx.NormalizedTeam()
	if team == "" {
		return "-"
	}
	return team.String()
}

func (s *Store) userWaitsKey(ctx ids.TenantCtx, user ids.UserId) string {
	return s.namespace + ":waits:user:" + ctx.Env.String() + ":" + ctx.Tenant.String() + ":" + teamSegment(ctx) + ":" + user.String()
}

func (s *Store) scopeKey(ctx ids.TenantCtx, user ids.UserId, scope ids.ReplyScope) string {
	return s.namespace + ":waits:scope:" + ctx.Env.String() + ":" + ctx.Tenant.String() + ":" + teamSegment(ctx) + ":" + user.String() + ":" + scope.ScopeHash()
}

func pexpireMillis(ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	ms := ttl.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	if ms > math.MaxInt64 {
		ms = math.MaxInt64
	}
	return ms
}

func (s *Store) loadSession(ctx context.Context, key ids.SessionKey) (*sessionmodel.Session, error) {
	raw, err := s.client.Get(ctx, s.sessionKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, store.Unavailable("redis get failed", err)
	}
	var data sessionmodel.Session
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, store.Internal("failed to decode session", err)
	}
	return &data, nil
}

func (s *Store) storeSession(ctx context.Context, data *sessionmodel.Session, ttl time.Duration) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return store.Internal("failed to encode session", err)
	}
	if err := s.client.Set(ctx, s.sessionKey(data.Key), payload, 0).Err(); err != nil {
		return store.Unavailable("redis set failed", err)
	}
	if ttl > 0 {
		if err := s.client.PExpire(ctx, s.sessionKey(data.Key), ttl).Err(); err != nil {
			return store.Unavailable("redis pexpire failed", err)
		}
	} else {
		if err := s.client.Persist(ctx, s.sessionKey(data.Key)).Err(); err != nil {
			return store.Unavailable("redis persist failed", err)
		}
	}
	return nil
}

// CreateSession implements store.LegacyStore.
func (s *Store) CreateSession(ctx context.Context, tenantCtx ids.TenantCtx, data *sessionmodel.Session) (ids.SessionKey, error) {
	if err := store.CheckCreateAlignment(tenantCtx, data.TenantCtx); err != nil {
		return "", err
	}

	data.Normalize()
	if data.Key == "" {
		data.Key = sessionmodel.NewSessionKey()
	}
	data.UpdatedAt = time.Now().UTC()

	ttl := time.Duration(data.TTLSecs) * time.Second
	if err := s.storeSession(ctx, data, ttl); err != nil {
		return "", err
	}
	return data.Key, nil
}

// GetSession implements store.LegacyStore.
func (s *Store) GetSession(ctx context.Context, key ids.SessionKey) (*sessionmodel.Session, error) {
	data, err := s.loadSession(ctx, key)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	if data.IsExpired(time.Now().UTC()) {
		return nil, nil
	}
	return data, nil
}

// UpdateSession implements store.LegacyStore.
func (s *Store) UpdateSession(ctx context.Context, key ids.SessionKey, data *sessionmodel.Session) error {
	existing, err := s.loadSession(ctx, key)
	if err != nil {
		return err
	}
	if existing == nil {
		return store.NotFound("session not found")
	}
	if err := store.CheckContextImmutable(existing.TenantCtx, data.TenantCtx); err != nil {
		return err
	}

	data.Normalize()
	data.Key = key
	data.UpdatedAt = time.Now().UTC()
	return s.storeSession(ctx, data, time.Duration(data.TTLSecs)*time.Second)
}

// RemoveSession implements store.LegacyStore.
func (s *Store) RemoveSession(ctx context.Context, key ids.SessionKey) error {
	existing, err := s.loadSession(ctx, key)
	if err != nil {
		return err
	}
	if existing == nil {
		return store.NotFound("session not found")
	}

	if err := s.client.Del(ctx, s.sessionKey(key)).Err(); err != nil {
		return store.Unavailable("redis del failed", err)
	}
	if existing.TenantCtx.HasUser() {
		uk := s.userWaitsKey(existing.TenantCtx, existing.TenantCtx.NormalizedUser())
		if err := s.client.SRem(ctx, uk, key.String()).Err(); err != nil {
			obslog.Warn("redisroute store: failed to remove wait-set member on delete", obslog.String("session_key", key.String()), obslog.Err(err))
		}
	}
	return nil
}

// FindByUser implements store.LegacyStore.
func (s *Store) FindByUser(ctx context.Context, tenantCtx ids.TenantCtx, user ids.UserId) (ids.SessionKey, *sessionmodel.Session, error) {
	uk := s.userWaitsKey(tenantCtx, user)
	members, err := s.client.SMembers(ctx, uk).Result()
	if err != nil {
		return "", nil, store.Unavailable("redis smembers failed", err)
	}

	var live []ids.SessionKey
	now := time.Now().UTC()
	for _, m := range members {
		key := ids.SessionKey(m)
		data, err := s.loadSession(ctx, key)
		if err != nil {
			return "", nil, err
		}
		if data == nil || data.IsExpired(now) || !data.TenantCtx.EqualNormalized(tenantCtx) || data.TenantCtx.NormalizedUser() != user {
			s.pruneUserSetMember(ctx, uk, key)
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
	data, err := s.loadSession(ctx, key)
	if err != nil {
		return "", nil, err
	}
	return key, data, nil
}

func (s *Store) pruneUserSetMember(ctx context.Context, userSetKey string, key ids.SessionKey) {
	if err := s.client.SRem(ctx, userSetKey, key.String()).Err(); err != nil {
		obslog.Warn("redisroute store: failed to prune stale wait-set member", obslog.String("session_key", key.String()), obslog.Err(err))
	}
}

// RegisterWait implements store.RoutingStore.
func (s *Store) RegisterWait(ctx context.Context, tenantCtx ids.TenantCtx, user ids.UserId, scope ids.ReplyScope, key ids.SessionKey, data *sessionmodel.Session, ttl time.Duration) error {
	if err := store.CheckWaitAlignment(tenantCtx, data.TenantCtx, user); err != nil {
		return err
	}

	data.Normalize()
	data.Key = key
	data.UpdatedAt = time.Now().UTC()
	if err := s.storeSession(ctx, data, ttl); err != nil {
		return err
	}

	sk := s.scopeKey(tenantCtx, user, scope)
	prior, err := s.client.Get(ctx, sk).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return store.Unavailable("redis get failed", err)
	}
	uk := s.userWaitsKey(tenantCtx, user)
	if prior != "" && prior != key.String() {
		s.pruneUserSetMember(ctx, uk, ids.SessionKey(prior))
	}

	if err := s.client.Set(ctx, sk, key.String(), 0).Err(); err != nil {
		return store.Unavailable("redis set failed", err)
	}
	if err := s.client.SAdd(ctx, uk, key.String()).Err(); err != nil {
		return store.Unavailable("redis sadd failed", err)
	}
	if ttl > 0 {
		ms := pexpireMillis(ttl)
		if err := s.client.PExpire(ctx, sk, time.Duration(ms)*time.Millisecond).Err(); err != nil {
			return store.Unavailable("redis pexpire failed", err)
		}
	}
	return nil
}

// FindWaitByScope implements store.RoutingStore.
func (s *Store) FindWaitByScope(ctx context.Context, tenantCtx ids.TenantCtx, user ids.UserId, scope ids.ReplyScope) (ids.SessionKey, bool, error) {
	sk := s.scopeKey(tenantCtx, user, scope)
	raw, err := s.client.Get(ctx, sk).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, store.Unavailable("redis get failed", err)
	}
	key := ids.SessionKey(raw)

	data, err := s.loadSession(ctx, key)
	if err != nil {
		return "", false, err
	}
	if data == nil || data.IsExpired(time.Now().UTC()) || !data.TenantCtx.EqualNormalized(tenantCtx) || data.TenantCtx.NormalizedUser() != user {
		s.pruneScope(ctx, tenantCtx, user, sk, key)
		return "", false, nil
	}
	return key, true, nil
}

func (s *Store) pruneScope(ctx context.Context, tenantCtx ids.TenantCtx, user ids.UserId, scopeKey string, key ids.SessionKey) {
	if err := s.client.Del(ctx, scopeKey).Err(); err != nil {
		obslog.Warn("redisroute store: failed to prune stale scope key", obslog.String("session_key", key.String()), obslog.Err(err))
	}
	s.pruneUserSetMember(ctx, s.userWaitsKey(tenantCtx, user), key)
}

// ListWaitsForUser implements store.RoutingStore.
func (s *Store) ListWaitsForUser(ctx context.Context, tenantCtx ids.TenantCtx, user ids.UserId) ([]ids.SessionKey, error) {
	uk := s.userWaitsKey(tenantCtx, user)
	members, err := s.client.SMembers(ctx, uk).Result()
	if err != nil {
		return nil, store.Unavailable("redis smembers failed", err)
	}

	now := time.Now().UTC()
	var live []ids.SessionKey
	for _, m := range members {
		key := ids.SessionKey(m)
		data, err := s.loadSession(ctx, key)
		if err != nil {
			return nil, err
		}
		if data == nil || data.IsExpired(now) || !data.TenantCtx.EqualNormalized(tenantCtx) || data.TenantCtx.NormalizedUser() != user {
			s.pruneUserSetMember(ctx, uk, key)
			continue
		}
		live = append(live, key)
	}
	return live, nil
}

// ClearWait implements store.RoutingStore.
func (s *Store) ClearWait(ctx context.Context, tenantCtx ids.TenantCtx, user ids.UserId, scope ids.ReplyScope) error {
	sk := s.scopeKey(tenantCtx, user, scope)
	raw, err := s.client.Get(ctx, sk).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return store.Unavailable("redis get failed", err)
	}

	if err := s.client.Del(ctx, sk).Err(); err != nil {
		return store.Unavailable("redis del failed", err)
	}
	s.pruneUserSetMember(ctx, s.userWaitsKey(tenantCtx, user), ids.SessionKey(raw))
	return nil
}
