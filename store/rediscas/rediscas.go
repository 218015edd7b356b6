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

// Package rediscas implements the CAS-layout Redis backend
// (store.CasStore) described in spec.md §4.4: a server-side Lua
// script makes read-compare-write atomic, and a lookup side-index
// resolves the tenant-bearing primary key from a bare SessionKey.
package rediscas

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/greentic-ai/session-store/ids"
	"github.com/greentic-ai/session-store/internal/obslog"
	"github.com/greentic-ai/session-store/resilience"
	"github.com/greentic-ai/session-store/sessionmodel"
	"github.com/greentic-ai/session-store/store"
)

// DefaultNamespace is the namespace prefix used when none is given.
const DefaultNamespace = "greentic:session"

// updateScript is the server-side CAS protocol of spec.md §4.4: it
// makes the read-compare-write atomic with respect to any other
// caller invoking the same script against the same key.
//
//	KEYS = [primary_key]
//	ARGV = [expected_cas, payload_json, ttl_seconds, new_cas]
//	returns {0, 0} absent | {1, current} conflict | {2, new_cas} committed
const updateScriptSource = `
local existing = redis.call('GET', KEYS[1])
if existing == false then
  return {0, 0}
end
local decoded = cjson.decode(existing)
local current = tonumber(decoded.cas)
local expected = tonumber(ARGV[1])
if current ~= expected then
  return {1, current}
end
redis.call('SET', KEYS[1], ARGV[2])
local ttl = tonumber(ARGV[3])
if ttl > 0 then
  redis.call('EXPIRE', KEYS[1], ttl)
else
  redis.call('PERSIST', KEYS[1])
end
return {2, tonumber(ARGV[4])}
`

var updateScript = redis.NewScript(updateScriptSource)

// envelope is the JSON wire format stored at the primary key.
type envelope struct {
	Cas     sessionmodel.Cas     `json:"cas"`
	Session *sessionmodel.Session `json:"session"`
}

// Store is the CAS-layout Redis backend.
type Store struct {
	client    redis.UniversalClient
	namespace string
	breaker   *resilience.CircuitBreaker
}

var _ store.CasStore = (*Store)(nil)

// New constructs a Store against an already-configured client. A
// circuit breaker guards every round trip so a string of failed Redis
// calls (a dead connection, a failing node) trips open instead of
// letting every caller queue up on the same timeout.
func New(client redis.UniversalClient, namespace string) *Store {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Store{
		client:    client,
		namespace: namespace,
		breaker:   resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig()),
	}
}

// guard runs fn through the store's circuit breaker, translating a
// tripped breaker into store.KindUnavailable like any other transport
// failure.
func (s *Store) guard(ctx context.Context, fn func(context.Context) error) error {
	err := s.breaker.Execute(ctx, fn)
	if errors.Is(err, resilience.ErrCircuitBreakerOpen) {
		return store.Unavailable("redis circuit breaker open", err)
	}
	return err
}

func (s *Store) primaryKey(tenant ids.TenantId, key ids.SessionKey) string {
	return s.namespace + ":" + tenant.String() + ":" + key.String()
}

func (s *Store) lookupKey(key ids.SessionKey) string {
	return s.namespace + ":lookup:" + key.String()
}

func (s *Store) rawGet(ctx context.Context, primaryKey string) (*envelope, error) {
	var raw []byte
	err := s.guard(ctx, func(ctx context.Context) error {
		var getErr error
		raw, getErr = s.client.Get(ctx, primaryKey).Bytes()
		if errors.Is(getErr, redis.Nil) {
			return nil
		}
		return getErr
	})
	if raw == nil && err == nil {
		return nil, nil
	}
	if err != nil {
		return nil, store.Unavailable("redis get failed", err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, store.Internal("failed to decode session envelope", err)
	}
	return &env, nil
}

// resolveTenant follows the lookup side-index from a bare SessionKey
// to its tenant. It does not check the primary record; callers that
// find the primary record gone purge the side-index entry themselves.
func (s *Store) resolveTenant(ctx context.Context, key ids.SessionKey) (ids.TenantId, bool, error) {
	var tenant string
	var absent bool
	err := s.guard(ctx, func(ctx context.Context) error {
		var getErr error
		tenant, getErr = s.client.Get(ctx, s.lookupKey(key)).Result()
		if errors.Is(getErr, redis.Nil) {
			absent = true
			return nil
		}
		return getErr
	})
	if err != nil {
		return "", false, store.Unavailable("redis lookup failed", err)
	}
	if absent {
		return "", false, nil
	}
	return ids.TenantId(tenant), true, nil
}

func (s *Store) purgeLookup(ctx context.Context, key ids.SessionKey) {
	err := s.guard(ctx, func(ctx context.Context) error {
		return s.client.Del(ctx, s.lookupKey(key)).Err()
	})
	if err != nil {
		obslog.Warn("rediscas store: failed to purge dangling lookup entry", obslog.String("session_key", key.String()), obslog.Err(err))
	}
}

// Get implements store.CasStore.
func (s *Store) Get(ctx context.Context, key ids.SessionKey) (*sessionmodel.Session, sessionmodel.Cas, error) {
	tenant, found, err := s.resolveTenant(ctx, key)
	if err != nil {
		return nil, sessionmodel.CasNone, err
	}
	if !found {
		return nil, sessionmodel.CasNone, nil
	}

	env, err := s.rawGet(ctx, s.primaryKey(tenant, key))
	if err != nil {
		return nil, sessionmodel.CasNone, err
	}
	if env == nil {
		s.purgeLookup(ctx, key)
		return nil, sessionmodel.CasNone, nil
	}
	return env.Session, env.Cas, nil
}

func (s *Store) ttlSeconds(ttlSecs uint32) int64 {
	return int64(ttlSecs)
}

// writeLookup mirrors the primary key's TTL onto the lookup side-index.
func (s *Store) writeLookup(ctx context.Context, key ids.SessionKey, tenant ids.TenantId, ttlSecs uint32) error {
	var ttl time.Duration
	if ttlSecs > 0 {
		ttl = time.Duration(ttlSecs) * time.Second
	}
	err := s.guard(ctx, func(ctx context.Context) error {
		return s.client.Set(ctx, s.lookupKey(key), tenant.String(), ttl).Err()
	})
	if err != nil {
		return store.Unavailable("redis set failed", err)
	}
	return nil
}

// casWrite invokes the server-side script once, returning the
// three-status result verbatim: 0 absent, 1 conflict (with current
// CAS), 2 committed.
func (s *Store) casWrite(ctx context.Context, primaryKey string, expected sessionmodel.Cas, session *sessionmodel.Session, next sessionmodel.Cas) (status int64, current sessionmodel.Cas, err error) {
	payload, err := json.Marshal(envelope{Cas: next, Session: session})
	if err != nil {
		return 0, 0, store.Internal("failed to encode session envelope", err)
	}

	var res interface{}
	err = s.guard(ctx, func(ctx context.Context) error {
		var runErr error
		res, runErr = updateScript.Run(ctx, s.client, []string{primaryKey},
			int64(expected), payload, s.ttlSeconds(session.TTLSecs), int64(next)).Result()
		return runErr
	})
	if err != nil {
		return 0, 0, store.Unavailable("redis CAS script failed", err)
	}

	rows, ok := res.([]interface{})
	if !ok || len(rows) != 2 {
		return 0, 0, store.Internal("unexpected CAS script return shape", nil)
	}
	statusVal, ok1 := rows[0].(int64)
	currentVal, ok2 := rows[1].(int64)
	if !ok1 || !ok2 {
		return 0, 0, store.Internal("unexpected CAS script return types", nil)
	}
	return statusVal, sessionmodel.Cas(currentVal), nil
}

// Put implements store.CasStore. It loops a read-then-CAS-write until
// it wins, so a concurrent writer never causes Put to silently lose a
// write: the client-computed expected/next pair (spec.md §4.4) is
// always derived from the CAS just observed.
func (s *Store) Put(ctx context.Context, session *sessionmodel.Session) (sessionmodel.Cas, error) {
	session.Normalize()
	tenant := session.TenantId()
	primaryKey := s.primaryKey(tenant, session.Key)

	for {
		env, err := s.rawGet(ctx, primaryKey)
		if err != nil {
			return sessionmodel.CasNone, err
		}
		expected := sessionmodel.CasNone
		if env != nil {
			expected = env.Cas
		}
		next := expected.Next()

		session.UpdatedAt = time.Now().UTC()
		status, current, err := s.casWrite(ctx, primaryKey, expected, session, next)
		if err != nil {
			return sessionmodel.CasNone, err
		}
		switch status {
		case 2:
			if err := s.writeLookup(ctx, session.Key, tenant, session.TTLSecs); err != nil {
				return sessionmodel.CasNone, err
			}
			return next, nil
		case 1, 0:
			_ = current
			continue // lost the race, or the key vanished underneath us; retry
		default:
			return sessionmodel.CasNone, store.Internal("unexpected CAS script status", nil)
		}
	}
}

// UpdateCas implements store.CasStore.
func (s *Store) UpdateCas(ctx context.Context, session *sessionmodel.Session, expected sessionmodel.Cas) (sessionmodel.Cas, bool, error) {
	session.Normalize()
	tenant := session.TenantId()
	primaryKey := s.primaryKey(tenant, session.Key)
	next := expected.Next()

	session.UpdatedAt = time.Now().UTC()
	status, current, err := s.casWrite(ctx, primaryKey, expected, session, next)
	if err != nil {
		return sessionmodel.CasNone, false, err
	}

	switch status {
	case 2:
		if err := s.writeLookup(ctx, session.Key, tenant, session.TTLSecs); err != nil {
			return sessionmodel.CasNone, false, err
		}
		return next, true, nil
	case 1:
		return current, false, nil
	case 0:
		s.purgeLookup(ctx, session.Key)
		return sessionmodel.CasNone, false, nil
	default:
		return sessionmodel.CasNone, false, store.Internal("unexpected CAS script status", nil)
	}
}

// Delete implements store.CasStore.
func (s *Store) Delete(ctx context.Context, key ids.SessionKey) (bool, error) {
	tenant, found, err := s.resolveTenant(ctx, key)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	var n int64
	err = s.guard(ctx, func(ctx context.Context) error {
		var delErr error
		n, delErr = s.client.Del(ctx, s.primaryKey(tenant, key)).Result()
		return delErr
	})
	if err != nil {
		return false, store.Unavailable("redis del failed", err)
	}
	s.purgeLookup(ctx, key)
	return n > 0, nil
}

// Touch implements store.CasStore. A nil ttl leaves the existing TTL
// untouched; a non-nil ttl replaces it (zero clears it to "never
// expire").
func (s *Store) Touch(ctx context.Context, key ids.SessionKey, ttl *time.Duration) (bool, error) {
	tenant, found, err := s.resolveTenant(ctx, key)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	primaryKey := s.primaryKey(tenant, key)
	env, err := s.rawGet(ctx, primaryKey)
	if err != nil {
		return false, err
	}
	if env == nil {
		s.purgeLookup(ctx, key)
		return false, nil
	}

	// touch is self-referential: it writes the session back under its
	// own current CAS, refreshing updated_at without bumping the
	// version. TTL is left alone unless the caller supplied a new one.
	env.Session.UpdatedAt = time.Now().UTC()
	if ttl != nil {
		if *ttl > 0 {
			env.Session.TTLSecs = uint32(*ttl / time.Second)
		} else {
			env.Session.TTLSecs = 0
		}
	}

	status, _, err := s.casWrite(ctx, primaryKey, env.Cas, env.Session, env.Cas)
	if err != nil {
		return false, err
	}
	switch status {
	case 2:
		if err := s.writeLookup(ctx, key, tenant, env.Session.TTLSecs); err != nil {
			return false, err
		}
		return true, nil
	case 0:
		s.purgeLookup(ctx, key)
		return false, nil
	default:
		// a concurrent writer raced us; the session is still live.
		return true, nil
	}
}
