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

// Package sessionstore is the backend factory of spec.md §4.6: a
// configuration variant plus an operation-family selector produce a
// constructed, ready-to-use store Handle. Factory failure (an
// unparseable URL, an unreachable server) surfaces as
// store.KindUnavailable, never a panic.
package sessionstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/greentic-ai/session-store/internal/obslog"
	"github.com/greentic-ai/session-store/store"
	"github.com/greentic-ai/session-store/store/memcas"
	"github.com/greentic-ai/session-store/store/memory"
	"github.com/greentic-ai/session-store/store/rediscas"
	"github.com/greentic-ai/session-store/store/redisroute"
)

// BackendKind selects the storage medium.
type BackendKind int

const (
	// InMemory constructs a process-local store.
	InMemory BackendKind = iota
	// RedisURL parses url and uses the default namespace.
	RedisURL
	// RedisURLWithNamespace parses url and uses the given namespace.
	RedisURLWithNamespace
)

// Family selects which write protocol the handle exposes: last-write-
// wins routing (legacy + wait family) or strong-consistency CAS.
type Family int

const (
	// FamilyRouting selects store.LegacyStore + store.RoutingStore.
	FamilyRouting Family = iota
	// FamilyCas selects store.CasStore.
	FamilyCas
)

// Config is the SessionBackendConfig of spec.md §6.
type Config struct {
	Kind      BackendKind
	RedisURL  string
	Namespace string
}

// InMemoryConfig selects the in-memory backend.
func InMemoryConfig() Config {
	return Config{Kind: InMemory}
}

// RedisURLConfig selects the Redis backend with the default namespace.
func RedisURLConfig(url string) Config {
	return Config{Kind: RedisURL, RedisURL: url}
}

// RedisURLWithNamespaceConfig selects the Redis backend with an
// explicit namespace.
func RedisURLWithNamespaceConfig(url, namespace string) Config {
	return Config{Kind: RedisURLWithNamespace, RedisURL: url, Namespace: namespace}
}

// Handle is the capability set a constructed backend exposes. Only
// the fields matching the requested Family are populated; callers
// depend on the narrowest store interface their use case needs.
type Handle struct {
	Legacy  store.LegacyStore
	Routing store.RoutingStore
	Cas     store.CasStore

	client redis.UniversalClient // nil for in-memory backends
}

// Close releases any underlying connection. Safe to call on an
// in-memory handle.
func (h *Handle) Close() error {
	if h.client == nil {
		return nil
	}
	return h.client.Close()
}

// Ping reports whether the backend is reachable. An in-memory handle
// is always reachable; a Redis-backed handle issues a PING.
func (h *Handle) Ping(ctx context.Context) error {
	if h.client == nil {
		return nil
	}
	if err := h.client.Ping(ctx).Err(); err != nil {
		return store.Unavailable("redis ping failed", err)
	}
	return nil
}

const pingTimeout = 5 * time.Second

func dial(ctx context.Context, rawURL string) (redis.UniversalClient, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, store.Unavailable("failed to parse redis url", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, store.Unavailable("failed to connect to redis", err)
	}
	return client, nil
}

// New constructs a Handle per cfg and family. Redis connectivity is
// verified with a Ping before returning.
func New(ctx context.Context, cfg Config, family Family) (*Handle, error) {
	switch cfg.Kind {
	case InMemory:
		return newInMemory(family), nil
	case RedisURL:
		return newRedis(ctx, cfg.RedisURL, "", family)
	case RedisURLWithNamespace:
		return newRedis(ctx, cfg.RedisURL, cfg.Namespace, family)
	default:
		return nil, store.Unavailable("unknown backend kind", nil)
	}
}

func newInMemory(family Family) *Handle {
	switch family {
	case FamilyCas:
		return &Handle{Cas: memcas.New()}
	default:
		m := memory.New()
		return &Handle{Legacy: m, Routing: m}
	}
}

func newRedis(ctx context.Context, url, namespace string, family Family) (*Handle, error) {
	client, err := dial(ctx, url)
	if err != nil {
		obslog.Warn("sessionstore: redis dial failed", obslog.Err(err))
		return nil, err
	}

	switch family {
	case FamilyCas:
		return &Handle{Cas: rediscas.New(client, namespace), client: client}, nil
	default:
		r := redisroute.New(client, namespace)
		return &Handle{Legacy: r, Routing: r, client: client}, nil
	}
}
