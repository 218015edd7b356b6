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

//go:build integration

package redisroute

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/greentic-ai/session-store/ids"
	"github.com/greentic-ai/session-store/sessionmodel"
)

func setupRedis(t *testing.T) *Store {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	namespace := fmt.Sprintf("test:redisroute:%d", time.Now().UnixNano())
	s := New(client, namespace)

	t.Cleanup(func() {
		keys, _ := client.Keys(context.Background(), namespace+":*").Result()
		if len(keys) > 0 {
			_ = client.Del(context.Background(), keys...).Err()
		}
		_ = client.Close()
	})

	return s
}

func newTestSession(tc ids.TenantCtx) *sessionmodel.Session {
	return &sessionmodel.Session{TenantCtx: tc, FlowId: "flow-1"}
}

func TestStore_CreateSession_GetSession_RoundTrip(t *testing.T) {
	s := setupRedis(t)
	ctx := context.Background()
	tc := ids.NewTenantCtx("dev", "acme").WithTeam("team-a")

	key, err := s.CreateSession(ctx, tc, newTestSession(tc))
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	got, err := s.GetSession(ctx, key)
	if err != nil || got == nil {
		t.Fatalf("GetSession() = (%+v, %v), want a session", got, err)
	}
}

func TestStore_UpdateSession_ContextImmutable(t *testing.T) {
	s := setupRedis(t)
	ctx := context.Background()
	tc := ids.NewTenantCtx("dev", "acme").WithTeam("team-a")

	key, err := s.CreateSession(ctx, tc, newTestSession(tc))
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	mutated := newTestSession(ids.NewTenantCtx("dev", "acme").WithTeam("team-b"))
	if err := s.UpdateSession(ctx, key, mutated); err == nil {
		t.Error("expected an error mutating the tenant context")
	}
}

func TestStore_RemoveSession_NotFound(t *testing.T) {
	s := setupRedis(t)
	if err := s.RemoveSession(context.Background(), "missing"); err == nil {
		t.Error("expected NotFound removing an absent session")
	}
}

// TestStore_FindByUser_TenantFence is scenario 4 of spec.md §8.
func TestStore_FindByUser_TenantFence(t *testing.T) {
	s := setupRedis(t)
	ctx := context.Background()
	tc := ids.NewTenantCtx("dev", "acme").WithTeam("team-a").WithUser("user-1")

	key := sessionmodel.NewSessionKey()
	if err := s.RegisterWait(ctx, tc, "user-1", ids.ReplyScope{Conversation: "c1"}, key, newTestSession(tc), 0); err != nil {
		t.Fatalf("RegisterWait() error = %v", err)
	}

	otherTeam := ids.NewTenantCtx("dev", "acme").WithTeam("team-b")
	if gotKey, _, err := s.FindByUser(ctx, otherTeam, "user-1"); err != nil || gotKey != "" {
		t.Errorf("FindByUser() across team boundary = (%q, %v), want (\"\", nil)", gotKey, err)
	}

	gotKey, data, err := s.FindByUser(ctx, tc, "user-1")
	if err != nil || gotKey == "" || data == nil {
		t.Errorf("FindByUser() for the correct tenant = (%q, %v), want a hit", gotKey, err)
	}
}

func TestStore_RegisterWait_FindWaitByScope_ClearWait(t *testing.T) {
	s := setupRedis(t)
	ctx := context.Background()
	tc := ids.NewTenantCtx("dev", "acme").WithUser("user-1")
	scope := ids.ReplyScope{Conversation: "c1"}
	key := sessionmodel.NewSessionKey()

	if err := s.RegisterWait(ctx, tc, "user-1", scope, key, newTestSession(tc), time.Minute); err != nil {
		t.Fatalf("RegisterWait() error = %v", err)
	}

	gotKey, found, err := s.FindWaitByScope(ctx, tc, "user-1", scope)
	if err != nil || !found || gotKey != key {
		t.Fatalf("FindWaitByScope() = (%q, %v, %v), want (%q, true, nil)", gotKey, found, err, key)
	}

	if err := s.ClearWait(ctx, tc, "user-1", scope); err != nil {
		t.Fatalf("ClearWait() error = %v", err)
	}

	if _, found, err := s.FindWaitByScope(ctx, tc, "user-1", scope); err != nil || found {
		t.Errorf("FindWaitByScope() after ClearWait() = (found=%v, err=%v), want (false, nil)", found, err)
	}
}

func TestStore_ListWaitsForUser_IncludesLiveWait(t *testing.T) {
	s := setupRedis(t)
	ctx := context.Background()
	tc := ids.NewTenantCtx("dev", "acme").WithUser("user-1")

	live := sessionmodel.NewSessionKey()
	if err := s.RegisterWait(ctx, tc, "user-1", ids.ReplyScope{Conversation: "live"}, live, newTestSession(tc), time.Minute); err != nil {
		t.Fatalf("RegisterWait() error = %v", err)
	}

	waits, err := s.ListWaitsForUser(ctx, tc, "user-1")
	if err != nil {
		t.Fatalf("ListWaitsForUser() error = %v", err)
	}
	found := false
	for _, w := range waits {
		if w == live {
			found = true
		}
	}
	if !found {
		t.Errorf("ListWaitsForUser() = %v, want to include %q", waits, live)
	}
}
