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

package rediscas

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/greentic-ai/session-store/ids"
	"github.com/greentic-ai/session-store/sessionmodel"
)

func ttlPtr(d time.Duration) *time.Duration { return &d }

// setupRedis dials a local Redis and returns a namespaced Store,
// skipping the test if no server answers.
func setupRedis(t *testing.T) *Store {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	namespace := fmt.Sprintf("test:rediscas:%d", time.Now().UnixNano())
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

func newTestSession(key ids.SessionKey) *sessionmodel.Session {
	return &sessionmodel.Session{
		Key:       key,
		TenantCtx: ids.NewTenantCtx("dev", "acme"),
		FlowId:    "flow-1",
	}
}

func TestStore_Put_Get_RoundTrip(t *testing.T) {
	s := setupRedis(t)
	ctx := context.Background()

	cas, err := s.Put(ctx, newTestSession("sess-1"))
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if cas != sessionmodel.CasInitial {
		t.Errorf("Put() cas = %v, want CasInitial", cas)
	}

	got, gotCas, err := s.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got == nil || gotCas != cas {
		t.Fatalf("Get() = (%+v, %v), want a matching session at cas %v", got, gotCas, cas)
	}
}

// TestStore_UpdateCas_ConflictAndCommit is scenario 1 of spec.md §8.
func TestStore_UpdateCas_ConflictAndCommit(t *testing.T) {
	s := setupRedis(t)
	ctx := context.Background()

	cas, err := s.Put(ctx, newTestSession("sess-1"))
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if _, ok, err := s.UpdateCas(ctx, newTestSession("sess-1"), cas.Next()); err != nil || ok {
		t.Fatalf("UpdateCas() with a stale expected cas should report a conflict, got ok=%v err=%v", ok, err)
	}

	next, ok, err := s.UpdateCas(ctx, newTestSession("sess-1"), cas)
	if err != nil || !ok {
		t.Fatalf("UpdateCas() with the current cas should commit, got ok=%v err=%v", ok, err)
	}
	if next != cas.Next() {
		t.Errorf("UpdateCas() next = %v, want %v", next, cas.Next())
	}

	if _, ok, _ := s.UpdateCas(ctx, newTestSession("sess-1"), cas); ok {
		t.Error("replaying the spent cas token must not commit a second time")
	}
}

func TestStore_Delete(t *testing.T) {
	s := setupRedis(t)
	ctx := context.Background()

	if _, err := s.Put(ctx, newTestSession("sess-1")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	removed, err := s.Delete(ctx, "sess-1")
	if err != nil || !removed {
		t.Fatalf("Delete() = (%v, %v), want (true, nil)", removed, err)
	}

	got, _, err := s.Get(ctx, "sess-1")
	if err != nil || got != nil {
		t.Errorf("Get() after Delete() = (%+v, %v), want (nil, nil)", got, err)
	}
}

// TestStore_Touch_ExtendsTTLWithoutBumpingCas is scenario 2 of
// spec.md §8.
func TestStore_Touch_ExtendsTTLWithoutBumpingCas(t *testing.T) {
	s := setupRedis(t)
	ctx := context.Background()

	session := newTestSession("sess-1")
	session.TTLSecs = 60
	cas, err := s.Put(ctx, session)
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	ok, err := s.Touch(ctx, "sess-1", ttlPtr(120*time.Second))
	if err != nil || !ok {
		t.Fatalf("Touch() = (%v, %v), want (true, nil)", ok, err)
	}

	got, gotCas, err := s.Get(ctx, "sess-1")
	if err != nil || got == nil {
		t.Fatalf("Get() after Touch() error = %v", err)
	}
	if gotCas != cas {
		t.Errorf("Touch() must not bump cas: got %v, want %v", gotCas, cas)
	}
	if got.TTLSecs != 120 {
		t.Errorf("Touch() TTLSecs = %d, want 120", got.TTLSecs)
	}
}

// TestStore_Touch_NilTTLPreservesExistingValue confirms the optional-
// ttl contract: omitting ttl must never overwrite TTLSecs.
func TestStore_Touch_NilTTLPreservesExistingValue(t *testing.T) {
	s := setupRedis(t)
	ctx := context.Background()

	session := newTestSession("sess-1")
	session.TTLSecs = 90
	if _, err := s.Put(ctx, session); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	ok, err := s.Touch(ctx, "sess-1", nil)
	if err != nil || !ok {
		t.Fatalf("Touch() = (%v, %v), want (true, nil)", ok, err)
	}

	got, _, err := s.Get(ctx, "sess-1")
	if err != nil || got == nil {
		t.Fatalf("Get() after Touch() error = %v", err)
	}
	if got.TTLSecs != 90 {
		t.Errorf("Touch() with nil ttl changed TTLSecs to %d, want unchanged 90", got.TTLSecs)
	}
}

func TestStore_Get_LookupSelfHealsAfterExternalDelete(t *testing.T) {
	s := setupRedis(t)
	ctx := context.Background()

	if _, err := s.Put(ctx, newTestSession("sess-1")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	tenant := ids.TenantId("acme")
	if err := s.client.Del(ctx, s.primaryKey(tenant, "sess-1")).Err(); err != nil {
		t.Fatalf("direct redis Del() error = %v", err)
	}

	got, cas, err := s.Get(ctx, "sess-1")
	if err != nil || got != nil || cas != sessionmodel.CasNone {
		t.Errorf("Get() over a dangling lookup entry = (%+v, %v, %v), want (nil, CasNone, nil)", got, cas, err)
	}
}
