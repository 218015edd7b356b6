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

package memory

import (
	"context"
	"testing"
	"time"

	"github.com/greentic-ai/session-store/ids"
	"github.com/greentic-ai/session-store/sessionmodel"
	"github.com/greentic-ai/session-store/store"
)

func newSession(tc ids.TenantCtx) *sessionmodel.Session {
	return &sessionmodel.Session{
		TenantCtx: tc,
		FlowId:    "flow-1",
		Cursor:    sessionmodel.NewCursor("start"),
	}
}

func TestCreateSession_AlignmentEnforced(t *testing.T) {
	s := New()
	ctx := context.Background()
	caller := ids.NewTenantCtx("dev", "a").WithTeam("team-a")
	mismatched := newSession(ids.NewTenantCtx("dev", "b").WithTeam("team-a"))

	if _, err := s.CreateSession(ctx, caller, mismatched); !store.IsInvalidInput(err) {
		t.Errorf("expected InvalidInput for tenant mismatch, got %v", err)
	}
}

func TestCreateSession_GetSession_RoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()
	tc := ids.NewTenantCtx("dev", "a").WithTeam("team-a")

	key, err := s.CreateSession(ctx, tc, newSession(tc))
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	got, err := s.GetSession(ctx, key)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if got == nil || got.Key != key {
		t.Fatalf("GetSession() = %+v, want key %s", got, key)
	}
}

func TestUpdateSession_NotFound(t *testing.T) {
	s := New()
	ctx := context.Background()
	tc := ids.NewTenantCtx("dev", "a")

	err := s.UpdateSession(ctx, "missing-key", newSession(tc))
	if !store.IsNotFound(err) {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestUpdateSession_ContextImmutable(t *testing.T) {
	s := New()
	ctx := context.Background()
	tc := ids.NewTenantCtx("dev", "a").WithTeam("team-a")
	key, _ := s.CreateSession(ctx, tc, newSession(tc))

	mutated := newSession(ids.NewTenantCtx("dev", "a").WithTeam("team-b"))
	if err := s.UpdateSession(ctx, key, mutated); !store.IsInvalidInput(err) {
		t.Errorf("expected InvalidInput for team mutation, got %v", err)
	}
}

func TestRemoveSession_NotFound(t *testing.T) {
	s := New()
	if err := s.RemoveSession(context.Background(), "missing-key"); !store.IsNotFound(err) {
		t.Errorf("expected NotFound, got %v", err)
	}
}

// TestFindByUser_TenantFence is scenario 4 of spec.md §8.
func TestFindByUser_TenantFence(t *testing.T) {
	s := New()
	ctx := context.Background()
	tc := ids.NewTenantCtx("dev", "a").WithTeam("team-a").WithUser("user-1")
	scope := ids.ReplyScope{Conversation: "c1"}

	if err := s.RegisterWait(ctx, tc, "user-1", scope, sessionmodel.NewSessionKey(), newSession(tc), 0); err != nil {
		t.Fatalf("RegisterWait() error = %v", err)
	}

	otherTeam := ids.NewTenantCtx("dev", "a").WithTeam("team-b")
	if key, _, err := s.FindByUser(ctx, otherTeam, "user-1"); err != nil || key != "" {
		t.Errorf("expected no result for mismatched team, got key=%q err=%v", key, err)
	}

	if key, _, err := s.FindByUser(ctx, tc, "user-2"); err != nil || key != "" {
		t.Errorf("expected no result for mismatched user, got key=%q err=%v", key, err)
	}

	key, data, err := s.FindByUser(ctx, tc, "user-1")
	if err != nil || key == "" || data == nil {
		t.Errorf("expected a result for the correct ctx, got key=%q err=%v", key, err)
	}
}

// TestFindByUser_AmbiguousLegacyLookup is scenario 5 of spec.md §8.
func TestFindByUser_AmbiguousLegacyLookup(t *testing.T) {
	s := New()
	ctx := context.Background()
	tc := ids.NewTenantCtx("dev", "a").WithUser("user-1")

	_ = s.RegisterWait(ctx, tc, "user-1", ids.ReplyScope{Conversation: "c1"}, sessionmodel.NewSessionKey(), newSession(tc), 0)
	_ = s.RegisterWait(ctx, tc, "user-1", ids.ReplyScope{Conversation: "c2"}, sessionmodel.NewSessionKey(), newSession(tc), 0)

	_, _, err := s.FindByUser(ctx, tc, "user-1")
	if !store.IsInvalidInput(err) {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
}

func TestRegisterWait_ReplacesPriorScopeEntry(t *testing.T) {
	s := New()
	ctx := context.Background()
	tc := ids.NewTenantCtx("dev", "a").WithUser("user-1")
	scope := ids.ReplyScope{Conversation: "c1"}

	first := sessionmodel.NewSessionKey()
	second := sessionmodel.NewSessionKey()
	_ = s.RegisterWait(ctx, tc, "user-1", scope, first, newSession(tc), 0)
	_ = s.RegisterWait(ctx, tc, "user-1", scope, second, newSession(tc), 0)

	key, found, err := s.FindWaitByScope(ctx, tc, "user-1", scope)
	if err != nil || !found || key != second {
		t.Fatalf("FindWaitByScope() = (%q, %v, %v), want (%q, true, nil)", key, found, err, second)
	}

	waits, err := s.ListWaitsForUser(ctx, tc, "user-1")
	if err != nil {
		t.Fatalf("ListWaitsForUser() error = %v", err)
	}
	if len(waits) != 1 || waits[0] != second {
		t.Errorf("ListWaitsForUser() = %v, want exactly [%q] (first must be evicted)", waits, second)
	}
}

func TestClearWait_SilentIfAbsent(t *testing.T) {
	s := New()
	tc := ids.NewTenantCtx("dev", "a").WithUser("user-1")
	if err := s.ClearWait(context.Background(), tc, "user-1", ids.ReplyScope{Conversation: "none"}); err != nil {
		t.Errorf("ClearWait() on absent scope should be silent, got %v", err)
	}
}

// TestTTLExpiry is scenario 6 / quantified invariant 6 of spec.md §8.
func TestTTLExpiry(t *testing.T) {
	s := New()
	now := time.Now()
	s.now = func() time.Time { return now }

	tc := ids.NewTenantCtx("dev", "a").WithTeam("team-a")
	data := newSession(tc)
	data.TTLSecs = 1
	key, err := s.CreateSession(context.Background(), tc, data)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	now = now.Add(2 * time.Second)
	got, err := s.GetSession(context.Background(), key)
	if err != nil || got != nil {
		t.Errorf("GetSession() after TTL elapsed = (%v, %v), want (nil, nil)", got, err)
	}
}

// TestIndexSelfHealing is quantified invariant 7 of spec.md §8: a
// dangling wait (whose session record is gone while its index entries
// remain) must be pruned on the next lookup rather than surfacing an
// error.
func TestIndexSelfHealing(t *testing.T) {
	s := New()
	ctx := context.Background()
	tc := ids.NewTenantCtx("dev", "a").WithUser("user-1")
	scope := ids.ReplyScope{Conversation: "c1"}
	key := sessionmodel.NewSessionKey()

	_ = s.RegisterWait(ctx, tc, "user-1", scope, key, newSession(tc), 0)

	// simulate dangling state directly, bypassing purgeLocked's index cleanup
	s.mu.Lock()
	delete(s.sessions, key)
	s.mu.Unlock()

	if _, found, err := s.FindWaitByScope(ctx, tc, "user-1", scope); err != nil || found {
		t.Errorf("FindWaitByScope() over dangling entry = (found=%v, err=%v), want (false, nil)", found, err)
	}
	if _, found, _ := s.FindWaitByScope(ctx, tc, "user-1", scope); found {
		t.Error("dangling entry should have been pruned, not merely skipped")
	}
}
