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

package sessionstore

import (
	"context"
	"testing"
	"time"
)

func TestNew_RedisURL_RoutingFamily(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	h, err := New(ctx, RedisURLConfig("redis://localhost:6379/0"), FamilyRouting)
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	defer h.Close()

	if h.Legacy == nil || h.Routing == nil {
		t.Error("routing family handle should populate Legacy and Routing, leave Cas nil")
	}
	if h.Cas != nil {
		t.Error("routing family handle must not populate Cas")
	}
}

func TestNew_RedisURL_CasFamily(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	h, err := New(ctx, RedisURLConfig("redis://localhost:6379/0"), FamilyCas)
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	defer h.Close()

	if h.Cas == nil {
		t.Error("cas family handle should populate Cas")
	}
	if h.Legacy != nil || h.Routing != nil {
		t.Error("cas family handle must not populate Legacy/Routing")
	}
}

func TestNew_RedisURL_UnreachableSurfacesUnavailable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := New(ctx, RedisURLConfig("redis://127.0.0.1:1"), FamilyRouting)
	if err == nil {
		t.Fatal("expected an error connecting to an unreachable redis port")
	}
}

func TestNew_InMemory_NeverFails(t *testing.T) {
	h, err := New(context.Background(), InMemoryConfig(), FamilyRouting)
	if err != nil {
		t.Fatalf("New() with an in-memory config must never fail, got %v", err)
	}
	if err := h.Close(); err != nil {
		t.Errorf("Close() on an in-memory handle should be a no-op, got %v", err)
	}
}
