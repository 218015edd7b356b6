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

// Package memcas implements the CAS-family in-memory backend
// (store.CasStore) described in spec.md §4.3's "CAS variant": a
// single map guarded by one mutex, so every read-compare-write is
// atomic, plus a best-effort expired-key sweep gated to run at most
// once per 60 seconds of monotonic time.
package memcas

import (
	"context"
	"sync"
	"time"

	"github.com/greentic-ai/session-store/ids"
	"github.com/greentic-ai/session-store/internal/obslog"
	"github.com/greentic-ai/session-store/sessionmodel"
	"github.com/greentic-ai/session-store/store"
)

const sweepInterval = 60 * time.Second

type slot struct {
	session   *sessionmodel.Session
	cas       sessionmodel.Cas
	expiresAt time.Time // zero value means "never expires"
}

func (s *slot) isExpired(now time.Time) bool {
	return !s.expiresAt.IsZero() && !now.Before(s.expiresAt)
}

// Store is the CAS-family in-memory backend.
type Store struct {
	mu      sync.Mutex
	entries map[ids.SessionKey]*slot

	lastSweep time.Time
	monoNow   func() time.Time
	wallNow   func() time.Time
}

var _ store.CasStore = (*Store)(nil)

// New constructs an empty CAS in-memory store.
func New() *Store {
	return &Store{
		entries: make(map[ids.SessionKey]*slot),
		monoNow: time.Now,
		wallNow: time.Now,
	}
}

func expiryFor(now time.Time, ttlSecs uint32) time.Time {
	if ttlSecs == 0 {
		return time.Time{}
	}
	return now.Add(time.Duration(ttlSecs) * time.Second)
}

// maybeSweep drops expired entries, at most once per sweepInterval.
// Caller must hold s.mu.
func (s *Store) maybeSweep() {
	now := s.monoNow()
	if !s.lastSweep.IsZero() && now.Sub(s.lastSweep) < sweepInterval {
		return
	}
	s.lastSweep = now
	wall := s.wallNow()
	removed := 0
	for key, sl := range s.entries {
		if sl.isExpired(wall) {
			delete(s.entries, key)
			removed++
		}
	}
	if removed > 0 {
		obslog.Debug("memcas store: opportunistic sweep removed expired entries", obslog.Uint64("count", uint64(removed)))
	}
}

// Get implements store.CasStore.
func (s *Store) Get(_ context.Context, key ids.SessionKey) (*sessionmodel.Session, sessionmodel.Cas, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.maybeSweep()
	sl, ok := s.entries[key]
	if !ok || sl.isExpired(s.wallNow()) {
		if ok {
			delete(s.entries, key)
		}
		return nil, sessionmodel.CasNone, nil
	}
	return sl.session.Clone(), sl.cas, nil
}

// Put implements store.CasStore.
func (s *Store) Put(_ context.Context, session *sessionmodel.Session) (sessionmodel.Cas, error) {
	session.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.maybeSweep()
	now := s.wallNow()
	session.UpdatedAt = now

	next := sessionmodel.CasInitial
	if existing, ok := s.entries[session.Key]; ok && !existing.isExpired(now) {
		next = existing.cas.Next()
	}
	s.entries[session.Key] = &slot{
		session:   session.Clone(),
		cas:       next,
		expiresAt: expiryFor(now, session.TTLSecs),
	}
	return next, nil
}

// UpdateCas implements store.CasStore.
func (s *Store) UpdateCas(_ context.Context, session *sessionmodel.Session, expected sessionmodel.Cas) (sessionmodel.Cas, bool, error) {
	session.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.maybeSweep()
	now := s.wallNow()

	existing, ok := s.entries[session.Key]
	if !ok || existing.isExpired(now) {
		if ok {
			delete(s.entries, session.Key)
		}
		return sessionmodel.CasNone, false, nil
	}
	if existing.cas != expected {
		return existing.cas, false, nil
	}

	next := existing.cas.Next()
	session.UpdatedAt = now
	s.entries[session.Key] = &slot{
		session:   session.Clone(),
		cas:       next,
		expiresAt: expiryFor(now, session.TTLSecs),
	}
	return next, true, nil
}

// Delete implements store.CasStore.
func (s *Store) Delete(_ context.Context, key ids.SessionKey) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.maybeSweep()
	sl, ok := s.entries[key]
	if !ok {
		return false, nil
	}
	delete(s.entries, key)
	return !sl.isExpired(s.wallNow()), nil
}

// Touch implements store.CasStore. A nil ttl leaves the existing TTL
// untouched; a non-nil ttl replaces it (zero clears it to "never
// expire").
func (s *Store) Touch(_ context.Context, key ids.SessionKey, ttl *time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.maybeSweep()
	now := s.wallNow()
	sl, ok := s.entries[key]
	if !ok || sl.isExpired(now) {
		if ok {
			delete(s.entries, key)
		}
		return false, nil
	}

	sl.session.UpdatedAt = now
	if ttl != nil {
		if *ttl > 0 {
			sl.expiresAt = now.Add(*ttl)
			sl.session.TTLSecs = uint32(*ttl / time.Second)
		} else {
			sl.expiresAt = time.Time{}
			sl.session.TTLSecs = 0
		}
	}
	return true, nil
}
