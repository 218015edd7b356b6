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

package sessionmodel

import (
	"time"

	"github.com/google/uuid"

	"github.com/greentic-ai/session-store/ids"
)

// Cursor is a resumable pointer into a flow graph.
type Cursor struct {
	NodePointer string  `json:"nodePointer"`
	WaitReason  string  `json:"waitReason,omitempty"`
	OutboxSeq   uint64  `json:"outboxSeq"`
}

// NewCursor constructs a Cursor positioned at the given node, with no
// wait reason and outbox sequence zero.
func NewCursor(nodePointer string) Cursor {
	return Cursor{NodePointer: nodePointer}
}

// OutboxEntry is a single queued effect, deduplicated by (Seq,
// PayloadSHA256).
type OutboxEntry struct {
	Seq           uint64    `json:"seq"`
	PayloadSHA256 [32]byte  `json:"payloadSha256"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Session is the durable snapshot of an in-flight flow: tenant
// context, flow identifier, resumable cursor, serialized execution
// state, and an outbox of effects to apply.
type Session struct {
	Key ids.SessionKey `json:"key"`

	TenantCtx ids.TenantCtx `json:"tenantCtx"`

	FlowId ids.FlowId `json:"flowId"`
	PackId string     `json:"packId,omitempty"`

	Cursor      Cursor        `json:"cursor"`
	ContextJSON string        `json:"contextJson"`
	Outbox      []OutboxEntry `json:"outbox"`

	UpdatedAt time.Time `json:"updatedAt"`
	TTLSecs   uint32    `json:"ttlSecs"`
}

// NewSessionKey generates a fresh random SessionKey as a textual
// 128-bit UUID, used by create_session/put when no connector-derived
// key is supplied.
func NewSessionKey() ids.SessionKey {
	return ids.SessionKey(uuid.NewString())
}

// TenantId is a convenience accessor mirroring the original source's
// Session::tenant_id().
func (s *Session) TenantId() ids.TenantId {
	return s.TenantCtx.Tenant
}

// Normalize applies in-place cleanup: outbox deduplication by
// (Seq, PayloadSHA256) in first-wins order. ttl_secs == 0 is left
// untouched — it already means "never expire".
func (s *Session) Normalize() {
	s.DedupeOutbox()
}

// DedupeOutbox retains the first occurrence of each (Seq,
// PayloadSHA256) pair, preserving order.
func (s *Session) DedupeOutbox() {
	type key struct {
		seq uint64
		sum [32]byte
	}
	seen := make(map[key]struct{}, len(s.Outbox))
	kept := s.Outbox[:0:0]
	for _, entry := range s.Outbox {
		k := key{entry.Seq, entry.PayloadSHA256}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		kept = append(kept, entry)
	}
	s.Outbox = kept
}

// ExpiresAt returns the computed expiry deadline, or the zero Time
// (with ok=false) when ttl_secs == 0 ("never expire").
func (s *Session) ExpiresAt() (deadline time.Time, ok bool) {
	if s.TTLSecs == 0 {
		return time.Time{}, false
	}
	return s.UpdatedAt.Add(time.Duration(s.TTLSecs) * time.Second), true
}

// IsExpired reports whether the session's TTL has elapsed as of now.
func (s *Session) IsExpired(now time.Time) bool {
	deadline, ok := s.ExpiresAt()
	if !ok {
		return false
	}
	return !now.Before(deadline)
}

// Clone returns a deep copy, so stores can hand out snapshots without
// letting callers mutate internal state.
func (s *Session) Clone() *Session {
	clone := *s
	clone.Outbox = append([]OutboxEntry(nil), s.Outbox...)
	return &clone
}
