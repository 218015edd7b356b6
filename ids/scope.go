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

package ids

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// ReplyScope identifies where a reply to a paused flow will arrive:
// a conversation, an optional thread within it, an optional specific
// message being replied to, and an optional correlation token.
type ReplyScope struct {
	Conversation string
	Thread       string
	ReplyTo      string
	Correlation  string
}

// ScopeHash returns the stable textual digest used inside wait index
// keys. Two scopes with equal fields always produce equal hashes,
// across processes and across restarts, since the digest only depends
// on the field values.
//
// blake2b-256 is used here rather than the SHA-256 the mapping
// package uses for connector-derived SessionKeys: the two digests
// serve different purposes (a short index fragment vs. a primary key)
// and must never collide in meaning, so they deliberately use
// different primitives.
func (s ReplyScope) ScopeHash() string {
	input := fmt.Sprintf("conv:%s|thread:%s|reply:%s|corr:%s",
		s.Conversation, s.Thread, s.ReplyTo, s.Correlation)
	sum := blake2b.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}
