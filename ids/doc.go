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

// Package ids defines the opaque, string-backed identifier types the
// session store consumes from its collaborator layer (EnvId, TenantId,
// TeamId, UserId, FlowId, SessionKey), the TenantCtx authorization
// fence carried on every store call, and ReplyScope, the routing
// envelope used by the wait/scope subsystem.
//
// These types are intentionally thin: construction only rejects the
// empty string. Richer validation belongs to the collaborator layer
// this package stands in for; the store only compares, hashes, and
// embeds these values in keys.
package ids
