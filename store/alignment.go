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

package store

import "github.com/greentic-ai/session-store/ids"

// CheckCreateAlignment enforces invariant 1 (tenant alignment on
// create): env, tenant, and normalized team must match between the
// caller's ctx and the data being stored; if data carries a user, it
// must match the ctx's normalized user too. Returns a named
// InvalidInput error for the first field found to mismatch, or nil.
func CheckCreateAlignment(callerCtx, dataCtx ids.TenantCtx) error {
	if callerCtx.Env != dataCtx.Env {
		return InvalidInput("env must match")
	}
	if callerCtx.Tenant != dataCtx.Tenant {
		return InvalidInput("tenant must match")
	}
	if callerCtx.NormalizedTeam() != dataCtx.NormalizedTeam() {
		return InvalidInput("team must match")
	}
	if dataCtx.HasUser() && callerCtx.NormalizedUser() != dataCtx.NormalizedUser() {
		return InvalidInput("user must match")
	}
	return nil
}

// CheckContextImmutable enforces invariant 2 (context immutability on
// update): env, tenant, normalized team, and normalized user cannot
// change between the stored context and the new one; a user cannot be
// introduced where none existed, nor removed once present.
func CheckContextImmutable(storedCtx, newCtx ids.TenantCtx) error {
	if storedCtx.Env != newCtx.Env {
		return InvalidInput("env must match")
	}
	if storedCtx.Tenant != newCtx.Tenant {
		return InvalidInput("tenant must match")
	}
	if storedCtx.NormalizedTeam() != newCtx.NormalizedTeam() {
		return InvalidInput("team must match")
	}
	if storedCtx.HasUser() != newCtx.HasUser() {
		return InvalidInput("user presence must not change")
	}
	if storedCtx.HasUser() && storedCtx.NormalizedUser() != newCtx.NormalizedUser() {
		return InvalidInput("user must match")
	}
	return nil
}

// CheckWaitAlignment enforces invariant 3 (wait alignment): the data
// must carry a user, and both the ctx's normalized user (if any) and
// the data's normalized user must equal the target user.
func CheckWaitAlignment(callerCtx, dataCtx ids.TenantCtx, user ids.UserId) error {
	if !dataCtx.HasUser() {
		return InvalidInput("wait requires data to carry a user")
	}
	if dataCtx.NormalizedUser() != user {
		return InvalidInput("user must match")
	}
	if callerCtx.HasUser() && callerCtx.NormalizedUser() != user {
		return InvalidInput("user must match")
	}
	return nil
}
