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

package health

import (
	"context"

	"github.com/greentic-ai/session-store/sessionstore"
)

// StoreChecker reports the reachability of the backend a
// sessionstore.Handle was constructed against. An in-memory handle is
// always healthy; a Redis-backed handle pings the server.
type StoreChecker struct {
	handle *sessionstore.Handle
}

// NewStoreChecker wraps handle for use in a ReadinessChecker.
func NewStoreChecker(handle *sessionstore.Handle) *StoreChecker {
	return &StoreChecker{handle: handle}
}

// Name returns the name of this health check.
func (c *StoreChecker) Name() string {
	return "session-store"
}

// Check performs the readiness check.
func (c *StoreChecker) Check(ctx context.Context) CheckResult {
	if err := c.handle.Ping(ctx); err != nil {
		return CheckResult{
			Name:    c.Name(),
			Status:  StatusUnhealthy,
			Message: err.Error(),
		}
	}
	return CheckResult{Name: c.Name(), Status: StatusHealthy}
}
