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

// Package health provides Kubernetes-compatible liveness/readiness
// probes for a process embedding a sessionstore.Handle.
//
// # Liveness Probe
//
//	liveness := health.NewLivenessChecker()
//	http.Handle("/health/live", health.Handler(liveness))
//
// # Readiness Probe
//
//	readiness := health.NewReadinessChecker(health.NewStoreChecker(handle))
//	http.Handle("/health/ready", health.Handler(readiness))
//
// A Redis-backed handle's readiness check pings the server; an
// in-memory handle is always ready.
package health
