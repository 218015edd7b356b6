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
	"encoding/json"
	"net/http"
	"time"
)

// Handler creates an HTTP handler for a single health check.
func Handler(checker Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		timeout := 5 * time.Second
		if deadline, ok := ctx.Deadline(); ok {
			timeout = time.Until(deadline)
		}

		checkCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		result := checker.Check(checkCtx)

		w.Header().Set("Content-Type", "application/json")

		statusCode := http.StatusOK
		if result.IsUnhealthy() {
			statusCode = http.StatusServiceUnavailable
		}

		w.WriteHeader(statusCode)
		if err := json.NewEncoder(w).Encode(result); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{
				"error": "failed to encode health check result",
			})
		}
	}
}

// MultiHandler creates an HTTP handler that runs multiple health
// checks and reports their combined status.
func MultiHandler(checkers ...Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		timeout := 10 * time.Second
		if deadline, ok := ctx.Deadline(); ok {
			timeout = time.Until(deadline)
		}

		checkCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		results := make([]CheckResult, 0, len(checkers))
		overallStatus := StatusHealthy

		for _, checker := range checkers {
			result := checker.Check(checkCtx)
			results = append(results, result)

			if result.IsUnhealthy() {
				overallStatus = StatusUnhealthy
			} else if result.IsDegraded() && overallStatus == StatusHealthy {
				overallStatus = StatusDegraded
			}
		}

		response := map[string]interface{}{
			"status": overallStatus,
			"checks": results,
		}

		w.Header().Set("Content-Type", "application/json")

		statusCode := http.StatusOK
		if overallStatus == StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}

		w.WriteHeader(statusCode)
		json.NewEncoder(w).Encode(response)
	}
}
