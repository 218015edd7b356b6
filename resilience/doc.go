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

// Package resilience guards store/rediscas's round trips with a
// circuit breaker, so a string of failed calls against a dead Redis
// node trips open and fails fast instead of letting every caller
// queue up on the same dial timeout.
//
//	breaker := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig())
//
//	err := breaker.Execute(ctx, func(ctx context.Context) error {
//	    return client.Get(ctx, key).Err()
//	})
//
// A tripped breaker returns ErrCircuitBreakerOpen; store/rediscas's
// guard helper translates that into a store.KindUnavailable *store.Error
// alongside any other transport failure, so callers branch on
// store.Kind rather than on this package's sentinel.
package resilience
