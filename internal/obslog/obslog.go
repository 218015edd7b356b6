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

// Package obslog is the ambient structured logger backends use to
// report index pruning, expiry sweeps, failed index cleanup, and
// connectivity failures. It
// never participates in store semantics — spec.md §6 requires that
// observable side effects be limited to the configured backend, so
// nothing here ever causes an operation to fail and no backend may
// branch on whether logging succeeded.
//
// The package-level logger defaults to a no-op and is swapped once at
// process start via SetLogger; tests never need to configure it.
package obslog

import (
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field is a structured logging key/value pair, mirroring zap.Field so
// call sites never import zap directly.
type Field = zapcore.Field

// String constructs a string Field.
func String(key, value string) Field { return zap.String(key, value) }

// Uint64 constructs a uint64 Field.
func Uint64(key string, value uint64) Field { return zap.Uint64(key, value) }

// Err constructs an error Field.
func Err(err error) Field { return zap.Error(err) }

var current atomic.Pointer[zap.Logger]

func init() {
	current.Store(zap.NewNop())
}

// SetLogger installs the process-wide logger. Call once at startup;
// the CLI does this after config load.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	current.Store(l)
}

// Debug logs a debug-level event: index pruning, opportunistic sweeps.
func Debug(msg string, fields ...Field) {
	current.Load().Debug(msg, fields...)
}

// Warn logs a warn-level event: backend connectivity failures, failed
// cleanup of stale index entries.
func Warn(msg string, fields ...Field) {
	current.Load().Warn(msg, fields...)
}
